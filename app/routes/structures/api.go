package structures

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kunalgupta7870/Sparkology-sub003/app/database"
	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
)

var validate = validator.New()

func schoolID(c *fiber.Ctx) string {
	return c.Locals("school_id").(string)
}

type CreateStructureRequest struct {
	Name          string               `json:"name" validate:"required"`
	Category      string               `json:"category" validate:"required"`
	Amount        decimal.Decimal      `json:"amount" validate:"required"`
	Frequency     models.Frequency     `json:"frequency" validate:"required,oneof=monthly one_time custom"`
	ClassScope    []string             `json:"class_scope" validate:"omitempty,dive,uuid"`
	DiscountType  *models.DiscountType `json:"discount_type" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue decimal.Decimal      `json:"discount_value"`
	LateFeeAmount decimal.Decimal      `json:"late_fee_amount"`
}

// CreateStructureAPI creates a new fee structure.
func CreateStructureAPI(c *fiber.Ctx, catalog *database.StructureCatalog) error {
	var req CreateStructureRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.Amount.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "amount cannot be negative")
	}

	fs := &models.FeeStructure{
		ID:            uuid.NewString(),
		SchoolID:      schoolID(c),
		Name:          req.Name,
		Category:      req.Category,
		Amount:        req.Amount,
		Frequency:     req.Frequency,
		ClassScope:    req.ClassScope,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		LateFeeAmount: req.LateFeeAmount,
		IsActive:      true,
	}

	if err := catalog.CreateStructure(fs); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to create fee structure")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    fs,
		"message": "Fee structure created successfully",
	})
}

// GetStructuresAPI lists the school's fee structures.
func GetStructuresAPI(c *fiber.Ctx, catalog *database.StructureCatalog) error {
	structures, err := catalog.ListStructures(schoolID(c))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch fee structures")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    structures,
	})
}

// GetStructureByIDAPI returns a single fee structure.
func GetStructureByIDAPI(c *fiber.Ctx, catalog *database.StructureCatalog) error {
	fs, err := catalog.GetStructure(schoolID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, database.ErrStructureNotFound) {
			return c.Status(404).JSON(fiber.Map{"success": false, "error": err.Error()})
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch fee structure")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fs,
	})
}

type UpdateStructureRequest struct {
	Name          *string              `json:"name"`
	Category      *string              `json:"category"`
	Amount        *decimal.Decimal     `json:"amount"`
	Frequency     *models.Frequency    `json:"frequency" validate:"omitempty,oneof=monthly one_time custom"`
	ClassScope    []string             `json:"class_scope" validate:"omitempty,dive,uuid"`
	DiscountType  *models.DiscountType `json:"discount_type" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue *decimal.Decimal     `json:"discount_value"`
	LateFeeAmount *decimal.Decimal     `json:"late_fee_amount"`
	IsActive      *bool                `json:"is_active"`
}

// UpdateStructureAPI updates a fee structure. Existing ledger records keep
// the amounts they were issued with.
func UpdateStructureAPI(c *fiber.Ctx, catalog *database.StructureCatalog) error {
	var req UpdateStructureRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	fs, err := catalog.GetStructure(schoolID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, database.ErrStructureNotFound) {
			return c.Status(404).JSON(fiber.Map{"success": false, "error": err.Error()})
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch fee structure")
	}

	if req.Name != nil {
		fs.Name = *req.Name
	}
	if req.Category != nil {
		fs.Category = *req.Category
	}
	if req.Amount != nil {
		if req.Amount.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "amount cannot be negative")
		}
		fs.Amount = *req.Amount
	}
	if req.Frequency != nil {
		fs.Frequency = *req.Frequency
	}
	if req.ClassScope != nil {
		fs.ClassScope = req.ClassScope
	}
	if req.DiscountType != nil {
		fs.DiscountType = req.DiscountType
	}
	if req.DiscountValue != nil {
		fs.DiscountValue = *req.DiscountValue
	}
	if req.LateFeeAmount != nil {
		fs.LateFeeAmount = *req.LateFeeAmount
	}
	if req.IsActive != nil {
		fs.IsActive = *req.IsActive
	}

	if err := catalog.UpdateStructure(fs); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to update fee structure")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fs,
		"message": "Fee structure updated successfully",
	})
}

// DeleteStructureAPI soft-deletes a fee structure.
func DeleteStructureAPI(c *fiber.Ctx, catalog *database.StructureCatalog) error {
	if err := catalog.DeleteStructure(schoolID(c), c.Params("id")); err != nil {
		if errors.Is(err, database.ErrStructureNotFound) {
			return c.Status(404).JSON(fiber.Map{"success": false, "error": err.Error()})
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to delete fee structure")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Fee structure deleted successfully",
	})
}
