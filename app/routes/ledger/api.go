package ledger

import (
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/kunalgupta7870/Sparkology-sub003/app/database"
	ledgercore "github.com/kunalgupta7870/Sparkology-sub003/app/ledger"
	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
	"github.com/kunalgupta7870/Sparkology-sub003/app/promo"
)

var validate = validator.New()

// requestScope builds the engine scope from the authenticated request.
func requestScope(c *fiber.Ctx) ledgercore.Scope {
	roles, _ := c.Locals("user_roles").([]string)
	return ledgercore.Scope{
		SchoolID: c.Locals("school_id").(string),
		UserID:   c.Locals("user_id").(string),
		Roles:    roles,
	}
}

// respondError maps engine failures onto the API error taxonomy. Invariant
// violations are reported without detail; everything else carries enough
// for the caller to act.
func respondError(c *fiber.Ctx, err error) error {
	var exceeds *ledgercore.ExceedsDueError
	var invariant *ledgercore.InvariantError

	switch {
	case errors.Is(err, ledgercore.ErrRecordNotFound),
		errors.Is(err, database.ErrStudentNotFound),
		errors.Is(err, database.ErrStructureNotFound):
		return c.Status(404).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, ledgercore.ErrInvalidAmount):
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, ledgercore.ErrDuplicatePeriod),
		errors.Is(err, ledgercore.ErrScopeMismatch),
		errors.Is(err, ledgercore.ErrAlreadyCancelled),
		errors.Is(err, ledgercore.ErrRecordPaid),
		errors.Is(err, ledgercore.ErrHasPayments),
		errors.Is(err, ledgercore.ErrVersionConflict):
		return c.Status(409).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.As(err, &exceeds):
		return c.Status(409).JSON(fiber.Map{
			"success":    false,
			"error":      err.Error(),
			"due_amount": exceeds.Due,
		})
	case errors.As(err, &invariant):
		log.Printf("Ledger invariant violation: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Internal ledger error")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to process ledger request")
	}
}

type CreateRecordRequest struct {
	StudentID      string            `json:"student_id" validate:"required,uuid"`
	FeeStructureID string            `json:"fee_structure_id" validate:"required,uuid"`
	AcademicYear   string            `json:"academic_year" validate:"required"`
	Month          *int              `json:"month" validate:"omitempty,min=1,max=12"`
	DueDate        models.CustomTime `json:"due_date" validate:"required"`
	PromoCode      string            `json:"promo_code"`
	Remarks        *string           `json:"remarks"`
}

// CreateRecordAPI issues a new ledger record. A promo code, when supplied,
// is validated against the fee structure and its discount replaces the
// structure's own discount rule.
func CreateRecordAPI(c *fiber.Ctx, engine *ledgercore.Engine, evaluator *promo.Evaluator) error {
	var req CreateRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.DueDate.IsZero() {
		return fiber.NewError(fiber.StatusBadRequest, "due_date is required")
	}

	scope := requestScope(c)
	input := ledgercore.CreateInput{
		StudentID:      req.StudentID,
		FeeStructureID: req.FeeStructureID,
		AcademicYear:   req.AcademicYear,
		Month:          req.Month,
		DueDate:        req.DueDate.Time,
		Remarks:        req.Remarks,
	}

	if req.PromoCode != "" {
		result, err := evaluator.Validate(scope.SchoolID, req.PromoCode, req.FeeStructureID, nil)
		if err != nil {
			return respondPromoError(c, err)
		}
		input.DiscountAmount = &result.DiscountAmount
	}

	rec, err := engine.CreateRecord(scope, input)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    rec,
		"message": "Ledger record created successfully",
	})
}

// GetRecordsAPI lists ledger records with optional filtering. The status
// filter understands the derived "overdue" classification as well as the
// persisted statuses.
func GetRecordsAPI(c *fiber.Ctx, engine *ledgercore.Engine) error {
	scope := requestScope(c)

	filter := ledgercore.RecordFilter{
		StudentID:    c.Query("student_id"),
		ClassID:      c.Query("class_id"),
		FeeStructure: c.Query("fee_structure_id"),
		AcademicYear: c.Query("academic_year"),
	}
	if m := c.QueryInt("month", 0); m >= 1 && m <= 12 {
		filter.Month = &m
	}

	status := models.RecordStatus(c.Query("status"))
	if status != "" && status != models.StatusCancelled {
		filter.ActiveOnly = true
	}

	records, err := engine.ListRecords(scope, filter)
	if err != nil {
		return respondError(c, err)
	}

	now := time.Now()
	result := make([]*models.FeeLedgerRecord, 0, len(records))
	for _, rec := range records {
		reported := rec.ReportedStatus(now)
		if status != "" && reported != status {
			continue
		}
		rec.Status = reported
		result = append(result, rec)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// GetRecordByIDAPI returns a specific ledger record with its payments.
func GetRecordByIDAPI(c *fiber.Ctx, engine *ledgercore.Engine) error {
	rec, err := engine.GetRecord(requestScope(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	rec.Status = rec.ReportedStatus(time.Now())
	return c.JSON(fiber.Map{
		"success": true,
		"data":    rec,
	})
}

type UpdateRecordRequest struct {
	TotalAmount    *decimal.Decimal     `json:"total_amount"`
	DiscountAmount *decimal.Decimal     `json:"discount_amount"`
	LateFeeAmount  *decimal.Decimal     `json:"late_fee_amount"`
	PaidAmount     *decimal.Decimal     `json:"paid_amount"`
	DueAmount      *decimal.Decimal     `json:"due_amount"`
	DueDate        *models.CustomTime   `json:"due_date"`
	Status         *models.RecordStatus `json:"status" validate:"omitempty,oneof=pending partial paid cancelled"`
	Remarks        *string              `json:"remarks"`
}

// UpdateRecordAPI applies a direct administrative patch. Fields are written
// as given; the engine does not recompute payments.
func UpdateRecordAPI(c *fiber.Ctx, engine *ledgercore.Engine) error {
	var req UpdateRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	patch := ledgercore.FieldPatch{
		TotalAmount:    req.TotalAmount,
		DiscountAmount: req.DiscountAmount,
		LateFeeAmount:  req.LateFeeAmount,
		PaidAmount:     req.PaidAmount,
		DueAmount:      req.DueAmount,
		Status:         req.Status,
		Remarks:        req.Remarks,
	}
	if req.DueDate != nil {
		patch.DueDate = &req.DueDate.Time
	}

	rec, err := engine.UpdateFields(requestScope(c), c.Params("id"), patch)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    rec,
		"message": "Ledger record updated successfully",
	})
}

type AddPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	PaymentDate   time.Time       `json:"payment_date"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
	TransactionID *string         `json:"transaction_id"`
	Remarks       *string         `json:"remarks"`
}

// AddPaymentAPI applies a payment against a record.
func AddPaymentAPI(c *fiber.Ctx, engine *ledgercore.Engine) error {
	var req AddPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if req.PaymentDate.IsZero() {
		req.PaymentDate = time.Now()
	}

	rec, err := engine.ApplyPayment(requestScope(c), c.Params("id"), ledgercore.PaymentInput{
		Amount:        req.Amount,
		Date:          req.PaymentDate,
		Method:        req.PaymentMethod,
		TransactionID: req.TransactionID,
		Remarks:       req.Remarks,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    rec,
		"message": "Payment recorded successfully",
	})
}

// CancelRecordAPI cancels a record, keeping its history.
func CancelRecordAPI(c *fiber.Ctx, engine *ledgercore.Engine) error {
	type CancelRequest struct {
		Reason string `json:"reason" validate:"required"`
	}

	var req CancelRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "reason is required")
	}

	rec, err := engine.Cancel(requestScope(c), c.Params("id"), req.Reason)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    rec,
		"message": "Ledger record cancelled successfully",
	})
}

// DeleteRecordAPI hard-deletes a record that has never been paid into.
func DeleteRecordAPI(c *fiber.Ctx, engine *ledgercore.Engine) error {
	if err := engine.Delete(requestScope(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Ledger record deleted successfully",
	})
}

// SendReminderAPI forwards a reminder for an unpaid record.
func SendReminderAPI(c *fiber.Ctx, engine *ledgercore.Engine) error {
	type ReminderRequest struct {
		ReminderType models.ReminderType `json:"reminder_type" validate:"omitempty,oneof=due_date overdue"`
	}

	var req ReminderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.ReminderType == "" {
		req.ReminderType = models.ReminderDueDate
	}

	if err := engine.SendReminder(requestScope(c), c.Params("id"), req.ReminderType); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Reminder queued successfully",
	})
}

type IssueFeesRequest struct {
	FeeStructureID string            `json:"fee_structure_id" validate:"required,uuid"`
	AcademicYear   string            `json:"academic_year" validate:"required"`
	Month          *int              `json:"month" validate:"omitempty,min=1,max=12"`
	DueDate        models.CustomTime `json:"due_date" validate:"required"`
}

// IssueFeesAPI applies a fee structure to every student in its class scope.
func IssueFeesAPI(c *fiber.Ctx, engine *ledgercore.Engine) error {
	var req IssueFeesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	result, err := engine.IssueForStructure(requestScope(c), req.FeeStructureID, req.AcademicYear, req.Month, req.DueDate.Time)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
		"message": "Fees issued successfully",
	})
}

// GetDuesAPI returns the per-student arrears report.
func GetDuesAPI(c *fiber.Ctx, engine *ledgercore.Engine) error {
	academicYear := c.Query("academic_year")
	if academicYear == "" {
		return fiber.NewError(fiber.StatusBadRequest, "academic_year is required")
	}

	report, err := engine.ComputeDues(requestScope(c), academicYear, ledgercore.DuesFilter{
		StudentSearch: c.Query("search"),
		ClassID:       c.Query("class_id"),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    report,
	})
}

// GetOverdueAPI returns the flattened overdue record list.
func GetOverdueAPI(c *fiber.Ctx, engine *ledgercore.Engine) error {
	records, err := engine.ListOverdue(requestScope(c), c.Query("academic_year"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    records,
	})
}

// GetStatsAPI returns the aggregate collection summary.
func GetStatsAPI(c *fiber.Ctx, engine *ledgercore.Engine) error {
	var dateRange ledgercore.StatsRange
	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid from date")
		}
		dateRange.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid to date")
		}
		dateRange.To = t
	}

	stats, err := engine.ComputeStats(requestScope(c), c.Query("academic_year"), dateRange)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
	})
}
