package students

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/kunalgupta7870/Sparkology-sub003/app/database"
)

func schoolID(c *fiber.Ctx) string {
	return c.Locals("school_id").(string)
}

// GetStudentsAPI lists students, optionally filtered by class or a name
// search.
func GetStudentsAPI(c *fiber.Ctx, directory *database.StudentDirectory) error {
	sid := schoolID(c)

	if search := c.Query("search"); search != "" {
		limit := c.QueryInt("limit", 50)
		if limit < 1 || limit > 200 {
			limit = 50
		}
		offset := c.QueryInt("offset", 0)
		if offset < 0 {
			offset = 0
		}

		students, err := directory.SearchStudents(sid, search, limit, offset)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to search students")
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data":    students,
		})
	}

	var classIDs []string
	if classID := c.Query("class_id"); classID != "" {
		classIDs = []string{classID}
	}

	students, err := directory.ListActiveStudents(sid, classIDs)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch students")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    students,
	})
}

// GetStudentByIDAPI returns a single student.
func GetStudentByIDAPI(c *fiber.Ctx, directory *database.StudentDirectory) error {
	student, err := directory.GetStudent(schoolID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, database.ErrStudentNotFound) {
			return c.Status(404).JSON(fiber.Map{"success": false, "error": err.Error()})
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch student")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    student,
	})
}
