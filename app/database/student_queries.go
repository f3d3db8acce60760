package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"

	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
)

// ErrStudentNotFound is returned when a student is absent or outside the
// caller's school scope.
var ErrStudentNotFound = errors.New("student not found")

// StudentDirectory resolves students for the ledger engine and the API
// layer's lookup endpoints.
type StudentDirectory struct {
	db *sql.DB
}

func NewStudentDirectory(db *sql.DB) *StudentDirectory {
	return &StudentDirectory{db: db}
}

const studentColumns = `id, school_id, student_code, first_name, last_name, class_id,
	guardian_contact, is_active, created_at, updated_at`

func (d *StudentDirectory) GetStudent(schoolID, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students
		WHERE id = $1 AND school_id = $2 AND deleted_at IS NULL`
	return scanStudent(d.db.QueryRow(query, id, schoolID))
}

// ListActiveStudents returns the active students in the given classes. An
// empty classIDs slice means every class.
func (d *StudentDirectory) ListActiveStudents(schoolID string, classIDs []string) ([]*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students
		WHERE school_id = $1 AND is_active = true AND deleted_at IS NULL`
	args := []interface{}{schoolID}

	if len(classIDs) > 0 {
		args = append(args, pq.Array(classIDs))
		query += fmt.Sprintf(" AND class_id = ANY($%d)", len(args))
	}
	query += " ORDER BY first_name, last_name"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list students")
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, nil
}

// SearchStudents returns active students matching a name or code fragment,
// with pagination.
func (d *StudentDirectory) SearchStudents(schoolID, search string, limit, offset int) ([]*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students
		WHERE school_id = $1 AND is_active = true AND deleted_at IS NULL`
	args := []interface{}{schoolID}

	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		args = append(args, pattern)
		query += fmt.Sprintf(` AND (LOWER(student_code) LIKE $%d
			OR LOWER(first_name || ' ' || last_name) LIKE $%d)`, len(args), len(args))
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY first_name, last_name LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to search students")
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, nil
}

func scanStudent(row rowScanner) (*models.Student, error) {
	student := &models.Student{}
	err := row.Scan(
		&student.ID, &student.SchoolID, &student.StudentCode, &student.FirstName, &student.LastName,
		&student.ClassID, &student.GuardianContact, &student.IsActive,
		&student.CreatedAt, &student.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to scan student")
	}
	return student, nil
}
