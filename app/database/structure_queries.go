package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"

	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
)

// ErrStructureNotFound is returned when a fee structure is absent or outside
// the caller's school scope.
var ErrStructureNotFound = errors.New("fee structure not found")

// StructureCatalog is the PostgreSQL fee-structure catalog. It backs both
// the ledger engine's catalog lookups and the promo evaluator's product
// resolution.
type StructureCatalog struct {
	db *sql.DB
}

func NewStructureCatalog(db *sql.DB) *StructureCatalog {
	return &StructureCatalog{db: db}
}

const structureColumns = `id, school_id, name, category, amount, frequency, class_scope,
	discount_type, discount_value, late_fee_amount, is_active, created_at, updated_at`

func (c *StructureCatalog) GetStructure(schoolID, id string) (*models.FeeStructure, error) {
	query := `SELECT ` + structureColumns + ` FROM fee_structures
		WHERE id = $1 AND school_id = $2 AND deleted_at IS NULL`
	return scanStructure(c.db.QueryRow(query, id, schoolID))
}

// GetProduct satisfies the promo evaluator's catalog interface; promo codes
// target fee structures.
func (c *StructureCatalog) GetProduct(schoolID, id string) (*models.FeeStructure, error) {
	return c.GetStructure(schoolID, id)
}

func (c *StructureCatalog) ListStructures(schoolID string) ([]*models.FeeStructure, error) {
	query := `SELECT ` + structureColumns + ` FROM fee_structures
		WHERE school_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`

	rows, err := c.db.Query(query, schoolID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list fee structures")
	}
	defer rows.Close()

	var structures []*models.FeeStructure
	for rows.Next() {
		fs, err := scanStructure(rows)
		if err != nil {
			return nil, err
		}
		structures = append(structures, fs)
	}
	return structures, nil
}

func (c *StructureCatalog) CreateStructure(fs *models.FeeStructure) error {
	query := `INSERT INTO fee_structures
		(id, school_id, name, category, amount, frequency, class_scope,
		 discount_type, discount_value, late_fee_amount, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())`

	var discountType *string
	if fs.DiscountType != nil {
		dt := string(*fs.DiscountType)
		discountType = &dt
	}

	_, err := c.db.Exec(query,
		fs.ID, fs.SchoolID, fs.Name, fs.Category, fs.Amount, string(fs.Frequency),
		pq.Array(fs.ClassScope), discountType, fs.DiscountValue, fs.LateFeeAmount, fs.IsActive,
	)
	return pkgerrors.Wrap(err, "failed to insert fee structure")
}

func (c *StructureCatalog) UpdateStructure(fs *models.FeeStructure) error {
	query := `UPDATE fee_structures SET
			name = $1, category = $2, amount = $3, frequency = $4, class_scope = $5,
			discount_type = $6, discount_value = $7, late_fee_amount = $8, is_active = $9,
			updated_at = NOW()
		WHERE id = $10 AND school_id = $11 AND deleted_at IS NULL`

	var discountType *string
	if fs.DiscountType != nil {
		dt := string(*fs.DiscountType)
		discountType = &dt
	}

	result, err := c.db.Exec(query,
		fs.Name, fs.Category, fs.Amount, string(fs.Frequency), pq.Array(fs.ClassScope),
		discountType, fs.DiscountValue, fs.LateFeeAmount, fs.IsActive, fs.ID, fs.SchoolID,
	)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to update fee structure")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to read update result")
	}
	if affected == 0 {
		return ErrStructureNotFound
	}
	return nil
}

func (c *StructureCatalog) DeleteStructure(schoolID, id string) error {
	result, err := c.db.Exec(`UPDATE fee_structures SET deleted_at = NOW()
		WHERE id = $1 AND school_id = $2 AND deleted_at IS NULL`, id, schoolID)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to delete fee structure")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to read delete result")
	}
	if affected == 0 {
		return ErrStructureNotFound
	}
	return nil
}

func scanStructure(row rowScanner) (*models.FeeStructure, error) {
	fs := &models.FeeStructure{}
	var discountType sql.NullString
	err := row.Scan(
		&fs.ID, &fs.SchoolID, &fs.Name, &fs.Category, &fs.Amount, &fs.Frequency,
		pq.Array(&fs.ClassScope), &discountType, &fs.DiscountValue, &fs.LateFeeAmount,
		&fs.IsActive, &fs.CreatedAt, &fs.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrStructureNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to scan fee structure")
	}
	if discountType.Valid {
		dt := models.DiscountType(discountType.String)
		fs.DiscountType = &dt
	}
	return fs, nil
}
