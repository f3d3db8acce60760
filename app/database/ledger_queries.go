package database

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kunalgupta7870/Sparkology-sub003/app/ledger"
	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
)

// LedgerStore is the PostgreSQL implementation of ledger.Store. Mutations of
// existing records go through a version-guarded UPDATE so concurrent writers
// cannot both apply against a stale balance.
type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

const ledgerColumns = `id, school_id, student_id, fee_structure_id, academic_year, month,
	total_amount, discount_amount, late_fee_amount, paid_amount, due_amount,
	due_date, status, remarks, cancel_reason, created_by, version, created_at, updated_at`

func (s *LedgerStore) CreateRecord(rec *models.FeeLedgerRecord) error {
	query := `INSERT INTO fee_ledger_records
		(id, school_id, student_id, fee_structure_id, academic_year, month,
		 total_amount, discount_amount, late_fee_amount, paid_amount, due_amount,
		 due_date, status, remarks, created_by, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())`

	_, err := s.db.Exec(query,
		rec.ID, rec.SchoolID, rec.StudentID, rec.FeeStructureID, rec.AcademicYear, rec.Month,
		rec.TotalAmount, rec.DiscountAmount, rec.LateFeeAmount, rec.PaidAmount, rec.DueAmount,
		rec.DueDate, string(rec.Status), rec.Remarks, rec.CreatedBy, rec.Version,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ledger.ErrDuplicatePeriod
		}
		return errors.Wrap(err, "failed to insert ledger record")
	}
	return nil
}

func (s *LedgerStore) GetRecord(schoolID, id string) (*models.FeeLedgerRecord, error) {
	query := `SELECT ` + ledgerColumns + ` FROM fee_ledger_records WHERE id = $1 AND school_id = $2`

	rec, err := scanRecord(s.db.QueryRow(query, id, schoolID))
	if err != nil {
		return nil, err
	}

	if err := s.loadPayments([]*models.FeeLedgerRecord{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *LedgerStore) FindActiveRecord(schoolID, studentID, feeStructureID, academicYear string, month *int) (*models.FeeLedgerRecord, error) {
	query := `SELECT ` + ledgerColumns + ` FROM fee_ledger_records
		WHERE school_id = $1 AND student_id = $2 AND fee_structure_id = $3
		  AND academic_year = $4 AND COALESCE(month, 0) = COALESCE($5, 0)
		  AND status <> 'cancelled'
		LIMIT 1`

	return scanRecord(s.db.QueryRow(query, schoolID, studentID, feeStructureID, academicYear, month))
}

func (s *LedgerStore) UpdateRecordCAS(rec *models.FeeLedgerRecord, expectedVersion int, payments ...*models.PaymentEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin ledger update")
	}
	defer tx.Rollback()

	query := `UPDATE fee_ledger_records SET
			total_amount = $1, discount_amount = $2, late_fee_amount = $3,
			paid_amount = $4, due_amount = $5, due_date = $6, status = $7,
			remarks = $8, cancel_reason = $9, version = version + 1, updated_at = NOW()
		WHERE id = $10 AND school_id = $11 AND version = $12`

	result, err := tx.Exec(query,
		rec.TotalAmount, rec.DiscountAmount, rec.LateFeeAmount,
		rec.PaidAmount, rec.DueAmount, rec.DueDate, string(rec.Status),
		rec.Remarks, rec.CancelReason,
		rec.ID, rec.SchoolID, expectedVersion,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update ledger record")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read update result")
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM fee_ledger_records WHERE id = $1 AND school_id = $2)`,
			rec.ID, rec.SchoolID).Scan(&exists); err != nil {
			return errors.Wrap(err, "failed to check ledger record existence")
		}
		if !exists {
			return ledger.ErrRecordNotFound
		}
		return ledger.ErrVersionConflict
	}

	for _, p := range payments {
		_, err := tx.Exec(`INSERT INTO fee_payments
			(id, record_id, amount, payment_date, payment_method, transaction_id, remarks, collected_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
			p.ID, p.RecordID, p.Amount, p.PaymentDate, p.PaymentMethod, p.TransactionID, p.Remarks, p.CollectedBy,
		)
		if err != nil {
			return errors.Wrap(err, "failed to insert payment entry")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit ledger update")
	}

	rec.Version = expectedVersion + 1
	return nil
}

// DeleteRecord removes a record only while nothing has been paid into it.
// The guard lives in the statement itself, so a payment committing after the
// engine's read still blocks the delete.
func (s *LedgerStore) DeleteRecord(schoolID, id string) error {
	result, err := s.db.Exec(`DELETE FROM fee_ledger_records
		WHERE id = $1 AND school_id = $2 AND paid_amount = 0`, id, schoolID)
	if err != nil {
		return errors.Wrap(err, "failed to delete ledger record")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read delete result")
	}
	if affected == 0 {
		var exists bool
		if err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM fee_ledger_records WHERE id = $1 AND school_id = $2)`,
			id, schoolID).Scan(&exists); err != nil {
			return errors.Wrap(err, "failed to check ledger record existence")
		}
		if !exists {
			return ledger.ErrRecordNotFound
		}
		return ledger.ErrHasPayments
	}
	return nil
}

func (s *LedgerStore) ListRecords(filter ledger.RecordFilter) ([]*models.FeeLedgerRecord, error) {
	query := `SELECT r.id, r.school_id, r.student_id, r.fee_structure_id, r.academic_year, r.month,
			r.total_amount, r.discount_amount, r.late_fee_amount, r.paid_amount, r.due_amount,
			r.due_date, r.status, r.remarks, r.cancel_reason, r.created_by, r.version, r.created_at, r.updated_at,
			fs.frequency
		FROM fee_ledger_records r
		JOIN fee_structures fs ON r.fee_structure_id = fs.id
		JOIN students st ON r.student_id = st.id
		WHERE r.school_id = $1`

	args := []interface{}{filter.SchoolID}
	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		query += fmt.Sprintf(" AND %s$%d", clause, len(args))
	}

	if filter.StudentID != "" {
		addCondition("r.student_id = ", filter.StudentID)
	}
	if filter.ClassID != "" {
		addCondition("st.class_id = ", filter.ClassID)
	}
	if filter.FeeStructure != "" {
		addCondition("r.fee_structure_id = ", filter.FeeStructure)
	}
	if filter.AcademicYear != "" {
		addCondition("r.academic_year = ", filter.AcademicYear)
	}
	if filter.Month != nil {
		addCondition("r.month = ", *filter.Month)
	}
	if filter.ActiveOnly {
		query += " AND r.status <> 'cancelled'"
	}
	query += " ORDER BY r.created_at, r.id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list ledger records")
	}
	defer rows.Close()

	var records []*models.FeeLedgerRecord
	for rows.Next() {
		rec := &models.FeeLedgerRecord{}
		var month sql.NullInt64
		var frequency string
		err := rows.Scan(
			&rec.ID, &rec.SchoolID, &rec.StudentID, &rec.FeeStructureID, &rec.AcademicYear, &month,
			&rec.TotalAmount, &rec.DiscountAmount, &rec.LateFeeAmount, &rec.PaidAmount, &rec.DueAmount,
			&rec.DueDate, &rec.Status, &rec.Remarks, &rec.CancelReason, &rec.CreatedBy, &rec.Version,
			&rec.CreatedAt, &rec.UpdatedAt, &frequency,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan ledger record")
		}
		if month.Valid {
			m := int(month.Int64)
			rec.Month = &m
		}
		rec.Frequency = models.Frequency(frequency)
		records = append(records, rec)
	}

	if err := s.loadPayments(records); err != nil {
		return nil, err
	}
	return records, nil
}

// loadPayments attaches payment entries to the given records in insertion
// order.
func (s *LedgerStore) loadPayments(records []*models.FeeLedgerRecord) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]string, len(records))
	byID := make(map[string]*models.FeeLedgerRecord, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
		byID[rec.ID] = rec
	}

	rows, err := s.db.Query(`SELECT id, record_id, amount, payment_date, payment_method,
			transaction_id, remarks, collected_by, created_at
		FROM fee_payments WHERE record_id = ANY($1) ORDER BY created_at, id`, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "failed to load payment entries")
	}
	defer rows.Close()

	for rows.Next() {
		p := &models.PaymentEntry{}
		var method sql.NullString
		err := rows.Scan(&p.ID, &p.RecordID, &p.Amount, &p.PaymentDate, &method,
			&p.TransactionID, &p.Remarks, &p.CollectedBy, &p.CreatedAt)
		if err != nil {
			return errors.Wrap(err, "failed to scan payment entry")
		}
		p.PaymentMethod = method.String
		if rec, ok := byID[p.RecordID]; ok {
			rec.Payments = append(rec.Payments, p)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.FeeLedgerRecord, error) {
	rec := &models.FeeLedgerRecord{}
	var month sql.NullInt64
	err := row.Scan(
		&rec.ID, &rec.SchoolID, &rec.StudentID, &rec.FeeStructureID, &rec.AcademicYear, &month,
		&rec.TotalAmount, &rec.DiscountAmount, &rec.LateFeeAmount, &rec.PaidAmount, &rec.DueAmount,
		&rec.DueDate, &rec.Status, &rec.Remarks, &rec.CancelReason, &rec.CreatedBy, &rec.Version,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan ledger record")
	}
	if month.Valid {
		m := int(month.Int64)
		rec.Month = &m
	}
	return rec, nil
}
