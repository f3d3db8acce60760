package ledger

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
)

// casRetries bounds the optimistic-concurrency retry loop on a hot record.
const casRetries = 5

// Scope is the per-call identity context supplied by the API layer. Every
// query is scoped to SchoolID; UserID stamps created_by / collected_by.
type Scope struct {
	SchoolID string
	UserID   string
	Roles    []string
}

// Engine owns ledger records: it creates them, applies payments, recomputes
// due amounts and statuses, and cancels or deletes under guard.
type Engine struct {
	store      Store
	structures StructureCatalog
	students   StudentDirectory
	hooks      []PostCommitHook
	reminder   ReminderDispatcher
	now        func() time.Time
}

// NewEngine creates an Engine over the given store and catalogs.
func NewEngine(store Store, structures StructureCatalog, students StudentDirectory) *Engine {
	return &Engine{
		store:      store,
		structures: structures,
		students:   students,
		now:        time.Now,
	}
}

// AddPostCommitHook registers a best-effort hook invoked after each
// successful ledger mutation.
func (e *Engine) AddPostCommitHook(hook PostCommitHook) {
	e.hooks = append(e.hooks, hook)
}

// SetReminderDispatcher installs the reminder forwarding target.
func (e *Engine) SetReminderDispatcher(d ReminderDispatcher) {
	e.reminder = d
}

// SetClock overrides the engine's time source. Used by tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// CreateInput carries the fields for a new ledger record.
type CreateInput struct {
	StudentID      string
	FeeStructureID string
	AcademicYear   string
	Month          *int
	DueDate        time.Time
	// DiscountAmount overrides the structure's discount rule, e.g. when a
	// validated promo code was applied at checkout. Nil means the rule.
	DiscountAmount *decimal.Decimal
	Remarks        *string
}

// CreateRecord issues a new obligation for a student. It fails with
// ErrDuplicatePeriod if an active record already exists for the same
// (student, structure, year, month) and with ErrScopeMismatch if the
// structure's class scope excludes the student's class.
func (e *Engine) CreateRecord(scope Scope, input CreateInput) (*models.FeeLedgerRecord, error) {
	structure, err := e.structures.GetStructure(scope.SchoolID, input.FeeStructureID)
	if err != nil {
		return nil, err
	}

	student, err := e.students.GetStudent(scope.SchoolID, input.StudentID)
	if err != nil {
		return nil, err
	}

	classID := ""
	if student.ClassID != nil {
		classID = *student.ClassID
	}
	if !structure.AppliesToClass(classID) {
		return nil, ErrScopeMismatch
	}

	existing, err := e.store.FindActiveRecord(scope.SchoolID, input.StudentID, input.FeeStructureID, input.AcademicYear, input.Month)
	if err != nil && err != ErrRecordNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicatePeriod
	}

	total := structure.Amount
	var discount decimal.Decimal
	if input.DiscountAmount != nil {
		discount = *input.DiscountAmount
		if discount.GreaterThan(total) {
			discount = total
		}
		if discount.IsNegative() {
			discount = decimal.Zero
		}
	} else {
		discount = structure.ComputeDiscount(total)
	}

	due := total.Sub(discount)
	if due.IsNegative() {
		return nil, &InvariantError{Detail: "negative due amount computed at creation"}
	}

	now := e.now()
	rec := &models.FeeLedgerRecord{
		ID:             uuid.NewString(),
		SchoolID:       scope.SchoolID,
		StudentID:      input.StudentID,
		FeeStructureID: input.FeeStructureID,
		AcademicYear:   input.AcademicYear,
		Month:          input.Month,
		TotalAmount:    total,
		DiscountAmount: discount,
		LateFeeAmount:  decimal.Zero,
		PaidAmount:     decimal.Zero,
		DueAmount:      due,
		DueDate:        input.DueDate,
		Status:         models.StatusPending,
		Remarks:        input.Remarks,
		CreatedBy:      scope.UserID,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
		Frequency:      structure.Frequency,
	}

	if err := e.store.CreateRecord(rec); err != nil {
		return nil, err
	}

	e.firePostCommit(rec, OpCreate)
	return rec, nil
}

// PaymentInput carries one payment to apply against a record.
type PaymentInput struct {
	Amount        decimal.Decimal
	Date          time.Time
	Method        string
	TransactionID *string
	Remarks       *string
}

// ApplyPayment appends a payment to a record and recomputes its due amount
// and status. The read-check-write runs under a version check so that two
// concurrent payments can never both pass the exceeds-due validation against
// a stale balance.
func (e *Engine) ApplyPayment(scope Scope, recordID string, input PaymentInput) (*models.FeeLedgerRecord, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		rec, err := e.store.GetRecord(scope.SchoolID, recordID)
		if err != nil {
			return nil, err
		}

		switch rec.Status {
		case models.StatusCancelled:
			return nil, ErrAlreadyCancelled
		case models.StatusPaid:
			return nil, ErrRecordPaid
		}

		if input.Amount.GreaterThan(rec.DueAmount) {
			return nil, &ExceedsDueError{Due: rec.DueAmount}
		}

		entry := &models.PaymentEntry{
			ID:            uuid.NewString(),
			RecordID:      rec.ID,
			Amount:        input.Amount,
			PaymentDate:   input.Date,
			PaymentMethod: input.Method,
			TransactionID: input.TransactionID,
			Remarks:       input.Remarks,
			CollectedBy:   scope.UserID,
			CreatedAt:     e.now(),
		}

		expected := rec.Version
		rec.PaidAmount = rec.PaidAmount.Add(input.Amount)
		if rec.OutstandingBalance().IsNegative() {
			return nil, &InvariantError{Detail: "payment application produced a negative balance"}
		}
		rec.RecomputeDue()
		rec.Payments = append(rec.Payments, entry)
		rec.UpdatedAt = e.now()

		err = e.store.UpdateRecordCAS(rec, expected, entry)
		if err == ErrVersionConflict {
			continue
		}
		if err != nil {
			return nil, err
		}

		e.firePostCommit(rec, OpPayment)
		return rec, nil
	}

	return nil, ErrVersionConflict
}

// FieldPatch applies direct administrative edits. Set fields are written as
// given; nothing is recomputed and no business rules run beyond type
// constraints. The caller is responsible for consistency.
type FieldPatch struct {
	TotalAmount    *decimal.Decimal
	DiscountAmount *decimal.Decimal
	LateFeeAmount  *decimal.Decimal
	PaidAmount     *decimal.Decimal
	DueAmount      *decimal.Decimal
	DueDate        *time.Time
	Status         *models.RecordStatus
	Remarks        *string
}

// UpdateFields performs an administrative override on a record.
func (e *Engine) UpdateFields(scope Scope, recordID string, patch FieldPatch) (*models.FeeLedgerRecord, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		rec, err := e.store.GetRecord(scope.SchoolID, recordID)
		if err != nil {
			return nil, err
		}

		expected := rec.Version
		if patch.TotalAmount != nil {
			rec.TotalAmount = *patch.TotalAmount
		}
		if patch.DiscountAmount != nil {
			rec.DiscountAmount = *patch.DiscountAmount
		}
		if patch.LateFeeAmount != nil {
			rec.LateFeeAmount = *patch.LateFeeAmount
		}
		if patch.PaidAmount != nil {
			rec.PaidAmount = *patch.PaidAmount
		}
		if patch.DueAmount != nil {
			rec.DueAmount = *patch.DueAmount
		}
		if patch.DueDate != nil {
			rec.DueDate = *patch.DueDate
		}
		if patch.Status != nil {
			rec.Status = *patch.Status
		}
		if patch.Remarks != nil {
			rec.Remarks = patch.Remarks
		}
		rec.UpdatedAt = e.now()

		err = e.store.UpdateRecordCAS(rec, expected)
		if err == ErrVersionConflict {
			continue
		}
		if err != nil {
			return nil, err
		}

		e.firePostCommit(rec, OpUpdate)
		return rec, nil
	}

	return nil, ErrVersionConflict
}

// Cancel marks a record cancelled and records the reason. A cancelled record
// keeps its history but is excluded from active and due queries.
func (e *Engine) Cancel(scope Scope, recordID, reason string) (*models.FeeLedgerRecord, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		rec, err := e.store.GetRecord(scope.SchoolID, recordID)
		if err != nil {
			return nil, err
		}

		if rec.Status == models.StatusCancelled {
			return nil, ErrAlreadyCancelled
		}

		expected := rec.Version
		rec.Status = models.StatusCancelled
		rec.CancelReason = &reason
		rec.UpdatedAt = e.now()

		err = e.store.UpdateRecordCAS(rec, expected)
		if err == ErrVersionConflict {
			continue
		}
		if err != nil {
			return nil, err
		}

		e.firePostCommit(rec, OpCancel)
		return rec, nil
	}

	return nil, ErrVersionConflict
}

// Delete removes a record entirely. Records that have been paid into are
// never physically deleted; cancellation is the only terminal write path
// for them.
func (e *Engine) Delete(scope Scope, recordID string) error {
	rec, err := e.store.GetRecord(scope.SchoolID, recordID)
	if err != nil {
		return err
	}

	if rec.PaidAmount.GreaterThan(decimal.Zero) {
		return ErrHasPayments
	}

	if err := e.store.DeleteRecord(scope.SchoolID, recordID); err != nil {
		return err
	}

	e.firePostCommit(rec, OpDelete)
	return nil
}

// GetRecord loads a single record within the caller's school scope.
func (e *Engine) GetRecord(scope Scope, recordID string) (*models.FeeLedgerRecord, error) {
	return e.store.GetRecord(scope.SchoolID, recordID)
}

// ListRecords loads records within the caller's school scope.
func (e *Engine) ListRecords(scope Scope, filter RecordFilter) ([]*models.FeeLedgerRecord, error) {
	filter.SchoolID = scope.SchoolID
	return e.store.ListRecords(filter)
}

// SendReminder gates a reminder on record status and forwards it to the
// dispatcher. Delivery failures are logged as warnings, never returned: a
// failed reminder must not fail the caller.
func (e *Engine) SendReminder(scope Scope, recordID string, reminderType models.ReminderType) error {
	rec, err := e.store.GetRecord(scope.SchoolID, recordID)
	if err != nil {
		return err
	}

	switch rec.Status {
	case models.StatusPaid:
		return ErrRecordPaid
	case models.StatusCancelled:
		return ErrAlreadyCancelled
	}

	if e.reminder == nil {
		return nil
	}
	if err := e.reminder(rec, reminderType); err != nil {
		log.Printf("Warning: reminder dispatch failed for record %s: %v", rec.ID, err)
	}
	return nil
}

// IssueResult summarizes a bulk issuance run.
type IssueResult struct {
	Issued  int      `json:"issued"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// IssueForStructure creates a ledger record for every active student in a
// fee structure's class scope for the given period. Students who already
// carry an active record for the period are skipped; individual failures are
// collected instead of aborting the batch.
func (e *Engine) IssueForStructure(scope Scope, structureID, academicYear string, month *int, dueDate time.Time) (*IssueResult, error) {
	structure, err := e.structures.GetStructure(scope.SchoolID, structureID)
	if err != nil {
		return nil, err
	}

	students, err := e.students.ListActiveStudents(scope.SchoolID, structure.ClassScope)
	if err != nil {
		return nil, err
	}

	result := &IssueResult{}
	for _, student := range students {
		_, err := e.CreateRecord(scope, CreateInput{
			StudentID:      student.ID,
			FeeStructureID: structureID,
			AcademicYear:   academicYear,
			Month:          month,
			DueDate:        dueDate,
		})
		switch {
		case err == nil:
			result.Issued++
		case err == ErrDuplicatePeriod || err == ErrScopeMismatch:
			result.Skipped++
		default:
			result.Errors = append(result.Errors, student.ID+": "+err.Error())
		}
	}

	return result, nil
}
