package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

const testSchool = "11111111-1111-1111-1111-111111111111"

// mockStore is an in-memory Store. GetRecord hands out copies, so engine
// mutations only become visible through UpdateRecordCAS, the same way a
// database round-trip behaves.
type mockStore struct {
	records      map[string]*models.FeeLedgerRecord
	order        []string
	directory    *mockDirectory
	beforeCAS    func()
	beforeDelete func()
}

func newMockStore() *mockStore {
	return &mockStore{records: make(map[string]*models.FeeLedgerRecord)}
}

func cloneRecord(rec *models.FeeLedgerRecord) *models.FeeLedgerRecord {
	c := *rec
	c.Payments = append([]*models.PaymentEntry(nil), rec.Payments...)
	return &c
}

func (s *mockStore) CreateRecord(rec *models.FeeLedgerRecord) error {
	s.records[rec.ID] = cloneRecord(rec)
	s.order = append(s.order, rec.ID)
	return nil
}

func (s *mockStore) GetRecord(schoolID, id string) (*models.FeeLedgerRecord, error) {
	rec, ok := s.records[id]
	if !ok || rec.SchoolID != schoolID {
		return nil, ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

func (s *mockStore) FindActiveRecord(schoolID, studentID, feeStructureID, academicYear string, month *int) (*models.FeeLedgerRecord, error) {
	for _, id := range s.order {
		rec := s.records[id]
		if rec.SchoolID != schoolID || rec.StudentID != studentID ||
			rec.FeeStructureID != feeStructureID || rec.AcademicYear != academicYear {
			continue
		}
		if rec.Status == models.StatusCancelled {
			continue
		}
		if (rec.Month == nil) != (month == nil) {
			continue
		}
		if rec.Month != nil && *rec.Month != *month {
			continue
		}
		return cloneRecord(rec), nil
	}
	return nil, ErrRecordNotFound
}

func (s *mockStore) UpdateRecordCAS(rec *models.FeeLedgerRecord, expectedVersion int, payments ...*models.PaymentEntry) error {
	if s.beforeCAS != nil {
		s.beforeCAS()
	}
	stored, ok := s.records[rec.ID]
	if !ok || stored.SchoolID != rec.SchoolID {
		return ErrRecordNotFound
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	rec.Version = expectedVersion + 1
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (s *mockStore) DeleteRecord(schoolID, id string) error {
	if s.beforeDelete != nil {
		s.beforeDelete()
	}
	rec, ok := s.records[id]
	if !ok || rec.SchoolID != schoolID {
		return ErrRecordNotFound
	}
	if rec.PaidAmount.GreaterThan(decimal.Zero) {
		return ErrHasPayments
	}
	delete(s.records, id)
	for i, rid := range s.order {
		if rid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *mockStore) ListRecords(filter RecordFilter) ([]*models.FeeLedgerRecord, error) {
	var out []*models.FeeLedgerRecord
	for _, id := range s.order {
		rec := s.records[id]
		if rec.SchoolID != filter.SchoolID {
			continue
		}
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		if filter.ClassID != "" {
			st, ok := s.directory.students[rec.StudentID]
			if !ok || st.ClassID == nil || *st.ClassID != filter.ClassID {
				continue
			}
		}
		if filter.FeeStructure != "" && rec.FeeStructureID != filter.FeeStructure {
			continue
		}
		if filter.AcademicYear != "" && rec.AcademicYear != filter.AcademicYear {
			continue
		}
		if filter.Month != nil && (rec.Month == nil || *rec.Month != *filter.Month) {
			continue
		}
		if filter.ActiveOnly && rec.Status == models.StatusCancelled {
			continue
		}
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

type mockCatalog struct {
	structures map[string]*models.FeeStructure
}

func (c *mockCatalog) GetStructure(schoolID, id string) (*models.FeeStructure, error) {
	fs, ok := c.structures[id]
	if !ok || fs.SchoolID != schoolID {
		return nil, errors.New("fee structure not found")
	}
	return fs, nil
}

type mockDirectory struct {
	students map[string]*models.Student
}

func (d *mockDirectory) GetStudent(schoolID, id string) (*models.Student, error) {
	st, ok := d.students[id]
	if !ok || st.SchoolID != schoolID {
		return nil, errors.New("student not found")
	}
	return st, nil
}

func (d *mockDirectory) ListActiveStudents(schoolID string, classIDs []string) ([]*models.Student, error) {
	var out []*models.Student
	for _, st := range d.students {
		if st.SchoolID != schoolID || !st.IsActive {
			continue
		}
		if len(classIDs) > 0 {
			matched := false
			for _, cid := range classIDs {
				if st.ClassID != nil && *st.ClassID == cid {
					matched = true
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, st)
	}
	return out, nil
}

type fixture struct {
	engine    *Engine
	store     *mockStore
	catalog   *mockCatalog
	directory *mockDirectory
	scope     Scope
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMockStore()
	catalog := &mockCatalog{structures: make(map[string]*models.FeeStructure)}
	directory := &mockDirectory{students: make(map[string]*models.Student)}
	store.directory = directory

	engine := NewEngine(store, catalog, directory)
	engine.SetClock(func() time.Time { return testNow })

	return &fixture{
		engine:    engine,
		store:     store,
		catalog:   catalog,
		directory: directory,
		scope:     Scope{SchoolID: testSchool, UserID: uuid.NewString()},
	}
}

func (f *fixture) addStructure(amount float64, frequency models.Frequency) *models.FeeStructure {
	fs := &models.FeeStructure{
		ID:        uuid.NewString(),
		SchoolID:  testSchool,
		Name:      "Tuition",
		Category:  "tuition",
		Amount:    decimal.NewFromFloat(amount),
		Frequency: frequency,
		IsActive:  true,
	}
	f.catalog.structures[fs.ID] = fs
	return fs
}

func (f *fixture) addStudent(classID string) *models.Student {
	st := &models.Student{
		ID:          uuid.NewString(),
		SchoolID:    testSchool,
		StudentCode: "STU-" + uuid.NewString()[:8],
		FirstName:   "Alia",
		LastName:    "Nakato",
		IsActive:    true,
	}
	if classID != "" {
		st.ClassID = &classID
	}
	f.directory.students[st.ID] = st
	return st
}

func intPtr(v int) *int { return &v }

func TestCreateRecordAppliesStructureDiscount(t *testing.T) {
	f := newFixture(t)
	fs := f.addStructure(1000, models.FrequencyMonthly)
	pct := models.DiscountPercentage
	fs.DiscountType = &pct
	fs.DiscountValue = decimal.NewFromInt(10)
	st := f.addStudent("")

	rec, err := f.engine.CreateRecord(f.scope, CreateInput{
		StudentID:      st.ID,
		FeeStructureID: fs.ID,
		AcademicYear:   "2026",
		Month:          intPtr(3),
		DueDate:        testNow.AddDate(0, 0, 14),
	})
	require.NoError(t, err)

	assert.True(t, rec.TotalAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, rec.DiscountAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, rec.DueAmount.Equal(decimal.NewFromInt(900)))
	assert.Equal(t, models.StatusPending, rec.Status)
	assert.Equal(t, 1, rec.Version)
}

func TestCreateRecordDiscountOverrideClamped(t *testing.T) {
	f := newFixture(t)
	fs := f.addStructure(500, models.FrequencyOneTime)
	st := f.addStudent("")

	override := decimal.NewFromInt(800)
	rec, err := f.engine.CreateRecord(f.scope, CreateInput{
		StudentID:      st.ID,
		FeeStructureID: fs.ID,
		AcademicYear:   "2026",
		DueDate:        testNow,
		DiscountAmount: &override,
	})
	require.NoError(t, err)

	assert.True(t, rec.DiscountAmount.Equal(decimal.NewFromInt(500)))
	assert.True(t, rec.DueAmount.IsZero())
}

func TestCreateRecordDuplicatePeriod(t *testing.T) {
	f := newFixture(t)
	fs := f.addStructure(1000, models.FrequencyMonthly)
	st := f.addStudent("")

	input := CreateInput{
		StudentID:      st.ID,
		FeeStructureID: fs.ID,
		AcademicYear:   "2026",
		Month:          intPtr(3),
		DueDate:        testNow,
	}

	first, err := f.engine.CreateRecord(f.scope, input)
	require.NoError(t, err)

	_, err = f.engine.CreateRecord(f.scope, input)
	assert.ErrorIs(t, err, ErrDuplicatePeriod)

	// A different month is a different period.
	other := input
	other.Month = intPtr(4)
	_, err = f.engine.CreateRecord(f.scope, other)
	assert.NoError(t, err)

	// Cancelling frees the period for re-issue.
	_, err = f.engine.Cancel(f.scope, first.ID, "issued in error")
	require.NoError(t, err)

	_, err = f.engine.CreateRecord(f.scope, input)
	assert.NoError(t, err)
}

func TestCreateRecordScopeMismatch(t *testing.T) {
	f := newFixture(t)
	fs := f.addStructure(1000, models.FrequencyMonthly)
	fs.ClassScope = []string{uuid.NewString()}
	st := f.addStudent(uuid.NewString())

	_, err := f.engine.CreateRecord(f.scope, CreateInput{
		StudentID:      st.ID,
		FeeStructureID: fs.ID,
		AcademicYear:   "2026",
		Month:          intPtr(3),
		DueDate:        testNow,
	})
	assert.ErrorIs(t, err, ErrScopeMismatch)
}

func (f *fixture) createRecord(t *testing.T, amount float64) *models.FeeLedgerRecord {
	t.Helper()
	fs := f.addStructure(amount, models.FrequencyMonthly)
	st := f.addStudent("")
	rec, err := f.engine.CreateRecord(f.scope, CreateInput{
		StudentID:      st.ID,
		FeeStructureID: fs.ID,
		AcademicYear:   "2026",
		Month:          intPtr(3),
		DueDate:        testNow.AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	return rec
}

func TestApplyPaymentPartialThenPaid(t *testing.T) {
	f := newFixture(t)
	rec := f.createRecord(t, 1000)

	rec, err := f.engine.ApplyPayment(f.scope, rec.ID, PaymentInput{
		Amount: decimal.NewFromInt(400),
		Date:   testNow,
		Method: "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPartial, rec.Status)
	assert.True(t, rec.DueAmount.Equal(decimal.NewFromInt(600)))
	// total - discount + late fee - paid always equals due
	assert.True(t, rec.TotalAmount.Sub(rec.DiscountAmount).Add(rec.LateFeeAmount).Sub(rec.PaidAmount).Equal(rec.DueAmount))

	rec, err = f.engine.ApplyPayment(f.scope, rec.ID, PaymentInput{
		Amount: decimal.NewFromInt(600),
		Date:   testNow,
		Method: "mobile_money",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, rec.Status)
	assert.True(t, rec.DueAmount.IsZero())
	assert.Len(t, rec.Payments, 2)
}

func TestApplyPaymentExceedsDueLeavesRecordUnchanged(t *testing.T) {
	f := newFixture(t)
	rec := f.createRecord(t, 1000)

	_, err := f.engine.ApplyPayment(f.scope, rec.ID, PaymentInput{
		Amount: decimal.NewFromInt(1500),
		Date:   testNow,
		Method: "cash",
	})

	var exceeds *ExceedsDueError
	require.ErrorAs(t, err, &exceeds)
	assert.True(t, exceeds.Due.Equal(decimal.NewFromInt(1000)))

	stored, err := f.engine.GetRecord(f.scope, rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.IsZero())
	assert.True(t, stored.DueAmount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Empty(t, stored.Payments)
}

func TestApplyPaymentPaidIsTerminal(t *testing.T) {
	f := newFixture(t)
	rec := f.createRecord(t, 500)

	_, err := f.engine.ApplyPayment(f.scope, rec.ID, PaymentInput{
		Amount: decimal.NewFromInt(500),
		Date:   testNow,
		Method: "cash",
	})
	require.NoError(t, err)

	_, err = f.engine.ApplyPayment(f.scope, rec.ID, PaymentInput{
		Amount: decimal.NewFromInt(1),
		Date:   testNow,
		Method: "cash",
	})
	assert.ErrorIs(t, err, ErrRecordPaid)
}

func TestApplyPaymentRejectsCancelledAndBadAmounts(t *testing.T) {
	f := newFixture(t)
	rec := f.createRecord(t, 500)

	_, err := f.engine.ApplyPayment(f.scope, rec.ID, PaymentInput{
		Amount: decimal.Zero,
		Date:   testNow,
		Method: "cash",
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.engine.ApplyPayment(f.scope, rec.ID, PaymentInput{
		Amount: decimal.NewFromInt(-10),
		Date:   testNow,
		Method: "cash",
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.engine.Cancel(f.scope, rec.ID, "withdrawn")
	require.NoError(t, err)

	_, err = f.engine.ApplyPayment(f.scope, rec.ID, PaymentInput{
		Amount: decimal.NewFromInt(100),
		Date:   testNow,
		Method: "cash",
	})
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestApplyPaymentRetriesOnVersionConflict(t *testing.T) {
	f := newFixture(t)
	rec := f.createRecord(t, 1000)

	// Another writer bumps the version once, before the first CAS attempt.
	fired := false
	f.store.beforeCAS = func() {
		if !fired {
			fired = true
			f.store.records[rec.ID].Version++
		}
	}

	got, err := f.engine.ApplyPayment(f.scope, rec.ID, PaymentInput{
		Amount: decimal.NewFromInt(200),
		Date:   testNow,
		Method: "cash",
	})
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.Equal(decimal.NewFromInt(200)))

	stored, err := f.engine.GetRecord(f.scope, rec.ID)
	require.NoError(t, err)
	// Paid exactly once despite the retry.
	assert.True(t, stored.PaidAmount.Equal(decimal.NewFromInt(200)))
	assert.Len(t, stored.Payments, 1)
}

func TestApplyPaymentGivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newFixture(t)
	rec := f.createRecord(t, 1000)

	f.store.beforeCAS = func() {
		f.store.records[rec.ID].Version++
	}

	_, err := f.engine.ApplyPayment(f.scope, rec.ID, PaymentInput{
		Amount: decimal.NewFromInt(200),
		Date:   testNow,
		Method: "cash",
	})
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestCancelSetsReasonAndRejectsSecondCancel(t *testing.T) {
	f := newFixture(t)
	rec := f.createRecord(t, 1000)

	cancelled, err := f.engine.Cancel(f.scope, rec.ID, "duplicate issue")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "duplicate issue", *cancelled.CancelReason)

	_, err = f.engine.Cancel(f.scope, rec.ID, "again")
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestDeleteRejectsPaidIntoRecords(t *testing.T) {
	f := newFixture(t)
	rec := f.createRecord(t, 1000)

	_, err := f.engine.ApplyPayment(f.scope, rec.ID, PaymentInput{
		Amount: decimal.NewFromInt(100),
		Date:   testNow,
		Method: "cash",
	})
	require.NoError(t, err)

	err = f.engine.Delete(f.scope, rec.ID)
	assert.ErrorIs(t, err, ErrHasPayments)

	clean := f.createRecord(t, 200)
	require.NoError(t, f.engine.Delete(f.scope, clean.ID))

	_, err = f.engine.GetRecord(f.scope, clean.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDeleteRefusesPaymentLandingAfterRead(t *testing.T) {
	f := newFixture(t)
	rec := f.createRecord(t, 1000)

	// A payment commits between the engine's read and the store delete. The
	// store-level guard must still refuse the delete.
	f.store.beforeDelete = func() {
		f.store.beforeDelete = nil
		_, err := f.engine.ApplyPayment(f.scope, rec.ID, PaymentInput{
			Amount: decimal.NewFromInt(100),
			Date:   testNow,
			Method: "cash",
		})
		require.NoError(t, err)
	}

	err := f.engine.Delete(f.scope, rec.ID)
	assert.ErrorIs(t, err, ErrHasPayments)

	stored, err := f.engine.GetRecord(f.scope, rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.Equal(decimal.NewFromInt(100)))
	assert.Len(t, stored.Payments, 1)
}

func TestUpdateFieldsWritesAsGiven(t *testing.T) {
	f := newFixture(t)
	rec := f.createRecord(t, 1000)

	late := decimal.NewFromInt(50)
	due := decimal.NewFromInt(1050)
	updated, err := f.engine.UpdateFields(f.scope, rec.ID, FieldPatch{
		LateFeeAmount: &late,
		DueAmount:     &due,
	})
	require.NoError(t, err)

	assert.True(t, updated.LateFeeAmount.Equal(late))
	assert.True(t, updated.DueAmount.Equal(due))
	// Untouched fields survive.
	assert.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 2, updated.Version)
}

func TestSendReminderGatesOnStatus(t *testing.T) {
	f := newFixture(t)
	rec := f.createRecord(t, 500)

	var dispatched []models.ReminderType
	f.engine.SetReminderDispatcher(func(r *models.FeeLedgerRecord, rt models.ReminderType) error {
		dispatched = append(dispatched, rt)
		return nil
	})

	require.NoError(t, f.engine.SendReminder(f.scope, rec.ID, models.ReminderDueDate))
	assert.Equal(t, []models.ReminderType{models.ReminderDueDate}, dispatched)

	_, err := f.engine.ApplyPayment(f.scope, rec.ID, PaymentInput{
		Amount: decimal.NewFromInt(500),
		Date:   testNow,
		Method: "cash",
	})
	require.NoError(t, err)

	err = f.engine.SendReminder(f.scope, rec.ID, models.ReminderOverdue)
	assert.ErrorIs(t, err, ErrRecordPaid)
	assert.Len(t, dispatched, 1)
}

func TestSendReminderSwallowsDispatchFailures(t *testing.T) {
	f := newFixture(t)
	rec := f.createRecord(t, 500)

	f.engine.SetReminderDispatcher(func(r *models.FeeLedgerRecord, rt models.ReminderType) error {
		return errors.New("gateway down")
	})

	assert.NoError(t, f.engine.SendReminder(f.scope, rec.ID, models.ReminderDueDate))
}

func TestIssueForStructureSkipsExisting(t *testing.T) {
	f := newFixture(t)
	fs := f.addStructure(1000, models.FrequencyMonthly)
	a := f.addStudent("")
	f.addStudent("")

	// Student a already carries the period.
	_, err := f.engine.CreateRecord(f.scope, CreateInput{
		StudentID:      a.ID,
		FeeStructureID: fs.ID,
		AcademicYear:   "2026",
		Month:          intPtr(3),
		DueDate:        testNow,
	})
	require.NoError(t, err)

	result, err := f.engine.IssueForStructure(f.scope, fs.ID, "2026", intPtr(3), testNow.AddDate(0, 0, 14))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Issued)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Errors)
}

func TestPostCommitHookFailureDoesNotAffectWrite(t *testing.T) {
	f := newFixture(t)
	f.engine.AddPostCommitHook(func(rec *models.FeeLedgerRecord, op string) error {
		return errors.New("calendar sync down")
	})

	rec := f.createRecord(t, 300)

	stored, err := f.engine.GetRecord(f.scope, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}
