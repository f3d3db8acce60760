package ledger

import (
	"errors"

	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
)

// Store-level failures. ErrVersionConflict signals a lost compare-and-swap;
// the engine retries against a fresh read.
var (
	ErrRecordNotFound  = errors.New("ledger record not found")
	ErrVersionConflict = errors.New("ledger record was modified concurrently")
)

// RecordFilter narrows ListRecords. Zero values are ignored. Status may be
// a persisted status or the derived "overdue" classification, which the
// caller resolves after loading.
type RecordFilter struct {
	SchoolID     string
	StudentID    string
	ClassID      string
	FeeStructure string
	AcademicYear string
	Month        *int
	ActiveOnly   bool
}

// Store defines persistence for ledger records and their payment entries.
// Every mutation of an existing record goes through UpdateRecordCAS so that
// two writers racing on the same record cannot both win: the update applies
// only if the stored version still equals expectedVersion, and appends the
// given payment entries in the same transaction. DeleteRecord carries its
// own guard: it must refuse with ErrHasPayments when anything has been paid
// into the record, even if a payment landed after the caller's last read.
type Store interface {
	CreateRecord(rec *models.FeeLedgerRecord) error
	GetRecord(schoolID, id string) (*models.FeeLedgerRecord, error)
	FindActiveRecord(schoolID, studentID, feeStructureID, academicYear string, month *int) (*models.FeeLedgerRecord, error)
	UpdateRecordCAS(rec *models.FeeLedgerRecord, expectedVersion int, payments ...*models.PaymentEntry) error
	DeleteRecord(schoolID, id string) error
	ListRecords(filter RecordFilter) ([]*models.FeeLedgerRecord, error)
}

// StructureCatalog resolves fee structures. The catalog is read-only from
// the engine's perspective.
type StructureCatalog interface {
	GetStructure(schoolID, id string) (*models.FeeStructure, error)
}

// StudentDirectory resolves students for scope checks, bulk issuance and
// report enrichment. An empty classIDs slice means every class.
type StudentDirectory interface {
	GetStudent(schoolID, id string) (*models.Student, error)
	ListActiveStudents(schoolID string, classIDs []string) ([]*models.Student, error)
}
