package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeLedgerRecord is one obligation instance: a student owing a specific fee
// for a specific period. Monthly charges carry a month (1-12); one-time and
// custom charges leave it nil.
type FeeLedgerRecord struct {
	ID             string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	SchoolID       string          `json:"school_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	StudentID      string          `json:"student_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	FeeStructureID string          `json:"fee_structure_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	AcademicYear   string          `json:"academic_year" gorm:"not null;index" validate:"required"`
	Month          *int            `json:"month,omitempty" gorm:"index" validate:"omitempty,min=1,max=12"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"not null;type:numeric(12,2)"`
	DiscountAmount decimal.Decimal `json:"discount_amount" gorm:"type:numeric(12,2);default:0"`
	LateFeeAmount  decimal.Decimal `json:"late_fee_amount" gorm:"type:numeric(12,2);default:0"`
	PaidAmount     decimal.Decimal `json:"paid_amount" gorm:"type:numeric(12,2);default:0"`
	DueAmount      decimal.Decimal `json:"due_amount" gorm:"type:numeric(12,2);default:0"`
	DueDate        time.Time       `json:"due_date" gorm:"not null;index;type:date"`
	Status         RecordStatus    `json:"status" gorm:"not null;default:'pending';index;type:varchar(20)"`
	Remarks        *string         `json:"remarks,omitempty" gorm:"type:text"`
	CancelReason   *string         `json:"cancel_reason,omitempty" gorm:"type:text"`
	CreatedBy      string          `json:"created_by" gorm:"not null;type:uuid"`
	Version        int             `json:"-" gorm:"not null;default:1"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"autoUpdateTime"`

	// Frequency is copied from the fee structure when records are listed so
	// the arrears aggregator can bucket without a second catalog lookup.
	Frequency Frequency `json:"frequency,omitempty" gorm:"-"`

	Payments []*PaymentEntry `json:"payments,omitempty" gorm:"foreignKey:RecordID;references:ID"`
	Student  *Student        `json:"student,omitempty" gorm:"foreignKey:StudentID;references:ID"`
}

// PaymentEntry is one applied payment against a ledger record. Entries are
// append-only; their sum must equal the record's paid amount.
type PaymentEntry struct {
	ID            string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	RecordID      string          `json:"record_id" gorm:"not null;index;type:uuid"`
	Amount        decimal.Decimal `json:"amount" gorm:"not null;type:numeric(12,2)" validate:"required"`
	PaymentDate   time.Time       `json:"payment_date" gorm:"not null;index"`
	PaymentMethod string          `json:"payment_method" gorm:"type:varchar(50)" validate:"required"`
	TransactionID *string         `json:"transaction_id,omitempty" gorm:"index"`
	Remarks       *string         `json:"remarks,omitempty" gorm:"type:text"`
	CollectedBy   string          `json:"collected_by" gorm:"not null;type:uuid"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// OutstandingBalance is the raw balance before clamping:
// total - discount + late fee - paid.
func (r *FeeLedgerRecord) OutstandingBalance() decimal.Decimal {
	return r.TotalAmount.Sub(r.DiscountAmount).Add(r.LateFeeAmount).Sub(r.PaidAmount)
}

// RecomputeDue refreshes the due amount from the amount fields and moves the
// persisted status along pending -> partial -> paid. Cancelled records are
// left untouched.
func (r *FeeLedgerRecord) RecomputeDue() {
	if r.Status == StatusCancelled {
		return
	}

	due := r.OutstandingBalance()
	if due.IsNegative() {
		due = decimal.Zero
	}
	r.DueAmount = due

	switch {
	case due.IsZero():
		r.Status = StatusPaid
	case r.PaidAmount.GreaterThan(decimal.Zero):
		r.Status = StatusPartial
	default:
		r.Status = StatusPending
	}
}

// IsOverdue reports the derived overdue classification: past due date with
// money still owed. Overdue is layered over pending/partial at read time,
// never persisted.
func (r *FeeLedgerRecord) IsOverdue(now time.Time) bool {
	if r.Status == StatusPaid || r.Status == StatusCancelled {
		return false
	}
	return r.DueDate.Before(now) && r.DueAmount.GreaterThan(decimal.Zero)
}

// ReportedStatus is the status shown by listing and aggregation endpoints:
// the persisted status, with overdue substituted for pending/partial records
// past their due date.
func (r *FeeLedgerRecord) ReportedStatus(now time.Time) RecordStatus {
	if r.IsOverdue(now) {
		return StatusOverdue
	}
	return r.Status
}
