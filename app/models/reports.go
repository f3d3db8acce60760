package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StudentDueSummary is one student's row in the arrears report. Outstanding
// monthly charges are bucketed by age in fixed 30-day windows; one-time and
// custom charges land in OtherChargesDue regardless of age.
type StudentDueSummary struct {
	StudentID       string                `json:"student_id"`
	StudentName     string                `json:"student_name"`
	StudentCode     string                `json:"student_code"`
	ClassID         string                `json:"class_id,omitempty"`
	OneMonthDue     decimal.Decimal       `json:"one_month_due"`
	TwoMonthDue     decimal.Decimal       `json:"two_month_due"`
	ThreeMonthDue   decimal.Decimal       `json:"three_month_due"`
	OtherChargesDue decimal.Decimal       `json:"other_charges_due"`
	TotalDue        decimal.Decimal       `json:"total_due"`
	LastPaymentDate *time.Time            `json:"last_payment_date,omitempty"`
	PaymentHistory  []PaymentHistoryEntry `json:"payment_history"`
	Collections     []*FeeLedgerRecord    `json:"collections"`
}

// PaymentHistoryEntry is one flattened payment across a student's matched
// records.
type PaymentHistoryEntry struct {
	Month  *int            `json:"month,omitempty"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}

// CollectionStats is the aggregate summary over a school's ledger.
type CollectionStats struct {
	TotalCollections  int                  `json:"total_collections"`
	TotalAmount       decimal.Decimal      `json:"total_amount"`
	TotalPaid         decimal.Decimal      `json:"total_paid"`
	TotalDue          decimal.Decimal      `json:"total_due"`
	AverageCollection decimal.Decimal      `json:"average_collection"`
	ByStatus          map[RecordStatus]int `json:"by_status"`
}
