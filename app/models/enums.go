package models

// RecordStatus defines the persisted lifecycle states of a ledger record.
type RecordStatus string

const (
	StatusPending   RecordStatus = "pending"
	StatusPartial   RecordStatus = "partial"
	StatusPaid      RecordStatus = "paid"
	StatusCancelled RecordStatus = "cancelled"

	// StatusOverdue is never stored. It is the read-time classification of a
	// pending/partial record whose due date has passed; listing and
	// aggregation endpoints report it in place of the persisted status.
	StatusOverdue RecordStatus = "overdue"
)

// Frequency defines how often a fee structure recurs.
type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyOneTime Frequency = "one_time"
	FrequencyCustom  Frequency = "custom"
)

// DiscountType defines how a discount value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// TargetType defines the applicability scope of a promo code.
type TargetType string

const (
	TargetAll        TargetType = "all"
	TargetSpecific   TargetType = "specific"
	TargetCategories TargetType = "category"
)

// ReminderType defines the kind of reminder forwarded to the dispatcher.
type ReminderType string

const (
	ReminderDueDate ReminderType = "due_date"
	ReminderOverdue ReminderType = "overdue"
)
