package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
)

// bucketDays is the arrears aging window. Buckets are fixed 30-day windows,
// not calendar months; existing reports depend on this exact arithmetic.
const bucketDays = 30

// DuesFilter narrows the arrears report.
type DuesFilter struct {
	StudentSearch string
	ClassID       string
}

// ComputeDues builds the per-student arrears report for a school and
// academic year: every student with at least one active record still owing
// money, their outstanding amounts bucketed by age, plus payment history.
// Grouping preserves source record order within a student.
func (e *Engine) ComputeDues(scope Scope, academicYear string, filter DuesFilter) ([]*models.StudentDueSummary, error) {
	records, err := e.store.ListRecords(RecordFilter{
		SchoolID:     scope.SchoolID,
		AcademicYear: academicYear,
		ClassID:      filter.ClassID,
		ActiveOnly:   true,
	})
	if err != nil {
		return nil, err
	}

	now := e.now()
	byStudent := make(map[string]*models.StudentDueSummary)
	var order []string

	for _, rec := range records {
		if !rec.DueAmount.GreaterThan(decimal.Zero) {
			continue
		}

		summary, ok := byStudent[rec.StudentID]
		if !ok {
			student, err := e.students.GetStudent(scope.SchoolID, rec.StudentID)
			if err != nil {
				return nil, err
			}
			if !matchesStudentSearch(student, filter.StudentSearch) {
				byStudent[rec.StudentID] = nil
				continue
			}
			summary = &models.StudentDueSummary{
				StudentID:       student.ID,
				StudentName:     student.FullName(),
				StudentCode:     student.StudentCode,
				OneMonthDue:     decimal.Zero,
				TwoMonthDue:     decimal.Zero,
				ThreeMonthDue:   decimal.Zero,
				OtherChargesDue: decimal.Zero,
				TotalDue:        decimal.Zero,
			}
			if student.ClassID != nil {
				summary.ClassID = *student.ClassID
			}
			byStudent[rec.StudentID] = summary
			order = append(order, rec.StudentID)
		}
		if summary == nil {
			// Student filtered out by search.
			continue
		}

		if isMonthlyCharge(rec) {
			switch ageBucket(rec.DueDate, now) {
			case 2:
				summary.TwoMonthDue = summary.TwoMonthDue.Add(rec.DueAmount)
			case 3:
				summary.ThreeMonthDue = summary.ThreeMonthDue.Add(rec.DueAmount)
			default:
				summary.OneMonthDue = summary.OneMonthDue.Add(rec.DueAmount)
			}
		} else {
			summary.OtherChargesDue = summary.OtherChargesDue.Add(rec.DueAmount)
		}
		summary.TotalDue = summary.TotalDue.Add(rec.DueAmount)

		for _, p := range rec.Payments {
			summary.PaymentHistory = append(summary.PaymentHistory, models.PaymentHistoryEntry{
				Month:  rec.Month,
				Amount: p.Amount,
				Date:   p.PaymentDate,
			})
			if summary.LastPaymentDate == nil || p.PaymentDate.After(*summary.LastPaymentDate) {
				d := p.PaymentDate
				summary.LastPaymentDate = &d
			}
		}

		summary.Collections = append(summary.Collections, rec)
	}

	report := make([]*models.StudentDueSummary, 0, len(order))
	for _, studentID := range order {
		report = append(report, byStudent[studentID])
	}
	return report, nil
}

// ListOverdue returns the flattened list of active records past their due
// date with money still owed, reported with the derived overdue status.
func (e *Engine) ListOverdue(scope Scope, academicYear string) ([]*models.FeeLedgerRecord, error) {
	records, err := e.store.ListRecords(RecordFilter{
		SchoolID:     scope.SchoolID,
		AcademicYear: academicYear,
		ActiveOnly:   true,
	})
	if err != nil {
		return nil, err
	}

	now := e.now()
	var overdue []*models.FeeLedgerRecord
	for _, rec := range records {
		if rec.IsOverdue(now) {
			rec.Status = models.StatusOverdue
			overdue = append(overdue, rec)
		}
	}
	return overdue, nil
}

// StatsRange bounds ComputeStats by record creation time. Zero values are
// open ends.
type StatsRange struct {
	From time.Time
	To   time.Time
}

// ComputeStats aggregates collection totals and a count-by-status breakdown.
// Pure aggregation, no side effects; the breakdown applies the derived
// overdue classification.
func (e *Engine) ComputeStats(scope Scope, academicYear string, dateRange StatsRange) (*models.CollectionStats, error) {
	records, err := e.store.ListRecords(RecordFilter{
		SchoolID:     scope.SchoolID,
		AcademicYear: academicYear,
	})
	if err != nil {
		return nil, err
	}

	now := e.now()
	stats := &models.CollectionStats{
		TotalAmount:       decimal.Zero,
		TotalPaid:         decimal.Zero,
		TotalDue:          decimal.Zero,
		AverageCollection: decimal.Zero,
		ByStatus:          make(map[models.RecordStatus]int),
	}

	for _, rec := range records {
		if !dateRange.From.IsZero() && rec.CreatedAt.Before(dateRange.From) {
			continue
		}
		if !dateRange.To.IsZero() && rec.CreatedAt.After(dateRange.To) {
			continue
		}

		stats.TotalCollections++
		stats.TotalAmount = stats.TotalAmount.Add(rec.TotalAmount)
		stats.TotalPaid = stats.TotalPaid.Add(rec.PaidAmount)
		if rec.Status != models.StatusCancelled {
			stats.TotalDue = stats.TotalDue.Add(rec.DueAmount)
		}
		stats.ByStatus[rec.ReportedStatus(now)]++
	}

	if stats.TotalCollections > 0 {
		stats.AverageCollection = stats.TotalPaid.Div(decimal.NewFromInt(int64(stats.TotalCollections))).Round(2)
	}
	return stats, nil
}

// isMonthlyCharge reports whether a record participates in the monthly aging
// buckets. One-time and custom charges, and records without a month, always
// count as other charges regardless of age.
func isMonthlyCharge(rec *models.FeeLedgerRecord) bool {
	return rec.Frequency == models.FrequencyMonthly && rec.Month != nil
}

// ageBucket counts elapsed 30-day windows since the due date: under 30 days
// is the first month (the under-one-month case folds into oneMonthDue),
// 30-59 days is the second, 60 days or more the third. Due dates still in
// the future count as the first month.
func ageBucket(dueDate, now time.Time) int {
	days := int(now.Sub(dueDate).Hours() / 24)
	if days < 0 {
		days = 0
	}
	months := days/bucketDays + 1
	if months <= 1 {
		return 1
	}
	if months == 2 {
		return 2
	}
	return 3
}

func matchesStudentSearch(student *models.Student, search string) bool {
	if search == "" {
		return true
	}
	q := strings.ToLower(strings.TrimSpace(search))
	return strings.Contains(strings.ToLower(student.FullName()), q) ||
		strings.Contains(strings.ToLower(student.StudentCode), q)
}
