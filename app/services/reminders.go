package services

import (
	"log"

	"github.com/kunalgupta7870/Sparkology-sub003/app/ledger"
	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
)

// LogReminderDispatcher records reminders to the application log. It stands
// in for an SMS or email gateway.
func LogReminderDispatcher(rec *models.FeeLedgerRecord, reminderType models.ReminderType) error {
	log.Printf("Reminder [%s] for student %s: record %s, due %s, balance %s",
		reminderType, rec.StudentID, rec.ID, rec.DueDate.Format("2006-01-02"), rec.OutstandingBalance().StringFixed(2))
	return nil
}

// AuditHook logs every committed ledger mutation.
func AuditHook(rec *models.FeeLedgerRecord, op string) error {
	log.Printf("Ledger %s: record %s student %s status %s due %s",
		op, rec.ID, rec.StudentID, rec.Status, rec.DueAmount.StringFixed(2))
	return nil
}

var _ ledger.ReminderDispatcher = LogReminderDispatcher
var _ ledger.PostCommitHook = AuditHook
