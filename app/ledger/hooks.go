package ledger

import (
	"log"

	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
)

// Mutation names passed to post-commit hooks.
const (
	OpCreate  = "create"
	OpPayment = "payment"
	OpUpdate  = "update"
	OpCancel  = "cancel"
	OpDelete  = "delete"
)

// PostCommitHook runs after a ledger mutation has been persisted. Hooks are
// best-effort side effects (calendar sync, notifications): they never block
// or roll back the primary write.
type PostCommitHook func(rec *models.FeeLedgerRecord, op string) error

// ReminderDispatcher forwards a reminder for a record. Delivery is outside
// the engine; the engine only gates on status and forwards.
type ReminderDispatcher func(rec *models.FeeLedgerRecord, reminderType models.ReminderType) error

// firePostCommit runs every registered hook, capturing failures and panics
// as warnings.
func (e *Engine) firePostCommit(rec *models.FeeLedgerRecord, op string) {
	for _, hook := range e.hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Warning: post-commit hook panicked for record %s (%s): %v", rec.ID, op, r)
				}
			}()
			if err := hook(rec, op); err != nil {
				log.Printf("Warning: post-commit hook failed for record %s (%s): %v", rec.ID, op, err)
			}
		}()
	}
}
