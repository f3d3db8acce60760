package services

import (
	"database/sql"
	"log"
	"time"

	"github.com/kunalgupta7870/Sparkology-sub003/app/ledger"
	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
)

// StartScheduler starts the background task scheduler
func StartScheduler(db *sql.DB, engine *ledger.Engine) {
	go func() {
		log.Println("Scheduler started...")
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			now := time.Now()

			// Trigger at 7:00 AM
			if now.Hour() == 7 && now.Minute() == 0 {
				log.Println("Triggering scheduled tasks [07:00]...")

				if err := SendOverdueReminders(db, engine); err != nil {
					log.Printf("Error sending overdue reminders: %v", err)
				}
			}
		}
	}()
}

// SendOverdueReminders sweeps every school's overdue records and forwards a
// reminder for each one.
func SendOverdueReminders(db *sql.DB, engine *ledger.Engine) error {
	rows, err := db.Query(`SELECT DISTINCT school_id FROM fee_ledger_records WHERE status IN ('pending', 'partial')`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var schoolIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		schoolIDs = append(schoolIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, sid := range schoolIDs {
		scope := ledger.Scope{SchoolID: sid, UserID: "scheduler"}

		records, err := engine.ListOverdue(scope, "")
		if err != nil {
			log.Printf("Error listing overdue records for school %s: %v", sid, err)
			continue
		}

		for _, rec := range records {
			if err := engine.SendReminder(scope, rec.ID, models.ReminderOverdue); err != nil {
				log.Printf("Error sending reminder for record %s: %v", rec.ID, err)
			}
		}
		if len(records) > 0 {
			log.Printf("Sent %d overdue reminders for school %s", len(records), sid)
		}
	}
	return nil
}
