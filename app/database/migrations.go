package database

import (
	"database/sql"
	"log"
)

// RunMigrations checks and applies necessary schema updates
func RunMigrations(db *sql.DB) error {
	log.Println("Running database migrations...")

	steps := []struct {
		name  string
		apply func(*sql.DB) error
	}{
		{"users and roles", createAuthTables},
		{"students", createStudentsTable},
		{"fee structures", createFeeStructuresTable},
		{"fee ledger records", createLedgerTables},
		{"promo codes", createPromoCodesTable},
	}

	for _, step := range steps {
		if err := step.apply(db); err != nil {
			log.Printf("Migration step %q failed: %v", step.name, err)
			return err
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createAuthTables(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_id UUID NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password TEXT NOT NULL,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			phone VARCHAR(20),
			is_active BOOLEAN DEFAULT true,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		);

		CREATE TABLE IF NOT EXISTS roles (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(50) UNIQUE NOT NULL,
			is_active BOOLEAN DEFAULT true,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		);

		CREATE TABLE IF NOT EXISTS user_roles (
			user_id UUID NOT NULL REFERENCES users(id),
			role_id UUID NOT NULL REFERENCES roles(id),
			PRIMARY KEY (user_id, role_id)
		);
	`
	_, err := db.Exec(query)
	return err
}

func createStudentsTable(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS students (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_id UUID NOT NULL,
			student_code VARCHAR(50) NOT NULL,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			class_id UUID,
			guardian_contact VARCHAR(50),
			is_active BOOLEAN DEFAULT true,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			deleted_at TIMESTAMPTZ,
			UNIQUE (school_id, student_code)
		);
		CREATE INDEX IF NOT EXISTS idx_students_school_class ON students (school_id, class_id);
	`
	_, err := db.Exec(query)
	return err
}

func createFeeStructuresTable(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS fee_structures (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_id UUID NOT NULL,
			name VARCHAR(255) NOT NULL,
			category VARCHAR(100) NOT NULL,
			amount NUMERIC(12,2) NOT NULL,
			frequency VARCHAR(20) NOT NULL CHECK (frequency IN ('monthly','one_time','custom')),
			class_scope UUID[],
			discount_type VARCHAR(20) CHECK (discount_type IN ('percentage','fixed')),
			discount_value NUMERIC(12,2) DEFAULT 0,
			late_fee_amount NUMERIC(12,2) DEFAULT 0,
			is_active BOOLEAN DEFAULT true,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_fee_structures_school ON fee_structures (school_id);
	`
	_, err := db.Exec(query)
	return err
}

func createLedgerTables(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS fee_ledger_records (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_id UUID NOT NULL,
			student_id UUID NOT NULL REFERENCES students(id),
			fee_structure_id UUID NOT NULL REFERENCES fee_structures(id),
			academic_year VARCHAR(20) NOT NULL,
			month INT CHECK (month BETWEEN 1 AND 12),
			total_amount NUMERIC(12,2) NOT NULL,
			discount_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			late_fee_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			paid_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			due_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			due_date DATE NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending','partial','paid','cancelled')),
			remarks TEXT,
			cancel_reason TEXT,
			created_by UUID NOT NULL,
			version INT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_school_year ON fee_ledger_records (school_id, academic_year);
		CREATE INDEX IF NOT EXISTS idx_ledger_student ON fee_ledger_records (student_id);
		-- One active record per (school, student, structure, year, month).
		-- NULL months collapse to 0 so non-monthly charges are covered too.
		CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_active_period
			ON fee_ledger_records (school_id, student_id, fee_structure_id, academic_year, COALESCE(month, 0))
			WHERE status <> 'cancelled';

		CREATE TABLE IF NOT EXISTS fee_payments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			record_id UUID NOT NULL REFERENCES fee_ledger_records(id) ON DELETE CASCADE,
			amount NUMERIC(12,2) NOT NULL,
			payment_date TIMESTAMPTZ NOT NULL,
			payment_method VARCHAR(50),
			transaction_id VARCHAR(100),
			remarks TEXT,
			collected_by UUID NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_fee_payments_record ON fee_payments (record_id);
	`
	_, err := db.Exec(query)
	return err
}

func createPromoCodesTable(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS promo_codes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			school_id UUID NOT NULL,
			code VARCHAR(50) NOT NULL,
			description TEXT,
			discount_type VARCHAR(20) NOT NULL CHECK (discount_type IN ('percentage','fixed')),
			discount_value NUMERIC(12,2) NOT NULL,
			max_discount_amount NUMERIC(12,2),
			minimum_order_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			target_type VARCHAR(20) NOT NULL DEFAULT 'all' CHECK (target_type IN ('all','specific','category')),
			target_products UUID[],
			target_categories TEXT[],
			usage_limit INT,
			used_count INT NOT NULL DEFAULT 0,
			valid_from TIMESTAMPTZ NOT NULL,
			valid_until TIMESTAMPTZ NOT NULL,
			is_active BOOLEAN DEFAULT true,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (school_id, code)
		);
	`
	_, err := db.Exec(query)
	return err
}
