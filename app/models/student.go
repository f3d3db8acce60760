package models

import "time"

// Student is the directory entry the ledger consumes for scoping and report
// enrichment. The directory itself is owned by an external collaborator.
type Student struct {
	ID              string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	SchoolID        string     `json:"school_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	StudentCode     string     `json:"student_code" gorm:"uniqueIndex;not null" validate:"required"`
	FirstName       string     `json:"first_name" gorm:"not null" validate:"required"`
	LastName        string     `json:"last_name" gorm:"not null" validate:"required"`
	ClassID         *string    `json:"class_id,omitempty" gorm:"index;type:uuid"`
	GuardianContact *string    `json:"guardian_contact,omitempty" gorm:"type:varchar(50)"`
	IsActive        bool       `json:"is_active" gorm:"default:true;index"`
	CreatedAt       time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

// FullName returns the display name used in reports.
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
