package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MembershipStatus replaces a boolean active flag: removal is a state, not a delete.
type MembershipStatus string

const (
	MembershipActive  MembershipStatus = "active"
	MembershipRemoved MembershipStatus = "removed"
)

// Employee is an identity's membership of one organisation. There is at most
// one row per (UserID, OrganisationID); re-joining reactivates it.
type Employee struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID         string           `gorm:"column:user_id;not null;uniqueIndex:idx_employees_user_org" json:"userId"`
	OrganisationID uuid.UUID        `gorm:"column:organisation_id;type:uuid;not null;uniqueIndex:idx_employees_user_org;index:idx_employees_org" json:"organisationId"`
	DepartmentID   *uuid.UUID       `gorm:"column:department_id;type:uuid;index" json:"departmentId"`
	Role           string           `gorm:"column:role;not null" json:"role"`
	JobTitle       *string          `gorm:"column:job_title" json:"jobTitle"`
	EmployeeCode   *string          `gorm:"column:employee_code" json:"employeeCode,omitempty"`
	IsManager      bool             `gorm:"column:is_manager;not null" json:"isManager"`
	Status         MembershipStatus `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	JoinedAt       time.Time        `gorm:"column:joined_at;not null" json:"joinedAt"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

func (Employee) TableName() string {
	return "employees"
}

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// IsActive reports whether the membership currently grants access.
func (e *Employee) IsActive() bool {
	return e.Status == MembershipActive
}
