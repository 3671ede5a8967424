package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultDepartmentColor is applied when a department is created without one.
const DefaultDepartmentColor = "#3b82f6"

type Department struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganisationID uuid.UUID `gorm:"column:organisation_id;type:uuid;not null;index" json:"organisationId"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Description    *string   `gorm:"column:description" json:"description"`
	Color          string    `gorm:"column:color;not null" json:"color"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (Department) TableName() string {
	return "departments"
}

func (d *Department) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// DepartmentManager links an employee as a manager of a department; at most
// one link per (DepartmentID, EmployeeID).
type DepartmentManager struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	DepartmentID uuid.UUID `gorm:"column:department_id;type:uuid;not null;uniqueIndex:idx_department_managers_pair" json:"departmentId"`
	EmployeeID   uuid.UUID `gorm:"column:employee_id;type:uuid;not null;uniqueIndex:idx_department_managers_pair;index" json:"employeeId"`
	IsPrimary    bool      `gorm:"column:is_primary;not null" json:"isPrimary"`
	AssignedAt   time.Time `gorm:"column:assigned_at;not null" json:"assignedAt"`
}

func (DepartmentManager) TableName() string {
	return "department_managers"
}

func (m *DepartmentManager) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
