package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organisation is the tenant: the unit of subscription tier and quota.
// MaxDepartments/MaxEmployees are denormalized from the quota table and are
// rewritten whenever SubscriptionTier changes.
type Organisation struct {
	ID                  uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name                string     `gorm:"column:name;not null;index" json:"name"`
	Slug                string     `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Description         *string    `gorm:"column:description" json:"description"`
	Logo                *string    `gorm:"column:logo" json:"logo"`
	Website             *string    `gorm:"column:website" json:"website"`
	OwnerID             string     `gorm:"column:owner_id;not null;index" json:"ownerId"`
	SubscriptionTier    string     `gorm:"column:subscription_tier;not null;index" json:"subscriptionTier"`
	SubscriptionStatus  string     `gorm:"column:subscription_status;not null" json:"subscriptionStatus"`
	SubscriptionExpiry  *time.Time `gorm:"column:subscription_expiry" json:"subscriptionExpiry,omitempty"`
	MaxDepartments      int64      `gorm:"column:max_departments;not null" json:"maxDepartments"`
	MaxEmployees        int64      `gorm:"column:max_employees;not null" json:"maxEmployees"`
	OnboardingCompleted bool       `gorm:"column:onboarding_completed;not null" json:"onboardingCompleted"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func (Organisation) TableName() string {
	return "organisations"
}

// BeforeCreate ensures id is set for DBs without default uuid.
func (o *Organisation) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
