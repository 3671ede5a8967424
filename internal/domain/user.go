package domain

import "time"

// User mirrors the auth service's user table. This service only reads it to
// resolve display fields and the caller's email; it never writes credentials.
type User struct {
	ID            string    `gorm:"column:id;primaryKey" json:"id"`
	Name          string    `gorm:"column:name;not null" json:"name"`
	Email         string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	EmailVerified bool      `gorm:"column:email_verified;not null" json:"emailVerified"`
	Image         *string   `gorm:"column:image" json:"image"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
