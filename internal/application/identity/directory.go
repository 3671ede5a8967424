// Package identity reads display fields for the opaque user ids issued by the
// auth service. This service never writes to the users table.
package identity

import (
	"context"
	"errors"

	"axis-backend/internal/domain"

	"gorm.io/gorm"
)

// Profile is the display information attached to a membership.
type Profile struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Image *string `json:"image"`
}

// Directory resolves a user id to its profile. A missing user yields (nil, nil).
type Directory interface {
	Profile(ctx context.Context, userID string) (*Profile, error)
}

// GormDirectory reads profiles from the users table shared with the auth service.
type GormDirectory struct {
	DB *gorm.DB
}

func (d *GormDirectory) Profile(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, nil
	}
	var u domain.User
	err := d.DB.WithContext(ctx).Select("id, name, email, image").Where("id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Profile{Name: u.Name, Email: u.Email, Image: u.Image}, nil
}

// Profiles resolves several ids at once, skipping unknown ones.
func Profiles(ctx context.Context, dir Directory, userIDs []string) (map[string]*Profile, error) {
	out := make(map[string]*Profile, len(userIDs))
	for _, id := range userIDs {
		if _, seen := out[id]; seen {
			continue
		}
		p, err := dir.Profile(ctx, id)
		if err != nil {
			return nil, err
		}
		if p != nil {
			out[id] = p
		}
	}
	return out, nil
}
