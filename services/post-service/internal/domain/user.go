package domain

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned when a user id has no row.
var ErrUserNotFound = errors.New("user not found")

// User mirrors the identity provider's account. The id is opaque.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(191)"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

type UserRepository interface {
	Upsert(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
}
