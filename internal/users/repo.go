package users

import (
	"context"
	"time"
)

// Repo persists users and each user's set of owned document ids.
type Repo interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (User, error)
	UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetOTP(ctx context.Context, userID, otpHash string, expiry time.Time) error
	ClearOTP(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string) error

	LinkDocument(ctx context.Context, userID, documentID string) error
	UnlinkDocument(ctx context.Context, userID, documentID string) error
	ClearDocuments(ctx context.Context, userID string) error
}
