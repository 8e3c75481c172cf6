package users

import (
	"context"
	"strings"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]User)}
}

func (r *MemoryRepo) Create(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return ErrEmailTaken
	}
	if r.emailTakenLocked(user.Email, "") {
		return ErrEmailTaken
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = clone(user)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return clone(user), nil
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return clone(user), nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (User, error) {
	var out User
	err := r.mutate(ctx, userID, func(user *User) error {
		if upd.Email != nil && r.emailTakenLocked(*upd.Email, userID) {
			return ErrEmailTaken
		}
		upd.apply(user)
		out = clone(*user)
		return nil
	})
	return out, err
}

func (r *MemoryRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.mutate(ctx, userID, func(user *User) error {
		user.PasswordHash = passwordHash
		return nil
	})
}

func (r *MemoryRepo) SetOTP(ctx context.Context, userID, otpHash string, expiry time.Time) error {
	return r.mutate(ctx, userID, func(user *User) error {
		user.OTPHash = otpHash
		exp := expiry
		user.OTPExpiry = &exp
		return nil
	})
}

func (r *MemoryRepo) ClearOTP(ctx context.Context, userID string) error {
	return r.mutate(ctx, userID, func(user *User) error {
		user.OTPHash = ""
		user.OTPExpiry = nil
		return nil
	})
}

func (r *MemoryRepo) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return ErrNotFound
	}
	delete(r.users, userID)
	return nil
}

func (r *MemoryRepo) LinkDocument(ctx context.Context, userID, documentID string) error {
	return r.mutate(ctx, userID, func(user *User) error {
		for _, id := range user.Documents {
			if id == documentID {
				return nil
			}
		}
		user.Documents = append(user.Documents, documentID)
		return nil
	})
}

func (r *MemoryRepo) UnlinkDocument(ctx context.Context, userID, documentID string) error {
	return r.mutate(ctx, userID, func(user *User) error {
		kept := user.Documents[:0]
		for _, id := range user.Documents {
			if id != documentID {
				kept = append(kept, id)
			}
		}
		user.Documents = kept
		return nil
	})
}

func (r *MemoryRepo) ClearDocuments(ctx context.Context, userID string) error {
	return r.mutate(ctx, userID, func(user *User) error {
		user.Documents = nil
		return nil
	})
}

func (r *MemoryRepo) mutate(ctx context.Context, userID string, fn func(*User) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	if err := fn(&user); err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[userID] = user
	return nil
}

func (r *MemoryRepo) emailTakenLocked(email, exceptID string) bool {
	for id, user := range r.users {
		if id != exceptID && strings.EqualFold(user.Email, email) {
			return true
		}
	}
	return false
}

func clone(user User) User {
	user.Languages = append([]string(nil), user.Languages...)
	user.Documents = append([]string(nil), user.Documents...)
	if user.OTPExpiry != nil {
		exp := *user.OTPExpiry
		user.OTPExpiry = &exp
	}
	return user
}

var _ Repo = (*MemoryRepo)(nil)
