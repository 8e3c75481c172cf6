package users

import "time"

// User is an account. PasswordHash and the OTP fields never leave the service.
type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	UserImage    string
	ImageKey     string
	Languages    []string
	Documents    []string
	OTPHash      string
	OTPExpiry    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate carries the fields to change. Nil means unchanged.
type ProfileUpdate struct {
	FullName  *string
	Email     *string
	Languages *[]string
	UserImage *string
	ImageKey  *string
}

func (u ProfileUpdate) empty() bool {
	return u.FullName == nil && u.Email == nil && u.Languages == nil && u.UserImage == nil && u.ImageKey == nil
}

func (u ProfileUpdate) apply(user *User) {
	if u.FullName != nil {
		user.FullName = *u.FullName
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Languages != nil {
		user.Languages = append([]string(nil), (*u.Languages)...)
	}
	if u.UserImage != nil {
		user.UserImage = *u.UserImage
	}
	if u.ImageKey != nil {
		user.ImageKey = *u.ImageKey
	}
}
