package users

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	mailer "doculingua-backend/internal/mail"
	"doculingua-backend/internal/shared/auth"
	"doculingua-backend/internal/shared/storage/object"
	"doculingua-backend/internal/shared/telemetry"
	"doculingua-backend/internal/shared/util"
	"doculingua-backend/internal/translate"
)

var validate = validator.New()

const (
	minPasswordLen = 6
	otpDigits      = 6
	defaultOTPTTL  = time.Hour
)

// TokenIssuer signs session tokens. *auth.Manager satisfies it.
type TokenIssuer interface {
	Sign(sub, email, name string) (string, error)
}

// DocumentPurger removes every document a user owns.
type DocumentPurger interface {
	PurgeOwner(ctx context.Context, userID string) (int64, error)
}

// AuthResult is returned by signup and the login flows.
type AuthResult struct {
	Token string
	User  User
}

// SignupInput is the payload of a new account.
type SignupInput struct {
	FullName string
	Email    string
	Password string
}

// ImageUpload is a new profile picture.
type ImageUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// UpdateInput carries profile changes. Nil fields are left untouched.
type UpdateInput struct {
	FullName  *string
	Email     *string
	Languages *[]string
	Image     *ImageUpload
}

// GoogleProfile is the identity returned by Google sign-in.
type GoogleProfile struct {
	Email   string
	Name    string
	Picture string
}

type Service struct {
	Repo    Repo
	Tokens  TokenIssuer
	Revoker auth.Revoker
	Mailer  mailer.Mailer
	Blobs   object.BlobStore
	Docs    DocumentPurger

	OTPTTL   time.Duration
	HashCost int
	now      func() time.Time
}

func NewService(repo Repo, tokens TokenIssuer, m mailer.Mailer, blobs object.BlobStore) *Service {
	return &Service{
		Repo:     repo,
		Tokens:   tokens,
		Revoker:  auth.NopRevoker{},
		Mailer:   m,
		Blobs:    blobs,
		OTPTTL:   defaultOTPTTL,
		HashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (AuthResult, error) {
	fullName := strings.TrimSpace(in.FullName)
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return AuthResult{}, err
	}
	if fullName == "" {
		return AuthResult{}, fmt.Errorf("%w: fullName is required", ErrInvalidInput)
	}
	if err := validatePassword(in.Password); err != nil {
		return AuthResult{}, err
	}
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return AuthResult{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return AuthResult{}, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return AuthResult{}, err
	}
	user := User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Languages:    []string{},
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return AuthResult{}, err
	}
	telemetry.Info("users.signup", map[string]any{"user_id": user.ID})
	return s.issue(ctx, user.ID)
}

func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return AuthResult{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.issue(ctx, user.ID)
}

// LoginWithGoogle finds the account by email or creates one, then issues a token.
func (s *Service) LoginWithGoogle(ctx context.Context, p GoogleProfile) (AuthResult, error) {
	email, err := normalizeEmail(p.Email)
	if err != nil {
		return AuthResult{}, err
	}
	user, err := s.Repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		// Google accounts get an unguessable password; they can set one through the OTP flow.
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return AuthResult{}, err
		}
		hash, err := s.hash(hex.EncodeToString(secret))
		if err != nil {
			return AuthResult{}, err
		}
		user = User{
			ID:           uuid.NewString(),
			FullName:     strings.TrimSpace(p.Name),
			Email:        email,
			PasswordHash: hash,
			UserImage:    p.Picture,
			Languages:    []string{},
		}
		if err := s.Repo.Create(ctx, user); err != nil {
			return AuthResult{}, err
		}
		telemetry.Info("users.signup", map[string]any{"user_id": user.ID, "provider": "google"})
	case err != nil:
		return AuthResult{}, err
	case user.UserImage == "" && p.Picture != "":
		picture := p.Picture
		if _, err := s.Repo.UpdateProfile(ctx, user.ID, ProfileUpdate{UserImage: &picture}); err != nil {
			return AuthResult{}, err
		}
	}
	return s.issue(ctx, user.ID)
}

func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrNotFound
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	return s.withImageURL(ctx, user), nil
}

// UpdateProfile applies in. A new image replaces the stored one; the old
// blob is removed on a best-effort basis once the record is updated.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateInput) (User, error) {
	var upd ProfileUpdate
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return User{}, fmt.Errorf("%w: fullName cannot be empty", ErrInvalidInput)
		}
		upd.FullName = &name
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return User{}, err
		}
		upd.Email = &email
	}
	if in.Languages != nil {
		langs := make([]string, 0, len(*in.Languages))
		for _, code := range *in.Languages {
			if err := translate.ValidateTarget(code); err != nil {
				return User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			langs = append(langs, translate.NormalizeLanguage(code))
		}
		upd.Languages = &langs
	}

	var newKey, oldKey string
	if in.Image != nil {
		current, err := s.Repo.GetByID(ctx, userID)
		if err != nil {
			return User{}, err
		}
		blob, err := s.storeImage(ctx, *in.Image)
		if err != nil {
			return User{}, err
		}
		newKey = blob.Key
		oldKey = current.ImageKey
		upd.ImageKey = &blob.Key
		upd.UserImage = &blob.URL
	}
	if upd.empty() {
		return User{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	user, err := s.Repo.UpdateProfile(ctx, userID, upd)
	if err != nil {
		if newKey != "" {
			s.deleteBlob(ctx, newKey, "users.avatar.rollback_failed")
		}
		return User{}, err
	}
	// The old image goes only once the record points at the new one.
	if oldKey != "" && oldKey != newKey {
		s.deleteBlob(ctx, oldKey, "users.avatar.delete_failed")
	}
	return s.withImageURL(ctx, user), nil
}

// Delete removes the account, every document it owns and its profile image.
func (s *Service) Delete(ctx context.Context, userID string) error {
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if s.Docs != nil {
		n, err := s.Docs.PurgeOwner(ctx, userID)
		if err != nil {
			return fmt.Errorf("delete documents: %w", err)
		}
		telemetry.Info("users.delete.documents", map[string]any{"user_id": userID, "count": n})
	}
	if user.ImageKey != "" {
		s.deleteBlob(ctx, user.ImageKey, "users.avatar.delete_failed")
	}
	if err := s.Repo.Delete(ctx, userID); err != nil {
		return err
	}
	telemetry.Info("users.deleted", map[string]any{"user_id": userID})
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if current == "" {
		return fmt.Errorf("%w: currentPassword is required", ErrInvalidInput)
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}
	hash, err := s.hash(next)
	if err != nil {
		return err
	}
	return s.Repo.UpdatePassword(ctx, userID, hash)
}

// SendOTP emails a fresh password-reset code, replacing any previous one.
func (s *Service) SendOTP(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	hash, err := s.hash(code)
	if err != nil {
		return err
	}
	ttl := s.otpTTL()
	if err := s.Repo.SetOTP(ctx, user.ID, hash, s.now().UTC().Add(ttl)); err != nil {
		return err
	}

	msg, err := mailer.OTPMessage(user.Email, user.FullName, code, ttl)
	if err != nil {
		return err
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	telemetry.Info("users.otp.sent", map[string]any{"user_id": user.ID})
	return nil
}

// ResetPassword verifies the emailed code and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	otp = strings.TrimSpace(otp)
	if otp == "" {
		return fmt.Errorf("%w: otp is required", ErrInvalidInput)
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.OTPHash == "" || user.OTPExpiry == nil {
		return ErrInvalidOTP
	}
	if s.now().After(*user.OTPExpiry) {
		if err := s.Repo.ClearOTP(ctx, user.ID); err != nil {
			return err
		}
		return ErrOTPExpired
	}
	if bcrypt.CompareHashAndPassword([]byte(user.OTPHash), []byte(otp)) != nil {
		return ErrInvalidOTP
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	return s.Repo.ClearOTP(ctx, user.ID)
}

// Logout revokes the current token until its natural expiry.
func (s *Service) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.Revoker == nil || tokenID == "" {
		return nil
	}
	return s.Revoker.Revoke(ctx, tokenID, expiresAt)
}

// Exists reports whether userID is a registered account.
func (s *Service) Exists(ctx context.Context, userID string) (bool, error) {
	if _, err := s.Repo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) LinkDocument(ctx context.Context, userID, documentID string) error {
	return s.Repo.LinkDocument(ctx, userID, documentID)
}

func (s *Service) UnlinkDocument(ctx context.Context, userID, documentID string) error {
	return s.Repo.UnlinkDocument(ctx, userID, documentID)
}

func (s *Service) ClearDocuments(ctx context.Context, userID string) error {
	return s.Repo.ClearDocuments(ctx, userID)
}

func (s *Service) issue(ctx context.Context, userID string) (AuthResult, error) {
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return AuthResult{}, err
	}
	token, err := s.Tokens.Sign(user.ID, user.Email, user.FullName)
	if err != nil {
		return AuthResult{}, fmt.Errorf("sign token: %w", err)
	}
	return AuthResult{Token: token, User: s.withImageURL(ctx, user)}, nil
}

func (s *Service) storeImage(ctx context.Context, img ImageUpload) (object.Blob, error) {
	if len(img.Data) == 0 {
		return object.Blob{}, fmt.Errorf("%w: userImage is empty", ErrInvalidInput)
	}
	if !strings.HasPrefix(strings.ToLower(img.ContentType), "image/") {
		return object.Blob{}, fmt.Errorf("%w: userImage must be an image", ErrInvalidInput)
	}
	if s.Blobs == nil {
		return object.Blob{}, errors.New("image storage not configured")
	}
	key := util.NewObjectKey("avatars", img.FileName)
	blob, err := s.Blobs.Put(ctx, key, img.ContentType, bytes.NewReader(img.Data), int64(len(img.Data)))
	if err != nil {
		return object.Blob{}, fmt.Errorf("upload image: %w", err)
	}
	return blob, nil
}

// withImageURL refreshes the URL of a stored avatar, since some stores hand out expiring links.
func (s *Service) withImageURL(ctx context.Context, user User) User {
	if user.ImageKey == "" || s.Blobs == nil {
		return user
	}
	url, err := s.Blobs.URL(ctx, user.ImageKey)
	if err != nil {
		telemetry.Warn("users.avatar.url_failed", map[string]any{"user_id": user.ID, "error": err})
		return user
	}
	user.UserImage = url
	return user
}

func (s *Service) deleteBlob(ctx context.Context, key, event string) {
	if s.Blobs == nil {
		return
	}
	if err := s.Blobs.Delete(ctx, key); err != nil {
		telemetry.Warn(event, map[string]any{"key": key, "error": err})
	}
}

func (s *Service) hash(secret string) (string, error) {
	cost := s.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return string(out), nil
}

func (s *Service) otpTTL() time.Duration {
	if s.OTPTTL > 0 {
		return s.OTPTTL
	}
	return defaultOTPTTL
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if err := validate.Var(email, "email"); err != nil {
		return "", fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	return email, nil
}

func validatePassword(pw string) error {
	if len(pw) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	return nil
}

func generateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
