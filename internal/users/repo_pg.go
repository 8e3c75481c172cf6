package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"doculingua-backend/internal/shared/storage/db"
)

const emailConstraint = "users_email_lower_key"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, full_name, email, password_hash, user_image, image_key, languages, otp_hash, otp_expiry, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, user User) error {
	langs, err := encodeLanguages(user.Languages)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO users (id, full_name, email, password_hash, user_image, image_key, languages, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`
	_, err = r.DB.ExecContext(ctx, query,
		user.ID,
		user.FullName,
		user.Email,
		user.PasswordHash,
		nullableString(user.UserImage),
		nullableString(user.ImageKey),
		langs,
	)
	if db.IsUniqueViolation(err, "") {
		return ErrEmailTaken
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		return User{}, err
	}
	return r.withDocuments(ctx, user)
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return User{}, err
	}
	return r.withDocuments(ctx, user)
}

func (r *PGRepo) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (User, error) {
	if upd.empty() {
		return r.GetByID(ctx, userID)
	}
	b := psql.Update("users").Set("updated_at", sq.Expr("now()")).Where(sq.Eq{"id": userID})
	if upd.FullName != nil {
		b = b.Set("full_name", *upd.FullName)
	}
	if upd.Email != nil {
		b = b.Set("email", *upd.Email)
	}
	if upd.Languages != nil {
		langs, err := encodeLanguages(*upd.Languages)
		if err != nil {
			return User{}, err
		}
		b = b.Set("languages", langs)
	}
	if upd.UserImage != nil {
		b = b.Set("user_image", nullableString(*upd.UserImage))
	}
	if upd.ImageKey != nil {
		b = b.Set("image_key", nullableString(*upd.ImageKey))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return User{}, fmt.Errorf("build user update: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		if db.IsUniqueViolation(err, emailConstraint) {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	if err := requireRow(res); err != nil {
		return User{}, err
	}
	return r.GetByID(ctx, userID)
}

func (r *PGRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) SetOTP(ctx context.Context, userID, otpHash string, expiry time.Time) error {
	const query = `UPDATE users SET otp_hash = $1, otp_expiry = $2, updated_at = now() WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, otpHash, expiry, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) ClearOTP(ctx context.Context, userID string) error {
	const query = `UPDATE users SET otp_hash = NULL, otp_expiry = NULL, updated_at = now() WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) Delete(ctx context.Context, userID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) LinkDocument(ctx context.Context, userID, documentID string) error {
	query, args, err := psql.Insert("user_documents").
		Columns("user_id", "document_id").
		Values(userID, documentID).
		Suffix("ON CONFLICT (user_id, document_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build link: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query, args...)
	return err
}

func (r *PGRepo) UnlinkDocument(ctx context.Context, userID, documentID string) error {
	query, args, err := psql.Delete("user_documents").
		Where(sq.Eq{"user_id": userID, "document_id": documentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build unlink: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query, args...)
	return err
}

func (r *PGRepo) ClearDocuments(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM user_documents WHERE user_id = $1`, userID)
	return err
}

func (r *PGRepo) withDocuments(ctx context.Context, user User) (User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT document_id FROM user_documents WHERE user_id = $1`, user.ID)
	if err != nil {
		return User{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return User{}, err
		}
		user.Documents = append(user.Documents, id)
	}
	return user, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var user User
	var userImage sql.NullString
	var imageKey sql.NullString
	var languages []byte
	var otpHash sql.NullString
	var otpExpiry sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&userImage,
		&imageKey,
		&languages,
		&otpHash,
		&otpExpiry,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if userImage.Valid {
		user.UserImage = userImage.String
	}
	if imageKey.Valid {
		user.ImageKey = imageKey.String
	}
	if otpHash.Valid {
		user.OTPHash = otpHash.String
	}
	if otpExpiry.Valid {
		exp := otpExpiry.Time
		user.OTPExpiry = &exp
	}
	if len(languages) > 0 {
		if err := json.Unmarshal(languages, &user.Languages); err != nil {
			return User{}, fmt.Errorf("decode languages: %w", err)
		}
	}
	return user, nil
}

func encodeLanguages(langs []string) (string, error) {
	if langs == nil {
		langs = []string{}
	}
	raw, err := json.Marshal(langs)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
