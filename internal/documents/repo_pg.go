package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"doculingua-backend/internal/shared/storage/db"
)

// nameConstraint is the unique index on (user_id, lower(document_name)).
const nameConstraint = "documents_owner_name_key"

const documentColumns = `id, user_id, document_name, original_file_name, file_type, target_language, original_text, translated_text, extraction_ok, translation_ok, created_at, updated_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    document_name,
    original_file_name,
    file_type,
    target_language,
    original_text,
    translated_text,
    extraction_ok,
    translation_ok,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.DocumentName,
		doc.OriginalFileName,
		doc.FileType,
		doc.TargetLanguage,
		doc.OriginalText,
		doc.TranslatedText,
		doc.ExtractionOK,
		doc.TranslationOK,
	)
	if db.IsUniqueViolation(err, nameConstraint) {
		return ErrConflict
	}
	return err
}

// GetByID fetches a document by id regardless of owner; callers check ownership.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 LIMIT 1`
	return scanDocument(r.DB.QueryRowContext(ctx, query, id))
}

// FindByOwnerAndName matches the name case-insensitively within one owner.
func (r *PGRepo) FindByOwnerAndName(ctx context.Context, ownerID, name string) (Document, error) {
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND lower(document_name) = lower($2)
LIMIT 1`
	return scanDocument(r.DB.QueryRowContext(ctx, query, ownerID, name))
}

// ListByOwner lists documents ordered newest-first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	if offset < 0 {
		offset = 0
	}
	b := psql.Select(documentColumns).
		From("documents").
		Where(sq.Eq{"user_id": ownerID}).
		OrderBy("created_at DESC", "id DESC").
		Offset(uint64(offset))
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build document list: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (r *PGRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM documents WHERE user_id = $1`, ownerID).Scan(&n)
	return n, err
}

// UpdateContent stores the pipeline results in one write.
func (r *PGRepo) UpdateContent(ctx context.Context, id string, content Content) (Document, error) {
	query := `
UPDATE documents
SET original_text = $1, translated_text = $2, extraction_ok = $3, translation_ok = $4, updated_at = now()
WHERE id = $5
RETURNING ` + documentColumns
	return scanDocument(r.DB.QueryRowContext(ctx, query,
		content.OriginalText,
		content.TranslatedText,
		content.ExtractionOK,
		content.TranslationOK,
		id,
	))
}

func (r *PGRepo) UpdateFields(ctx context.Context, id string, upd FieldsUpdate) (Document, error) {
	if upd.empty() {
		return r.GetByID(ctx, id)
	}
	b := psql.Update("documents").Set("updated_at", sq.Expr("now()")).Where(sq.Eq{"id": id})
	if upd.DocumentName != nil {
		b = b.Set("document_name", *upd.DocumentName)
	}
	if upd.TranslatedText != nil {
		b = b.Set("translated_text", *upd.TranslatedText)
	}
	query, args, err := b.Suffix("RETURNING " + documentColumns).ToSql()
	if err != nil {
		return Document{}, fmt.Errorf("build document update: %w", err)
	}
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, args...))
	if db.IsUniqueViolation(err, nameConstraint) {
		return Document{}, ErrConflict
	}
	return doc, err
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE user_id = $1`, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.DocumentName,
		&doc.OriginalFileName,
		&doc.FileType,
		&doc.TargetLanguage,
		&doc.OriginalText,
		&doc.TranslatedText,
		&doc.ExtractionOK,
		&doc.TranslationOK,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

var _ Repo = (*PGRepo)(nil)
