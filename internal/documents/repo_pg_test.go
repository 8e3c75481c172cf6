package documents

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var documentColumnNames = []string{"id", "user_id", "document_name", "original_file_name", "file_type", "target_language", "original_text", "translated_text", "extraction_ok", "translation_ok", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &PGRepo{DB: conn}, mock
}

func documentRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows(documentColumnNames)
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	for _, id := range ids {
		rows.AddRow(id, "alice", "name-"+id, "file.pdf", FileTypePDF, "es", "hola", "hello", true, false, now, now)
	}
	return rows
}

func TestPGCreateMapsUniqueViolationToConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO documents`)).
		WithArgs("d1", "alice", "Invoice", "invoice.pdf", FileTypePDF, "es", "", "", false, false).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: nameConstraint})

	err := repo.Create(context.Background(), Document{
		ID:               "d1",
		UserID:           "alice",
		DocumentName:     "Invoice",
		OriginalFileName: "invoice.pdf",
		FileType:         FileTypePDF,
		TargetLanguage:   "es",
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGFindByOwnerAndNameIsCaseInsensitive(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1 AND lower(document_name) = lower($2)`)).
		WithArgs("alice", "INVOICE").
		WillReturnRows(documentRows("d1"))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1 AND lower(document_name) = lower($2)`)).
		WithArgs("alice", "missing").
		WillReturnError(sql.ErrNoRows)

	doc, err := repo.FindByOwnerAndName(context.Background(), "alice", "INVOICE")
	require.NoError(t, err)
	assert.Equal(t, "d1", doc.ID)
	assert.True(t, doc.ExtractionOK)
	assert.False(t, doc.TranslationOK)

	_, err = repo.FindByOwnerAndName(context.Background(), "alice", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGListByOwnerPaginates(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`FROM documents WHERE user_id = \$1 ORDER BY created_at DESC, id DESC LIMIT 2 OFFSET 4`).
		WithArgs("alice").
		WillReturnRows(documentRows("d5", "d6"))

	docs, err := repo.ListByOwner(context.Background(), "alice", 2, 4)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d5", docs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGUpdateContentReturnsRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SET original_text = $1, translated_text = $2, extraction_ok = $3, translation_ok = $4, updated_at = now()`)).
		WithArgs("hola", "hello", true, false, "d1").
		WillReturnRows(documentRows("d1"))

	doc, err := repo.UpdateContent(context.Background(), "d1", Content{OriginalText: "hola", TranslatedText: "hello", ExtractionOK: true})
	require.NoError(t, err)
	assert.Equal(t, "hola", doc.OriginalText)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGUpdateFieldsRenameConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	name := "taken"
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE documents SET updated_at = now(), document_name = $1 WHERE id = $2 RETURNING`)).
		WithArgs("taken", "d1").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: nameConstraint})

	_, err := repo.UpdateFields(context.Background(), "d1", FieldsUpdate{DocumentName: &name})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGDeletes(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM documents WHERE id = $1`)).
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM documents WHERE user_id = $1`)).
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 3))

	assert.ErrorIs(t, repo.Delete(context.Background(), "d1"), ErrNotFound)
	n, err := repo.DeleteByOwner(context.Background(), "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGCountByOwner(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM documents WHERE user_id = $1`)).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.CountByOwner(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
