package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"doculingua-backend/internal/shared/metrics"
	"doculingua-backend/internal/shared/storage/object"
	"doculingua-backend/internal/shared/telemetry"
	"doculingua-backend/internal/shared/util"
	"doculingua-backend/internal/translate"
)

const (
	defaultUploadPrefix = "uploads"
	defaultPageSize     = 20
	maxPageSize         = 50
)

// TextExtractor reads a staged blob back from store and returns its text.
// *extract.Extractor satisfies it.
type TextExtractor interface {
	ExtractObject(ctx context.Context, store object.BlobStore, key, fileName string) (string, error)
}

// IngestInput is an uploaded file to stage, extract and translate.
type IngestInput struct {
	OwnerID        string
	DocumentName   string
	TargetLanguage string
	FileName       string
	ContentType    string
	Data           []byte
}

// TextInput is raw text to translate without a file.
type TextInput struct {
	OwnerID        string
	DocumentName   string
	TargetLanguage string
	Text           string
}

// Page is one page of an owner's documents.
type Page struct {
	Documents  []Document
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// Service contains business logic for documents.
type Service struct {
	Repo       Repo
	Owners     Owners
	Blobs      object.BlobStore
	Extractor  TextExtractor
	Translator translate.Translator

	UploadPrefix string
	now          func() time.Time
}

func NewService(repo Repo, owners Owners, blobs object.BlobStore, extractor TextExtractor, translator translate.Translator) *Service {
	return &Service{
		Repo:         repo,
		Owners:       owners,
		Blobs:        blobs,
		Extractor:    extractor,
		Translator:   translator,
		UploadPrefix: defaultUploadPrefix,
		now:          time.Now,
	}
}

// Ingest stages the upload, creates the record, then fills it with the
// extracted and translated text. Extraction and translation failures are
// recorded on the document flags and never fail the call. The staged blob is
// removed on every path once the upload succeeded.
func (s *Service) Ingest(ctx context.Context, in IngestInput) (doc Document, err error) {
	start := s.now()
	metrics.IncIngestStarted(metrics.SourceUpload)
	defer func() { s.finish(metrics.SourceUpload, start, doc, err) }()

	name := strings.TrimSpace(in.DocumentName)
	if err := s.checkOwner(ctx, in.OwnerID); err != nil {
		return Document{}, err
	}
	if name == "" {
		return Document{}, fmt.Errorf("%w: documentName is required", ErrInvalidInput)
	}
	if len(in.Data) == 0 {
		return Document{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	fileName, err := util.SanitizeFileName(in.FileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: file name %q is invalid", ErrInvalidInput, in.FileName)
	}
	target, err := targetLanguage(in.TargetLanguage)
	if err != nil {
		return Document{}, err
	}
	if err := s.checkDuplicate(ctx, in.OwnerID, name); err != nil {
		return Document{}, err
	}

	key := util.NewObjectKey(s.uploadPrefix(), fileName)
	blob, err := s.Blobs.Put(ctx, key, in.ContentType, bytes.NewReader(in.Data), int64(len(in.Data)))
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer s.cleanup(context.WithoutCancel(ctx), blob.Key)
	telemetry.Info("documents.ingest.staged", map[string]any{
		"user_id":    in.OwnerID,
		"key":        blob.Key,
		"size_bytes": blob.SizeBytes,
	})

	doc = Document{
		ID:               uuid.NewString(),
		UserID:           in.OwnerID,
		DocumentName:     name,
		OriginalFileName: fileName,
		FileType:         ClassifyFileType(in.ContentType),
		TargetLanguage:   target,
	}
	if err := s.create(ctx, doc); err != nil {
		return Document{}, err
	}

	var content Content
	text, err := s.Extractor.ExtractObject(ctx, s.Blobs, blob.Key, fileName)
	if err != nil {
		telemetry.Warn("documents.ingest.extraction_failed", map[string]any{
			"document_id": doc.ID,
			"file_type":   doc.FileType,
			"error":       err,
		})
		metrics.IncStageDegraded(metrics.StageExtraction)
	} else {
		content.OriginalText = NormalizeText(text)
		content.ExtractionOK = true
	}
	s.translateInto(ctx, doc.ID, target, &content)

	return s.complete(ctx, doc, content)
}

// TranslateOnly records raw text and its translation without staging a file.
func (s *Service) TranslateOnly(ctx context.Context, in TextInput) (doc Document, err error) {
	start := s.now()
	metrics.IncIngestStarted(metrics.SourceText)
	defer func() { s.finish(metrics.SourceText, start, doc, err) }()

	name := strings.TrimSpace(in.DocumentName)
	if err := s.checkOwner(ctx, in.OwnerID); err != nil {
		return Document{}, err
	}
	if name == "" {
		return Document{}, fmt.Errorf("%w: documentName is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Text) == "" {
		return Document{}, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	target, err := targetLanguage(in.TargetLanguage)
	if err != nil {
		return Document{}, err
	}
	if err := s.checkDuplicate(ctx, in.OwnerID, name); err != nil {
		return Document{}, err
	}

	doc = Document{
		ID:               uuid.NewString(),
		UserID:           in.OwnerID,
		DocumentName:     name,
		OriginalFileName: name,
		FileType:         FileTypeOther,
		TargetLanguage:   target,
	}
	if err := s.create(ctx, doc); err != nil {
		return Document{}, err
	}

	content := Content{OriginalText: NormalizeText(in.Text), ExtractionOK: true}
	s.translateInto(ctx, doc.ID, target, &content)

	return s.complete(ctx, doc, content)
}

// Get returns one of the caller's documents.
func (s *Service) Get(ctx context.Context, callerID, id string) (Document, error) {
	return s.owned(ctx, callerID, id)
}

// List returns one page of the caller's documents, newest first.
func (s *Service) List(ctx context.Context, callerID string, page, limit int) (Page, error) {
	if strings.TrimSpace(callerID) == "" {
		return Page{}, ErrUnauthorized
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	total, err := s.Repo.CountByOwner(ctx, callerID)
	if err != nil {
		return Page{}, fmt.Errorf("%w: count documents: %v", ErrInternal, err)
	}
	docs, err := s.Repo.ListByOwner(ctx, callerID, limit, (page-1)*limit)
	if err != nil {
		return Page{}, fmt.Errorf("%w: list documents: %v", ErrInternal, err)
	}
	return Page{
		Documents:  docs,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// Update renames a document or replaces its translated text.
func (s *Service) Update(ctx context.Context, callerID, id string, upd FieldsUpdate) (Document, error) {
	if upd.empty() {
		return Document{}, fmt.Errorf("%w: documentName or translatedText is required", ErrInvalidInput)
	}
	if upd.DocumentName != nil {
		name := strings.TrimSpace(*upd.DocumentName)
		if name == "" {
			return Document{}, fmt.Errorf("%w: documentName cannot be empty", ErrInvalidInput)
		}
		upd.DocumentName = &name
	}

	doc, err := s.owned(ctx, callerID, id)
	if err != nil {
		return Document{}, err
	}
	if upd.DocumentName != nil && nameKey(*upd.DocumentName) != nameKey(doc.DocumentName) {
		other, err := s.Repo.FindByOwnerAndName(ctx, callerID, *upd.DocumentName)
		switch {
		case err == nil && other.ID != doc.ID:
			return Document{}, ErrConflict
		case err != nil && !errors.Is(err, ErrNotFound):
			return Document{}, fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}

	updated, err := s.Repo.UpdateFields(ctx, id, upd)
	if err != nil {
		return Document{}, repoError(err)
	}
	return updated, nil
}

// Delete removes the document and drops it from the owner's set.
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return repoError(err)
	}
	if err := s.Owners.UnlinkDocument(ctx, callerID, id); err != nil {
		return fmt.Errorf("%w: unlink document: %v", ErrInternal, err)
	}
	telemetry.Info("documents.deleted", map[string]any{"user_id": callerID, "document_id": id})
	return nil
}

// DeleteAll removes every document of the caller. The owner's set is only
// cleared after the store reports at least one deletion.
func (s *Service) DeleteAll(ctx context.Context, callerID string) (int64, error) {
	if strings.TrimSpace(callerID) == "" {
		return 0, ErrUnauthorized
	}
	n, err := s.Repo.DeleteByOwner(ctx, callerID)
	if err != nil {
		return 0, fmt.Errorf("%w: delete documents: %v", ErrInternal, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: no documents were deleted", ErrInternal)
	}
	if err := s.Owners.ClearDocuments(ctx, callerID); err != nil {
		return n, fmt.Errorf("%w: clear owner documents: %v", ErrInternal, err)
	}
	telemetry.Info("documents.deleted_all", map[string]any{"user_id": callerID, "count": n})
	return n, nil
}

// PurgeOwner removes every document of userID as part of deleting the account.
// Unlike DeleteAll an owner without documents is not an error.
func (s *Service) PurgeOwner(ctx context.Context, userID string) (int64, error) {
	n, err := s.Repo.DeleteByOwner(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := s.Owners.ClearDocuments(ctx, userID); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (s *Service) checkOwner(ctx context.Context, ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrUnauthorized
	}
	ok, err := s.Owners.Exists(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("%w: lookup owner: %v", ErrInternal, err)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

func (s *Service) checkDuplicate(ctx context.Context, ownerID, name string) error {
	_, err := s.Repo.FindByOwnerAndName(ctx, ownerID, name)
	switch {
	case err == nil:
		return ErrConflict
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return fmt.Errorf("%w: duplicate check: %v", ErrInternal, err)
	}
}

func (s *Service) create(ctx context.Context, doc Document) error {
	if err := s.Repo.Create(ctx, doc); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrConflict
		}
		return fmt.Errorf("%w: create document: %v", ErrInternal, err)
	}
	telemetry.Info("documents.ingest.created", map[string]any{
		"user_id":     doc.UserID,
		"document_id": doc.ID,
		"file_type":   doc.FileType,
	})
	return nil
}

// translateInto fills content.TranslatedText. Failed extraction skips the
// call; empty text is not sent.
func (s *Service) translateInto(ctx context.Context, docID, target string, content *Content) {
	if !content.ExtractionOK {
		content.TranslationOK = false
		return
	}
	if strings.TrimSpace(content.OriginalText) == "" {
		content.TranslationOK = true
		return
	}
	out, err := s.Translator.Translate(ctx, content.OriginalText, translate.AutoDetect, target)
	if err != nil {
		telemetry.Warn("documents.ingest.translation_failed", map[string]any{
			"document_id": docID,
			"target":      target,
			"kind":        translationFailureKind(err),
			"error":       err,
		})
		metrics.IncStageDegraded(metrics.StageTranslation)
		content.TranslationOK = false
		return
	}
	content.TranslatedText = out
	content.TranslationOK = true
}

func (s *Service) complete(ctx context.Context, doc Document, content Content) (Document, error) {
	updated, err := s.Repo.UpdateContent(ctx, doc.ID, content)
	if err != nil {
		return Document{}, fmt.Errorf("%w: save document text: %v", ErrInternal, err)
	}
	if err := s.Owners.LinkDocument(ctx, doc.UserID, doc.ID); err != nil {
		return Document{}, fmt.Errorf("%w: link document: %v", ErrInternal, err)
	}
	return updated, nil
}

func (s *Service) cleanup(ctx context.Context, key string) {
	if err := s.Blobs.Delete(ctx, key); err != nil {
		telemetry.Warn("documents.ingest.cleanup_failed", map[string]any{"key": key, "error": err})
		metrics.IncBlobCleanupFailed()
	}
}

func (s *Service) finish(source string, start time.Time, doc Document, err error) {
	elapsed := s.now().Sub(start)
	if err != nil {
		metrics.IncIngestFailed(failureReason(err))
		telemetry.Info("documents.ingest.rejected", map[string]any{
			"source": source,
			"reason": failureReason(err),
			"error":  err,
		})
		return
	}
	metrics.IncIngestCompleted(source)
	metrics.ObserveIngestDurationMs(source, float64(elapsed.Milliseconds()))
	telemetry.Info("documents.ingest.complete", map[string]any{
		"source":         source,
		"document_id":    doc.ID,
		"user_id":        doc.UserID,
		"extraction_ok":  doc.ExtractionOK,
		"translation_ok": doc.TranslationOK,
		"duration_ms":    elapsed.Milliseconds(),
	})
}

func (s *Service) owned(ctx context.Context, callerID, id string) (Document, error) {
	if strings.TrimSpace(callerID) == "" {
		return Document{}, ErrUnauthorized
	}
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Document{}, repoError(err)
	}
	if doc.UserID != callerID {
		return Document{}, ErrForbidden
	}
	return doc, nil
}

func (s *Service) uploadPrefix() string {
	if s.UploadPrefix == "" {
		return defaultUploadPrefix
	}
	return s.UploadPrefix
}

func targetLanguage(code string) (string, error) {
	if err := translate.ValidateTarget(code); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return translate.NormalizeLanguage(code), nil
}

// repoError passes through the sentinels the handler maps and wraps the rest as internal.
func repoError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidInput):
		return "bad_request"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUploadFailed):
		return "upload_failed"
	default:
		return "internal"
	}
}

func translationFailureKind(err error) string {
	var transport *translate.TransportError
	var remote *translate.RemoteError
	var validation *translate.ValidationError
	switch {
	case errors.As(err, &transport):
		return "transport"
	case errors.As(err, &remote):
		return "remote"
	case errors.As(err, &validation):
		return "validation"
	default:
		return "unknown"
	}
}
