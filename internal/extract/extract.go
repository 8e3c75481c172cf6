package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"doculingua-backend/internal/shared/storage/object"
)

// Recognizer is a single-use OCR session.
type Recognizer interface {
	SetImageFromBytes(data []byte) error
	Text() (string, error)
	Close() error
}

// RecognizerFactory opens a new OCR session. Each Extract call gets its own.
type RecognizerFactory func() (Recognizer, error)

// Extractor turns uploaded bytes into plain text.
type Extractor struct {
	newRecognizer RecognizerFactory
}

// New builds an Extractor. A nil factory disables OCR; images then fail with ExtractionError.
func New(factory RecognizerFactory) *Extractor {
	return &Extractor{newRecognizer: factory}
}

// Supported reports whether fileName has an extension Extract can handle.
func Supported(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".jpg", ".jpeg", ".png", ".pdf":
		return true
	default:
		return false
	}
}

// Extract dispatches on the file extension: images go through OCR, PDFs
// through their text layer. A document with no recognizable text yields "".
func (e *Extractor) Extract(ctx context.Context, data []byte, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyInput
	}
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".jpg", ".jpeg", ".png":
		return e.recognize(data)
	case ".pdf":
		return extractPDF(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
}

// ExtractObject reads key from store and extracts it.
func (e *Extractor) ExtractObject(ctx context.Context, store object.BlobStore, key string, fileName string) (string, error) {
	body, err := store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("extract key=%s: %w", key, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("extract key=%s: read: %w", key, err)
	}
	return e.Extract(ctx, raw, fileName)
}

func (e *Extractor) recognize(data []byte) (string, error) {
	if e.newRecognizer == nil {
		return "", &ExtractionError{Engine: "ocr", Err: fmt.Errorf("no OCR engine configured")}
	}
	rec, err := e.newRecognizer()
	if err != nil {
		return "", &ExtractionError{Engine: "ocr", Err: err}
	}
	defer rec.Close()

	if err := rec.SetImageFromBytes(data); err != nil {
		return "", &ExtractionError{Engine: "ocr", Err: err}
	}
	text, err := rec.Text()
	if err != nil {
		return "", &ExtractionError{Engine: "ocr", Err: err}
	}
	return strings.TrimSpace(text), nil
}

func extractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = &ExtractionError{Engine: "pdf", Err: fmt.Errorf("%v", rec)}
		}
	}()

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Engine: "pdf", Err: err}
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", &ExtractionError{Engine: "pdf", Err: err}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", &ExtractionError{Engine: "pdf", Err: err}
	}
	return strings.TrimSpace(buf.String()), nil
}
