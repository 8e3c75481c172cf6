package documents

import (
	"regexp"
	"strings"
	"time"
)

// File types recorded on a document.
const (
	FileTypeImage = "image"
	FileTypePDF   = "pdf"
	FileTypeOther = "other"
)

// Document is one uploaded or directly translated text owned by a user.
type Document struct {
	ID               string
	UserID           string
	DocumentName     string
	OriginalFileName string
	FileType         string
	TargetLanguage   string
	OriginalText     string
	TranslatedText   string
	// ExtractionOK and TranslationOK are false when the stage failed and the
	// text was left empty. Empty text with the flag set means nothing was found.
	ExtractionOK  bool
	TranslationOK bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Content is the result of the extraction and translation stages.
type Content struct {
	OriginalText   string
	TranslatedText string
	ExtractionOK   bool
	TranslationOK  bool
}

// FieldsUpdate carries owner edits. Nil means unchanged.
type FieldsUpdate struct {
	DocumentName   *string
	TranslatedText *string
}

func (u FieldsUpdate) empty() bool {
	return u.DocumentName == nil && u.TranslatedText == nil
}

// ClassifyFileType maps a MIME type to a file type.
func ClassifyFileType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case strings.HasPrefix(ct, "image/"):
		return FileTypeImage
	case ct == "application/pdf":
		return FileTypePDF
	default:
		return FileTypeOther
	}
}

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

// NormalizeText collapses every run of CR/LF characters into a single space.
func NormalizeText(s string) string {
	return lineBreaks.ReplaceAllString(s, " ")
}

// nameKey is the case-insensitive identity of a document name within one owner.
func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
