package extract

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput       = errors.New("extract: empty input")
	ErrUnsupportedType  = errors.New("extract: unsupported file type")
	ErrExtractionFailed = errors.New("extract: extraction failed")
)

// ExtractionError wraps an engine failure. It matches ErrExtractionFailed.
type ExtractionError struct {
	Engine string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract: %s failed: %v", e.Engine, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtractionFailed }
