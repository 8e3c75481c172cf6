//go:build noocr

package tesseract

import (
	"context"
	"errors"
	"testing"

	"doculingua-backend/internal/extract"
)

func TestNoOCRBuildDisablesImages(t *testing.T) {
	if Available {
		t.Fatalf("expected Available to be false")
	}
	factory := NewFactory([]string{"eng"})
	if factory != nil {
		t.Fatalf("expected nil factory")
	}

	_, err := extract.New(factory).Extract(context.Background(), []byte("\x89PNG\r\n\x1a\n"), "scan.png")
	if !errors.Is(err, extract.ErrExtractionFailed) {
		t.Fatalf("expected extraction failure, got %v", err)
	}
}
