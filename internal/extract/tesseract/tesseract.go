//go:build !noocr

// Package tesseract provides the OCR engine behind extract.Recognizer.
// It needs cgo and the tesseract/leptonica libraries at build time; build
// with -tags noocr to leave them out.
package tesseract

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"doculingua-backend/internal/extract"
)

// Available reports whether this binary was built with the OCR engine.
const Available = true

// NewFactory returns a factory that opens one Tesseract client per call,
// configured with the given traineddata languages (e.g. "eng", "spa").
func NewFactory(languages []string) extract.RecognizerFactory {
	langs := append([]string(nil), languages...)
	return func() (extract.Recognizer, error) {
		client := gosseract.NewClient()
		if len(langs) > 0 {
			if err := client.SetLanguage(langs...); err != nil {
				client.Close()
				return nil, fmt.Errorf("tesseract languages %v: %w", langs, err)
			}
		}
		return client, nil
	}
}
