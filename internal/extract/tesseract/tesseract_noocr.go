//go:build noocr

// Package tesseract provides the OCR engine behind extract.Recognizer.
// This build carries no engine.
package tesseract

import "doculingua-backend/internal/extract"

const Available = false

// NewFactory returns nil, which extract.New treats as OCR disabled.
func NewFactory(languages []string) extract.RecognizerFactory {
	return nil
}
