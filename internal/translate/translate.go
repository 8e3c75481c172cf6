// Package translate defines the translation contract shared by every provider.
//
// Providers return errors instead of placeholder text. Every error they return
// matches ErrTranslationFailed and is one of *TransportError, *RemoteError or
// *ValidationError, so callers can tell a network problem from a rejection by
// the remote API or bad local input.
package translate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// AutoDetect asks the provider to detect the source language.
const AutoDetect = "auto"

// Translator translates text from source (a code or AutoDetect) into target.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

var ErrTranslationFailed = errors.New("translation failed")

// TransportError means the request never produced an API response.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTranslationFailed }

// RemoteError is a non-success answer from the API.
type RemoteError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: remote status %d: %s", e.Provider, e.StatusCode, e.Message)
}

func (e *RemoteError) Is(target error) bool { return target == ErrTranslationFailed }

// ValidationError rejects input before any call is made.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrTranslationFailed }

var languagePattern = regexp.MustCompile(`^[a-z]{2}(-[a-z]{2,4})?$`)

// NormalizeLanguage lowercases the primary subtag and uppercases a two-letter
// region, e.g. "ZH-cn" becomes "zh-CN". It does not validate.
func NormalizeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	primary, region, ok := strings.Cut(code, "-")
	if !ok {
		return primary
	}
	if len(region) == 2 {
		region = strings.ToUpper(region)
	}
	return primary + "-" + region
}

// ValidateTarget checks that code is a two-letter ISO 639-1 code with an optional region.
func ValidateTarget(code string) error {
	if strings.TrimSpace(code) == "" {
		return &ValidationError{Field: "targetLanguage", Value: code, Reason: "required"}
	}
	if !languagePattern.MatchString(strings.ToLower(strings.TrimSpace(code))) {
		return &ValidationError{Field: "targetLanguage", Value: code, Reason: "must be a two-letter language code"}
	}
	return nil
}

// ValidateSource accepts AutoDetect or anything ValidateTarget accepts.
func ValidateSource(code string) error {
	if strings.EqualFold(strings.TrimSpace(code), AutoDetect) {
		return nil
	}
	if err := ValidateTarget(code); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Field = "source"
		}
		return err
	}
	return nil
}

// ValidatePair validates both codes, the usual preamble of a provider call.
func ValidatePair(source, target string) error {
	if err := ValidateSource(source); err != nil {
		return err
	}
	return ValidateTarget(target)
}

// Unavailable is used when no provider is configured. Every call fails with a TransportError.
type Unavailable struct{}

func (Unavailable) Translate(ctx context.Context, text, source, target string) (string, error) {
	return "", &TransportError{Provider: "none", Err: errors.New("no translation provider configured")}
}
