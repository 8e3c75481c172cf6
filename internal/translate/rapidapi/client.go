// Package rapidapi calls Deep Translate hosted on RapidAPI.
package rapidapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"doculingua-backend/internal/translate"
)

const (
	provider    = "rapidapi"
	defaultHost = "deep-translate1.p.rapidapi.com"
	path        = "/language/translate/v2"
)

// Options configures the client. BaseURL overrides https://<Host> in tests.
type Options struct {
	APIKey  string
	Host    string
	BaseURL string
	Timeout time.Duration
}

// Client implements translate.Translator over the Deep Translate API.
type Client struct {
	apiKey     string
	host       string
	endpoint   string
	httpClient *http.Client
}

// New constructs a client. The API key is required.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("TRANSLATE_RAPIDAPI_KEY is required for rapidapi")
	}
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = defaultHost
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://" + host
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiKey:     opts.APIKey,
		host:       host,
		endpoint:   base + path,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type request struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type response struct {
	Data struct {
		Translations json.RawMessage `json:"translations"`
	} `json:"data"`
}

type translation struct {
	TranslatedText json.RawMessage `json:"translatedText"`
}

func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	if err := translate.ValidatePair(source, target); err != nil {
		return "", err
	}
	in := request{
		Q:      text,
		Source: strings.ToLower(strings.TrimSpace(source)),
		Target: translate.NormalizeLanguage(target),
	}
	headers := map[string]string{
		"X-RapidAPI-Key":  c.apiKey,
		"X-RapidAPI-Host": c.host,
	}

	var out response
	if err := translate.PostJSON(ctx, c.httpClient, provider, c.endpoint, headers, in, &out); err != nil {
		return "", err
	}
	translated, err := decodeTranslation(out.Data.Translations)
	if err != nil {
		return "", &translate.RemoteError{Provider: provider, StatusCode: http.StatusOK, Message: err.Error()}
	}
	return translated, nil
}

// decodeTranslation accepts both the object form and the array form the API
// uses, and a translatedText that is either a string or a list of strings.
func decodeTranslation(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("response missing data.translations")
	}
	var single translation
	if err := json.Unmarshal(raw, &single); err != nil {
		var many []translation
		if err := json.Unmarshal(raw, &many); err != nil || len(many) == 0 {
			return "", errors.New("unrecognized data.translations shape")
		}
		single = many[0]
	}
	if len(single.TranslatedText) == 0 {
		return "", errors.New("response missing translatedText")
	}
	var text string
	if err := json.Unmarshal(single.TranslatedText, &text); err == nil {
		return text, nil
	}
	var parts []string
	if err := json.Unmarshal(single.TranslatedText, &parts); err != nil {
		return "", errors.New("unrecognized translatedText shape")
	}
	return strings.Join(parts, " "), nil
}
