// Package google calls the Cloud Translation v2 REST API.
package google

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/google"

	"doculingua-backend/internal/translate"
)

const (
	provider        = "google"
	defaultEndpoint = "https://translation.googleapis.com/language/translate/v2"
	scope           = "https://www.googleapis.com/auth/cloud-translation"
)

// Options configures the client. Without an APIKey, Application Default
// Credentials are used. Endpoint overrides the API URL in tests.
type Options struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// Client implements translate.Translator over Cloud Translation v2.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New builds a client, resolving default credentials when no key is given.
func New(ctx context.Context, opts Options) (*Client, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	var httpClient *http.Client
	if key := strings.TrimSpace(opts.APIKey); key != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("google translate endpoint: %w", err)
		}
		q := u.Query()
		q.Set("key", key)
		u.RawQuery = q.Encode()
		endpoint = u.String()
		httpClient = &http.Client{Timeout: timeout}
	} else {
		adc, err := google.DefaultClient(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("google translate credentials: %w", err)
		}
		adc.Timeout = timeout
		httpClient = adc
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}, nil
}

type request struct {
	Q      []string `json:"q"`
	Target string   `json:"target"`
	Source string   `json:"source,omitempty"`
	Format string   `json:"format"`
}

type response struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	if err := translate.ValidatePair(source, target); err != nil {
		return "", err
	}
	in := request{
		Q:      []string{text},
		Target: translate.NormalizeLanguage(target),
		Format: "text",
	}
	if !strings.EqualFold(source, translate.AutoDetect) {
		in.Source = translate.NormalizeLanguage(source)
	}

	var out response
	if err := translate.PostJSON(ctx, c.httpClient, provider, c.endpoint, nil, in, &out); err != nil {
		return "", err
	}
	if len(out.Data.Translations) == 0 {
		return "", &translate.RemoteError{Provider: provider, StatusCode: http.StatusOK, Message: "response missing data.translations"}
	}
	// format=text should return plain text, but entities still show up for some inputs.
	return html.UnescapeString(out.Data.Translations[0].TranslatedText), nil
}
