package bootstrap

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"doculingua-backend/internal/shared/auth"
	"doculingua-backend/internal/shared/config"
	"doculingua-backend/internal/translate"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:             "dev",
		RecordStore:     "memory",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		PublicBaseURL:   "http://localhost:8080/files",
		Translate:       config.Translate{Provider: "none"},
	}
}

func TestBuildInMemory(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app, err := Build(testConfig(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer app.Close()

	if app.Router == nil || app.UsersService == nil || app.DocumentsService == nil {
		t.Fatalf("expected router and services to be wired")
	}
	if app.DB != nil || app.Mongo != nil || app.Redis != nil {
		t.Fatalf("expected no external connections")
	}
	if _, ok := app.Revoker.(auth.NopRevoker); !ok {
		t.Fatalf("expected nop revoker, got %T", app.Revoker)
	}
	if _, ok := app.Translator.(translate.Unavailable); !ok {
		t.Fatalf("expected unavailable translator, got %T", app.Translator)
	}

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
}

func TestBuildRejectsUnknownTranslateProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Translate.Provider = "babelfish"
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "production"
	cfg.JWTSecret = "prod-secret"
	cfg.RecordStore = "postgres"
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error when DATABASE_URL is empty in production")
	}
}

func TestSignupUploadAndList(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app, err := Build(testConfig(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer app.Close()

	signup, _ := json.Marshal(map[string]string{
		"fullName": "Ada Lovelace",
		"email":    "ada@example.com",
		"password": "secret123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/signup", bytes.NewReader(signup))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var session struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil || session.Token == "" {
		t.Fatalf("signup: missing token: %v body=%s", err, rec.Body.String())
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("documentName", "Receipt")
	_ = mw.WriteField("targetLanguage", "es")
	part, err := mw.CreateFormFile("file", "receipt.png")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\nnot really an image"))
	_ = mw.Close()

	req = httptest.NewRequest(http.MethodPost, "/api/v1/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var doc struct {
		ID            string `json:"id"`
		ExtractionOK  bool   `json:"extractionOk"`
		TranslationOK bool   `json:"translationOk"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	if doc.ID == "" {
		t.Fatalf("expected document id")
	}
	if doc.ExtractionOK || doc.TranslationOK {
		t.Fatalf("expected degraded flags without OCR, got %+v", doc)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var list struct {
		Documents  []struct{ ID string } `json:"documents"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Pagination.Total != 1 || len(list.Documents) != 1 || list.Documents[0].ID != doc.ID {
		t.Fatalf("unexpected list: %+v", list)
	}
}
