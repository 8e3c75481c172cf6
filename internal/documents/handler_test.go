package documents

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"doculingua-backend/internal/shared/auth"
	"doculingua-backend/internal/shared/server/middleware"
)

type handlerEnv struct {
	*testEnv
	router *gin.Engine
	tokens *auth.Manager
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens, err := auth.NewManager("test-secret", "dev", time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	env := newTestEnv()
	r := gin.New()
	rg := r.Group("/api/v1")
	rg.Use(middleware.Auth(tokens, auth.NopRevoker{}))
	h := NewHandler(env.svc)
	h.MaxUploadSize = 1 << 10
	h.RegisterRoutes(rg)
	return &handlerEnv{testEnv: env, router: r, tokens: tokens}
}

func (e *handlerEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := e.tokens.Sign(userID, userID+"@example.com", userID)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func (e *handlerEnv) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func uploadRequest(t *testing.T, name, target, fileName, contentType string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("documentName", name)
	_ = writer.WriteField("targetLanguage", target)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func jsonRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestUploadAndFetch(t *testing.T) {
	env := newHandlerEnv(t)
	alice := env.token(t, "alice")

	resp := env.do(uploadRequest(t, "invoice.pdf", "es", "invoice.pdf", "application/pdf", []byte("Total\n42")), alice)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created DocumentResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" || created.FileType != FileTypePDF {
		t.Fatalf("unexpected document %+v", created)
	}
	if created.OriginalText != "Total 42" || created.TranslatedText != "[es] Total 42" {
		t.Fatalf("unexpected texts %q / %q", created.OriginalText, created.TranslatedText)
	}

	get := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.ID, nil), alice)
	if get.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", get.Code)
	}

	other := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.ID, nil), env.token(t, "bob"))
	if other.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for another owner, got %d", other.Code)
	}
	if bytes.Contains(other.Body.Bytes(), []byte("Total")) {
		t.Fatalf("forbidden response leaked document data")
	}

	dup := env.do(uploadRequest(t, "Invoice.PDF", "es", "invoice.pdf", "application/pdf", []byte("x")), alice)
	if dup.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", dup.Code)
	}
}

func TestUploadErrors(t *testing.T) {
	env := newHandlerEnv(t)
	alice := env.token(t, "alice")

	tests := []struct {
		name string
		req  *http.Request
		tok  string
		want int
	}{
		{name: "no token", req: uploadRequest(t, "a", "es", "a.pdf", "application/pdf", []byte("x")), want: http.StatusUnauthorized},
		{name: "missing name", req: uploadRequest(t, "", "es", "a.pdf", "application/pdf", []byte("x")), tok: alice, want: http.StatusBadRequest},
		{name: "missing file", req: jsonRequest(http.MethodPost, "/api/v1/documents", nil), tok: alice, want: http.StatusBadRequest},
		{name: "too large", req: uploadRequest(t, "big", "es", "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 4<<10)), tok: alice, want: http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(tt.req, tt.tok)
			if resp.Code != tt.want {
				t.Fatalf("expected status %d, got %d: %s", tt.want, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestUploadBlobFailureIs500(t *testing.T) {
	env := newHandlerEnv(t)
	env.blobs.putErr = errBoom

	resp := env.do(uploadRequest(t, "a", "es", "a.pdf", "application/pdf", []byte("x")), env.token(t, "alice"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if body.Code != "upload_failed" {
		t.Fatalf("expected upload_failed code, got %q", body.Code)
	}
}

func TestTranslateTextListUpdateDelete(t *testing.T) {
	env := newHandlerEnv(t)
	alice := env.token(t, "alice")

	var ids []string
	for _, name := range []string{"note1", "note2", "note3"} {
		resp := env.do(jsonRequest(http.MethodPost, "/api/v1/documents/translate-text", gin.H{
			"documentName":   name,
			"targetLanguage": "fr",
			"text":           "Hello\r\nWorld",
		}), alice)
		if resp.Code != http.StatusCreated {
			t.Fatalf("translate-text: expected 201, got %d: %s", resp.Code, resp.Body.String())
		}
		var doc DocumentResponse
		_ = json.Unmarshal(resp.Body.Bytes(), &doc)
		if doc.OriginalText != "Hello World" || doc.FileType != FileTypeOther {
			t.Fatalf("unexpected document %+v", doc)
		}
		ids = append(ids, doc.ID)
	}

	list := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/documents?page=2&limit=2", nil), alice)
	if list.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", list.Code)
	}
	var page listResponse
	if err := json.Unmarshal(list.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if page.Pagination.Total != 3 || page.Pagination.TotalPages != 2 || len(page.Documents) != 1 {
		t.Fatalf("unexpected page %+v", page.Pagination)
	}
	if page.Documents[0].ID != ids[0] {
		t.Fatalf("expected oldest document on the last page")
	}

	upd := env.do(jsonRequest(http.MethodPut, "/api/v1/documents/"+ids[0], gin.H{"translatedText": "Bonjour le monde"}), alice)
	if upd.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", upd.Code)
	}
	conflict := env.do(jsonRequest(http.MethodPut, "/api/v1/documents/"+ids[0], gin.H{"documentName": "NOTE2"}), alice)
	if conflict.Code != http.StatusConflict {
		t.Fatalf("rename: expected 409, got %d", conflict.Code)
	}

	del := env.do(httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+ids[0], nil), alice)
	if del.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", del.Code)
	}
	gone := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+ids[0], nil), alice)
	if gone.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", gone.Code)
	}

	all := env.do(httptest.NewRequest(http.MethodDelete, "/api/v1/documents", nil), alice)
	if all.Code != http.StatusOK {
		t.Fatalf("delete all: expected 200, got %d", all.Code)
	}
	again := env.do(httptest.NewRequest(http.MethodDelete, "/api/v1/documents", nil), alice)
	if again.Code != http.StatusInternalServerError {
		t.Fatalf("delete all with nothing left: expected 500, got %d", again.Code)
	}
}
