package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestValidateExt(t *testing.T) {
	for _, name := range []string{"visits.xlsx", "VISITS.XLSX", "export.xls"} {
		if !validateExt(name) {
			t.Fatalf("expected %q to be accepted", name)
		}
	}
	for _, name := range []string{"visits.csv", "visits.xlsx.txt", "visits"} {
		if validateExt(name) {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestParseDateQuery(t *testing.T) {
	if d, ok := parseDateQuery(""); !ok || d != nil {
		t.Fatalf("empty filter should be accepted as no filter")
	}
	d, ok := parseDateQuery("2025-10-07")
	if !ok || d == nil {
		t.Fatalf("expected plain date to parse")
	}
	want := time.Date(2025, time.October, 7, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Fatalf("expected %v, got %v", want, *d)
	}
	if _, ok := parseDateQuery("2025-10-07T00:00:00Z"); !ok {
		t.Fatalf("expected RFC3339 to parse")
	}
	if _, ok := parseDateQuery("07/10/2025"); ok {
		t.Fatalf("expected unsupported format to be rejected")
	}
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/ingestion", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func uploadRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/ingestion", h.IngestWorkbook)
	return r
}

func TestIngestWorkbookRejectsExtension(t *testing.T) {
	h := &Handler{Logger: zerolog.Nop()}
	w := httptest.NewRecorder()
	uploadRouter(h).ServeHTTP(w, uploadRequest(t, "visits.csv", []byte("a,b,c")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Only Excel files") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestIngestWorkbookRejectsOversizedFile(t *testing.T) {
	h := &Handler{Logger: zerolog.Nop(), MaxUploadBytes: 16}
	w := httptest.NewRecorder()
	uploadRouter(h).ServeHTTP(w, uploadRequest(t, "visits.xlsx", bytes.Repeat([]byte("x"), 64)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "File too large") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestIngestWorkbookRequiresFileField(t *testing.T) {
	h := &Handler{Logger: zerolog.Nop()}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ingestion", nil)
	uploadRouter(h).ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Missing file field") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
