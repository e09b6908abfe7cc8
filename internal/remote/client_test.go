package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Notes:
// - Every test runs against an httptest.Server; nothing leaves the host.

// ---------------------------------------------------------------------------
// TestClient_Convert - Success path and request shape
// ---------------------------------------------------------------------------

func TestClient_Convert(t *testing.T) {
	t.Parallel()

	var gotBody map[string]string
	var gotHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/convert" {
			http.Error(w, "unexpected route", http.StatusNotFound)
			return
		}
		gotHeader = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", docxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename=document.docx`)
		_, _ = w.Write([]byte("PK\x03\x04docx"))
	}))
	defer srv.Close()

	c, err := New(srv.URL + "/convert")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	doc, err := c.Convert(context.Background(), "# Hi $x$")
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}

	if string(doc.Data) != "PK\x03\x04docx" {
		t.Errorf("Data = %q", doc.Data)
	}
	if doc.Filename != "document.docx" {
		t.Errorf("Filename = %q, want document.docx", doc.Filename)
	}
	if gotBody["markdown"] != "# Hi $x$" {
		t.Errorf("request markdown = %q", gotBody["markdown"])
	}
	if ct := gotHeader.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if _, err := uuid.Parse(gotHeader.Get(RequestIDHeader)); err != nil {
		t.Errorf("%s = %q is not a uuid", RequestIDHeader, gotHeader.Get(RequestIDHeader))
	}
	if doc.RequestID != gotHeader.Get(RequestIDHeader) {
		t.Errorf("RequestID = %q, header = %q", doc.RequestID, gotHeader.Get(RequestIDHeader))
	}
}

func TestClient_ConvertFilenameIsFixed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		disposition string
	}{
		{name: "no header", disposition: ""},
		{name: "backend suggests another name", disposition: `attachment; filename="report.docx"`},
		{name: "malformed header", disposition: "attachment; filename="},
		{name: "path in filename", disposition: `attachment; filename="../evil.docx"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tt.disposition != "" {
					w.Header().Set("Content-Disposition", tt.disposition)
				}
				_, _ = w.Write([]byte("doc"))
			}))
			defer srv.Close()

			c, _ := New(srv.URL)
			doc, err := c.Convert(context.Background(), "x")
			if err != nil {
				t.Fatalf("Convert() error: %v", err)
			}
			if doc.Filename != DefaultFilename {
				t.Errorf("Filename = %q, want %q", doc.Filename, DefaultFilename)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestClient_ConvertErrors - Service and transport failures
// ---------------------------------------------------------------------------

func TestClient_ConvertServiceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{name: "error field", status: 500, body: `{"error":"bad markdown"}`, wantMessage: "bad markdown"},
		{name: "missing content", status: 400, body: `{"error":"Missing markdown content"}`, wantMessage: "Missing markdown content"},
		{name: "json without error", status: 500, body: `{"detail":"x"}`, wantMessage: "Conversion failed"},
		{name: "non-string error", status: 500, body: `{"error":42}`, wantMessage: "Conversion failed"},
		{name: "html body", status: 502, body: "<html>Bad Gateway</html>", wantMessage: "Bad Gateway"},
		{name: "empty body", status: 503, body: "", wantMessage: "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c, _ := New(srv.URL)
			_, err := c.Convert(context.Background(), "x")

			var svcErr *ServiceError
			if !errors.As(err, &svcErr) {
				t.Fatalf("Convert() error = %v, want *ServiceError", err)
			}
			if svcErr.StatusCode != tt.status || svcErr.Message != tt.wantMessage {
				t.Errorf("ServiceError = %+v, want {%d %q}", svcErr, tt.status, tt.wantMessage)
			}
			if err.Error() != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMessage)
			}
		})
	}
}

func TestClient_ConvertTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := New(url)
	if _, err := c.Convert(context.Background(), "x"); !errors.Is(err, ErrTransport) {
		t.Errorf("Convert() error = %v, want ErrTransport", err)
	}
}

func TestClient_ConvertTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, _ := New(srv.URL, WithTimeout(20*time.Millisecond))
	_, err := c.Convert(context.Background(), "x")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("Convert() error = %v, want ErrTransport", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Convert() error = %v, want context.DeadlineExceeded in chain", err)
	}
}

func TestClient_ConvertTooLarge(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	c, _ := New(srv.URL, WithMaxResponseBytes(16))
	if _, err := c.Convert(context.Background(), "x"); !errors.Is(err, ErrResponseTooLarge) {
		t.Errorf("Convert() error = %v, want ErrResponseTooLarge", err)
	}
}

// ---------------------------------------------------------------------------
// TestClient_Health - Health endpoint
// ---------------------------------------------------------------------------

func TestClient_Health(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"status":"healthy","pandoc_available":true}`)
	}))
	defer srv.Close()

	c, _ := New(srv.URL + "/convert?x=1")
	if got, want := c.HealthURL(), srv.URL+"/health"; got != want {
		t.Errorf("HealthURL() = %q, want %q", got, want)
	}

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error: %v", err)
	}
	if h.Status != "healthy" || !h.PandocAvailable {
		t.Errorf("Health() = %+v", h)
	}
}

func TestClient_HealthInvalidJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	if _, err := c.Health(context.Background()); !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("Health() error = %v, want ErrInvalidResponse", err)
	}
}

func TestNew_InvalidEndpoint(t *testing.T) {
	t.Parallel()

	for _, endpoint := range []string{"", "localhost:5000", "ftp://host/convert", "http://", "://bad"} {
		if _, err := New(endpoint); !errors.Is(err, ErrInvalidEndpoint) {
			t.Errorf("New(%q) error = %v, want ErrInvalidEndpoint", endpoint, err)
		}
	}
}
