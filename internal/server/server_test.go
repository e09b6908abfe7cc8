package server_test

// Notes:
// - The editor runs on clock.Fake; Advance renders synchronously, while
//   WebSocket messages are handled on server goroutines. Tests poll the
//   editor state before advancing the clock.
// - readUntil skips unrelated broadcasts; message order across types is
//   not asserted except where the hub guarantees it.

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	md2docx "github.com/alnah/go-md2docx"
	"github.com/alnah/go-md2docx/internal/assets"
	"github.com/alnah/go-md2docx/internal/clock"
	"github.com/alnah/go-md2docx/internal/server"
)

const waitTimeout = 5 * time.Second

type fixture struct {
	editor *md2docx.Editor
	hub    *server.Hub
	clock  *clock.Fake
	http   *httptest.Server
	server *server.Server
}

func newFixture(t *testing.T, opts ...md2docx.Option) *fixture {
	t.Helper()

	fc := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	hub := server.NewHub(server.WithMaxDownloads(2))
	base := []md2docx.Option{
		md2docx.WithClock(fc),
		md2docx.WithLabelSink(hub),
		md2docx.WithBusySink(hub),
		md2docx.WithSaver(hub),
	}
	editor := md2docx.NewEditor(append(base, opts...)...)
	editor.Render(context.Background())

	page, err := assets.NewPage(assets.NewEmbeddedLoader())
	if err != nil {
		t.Fatalf("NewPage() error: %v", err)
	}
	srv := server.New(editor, hub, page, server.WithTitle("Test editor"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
		editor.Close()
	})
	return &fixture{editor: editor, hub: hub, clock: fc, http: ts, server: srv}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type message struct {
	Type     string `json:"type"`
	HTML     string `json:"html"`
	Kind     string `json:"kind"`
	Text     string `json:"text"`
	Label    string `json:"label"`
	Busy     bool   `json:"busy"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Banner   struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
		Visible bool   `json:"visible"`
	} `json:"banner"`
}

// readUntil reads messages until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(message) bool) message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(waitTimeout))
	for {
		var m message
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("ReadJSON() error: %v", err)
		}
		if match(m) {
			return m
		}
	}
}

func ofType(typ string) func(message) bool {
	return func(m message) bool { return m.Type == typ }
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
}

func eventually(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// ---------------------------------------------------------------------------
// TestServer_Page - Initial page
// ---------------------------------------------------------------------------

func TestServer_Page(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.editor.OnFileLoaded("# Hello", "Selected: hello.md (7 B)")

	resp, err := http.Get(f.http.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{"<title>Test editor</title>", `id="hello"`, "# Hello</textarea>", "Selected: hello.md (7 B)"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("page missing %q", want)
		}
	}

	resp404, err := http.Get(f.http.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp404.Body.Close()
	if resp404.StatusCode != http.StatusNotFound {
		t.Errorf("GET /nope status = %d, want 404", resp404.StatusCode)
	}
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	resp, err := http.Get(f.http.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["status"] != "ok" || got["state"] != "empty" {
		t.Errorf("health = %v", got)
	}
}

// ---------------------------------------------------------------------------
// TestServer_WebSocket - Live editing
// ---------------------------------------------------------------------------

func TestServer_InitialState(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	conn := f.dial(t)

	first := readUntil(t, conn, func(message) bool { return true })
	if first.Type != server.TypeSurface || first.Kind != "placeholder" {
		t.Errorf("first message = %+v, want placeholder surface", first)
	}
	readUntil(t, conn, ofType(server.TypeBusy))
}

func TestServer_EditRendersAfterDebounce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	writer := f.dial(t)
	observer := f.dial(t)
	readUntil(t, writer, ofType(server.TypeBusy))
	readUntil(t, observer, ofType(server.TypeBusy))

	send(t, writer, map[string]string{"type": "edit", "text": "# Live $x^2$"})
	eventually(t, func() bool { return f.clock.Pending() > 0 }, "render scheduled")

	if got := readUntil(t, observer, ofType(server.TypeText)); got.Text != "# Live $x^2$" {
		t.Errorf("observer text = %q", got.Text)
	}

	f.clock.Advance(md2docx.DefaultDebounce)

	for _, conn := range []*websocket.Conn{writer, observer} {
		got := readUntil(t, conn, ofType(server.TypeSurface))
		if got.Kind != "content" || !strings.Contains(got.HTML, `class="math-tex"`) {
			t.Errorf("surface = %+v", got)
		}
	}
}

func TestServer_Clear(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.editor.OnFileLoaded("# Keep", "keep.md")
	conn := f.dial(t)
	readUntil(t, conn, ofType(server.TypeBusy))

	send(t, conn, map[string]any{"type": "clear", "confirmed": false})
	send(t, conn, map[string]any{"type": "edit", "text": "# Keep!"})
	eventually(t, func() bool { return f.editor.Text() == "# Keep!" }, "edit after declined clear")

	send(t, conn, map[string]any{"type": "clear", "confirmed": true})
	if got := readUntil(t, conn, ofType(server.TypeLabel)); got.Label != "" {
		t.Errorf("label after clear = %q", got.Label)
	}
	eventually(t, func() bool { return f.editor.Text() == "" }, "buffer cleared")
	readUntil(t, conn, func(m message) bool { return m.Type == server.TypeText && m.Text == "" })
}

func TestServer_Upload(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	conn := f.dial(t)
	readUntil(t, conn, ofType(server.TypeBusy))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "notes.md")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("# Notes"))
	_ = mw.Close()

	resp, err := http.Post(f.http.URL+"/upload", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}

	if got := readUntil(t, conn, ofType(server.TypeLabel)); got.Label != "Selected: notes.md (7 B)" {
		t.Errorf("label = %q", got.Label)
	}
	if got := readUntil(t, conn, ofType(server.TypeSurface)); !strings.Contains(got.HTML, "Notes") {
		t.Errorf("surface = %q, want immediate render", got.HTML)
	}
	if got := readUntil(t, conn, ofType(server.TypeText)); got.Text != "# Notes" {
		t.Errorf("text = %q", got.Text)
	}
}

func TestServer_UploadMissingFile(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	resp, err := http.Post(f.http.URL+"/upload", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

// ---------------------------------------------------------------------------
// TestServer_Convert - Conversion and download
// ---------------------------------------------------------------------------

func TestServer_Convert(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("PK-docx"))
	}))
	t.Cleanup(backend.Close)

	conv, err := md2docx.NewRemoteConverter(backend.URL)
	if err != nil {
		t.Fatal(err)
	}
	f := newFixture(t, md2docx.WithConverter(conv))
	f.editor.OnFileLoaded("# Report", "report.md")

	conn := f.dial(t)
	readUntil(t, conn, ofType(server.TypeBusy))
	send(t, conn, map[string]string{"type": "convert"})

	if got := readUntil(t, conn, ofType(server.TypeBusy)); !got.Busy {
		t.Error("first busy message should be true")
	}
	dl := readUntil(t, conn, ofType(server.TypeDownload))
	if dl.Filename != "document.docx" || !strings.HasPrefix(dl.URL, server.DownloadPrefix) {
		t.Errorf("download = %+v", dl)
	}
	if got := readUntil(t, conn, ofType(server.TypeBanner)); got.Banner.Kind != "success" {
		t.Errorf("banner = %+v, want success", got.Banner)
	}
	if got := readUntil(t, conn, ofType(server.TypeBusy)); got.Busy {
		t.Error("busy should be cleared after conversion")
	}

	resp, err := http.Get(f.http.URL + dl.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if string(data) != "PK-docx" {
		t.Errorf("download body = %q", data)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename=document.docx` {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestServer_ConvertEmpty(t *testing.T) {
	t.Parallel()

	f := newFixture(t, md2docx.WithConverter(md2docx.ConverterFunc(func(context.Context, string) (*md2docx.Document, error) {
		t.Error("converter called for empty buffer")
		return nil, nil
	})))
	conn := f.dial(t)
	readUntil(t, conn, ofType(server.TypeBusy))

	send(t, conn, map[string]string{"type": "convert"})
	got := readUntil(t, conn, func(m message) bool { return m.Type == server.TypeBanner && m.Banner.Visible })
	if got.Banner.Kind != "error" || got.Banner.Message != md2docx.DefaultMessages().EmptyMarkdown {
		t.Errorf("banner = %+v", got.Banner)
	}
}

func TestServer_DownloadUnknown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	resp, err := http.Get(f.http.URL + server.DownloadPrefix + "missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

// ---------------------------------------------------------------------------
// TestHub - Download retention
// ---------------------------------------------------------------------------

func TestHub_DownloadRetention(t *testing.T) {
	t.Parallel()

	hub := server.NewHub(server.WithMaxDownloads(2))
	ctx := context.Background()

	var urls []string
	for i := 0; i < 3; i++ {
		url, err := hub.Save(ctx, &md2docx.Document{Data: []byte{byte(i)}, Filename: "report.docx"})
		if err != nil {
			t.Fatal(err)
		}
		urls = append(urls, url)
	}

	if _, ok := hub.Download(strings.TrimPrefix(urls[0], server.DownloadPrefix)); ok {
		t.Error("oldest download should be evicted")
	}
	doc, ok := hub.Download(strings.TrimPrefix(urls[2], server.DownloadPrefix))
	if !ok || doc.Filename != "document.docx" {
		t.Errorf("latest download = %+v, %v", doc, ok)
	}
}
