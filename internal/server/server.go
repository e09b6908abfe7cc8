package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	md2docx "github.com/alnah/go-md2docx"
	"github.com/alnah/go-md2docx/internal/assets"
	"github.com/alnah/go-md2docx/internal/logging"
	"github.com/alnah/go-md2docx/internal/status"
	"github.com/alnah/go-md2docx/internal/surface"
)

// Server defaults.
const (
	DefaultMaxUploadBytes = 10 << 20
	// FilesPrefix serves files next to the loaded markdown, so relative
	// image links in the preview resolve.
	FilesPrefix     = "/files/"
	shutdownTimeout = 5 * time.Second
	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrServe indicates the HTTP server stopped with an error.
var ErrServe = errors.New("server failed")

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = logging.OrNoOp(l) }
}

// WithFilesDir serves dir under FilesPrefix.
func WithFilesDir(dir string) Option {
	return func(s *Server) { s.filesDir = dir }
}

// WithMaxUploadBytes bounds uploaded markdown files.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithTitle sets the page title.
func WithTitle(title string) Option {
	return func(s *Server) { s.title = title }
}

// Server is the live preview HTTP server.
type Server struct {
	editor    *md2docx.Editor
	hub       *Hub
	page      *assets.Page
	logger    logging.Logger
	filesDir  string
	maxUpload int64
	title     string
	upgrader  websocket.Upgrader

	baseCtx    context.Context
	cancelBase context.CancelFunc

	mu        sync.Mutex
	closed    bool
	convertWG sync.WaitGroup
	unsubs    []func()
}

// New creates a Server for editor. hub must be the Hub the editor was
// created with as LabelSink, BusySink and Saver; New subscribes it to the
// editor's surface and banner board.
func New(editor *md2docx.Editor, hub *Hub, page *assets.Page, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		editor:     editor,
		hub:        hub,
		page:       page,
		logger:     logging.NoOp(),
		maxUpload:  DefaultMaxUploadBytes,
		upgrader:   websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		baseCtx:    ctx,
		cancelBase: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.unsubs = append(s.unsubs,
		editor.Surface().Subscribe(func(snap surface.Snapshot) {
			hub.Broadcast(newSurfaceMsg(snap))
		}),
		editor.Board().Subscribe(func(b status.Banner) {
			hub.Broadcast(bannerMsg{Type: TypeBanner, Banner: b})
		}),
	)
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET "+DownloadPrefix+"{id}", s.handleDownload)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.filesDir != "" {
		mux.Handle("GET "+FilesPrefix, http.StripPrefix(FilesPrefix, http.FileServer(http.Dir(s.filesDir))))
	}
	return mux
}

// ExternalEdit applies text changed outside the browser, such as a watched
// file, and pushes it to every client.
func (s *Server) ExternalEdit(text string) {
	s.editor.OnTextEdited(text)
	s.hub.Broadcast(textMsg{Type: TypeText, Text: text})
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.baseCtx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("preview server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrServe, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("%w: shutdown: %v", ErrServe, err)
	}
	s.logger.Info("preview server stopped")
	return nil
}

// Close detaches from the editor, cancels running conversions and
// disconnects clients. Safe to call more than once.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	s.cancelBase()
	s.convertWG.Wait()
	s.hub.closeAll()
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	title := s.title
	if meta := s.editor.Renderer().Meta(); meta.Title != "" {
		title = meta.Title
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.page.Render(w, assets.PageData{
		Title:       title,
		Preview:     template.HTML(s.editor.Surface().HTML()), // #nosec G203 -- produced by the preview pipeline
		Markdown:    s.editor.Text(),
		Label:       s.editor.Label(),
		ClearPrompt: s.editor.Messages().ClearPrompt,
		Live:        true,
	})
	if err != nil {
		s.logger.Error("rendering page failed", "error", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newClient(conn)
	go c.writePump()
	s.hub.register(c, s.initialState)
	defer s.hub.unregister(c)

	conn.SetReadLimit(maxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed", "error", err)
			}
			return
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("invalid client message", "error", err)
			continue
		}
		s.dispatch(c, msg)
	}
}

func (s *Server) initialState() []any {
	return []any{
		newSurfaceMsg(s.editor.Surface().Snapshot()),
		textMsg{Type: TypeText, Text: s.editor.Text()},
		labelMsg{Type: TypeLabel, Label: s.editor.Label()},
		bannerMsg{Type: TypeBanner, Banner: s.editor.Board().Current()},
		busyMsg{Type: TypeBusy, Busy: s.editor.Busy()},
	}
}

func (s *Server) dispatch(from *client, msg inbound) {
	switch msg.Type {
	case TypeEdit:
		s.editor.OnTextEdited(msg.Text)
		s.hub.broadcast(textMsg{Type: TypeText, Text: msg.Text}, from)
	case TypeClear:
		confirmed := msg.Confirmed
		if s.editor.Clear(md2docx.ConfirmFunc(func(string) bool { return confirmed })) {
			s.hub.Broadcast(textMsg{Type: TypeText, Text: ""})
		}
	case TypeConvert:
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.convertWG.Add(1)
		s.mu.Unlock()
		go func() {
			defer s.convertWG.Done()
			if _, err := s.editor.Convert(s.baseCtx); err != nil {
				s.logger.Debug("convert request ended", "error", err)
			}
		}()
	default:
		s.logger.Warn("unknown client message", "type", msg.Type)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		http.Error(w, "reading upload failed", http.StatusBadRequest)
		return
	}
	if int64(len(data)) > s.maxUpload {
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}

	text := string(data)
	s.editor.OnFileLoaded(text, s.editor.Messages().FileLabelFor(header.Filename, len(data)))
	s.hub.Broadcast(textMsg{Type: TypeText, Text: text})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.hub.Download(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = docxContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mimeAttachment(doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	_, _ = w.Write(doc.Data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.hub.Clients(),
		"state":   s.editor.State().String(),
	})
}

func mimeAttachment(filename string) string {
	if filename == "" {
		filename = "document.docx"
	}
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}
