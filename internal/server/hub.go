package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	md2docx "github.com/alnah/go-md2docx"
	"github.com/alnah/go-md2docx/internal/logging"
	"github.com/alnah/go-md2docx/internal/remote"
)

// Hub defaults.
const (
	DefaultMaxDownloads = 8
	sendBuffer          = 32
	writeWait           = 10 * time.Second
	pongWait            = 60 * time.Second
	pingPeriod          = pongWait * 9 / 10
	maxMessageBytes     = 8 << 20
)

// DownloadPrefix is the URL path under which saved documents are served.
const DownloadPrefix = "/download/"

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub logger.
func WithHubLogger(l logging.Logger) HubOption {
	return func(h *Hub) { h.logger = logging.OrNoOp(l) }
}

// WithMaxDownloads bounds how many converted documents stay downloadable.
func WithMaxDownloads(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.maxDownloads = n
		}
	}
}

// Hub broadcasts editor state to WebSocket clients and keeps converted
// documents in memory until downloaded.
//
// It implements md2docx.LabelSink, md2docx.BusySink and md2docx.Saver.
type Hub struct {
	logger       logging.Logger
	maxDownloads int

	mu        sync.Mutex
	clients   map[*client]struct{}
	downloads map[string]*md2docx.Document
	order     []string
}

// NewHub creates a Hub with no clients.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		logger:       logging.NoOp(),
		maxDownloads: DefaultMaxDownloads,
		clients:      make(map[*client]struct{}),
		downloads:    make(map[string]*md2docx.Document),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetLabel implements md2docx.LabelSink.
func (h *Hub) SetLabel(label string) {
	h.Broadcast(labelMsg{Type: TypeLabel, Label: label})
}

// SetBusy implements md2docx.BusySink.
func (h *Hub) SetBusy(busy bool) {
	h.Broadcast(busyMsg{Type: TypeBusy, Busy: busy})
}

// Save implements md2docx.Saver. The document is kept in memory and every
// client is told to fetch it; the returned location is its URL path.
func (h *Hub) Save(ctx context.Context, doc *md2docx.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	saved := *doc
	saved.Filename = remote.DefaultFilename
	doc = &saved

	id := uuid.NewString()
	h.mu.Lock()
	h.downloads[id] = doc
	h.order = append(h.order, id)
	for len(h.order) > h.maxDownloads {
		delete(h.downloads, h.order[0])
		h.order = h.order[1:]
	}
	h.mu.Unlock()

	url := DownloadPrefix + id
	h.logger.Info("document ready", "url", url, "bytes", len(doc.Data))
	h.Broadcast(downloadMsg{Type: TypeDownload, URL: url, Filename: doc.Filename})
	return url, nil
}

// Download returns a saved document by id.
func (h *Hub) Download(id string) (*md2docx.Document, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	doc, ok := h.downloads[id]
	return doc, ok
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends v as JSON to every client.
func (h *Hub) Broadcast(v any) {
	h.broadcast(v, nil)
}

// broadcast sends v to every client except skip. A client whose buffer is
// full is disconnected rather than blocking the editor.
func (h *Hub) broadcast(v any, skip *client) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("encoding message failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c == skip {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping slow client", "remote", c.remote)
			h.removeLocked(c)
		}
	}
}

// register adds c after queueing the messages returned by initial. Both
// happen under the hub lock, so no broadcast falls between the initial
// state and the first update.
func (h *Hub) register(c *client, initial func() []any) {
	h.mu.Lock()
	for _, v := range initial() {
		data, err := json.Marshal(v)
		if err != nil {
			h.logger.Error("encoding message failed", "error", err)
			continue
		}
		c.send <- data
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", "remote", c.remote, "clients", n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	h.removeLocked(c)
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client disconnected", "remote", c.remote, "clients", n)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// closeAll disconnects every client.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// client is one WebSocket connection. Only writePump writes to conn.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	remote string
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, sendBuffer), remote: conn.RemoteAddr().String()}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var (
	_ md2docx.LabelSink = (*Hub)(nil)
	_ md2docx.BusySink  = (*Hub)(nil)
	_ md2docx.Saver     = (*Hub)(nil)
)
