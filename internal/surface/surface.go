// Package surface holds the rendered preview as an HTML node tree.
//
// The tree is fully replaced on every render cycle. A single writer (the
// preview renderer) replaces, edits and then publishes it; any number of
// listeners observe published snapshots.
package surface

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Kind classifies what the surface currently shows.
type Kind int

const (
	KindPlaceholder Kind = iota
	KindContent
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindPlaceholder:
		return "placeholder"
	case KindContent:
		return "content"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Snapshot is an immutable view of a published surface.
type Snapshot struct {
	Version uint64
	Kind    Kind
	HTML    string
}

// Listener receives every published snapshot.
type Listener func(Snapshot)

// Surface is a container node whose children are replaced wholesale.
type Surface struct {
	mu        sync.Mutex
	root      *html.Node
	version   uint64
	kind      Kind
	listeners map[uint64]Listener
	nextID    uint64
}

// New creates an empty surface.
func New() *Surface {
	return &Surface{
		root:      &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div},
		listeners: make(map[uint64]Listener),
	}
}

// Replace discards every child and appends nodes in order.
// Nodes must not be attached to another tree.
func (s *Surface) Replace(kind Kind, nodes ...*html.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := s.root.FirstChild; c != nil; {
		next := c.NextSibling
		s.root.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		s.root.AppendChild(n)
	}
	s.kind = kind
	s.version++
}

// Edit runs fn on the container while holding the surface lock.
func (s *Surface) Edit(fn func(root *html.Node) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.root)
}

// Publish notifies listeners with the current snapshot and returns it.
// Listeners run on the caller's goroutine, outside the lock.
func (s *Surface) Publish() Snapshot {
	s.mu.Lock()
	snap := s.snapshotLocked()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return snap
}

// Snapshot returns the current state without notifying listeners.
func (s *Surface) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// HTML renders the children of the container.
func (s *Surface) HTML() string {
	return s.Snapshot().HTML
}

// Subscribe registers l and returns a function that removes it.
func (s *Surface) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Surface) snapshotLocked() Snapshot {
	return Snapshot{Version: s.version, Kind: s.kind, HTML: renderChildren(s.root)}
}

func renderChildren(root *html.Node) string {
	var b strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		// strings.Builder never returns a write error.
		_ = html.Render(&b, c)
	}
	return b.String()
}

// Paragraph builds a detached <p class="class">text</p> node.
func Paragraph(class, text string) *html.Node {
	p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
	if class != "" {
		p.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	p.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return p
}
