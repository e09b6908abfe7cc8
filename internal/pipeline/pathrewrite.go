package pipeline

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses an HTML fragment in <body> context and returns the
// detached top-level nodes.
func ParseFragment(content string) ([]*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing fragment: %v", ErrHTMLConversion, err)
	}
	return nodes, nil
}

// RewriteRelativePaths points relative img[src] and a[href] values under
// root at prefix, so assets next to the source file resolve through the
// preview server. An empty prefix leaves the tree unchanged.
//
// Not rewritten: URLs with a scheme, protocol-relative URLs, anchors,
// absolute paths and paths that climb above the source directory.
func RewriteRelativePaths(root *html.Node, prefix string) {
	if prefix == "" || root == nil {
		return
	}
	prefix = strings.TrimSuffix(prefix, "/") + "/"
	rewriteNode(root, prefix)
}

func rewriteNode(n *html.Node, prefix string) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			rewriteAttr(n, "src", prefix)
		case atom.A:
			rewriteAttr(n, "href", prefix)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, prefix)
	}
}

func rewriteAttr(n *html.Node, attrName, prefix string) {
	for i, attr := range n.Attr {
		if attr.Key != attrName || !isRelativePath(attr.Val) {
			continue
		}

		u, err := url.Parse(attr.Val)
		if err != nil {
			continue
		}
		cleaned := path.Clean(u.Path)
		if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
			continue
		}
		u.Path = prefix + cleaned
		n.Attr[i].Val = u.String()
	}
}

// isRelativePath returns true if the path should be rewritten.
func isRelativePath(p string) bool {
	if p == "" {
		return false
	}

	if strings.HasPrefix(p, "#") ||
		strings.HasPrefix(p, "/") ||
		strings.HasPrefix(p, "\\") {
		return false
	}

	// Any scheme (http:, mailto:, data:, file:, C:) means not relative.
	if i := strings.IndexByte(p, ':'); i != -1 && !strings.ContainsAny(p[:i], "/?#") {
		return false
	}

	return true
}
