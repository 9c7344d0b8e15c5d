package rewriter

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/faleproxy/internal/common/errorwrapper"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// DefaultSkipTags hold text that browsers never render.
var DefaultSkipTags = []string{"script", "style"}

// rawTextTags keep their content as one unparsed text node even with scripting
// disabled. That text is markup source, attributes included, so it is never
// returned by TextNodes.
var rawTextTags = map[string]struct{}{
	"iframe":    {},
	"noembed":   {},
	"noframes":  {},
	"plaintext": {},
	"xmp":       {},
}

// Document is a parsed HTML page. Text content and attribute values are
// reached through separate accessors so callers never confuse the two.
type Document struct {
	doc *goquery.Document
}

// ParseDocument decodes content to UTF-8, honouring the charset in contentType
// or in a <meta> declaration, and parses it.
func ParseDocument(content []byte, contentType string) (*Document, error) {
	reader, err := utf8Reader(content, contentType)
	if err != nil {
		return nil, err
	}
	return NewDocumentFromReader(reader)
}

// NewDocumentFromReader parses already UTF-8 encoded HTML. Scripting is
// disabled so <noscript> content is parsed as markup rather than raw text.
func NewDocumentFromReader(r io.Reader) (*Document, error) {
	root, err := html.ParseWithOptions(r, html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to parse HTML")
	}
	return &Document{doc: goquery.NewDocumentFromNode(root)}, nil
}

func utf8Reader(content []byte, contentType string) (io.Reader, error) {
	_, name, certain := charset.DetermineEncoding(content, contentType)
	// DetermineEncoding only looks at the first 1KB and falls back to
	// windows-1252, so trust a fully valid UTF-8 body unless a header said otherwise.
	if name == "utf-8" || (!certain && utf8.Valid(content)) {
		return bytes.NewReader(content), nil
	}

	reader, err := charset.NewReader(bytes.NewReader(content), contentType)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to decode "+name+" content")
	}
	return reader, nil
}

// TextNodes returns every text node in document order, except those nested
// inside any of skipTags or inside a raw text element.
func (d *Document) TextNodes(skipTags ...string) []*html.Node {
	skip := make(map[string]struct{}, len(skipTags))
	for _, tag := range skipTags {
		skip[strings.ToLower(tag)] = struct{}{}
	}

	var nodes []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			nodes = append(nodes, n)
			return
		case html.ElementNode:
			if _, ok := skip[n.Data]; ok {
				return
			}
			if _, ok := rawTextTags[n.Data]; ok {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, root := range d.doc.Nodes {
		walk(root)
	}
	return nodes
}

// Attr returns the value of attribute name on every element matching selector.
// Elements lacking the attribute are skipped.
func (d *Document) Attr(selector, name string) []string {
	var values []string
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if value, ok := s.Attr(name); ok {
			values = append(values, value)
		}
	})
	return values
}

// Text returns the concatenated text of the first element matching selector.
func (d *Document) Text(selector string) string {
	return d.doc.Find(selector).First().Text()
}

// Title returns the trimmed document title, preferring <head><title> over any
// other <title> such as one inside inline SVG.
func (d *Document) Title() string {
	title := d.doc.Find("head > title").First()
	if title.Length() == 0 {
		title = d.doc.Find("title").First()
	}
	return strings.TrimSpace(title.Text())
}

// Find exposes goquery selection for read-only inspection.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// HTML serializes the whole document, doctype included.
func (d *Document) HTML() (string, error) {
	out, err := d.doc.Html()
	if err != nil {
		return "", errorwrapper.WrapError(err, "failed to render HTML")
	}
	return out, nil
}
