package markup

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"
)

const (
	NSXML   = "http://www.w3.org/XML/1998/namespace"
	NSXHTML = "http://www.w3.org/1999/xhtml"
)

// Prefixes that feeds commonly use without declaring them.
var wellKnownPrefixes = map[string]string{
	"xml":     NSXML,
	"dc":      "http://purl.org/dc/elements/1.1/",
	"dcterms": "http://purl.org/dc/terms/",
	"content": "http://purl.org/rss/1.0/modules/content/",
	"atom":    "http://www.w3.org/2005/Atom",
	"itunes":  "http://www.itunes.com/dtds/podcast-1.0.dtd",
	"rdf":     "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"xhtml":   NSXHTML,
	"media":   "http://search.yahoo.com/mrss/",
}

// Elements that never contain themselves. An unclosed one is closed when a
// sibling of the same name starts.
var selfExclusive = map[string]bool{
	"item":  true,
	"entry": true,
}

var voidElements = func() map[string]bool {
	m := make(map[string]bool, len(xml.HTMLAutoClose))
	for _, name := range xml.HTMLAutoClose {
		m[name] = true
	}
	return m
}()

// Declared entities reach the decoder as markers naming the entity, so every
// reference is expanded here against one budget for the whole document.
const (
	entityOpen  = "\uFDD0"
	entityClose = "\uFDD1"
)

type frame struct {
	node *Node
	ns   map[string]string
}

type builder struct {
	limits    Limits
	root      *Node
	stack     []frame
	entities  map[string]string
	declared  map[string]string
	expanded  int
	textNode  *Node
	textBuf   strings.Builder
	textBytes int
	textLimit int
}

// Parse builds a tree from decoded text, recovering from the malformations
// common in published feeds. Errors wrapping ErrLimitExceeded report a
// document that exceeds limits; ErrNoRoot reports that no element could be
// read at all.
func Parse(text string, limits Limits) (*Document, error) {
	limits = limits.WithDefaults()
	if len(text) > limits.MaxDocumentBytes {
		return nil, fmt.Errorf("document is %d bytes, limit %d: %w", len(text), limits.MaxDocumentBytes, ErrLimitExceeded)
	}

	repaired := repair(text)

	b := &builder{
		limits:    limits,
		entities:  maps.Clone(xml.HTMLEntity),
		declared:  make(map[string]string),
		textLimit: len(repaired) + limits.MaxEntityBytes,
	}

	d := xml.NewDecoder(strings.NewReader(repaired))
	d.Strict = false
	d.Entity = b.entities
	d.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) {
		return r, nil
	}

	truncated := false
	var lastErr error

loop:
	for {
		tok, err := d.RawToken()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				lastErr = err
			}
			truncated = b.root != nil && len(b.stack) > 0
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if b.root != nil && len(b.stack) == 0 {
				break loop
			}
			if err := b.start(t); err != nil {
				return nil, err
			}
		case xml.EndElement:
			b.end(t)
			if b.root != nil && len(b.stack) == 0 {
				break loop
			}
		case xml.CharData:
			if err := b.text(string(t)); err != nil {
				return nil, err
			}
		case xml.Directive:
			if err := b.directive(string(t)); err != nil {
				return nil, err
			}
		}
	}

	b.flushText()

	if b.root == nil {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoRoot, lastErr)
		}
		return nil, ErrNoRoot
	}

	return &Document{Root: b.root, Truncated: truncated, Err: lastErr}, nil
}

func (b *builder) start(t xml.StartElement) error {
	b.flushText()
	if len(b.stack) >= b.limits.MaxDepth {
		return fmt.Errorf("elements nested deeper than %d: %w", b.limits.MaxDepth, ErrLimitExceeded)
	}

	if selfExclusive[strings.ToLower(t.Name.Local)] {
		for i := len(b.stack) - 1; i > 0; i-- {
			n := b.stack[i].node
			if n.Prefix == t.Name.Space && strings.EqualFold(n.Local, t.Name.Local) {
				b.popTo(i)
				break
			}
		}
	}

	var ns map[string]string
	for _, a := range t.Attr {
		switch {
		case a.Name.Space == "xmlns":
			if ns == nil {
				ns = make(map[string]string)
			}
			ns[a.Name.Local] = a.Value
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			if ns == nil {
				ns = make(map[string]string)
			}
			ns[""] = a.Value
		}
	}
	b.stack = append(b.stack, frame{ns: ns})

	n := &Node{
		Kind:   ElementNode,
		Prefix: t.Name.Space,
		Local:  t.Name.Local,
		Space:  b.resolve(t.Name.Space, true),
	}
	for _, a := range t.Attr {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		value, err := b.expand(a.Value)
		if err != nil {
			return err
		}
		attr := Attr{Prefix: a.Name.Space, Local: a.Name.Local, Value: value}
		if a.Name.Space != "" {
			attr.Space = b.resolve(a.Name.Space, false)
		}
		n.Attrs = append(n.Attrs, attr)
	}
	b.stack[len(b.stack)-1].node = n

	if b.root == nil {
		b.root = n
	} else {
		parent := b.stack[len(b.stack)-2].node
		parent.Children = append(parent.Children, n)
	}
	return nil
}

// end closes the nearest open element with a matching name. Elements opened
// after it are closed implicitly; an end tag matching nothing is dropped.
func (b *builder) end(t xml.EndElement) {
	for i := len(b.stack) - 1; i >= 0; i-- {
		n := b.stack[i].node
		if strings.EqualFold(n.Prefix, t.Name.Space) && strings.EqualFold(n.Local, t.Name.Local) {
			b.flushText()
			b.popTo(i)
			n.Closed = true
			return
		}
	}
}

// popTo closes every element from the top of the stack down to and including
// index i. Implicitly closed HTML void elements give their child elements
// back to their parent.
func (b *builder) popTo(i int) {
	for j := len(b.stack) - 1; j > i; j-- {
		n := b.stack[j].node
		if n.Space == "" && voidElements[strings.ToLower(n.Local)] {
			b.hoist(n, b.stack[j-1].node)
		}
	}
	b.stack = b.stack[:i]
}

func (b *builder) hoist(n, parent *Node) {
	var kept, released []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			released = append(released, c)
		} else {
			kept = append(kept, c)
		}
	}
	if len(released) == 0 {
		return
	}
	n.Children = kept

	for idx, c := range parent.Children {
		if c == n {
			rest := append(released, parent.Children[idx+1:]...)
			parent.Children = append(parent.Children[:idx+1], rest...)
			return
		}
	}
}

// text appends character data to the open text node. Consecutive runs, split
// by comments or processing instructions, share one node until the next tag.
func (b *builder) text(s string) error {
	if len(b.stack) == 0 {
		return nil
	}
	s, err := b.expand(s)
	if err != nil {
		return err
	}
	b.textBytes += len(s)
	if b.textBytes > b.textLimit {
		return fmt.Errorf("character data exceeds %d bytes: %w", b.textLimit, ErrLimitExceeded)
	}

	if b.textNode == nil {
		parent := b.stack[len(b.stack)-1].node
		b.textNode = &Node{Kind: TextNode}
		parent.Children = append(parent.Children, b.textNode)
	}
	b.textBuf.WriteString(s)
	return nil
}

func (b *builder) flushText() {
	if b.textNode == nil {
		return
	}
	b.textNode.Data = b.textBuf.String()
	b.textBuf.Reset()
	b.textNode = nil
}

func (b *builder) directive(s string) error {
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(s)), "DOCTYPE") {
		return nil
	}
	if err := declareEntities(s, b.declared, b.limits); err != nil {
		return err
	}
	for name := range b.declared {
		b.entities[name] = entityOpen + name + entityClose
	}
	return nil
}

// expand replaces entity markers with the declared values. Every reference
// is charged against MaxEntityBytes for the whole document. A marker forged
// by the document itself can only name a declared entity and is charged the
// same way.
func (b *builder) expand(s string) (string, error) {
	if len(b.declared) == 0 || !strings.Contains(s, entityOpen) {
		return s, nil
	}

	var out strings.Builder
	for {
		i := strings.Index(s, entityOpen)
		if i < 0 {
			break
		}
		rest := s[i+len(entityOpen):]
		j := strings.Index(rest, entityClose)
		if j < 0 {
			break
		}
		value, ok := b.declared[rest[:j]]
		if !ok {
			out.WriteString(s[:i+len(entityOpen)])
			s = rest
			continue
		}

		b.expanded += len(value)
		if b.expanded > b.limits.MaxEntityBytes {
			return "", fmt.Errorf("entity references expand beyond %d bytes: %w", b.limits.MaxEntityBytes, ErrLimitExceeded)
		}
		out.WriteString(s[:i])
		out.WriteString(value)
		s = rest[j+len(entityClose):]
	}
	out.WriteString(s)
	return out.String(), nil
}

// resolve maps a prefix to a namespace URI using the open scopes, then the
// well-known prefixes. Unprefixed attributes never take the default
// namespace.
func (b *builder) resolve(prefix string, element bool) string {
	if prefix == "" && !element {
		return ""
	}
	for i := len(b.stack) - 1; i >= 0; i-- {
		if uri, ok := b.stack[i].ns[prefix]; ok {
			return uri
		}
	}
	if prefix == "" {
		return ""
	}
	return wellKnownPrefixes[strings.ToLower(prefix)]
}
