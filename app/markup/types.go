package markup

import (
	"errors"
	"strings"
)

var (
	ErrLimitExceeded = errors.New("resource limit exceeded")
	ErrNoRoot        = errors.New("no root element found")
)

type Kind int

const (
	ElementNode Kind = iota
	TextNode
)

type Attr struct {
	Space  string
	Prefix string
	Local  string
	Value  string
}

// Node is an element or a run of character data. Space holds the resolved
// namespace URI, Prefix the prefix as written in the document.
type Node struct {
	Kind     Kind
	Space    string
	Prefix   string
	Local    string
	Attrs    []Attr
	Children []*Node
	// Data is the character data of a text node.
	Data string
	// Closed is set when the element was ended by its own end tag or was
	// self-closing, as opposed to being closed implicitly by recovery.
	Closed bool
}

type Document struct {
	Root *Node
	// Truncated is set when input ended, or became unreadable, while the
	// root element was still open.
	Truncated bool
	// Err is the tokenizer error recovery stopped at, if any.
	Err error
}

// Limits bounds the work done on a single document. Zero fields fall back to
// the defaults.
type Limits struct {
	MaxDepth         int `yaml:"max_depth" json:"max_depth"`
	MaxEntityDepth   int `yaml:"max_entity_depth" json:"max_entity_depth"`
	MaxEntityBytes   int `yaml:"max_entity_bytes" json:"max_entity_bytes"`
	MaxEntities      int `yaml:"max_entities" json:"max_entities"`
	MaxDocumentBytes int `yaml:"max_document_bytes" json:"max_document_bytes"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxDepth:         256,
		MaxEntityDepth:   8,
		MaxEntityBytes:   1 << 20,
		MaxEntities:      1024,
		MaxDocumentBytes: 32 << 20,
	}
}

func (l Limits) WithDefaults() Limits {
	def := DefaultLimits()
	if l.MaxDepth <= 0 {
		l.MaxDepth = def.MaxDepth
	}
	if l.MaxEntityDepth <= 0 {
		l.MaxEntityDepth = def.MaxEntityDepth
	}
	if l.MaxEntityBytes <= 0 {
		l.MaxEntityBytes = def.MaxEntityBytes
	}
	if l.MaxEntities <= 0 {
		l.MaxEntities = def.MaxEntities
	}
	if l.MaxDocumentBytes <= 0 {
		l.MaxDocumentBytes = def.MaxDocumentBytes
	}
	return l
}

// Is reports whether n is an element with the given namespace and local
// name. Local names compare case-insensitively.
func (n *Node) Is(space, local string) bool {
	return n != nil && n.Kind == ElementNode && n.Space == space && strings.EqualFold(n.Local, local)
}

func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Attr returns the value of the attribute with the given namespace and local
// name. Unprefixed attributes have an empty namespace.
func (n *Node) Attr(space, local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Space == space && strings.EqualFold(a.Local, local) {
			return a.Value, true
		}
	}
	return "", false
}

// Text concatenates all descendant character data.
func (n *Node) Text() string {
	if n.Kind == TextNode {
		return n.Data
	}
	var b strings.Builder
	n.collectText(&b)
	return b.String()
}

func (n *Node) collectText(b *strings.Builder) {
	for _, c := range n.Children {
		if c.Kind == TextNode {
			b.WriteString(c.Data)
		} else {
			c.collectText(b)
		}
	}
}

// Value is the field value of an element: its character data when it only
// holds text, or its re-serialised content when it holds markup.
func (n *Node) Value() string {
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			return n.InnerXML()
		}
	}
	return n.Text()
}
