package markup

import (
	"strings"
	"unicode/utf8"
)

// repair rewrites the defects encoding/xml cannot recover from, even in
// non-strict mode: a "<" that does not open markup, a "<" inside a quoted
// attribute value, a tag left open before the next one starts, characters
// outside the XML range, a "]]>" outside CDATA, and XML declarations (version and encoding are
// already settled by the time the text gets here).
func repair(s string) string {
	s = strings.TrimLeft(s, " \t\r\n\uFEFF")

	var b strings.Builder
	b.Grow(len(s) + len(s)/64)

	inTag := false
	var quote byte

	for i := 0; i < len(s); {
		if inTag {
			c := s[i]
			switch {
			case quote != 0:
				if c == quote {
					quote = 0
				} else if c == '<' {
					b.WriteString("&lt;")
					i++
					continue
				}
			case c == '"' || c == '\'':
				quote = c
			case c == '>':
				inTag = false
			case c == '<':
				b.WriteByte('>')
				inTag = false
				continue
			}
			i += copyChar(&b, s, i)
			continue
		}

		c := s[i]
		if c == ']' && strings.HasPrefix(s[i:], "]]>") {
			b.WriteString("]]&gt;")
			i += 3
			continue
		}
		if c != '<' {
			i += copyChar(&b, s, i)
			continue
		}

		rest := s[i:]
		switch {
		case strings.HasPrefix(rest, "<!--"):
			i += copySection(&b, s, i, "-->")
		case strings.HasPrefix(rest, "<![CDATA["):
			i += copySection(&b, s, i, "]]>")
		case isXMLDecl(rest):
			end := strings.Index(rest, "?>")
			if end < 0 {
				return b.String()
			}
			i += end + 2
		case strings.HasPrefix(rest, "<?"):
			i += copySection(&b, s, i, "?>")
		case strings.HasPrefix(rest, "<!") && len(rest) > 2 && isNameStart(rest[2]):
			i += copyDirective(&b, s, i)
		case strings.HasPrefix(rest, "</") && len(rest) > 2 && isNameStart(rest[2]):
			b.WriteString("</")
			i += 2
			inTag = true
		case len(rest) > 1 && isNameStart(rest[1]):
			b.WriteByte('<')
			i++
			inTag = true
		default:
			b.WriteString("&lt;")
			i++
		}
	}

	return b.String()
}

func isXMLDecl(s string) bool {
	if len(s) < 6 || !strings.EqualFold(s[:5], "<?xml") {
		return false
	}
	switch s[5] {
	case ' ', '\t', '\r', '\n', '?':
		return true
	}
	return false
}

func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == ':' || c >= utf8.RuneSelf
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// copyChar copies one character at s[i], dropping it when it is not allowed
// in XML, and returns the number of bytes consumed.
func copyChar(b *strings.Builder, s string, i int) int {
	c := s[i]
	if c < utf8.RuneSelf {
		if c >= 0x20 || c == '\t' || c == '\n' || c == '\r' {
			b.WriteByte(c)
		}
		return 1
	}
	r, size := utf8.DecodeRuneInString(s[i:])
	if isXMLChar(r) {
		b.WriteString(s[i : i+size])
	}
	return size
}

func copySection(b *strings.Builder, s string, i int, terminator string) int {
	end := strings.Index(s[i:], terminator)
	stop := len(s)
	if end >= 0 {
		stop = i + end + len(terminator)
	}
	for j := i; j < stop; {
		j += copyChar(b, s, j)
	}
	return stop - i
}

// copyDirective copies a <!DOCTYPE ...> style declaration including any
// bracketed internal subset.
func copyDirective(b *strings.Builder, s string, i int) int {
	depth := 0
	var quote byte
	j := i + 2
	for j < len(s) {
		c := s[j]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
		case c == '>' && depth <= 0:
			j++
			for k := i; k < j; {
				k += copyChar(b, s, k)
			}
			return j - i
		}
		j++
	}
	for k := i; k < len(s); {
		k += copyChar(b, s, k)
	}
	return len(s) - i
}
