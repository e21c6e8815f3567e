package charset

import (
	"bytes"
	"mime"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	htmlcharset "golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

type Source string

const (
	SourceHint     Source = "hint"
	SourceBOM      Source = "bom"
	SourceSniffed  Source = "sniffed"
	SourceDeclared Source = "declared"
	SourceDetected Source = "detected"
	SourceDefault  Source = "default"
)

// Decoded is the outcome of resolving a byte stream to text.
type Decoded struct {
	Text    string
	Charset string
	Source  Source
	// Lossy reports that some byte sequences could not be decoded under the
	// chosen charset and were replaced with U+FFFD.
	Lossy bool
}

const (
	utf8Name = "utf-8"
	// below this chardet confidence the guess is ignored and UTF-8 substitution wins
	minDetectConfidence = 50
	declScanLimit       = 1024
)

var xmlDeclEncoding = regexp.MustCompile(`^\s*<\?xml[^>]*?\sencoding\s*=\s*["']([A-Za-z0-9._:\-]+)["']`)

type candidate struct {
	enc    encoding.Encoding
	name   string
	source Source
	skip   int
}

// Resolve decodes data to UTF-8 text. hint is either a bare charset label or
// a full Content-Type value. Undecodable input never fails: invalid sequences
// are substituted and the result is flagged as lossy.
func Resolve(data []byte, hint string) Decoded {
	if c, ok := fromHint(hint); ok {
		return decode(data, c)
	}

	if c, ok := fromBOM(data); ok {
		return decode(data, c)
	}

	if c, ok := sniff(data); ok {
		return decode(data, c)
	}

	if c, ok := fromDeclaration(data); ok {
		return decode(data, c)
	}

	if utf8.Valid(data) {
		return Decoded{Text: string(data), Charset: utf8Name, Source: SourceDefault}
	}

	if c, ok := detect(data); ok {
		return decode(data, c)
	}

	return Decoded{
		Text:    strings.ToValidUTF8(string(data), "\uFFFD"),
		Charset: utf8Name,
		Source:  SourceDefault,
		Lossy:   true,
	}
}

// Lookup maps a charset label to a decoder and its canonical name. WHATWG
// labels are tried first, then the IANA registry.
func Lookup(label string) (encoding.Encoding, string, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return nil, "", false
	}

	switch label {
	case "utf-32", "utf-32be", "ucs-4", "ucs-4be":
		return utf32.UTF32(utf32.BigEndian, utf32.UseBOM), "utf-32be", true
	case "utf-32le", "ucs-4le":
		return utf32.UTF32(utf32.LittleEndian, utf32.UseBOM), "utf-32le", true
	case "utf-16", "ucs-2":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), "utf-16be", true
	}

	if enc, name := htmlcharset.Lookup(label); enc != nil {
		return enc, name, true
	}

	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil || enc == nil {
		return nil, "", false
	}
	name, err := ianaindex.IANA.Name(enc)
	if err != nil {
		name = label
	}
	return enc, strings.ToLower(name), true
}

func fromHint(hint string) (candidate, bool) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return candidate{}, false
	}

	label := hint
	if strings.ContainsAny(hint, "/;") {
		_, params, err := mime.ParseMediaType(hint)
		if err != nil {
			return candidate{}, false
		}
		label = params["charset"]
	}

	enc, name, ok := Lookup(label)
	if !ok {
		return candidate{}, false
	}
	return candidate{enc: enc, name: name, source: SourceHint}, true
}

func fromBOM(data []byte) (candidate, bool) {
	switch {
	case bytes.HasPrefix(data, []byte{0x00, 0x00, 0xFE, 0xFF}):
		return candidate{enc: utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), name: "utf-32be", source: SourceBOM, skip: 4}, true
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE, 0x00, 0x00}):
		return candidate{enc: utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), name: "utf-32le", source: SourceBOM, skip: 4}, true
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return candidate{name: utf8Name, source: SourceBOM, skip: 3}, true
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return candidate{enc: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), name: "utf-16be", source: SourceBOM, skip: 2}, true
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return candidate{enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), name: "utf-16le", source: SourceBOM, skip: 2}, true
	}
	return candidate{}, false
}

// sniff recognises BOM-less documents whose first characters are "<?" in a
// non ASCII-compatible encoding.
func sniff(data []byte) (candidate, bool) {
	switch {
	case bytes.HasPrefix(data, []byte{0x00, 0x00, 0x00, 0x3C}):
		return candidate{enc: utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), name: "utf-32be", source: SourceSniffed}, true
	case bytes.HasPrefix(data, []byte{0x3C, 0x00, 0x00, 0x00}):
		return candidate{enc: utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), name: "utf-32le", source: SourceSniffed}, true
	case bytes.HasPrefix(data, []byte{0x00, 0x3C, 0x00, 0x3F}):
		return candidate{enc: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), name: "utf-16be", source: SourceSniffed}, true
	case bytes.HasPrefix(data, []byte{0x3C, 0x00, 0x3F, 0x00}):
		return candidate{enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), name: "utf-16le", source: SourceSniffed}, true
	case bytes.HasPrefix(data, []byte{0x4C, 0x6F, 0xA7, 0x94}):
		return candidate{enc: charmap.CodePage037, name: "cp037", source: SourceSniffed}, true
	}
	return candidate{}, false
}

func fromDeclaration(data []byte) (candidate, bool) {
	head := data
	if len(head) > declScanLimit {
		head = head[:declScanLimit]
	}

	m := xmlDeclEncoding.FindSubmatch(head)
	if m == nil {
		return candidate{}, false
	}

	label := strings.ToLower(string(m[1]))
	// The declaration was readable as ASCII, so a wide encoding is a lie.
	if strings.HasPrefix(label, "utf-16") || strings.HasPrefix(label, "utf-32") ||
		strings.HasPrefix(label, "ucs-") {
		return candidate{}, false
	}

	enc, name, ok := Lookup(label)
	if !ok {
		return candidate{}, false
	}
	return candidate{enc: enc, name: name, source: SourceDeclared}, true
}

func detect(data []byte) (candidate, bool) {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil || result.Confidence < minDetectConfidence {
		return candidate{}, false
	}

	enc, name, ok := Lookup(result.Charset)
	if !ok || name == utf8Name {
		return candidate{}, false
	}
	return candidate{enc: enc, name: name, source: SourceDetected}, true
}

func decode(data []byte, c candidate) Decoded {
	data = data[c.skip:]

	if c.name == utf8Name || c.enc == nil || c.enc == unicode.UTF8 {
		d := Decoded{Charset: utf8Name, Source: c.source}
		if utf8.Valid(data) {
			d.Text = string(data)
		} else {
			d.Text = strings.ToValidUTF8(string(data), "\uFFFD")
			d.Lossy = true
		}
		return d
	}

	out, _, err := transform.Bytes(c.enc.NewDecoder(), data)
	if err != nil {
		return Decoded{
			Text:    strings.ToValidUTF8(string(data), "\uFFFD"),
			Charset: c.name,
			Source:  c.source,
			Lossy:   true,
		}
	}

	d := Decoded{Charset: c.name, Source: c.source}
	if utf8.Valid(out) {
		d.Text = string(out)
	} else {
		d.Text = strings.ToValidUTF8(string(out), "\uFFFD")
		d.Lossy = true
	}
	if !d.Lossy {
		d.Lossy = substituted(c.enc, data, out)
	}
	return d
}

// substituted reports whether the decoder replaced undecodable input with
// U+FFFD, which x/text decoders do without returning an error. Replacement
// characters the input itself encodes are not counted.
func substituted(enc encoding.Encoding, data, out []byte) bool {
	n := bytes.Count(out, []byte("\uFFFD"))
	if n == 0 {
		return false
	}

	e := enc.NewEncoder()
	prefix, err := e.Bytes([]byte("a"))
	if err != nil {
		return true
	}
	e.Reset()
	withFFFD, err := e.Bytes([]byte("a\uFFFD"))
	if err != nil || len(withFFFD) <= len(prefix) {
		return true
	}
	return n > bytes.Count(data, withFFFD[len(prefix):])
}
