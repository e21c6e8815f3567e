package charset

import (
	"strings"
	"testing"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

func encodeUTF16(s string, bigEndian bool) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, len(units)*2)
	for _, u := range units {
		if bigEndian {
			out = append(out, byte(u>>8), byte(u))
		} else {
			out = append(out, byte(u), byte(u>>8))
		}
	}
	return out
}

func TestResolveDefaultsToUTF8(t *testing.T) {
	d := Resolve([]byte(`<rss version="2.0"><channel><title>Caf?</title></channel></rss>`), "")

	if d.Charset != "utf-8" {
		t.Errorf("Expected charset 'utf-8', got: %s", d.Charset)
	}
	if d.Source != SourceDefault {
		t.Errorf("Expected source 'default', got: %s", d.Source)
	}
	if d.Lossy {
		t.Error("Expected lossless decode")
	}
}

func TestResolveUTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("<feed/>")...)
	d := Resolve(data, "")

	if d.Text != "<feed/>" {
		t.Errorf("Expected BOM to be stripped, got: %q", d.Text)
	}
	if d.Source != SourceBOM {
		t.Errorf("Expected source 'bom', got: %s", d.Source)
	}
}

func TestResolveUTF16(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-16"?><rss version="2.0"/>`

	t.Run("little endian with BOM", func(t *testing.T) {
		data := append([]byte{0xFF, 0xFE}, encodeUTF16(doc, false)...)
		d := Resolve(data, "")
		if d.Text != doc {
			t.Errorf("Expected %q, got: %q", doc, d.Text)
		}
		if d.Charset != "utf-16le" {
			t.Errorf("Expected charset 'utf-16le', got: %s", d.Charset)
		}
	})

	t.Run("big endian without BOM", func(t *testing.T) {
		d := Resolve(encodeUTF16(doc, true), "")
		if d.Text != doc {
			t.Errorf("Expected %q, got: %q", doc, d.Text)
		}
		if d.Source != SourceSniffed {
			t.Errorf("Expected source 'sniffed', got: %s", d.Source)
		}
	})
}

func TestResolveSniffsWideAndEBCDIC(t *testing.T) {
	doc := `<?xml version="1.0"?><rss version="2.0"/>`

	utf32le := make([]byte, 0, len(doc)*4)
	for _, r := range doc {
		utf32le = append(utf32le, byte(r), 0, 0, 0)
	}
	ebcdic, err := charmap.CodePage037.NewEncoder().Bytes([]byte(doc))
	if err != nil {
		t.Fatalf("Failed to encode EBCDIC sample: %v", err)
	}

	tests := []struct {
		name    string
		data    []byte
		charset string
	}{
		{"utf-32 little endian", utf32le, "utf-32le"},
		{"ebcdic", ebcdic, "cp037"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Resolve(tt.data, "")
			if d.Text != doc {
				t.Errorf("Expected %q, got: %q", doc, d.Text)
			}
			if d.Charset != tt.charset {
				t.Errorf("Expected charset %q, got: %s", tt.charset, d.Charset)
			}
			if d.Source != SourceSniffed {
				t.Errorf("Expected source 'sniffed', got: %s", d.Source)
			}
		})
	}
}

func TestResolveDeclaredEncoding(t *testing.T) {
	data := []byte("<?xml version='1.0' encoding='iso-8859-1'?><t>caf\xe9</t>")
	d := Resolve(data, "")

	if !strings.Contains(d.Text, "café") {
		t.Errorf("Expected decoded latin-1 text, got: %q", d.Text)
	}
	if d.Source != SourceDeclared {
		t.Errorf("Expected source 'declared', got: %s", d.Source)
	}
}

func TestResolveHintWins(t *testing.T) {
	data := []byte("<?xml version='1.0' encoding='iso-8859-1'?><t>café</t>")
	d := Resolve(data, "application/rss+xml; charset=UTF-8")

	if !strings.Contains(d.Text, "<t>café</t>") {
		t.Errorf("Expected hint charset to be used, got: %q", d.Text)
	}
	if d.Source != SourceHint {
		t.Errorf("Expected source 'hint', got: %s", d.Source)
	}
}

func TestResolveUnknownHintFallsThrough(t *testing.T) {
	data := []byte("<?xml version='1.0' encoding='iso-8859-1'?><t>caf\xe9</t>")
	d := Resolve(data, "x-no-such-charset")

	if d.Source != SourceDeclared {
		t.Errorf("Expected declaration to be used, got: %s", d.Source)
	}
}

func TestResolveInvalidUTF8IsSubstituted(t *testing.T) {
	data := []byte("<?xml version=\"1.0\" encoding=\"utf-8\"?><t>bad \xff\xfe bytes</t>")
	d := Resolve(data, "")

	if !d.Lossy {
		t.Error("Expected lossy decode")
	}
	if !strings.Contains(d.Text, "\uFFFD") {
		t.Errorf("Expected replacement character, got: %q", d.Text)
	}
	if !strings.Contains(d.Text, "bytes</t>") {
		t.Errorf("Expected surrounding text to survive, got: %q", d.Text)
	}
}

func TestResolveLossyNonUTF8(t *testing.T) {
	head := encodeUTF16("<t>a", false)
	tail := encodeUTF16("b</t>", false)

	tests := []struct {
		name  string
		body  []byte
		lossy bool
	}{
		{"unpaired surrogate", []byte{0x00, 0xD8}, true},
		{"encoded replacement character", encodeUTF16("\uFFFD", false), false},
		{"clean", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append(append(append([]byte{}, head...), tt.body...), tail...)
			d := Resolve(data, "utf-16le")
			if d.Lossy != tt.lossy {
				t.Errorf("Expected lossy=%v, got %v (text %q)", tt.lossy, d.Lossy, d.Text)
			}
			if !strings.HasSuffix(d.Text, "b</t>") {
				t.Errorf("Expected surrounding text to survive, got: %q", d.Text)
			}
		})
	}
}

func TestResolveIgnoresWideDeclarationOnASCII(t *testing.T) {
	d := Resolve([]byte(`<?xml version="1.0" encoding="utf-16"?><rss/>`), "")

	if d.Charset != "utf-8" {
		t.Errorf("Expected charset 'utf-8', got: %s", d.Charset)
	}
	if !strings.HasSuffix(d.Text, "<rss/>") {
		t.Errorf("Unexpected text: %q", d.Text)
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		label string
		ok    bool
	}{
		{"utf-8", true},
		{"UTF-8", true},
		{"latin1", true},
		{"windows-1251", true},
		{"koi8-r", true},
		{"", false},
		{"definitely-not-a-charset", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			_, _, ok := Lookup(tt.label)
			if ok != tt.ok {
				t.Errorf("Lookup(%q): expected %v, got %v", tt.label, tt.ok, ok)
			}
		})
	}
}
