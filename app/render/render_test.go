package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestText(t *testing.T) {
	f := parseSource(t)

	var buf bytes.Buffer
	if err := Text(&buf, "feed.xml", f); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"feed.xml\n2 entries.\n",
		"Subject: First & foremost\n",
		"From: John Doe (johndoe@example.com)\n",
		"URL: http://example.org/1 (None)\n",
		"ID: tag:example.org,2003:2\n",
		"Modified: None\n",
		"<p>Long ]]> text</p>\n",
		"From: Jane Roe\n",
		"========================\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Count(out, entrySeparator) != 2 {
		t.Errorf("Expected one separator per entry, got:\n%s", out)
	}
}

func TestTextError(t *testing.T) {
	var buf bytes.Buffer
	if err := TextError(&buf, "bad.xml", errors.New("unrecognized feed format")); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if buf.String() != "bad.xml\nError: unrecognized feed format\n" {
		t.Errorf("Unexpected output: %q", buf.String())
	}
}

func TestJSON(t *testing.T) {
	f := parseSource(t)

	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, "", f, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got: %v", err)
	}
	if decoded["dialect"] != "ATOM10" {
		t.Errorf("Expected dialect ATOM10, got: %v", decoded["dialect"])
	}
	if decoded["title"] != "Example Feed" {
		t.Errorf("Expected title, got: %v", decoded["title"])
	}
	if decoded["subtitle"] != nil {
		t.Errorf("Expected absent subtitle to be null, got: %v", decoded["subtitle"])
	}
	if decoded["entries_size"] != float64(2) {
		t.Errorf("Expected entries_size 2, got: %v", decoded["entries_size"])
	}
	if !strings.Contains(buf.String(), "<p>Long") {
		t.Error("Expected HTML not to be escaped")
	}
}

func TestYAML(t *testing.T) {
	f := parseSource(t)

	var buf bytes.Buffer
	if err := Write(&buf, FormatYAML, "", f, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Expected valid YAML, got: %v", err)
	}
	if decoded["title"] != "Example Feed" {
		t.Errorf("Expected title, got: %v", decoded["title"])
	}
	if decoded["dialect"] != "ATOM10" {
		t.Errorf("Expected dialect ATOM10, got: %v", decoded["dialect"])
	}
	entries, ok := decoded["entries"].([]any)
	if !ok || len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %v", decoded["entries"])
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, "xml", "", parseSource(t), ""); err == nil {
		t.Error("Expected error for unknown format")
	}
}
