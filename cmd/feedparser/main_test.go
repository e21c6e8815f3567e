package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sloonz/cfeedparser/app/cfg"
	"github.com/sloonz/cfeedparser/app/markup"
)

const atomDoc = `<feed xmlns="http://www.w3.org/2005/Atom"><title>A</title>
<entry><title>Hello</title><id>urn:1</id><updated>2005-07-31T12:29:29Z</updated><content>Body</content></entry>
</feed>`

func testCfg(files ...string) *cfg.Cfg {
	return &cfg.Cfg{
		WorkerCount:  2,
		ParseTimeout: 5 * time.Second,
		Limits:       markup.DefaultLimits(),
		CacheBackend: cfg.CacheNone,
		Format:       "text",
		Files:        files,
		Version:      "test",
	}
}

func TestRunPrintsInOrder(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.xml")
	bad := filepath.Join(dir, "bad.xml")
	if err := os.WriteFile(good, []byte(atomDoc), 0644); err != nil {
		t.Fatalf("Failed to write feed: %v", err)
	}
	if err := os.WriteFile(bad, []byte("<html></html>"), 0644); err != nil {
		t.Fatalf("Failed to write feed: %v", err)
	}

	var out bytes.Buffer
	err := run(testCfg(good, bad, good), strings.NewReader(""), &out)
	if err == nil || !strings.Contains(err.Error(), "1 of 3 feeds failed") {
		t.Errorf("Expected one failure to be reported, got: %v", err)
	}

	text := out.String()
	first := strings.Index(text, good+"\n1 entries.")
	errLine := strings.Index(text, bad+"\nError: ")
	last := strings.LastIndex(text, good+"\n1 entries.")
	if first < 0 || errLine < 0 || last <= errLine || errLine <= first {
		t.Errorf("Expected results in input order, got:\n%s", text)
	}
	if !strings.Contains(text, "Subject: Hello\n") || !strings.Contains(text, "Body\n") {
		t.Errorf("Expected entry details, got:\n%s", text)
	}
}

func TestRunStdinJSON(t *testing.T) {
	c := testCfg()
	c.Format = "json"

	var out bytes.Buffer
	if err := run(c, strings.NewReader(atomDoc), &out); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(out.String(), `"dialect": "ATOM10"`) {
		t.Errorf("Expected JSON output, got: %s", out.String())
	}
}

func TestRunManyFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")
	if err := os.WriteFile(path, []byte(atomDoc), 0644); err != nil {
		t.Fatalf("Failed to write feed: %v", err)
	}

	files := make([]string, 400)
	for i := range files {
		files[i] = path
	}

	var out bytes.Buffer
	if err := run(testCfg(files...), strings.NewReader(""), &out); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got := strings.Count(out.String(), "1 entries."); got != len(files) {
		t.Errorf("Expected %d feeds printed, got: %d", len(files), got)
	}
}
