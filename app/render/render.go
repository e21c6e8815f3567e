package render

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sloonz/cfeedparser/app/feed"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatRSS  = "rss"
)

// Write renders f in the named format. name labels the document in text
// output.
func Write(w io.Writer, format, name string, f *feed.Feed, version string) error {
	switch format {
	case FormatText, "":
		return Text(w, name, f)
	case FormatJSON:
		return JSON(w, f)
	case FormatYAML:
		return YAML(w, f)
	case FormatRSS:
		return RSS(w, f, version)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func JSON(w io.Writer, f *feed.Feed) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

func YAML(w io.Writer, f *feed.Feed) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

const (
	entrySeparator = "------------------------"
	feedSeparator  = "========================"
)

// Text prints a feed the way a mail reader lists messages: one block per
// entry with subject, sender, address and body.
func Text(w io.Writer, name string, f *feed.Feed) error {
	p := &printer{w: w}

	p.line("%s", name)
	p.line("%d entries.", f.EntriesSize)
	for i := range f.Entries {
		e := &f.Entries[i]
		p.line(entrySeparator)
		p.line("Subject: %s", orNone(e.Title))
		p.line("From: %s", orNone(e.Author))
		p.line("URL: %s (%s)", orNone(e.Link), orNone(e.LinkTitle))
		p.line("ID: %s", orNone(e.ID))
		p.line("Created: %s", stamp(e.Created, e.CreatedParsed))
		p.line("Modified: %s", stamp(e.Updated, e.UpdatedParsed))
		p.line("")
		body := e.Content
		if body == nil || *body == "" {
			body = e.Summary
		}
		p.line("%s", orNone(body))
	}
	p.line("")
	p.line(feedSeparator)
	return p.err
}

// TextError prints the failure line for a document that did not parse.
func TextError(w io.Writer, name string, err error) error {
	p := &printer{w: w}
	p.line("%s", name)
	p.line("Error: %s", err)
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func orNone(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}

// stamp shows the normalised timestamp in the local zone, or the raw text
// when it could not be read.
func stamp(raw *string, parsed *time.Time) string {
	if parsed != nil {
		return parsed.In(time.Local).Format(time.RFC1123Z)
	}
	return orNone(raw)
}
