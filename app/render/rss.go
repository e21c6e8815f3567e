package render

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/sloonz/cfeedparser/app/feed"
)

// Generator re-emits a normalised feed as RSS 2.0.
type Generator struct {
	Version string
}

func NewGenerator(version string) *Generator {
	return &Generator{Version: version}
}

func (g *Generator) Run(f *feed.Feed) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:dc="http://purl.org/dc/elements/1.1/">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", feed.Str(f.Title), 4)
	g.writeElement(&buf, "link", feed.Str(f.Link), 4)
	description := cmp.Or(feed.Str(f.Description), feed.Str(f.Subtitle))
	if description == "" {
		description = fmt.Sprintf("Normalised %s feed", f.Dialect)
	}
	g.writeElement(&buf, "description", description, 4)

	if f.CreatedParsed != nil {
		g.writeElement(&buf, "pubDate", f.CreatedParsed.Format(time.RFC1123Z), 4)
	}
	if f.DateParsed != nil {
		g.writeElement(&buf, "lastBuildDate", f.DateParsed.Format(time.RFC1123Z), 4)
	}
	g.writeElement(&buf, "generator", fmt.Sprintf("cfeedparser/%s", cmp.Or(g.Version, "unknown")), 4)
	if f.AuthorEmail != nil {
		g.writeElement(&buf, "managingEditor", rssAuthor(f.AuthorName, f.AuthorEmail), 4)
	} else {
		g.writeElement(&buf, "dc:creator", feed.Str(f.Author), 4)
	}

	for i := range f.Entries {
		g.writeItem(&buf, &f.Entries[i])
	}

	buf.WriteString("  </channel>\n</rss>\n")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, e *feed.Entry) {
	buf.WriteString("    <item>\n")

	if id := feed.Str(e.ID); id != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(id)))
		xml.EscapeText(buf, []byte(id))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", feed.Str(e.Title), 6)
	g.writeElement(buf, "link", feed.Str(e.Link), 6)
	g.writeElement(buf, "description", feed.Str(e.Summary), 6)

	if content := feed.Str(e.Content); content != "" && content != feed.Str(e.Summary) {
		buf.WriteString("      <content:encoded><![CDATA[")
		// A literal "]]>" would end the section early.
		buf.WriteString(strings.ReplaceAll(content, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	if published := cmp.Or(e.CreatedParsed, e.DateParsed); published != nil {
		g.writeElement(buf, "pubDate", published.Format(time.RFC1123Z), 6)
	}

	if e.AuthorEmail != nil {
		g.writeElement(buf, "author", rssAuthor(e.AuthorName, e.AuthorEmail), 6)
	} else {
		g.writeElement(buf, "dc:creator", feed.Str(e.Author), 6)
	}

	if enclosure := feed.Str(e.Enclosure); enclosure != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"application/octet-stream\" />\n",
			html.EscapeString(enclosure)))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// rssAuthor formats an author the way RSS prescribes: "email (Name)".
func rssAuthor(name, email *string) string {
	if name == nil {
		return *email
	}
	return fmt.Sprintf("%s (%s)", *email, *name)
}

// RSS writes f as an RSS 2.0 document.
func RSS(w io.Writer, f *feed.Feed, version string) error {
	out, err := NewGenerator(version).Run(f)
	if err != nil {
		return fmt.Errorf("failed to generate rss: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
