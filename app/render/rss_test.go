package render

import (
	"strings"
	"testing"

	"github.com/sloonz/cfeedparser/app/feed"
)

const sourceFeed = `<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example Feed</title>
  <link href="http://example.org/"/>
  <updated>2003-12-13T18:30:02Z</updated>
  <author><name>John Doe</name><email>johndoe@example.com</email></author>
  <entry>
    <title>First &amp; foremost</title>
    <link href="http://example.org/1"/>
    <link rel="enclosure" href="http://example.org/1.mp3"/>
    <id>http://example.org/1</id>
    <published>2003-12-13T08:00:00Z</published>
    <summary>Short</summary>
    <content type="html">&lt;p&gt;Long ]]&gt; text&lt;/p&gt;</content>
  </entry>
  <entry>
    <title>Second</title>
    <id>tag:example.org,2003:2</id>
    <author><name>Jane Roe</name></author>
  </entry>
</feed>`

func parseSource(t *testing.T) *feed.Feed {
	t.Helper()
	f, err := feed.Parse([]byte(sourceFeed), "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return f
}

func TestGenerateRSS(t *testing.T) {
	f := parseSource(t)

	rss, err := NewGenerator("1.2.3").Run(f)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(rss, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("RSS should contain XML declaration")
	}
	if !strings.Contains(rss, `<rss version="2.0"`) {
		t.Error("RSS should contain rss element with version 2.0")
	}
	if !strings.Contains(rss, "<title>Example Feed</title>") {
		t.Error("RSS should contain feed title")
	}
	if !strings.Contains(rss, "<generator>cfeedparser/1.2.3</generator>") {
		t.Error("RSS should contain generator")
	}
	if !strings.Contains(rss, "<managingEditor>johndoe@example.com (John Doe)</managingEditor>") {
		t.Error("RSS should contain managing editor in RSS author form")
	}
	if !strings.Contains(rss, "<title>First &amp; foremost</title>") {
		t.Error("RSS should escape item titles")
	}
	if !strings.Contains(rss, `<guid isPermaLink="true">http://example.org/1</guid>`) {
		t.Error("RSS should mark URL guids as permalinks")
	}
	if !strings.Contains(rss, `<guid isPermaLink="false">tag:example.org,2003:2</guid>`) {
		t.Error("RSS should mark other guids as non-permalinks")
	}
	if !strings.Contains(rss, "<pubDate>Sat, 13 Dec 2003 08:00:00 +0000</pubDate>") {
		t.Error("RSS should contain item publication date")
	}
	if !strings.Contains(rss, `<enclosure url="http://example.org/1.mp3"`) {
		t.Error("RSS should contain the enclosure")
	}
	if !strings.Contains(rss, "<dc:creator>Jane Roe</dc:creator>") {
		t.Error("RSS should fall back to dc:creator for authors without email")
	}
}

func TestGenerateRSSReparses(t *testing.T) {
	f := parseSource(t)

	rss, err := NewGenerator("test").Run(f)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	back, err := feed.Parse([]byte(rss), "")
	if err != nil {
		t.Fatalf("Expected generated RSS to parse, got: %v", err)
	}
	if back.Dialect != feed.RSS200 {
		t.Errorf("Expected RSS200, got: %s", back.Dialect)
	}
	if back.EntriesSize != f.EntriesSize {
		t.Fatalf("Expected %d entries, got: %d", f.EntriesSize, back.EntriesSize)
	}
	if feed.Str(back.Entries[0].Title) != "First & foremost" {
		t.Errorf("Expected title to survive, got: %s", feed.Str(back.Entries[0].Title))
	}
	if feed.Str(back.Entries[0].Content) != "<p>Long ]]> text</p>" {
		t.Errorf("Expected content to survive CDATA splitting, got: %s", feed.Str(back.Entries[0].Content))
	}
	if feed.Str(back.Entries[1].Author) != "Jane Roe" {
		t.Errorf("Expected author to survive, got: %s", feed.Str(back.Entries[1].Author))
	}
}
