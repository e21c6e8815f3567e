package fallback

import (
	"errors"
	"testing"
	"time"

	"github.com/sloonz/cfeedparser/app/feed"
)

type fakeStrategy struct {
	feed  *feed.Feed
	err   error
	calls int
}

func (f *fakeStrategy) Parse(data []byte, hint string) (*feed.Feed, error) {
	f.calls++
	return f.feed, f.err
}

func TestChainPrimarySuccess(t *testing.T) {
	primary := &fakeStrategy{feed: &feed.Feed{Dialect: feed.RSS200}}
	secondary := &fakeStrategy{feed: &feed.Feed{Dialect: feed.Atom10}}

	f, err := NewChain(primary, secondary).Parse([]byte("<rss/>"), "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if f.Dialect != feed.RSS200 {
		t.Errorf("Expected primary result, got dialect: %s", f.Dialect)
	}
	if secondary.calls != 0 {
		t.Errorf("Expected secondary not to be called, got %d calls", secondary.calls)
	}
}

func TestChainFallsBackOnParseError(t *testing.T) {
	primary := &fakeStrategy{err: &feed.ParseError{Reason: feed.ReasonUnrecognizedFormat, Message: "unrecognized feed format"}}
	secondary := &fakeStrategy{feed: &feed.Feed{Dialect: feed.Atom10}}

	f, err := NewChain(primary, secondary).Parse([]byte("<x/>"), "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if f.Dialect != feed.Atom10 {
		t.Errorf("Expected secondary result, got dialect: %s", f.Dialect)
	}
	if secondary.calls != 1 {
		t.Errorf("Expected secondary to be called once, got %d calls", secondary.calls)
	}
}

func TestChainKeepsResourceError(t *testing.T) {
	resourceErr := &feed.ResourceError{Op: "parse feed", Err: feed.ErrTooLarge}
	primary := &fakeStrategy{err: resourceErr}
	secondary := &fakeStrategy{feed: &feed.Feed{}}

	f, err := NewChain(primary, secondary).Parse([]byte("<rss/>"), "")
	if f != nil {
		t.Error("Expected no feed with an error")
	}
	if !errors.Is(err, feed.ErrTooLarge) {
		t.Errorf("Expected resource error to pass through, got: %v", err)
	}
	if secondary.calls != 0 {
		t.Errorf("Expected secondary not to be called, got %d calls", secondary.calls)
	}
}

func TestChainWithoutSecondary(t *testing.T) {
	primary := &fakeStrategy{err: &feed.ParseError{Reason: feed.ReasonStructural, Message: "rss document has no channel element"}}

	_, err := NewChain(primary, nil).Parse([]byte("<rss/>"), "")
	if !feed.IsParseError(err) {
		t.Errorf("Expected parse error, got: %v", err)
	}
}

func TestChainSecondaryErrorIsReturned(t *testing.T) {
	primary := &fakeStrategy{err: &feed.ParseError{Reason: feed.ReasonUnrecognizedFormat, Message: "first"}}
	secondary := &fakeStrategy{err: &feed.ParseError{Reason: feed.ReasonUnrecognizedFormat, Message: "second"}}

	_, err := NewChain(primary, secondary).Parse(nil, "")
	if err == nil || err.Error() != "second" {
		t.Errorf("Expected secondary error, got: %v", err)
	}
}

const gofeedRSS = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Fallback Feed</title>
    <link>http://example.com/</link>
    <description>Parsed by gofeed</description>
    <managingEditor>editor@example.com (Ed Itor)</managingEditor>
    <item>
      <title>First</title>
      <link>http://example.com/1</link>
      <guid>http://example.com/1</guid>
      <description>Summary one</description>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
      <enclosure url="http://example.com/1.mp3" length="10" type="audio/mpeg"/>
    </item>
    <item>
      <title>Second</title>
    </item>
  </channel>
</rss>`

func TestGofeedRSS(t *testing.T) {
	f, err := NewGofeed().Parse([]byte(gofeedRSS), "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if f.Dialect != feed.RSS200 {
		t.Errorf("Expected RSS200, got: %s", f.Dialect)
	}
	if feed.Str(f.Title) != "Fallback Feed" {
		t.Errorf("Expected title 'Fallback Feed', got: %s", feed.Str(f.Title))
	}
	if feed.Str(f.Description) != "Parsed by gofeed" {
		t.Errorf("Expected description, got: %s", feed.Str(f.Description))
	}
	if f.Subtitle != nil {
		t.Errorf("Expected no subtitle for RSS, got: %s", feed.Str(f.Subtitle))
	}
	if f.EntriesSize != 2 || len(f.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", f.EntriesSize)
	}

	first := f.Entries[0]
	if feed.Str(first.ID) != "http://example.com/1" {
		t.Errorf("Expected guid as id, got: %s", feed.Str(first.ID))
	}
	if feed.Str(first.Summary) != "Summary one" {
		t.Errorf("Expected summary, got: %s", feed.Str(first.Summary))
	}
	if feed.Str(first.Enclosure) != "http://example.com/1.mp3" {
		t.Errorf("Expected enclosure, got: %s", feed.Str(first.Enclosure))
	}
	want := time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)
	if first.CreatedParsed == nil || !first.CreatedParsed.Equal(want) {
		t.Errorf("Expected created %s, got: %v", want, first.CreatedParsed)
	}
	if first.DateParsed == nil || !first.DateParsed.Equal(want) {
		t.Errorf("Expected date to fall back to created, got: %v", first.DateParsed)
	}

	second := f.Entries[1]
	if second.Link != nil || second.Content != nil {
		t.Error("Expected absent fields to stay nil")
	}
}

func TestGofeedUnrecognized(t *testing.T) {
	_, err := NewGofeed().Parse([]byte("<html><body>not a feed</body></html>"), "")

	var parseErr *feed.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected parse error, got: %v", err)
	}
	if parseErr.Reason != feed.ReasonUnrecognizedFormat {
		t.Errorf("Expected unrecognized format, got: %s", parseErr.Reason)
	}
}

func TestDialectOf(t *testing.T) {
	tests := []struct {
		feedType string
		version  string
		expected feed.Dialect
	}{
		{"rss", "0.9", feed.RSS090},
		{"rss", "0.91", feed.RSS091},
		{"rss", "0.94", feed.RSS092},
		{"rss", "1.0", feed.RSS100RDF},
		{"rss", "2.0", feed.RSS200},
		{"atom", "0.3", feed.Atom03},
		{"atom", "1.0", feed.Atom10},
		{"json", "1.1", feed.DialectUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.feedType+"-"+tt.version, func(t *testing.T) {
			if got := dialectOf(tt.feedType, tt.version); got != tt.expected {
				t.Errorf("Expected %s, got: %s", tt.expected, got)
			}
		})
	}
}

func TestChainWithEngine(t *testing.T) {
	secondary := &fakeStrategy{feed: &feed.Feed{Dialect: feed.DialectUnknown}}
	chain := NewChain(feed.NewParser(feed.Options{}), secondary)

	f, err := chain.Parse([]byte(gofeedRSS), "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if f.Dialect != feed.RSS200 || secondary.calls != 0 {
		t.Errorf("Expected the engine to handle a valid feed, got dialect %s and %d fallback calls", f.Dialect, secondary.calls)
	}

	if _, err := chain.Parse([]byte("plain text"), ""); err != nil {
		t.Fatalf("Expected fallback result, got: %v", err)
	}
	if secondary.calls != 1 {
		t.Errorf("Expected one fallback call, got %d", secondary.calls)
	}
}
