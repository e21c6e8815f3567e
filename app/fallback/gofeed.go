package fallback

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/sloonz/cfeedparser/app/charset"
	"github.com/sloonz/cfeedparser/app/feed"
)

// Gofeed is a lenient secondary strategy backed by gofeed. It maps gofeed's
// universal feed onto the normalised schema; fields gofeed does not expose
// (link titles, feed ids) stay absent.
type Gofeed struct {
	gofeedParser *gofeed.Parser
}

func NewGofeed() *Gofeed {
	return &Gofeed{
		gofeedParser: gofeed.NewParser(),
	}
}

func (g *Gofeed) Parse(data []byte, hint string) (*feed.Feed, error) {
	parsed, err := g.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
			return nil, &feed.ParseError{Reason: feed.ReasonUnrecognizedFormat, Message: "unrecognized feed format: " + err.Error()}
		}
		return nil, &feed.ParseError{Reason: feed.ReasonStructural, Message: fmt.Sprintf("failed to parse feed: %v", err)}
	}

	dialect := dialectOf(parsed.FeedType, parsed.FeedVersion)
	out := &feed.Feed{
		Title:   optional(parsed.Title),
		Link:    optional(parsed.Link),
		Dialect: dialect,
		Charset: charset.Resolve(data, hint).Charset,
	}
	// gofeed files the Atom subtitle under Description.
	if dialect.Family() == feed.FamilyAtom {
		out.Subtitle = optional(parsed.Description)
	} else {
		out.Description = optional(parsed.Description)
	}
	out.Created, out.CreatedParsed = optional(parsed.Published), utc(parsed.PublishedParsed)
	out.Updated, out.UpdatedParsed = optional(parsed.Updated), utc(parsed.UpdatedParsed)
	out.Date, out.DateParsed = derived(out.Created, out.CreatedParsed, out.Updated, out.UpdatedParsed)
	out.AuthorName, out.AuthorEmail, out.Author = authorOf(parsed.Authors)

	out.Entries = make([]feed.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		out.Entries = append(out.Entries, g.normalizeItem(item, out))
	}
	out.EntriesSize = len(out.Entries)

	return out, nil
}

func (g *Gofeed) normalizeItem(item *gofeed.Item, parent *feed.Feed) feed.Entry {
	e := feed.Entry{
		ID:      optional(item.GUID),
		Title:   optional(item.Title),
		Link:    optional(item.Link),
		Summary: optional(item.Description),
		Content: optional(item.Content),
	}

	e.Created, e.CreatedParsed = optional(item.Published), utc(item.PublishedParsed)
	e.Updated, e.UpdatedParsed = optional(item.Updated), utc(item.UpdatedParsed)
	e.Date, e.DateParsed = derived(e.Created, e.CreatedParsed, e.Updated, e.UpdatedParsed)

	e.AuthorName, e.AuthorEmail, e.Author = authorOf(item.Authors)
	if e.Author == nil && parent.Author != nil {
		e.AuthorName, e.AuthorEmail, e.Author = parent.AuthorName, parent.AuthorEmail, parent.Author
		e.AuthorInherited = true
	}

	if len(item.Enclosures) > 0 {
		e.Enclosure = optional(item.Enclosures[0].URL)
	}

	return e
}

// dialectOf maps gofeed's type and version strings onto a Dialect.
func dialectOf(feedType, version string) feed.Dialect {
	switch feedType {
	case "rss":
		switch version {
		case "0.9", "0.90":
			return feed.RSS090
		case "0.91":
			return feed.RSS091
		case "0.92", "0.93", "0.94":
			return feed.RSS092
		case "1.0":
			return feed.RSS100RDF
		default:
			return feed.RSS200
		}
	case "atom":
		if version == "0.3" {
			return feed.Atom03
		}
		return feed.Atom10
	default:
		return feed.DialectUnknown
	}
}

func authorOf(people []*gofeed.Person) (name, email, display *string) {
	for _, p := range people {
		if p == nil {
			continue
		}
		n, e := strings.TrimSpace(p.Name), strings.TrimSpace(p.Email)
		if n == "" && e == "" {
			continue
		}
		return optional(n), optional(e), optional(feed.ComposeAuthor(n, e, ""))
	}
	return nil, nil, nil
}

func derived(created *string, createdParsed *time.Time, updated *string, updatedParsed *time.Time) (*string, *time.Time) {
	if updated != nil {
		return updated, updatedParsed
	}
	return created, createdParsed
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
