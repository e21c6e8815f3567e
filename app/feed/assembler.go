package feed

import (
	"time"

	"github.com/sloonz/cfeedparser/app/dates"
	"github.com/sloonz/cfeedparser/app/markup"
)

type assembler struct {
	dialect   Dialect
	charset   string
	truncated bool
}

func (a assembler) assemble(ex *extraction) *Feed {
	f := &Feed{
		Title:       copyStr(ex.feed.get(fieldTitle)),
		Subtitle:    copyStr(ex.feed.get(fieldSubtitle)),
		Description: copyStr(ex.feed.get(fieldSummary)),
		Link:        copyStr(ex.feed.link),
		LinkTitle:   copyStr(ex.feed.linkTitle),
		ID:          copyStr(ex.feed.get(fieldID)),
		Created:     copyStr(ex.feed.get(fieldCreated)),
		Updated:     copyStr(ex.feed.get(fieldUpdated)),
		Dialect:     a.dialect,
		Charset:     a.charset,
	}
	f.CreatedParsed = a.parseDate(f.Created)
	f.UpdatedParsed = a.parseDate(f.Updated)
	f.Date, f.DateParsed = derivedDate(f.Created, f.CreatedParsed, f.Updated, f.UpdatedParsed)
	f.AuthorName, f.AuthorEmail, f.AuthorURL, f.Author = authorFields(ex.feed.author)

	f.Entries = make([]Entry, 0, len(ex.entries))
	for i := range ex.entries {
		s := &ex.entries[i]
		// A truncated document's trailing entry is incomplete.
		if a.truncated && !s.closed {
			continue
		}
		f.Entries = append(f.Entries, a.entry(s, f))
	}
	f.EntriesSize = len(f.Entries)
	return f
}

func (a assembler) entry(s *scalars, f *Feed) Entry {
	e := Entry{
		ID:        copyStr(s.get(fieldID)),
		Title:     copyStr(s.get(fieldTitle)),
		Link:      copyStr(s.link),
		LinkTitle: copyStr(s.linkTitle),
		Summary:   copyStr(s.get(fieldSummary)),
		Content:   copyStr(s.get(fieldContent)),
		Subtitle:  copyStr(s.get(fieldSubtitle)),
		Enclosure: copyStr(s.get(fieldEnclosure)),
		Created:   copyStr(s.get(fieldCreated)),
		Updated:   copyStr(s.get(fieldUpdated)),
	}
	e.CreatedParsed = a.parseDate(e.Created)
	e.UpdatedParsed = a.parseDate(e.Updated)
	e.Date, e.DateParsed = derivedDate(e.Created, e.CreatedParsed, e.Updated, e.UpdatedParsed)
	e.AuthorName, e.AuthorEmail, e.AuthorURL, e.Author = authorFields(s.author)

	if s.author.empty() && (f.Author != nil || f.AuthorURL != nil) {
		e.AuthorName = copyStr(f.AuthorName)
		e.AuthorEmail = copyStr(f.AuthorEmail)
		e.AuthorURL = copyStr(f.AuthorURL)
		e.Author = copyStr(f.Author)
		e.AuthorInherited = true
	}
	if e.LinkTitle == nil && f.LinkTitle != nil && e.Link != nil && f.Link != nil && *e.Link == *f.Link {
		e.LinkTitle = copyStr(f.LinkTitle)
	}
	return e
}

func (a assembler) parseDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	return dates.Parse(*raw, a.dialect.Grammar())
}

// derivedDate is updated when present, created otherwise.
func derivedDate(created *string, createdParsed *time.Time, updated *string, updatedParsed *time.Time) (*string, *time.Time) {
	if updated != nil {
		return copyStr(updated), copyTime(updatedParsed)
	}
	return copyStr(created), copyTime(createdParsed)
}

func authorFields(p person) (name, email, url, display *string) {
	if p.name != "" {
		name = ptr(p.name)
	}
	if p.email != "" {
		email = ptr(p.email)
	}
	if p.url != "" {
		url = ptr(p.url)
	}
	if d := p.display(); d != "" {
		display = ptr(d)
	}
	return name, email, url, display
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	return ptr(*s)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func newAssembler(doc *markup.Document, dialect Dialect, charset string) assembler {
	return assembler{dialect: dialect, charset: charset, truncated: doc.Truncated}
}
