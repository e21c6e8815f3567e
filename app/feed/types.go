package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/sloonz/cfeedparser/app/dates"
)

type Dialect int

const (
	DialectUnknown Dialect = iota
	RSS090
	RSS091
	RSS092
	RSS100RDF
	RSS200
	Atom03
	Atom10
)

var dialectNames = map[Dialect]string{
	DialectUnknown: "UNKNOWN",
	RSS090:         "RSS090",
	RSS091:         "RSS091",
	RSS092:         "RSS092",
	RSS100RDF:      "RSS100_RDF",
	RSS200:         "RSS200",
	Atom03:         "ATOM03",
	Atom10:         "ATOM10",
}

func (d Dialect) String() string {
	if name, ok := dialectNames[d]; ok {
		return name
	}
	return dialectNames[DialectUnknown]
}

func (d Dialect) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Dialect) UnmarshalText(text []byte) error {
	for dialect, name := range dialectNames {
		if strings.EqualFold(name, string(text)) {
			*d = dialect
			return nil
		}
	}
	return fmt.Errorf("unknown dialect %q", text)
}

type Family int

const (
	FamilyRSS Family = iota
	FamilyRDF
	FamilyAtom
)

func (d Dialect) Family() Family {
	switch d {
	case RSS090, RSS100RDF:
		return FamilyRDF
	case Atom03, Atom10:
		return FamilyAtom
	default:
		return FamilyRSS
	}
}

// Grammar is the date grammar a dialect prescribes.
func (d Dialect) Grammar() dates.Grammar {
	switch d {
	case Atom03, Atom10, RSS100RDF, RSS090:
		return dates.W3CDTF
	default:
		return dates.RFC822
	}
}

// Feed is the normalised form of a parsed document. Nil string fields are
// absent in the source; present ones hold the trimmed text, which may be
// empty when the element was. A Feed owns its Entries.
type Feed struct {
	Title       *string `json:"title" yaml:"title"`
	Subtitle    *string `json:"subtitle" yaml:"subtitle"`
	Description *string `json:"description" yaml:"description"`
	Link        *string `json:"link" yaml:"link"`
	LinkTitle   *string `json:"link_title" yaml:"link_title"`
	ID          *string `json:"id" yaml:"id"`

	Created       *string    `json:"created" yaml:"created"`
	Updated       *string    `json:"updated" yaml:"updated"`
	CreatedParsed *time.Time `json:"created_parsed" yaml:"created_parsed"`
	UpdatedParsed *time.Time `json:"updated_parsed" yaml:"updated_parsed"`
	Date          *string    `json:"date" yaml:"date"`
	DateParsed    *time.Time `json:"date_parsed" yaml:"date_parsed"`

	AuthorName  *string `json:"author_name" yaml:"author_name"`
	AuthorEmail *string `json:"author_email" yaml:"author_email"`
	AuthorURL   *string `json:"author_url" yaml:"author_url"`
	Author      *string `json:"author" yaml:"author"`

	Entries     []Entry `json:"entries" yaml:"entries"`
	EntriesSize int     `json:"entries_size" yaml:"entries_size"`

	Dialect Dialect `json:"dialect" yaml:"dialect"`
	Charset string  `json:"charset" yaml:"charset"`
}

type Entry struct {
	ID        *string `json:"id" yaml:"id"`
	Title     *string `json:"title" yaml:"title"`
	Link      *string `json:"link" yaml:"link"`
	Summary   *string `json:"summary" yaml:"summary"`
	Content   *string `json:"content" yaml:"content"`
	Subtitle  *string `json:"subtitle" yaml:"subtitle"`
	LinkTitle *string `json:"link_title" yaml:"link_title"`
	Enclosure *string `json:"enclosure" yaml:"enclosure"`

	Created       *string    `json:"created" yaml:"created"`
	Updated       *string    `json:"updated" yaml:"updated"`
	CreatedParsed *time.Time `json:"created_parsed" yaml:"created_parsed"`
	UpdatedParsed *time.Time `json:"updated_parsed" yaml:"updated_parsed"`
	Date          *string    `json:"date" yaml:"date"`
	DateParsed    *time.Time `json:"date_parsed" yaml:"date_parsed"`

	AuthorName  *string `json:"author_name" yaml:"author_name"`
	AuthorEmail *string `json:"author_email" yaml:"author_email"`
	AuthorURL   *string `json:"author_url" yaml:"author_url"`
	Author      *string `json:"author" yaml:"author"`
	// AuthorInherited is set when the author fields were copied from the
	// feed because the entry had none of its own.
	AuthorInherited bool `json:"author_inherited" yaml:"author_inherited"`
}

// Str returns the value of a nullable field, or "" when it is absent.
func Str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string {
	return &s
}
