package feed

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/sloonz/cfeedparser/app/markup"
)

type field int

const (
	fieldTitle field = iota
	fieldSubtitle
	// fieldSummary is the channel description at feed level.
	fieldSummary
	fieldContent
	fieldID
	fieldCreated
	fieldUpdated
	fieldEnclosure
	numFields
)

// scalars collects the candidate values of one feed or entry. Each field
// keeps the best ranked non-empty candidate; ties go to the one seen first.
type scalars struct {
	values [numFields]*string
	ranks  [numFields]int

	link      *string
	linkTitle *string
	linkRank  int

	author     person
	authorRank int

	// closed is false for an entry closed implicitly by recovery.
	closed bool
}

func better(cur *string, curRank int, value string, rank int) bool {
	switch {
	case cur == nil:
		return true
	case *cur == "":
		return value != "" || rank < curRank
	case value == "":
		return false
	default:
		return rank < curRank
	}
}

func (s *scalars) offer(f field, rank int, value string) {
	value = strings.TrimSpace(value)
	if better(s.values[f], s.ranks[f], value, rank) {
		s.values[f] = &value
		s.ranks[f] = rank
	}
}

// offerLink sets the link and its title together so the title always
// describes the chosen link.
func (s *scalars) offerLink(rank int, href string, title *string) {
	href = strings.TrimSpace(href)
	if !better(s.link, s.linkRank, href, rank) {
		return
	}
	s.link, s.linkRank, s.linkTitle = &href, rank, nil
	if title != nil {
		s.linkTitle = ptr(strings.TrimSpace(*title))
	}
}

func (s *scalars) offerAuthor(rank int, p person) {
	if p.empty() {
		return
	}
	if s.author.empty() || rank < s.authorRank {
		s.author, s.authorRank = p, rank
	}
}

func (s *scalars) get(f field) *string {
	return s.values[f]
}

type extraction struct {
	feed    scalars
	entries []scalars
}

// extractor maps one dialect family's markup to scalar candidates. A nil
// error guarantees a non-nil extraction.
type extractor interface {
	extract(doc *markup.Document, dialect Dialect) (*extraction, error)
}

var extractors = map[Family]extractor{
	FamilyRSS:  rssExtractor{},
	FamilyRDF:  rdfExtractor{},
	FamilyAtom: atomExtractor{},
}

type valueKind int

const (
	// Element text, or its serialised content when it holds markup.
	kindText valueKind = iota
	// Plain character data, for dates and identifiers.
	kindPlain
	// Atom text construct: honours type and mode.
	kindAtomText
	// RSS text link or Atom href link.
	kindLink
	// Atom person construct or free-form author text.
	kindAuthor
	// RSS enclosure url attribute.
	kindEnclosure
)

type rule struct {
	field field
	rank  int
	kind  valueKind
}

type ruleKey struct {
	space string
	local string
}

// ruleSet is keyed by lookup namespace (empty for native elements) and
// lower-cased local name.
type ruleSet map[ruleKey]rule

func merge(sets ...ruleSet) ruleSet {
	out := ruleSet{}
	for _, set := range sets {
		for k, r := range set {
			out[k] = r
		}
	}
	return out
}

// Extension elements recognised in every dialect, at feed and entry level.
var extensionRules = ruleSet{
	{nsDC, "title"}:         {fieldTitle, 3, kindText},
	{nsDC, "description"}:   {fieldSummary, 3, kindText},
	{nsDC, "creator"}:       {rank: 3, kind: kindAuthor},
	{nsDC, "identifier"}:    {fieldID, 3, kindPlain},
	{nsDC, "date"}:          {fieldCreated, 3, kindPlain},
	{nsDCTerms, "created"}:  {fieldCreated, 3, kindPlain},
	{nsDCTerms, "issued"}:   {fieldCreated, 4, kindPlain},
	{nsDCTerms, "modified"}: {fieldUpdated, 3, kindPlain},
	{nsDCTerms, "abstract"}: {fieldSummary, 4, kindText},
	{nsContent, "encoded"}:  {fieldContent, 2, kindText},
	{nsXHTML, "body"}:       {fieldContent, 3, kindText},
	{nsITunes, "subtitle"}:  {fieldSubtitle, 3, kindText},
	{nsITunes, "summary"}:   {fieldSummary, 5, kindText},
	{nsITunes, "author"}:    {rank: 4, kind: kindAuthor},
	{nsAtom10, "title"}:     {fieldTitle, 2, kindAtomText},
	{nsAtom10, "subtitle"}:  {fieldSubtitle, 2, kindAtomText},
	{nsAtom10, "summary"}:   {fieldSummary, 2, kindAtomText},
	{nsAtom10, "content"}:   {fieldContent, 3, kindAtomText},
	{nsAtom10, "id"}:        {fieldID, 2, kindPlain},
	{nsAtom10, "published"}: {fieldCreated, 2, kindPlain},
	{nsAtom10, "updated"}:   {fieldUpdated, 2, kindPlain},
	{nsAtom10, "author"}:    {rank: 2, kind: kindAuthor},
	{nsAtom10, "link"}:      {rank: 2, kind: kindLink},
}

func (rs ruleSet) collect(s *scalars, container *markup.Node, native nativeSet) {
	for _, child := range container.Elements() {
		space := native.space(child)
		if ignoredSpaces[space] {
			continue
		}
		r, ok := rs[ruleKey{space, strings.ToLower(child.Local)}]
		if !ok {
			continue
		}
		r.apply(s, child)
	}
}

func (r rule) apply(s *scalars, n *markup.Node) {
	switch r.kind {
	case kindText:
		s.offer(r.field, r.rank, n.Value())
	case kindPlain:
		s.offer(r.field, r.rank, n.Text())
	case kindAtomText:
		s.offer(r.field, r.rank, atomText(n))
	case kindLink:
		applyLink(s, r.rank, n)
	case kindAuthor:
		s.offerAuthor(r.rank, personOf(n))
	case kindEnclosure:
		if url, ok := n.Attr("", "url"); ok {
			s.offer(fieldEnclosure, r.rank, url)
		}
	}
}

// applyLink reads an Atom style href link when the element carries one,
// and the element text otherwise. Only alternate links are candidates;
// enclosure links fill the enclosure.
func applyLink(s *scalars, rank int, n *markup.Node) {
	href, ok := n.Attr("", "href")
	if !ok {
		s.offerLink(rank, n.Text(), nil)
		return
	}

	rel, _ := n.Attr("", "rel")
	switch strings.ToLower(strings.TrimSpace(rel)) {
	case "", "alternate":
		var title *string
		if t, ok := n.Attr("", "title"); ok {
			title = &t
		}
		s.offerLink(rank, href, title)
	case "enclosure":
		s.offer(fieldEnclosure, rank, href)
	}
}

// atomText returns the value of an Atom text or content construct.
// Base64 payloads are decoded; XHTML loses its wrapping div.
func atomText(n *markup.Node) string {
	if mode, _ := n.Attr("", "mode"); strings.EqualFold(strings.TrimSpace(mode), "base64") {
		return decodeBase64(n.Text())
	}

	typ, _ := n.Attr("", "type")
	typ = strings.ToLower(strings.TrimSpace(typ))
	if i := strings.IndexByte(typ, ';'); i >= 0 {
		typ = strings.TrimSpace(typ[:i])
	}

	switch {
	case typ == "xhtml", typ == "application/xhtml+xml":
		return xhtmlValue(n)
	case typ == "", typ == "text", typ == "html":
		return n.Value()
	case strings.HasPrefix(typ, "text/"), strings.HasSuffix(typ, "+xml"), strings.HasSuffix(typ, "/xml"):
		return n.Value()
	default:
		return decodeBase64(n.Text())
	}
}

func xhtmlValue(n *markup.Node) string {
	var div *markup.Node
	for _, child := range n.Children {
		switch {
		case child.Kind == markup.TextNode && strings.TrimSpace(child.Data) == "":
		case div == nil && child.Kind == markup.ElementNode && strings.EqualFold(child.Local, "div"):
			div = child
		default:
			return n.Value()
		}
	}
	if div == nil {
		return n.Value()
	}
	return div.Value()
}

// decodeBase64 returns the decoded payload, or s unchanged when it is not
// valid base64.
func decodeBase64(s string) string {
	compact := strings.Join(strings.Fields(s), "")
	if compact == "" {
		return s
	}
	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(compact, "="))
		if err != nil {
			return s
		}
	}
	if !utf8.Valid(decoded) {
		return strings.ToValidUTF8(string(decoded), "\uFFFD")
	}
	return string(decoded)
}

func appendEntry(ex *extraction, item *markup.Node, rules ruleSet, native nativeSet, attrs func(*scalars, *markup.Node)) {
	s := scalars{closed: item.Closed}
	if attrs != nil {
		attrs(&s, item)
	}
	rules.collect(&s, item, native)
	ex.entries = append(ex.entries, s)
}

// lastmodAttr reads the lastmod attribute some RSS generators put on
// channels and items.
func lastmodAttr(s *scalars, n *markup.Node) {
	if v, ok := n.Attr("", "lastmod"); ok {
		s.offer(fieldUpdated, 6, v)
	}
}
