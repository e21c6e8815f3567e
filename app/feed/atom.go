package feed

import (
	"github.com/sloonz/cfeedparser/app/markup"
)

var atomFeedRules = merge(extensionRules, ruleSet{
	{"", "title"}:     {fieldTitle, 1, kindAtomText},
	{"", "subtitle"}:  {fieldSubtitle, 1, kindAtomText},
	{"", "tagline"}:   {fieldSubtitle, 1, kindAtomText},
	{"", "link"}:      {rank: 1, kind: kindLink},
	{"", "id"}:        {fieldID, 1, kindPlain},
	{"", "author"}:    {rank: 1, kind: kindAuthor},
	{"", "published"}: {fieldCreated, 1, kindPlain},
	{"", "updated"}:   {fieldUpdated, 1, kindPlain},
	{"", "modified"}:  {fieldUpdated, 1, kindPlain},
})

var atomEntryRules = merge(extensionRules, ruleSet{
	{"", "title"}:     {fieldTitle, 1, kindAtomText},
	{"", "subtitle"}:  {fieldSubtitle, 1, kindAtomText},
	{"", "link"}:      {rank: 1, kind: kindLink},
	{"", "id"}:        {fieldID, 1, kindPlain},
	{"", "author"}:    {rank: 1, kind: kindAuthor},
	{"", "summary"}:   {fieldSummary, 1, kindAtomText},
	{"", "content"}:   {fieldContent, 1, kindAtomText},
	{"", "published"}: {fieldCreated, 1, kindPlain},
	{"", "issued"}:    {fieldCreated, 1, kindPlain},
	{"", "created"}:   {fieldCreated, 2, kindPlain},
	{"", "updated"}:   {fieldUpdated, 1, kindPlain},
	{"", "modified"}:  {fieldUpdated, 1, kindPlain},
})

// atomExtractor handles Atom 0.3 and 1.0. The feed element is both the
// document root and the feed container.
type atomExtractor struct{}

func (atomExtractor) extract(doc *markup.Document, _ Dialect) (*extraction, error) {
	root := doc.Root
	native := newNativeSet(nsAtom10, nsAtom03, root.Space)

	ex := &extraction{}
	atomFeedRules.collect(&ex.feed, root, native)

	for _, child := range root.Elements() {
		if native.is(child, "entry") {
			appendEntry(ex, child, atomEntryRules, native, nil)
		}
	}
	return ex, nil
}
