package feed

import (
	"github.com/sloonz/cfeedparser/app/markup"
)

var rssChannelRules = merge(extensionRules, ruleSet{
	{"", "title"}:          {fieldTitle, 1, kindText},
	{"", "description"}:    {fieldSummary, 1, kindText},
	{"", "link"}:           {rank: 1, kind: kindLink},
	{"", "managingeditor"}: {rank: 1, kind: kindAuthor},
	{"", "pubdate"}:        {fieldCreated, 1, kindPlain},
	{"", "lastbuilddate"}:  {fieldUpdated, 1, kindPlain},
})

var rssItemRules = merge(extensionRules, ruleSet{
	{"", "title"}:       {fieldTitle, 1, kindText},
	{"", "subtitle"}:    {fieldSubtitle, 1, kindText},
	{"", "description"}: {fieldSummary, 1, kindText},
	{"", "link"}:        {rank: 1, kind: kindLink},
	{"", "guid"}:        {fieldID, 1, kindPlain},
	{"", "author"}:      {rank: 1, kind: kindAuthor},
	{"", "pubdate"}:     {fieldCreated, 1, kindPlain},
	{"", "enclosure"}:   {rank: 1, kind: kindEnclosure},
	{"", "fullitem"}:    {fieldContent, 3, kindText},
	{"", "body"}:        {fieldContent, 4, kindText},
})

// rssExtractor handles RSS 0.91, 0.92 and 2.0. Items are read from the
// channel and, for feeds that misplace them, from the root.
type rssExtractor struct{}

func (rssExtractor) extract(doc *markup.Document, dialect Dialect) (*extraction, error) {
	root := doc.Root
	native := newNativeSet(root.Space)

	channel := native.find(root, "channel")
	if channel == nil {
		return nil, newParseError(ReasonStructural, "%s document has no channel element", dialect)
	}
	native[canonicalSpace(channel.Space)] = true

	ex := &extraction{}
	lastmodAttr(&ex.feed, channel)
	rssChannelRules.collect(&ex.feed, channel, native)

	for _, child := range root.Elements() {
		if child == channel {
			for _, item := range channel.Elements() {
				if native.is(item, "item") {
					appendEntry(ex, item, rssItemRules, native, lastmodAttr)
				}
			}
			continue
		}
		if native.is(child, "item") {
			appendEntry(ex, child, rssItemRules, native, lastmodAttr)
		}
	}
	return ex, nil
}
