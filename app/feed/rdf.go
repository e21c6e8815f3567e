package feed

import (
	"github.com/sloonz/cfeedparser/app/markup"
)

var rdfChannelRules = merge(extensionRules, ruleSet{
	{"", "title"}:       {fieldTitle, 1, kindText},
	{"", "description"}: {fieldSummary, 1, kindText},
	{"", "link"}:        {rank: 1, kind: kindLink},
})

var rdfItemRules = merge(extensionRules, ruleSet{
	{"", "title"}:       {fieldTitle, 1, kindText},
	{"", "description"}: {fieldSummary, 1, kindText},
	{"", "link"}:        {rank: 1, kind: kindLink},
})

// rdfExtractor handles RSS 0.90 and RSS 1.0, where items are siblings of
// the channel and dates come from Dublin Core.
type rdfExtractor struct{}

func (rdfExtractor) extract(doc *markup.Document, dialect Dialect) (*extraction, error) {
	root := doc.Root
	native := newNativeSet(nsRSS10, nsRSS090)

	channel := native.find(root, "channel")
	if channel == nil {
		return nil, newParseError(ReasonStructural, "%s document has no channel element", dialect)
	}

	ex := &extraction{}
	aboutAttr(&ex.feed, channel)
	rdfChannelRules.collect(&ex.feed, channel, native)

	for _, child := range root.Elements() {
		if child == channel {
			// Some publishers nest items in the channel.
			for _, item := range channel.Elements() {
				if native.is(item, "item") {
					appendEntry(ex, item, rdfItemRules, native, aboutAttr)
				}
			}
			continue
		}
		if native.is(child, "item") {
			appendEntry(ex, child, rdfItemRules, native, aboutAttr)
		}
	}
	return ex, nil
}

// aboutAttr uses rdf:about as the identifier unless an element supplies a
// better one.
func aboutAttr(s *scalars, n *markup.Node) {
	if v, ok := n.Attr(nsRDF, "about"); ok {
		s.offer(fieldID, 5, v)
	}
	lastmodAttr(s, n)
}
