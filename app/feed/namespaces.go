package feed

import (
	"strings"

	"github.com/sloonz/cfeedparser/app/markup"
)

const (
	nsAtom10  = "http://www.w3.org/2005/Atom"
	nsAtom03  = "http://purl.org/atom/ns#"
	nsRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsRSS10   = "http://purl.org/rss/1.0/"
	nsRSS090  = "http://my.netscape.com/rdf/simple/0.9/"
	nsRSS20   = "http://backend.userland.com/rss2"
	nsDC      = "http://purl.org/dc/elements/1.1/"
	nsDCTerms = "http://purl.org/dc/terms/"
	nsContent = "http://purl.org/rss/1.0/modules/content/"
	nsITunes  = "http://www.itunes.com/dtds/podcast-1.0.dtd"
	nsXHTML   = markup.NSXHTML
	nsMedia   = "http://search.yahoo.com/mrss/"
	nsMyDesc  = "http://schemas.pocketsoap.com/rss/myDescModule/"
)

// Elements in these namespaces never populate a field, even when their
// local name matches one.
var ignoredSpaces = map[string]bool{
	nsMedia:  true,
	nsMyDesc: true,
}

var spaceAliases = func() map[string]string {
	known := []string{
		nsAtom10, nsAtom03, nsRDF, nsRSS10, nsRSS090, nsRSS20,
		nsDC, nsDCTerms, nsContent, nsITunes, nsXHTML, nsMedia, nsMyDesc,
	}
	m := make(map[string]string, len(known))
	for _, space := range known {
		m[spaceKey(space)] = space
	}
	return m
}()

// spaceKey folds the variations publishers introduce in well-known
// namespace URIs: scheme, case and trailing separators.
func spaceKey(space string) string {
	s := strings.ToLower(strings.TrimSpace(space))
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "https://")
	return strings.TrimRight(s, "/#")
}

func canonicalSpace(space string) string {
	if space == "" {
		return ""
	}
	if canonical, ok := spaceAliases[spaceKey(space)]; ok {
		return canonical
	}
	return space
}

// nativeSet holds the canonical namespaces whose elements belong to the
// dialect itself rather than to an extension.
type nativeSet map[string]bool

func newNativeSet(spaces ...string) nativeSet {
	set := nativeSet{"": true}
	for _, space := range spaces {
		set[canonicalSpace(space)] = true
	}
	return set
}

// space returns the lookup namespace of n: empty for native elements, the
// canonical URI otherwise.
func (s nativeSet) space(n *markup.Node) string {
	space := canonicalSpace(n.Space)
	if s[space] {
		return ""
	}
	return space
}

func (s nativeSet) is(n *markup.Node, local string) bool {
	return n.Kind == markup.ElementNode && s.space(n) == "" && strings.EqualFold(n.Local, local)
}

func (s nativeSet) find(parent *markup.Node, local string) *markup.Node {
	for _, child := range parent.Elements() {
		if s.is(child, local) {
			return child
		}
	}
	return nil
}
