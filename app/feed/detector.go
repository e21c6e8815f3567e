package feed

import (
	"strings"

	"github.com/sloonz/cfeedparser/app/markup"
)

// Detect classifies a document by its root element.
func Detect(doc *markup.Document) (Dialect, error) {
	if doc == nil || doc.Root == nil {
		return DialectUnknown, newParseError(ReasonUnrecognizedFormat, "unrecognized feed format: document has no root element")
	}
	root := doc.Root
	space := canonicalSpace(root.Space)

	switch strings.ToLower(root.Local) {
	case "rdf":
		if space != "" && space != nsRDF {
			break
		}
		for _, child := range root.Elements() {
			if canonicalSpace(child.Space) == nsRSS090 {
				return RSS090, nil
			}
		}
		return RSS100RDF, nil

	case "rss":
		version, _ := root.Attr("", "version")
		switch strings.TrimSpace(version) {
		case "0.91":
			return RSS091, nil
		case "0.92", "0.93", "0.94":
			return RSS092, nil
		default:
			return RSS200, nil
		}

	case "feed":
		version, _ := root.Attr("", "version")
		switch {
		case space == nsAtom10:
			return Atom10, nil
		case space == nsAtom03, strings.TrimSpace(version) == "0.3":
			return Atom03, nil
		default:
			return Atom10, nil
		}
	}

	return DialectUnknown, newParseError(ReasonUnrecognizedFormat, "unrecognized feed format: unexpected root element <%s>", qualified(root))
}

func qualified(n *markup.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Local
	}
	return n.Local
}
