package feed

import (
	"regexp"
	"strings"

	"github.com/sloonz/cfeedparser/app/markup"
)

type person struct {
	name  string
	email string
	url   string
	// text is the free-form author text, kept when no structured part
	// could be read.
	text string
}

func (p person) empty() bool {
	return p.name == "" && p.email == "" && p.url == "" && p.text == ""
}

// display is "name (email)", falling back to whichever part exists and
// finally to the free-form text.
func (p person) display() string {
	switch {
	case p.name != "" && p.email != "":
		return p.name + " (" + p.email + ")"
	case p.name != "":
		return p.name
	case p.email != "":
		return p.email
	default:
		return p.text
	}
}

// ComposeAuthor builds the display author from its parts. Strategies that
// fill a Feed without this package's extractors use it to stay consistent.
func ComposeAuthor(name, email, text string) string {
	return person{name: name, email: email, text: text}.display()
}

var (
	emailThenName = regexp.MustCompile(`^(?:mailto:)?([^\s()<>]+@[^\s()<>]+)\s*\(\s*(.*?)\s*\)$`)
	nameThenEmail = regexp.MustCompile(`^(.*?)\s*<\s*(?:mailto:)?([^\s<>]+@[^\s<>]+)\s*>$`)
	bareEmail     = regexp.MustCompile(`^(?:mailto:)?([^\s()<>]+@[^\s()<>]+)$`)
)

// personOf reads an author element: an Atom person construct when it has
// name, email or uri children, free-form text otherwise.
func personOf(n *markup.Node) person {
	var p person
	for _, child := range n.Elements() {
		value := strings.TrimSpace(child.Text())
		if value == "" {
			continue
		}
		switch strings.ToLower(child.Local) {
		case "name":
			if p.name == "" {
				p.name = value
			}
		case "email":
			if p.email == "" {
				p.email = value
			}
		case "uri", "url", "homepage":
			if p.url == "" {
				p.url = value
			}
		}
	}
	if !p.empty() {
		return p
	}
	return splitAuthor(n.Text())
}

// splitAuthor recognises the "email (Name)" form RSS prescribes and the
// "Name <email>" form found in the wild.
func splitAuthor(raw string) person {
	text := strings.Join(strings.Fields(raw), " ")
	if text == "" {
		return person{}
	}
	if m := emailThenName.FindStringSubmatch(text); m != nil {
		return person{name: m[2], email: m[1], text: text}
	}
	if m := nameThenEmail.FindStringSubmatch(text); m != nil {
		return person{name: m[1], email: m[2], text: text}
	}
	if m := bareEmail.FindStringSubmatch(text); m != nil {
		return person{email: m[1], text: text}
	}
	return person{text: text}
}
