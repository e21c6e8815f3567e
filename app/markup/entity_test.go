package markup

import (
	"errors"
	"strings"
	"testing"
)

func TestDoctypeEntities(t *testing.T) {
	doc := mustParse(t, `<?xml version="1.0"?>
<!DOCTYPE rss [
  <!ENTITY site "Example &amp; Co">
  <!ENTITY tagline "&site; &#8212; news">
  <!ENTITY ext SYSTEM "file:///etc/passwd">
]>
<rss><channel><title>&tagline;</title><description>&ext;</description></channel></rss>`)

	channel := child(doc.Root, "channel")
	if got := child(channel, "title").Text(); got != "Example & Co \u2014 news" {
		t.Errorf("Expected expanded entity, got: %q", got)
	}
	if got := child(channel, "description").Text(); got != "&ext;" {
		t.Errorf("Expected external entity to stay unexpanded, got: %q", got)
	}
}

func TestEntityExpansionBomb(t *testing.T) {
	input := `<!DOCTYPE lolz [
 <!ENTITY lol "lol">
 <!ENTITY lol1 "&lol;&lol;&lol;&lol;&lol;&lol;&lol;&lol;&lol;&lol;">
 <!ENTITY lol2 "&lol1;&lol1;&lol1;&lol1;&lol1;&lol1;&lol1;&lol1;&lol1;&lol1;">
 <!ENTITY lol3 "&lol2;&lol2;&lol2;&lol2;&lol2;&lol2;&lol2;&lol2;&lol2;&lol2;">
 <!ENTITY lol4 "&lol3;&lol3;&lol3;&lol3;&lol3;&lol3;&lol3;&lol3;&lol3;&lol3;">
 <!ENTITY lol5 "&lol4;&lol4;&lol4;&lol4;&lol4;&lol4;&lol4;&lol4;&lol4;&lol4;">
 <!ENTITY lol6 "&lol5;&lol5;&lol5;&lol5;&lol5;&lol5;&lol5;&lol5;&lol5;&lol5;">
 <!ENTITY lol7 "&lol6;&lol6;&lol6;&lol6;&lol6;&lol6;&lol6;&lol6;&lol6;&lol6;">
]>
<rss><channel><title>&lol7;</title></channel></rss>`

	t.Run("depth", func(t *testing.T) {
		_, err := Parse(input, Limits{MaxEntityDepth: 3})
		if !errors.Is(err, ErrLimitExceeded) {
			t.Fatalf("Expected ErrLimitExceeded, got: %v", err)
		}
	})

	t.Run("size", func(t *testing.T) {
		_, err := Parse(input, Limits{MaxEntityDepth: 20, MaxEntityBytes: 64 << 10})
		if !errors.Is(err, ErrLimitExceeded) {
			t.Fatalf("Expected ErrLimitExceeded, got: %v", err)
		}
	})
}

func TestEntityRepeatedReferences(t *testing.T) {
	block := strings.Repeat("x", 100)
	input := `<!DOCTYPE rss [ <!ENTITY block "` + block + `"> ]>
<rss><channel><title>` + strings.Repeat("&block;", 20) + `</title></channel></rss>`

	t.Run("within budget", func(t *testing.T) {
		doc := mustParse(t, input)
		if got := child(child(doc.Root, "channel"), "title").Text(); got != strings.Repeat(block, 20) {
			t.Errorf("Expected 20 expansions, got %d bytes", len(got))
		}
	})

	t.Run("budget spans references", func(t *testing.T) {
		_, err := Parse(input, Limits{MaxEntityBytes: 1000})
		if !errors.Is(err, ErrLimitExceeded) {
			t.Fatalf("Expected ErrLimitExceeded, got: %v", err)
		}
	})
}

func TestEntityInAttribute(t *testing.T) {
	t.Run("expanded", func(t *testing.T) {
		doc := mustParse(t, `<!DOCTYPE feed [ <!ENTITY base "http://example.com"> ]>
<feed><link href="&base;/posts?a=1&amp;b=2"/></feed>`)

		href, _ := child(doc.Root, "link").Attr("", "href")
		if href != "http://example.com/posts?a=1&b=2" {
			t.Errorf("Expected expanded href, got: %q", href)
		}
	})

	t.Run("charged", func(t *testing.T) {
		input := `<!DOCTYPE feed [ <!ENTITY big "` + strings.Repeat("y", 300) + `"> ]>
<feed>` + strings.Repeat(`<link href="&big;"/>`, 10) + `</feed>`

		_, err := Parse(input, Limits{MaxEntityBytes: 2048})
		if !errors.Is(err, ErrLimitExceeded) {
			t.Fatalf("Expected ErrLimitExceeded, got: %v", err)
		}
	})
}

func TestEntityMarkerWithoutDeclaration(t *testing.T) {
	doc := mustParse(t, "<rss><title>a\uFDD0site\uFDD1b</title></rss>")

	if got := child(doc.Root, "title").Text(); got != "a\uFDD0site\uFDD1b" {
		t.Errorf("Expected text to be left alone, got: %q", got)
	}
}

func TestEntityRecursion(t *testing.T) {
	input := `<!DOCTYPE x [ <!ENTITY a "&b;"> <!ENTITY b "&a;"> ]><rss/>`

	_, err := Parse(input, Limits{})
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("Expected ErrLimitExceeded, got: %v", err)
	}
}

func TestEntityCount(t *testing.T) {
	input := `<!DOCTYPE x [ <!ENTITY a "1"> <!ENTITY b "2"> <!ENTITY c "3"> ]><rss/>`

	_, err := Parse(input, Limits{MaxEntities: 2})
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("Expected ErrLimitExceeded, got: %v", err)
	}
}
