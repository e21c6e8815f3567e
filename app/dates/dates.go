package dates

import (
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
)

// Grammar selects which family of layouts is tried first.
type Grammar int

const (
	RFC822 Grammar = iota
	W3CDTF
)

func (g Grammar) String() string {
	if g == W3CDTF {
		return "w3cdtf"
	}
	return "rfc822"
}

var rfc822Layouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04 -0700",
	"Mon, 2 Jan 06 15:04:05 -0700",
	"Mon, 2 Jan 06 15:04 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04 -0700",
	"2 Jan 06 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -07:00",
	"Mon, 2 January 2006 15:04:05 -0700",
	"Monday, 2 Jan 2006 15:04:05 -0700",
	"Monday, 2 January 2006 15:04:05 -0700",
}

var w3cdtfLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02",
	"2006-01",
	"2006",
}

// Real-world deviations from either grammar. Layouts without a zone are
// read as UTC.
var fallbackLayouts = []string{
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05 -0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"Mon, 2 Jan 2006 15:04:05",
	"Mon, 2 Jan 2006 15:04",
	"Mon, 2 Jan 2006",
	"2 Jan 2006 15:04:05",
	"2 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 15:04:05 2006",
	"Mon Jan 2 15:04:05 -0700 2006",
	"Mon, Jan 2 2006 15:04:05 -0700",
	"Jan 2, 2006 15:04:05 -0700",
	"Jan 2, 2006 15:04:05",
	"January 2, 2006 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Parse normalises raw date text to an absolute timestamp. The grammar of
// the feed's dialect is tried first, then the other grammar, then the
// fallback layouts and finally a free-form parser. Text that matches
// nothing yields nil.
func Parse(raw string, grammar Grammar) *time.Time {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return nil
	}

	s = translateNames(s)
	s = normalizeZone(s)

	primary, secondary := rfc822Layouts, w3cdtfLayouts
	if grammar == W3CDTF {
		primary, secondary = w3cdtfLayouts, rfc822Layouts
	}

	for _, layouts := range [][]string{primary, secondary, fallbackLayouts} {
		if t, ok := tryLayouts(s, layouts); ok {
			return &t
		}
	}

	if stripped, ok := stripZone(s); ok {
		for _, layouts := range [][]string{primary, secondary, fallbackLayouts} {
			if t, ok := tryLayouts(stripped, layouts); ok {
				return &t
			}
		}
	}

	if t, ok := freeForm(s); ok {
		return &t
	}
	return nil
}

func tryLayouts(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func freeForm(s string) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil || t.Year() < 1 || t.Year() > 9999 {
		return time.Time{}, false
	}
	return t, true
}

var zoneOffsets = map[string]string{
	"UT":   "+0000",
	"UTC":  "+0000",
	"GMT":  "+0000",
	"Z":    "+0000",
	"EST":  "-0500",
	"EDT":  "-0400",
	"CST":  "-0600",
	"CDT":  "-0500",
	"MST":  "-0700",
	"MDT":  "-0600",
	"PST":  "-0800",
	"PDT":  "-0700",
	"AKST": "-0900",
	"AKDT": "-0800",
	"HST":  "-1000",
	"WET":  "+0000",
	"WEST": "+0100",
	"BST":  "+0100",
	"CET":  "+0100",
	"CEST": "+0200",
	"MET":  "+0100",
	"MEST": "+0200",
	"EET":  "+0200",
	"EEST": "+0300",
	"MSK":  "+0300",
	"JST":  "+0900",
	"KST":  "+0900",
	"AEST": "+1000",
	"AEDT": "+1100",
	"NZST": "+1200",
	"NZDT": "+1300",
}

// normalizeZone rewrites a trailing named or military zone into a numeric
// offset and drops a trailing parenthesised zone comment.
func normalizeZone(s string) string {
	if i := strings.LastIndex(s, " ("); i > 0 && strings.HasSuffix(s, ")") {
		s = s[:i]
	}

	i := strings.LastIndexByte(s, ' ')
	if i < 0 {
		return s
	}
	head, zone := s[:i], strings.ToUpper(s[i+1:])

	if off, ok := zoneOffsets[zone]; ok {
		return head + " " + off
	}
	if off, ok := militaryOffset(zone); ok {
		return head + " " + off
	}
	// "GMT+2", "UTC-05:00"
	for _, prefix := range []string{"GMT", "UTC"} {
		if rest, ok := strings.CutPrefix(zone, prefix); ok && len(rest) > 1 && (rest[0] == '+' || rest[0] == '-') {
			if off, ok := numericOffset(rest); ok {
				return head + " " + off
			}
		}
	}
	return s
}

func militaryOffset(zone string) (string, bool) {
	if len(zone) != 1 {
		return "", false
	}
	c := zone[0]
	var hours int
	switch {
	case c >= 'A' && c <= 'I':
		hours = -int(c-'A') - 1
	case c >= 'K' && c <= 'M':
		hours = -int(c-'K') - 10
	case c >= 'N' && c <= 'Y':
		hours = int(c-'N') + 1
	default:
		return "", false
	}
	return formatOffset(hours * 60), true
}

func numericOffset(s string) (string, bool) {
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(s[1:], ":", "")
	var h, m int
	switch len(digits) {
	case 1, 2:
		h = atoi(digits)
	case 3, 4:
		h, m = atoi(digits[:len(digits)-2]), atoi(digits[len(digits)-2:])
	default:
		return "", false
	}
	if h < 0 || m < 0 || h > 14 || m > 59 {
		return "", false
	}
	return formatOffset(sign * (h*60 + m)), true
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return -1
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func formatOffset(minutes int) string {
	sign := byte('+')
	if minutes < 0 {
		sign = '-'
		minutes = -minutes
	}
	return string([]byte{sign,
		byte('0' + minutes/600), byte('0' + minutes/60%10),
		byte('0' + minutes%60/10), byte('0' + minutes%10)})
}

// stripZone drops a trailing token that could not be read as a zone, so
// the rest of the date still parses.
func stripZone(s string) (string, bool) {
	i := strings.LastIndexByte(s, ' ')
	if i < 0 {
		return "", false
	}
	last := s[i+1:]
	for _, r := range last {
		if unicode.IsLetter(r) || r == '+' || r == '-' || r == ':' {
			return s[:i], true
		}
	}
	return "", false
}
