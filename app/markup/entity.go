package markup

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Only internal general entities are honoured. Parameter entities and
// external (SYSTEM/PUBLIC) entities never match.
var (
	entityDecl = regexp.MustCompile(`<!ENTITY\s+([^\s%"'<>]+)\s+(?:"([^"]*)"|'([^']*)')\s*>`)
	entityRef  = regexp.MustCompile(`&(#[xX][0-9a-fA-F]+|#[0-9]+|[A-Za-z_:][A-Za-z0-9_:.\-]*);`)
)

var predefinedEntities = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"apos": "'",
	"quot": `"`,
}

type entityExpander struct {
	limits   Limits
	raw      map[string]string
	resolved map[string]string
	height   map[string]int
	active   map[string]bool
	produced int
}

// declareEntities expands the internal entity declarations of a DOCTYPE
// directive into table. Expansion is bounded in depth, count and total size.
func declareEntities(directive string, table map[string]string, limits Limits) error {
	matches := entityDecl.FindAllStringSubmatch(directive, -1)
	if len(matches) == 0 {
		return nil
	}
	if len(matches) > limits.MaxEntities {
		return fmt.Errorf("%d entity declarations, limit %d: %w", len(matches), limits.MaxEntities, ErrLimitExceeded)
	}

	e := &entityExpander{
		limits:   limits,
		raw:      make(map[string]string, len(matches)),
		resolved: make(map[string]string, len(matches)),
		height:   make(map[string]int, len(matches)),
		active:   make(map[string]bool),
	}
	var order []string
	for _, m := range matches {
		if _, dup := e.raw[m[1]]; dup {
			// first declaration is binding
			continue
		}
		value := m[2]
		if value == "" {
			value = m[3]
		}
		e.raw[m[1]] = value
		order = append(order, m[1])
	}

	for _, name := range order {
		value, _, err := e.expand(name)
		if err != nil {
			return err
		}
		table[name] = value
	}
	return nil
}

// expand resolves an entity and reports how deeply its references nest.
func (e *entityExpander) expand(name string) (string, int, error) {
	if v, ok := e.resolved[name]; ok {
		return v, e.height[name], e.charge(len(v))
	}
	if e.active[name] {
		return "", 0, fmt.Errorf("entity %q references itself: %w", name, ErrLimitExceeded)
	}

	e.active[name] = true
	defer delete(e.active, name)

	var b strings.Builder
	raw := e.raw[name]
	height := 1
	last := 0
	for _, loc := range entityRef.FindAllStringSubmatchIndex(raw, -1) {
		b.WriteString(raw[last:loc[0]])
		last = loc[1]

		ref := raw[loc[2]:loc[3]]
		switch {
		case strings.HasPrefix(ref, "#"):
			b.WriteString(charRef(ref, raw[loc[0]:loc[1]]))
		case e.isDeclared(ref):
			v, h, err := e.expand(ref)
			if err != nil {
				return "", 0, err
			}
			height = max(height, h+1)
			if height > e.limits.MaxEntityDepth {
				return "", 0, fmt.Errorf("entity %q nested deeper than %d: %w", name, e.limits.MaxEntityDepth, ErrLimitExceeded)
			}
			b.WriteString(v)
		default:
			if v, ok := predefinedEntities[ref]; ok {
				b.WriteString(v)
			} else if v, ok := xml.HTMLEntity[ref]; ok {
				b.WriteString(v)
			} else {
				b.WriteString(raw[loc[0]:loc[1]])
			}
		}

		if b.Len() > e.limits.MaxEntityBytes {
			return "", 0, fmt.Errorf("entity %q expands beyond %d bytes: %w", name, e.limits.MaxEntityBytes, ErrLimitExceeded)
		}
	}
	b.WriteString(raw[last:])

	v := b.String()
	e.resolved[name] = v
	e.height[name] = height
	return v, height, e.charge(len(v))
}

func (e *entityExpander) isDeclared(name string) bool {
	_, ok := e.raw[name]
	return ok
}

func (e *entityExpander) charge(n int) error {
	e.produced += n
	if e.produced > e.limits.MaxEntityBytes {
		return fmt.Errorf("entity expansion exceeds %d bytes: %w", e.limits.MaxEntityBytes, ErrLimitExceeded)
	}
	return nil
}

func charRef(ref, literal string) string {
	var n uint64
	var err error
	if strings.HasPrefix(ref, "#x") || strings.HasPrefix(ref, "#X") {
		n, err = strconv.ParseUint(ref[2:], 16, 32)
	} else {
		n, err = strconv.ParseUint(ref[1:], 10, 32)
	}
	if err != nil || !isXMLChar(rune(n)) {
		return literal
	}
	return string(rune(n))
}
