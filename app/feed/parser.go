package feed

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/sloonz/cfeedparser/app/charset"
	"github.com/sloonz/cfeedparser/app/markup"
)

type Options struct {
	// Limits bounds nesting, entity expansion and input size. Zero fields
	// use markup.DefaultLimits.
	Limits markup.Limits
	// Logger receives debug records about conditions the parser absorbed.
	// Nil means slog.Default at call time.
	Logger *slog.Logger
}

// Parser is safe for concurrent use; it holds no state between calls.
type Parser struct {
	limits markup.Limits
	logger *slog.Logger
}

func NewParser(opts Options) *Parser {
	return &Parser{
		limits: opts.Limits.WithDefaults(),
		logger: opts.Logger,
	}
}

func (p *Parser) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

// Parse decodes and normalises a feed. hint is an optional charset label
// or Content-Type value. The result is either a complete Feed or an error:
// *ParseError for content that is not a usable feed, *ResourceError for
// input beyond the configured limits.
func (p *Parser) Parse(data []byte, hint string) (*Feed, error) {
	if len(data) > p.limits.MaxDocumentBytes {
		return nil, &ResourceError{
			Op:  "parse feed",
			Err: fmt.Errorf("%d bytes exceeds limit of %d: %w", len(data), p.limits.MaxDocumentBytes, ErrTooLarge),
		}
	}

	decoded := charset.Resolve(data, hint)
	if decoded.Lossy {
		p.log().Debug("Substituted invalid byte sequences", "charset", decoded.Charset, "source", decoded.Source)
	}

	doc, err := markup.Parse(decoded.Text, p.limits)
	if err != nil {
		if errors.Is(err, markup.ErrLimitExceeded) {
			return nil, &ResourceError{Op: "parse feed", Err: err}
		}
		return nil, newParseError(ReasonUnrecognizedFormat, "unrecognized feed format: %v", err)
	}
	if doc.Truncated {
		p.log().Debug("Recovered truncated document", "error", doc.Err)
	}

	dialect, err := Detect(doc)
	if err != nil {
		return nil, err
	}

	ex, err := extractors[dialect.Family()].extract(doc, dialect)
	if err != nil {
		return nil, err
	}

	f := newAssembler(doc, dialect, decoded.Charset).assemble(ex)
	p.log().Debug("Parsed feed", "dialect", dialect, "charset", f.Charset, "entries", f.EntriesSize)
	return f, nil
}

func (p *Parser) ParseFile(path string) (*Feed, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(data, "")
}

// ReadFile reads a whole file, reporting failures as *ResourceError.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ResourceError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

var defaultParser = NewParser(Options{})

// Parse uses a Parser with default options.
func Parse(data []byte, hint string) (*Feed, error) {
	return defaultParser.Parse(data, hint)
}

func ParseFile(path string) (*Feed, error) {
	return defaultParser.ParseFile(path)
}
