package feed

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTooLarge is wrapped by the ResourceError returned for input over the
// configured document size.
var ErrTooLarge = errors.New("document too large")

type Reason string

const (
	ReasonUnrecognizedFormat Reason = "unrecognized_format"
	ReasonStructural         Reason = "structural"
)

// ParseError reports a document that is not a feed, or a feed missing the
// container its dialect requires. It never accompanies a Feed.
type ParseError struct {
	Reason  Reason
	Message string
}

func (e *ParseError) Error() string {
	return strings.TrimSpace(e.Message)
}

func newParseError(reason Reason, format string, args ...any) *ParseError {
	return &ParseError{Reason: reason, Message: strings.TrimSpace(fmt.Sprintf(format, args...))}
}

// ResourceError reports a failure unrelated to feed content: reading input,
// or input exceeding a resource limit.
type ResourceError struct {
	Op   string
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeParseError
	OutcomeResourceError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeParseError:
		return "parse_error"
	default:
		return "resource_error"
	}
}

// Classify maps the error of a parse call to its outcome. Errors of unknown
// type count as resource errors.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return OutcomeParseError
	}
	return OutcomeResourceError
}

func IsParseError(err error) bool {
	return Classify(err) == OutcomeParseError
}
