package fallback

import (
	"errors"
	"log/slog"

	"github.com/sloonz/cfeedparser/app/feed"
)

// Strategy is anything that turns feed bytes into a normalised Feed.
// *feed.Parser satisfies it.
type Strategy interface {
	Parse(data []byte, hint string) (*feed.Feed, error)
}

var _ Strategy = (*feed.Parser)(nil)

// Chain tries Primary and hands the document to Secondary only when Primary
// rejected it as malformed or unrecognised. Resource failures are returned
// unchanged.
type Chain struct {
	Primary   Strategy
	Secondary Strategy
}

func NewChain(primary, secondary Strategy) *Chain {
	return &Chain{Primary: primary, Secondary: secondary}
}

func (c *Chain) Parse(data []byte, hint string) (*feed.Feed, error) {
	f, err := c.Primary.Parse(data, hint)
	if err == nil {
		return f, nil
	}

	var parseErr *feed.ParseError
	if c.Secondary == nil || !errors.As(err, &parseErr) {
		return nil, err
	}

	slog.Debug("Primary parser rejected document, trying fallback", "reason", string(parseErr.Reason), "error", err)

	return c.Secondary.Parse(data, hint)
}
