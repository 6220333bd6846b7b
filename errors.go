package fumble

import (
	"errors"
	"fmt"
)

// ErrRateLimited signals that an upstream provider is throttling us and a
// later retry may succeed. Sources wrap it so callers can test with
// errors.Is regardless of which provider raised it.
var ErrRateLimited = errors.New("rate limited by provider")

// ErrInvalidQuery reports a query that can never resolve: empty symbol,
// zero date, or a purchase date in the future.
var ErrInvalidQuery = errors.New("invalid query")

// ExhaustedError is the terminal failure of a resolution: every source in
// the chain was tried and none produced a price. RateLimited is true when
// the primary source's last failure was throttling, so the caller can tell
// the user to retry (or enter a manual price) rather than give up.
type ExhaustedError struct {
	Symbol      string
	RateLimited bool
}

func (e *ExhaustedError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("all price sources exhausted for %s: provider rate limit", e.Symbol)
	}
	return fmt.Sprintf("all price sources exhausted for %s", e.Symbol)
}
