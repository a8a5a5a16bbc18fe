package markets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/web3guy0/duallimit/types"
)

// ErrUnresolvedToken signals that a market's tokens could not be
// disambiguated into exactly one Up and one Down side.
var ErrUnresolvedToken = errors.New("unresolved up/down token")

// Side is the normalized outcome of a binary token.
type Side int

const (
	SideUnknown Side = iota
	SideUp
	SideDown
)

// NormalizeOutcome maps an outcome label to Up or Down. Labels containing
// "up" (any case) or equal to "1" are Up; "down" or "0" are Down. Anything
// else is SideUnknown.
func NormalizeOutcome(outcome string) Side {
	o := strings.ToUpper(strings.TrimSpace(outcome))
	switch {
	case strings.Contains(o, "UP") || o == "1":
		return SideUp
	case strings.Contains(o, "DOWN") || o == "0":
		return SideDown
	default:
		return SideUnknown
	}
}

// ResolveTokens picks the Up and Down token ids out of a market's token
// list. A market usable for trading has exactly one of each; ambiguous or
// missing sides return ErrUnresolvedToken.
func ResolveTokens(m types.Market) (upID, downID string, err error) {
	for _, t := range m.Tokens {
		switch NormalizeOutcome(t.Outcome) {
		case SideUp:
			if upID != "" {
				return "", "", fmt.Errorf("%w: duplicate Up outcome in %s", ErrUnresolvedToken, m.Slug)
			}
			upID = t.TokenID
		case SideDown:
			if downID != "" {
				return "", "", fmt.Errorf("%w: duplicate Down outcome in %s", ErrUnresolvedToken, m.Slug)
			}
			downID = t.TokenID
		}
	}
	if upID == "" || downID == "" {
		return "", "", fmt.Errorf("%w: market %s has up=%q down=%q", ErrUnresolvedToken, m.Slug, upID, downID)
	}
	return upID, downID, nil
}
