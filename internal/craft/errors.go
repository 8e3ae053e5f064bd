package craft

import "errors"

var (
	// ErrCancelled is returned when the session context is cancelled, it is
	// never reported as an ordinary craft failure.
	ErrCancelled = errors.New("craft cancelled")
	// ErrConfiguration wraps every configuration problem found before a session starts.
	ErrConfiguration = errors.New("invalid craft configuration")

	ErrIdentifyFailed    = errors.New("identifying items failed")
	ErrQualityFailed     = errors.New("applying quality currency failed")
	ErrCurrencyFailed    = errors.New("applying currency failed")
	ErrFetchFailed       = errors.New("fetching inventory items failed")
	ErrNoHoveredItem     = errors.New("no hovered item found")
	ErrIneligibleItem    = errors.New("item is corrupted or not a map")
	ErrUnsupportedRarity = errors.New("item rarity cannot be crafted")
)
