// Package pattern evaluates the user supplied acceptance patterns against the
// clipboard text of an item.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/samber/lo"
)

var ErrInvalidPattern = errors.New("invalid pattern")

// Mode is the combinator applied to the non-empty patterns of a list.
type Mode string

const (
	// ModeAll accepts when every non-empty pattern matches.
	ModeAll Mode = "all"
	// ModeAny accepts when at least one non-empty pattern matches.
	ModeAny Mode = "any"
	// ModeFirst only evaluates the first non-empty pattern.
	ModeFirst Mode = "first"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAll:
		return ModeAll, nil
	case ModeAny:
		return ModeAny, nil
	case ModeFirst:
		return ModeFirst, nil
	default:
		return "", fmt.Errorf("unknown match mode %q", s)
	}
}

type compiled struct {
	re  *regexp.Regexp
	err error
}

// Compiled expressions are cached by source, patterns are re-evaluated on every
// item refresh so compiling them each time is wasteful.
var (
	cacheMux sync.RWMutex
	cache    = make(map[string]compiled)
)

func compile(pattern string) (*regexp.Regexp, error) {
	cacheMux.RLock()
	c, found := cache[pattern]
	cacheMux.RUnlock()
	if found {
		return c.re, c.err
	}

	re, err := regexp.Compile(pattern)
	cacheMux.Lock()
	cache[pattern] = compiled{re: re, err: err}
	cacheMux.Unlock()

	return re, err
}

// MatchesPattern reports whether a single pattern matches text. An empty
// pattern always matches, a malformed one never does.
func MatchesPattern(text, pattern string) bool {
	if pattern == "" {
		return true
	}
	re, err := compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// Matches reports whether text satisfies every non-empty pattern. It never
// panics: malformed patterns are a non-match and should be caught earlier
// with Validate.
func Matches(text string, patterns []string) bool {
	for _, p := range patterns {
		if !MatchesPattern(text, p) {
			return false
		}
	}
	return true
}

// Validate returns every malformed pattern of the list joined in one error.
func Validate(patterns []string) error {
	var errs []error
	for idx, p := range patterns {
		if p == "" {
			continue
		}
		if _, err := compile(p); err != nil {
			errs = append(errs, fmt.Errorf("%w: pattern %d %q: %v", ErrInvalidPattern, idx, p, err))
		}
	}
	return errors.Join(errs...)
}

// Set is a validated, ordered list of patterns bound to a combinator.
type Set struct {
	mode    Mode
	sources []string
	exprs   []*regexp.Regexp
}

func Compile(patterns []string, mode Mode) (*Set, error) {
	mode, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}
	if err = Validate(patterns); err != nil {
		return nil, err
	}

	sources := lo.Compact(patterns)
	exprs := make([]*regexp.Regexp, 0, len(sources))
	for _, p := range sources {
		re, _ := compile(p)
		exprs = append(exprs, re)
	}

	return &Set{mode: mode, sources: sources, exprs: exprs}, nil
}

// Matches evaluates the set against text. A set without any non-empty
// pattern accepts everything whatever the mode.
func (s *Set) Matches(text string) bool {
	if len(s.exprs) == 0 {
		return true
	}

	switch s.mode {
	case ModeAny:
		for _, re := range s.exprs {
			if re.MatchString(text) {
				return true
			}
		}
		return false
	case ModeFirst:
		return s.exprs[0].MatchString(text)
	default:
		for _, re := range s.exprs {
			if !re.MatchString(text) {
				return false
			}
		}
		return true
	}
}

func (s *Set) Mode() Mode {
	return s.mode
}

// Patterns returns the non-empty patterns in evaluation order.
func (s *Set) Patterns() []string {
	return append([]string(nil), s.sources...)
}
