package pattern

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mapText = `Item Class: Maps
Rarity: Rare
Chimeric Haven
--------
Map Tier: 16
Item Quantity: +84%
Item Rarity: +42%
Monster Pack Size: +27%
Quality (more scarabs): +24% (augmented)
--------
Monsters have 60% increased Critical Strike Chance
Players are Cursed with Elemental Weakness`

func TestMatches(t *testing.T) {
	cases := []struct {
		name     string
		patterns []string
		expected bool
	}{
		{"nil list accepts", nil, true},
		{"all empty accepts", []string{"", ""}, true},
		{"single match", []string{"Quantity: \\+8."}, true},
		{"every pattern must match", []string{"Quantity: \\+8.", "Elemental Weakness"}, true},
		{"one miss rejects", []string{"Quantity: \\+8.", "Temporal Chains"}, false},
		{"empty patterns are skipped", []string{"", "sca.*([2-9].|1..)%", ""}, true},
		{"malformed pattern rejects", []string{"Quantity", "(unclosed"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Matches(mapText, tc.patterns))
		})
	}
}

func TestMatchesIsOrderIndependentForAll(t *testing.T) {
	patterns := []string{"Elemental Weakness", "", "Pack Size: \\+2."}
	reversed := []string{"Pack Size: \\+2.", "", "Elemental Weakness"}

	assert.Equal(t, Matches(mapText, patterns), Matches(mapText, reversed))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate([]string{"", "lity:.*([2-9].|1..)%"}))

	err := Validate([]string{"ok", "(bad", "[worse"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPattern))
	assert.Contains(t, err.Error(), "pattern 1")
	assert.Contains(t, err.Error(), "pattern 2")
}

func TestCompileModes(t *testing.T) {
	patterns := []string{"", "Temporal Chains", "Elemental Weakness"}

	all, err := Compile(patterns, ModeAll)
	require.NoError(t, err)
	assert.False(t, all.Matches(mapText))

	anyOf, err := Compile(patterns, ModeAny)
	require.NoError(t, err)
	assert.True(t, anyOf.Matches(mapText))

	first, err := Compile(patterns, ModeFirst)
	require.NoError(t, err)
	assert.False(t, first.Matches(mapText))
	assert.Equal(t, []string{"Temporal Chains", "Elemental Weakness"}, first.Patterns())

	empty, err := Compile([]string{""}, ModeAny)
	require.NoError(t, err)
	assert.True(t, empty.Matches(""))
}

func TestCompileDefaultsToAll(t *testing.T) {
	set, err := Compile([]string{"Quantity"}, "")
	require.NoError(t, err)
	assert.Equal(t, ModeAll, set.Mode())
}

func TestCompileRejectsBadInput(t *testing.T) {
	_, err := Compile([]string{"(bad"}, ModeAll)
	assert.ErrorIs(t, err, ErrInvalidPattern)

	_, err = Compile(nil, "most")
	assert.Error(t, err)
}
