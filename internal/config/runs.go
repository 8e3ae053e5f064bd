package config

import (
	"fmt"
	"strings"
)

// Strategy selects how the rarity of a map is driven towards an accepted rare.
type Strategy string

const (
	// StrategyChaosSpam rolls the map to rare once and rerolls it with chaos orbs.
	StrategyChaosSpam Strategy = "chaos"
	// StrategyScouringAndAlchemy alternates scouring and alchemy until accepted.
	StrategyScouringAndAlchemy Strategy = "scouring_alchemy"
)

// Mode selects which items a craft session works on.
type Mode string

const (
	ModeHovered Mode = "hovered" // only the item under the mouse cursor
	ModeBatch   Mode = "batch"   // every eligible item of the inventory
)

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(StrategyChaosSpam), "chaos_spam", "chaosspam":
		return StrategyChaosSpam, nil
	case string(StrategyScouringAndAlchemy), "scouringandalchemy", "scouring_and_alchemy":
		return StrategyScouringAndAlchemy, nil
	default:
		return "", fmt.Errorf("unknown strategy %q", s)
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ModeHovered), "mouse", "mouse_position":
		return ModeHovered, nil
	case string(ModeBatch), "inventory", "all":
		return ModeBatch, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}
