package item

import (
	"fmt"
	"strings"
)

// ID is the stable handle of an item for the lifetime of a craft session,
// usually the address of the item entity in game memory.
type ID uint64

type Rarity int

const (
	RarityUnknown Rarity = iota
	RarityNormal
	RarityMagic
	RarityRare
	RarityUnique
)

func (r Rarity) String() string {
	switch r {
	case RarityNormal:
		return "Normal"
	case RarityMagic:
		return "Magic"
	case RarityRare:
		return "Rare"
	case RarityUnique:
		return "Unique"
	default:
		return "Unknown"
	}
}

// ParseRarity maps the "Rarity:" value of the item clipboard text.
func ParseRarity(s string) Rarity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return RarityNormal
	case "magic":
		return RarityMagic
	case "rare":
		return RarityRare
	case "unique":
		return RarityUnique
	default:
		return RarityUnknown
	}
}

// Item is the read-only view of an inventory item reported by the game layer.
type Item struct {
	ID         ID
	Name       string
	Rarity     Rarity
	Corrupted  bool
	Eligible   bool // item belongs to the crafted category (maps)
	Identified bool
	Text       string
}

// Craftable reports whether the item can still be crafted on at all.
func (i Item) Craftable() bool {
	return i.Eligible && !i.Corrupted
}

func (i Item) String() string {
	return fmt.Sprintf("%s [%s] #%d", i.Name, i.Rarity, i.ID)
}
