package inventory

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/vietdungdev/mapcrafter/internal/item"
	"github.com/vietdungdev/mapcrafter/internal/quality"
)

const separator = "--------\n"

var mapBases = []string{
	"Strand Map",
	"Jungle Valley Map",
	"Crimson Temple Map",
	"Tower Map",
	"Cemetery Map",
	"Dunes Map",
	"Mesa Map",
	"Cold River Map",
}

var rareNamePrefixes = []string{"Grim", "Dread", "Ashen", "Blind", "Hollow", "Maddening", "Twisted", "Cursed"}
var rareNameSuffixes = []string{"Trail", "Halls", "Sanctum", "Barrows", "Rift", "Refuge", "Mire", "Descent"}

var modPool = []string{
	"Monsters deal 90% extra Physical Damage as Fire",
	"Area is inhabited by Undead",
	"Players have 40% less Recovery Rate of Life and Energy Shield",
	"Monsters reflect 18% of Physical Damage",
	"Monsters have 60% increased Critical Strike Chance",
	"Area has patches of Burning Ground",
	"Players are Cursed with Enfeeble",
	"Monsters cannot be Stunned",
	"Monsters' skills Chain 2 additional times",
	"Unique Boss deals 25% increased Damage",
}

// bonusStats are the map wide bonuses a modifier can grant, in display order.
var bonusStats = []string{
	"Item Rarity",
	"Monster Pack Size",
	"More Currency",
	"More Scarabs",
	"More Maps",
	"More Divination Cards",
}

type modifier struct {
	text     string
	quantity int
	stat     string
	value    int
}

// stashMap is the simulated state behind an item, Text is rendered from it.
type stashMap struct {
	item.Item

	tier        int
	level       int
	rareName    string
	mods        []modifier
	qualityTool quality.Tool
	quality     int
}

func (s *Simulator) newMap(id item.ID, r item.Rarity, identified, corrupted bool) *stashMap {
	m := &stashMap{
		Item: item.Item{
			ID:         id,
			Name:       mapBases[s.rng.IntN(len(mapBases))],
			Rarity:     r,
			Corrupted:  corrupted,
			Eligible:   true,
			Identified: identified || r == item.RarityNormal,
		},
		tier:  1 + s.rng.IntN(16),
		level: 68 + s.rng.IntN(16),
	}
	s.reroll(m)
	return m
}

func (s *Simulator) randomRarity() item.Rarity {
	switch n := s.rng.IntN(10); {
	case n < 4:
		return item.RarityNormal
	case n < 7:
		return item.RarityMagic
	default:
		return item.RarityRare
	}
}

// reroll draws new modifiers matching the current rarity of m.
func (s *Simulator) reroll(m *stashMap) {
	n := 0
	switch m.Rarity {
	case item.RarityMagic:
		n = 1 + s.rng.IntN(2)
	case item.RarityRare:
		n = 4 + s.rng.IntN(3)
	}

	m.mods = m.mods[:0]
	for _, idx := range s.rng.Perm(len(modPool))[:n] {
		m.mods = append(m.mods, rollModifier(s.rng, modPool[idx]))
	}

	m.rareName = ""
	if m.Rarity == item.RarityRare {
		m.rareName = rareNamePrefixes[s.rng.IntN(len(rareNamePrefixes))] + " " + rareNameSuffixes[s.rng.IntN(len(rareNameSuffixes))]
	}
	m.refresh()
}

func rollModifier(rng *rand.Rand, text string) modifier {
	return modifier{
		text:     text,
		quantity: 3 + rng.IntN(6),
		stat:     bonusStats[rng.IntN(len(bonusStats))],
		value:    5 + rng.IntN(16),
	}
}

func (m *stashMap) totals() (int, map[string]int) {
	quantity := 0
	bonuses := make(map[string]int, len(bonusStats))
	for _, mod := range m.mods {
		quantity += mod.quantity
		bonuses[mod.stat] += mod.value
	}
	return quantity, bonuses
}

// clipboard is the item as read back from its copied text.
func (m *stashMap) clipboard() item.Item {
	it := m.Item
	it.Rarity = textRarity(it.Text)
	return it
}

func textRarity(text string) item.Rarity {
	for _, line := range strings.Split(text, "\n") {
		if value, found := strings.CutPrefix(line, "Rarity: "); found {
			return item.ParseRarity(value)
		}
	}
	return item.RarityUnknown
}

func (m *stashMap) refresh() {
	m.Text = m.render()
}

// render builds the clipboard text of the map the way the game prints it.
func (m *stashMap) render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Item Class: Maps\nRarity: %s\n", m.Rarity)
	if m.rareName != "" && m.Identified {
		b.WriteString(m.rareName + "\n")
	}
	b.WriteString(m.Name + "\n")

	b.WriteString(separator)
	fmt.Fprintf(&b, "Map Tier: %d\n", m.tier)
	if m.Identified {
		quantity, bonuses := m.totals()
		if quantity > 0 {
			fmt.Fprintf(&b, "Item Quantity: +%d%% (augmented)\n", quantity)
		}
		for _, stat := range bonusStats {
			if v := bonuses[stat]; v > 0 {
				fmt.Fprintf(&b, "%s: +%d%% (augmented)\n", stat, v)
			}
		}
	}
	if m.quality > 0 {
		fmt.Fprintf(&b, "%s: +%d%% (augmented)\n", m.qualityTool.Label(), m.quality)
	}

	b.WriteString(separator)
	fmt.Fprintf(&b, "Item Level: %d\n", m.level)

	switch {
	case !m.Identified:
		b.WriteString(separator + "Unidentified\n")
	case len(m.mods) > 0:
		b.WriteString(separator)
		for _, mod := range m.mods {
			b.WriteString(mod.text + "\n")
		}
	}

	if m.Corrupted {
		b.WriteString(separator + "Corrupted\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
