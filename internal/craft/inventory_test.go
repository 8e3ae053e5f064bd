package craft

import (
	"context"
	"io"
	"log/slog"

	"github.com/vietdungdev/mapcrafter/internal/currency"
	"github.com/vietdungdev/mapcrafter/internal/item"
	"github.com/vietdungdev/mapcrafter/internal/quality"
)

type use struct {
	currency string
	id       item.ID
}

// scriptedInventory applies deterministic currency effects; every roll
// (alchemy or chaos) hands out the next text of rolls, the last one repeats.
type scriptedInventory struct {
	items   []*item.Item
	hovered int
	rolls   []string
	rollIdx int

	identifyFails bool
	fetchFails    bool
	// ignoreMany makes UseOnMany report success without touching any item.
	ignoreMany bool
	failing    map[string]bool
	onUse      func(u use)

	identifyCalls int
	uses          []use
	fetches       [][]item.ID
}

func newScripted(rolls ...string) *scriptedInventory {
	return &scriptedInventory{hovered: -1, rolls: rolls, failing: map[string]bool{}}
}

func (f *scriptedInventory) add(it item.Item) *scriptedInventory {
	cp := it
	f.items = append(f.items, &cp)
	return f
}

func (f *scriptedInventory) hover(idx int) *scriptedInventory {
	f.hovered = idx
	return f
}

func (f *scriptedInventory) find(id item.ID) *item.Item {
	for _, it := range f.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

func (f *scriptedInventory) roll() string {
	if len(f.rolls) == 0 {
		return ""
	}
	idx := min(f.rollIdx, len(f.rolls)-1)
	f.rollIdx++
	return f.rolls[idx]
}

func (f *scriptedInventory) apply(it *item.Item, cur string) {
	switch cur {
	case currency.OrbOfScouring:
		if it.Rarity == item.RarityMagic || it.Rarity == item.RarityRare {
			it.Rarity = item.RarityNormal
			it.Text = "Rarity: Normal"
		}
	case currency.OrbOfAlchemy:
		if it.Rarity == item.RarityNormal {
			it.Rarity = item.RarityRare
			it.Text = f.roll()
		}
	case currency.ChaosOrb:
		if it.Rarity == item.RarityRare {
			it.Text = f.roll()
		}
	default:
		for _, tool := range quality.Tools() {
			if tool.Currency() == cur {
				it.Text += "\n" + tool.Label() + ": +20% (augmented)"
			}
		}
	}
}

func (f *scriptedInventory) count(cur string) int {
	n := 0
	for _, u := range f.uses {
		if u.currency == cur {
			n++
		}
	}
	return n
}

func (f *scriptedInventory) currencies() []string {
	out := make([]string, 0, len(f.uses))
	for _, u := range f.uses {
		out = append(out, u.currency)
	}
	return out
}

func (f *scriptedInventory) IdentifyAll(ctx context.Context) bool {
	f.identifyCalls++
	return !f.identifyFails
}

func (f *scriptedInventory) UseOnMany(ctx context.Context, cur string, filter, post Condition) bool {
	if f.ignoreMany {
		return true
	}
	for _, stored := range f.items {
		if !filter(*stored) || post(*stored) {
			continue
		}
		it := *stored
		if !f.UseOnOne(ctx, &it, cur, post) {
			return false
		}
	}
	return true
}

func (f *scriptedInventory) UseOnOne(ctx context.Context, it *item.Item, cur string, post Condition) bool {
	if ctx.Err() != nil {
		return false
	}
	u := use{currency: cur, id: it.ID}
	f.uses = append(f.uses, u)
	if f.onUse != nil {
		f.onUse(u)
	}
	if f.failing[cur] {
		return false
	}

	stored := f.find(it.ID)
	if stored == nil {
		return false
	}
	for attempt := 0; attempt < 50; attempt++ {
		f.apply(stored, cur)
		*it = *stored
		if post(*it) {
			return true
		}
	}
	return false
}

func (f *scriptedInventory) HoveredItem(ctx context.Context) (item.Item, bool) {
	if f.hovered < 0 {
		return item.Item{}, false
	}
	return *f.items[f.hovered], true
}

func (f *scriptedInventory) WaitForHoveredItem(ctx context.Context, pred func(it *item.Item) bool, description string) (item.Item, bool) {
	if f.hovered < 0 {
		return item.Item{}, pred(nil)
	}
	it := *f.items[f.hovered]
	return it, pred(&it)
}

func (f *scriptedInventory) FetchItems(ctx context.Context, pred Condition) ([]item.Item, bool) {
	if f.fetchFails {
		return nil, false
	}
	var out []item.Item
	var ids []item.ID
	for _, it := range f.items {
		if pred(*it) {
			out = append(out, *it)
			ids = append(ids, it.ID)
		}
	}
	f.fetches = append(f.fetches, ids)
	return out, true
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mapItem(id item.ID, r item.Rarity, text string) item.Item {
	return item.Item{ID: id, Name: "Strand Map", Rarity: r, Eligible: true, Identified: true, Text: text}
}
