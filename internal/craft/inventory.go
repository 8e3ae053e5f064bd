package craft

import (
	"context"

	"github.com/vietdungdev/mapcrafter/internal/item"
)

// Condition is evaluated by the game layer against a fresh view of an item.
type Condition func(it item.Item) bool

// Inventory is what a craft session needs from the game layer. Every call
// blocks until the action is carried out in game; a false result means the
// layer gave up, retrying is its own business.
type Inventory interface {
	// IdentifyAll identifies every unidentified item of the inventory.
	IdentifyAll(ctx context.Context) bool
	// UseOnMany applies currency to each item passing filter until post holds for it.
	UseOnMany(ctx context.Context, currency string, filter, post Condition) bool
	// UseOnOne applies currency to it until post holds, refreshing *it after every use.
	UseOnOne(ctx context.Context, it *item.Item, currency string, post Condition) bool
	// HoveredItem returns the item under the mouse cursor, if any.
	HoveredItem(ctx context.Context) (item.Item, bool)
	// WaitForHoveredItem polls the hovered slot until pred accepts it (nil when
	// nothing is hovered) or the layer times out.
	WaitForHoveredItem(ctx context.Context, pred func(it *item.Item) bool, description string) (item.Item, bool)
	// FetchItems returns the items passing pred, ok is false when the
	// inventory could not be read at all.
	FetchItems(ctx context.Context, pred Condition) (items []item.Item, ok bool)
}

// ProcessedSet holds the items already accepted during a batch session.
type ProcessedSet map[item.ID]struct{}

func (p ProcessedSet) Add(id item.ID) {
	p[id] = struct{}{}
}

func (p ProcessedSet) Contains(id item.ID) bool {
	_, found := p[id]
	return found
}
