// Package inventory provides an in-process stash of maps implementing
// craft.Inventory, used for dry runs of craft profiles.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/samber/lo"
	"github.com/vietdungdev/mapcrafter/internal/config"
	"github.com/vietdungdev/mapcrafter/internal/craft"
	"github.com/vietdungdev/mapcrafter/internal/currency"
	"github.com/vietdungdev/mapcrafter/internal/item"
	"github.com/vietdungdev/mapcrafter/internal/quality"
	"github.com/vietdungdev/mapcrafter/internal/utils"
)

var (
	ErrOutOfStock    = errors.New("currency out of stock")
	ErrNotApplicable = errors.New("currency cannot be applied")
	errUnknownItem   = errors.New("item not found")
	errNotSatisfied  = errors.New("post condition not satisfied")
)

const (
	firstItemID = item.ID(0x1000)
	hoverPollMs = 50
)

var defaultStock = map[string]int{
	currency.ChaosOrb:              1000,
	currency.OrbOfScouring:         1000,
	currency.OrbOfAlchemy:          1000,
	currency.ScrollOfWisdom:        100,
	currency.CartographersChisel:   200,
	currency.ChiselOfAvarice:       50,
	currency.ChiselOfDivination:    50,
	currency.ChiselOfProcurement:   50,
	currency.ChiselOfScarabs:       50,
	currency.ChiselOfProliferation: 50,
}

var _ craft.Inventory = (*Simulator)(nil)

type Simulator struct {
	mu      sync.Mutex
	cfg     config.SimulatorCfg
	logger  *slog.Logger
	rng     *rand.Rand
	maps    []*stashMap
	stock   map[string]int
	hovered int
}

func New(cfg config.SimulatorCfg, logger *slog.Logger) *Simulator {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	s := &Simulator{
		cfg:     cfg,
		logger:  logger,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		stock:   initialStock(cfg.Stock, logger),
		hovered: -1,
	}

	id := firstItemID
	for range cfg.Maps {
		s.maps = append(s.maps, s.newMap(id, s.randomRarity(), true, false))
		id++
	}
	for range cfg.UnidentifiedMaps {
		r := lo.Ternary(s.rng.IntN(2) == 0, item.RarityMagic, item.RarityRare)
		s.maps = append(s.maps, s.newMap(id, r, false, false))
		id++
	}
	for range cfg.CorruptedMaps {
		s.maps = append(s.maps, s.newMap(id, s.randomRarity(), true, true))
		id++
	}
	if len(s.maps) > 0 {
		s.hovered = 0
	}

	logger.Debug("Simulated stash ready", "seed", seed, "maps", len(s.maps), "stock", s.stock, "tabs", stockByTab(s.stock))

	return s
}

func initialStock(configured map[string]int, logger *slog.Logger) map[string]int {
	if configured == nil {
		return lo.Assign(defaultStock)
	}

	if unknown := lo.Keys(lo.OmitBy(configured, func(name string, _ int) bool { return currency.Known(name) })); len(unknown) > 0 {
		logger.Warn("Ignoring unknown currencies in simulator stock", "currencies", unknown)
	}
	return lo.PickBy(configured, func(name string, _ int) bool { return currency.Known(name) })
}

// stockByTab sums the units kept in each stash tab section.
func stockByTab(stock map[string]int) map[string]int {
	tabs := make(map[string]int)
	for name, n := range stock {
		tabs[currency.TabOf(name).String()] += n
	}
	return tabs
}

// Items returns a snapshot of every item of the stash.
func (s *Simulator) Items() []item.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.maps, func(m *stashMap, _ int) item.Item { return m.Item })
}

// Stock returns how many units of the currency are left.
func (s *Simulator) Stock(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[name]
}

// Hover moves the mouse cursor over the item, false when the item is unknown.
func (s *Simulator) Hover(id item.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, idx, found := lo.FindIndexOf(s.maps, func(m *stashMap) bool { return m.ID == id })
	if found {
		s.hovered = idx
	}
	return found
}

func (s *Simulator) ClearHover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hovered = -1
}

func (s *Simulator) find(id item.ID) *stashMap {
	m, _ := lo.Find(s.maps, func(m *stashMap) bool { return m.ID == id })
	return m
}

func (s *Simulator) IdentifyAll(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.maps {
		if ctx.Err() != nil {
			return false
		}
		if m.Identified {
			continue
		}
		if s.stock[currency.ScrollOfWisdom] <= 0 {
			s.logger.Warn("Cannot identify item, no Scroll of Wisdom left", "item", m.String())
			return false
		}
		s.stock[currency.ScrollOfWisdom]--
		m.Identified = true
		m.refresh()
	}

	return true
}

func (s *Simulator) UseOnMany(ctx context.Context, name string, filter, post craft.Condition) bool {
	s.mu.Lock()
	ids := lo.FilterMap(s.maps, func(m *stashMap, _ int) (item.ID, bool) {
		return m.ID, filter(m.Item) && !post(m.Item)
	})
	s.mu.Unlock()

	for i, id := range ids {
		if i > 0 {
			if err := utils.Sleep(ctx, s.cfg.ActionDelayMs); err != nil {
				return false
			}
		}

		s.mu.Lock()
		m := s.find(id)
		var it item.Item
		if m != nil {
			it = m.Item
		}
		s.mu.Unlock()
		if m == nil {
			return false
		}

		if !s.UseOnOne(ctx, &it, name, post) {
			return false
		}
	}

	return true
}

// UseOnOne applies the currency until post holds, giving up after the
// configured number of attempts or when the stock runs out.
func (s *Simulator) UseOnOne(ctx context.Context, it *item.Item, name string, post craft.Condition) bool {
	if ctx.Err() != nil {
		return false
	}

	attempts := 0
	err := retry.Do(
		func() error {
			attempts++
			updated, err := s.useOnce(it.ID, name, post)
			if updated.ID != 0 {
				*it = updated
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(max(s.cfg.MaxAttempts, 1))),
		retry.Delay(utils.Jitter(s.cfg.ActionDelayMs)),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errNotSatisfied)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		s.logger.Debug("Currency use failed",
			"currency", name,
			"item", it.String(),
			"attempts", attempts,
			slog.Any("error", err),
		)
		return false
	}

	s.logger.Debug("Currency applied", "currency", name, "item", it.String(), "attempts", attempts)
	return true
}

func (s *Simulator) useOnce(id item.ID, name string, post craft.Condition) (item.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.find(id)
	if m == nil {
		return item.Item{}, fmt.Errorf("%w: #%d", errUnknownItem, id)
	}
	if s.stock[name] <= 0 {
		return m.Item, fmt.Errorf("%w: %s", ErrOutOfStock, name)
	}
	if err := s.apply(m, name); err != nil {
		return m.Item, err
	}
	s.stock[name]--

	if !post(m.Item) {
		return m.Item, errNotSatisfied
	}
	return m.Item, nil
}

func (s *Simulator) apply(m *stashMap, name string) error {
	if m.Corrupted {
		return fmt.Errorf("%w: %s on corrupted %s", ErrNotApplicable, name, m)
	}

	switch name {
	case currency.OrbOfScouring:
		if m.Rarity != item.RarityMagic && m.Rarity != item.RarityRare {
			return fmt.Errorf("%w: %s on %s", ErrNotApplicable, name, m)
		}
		m.Rarity = item.RarityNormal
	case currency.OrbOfAlchemy:
		if m.Rarity != item.RarityNormal {
			return fmt.Errorf("%w: %s on %s", ErrNotApplicable, name, m)
		}
		m.Rarity = item.RarityRare
	case currency.ChaosOrb:
		if m.Rarity != item.RarityRare {
			return fmt.Errorf("%w: %s on %s", ErrNotApplicable, name, m)
		}
	default:
		tool, found := lo.Find(quality.Tools(), func(t quality.Tool) bool { return t.Currency() == name })
		if !found {
			return fmt.Errorf("%w: unknown currency %s", ErrNotApplicable, name)
		}
		// Another chisel type replaces the quality instead of adding to it.
		if m.qualityTool != tool {
			m.qualityTool = tool
			m.quality = 0
		}
		m.quality = min(m.quality+5, 20)
		m.refresh()
		return nil
	}

	m.Identified = true
	s.reroll(m)
	return nil
}

func (s *Simulator) HoveredItem(ctx context.Context) (item.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil || s.hovered < 0 || s.hovered >= len(s.maps) {
		return item.Item{}, false
	}
	return s.maps[s.hovered].clipboard(), true
}

// WaitForHoveredItem polls the hovered slot until pred accepts it, the hover
// timeout elapses or ctx is done. pred receives nil while nothing is hovered.
func (s *Simulator) WaitForHoveredItem(ctx context.Context, pred func(it *item.Item) bool, description string) (item.Item, bool) {
	deadline := time.Now().Add(time.Duration(s.cfg.HoverTimeoutMs) * time.Millisecond)
	for {
		it, found := s.HoveredItem(ctx)
		var candidate *item.Item
		if found {
			candidate = &it
		}
		if pred(candidate) {
			return it, true
		}

		if time.Now().After(deadline) {
			s.logger.Debug("Timed out waiting for the hovered item", "description", description)
			return item.Item{}, false
		}
		if err := utils.Sleep(ctx, hoverPollMs); err != nil {
			return item.Item{}, false
		}
	}
}

func (s *Simulator) FetchItems(ctx context.Context, pred craft.Condition) ([]item.Item, bool) {
	if ctx.Err() != nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.FilterMap(s.maps, func(m *stashMap, _ int) (item.Item, bool) {
		return m.Item, pred(m.Item)
	}), true
}
