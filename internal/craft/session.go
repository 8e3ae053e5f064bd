package craft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/vietdungdev/mapcrafter/internal/config"
	"github.com/vietdungdev/mapcrafter/internal/item"
	"github.com/vietdungdev/mapcrafter/internal/pattern"
	"github.com/vietdungdev/mapcrafter/internal/quality"
)

// Session is one run of a craft profile over the inventory.
type Session struct {
	ID string

	cfg       config.CraftCfg
	inv       Inventory
	logger    *slog.Logger
	matcher   *pattern.Set
	tool      quality.Tool
	engine    *Engine
	processed ProcessedSet
	failure   error
}

// NewSession validates a snapshot of cfg; later edits of cfg do not affect
// the session.
func NewSession(cfg config.CraftCfg, inv Inventory, logger *slog.Logger) (*Session, error) {
	snapshot := cfg.Clone()
	snapshot.Normalize()
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	matcher, err := pattern.Compile(snapshot.Patterns, snapshot.MatchMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	s := &Session{
		ID:        uuid.NewString(),
		cfg:       snapshot,
		inv:       inv,
		matcher:   matcher,
		tool:      quality.Tool(snapshot.QualityTool),
		processed: make(ProcessedSet),
	}
	s.logger = logger.With("session", s.ID, "profile", snapshot.ProfileName)
	s.engine = NewEngine(inv, s.Accepted, s.logger)

	return s, nil
}

// Accepted reports whether the item text satisfies the acceptance patterns.
func (s *Session) Accepted(it item.Item) bool {
	return s.matcher.Matches(it.Text)
}

func (s *Session) qualityDone(it item.Item) bool {
	return quality.Precondition(it, s.tool)
}

// Config returns the configuration snapshot the session runs with.
func (s *Session) Config() config.CraftCfg {
	return s.cfg.Clone()
}

// Failure is the reason of the last unsuccessful Run, nil otherwise.
func (s *Session) Failure() error {
	return s.failure
}

// Processed returns the items accepted so far by a batch session.
func (s *Session) Processed() ProcessedSet {
	return maps.Clone(s.processed)
}

// Run crafts until every selected item is accepted. It returns true on
// success. The error is non-nil only when the session was cancelled
// (ErrCancelled) or no hovered item could be found (ErrNoHoveredItem); every
// other failure returns false and is available through Failure.
func (s *Session) Run(ctx context.Context) (bool, error) {
	s.logger.Info("Starting craft session",
		"strategy", s.cfg.Strategy,
		"mode", s.cfg.Mode,
		"useQualityTool", s.cfg.UseQualityTool,
		"qualityTool", s.tool.String(),
		"matchMode", s.matcher.Mode(),
		"patterns", s.matcher.Patterns(),
	)

	err := s.run(ctx)
	s.failure = err
	switch {
	case err == nil:
		s.logger.Info("Craft session finished, every item accepted", "processed", len(s.processed))
		return true, nil
	case errors.Is(err, ErrCancelled):
		s.logger.Warn("Craft session cancelled", slog.Any("error", err))
		return false, err
	case errors.Is(err, ErrNoHoveredItem):
		s.logger.Error("### No hovered item found!", slog.Any("error", err))
		return false, err
	default:
		s.logger.Error("Craft session failed", slog.Any("error", err))
		return false, nil
	}
}

func (s *Session) run(ctx context.Context) error {
	if err := cancelled(ctx); err != nil {
		return err
	}

	if !s.inv.IdentifyAll(ctx) {
		return abort(ctx, ErrIdentifyFailed)
	}

	if s.cfg.UseQualityTool {
		if err := cancelled(ctx); err != nil {
			return err
		}
		s.logger.Debug("Applying quality currency", "currency", s.tool.Currency())
		if !s.inv.UseOnMany(ctx, s.tool.Currency(), eligible, s.qualityDone) {
			return abort(ctx, fmt.Errorf("%w: %s", ErrQualityFailed, s.tool.Currency()))
		}
	}

	if err := cancelled(ctx); err != nil {
		return err
	}

	switch s.cfg.Strategy {
	case config.StrategyChaosSpam:
		if s.cfg.Mode == config.ModeHovered {
			return s.chaosSpamHovered(ctx)
		}
		return s.chaosSpamBatch(ctx)
	case config.StrategyScouringAndAlchemy:
		if s.cfg.Mode == config.ModeHovered {
			return s.scouringAndAlchemyHovered(ctx)
		}
		return s.scouringAndAlchemyBatch(ctx)
	default:
		return fmt.Errorf("%w: cannot find strategy %q", ErrConfiguration, s.cfg.Strategy)
	}
}

func eligible(it item.Item) bool {
	return it.Craftable()
}

func (s *Session) pending(it item.Item) bool {
	return it.Craftable() && !s.processed.Contains(it.ID)
}

func (s *Session) chaosSpamHovered(ctx context.Context) error {
	it, found := s.inv.WaitForHoveredItem(ctx, func(it *item.Item) bool {
		return it != nil
	}, "Get the initial hovered item")
	if !found {
		return abort(ctx, ErrNoHoveredItem)
	}

	return s.craftHovered(ctx, &it, s.engine.ChaosSpam)
}

func (s *Session) scouringAndAlchemyHovered(ctx context.Context) error {
	it, found := s.inv.HoveredItem(ctx)
	if !found {
		return abort(ctx, ErrNoHoveredItem)
	}

	return s.craftHovered(ctx, &it, s.engine.ScouringAndAlchemy)
}

func (s *Session) craftHovered(ctx context.Context, it *item.Item, craftFn func(context.Context, *item.Item) error) error {
	if !it.Craftable() {
		return fmt.Errorf("%w: %s", ErrIneligibleItem, it)
	}

	if s.cfg.UseQualityTool && !s.qualityDone(*it) {
		if !s.inv.UseOnOne(ctx, it, s.tool.Currency(), s.qualityDone) {
			return abort(ctx, fmt.Errorf("%w: %s on %s", ErrQualityFailed, s.tool.Currency(), it))
		}
	}

	if s.Accepted(*it) {
		s.logger.Info("Hovered item already accepted", "item", it.String())
		return nil
	}

	return craftFn(ctx, it)
}

func (s *Session) chaosSpamBatch(ctx context.Context) error {
	// Rares go straight to the chaos pass, only magic maps need scouring.
	if err := s.engine.ScourAll(ctx, eligible, item.RarityMagic); err != nil {
		return err
	}
	if err := s.engine.AlchemyAll(ctx, eligible); err != nil {
		return err
	}
	return s.engine.ChaosSpamAll(ctx, eligible)
}

func (s *Session) scouringAndAlchemyBatch(ctx context.Context) error {
	for {
		if err := cancelled(ctx); err != nil {
			return err
		}

		items, ok := s.inv.FetchItems(ctx, s.pending)
		if !ok {
			return abort(ctx, ErrFetchFailed)
		}

		accepted, remaining := lo.FilterReject(items, func(it item.Item, _ int) bool {
			return s.Accepted(it)
		})
		for _, it := range accepted {
			s.logger.Info("Item accepted", "item", it.String())
			s.processed.Add(it.ID)
		}
		if len(remaining) == 0 {
			return nil
		}
		// Neither pass changes a unique or unknown map.
		if stuck, found := lo.Find(remaining, func(it item.Item) bool {
			return !craftingRarity(it.Rarity)
		}); found {
			return fmt.Errorf("%w: %s", ErrUnsupportedRarity, stuck)
		}

		s.logger.Debug("Crafting batch", "remaining", len(remaining), "processed", len(s.processed))

		if err := s.engine.ScourAll(ctx, s.pending, item.RarityMagic, item.RarityRare); err != nil {
			return err
		}
		if err := s.engine.AlchemyAll(ctx, s.pending); err != nil {
			return err
		}
	}
}
