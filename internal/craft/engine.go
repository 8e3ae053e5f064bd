package craft

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/vietdungdev/mapcrafter/internal/currency"
	"github.com/vietdungdev/mapcrafter/internal/item"
)

// Engine drives the rarity of maps towards an accepted rare item.
type Engine struct {
	inv    Inventory
	accept Condition
	logger *slog.Logger
}

func NewEngine(inv Inventory, accept Condition, logger *slog.Logger) *Engine {
	return &Engine{inv: inv, accept: accept, logger: logger}
}

func isRarity(r item.Rarity) Condition {
	return func(it item.Item) bool {
		return it.Rarity == r
	}
}

func craftingRarity(r item.Rarity) bool {
	return r == item.RarityNormal || r == item.RarityMagic || r == item.RarityRare
}

func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

// abort prefers the cancellation error, a game layer giving up because the
// context ended must not look like a craft failure.
func abort(ctx context.Context, err error) error {
	if cErr := cancelled(ctx); cErr != nil {
		return cErr
	}
	return err
}

func (e *Engine) use(ctx context.Context, it *item.Item, cur string, post Condition) error {
	e.logger.Debug("Applying currency", "currency", cur, "item", it.String())
	if !e.inv.UseOnOne(ctx, it, cur, post) {
		return abort(ctx, fmt.Errorf("%w: %s on %s", ErrCurrencyFailed, cur, it))
	}
	return nil
}

func (e *Engine) useOnMany(ctx context.Context, cur string, filter, post Condition) error {
	e.logger.Debug("Applying currency to every matching item", "currency", cur)
	if !e.inv.UseOnMany(ctx, cur, filter, post) {
		return abort(ctx, fmt.Errorf("%w: %s on inventory", ErrCurrencyFailed, cur))
	}
	return nil
}

// ChaosSpam rolls the item to rare if needed and then rerolls it with chaos
// orbs until it is accepted.
func (e *Engine) ChaosSpam(ctx context.Context, it *item.Item) error {
	if !it.Craftable() {
		return fmt.Errorf("%w: %s", ErrIneligibleItem, it)
	}

	switch it.Rarity {
	case item.RarityNormal:
		if err := e.use(ctx, it, currency.OrbOfAlchemy, isRarity(item.RarityRare)); err != nil {
			return err
		}
	case item.RarityMagic:
		if err := e.use(ctx, it, currency.OrbOfScouring, isRarity(item.RarityNormal)); err != nil {
			return err
		}
		if err := e.use(ctx, it, currency.OrbOfAlchemy, isRarity(item.RarityRare)); err != nil {
			return err
		}
	case item.RarityRare:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedRarity, it)
	}

	return e.use(ctx, it, currency.ChaosOrb, e.accept)
}

// ScouringAndAlchemy scours and re-alchemies the item until it is accepted.
// There is no attempt cap, a pattern the item can never satisfy loops until
// the context is cancelled.
func (e *Engine) ScouringAndAlchemy(ctx context.Context, it *item.Item) error {
	if !it.Craftable() {
		return fmt.Errorf("%w: %s", ErrIneligibleItem, it)
	}

	for !e.accept(*it) {
		if err := cancelled(ctx); err != nil {
			return err
		}
		if !craftingRarity(it.Rarity) {
			return fmt.Errorf("%w: %s", ErrUnsupportedRarity, it)
		}

		if it.Rarity == item.RarityRare || it.Rarity == item.RarityMagic {
			if err := e.use(ctx, it, currency.OrbOfScouring, isRarity(item.RarityNormal)); err != nil {
				return err
			}
		}

		if it.Rarity != item.RarityNormal {
			continue
		}

		if err := e.use(ctx, it, currency.OrbOfAlchemy, isRarity(item.RarityRare)); err != nil {
			return err
		}
	}

	return nil
}

// ScourAll turns every non accepted item passing filter with one of the given
// rarities back to normal.
func (e *Engine) ScourAll(ctx context.Context, filter Condition, rarities ...item.Rarity) error {
	return e.useOnMany(ctx, currency.OrbOfScouring, func(it item.Item) bool {
		return filter(it) && slices.Contains(rarities, it.Rarity) && !e.accept(it)
	}, isRarity(item.RarityNormal))
}

// AlchemyAll turns every normal, non accepted item passing filter into a rare.
func (e *Engine) AlchemyAll(ctx context.Context, filter Condition) error {
	return e.useOnMany(ctx, currency.OrbOfAlchemy, func(it item.Item) bool {
		return filter(it) && it.Rarity == item.RarityNormal && !e.accept(it)
	}, isRarity(item.RarityRare))
}

// ChaosSpamAll rerolls every rare item passing filter until it is accepted.
func (e *Engine) ChaosSpamAll(ctx context.Context, filter Condition) error {
	return e.useOnMany(ctx, currency.ChaosOrb, func(it item.Item) bool {
		return filter(it) && it.Rarity == item.RarityRare && !e.accept(it)
	}, e.accept)
}
