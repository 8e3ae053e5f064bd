package crafter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietdungdev/mapcrafter/internal/config"
	"github.com/vietdungdev/mapcrafter/internal/craft"
	"github.com/vietdungdev/mapcrafter/internal/event"
	"github.com/vietdungdev/mapcrafter/internal/inventory"
	"github.com/vietdungdev/mapcrafter/internal/item"
)

const quantityPattern = `Item Quantity: \+([3-9].|1..)%`

// blockingInventory holds the session in IdentifyAll until it is cancelled.
type blockingInventory struct {
	started chan struct{}
}

func (b *blockingInventory) IdentifyAll(ctx context.Context) bool {
	close(b.started)
	<-ctx.Done()
	return false
}

func (b *blockingInventory) UseOnMany(context.Context, string, craft.Condition, craft.Condition) bool {
	return false
}

func (b *blockingInventory) UseOnOne(context.Context, *item.Item, string, craft.Condition) bool {
	return false
}

func (b *blockingInventory) HoveredItem(context.Context) (item.Item, bool) {
	return item.Item{}, false
}

func (b *blockingInventory) WaitForHoveredItem(context.Context, func(*item.Item) bool, string) (item.Item, bool) {
	return item.Item{}, false
}

func (b *blockingInventory) FetchItems(context.Context, craft.Condition) ([]item.Item, bool) {
	return nil, false
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setProfiles(t *testing.T) {
	t.Helper()
	previous := config.Profiles
	t.Cleanup(func() { config.Profiles = previous })

	config.Profiles = map[string]*config.CraftCfg{
		"strand": {
			Strategy:    config.StrategyScouringAndAlchemy,
			Mode:        config.ModeHovered,
			Patterns:    []string{quantityPattern},
			ProfileName: "strand",
		},
		"broken": {
			Strategy:    config.StrategyChaosSpam,
			Mode:        config.ModeBatch,
			Patterns:    []string{"("},
			ProfileName: "broken",
		},
		"template": {ProfileName: "template"},
	}
}

func simulated(string) (craft.Inventory, error) {
	return inventory.New(config.SimulatorCfg{Seed: 7, Maps: 3, MaxAttempts: 500, HoverTimeoutMs: 10}, discardLogger()), nil
}

func TestRunSucceeds(t *testing.T) {
	setProfiles(t)
	mng := NewManager(discardLogger(), simulated)

	ok, err := mng.Run(context.Background(), "strand")

	require.NoError(t, err)
	assert.True(t, ok)
	status := mng.Status("strand")
	assert.Equal(t, Succeeded, status.Status)
	assert.NotEmpty(t, status.SessionID)
	assert.Empty(t, status.Error)
	assert.False(t, status.StartedAt.IsZero())
	assert.False(t, status.FinishedAt.Before(status.StartedAt))
}

func TestRunRejectsBadProfiles(t *testing.T) {
	setProfiles(t)
	mng := NewManager(discardLogger(), simulated)

	_, err := mng.Run(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownProfile)

	_, err = mng.Run(context.Background(), "broken")
	assert.ErrorIs(t, err, craft.ErrConfiguration)
	assert.Equal(t, NotStarted, mng.Status("broken").Status)

	failing := NewManager(discardLogger(), func(string) (craft.Inventory, error) {
		return nil, errors.New("game window not found")
	})
	_, err = failing.Run(context.Background(), "strand")
	assert.ErrorContains(t, err, "game window not found")
}

func TestStartAndStop(t *testing.T) {
	setProfiles(t)
	inv := &blockingInventory{started: make(chan struct{})}
	mng := NewManager(discardLogger(), func(string) (craft.Inventory, error) { return inv, nil })

	require.NoError(t, mng.Start("strand"))
	select {
	case <-inv.started:
	case <-time.After(time.Second):
		t.Fatal("session did not start")
	}

	assert.Equal(t, Crafting, mng.Status("strand").Status)
	assert.ErrorIs(t, mng.Start("strand"), ErrSessionRunning)

	assert.True(t, mng.Stop("strand"))
	status := mng.Status("strand")
	assert.Equal(t, Cancelled, status.Status)
	assert.Contains(t, status.Error, craft.ErrCancelled.Error())

	assert.False(t, mng.Stop("strand"))
}

func TestStopAll(t *testing.T) {
	setProfiles(t)
	config.Profiles["other"] = &config.CraftCfg{Strategy: config.StrategyChaosSpam, Mode: config.ModeBatch, ProfileName: "other"}

	started := make(chan struct{}, 2)
	mng := NewManager(discardLogger(), func(string) (craft.Inventory, error) {
		inv := &blockingInventory{started: make(chan struct{})}
		go func() {
			<-inv.started
			started <- struct{}{}
		}()
		return inv, nil
	})

	require.NoError(t, mng.Start("strand"))
	require.NoError(t, mng.Start("other"))
	for range 2 {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("sessions did not start")
		}
	}

	mng.StopAll()

	assert.Equal(t, Cancelled, mng.Status("strand").Status)
	assert.Equal(t, Cancelled, mng.Status("other").Status)
}

func TestAllStatusListsIdleProfiles(t *testing.T) {
	setProfiles(t)
	mng := NewManager(discardLogger(), simulated)

	status := mng.AllStatus()

	assert.Equal(t, map[string]Stats{
		"broken": {Status: NotStarted},
		"strand": {Status: NotStarted},
	}, status)
	assert.Equal(t, []string{"broken", "strand"}, mng.AvailableProfiles())
}

func TestRunPublishesEvents(t *testing.T) {
	setProfiles(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan event.Event, 10)
	listener := event.NewListener(discardLogger())
	listener.Register(func(_ context.Context, e event.Event) error {
		if e.Profile() == "strand" {
			received <- e
		}
		return nil
	})
	go listener.Listen(ctx)

	mng := NewManager(discardLogger(), simulated)
	ok, err := mng.Run(ctx, "strand")
	require.NoError(t, err)
	require.True(t, ok)
	sessionID := mng.Status("strand").SessionID

	var started event.CraftStartedEvent
	var finished event.CraftFinishedEvent
	for started.SessionID != sessionID || finished.SessionID != sessionID {
		select {
		case e := <-received:
			switch evt := e.(type) {
			case event.CraftStartedEvent:
				started = evt
			case event.CraftFinishedEvent:
				finished = evt
			}
		case <-time.After(time.Second):
			t.Fatal("craft events were not published")
		}
	}

	assert.Equal(t, string(config.StrategyScouringAndAlchemy), started.Strategy)
	assert.Equal(t, string(config.ModeHovered), started.Mode)
	assert.Equal(t, event.FinishedSuccess, finished.Reason)
}
