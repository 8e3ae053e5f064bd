package crafter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/vietdungdev/mapcrafter/internal/config"
	"github.com/vietdungdev/mapcrafter/internal/craft"
	"github.com/vietdungdev/mapcrafter/internal/event"
)

var (
	ErrSessionRunning = errors.New("a craft session is already running for this profile")
	ErrUnknownProfile = errors.New("profile not found")
)

// InventoryProvider returns the inventory a session of the given profile
// crafts on.
type InventoryProvider func(profile string) (craft.Inventory, error)

type running struct {
	session *craft.Session
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

type Manager struct {
	logger   *slog.Logger
	provider InventoryProvider
	mu       sync.RWMutex // protects sessions and stats maps
	sessions map[string]*running
	stats    map[string]Stats
}

func NewManager(logger *slog.Logger, provider InventoryProvider) *Manager {
	return &Manager{
		logger:   logger,
		provider: provider,
		sessions: make(map[string]*running),
		stats:    make(map[string]Stats),
	}
}

func (mng *Manager) AvailableProfiles() []string {
	return config.ProfileNames()
}

// Start launches a session for the profile in the background.
func (mng *Manager) Start(profile string) error {
	r, err := mng.prepare(context.Background(), profile)
	if err != nil {
		return err
	}

	go mng.execute(profile, r)

	return nil
}

// Run crafts the profile and blocks until the session ends.
func (mng *Manager) Run(ctx context.Context, profile string) (bool, error) {
	r, err := mng.prepare(ctx, profile)
	if err != nil {
		return false, err
	}

	return mng.execute(profile, r)
}

func (mng *Manager) prepare(ctx context.Context, profile string) (*running, error) {
	mng.mu.RLock()
	_, exists := mng.sessions[profile]
	mng.mu.RUnlock()
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionRunning, profile)
	}

	cfg, found := config.GetProfile(profile)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, profile)
	}

	inv, err := mng.provider(profile)
	if err != nil {
		return nil, fmt.Errorf("error preparing inventory for %s: %w", profile, err)
	}

	session, err := craft.NewSession(*cfg, inv, mng.logger)
	if err != nil {
		return nil, err
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	r := &running{session: session, ctx: sessionCtx, cancel: cancel, done: make(chan struct{})}

	mng.mu.Lock()
	defer mng.mu.Unlock()
	// Two concurrent Start calls can both pass the read locked check above.
	if _, alreadyRunning := mng.sessions[profile]; alreadyRunning {
		cancel()
		return nil, fmt.Errorf("%w: %s", ErrSessionRunning, profile)
	}
	mng.sessions[profile] = r
	mng.stats[profile] = Stats{
		Status:    Crafting,
		SessionID: session.ID,
		StartedAt: time.Now(),
	}

	return r, nil
}

func (mng *Manager) execute(profile string, r *running) (bool, error) {
	defer close(r.done)
	defer r.cancel()

	cfg := r.session.Config()
	event.Send(event.CraftStarted(event.Text(profile, "Craft session started"), r.session.ID, string(cfg.Strategy), string(cfg.Mode)))

	ok, err := r.session.Run(r.ctx)

	status, reason := outcome(ok, err)
	processed := len(r.session.Processed())
	message := fmt.Sprintf("Craft session %s", reason)
	stats := Stats{
		Status:     status,
		SessionID:  r.session.ID,
		Processed:  processed,
		FinishedAt: time.Now(),
	}
	if failure := r.session.Failure(); failure != nil {
		stats.Error = failure.Error()
		message = fmt.Sprintf("%s: %s", message, failure)
	}

	mng.mu.Lock()
	stats.StartedAt = mng.stats[profile].StartedAt
	mng.stats[profile] = stats
	delete(mng.sessions, profile)
	mng.mu.Unlock()

	if !ok {
		mng.logger.Warn("Craft session ended without success", "profile", profile, "reason", reason, slog.Any("error", err))
	}
	event.Send(event.CraftFinished(event.Text(profile, message), r.session.ID, reason, processed))

	return ok, err
}

func outcome(ok bool, err error) (Status, event.FinishReason) {
	switch {
	case ok:
		return Succeeded, event.FinishedSuccess
	case errors.Is(err, craft.ErrCancelled):
		return Cancelled, event.FinishedCancelled
	case err != nil:
		return Errored, event.FinishedError
	default:
		return Failed, event.FinishedFailed
	}
}

// Stop cancels the session of the profile and waits until it returned. It
// reports false when no session was running.
func (mng *Manager) Stop(profile string) bool {
	mng.mu.RLock()
	r, found := mng.sessions[profile]
	mng.mu.RUnlock()
	if !found {
		return false
	}

	r.cancel()
	<-r.done

	return true
}

func (mng *Manager) StopAll() {
	mng.mu.RLock()
	snapshot := make([]*running, 0, len(mng.sessions))
	for _, r := range mng.sessions {
		snapshot = append(snapshot, r)
	}
	mng.mu.RUnlock()

	for _, r := range snapshot {
		r.cancel()
	}
	for _, r := range snapshot {
		<-r.done
	}
}

func (mng *Manager) Status(profile string) Stats {
	mng.mu.RLock()
	defer mng.mu.RUnlock()

	if stats, found := mng.stats[profile]; found {
		return stats
	}
	return Stats{Status: NotStarted}
}

// AllStatus returns the status of every profile, idle ones included.
func (mng *Manager) AllStatus() map[string]Stats {
	mng.mu.RLock()
	status := maps.Clone(mng.stats)
	mng.mu.RUnlock()

	for _, profile := range mng.AvailableProfiles() {
		if _, found := status[profile]; !found {
			status[profile] = Stats{Status: NotStarted}
		}
	}
	return status
}
