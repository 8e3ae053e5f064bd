package discord

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietdungdev/mapcrafter/internal/config"
	"github.com/vietdungdev/mapcrafter/internal/craft"
	"github.com/vietdungdev/mapcrafter/internal/crafter"
	"github.com/vietdungdev/mapcrafter/internal/event"
	"github.com/vietdungdev/mapcrafter/internal/item"
)

type idleInventory struct{}

func (idleInventory) IdentifyAll(ctx context.Context) bool {
	<-ctx.Done()
	return false
}
func (idleInventory) UseOnMany(context.Context, string, craft.Condition, craft.Condition) bool {
	return false
}
func (idleInventory) UseOnOne(context.Context, *item.Item, string, craft.Condition) bool {
	return false
}
func (idleInventory) HoveredItem(context.Context) (item.Item, bool) { return item.Item{}, false }
func (idleInventory) WaitForHoveredItem(context.Context, func(*item.Item) bool, string) (item.Item, bool) {
	return item.Item{}, false
}
func (idleInventory) FetchItems(context.Context, craft.Condition) ([]item.Item, bool) {
	return nil, false
}

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	previous := config.Profiles
	t.Cleanup(func() { config.Profiles = previous })
	config.Profiles = map[string]*config.CraftCfg{
		"strand": {Strategy: config.StrategyChaosSpam, Mode: config.ModeBatch, ProfileName: "strand"},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := crafter.NewManager(logger, func(string) (craft.Inventory, error) { return idleInventory{}, nil })
	t.Cleanup(manager.StopAll)

	return &Bot{manager: manager}
}

func TestCommands(t *testing.T) {
	b := newTestBot(t)

	assert.Equal(t, "Usage: !craft <profile1> [profile2] ...", b.handleCommand("!craft").Content)
	assert.Equal(t, "Profile 'tower' not found.", b.handleCommand("!craft tower").Content)
	assert.Equal(t, "Profile 'strand' is not_started", b.handleCommand("!status").Content)

	assert.Equal(t, "Craft session for 'strand' has been started.", b.handleCommand("!craft strand").Content)
	assert.Contains(t, b.handleCommand("!craft strand").Content, "already running")
	assert.Equal(t, "Profile 'strand' is crafting", b.handleCommand("!status strand").Content)

	list := b.handleCommand("!list")
	require.Len(t, list.Embeds, 1)
	require.Len(t, list.Embeds[0].Fields, 1)
	assert.Equal(t, "strand", list.Embeds[0].Fields[0].Name)
	assert.Contains(t, list.Embeds[0].Fields[0].Value, "crafting")

	assert.Equal(t, "Craft session for 'strand' has been stopped.", b.handleCommand("!stop strand").Content)
	assert.Equal(t, "Profile 'strand' is not crafting.", b.handleCommand("!stop strand").Content)
	assert.Contains(t, b.handleCommand("!status strand").Content, "Profile 'strand' is cancelled (0 processed): craft cancelled")

	assert.Equal(t, "Unknown command: `!drops`. Type `!help` for available commands.", b.handleCommand("!drops").Content)
	assert.NotEmpty(t, b.handleCommand("!help").Embeds)
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "42s", formatUptime(42e9))
	assert.Equal(t, "3m", formatUptime(200e9))
	assert.Equal(t, "2h 5m", formatUptime(7500e9))
}

func TestWebhookEvents(t *testing.T) {
	var contents, payloads []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		if c := r.FormValue("content"); c != "" {
			contents = append(contents, c)
		}
		if p := r.FormValue("payload_json"); p != "" {
			payloads = append(payloads, p)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	b, err := NewBot("", "", nil, true, srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, b.Handle(ctx, event.CraftStarted(event.Text("strand", "Craft session started"), "id-1", "chaos", "batch")))
	require.NoError(t, b.Handle(ctx, event.CraftFinished(event.Text("strand", "Craft session success"), "id-1", event.FinishedSuccess, 4)))
	require.NoError(t, b.Handle(ctx, event.Text("strand", "ignored")))
	require.NoError(t, b.Handle(ctx, event.TunnelOpened("https://crafter.ngrok.app")))

	assert.Equal(t, []string{
		"**[strand]** started a craft session: **chaos** / **batch**",
		"Remote control: <https://crafter.ngrok.app>",
	}, contents)
	require.Len(t, payloads, 1)

	var payload struct {
		Embeds []*discordgo.MessageEmbed `json:"embeds"`
	}
	require.NoError(t, json.Unmarshal([]byte(payloads[0]), &payload))
	require.Len(t, payload.Embeds, 1)
	assert.Equal(t, "[strand] craft success", payload.Embeds[0].Title)
	assert.Equal(t, 0x00ff00, payload.Embeds[0].Color)
	assert.Equal(t, "4", payload.Embeds[0].Fields[0].Value)
}

func TestWebhookErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/bad" {
			http.Error(w, "invalid form body", http.StatusBadRequest)
			return
		}
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newWebhookClient(srv.URL)
	client.delay = time.Millisecond
	err := client.Send(context.Background(), "hello")
	assert.ErrorContains(t, err, "webhook returned 429: rate limited")
	assert.Equal(t, int32(webhookAttempts), calls.Load())

	calls.Store(0)
	client = newWebhookClient(srv.URL + "/bad")
	client.delay = time.Millisecond
	err = client.Send(context.Background(), "hello")
	assert.ErrorContains(t, err, "webhook returned 400: invalid form body")
	assert.Equal(t, int32(1), calls.Load())

	_, err = NewBot("", "", nil, true, "")
	assert.Error(t, err)
}
