package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/vietdungdev/mapcrafter/internal/config"
	"github.com/vietdungdev/mapcrafter/internal/craft"
	"github.com/vietdungdev/mapcrafter/internal/crafter"
	"github.com/vietdungdev/mapcrafter/internal/event"
	"github.com/vietdungdev/mapcrafter/internal/quality"
)

type HttpServer struct {
	logger   *slog.Logger
	mu       sync.Mutex // protects server
	server   *http.Server
	manager  *crafter.Manager
	wsServer *WebSocketServer
}

type wsMessage struct {
	Type   string                   `json:"type"`
	Status map[string]crafter.Stats `json:"status,omitempty"`
	Event  *eventPayload            `json:"event,omitempty"`
}

type eventPayload struct {
	Kind       string    `json:"kind"`
	Profile    string    `json:"profile"`
	Message    string    `json:"message"`
	SessionID  string    `json:"sessionId,omitempty"`
	Strategy   string    `json:"strategy,omitempty"`
	Mode       string    `json:"mode,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Processed  int       `json:"processed"`
	OccurredAt time.Time `json:"occurredAt"`
}

type profileView struct {
	Name           string   `json:"name"`
	Strategy       string   `json:"strategy"`
	Mode           string   `json:"mode"`
	UseQualityTool bool     `json:"useQualityTool"`
	QualityTool    string   `json:"qualityTool"`
	MatchMode      string   `json:"matchMode"`
	Patterns       []string `json:"patterns"`
}

func New(logger *slog.Logger, manager *crafter.Manager) *HttpServer {
	s := &HttpServer{
		logger:  logger,
		manager: manager,
	}
	s.wsServer = NewWebSocketServer(logger, s.statusMessage)

	return s
}

func (s *HttpServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.status)
	mux.HandleFunc("GET /api/profiles", s.profiles)
	mux.HandleFunc("POST /api/profiles", s.createProfile)
	mux.HandleFunc("PUT /api/profiles/{name}", s.saveProfile)
	mux.HandleFunc("POST /api/start", s.startProfile)
	mux.HandleFunc("POST /api/stop", s.stopProfile)
	mux.HandleFunc("POST /api/reload-config", s.reloadConfig)
	mux.HandleFunc("/ws", s.wsServer.HandleWebSocket)

	return mux
}

// Listen serves the API until ctx is done or Stop is called.
func (s *HttpServer) Listen(ctx context.Context, port int) error {
	go s.wsServer.Run(ctx)
	go s.broadcastStatus(ctx)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.server = httpSrv
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		if err := s.Stop(); err != nil {
			s.logger.Error("error stopping local server", slog.Any("error", err))
		}
	}()

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HttpServer) Stop() error {
	s.mu.Lock()
	httpSrv := s.server
	s.mu.Unlock()
	if httpSrv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// HandleEvent forwards craft events to the websocket clients.
func (s *HttpServer) HandleEvent(_ context.Context, e event.Event) error {
	payload := &eventPayload{
		Kind:       "message",
		Profile:    e.Profile(),
		Message:    e.Message(),
		OccurredAt: e.OccurredAt(),
	}

	switch evt := e.(type) {
	case event.CraftStartedEvent:
		payload.Kind = "craftStarted"
		payload.SessionID = evt.SessionID
		payload.Strategy = evt.Strategy
		payload.Mode = evt.Mode
	case event.CraftFinishedEvent:
		payload.Kind = "craftFinished"
		payload.SessionID = evt.SessionID
		payload.Reason = string(evt.Reason)
		payload.Processed = evt.Processed
	}

	jsonData, err := json.Marshal(wsMessage{Type: "event", Event: payload})
	if err != nil {
		return err
	}
	s.wsServer.Broadcast(jsonData)

	return nil
}

func (s *HttpServer) statusMessage() []byte {
	jsonData, err := json.Marshal(wsMessage{Type: "status", Status: s.manager.AllStatus()})
	if err != nil {
		s.logger.Error("Failed to marshal status data", slog.Any("error", err))
		return []byte(`{"type":"status"}`)
	}
	return jsonData
}

func (s *HttpServer) broadcastStatus(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.wsServer.Broadcast(s.statusMessage())
		}
	}
}

func (s *HttpServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", slog.Any("error", err))
	}
}

func (s *HttpServer) status(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.manager.AllStatus())
}

func (s *HttpServer) profiles(w http.ResponseWriter, r *http.Request) {
	views := make([]profileView, 0)
	for _, name := range s.manager.AvailableProfiles() {
		cfg, found := config.GetProfile(name)
		if !found {
			continue
		}
		views = append(views, profileView{
			Name:           name,
			Strategy:       string(cfg.Strategy),
			Mode:           string(cfg.Mode),
			UseQualityTool: cfg.UseQualityTool,
			QualityTool:    quality.Tool(cfg.QualityTool).String(),
			MatchMode:      string(cfg.MatchMode),
			Patterns:       cfg.Patterns,
		})
	}

	s.writeJSON(w, http.StatusOK, views)
}

func (s *HttpServer) createProfile(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}

	if err := config.CreateFromTemplate(name); err != nil {
		status := lo.Ternary(errors.Is(err, config.ErrInvalidProfileName), http.StatusBadRequest, http.StatusConflict)
		http.Error(w, err.Error(), status)
		return
	}

	s.logger.Info("Profile created", "profile", name)
	w.WriteHeader(http.StatusCreated)
}

func (s *HttpServer) saveProfile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	current, found := config.GetProfile(name)
	if !found {
		http.Error(w, "profile not found", http.StatusNotFound)
		return
	}

	cfg := current.Clone()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, fmt.Sprintf("invalid profile: %s", err), http.StatusBadRequest)
		return
	}
	cfg.ProfileName = name

	if err := config.SaveProfile(name, &cfg); err != nil {
		if errors.Is(err, config.ErrInvalidProfileName) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, config.ErrInvalidConfig) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Info("Profile saved", "profile", name)
	w.WriteHeader(http.StatusNoContent)
}

func (s *HttpServer) startProfile(w http.ResponseWriter, r *http.Request) {
	profile := r.URL.Query().Get("profile")
	if profile == "" {
		http.Error(w, "missing profile", http.StatusBadRequest)
		return
	}

	err := s.manager.Start(profile)
	switch {
	case errors.Is(err, crafter.ErrUnknownProfile):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, crafter.ErrSessionRunning):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, craft.ErrConfiguration):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusAccepted, s.manager.Status(profile))
}

func (s *HttpServer) stopProfile(w http.ResponseWriter, r *http.Request) {
	profile := r.URL.Query().Get("profile")
	if profile == "" {
		http.Error(w, "missing profile", http.StatusBadRequest)
		return
	}

	if !s.manager.Stop(profile) {
		http.Error(w, "profile is not crafting", http.StatusConflict)
		return
	}

	s.writeJSON(w, http.StatusOK, s.manager.Status(profile))
}

func (s *HttpServer) reloadConfig(w http.ResponseWriter, r *http.Request) {
	if err := config.Load(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Info("Config reloaded")
	w.WriteHeader(http.StatusOK)
}
