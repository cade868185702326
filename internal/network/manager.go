// Package network - manager.go
// Night manager REST bridge: lets someone outside the store speak over the
// PA and poke the running shift with commands.
package network

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/nightcrew/lastshift/internal/engine"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

const (
	// MaxAnnouncementLength caps PA text accepted over HTTP.
	MaxAnnouncementLength = 140
	// DefaultAnnounceCooldown is the minimum gap between manager announcements.
	DefaultAnnounceCooldown = 5 * time.Second
)

// ManagerBridge handles the REST side of a hosted shift.
type ManagerBridge struct {
	controller Controller
	hub        *Hub
	logger     *logger.Logger
	cooldown   time.Duration
	now        func() time.Time

	mu           sync.Mutex
	lastAnnounce time.Time
}

// NewManagerBridge creates the bridge. A zero cooldown uses
// DefaultAnnounceCooldown.
func NewManagerBridge(ctl Controller, hub *Hub, log *logger.Logger, cooldown time.Duration) *ManagerBridge {
	if cooldown <= 0 {
		cooldown = DefaultAnnounceCooldown
	}
	return &ManagerBridge{
		controller: ctl,
		hub:        hub,
		logger:     log,
		cooldown:   cooldown,
		now:        time.Now,
	}
}

// AnnounceRequest is the payload for a PA announcement.
type AnnounceRequest struct {
	Text    string `json:"text"`
	Manager string `json:"manager"`
}

// HandleAnnounce queues a PA announcement. Empty text picks a stock line.
// POST /api/manager/announce
func (mb *ManagerBridge) HandleAnnounce(w http.ResponseWriter, r *http.Request) {
	var req AnnounceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if len(req.Text) > MaxAnnouncementLength {
		jsonError(w, "Announcement too long", http.StatusBadRequest)
		return
	}

	mb.mu.Lock()
	now := mb.now()
	if !mb.lastAnnounce.IsZero() && now.Sub(mb.lastAnnounce) < mb.cooldown {
		mb.mu.Unlock()
		jsonError(w, "The PA is still warming up", http.StatusTooManyRequests)
		return
	}
	mb.lastAnnounce = now
	mb.mu.Unlock()

	if !mb.controller.Submit(engine.Command{Kind: engine.CmdAnnounce, Text: req.Text}) {
		jsonError(w, "Command queue full", http.StatusServiceUnavailable)
		return
	}

	manager := req.Manager
	if manager == "" {
		manager = "anonymous"
	}
	mb.logger.Event("MANAGER_ANNOUNCE", manager, req.Text)

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"queued": true,
		"text":   req.Text,
	})
}

// HandleCommand queues any engine command. The result arrives on the
// websocket as a "result" message.
// POST /api/shift/command
func (mb *ManagerBridge) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd engine.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !cmd.Kind.Valid() {
		jsonError(w, "Unknown command", http.StatusBadRequest)
		return
	}
	if !mb.controller.Submit(cmd) {
		mb.hub.metrics.RecordCommandDropped()
		jsonError(w, "Command queue full", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"queued": true,
		"kind":   cmd.Kind,
	})
}

// HandleStatus reports connected renderers.
// GET /api/manager/status
func (mb *ManagerBridge) HandleStatus(w http.ResponseWriter, r *http.Request) {
	jsonSuccess(w, map[string]interface{}{
		"renderers": mb.hub.ClientCount(),
		"timestamp": time.Now().Unix(),
	})
}

// RegisterRoutes sets up the manager API routes.
func (mb *ManagerBridge) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/manager/announce", mb.HandleAnnounce).Methods(http.MethodPost)
	r.HandleFunc("/api/manager/status", mb.HandleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/shift/command", mb.HandleCommand).Methods(http.MethodPost)
}
