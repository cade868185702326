// Package network - replay.go
// Journal replay endpoints: the live event log of the running shift and
// reports rebuilt from the SQLite journal.
package network

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/nightcrew/lastshift/internal/events"
	"github.com/nightcrew/lastshift/internal/infra/storage"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

// ReplayHandler serves the shift journal.
type ReplayHandler struct {
	eventLog      *events.EventLog
	reconstructor *storage.Reconstructor
	shifts        storage.ShiftRepository
	logger        *logger.Logger
}

// NewReplayHandler creates a replay handler. rec and shifts may be nil when
// no durable journal is configured.
func NewReplayHandler(el *events.EventLog, rec *storage.Reconstructor, shifts storage.ShiftRepository, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		eventLog:      el,
		reconstructor: rec,
		shifts:        shifts,
		logger:        log,
	}
}

// ReplayEvent is an event as the replay API shows it.
type ReplayEvent struct {
	ID        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	Clock     string                 `json:"clock"`
	Type      string                 `json:"type"`
	Actor     string                 `json:"actor"`
	Target    string                 `json:"target,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// ReplayResponse is the API response for a replay query.
type ReplayResponse struct {
	SessionID   string        `json:"session_id"`
	TotalEvents int           `json:"total_events"`
	FilteredBy  string        `json:"filtered_by,omitempty"`
	GeneratedAt string        `json:"generated_at"`
	Events      []ReplayEvent `json:"events"`
}

// HandleReplay returns the live journal.
// GET /api/replay?type=TOOL_USED&actor=player&since=N
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	eventType := q.Get("type")
	actor := q.Get("actor")

	since := 0
	if s := q.Get("since"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			jsonError(w, "Invalid since", http.StatusBadRequest)
			return
		}
		since = n
	}

	filterDesc := ""
	if eventType != "" {
		filterDesc = "type=" + eventType
	}
	if actor != "" {
		if filterDesc != "" {
			filterDesc += " "
		}
		filterDesc += "actor=" + actor
	}

	sessionID := ""
	replayEvents := []ReplayEvent{}
	for _, e := range rh.eventLog.Since(since) {
		sessionID = e.SessionID
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		if actor != "" && e.ActorID != actor {
			continue
		}
		replayEvents = append(replayEvents, convertToReplayEvent(e))
	}

	rh.logger.Event("REPLAY", "HTTP", "Events:"+strconv.Itoa(len(replayEvents)))
	jsonSuccess(w, ReplayResponse{
		SessionID:   sessionID,
		TotalEvents: len(replayEvents),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      replayEvents,
	})
}

// HandleEventDetail returns one event of the live journal.
// GET /api/replay/events/{id}
func (rh *ReplayHandler) HandleEventDetail(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["id"]
	for _, e := range rh.eventLog.Replay() {
		if e.ID == eventID {
			jsonSuccess(w, convertToReplayEvent(e))
			return
		}
	}
	jsonError(w, "Event not found", http.StatusNotFound)
}

// HandleStats returns per-type counts for the live journal.
// GET /api/replay/stats
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	all := rh.eventLog.Replay()
	byType := make(map[string]int)
	byActor := make(map[string]int)
	for _, e := range all {
		byType[string(e.Type)]++
		byActor[e.ActorID]++
	}
	jsonSuccess(w, map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"total_events": len(all),
		"by_type":      byType,
		"by_actor":     byActor,
	})
}

// HandleShifts lists recorded shifts, newest first.
// GET /api/shifts?limit=N
func (rh *ReplayHandler) HandleShifts(w http.ResponseWriter, r *http.Request) {
	if rh.shifts == nil {
		jsonError(w, "No journal configured", http.StatusNotFound)
		return
	}
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			jsonError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	list, err := rh.shifts.List(r.Context(), limit)
	if err != nil {
		rh.logger.Err(err, "Failed to list shifts")
		jsonError(w, "Failed to list shifts", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []storage.ShiftRecord{}
	}
	jsonSuccess(w, list)
}

// HandleReport rebuilds a shift's report from the journal.
// GET /api/shifts/{id}/report
func (rh *ReplayHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	rh.fromJournal(w, r, func(ctx context.Context, id string) (interface{}, error) {
		return rh.reconstructor.BuildReport(ctx, id)
	})
}

// HandleTimeline lists the notable moments of a shift.
// GET /api/shifts/{id}/timeline
func (rh *ReplayHandler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	rh.fromJournal(w, r, func(ctx context.Context, id string) (interface{}, error) {
		return rh.reconstructor.GenerateTimeline(ctx, id)
	})
}

func (rh *ReplayHandler) fromJournal(w http.ResponseWriter, r *http.Request, build func(context.Context, string) (interface{}, error)) {
	if rh.reconstructor == nil {
		jsonError(w, "No journal configured", http.StatusNotFound)
		return
	}
	id := mux.Vars(r)["id"]
	out, err := build(r.Context(), id)
	if errors.Is(err, storage.ErrNoJournal) {
		jsonError(w, "Shift not found", http.StatusNotFound)
		return
	}
	if err != nil {
		rh.logger.Err(err, "Failed to read journal for "+id)
		jsonError(w, "Failed to read journal", http.StatusInternalServerError)
		return
	}
	jsonSuccess(w, out)
}

// RegisterRoutes sets up the replay API routes.
func (rh *ReplayHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/replay", rh.HandleReplay).Methods(http.MethodGet)
	r.HandleFunc("/api/replay/stats", rh.HandleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/replay/events/{id}", rh.HandleEventDetail).Methods(http.MethodGet)
	r.HandleFunc("/api/shifts", rh.HandleShifts).Methods(http.MethodGet)
	r.HandleFunc("/api/shifts/{id}/report", rh.HandleReport).Methods(http.MethodGet)
	r.HandleFunc("/api/shifts/{id}/timeline", rh.HandleTimeline).Methods(http.MethodGet)
}

func convertToReplayEvent(e events.GameEvent) ReplayEvent {
	details, _ := e.Payload.(map[string]interface{})
	return ReplayEvent{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format("15:04:05"),
		Clock:     storage.ClockLabel(e.ClockTime),
		Type:      string(e.Type),
		Actor:     e.ActorID,
		Target:    e.TargetID,
		Details:   details,
	}
}

// jsonError sends an error response.
func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// jsonSuccess sends a success response.
func jsonSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}
