// Package storage - reconstructor.go
// Rebuilds the story of a shift from its journal: report = f(events).
package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Reconstructor rebuilds shift reports from the journal.
// This is used for:
// 1. The end-of-shift report in the terminal and server
// 2. The replay endpoint's timeline
// 3. Auditing and debugging
type Reconstructor struct {
	eventRepo JournalRepository
}

// NewReconstructor creates a new report builder.
func NewReconstructor(eventRepo JournalRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo}
}

// ShiftReport is what happened during one shift, counted from the journal.
type ShiftReport struct {
	SessionID     string         `json:"session_id"`
	Night         int            `json:"night"`
	Outcome       string         `json:"outcome"`
	Reason        string         `json:"reason,omitempty"`
	Score         int            `json:"score"`
	HoursSurvived float64        `json:"hours_survived"`
	StartedAt     time.Time      `json:"started_at"`
	EndedAt       time.Time      `json:"ended_at"`
	Events        int            `json:"events"`
	SanityLost    float64        `json:"sanity_lost"`
	SanityGained  float64        `json:"sanity_gained"`
	Repaired      float64        `json:"integrity_repaired"`
	Pickups       map[string]int `json:"pickups"`
	ToolsUsed     map[string]int `json:"tools_used"`
	ToolsFailed   int            `json:"tools_failed"`
	Spawned       map[string]int `json:"spawned"`
	WindowsBroken int            `json:"windows_broken"`
	WindowsFixed  int            `json:"windows_fixed"`
	Announcements int            `json:"announcements"`
	Directives    int            `json:"directives"`
	Scares        int            `json:"scares"`
}

// RecapEvent is a simplified event for the timeline view.
type RecapEvent struct {
	Clock     string `json:"clock"`
	EventType string `json:"event_type"`
	Summary   string `json:"summary"` // Human-readable description
	Impact    string `json:"impact"`  // "POSITIVE", "NEGATIVE", "NEUTRAL"
}

// BuildReport reconstructs a shift's report from its events.
func (r *Reconstructor) BuildReport(ctx context.Context, sessionID string) (*ShiftReport, error) {
	events, err := r.eventRepo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for shift: %w", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoJournal, sessionID)
	}

	rep := &ShiftReport{
		SessionID: sessionID,
		Outcome:   OutcomeInProgress,
		Pickups:   map[string]int{},
		ToolsUsed: map[string]int{},
		Spawned:   map[string]int{},
		StartedAt: events[0].Timestamp,
		EndedAt:   events[len(events)-1].Timestamp,
		Events:    len(events),
	}

	// Process events in journal order
	for _, e := range events {
		r.applyEventToReport(rep, e)
	}
	return rep, nil
}

// GenerateTimeline lists the notable moments of a shift. Chatter such as
// spawns of loose items and plain messages is left out.
func (r *Reconstructor) GenerateTimeline(ctx context.Context, sessionID string) ([]RecapEvent, error) {
	events, err := r.eventRepo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoJournal, sessionID)
	}

	var recap []RecapEvent
	for _, e := range events {
		summary := r.summarizeEvent(e)
		if summary == "" {
			continue
		}
		recap = append(recap, RecapEvent{
			Clock:     ClockLabel(e.ClockTime),
			EventType: e.EventType,
			Summary:   summary,
			Impact:    r.determineImpact(e),
		})
	}
	return recap, nil
}

// applyEventToReport folds one event into the report.
func (r *Reconstructor) applyEventToReport(rep *ShiftReport, e JournalEvent) {
	switch e.EventType {
	case "SHIFT_STARTED":
		rep.Night = e.Night
	case "SANITY_CHANGE":
		if d := num(e.Payload, "delta"); d < 0 {
			rep.SanityLost -= d
		} else {
			rep.SanityGained += d
		}
	case "INTEGRITY_CHANGE":
		if d := num(e.Payload, "delta"); d > 0 {
			rep.Repaired += d
		}
	case "ITEM_PICKED_UP":
		rep.Pickups[str(e.Payload, "type")]++
	case "TOOL_USED":
		rep.ToolsUsed[str(e.Payload, "tool")]++
	case "TOOL_FAILED":
		rep.ToolsFailed++
	case "ENTITY_SPAWNED":
		rep.Spawned[str(e.Payload, "type")]++
	case "WINDOW_BREAKING":
		rep.WindowsBroken++
	case "WINDOW_REPAIRED":
		rep.WindowsFixed++
	case "PA_ANNOUNCEMENT":
		rep.Announcements++
	case "DIRECTIVE_COMPLETED":
		rep.Directives++
	case "EFFECT_STARTED":
		rep.Scares++
	case "SHIFT_COMPLETE":
		rep.Outcome = OutcomeWin
		rep.Score = int(num(e.Payload, "score"))
		rep.HoursSurvived = num(e.Payload, "hours_survived")
	case "GAME_OVER":
		rep.Outcome = OutcomeLoss
		rep.Reason = str(e.Payload, "reason")
		rep.Score = int(num(e.Payload, "score"))
		rep.HoursSurvived = num(e.Payload, "hours_survived")
	}
}

// summarizeEvent creates a human-readable summary, or "" to skip the event.
func (r *Reconstructor) summarizeEvent(e JournalEvent) string {
	switch e.EventType {
	case "SHIFT_STARTED":
		return fmt.Sprintf("The %s night shift began.", humanize.Ordinal(e.Night))
	case "HOUR_STRUCK":
		return "The clock struck " + ClockLabel(num(e.Payload, "hour")) + "."
	case "ITEM_PICKED_UP":
		return "Picked up " + str(e.Payload, "type") + "."
	case "TOOL_USED", "TOOL_FAILED":
		return str(e.Payload, "message")
	case "ENTITY_SPAWNED":
		return "On the floor: " + strings.ReplaceAll(str(e.Payload, "type"), "_", " ") + "."
	case "WINDOW_BREAKING":
		return "A window started to give way."
	case "WINDOW_REPAIRED":
		return "A window was taped shut."
	case "PA_ANNOUNCEMENT":
		return "PA: " + str(e.Payload, "text")
	case "DIRECTIVE_COMPLETED":
		return "Directive complete: " + str(e.Payload, "text")
	case "EFFECT_STARTED":
		return "Something felt wrong (" + strings.ReplaceAll(str(e.Payload, "kind"), "_", " ") + ")."
	case "SHIFT_COMPLETE":
		return "Survived the night. Score " + humanize.Comma(int64(num(e.Payload, "score"))) + "."
	case "GAME_OVER":
		return "Game over: " + str(e.Payload, "reason")
	default:
		return ""
	}
}

// determineImpact classifies the event impact.
func (r *Reconstructor) determineImpact(e JournalEvent) string {
	switch e.EventType {
	case "WINDOW_BREAKING", "EFFECT_STARTED", "GAME_OVER", "TOOL_FAILED", "ENTITY_SPAWNED":
		return "NEGATIVE"
	case "ITEM_PICKED_UP", "WINDOW_REPAIRED", "DIRECTIVE_COMPLETED", "SHIFT_COMPLETE", "TOOL_USED":
		return "POSITIVE"
	default:
		return "NEUTRAL"
	}
}

// Summary renders the report as a few lines for humans.
func (rep *ShiftReport) Summary() string {
	var b strings.Builder
	switch rep.Outcome {
	case OutcomeWin:
		fmt.Fprintf(&b, "Survived the %s night. Score: %s\n", humanize.Ordinal(rep.Night), humanize.Comma(int64(rep.Score)))
	case OutcomeLoss:
		fmt.Fprintf(&b, "Lost the %s night: %s Score: %s\n", humanize.Ordinal(rep.Night), rep.Reason, humanize.Comma(int64(rep.Score)))
	default:
		fmt.Fprintf(&b, "The %s night is still going.\n", humanize.Ordinal(rep.Night))
	}
	fmt.Fprintf(&b, "Shift hours: %.1f, real time: %s\n", rep.HoursSurvived,
		strings.TrimSpace(humanize.RelTime(rep.StartedAt, rep.EndedAt, "", "")))
	fmt.Fprintf(&b, "Sanity lost %.0f, regained %.0f. Integrity repaired %.0f.\n", rep.SanityLost, rep.SanityGained, rep.Repaired)
	fmt.Fprintf(&b, "Windows broken %d, taped %d. Directives %d. Scares %d. PA calls %d.\n",
		rep.WindowsBroken, rep.WindowsFixed, rep.Directives, rep.Scares, rep.Announcements)
	if len(rep.Pickups) > 0 {
		fmt.Fprintf(&b, "Picked up: %s\n", tally(rep.Pickups))
	}
	if len(rep.ToolsUsed) > 0 {
		fmt.Fprintf(&b, "Tools: %s (%d failed)\n", tally(rep.ToolsUsed), rep.ToolsFailed)
	}
	fmt.Fprintf(&b, "%s journal entries.", humanize.Comma(int64(rep.Events)))
	return b.String()
}

// ClockLabel formats shift-clock hours as HH:MM.
func ClockLabel(hours float64) string {
	h := math.Mod(hours, 24)
	if h < 0 {
		h += 24
	}
	mins := int(math.Round(h * 60))
	return fmt.Sprintf("%02d:%02d", (mins/60)%24, mins%60)
}

func tally(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s x%d", k, m[k]))
	}
	return strings.Join(parts, ", ")
}

func num(p map[string]interface{}, key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func str(p map[string]interface{}, key string) string {
	s, _ := p[key].(string)
	return s
}
