// Package metrics provides observability for the shift server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance metrics.
type Collector struct {
	// Frame metrics
	FrameCount      int64
	FrameLatencySum int64 // nanoseconds
	FrameLatencyMax int64
	LastFrameTime   time.Time

	// Journal metrics
	EventsWritten    int64
	EventWriteLatSum int64
	EventWriteLatMax int64
	EventWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// Command metrics
	CommandsApplied  int64
	CommandsRejected int64
	CommandsDropped  int64

	// Shift outcomes
	ShiftsWon  int64
	ShiftsLost int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = NewCollector()

// NewCollector returns an empty collector. Most callers want Get.
func NewCollector() *Collector {
	return &Collector{StartTime: time.Now()}
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

func storeMax(addr *int64, v int64) {
	for {
		cur := atomic.LoadInt64(addr)
		if v <= cur || atomic.CompareAndSwapInt64(addr, cur, v) {
			return
		}
	}
}

// RecordTick records one simulated frame.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.FrameCount, 1)
	atomic.AddInt64(&c.FrameLatencySum, int64(latency))
	storeMax(&c.FrameLatencyMax, int64(latency))

	c.mu.Lock()
	c.LastFrameTime = time.Now()
	c.mu.Unlock()
}

// RecordEventWrite records a journal write.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))
	storeMax(&c.EventWriteLatMax, int64(latency))

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordCommand records the outcome of a player command.
func (c *Collector) RecordCommand(ok bool) {
	if ok {
		atomic.AddInt64(&c.CommandsApplied, 1)
	} else {
		atomic.AddInt64(&c.CommandsRejected, 1)
	}
}

// RecordCommandDropped records a command lost to a full queue.
func (c *Collector) RecordCommandDropped() {
	atomic.AddInt64(&c.CommandsDropped, 1)
}

// RecordShiftEnd records how a shift ended.
func (c *Collector) RecordShiftEnd(win bool) {
	if win {
		atomic.AddInt64(&c.ShiftsWon, 1)
	} else {
		atomic.AddInt64(&c.ShiftsLost, 1)
	}
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	frameCount := atomic.LoadInt64(&c.FrameCount)
	eventsWritten := atomic.LoadInt64(&c.EventsWritten)

	// Calculate averages
	var frameAvg, eventAvg float64
	if frameCount > 0 {
		frameAvg = float64(atomic.LoadInt64(&c.FrameLatencySum)) / float64(frameCount) / 1e6 // ms
	}
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6
	}
	lastFrame := ""
	if !c.LastFrameTime.IsZero() {
		lastFrame = c.LastFrameTime.Format(time.RFC3339)
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"frame": map[string]interface{}{
			"count":          frameCount,
			"avg_latency_ms": frameAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.FrameLatencyMax)) / 1e6,
			"last_frame":     lastFrame,
		},

		"events": map[string]interface{}{
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},

		"commands": map[string]interface{}{
			"applied":  atomic.LoadInt64(&c.CommandsApplied),
			"rejected": atomic.LoadInt64(&c.CommandsRejected),
			"dropped":  atomic.LoadInt64(&c.CommandsDropped),
		},

		"shifts": map[string]interface{}{
			"won":  atomic.LoadInt64(&c.ShiftsWon),
			"lost": atomic.LoadInt64(&c.ShiftsLost),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Frame metrics
		fmt.Fprintf(w, "# HELP lastshift_frame_count Total simulated frames\n")
		fmt.Fprintf(w, "# TYPE lastshift_frame_count counter\n")
		fmt.Fprintf(w, "lastshift_frame_count %d\n\n", atomic.LoadInt64(&c.FrameCount))

		fmt.Fprintf(w, "# HELP lastshift_frame_latency_max_ms Maximum frame latency\n")
		fmt.Fprintf(w, "# TYPE lastshift_frame_latency_max_ms gauge\n")
		fmt.Fprintf(w, "lastshift_frame_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.FrameLatencyMax))/1e6)

		// Journal metrics
		fmt.Fprintf(w, "# HELP lastshift_events_written Total journal events written\n")
		fmt.Fprintf(w, "# TYPE lastshift_events_written counter\n")
		fmt.Fprintf(w, "lastshift_events_written %d\n\n", atomic.LoadInt64(&c.EventsWritten))

		fmt.Fprintf(w, "# HELP lastshift_event_write_errors Total journal write errors\n")
		fmt.Fprintf(w, "# TYPE lastshift_event_write_errors counter\n")
		fmt.Fprintf(w, "lastshift_event_write_errors %d\n\n", atomic.LoadInt64(&c.EventWriteErrors))

		// WebSocket metrics
		fmt.Fprintf(w, "# HELP lastshift_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE lastshift_ws_connections gauge\n")
		fmt.Fprintf(w, "lastshift_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP lastshift_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE lastshift_ws_messages_total counter\n")
		fmt.Fprintf(w, "lastshift_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "lastshift_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))

		// Command metrics
		fmt.Fprintf(w, "# HELP lastshift_commands_total Player commands by outcome\n")
		fmt.Fprintf(w, "# TYPE lastshift_commands_total counter\n")
		fmt.Fprintf(w, "lastshift_commands_total{outcome=\"applied\"} %d\n", atomic.LoadInt64(&c.CommandsApplied))
		fmt.Fprintf(w, "lastshift_commands_total{outcome=\"rejected\"} %d\n", atomic.LoadInt64(&c.CommandsRejected))
		fmt.Fprintf(w, "lastshift_commands_total{outcome=\"dropped\"} %d\n\n", atomic.LoadInt64(&c.CommandsDropped))

		// Shift outcomes
		fmt.Fprintf(w, "# HELP lastshift_shifts_total Finished shifts by outcome\n")
		fmt.Fprintf(w, "# TYPE lastshift_shifts_total counter\n")
		fmt.Fprintf(w, "lastshift_shifts_total{outcome=\"won\"} %d\n", atomic.LoadInt64(&c.ShiftsWon))
		fmt.Fprintf(w, "lastshift_shifts_total{outcome=\"lost\"} %d\n", atomic.LoadInt64(&c.ShiftsLost))
	}
}
