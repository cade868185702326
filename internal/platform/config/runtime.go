package config

import (
	"runtime"
)

// Runtime holds buffer sizes and limits for the hosted server.
type Runtime struct {
	// Channel buffer sizes
	JournalBuffer    int `yaml:"journal_buffer"`
	CommandBuffer    int `yaml:"command_buffer"`
	ClientSendBuffer int `yaml:"client_send_buffer"`

	// Database connections
	DBMaxOpenConns int `yaml:"db_max_open_conns"`

	// Rate limiting
	MaxMessagesPerSecond int `yaml:"max_messages_per_second"`
	MaxClients           int `yaml:"max_clients"`
}

// DefaultRuntime returns sensible defaults for a single hosted shift.
func DefaultRuntime() Runtime {
	return Runtime{
		JournalBuffer:    1024, // bursts at hour marks
		CommandBuffer:    64,
		ClientSendBuffer: 8, // snapshots are replaced, not queued deep

		DBMaxOpenConns: 1, // SQLite has one writer

		MaxMessagesPerSecond: 120, // two per frame
		MaxClients:           32,
	}
}

// StressRuntime returns settings for load testing with night-crew.
func StressRuntime() Runtime {
	return Runtime{
		JournalBuffer:    4096,
		CommandBuffer:    256,
		ClientSendBuffer: 16,

		DBMaxOpenConns: 1,

		MaxMessagesPerSecond: 500,
		MaxClients:           runtime.NumCPU() * 64,
	}
}

// Recommendations are tuning hints derived from observed metrics.
type Recommendations struct {
	IncreaseJournalBuffer bool
	IncreaseSendBuffer    bool
	IncreaseCommandBuffer bool
	Notes                 []string
}

// Analyze examines a metrics snapshot and suggests buffer changes.
func Analyze(metrics map[string]interface{}) *Recommendations {
	rec := &Recommendations{
		Notes: make([]string, 0),
	}

	if frame, ok := metrics["frame"].(map[string]interface{}); ok {
		if maxLat, ok := frame["max_latency_ms"].(float64); ok && maxLat > 16.7 {
			rec.Notes = append(rec.Notes, "Frame latency exceeds one 60 Hz tick - the simulation is falling behind")
		}
	}

	if events, ok := metrics["events"].(map[string]interface{}); ok {
		if errors, ok := events["errors"].(int64); ok && errors > 0 {
			rec.IncreaseJournalBuffer = true
			rec.Notes = append(rec.Notes, "Journal write errors detected - check the SQLite file")
		}
		if maxLat, ok := events["max_write_lat_ms"].(float64); ok && maxLat > 50 {
			rec.IncreaseJournalBuffer = true
			rec.Notes = append(rec.Notes, "Journal write latency exceeds 50ms - increase the journal buffer")
		}
	}

	if ws, ok := metrics["websocket"].(map[string]interface{}); ok {
		if errors, ok := ws["errors"].(int64); ok && errors > 0 {
			rec.IncreaseSendBuffer = true
			rec.Notes = append(rec.Notes, "WebSocket errors detected - increase client send buffer")
		}
	}

	if cmds, ok := metrics["commands"].(map[string]interface{}); ok {
		if dropped, ok := cmds["dropped"].(int64); ok && dropped > 0 {
			rec.IncreaseCommandBuffer = true
			rec.Notes = append(rec.Notes, "Commands were dropped - increase the command buffer")
		}
	}

	return rec
}

// ApplyRecommendations modifies the runtime settings in place.
func ApplyRecommendations(rt *Runtime, rec *Recommendations) *Runtime {
	if rec.IncreaseJournalBuffer {
		rt.JournalBuffer *= 2
	}
	if rec.IncreaseSendBuffer {
		rt.ClientSendBuffer *= 2
	}
	if rec.IncreaseCommandBuffer {
		rt.CommandBuffer *= 2
	}
	return rt
}
