package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nightcrew/lastshift/internal/engine"
	"github.com/nightcrew/lastshift/internal/events"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

// Recorder receives websocket and command counters. *metrics.Collector
// satisfies it.
type Recorder interface {
	RecordWSConnection(delta int64)
	RecordWSMessage(incoming bool)
	RecordWSError()
	RecordCommandDropped()
}

type nopRecorder struct{}

func (nopRecorder) RecordWSConnection(int64) {}
func (nopRecorder) RecordWSMessage(bool)     {}
func (nopRecorder) RecordWSError()           {}
func (nopRecorder) RecordCommandDropped()    {}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	logger     *logger.Logger
	metrics    Recorder
}

// NewHub initializes a new WebSocket Hub. rec may be nil.
func NewHub(log *logger.Logger, rec Recorder) *Hub {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Hub{
		broadcast:  make(chan []byte, 4),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     log,
		metrics:    rec,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
// It must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordWSMessage(false)
				default:
					// A newer snapshot follows within a frame.
				}
			}
			h.mu.Unlock()
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} { return h.done }

// ClientCount is the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast serializes a message and queues it for every client. When the
// hub is behind, the message is dropped.
func (h *Hub) Broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Err(err, "Failed to serialize message for WebSocket broadcast")
		return
	}
	select {
	case h.broadcast <- payload:
	default:
	}
}

// BroadcastSnapshot pushes one frame to every renderer.
func (h *Hub) BroadcastSnapshot(snap engine.Snapshot) {
	h.Broadcast(NewMessage(MsgTypeSnapshot, snap))
}

// BroadcastEvent pushes one journal entry.
func (h *Hub) BroadcastEvent(event events.GameEvent) {
	h.Broadcast(NewMessage(MsgTypeEvent, event))
}

// StartEventPoller spawns a goroutine that polls the EventLog and pushes
// new events of the given types to the Hub. No types means every event.
// This keeps the Hub independent of the simulation loop.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.EventLog, interval time.Duration, types ...events.EventType) {
	want := make(map[events.EventType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	go func() {
		pollInterval := time.NewTicker(interval)
		defer pollInterval.Stop()

		lastProcessedEvent := eventLog.Len()

		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				newEvents := eventLog.Since(lastProcessedEvent)
				for _, event := range newEvents {
					if len(want) == 0 || want[event.Type] {
						h.BroadcastEvent(event)
					}
				}
				lastProcessedEvent += len(newEvents)
			}
		}
	}()
}
