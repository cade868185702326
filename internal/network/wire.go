package network

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nightcrew/lastshift/internal/domain/player"
	"github.com/nightcrew/lastshift/internal/engine"
)

// Server to client message types.
const (
	MsgTypeSnapshot = "snapshot"
	MsgTypeEvent    = "event"
	MsgTypeResult   = "result"
	MsgTypeError    = "error"
)

// Client to server message types.
const (
	MsgTypeInput   = "input"
	MsgTypeCommand = "command"
)

// Message is the envelope for everything the server pushes.
type Message struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewMessage stamps a message with the current time.
func NewMessage(typ string, payload interface{}) Message {
	return Message{Type: typ, Timestamp: time.Now().UnixMilli(), Payload: payload}
}

// ClientMessage is what a renderer sends: either held keys or one command.
type ClientMessage struct {
	Type    string              `json:"type" jsonschema:"enum=input,enum=command"`
	Input   *player.ActionState `json:"input,omitempty"`
	Command *engine.Command     `json:"command,omitempty"`
}

// Validate checks that the message carries what its type promises.
func (m ClientMessage) Validate() error {
	switch m.Type {
	case MsgTypeInput:
		if m.Input == nil {
			return fmt.Errorf("input message without input")
		}
	case MsgTypeCommand:
		if m.Command == nil {
			return fmt.Errorf("command message without command")
		}
		if !m.Command.Kind.Valid() {
			return fmt.Errorf("unknown command %q", m.Command.Kind)
		}
	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	return nil
}

// DecodeClientMessage parses and validates one client frame.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var m ClientMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ClientMessage{}, fmt.Errorf("decode client message: %w", err)
	}
	if err := m.Validate(); err != nil {
		return ClientMessage{}, err
	}
	return m, nil
}
