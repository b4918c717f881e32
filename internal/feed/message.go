package feed

import (
	"encoding/json"
	"time"
)

// Inbound message types.
const (
	TypeStart       = "START"
	TypePause       = "PAUSE"
	TypeResume      = "RESUME"
	TypeStop        = "STOP"
	TypeReset       = "RESET"
	TypeStartBreak  = "START_BREAK"
	TypeCancelBreak = "CANCEL_BREAK"
	TypeStatus      = "STATUS"
	TypePing        = "PING"
)

// Outbound message types.
const (
	TypeWelcome = "WELCOME"
	TypeEvent   = "EVENT"
	TypePong    = "PONG"
	TypeError   = "ERROR"
)

// Message is the envelope sent to clients.
type Message struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Command is the envelope received from clients.
type Command struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CancelBreakPayload carries the label for CANCEL_BREAK.
type CancelBreakPayload struct {
	Source string `json:"source"`
}

// ErrorPayload is sent with TypeError.
type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(kind string, payload any) Message {
	return Message{Type: kind, Payload: payload, Timestamp: time.Now().Unix()}
}
