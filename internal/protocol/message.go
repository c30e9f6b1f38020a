// Package protocol defines the messages clients exchange through the relay.
//
// Every message is one JSON object in one websocket text frame. The relay
// never interprets them; only clients do.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/localboard/sketchrelay/internal/state"
)

var (
	ErrUnknownType    = errors.New("unknown message type")
	ErrInvalidMessage = errors.New("invalid message")
)

type Type string

const (
	// TypeDraw carries a user's full in-progress path.
	TypeDraw Type = "draw"
	// TypeStopDrawing commits a stroke under its new ID.
	TypeStopDrawing Type = "stopDrawing"
	// TypeDeleteLines removes committed strokes by ID.
	TypeDeleteLines Type = "deleteLines"
)

// Message is the single envelope for all kinds; unused fields are omitted
// on the wire.
type Message struct {
	Type      Type          `json:"type"`
	UserID    string        `json:"userId"`
	Points    []state.Point `json:"points,omitempty"`
	Color     string        `json:"color,omitempty"`
	Width     int           `json:"width,omitempty"`
	StrokeID  string        `json:"strokeId,omitempty"`
	StrokeIDs []string      `json:"strokeIds,omitempty"`
}

func Draw(userID string, points []state.Point, color string, width int) Message {
	return Message{Type: TypeDraw, UserID: userID, Points: points, Color: color, Width: width}
}

// Commit announces s as committed by userID. The full path travels with it
// so peers replace a possibly truncated live path with the final one.
func Commit(userID string, s state.Stroke) Message {
	return Message{
		Type:     TypeStopDrawing,
		UserID:   userID,
		StrokeID: s.ID,
		Points:   s.Points,
		Color:    s.Color,
		Width:    s.Width,
	}
}

func DeleteLines(userID string, ids []string) Message {
	return Message{Type: TypeDeleteLines, UserID: userID, StrokeIDs: ids}
}

// Stroke returns the committed stroke carried by a stopDrawing message.
func (m Message) Stroke() state.Stroke {
	return state.Stroke{
		ID:     m.StrokeID,
		Points: m.Points,
		Color:  m.Color,
		Width:  state.ClampWidth(m.Width),
	}
}

// Validate checks the fields each kind requires.
func (m Message) Validate() error {
	if m.UserID == "" {
		return fmt.Errorf("%w: %s without userId", ErrInvalidMessage, m.Type)
	}
	switch m.Type {
	case TypeDraw:
		if len(m.Points) == 0 {
			return fmt.Errorf("%w: draw without points", ErrInvalidMessage)
		}
	case TypeStopDrawing:
		if m.StrokeID == "" {
			return fmt.Errorf("%w: stopDrawing without strokeId", ErrInvalidMessage)
		}
	case TypeDeleteLines:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	return nil
}

func Encode(m Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// Decode parses and validates one frame.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}
