// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/dial-sensor/internal/dial"
)

// Topic is the MQTT topic for dial position events.
const Topic = "home/dial/sensor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/dial/sensor/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a position change event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event dial.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Dial DialPayload `json:"dial"`
}

// DialPayload contains the position event details.
type DialPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Position  int    `json:"position"`
	Previous  int    `json:"previous"`
	Label     string `json:"label,omitempty"`
	Reading   int    `json:"reading"`
}

// FormatPayload creates the JSON payload for a position event.
func FormatPayload(event dial.Event) ([]byte, error) {
	payload := Payload{
		Dial: DialPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     "POSITION",
			Position:  event.Position,
			Previous:  event.Previous,
			Label:     event.Label,
			Reading:   event.Reading,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
