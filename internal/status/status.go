// Package status provides a thread-safe status tracker for the dial-sensor
// daemon. It is read by HTTP handlers and feeds the system event payloads.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/dial-sensor/internal/selector"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	Positions   int
	Deadzone    float64
	Labels      []string // optional position names, may be empty
	Broker      string
	HTTPAddr    string
	WSBroker    string // Websocket broker URL for browser MQTT (empty = disabled)
}

// Counts tracks position changes since startup, by direction of travel.
type Counts struct {
	Up   int
	Down int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Position      int
	Reading       int
	Ready         bool // true once the filter has been primed from hardware
	Counts        Counts
	Zones         []selector.Zone
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// PositionLabel returns the configured name for the current position, or ""
// when no labels are configured.
func (s Snapshot) PositionLabel() string {
	return s.Config.Label(s.Position)
}

// Label returns the name for a position index, or "" when unnamed.
func (c Config) Label(position int) string {
	if position < 0 || position >= len(c.Labels) {
		return ""
	}
	return c.Labels[position]
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu            sync.RWMutex
	snap          Snapshot
	lastHeartbeat time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		lastHeartbeat: startTime,
	}
}

// Update sets the current position and raw reading.
// Called from runLoop on every tick.
func (t *Tracker) Update(position, reading int) {
	t.mu.Lock()
	t.snap.Position = position
	t.snap.Reading = reading
	t.mu.Unlock()
}

// SetReady marks the filter as primed from hardware.
func (t *Tracker) SetReady(ready bool) {
	t.mu.Lock()
	t.snap.Ready = ready
	t.mu.Unlock()
}

// RecordChange counts one position change in the given direction.
func (t *Tracker) RecordChange(up bool) {
	t.mu.Lock()
	if up {
		t.snap.Counts.Up++
	} else {
		t.snap.Counts.Down++
	}
	t.mu.Unlock()
}

// SetZones stores the filter's sticky ranges for display.
func (t *Tracker) SetZones(zones []selector.Zone) {
	t.mu.Lock()
	t.snap.Zones = zones
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since
// the last heartbeat (or startup). Returns nil if the daemon is not ready,
// if the interval has not elapsed, or if interval is <= 0 (disabled).
func (t *Tracker) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.snap.Ready {
		return nil
	}
	if now.Sub(t.lastHeartbeat) < interval {
		return nil
	}

	t.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(t.snap.StartTime),
		Counts:    t.snap.Counts,
	}
}
