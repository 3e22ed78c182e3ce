package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Position      int          `json:"position"`
	Label         string       `json:"label,omitempty"`
	Reading       int          `json:"reading"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"change_counts"`
	Zones         []ZoneJSON   `json:"zones,omitempty"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of change counts.
type CountsJSON struct {
	Up   int `json:"up"`
	Down int `json:"down"`
}

// ZoneJSON is the JSON representation of a position's sticky range.
type ZoneJSON struct {
	Position int    `json:"position"`
	Label    string `json:"label,omitempty"`
	Low      int    `json:"low"`
	High     int    `json:"high"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64   `json:"poll_ms"`
	HeartbeatMs int64   `json:"heartbeat_ms"`
	Positions   int     `json:"positions"`
	Deadzone    float64 `json:"deadzone"`
	Broker      string  `json:"broker"`
	HTTPAddr    string  `json:"http_addr"`
	WSBroker    string  `json:"ws_broker,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Position:      snap.Position,
		Label:         snap.PositionLabel(),
		Reading:       snap.Reading,
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Up:   snap.Counts.Up,
			Down: snap.Counts.Down,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Positions:   snap.Config.Positions,
			Deadzone:    snap.Config.Deadzone,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			WSBroker:    snap.Config.WSBroker,
		},
	}

	for _, z := range snap.Zones {
		inner.Zones = append(inner.Zones, ZoneJSON{
			Position: z.Index,
			Label:    snap.Config.Label(z.Index),
			Low:      z.Low,
			High:     z.High,
		})
	}

	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
