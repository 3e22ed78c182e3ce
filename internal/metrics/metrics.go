// Package metrics exposes the daemon's Prometheus instrumentation.
// Collectors register on the default registry; the web server serves them
// at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	position = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dial_position",
		Help: "Currently selected dial position, 0-indexed.",
	})

	reading = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dial_reading",
		Help: "Last raw ADC reading.",
	})

	changes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dial_position_changes_total",
		Help: "Position changes since startup, by direction of travel.",
	}, []string{"direction"})

	readErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dial_adc_read_errors_total",
		Help: "Failed ADC reads.",
	})

	publishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dial_mqtt_publish_errors_total",
		Help: "Failed MQTT publishes.",
	})

	mqttConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dial_mqtt_connected",
		Help: "Whether the MQTT broker connection is up.",
	})
)

// ObserveSample records the outcome of one poll tick.
func ObserveSample(pos, raw int) {
	position.Set(float64(pos))
	reading.Set(float64(raw))
}

// RecordChange counts one position change.
func RecordChange(up bool) {
	if up {
		changes.WithLabelValues("up").Inc()
	} else {
		changes.WithLabelValues("down").Inc()
	}
}

// RecordReadError counts one failed ADC read.
func RecordReadError() {
	readErrors.Inc()
}

// RecordPublishError counts one failed MQTT publish.
func RecordPublishError() {
	publishErrors.Inc()
}

// SetMQTTConnected mirrors the broker connection state.
func SetMQTTConnected(connected bool) {
	if connected {
		mqttConnected.Set(1)
	} else {
		mqttConnected.Set(0)
	}
}
