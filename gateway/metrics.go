package gateway

import "github.com/prometheus/client_golang/prometheus"

var (
	connectAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "airthings_mqtt_connect_attempts_total",
		Help: "Connection attempts started towards the MQTT broker",
	})
	publishedMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "airthings_mqtt_published_total",
		Help: "Measurements handed to the MQTT client",
	})
	droppedMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "airthings_mqtt_dropped_total",
		Help: "Measurements dropped because the broker was not connected",
	})
	connectionState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "airthings_mqtt_connection_state",
		Help: "MQTT connection state (0 disconnected, 1 connecting, 2 connected)",
	})
)

// Collectors returns the gateway metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{connectAttempts, publishedMessages, droppedMessages, connectionState}
}
