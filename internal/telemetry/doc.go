// Package telemetry turns backend lifecycle events into external signals:
// a retained MQTT status for dashboards and InfluxDB points for history.
// Both types implement sidecar.Observer.
package telemetry
