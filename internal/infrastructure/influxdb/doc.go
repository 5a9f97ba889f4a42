// Package influxdb records backend lifecycle points in InfluxDB.
//
// Writes go through the client's non-blocking batched API, so a slow or
// unreachable server never stalls the supervisor. Asynchronous write
// failures are reported through SetOnError.
//
// Points use the measurement "sidecar_lifecycle" tagged with the event
// kind and the host product, with the backend PID and executable as fields.
package influxdb
