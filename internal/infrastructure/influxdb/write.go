package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementLifecycle is the measurement for backend lifecycle points.
const MeasurementLifecycle = "sidecar_lifecycle"

// LifecyclePoint describes one backend lifecycle transition.
type LifecyclePoint struct {
	Kind       string
	Product    string
	PID        int
	Executable string
	Detail     string
	Time       time.Time
}

// WriteLifecycle queues p for the next batch. Dropped silently once the
// client is closed.
func (c *Client) WriteLifecycle(p LifecyclePoint) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(newLifecyclePoint(p))
}

func newLifecyclePoint(p LifecyclePoint) *write.Point {
	tags := map[string]string{"kind": p.Kind}
	if p.Product != "" {
		tags["product"] = p.Product
	}

	// Every point needs at least one field; count makes sums meaningful.
	fields := map[string]interface{}{"count": 1}
	if p.PID > 0 {
		fields["pid"] = p.PID
	}
	if p.Executable != "" {
		fields["executable"] = p.Executable
	}
	if p.Detail != "" {
		fields["detail"] = p.Detail
	}

	ts := p.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPoint(MeasurementLifecycle, tags, fields, ts)
}
