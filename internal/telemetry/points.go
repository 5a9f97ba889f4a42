package telemetry

import (
	"context"

	"github.com/nerrad567/agentshell/internal/infrastructure/influxdb"
	"github.com/nerrad567/agentshell/internal/sidecar"
)

// PointWriter is the part of *influxdb.Client the point writer uses.
type PointWriter interface {
	WriteLifecycle(p influxdb.LifecyclePoint)
	Flush()
}

// PointRecorder writes one InfluxDB point per lifecycle event.
type PointRecorder struct {
	w       PointWriter
	product string
}

var _ sidecar.Observer = (*PointRecorder)(nil)

// NewPointRecorder tags points with product.
func NewPointRecorder(w PointWriter, product string) *PointRecorder {
	return &PointRecorder{w: w, product: product}
}

// ObserveLifecycle writes a point and flushes it; a session produces only a
// handful. Write failures surface through the InfluxDB client's error
// callback, so this never fails.
func (r *PointRecorder) ObserveLifecycle(_ context.Context, ev sidecar.Event) error {
	r.w.WriteLifecycle(influxdb.LifecyclePoint{
		Kind:       string(ev.Kind),
		Product:    r.product,
		PID:        ev.PID,
		Executable: ev.Executable,
		Detail:     ev.Detail,
		Time:       ev.Time,
	})
	r.w.Flush()
	return nil
}
