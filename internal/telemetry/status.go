package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/agentshell/internal/infrastructure/mqtt"
	"github.com/nerrad567/agentshell/internal/sidecar"
)

// Backend status values published on the status topic.
const (
	StatusRunning  = "running"
	StatusExternal = "external"
	StatusFailed   = "failed"
	StatusStopped  = "stopped"
)

// Publisher is the part of *mqtt.Client the status publisher uses.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// StatusMessage is the JSON body of status and event messages.
type StatusMessage struct {
	Status     string    `json:"status"`
	Event      string    `json:"event"`
	PID        int       `json:"pid,omitempty"`
	Executable string    `json:"executable,omitempty"`
	Address    string    `json:"address,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// StatusPublisher keeps <prefix>/backend/status current and emits every
// event on <prefix>/backend/events.
type StatusPublisher struct {
	pub    Publisher
	topics mqtt.Topics
}

var _ sidecar.Observer = (*StatusPublisher)(nil)

// NewStatusPublisher publishes under topics.
func NewStatusPublisher(pub Publisher, topics mqtt.Topics) *StatusPublisher {
	return &StatusPublisher{pub: pub, topics: topics}
}

// ObserveLifecycle publishes ev.
func (p *StatusPublisher) ObserveLifecycle(_ context.Context, ev sidecar.Event) error {
	msg := StatusMessage{
		Status:     statusFor(ev.Kind),
		Event:      string(ev.Kind),
		PID:        ev.PID,
		Executable: ev.Executable,
		Address:    ev.Address,
		Detail:     ev.Detail,
		Timestamp:  ev.Time.UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshalling backend status: %w", err)
	}

	if err := p.pub.PublishRetained(p.topics.BackendStatus(), payload); err != nil {
		return fmt.Errorf("publishing backend status: %w", err)
	}
	if err := p.pub.Publish(p.topics.BackendEvents(), payload, 0, false); err != nil {
		return fmt.Errorf("publishing backend event: %w", err)
	}
	return nil
}

func statusFor(kind sidecar.EventKind) string {
	switch kind {
	case sidecar.EventSpawned:
		return StatusRunning
	case sidecar.EventExternal:
		return StatusExternal
	case sidecar.EventSpawnFailed:
		return StatusFailed
	default:
		return StatusStopped
	}
}
