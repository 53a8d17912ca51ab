// Package events defines the notification trigger points. Delivery (email,
// SMS, push) is an external collaborator; this service only emits.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	TypeEntitlementCredited  = "entitlement.credited"
	TypeAppointmentRequested = "appointment.requested"
	TypeAppointmentConfirmed = "appointment.confirmed"
	TypeAppointmentCancelled = "appointment.cancelled"
)

// Event is a domain fact handed to the notification collaborator.
type Event struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// Emitter hands events to the notification collaborator. Implementations
// must not block request handling on delivery.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

type logEmitter struct {
	log *zap.Logger
}

// NewLogEmitter returns an Emitter that records events in the structured log.
// It stands in for the external notification pipeline in self-hosted setups.
func NewLogEmitter(log *zap.Logger) Emitter {
	return &logEmitter{log: log.Named("events")}
}

func (e *logEmitter) Emit(ctx context.Context, event Event) {
	_ = ctx
	e.log.Info("event_emitted",
		zap.String("event_type", event.Type),
		zap.Time("occurred_at", event.OccurredAt),
		zap.Any("data", event.Data),
	)
}
