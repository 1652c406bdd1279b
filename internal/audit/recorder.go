package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"investgate/pkg/requestcontext"
)

var droppedEvents = promauto.NewCounter(prometheus.CounterOpts{
	Name: "investgate_audit_events_dropped_total",
	Help: "Audit events dropped because the recorder buffer was full",
})

// Recorder is the fire-and-forget entry point handlers and services call
// after a mutation commits. Record never blocks and never returns an error:
// audit is best-effort and must not gate user-facing success.
type Recorder struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewRecorder(buffer int, logger *slog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Recorder{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Record enriches the event from the request context and queues it. When
// the buffer is full the event is dropped and counted; the triggering
// request proceeds untouched either way.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}

	select {
	case r.inbox <- event:
	default:
		droppedEvents.Inc()
		r.logger.ErrorContext(ctx, "audit event dropped - buffer full",
			"action", string(event.Action),
			"subject_id", event.SubjectID.String(),
		)
	}
}

// Inbox exposes the event channel to the worker that drains it.
func (r *Recorder) Inbox() <-chan Event {
	return r.inbox
}
