package audit

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var appendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "investgate_audit_append_failures_total",
	Help: "Audit sink append failures by sink name",
}, []string{"sink"})

// NamedSink pairs a sink with a label for failure accounting.
type NamedSink struct {
	Name string
	Sink Sink
}

// Worker drains the recorder inbox and fans each event out to every sink.
// A sink failure is logged and counted but never stops the worker or the
// other sinks: losing one audit copy beats losing the pipeline.
type Worker struct {
	inbox  <-chan Event
	sinks  []NamedSink
	logger *slog.Logger
	tracer trace.Tracer
}

func NewWorker(inbox <-chan Event, logger *slog.Logger, sinks ...NamedSink) *Worker {
	return &Worker{
		inbox:  inbox,
		sinks:  sinks,
		logger: logger,
		tracer: otel.Tracer("investgate/audit"),
	}
}

// Run processes events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			w.persist(ctx, event)
		}
	}
}

func (w *Worker) persist(ctx context.Context, event Event) {
	spanCtx, span := w.tracer.Start(ctx, "audit.append")
	defer span.End()

	for _, s := range w.sinks {
		if err := s.Sink.Append(spanCtx, event); err != nil {
			appendFailures.WithLabelValues(s.Name).Inc()
			span.RecordError(err)
			w.logger.Error("audit append failed",
				"sink", s.Name,
				"error", err,
				"action", string(event.Action),
				"subject_id", event.SubjectID.String(),
			)
		}
	}
}
