// Package tracex wraps collaborator calls with timing and metadata capture.
// It is strictly pass-through: results and errors come back unchanged, nothing
// is retried, and the span is recorded even when the wrapped call fails.
package tracex

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Span struct {
	Op    string
	Start time.Time
	End   time.Time
	Meta  map[string]any
	Err   error
}

func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

type Recorder interface {
	Record(span Span)
}

// LogRecorder emits spans through zerolog.
type LogRecorder struct {
	logger zerolog.Logger
}

func NewLogRecorder() *LogRecorder {
	return &LogRecorder{logger: log.Logger}
}

func (r *LogRecorder) Record(span Span) {
	evt := r.logger.Debug().
		Str("op", span.Op).
		Dur("duration", span.Duration())
	for k, v := range span.Meta {
		evt = evt.Interface(k, v)
	}
	if span.Err != nil {
		evt = evt.Err(span.Err)
	}
	evt.Msg("span")
}

type NopRecorder struct{}

func (NopRecorder) Record(Span) {}

// Do invokes fn and hands the resulting span to rec. The value and error from
// fn are returned untouched; the span is recorded on every path.
func Do[T any](
	ctx context.Context,
	rec Recorder,
	op string,
	meta map[string]any,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	span := Span{
		Op:    op,
		Start: time.Now(),
		Meta:  meta,
	}
	defer func() {
		span.End = time.Now()
		if rec != nil {
			rec.Record(span)
		}
	}()

	out, err := fn(ctx)
	span.Err = err
	return out, err
}
