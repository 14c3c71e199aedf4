package tracex

import (
	"context"
	"errors"
	"testing"
)

type captureRecorder struct {
	spans []Span
}

func (c *captureRecorder) Record(span Span) {
	c.spans = append(c.spans, span)
}

func TestDoPassesThroughResult(t *testing.T) {
	t.Parallel()

	rec := &captureRecorder{}
	got, err := Do(context.Background(), rec, "model.complete", map[string]any{"user_id": "u1"},
		func(ctx context.Context) (string, error) {
			return "hello", nil
		})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != "hello" {
		t.Fatalf("result altered: %q", got)
	}
	if len(rec.spans) != 1 {
		t.Fatalf("expected one span, got %d", len(rec.spans))
	}
	span := rec.spans[0]
	if span.Op != "model.complete" || span.Err != nil {
		t.Fatalf("unexpected span: %+v", span)
	}
	if span.End.Before(span.Start) {
		t.Fatalf("span end before start: %+v", span)
	}
	if span.Meta["user_id"] != "u1" {
		t.Fatalf("metadata lost: %+v", span.Meta)
	}
}

func TestDoRecordsSpanOnError(t *testing.T) {
	t.Parallel()

	rec := &captureRecorder{}
	wantErr := errors.New("search down")
	_, err := Do(context.Background(), rec, "provider.search", nil,
		func(ctx context.Context) (int, error) {
			return 0, wantErr
		})
	if !errors.Is(err, wantErr) {
		t.Fatalf("error altered: %v", err)
	}
	if len(rec.spans) != 1 {
		t.Fatalf("expected span on error path, got %d", len(rec.spans))
	}
	if !errors.Is(rec.spans[0].Err, wantErr) {
		t.Fatalf("span did not capture error: %+v", rec.spans[0])
	}
}

func TestDoNilRecorder(t *testing.T) {
	t.Parallel()

	got, err := Do[string](context.Background(), nil, "noop", nil,
		func(ctx context.Context) (string, error) {
			return "ok", nil
		})
	if err != nil || got != "ok" {
		t.Fatalf("unexpected result: %q, %v", got, err)
	}
}
