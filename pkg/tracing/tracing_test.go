package tracing_test

import (
	"context"
	"testing"

	"github.com/okian/holotrumps/pkg/tracing"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetup_WithoutEndpoint(t *testing.T) {
	shutdown, err := tracing.Setup(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, span := tracing.Tracer("test").Start(context.Background(), "op")
	if !span.SpanContext().IsValid() {
		t.Error("expected a recording span without an exporter")
	}
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_WithEndpoint(t *testing.T) {
	// Use a non-routable address so no actual export happens.
	shutdown, err := tracing.Setup(context.Background(),
		tracing.WithServiceName("holotrumps-test"),
		tracing.WithEndpoint("http://192.0.2.1:4318"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_SpanProcessor(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	shutdown, err := tracing.Setup(context.Background(), tracing.WithSpanProcessor(rec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	_, span := tracing.Tracer("test").Start(context.Background(), "pairing.GetRandomPair")
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 || ended[0].Name() != "pairing.GetRandomPair" {
		t.Fatalf("expected one recorded span, got %d", len(ended))
	}
}
