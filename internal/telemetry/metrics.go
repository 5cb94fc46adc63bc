// Package telemetry holds the service's OpenTelemetry instruments. Counters are
// registered on the global MeterProvider, so they are no-ops until cmd/server
// installs the OTLP providers from telemetry/otel.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	eventsIngested  metric.Int64Counter
	eventsDropped   metric.Int64Counter
	samplesAppended metric.Int64Counter
	sessionsOpened  metric.Int64Counter
	sessionsClosed  metric.Int64Counter
)

func init() {
	m := otel.Meter("drone-flight-tracker/ingest")
	eventsIngested, _ = m.Int64Counter("tracker.events.ingested",
		metric.WithDescription("Telemetry events accepted into the ledger"))
	eventsDropped, _ = m.Int64Counter("tracker.events.dropped",
		metric.WithDescription("Telemetry events dropped before or during ingestion"))
	samplesAppended, _ = m.Int64Counter("tracker.samples.appended",
		metric.WithDescription("Telemetry samples written to the sample log"))
	sessionsOpened, _ = m.Int64Counter("tracker.sessions.opened",
		metric.WithDescription("Flight sessions opened"))
	sessionsClosed, _ = m.Int64Counter("tracker.sessions.closed",
		metric.WithDescription("Flight sessions closed"))
}

func EventIngested(ctx context.Context) { eventsIngested.Add(ctx, 1) }

// EventDropped records a dropped event; reason is one of decode, validation, store.
func EventDropped(ctx context.Context, reason string) {
	eventsDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func SampleAppended(ctx context.Context) { samplesAppended.Add(ctx, 1) }

func SessionOpened(ctx context.Context) { sessionsOpened.Add(ctx, 1) }

func SessionClosed(ctx context.Context) { sessionsClosed.Add(ctx, 1) }
