package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	flowCounter   otelmetric.Int64Counter
	flowDuration  otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	flowCounter, _ := meter.Int64Counter(
		"flows.invoked",
		otelmetric.WithDescription("Number of flow invocations"),
	)

	flowDuration, _ := meter.Float64Histogram(
		"flows.duration",
		otelmetric.WithDescription("Flow invocation duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		flowCounter:   flowCounter,
		flowDuration:  flowDuration,
	}
}

func (o *Observability) RecordFlowInvoked(ctx context.Context, flow, status string) {
	if o.flowCounter != nil {
		o.flowCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("flow", flow),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordFlowDuration(ctx context.Context, flow string, duration time.Duration) {
	if o.flowDuration != nil {
		o.flowDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("flow", flow),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
