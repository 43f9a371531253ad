package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/config"
)

func preserveGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func tracingConfig(name string) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    true,
		Endpoint:    "localhost:4317",
		ServiceName: name,
		SampleRatio: 1.0,
	}
}

func TestSetupOTel_DisabledIsNoOp(t *testing.T) {
	preserveGlobals(t)

	prevTP := otel.GetTracerProvider()
	cfg := tracingConfig("svc")
	cfg.Enabled = false

	shutdown, err := SetupOTel(context.Background(), cfg, "v0.0.0")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected a shutdown func even when disabled")
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatal("disabled setup must not touch the global provider")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown: %v", err)
	}
}

func TestSetupOTel_InstallsProviderAndPropagator(t *testing.T) {
	preserveGlobals(t)

	shutdown, err := SetupOTel(context.Background(), tracingConfig("svc-insecure"), "v1.2.3")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatal("expected the SDK tracer provider to be installed")
	}

	// Propagation round trip through a map carrier.
	carrier := propagation.MapCarrier{}
	ctx, span := otel.Tracer("test").Start(context.Background(), "span")
	span.End()
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if len(carrier) == 0 {
		t.Fatal("expected trace context in the carrier")
	}
	_ = otel.GetTextMapPropagator().Extract(context.Background(), carrier)
}

func TestSetupOTel_TLSBranch(t *testing.T) {
	preserveGlobals(t)

	cfg := tracingConfig("svc-tls")
	cfg.Insecure = false

	shutdown, err := SetupOTel(context.Background(), cfg, "v9.9.9")
	if err != nil {
		t.Fatalf("setup with TLS creds: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatal("expected the SDK tracer provider to be installed")
	}
}

func TestSetupOTel_CanceledContextStillSucceeds(t *testing.T) {
	preserveGlobals(t)

	// Exporter init is lazy; a dead context must not fail setup.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	shutdown, err := SetupOTel(ctx, tracingConfig("svc-canceled"), "v0")
	if err != nil {
		t.Fatalf("setup with canceled ctx: %v", err)
	}
	_ = shutdown(context.Background())
}

func TestSetupOTel_ConstructionErrorsLeaveGlobalsIntact(t *testing.T) {
	preserveGlobals(t)

	cases := []struct {
		name    string
		install func() func()
	}{
		{
			"exporter error",
			func() func() {
				orig := newOTLPExporterFn
				newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
					return nil, errors.New("boom-exporter")
				}
				return func() { newOTLPExporterFn = orig }
			},
		},
		{
			"resource error",
			func() func() {
				orig := newServiceResourceFn
				newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
					return nil, errors.New("boom-resource")
				}
				return func() { newServiceResourceFn = orig }
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			restore := c.install()
			defer restore()

			prevTP := otel.GetTracerProvider()
			prevProp := otel.GetTextMapPropagator()

			if _, err := SetupOTel(context.Background(), tracingConfig("svc"), "v0"); err == nil {
				t.Fatal("expected construction error")
			}
			if otel.GetTracerProvider() != prevTP || otel.GetTextMapPropagator() != prevProp {
				t.Fatal("globals changed despite setup failure")
			}
		})
	}
}

func TestSetupOTel_ShutdownWithinDeadline(t *testing.T) {
	preserveGlobals(t)

	shutdown, err := SetupOTel(context.Background(), tracingConfig("svc-shutdown"), "v1")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
