package instrumentation

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	// DefaultServiceVersion is the default service version used when none is provided
	DefaultServiceVersion = "unknown"
)

// Config holds instrumentation configuration
type Config struct {
	// ServiceName is the name of the consuming application (e.g., "parlor-desktop")
	ServiceName string

	// ServiceVersion is the version of the consuming application
	ServiceVersion string

	// Enabled controls whether instrumentation is active
	// When false, uses no-op providers (zero overhead)
	Enabled bool

	// MeterProvider overrides the meter provider. If nil and Enabled is
	// true, a no-op provider is used until the host wires an exporter.
	MeterProvider metric.MeterProvider

	// TracerProvider overrides the tracer provider.
	TracerProvider trace.TracerProvider

	// Resource allows custom resource attributes
	// If nil, default resource is created with service name and version
	Resource *resource.Resource
}

// Instrumentation provides OpenTelemetry instrumentation components
type Instrumentation struct {
	config   Config
	resource *resource.Resource

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	// Metrics holder provides pre-configured metric instruments
	metrics *Metrics

	// Shutdown functions (registered during New() only, not thread-safe after initialization)
	shutdownFuncs []func(context.Context) error
	shutdownOnce  sync.Once
}

// New creates a new instrumentation instance
func New(config Config) (*Instrumentation, error) {
	if config.ServiceName == "" {
		config.ServiceName = "parlor-go"
	}
	if config.ServiceVersion == "" {
		config.ServiceVersion = DefaultServiceVersion
	}

	var res *resource.Resource
	var err error
	if config.Resource != nil {
		res = config.Resource
	} else {
		res, err = resource.New(
			context.Background(),
			resource.WithAttributes(
				semconv.ServiceName(config.ServiceName),
				semconv.ServiceVersion(config.ServiceVersion),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create resource: %w", err)
		}
	}

	inst := &Instrumentation{
		config:   config,
		resource: res,
	}

	if !config.Enabled {
		inst.meterProvider = noop.NewMeterProvider()
		inst.tracerProvider = tracenoop.NewTracerProvider()
	} else {
		inst.meterProvider = config.MeterProvider
		if inst.meterProvider == nil {
			inst.meterProvider = noop.NewMeterProvider()
		}
		inst.tracerProvider = config.TracerProvider
		if inst.tracerProvider == nil {
			inst.tracerProvider = tracenoop.NewTracerProvider()
		}
	}

	inst.metrics, err = newMetrics(inst)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	return inst, nil
}

// Shutdown gracefully shuts down all instrumentation providers
func (i *Instrumentation) Shutdown(ctx context.Context) error {
	var shutdownErr error

	i.shutdownOnce.Do(func() {
		for _, fn := range i.shutdownFuncs {
			if err := fn(ctx); err != nil {
				if shutdownErr == nil {
					shutdownErr = err
				}
			}
		}
	})

	return shutdownErr
}

// Meter returns a named meter for the given scope.
// Scopes are layer names like "api", "state", "cache", "slowmode".
// The full name will be "github.com/parlorchat/parlor-go/{scope}"
func (i *Instrumentation) Meter(scope string) metric.Meter {
	return i.meterProvider.Meter("github.com/parlorchat/parlor-go/" + scope)
}

// Tracer returns a named tracer for the given scope.
func (i *Instrumentation) Tracer(scope string) trace.Tracer {
	return i.tracerProvider.Tracer("github.com/parlorchat/parlor-go/" + scope)
}

// Metrics returns the metrics holder for recording metric values
func (i *Instrumentation) Metrics() *Metrics {
	return i.metrics
}

// TracerProvider returns the underlying tracer provider
func (i *Instrumentation) TracerProvider() trace.TracerProvider {
	return i.tracerProvider
}

// MeterProvider returns the underlying meter provider
func (i *Instrumentation) MeterProvider() metric.MeterProvider {
	return i.meterProvider
}

// StateSizeCallback is a function that returns the current size of a state slice
type StateSizeCallback func() int64

// RegisterStateSizeCallbacks registers callbacks for state store size gauges.
// Store implementations call this after instrumentation is set, one callback
// per tracked slice. Nil callbacks are skipped.
func (i *Instrumentation) RegisterStateSizeCallbacks(
	membersCount, channelsCount, messagesCount, rolesCount StateSizeCallback,
) error {
	if i.meterProvider == nil {
		return fmt.Errorf("meter provider not initialized")
	}

	meter := i.Meter("state")

	_, err := meter.RegisterCallback(
		func(ctx context.Context, observer metric.Observer) error {
			if membersCount != nil {
				observer.ObserveInt64(i.metrics.StateSizeMembers, membersCount())
			}
			if channelsCount != nil {
				observer.ObserveInt64(i.metrics.StateSizeChannels, channelsCount())
			}
			if messagesCount != nil {
				observer.ObserveInt64(i.metrics.StateSizeMessages, messagesCount())
			}
			if rolesCount != nil {
				observer.ObserveInt64(i.metrics.StateSizeRoles, rolesCount())
			}
			return nil
		},
		i.metrics.StateSizeMembers,
		i.metrics.StateSizeChannels,
		i.metrics.StateSizeMessages,
		i.metrics.StateSizeRoles,
	)

	return err
}
