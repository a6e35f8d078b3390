package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric instruments for the client library
type Metrics struct {
	// API Layer Metrics
	APIRequestsTotal   metric.Int64Counter
	APIRequestDuration metric.Float64Histogram
	APIRequestErrors   metric.Int64Counter

	// State Store Metrics
	StateOperationTotal    metric.Int64Counter
	StateOperationDuration metric.Float64Histogram
	StateSizeMembers       metric.Int64ObservableGauge
	StateSizeChannels      metric.Int64ObservableGauge
	StateSizeMessages      metric.Int64ObservableGauge
	StateSizeRoles         metric.Int64ObservableGauge

	// Message Flow Metrics
	MessagesSent     metric.Int64Counter
	MessagesEdited   metric.Int64Counter
	MessagesDeleted  metric.Int64Counter
	ReactionsToggled metric.Int64Counter

	// Nickname Cache Metrics
	CacheReadsTotal   metric.Int64Counter
	CacheWritesTotal  metric.Int64Counter
	CacheSyncFailures metric.Int64Counter

	// Slow Mode Metrics
	SlowModeThrottled metric.Int64Counter
}

// newMetrics creates and registers all metric instruments
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	m := &Metrics{}

	apiMeter := inst.Meter("api")
	stateMeter := inst.Meter("state")
	cacheMeter := inst.Meter("cache")
	slowModeMeter := inst.Meter("slowmode")

	var err error
	m.APIRequestsTotal, err = apiMeter.Int64Counter(
		"parlor.api.requests.total",
		metric.WithDescription("Total number of REST API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api.requests.total counter: %w", err)
	}

	m.APIRequestDuration, err = apiMeter.Float64Histogram(
		"parlor.api.request.duration",
		metric.WithDescription("REST API request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api.request.duration histogram: %w", err)
	}

	m.APIRequestErrors, err = apiMeter.Int64Counter(
		"parlor.api.request.errors",
		metric.WithDescription("Number of REST API requests that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api.request.errors counter: %w", err)
	}

	m.StateOperationTotal, err = stateMeter.Int64Counter(
		"parlor.state.operations.total",
		metric.WithDescription("Total number of state store operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create state.operations.total counter: %w", err)
	}

	m.StateOperationDuration, err = stateMeter.Float64Histogram(
		"parlor.state.operation.duration",
		metric.WithDescription("State store operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create state.operation.duration histogram: %w", err)
	}

	m.StateSizeMembers, err = stateMeter.Int64ObservableGauge(
		"parlor.state.size.members",
		metric.WithDescription("Number of members currently held in the state store"),
		metric.WithUnit("{member}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create state.size.members gauge: %w", err)
	}

	m.StateSizeChannels, err = stateMeter.Int64ObservableGauge(
		"parlor.state.size.channels",
		metric.WithDescription("Number of channels currently held in the state store"),
		metric.WithUnit("{channel}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create state.size.channels gauge: %w", err)
	}

	m.StateSizeMessages, err = stateMeter.Int64ObservableGauge(
		"parlor.state.size.messages",
		metric.WithDescription("Number of messages currently held in the state store"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create state.size.messages gauge: %w", err)
	}

	m.StateSizeRoles, err = stateMeter.Int64ObservableGauge(
		"parlor.state.size.roles",
		metric.WithDescription("Number of roles currently held in the state store"),
		metric.WithUnit("{role}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create state.size.roles gauge: %w", err)
	}

	m.MessagesSent, err = stateMeter.Int64Counter(
		"parlor.messages.sent",
		metric.WithDescription("Number of messages sent"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages.sent counter: %w", err)
	}

	m.MessagesEdited, err = stateMeter.Int64Counter(
		"parlor.messages.edited",
		metric.WithDescription("Number of messages edited"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages.edited counter: %w", err)
	}

	m.MessagesDeleted, err = stateMeter.Int64Counter(
		"parlor.messages.deleted",
		metric.WithDescription("Number of messages soft-deleted"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages.deleted counter: %w", err)
	}

	m.ReactionsToggled, err = stateMeter.Int64Counter(
		"parlor.reactions.toggled",
		metric.WithDescription("Number of reaction toggles applied to local state"),
		metric.WithUnit("{toggle}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reactions.toggled counter: %w", err)
	}

	m.CacheReadsTotal, err = cacheMeter.Int64Counter(
		"parlor.cache.reads.total",
		metric.WithDescription("Number of nickname cache reads"),
		metric.WithUnit("{read}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache.reads.total counter: %w", err)
	}

	m.CacheWritesTotal, err = cacheMeter.Int64Counter(
		"parlor.cache.writes.total",
		metric.WithDescription("Number of nickname cache writes"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache.writes.total counter: %w", err)
	}

	m.CacheSyncFailures, err = cacheMeter.Int64Counter(
		"parlor.cache.sync.failures",
		metric.WithDescription("Number of failed remote syncs of nickname overrides"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache.sync.failures counter: %w", err)
	}

	m.SlowModeThrottled, err = slowModeMeter.Int64Counter(
		"parlor.slowmode.throttled",
		metric.WithDescription("Number of sends rejected by the slow mode limiter"),
		metric.WithUnit("{rejection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create slowmode.throttled counter: %w", err)
	}

	return m, nil
}

// RecordAPIRequest records an API request with its duration and outcome
func (m *Metrics) RecordAPIRequest(ctx context.Context, method, endpoint string, statusCode int, durationMs float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPEndpoint, endpoint),
		attribute.Int(AttrHTTPStatusCode, statusCode),
	)
	m.APIRequestsTotal.Add(ctx, 1, attrs)
	m.APIRequestDuration.Record(ctx, durationMs, attrs)
	if statusCode >= 400 || statusCode == 0 {
		m.APIRequestErrors.Add(ctx, 1, attrs)
	}
}

// RecordStateOperation records a state store operation with its duration
func (m *Metrics) RecordStateOperation(ctx context.Context, operation string, durationMs float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrStateOperation, operation))
	m.StateOperationTotal.Add(ctx, 1, attrs)
	m.StateOperationDuration.Record(ctx, durationMs, attrs)
}
