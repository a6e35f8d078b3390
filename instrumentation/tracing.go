package instrumentation

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common span attribute keys.
//
// Never log message contents, nicknames, or bearer tokens in traces or
// metrics. Only identifiers and metadata are safe: traces are persisted for
// extended periods and replicated across monitoring infrastructure.
const (
	// Chat domain attributes
	AttrServerID  = "parlor.server_id"
	AttrChannelID = "parlor.channel_id"
	AttrMessageID = "parlor.message_id"
	AttrMemberID  = "parlor.member_id"
	AttrEmoji     = "parlor.emoji"

	// State store attributes
	AttrStateOperation = "state.operation"
	AttrStateResult    = "state.result"

	// Cache attributes
	AttrCacheOperation = "cache.operation"
	AttrCacheBackend   = "cache.backend"

	// HTTP attributes (in addition to standard semantic conventions)
	AttrHTTPEndpoint   = "http.endpoint"
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"
	AttrRequestID      = "http.request_id"
)

// RecordError records an error on a span with proper status codes (nil-safe)
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks a span as successful (nil-safe)
func SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// SetSpanAttributes sets attributes on a span (nil-safe)
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}

// AddChannelAttributes adds channel-scoped attributes to a span (nil-safe)
func AddChannelAttributes(span trace.Span, serverID, channelID string) {
	if serverID != "" {
		SetSpanAttributes(span, attribute.String(AttrServerID, serverID))
	}
	if channelID != "" {
		SetSpanAttributes(span, attribute.String(AttrChannelID, channelID))
	}
}

// AddStateAttributes adds state operation attributes to a span (nil-safe)
func AddStateAttributes(span trace.Span, operation string) {
	SetSpanAttributes(span, attribute.String(AttrStateOperation, operation))
}

// AddHTTPAttributes adds HTTP request attributes to a span (nil-safe)
func AddHTTPAttributes(span trace.Span, method, endpoint string, statusCode int) {
	SetSpanAttributes(span,
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPEndpoint, endpoint),
		attribute.Int(AttrHTTPStatusCode, statusCode),
	)
}
