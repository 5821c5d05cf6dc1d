package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError records err on the span and marks it failed. Extra attributes
// land on the error event, not the span, so the span keeps only the flow
// identity set at start time.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("error_occurred", trace.WithAttributes(attrs...))
}

// FlowError is SetError with the flow id attached to the error event.
func FlowError(span trace.Span, err error, flowID string) {
	SetError(span, err, attribute.String(FlowIDKey, flowID))
}
