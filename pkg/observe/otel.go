package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/leobastiani/jotai/pkg/jotai"
)

// Default tracer name for jotai stores.
const defaultTracerName = "jotai"

// TracingConfig configures the OpenTelemetry observer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "jotai").
	TracerName string

	// Filter determines which atoms to trace. Return true to trace
	// the atom, false to skip. If nil, all atoms are traced.
	Filter func(a jotai.AnyAtom) bool

	// AttributeExtractor extracts custom attributes for an atom.
	// Called for each traced span.
	AttributeExtractor func(a jotai.AnyAtom) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TracingOption configures the OpenTelemetry observer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithAtomFilter sets a filter function for atoms.
func WithAtomFilter(filter func(a jotai.AnyAtom) bool) TracingOption {
	return func(c *TracingConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(a jotai.AnyAtom) []attribute.KeyValue) TracingOption {
	return func(c *TracingConfig) {
		c.AttributeExtractor = extractor
	}
}

// Tracing is an Observer that records computations and async
// settlements as OpenTelemetry spans.
//
// Observer hooks fire after the work they describe has finished, so
// spans are created retroactively: each span starts at now-duration
// and ends immediately. That keeps span timing accurate without
// threading trace contexts through atom read functions.
//
// The tracer uses the global OpenTelemetry tracer provider. Configure
// it in your main() before creating the store:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	)
//	otel.SetTracerProvider(tp)
type Tracing struct {
	config TracingConfig
}

// NewTracing creates an OpenTelemetry tracing observer.
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)
	return &Tracing{config: config}
}

func (t *Tracing) span(a jotai.AnyAtom, name string, d time.Duration, err error, extra ...attribute.KeyValue) {
	if t.config.Filter != nil && !t.config.Filter(a) {
		return
	}

	start := time.Now().Add(-d)
	attrs := []attribute.KeyValue{
		attribute.String("jotai.atom", a.Label()),
		attribute.Int64("jotai.atom_id", int64(a.ID())),
	}
	attrs = append(attrs, extra...)
	if t.config.AttributeExtractor != nil {
		attrs = append(attrs, t.config.AttributeExtractor(a)...)
	}

	_, span := t.config.tracer.Start(
		context.Background(),
		name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(start),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(start.Add(d)))
}

func (t *Tracing) OnGet(jotai.AnyAtom, bool) {}

func (t *Tracing) OnCompute(a jotai.AnyAtom, d time.Duration, err error) {
	t.span(a, "jotai.compute", d, err)
}

func (t *Tracing) OnSet(jotai.AnyAtom) {}

func (t *Tracing) OnInvalidate(jotai.AnyAtom, int) {}

func (t *Tracing) OnNotify(jotai.AnyAtom, int) {}

func (t *Tracing) OnSettle(a jotai.AnyAtom, d time.Duration, superseded bool, err error) {
	t.span(a, "jotai.settle", d, err,
		attribute.Bool("jotai.superseded", superseded))
}

var _ jotai.Observer = (*Tracing)(nil)
