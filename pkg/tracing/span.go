// Package tracing records the phases of a single query as a tree of timed
// spans carried through the context and logged via slog when the root
// finishes. Without a root span in the context, child spans are detached
// and cost one allocation.
package tracing

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

type ctxKey struct{}

type Span struct {
	Name      string
	TraceID   string
	StartTime time.Time
	Duration  time.Duration
	Children  []*Span
	Attrs     map[string]any

	mu sync.Mutex
}

func newSpan(name, traceID string) *Span {
	return &Span{
		Name:      name,
		TraceID:   traceID,
		StartTime: time.Now(),
		Attrs:     make(map[string]any),
	}
}

// StartSpan begins a root span. traceID is usually the request id.
func StartSpan(ctx context.Context, name string, traceID string) (context.Context, *Span) {
	span := newSpan(name, traceID)
	return context.WithValue(ctx, ctxKey{}, span), span
}

// StartChildSpan begins a span under the one in ctx, if any.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	parent := SpanFromContext(ctx)
	if parent == nil {
		span := newSpan(name, "")
		return context.WithValue(ctx, ctxKey{}, span), span
	}
	child := newSpan(name, parent.TraceID)
	parent.mu.Lock()
	parent.Children = append(parent.Children, child)
	parent.mu.Unlock()
	return context.WithValue(ctx, ctxKey{}, child), child
}

// Phase times fn as a child span of ctx.
func Phase(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := StartChildSpan(ctx, name)
	defer span.End()
	err := fn(ctx)
	if err != nil {
		span.SetAttr("error", err.Error())
	}
	return err
}

func (s *Span) End() {
	s.mu.Lock()
	s.Duration = time.Since(s.StartTime)
	s.mu.Unlock()
}

func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.Attrs[key] = value
	s.mu.Unlock()
}

func SpanFromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(ctxKey{}).(*Span)
	return span
}

// Phases sums the durations of the spans below s by name. Nested spans are
// included; s itself is not.
func (s *Span) Phases() map[string]time.Duration {
	out := make(map[string]time.Duration)
	s.walk(0, func(sp *Span, depth int, _ []any) {
		if depth > 0 {
			out[sp.Name] += sp.Duration
		}
	})
	return out
}

// Log writes the span tree to logger at debug level, depth first.
func (s *Span) Log(logger *slog.Logger) {
	s.walk(0, func(sp *Span, depth int, attrs []any) {
		logger.Debug("span", append([]any{
			"trace_id", sp.TraceID,
			"span", sp.Name,
			"duration_us", sp.Duration.Microseconds(),
			"depth", depth,
		}, attrs...)...)
	})
}

// walk visits the tree depth first, handing each span's attributes over
// in key order.
func (s *Span) walk(depth int, visit func(sp *Span, depth int, attrs []any)) {
	s.mu.Lock()
	keys := make([]string, 0, len(s.Attrs))
	for k := range s.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		attrs = append(attrs, k, s.Attrs[k])
	}
	children := append([]*Span(nil), s.Children...)
	s.mu.Unlock()

	visit(s, depth, attrs)
	for _, c := range children {
		c.walk(depth+1, visit)
	}
}
