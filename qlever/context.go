// Package qlever provides the per-query Context threaded through every
// operator: cancellation, the memory budget, timing, and tracing/logging. Mirrors go-mysql-server's sql.Context, specifically the
// ctx.Span(name) usage contract visible at its
// sql/expression/function/regexp_replace.go call site ("span, ctx :=
// ctx.Span(...); defer span.Finish()"), reimplemented here over
// go.opentelemetry.io/otel/trace since sql.Context's own source was not
// part of the retrieval pack -- only that call site was.
package qlever

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/ad-freiburg/qlever-engine/cancel"
	"github.com/ad-freiburg/qlever-engine/memlimit"
	"github.com/ad-freiburg/qlever-engine/qtimer"
)

// Span wraps an in-flight trace span so callers can Finish it with a defer,
// matching the "span, ctx := ctx.Span(name); defer span.Finish()" idiom
// without otel's own trace.Span naming leaking into call sites.
type Span struct {
	otelSpan trace.Span
}

// Finish ends the span. Safe to call on the zero Span (no-op), matching
// Finish being called unconditionally via defer at every call site.
func (s Span) Finish() {
	if s.otelSpan != nil {
		s.otelSpan.End()
	}
}

// Context is the per-query execution context, modelled on go-mysql-server's
// *sql.Context. The join drivers, the external sorter and the cache adapter
// in this module do not take a *Context; they take the individual pieces
// they need (such as a *cancel.Handle) directly.
type Context struct {
	goCtx context.Context

	tracer trace.Tracer
	log    *logrus.Entry

	Cancel *cancel.Handle
	Memory *memlimit.Budget
	Timing *qtimer.Tracer
}

// NewContext builds a root Context for a single query execution.
func NewContext(goCtx context.Context, tracer trace.Tracer, log *logrus.Entry, memory *memlimit.Budget) *Context {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("qlever")
	}
	return &Context{
		goCtx:  goCtx,
		tracer: tracer,
		log:    log,
		Cancel: cancel.New(),
		Memory: memory,
		Timing: qtimer.NewTracer("query"),
	}
}

// Span starts a named trace span and returns it alongside a derived
// Context carrying the span's associated context.Context, mirroring
// sql.Context's ctx.Span return shape.
func (c *Context) Span(name string) (Span, *Context) {
	goCtx, otelSpan := c.tracer.Start(c.goCtx, name)
	derived := &Context{
		goCtx:  goCtx,
		tracer: c.tracer,
		log:    c.log,
		Cancel: c.Cancel,
		Memory: c.Memory,
		Timing: c.Timing,
	}
	return Span{otelSpan: otelSpan}, derived
}

// GoContext returns the underlying context.Context, e.g. to pass to a
// library call that wants one directly.
func (c *Context) GoContext() context.Context {
	return c.goCtx
}

// Log returns the logger entry scoped to this query, for operators to
// attach component fields via Log().WithField(...).
func (c *Context) Log() *logrus.Entry {
	return c.log
}

// ThrowIfCancelled is a convenience forward to Cancel.ThrowIfCancelled, the
// check every operator performs at each cooperative suspension point.
func (c *Context) ThrowIfCancelled() error {
	return c.Cancel.ThrowIfCancelled()
}
