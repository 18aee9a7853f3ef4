// Package observe builds the structured loggers and trace spans used across
// the module.
package observe

import (
	"context"
	"io"
	"strings"

	"github.com/felixgeelhaar/bolt/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("teachable-go")

// NewLogger creates a logger writing to out. format "json" selects JSON
// output; anything else selects the console handler.
func NewLogger(out io.Writer, format string) *bolt.Logger {
	if strings.EqualFold(format, "json") {
		return bolt.New(bolt.NewJSONHandler(out))
	}
	return bolt.New(bolt.NewConsoleHandler(out))
}

// Discard returns a logger that drops everything.
func Discard() *bolt.Logger {
	l := bolt.New(bolt.NewJSONHandler(io.Discard))
	l.SetLevel(bolt.ERROR)
	return l
}

// Component returns a child logger tagged with the component name.
func Component(l *bolt.Logger, name string) *bolt.Logger {
	return l.With().Str("component", name).Logger()
}

// StartSpan starts a new OTel span. Without an installed provider this is a
// no-op span.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}
