package usagecontext

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Context is an extension of Go's context which also includes a logger. This allows us to pass round a contextual logger
// while retaining type-safety
type Context struct {
	context.Context
	logrus.FieldLogger
}

// Background creates an empty context with the standard logger.  It is analogous to context.Background()
func Background() *Context {
	return &Context{
		Context:     context.Background(),
		FieldLogger: logrus.NewEntry(logrus.StandardLogger()),
	}
}

// New returns a context that encapsulates both a go context and a logger
func New(ctx context.Context, log logrus.FieldLogger) *Context {
	return &Context{
		Context:     ctx,
		FieldLogger: log,
	}
}

// FromContext returns ctx if it already is a *Context, and otherwise wraps it with the standard logger.
func FromContext(ctx context.Context) *Context {
	if c, ok := ctx.(*Context); ok {
		return c
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return New(ctx, logrus.NewEntry(logrus.StandardLogger()))
}

// WithCancel returns a copy of parent with a new Done channel. It is analogous to context.WithCancel()
func WithCancel(parent *Context) (*Context, context.CancelFunc) {
	c, cancel := context.WithCancel(parent.Context)
	return &Context{
		Context:     c,
		FieldLogger: parent.FieldLogger,
	}, cancel
}

// WithLogField returns a copy of parent with the supplied key-value added to the logger
func WithLogField(parent *Context, key string, val interface{}) *Context {
	return &Context{
		Context:     parent.Context,
		FieldLogger: parent.FieldLogger.WithField(key, val),
	}
}

// WithLogFields returns a copy of parent with the supplied key-values added to the logger
func WithLogFields(parent *Context, fields logrus.Fields) *Context {
	return &Context{
		Context:     parent.Context,
		FieldLogger: parent.FieldLogger.WithFields(fields),
	}
}
