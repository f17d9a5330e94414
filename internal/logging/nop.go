package logging

import "context"

type nopLogger struct{}

// NewNop returns a logger that discards everything. Useful in tests.
func NewNop() Logger { return nopLogger{} }

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (n nopLogger) With(args ...any) Logger                          { return n }
