package types

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultMaxTagSize caps declared tag and item sizes (16 MiB).
const DefaultMaxTagSize = 16 << 20

// ReadOptions carries parse configuration and collects warnings for one
// stream. A ReadOptions value must not be shared between goroutines.
type ReadOptions struct {
	Logger     *slog.Logger
	Warnings   []Warning
	MaxTagSize int64
	Strict     bool
}

// NewReadOptions returns lenient options with the default size cap.
func NewReadOptions() *ReadOptions {
	return &ReadOptions{
		MaxTagSize: DefaultMaxTagSize,
		Logger:     slog.New(slog.DiscardHandler),
	}
}

// Warn records a non-fatal issue.
func (o *ReadOptions) Warn(stage string, offset int64, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	o.Warnings = append(o.Warnings, Warning{Stage: stage, Message: msg, Offset: offset})
	o.logger().Debug("audiotag warning", "stage", stage, "offset", offset, "message", msg)
}

// Fail applies the strict/lenient policy to err: in strict mode err is
// returned unchanged; otherwise it is recorded as a warning and nil is
// returned so the caller can degrade to not-found or a partial result.
func (o *ReadOptions) Fail(stage string, offset int64, err error) error {
	if err == nil {
		return nil
	}
	if o.Strict {
		return err
	}
	o.Warn(stage, offset, "%v", err)
	return nil
}

// Debug logs a diagnostic record that is not a warning, such as a rescan.
func (o *ReadOptions) Debug(msg string, args ...any) {
	o.logger().Log(context.Background(), slog.LevelDebug, msg, args...)
}

func (o *ReadOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Cap returns the effective maximum tag size.
func (o *ReadOptions) Cap() int64 {
	if o.MaxTagSize <= 0 {
		return DefaultMaxTagSize
	}
	return o.MaxTagSize
}
