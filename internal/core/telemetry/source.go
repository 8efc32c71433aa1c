// Package telemetry aggregates host metrics from prioritized sources and
// caches the fields that do not change within a session.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lcars-core/internal/logger"
)

var ErrNoSource = errors.New("no telemetry source succeeded")

// Source is one way of collecting T. Sources are tried in priority order.
type Source[T any] interface {
	Name() string
	Collect(ctx context.Context) (T, error)
}

type sourceFunc[T any] struct {
	name string
	fn   func(ctx context.Context) (T, error)
}

// SourceFunc adapts a plain function to a Source.
func SourceFunc[T any](name string, fn func(ctx context.Context) (T, error)) Source[T] {
	return &sourceFunc[T]{name: name, fn: fn}
}

func (s *sourceFunc[T]) Name() string                           { return s.name }
func (s *sourceFunc[T]) Collect(ctx context.Context) (T, error) { return s.fn(ctx) }

// Chain tries each source in order, every attempt bounded by timeout.
type Chain[T any] struct {
	kind    string
	sources []Source[T]
	timeout time.Duration
	log     logger.Logger
}

func NewChain[T any](kind string, timeout time.Duration, log logger.Logger, sources ...Source[T]) *Chain[T] {
	return &Chain[T]{kind: kind, sources: sources, timeout: timeout, log: log}
}

// Run returns the first successful result and the name of the source that
// produced it.
func (c *Chain[T]) Run(ctx context.Context) (T, string, error) {
	var zero T
	var errs []string

	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}

		val, err := c.attempt(ctx, src)
		if err == nil {
			return val, src.Name(), nil
		}

		c.log.Warn("telemetry: source failed", "kind", c.kind, "source", src.Name(), "error", err)
		errs = append(errs, fmt.Sprintf("%s: %v", src.Name(), err))
	}

	return zero, "", fmt.Errorf("%s: %w (%s)", c.kind, ErrNoSource, strings.Join(errs, "; "))
}

type attemptResult[T any] struct {
	val T
	err error
}

// attempt does not trust the source to honour ctx. A source that hangs is
// abandoned once the timeout fires.
func (c *Chain[T]) attempt(ctx context.Context, src Source[T]) (T, error) {
	var zero T

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	done := make(chan attemptResult[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- attemptResult[T]{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := src.Collect(ctx)
		done <- attemptResult[T]{val: v, err: err}
	}()

	select {
	case res := <-done:
		return res.val, res.err
	case <-ctx.Done():
		return zero, fmt.Errorf("attempt aborted: %w", ctx.Err())
	}
}
