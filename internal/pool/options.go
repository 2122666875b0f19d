package pool

import (
	"fmt"
	"strings"
)

// OverflowPolicy decides what Acquire does when MaxSize instances are live
// and none is free.
type OverflowPolicy uint8

const (
	// OverflowReject fails the acquire with ErrCapacityExceeded.
	OverflowReject OverflowPolicy = iota
	// OverflowAllow creates an extra instance tracked in the overflow bucket.
	OverflowAllow
)

// String returns the config name of the policy.
func (p OverflowPolicy) String() string {
	switch p {
	case OverflowReject:
		return "reject"
	case OverflowAllow:
		return "allow"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", p)
	}
}

// ParseOverflowPolicy parses a config value. Empty means OverflowReject.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return OverflowReject, nil
	case "allow":
		return OverflowAllow, nil
	default:
		return OverflowReject, fmt.Errorf("unknown overflow policy %q", s)
	}
}

type options[T any] struct {
	capacity int
	maxSize  int
	overflow OverflowPolicy
	activate []func(T)
	reset    []func(T)
	destroy  []func(T)
}

// Option configures a Pool.
type Option[T any] func(*options[T])

// WithCapacity sets the number of instances created at construction.
func WithCapacity[T any](n int) Option[T] {
	return func(o *options[T]) { o.capacity = n }
}

// WithMaxSize sets the hard ceiling on live instances.
func WithMaxSize[T any](n int) Option[T] {
	return func(o *options[T]) { o.maxSize = n }
}

// WithOverflow sets the overflow policy.
func WithOverflow[T any](policy OverflowPolicy) Option[T] {
	return func(o *options[T]) { o.overflow = policy }
}

// WithActivate adds a hook run on every acquire, after Poolable.OnActivate.
func WithActivate[T any](fn func(T)) Option[T] {
	return func(o *options[T]) { o.activate = append(o.activate, fn) }
}

// WithReset adds a hook run on every release and warm, after Poolable.OnReset.
func WithReset[T any](fn func(T)) Option[T] {
	return func(o *options[T]) { o.reset = append(o.reset, fn) }
}

// WithDestroy adds a hook run when the pool destroys an instance.
func WithDestroy[T any](fn func(T)) Option[T] {
	return func(o *options[T]) { o.destroy = append(o.destroy, fn) }
}
