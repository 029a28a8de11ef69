package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Policy is a named limit over a fixed window.
type Policy struct {
	Name   string
	Limit  int64
	Window time.Duration
}

var (
	ReadPolicy  = Policy{Name: "read", Limit: 100, Window: time.Minute}
	WritePolicy = Policy{Name: "write", Limit: 30, Window: time.Minute}
	AuthPolicy  = Policy{Name: "auth", Limit: 5, Window: 5 * time.Minute}
)

// Result describes the quota after a request was counted.
type Result struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

type Limiter struct {
	store Store
	now   func() time.Time
}

func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// WithClock returns a copy of the limiter reading time from now.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	return &Limiter{store: l.store, now: now}
}

func storeKey(p Policy, identifier string) string {
	return fmt.Sprintf("%s:%d:%s", p.Name, p.Window.Milliseconds(), identifier)
}

// Allow counts one request for identifier under p.
func (l *Limiter) Allow(ctx context.Context, p Policy, identifier string) (Result, error) {
	count, ttl, err := l.store.Increment(ctx, storeKey(p, identifier), p.Window)
	if err != nil {
		return Result{}, err
	}
	return l.result(p, count, ttl), nil
}

// Peek reports the quota for identifier without counting a request.
func (l *Limiter) Peek(ctx context.Context, p Policy, identifier string) (Result, error) {
	count, ttl, err := l.store.Get(ctx, storeKey(p, identifier))
	if err != nil {
		return Result{}, err
	}
	return l.result(p, count, ttl), nil
}

func (l *Limiter) result(p Policy, count int64, ttl time.Duration) Result {
	if ttl <= 0 {
		ttl = p.Window
	}
	remaining := p.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:   count <= p.Limit,
		Limit:     p.Limit,
		Remaining: remaining,
		ResetAt:   l.now().Add(ttl),
	}
	if !res.Allowed {
		res.RetryAfter = ttl
	}
	return res
}
