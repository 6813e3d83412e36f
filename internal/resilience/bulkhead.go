// Package resilience bounds how much concurrent work the service accepts.
package resilience

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
)

// Common bulkhead errors.
var (
	ErrBulkheadFull    = errors.New("bulkhead is full")
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies this bulkhead in logs.
	Name string
	// MaxConcurrent is the maximum number of concurrent calls.
	MaxConcurrent int
	// MaxWait is how long to wait for a slot. 0 means fail immediately.
	MaxWait time.Duration
	// OnReject is called when a caller does not get a slot.
	OnReject func(name string, err error)
}

// Bulkhead limits concurrent executions with a weighted semaphore.
type Bulkhead struct {
	config BulkheadConfig
	sem    *semaphore.Weighted
}

// NewBulkhead creates a bulkhead. MaxConcurrent defaults to 4.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 4
	}
	return &Bulkhead{
		config: config,
		sem:    semaphore.NewWeighted(int64(config.MaxConcurrent)),
	}
}

// Execute runs fn once a slot is free. It returns ErrBulkheadFull,
// ErrBulkheadTimeout or the context error if no slot was obtained.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.acquire(ctx); err != nil {
		if b.config.OnReject != nil {
			b.config.OnReject(b.config.Name, err)
		}
		return err
	}
	defer b.sem.Release(1)

	return fn()
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	if b.sem.TryAcquire(1) {
		return nil
	}
	if b.config.MaxWait <= 0 {
		return ErrBulkheadFull
	}

	waitCtx, cancel := context.WithTimeout(ctx, b.config.MaxWait)
	defer cancel()

	if err := b.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrBulkheadTimeout
	}
	return nil
}

// MaxConcurrent returns the configured limit.
func (b *Bulkhead) MaxConcurrent() int {
	return b.config.MaxConcurrent
}
