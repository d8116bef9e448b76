package service

import (
	"context"
	"sync"
	"time"
)

// build is one page build that concurrent callers for the same key share.
type build struct {
	done   chan struct{}
	result []byte
	err    error
}

// buildCoalescer runs at most one build per key at a time; later callers wait for the
// running build instead of starting their own.
type buildCoalescer struct {
	mu       sync.Mutex
	inFlight map[string]*build
	timeout  time.Duration
}

func newBuildCoalescer(timeout time.Duration) *buildCoalescer {
	return &buildCoalescer{
		inFlight: make(map[string]*build),
		timeout:  timeout,
	}
}

// Do returns the result of fn for key, sharing a build already in flight.
// fn runs detached from the caller's cancellation, bounded by the coalescer timeout, so one
// caller giving up does not fail the others. shared reports whether the caller joined an
// existing build.
func (bc *buildCoalescer) Do(ctx context.Context, key string, fn func(context.Context) ([]byte, error)) (result []byte, shared bool, err error) {
	bc.mu.Lock()
	b, exists := bc.inFlight[key]
	if !exists {
		b = &build{done: make(chan struct{})}
		bc.inFlight[key] = b
		bc.mu.Unlock()

		go func() {
			buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bc.timeout)
			defer cancel()
			b.result, b.err = fn(buildCtx)

			bc.mu.Lock()
			delete(bc.inFlight, key)
			bc.mu.Unlock()
			close(b.done)
		}()
	} else {
		bc.mu.Unlock()
	}

	select {
	case <-b.done:
		return b.result, exists, b.err
	case <-ctx.Done():
		return nil, exists, ctx.Err()
	}
}
