package password

import (
	"context"
	"runtime"
)

// Pool runs hashing off the request goroutine on a bounded number of slots.
// When the caller's context ends first, the call returns ctx.Err() and the
// background result is dropped.
type Pool struct {
	hasher Hasher
	slots  chan struct{}
}

// NewPool creates a Pool around h; size <= 0 uses GOMAXPROCS.
func NewPool(h Hasher, size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		hasher: h,
		slots:  make(chan struct{}, size),
	}
}

type hashResult struct {
	verifier []byte
	err      error
}

func (p *Pool) Hash(ctx context.Context, plaintext string) ([]byte, error) {
	if err := p.acquire(ctx); err != nil {
		return nil, err
	}

	done := make(chan hashResult, 1)
	go func() {
		defer p.release()
		v, err := p.hasher.Hash(plaintext)
		done <- hashResult{verifier: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.verifier, res.err
	}
}

func (p *Pool) Compare(ctx context.Context, plaintext string, verifier []byte) (bool, error) {
	if err := p.acquire(ctx); err != nil {
		return false, err
	}

	done := make(chan bool, 1)
	go func() {
		defer p.release()
		done <- p.hasher.Compare(plaintext, verifier)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case ok := <-done:
		return ok, nil
	}
}

func (p *Pool) acquire(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) release() {
	<-p.slots
}
