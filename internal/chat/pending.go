package chat

import (
	"context"
	"sync"
)

// Result is the outcome of one submission.
type Result struct {
	Reply string // bot message text as appended
	Err   error  // nil on success
}

// Pending is the future returned by Submit. It resolves once the bot
// message for the submission has been appended.
type Pending struct {
	cancel context.CancelFunc
	done   chan struct{}

	once   sync.Once
	result Result
}

func newPending(cancel context.CancelFunc) *Pending {
	return &Pending{
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Done is closed when the request has resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the request resolves and returns its result.
func (p *Pending) Wait() Result {
	<-p.done
	return p.result
}

// WaitContext is Wait bounded by ctx. It does not cancel the request.
func (p *Pending) WaitContext(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		return p.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Cancel aborts the outstanding request. The submission then resolves as a
// failure. Cancel after resolution is a no-op.
func (p *Pending) Cancel() {
	p.cancel()
}

func (p *Pending) resolve(r Result) {
	p.once.Do(func() {
		p.result = r
		close(p.done)
	})
}
