package dispatch

import (
	"context"
	"errors"
	"sync"
)

// pool bounds how many submitted jobs run at once. Submissions past the
// bound queue as parked goroutines holding no resources but a stack; the
// semaphore guarantees at most cap(sem) run functions are in flight.
type pool struct {
	sem chan struct{}

	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

func newPool(size int) *pool {
	return &pool{sem: make(chan struct{}, size)}
}

// runNow executes run in the caller's goroutine once a slot frees up, and
// returns its error directly. This is the serial path.
func (p *pool) runNow(ctx context.Context, run func() error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.sem }()
	return run()
}

// submit queues run for execution and returns immediately. Errors are
// collected and reported by wait.
func (p *pool) submit(ctx context.Context, run func() error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		select {
		case p.sem <- struct{}{}:
		case <-ctx.Done():
			p.record(ctx.Err())
			return
		}
		defer func() { <-p.sem }()
		if err := run(); err != nil {
			p.record(err)
		}
	}()
}

func (p *pool) record(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, err)
}

// wait blocks until every submitted job has finished, then reports the
// collected errors. Cancelling ctx abandons the wait; the jobs keep running.
func (p *pool) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.errs...)
}
