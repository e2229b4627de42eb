package dispatch

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"
)

// Local runs commands as child processes through a bounded pool: at most
// Procs processes at once, excess submissions queue. Each worker slot blocks
// on one child from start to exit.
type Local struct {
	// Procs caps concurrent processes. 0 means the number of CPUs.
	Procs int
	// Shell runs the command via `shell -c command`. Empty means /bin/sh.
	Shell string

	// runner is swapped in tests to observe scheduling without real
	// processes.
	runner func(ctx context.Context, command string) error

	mu   sync.Mutex
	pool *pool
}

// NewLocal returns a Local dispatcher with a pool of procs workers, or the
// CPU count when procs is 0.
func NewLocal(procs int) *Local {
	return &Local{Procs: procs}
}

// InitializeSession creates the worker pool.
func (d *Local) InitializeSession(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pool != nil {
		return nil
	}
	procs := d.Procs
	if procs <= 0 {
		procs = runtime.NumCPU()
	}
	if d.runner == nil {
		d.runner = d.runProcess
	}
	d.pool = newPool(procs)
	return nil
}

// Dispatch submits command to the pool. With wait true it blocks until the
// process has exited, returning any start failure directly; otherwise start
// failures surface from WaitAll.
func (d *Local) Dispatch(ctx context.Context, command string, wait bool) error {
	d.mu.Lock()
	p := d.pool
	runner := d.runner
	d.mu.Unlock()
	if p == nil {
		return ErrNoSession
	}
	run := func() error { return runner(ctx, command) }
	if wait {
		return p.runNow(ctx, run)
	}
	p.submit(ctx, run)
	return nil
}

// WaitAll blocks until every dispatched process has exited.
func (d *Local) WaitAll(ctx context.Context) error {
	d.mu.Lock()
	p := d.pool
	d.mu.Unlock()
	if p == nil {
		return ErrNoSession
	}
	return p.wait(ctx)
}

// Close waits out the pool and releases it. The dispatcher can be
// re-initialized for another sweep afterward.
func (d *Local) Close() error {
	d.mu.Lock()
	p := d.pool
	d.mu.Unlock()
	if p == nil {
		return nil
	}
	err := p.wait(context.Background())
	d.mu.Lock()
	d.pool = nil
	d.mu.Unlock()
	return err
}

// runProcess starts the command under the shell and blocks until it exits.
// The exit status is not inspected; only a failure to start is an error.
func (d *Local) runProcess(_ context.Context, command string) error {
	shell := d.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.Command(shell, "-c", command)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %q: %w", command, err)
	}
	_ = cmd.Wait()
	return nil
}
