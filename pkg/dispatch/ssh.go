package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/parasol-run/parasol/pkg/remote"
)

// SSH runs commands on a remote host over one SSH connection, with a bounded
// number of concurrent sessions standing in for the local pool's process
// slots. Useful for driving sweeps from a workstation against a login node.
type SSH struct {
	Config *remote.Config
	// MaxSessions caps concurrent remote sessions. 0 means 8, below the
	// typical sshd MaxSessions default.
	MaxSessions int

	// runner is swapped in tests to avoid a real connection.
	runner func(ctx context.Context, command string) error

	mu     sync.Mutex
	client *remote.Client
	pool   *pool
}

// NewSSH returns an SSH dispatcher for cfg. The connection is established by
// InitializeSession.
func NewSSH(cfg *remote.Config) *SSH {
	return &SSH{Config: cfg}
}

// InitializeSession connects to the remote host and creates the session
// pool.
func (d *SSH) InitializeSession(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pool != nil {
		return nil
	}
	if d.runner == nil {
		client, err := remote.NewClient(d.Config)
		if err != nil {
			return fmt.Errorf("ssh dispatcher: %w", err)
		}
		if err := client.Connect(ctx); err != nil {
			return fmt.Errorf("ssh dispatcher: %w", err)
		}
		d.client = client
		d.runner = d.runRemote
	}
	sessions := d.MaxSessions
	if sessions <= 0 {
		sessions = 8
	}
	d.pool = newPool(sessions)
	return nil
}

// Dispatch submits command for remote execution. Semantics match the local
// backend: wait true blocks until that job finishes, transport failures
// propagate, the remote program's exit status does not.
func (d *SSH) Dispatch(ctx context.Context, command string, wait bool) error {
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

// WaitAll blocks until every dispatched remote command has finished.
func (d *SSH) WaitAll(ctx context.Context) error {
	d.mu.Lock()
	p := d.pool
	d.mu.Unlock()
	if p == nil {
		return ErrNoSession
	}
	return p.wait(ctx)
}

// Close waits out in-flight commands and closes the connection.
func (d *SSH) Close() error {
	d.mu.Lock()
	p := d.pool
	client := d.client
	d.mu.Unlock()

	var err error
	if p != nil {
		err = p.wait(context.Background())
	}
	if client != nil {
		if cerr := client.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	d.mu.Lock()
	d.pool = nil
	d.client = nil
	d.runner = nil
	d.mu.Unlock()
	return err
}

// runRemote executes one command in its own session. A non-zero remote exit
// is not an error here.
func (d *SSH) runRemote(ctx context.Context, command string) error {
	err := d.client.Run(ctx, command)
	if err == nil || remote.IsExitError(err) {
		return nil
	}
	return fmt.Errorf("running %q: %w", command, err)
}
