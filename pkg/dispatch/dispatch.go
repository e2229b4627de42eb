// Package dispatch executes simulation commands through interchangeable
// backends under a bounded-concurrency policy.
//
// A Dispatcher owns one session per sweep: InitializeSession allocates the
// backend resource (a local process pool, a cluster scheduler session, an
// SSH connection), Dispatch hands one command at a time to it, WaitAll
// blocks until everything dispatched so far has finished, and Close releases
// the session. Submission failures propagate out of Dispatch; the exit
// status of the dispatched program itself is not inspected at this layer,
// a deliberate boundary — whether a simulation "worked" is between the user
// and their program.
//
// Cancelling the context abandons queued submissions and waiting. It never
// kills a job that has already started; jobs run to completion.
package dispatch

import (
	"context"
	"errors"
)

// ErrNoSession is returned by Dispatch or WaitAll before InitializeSession.
var ErrNoSession = errors.New("dispatcher session not initialized")

// Dispatcher runs one external command per simulation.
type Dispatcher interface {
	// InitializeSession allocates the backend resource. It is idempotent
	// within one sweep.
	InitializeSession(ctx context.Context) error

	// Dispatch begins executing command. With wait true the call blocks
	// until that one job completes (serial mode); otherwise it returns as
	// soon as the job is accepted.
	Dispatch(ctx context.Context, command string, wait bool) error

	// WaitAll blocks until every job dispatched so far has completed.
	WaitAll(ctx context.Context) error

	// Close releases the session. Pending jobs are waited for first.
	Close() error
}
