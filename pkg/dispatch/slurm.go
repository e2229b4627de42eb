package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// JobOptions is the submission template shared by every job of a sweep,
// passed through to sbatch.
type JobOptions struct {
	JobName   string
	Partition string
	Account   string
	// TimeLimit is an sbatch time spec such as "01:30:00".
	TimeLimit string
	// Output is the path pattern for job output. Empty keeps the
	// scheduler default.
	Output string
	// ExtraArgs are appended to the sbatch invocation verbatim.
	ExtraArgs []string
}

func (o JobOptions) args() []string {
	var args []string
	if o.JobName != "" {
		args = append(args, "--job-name="+o.JobName)
	}
	if o.Partition != "" {
		args = append(args, "--partition="+o.Partition)
	}
	if o.Account != "" {
		args = append(args, "--account="+o.Account)
	}
	if o.TimeLimit != "" {
		args = append(args, "--time="+o.TimeLimit)
	}
	if o.Output != "" {
		args = append(args, "--output="+o.Output)
	}
	return append(args, o.ExtraArgs...)
}

// slurmSession is the process-wide scheduler session. The scheduler
// connection is a scarce resource: dispatchers share one session per
// process, reference-counted so the first InitializeSession creates it,
// later ones attach, and the last Close releases it.
type slurmSession struct {
	refs int
}

var shared struct {
	mu      sync.Mutex
	session *slurmSession
}

func acquireSession() *slurmSession {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.session == nil {
		shared.session = &slurmSession{}
	}
	shared.session.refs++
	return shared.session
}

func releaseSession(s *slurmSession) {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if s == nil || shared.session != s {
		return
	}
	s.refs--
	if s.refs <= 0 {
		shared.session = nil
	}
}

// Slurm submits each command as a batch job. Concurrency is the scheduler's
// business: submissions return immediately, and waiting polls the queue
// until the job leaves it. Job state codes are never inspected, matching
// the exit-status boundary of the local backend.
type Slurm struct {
	Options JobOptions
	// PollInterval is the queue polling period while waiting on jobs.
	// 0 means 2s.
	PollInterval time.Duration

	// runner is swapped in tests to fake the scheduler CLI.
	runner func(ctx context.Context, name string, args ...string) (string, error)

	mu      sync.Mutex
	session *slurmSession
	jobs    []string
}

// NewSlurm returns a Slurm dispatcher using opts as its job template.
func NewSlurm(opts JobOptions) *Slurm {
	return &Slurm{Options: opts}
}

// InitializeSession attaches to the process-wide scheduler session.
func (d *Slurm) InitializeSession(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session != nil {
		return nil
	}
	if d.runner == nil {
		d.runner = runCommand
	}
	d.session = acquireSession()
	d.jobs = nil
	return nil
}

// Dispatch submits command via sbatch. With wait true it blocks until the
// job has left the queue. A submission rejection propagates directly.
func (d *Slurm) Dispatch(ctx context.Context, command string, wait bool) error {
	d.mu.Lock()
	if d.session == nil {
		d.mu.Unlock()
		return ErrNoSession
	}
	runner := d.runner
	d.mu.Unlock()

	args := append([]string{"--parsable"}, d.Options.args()...)
	args = append(args, "--wrap="+command)
	out, err := runner(ctx, "sbatch", args...)
	if err != nil {
		return fmt.Errorf("submitting job: %w", err)
	}
	jobID := parseJobID(out)
	if jobID == "" {
		return fmt.Errorf("submitting job: sbatch returned no job ID in %q", out)
	}

	d.mu.Lock()
	d.jobs = append(d.jobs, jobID)
	d.mu.Unlock()

	if wait {
		return d.waitJob(ctx, jobID)
	}
	return nil
}

// WaitAll blocks until every job submitted by this dispatcher has left the
// queue.
func (d *Slurm) WaitAll(ctx context.Context) error {
	d.mu.Lock()
	if d.session == nil {
		d.mu.Unlock()
		return ErrNoSession
	}
	jobs := make([]string, len(d.jobs))
	copy(jobs, d.jobs)
	d.mu.Unlock()

	for _, id := range jobs {
		if err := d.waitJob(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Close detaches from the shared session. Submitted jobs keep running under
// the scheduler.
func (d *Slurm) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	releaseSession(d.session)
	d.session = nil
	return nil
}

// waitJob polls squeue until the job is no longer listed.
func (d *Slurm) waitJob(ctx context.Context, jobID string) error {
	interval := d.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	d.mu.Lock()
	runner := d.runner
	d.mu.Unlock()
	for {
		out, err := runner(ctx, "squeue", "--noheader", "--jobs="+jobID)
		switch {
		case err != nil && strings.Contains(err.Error(), "Invalid job id"):
			return nil
		case err != nil:
			return fmt.Errorf("polling job %s: %w", jobID, err)
		case strings.TrimSpace(out) == "":
			return nil
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// parseJobID extracts the job ID from `sbatch --parsable` output, which is
// "<id>" or "<id>;<cluster>".
func parseJobID(out string) string {
	id := strings.TrimSpace(out)
	if i := strings.IndexByte(id, '\n'); i >= 0 {
		id = strings.TrimSpace(id[:i])
	}
	if i := strings.IndexByte(id, ';'); i >= 0 {
		id = id[:i]
	}
	return id
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		return "", fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return stdout.String(), nil
}
