package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestLocalBeforeInit(t *testing.T) {
	d := NewLocal(1)
	if err := d.Dispatch(context.Background(), "true", false); !errors.Is(err, ErrNoSession) {
		t.Errorf("Dispatch() before init = %v, want ErrNoSession", err)
	}
	if err := d.WaitAll(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("WaitAll() before init = %v, want ErrNoSession", err)
	}
}

func TestLocalSerialWaits(t *testing.T) {
	d := NewLocal(2)
	var finished bool
	d.runner = func(ctx context.Context, command string) error {
		time.Sleep(10 * time.Millisecond)
		finished = true
		return nil
	}
	ctx := context.Background()
	if err := d.InitializeSession(ctx); err != nil {
		t.Fatalf("InitializeSession() error = %v", err)
	}
	defer d.Close()

	if err := d.Dispatch(ctx, "./sim 0", true); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !finished {
		t.Error("serial Dispatch() returned before the job finished")
	}
}

func TestLocalSerialError(t *testing.T) {
	d := NewLocal(1)
	d.runner = func(ctx context.Context, command string) error {
		return fmt.Errorf("starting %q: boom", command)
	}
	ctx := context.Background()
	if err := d.InitializeSession(ctx); err != nil {
		t.Fatalf("InitializeSession() error = %v", err)
	}
	defer d.Close()

	err := d.Dispatch(ctx, "./sim 0", true)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("serial Dispatch() = %v, want the runner error", err)
	}
}

func TestLocalBoundedConcurrency(t *testing.T) {
	const procs, jobs = 2, 5

	var mu sync.Mutex
	active, maxActive, total := 0, 0, 0
	release := make(chan struct{})

	d := NewLocal(procs)
	d.runner = func(ctx context.Context, command string) error {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		<-release
		mu.Lock()
		active--
		total++
		mu.Unlock()
		return nil
	}
	ctx := context.Background()
	if err := d.InitializeSession(ctx); err != nil {
		t.Fatalf("InitializeSession() error = %v", err)
	}

	for i := 0; i < jobs; i++ {
		if err := d.Dispatch(ctx, fmt.Sprintf("./sim %d", i), false); err != nil {
			t.Fatalf("Dispatch() %d error = %v", i, err)
		}
	}
	eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return active == procs
	}, "pool never filled its slots")

	// Give a queued job a chance to break the bound before releasing.
	time.Sleep(20 * time.Millisecond)
	close(release)
	if err := d.WaitAll(ctx); err != nil {
		t.Fatalf("WaitAll() error = %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if total != jobs {
		t.Errorf("ran %d jobs, want %d", total, jobs)
	}
	if maxActive != procs {
		t.Errorf("max concurrent jobs = %d, want %d", maxActive, procs)
	}
}

func TestLocalWaitAllCollectsErrors(t *testing.T) {
	d := NewLocal(2)
	d.runner = func(ctx context.Context, command string) error {
		if strings.Contains(command, "bad") {
			return fmt.Errorf("starting %q: no such file", command)
		}
		return nil
	}
	ctx := context.Background()
	if err := d.InitializeSession(ctx); err != nil {
		t.Fatalf("InitializeSession() error = %v", err)
	}
	defer d.Close()

	for _, cmd := range []string{"./sim good", "./sim bad", "./sim good"} {
		if err := d.Dispatch(ctx, cmd, false); err != nil {
			t.Fatalf("Dispatch(%q) error = %v", cmd, err)
		}
	}
	err := d.WaitAll(ctx)
	if err == nil || !strings.Contains(err.Error(), "no such file") {
		t.Errorf("WaitAll() = %v, want the collected start failure", err)
	}
}

func TestLocalCancelAbandonsQueued(t *testing.T) {
	d := NewLocal(1)
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	d.runner = func(ctx context.Context, command string) error {
		entered <- struct{}{}
		<-release
		return nil
	}
	if err := d.InitializeSession(context.Background()); err != nil {
		t.Fatalf("InitializeSession() error = %v", err)
	}
	p := d.pool

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Dispatch(ctx, "./sim 0", false); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	<-entered
	// Queued behind the held slot.
	if err := d.Dispatch(ctx, "./sim 1", false); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	cancel()
	eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return len(p.errs) == 1
	}, "queued submission was not abandoned")
	close(release)

	err := d.WaitAll(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("WaitAll() = %v, want the abandoned submission's context error", err)
	}
	_ = d.Close()
}

func TestLocalCloseReleasesSession(t *testing.T) {
	d := NewLocal(1)
	d.runner = func(ctx context.Context, command string) error { return nil }
	ctx := context.Background()
	if err := d.InitializeSession(ctx); err != nil {
		t.Fatalf("InitializeSession() error = %v", err)
	}
	if err := d.Dispatch(ctx, "./sim 0", false); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := d.Dispatch(ctx, "./sim 1", false); !errors.Is(err, ErrNoSession) {
		t.Errorf("Dispatch() after Close = %v, want ErrNoSession", err)
	}

	// A closed dispatcher can serve another sweep.
	if err := d.InitializeSession(ctx); err != nil {
		t.Fatalf("InitializeSession() after Close error = %v", err)
	}
	if err := d.Dispatch(ctx, "./sim 1", true); err != nil {
		t.Errorf("Dispatch() after re-init error = %v", err)
	}
	_ = d.Close()
}
