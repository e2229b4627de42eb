package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
)

func TestSSHBeforeInit(t *testing.T) {
	d := NewSSH(nil)
	if err := d.Dispatch(context.Background(), "true", false); !errors.Is(err, ErrNoSession) {
		t.Errorf("Dispatch() before init = %v, want ErrNoSession", err)
	}
	if err := d.WaitAll(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("WaitAll() before init = %v, want ErrNoSession", err)
	}
}

func TestSSHRunsCommands(t *testing.T) {
	var mu sync.Mutex
	var ran []string
	d := NewSSH(nil)
	d.runner = func(ctx context.Context, command string) error {
		mu.Lock()
		defer mu.Unlock()
		ran = append(ran, command)
		return nil
	}
	ctx := context.Background()
	if err := d.InitializeSession(ctx); err != nil {
		t.Fatalf("InitializeSession() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := d.Dispatch(ctx, fmt.Sprintf("./sim %d", i), false); err != nil {
			t.Fatalf("Dispatch() %d error = %v", i, err)
		}
	}
	if err := d.WaitAll(ctx); err != nil {
		t.Fatalf("WaitAll() error = %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	sort.Strings(ran)
	want := []string{"./sim 0", "./sim 1", "./sim 2"}
	for i := range want {
		if i >= len(ran) || ran[i] != want[i] {
			t.Fatalf("ran = %v, want %v", ran, want)
		}
	}
}

func TestSSHSerialError(t *testing.T) {
	d := NewSSH(nil)
	d.runner = func(ctx context.Context, command string) error {
		return fmt.Errorf("running %q: session open failed", command)
	}
	ctx := context.Background()
	if err := d.InitializeSession(ctx); err != nil {
		t.Fatalf("InitializeSession() error = %v", err)
	}
	defer d.Close()

	err := d.Dispatch(ctx, "./sim 0", true)
	if err == nil || !strings.Contains(err.Error(), "session open failed") {
		t.Errorf("serial Dispatch() = %v, want the transport error", err)
	}
}

func TestSSHBoundedSessions(t *testing.T) {
	var mu sync.Mutex
	active, maxActive := 0, 0
	release := make(chan struct{})

	d := NewSSH(nil)
	d.MaxSessions = 1
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
		mu.Unlock()
		return nil
	}
	ctx := context.Background()
	if err := d.InitializeSession(ctx); err != nil {
		t.Fatalf("InitializeSession() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := d.Dispatch(ctx, fmt.Sprintf("./sim %d", i), false); err != nil {
			t.Fatalf("Dispatch() %d error = %v", i, err)
		}
	}
	eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return active == 1
	}, "no session became active")
	close(release)
	if err := d.WaitAll(ctx); err != nil {
		t.Fatalf("WaitAll() error = %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if maxActive != 1 {
		t.Errorf("max concurrent sessions = %d, want 1", maxActive)
	}
}

func TestSSHCloseResetsSession(t *testing.T) {
	d := NewSSH(nil)
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
}
