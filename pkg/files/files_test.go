package files

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalWriteCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "sim_0", "input.conf")
	if err := (Local{}).Write(path, []byte("x = 1\n"), false); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "x = 1\n" {
		t.Errorf("file content = %q, want %q", got, "x = 1\n")
	}
}

func TestLocalOverwritePolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.conf")
	w := Local{}
	if err := w.Write(path, []byte("first"), false); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	err := w.Write(path, []byte("second"), false)
	if !errors.Is(err, ErrExists) {
		t.Fatalf("Write() over an existing file = %v, want ErrExists", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "first" {
		t.Errorf("refused write still changed the file to %q", got)
	}

	if err := w.Write(path, []byte("second"), true); err != nil {
		t.Fatalf("overwriting Write() error = %v", err)
	}
	got, _ = os.ReadFile(path)
	if string(got) != "second" {
		t.Errorf("file content = %q, want %q", got, "second")
	}
}

func TestLocalRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.conf")
	w := Local{}
	if err := w.Write(path, []byte("x"), false); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Remove(path); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Stat() after Remove = %v, want not-exist", err)
	}
	if err := w.Remove(path); err == nil {
		t.Error("Remove() of a missing file should fail")
	}
}
