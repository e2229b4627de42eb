package commands

import (
	"bytes"
	"context"
	"testing"
)

// execute runs the root command with args and captures its output. Every
// call rebuilds the command tree, so persistent flag state never leaks
// between tests.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	root := newRootCommand("test", "none", "unknown")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCommandVersion(t *testing.T) {
	out, _, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("--version error = %v", err)
	}
	if want := "test (commit: none, built: unknown)"; !bytes.Contains([]byte(out), []byte(want)) {
		t.Errorf("version output %q does not contain %q", out, want)
	}
}

func TestRootCommandUnknownSubcommand(t *testing.T) {
	if _, _, err := execute(t, "frobnicate"); err == nil {
		t.Fatal("unknown subcommand should fail")
	}
}
