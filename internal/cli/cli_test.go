package cli_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calvinalkan/iterweak/internal/cli"
)

// CLI runs iterweak commands in a temp directory with a hermetic environment.
type CLI struct {
	t   *testing.T
	Dir string
	Env map[string]string
}

func NewCLI(t *testing.T) *CLI {
	t.Helper()

	return &CLI{
		t:   t,
		Dir: t.TempDir(),
		Env: map[string]string{"XDG_CONFIG_HOME": t.TempDir()},
	}
}

// Run executes the CLI with the given args and returns stdout, stderr and
// the exit code. "iterweak --cwd <dir>" is prepended.
func (c *CLI) Run(args ...string) (string, string, int) {
	return c.RunWithInput(nil, args...)
}

// RunWithInput is Run with stdin.
func (c *CLI) RunWithInput(stdin io.Reader, args ...string) (string, string, int) {
	var outBuf, errBuf bytes.Buffer

	fullArgs := append([]string{"iterweak", "--cwd", c.Dir}, args...)
	code := cli.Run(c.t.Context(), stdin, &outBuf, &errBuf, fullArgs, c.Env)

	return outBuf.String(), errBuf.String(), code
}

// MustRun fails the test if the command exits non-zero. Returns trimmed stdout.
func (c *CLI) MustRun(args ...string) string {
	c.t.Helper()

	stdout, stderr, code := c.Run(args...)
	if code != 0 {
		c.t.Fatalf("command %v failed with exit code %d\nstderr: %s", args, code, stderr)
	}

	return strings.TrimSpace(stdout)
}

// MustFail fails the test if the command succeeds. Returns trimmed stderr.
func (c *CLI) MustFail(args ...string) string {
	c.t.Helper()

	stdout, stderr, code := c.Run(args...)
	if code == 0 {
		c.t.Fatalf("command %v should have failed but succeeded\nstdout: %s", args, stdout)
	}

	return strings.TrimSpace(stderr)
}

// WriteFile writes content to a file relative to the CLI directory.
func (c *CLI) WriteFile(name, content string) string {
	c.t.Helper()

	path := filepath.Join(c.Dir, name)

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		c.t.Fatalf("failed to write %s: %v", name, err)
	}

	return path
}
