package engine

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner hands a text to an engine and returns its JSON output.
type Runner interface {
	Run(ctx context.Context, text string) ([]byte, error)
}

// CommandRunner runs an external command with the text on stdin and reads
// the JSON document from stdout.
type CommandRunner struct {
	Path string
	Args []string
}

// NewCommandRunner checks that the command exists in PATH.
func NewCommandRunner(command []string) (*CommandRunner, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, &ConfigError{Field: "command", Message: "no engine command configured"}
	}

	path, err := exec.LookPath(command[0])
	if err != nil {
		return nil, &ConfigError{Field: "command", Message: fmt.Sprintf("%s not found in PATH", command[0])}
	}
	return &CommandRunner{Path: path, Args: command[1:]}, nil
}

// Run implements Runner. Cancelling ctx kills the command.
func (r *CommandRunner) Run(ctx context.Context, text string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.Path, r.Args...)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("engine command %s failed: %w: %s", r.Path, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// StaticRunner returns precomputed engine output, e.g. read from a file.
type StaticRunner []byte

// Run implements Runner.
func (s StaticRunner) Run(ctx context.Context, _ string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s, nil
}
