// Package procrunner wraps external-process invocation for the
// subprocesses the pipeline shells out to (spec A6: cvs, svnadmin,
// rcs/co for delta extraction, and a live `svnadmin load` target).
//
// Grounded directly in the teacher's runProcess/readFromProcess/
// writeToProcess trio (surgeon/reposurgeon.go ~8300-8365): same
// shlex-split-then-exec.Command shape, same "pass back cmd so the caller
// can Wait and get the error status" discipline, generalized to capture
// stderr into a buffer instead of redirecting it to os.Stderr, since a
// long batch conversion should attribute a subprocess's complaints to the
// operation that triggered it rather than interleaving them with the
// main log.
//
// SPDX-License-Identifier: BSD-2-Clause
package procrunner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"

	shlex "github.com/anmitsu/go-shlex"
)

// Result captures a finished subprocess's stdout and stderr.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Run executes command (shell-split with anmitsu/go-shlex, same splitter
// the teacher uses for its own command lines) to completion, capturing
// both streams.
func Run(ctx context.Context, command string) (Result, error) {
	words, err := shlex.Split(command, true)
	if err != nil {
		return Result{}, fmt.Errorf("procrunner: splitting %q: %w", command, err)
	}
	if len(words) == 0 {
		return Result{}, fmt.Errorf("procrunner: empty command")
	}
	cmd := exec.CommandContext(ctx, words[0], words[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()},
			fmt.Errorf("procrunner: running %q: %w: %s", command, err, stderr.String())
	}
	return Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
}

// Sink is a long-running subprocess fed incrementally on stdin, such as
// `svnadmin load`. Grounded in writeToProcess's "pass back cmd so we can
// call Wait on it" pattern, wrapped so the caller cannot forget to close
// stdin before waiting (a live svnadmin load blocks forever otherwise).
type Sink struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *bytes.Buffer
}

// StartSink launches command with its stdin piped for writing.
func StartSink(ctx context.Context, command string) (*Sink, error) {
	words, err := shlex.Split(command, true)
	if err != nil {
		return nil, fmt.Errorf("procrunner: splitting %q: %w", command, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("procrunner: empty command")
	}
	cmd := exec.CommandContext(ctx, words[0], words[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("procrunner: opening stdin for %q: %w", command, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("procrunner: starting %q: %w", command, err)
	}
	return &Sink{cmd: cmd, stdin: stdin, stderr: &stderr}, nil
}

// Write feeds p to the subprocess's stdin.
func (s *Sink) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

// Close closes the subprocess's stdin, then waits for it to exit,
// returning its captured stderr on failure. Stdin must be closed before
// Wait or a reader like `svnadmin load` never sees EOF.
func (s *Sink) Close() error {
	if err := s.stdin.Close(); err != nil {
		return fmt.Errorf("procrunner: closing stdin: %w", err)
	}
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("procrunner: %w: %s", err, s.stderr.String())
	}
	return nil
}

// Source is a long-running subprocess whose stdout is read incrementally,
// such as `cvs -d ... rlog`. Mirrors readFromProcess's shape.
type Source struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
}

// StartSource launches command with its stdout piped for reading.
func StartSource(ctx context.Context, command string) (*Source, error) {
	words, err := shlex.Split(command, true)
	if err != nil {
		return nil, fmt.Errorf("procrunner: splitting %q: %w", command, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("procrunner: empty command")
	}
	cmd := exec.CommandContext(ctx, words[0], words[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("procrunner: opening stdout for %q: %w", command, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("procrunner: starting %q: %w", command, err)
	}
	return &Source{cmd: cmd, stdout: stdout, stderr: &stderr}, nil
}

// Read satisfies io.Reader, streaming the subprocess's stdout.
func (s *Source) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

// Wait waits for the subprocess to exit after its stdout has been fully
// drained, returning its captured stderr on failure.
func (s *Source) Wait() error {
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("procrunner: %w: %s", err, s.stderr.String())
	}
	return nil
}
