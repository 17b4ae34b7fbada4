package worker

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jinutvm/nanda-adapter-sdk/internal/config"
	"github.com/jinutvm/nanda-adapter-sdk/internal/errors"
)

const (
	// maxScanTokenSize is the maximum buffer size for reading worker output lines.
	maxScanTokenSize = 1024 * 1024 // 1MB

	// maxStderrBufferSize caps the stderr buffer kept for error reporting.
	// The callback still receives every line; only the buffer stops growing.
	maxStderrBufferSize = 10 * 1024 * 1024 // 10MB

	// terminateGrace is how long Terminate waits after the graceful signal
	// before escalating to a forced kill.
	terminateGrace = 5 * time.Second
)

// DefaultScriptPath is the bundled worker script, relative to the working
// directory.
const DefaultScriptPath = "python/bridge_wrapper.py"

// Transport implements config.Transport by spawning the Python bridge script
// as a subprocess. The transport exclusively owns the worker's standard
// streams.
type Transport struct {
	log     *slog.Logger
	options *config.Options

	pythonPath string
	scriptPath string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	mu          sync.Mutex // protects stdin writes and lifecycle flags
	stdinClosed bool
	terminating bool

	// exited is closed once the process has been reaped by the read loop.
	exited chan struct{}
}

// Compile-time verification that Transport implements config.Transport.
var _ config.Transport = (*Transport)(nil)

// NewTransport creates a worker transport from options. Interpreter
// discovery is deferred to Start.
func NewTransport(log *slog.Logger, options *config.Options) *Transport {
	return &Transport{
		log:     log.With("component", "worker_transport"),
		options: options,
	}
}

// Start spawns the worker subprocess with stdin, stdout, and stderr
// connected as pipes.
//
// Returns a SpawnError if the interpreter or the bridge script cannot be
// located, or if the process fails to launch.
func (t *Transport) Start(ctx context.Context) error {
	t.log.Info("Starting bridge worker subprocess")

	pythonPath, err := DiscoverInterpreter(t.log, t.options.PythonPath)
	if err != nil {
		return err
	}

	t.pythonPath = pythonPath

	t.scriptPath = t.options.ScriptPath
	if t.scriptPath == "" {
		t.scriptPath = DefaultScriptPath
	}

	if _, err := os.Stat(t.scriptPath); err != nil {
		t.log.Error("Bridge script not found", "script_path", t.scriptPath)

		return &errors.SpawnError{Err: fmt.Errorf("bridge script %s: %w", t.scriptPath, err)}
	}

	// Not CommandContext: the worker must outlive the start context, its
	// lifetime is bounded by Terminate.
	//nolint:gosec // G204: spawning a configured interpreter is the point of this transport
	cmd := exec.Command(t.pythonPath, "-u", t.scriptPath)
	cmd.Dir = t.options.Cwd
	cmd.Env = buildEnvironment(t.options.Env)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &errors.SpawnError{Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	t.stdin = stdin

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &errors.SpawnError{Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	t.stdout = stdout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &errors.SpawnError{Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	t.stderr = stderr

	if err := cmd.Start(); err != nil {
		t.log.Error("Failed to start worker process", "error", err)

		return &errors.SpawnError{Err: fmt.Errorf("start process: %w", err)}
	}

	t.cmd = cmd
	t.exited = make(chan struct{})
	t.log.Info("Bridge worker started", "pid", cmd.Process.Pid, "script", t.scriptPath)

	return nil
}

// ReadMessages reads protocol messages from the worker's stdout.
//
// A goroutine scans line-delimited output. Lines that parse as JSON objects
// are delivered on the message channel; anything else is non-protocol
// diagnostic output, forwarded to the Diagnostics callback and otherwise
// discarded. Diagnostic lines never halt the loop.
//
// When the process exits, the goroutine reaps it. An unexpected exit is
// reported on the error channel as a ProcessExitError carrying the exit
// code, terminating signal, and captured stderr. Both channels are closed
// when reading completes.
func (t *Transport) ReadMessages(ctx context.Context) (<-chan map[string]any, <-chan error) {
	messages := make(chan map[string]any)
	errs := make(chan error, 1)

	var stderrWg sync.WaitGroup

	var stderrBuffer strings.Builder

	var stderrMu sync.Mutex

	// Stderr must be drained before Wait(), see os/exec docs.
	stderrWg.Go(func() {
		scanner := bufio.NewScanner(t.stderr)
		for scanner.Scan() {
			line := scanner.Text()

			stderrMu.Lock()

			if stderrBuffer.Len() < maxStderrBufferSize {
				if stderrBuffer.Len() > 0 {
					stderrBuffer.WriteString("\n")
				}

				stderrBuffer.WriteString(line)
			}

			stderrMu.Unlock()

			t.log.Debug("Worker stderr", "line", line)

			if t.options.Stderr != nil {
				t.options.Stderr(line)
			}
		}

		if err := scanner.Err(); err != nil {
			t.log.Debug("Stderr scanner error", "error", err)
		}
	})

	go func() {
		defer close(messages)
		defer close(errs)
		defer t.log.Debug("ReadMessages goroutine stopped")

		scanner := bufio.NewScanner(t.stdout)
		buf := make([]byte, maxScanTokenSize)
		scanner.Buffer(buf, maxScanTokenSize)

		if err := scanProtocolLines(ctx, scanner, func(msg map[string]any) bool {
			select {
			case messages <- msg:
				return true
			case <-ctx.Done():
				return false
			}
		}, t.forwardDiagnostic); err != nil {
			t.log.Debug("Stdout scanner error", "error", err)
		}

		stderrWg.Wait()

		t.log.Debug("Waiting for worker process to exit")

		err := t.cmd.Wait()

		t.mu.Lock()
		terminating := t.terminating
		t.mu.Unlock()

		close(t.exited)

		if terminating {
			t.log.Debug("Worker terminated during shutdown")

			return
		}

		if err != nil {
			stderrMu.Lock()
			stderrOutput := stderrBuffer.String()
			stderrMu.Unlock()

			exitErr := exitError(err, stderrOutput)
			t.log.Error("Worker process exited unexpectedly",
				"exit_code", exitErr.ExitCode,
				"signal", exitErr.Signal,
			)

			errs <- exitErr
		} else {
			t.log.Info("Worker process exited cleanly")
		}
	}()

	return messages, errs
}

// scanProtocolLines splits the stream into lines and decodes each protocol
// line into a message. emit returns false to stop scanning. Non-protocol
// lines go to diag.
func scanProtocolLines(
	ctx context.Context,
	scanner *bufio.Scanner,
	emit func(map[string]any) bool,
	diag func(string),
) error {
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// Cheap classification before a full decode: protocol messages are
		// single JSON objects, everything else is diagnostic text.
		if !gjson.Valid(line) || !gjson.Parse(line).IsObject() {
			diag(line)

			continue
		}

		var msg map[string]any

		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			diag(line)

			continue
		}

		if !emit(msg) {
			return nil
		}
	}

	return scanner.Err()
}

// forwardDiagnostic surfaces a non-protocol stdout line.
func (t *Transport) forwardDiagnostic(line string) {
	t.log.Debug("Non-protocol output from worker", "line", line)

	if t.options.Diagnostics != nil {
		t.options.Diagnostics(line)
	}
}

// SendMessage writes one message to the worker's stdin as a single atomic
// write, appending the newline delimiter if missing.
//
// Safe for concurrent use. If the context is cancelled during a blocked
// write, stdin is closed to unblock it; subsequent calls return ErrStdinClosed.
func (t *Transport) SendMessage(ctx context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stdin == nil {
		return errors.ErrTransportNotConnected
	}

	if t.stdinClosed {
		return errors.ErrStdinClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Copy rather than append so a caller's backing array is never mutated.
	if len(data) == 0 || data[len(data)-1] != '\n' {
		framed := make([]byte, len(data)+1)
		copy(framed, data)
		framed[len(data)] = '\n'
		data = framed
	}

	done := make(chan error, 1)

	go func() {
		_, err := t.stdin.Write(data)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.log.Error("Failed to write to worker stdin", "error", err)

			return fmt.Errorf("write to stdin: %w", err)
		}

		return nil

	case <-ctx.Done():
		t.log.Debug("Context cancelled during write, closing stdin")

		_ = t.stdin.Close()
		t.stdinClosed = true

		select {
		case <-done:
		case <-time.After(1 * time.Second):
			t.log.Warn("Write goroutine did not exit after stdin close")
		}

		return ctx.Err()
	}
}

// IsReady reports whether the worker process is running and stdin is open.
func (t *Transport) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.cmd != nil && t.cmd.Process != nil && t.stdin != nil && !t.stdinClosed
}

// Terminate sends the worker a graceful termination signal and escalates to
// a forced kill if it has not exited within the grace period.
//
// Safe to call multiple times and on an already-exited process; repeat calls
// issue no duplicate signal.
func (t *Transport) Terminate() error {
	t.mu.Lock()

	if t.cmd == nil || t.cmd.Process == nil || t.terminating {
		t.mu.Unlock()

		return nil
	}

	t.terminating = true
	t.stdinClosed = true

	if t.stdin != nil {
		_ = t.stdin.Close()
	}

	proc := t.cmd.Process
	exited := t.exited

	t.mu.Unlock()

	if exited != nil {
		select {
		case <-exited:
			return nil
		default:
		}
	}

	t.log.Debug("Sending termination signal to worker", "pid", proc.Pid)

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if stderrors.Is(err, os.ErrProcessDone) {
			return nil
		}

		t.log.Debug("Termination signal failed, killing", "error", err)

		return t.kill(proc)
	}

	if exited == nil {
		// ReadMessages was never started, so nothing will reap the process.
		if err := t.kill(proc); err != nil {
			return err
		}

		_ = t.cmd.Wait()

		return nil
	}

	select {
	case <-exited:
		return nil
	case <-time.After(terminateGrace):
	}

	t.log.Warn("Worker did not exit within grace period, killing", "pid", proc.Pid)

	return t.kill(proc)
}

// kill forcefully terminates the worker process.
func (t *Transport) kill(proc *os.Process) error {
	if err := proc.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill worker process (pid %d): %w", proc.Pid, err)
	}

	return nil
}

// exitError builds a ProcessExitError from a Wait error.
func exitError(err error, stderr string) *errors.ProcessExitError {
	exitErr, ok := stderrors.AsType[*exec.ExitError](err)
	if !ok {
		return &errors.ProcessExitError{ExitCode: -1, Stderr: stderr, Err: err}
	}

	signal := ""

	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		signal = ws.Signal().String()
	}

	return &errors.ProcessExitError{
		ExitCode: exitErr.ExitCode(),
		Signal:   signal,
		Stderr:   stderr,
		Err:      err,
	}
}

// buildEnvironment merges extra variables over the parent environment.
func buildEnvironment(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}

	return env
}
