package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jinutvm/nanda-adapter-sdk/internal/config"
	"github.com/jinutvm/nanda-adapter-sdk/internal/errors"
	"github.com/jinutvm/nanda-adapter-sdk/internal/events"
	"github.com/jinutvm/nanda-adapter-sdk/internal/protocol"
	"github.com/jinutvm/nanda-adapter-sdk/internal/worker"
)

// shutdownSendTimeout bounds the best-effort shutdown command sent during Stop.
const shutdownSendTimeout = 2 * time.Second

// Controller supervises one worker process and exposes the command API.
//
// Controllers are restartable: after a crash or a stop, a fresh Start spawns
// a new worker. Event handler registrations survive restarts.
type Controller struct {
	events *events.Dispatcher

	mu            sync.Mutex
	log           *slog.Logger
	options       *config.Options
	state         State
	transport     config.Transport
	correlator    *protocol.Correlator
	exitErr       error
	stopRequested bool

	// Per-start lifecycle. Written only in Start before the read loop is
	// launched; the previous loop is always joined first.
	eg         *errgroup.Group
	readCancel context.CancelFunc
	ready      chan struct{}
	readyOnce  *sync.Once
	done       chan struct{}
}

// New creates a controller in the Stopped state.
func New() *Controller {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &Controller{
		log:    log,
		events: events.NewDispatcher(log),
		state:  StateStopped,
	}
}

// Start spawns the worker and waits for its ready signal.
//
// Returns a SpawnError if the worker cannot be launched, an InitTimeoutError
// if no ready signal arrives within the startup window (the spawned process
// is terminated first), or ErrAlreadyStarted if the bridge is not stopped.
func (c *Controller) Start(ctx context.Context, options *config.Options) error {
	c.mu.Lock()

	if c.state != StateStopped && c.state != StateCrashed {
		c.mu.Unlock()

		return errors.ErrAlreadyStarted
	}

	// Join the previous read loop before reusing per-start fields.
	if c.done != nil {
		<-c.done
	}

	if options == nil {
		options = &config.Options{}
	}

	log := options.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c.log = log.With("component", "bridge")
	c.options = options
	c.events.SetLogger(log)
	c.correlator = protocol.NewCorrelator(log, options.CommandTimeoutOrDefault())
	c.state = StateStarting
	c.exitErr = nil
	c.stopRequested = false

	transport := options.Transport
	if transport == nil {
		transport = worker.NewTransport(log, options)
	}

	c.transport = transport

	// The read loop must outlive the start context; the worker's lifetime
	// is bounded by Terminate, not by the caller's startup deadline.
	readCtx, cancel := context.WithCancel(context.Background())
	c.readCancel = cancel

	c.ready = make(chan struct{})
	c.readyOnce = &sync.Once{}
	c.done = make(chan struct{})
	c.eg, _ = errgroup.WithContext(readCtx)

	ready := c.ready
	done := c.done
	eg := c.eg
	initTimeout := options.InitTimeoutOrDefault()

	c.mu.Unlock()

	c.log.Info("Starting bridge")

	// Spawn outside the lock so State and Stop stay responsive while
	// interpreter discovery and process launch are in flight.
	if err := transport.Start(ctx); err != nil {
		close(done)
		cancel()

		c.mu.Lock()
		if c.state == StateStarting {
			c.state = StateStopped
		}
		c.mu.Unlock()

		return err
	}

	c.mu.Lock()

	if c.state != StateStarting {
		// Stop won the race during the spawn; the worker must not outlive it.
		c.mu.Unlock()

		_ = transport.Terminate()
		close(done)
		cancel()

		return errors.ErrBridgeStopped
	}

	messages, errs := transport.ReadMessages(readCtx)

	eg.Go(func() error {
		return c.readLoop(readCtx, messages, errs)
	})

	c.mu.Unlock()

	select {
	case <-ready:
		c.mu.Lock()

		if c.state != StateStarting {
			// Worker died between ready and now; exit path already ran.
			err := c.exitErr
			c.mu.Unlock()

			return err
		}

		c.state = StateRunning
		c.mu.Unlock()

		c.log.Info("Bridge running")

		return nil

	case <-done:
		// Worker exited before signalling ready.
		c.mu.Lock()
		err := c.exitErr
		stopped := c.stopRequested
		c.state = StateStopped
		c.mu.Unlock()

		cancel()

		if err == nil {
			if stopped {
				c.log.Debug("Start interrupted by stop")

				return errors.ErrBridgeStopped
			}

			err = &errors.SpawnError{Err: fmt.Errorf("worker exited before ready")}
		}

		c.log.Error("Worker exited during startup", "error", err)

		return err

	case <-time.After(initTimeout):
		c.log.Warn("No ready signal from worker, terminating", "init_timeout", initTimeout)

		_ = transport.Terminate()
		cancel()
		<-done

		c.mu.Lock()
		c.state = StateStopped
		c.mu.Unlock()

		return &errors.InitTimeoutError{Timeout: initTimeout}

	case <-ctx.Done():
		c.log.Debug("Start cancelled", "error", ctx.Err())

		_ = transport.Terminate()
		cancel()
		<-done

		c.mu.Lock()
		c.state = StateStopped
		c.mu.Unlock()

		return ctx.Err()
	}
}

// Execute sends a command to the worker and waits for its settlement.
//
// Allowed only while Running; otherwise fails immediately with ErrNotRunning
// without touching the correlator. The payload is validated against the
// command's schema before serialization. The pending entry is registered
// before the outbound write so a response racing the write is never missed.
func (c *Controller) Execute(ctx context.Context, command string, data map[string]any) (any, error) {
	c.mu.Lock()

	if c.state != StateRunning {
		c.mu.Unlock()

		return nil, errors.ErrNotRunning
	}

	transport := c.transport
	correlator := c.correlator

	c.mu.Unlock()

	if err := protocol.ValidateCommand(command, data); err != nil {
		return nil, &errors.ProtocolError{Command: command, Err: err}
	}

	id := ulid.Make().String()

	c.log.Debug("Executing command", "request_id", id, "command", command)

	settle := correlator.Register(id, command)

	payload, err := json.Marshal(protocol.NewRequest(id, command, data))
	if err != nil {
		perr := &errors.ProtocolError{Command: command, Err: err}
		correlator.Reject(id, perr)
		<-settle

		return nil, perr
	}

	if err := transport.SendMessage(ctx, payload); err != nil {
		sendErr := fmt.Errorf("send command %q: %w", command, err)
		correlator.Reject(id, sendErr)
		<-settle

		return nil, sendErr
	}

	select {
	case s := <-settle:
		return s.Result, s.Err

	case <-ctx.Done():
		// Detach the caller; a late response will be silently discarded.
		correlator.Reject(id, ctx.Err())

		return nil, ctx.Err()
	}
}

// Stop shuts the bridge down.
//
// Idempotent: a no-op when already stopped. A best-effort shutdown command
// is sent first (failure ignored), then the supervisor terminates the
// process, and the bridge is marked Stopped once it has exited. In-flight
// commands are rejected on exit via the correlator reset.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()

	switch c.state {
	case StateStopped, StateStopping:
		c.mu.Unlock()

		return nil

	case StateCrashed:
		// Worker already gone; nothing to terminate.
		c.state = StateStopped
		c.mu.Unlock()

		return nil

	case StateStarting, StateRunning:
	}

	c.state = StateStopping
	c.stopRequested = true
	transport := c.transport
	done := c.done
	cancel := c.readCancel
	eg := c.eg

	c.mu.Unlock()

	c.log.Info("Stopping bridge")

	c.sendShutdown(transport)

	_ = transport.Terminate()

	select {
	case <-done:
	case <-ctx.Done():
		cancel()

		return ctx.Err()
	}

	cancel()
	_ = eg.Wait()

	c.mu.Lock()
	c.state = StateStopped
	c.mu.Unlock()

	c.log.Info("Bridge stopped")

	return nil
}

// sendShutdown asks the worker to exit voluntarily. Failures are swallowed;
// forced termination proceeds regardless.
func (c *Controller) sendShutdown(transport config.Transport) {
	sctx, scancel := context.WithTimeout(context.Background(), shutdownSendTimeout)
	defer scancel()

	payload, err := json.Marshal(protocol.NewRequest(
		ulid.Make().String(), protocol.CmdShutdown, nil,
	))
	if err != nil {
		return
	}

	if err := transport.SendMessage(sctx, payload); err != nil {
		c.log.Debug("Best-effort shutdown command failed", "error", err)
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Pending returns the number of outstanding commands.
func (c *Controller) Pending() int {
	c.mu.Lock()
	correlator := c.correlator
	c.mu.Unlock()

	if correlator == nil {
		return 0
	}

	return correlator.Pending()
}

// OnEvent registers a handler for a named worker event.
func (c *Controller) OnEvent(name string, fn events.Handler) events.Subscription {
	return c.events.On(name, fn)
}

// OffEvent removes a previously registered event handler.
func (c *Controller) OffEvent(sub events.Subscription) {
	c.events.Off(sub)
}

// readLoop is the single reader of the worker's output. It routes parsed
// messages and handles process exit.
func (c *Controller) readLoop(
	ctx context.Context,
	messages <-chan map[string]any,
	errs <-chan error,
) error {
	defer close(c.done)
	defer c.log.Debug("Read loop stopped")

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				// The error channel closes just before the message channel,
				// so a buffered exit error may still be waiting there; the
				// select picks ready cases uniformly and can land here first.
				var exitErr error
				if errs != nil {
					exitErr = <-errs
				}

				c.handleExit(exitErr)

				return exitErr
			}

			c.handleMessage(msg)

		case err, ok := <-errs:
			if !ok {
				// Error channel closes just before the message channel;
				// keep draining messages until it closes too.
				errs = nil

				continue
			}

			if err != nil {
				c.handleExit(err)

				return err
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handleMessage routes one inbound message.
func (c *Controller) handleMessage(msg map[string]any) {
	if protocol.IsReady(msg) {
		c.log.Info("Worker ready", "message", protocol.ReadyMessage(msg))
		c.readyOnce.Do(func() {
			close(c.ready)
		})

		return
	}

	if resp, ok := protocol.ParseResponse(msg); ok {
		c.correlator.Settle(resp)

		return
	}

	if ev, ok := protocol.ParseEvent(msg); ok {
		c.log.Debug("Dispatching event", "event", ev.Name)
		c.events.Dispatch(ev.Name, ev.Data)

		return
	}

	c.log.Debug("Ignoring unrecognized message", "message", msg)
}

// handleExit records the process exit, moves the state machine, and rejects
// every pending command.
func (c *Controller) handleExit(exitErr error) {
	c.mu.Lock()

	prev := c.state

	switch prev {
	case StateStopping:
		c.state = StateStopped
	case StateRunning:
		c.state = StateCrashed
	case StateStarting:
		c.state = StateStopped
	case StateStopped, StateCrashed:
	}

	// A clean exit while Running is still unexpected.
	if exitErr == nil && prev == StateRunning {
		exitErr = &errors.ProcessExitError{ExitCode: 0}
	}

	c.exitErr = exitErr
	correlator := c.correlator

	c.mu.Unlock()

	cause := exitErr
	if cause == nil {
		cause = errors.ErrBridgeStopped
	}

	if prev == StateRunning {
		c.log.Error("Worker exited unexpectedly", "error", exitErr)
	} else {
		c.log.Debug("Worker exited", "state", prev.String())
	}

	correlator.ResetAll(cause)
}
