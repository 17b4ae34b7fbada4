package protocol

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jinutvm/nanda-adapter-sdk/internal/errors"
)

// Settlement is the single outcome of a pending request.
// Exactly one of Result and Err is meaningful.
type Settlement struct {
	Result any
	Err    error
}

// pendingRequest tracks an outgoing request awaiting response.
type pendingRequest struct {
	command  string
	settle   chan Settlement
	timer    *time.Timer
	issuedAt time.Time
}

// Correlator tracks outstanding requests by correlation id.
//
// Each registered request settles exactly once: by response delivery, by
// timeout, by a failed send, or by a bridge reset. Ownership of an entry is
// decided by its removal from the pending map under the lock; whoever removes
// it delivers the settlement. Late or duplicate responses find no entry and
// are silently dropped.
type Correlator struct {
	log     *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*pendingRequest
}

// NewCorrelator creates a correlator with the given per-request timeout.
func NewCorrelator(log *slog.Logger, timeout time.Duration) *Correlator {
	return &Correlator{
		log:     log.With("component", "correlator"),
		timeout: timeout,
		pending: make(map[string]*pendingRequest, 10),
	}
}

// Register tracks a new outbound request and returns the channel its
// settlement will be delivered on. Register must be called before the
// outbound write is attempted, so a response racing the write is never
// missed. Correlation id uniqueness is a caller precondition.
func (c *Correlator) Register(id, command string) <-chan Settlement {
	p := &pendingRequest{
		command:  command,
		settle:   make(chan Settlement, 1),
		issuedAt: time.Now(),
	}

	p.timer = time.AfterFunc(c.timeout, func() {
		c.expire(id)
	})

	c.mu.Lock()
	c.pending[id] = p
	c.mu.Unlock()

	c.log.Debug("Registered pending request", "request_id", id, "command", command)

	return p.settle
}

// Reject settles a pending request with an error, bypassing its timer.
// Used when the outbound write fails or the caller abandons the request;
// no orphaned entry survives. Unknown ids are ignored.
func (c *Correlator) Reject(id string, err error) {
	p, ok := c.remove(id)
	if !ok {
		return
	}

	c.log.Debug("Rejected pending request", "request_id", id, "command", p.command, "error", err)

	p.settle <- Settlement{Err: err}
}

// Settle delivers a response to its pending request. Returns false when the
// id is no longer tracked (already timed out, or bridge reset); the response
// is dropped without error.
func (c *Correlator) Settle(resp *Response) bool {
	p, ok := c.remove(resp.ID)
	if !ok {
		c.log.Debug("Dropping response for unknown request", "request_id", resp.ID)

		return false
	}

	if resp.IsError() {
		c.log.Debug("Request settled with error",
			"request_id", resp.ID,
			"command", p.command,
			"error", resp.Error,
		)

		p.settle <- Settlement{Err: &errors.CommandFailedError{
			Command: p.command,
			Message: resp.Error,
		}}

		return true
	}

	c.log.Debug("Request settled",
		"request_id", resp.ID,
		"command", p.command,
		"elapsed", time.Since(p.issuedAt),
	)

	p.settle <- Settlement{Result: resp.Result}

	return true
}

// ResetAll rejects every currently pending request, bypassing individual
// timers. Used on crash or stop.
func (c *Correlator) ResetAll(cause error) {
	c.mu.Lock()

	drained := c.pending
	c.pending = make(map[string]*pendingRequest, 10)

	c.mu.Unlock()

	if len(drained) == 0 {
		return
	}

	c.log.Debug("Rejecting all pending requests", "count", len(drained), "cause", cause)

	for _, p := range drained {
		p.timer.Stop()
		p.settle <- Settlement{Err: &errors.ProcessTerminatedError{Cause: cause}}
	}
}

// Pending returns the number of outstanding requests.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}

// expire is the timer callback: it removes the entry and rejects with a
// timeout error. If the entry was settled first, the removal fails and the
// callback is a no-op.
func (c *Correlator) expire(id string) {
	p, ok := c.remove(id)
	if !ok {
		return
	}

	c.log.Warn("Request timed out", "request_id", id, "command", p.command, "timeout", c.timeout)

	p.settle <- Settlement{Err: &errors.CommandTimeoutError{
		Command: p.command,
		Timeout: c.timeout,
	}}
}

// remove claims a pending entry atomically and cancels its timer.
func (c *Correlator) remove(id string) (*pendingRequest, bool) {
	c.mu.Lock()

	p, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}

	c.mu.Unlock()

	if !ok {
		return nil, false
	}

	p.timer.Stop()

	return p, true
}
