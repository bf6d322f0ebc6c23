// Package queue is the concurrency surface spec §4.F describes: a FIFO
// command queue that marshals requests from auxiliary-thread producers
// (network transports, the AI agent tool — neither wired here, spec §1
// keeps them out of scope) onto the single workspace thread that owns
// an engine.Session. There is no teacher analogue (the teacher is a
// one-shot CLI with a single goroutine); the mutex+condition-variable
// shape is taken directly from spec §5's "PendingCommand{input, result,
// completed, mutex, cv}" description, expressed with sync.Cond, Go's
// idiomatic condition variable.
package queue

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allthingsida/idasql/internal/workspace/errs"
)

// interruptPollInterval bounds how long RunUntilStopped can sit idle
// before re-checking q.interrupt even with no new Submit/Stop to wake
// it naturally. Mirrors the reference implementation's
// run_until_stopped(), which waits on its condition variable with
// wait_for(lock, 100ms, predicate) rather than an unbounded wait.
const interruptPollInterval = 100 * time.Millisecond

// Kind distinguishes a plain SQL query from a natural-language "ask"
// routed to an external agent (spec §4.F command protocol); idasql
// itself only ever handles Query, Ask is a reserved slot for an
// embedding host.
type Kind int

const (
	Query Kind = iota
	Ask
)

// Command is what a producer submits (spec §6 "Command queue protocol:
// a command is {kind, input}"). ID correlates a Command with its
// Response across the queue boundary; Submit fills in a fresh one when
// left blank, following the same uuid.NewString() pattern the teacher
// corpus uses for session ids.
type Command struct {
	ID    string
	Kind  Kind
	Input string
}

// Response is what RunUntilStopped's handler returns for a Command
// (spec §6 "response is {success, payload}"). ID echoes the originating
// Command's ID so a producer multiplexing several in-flight commands
// can match replies without relying on call order.
type Response struct {
	ID      string
	Success bool
	Payload string
}

// interruptedResponse is what every command still queued at Stop (or
// Submit after Stop) sees back.
func interruptedResponse() Response {
	return Response{Success: false, Payload: errs.New("queue.dispatch", errs.Interrupted, nil).Error()}
}

// pendingCommand pairs a Command with the condition variable its
// producer waits on (spec §5 "PendingCommand{input, result, completed,
// mutex, cv}").
type pendingCommand struct {
	cmd Command

	mu        sync.Mutex
	cv        *sync.Cond
	result    Response
	completed bool
}

func newPendingCommand(cmd Command) *pendingCommand {
	p := &pendingCommand{cmd: cmd}
	p.cv = sync.NewCond(&p.mu)
	return p
}

func (p *pendingCommand) wait() Response {
	p.mu.Lock()
	defer p.mu.Unlock()
	for !p.completed {
		p.cv.Wait()
	}
	return p.result
}

func (p *pendingCommand) complete(r Response) {
	p.mu.Lock()
	p.result = r
	p.completed = true
	p.mu.Unlock()
	p.cv.Signal()
}

// Queue is the only shared state crossing the workspace-thread boundary
// (spec §5 "the command queue itself is the only shared state"). The
// zero value is not usable; construct with New.
type Queue struct {
	mu        sync.Mutex
	cv        *sync.Cond
	pending   []*pendingCommand
	stopped   bool
	interrupt func() bool
}

// New constructs an empty, running queue.
func New() *Queue {
	q := &Queue{}
	q.cv = sync.NewCond(&q.mu)
	return q
}

// SetInterruptCheck installs the predicate RunUntilStopped polls
// between commands (spec §5 "set_interrupt_check predicate invoked
// periodically by the workspace-thread loop"). A nil predicate (the
// default) means cancellation only ever happens via Stop.
func (q *Queue) SetInterruptCheck(fn func() bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.interrupt = fn
}

// Submit enqueues cmd and blocks until the workspace thread completes
// it or the queue stops (spec §5 "cross-thread requests ... push a
// PendingCommand onto a FIFO ... the producer waits on the condition
// variable"). Safe to call from any goroutine.
func (q *Queue) Submit(cmd Command) Response {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}

	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		r := interruptedResponse()
		r.ID = cmd.ID
		return r
	}
	p := newPendingCommand(cmd)
	q.pending = append(q.pending, p)
	q.mu.Unlock()
	q.cv.Signal()

	return p.wait()
}

// RunUntilStopped is the workspace-thread loop (spec §5 "the workspace
// thread dequeues in a loop (run_until_stopped), executes the request
// ... stores the serialized result, sets completed, and signals the
// condition variable"). handler runs on the calling goroutine only —
// it is the one place the workspace (an engine.Session, typically) is
// ever touched, preserving the single-workspace-thread invariant (spec
// §5). RunUntilStopped returns once Stop is called or interrupt fires,
// after draining every still-pending command with InterruptedError.
// The interrupt predicate is also re-checked on interruptPollInterval
// even while the queue sits idle, so a predicate that trips with no
// command in flight still gets observed instead of blocking forever.
func (q *Queue) RunUntilStopped(handler func(Command) Response) {
	done := make(chan struct{})
	defer close(done)
	go q.pollInterrupt(done)

	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.stopped && (q.interrupt == nil || !q.interrupt()) {
			q.cv.Wait()
		}
		if q.stopped {
			q.drainLocked()
			q.mu.Unlock()
			return
		}
		if q.interrupt != nil && q.interrupt() {
			q.stopped = true
			q.drainLocked()
			q.mu.Unlock()
			return
		}
		p := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		resp := handler(p.cmd)
		resp.ID = p.cmd.ID
		p.complete(resp)
	}
}

// pollInterrupt periodically broadcasts q.cv so RunUntilStopped's idle
// wait wakes up and re-evaluates q.interrupt/q.stopped on a cadence,
// not only when Submit or Stop signals it directly. It exits when done
// is closed.
func (q *Queue) pollInterrupt(done <-chan struct{}) {
	t := time.NewTicker(interruptPollInterval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			q.cv.Broadcast()
		}
	}
}

// drainLocked completes every still-queued command with
// InterruptedError. Callers must hold q.mu.
func (q *Queue) drainLocked() {
	for _, p := range q.pending {
		r := interruptedResponse()
		r.ID = p.cmd.ID
		p.complete(r)
	}
	q.pending = nil
}

// Stop signals cancellation (spec §5 "cancellation (server stop,
// Ctrl-C) signals every outstanding command with an InterruptedError
// result"). Idempotent; safe from any goroutine including the
// workspace thread itself.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	q.cv.Broadcast()
}

// Len reports how many commands are currently queued, for diagnostics.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
