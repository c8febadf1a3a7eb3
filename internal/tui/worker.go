package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

var errWorkerClosed = errors.New("worker closed")

// worker runs persistence jobs on a single goroutine, first in first out.
// A job joins the queue when do is called, which happens inside Update, so
// the queue follows the order of key presses. The returned tea.Cmd only
// waits for its job's result, and Bubble Tea may run those in any order.
type worker struct {
	ctx context.Context
	g   *errgroup.Group

	mu     sync.Mutex
	queue  []*job
	closed bool
	wake   chan struct{}
}

type job struct {
	op   string
	fn   func(ctx context.Context) (tea.Msg, error)
	done chan tea.Msg
}

func newWorker(ctx context.Context) *worker {
	g, gctx := errgroup.WithContext(ctx)
	w := &worker{ctx: gctx, g: g, wake: make(chan struct{}, 1)}
	g.Go(w.loop)
	return w
}

// do queues fn and returns a command that yields its result. An error or
// panic from fn becomes an errMsg tagged with op.
func (w *worker) do(op string, fn func(ctx context.Context) (tea.Msg, error)) tea.Cmd {
	j := &job{op: op, fn: fn, done: make(chan tea.Msg, 1)}
	if err := w.enqueue(j); err != nil {
		return func() tea.Msg { return errMsg{op: op, err: err} }
	}
	return func() tea.Msg {
		select {
		case msg := <-j.done:
			return msg
		case <-w.ctx.Done():
			select {
			case msg := <-j.done:
				return msg
			default:
				return errMsg{op: op, err: w.ctx.Err()}
			}
		}
	}
}

// close stops taking jobs, lets the queued ones finish and waits for the loop.
func (w *worker) close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.signal()
	if err := w.g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (w *worker) enqueue(j *job) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errWorkerClosed
	}
	if err := w.ctx.Err(); err != nil {
		return err
	}
	w.queue = append(w.queue, j)
	w.signal()
	return nil
}

func (w *worker) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest job. ok is false once the worker is closed and drained.
func (w *worker) next() (j *job, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return nil, !w.closed
	}
	j = w.queue[0]
	w.queue[0] = nil
	w.queue = w.queue[1:]
	return j, true
}

func (w *worker) loop() error {
	for {
		j, ok := w.next()
		if !ok {
			return nil
		}
		if j == nil {
			select {
			case <-w.wake:
			case <-w.ctx.Done():
				return w.ctx.Err()
			}
			continue
		}
		j.done <- w.run(j)
	}
}

func (w *worker) run(j *job) (msg tea.Msg) {
	defer func() {
		if r := recover(); r != nil {
			msg = errMsg{op: j.op, err: fmt.Errorf("panic: %v", r)}
		}
	}()
	out, err := j.fn(w.ctx)
	if err != nil {
		return errMsg{op: j.op, err: err}
	}
	return out
}
