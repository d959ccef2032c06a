package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	ErrQueueFull = errors.New("worker queue is full")
	ErrClosed    = errors.New("worker supervisor is shut down")
)

// Task is one unit of background work. Name is used in logs and error reports.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// TaskError reports a failed or panicking task on the Errors channel.
type TaskError struct {
	Task     string
	Err      error
	Panicked bool
}

func (e TaskError) Error() string { return fmt.Sprintf("task %s: %v", e.Task, e.Err) }
func (e TaskError) Unwrap() error { return e.Err }

// Supervisor runs submitted tasks on a fixed pool of goroutines fed by a bounded queue.
// Task failures never stop the pool; they are published on Errors and never logged
// here, since tasks log their own failures.
type Supervisor struct {
	queue chan Task
	errs  chan error
	group *errgroup.Group

	mu     sync.RWMutex
	closed bool
}

func NewSupervisor(workers, queueSize int) *Supervisor {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	s := &Supervisor{
		queue: make(chan Task, queueSize),
		errs:  make(chan error, queueSize),
		group: &errgroup.Group{},
	}
	// Tasks run to completion on a context that is never cancelled; Shutdown
	// waits for them rather than aborting them mid-transaction.
	ctx := context.Background()
	for i := 0; i < workers; i++ {
		s.group.Go(func() error {
			for task := range s.queue {
				s.run(ctx, task)
			}
			return nil
		})
	}
	return s
}

// Submit enqueues task without blocking.
func (s *Supervisor) Submit(task Task) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Errors delivers task failures. Reports are dropped when nobody drains the channel.
func (s *Supervisor) Errors() <-chan error {
	return s.errs
}

func (s *Supervisor) run(ctx context.Context, task Task) {
	panicked := false
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
			}
		}()
		return task.Run(ctx)
	}()
	if err == nil {
		return
	}

	select {
	case s.errs <- TaskError{Task: task.Name, Err: err, Panicked: panicked}:
	default:
	}
}

// Shutdown stops accepting tasks and waits for queued and in-flight tasks to finish
// or for ctx to expire.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = s.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker drain: %w", ctx.Err())
	}
}
