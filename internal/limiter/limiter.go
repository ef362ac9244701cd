// Package limiter provides a small bounded-concurrency executor: at most N
// submitted tasks run at once, the rest wait in FIFO order, and every task
// reports its result to its own caller regardless of completion order.
package limiter

import (
	"errors"
	"fmt"
	"sync"
)

// ErrStopped is returned when work is submitted after Stop.
var ErrStopped = errors.New("limiter: stopped")

// Task is one asynchronous unit of work.
type Task func() error

type pending struct {
	task Task
	done chan error
}

// Limiter runs submitted tasks with a fixed concurrency ceiling. Tasks are
// admitted in submission order but may complete in any order. A task's
// failure (or panic) is delivered only to that task's caller and never
// disturbs sibling tasks or the limiter itself.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	running int
	queue   []*pending
	stopped bool
}

// New returns a Limiter that runs at most limit tasks concurrently.
// A limit below 1 is treated as 1.
func New(limit int) *Limiter {
	if limit < 1 {
		limit = 1
	}
	return &Limiter{limit: limit}
}

// Go submits one task. The returned channel receives exactly one value:
// the task's error (nil on success). The channel is buffered, so the
// caller may read it whenever convenient.
func (l *Limiter) Go(task Task) (<-chan error, error) {
	chans, err := l.GoAll([]Task{task})
	if err != nil {
		return nil, err
	}
	return chans[0], nil
}

// GoAll submits a batch of tasks atomically: either every task is admitted
// (in slice order) or none is. This is the enqueue path cycle batches use
// so a partially-submitted batch can never exist.
func (l *Limiter) GoAll(tasks []Task) ([]<-chan error, error) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return nil, ErrStopped
	}
	chans := make([]<-chan error, 0, len(tasks))
	for _, task := range tasks {
		p := &pending{task: task, done: make(chan error, 1)}
		l.queue = append(l.queue, p)
		chans = append(chans, p.done)
	}
	l.admitLocked()
	l.mu.Unlock()
	return chans, nil
}

// Stop rejects all further submissions. Tasks already admitted or queued
// still run to completion; nothing is dropped.
func (l *Limiter) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
}

// Running returns the number of tasks currently executing.
func (l *Limiter) Running() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// admitLocked starts queued tasks while capacity allows. Caller holds l.mu.
func (l *Limiter) admitLocked() {
	for l.running < l.limit && len(l.queue) > 0 {
		p := l.queue[0]
		l.queue = l.queue[1:]
		l.running++
		go l.exec(p)
	}
}

func (l *Limiter) exec(p *pending) {
	err := runSafely(p.task)
	p.done <- err

	l.mu.Lock()
	l.running--
	l.admitLocked()
	l.mu.Unlock()
}

// runSafely converts a panicking task into an error for its own caller.
func runSafely(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("limiter: task panicked: %v", r)
		}
	}()
	return task()
}
