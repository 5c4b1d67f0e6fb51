// Package workerpool runs closures on a fixed set of goroutines. It is the
// frame barrier of the renderer: tasks for one frame are submitted, then Wait
// blocks until every one of them has finished.
//
// Tasks are taken from a single shared queue in submission order. A panic in
// a task is recovered and reported by the next Wait, so one bad task cannot
// leave the barrier waiting forever.
//
// Thread safety: Pool is safe for concurrent use. Wait covers every task
// submitted so far, so a pool should serve one frame driver at a time.
package workerpool

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when submitting to a closed pool.
var ErrClosed = errors.New("workerpool: pool is closed")

// ErrTaskPanicked matches every *PanicError.
var ErrTaskPanicked = errors.New("workerpool: task panicked")

// PanicError carries a recovered task panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("workerpool: task panicked: %v", e.Value)
}

// Unwrap lets errors.Is match ErrTaskPanicked, and the panic value itself
// when it was an error.
func (e *PanicError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{ErrTaskPanicked, err}
	}
	return []error{ErrTaskPanicked}
}

// Pool is a fixed-size pool of worker goroutines.
type Pool struct {
	// workers is the number of worker goroutines.
	workers int

	// queue is shared by all workers; it is FIFO.
	queue chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool

	// closeMu keeps Close from completing while a Submit is mid-send.
	closeMu sync.RWMutex

	mu       sync.Mutex
	idle     *sync.Cond
	inflight int
	panics   []error
}

// New creates a pool with the given number of workers and starts them.
// If workers is 0 or negative, GOMAXPROCS is used.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Buffer a few tasks per worker so submitters rarely block.
	queueSize := max(workers*4, 8)

	p := &Pool{
		workers: workers,
		queue:   make(chan func(), queueSize),
		done:    make(chan struct{}),
	}
	p.idle = sync.NewCond(&p.mu)
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			p.drain()
			return
		case task := <-p.queue:
			p.run(task)
		}
	}
}

// drain runs whatever is still queued after Close.
func (p *Pool) drain() {
	for {
		select {
		case task := <-p.queue:
			p.run(task)
		default:
			return
		}
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		rec := recover()

		p.mu.Lock()
		if rec != nil {
			p.panics = append(p.panics, &PanicError{Value: rec, Stack: debug.Stack()})
		}
		p.inflight--
		if p.inflight == 0 {
			p.idle.Broadcast()
		}
		p.mu.Unlock()
	}()
	task()
}

// Submit enqueues task. It blocks while the queue is full and returns
// ErrClosed once the pool has been closed. A nil task is ignored.
func (p *Pool) Submit(task func()) error {
	if task == nil {
		return nil
	}
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if !p.running.Load() {
		return ErrClosed
	}

	p.mu.Lock()
	p.inflight++
	p.mu.Unlock()

	p.queue <- task
	return nil
}

// Wait blocks until every submitted task has finished. It returns the panics
// recovered since the previous Wait, joined, or nil.
func (p *Pool) Wait() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.inflight > 0 {
		p.idle.Wait()
	}
	err := errors.Join(p.panics...)
	p.panics = nil
	return err
}

// ExecuteAll submits every task and waits for them.
func (p *Pool) ExecuteAll(tasks []func()) error {
	for _, task := range tasks {
		if err := p.Submit(task); err != nil {
			return errors.Join(err, p.Wait())
		}
	}
	return p.Wait()
}

// Close stops accepting work, runs what is already queued and stops the
// workers. Close is safe to call multiple times.
func (p *Pool) Close() {
	p.closeMu.Lock()
	stopped := p.running.CompareAndSwap(true, false)
	p.closeMu.Unlock()
	if !stopped {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// Pending returns the number of submitted tasks that have not finished.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inflight
}
