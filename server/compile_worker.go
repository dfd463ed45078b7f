package server

import (
	"errors"
	"fmt"
)

// ErrWorkerStopped is returned for work submitted after Stop.
var ErrWorkerStopped = errors.New("compile worker stopped")

// compileRequest represents a unit of work to be executed on the compile goroutine.
type compileRequest struct {
	fn   func() (interface{}, error)
	done chan compileResult
}

// compileResult holds the return value from a compile operation.
type compileResult struct {
	value interface{}
	err   error
}

// CompileWorker serializes all compilation through a single goroutine.
// Runtime scope chains are append-only and not safe for concurrent
// compiles, so every handler that touches a session goes through here.
type CompileWorker struct {
	requests chan compileRequest
	quit     chan struct{}
	stopped  chan struct{}
}

// NewCompileWorker creates a CompileWorker and starts the processing goroutine.
func NewCompileWorker() *CompileWorker {
	w := &CompileWorker{
		requests: make(chan compileRequest, 64),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine.
func (w *CompileWorker) loop() {
	defer close(w.stopped)
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs a function, recovering from panics.
func (w *CompileWorker) execute(fn func() (interface{}, error)) (result compileResult) {
	defer func() {
		if r := recover(); r != nil {
			result = compileResult{err: fmt.Errorf("compile worker: %v", r)}
		}
	}()
	result.value, result.err = fn()
	return result
}

// Do submits a function for execution on the compile goroutine and blocks
// until it completes. Returns the result and any error (including panics).
func (w *CompileWorker) Do(fn func() (interface{}, error)) (interface{}, error) {
	req := compileRequest{
		fn:   fn,
		done: make(chan compileResult, 1),
	}
	select {
	case w.requests <- req:
	case <-w.stopped:
		return nil, ErrWorkerStopped
	}
	select {
	case result := <-req.done:
		return result.value, result.err
	case <-w.stopped:
		return nil, ErrWorkerStopped
	}
}

// Stop shuts down the worker goroutine. It is safe to call more than once.
func (w *CompileWorker) Stop() {
	select {
	case <-w.quit:
	default:
		close(w.quit)
	}
	<-w.stopped
}
