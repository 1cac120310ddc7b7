package session

import "sync"

// executor runs closures one at a time, in submission order, on a single goroutine.
// Its queue is unbounded so engine callbacks never block on a busy controller.
type executor struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func newExecutor() *executor {
	e := &executor{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *executor) run() {
	defer close(e.done)

	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			closed := e.closed
			e.mu.Unlock()
			if closed {
				return
			}
			<-e.wake
			continue
		}
		fn := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.mu.Unlock()

		fn()
	}
}

func (e *executor) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// post schedules fn. It reports false once the executor is closed.
func (e *executor) post(fn func()) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.queue = append(e.queue, fn)
	e.mu.Unlock()

	e.signal()
	return true
}

// call runs fn and waits for it. Never call it from the executor goroutine.
func (e *executor) call(fn func()) bool {
	finished := make(chan struct{})
	if !e.post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	<-finished
	return true
}

// close stops accepting work; queued closures still run.
func (e *executor) close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.signal()
}
