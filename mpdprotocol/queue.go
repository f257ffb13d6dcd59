package mpdprotocol

import (
	"sync"
	"time"
)

// commandResult is what a caller eventually receives for a command.
type commandResult struct {
	lines []string
	err   error
}

// pendingCommand pairs command text with a single-assignment result slot.
type pendingCommand struct {
	text     string
	enqueued time.Time
	result   chan commandResult
	once     sync.Once
}

func newPendingCommand(text string) *pendingCommand {
	return &pendingCommand{
		text:     text,
		enqueued: time.Now(),
		result:   make(chan commandResult, 1),
	}
}

// resolve delivers the result. Only the first call has an effect.
func (pc *pendingCommand) resolve(lines []string, err error) {
	pc.once.Do(func() {
		pc.result <- commandResult{lines: lines, err: err}
	})
}

// commandQueue is an unbounded FIFO of pending commands. The multiplexer
// waits on ready() and then calls take(); callers only enqueue and remove.
type commandQueue struct {
	mu     sync.Mutex
	items  []*pendingCommand
	closed bool
	signal chan struct{}
}

func newCommandQueue() *commandQueue {
	return &commandQueue{signal: make(chan struct{}, 1)}
}

// enqueue appends a command and wakes the multiplexer.
func (q *commandQueue) enqueue(text string) (*pendingCommand, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, errQueueClosed
	}
	pc := newPendingCommand(text)
	q.items = append(q.items, pc)
	q.notify()
	return pc, nil
}

// ready is signalled whenever the queue may hold an item.
func (q *commandQueue) ready() <-chan struct{} {
	return q.signal
}

// take pops the oldest command. It returns false when the queue is empty,
// which happens when a waiter removed its command after the signal fired.
func (q *commandQueue) take() (*pendingCommand, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	pc := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	if len(q.items) > 0 {
		q.notify()
	}
	return pc, true
}

// remove drops pc if it has not been taken yet.
func (q *commandQueue) remove(pc *pendingCommand) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, item := range q.items {
		if item == pc {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// len returns the number of queued commands.
func (q *commandQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// close rejects further commands and returns the ones still queued.
func (q *commandQueue) close() []*pendingCommand {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	drained := q.items
	q.items = nil
	return drained
}

// notify must be called with mu held.
func (q *commandQueue) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
