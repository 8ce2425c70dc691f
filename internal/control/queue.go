package control

import "sync/atomic"

const defaultQueueDepth = 256

// Queue carries commands from one producer callback to the frame loop.
// Push never blocks: when the consumer falls behind, the newest command is dropped.
type Queue struct {
	ch      chan Command
	dropped atomic.Uint64
}

// NewQueue creates a queue holding up to depth pending commands.
func NewQueue(depth int) *Queue {
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	return &Queue{ch: make(chan Command, depth)}
}

// Push enqueues cmd, reporting false when the queue was full.
func (q *Queue) Push(cmd Command) bool {
	select {
	case q.ch <- cmd:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// PushRaw decodes msg and enqueues the result. Undecodable messages are ignored.
func (q *Queue) PushRaw(msg []byte) {
	if cmd, ok := Decode(msg); ok {
		q.Push(cmd)
	}
}

// Drain hands every pending command to fn in FIFO order without blocking.
// It returns the number of commands handled.
func (q *Queue) Drain(fn func(Command)) int {
	n := 0
	for {
		select {
		case cmd := <-q.ch:
			fn(cmd)
			n++
		default:
			return n
		}
	}
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Dropped returns how many commands were discarded because the queue was full.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
