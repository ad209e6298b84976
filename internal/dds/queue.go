package dds

import "f4disco/errcode"

// DefaultQueueCap is the number of commands held between executor passes.
const DefaultQueueCap = 10

// Queue is a fixed-capacity FIFO of commands. When full, Push rejects the
// new command and counts it; queued commands are never overwritten.
type Queue struct {
	items []string
	head  int
	n     int
	drops uint32
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCap
	}
	return &Queue{items: make([]string, capacity)}
}

// Push appends cmd, or returns errcode.QueueFull when the queue is full.
func (q *Queue) Push(cmd string) error {
	if q.n == len(q.items) {
		q.drops++
		return errcode.QueueFull
	}
	q.items[(q.head+q.n)%len(q.items)] = cmd
	q.n++
	return nil
}

// Pop removes the oldest command.
func (q *Queue) Pop() (string, bool) {
	if q.n == 0 {
		return "", false
	}
	cmd := q.items[q.head]
	q.items[q.head] = ""
	q.head = (q.head + 1) % len(q.items)
	q.n--
	return cmd, true
}

func (q *Queue) Len() int { return q.n }
func (q *Queue) Cap() int { return len(q.items) }

// Drops counts commands rejected because the queue was full.
func (q *Queue) Drops() uint32 { return q.drops }
