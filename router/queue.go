package router

import "sync"

// Queue is the FIFO of pending deliveries. It is a ring buffer that doubles
// its capacity when full, and supports putting a delivery back at the head.
// Safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	buf      []*Delivery
	head     int
	count    int
	capacity int
	inflight int

	totalPushed int64
	totalPopped int64
	requeued    int64
	resizeCount int
}

// QueueStats contains queue statistics.
type QueueStats struct {
	Length      int
	Capacity    int
	InFlight    int
	TotalPushed int64
	TotalPopped int64
	Requeued    int64
	ResizeCount int
}

// NewQueue creates an empty queue with the given initial capacity.
func NewQueue(initialCapacity int) *Queue {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	return &Queue{
		buf:      make([]*Delivery, initialCapacity),
		capacity: initialCapacity,
	}
}

// Push appends deliveries at the tail. A batch is appended contiguously.
func (q *Queue) Push(deliveries ...*Delivery) {
	if len(deliveries) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.ensure(q.count + len(deliveries))
	for _, d := range deliveries {
		q.buf[(q.head+q.count)%q.capacity] = d
		q.count++
	}
	q.totalPushed += int64(len(deliveries))
}

// PushFront puts d back at the head so it is the next to be popped.
func (q *Queue) PushFront(d *Delivery) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.ensure(q.count + 1)
	q.head = (q.head - 1 + q.capacity) % q.capacity
	q.buf[q.head] = d
	q.count++
	q.requeued++
}

// Pop removes and returns the head delivery.
func (q *Queue) Pop() (*Delivery, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pop()
}

// Acquire pops the head and counts it as in flight until Release, so
// Outstanding never reads zero while a delivery is being handled.
func (q *Queue) Acquire() (*Delivery, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	d, ok := q.pop()
	if ok {
		q.inflight++
	}
	return d, ok
}

// Release ends the in-flight period started by Acquire.
func (q *Queue) Release() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.inflight > 0 {
		q.inflight--
	}
}

// Outstanding returns the pending and in-flight counts read together.
func (q *Queue) Outstanding() (pending, inflight int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count, q.inflight
}

func (q *Queue) pop() (*Delivery, bool) {
	if q.count == 0 {
		return nil, false
	}

	d := q.buf[q.head]
	q.buf[q.head] = nil // Clear reference for GC
	q.head = (q.head + 1) % q.capacity
	q.count--
	q.totalPopped++

	return d, true
}

// Peek returns a copy of the head delivery without removing it.
func (q *Queue) Peek() (Delivery, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return Delivery{}, false
	}
	return *q.buf[q.head], true
}

// Snapshot returns copies of all pending deliveries in dispatch order.
func (q *Queue) Snapshot() []Delivery {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Delivery, q.count)
	for i := range q.count {
		out[i] = *q.buf[(q.head+i)%q.capacity]
	}
	return out
}

// Len returns the number of pending deliveries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Reset discards all pending deliveries and returns how many were discarded.
func (q *Queue) Reset() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.count
	clear(q.buf)
	q.head = 0
	q.count = 0
	return n
}

// Stats returns queue statistics.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Length:      q.count,
		Capacity:    q.capacity,
		InFlight:    q.inflight,
		TotalPushed: q.totalPushed,
		TotalPopped: q.totalPopped,
		Requeued:    q.requeued,
		ResizeCount: q.resizeCount,
	}
}

// ensure grows the ring until it holds n items. Must be called with lock held.
func (q *Queue) ensure(n int) {
	if n <= q.capacity {
		return
	}

	newCapacity := q.capacity * 2
	for newCapacity < n {
		newCapacity *= 2
	}

	newBuf := make([]*Delivery, newCapacity)
	for i := range q.count {
		newBuf[i] = q.buf[(q.head+i)%q.capacity]
	}

	q.buf = newBuf
	q.head = 0
	q.capacity = newCapacity
	q.resizeCount++
}
