// Package queue implements the pipeline queue (§4.B): an unbounded FIFO of deferred inbound
// items, lazily allocated, draining in request-holder/content-run order. It mirrors the
// teacher's Queue<Object> pipelined field and its single consumer, Runnable.run().
package queue

import (
	"sync"

	"github.com/indigo-web/traffic/message"
)

// Item is a single deferred entry: either a RequestHolder (a request head plus its arrival
// timestamp) or a Part (a raw content chunk belonging to the request ahead of it in the
// queue). This realizes the "single typed variant" design note instead of a heterogeneous
// Queue<Object>.
type Item struct {
	Holder  *message.RequestHolder
	Part    message.Inbound
	IsHead  bool
}

// Queue is an unbounded FIFO, allocated lazily on first deferral. Holders are recycled through
// a sync.Pool, in the same spirit as the teacher's client/internal/connection.Manager, which
// recycles net.Conn values through a pool.ObjectPool[net.Conn] for a different kind of
// per-connection recyclable.
type Queue struct {
	items []Item
	pool  sync.Pool
}

// New returns an empty, ready-to-use Queue.
func New() *Queue {
	return &Queue{pool: sync.Pool{New: func() any { return new(message.RequestHolder) }}}
}

// EnqueueHead defers a request head, capturing its arrival timestamp via holder.
func (q *Queue) EnqueueHead(holder *message.RequestHolder) {
	q.items = append(q.items, Item{Holder: holder, IsHead: true})
}

// EnqueuePart defers a raw content chunk belonging to whichever request head precedes it.
func (q *Queue) EnqueuePart(part message.Inbound) {
	q.items = append(q.items, Item{Part: part})
}

// Len reports how many items remain queued.
func (q *Queue) Len() int {
	return len(q.items)
}

// Empty reports whether the queue currently holds nothing.
func (q *Queue) Empty() bool {
	return len(q.items) == 0
}

// PopHead removes and returns the item at the front of the queue. Callers must only call this
// when Empty() is false.
func (q *Queue) PopHead() Item {
	item := q.items[0]
	q.items = q.items[1:]
	return item
}

// PushFront puts item back at the front of the queue, used when a drain peeks an item it isn't
// ready to consume yet and must leave it for the next drain (mirrors the Java run() loop's
// unconsumed Queue.peek()).
func (q *Queue) PushFront(item Item) {
	q.items = append([]Item{item}, q.items...)
}

// Release returns a holder to the pool once it has been dispatched or discarded, following the
// resource policy in §5: anything not forwarded before the scope ends must be deterministically
// released.
func (q *Queue) Release(holder *message.RequestHolder) {
	*holder = message.RequestHolder{}
	q.pool.Put(holder)
}

// Acquire borrows a recycled holder from the pool, or allocates a new one.
func (q *Queue) Acquire() *message.RequestHolder {
	return q.pool.Get().(*message.RequestHolder)
}

// Drain removes and returns every remaining item in order, leaving the queue empty. Used on
// detach to guarantee invariant P6 (every queued item is released exactly once).
func (q *Queue) Drain() []Item {
	items := q.items
	q.items = nil
	return items
}
