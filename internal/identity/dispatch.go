// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import "sync"

// dispatcher runs queued callbacks one at a time, in enqueue order.
//
// The queue is unbounded so that emitting never blocks on a slow listener.
type dispatcher struct {
	mu     sync.Mutex
	wake   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

func newDispatcher() *dispatcher {
	d := &dispatcher{done: make(chan struct{})}
	d.wake = sync.NewCond(&d.mu)
	go d.run()
	return d
}

// enqueue appends fn and reports whether it was accepted.
func (d *dispatcher) enqueue(fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}
	d.queue = append(d.queue, fn)
	d.wake.Signal()
	return true
}

// close stops accepting work. Already queued callbacks are dropped.
func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.queue = nil
	d.wake.Broadcast()
	d.mu.Unlock()
}

func (d *dispatcher) run() {
	defer close(d.done)

	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.wake.Wait()
		}
		if d.closed {
			d.mu.Unlock()
			return
		}

		fn := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.mu.Unlock()

		fn()
	}
}
