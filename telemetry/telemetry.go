// Package telemetry carries acceleration samples from a motion source into the synthesis engine.
// Producers call Send once per simulation frame and never block; the engine drains whatever has
// arrived once per tick.
package telemetry

import (
	"context"
	"sync/atomic"

	"github.com/golang/geo/r3"
)

// A Sample is one 3-axis acceleration reading, normally the change since the previous frame.
type Sample = r3.Vector

// A Sink accepts samples without blocking.
type Sink interface {
	Send(s Sample)
}

// A Source produces samples into a sink until its context is cancelled or its input ends.
type Source interface {
	Run(ctx context.Context, sink Sink) error
}

// DefaultCapacity is the channel size used when none is configured. At the default 20ms tick it
// covers a little over two ticks of a 300Hz producer.
const DefaultCapacity = 16

// Channel is a bounded single-producer/single-consumer queue of samples with a drop-oldest
// policy: Send never blocks, and when the queue is full the oldest queued sample is discarded to
// make room. Drain never blocks either.
type Channel struct {
	ch      chan Sample
	dropped atomic.Uint64
}

// NewChannel returns a channel holding at most capacity samples. A non-positive capacity uses
// DefaultCapacity.
func NewChannel(capacity int) *Channel {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Channel{ch: make(chan Sample, capacity)}
}

// Send queues s, evicting the oldest queued sample if the channel is full.
func (c *Channel) Send(s Sample) {
	for {
		select {
		case c.ch <- s:
			return
		default:
		}
		select {
		case <-c.ch:
			c.dropped.Add(1)
		default:
			// The consumer emptied a slot between the two selects; retry the send.
		}
	}
}

// Drain hands every currently queued sample to fn in arrival order and returns how many were
// handled.
func (c *Channel) Drain(fn func(Sample)) int {
	n := 0
	for {
		select {
		case s := <-c.ch:
			fn(s)
			n++
		default:
			return n
		}
	}
}

// Len returns the number of queued samples.
func (c *Channel) Len() int {
	return len(c.ch)
}

// Cap returns the channel capacity.
func (c *Channel) Cap() int {
	return cap(c.ch)
}

// Dropped returns how many samples have been discarded because the channel was full.
func (c *Channel) Dropped() uint64 {
	return c.dropped.Load()
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(s Sample)

// Send calls f(s).
func (f SinkFunc) Send(s Sample) {
	f(s)
}

// DeltaTracker turns absolute g-force readings into frame-to-frame deltas before forwarding them.
// The first reading is measured against zero.
type DeltaTracker struct {
	sink Sink
	last Sample
}

// NewDeltaTracker returns a tracker forwarding deltas to sink.
func NewDeltaTracker(sink Sink) *DeltaTracker {
	return &DeltaTracker{sink: sink}
}

// Send forwards the change from the previous reading.
func (d *DeltaTracker) Send(s Sample) {
	delta := s.Sub(d.last)
	d.last = s
	d.sink.Send(delta)
}
