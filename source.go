// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpcq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// ringSlot pairs a round number with one completion event.
type ringSlot struct {
	cycle atomix.Uint64
	ev    Event
	_     padShort
}

// RingSource is a bounded multi-producer completion buffer implementing
// CompletionSource.
//
// Producers use FAA to blindly claim positions (SCQ-style), requiring 2n
// physical slots for capacity n. The poller is the single consumer.
// After Shutdown, Post is rejected with ErrClosed and Next drains the
// remaining events before reporting closed; a producer that must model
// cancellation posts its final events with ok=false before Shutdown.
//
// Memory: 2n slots for capacity n
type RingSource struct {
	_        pad
	head     atomix.Uint64 // Consumer index (single consumer writes, but producers read)
	_        pad
	tail     atomix.Uint64 // Producer index (FAA)
	_        pad
	closed   atomix.Bool // Shutdown: no more posts
	_        pad
	buffer   []ringSlot
	capacity uint64 // n (usable capacity)
	size     uint64 // 2n (physical slots)
	mask     uint64 // 2n - 1
}

// NewRingSource creates a completion source with the given capacity.
// Capacity rounds up to the next power of 2. Panics if capacity < 2.
func NewRingSource(capacity int) *RingSource {
	if capacity < 2 {
		panic("rpcq: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	size := n * 2

	s := &RingSource{
		buffer:   make([]ringSlot, size),
		capacity: n,
		size:     size,
		mask:     size - 1,
	}

	for i := uint64(0); i < size; i++ {
		s.buffer[i].cycle.StoreRelaxed(i / n)
	}

	return s
}

// Post delivers a completion for tag (multiple producers safe). ok=false
// marks a failed or cancelled completion; the poller routes it to
// Request.Fail instead of the handoff queue.
// Returns ErrWouldBlock if the ring is full, ErrClosed after Shutdown.
func (s *RingSource) Post(tag *Request, ok bool) error {
	if s.closed.LoadAcquire() {
		return ErrClosed
	}

	sw := spin.Wait{}
	for {
		tail := s.tail.LoadAcquire()
		head := s.head.LoadRelaxed()
		if tail >= head+s.capacity {
			return ErrWouldBlock
		}

		myTail := s.tail.AddAcqRel(1) - 1

		slot := &s.buffer[myTail&s.mask]
		expectedCycle := myTail / s.capacity

		slotCycle := slot.cycle.LoadAcquire()

		if slotCycle == expectedCycle {
			slot.ev = Event{Tag: tag, OK: ok}
			slot.cycle.StoreRelease(expectedCycle + 1)
			return nil
		}

		if int64(slotCycle) < int64(expectedCycle) {
			return ErrWouldBlock // Ring full
		}
		sw.Once()
	}
}

// Next blocks until a completion is available (single consumer only).
// Waits past empty windows with adaptive backoff. Returns (zero, false)
// once the source is shut down and fully drained.
func (s *RingSource) Next() (Event, bool) {
	backoff := iox.Backoff{}
	for {
		ev, err := s.dequeue()
		if err == nil {
			return ev, true
		}
		if s.closed.LoadAcquire() {
			// Post-shutdown: one more look, a producer may have won the
			// race between the empty check and the closed flag.
			if ev, err = s.dequeue(); err == nil {
				return ev, true
			}
			return Event{}, false
		}
		backoff.Wait()
	}
}

// dequeue removes one event, non-blocking (single consumer only).
func (s *RingSource) dequeue() (Event, error) {
	head := s.head.LoadRelaxed()
	cycle := head / s.capacity
	slot := &s.buffer[head&s.mask]

	slotCycle := slot.cycle.LoadAcquire()

	if slotCycle != cycle+1 {
		return Event{}, ErrWouldBlock
	}

	ev := slot.ev
	slot.ev = Event{}
	nextEnqCycle := (head + s.size) / s.capacity
	slot.cycle.StoreRelease(nextEnqCycle)
	s.head.StoreRelaxed(head + 1)

	return ev, nil
}

// Shutdown rejects further posts and lets Next drain the remaining
// events before reporting closed. Idempotent.
func (s *RingSource) Shutdown() {
	s.closed.StoreRelease(true)
}

// Cap returns the ring capacity.
func (s *RingSource) Cap() int {
	return int(s.capacity)
}
