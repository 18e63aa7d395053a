// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpcq

import (
	"sync/atomic"

	"code.hybscloud.com/spin"
)

// Handoff moves completed requests from any number of producer contexts
// to a single logical consumer, lock-free, with direct handoff to a
// parked consumer.
//
// One shared cell multiplexes three mutually exclusive roles:
//
//	nil        — empty
//	*Request   — head of a singly-linked pending list (LIFO push order)
//	&h.parked  — a consumer is parked; its Waker is staged in h.waker
//
// The marker is the address of a per-Handoff sentinel request, so a
// single pointer CAS distinguishes all three states. A producer arriving
// after the consumer parked always observes the marker and performs the
// handoff directly; a producer arriving before always leaves a list the
// consumer's next drain will find. Registration is the atomic step that
// can fail and fall back to draining, which is what makes the consumer's
// emptiness check before parking safe.
//
// The consumer-local drained list is in FIFO delivery order and needs no
// synchronization: only the consumer touches it.
type Handoff struct {
	_    pad
	cell atomic.Pointer[Request]
	_    padPtr

	// waker is written by the consumer before it installs the marker and
	// read by the producer that swaps the marker out; the cell CAS pair
	// orders the accesses.
	waker Waker

	// parked is the marker sentinel. Never enqueued, never dequeued;
	// only its address is meaningful.
	parked Request

	// local is the consumer-owned drained list, reversed into FIFO order.
	local *Request

	exec Executor
}

// NewHandoff creates a handoff structure resuming parked consumers via
// exec. A nil exec defaults to InlineExecutor.
func NewHandoff(exec Executor) *Handoff {
	if exec == nil {
		exec = InlineExecutor{}
	}
	return &Handoff{exec: exec}
}

// Enqueue delivers a completed request to the consumer (multiple
// producers safe). Lock-free: a CAS retry loop pushes onto the pending
// list; if a parked-waiter marker is installed, it is replaced by a
// single-item list and the extracted Waker is handed to the Executor.
// That replacement is the only wake path — a genuine handoff, not a
// notify-then-poll. Never blocks, never allocates.
func (h *Handoff) Enqueue(r *Request) {
	if r == nil {
		return
	}

	sw := spin.Wait{}
	for {
		cur := h.cell.Load()
		if cur == &h.parked {
			r.next = nil
			if h.cell.CompareAndSwap(cur, r) {
				w := h.waker
				h.exec.Execute(w)
				return
			}
			sw.Once()
			continue
		}

		r.next = cur
		if h.cell.CompareAndSwap(cur, r) {
			return
		}
		sw.Once()
	}
}

// Park registers w as the parked waiter. It succeeds only when the
// shared cell is empty: on success the consumer suspends and the next
// Enqueue wakes it through the Executor.
//
// Returns ErrWouldBlock when a pending list is present — the suspension
// is aborted and the caller must drain via Next instead. Call Park only
// when the local drained list is empty (Next returned ErrWouldBlock).
//
// Panics if a waiter is already parked: this primitive serves exactly
// one logical consumer, and a second concurrent suspension is a
// programming-contract violation, detected best-effort. The existing
// parked state is left intact.
func (h *Handoff) Park(w Waker) error {
	if w == nil {
		panic("rpcq: nil waker")
	}

	// The violation check precedes the waker store so a second
	// registration cannot clobber the parked waiter's handle.
	cur := h.cell.Load()
	if cur == &h.parked {
		panic("rpcq: waiter already parked")
	}
	if cur != nil {
		return ErrWouldBlock
	}

	h.waker = w
	if h.cell.CompareAndSwap(nil, &h.parked) {
		return nil
	}
	if h.cell.Load() == &h.parked {
		panic("rpcq: waiter already parked")
	}
	return ErrWouldBlock
}

// Next pops the next request in FIFO delivery order. When the local list
// is empty it drains the shared cell first. Returns ErrWouldBlock when
// nothing is pending; the caller may then suspend via Park.
//
// Consumer-side only.
func (h *Handoff) Next() (*Request, error) {
	if h.local == nil {
		h.drain()
	}
	r := h.local
	if r == nil {
		return nil, ErrWouldBlock
	}
	h.local = r.next
	r.next = nil
	return r, nil
}

// Ready reports whether Next would return a request without suspending:
// the local list is non-empty or the shared cell holds a pending list.
func (h *Handoff) Ready() bool {
	if h.local != nil {
		return true
	}
	cur := h.cell.Load()
	return cur != nil && cur != &h.parked
}

// drain atomically detaches the pending list and reverses it onto the
// local list, converting the lock-free LIFO push order into FIFO
// delivery order for the batch. A parked marker is never detached.
func (h *Handoff) drain() {
	sw := spin.Wait{}
	for {
		cur := h.cell.Load()
		if cur == nil || cur == &h.parked {
			return
		}
		if h.cell.CompareAndSwap(cur, nil) {
			for cur != nil {
				next := cur.next
				cur.next = h.local
				h.local = cur
				cur = next
			}
			return
		}
		sw.Once()
	}
}

// cancelPark uninstalls the parked marker and returns the staged Waker,
// or nil if no waiter was parked (or a handoff already claimed it). Used
// by Service.Stop to release a parked waiter after the poller exits.
func (h *Handoff) cancelPark() Waker {
	if h.cell.CompareAndSwap(&h.parked, nil) {
		return h.waker
	}
	return nil
}
