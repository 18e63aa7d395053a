// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpcq

import "time"

// State is the lifecycle state of a Request.
//
// Transitions:
//
//	StateNew ──Proceed──▶ StateProcessing ──Complete──▶ StateDestroy
//
// A request in StateDestroy is released on the next Proceed, so that an
// in-flight continuation owns the object until it yields control back to
// the driver. Fail releases immediately from any state.
type State int32

const (
	// StateNew marks a request that has not been driven yet. The first
	// Proceed re-arms the slot (Clone) before processing.
	StateNew State = iota
	// StateProcessing marks a request whose method logic is advancing.
	StateProcessing
	// StateDestroy marks a logically completed request awaiting its
	// deferred release on the next Proceed.
	StateDestroy
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNew:
		return "New"
	case StateProcessing:
		return "Processing"
	case StateDestroy:
		return "Destroy"
	default:
		return "Unknown"
	}
}

// Handler is the capability set a concrete RPC-method object supplies.
//
// One driver loop operates uniformly over many method implementations
// through this interface. Both methods receive the Request being driven.
type Handler interface {
	// Process advances the method-specific logic one step. Called by
	// Proceed in every non-Destroy state.
	Process(r *Request)

	// Clone produces and registers a fresh request of the same method
	// type, re-arming the slot r vacates so the completion source stays
	// primed for the next occurrence of this call type. Called exactly
	// once, on the first Proceed.
	Clone(r *Request)
}

// FailHandler is an optional Handler upgrade overriding the failure
// teardown. Without it, Fail releases the request immediately.
type FailHandler interface {
	Fail(r *Request)
}

// Releaser is an optional Handler upgrade overriding the release step,
// e.g. to return requests to a pool instead of dropping them to the GC.
type Releaser interface {
	Release(r *Request)
}

// CallContext carries per-call addressing and metadata. It is owned
// exclusively by its Request and is reset on release.
type CallContext struct {
	// Peer is the remote party identity, if known.
	Peer string
	// Metadata holds call headers/trailers.
	Metadata map[string][]string
	// Deadline is the call deadline; zero means none.
	Deadline time.Time
}

// Request is one in-flight unit of asynchronous work.
//
// A Request is single-owner at all times: it belongs to whichever side
// currently holds the only reachable pointer to it, except for the brief
// intrusive-link window while resident in a Handoff. It is enqueued at
// most once per lifecycle pass, and exactly one terminal path runs:
// either the deferred release staged by Complete, or Fail.
type Request struct {
	// next is the intrusive forward link, valid only while queued in a
	// Handoff. Cleared on dequeue.
	next *Request

	svc     *Service
	ctx     *CallContext
	handler Handler
	state   State
}

// NewRequest creates a request in StateNew for the given service. The
// handler supplies the method-specific Process and Clone capabilities.
// Panics if handler is nil; svc may be nil for standalone use.
func NewRequest(svc *Service, h Handler) *Request {
	if h == nil {
		panic("rpcq: nil handler")
	}
	return &Request{
		svc:     svc,
		ctx:     &CallContext{},
		handler: h,
	}
}

// Proceed drives the state machine one step.
//
// In StateDestroy the request is released and no processing occurs. On
// the first call (StateNew) the handler's Clone re-arms the vacated slot
// before the state advances to StateProcessing. In all non-Destroy states
// the handler's Process then runs.
func (r *Request) Proceed() {
	if r.state == StateDestroy {
		r.release()
		return
	}
	if r.state == StateNew {
		r.handler.Clone(r)
		r.state = StateProcessing
	}
	r.handler.Process(r)
}

// Complete marks the request logically finished. The release is deferred
// to the next Proceed; any in-flight continuation keeps ownership until
// it yields control back to the driver.
func (r *Request) Complete() {
	r.state = StateDestroy
}

// Fail tears the request down after the completion source reported a
// failed or cancelled tag (peer disconnect, shutdown drain). The default
// releases immediately, bypassing the Destroy staging: no re-arming step
// follows a failed slot. Overridable via FailHandler.
func (r *Request) Fail() {
	if fh, ok := r.handler.(FailHandler); ok {
		fh.Fail(r)
		return
	}
	r.release()
}

// release frees the request, exactly once per lifecycle. Overridable via
// Releaser for pooling.
func (r *Request) release() {
	if rel, ok := r.handler.(Releaser); ok {
		rel.Release(r)
		return
	}
	r.reset()
}

// reset drops owned references. Pooling Releasers may call Reset and
// then recycle the object.
func (r *Request) reset() {
	r.next = nil
	r.ctx = nil
	r.svc = nil
	r.handler = nil
	r.state = StateNew
}

// Reset restores the request to StateNew with a fresh CallContext,
// keeping the service and handler bindings. Intended for Releaser
// implementations that pool requests.
func (r *Request) Reset() {
	r.next = nil
	r.ctx = &CallContext{}
	r.state = StateNew
}

// State returns the current lifecycle state.
func (r *Request) State() State {
	return r.state
}

// Context returns the per-call context. It is owned by the request and
// must not be retained past the terminal transition.
func (r *Request) Context() *CallContext {
	return r.ctx
}

// Service returns the owning service, or nil for standalone requests.
func (r *Request) Service() *Service {
	return r.svc
}
