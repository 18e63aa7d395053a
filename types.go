// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpcq

// Event is one completion delivered by a CompletionSource. Tag identifies
// the in-flight request that finished; OK distinguishes success from
// failure/cancellation (peer disconnect, shutdown drain).
//
// The tag is typed rather than an opaque word: the poller would only ever
// reinterpret it as a request pointer, so the contract hands it over
// cast-free.
type Event struct {
	Tag *Request
	OK  bool
}

// CompletionSource is the minimal contract the poller loop consumes.
//
// Implementations translate whatever the underlying event-completion API
// produces into Events. RingSource is the standard in-process
// implementation; adapters may wrap external completion APIs.
//
// Example (driving a source by hand):
//
//	src := rpcq.NewRingSource(64)
//	svc := rpcq.New(src).Build()
//	_ = svc.Start()
//
//	r := rpcq.NewRequest(svc, handler)
//	_ = src.Post(r, true) // completion arrives
//
//	got, _ := svc.Await()
//	got.Proceed()
type CompletionSource interface {
	// Next blocks until a completion event is available. The second
	// result is false once the source is shut down and drained; no
	// further events will follow.
	Next() (Event, bool)

	// Shutdown causes a pending or future Next to drain the remaining
	// events and then report closed.
	Shutdown()
}

// Host is the server behind the completion source. The poller's owner
// shuts it down once, before shutting down the source, when the stop
// signal is observed.
type Host interface {
	Shutdown()
}

// HostFunc adapts an ordinary function to the Host interface.
type HostFunc func()

// Shutdown calls f().
func (f HostFunc) Shutdown() { f() }
