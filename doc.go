// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rpcq bridges a blocking, tag-based completion source to
// logically asynchronous consumers.
//
// One dedicated poller goroutine blocks on a [CompletionSource],
// retrieving completed tags one at a time. Each successful completion is
// fed through a lock-free handoff structure to whichever consumer is
// waiting; each failed completion tears its request down eagerly. The
// consumer side awaits the next completed request without busy-waiting,
// with a pluggable [Executor] deciding how a woken consumer resumes.
//
// The design follows the asynchronous-server pattern of completion-queue
// RPC runtimes: request objects are tags, a per-service poller thread
// drains the queue, and one logical consumer drives request state
// machines forward.
//
// # Quick Start
//
//	src := rpcq.NewRingSource(1024)
//	svc := rpcq.New(src).Executor(rpcq.GoExecutor{}).Build()
//	if err := svc.Start(); err != nil {
//	    // already started or stopped
//	}
//	defer svc.Stop()
//
//	// Producer side (any goroutine): report completions.
//	r := rpcq.NewRequest(svc, handler)
//	_ = src.Post(r, true)
//
//	// Consumer side (one goroutine): drive completed requests.
//	for {
//	    r, err := svc.Await()
//	    if err != nil {
//	        break // rpcq.ErrClosed after Stop
//	    }
//	    r.Proceed()
//	}
//
// # Request Lifecycle
//
// A [Request] passes through three states:
//
//	StateNew ──Proceed──▶ StateProcessing ──Complete──▶ StateDestroy
//
// The first Proceed calls the handler's Clone to register a fresh request
// of the same method type, keeping the completion source primed for the
// next occurrence of that call type, then advances to StateProcessing and
// runs Process. Complete stages the terminal transition; the release is
// deferred to the next Proceed so an in-flight continuation owns the
// object until it yields back to the driver. Fail (failed/cancelled tags)
// releases immediately — a failed slot is never re-armed.
//
// Exactly one terminal path runs per request: the deferred release or
// Fail, never both.
//
// # Handoff
//
// [Handoff] multiplexes one atomic cell across three mutually exclusive
// roles: empty, the head of a pending LIFO list, or a parked-waiter
// marker. Producers push with a CAS retry loop — no locks, no
// allocation. A producer that observes the marker replaces it with a
// single-item list and hands the extracted [Waker] to the Executor: a
// genuine handoff, not a notify-then-poll, and the only wake path.
//
// The consumer drains the cell with one atomic detach and reverses the
// batch into a consumer-local list, converting contention-free LIFO
// pushes into the FIFO delivery order callers expect. Within one drained
// batch, delivery order equals enqueue order; across batches there is no
// ordering guarantee beyond non-starvation.
//
// # Suspension Protocol
//
// The consumer-side await has three phases:
//
//	Ready  — true when a request can be returned without suspending
//	Park   — install the waiter marker; fails with ErrWouldBlock if a
//	         batch appeared concurrently (resume immediately instead)
//	Next   — drain if needed, pop exactly one ready request
//
// [Service.Await] packages the three phases into a blocking call backed
// by a channel waker. Callers integrating with their own scheduler use
// Ready/Park/Next directly and supply a custom Waker.
//
// The registration CAS is what makes the protocol race-free: a producer
// arriving after Park observes the marker and wakes the consumer; a
// producer arriving before Park leaves a list that forces Park to fail,
// so the consumer drains instead of suspending. No missed wakeups.
//
// # Single-Consumer Contract
//
// Exactly one logical consumer may await at a time. A second concurrent
// Park while a waiter is parked is a programming-contract violation and
// panics (detected best-effort); the existing parked state stays intact.
// Multiple producers are always safe.
//
// # Execution Strategies
//
// The [Executor] decides where a woken consumer resumes:
//
//	rpcq.InlineExecutor{} — on the poller goroutine (lowest latency)
//	rpcq.GoExecutor{}     — on a fresh goroutine
//	rpcq.ExecutorFunc(f)  — e.g. post to an event loop or worker pool
//
// # Shutdown
//
// [Service.Stop] shuts the [Host] down first, then the completion
// source, which makes the poller's blocking retrieval return closed
// within one call. Sources model cancellation by delivering their final
// tags with OK=false before closing, so every in-flight request observes
// exactly one terminal path. After the poller is joined, a parked waiter
// is released and observes [ErrClosed].
//
// # Non-Blocking Semantics
//
// Consumer and producer boundaries follow the
// [code.hybscloud.com/iox] convention: [ErrWouldBlock] is a control flow
// signal ("nothing pending", "ring full"), not a failure, and
// [ErrClosed] is terminal. Blocking helpers wait past the boundary —
// [Service.Await] by parking, [RingSource.Next] with adaptive backoff.
package rpcq
