// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpcq

// Executor decides how and where a parked consumer resumes after a
// handoff. It is invoked with the extracted Waker on the producer's
// goroutine (normally the poller), once per handoff.
//
// The sole contract: eventually cause Wake to run, exactly once. The
// resumed consumer finds the handed-off request via Next.
type Executor interface {
	Execute(w Waker)
}

// ExecutorFunc adapts an ordinary function to the Executor interface,
// e.g. to post resumption onto an external event loop:
//
//	rpcq.New(src).Executor(rpcq.ExecutorFunc(func(w rpcq.Waker) {
//	    loop.Post(w.Wake)
//	}))
type ExecutorFunc func(w Waker)

// Execute calls f(w).
func (f ExecutorFunc) Execute(w Waker) { f(w) }

// InlineExecutor resumes the consumer synchronously on the producer's
// goroutine. Cheapest strategy; the poller loop is blocked for as long
// as the resumed consumer runs before its next suspension point.
type InlineExecutor struct{}

// Execute runs w.Wake on the calling goroutine.
func (InlineExecutor) Execute(w Waker) { w.Wake() }

// GoExecutor resumes the consumer on a fresh goroutine, keeping the
// poller loop free to block on the next completion immediately.
type GoExecutor struct{}

// Execute runs w.Wake on a new goroutine.
func (GoExecutor) Execute(w Waker) { go w.Wake() }
