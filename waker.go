// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpcq

// Waker is the wake handle of a parked consumer. A producer that hands a
// completion to a parked consumer extracts its Waker and passes it to the
// Executor, which must eventually call Wake exactly once.
type Waker interface {
	// Wake resumes the parked consumer. One-shot: a Waker is consumed by
	// the handoff that extracted it and must not be invoked again.
	Wake()
}

// WakerFunc adapts an ordinary function to the Waker interface.
type WakerFunc func()

// Wake calls f().
func (f WakerFunc) Wake() { f() }

// chanWaker is the wake handle used by the blocking Await helper. A fresh
// channel is allocated per park, so Wake's close is always one-shot.
type chanWaker struct {
	ch chan struct{}
}

func newChanWaker() *chanWaker {
	return &chanWaker{ch: make(chan struct{})}
}

func (w *chanWaker) Wake() { close(w.ch) }

func (w *chanWaker) wait() { <-w.ch }
