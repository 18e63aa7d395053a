// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpcq_test

import (
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/rpcq"
)

// countHandler counts lifecycle callbacks. onProcess, when set, runs on
// every Process call with the request being driven.
type countHandler struct {
	processed atomix.Int64
	cloned    atomix.Int64
	onProcess func(r *rpcq.Request)
}

func (h *countHandler) Process(r *rpcq.Request) {
	h.processed.Add(1)
	if h.onProcess != nil {
		h.onProcess(r)
	}
}

func (h *countHandler) Clone(r *rpcq.Request) {
	h.cloned.Add(1)
}

// releaseHandler upgrades countHandler with a counting Release override.
type releaseHandler struct {
	countHandler
	released atomix.Int64
}

func (h *releaseHandler) Release(r *rpcq.Request) {
	h.released.Add(1)
}

// failHandler upgrades countHandler with a counting Fail override.
type failHandler struct {
	countHandler
	failed atomix.Int64
}

func (h *failHandler) Fail(r *rpcq.Request) {
	h.failed.Add(1)
}

// poolHandler recycles released requests via Reset, emulating a pool.
type poolHandler struct {
	countHandler
	released atomix.Int64
}

func (h *poolHandler) Release(r *rpcq.Request) {
	h.released.Add(1)
	r.Reset()
}

// countExec counts handoff wakes, delegating to next (or waking inline).
type countExec struct {
	calls atomix.Int64
	next  rpcq.Executor
}

func (e *countExec) Execute(w rpcq.Waker) {
	e.calls.Add(1)
	if e.next != nil {
		e.next.Execute(w)
		return
	}
	w.Wake()
}

// recorder captures shutdown ordering across collaborators.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// recordSource wraps a RingSource, recording Shutdown calls.
type recordSource struct {
	*rpcq.RingSource
	rec *recorder
}

func (s *recordSource) Shutdown() {
	s.rec.record("source")
	s.RingSource.Shutdown()
}

// waitFor spins with adaptive backoff until cond holds.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	backoff := iox.Backoff{}
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for condition")
		}
		backoff.Wait()
	}
}

// stressN scales an iteration count down under the race detector.
func stressN(n int) int {
	if rpcq.RaceEnabled {
		return n / 10
	}
	return n
}
