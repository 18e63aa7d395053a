// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpcq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
	"github.com/joeycumines/logiface"
)

// Service lifecycle states.
const (
	stateIdle uint64 = iota
	stateRunning
	stateStopping
	stateStopped
)

// Service bridges a blocking completion source to one logical consumer.
//
// A single dedicated poller goroutine blocks on the source, feeding each
// successful completion into the handoff queue and routing each failed
// one to Request.Fail. The consumer side obtains requests through the
// suspension protocol: Next for the synchronous fast path, Park to
// suspend, or the blocking Await helper.
//
// Exactly one goroutine may consume at a time; concurrent consumers are
// a usage error detected best-effort (see Handoff.Park).
type Service struct {
	q     *Handoff
	src   CompletionSource
	host  Host
	log   *logiface.Logger[logiface.Event]
	state atomix.Uint64
	done  chan struct{}
}

// Start spawns the poller goroutine. Returns ErrClosed if the service
// has already been started or stopped.
func (s *Service) Start() error {
	if !s.state.CompareAndSwapAcqRel(stateIdle, stateRunning) {
		return ErrClosed
	}
	s.log.Info().Log("rpcq: poller started")
	go s.poll()
	return nil
}

// Stop signals shutdown and joins the poller: the host is shut down
// first, then the completion source, which makes the blocking Next
// return closed within one call. A parked waiter is released afterwards
// and observes ErrClosed. Idempotent; a never-started service may also
// be stopped. A Stop that races another Stop waits until the winning
// call has finished tearing down before returning.
func (s *Service) Stop() {
	if s.state.CompareAndSwapAcqRel(stateIdle, stateStopping) {
		// Never started: no poller to join.
		s.shutdown()
		close(s.done)
		s.state.StoreRelease(stateStopped)
		s.releaseWaiter()
		return
	}
	if s.state.CompareAndSwapAcqRel(stateRunning, stateStopping) {
		s.shutdown()
		<-s.done
		s.state.StoreRelease(stateStopped)
		s.releaseWaiter()
		s.log.Info().Log("rpcq: poller stopped")
		return
	}
	// Lost the race to another Stop: its teardown may still be in
	// flight, so join it before returning.
	<-s.done
	sw := spin.Wait{}
	for s.state.LoadAcquire() != stateStopped {
		sw.Once()
	}
}

// releaseWaiter wakes a parked consumer after the stopped state is
// published, so it loops back into Next and observes ErrClosed.
func (s *Service) releaseWaiter() {
	if w := s.q.cancelPark(); w != nil {
		w.Wake()
	}
}

func (s *Service) shutdown() {
	if s.host != nil {
		s.host.Shutdown()
	}
	s.src.Shutdown()
}

// poll is the dedicated poller loop: one blocking retrieval at a time,
// success into the handoff queue, failure delivered eagerly.
func (s *Service) poll() {
	defer close(s.done)
	for {
		ev, ok := s.src.Next()
		if !ok {
			s.log.Debug().Log("rpcq: completion source closed")
			return
		}
		if ev.Tag == nil {
			continue
		}
		if ev.OK {
			s.q.Enqueue(ev.Tag)
		} else {
			// Shutdown/cancellation needs no re-arming step: bypass the
			// queue, tear down now.
			s.log.Debug().Log("rpcq: failed tag")
			ev.Tag.Fail()
		}
	}
}

// Ready reports whether Next would return a request without suspending.
func (s *Service) Ready() bool {
	return s.q.Ready()
}

// Next returns the next completed request in FIFO batch order,
// non-blocking. Returns ErrWouldBlock when nothing is pending yet, and
// ErrClosed once the service has stopped and everything delivered before
// the stop has been consumed.
func (s *Service) Next() (*Request, error) {
	r, err := s.q.Next()
	if err == nil {
		return r, nil
	}
	if s.state.LoadAcquire() == stateStopped {
		// The stop joined the poller before the state advanced, so one
		// more drain sees every delivery that preceded it.
		if r, err = s.q.Next(); err == nil {
			return r, nil
		}
		return nil, ErrClosed
	}
	return nil, ErrWouldBlock
}

// Park registers w as the parked waiter, to be woken through the
// configured Executor by the next completion. Returns ErrWouldBlock when
// pending work appeared concurrently: the suspension is aborted and the
// caller resumes via Next immediately. Call only after Next reported
// ErrWouldBlock; a second waiter panics (single-consumer contract).
func (s *Service) Park(w Waker) error {
	return s.q.Park(w)
}

// Await blocks until the next completed request is available, parking a
// channel waker while the queue is empty. Returns ErrClosed once the
// service has stopped and the backlog is fully consumed.
func (s *Service) Await() (*Request, error) {
	for {
		r, err := s.Next()
		if err == nil {
			return r, nil
		}
		if !IsWouldBlock(err) {
			return nil, err
		}

		w := newChanWaker()
		if err = s.Park(w); err != nil {
			continue // a batch appeared while registering
		}
		if s.state.LoadAcquire() == stateStopped && s.q.cancelPark() != nil {
			// Stop finished between the closed check and the park; the
			// marker was reclaimed here, so nobody else will wake it.
			continue
		}
		w.wait()
	}
}

// Handoff returns the underlying handoff queue, for producers other than
// the poller loop (any number of producer contexts may enqueue).
func (s *Service) Handoff() *Handoff {
	return s.q
}

// Source returns the completion source the poller consumes.
func (s *Service) Source() CompletionSource {
	return s.src
}
