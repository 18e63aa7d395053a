// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpcq_test

import (
	"fmt"

	"code.hybscloud.com/rpcq"
)

// unaryEcho is a minimal method handler: it answers one call and
// completes, registering a replacement slot via Clone.
type unaryEcho struct {
	slots int
}

func (h *unaryEcho) Clone(r *rpcq.Request) {
	h.slots++
}

func (h *unaryEcho) Process(r *rpcq.Request) {
	fmt.Println("echo:", r.Context().Peer)
	r.Complete()
}

// Example demonstrates the full path: a completion arrives on the
// source, the poller hands the request to the consumer, and the consumer
// drives its lifecycle to completion.
func Example() {
	src := rpcq.NewRingSource(16)
	svc := rpcq.New(src).Build()
	_ = svc.Start()

	h := &unaryEcho{}
	r := rpcq.NewRequest(svc, h)
	r.Context().Peer = "10.0.0.1:50051"
	_ = src.Post(r, true) // the call arrived

	got, _ := svc.Await()
	got.Proceed() // clone a fresh slot, then answer
	got.Proceed() // completed: released here

	svc.Stop()
	fmt.Println("slots re-armed:", h.slots)

	// Output:
	// echo: 10.0.0.1:50051
	// slots re-armed: 1
}

// ExampleService_Next demonstrates the non-blocking consumer fast path.
func ExampleService_Next() {
	src := rpcq.NewRingSource(16)
	svc := rpcq.New(src).Build()
	_ = svc.Start()

	if _, err := svc.Next(); rpcq.IsWouldBlock(err) {
		fmt.Println("nothing pending")
	}

	svc.Stop()
	if _, err := svc.Next(); err != nil {
		fmt.Println(err)
	}

	// Output:
	// nothing pending
	// rpcq: closed
}

// ExampleHandoff demonstrates the queue outside a service: any number of
// producers hand requests to one consumer.
func ExampleHandoff() {
	q := rpcq.NewHandoff(rpcq.InlineExecutor{})
	h := &unaryEcho{}

	a := rpcq.NewRequest(nil, h)
	a.Context().Peer = "a"
	b := rpcq.NewRequest(nil, h)
	b.Context().Peer = "b"
	q.Enqueue(a)
	q.Enqueue(b)

	for q.Ready() {
		r, _ := q.Next()
		fmt.Println("popped:", r.Context().Peer)
	}

	// Output:
	// popped: a
	// popped: b
}
