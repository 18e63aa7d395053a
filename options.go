// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpcq

import (
	"unsafe"

	"github.com/joeycumines/logiface"
)

// Options configures service construction.
type Options struct {
	src  CompletionSource
	host Host
	exec Executor
	log  *logiface.Logger[logiface.Event]
}

// Builder creates services with fluent configuration.
//
// Example:
//
//	src := rpcq.NewRingSource(1024)
//	svc := rpcq.New(src).
//	    Host(host).
//	    Executor(rpcq.GoExecutor{}).
//	    Build()
type Builder struct {
	opts Options
}

// New creates a service builder for the given completion source.
// Panics if src is nil.
func New(src CompletionSource) *Builder {
	if src == nil {
		panic("rpcq: nil completion source")
	}
	return &Builder{opts: Options{src: src}}
}

// Host sets the server behind the completion source; Stop shuts it down
// before the source. Optional.
func (b *Builder) Host(h Host) *Builder {
	b.opts.host = h
	return b
}

// Executor sets the resumption strategy for parked consumers.
// Defaults to InlineExecutor (resume on the poller goroutine).
func (b *Builder) Executor(e Executor) *Builder {
	b.opts.exec = e
	return b
}

// Logger sets an optional structured logger for lifecycle and
// failure-path events. A nil logger disables logging.
func (b *Builder) Logger(l *logiface.Logger[logiface.Event]) *Builder {
	b.opts.log = l
	return b
}

// Build creates the Service. The service is idle until Start.
func (b *Builder) Build() *Service {
	return &Service{
		q:    NewHandoff(b.opts.exec),
		src:  b.opts.src,
		host: b.opts.host,
		log:  b.opts.log,
		done: make(chan struct{}),
	}
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// ptrSize is the size of a pointer in bytes.
const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padShort is padding to fill cache line after 8-byte field.
type padShort [64 - 8]byte

// padPtr is padding to fill cache line after pointer-sized field.
type padPtr [64 - ptrSize]byte
