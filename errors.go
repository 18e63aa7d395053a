// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rpcq

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For Next: no completed request is pending (suspend or retry later)
// For Park: a pending batch appeared concurrently (drain instead of parking)
// For RingSource.Post: the completion ring is full (backpressure)
//
// ErrWouldBlock is a control flow signal, not a failure. The caller should
// retry, drain, or park rather than propagating the error.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
//
// Example:
//
//	for {
//	    r, err := svc.Next()
//	    if rpcq.IsWouldBlock(err) {
//	        r, err = svc.Await() // Suspend until the next completion
//	    }
//	    if err != nil {
//	        break // ErrClosed: bridge stopped
//	    }
//	    r.Proceed()
//	}
var ErrWouldBlock = iox.ErrWouldBlock

// ErrClosed indicates the bridge or its completion source has shut down.
//
// Returned by Next/Await after Stop, and by RingSource.Post after
// Shutdown. Unlike ErrWouldBlock this is terminal: no retry will succeed.
var ErrClosed = errors.New("rpcq: closed")

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil or ErrWouldBlock. ErrClosed is a failure.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
