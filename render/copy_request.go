// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "github.com/gogpu/compositor/geom"

// CopyResult is delivered to a CopyRequest callback.
// An empty result means the request could not be serviced.
type CopyResult struct {
	Rect  geom.Rect
	Empty bool
}

// CopyRequest asks for the pixels of a render pass once it is drawn.
type CopyRequest struct {
	// Source identifies the requester for logging.
	Source string

	// Area restricts the copy to a sub-rect of the pass, if non-empty.
	Area geom.Rect

	callback func(CopyResult)
	done     bool
}

// NewCopyRequest creates a request whose result is delivered to fn.
func NewCopyRequest(source string, fn func(CopyResult)) *CopyRequest {
	return &CopyRequest{Source: source, callback: fn}
}

// SendResult delivers a result. Only the first call has an effect.
func (r *CopyRequest) SendResult(res CopyResult) {
	if r.done {
		return
	}
	r.done = true
	if r.callback != nil {
		r.callback(res)
	}
}

// SendEmptyResult reports that the request will never be serviced.
func (r *CopyRequest) SendEmptyResult() {
	r.SendResult(CopyResult{Empty: true})
}

// IsDone reports whether a result was sent.
func (r *CopyRequest) IsDone() bool {
	return r.done
}
