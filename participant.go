/*
   Copyright (c) 2023, btnmasher
   All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

package debugirc

// Participant is the sink side of the chat: anything that can accept
// delivery of a framed Message. Deliver must only enqueue, never block
// on I/O, and must be safe to call from any goroutine. Sessions are the
// only network-backed implementation; the hub and channels never know
// the concrete type behind the interface.
type Participant interface {
	Deliver(msg *Message)
}
