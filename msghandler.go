/*
   Copyright (c) 2023, btnmasher
   All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

package debugirc

// SendCallback emits one reply line back to the session that issued the
// PRIVMSG. The reply is formatted as a server-originated PRIVMSG on the
// same channel. A handler may invoke it zero or more times.
type SendCallback func(reply string)

// MessageHandler is the host-supplied interpreter for PRIVMSG text on
// channels. Implementations must tolerate concurrent invocations from
// multiple sessions and must not block.
type MessageHandler interface {
	Handle(username, channel, text string, send SendCallback)
}

// MessageHandlerFunc adapts a plain function to the MessageHandler
// interface.
type MessageHandlerFunc func(username, channel, text string, send SendCallback)

func (f MessageHandlerFunc) Handle(username, channel, text string, send SendCallback) {
	f(username, channel, text, send)
}
