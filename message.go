/*
   Copyright (c) 2023, btnmasher
   All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

package debugirc

import (
	"github.com/btnmasher/util"
)

// BufferPoolMax sets the bytes.Buffer pool length.
const BufferPoolMax = 1000

// bufpool holds a reference to the global bytes.Buffer object pool
// used when rendering outbound protocol text.
var bufpool = util.NewBufferPool(BufferPoolMax)

// String constants used when rendering protocol text.
const (
	SPACE   string = " "
	COLON          = ":"
	NEWLINE        = "\n"
	EMPTY          = ""
	PADNUM         = "%03d"
)

// Message is an immutable blob of already-framed protocol text, one or
// more lines each terminated by '\n'. A single Message is shared by
// reference across every participant it is delivered to; it is never
// mutated after construction.
type Message struct {
	text string
}

// NewMessage wraps the given framed text in a Message.
func NewMessage(text string) *Message {
	return &Message{text: text}
}

// Empty reports whether the message carries no bytes. Empty messages
// are dropped silently by Deliver.
func (msg *Message) Empty() bool {
	return msg == nil || len(msg.text) == 0
}

// Len returns the number of bytes in the framed text.
func (msg *Message) Len() int {
	if msg == nil {
		return 0
	}
	return len(msg.text)
}

// String returns the framed protocol text. This is here to satisfy a
// Stringer interface.
func (msg *Message) String() string {
	if msg == nil {
		return EMPTY
	}
	return msg.text
}
