/*
   Copyright (c) 2023, btnmasher
   All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

package debugirc

// Error is a workaround to allow for immutable error strings
// which satisfy the error interface.
type Error string

func (err Error) Error() string {
	return string(err)
}

func (err Error) String() string {
	return string(err)
}

// Immutable error strings
const (
	ErrServerClosed    Error = "debugirc: server closed"
	ErrServerStarted   Error = "debugirc: server already started"
	ErrAutoJoinUnknown Error = "debugirc: auto-join channel is not configured"
	ErrBadChannelName  Error = "debugirc: channel name must begin with '#'"
	ErrNilLogger       Error = "debugirc: logger must not be nil"
	ErrNilAuthPolicy   Error = "debugirc: auth policy must not be nil"
	ErrBadDuration     Error = "debugirc: duration must be positive"
)
