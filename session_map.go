/*
   Copyright (c) 2023, btnmasher
   All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

package debugirc

import (
	"github.com/btnmasher/debugircd/shared/concurrentmap"
)

// SessionMap tracks live sessions keyed by remote address so that
// shutdown can tear down connections still in flight.
type SessionMap = concurrentmap.ConcurrentMap[string, *Session]

// NewSessionMap initializes and returns a new SessionMap instance.
func NewSessionMap() SessionMap {
	return concurrentmap.New[string, *Session]()
}
