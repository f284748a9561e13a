/*
   Copyright (c) 2023, btnmasher
   All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

package debugirc

// IRC command strings accepted by the server. Commands are matched
// case-sensitively as uppercase.
const (
	CmdNick    = "NICK"
	CmdPass    = "PASS"
	CmdUser    = "USER"
	CmdQuit    = "QUIT"
	CmdPing    = "PING"
	CmdPong    = "PONG"
	CmdJoin    = "JOIN"
	CmdPart    = "PART"
	CmdList    = "LIST"
	CmdWho     = "WHO"
	CmdPrivMsg = "PRIVMSG"
	CmdNotice  = "NOTICE"
	CmdMode    = "MODE"
)
