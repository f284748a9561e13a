/*
   Copyright (c) 2023, btnmasher
   All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

package debugirc

// RFC 2812/1459 numerics, limited to the subset this server emits.
const (
	ReplyWelcome        uint16 = 1
	ReplyYourHost       uint16 = 2
	ReplyCreated        uint16 = 3
	ReplyMyInfo         uint16 = 4
	ReplyEndOfWho       uint16 = 315
	ReplyListStart      uint16 = 321
	ReplyList           uint16 = 322
	ReplyEndOfList      uint16 = 323
	ReplyMOTD           uint16 = 372
	ReplyMOTDStart      uint16 = 375
	ReplyNoSuchChannel  uint16 = 403
	ReplyUnknownCommand uint16 = 421
)
