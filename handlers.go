/*
   Copyright (c) 2023, btnmasher
   All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

package debugirc

// sessionHandler defines the function signature of a handler used to
// process one parsed command. The returned text, when non-empty, is
// delivered back to the issuing session.
type sessionHandler func(sess *Session, command, data string) string

// registrationHandlers dispatches commands received before the client
// has authorized. Everything else is answered with a 421.
var registrationHandlers = map[string]sessionHandler{
	CmdNick: (*Session).cmdNick,
	CmdPass: (*Session).cmdPass,
	CmdUser: (*Session).cmdUser,
}

// messageHandlers dispatches commands received after authorization.
var messageHandlers = map[string]sessionHandler{
	CmdMode:    (*Session).cmdIgnore,
	CmdNotice:  (*Session).cmdIgnore,
	CmdQuit:    (*Session).cmdQuit,
	CmdPing:    (*Session).cmdPing,
	CmdPong:    (*Session).cmdPong,
	CmdJoin:    (*Session).cmdJoin,
	CmdPart:    (*Session).cmdPart,
	CmdList:    (*Session).cmdList,
	CmdWho:     (*Session).cmdWho,
	CmdPrivMsg: (*Session).cmdPrivMsg,
}

// cmdIgnore accepts a command and does nothing with it.
func (sess *Session) cmdIgnore(_, _ string) string {
	return EMPTY
}

// cmdUnknown answers any command outside the dispatch tables.
//
//	:<server> 421 <nick> <cmd> :Command <cmd> is unknown or unsupported
func (sess *Session) cmdUnknown(command, _ string) string {
	buffer := bufpool.New()
	defer bufpool.Recycle(buffer)

	sess.serverNumeric(buffer, ReplyUnknownCommand)
	buffer.WriteString(command)
	buffer.WriteString(" :Command ")
	buffer.WriteString(command)
	buffer.WriteString(" is unknown or unsupported")
	buffer.WriteString(NEWLINE)

	return buffer.String()
}

// cmdNick stores the remainder of the line as the nickname.
func (sess *Session) cmdNick(_, data string) string {
	sess.Lock()
	defer sess.Unlock()

	sess.nick = data
	return EMPTY
}

// cmdPass stores the remainder of the line as the password.
func (sess *Session) cmdPass(_, data string) string {
	sess.Lock()
	defer sess.Unlock()

	sess.password = data
	return EMPTY
}

// cmdUser completes registration by running the auth policy. The
// parameters are not inspected; the credentials of interest were
// collected by NICK and PASS.
func (sess *Session) cmdUser(_, _ string) string {
	sess.authorize()
	return EMPTY
}

// cmdQuit tears the session down immediately.
func (sess *Session) cmdQuit(_, _ string) string {
	sess.log.Debug("client quit")
	sess.Cleanup()
	return EMPTY
}

// cmdPing answers the client's keepalive and, when no server probe is
// outstanding, treats the traffic as proof of liveness.
//
//	:<server> PONG <server> :<token>
func (sess *Session) cmdPing(_, data string) string {
	buffer := bufpool.New()
	defer bufpool.Recycle(buffer)

	sess.serverCommand(buffer, CmdPong)
	buffer.WriteString(sess.chat.ServerName())
	buffer.WriteString(SPACE)
	buffer.WriteString(COLON)
	buffer.WriteString(data)
	buffer.WriteString(NEWLINE)

	sess.Lock()
	if !sess.pingSent && sess.connectionTimeout != nil {
		sess.connectionTimeout.Reset(sess.chat.pingInterval)
	}
	sess.Unlock()

	return buffer.String()
}

// cmdPong clears an outstanding liveness probe and re-arms the idle
// timer. Unsolicited PONGs are ignored.
func (sess *Session) cmdPong(_, _ string) string {
	sess.Lock()
	defer sess.Unlock()

	if sess.pingSent {
		sess.pingSent = false
		sess.connectionTimeout.Reset(sess.chat.pingInterval)
	}
	return EMPTY
}

// cmdJoin adds the session to a channel. Joining a channel the session
// is already in re-echoes the JOIN; anything else is a 403. The 403
// carries the client's nick in the sender position.
func (sess *Session) cmdJoin(_, data string) string {
	buffer := bufpool.New()
	defer bufpool.Recycle(buffer)

	if len(data) > 1 && data[0] == '#' && sess.chat.JoinChannel(data, sess) {
		sess.Lock()
		sess.activeChannels[data] = struct{}{}
		sess.Unlock()

		sess.userCommand(buffer, CmdJoin)
		buffer.WriteString(data + " :" + data + NEWLINE)
		return buffer.String()
	}

	if sess.inChannel(data) {
		sess.userCommand(buffer, CmdJoin)
		buffer.WriteString(data + " :" + data + NEWLINE)
		return buffer.String()
	}

	buffer.WriteString(COLON + sess.Nick() + " 403 " + data + " :No such channel" + NEWLINE)
	return buffer.String()
}

// cmdPart removes the session from a channel. Leaving a channel the
// session never joined still echoes the PART; only a malformed channel
// token earns a 403.
func (sess *Session) cmdPart(_, data string) string {
	buffer := bufpool.New()
	defer bufpool.Recycle(buffer)

	channel, reason := splitChannelMessage(data)
	if channel == EMPTY {
		buffer.WriteString(COLON + sess.Nick() + " 403 " + data + " :No such channel" + NEWLINE)
		return buffer.String()
	}

	sess.userCommand(buffer, CmdPart)
	buffer.WriteString(channel)
	if reason != EMPTY {
		buffer.WriteString(" :" + reason)
	}
	buffer.WriteString(NEWLINE)

	sess.chat.LeaveChannel(channel, sess)

	sess.Lock()
	delete(sess.activeChannels, channel)
	sess.Unlock()

	return buffer.String()
}

// cmdList renders the channel listing. The member count is reported as
// the literal 999.
//
//	:<server> 321 <nick> Channel :Users  Name
//	:<server> 322 <nick> <name> 999 :<title>
//	:<server> 323 <nick> :End of /LIST
func (sess *Session) cmdList(_, _ string) string {
	buffer := bufpool.New()
	defer bufpool.Recycle(buffer)

	sess.serverNumeric(buffer, ReplyListStart)
	buffer.WriteString("Channel :Users  Name" + NEWLINE)

	sess.chat.VisitChannels(func(channel *Channel) {
		sess.serverNumeric(buffer, ReplyList)
		buffer.WriteString(channel.Name())
		buffer.WriteString(" 999 :")
		buffer.WriteString(channel.Title())
		buffer.WriteString(NEWLINE)
	})

	sess.serverNumeric(buffer, ReplyEndOfList)
	buffer.WriteString(":End of /LIST" + NEWLINE)

	return buffer.String()
}

// cmdWho answers with only the end-of-list terminator.
//
//	:<server> 315 <nick> <target> :End of /WHO list.
func (sess *Session) cmdWho(_, data string) string {
	buffer := bufpool.New()
	defer bufpool.Recycle(buffer)

	sess.serverNumeric(buffer, ReplyEndOfWho)
	buffer.WriteString(data)
	buffer.WriteString(" :End of /WHO list.")
	buffer.WriteString(NEWLINE)

	return buffer.String()
}

// cmdPrivMsg hands channel traffic to the host's message handler. Each
// reply the handler emits through the callback is formatted as a
// server-originated PRIVMSG on the same channel and delivered to this
// session only. Malformed data is dropped.
func (sess *Session) cmdPrivMsg(_, data string) string {
	if data == EMPTY {
		return EMPTY
	}

	handler := sess.chat.MessageHandler()
	if handler == nil {
		return EMPTY
	}

	channel, text := splitChannelMessage(data)
	if channel == EMPTY || text == EMPTY {
		return EMPTY
	}

	handler.Handle(sess.Nick(), channel, text, func(reply string) {
		if reply == EMPTY {
			return
		}

		buffer := bufpool.New()
		defer bufpool.Recycle(buffer)

		sess.serverCommand(buffer, CmdPrivMsg)
		buffer.WriteString(channel)
		buffer.WriteString(SPACE)
		buffer.WriteString(COLON)
		buffer.WriteString(reply)
		buffer.WriteString(NEWLINE)

		sess.Deliver(NewMessage(buffer.String()))
	})

	return EMPTY
}

func (sess *Session) inChannel(name string) bool {
	sess.RLock()
	defer sess.RUnlock()

	_, exists := sess.activeChannels[name]
	return exists
}
