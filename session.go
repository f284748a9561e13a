/*
   Copyright (c) 2023, btnmasher
   All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

package debugirc

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RegisterTimeout sets how long a connection may sit unregistered
// before it is torn down.
const RegisterTimeout time.Duration = 5 * time.Second

// PingInterval sets the idle duration after which the server probes
// the client with a PING.
const PingInterval time.Duration = 300 * time.Second

// PingGrace sets how long the server waits for a PONG after sending a
// liveness probe.
const PingGrace time.Duration = 30 * time.Second

// Session represents the server side of one client connection: the
// protocol state machine driving registration, command dispatch,
// liveness, and teardown.
//
// The embedded lock guards the registration and liveness state. The
// write queue and the drain-then-close flag have their own mutex so
// that Deliver never contends with command handling; writeSync is a
// leaf lock and nothing is called while holding it.
type Session struct {
	sync.RWMutex

	// chat is the hub on which the connection arrived.
	// Immutable; never nil.
	chat *Chat

	// sock is the underlying network connection.
	sock net.Conn

	// remAddr is sock.RemoteAddr().String(). It is populated in Start,
	// as some implementations block in RemoteAddr.
	remAddr string

	log *logrus.Entry

	incoming *bufio.Scanner

	nick     string
	password string

	initialized bool
	authorized  bool
	pingSent    bool

	activeChannels map[string]struct{}

	registerTimeout   *time.Timer
	connectionTimeout *time.Timer

	writeSync         sync.Mutex
	writeQueue        []*Message
	closingConnection bool

	// onCleanup, when set before Start, runs once at the end of
	// Cleanup. The server uses it to drop the session registry entry.
	onCleanup func(*Session)
}

// NewSession initializes a Session for an accepted connection. The
// session does nothing until Start is called.
func NewSession(chat *Chat, sock net.Conn) *Session {
	return &Session{
		chat:           chat,
		sock:           sock,
		incoming:       bufio.NewScanner(sock),
		activeChannels: make(map[string]struct{}),
		log:            chat.logger.WithField("component", "session"),
	}
}

// Nick returns the nickname collected during registration in a
// concurrency safe manner.
func (sess *Session) Nick() string {
	sess.RLock()
	defer sess.RUnlock()

	return sess.nick
}

// RemoteAddr returns the remote address of the connection. Valid after
// Start.
func (sess *Session) RemoteAddr() string {
	sess.RLock()
	defer sess.RUnlock()

	return sess.remAddr
}

// Start joins the session to the hub's participant set, arms the
// registration deadline, and readies the read loop. It does not block;
// the caller drives the read loop next.
func (sess *Session) Start() {
	sess.Lock()
	sess.initialized = true
	sess.remAddr = sess.sock.RemoteAddr().String()
	sess.log = sess.log.WithField("remote", sess.remAddr)
	sess.registerTimeout = time.AfterFunc(sess.chat.registerTimeout, sess.handleRegisterTimeout)
	sess.Unlock()

	sess.log.Debug("session started")

	sess.chat.Join(sess)
	metricSessionsActive.Inc()
}

// Deliver places the message onto the session's write queue and, when
// no write is already in flight, launches the writer. Empty messages
// are dropped silently. Safe to call from any goroutine.
func (sess *Session) Deliver(msg *Message) {
	if msg.Empty() {
		return
	}

	sess.writeSync.Lock()
	writeInProgress := len(sess.writeQueue) > 0
	sess.writeQueue = append(sess.writeQueue, msg)
	sess.writeSync.Unlock()

	if !writeInProgress {
		go sess.writeLoop()
	}
}

// writeLoop drains the write queue one message at a time. The message
// at the front stays queued while its write is outstanding, so Deliver
// can tell a write is in flight from a non-empty queue. Exactly one
// writeLoop runs per session at any moment.
func (sess *Session) writeLoop() {
	for {
		sess.writeSync.Lock()
		if len(sess.writeQueue) == 0 {
			sess.writeSync.Unlock()
			return
		}
		msg := sess.writeQueue[0]
		sess.writeSync.Unlock()

		if _, err := io.WriteString(sess.sock, msg.String()); err != nil {
			sess.log.Debugf("write failed: %s", err)
			sess.Cleanup()
			return
		}

		metricMessagesDelivered.Inc()
		sess.log.Debugf("[SERVER]->[%s]: %q", sess.remAddr, msg.String())

		sess.writeSync.Lock()
		sess.writeQueue = sess.writeQueue[1:]
		drained := len(sess.writeQueue) == 0
		closing := sess.closingConnection
		sess.writeSync.Unlock()

		if drained {
			if closing {
				sess.Cleanup()
			}
			return
		}
	}
}

// setClosing flags the session to close once the write queue drains.
func (sess *Session) setClosing() {
	sess.writeSync.Lock()
	defer sess.writeSync.Unlock()

	sess.closingConnection = true
}

// readLoop consumes newline-terminated lines until the connection
// errors or closes. A trailing '\r' is stripped by the scanner. Any
// read error resolves to Cleanup.
func (sess *Session) readLoop() {
	for sess.incoming.Scan() {
		line := sess.incoming.Text()
		sess.log.Debugf("[%s]->[SERVER]: %s", sess.remAddr, line)
		sess.handleCommand(line)
		if !sess.running() {
			break
		}
	}

	if err := sess.incoming.Err(); err != nil {
		sess.log.Debugf("read failed: %s", err)
	}

	sess.Cleanup()
}

func (sess *Session) running() bool {
	sess.RLock()
	defer sess.RUnlock()

	return sess.initialized
}

// handleCommand splits one inbound line into command and data and
// dispatches it through the table matching the registration state.
func (sess *Session) handleCommand(line string) {
	if line == EMPTY {
		return
	}

	command, data := splitCommand(line)

	table := registrationHandlers
	if sess.isAuthorized() {
		table = messageHandlers
	}

	handler, exists := table[command]
	if !exists {
		handler = (*Session).cmdUnknown
	}

	sess.Deliver(NewMessage(handler(sess, command, data)))
}

func (sess *Session) isAuthorized() bool {
	sess.RLock()
	defer sess.RUnlock()

	return sess.authorized
}

// authorize runs the hub's auth policy against the collected
// credentials. Success cancels the registration deadline, arms the
// liveness timer, and delivers the welcome banner in one chunk;
// failure tears the connection down without a reply.
func (sess *Session) authorize() {
	sess.RLock()
	nick, password := sess.nick, sess.password
	sess.RUnlock()

	if !sess.chat.Authorize(nick, password) {
		sess.log.Infof("authorization failed for %q", nick)
		sess.Cleanup()
		return
	}

	sess.Lock()
	sess.authorized = true
	sess.registerTimeout.Stop()
	sess.connectionTimeout = time.AfterFunc(sess.chat.pingInterval, sess.handleConnectionTimeout)
	sess.Unlock()

	serverName := sess.chat.ServerName()

	buffer := bufpool.New()
	defer bufpool.Recycle(buffer)

	sess.serverNumeric(buffer, ReplyWelcome)
	buffer.WriteString(":Hi " + nick + NEWLINE)
	sess.serverNumeric(buffer, ReplyYourHost)
	buffer.WriteString(":Your host is " + serverName + ", running version 0.0.0" + NEWLINE)
	sess.serverNumeric(buffer, ReplyCreated)
	buffer.WriteString(":This server was created 0" + NEWLINE)
	sess.serverNumeric(buffer, ReplyMyInfo)
	buffer.WriteString(":" + serverName + " 0.0.0 - n" + NEWLINE)
	sess.serverNumeric(buffer, ReplyMOTDStart)
	buffer.WriteString(":- " + serverName + " " + sess.chat.MOTDStart() + " -" + NEWLINE)
	sess.serverNumeric(buffer, ReplyMOTD)
	buffer.WriteString(":- " + sess.chat.MOTD() + NEWLINE)

	if autoJoin := sess.chat.AutoJoin(); autoJoin != EMPTY {
		if sess.chat.JoinChannel(autoJoin, sess) {
			sess.Lock()
			sess.activeChannels[autoJoin] = struct{}{}
			sess.Unlock()

			sess.userCommand(buffer, CmdJoin)
			buffer.WriteString(autoJoin + " :" + autoJoin + NEWLINE)
		}
	}

	sess.log.Infof("registered %q", nick)
	sess.Deliver(NewMessage(buffer.String()))
}

// handleRegisterTimeout fires when the registration deadline lapses. A
// session that authorized in the meantime treats the firing as
// cancelled.
func (sess *Session) handleRegisterTimeout() {
	sess.RLock()
	expired := sess.initialized && !sess.authorized
	sess.RUnlock()

	if !expired {
		return
	}

	sess.log.Info("registration timeout")
	metricTimeouts.WithLabelValues("registration").Inc()

	sess.setClosing()
	sess.Deliver(NewMessage("ERROR: registration timeout" + NEWLINE))
}

// handleConnectionTimeout implements the two-phase liveness check: on
// the first firing it sends a probe and re-arms for the grace window;
// on a firing with the probe still outstanding it drains and closes.
func (sess *Session) handleConnectionTimeout() {
	sess.Lock()
	if !sess.initialized {
		sess.Unlock()
		return
	}

	if sess.pingSent {
		sess.Unlock()

		sess.log.Info("connection timeout")
		metricTimeouts.WithLabelValues("liveness").Inc()

		sess.setClosing()
		sess.Deliver(NewMessage("ERROR: connection timeout" + NEWLINE))
		return
	}

	sess.pingSent = true
	sess.connectionTimeout.Reset(sess.chat.pingGrace)
	sess.Unlock()

	sess.Deliver(NewMessage(CmdPing + " :" + sess.chat.ServerName() + NEWLINE))
}

// Cleanup leaves every joined channel, leaves the hub, and closes the
// socket. It is idempotent; every per-connection fault funnels here.
func (sess *Session) Cleanup() {
	sess.Lock()
	if !sess.initialized {
		sess.Unlock()
		return
	}
	sess.initialized = false

	channels := make([]string, 0, len(sess.activeChannels))
	for name := range sess.activeChannels {
		channels = append(channels, name)
	}
	sess.activeChannels = make(map[string]struct{})

	if sess.registerTimeout != nil {
		sess.registerTimeout.Stop()
	}
	if sess.connectionTimeout != nil {
		sess.connectionTimeout.Stop()
	}
	sess.Unlock()

	for _, name := range channels {
		sess.chat.LeaveChannel(name, sess)
	}
	sess.chat.Leave(sess)

	if err := sess.sock.Close(); err != nil {
		sess.log.Debugf("error closing socket: %s", err)
	}

	metricSessionsActive.Dec()
	sess.log.Debug("session cleaned up")

	if sess.onCleanup != nil {
		sess.onCleanup(sess)
	}
}

// serverNumeric writes ":<server> <code> <nick> " to the buffer.
func (sess *Session) serverNumeric(buffer *bytes.Buffer, code uint16) {
	buffer.WriteString(COLON)
	buffer.WriteString(sess.chat.ServerName())
	buffer.WriteString(SPACE)
	fmt.Fprintf(buffer, PADNUM, code)
	buffer.WriteString(SPACE)
	buffer.WriteString(sess.Nick())
	buffer.WriteString(SPACE)
}

// serverCommand writes ":<server> <command> " to the buffer.
func (sess *Session) serverCommand(buffer *bytes.Buffer, command string) {
	buffer.WriteString(COLON)
	buffer.WriteString(sess.chat.ServerName())
	buffer.WriteString(SPACE)
	buffer.WriteString(command)
	buffer.WriteString(SPACE)
}

// userCommand writes ":<nick>!<nick> <command> " to the buffer.
func (sess *Session) userCommand(buffer *bytes.Buffer, command string) {
	nick := sess.Nick()
	buffer.WriteString(COLON)
	buffer.WriteString(nick)
	buffer.WriteString("!")
	buffer.WriteString(nick)
	buffer.WriteString(SPACE)
	buffer.WriteString(command)
	buffer.WriteString(SPACE)
}

// splitCommand splits an inbound line at the first space into the
// command and the remainder.
func splitCommand(line string) (command, data string) {
	if pos := strings.IndexByte(line, ' '); pos >= 0 {
		return line[:pos], line[pos+1:]
	}
	return line, EMPTY
}

// splitChannelMessage extracts the channel token and the trailing text
// from PRIVMSG/PART data. Data that does not begin with '#' yields two
// empty strings.
func splitChannelMessage(data string) (channel, message string) {
	if data == EMPTY || data[0] != '#' {
		return EMPTY, EMPTY
	}

	pos := strings.IndexByte(data, ' ')
	if pos < 0 {
		return data, EMPTY
	}

	channel = data[:pos]
	if colon := strings.IndexByte(data[pos+1:], ':'); colon >= 0 {
		message = data[pos+1+colon+1:]
	}
	return channel, message
}
