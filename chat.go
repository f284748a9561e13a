/*
   Copyright (c) 2023, btnmasher
   All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

package debugirc

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Default hub configuration values.
const (
	DefaultServerName = "debugirc"
	DefaultMOTDStart  = "DebugIRC"
	DefaultMOTD       = "This is debug irc interface for logging and similar tasks"
)

// Chat is the hub: the registry of channels, the global participant
// set, and the server-wide configuration shared by every session.
//
// The configuration scalars are writable only before the acceptor
// starts; the accessors are still concurrency safe so that host
// producers can read them at any time. The channel registry and the
// participant set have independent reader/writer locks; no operation
// ever holds both at once.
type Chat struct {
	sync.RWMutex

	// Configuration related stuff
	serverName string
	motdStart  string
	motd       string
	autoJoin   string
	auth       AuthPolicy
	handler    MessageHandler
	logger     *logrus.Logger

	registerTimeout time.Duration
	pingInterval    time.Duration
	pingGrace       time.Duration

	// Active State
	channelSync sync.RWMutex
	channels    map[string]*Channel

	participantSync sync.RWMutex
	participants    map[Participant]struct{}
}

// NewChat initializes and returns a new instance of a Chat hub with
// the default configuration.
func NewChat() *Chat {
	return &Chat{
		serverName:      DefaultServerName,
		motdStart:       DefaultMOTDStart,
		motd:            DefaultMOTD,
		auth:            DefaultAuthPolicy{},
		logger:          logrus.New(),
		registerTimeout: RegisterTimeout,
		pingInterval:    PingInterval,
		pingGrace:       PingGrace,
		channels:        make(map[string]*Channel),
		participants:    make(map[Participant]struct{}),
	}
}

// ServerName returns the configured server name of the hub in a
// concurrency safe manner.
func (chat *Chat) ServerName() string {
	chat.RLock()
	defer chat.RUnlock()

	return chat.serverName
}

// SetServerName sets the configured server name of the hub. Valid only
// before the acceptor starts.
func (chat *Chat) SetServerName(name string) {
	chat.Lock()
	defer chat.Unlock()

	chat.serverName = name
}

// MOTDStart returns the configured MOTD banner prefix of the hub in a
// concurrency safe manner.
func (chat *Chat) MOTDStart() string {
	chat.RLock()
	defer chat.RUnlock()

	return chat.motdStart
}

// SetMOTDStart sets the configured MOTD banner prefix of the hub.
// Valid only before the acceptor starts.
func (chat *Chat) SetMOTDStart(start string) {
	chat.Lock()
	defer chat.Unlock()

	chat.motdStart = start
}

// MOTD returns the configured MOTD of the hub in a concurrency safe
// manner.
func (chat *Chat) MOTD() string {
	chat.RLock()
	defer chat.RUnlock()

	return chat.motd
}

// SetMOTD sets the configured MOTD of the hub. Valid only before the
// acceptor starts.
func (chat *Chat) SetMOTD(motd string) {
	chat.Lock()
	defer chat.Unlock()

	chat.motd = motd
}

// AutoJoin returns the channel newly registered sessions are joined
// to, or the empty string when none is configured.
func (chat *Chat) AutoJoin() string {
	chat.RLock()
	defer chat.RUnlock()

	return chat.autoJoin
}

// SetAutoJoin sets the channel newly registered sessions are joined
// to. Valid only before the acceptor starts; the channel must exist by
// then.
func (chat *Chat) SetAutoJoin(name string) {
	chat.Lock()
	defer chat.Unlock()

	chat.autoJoin = name
}

// AuthPolicy returns the current auth policy.
func (chat *Chat) AuthPolicy() AuthPolicy {
	chat.RLock()
	defer chat.RUnlock()

	return chat.auth
}

// SetAuthPolicy swaps the auth policy. Valid only before the acceptor
// starts.
func (chat *Chat) SetAuthPolicy(policy AuthPolicy) {
	chat.Lock()
	defer chat.Unlock()

	chat.auth = policy
}

// MessageHandler returns the current host message handler, which may
// be nil.
func (chat *Chat) MessageHandler() MessageHandler {
	chat.RLock()
	defer chat.RUnlock()

	return chat.handler
}

// SetMessageHandler installs the host message handler. Valid only
// before the acceptor starts.
func (chat *Chat) SetMessageHandler(handler MessageHandler) {
	chat.Lock()
	defer chat.Unlock()

	chat.handler = handler
}

// Authorize delegates the registration decision to the configured auth
// policy. A hub without a policy rejects everyone.
func (chat *Chat) Authorize(username, password string) bool {
	policy := chat.AuthPolicy()
	return policy != nil && policy.Authorize(username, password)
}

// AddChannel registers a channel under the given name. A name that is
// already registered keeps its existing channel.
func (chat *Chat) AddChannel(name, title string) {
	chat.channelSync.Lock()
	defer chat.channelSync.Unlock()

	if _, exists := chat.channels[name]; exists {
		return
	}

	chat.channels[name] = NewChannel(name, title)
}

// RemoveChannel drops a channel from the registry. Sessions keep their
// membership entries until they part or clean up; removal only hides
// the channel from lookups.
func (chat *Chat) RemoveChannel(name string) {
	chat.channelSync.Lock()
	defer chat.channelSync.Unlock()

	delete(chat.channels, name)
}

// HasChannel reports whether a channel is registered under the given
// name.
func (chat *Chat) HasChannel(name string) bool {
	chat.channelSync.RLock()
	defer chat.channelSync.RUnlock()

	_, exists := chat.channels[name]
	return exists
}

// VisitChannels calls the visitor for every registered channel. The
// visitor must not mutate the hub. Iteration order is unspecified.
func (chat *Chat) VisitChannels(visitor func(*Channel)) {
	if visitor == nil {
		return
	}

	chat.channelSync.RLock()
	defer chat.channelSync.RUnlock()

	for _, channel := range chat.channels {
		visitor(channel)
	}
}

// Join adds the participant to the hub's global set.
func (chat *Chat) Join(participant Participant) {
	chat.participantSync.Lock()
	defer chat.participantSync.Unlock()

	chat.participants[participant] = struct{}{}
}

// Leave removes the participant from the hub's global set.
func (chat *Chat) Leave(participant Participant) {
	chat.participantSync.Lock()
	defer chat.participantSync.Unlock()

	delete(chat.participants, participant)
}

// JoinChannel adds the participant to the named channel. It returns
// false when the channel is unknown or the participant was already a
// member.
func (chat *Chat) JoinChannel(name string, participant Participant) bool {
	chat.channelSync.RLock()
	defer chat.channelSync.RUnlock()

	channel, exists := chat.channels[name]
	if !exists {
		return false
	}

	return channel.Join(participant)
}

// LeaveChannel removes the participant from the named channel. Unknown
// channels are a silent no-op.
func (chat *Chat) LeaveChannel(name string, participant Participant) {
	chat.channelSync.RLock()
	defer chat.channelSync.RUnlock()

	channel, exists := chat.channels[name]
	if !exists {
		return
	}

	channel.Leave(participant)
}

// DeliverAll fans already-framed text out to every participant in the
// global set.
func (chat *Chat) DeliverAll(text string) {
	chat.participantSync.RLock()
	defer chat.participantSync.RUnlock()

	msg := NewMessage(text)
	for participant := range chat.participants {
		participant.Deliver(msg)
	}
}

// DeliverChannel formats the text as a server-originated PRIVMSG on
// the named channel and broadcasts it to the channel members. Unknown
// channels are a silent no-op.
func (chat *Chat) DeliverChannel(name, text string) {
	chat.channelSync.RLock()
	defer chat.channelSync.RUnlock()

	channel, exists := chat.channels[name]
	if !exists {
		return
	}

	buffer := bufpool.New()
	defer bufpool.Recycle(buffer)

	buffer.WriteString(COLON)
	buffer.WriteString(chat.ServerName())
	buffer.WriteString(SPACE)
	buffer.WriteString(CmdPrivMsg)
	buffer.WriteString(SPACE)
	buffer.WriteString(name)
	buffer.WriteString(SPACE)
	buffer.WriteString(COLON)
	buffer.WriteString(text)
	buffer.WriteString(NEWLINE)

	channel.Deliver(NewMessage(buffer.String()))
}
