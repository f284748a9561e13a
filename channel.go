/*
   Copyright (c) 2023, btnmasher
   All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

package debugirc

import (
	"sync"
)

// Channel represents a named broadcast group. The name and title are
// fixed at construction; only the member set mutates afterwards.
//
// Deliver holds the reader lock while fanning out. Participant.Deliver
// only enqueues, so the broadcast is bounded and two externally
// serialized Deliver calls reach any single member in the same order.
type Channel struct {
	sync.RWMutex

	name  string
	title string

	members map[Participant]struct{}
}

// NewChannel initializes a Channel with the given name and title.
func NewChannel(name, title string) *Channel {
	return &Channel{
		name:    name,
		title:   title,
		members: make(map[Participant]struct{}),
	}
}

// Name returns the name of the channel.
func (channel *Channel) Name() string {
	return channel.name
}

// Title returns the title of the channel.
func (channel *Channel) Title() string {
	return channel.title
}

// Join adds the participant to the channel. It returns true iff the
// participant was not already a member.
func (channel *Channel) Join(participant Participant) bool {
	channel.Lock()
	defer channel.Unlock()

	if _, exists := channel.members[participant]; exists {
		return false
	}

	channel.members[participant] = struct{}{}
	return true
}

// Leave removes the participant from the channel. Leaving a channel the
// participant is not a member of is a no-op.
func (channel *Channel) Leave(participant Participant) {
	channel.Lock()
	defer channel.Unlock()

	delete(channel.members, participant)
}

// Deliver broadcasts the message to the current members.
func (channel *Channel) Deliver(msg *Message) {
	channel.RLock()
	defer channel.RUnlock()

	for participant := range channel.members {
		participant.Deliver(msg)
	}

	metricBroadcastFanout.Add(float64(len(channel.members)))
}

// DeliverText broadcasts already-framed text to the current members.
func (channel *Channel) DeliverText(text string) {
	channel.Deliver(NewMessage(text))
}

// Len returns the current member count.
func (channel *Channel) Len() int {
	channel.RLock()
	defer channel.RUnlock()

	return len(channel.members)
}
