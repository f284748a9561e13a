package debugirc_test

import (
	. "github.com/btnmasher/debugircd"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type sink struct {
	received []*Message
}

func (s *sink) Deliver(msg *Message) {
	s.received = append(s.received, msg)
}

var _ = Describe("Channel", func() {

	var (
		channel *Channel
		member  *sink
	)

	BeforeEach(func() {
		channel = NewChannel("#ops", "Operations")
		member = &sink{}
	})

	Describe("joining", func() {
		Context("when the participant is new", func() {
			It("adds it and reports success", func() {
				Expect(channel.Join(member)).Should(BeTrue())
				Expect(channel.Len()).Should(Equal(1))
			})
		})
		Context("when the participant is already a member", func() {
			It("keeps a single membership and reports failure", func() {
				channel.Join(member)
				Expect(channel.Join(member)).Should(BeFalse())
				Expect(channel.Len()).Should(Equal(1))
			})
		})
	})

	Describe("leaving", func() {
		It("removes the participant and tolerates repeats", func() {
			channel.Join(member)
			channel.Leave(member)
			Expect(channel.Len()).Should(Equal(0))
			channel.Leave(member)
			Expect(channel.Len()).Should(Equal(0))
		})
	})

	Describe("delivering", func() {
		It("broadcasts the same message to every member", func() {
			other := &sink{}
			channel.Join(member)
			channel.Join(other)

			msg := NewMessage("payload\n")
			channel.Deliver(msg)

			Expect(member.received).Should(HaveLen(1))
			Expect(other.received).Should(HaveLen(1))
			Expect(member.received[0]).Should(BeIdenticalTo(msg))
			Expect(other.received[0]).Should(BeIdenticalTo(msg))
		})

		It("skips participants that have left", func() {
			channel.Join(member)
			channel.Leave(member)

			channel.DeliverText("payload\n")

			Expect(member.received).Should(BeEmpty())
		})
	})
})
