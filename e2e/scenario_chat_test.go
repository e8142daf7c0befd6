package e2e

import (
	"chat-rooms/domain"
	"chat-rooms/errors"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type testChatSuite struct {
	BaseHubSuite
}

func TestChatSuite(t *testing.T) {
	suite.Run(t, &testChatSuite{})
}

func hasText(text string) func(view domain.View) bool {
	return func(view domain.View) bool {
		return lo.ContainsBy(view.Messages, func(m domain.Message) bool { return m.Text == text })
	}
}

func (s *testChatSuite) TestConversationFlow() {
	alice := s.Join("alice")
	bob := s.Join("bob")
	hello := "hi " + uuid.NewString()

	s.Step("Step 1: Both participants land in the default room", func() {
		for _, p := range []*Participant{alice, bob} {
			s.Eventually(p, p.Name+" connected", func(view domain.View) bool {
				return view.ConnectionState == domain.Connected && view.ActiveRoom == "#general" && view.Loaded
			})
		}
	})

	s.Step("Step 2: A message reaches every member of the room", func() {
		s.Require().NoError(alice.Session.Send(s.Ctx(), hello))
		s.Eventually(bob, "bob receives the message", hasText(hello))
		s.Eventually(alice, "alice receives her own echo", hasText(hello))

		message, ok := lo.Find(bob.Session.View().Messages, func(m domain.Message) bool { return m.Text == hello })
		s.Require().True(ok)
		s.Equal(domain.Identity("alice"), message.User)
		s.False(message.At.IsZero())
	})

	s.Step("Step 3: Typing is shown to others, never to oneself", func() {
		s.Require().NoError(bob.Session.InputChanged(s.Ctx()))
		s.Eventually(alice, "alice sees bob typing", func(view domain.View) bool {
			return lo.Contains(view.TypingUsers, "bob")
		})
		s.Empty(bob.Session.View().TypingUsers)

		s.Require().NoError(bob.Session.Send(s.Ctx(), "done "+uuid.NewString()))
		s.Eventually(alice, "bob stopped typing", func(view domain.View) bool {
			return len(view.TypingUsers) == 0
		})
	})

	s.Step("Step 4: Switching back shows the messages posted while away", func() {
		s.Require().NoError(alice.Session.SwitchRoom(s.Ctx(), "#coding"))
		s.Eventually(alice, "alice is in #coding", func(view domain.View) bool {
			return view.ActiveRoom == "#coding" && view.Loaded
		})

		away := "while away " + uuid.NewString()
		s.Require().NoError(bob.Session.Send(s.Ctx(), away))
		s.Eventually(bob, "the hub stored bob's message", hasText(away))

		s.Require().NoError(alice.Session.SwitchRoom(s.Ctx(), "#general"))
		s.Eventually(alice, "alice catches up", hasText(away))

		// the history never duplicates what alice already held
		messages := alice.Session.View().Messages
		s.Equal(1, lo.CountBy(messages, func(m domain.Message) bool { return m.Text == hello }))
		s.Equal(1, lo.CountBy(messages, func(m domain.Message) bool { return m.Text == away }))
	})

	s.Step("Step 5: Censored words are masked by the hub", func() {
		s.Require().NoError(bob.Session.Send(s.Ctx(), "you idiot"))
		s.Eventually(alice, "alice receives the masked text", hasText("you *****"))
	})

	s.Step("Step 6: Logout requires a new identity", func() {
		s.Require().NoError(bob.Session.Logout(s.Ctx()))
		view := bob.Session.View()
		s.False(view.HasIdentity())
		s.ErrorIs(bob.Session.Send(s.Ctx(), "anyone?"), errors.ErrIdentityRequired)
	})
}

func (s *testChatSuite) TestLoginRequired() {
	carol := s.Join("")

	s.Step("A session without identity stays offline", func() {
		s.False(carol.Session.View().HasIdentity())
		s.ErrorIs(carol.Session.SwitchRoom(s.Ctx(), "#art"), errors.ErrIdentityRequired)
	})

	s.Step("Login connects and joins the default room", func() {
		s.ErrorIs(carol.Session.Login(s.Ctx(), "c"), errors.ErrInvalidIdentity)
		s.Require().NoError(carol.Session.Login(s.Ctx(), "carol"))
		s.Eventually(carol, "carol joined", func(view domain.View) bool {
			return view.ConnectionState == domain.Connected && view.ActiveRoom == "#general"
		})
	})
}
