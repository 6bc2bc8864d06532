package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/netpad-project/netpad/internal/model"
	"github.com/netpad-project/netpad/internal/protocol"
	"github.com/netpad-project/netpad/internal/testutil"
)

type RuntimeSuite struct {
	suite.Suite
	runtime *Runtime
	alice   model.Player
	bob     model.Player
}

func TestRuntimeSuite(t *testing.T) {
	suite.Run(t, new(RuntimeSuite))
}

func (s *RuntimeSuite) SetupTest() {
	data := model.NewGameData().
		Name("Demo").
		Button(3, "jump").
		Axis(5, "throttle").
		Direction(2, "stick")
	s.runtime = NewRuntime(data, testutil.NopLogger())
	s.alice = model.Register("alice", "pw")
	s.bob = model.Register("bob", "pw")
}

func (s *RuntimeSuite) refusal(err error) protocol.JoinRefusal {
	var joinErr *protocol.JoinError
	s.Require().True(errors.As(err, &joinErr))
	return joinErr.Refusal
}

// Join eligibility

func (s *RuntimeSuite) TestJoinSucceeds() {
	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))
	s.True(s.runtime.IsOnline(s.alice.Account))

	transport, ok := s.runtime.TransportOf(s.alice.Account)
	s.True(ok)
	s.Equal(protocol.TransportTCP, transport)
}

func (s *RuntimeSuite) TestDuplicateJoinRefused() {
	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))

	err := s.runtime.TryJoin(s.alice, protocol.TransportTCP)
	s.Equal(protocol.RefusalContainIdenticalPlayer, s.refusal(err))
}

func (s *RuntimeSuite) TestJoinAfterSignOfflineSucceeds() {
	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))
	s.runtime.SignOffline(s.alice.Account)

	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))
}

func (s *RuntimeSuite) TestLockedGameRefusesJoin() {
	s.runtime.Lock()

	err := s.runtime.TryJoin(s.alice, protocol.TransportTCP)
	s.Equal(protocol.RefusalGameLocked, s.refusal(err))

	// Lock wins over every other refusal reason.
	s.runtime.Ban(s.bob, protocol.TransportTCP)
	err = s.runtime.TryJoin(s.bob, protocol.TransportTCP)
	s.Equal(protocol.RefusalGameLocked, s.refusal(err))
}

func (s *RuntimeSuite) TestUnlockAllowsJoinAgain() {
	s.runtime.Lock()
	s.runtime.Unlock()
	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))
}

func (s *RuntimeSuite) TestBannedPlayerRefused() {
	s.runtime.Ban(s.alice, protocol.TransportTCP)

	err := s.runtime.TryJoin(s.alice, protocol.TransportTCP)
	s.Equal(protocol.RefusalPlayerBanned, s.refusal(err))
}

// Ban / pardon

func (s *RuntimeSuite) TestBanWorksOffline() {
	s.runtime.Ban(s.alice, protocol.TransportTCP)
	s.True(s.runtime.IsBanned(s.alice.Account))
}

func (s *RuntimeSuite) TestBanOnlinePlayerEnqueuesSingleExit() {
	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))

	s.runtime.Ban(s.alice, protocol.TransportTCP)

	msg, ok := s.runtime.PopOutbound(s.alice.Account, protocol.TransportTCP)
	s.Require().True(ok)
	s.Equal(protocol.GameMessage{Kind: protocol.GameLetExit, Reason: protocol.ReasonYouAreBanned}, msg)

	_, ok = s.runtime.PopOutbound(s.alice.Account, protocol.TransportTCP)
	s.False(ok)
}

func (s *RuntimeSuite) TestBanIsIdempotent() {
	s.runtime.Ban(s.alice, protocol.TransportTCP)
	s.runtime.Ban(s.alice, protocol.TransportTCP)

	s.Len(s.runtime.BannedAccounts(), 1)
}

func (s *RuntimeSuite) TestPardonClearsBan() {
	s.runtime.Ban(s.alice, protocol.TransportTCP)
	s.runtime.Pardon(s.alice)

	s.False(s.runtime.IsBanned(s.alice.Account))
	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))
}

// Kick / messaging

func (s *RuntimeSuite) TestKickEnqueuesLetExit() {
	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))

	s.runtime.Kick(s.alice, protocol.TransportTCP)

	msg, ok := s.runtime.PopOutbound(s.alice.Account, protocol.TransportTCP)
	s.Require().True(ok)
	s.Equal(protocol.ReasonYouAreKicked, msg.Reason)
}

func (s *RuntimeSuite) TestKickOfflinePlayerIsNoOp() {
	s.runtime.Kick(s.alice, protocol.TransportTCP)

	_, ok := s.runtime.PopOutbound(s.alice.Account, protocol.TransportTCP)
	s.False(ok)
}

func (s *RuntimeSuite) TestSendHelpersTargetOnlineOnly() {
	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))

	s.runtime.SendText(s.alice.Account, "hello", protocol.TransportTCP)
	s.runtime.SendEvent(s.alice.Account, 7, protocol.TransportTCP)
	s.runtime.SendText(s.bob.Account, "nope", protocol.TransportTCP)

	msg, ok := s.runtime.PopOutbound(s.alice.Account, protocol.TransportTCP)
	s.Require().True(ok)
	s.Equal(protocol.GameMessage{Kind: protocol.GameMsg, Text: "hello"}, msg)

	msg, ok = s.runtime.PopOutbound(s.alice.Account, protocol.TransportTCP)
	s.Require().True(ok)
	s.Equal(protocol.GameMessage{Kind: protocol.GameEventTrigger, Key: 7}, msg)

	_, ok = s.runtime.PopOutbound(s.bob.Account, protocol.TransportTCP)
	s.False(ok)
}

func (s *RuntimeSuite) TestBroadcastReachesAllOnline() {
	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))
	s.NoError(s.runtime.TryJoin(s.bob, protocol.TransportTCP))

	s.runtime.BroadcastText("round over")

	for _, account := range []model.Account{s.alice.Account, s.bob.Account} {
		msg, ok := s.runtime.PopOutbound(account, protocol.TransportTCP)
		s.Require().True(ok)
		s.Equal("round over", msg.Text)
	}
}

// Control ingestion

func (s *RuntimeSuite) TestPressedUpdatesTableAndQueuesEvent() {
	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))

	err := s.runtime.ProcessControlMessage(s.alice.Account, protocol.ControlMessage{Kind: protocol.ControlPressed, Key: 3})
	s.Require().NoError(err)

	pressed, ok := s.runtime.Button(s.alice.Account, 3)
	s.True(ok)
	s.True(pressed)

	ev, ok := s.runtime.PopControlEvent()
	s.Require().True(ok)
	s.Equal(s.alice.Account, ev.Account)
	s.Equal(protocol.ControlPressed, ev.Message.Kind)
}

func (s *RuntimeSuite) TestUnregisteredButtonStillQueuesEvent() {
	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))

	err := s.runtime.ProcessControlMessage(s.alice.Account, protocol.ControlMessage{Kind: protocol.ControlPressed, Key: 99})
	s.Require().NoError(err)

	_, ok := s.runtime.Button(s.alice.Account, 99)
	s.False(ok)

	_, ok = s.runtime.PopControlEvent()
	s.True(ok)
}

func (s *RuntimeSuite) TestAxisRegistrationGate() {
	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))

	// Key 9 is not a registered axis: dropped with a warning, no value.
	s.Require().NoError(s.runtime.ProcessControlMessage(s.alice.Account, protocol.ControlMessage{Kind: protocol.ControlAxis, Key: 9, Value: 0.7}))
	_, ok := s.runtime.AxisValue(s.alice.Account, 9)
	s.False(ok)

	// Key 5 is registered.
	s.Require().NoError(s.runtime.ProcessControlMessage(s.alice.Account, protocol.ControlMessage{Kind: protocol.ControlAxis, Key: 5, Value: 0.7}))
	v, ok := s.runtime.AxisValue(s.alice.Account, 5)
	s.True(ok)
	s.Equal(0.7, v)

	// Axis updates are continuous state, never events.
	_, ok = s.runtime.PopControlEvent()
	s.False(ok)
}

func (s *RuntimeSuite) TestDirectionRegistrationGate() {
	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))

	s.Require().NoError(s.runtime.ProcessControlMessage(s.alice.Account, protocol.ControlMessage{Kind: protocol.ControlDir, Key: 2, X: 0.5, Y: -0.5}))

	v, ok := s.runtime.DirectionValue(s.alice.Account, 2)
	s.True(ok)
	s.Equal(Vec2{0.5, -0.5}, v)
}

func (s *RuntimeSuite) TestTextMessageQueuesEvent() {
	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))

	s.Require().NoError(s.runtime.ProcessControlMessage(s.alice.Account, protocol.ControlMessage{Kind: protocol.ControlMsg, Text: "gg"}))

	ev, ok := s.runtime.PopControlEvent()
	s.Require().True(ok)
	s.Equal("gg", ev.Message.Text)
}

func (s *RuntimeSuite) TestTransportVariantsAreUnprocessable() {
	for _, kind := range []protocol.ControlKind{protocol.ControlExit, protocol.ControlErr, protocol.ControlEnd} {
		err := s.runtime.ProcessControlMessage(s.alice.Account, protocol.ControlMessage{Kind: kind})
		s.Error(err)
	}
}

func (s *RuntimeSuite) TestOfflineEventsDiscardedOnPop() {
	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))
	s.NoError(s.runtime.TryJoin(s.bob, protocol.TransportTCP))

	s.Require().NoError(s.runtime.ProcessControlMessage(s.alice.Account, protocol.ControlMessage{Kind: protocol.ControlPressed, Key: 3}))
	s.Require().NoError(s.runtime.ProcessControlMessage(s.bob.Account, protocol.ControlMessage{Kind: protocol.ControlPressed, Key: 3}))

	s.runtime.SignOffline(s.alice.Account)

	// Alice's event is skipped; Bob's comes through.
	ev, ok := s.runtime.PopControlEvent()
	s.Require().True(ok)
	s.Equal(s.bob.Account, ev.Account)
}

// Offline cleanup

func (s *RuntimeSuite) TestSignOfflineClearsQueues() {
	s.NoError(s.runtime.TryJoin(s.alice, protocol.TransportTCP))
	s.runtime.SendText(s.alice.Account, "pending", protocol.TransportTCP)

	s.runtime.SignOffline(s.alice.Account)

	s.False(s.runtime.IsOnline(s.alice.Account))
	s.Equal(0, s.runtime.PendingOutbound(s.alice.Account, protocol.TransportTCP))
}

// Archive

func (s *RuntimeSuite) TestArchiveSeedsBans() {
	data := model.NewGameData().LoadArchive(model.Archive{Banned: []model.Account{s.alice.Account}})
	runtime := NewRuntime(data, testutil.NopLogger())

	s.True(runtime.IsBanned(s.alice.Account))
}

func (s *RuntimeSuite) TestExportArchiveSnapshotsBans() {
	s.runtime.Ban(s.alice, protocol.TransportTCP)
	s.runtime.Ban(s.bob, protocol.TransportTCP)

	archive := s.runtime.ExportArchive()
	s.ElementsMatch([]model.Account{s.alice.Account, s.bob.Account}, archive.Banned)
}

// Flags

func (s *RuntimeSuite) TestCloseIsOneWay() {
	s.False(s.runtime.Closed())
	s.runtime.Close()
	s.True(s.runtime.Closed())
	s.runtime.Close()
	s.True(s.runtime.Closed())
}
