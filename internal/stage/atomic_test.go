package stage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"boardkeeper/internal/msgcheck"
	"boardkeeper/internal/msgsink"
)

type fakeOptions struct{ players int }

func (o fakeOptions) PlayerNum() int { return o.players }

type fakeMatch struct {
	timerStarted int
	timerStopped bool
}

func (m *fakeMatch) Tell(PlayerID) msgsink.ScopedSender      { return discardSender{} }
func (m *fakeMatch) Broadcast() msgsink.ScopedSender         { return discardSender{} }
func (m *fakeMatch) StartTimer(seconds int)                  { m.timerStarted = seconds }
func (m *fakeMatch) StopTimer()                               { m.timerStopped = true }

type discardSender struct{}

func (discardSender) WriteString(string) (int, error) { return 0, nil }
func (discardSender) Close()                          {}
func (discardSender) Release()                        {}

func readyCommand() msgcheck.Command {
	return msgcheck.Command{
		Name: "ready", Public: true, Private: true,
		Handle: func(args []any, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
			return int(Ready)
		},
	}
}

func TestAtomicStageBecomesOverWhenEveryoneReady(t *testing.T) {
	m := &fakeMatch{}
	s := NewAtomic[fakeOptions]("vote", m, fakeOptions{players: 2}, AtomicHooks{}, readyCommand())
	s.HandleStageBegin()
	require.False(t, s.IsOver())

	code := s.HandleRequest(msgcheck.NewReader("ready"), 0, true, discardSender{})
	require.Equal(t, OK, code)
	require.False(t, s.IsOver())

	code = s.HandleRequest(msgcheck.NewReader("ready"), 1, true, discardSender{})
	require.Equal(t, Checkout, code)
	require.True(t, s.IsOver())
}

func TestAtomicStageUnmatchedCommandReturnsNotFound(t *testing.T) {
	m := &fakeMatch{}
	s := NewAtomic[fakeOptions]("vote", m, fakeOptions{players: 2}, AtomicHooks{}, readyCommand())
	code := s.HandleRequest(msgcheck.NewReader("nonsense"), 0, true, discardSender{})
	require.Equal(t, NotFound, code)
}

func TestAtomicStageArmsTimerWithConfiguredSeconds(t *testing.T) {
	m := &fakeMatch{}
	s := NewAtomic[fakeOptions]("vote", m, fakeOptions{players: 2}, AtomicHooks{TimeoutSec: 30})
	s.HandleStageBegin()
	require.Equal(t, 30, m.timerStarted)
}

func TestAtomicStageTimeoutWithoutHookChecksOut(t *testing.T) {
	m := &fakeMatch{}
	s := NewAtomic[fakeOptions]("vote", m, fakeOptions{players: 2}, AtomicHooks{})
	code := s.HandleTimeout()
	require.Equal(t, Checkout, code)
	require.True(t, s.IsOver())
}

func TestAtomicStageTimeoutHookOverridesDefault(t *testing.T) {
	m := &fakeMatch{}
	called := false
	s := NewAtomic[fakeOptions]("vote", m, fakeOptions{players: 2}, AtomicHooks{
		OnTimeout: func() Code { called = true; return OK },
	})
	code := s.HandleTimeout()
	require.Equal(t, OK, code)
	require.True(t, called)
	require.False(t, s.IsOver())
}

func TestAtomicStageLeavePinsSeatOutOfReadiness(t *testing.T) {
	m := &fakeMatch{}
	s := NewAtomic[fakeOptions]("vote", m, fakeOptions{players: 2}, AtomicHooks{}, readyCommand())
	s.HandleStageBegin()

	code := s.HandleRequest(msgcheck.NewReader("ready"), 0, true, discardSender{})
	require.Equal(t, OK, code)

	code = s.HandleLeave(1) // pinning the only remaining unready seat makes the stage ready
	require.Equal(t, Checkout, code)
	require.True(t, s.IsOver())
}

func TestAtomicStageLeaveHookCanVetoCheckout(t *testing.T) {
	m := &fakeMatch{}
	s := NewAtomic[fakeOptions]("vote", m, fakeOptions{players: 2}, AtomicHooks{
		OnPlayerLeave: func(pid PlayerID) Code { return Failed },
	})
	code := s.HandleLeave(0)
	require.Equal(t, Failed, code)
	require.False(t, s.IsOver())
}

func TestAtomicStageComputerActNoOpWithoutHook(t *testing.T) {
	m := &fakeMatch{}
	s := NewAtomic[fakeOptions]("vote", m, fakeOptions{players: 2}, AtomicHooks{})
	require.Equal(t, OK, s.HandleComputerAct(0))
}

func TestBaseCommandInfoListsEveryCommand(t *testing.T) {
	m := &fakeMatch{}
	b := NewBase("vote", m, readyCommand(), msgcheck.Command{Name: "skip", Description: "skip turn"})
	info := b.CommandInfo(true)
	require.Contains(t, info, "vote")
	require.Contains(t, info, "1. ready")
	require.Contains(t, info, "2. skip - skip turn")
}

func TestBaseCommandInfoEmptyWithNoCommands(t *testing.T) {
	m := &fakeMatch{}
	b := NewBase("vote", m)
	require.Equal(t, "", b.CommandInfo(true))
}
