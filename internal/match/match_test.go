package match

import (
	"testing"

	"github.com/stretchr/testify/require"

	"boardkeeper/internal/msgcheck"
	"boardkeeper/internal/msgsink"
	"boardkeeper/internal/stage"
)

// fakeStage is a minimal stage.MainStage: two seats, a "ready" command that
// checks the stage out once both seats have sent it, and fixed per-seat
// scores once over.
type fakeStage struct {
	ready  [2]bool
	over   bool
	scores [2]int64
}

func (s *fakeStage) Name() string      { return "fake" }
func (s *fakeStage) StageInfo() string { return "fake stage" }
func (s *fakeStage) CommandInfo(bool) string { return "" }
func (s *fakeStage) IsOver() bool      { return s.over }
func (s *fakeStage) HandleStageBegin() {}
func (s *fakeStage) HandleTimeout() stage.Code { return stage.OK }
func (s *fakeStage) HandleRequest(reader *msgcheck.Reader, pid stage.PlayerID, isPublic bool, reply msgsink.ScopedSender) stage.Code {
	tok, ok := nextToken(reader)
	if !ok || tok != "ready" {
		return stage.NotFound
	}
	s.ready[pid] = true
	if s.ready[0] && s.ready[1] {
		s.over = true
		return stage.Checkout
	}
	return stage.OK
}
func (s *fakeStage) HandleLeave(pid stage.PlayerID) stage.Code {
	s.over = true
	return stage.Checkout
}
func (s *fakeStage) HandleComputerAct(stage.PlayerID) stage.Code { return stage.OK }
func (s *fakeStage) PlayerScore(pid stage.PlayerID) int64        { return s.scores[pid] }

// nextToken reads the single whitespace-delimited token a test command
// consists of, via the one exported way to consume a Reader: a Command's
// own checker chain.
func nextToken(reader *msgcheck.Reader) (string, bool) {
	var tok string
	cmd := msgcheck.Command{
		Public: true, Private: true,
		Checkers: []msgcheck.Checker{msgcheck.AnyArg{}},
		Handle: func(args []any, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
			tok = args[0].(string)
			return 0
		},
	}
	_, ok := cmd.CallIfValid(reader, 0, true, discardScopedSender{})
	return tok, ok
}

type discardScopedSender struct{}

func (discardScopedSender) WriteString(string) (int, error) { return 0, nil }

func newTestConfig(id uint64, build GameFactory) Config {
	return Config{
		ID:       id,
		GameName: "fake",
		HostUID:  1,
		Build:    build,
		Tell:     func(uint64, string) {},
		Broadcast: func(uint64, string) {},
		AtMention: func(userID uint64) string { return "@x" },
	}
}

func TestGameStartRequiresTwoParticipants(t *testing.T) {
	m := New(newTestConfig(1, func(m *Match) stage.MainStage { return &fakeStage{} }))
	require.ErrorIs(t, m.GameStart(1), ErrTooFewPlayers)
}

func TestGameStartRequiresHost(t *testing.T) {
	m := New(newTestConfig(1, func(m *Match) stage.MainStage { return &fakeStage{} }))
	require.NoError(t, m.Join(2))
	require.ErrorIs(t, m.GameStart(2), ErrNotHost)
}

func TestJoinRejectsDuplicateParticipant(t *testing.T) {
	m := New(newTestConfig(1, func(m *Match) stage.MainStage { return &fakeStage{} }))
	require.ErrorIs(t, m.Join(1), ErrAlreadyJoined)
}

func TestGameStartThenRequestReachesStage(t *testing.T) {
	var built *fakeStage
	m := New(newTestConfig(1, func(m *Match) stage.MainStage {
		built = &fakeStage{scores: [2]int64{5, -5}}
		return built
	}))
	require.NoError(t, m.Join(2))
	require.NoError(t, m.GameStart(1))

	code, err := m.Request(1, "ready", true)
	require.NoError(t, err)
	require.Equal(t, stage.OK, code)

	code, err = m.Request(2, "ready", true)
	require.NoError(t, err)
	require.Equal(t, stage.Checkout, code)
}

func TestRequestFromNonParticipantFails(t *testing.T) {
	m := New(newTestConfig(1, func(m *Match) stage.MainStage { return &fakeStage{} }))
	require.NoError(t, m.Join(2))
	require.NoError(t, m.GameStart(1))
	_, err := m.Request(999, "ready", true)
	require.ErrorIs(t, err, ErrNotParticipant)
}

func TestRequestBeforeStartFails(t *testing.T) {
	m := New(newTestConfig(1, func(m *Match) stage.MainStage { return &fakeStage{} }))
	_, err := m.Request(1, "ready", true)
	require.ErrorIs(t, err, ErrNotStarted)
}

func TestSwitchHostPicksEarliestRemainingJoiner(t *testing.T) {
	m := New(newTestConfig(1, func(m *Match) stage.MainStage { return &fakeStage{} }))
	require.NoError(t, m.Join(2))
	require.NoError(t, m.Join(3))
	require.NoError(t, m.Leave(1)) // host leaves pre-start; 2 joined before 3

	require.ErrorIs(t, m.GameStart(3), ErrNotHost)
	require.NoError(t, m.GameStart(2))
}

func TestLeaveAfterStartInvokesHandleLeave(t *testing.T) {
	var built *fakeStage
	m := New(newTestConfig(1, func(m *Match) stage.MainStage {
		built = &fakeStage{}
		return built
	}))
	require.NoError(t, m.Join(2))
	require.NoError(t, m.GameStart(1))
	require.NoError(t, m.Leave(1))
	require.True(t, built.over, "fakeStage.HandleLeave marks the stage over")
}

func TestPanicDuringRequestTerminatesMatchWithoutCrashing(t *testing.T) {
	m := New(newTestConfig(1, func(m *Match) stage.MainStage {
		return &panicStage{}
	}))
	require.NoError(t, m.Join(2))
	require.NoError(t, m.GameStart(1))
	_, err := m.Request(1, "ready", true)
	require.Error(t, err)
}

// panicStage panics on any request, exercising Match.Request's recover path.
type panicStage struct{ fakeStage }

func (panicStage) HandleRequest(*msgcheck.Reader, stage.PlayerID, bool, msgsink.ScopedSender) stage.Code {
	panic("boom")
}
