package lie

import (
	"testing"

	"github.com/stretchr/testify/require"

	"boardkeeper/internal/msgcheck"
	"boardkeeper/internal/msgsink"
	"boardkeeper/internal/stage"
)

type fakeMatch struct{}

func (fakeMatch) Tell(stage.PlayerID) msgsink.ScopedSender { return discardSender{} }
func (fakeMatch) Broadcast() msgsink.ScopedSender          { return discardSender{} }
func (fakeMatch) StartTimer(int)                           {}
func (fakeMatch) StopTimer()                               {}

type discardSender struct{}

func (discardSender) WriteString(string) (int, error) { return 0, nil }
func (discardSender) Close()                          {}
func (discardSender) Release()                        {}

func playRound(t *testing.T, s *MainStage, questioner int, num, lieNum int, doubt bool) {
	t.Helper()
	code := s.HandleRequest(msgcheck.NewReader("设置数字 "+itoa(num)), questioner, false, discardSender{})
	require.Equal(t, stage.OK, code)

	code = s.HandleRequest(msgcheck.NewReader("提问数字 "+itoa(lieNum)), questioner, true, discardSender{})
	require.Equal(t, stage.OK, code)

	guessWord := "相信"
	if doubt {
		guessWord = "质疑"
	}
	_ = s.HandleRequest(msgcheck.NewReader(guessWord), 1-questioner, true, discardSender{})
}

func itoa(n int) string {
	digits := "0123456789"
	if n == 0 {
		return "0"
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{digits[n%10]}, buf...)
		n /= 10
	}
	return string(buf)
}

func TestRoundTruthfulClaimBelievedLoserIsQuestioner(t *testing.T) {
	m := fakeMatch{}
	s := New(m, 0)
	s.HandleStageBegin()

	playRound(t, s, 0, 4, 4, false) // true claim, believed -> guesser right -> questioner loses
	require.Equal(t, 1, s.tallies[0][3])
	require.Equal(t, 0, s.tallies[1][3])
}

func TestRoundLieDoubtedLoserIsQuestioner(t *testing.T) {
	m := fakeMatch{}
	s := New(m, 0)
	s.HandleStageBegin()

	playRound(t, s, 0, 3, 5, true) // lied, doubted -> guesser right -> questioner loses
	require.Equal(t, 1, s.tallies[0][2])
}

func TestRoundLieBelievedLoserIsGuesser(t *testing.T) {
	m := fakeMatch{}
	s := New(m, 0)
	s.HandleStageBegin()

	playRound(t, s, 0, 3, 5, false) // lied, believed -> guesser wrong -> guesser loses
	require.Equal(t, 1, s.tallies[1][2])
}

func TestOnlyQuestionerMaySetNumber(t *testing.T) {
	m := fakeMatch{}
	s := New(m, 0)
	s.HandleStageBegin()

	code := s.HandleRequest(msgcheck.NewReader("设置数字 3"), 1, false, discardSender{})
	require.Equal(t, stage.Failed, code)
}

func TestSetNumberPubliclyIsRejected(t *testing.T) {
	m := fakeMatch{}
	s := New(m, 0)
	s.HandleStageBegin()

	code := s.HandleRequest(msgcheck.NewReader("设置数字 3"), 0, true, discardSender{})
	require.Equal(t, stage.Failed, code)
}

func TestGameEndsOnceQuestionerTalliesThreeOnOneNumber(t *testing.T) {
	m := fakeMatch{}
	s := New(m, 0)
	s.HandleStageBegin()

	// questioner 0 truthfully claims number 1, is believed, and loses it three times;
	// the loser becomes the next round's questioner, so questioner stays 0.
	for i := 0; i < 3; i++ {
		require.False(t, s.IsOver())
		playRound(t, s, 0, 1, 1, false)
	}
	require.True(t, s.IsOver())
}

func TestPlayerScoreFavorsNonQuestioner(t *testing.T) {
	m := fakeMatch{}
	s := New(m, 0)
	s.questioner = 0
	require.Equal(t, int64(-10), s.PlayerScore(0))
	require.Equal(t, int64(10), s.PlayerScore(1))
}

func TestBuildWiresFirstQuestionerIntoMainStage(t *testing.T) {
	factory := Build(1)
	main := factory(nil)
	ms, ok := main.(*MainStage)
	require.True(t, ok)
	require.Equal(t, 1, ms.questioner)
}
