// Package lie implements a two-player liar's-dice guessing game: each
// round one player (the questioner) privately picks a number 1-6, publicly
// claims a (possibly false) number, and the other player either believes or
// doubts the claim. Whoever's claim and belief don't add up to "guesser was
// right" takes the real number as a tally mark; the game ends once the
// current questioner has tallied three marks on one number or at least one
// mark on every number. It is the simple atomic-stage example game,
// grounded on original_source/games/LIE/mygame.cpp.
package lie

import (
	"fmt"
	"strings"

	"boardkeeper/internal/gameopt"
	"boardkeeper/internal/match"
	"boardkeeper/internal/msgcheck"
	"boardkeeper/internal/msgsink"
	"boardkeeper/internal/stage"
)

// Options is LIE's (fixed two-player, no further configuration) option
// blob.
type Options struct {
	gameopt.Base
}

// NewOptions returns the fixed two-player configuration LIE requires.
func NewOptions() Options {
	return Options{Base: gameopt.Base{Players: 2}}
}

// numberStage is the questioner privately choosing the real number.
type numberStage struct {
	*stage.AtomicStage[Options]
	questioner int
	num        int
}

func newNumberStage(m stage.Match, questioner int) *numberStage {
	s := &numberStage{questioner: questioner}
	cmd := msgcheck.Command{
		Name: "设置数字", Private: true,
		Checkers: []msgcheck.Checker{msgcheck.ArithChecker[int]{Name: "数字", Min: 1, Max: 6}},
		Handle: func(args []any, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
			return s.handleNumber(args[0].(int), pid, isPublic, reply)
		},
	}
	s.AtomicStage = stage.NewAtomic("设置数字阶段", m, NewOptions(), stage.AtomicHooks{}, cmd)
	return s
}

func (s *numberStage) handleNumber(num, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
	if pid != s.questioner {
		reply.WriteString("[错误] 本回合您为猜测者，无法设置数字")
		return int(stage.Failed)
	}
	if isPublic {
		reply.WriteString("[错误] 请私信裁判选择数字，公开选择无效")
		return int(stage.Failed)
	}
	s.num = num
	reply.WriteString("设置成功，请提问数字")
	return int(stage.Checkout)
}

// lieStage is the questioner publicly (possibly falsely) claiming a number.
type lieStage struct {
	*stage.AtomicStage[Options]
	questioner int
	lieNum     int
}

func newLieStage(m stage.Match, questioner int) *lieStage {
	s := &lieStage{questioner: questioner}
	cmd := msgcheck.Command{
		Name: "提问数字", Public: true, Private: true,
		Checkers: []msgcheck.Checker{msgcheck.ArithChecker[int]{Name: "数字", Min: 1, Max: 6}},
		Handle: func(args []any, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
			return s.handleLie(args[0].(int), pid, reply)
		},
	}
	s.AtomicStage = stage.NewAtomic("提问阶段", m, NewOptions(), stage.AtomicHooks{}, cmd)
	return s
}

func (s *lieStage) handleLie(lieNum, pid int, reply msgcheck.ScopedSender) int {
	if pid != s.questioner {
		reply.WriteString("[错误] 本回合您为猜测者，无法提问")
		return int(stage.Failed)
	}
	s.lieNum = lieNum
	sender := s.AtomicStage.Broadcast()
	defer sender.Close()
	sender.WriteString(fmt.Sprintf("玩家%d提问数字%d，请玩家%d相信或质疑", s.questioner, lieNum, 1-s.questioner))
	return int(stage.Checkout)
}

// guessStage is the other player believing or doubting the claim.
type guessStage struct {
	*stage.AtomicStage[Options]
	guesser int
	doubt   bool
}

func newGuessStage(m stage.Match, guesser int) *guessStage {
	s := &guessStage{guesser: guesser}
	cmd := msgcheck.Command{
		Name: "猜测", Public: true, Private: true,
		Checkers: []msgcheck.Checker{msgcheck.BoolChecker{TrueWord: "质疑", FalseWord: "相信"}},
		Handle: func(args []any, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
			return s.handleGuess(args[0].(bool), pid, reply)
		},
	}
	s.AtomicStage = stage.NewAtomic("猜测阶段", m, NewOptions(), stage.AtomicHooks{}, cmd)
	return s
}

func (s *guessStage) handleGuess(doubt bool, pid int, reply msgcheck.ScopedSender) int {
	if pid != s.guesser {
		reply.WriteString("[错误] 本回合您为提问者，无法猜测")
		return int(stage.Failed)
	}
	s.doubt = doubt
	return int(stage.Checkout)
}

// roundStage sequences number -> lie -> guess and resolves the round's
// loser, who takes a tally mark on the real number.
type roundStage struct {
	stage.Base
	m          stage.Match
	round      int
	questioner int
	tallies    *[2][6]int
	sub        stage.Stage
	phase      int // 0=number, 1=lie, 2=guess, 3=done
	num        int
	lieNum     int
	loser      int
}

func newRoundStage(m stage.Match, round, questioner int, tallies *[2][6]int) *roundStage {
	s := &roundStage{m: m, round: round, questioner: questioner, tallies: tallies}
	s.Base = stage.NewBase(fmt.Sprintf("第%d回合", round), m)
	return s
}

func (s *roundStage) StageInfo() string {
	if s.sub != nil {
		return s.sub.StageInfo()
	}
	return s.Name()
}

func (s *roundStage) CommandInfo(textMode bool) string {
	if s.sub != nil {
		return s.sub.CommandInfo(textMode)
	}
	return ""
}

func (s *roundStage) HandleStageBegin() {
	sender := s.Broadcast()
	sender.WriteString(fmt.Sprintf("%s开始，请玩家%d私信裁判选择数字", s.Name(), s.questioner))
	sender.Close()
	s.sub = newNumberStage(s.m, s.questioner)
	s.phase = 0
	s.sub.HandleStageBegin()
}

func (s *roundStage) HandleTimeout() stage.Code {
	code := s.sub.HandleTimeout()
	return s.afterSub(code)
}

func (s *roundStage) HandleRequest(reader *msgcheck.Reader, pid stage.PlayerID, isPublic bool, reply msgsink.ScopedSender) stage.Code {
	code := s.sub.HandleRequest(reader, pid, isPublic, reply)
	return s.afterSub(code)
}

func (s *roundStage) HandleLeave(pid stage.PlayerID) stage.Code {
	code := s.sub.HandleLeave(pid)
	return s.afterSub(code)
}

func (s *roundStage) HandleComputerAct(pid stage.PlayerID) stage.Code {
	code := s.sub.HandleComputerAct(pid)
	return s.afterSub(code)
}

func (s *roundStage) afterSub(code stage.Code) stage.Code {
	if code != stage.Checkout {
		return code
	}
	switch s.phase {
	case 0:
		s.num = s.sub.(*numberStage).num
		s.phase = 1
		s.sub = newLieStage(s.m, s.questioner)
		s.sub.HandleStageBegin()
		return stage.OK
	case 1:
		s.lieNum = s.sub.(*lieStage).lieNum
		s.phase = 2
		s.sub = newGuessStage(s.m, 1-s.questioner)
		s.sub.HandleStageBegin()
		return stage.OK
	default:
		doubt := s.sub.(*guessStage).doubt
		success := doubt != (s.num == s.lieNum)
		if success {
			s.loser = s.questioner
		} else {
			s.loser = 1 - s.questioner
		}
		s.tallies[s.loser][s.num-1]++
		s.announceResult(doubt, success)
		s.phase = 3
		return stage.Checkout
	}
}

func (s *roundStage) announceResult(doubt, success bool) {
	believe := "相信"
	if doubt {
		believe = "怀疑"
	}
	outcome := "失败"
	if success {
		outcome = "成功"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "实际数字为%d，%s%s，玩家%d获得数字%d\n数字获得情况：\n", s.num, believe, outcome, s.loser, s.num)
	for n := 1; n <= 6; n++ {
		fmt.Fprintf(&sb, "%d [%d] %d\n", s.tallies[0][n-1], n, s.tallies[1][n-1])
	}
	sender := s.Broadcast()
	sender.WriteString(sb.String())
	sender.Close()
}

// IsOver overrides the embedded Base.IsOver (its backing field never gets
// set from outside the stage package) to track roundStage's own phase
// directly.
func (s *roundStage) IsOver() bool { return s.phase == 3 }

// MainStage sequences rounds until the current questioner has either
// tallied three marks on one number or at least one mark on every number,
// per original_source/games/LIE/mygame.cpp:JudgeOver.
type MainStage struct {
	stage.Base
	m          stage.Match
	questioner int
	round      int
	tallies    [2][6]int
	current    *roundStage
}

// New builds LIE's main stage, choosing the first questioner at random
// (the match engine owns the PRNG seed in its surrounding games package,
// so New takes the initial questioner as a parameter rather than calling
// math/rand directly).
func New(m stage.Match, firstQuestioner int) *MainStage {
	s := &MainStage{m: m, questioner: firstQuestioner}
	s.Base = stage.NewBase("LIE", m)
	return s
}

func (s *MainStage) StageInfo() string {
	if s.current != nil {
		return s.current.StageInfo()
	}
	return s.Name()
}

func (s *MainStage) CommandInfo(textMode bool) string {
	if s.current != nil {
		return s.current.CommandInfo(textMode)
	}
	return ""
}

func (s *MainStage) HandleStageBegin() {
	s.round = 1
	s.current = newRoundStage(s.m, s.round, s.questioner, &s.tallies)
	s.current.HandleStageBegin()
	s.advanceIfSubOver()
}

func (s *MainStage) HandleTimeout() stage.Code {
	code := s.current.HandleTimeout()
	return s.afterSub(code)
}

func (s *MainStage) HandleRequest(reader *msgcheck.Reader, pid stage.PlayerID, isPublic bool, reply msgsink.ScopedSender) stage.Code {
	code := s.current.HandleRequest(reader, pid, isPublic, reply)
	return s.afterSub(code)
}

func (s *MainStage) HandleLeave(pid stage.PlayerID) stage.Code {
	code := s.current.HandleLeave(pid)
	return s.afterSub(code)
}

func (s *MainStage) HandleComputerAct(pid stage.PlayerID) stage.Code {
	code := s.current.HandleComputerAct(pid)
	return s.afterSub(code)
}

func (s *MainStage) afterSub(code stage.Code) stage.Code {
	if code != stage.Checkout {
		return code
	}
	s.advanceIfSubOver()
	if s.IsOver() {
		return stage.Checkout
	}
	return stage.OK
}

func (s *MainStage) advanceIfSubOver() {
	for s.current.IsOver() {
		s.questioner = s.current.loser
		if s.judgeOver() {
			return
		}
		s.round++
		s.current = newRoundStage(s.m, s.round, s.questioner, &s.tallies)
		s.current.HandleStageBegin()
	}
}

func (s *MainStage) judgeOver() bool {
	hasAll := true
	for _, count := range s.tallies[s.questioner] {
		if count >= 3 {
			return true
		}
		if count == 0 {
			hasAll = false
		}
	}
	return hasAll
}

// IsOver reports whether the game has ended.
func (s *MainStage) IsOver() bool {
	return s.current == nil || (s.current.IsOver() && s.judgeOver())
}

// PlayerScore gives the losing side's current questioner -10 and the other
// player +10, matching the original's fixed-stakes scoring.
func (s *MainStage) PlayerScore(pid stage.PlayerID) int64 {
	if pid == s.questioner {
		return -10
	}
	return 10
}

// Build adapts New into a match.GameFactory that starts every match with
// the caller-supplied firstQuestioner (0 or 1); this package has no PRNG
// dependency of its own, so a fair coin flip belongs to whichever caller
// constructs the match, not to the game's rules.
func Build(firstQuestioner int) match.GameFactory {
	return func(m *match.Match) stage.MainStage {
		return New(m, firstQuestioner)
	}
}
