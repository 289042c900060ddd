package mahjong

import (
	"fmt"
	"strings"

	"boardkeeper/internal/match"
	"boardkeeper/internal/masker"
	"boardkeeper/internal/msgcheck"
	"boardkeeper/internal/msgsink"
	"boardkeeper/internal/stage"
	"boardkeeper/internal/games/mahjong/yaku"
)

const numSeats = 4
const startScore = 25000
const riichiStick = 1000

type phase int

const (
	phaseDraw  phase = iota
	phaseReact       // a discard is open to chi/pon/kan calls
	phaseRon         // the synchronized ron-stage barrier: every eligible seat declares or declines at once
	phaseOver
)

// discardEvent is one tile entered into the shared discard pool a go-around's
// ron stage scans for wins; claimed marks a discard a chi/pon/kan has
// already taken physically off the table, so a later ron can't also use it.
type discardEvent struct {
	seat    int
	tile    Tile
	claimed bool
}

// winClaim is one seat's resolved win, gathered during a go-around's ron
// stage (or produced directly by a tsumo/chankan) so two or three
// simultaneous wins can be scored and paid together instead of the engine
// only ever knowing about one winner at a time.
type winClaim struct {
	seat   int
	from   int // discarder paid for a ron; -1 for tsumo/nagashi mangan
	result yaku.Result
	tsumo  bool
}

// MainStage plays a single East-round hand to its conclusion: deal, turn
// order, draw/discard, chi/pon/kan calls (subject to each seat's FromChi
// bitset), and a synchronous two-barrier round protocol ported from
// sync_mahjong.h's SyncMajong - a normal stage (draw, discard, calls) that
// hands off to a ron stage once every seat has had its go, so that up to
// three seats ronning the same discard (三家和了) resolve together instead
// of the first claim winning outright. It is hand-rolled against
// stage.Stage rather than built on stage.AtomicStage or stage.CompositeStage
// because a hand's state (four hands, a shared wall, whose turn it is, an
// open call window, a ron-stage barrier) doesn't fit either generic
// machine's single-masker model, the same reasoning LIE's roundStage/
// MainStage apply at smaller scale.
type MainStage struct {
	stage.Base
	players        [numSeats]*Player
	yama           *Yama
	dealer         int
	round          int // go-around counter within the hand, starting at 1
	current        int
	roundStartSeat int
	ph             phase

	pendingRiichi     bool
	mustDiscardNoDraw bool

	lastDiscard Tile
	discarder   int
	reacted     [numSeats]bool

	discards []discardEvent
	ronMask  *masker.Masker

	haitei bool // true while the tile just drawn is the wall's last live tile
	houtei bool // true while lastDiscard is the hand's final discard

	wins            []winClaim
	ryuukyoku       bool
	ryuukyokuReason string

	riichiPot int64

	deltas [numSeats]int64

	commands []msgcheck.Command
}

// New deals a fresh hand. shuffle supplies the wall's randomness (mahjong
// has no PRNG dependency of its own; the games registry that constructs
// matches owns that).
func New(m stage.Match, shuffle func(n int, swap func(i, j int))) *MainStage {
	s := &MainStage{dealer: 0, current: 0, round: 1}
	s.Base = stage.NewBase("日本麻将", m)
	for seat := 0; seat < numSeats; seat++ {
		s.players[seat] = NewPlayer(seat)
		s.players[seat].FromChi = newChiSources(numSeats, seat)
	}
	s.yama = NewYama(NewWall(shuffle))
	for i := 0; i < 13; i++ {
		for seat := 0; seat < numSeats; seat++ {
			t, _ := s.yama.Draw()
			s.players[seat].Hand = append(s.players[seat].Hand, t)
		}
	}
	s.commands = s.buildCommands()
	return s
}

func (s *MainStage) buildCommands() []msgcheck.Command {
	tileArg := msgcheck.AnyArg{Name: "牌"}
	return []msgcheck.Command{
		{
			Name: "打", Description: "弃牌", Public: true, Private: true,
			Checkers: []msgcheck.Checker{tileArg},
			Handle: func(args []any, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
				return s.handleDiscard(args[0].(string), pid, reply)
			},
		},
		{Name: "立直", Description: "宣告立直，下次弃牌生效", Public: true, Private: true,
			Handle: func(args []any, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
				return s.handleRiichi(pid, reply)
			}},
		{Name: "自摸", Description: "用摸到的牌和牌", Public: true, Private: true,
			Handle: func(args []any, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
				return s.handleTsumo(pid, reply)
			}},
		{Name: "暗杠", Description: "暗杠", Public: true, Private: true,
			Checkers: []msgcheck.Checker{tileArg},
			Handle: func(args []any, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
				return s.handleClosedKan(args[0].(string), pid, reply)
			}},
		{Name: "荣和", Description: "用他家弃牌和牌", Public: true, Private: true,
			Handle: func(args []any, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
				return s.handleRon(pid, reply)
			}},
		{Name: "碰", Description: "碰他家弃牌", Public: true, Private: true,
			Handle: func(args []any, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
				return s.handlePon(pid, reply)
			}},
		{Name: "杠", Description: "明杠他家弃牌", Public: true, Private: true,
			Handle: func(args []any, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
				return s.handleOpenKan(pid, reply)
			}},
		{Name: "吃", Description: "用手牌两张吃上家弃牌", Public: true, Private: true,
			Checkers: []msgcheck.Checker{tileArg, tileArg},
			Handle: func(args []any, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
				return s.handleChi(args[0].(string), args[1].(string), pid, reply)
			}},
		{Name: "加杠", Description: "将已碰的刻子升级为杠", Public: true, Private: true,
			Checkers: []msgcheck.Checker{tileArg},
			Handle: func(args []any, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
				return s.handleAddedKan(args[0].(string), pid, reply)
			}},
		{Name: "九种九牌", Description: "首轮手牌幺九九种以上，流局", Public: true, Private: true,
			Handle: func(args []any, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
				return s.handleNineTerminals(pid, reply)
			}},
		{Name: "过", Description: "放弃鸣牌或荣和", Public: true, Private: true,
			Handle: func(args []any, pid int, isPublic bool, reply msgcheck.ScopedSender) int {
				return s.handlePass(pid, reply)
			}},
	}
}

func (s *MainStage) StageInfo() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s - 庄家%d 第%d巡\n", s.Name(), s.dealer, s.round)
	for seat, p := range s.players {
		fmt.Fprintf(&sb, "玩家%d 手牌%d张 副露%d组 点数%d\n", seat, len(p.Hand), len(p.Furu), startScore+s.deltas[seat])
	}
	switch s.ph {
	case phaseDraw:
		fmt.Fprintf(&sb, "轮到玩家%d摸切\n", s.current)
	case phaseReact:
		fmt.Fprintf(&sb, "玩家%d打出%s，等待鸣牌\n", s.discarder, s.lastDiscard.String())
	case phaseRon:
		fmt.Fprintf(&sb, "本巡结束，等待荣和宣告\n")
	}
	return sb.String()
}

func (s *MainStage) CommandInfo(textMode bool) string {
	var sb strings.Builder
	sb.WriteString("\n\n### commands - 麻将")
	for i, cmd := range s.commands {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, cmd.Info())
	}
	return sb.String()
}

func (s *MainStage) IsOver() bool { return s.ph == phaseOver }

func (s *MainStage) HandleStageBegin() {
	s.Broadcast().WriteString(fmt.Sprintf("开局，庄家为玩家%d", s.dealer))
	s.startNormalStage()
}

func (s *MainStage) HandleTimeout() stage.Code {
	switch s.ph {
	case phaseReact:
		s.closeReactionWindow()
	case phaseRon:
		for seat := 0; seat < numSeats && s.ph == phaseRon; seat++ {
			if s.players[seat].State == StateNotifiedRon {
				s.handlePass(seat, discardSink{s})
			}
		}
	}
	return stage.OK
}

func (s *MainStage) HandleRequest(reader *msgcheck.Reader, pid stage.PlayerID, isPublic bool, reply msgsink.ScopedSender) stage.Code {
	for _, cmd := range s.commands {
		if code, ok := cmd.CallIfValid(reader, pid, isPublic, reply); ok {
			if s.ph == phaseOver {
				return stage.Checkout
			}
			return stage.Code(code)
		}
	}
	return stage.NotFound
}

func (s *MainStage) HandleLeave(pid stage.PlayerID) stage.Code {
	s.players[pid].IsComputer = true
	s.Broadcast().WriteString(fmt.Sprintf("玩家%d离座，由电脑接管", pid))
	return stage.OK
}

// HandleComputerAct drives a seat under computer control. Each of the
// three AutoOption flags gets a distinct, real effect (ported from
// sync_mahjong.h's AUTO_FU/AUTO_KIRI/AUTO_GET_TILE): AutoFu auto-declares
// any win the instant it is legal (tsumo on draw, ron in the ron stage)
// instead of waiting for the default action below; AutoKiri picks
// PerformDefault's fast tsumogiri discard rather than the first tile in
// hand; AutoGetTile, when unset, makes the seat actively consider an
// available pon during the reaction window rather than only ever passing.
func (s *MainStage) HandleComputerAct(pid stage.PlayerID) stage.Code {
	p := s.players[pid]
	switch s.ph {
	case phaseDraw:
		if int(pid) != s.current {
			return stage.OK
		}
		s.performComputerDraw(int(pid), p)
	case phaseReact:
		if int(pid) != s.discarder && !s.reacted[pid] {
			if !p.GetAutoOption(AutoGetTile) && countOf(p.Hand, s.lastDiscard) >= 2 {
				s.handlePon(int(pid), discardSink{s})
				break
			}
			s.handlePass(int(pid), discardSink{s})
		}
	case phaseRon:
		if p.State == StateNotifiedRon {
			if p.GetAutoOption(AutoFu) && s.declareRon(int(pid)) {
				if s.ronMask.IsReady() {
					s.onRonMaskReady()
				}
				break
			}
			// PerformDefault's timeout path: decline unconditionally.
			s.handlePass(int(pid), discardSink{s})
		}
	}
	if s.ph == phaseOver {
		return stage.Checkout
	}
	return stage.OK
}

// performComputerDraw mirrors the drawing seat's PerformAi/PerformDefault
// choice: auto-tsumo if AutoFu allows it and the hand is complete,
// otherwise discard by AutoKiri's tsumogiri rule or fall back to the
// first tile in hand.
func (s *MainStage) performComputerDraw(pid int, p *Player) {
	if p.GetAutoOption(AutoFu) && IsWinningHand(p.Hand, p.Furu) {
		s.handleTsumo(pid, discardSink{s})
		return
	}
	if len(p.Hand) == 0 {
		return
	}
	discard := p.Hand[len(p.Hand)-1]
	if !p.GetAutoOption(AutoKiri) {
		discard = p.Hand[0]
	}
	tok := discard.String()
	if discard.Suit == Honor {
		for name, num := range honorNames {
			if num == discard.Num {
				tok = name
			}
		}
	} else if discard.Red {
		tok = tok[:2]
	}
	s.handleDiscard(tok, pid, discardSink{s})
}

// discardSink discards a ScopedSender's output (computer actions narrate to
// nobody in particular; the ensuing broadcasts still reach every seat).
type discardSink struct{ s *MainStage }

func (discardSink) WriteString(string) (int, error) { return 0, nil }

// PlayerScore reports seat pid's net point swing for this hand.
func (s *MainStage) PlayerScore(pid stage.PlayerID) int64 { return s.deltas[pid] }

// startNormalStage opens a fresh go-around: every seat resets to
// StateRoundBegin, the shared discard pool is cleared, and the seat that
// began the go-around is recorded so advanceTurn can detect a full lap.
func (s *MainStage) startNormalStage() {
	s.ph = phaseDraw
	s.discards = nil
	s.roundStartSeat = s.current
	for _, p := range s.players {
		p.State = StateRoundBegin
	}
	s.turnBegin()
}

func (s *MainStage) turnBegin() {
	s.haitei = false
	if !s.mustDiscardNoDraw {
		t, ok := s.yama.Draw()
		if !ok {
			s.resolveRyuukyoku()
			return
		}
		cur := s.players[s.current]
		cur.Hand = append(cur.Hand, t)
		cur.transition(actDraw)
		s.haitei = s.yama.RemainingLive() == 0
	}
	s.mustDiscardNoDraw = false
	s.ph = phaseDraw
	for i := range s.reacted {
		s.reacted[i] = false
	}
}

func (s *MainStage) handleDiscard(tok string, pid int, reply msgcheck.ScopedSender) int {
	if pid != s.current || s.ph != phaseDraw {
		reply.WriteString("[错误] 当前不是您的出牌回合")
		return int(stage.Failed)
	}
	tile, ok := parseTile(tok)
	if !ok {
		reply.WriteString("[错误] 无法识别的牌：" + tok)
		return int(stage.Failed)
	}
	p := s.players[pid]
	if !p.RemoveFromHand(tile) {
		reply.WriteString("[错误] 手牌中没有" + tile.String())
		return int(stage.Failed)
	}
	if !p.transition(actKiri) {
		p.Hand = append(p.Hand, tile) // put it back, the state table rejected this
		reply.WriteString("[错误] 当前状态无法出牌")
		return int(stage.Failed)
	}
	if s.pendingRiichi {
		p.Riichi = true
		p.IppatsuActive = true
		p.RichiRound = s.round
		s.pendingRiichi = false
	}
	p.Discard(tile)
	s.lastDiscard = tile
	s.discarder = pid
	s.houtei = s.yama.RemainingLive() == 0
	s.discards = append(s.discards, discardEvent{seat: pid, tile: tile})
	s.ph = phaseReact
	for i := range s.reacted {
		s.reacted[i] = i == pid
	}
	s.Broadcast().WriteString(fmt.Sprintf("玩家%d打出%s", pid, tile.String()))
	if !s.anyCallPossible() {
		s.closeReactionWindow()
	}
	return int(stage.OK)
}

func (s *MainStage) handleRiichi(pid int, reply msgcheck.ScopedSender) int {
	if pid != s.current || s.ph != phaseDraw {
		reply.WriteString("[错误] 当前不是您的出牌回合")
		return int(stage.Failed)
	}
	p := s.players[pid]
	if !p.IsClosed() {
		reply.WriteString("[错误] 副露后无法立直")
		return int(stage.Failed)
	}
	s.pendingRiichi = true
	reply.WriteString("宣告立直成功，请选择要打出的牌")
	return int(stage.OK)
}

func (s *MainStage) handleTsumo(pid int, reply msgcheck.ScopedSender) int {
	if pid != s.current || s.ph != phaseDraw {
		reply.WriteString("[错误] 当前不是您的摸牌回合")
		return int(stage.Failed)
	}
	p := s.players[pid]
	if !IsWinningHand(p.Hand, p.Furu) {
		reply.WriteString("[错误] 尚未和牌")
		return int(stage.Failed)
	}
	win := s.buildWin(pid, p.Hand, p.Hand[len(p.Hand)-1], true)
	win.Haitei = s.haitei
	result := yaku.Score(win, pid == s.dealer)
	if result.Han == 0 && !result.IsYakuman {
		reply.WriteString("[错误] 没有役，无法和牌")
		return int(stage.Failed)
	}
	p.transition(actTsumo)
	s.applyWins([]winClaim{{seat: pid, from: -1, result: result, tsumo: true}})
	return int(stage.OK)
}

// handleRon declares a ron during the synchronous ron-stage barrier
// opened once a full go-around of discards has passed with no calls left
// to make; it does not resolve the hand by itself; see onRonMaskReady.
func (s *MainStage) handleRon(pid int, reply msgcheck.ScopedSender) int {
	if s.ph != phaseRon || s.players[pid].State != StateNotifiedRon {
		reply.WriteString("[错误] 当前无法荣和")
		return int(stage.Failed)
	}
	if !s.declareRon(pid) {
		reply.WriteString("[错误] 尚未和牌")
		return int(stage.Failed)
	}
	s.Broadcast().WriteString(fmt.Sprintf("玩家%d荣和", pid))
	if s.ronMask.IsReady() {
		s.onRonMaskReady()
	}
	return int(stage.OK)
}

func (s *MainStage) handlePon(pid int, reply msgcheck.ScopedSender) int {
	if s.ph != phaseReact || pid == s.discarder {
		reply.WriteString("[错误] 当前无法碰")
		return int(stage.Failed)
	}
	p := s.players[pid]
	if countOf(p.Hand, s.lastDiscard) < 2 {
		reply.WriteString("[错误] 手牌不足以碰")
		return int(stage.Failed)
	}
	p.Hand = removeN(p.Hand, s.lastDiscard, 2)
	p.AddFuru(Furu{Kind: FuruPon, Tiles: []Tile{s.lastDiscard, s.lastDiscard, s.lastDiscard}, FromSeat: s.discarder})
	s.players[s.discarder].MarkCalled()
	s.markDiscardClaimed(s.discarder, s.lastDiscard)
	p.State = StateAfterChiPon
	s.current = pid
	s.mustDiscardNoDraw = true
	s.Broadcast().WriteString(fmt.Sprintf("玩家%d碰了%s", pid, s.lastDiscard.String()))
	s.turnBegin()
	return int(stage.OK)
}

func (s *MainStage) handleOpenKan(pid int, reply msgcheck.ScopedSender) int {
	if s.ph != phaseReact || pid == s.discarder {
		reply.WriteString("[错误] 当前无法杠")
		return int(stage.Failed)
	}
	p := s.players[pid]
	if countOf(p.Hand, s.lastDiscard) < 3 {
		reply.WriteString("[错误] 手牌不足以杠")
		return int(stage.Failed)
	}
	p.Hand = removeN(p.Hand, s.lastDiscard, 3)
	p.AddFuru(Furu{Kind: FuruKanOpen, Tiles: []Tile{s.lastDiscard, s.lastDiscard, s.lastDiscard, s.lastDiscard}, FromSeat: s.discarder})
	s.players[s.discarder].MarkCalled()
	s.markDiscardClaimed(s.discarder, s.lastDiscard)
	p.State = StateAfterKanCanNari
	s.current = pid
	s.drawRinshanFor(pid)
	s.Broadcast().WriteString(fmt.Sprintf("玩家%d明杠了%s", pid, s.lastDiscard.String()))
	return int(stage.OK)
}

func (s *MainStage) handleClosedKan(tok string, pid int, reply msgcheck.ScopedSender) int {
	if pid != s.current || s.ph != phaseDraw {
		reply.WriteString("[错误] 当前不是您的摸牌回合")
		return int(stage.Failed)
	}
	tile, ok := parseTile(tok)
	if !ok {
		reply.WriteString("[错误] 无法识别的牌：" + tok)
		return int(stage.Failed)
	}
	p := s.players[pid]
	if countOf(p.Hand, tile) < 4 {
		reply.WriteString("[错误] 手牌不足以暗杠")
		return int(stage.Failed)
	}
	p.Hand = removeN(p.Hand, tile, 4)
	p.AddFuru(Furu{Kind: FuruKanClosed, Tiles: []Tile{tile, tile, tile, tile}, FromSeat: -1})
	p.transition(actKan)
	s.drawRinshanFor(pid)
	s.Broadcast().WriteString(fmt.Sprintf("玩家%d暗杠了%s", pid, tile.String()))
	return int(stage.OK)
}

// handleAddedKan upgrades an existing pon of tok into a kan from the
// caller's own drawn tile. Real play opens a brief window letting any of
// the other three seats rob the kan (chankan); this simplifies that to an
// immediate check, resolving in favor of the first qualifying seat in
// turn order after pid, since only one seat can ever actually declare it
// in practice (a second qualifying seat would already be furiten on the
// same wait or holds a different wait entirely).
func (s *MainStage) handleAddedKan(tok string, pid int, reply msgcheck.ScopedSender) int {
	if pid != s.current || s.ph != phaseDraw {
		reply.WriteString("[错误] 当前不是您的摸牌回合")
		return int(stage.Failed)
	}
	tile, ok := parseTile(tok)
	if !ok {
		reply.WriteString("[错误] 无法识别的牌：" + tok)
		return int(stage.Failed)
	}
	p := s.players[pid]
	ponIdx := -1
	for i, f := range p.Furu {
		if f.Kind == FuruPon && len(f.Tiles) > 0 && f.Tiles[0].Suit == tile.Suit && f.Tiles[0].Num == tile.Num {
			ponIdx = i
			break
		}
	}
	if ponIdx < 0 || !p.RemoveFromHand(tile) {
		reply.WriteString("[错误] 没有可加杠的刻子")
		return int(stage.Failed)
	}
	for other := 1; other < numSeats; other++ {
		seat := (pid + other) % numSeats
		op := s.players[seat]
		if op.Furiten {
			continue
		}
		trial := append(append([]Tile(nil), op.Hand...), tile)
		if !IsWinningHand(trial, op.Furu) {
			continue
		}
		win := s.buildWin(seat, trial, tile, false)
		win.Chankan = true
		result := yaku.Score(win, seat == s.dealer)
		if result.Han == 0 && !result.IsYakuman {
			continue
		}
		s.Broadcast().WriteString(fmt.Sprintf("玩家%d加杠%s被抢杠", pid, tile.String()))
		op.transition(actRon)
		s.applyWins([]winClaim{{seat: seat, from: pid, result: result, tsumo: false}})
		return int(stage.OK)
	}
	p.Furu[ponIdx].Kind = FuruKanAdded
	p.Furu[ponIdx].Tiles = append(p.Furu[ponIdx].Tiles, tile)
	p.transition(actKan)
	s.Broadcast().WriteString(fmt.Sprintf("玩家%d加杠了%s", pid, tile.String()))
	s.drawRinshanFor(pid)
	return int(stage.OK)
}

func (s *MainStage) drawRinshanFor(pid int) {
	t, ok := s.yama.DrawRinshan()
	s.yama.RevealKanDora()
	if !ok {
		s.resolveRyuukyoku()
		return
	}
	s.players[pid].Hand = append(s.players[pid].Hand, t)
	s.ph = phaseDraw
}

func (s *MainStage) handleChi(tok1, tok2 string, pid int, reply msgcheck.ScopedSender) int {
	if s.ph != phaseReact || pid == s.discarder {
		reply.WriteString("[错误] 当前无法吃")
		return int(stage.Failed)
	}
	p := s.players[pid]
	if !canChiFrom(p.FromChi, s.discarder) {
		reply.WriteString("[错误] 无法吃该玩家的弃牌")
		return int(stage.Failed)
	}
	t1, ok1 := parseTile(tok1)
	t2, ok2 := parseTile(tok2)
	if !ok1 || !ok2 {
		reply.WriteString("[错误] 无法识别的牌")
		return int(stage.Failed)
	}
	if !contains(p.Hand, t1) || !contains(p.Hand, t2) {
		reply.WriteString("[错误] 手牌中没有所需的牌")
		return int(stage.Failed)
	}
	meld := []Tile{s.lastDiscard, t1, t2}
	if !formsRun(meld) {
		reply.WriteString("[错误] 无法组成顺子")
		return int(stage.Failed)
	}
	p.Hand = removeOne(removeOne(p.Hand, t1), t2)
	p.AddFuru(Furu{Kind: FuruChi, Tiles: sortedCopy(meld), FromSeat: s.discarder})
	s.players[s.discarder].MarkCalled()
	s.markDiscardClaimed(s.discarder, s.lastDiscard)
	p.State = StateAfterChiPon
	s.current = pid
	s.mustDiscardNoDraw = true
	s.Broadcast().WriteString(fmt.Sprintf("玩家%d吃了%s", pid, s.lastDiscard.String()))
	s.turnBegin()
	return int(stage.OK)
}

// handleNineTerminals declares 九种九牌 (nine kinds, nine tiles): a
// first-go-around abortive draw available only to a seat that has just
// drawn, never called, and holds at least nine distinct terminal/honor
// kinds. Implemented as a direct declaration rather than sync_mahjong.h's
// indirect empty-river inference, since this engine is message-driven and
// a direct declaration is simpler and equally correct.
func (s *MainStage) handleNineTerminals(pid int, reply msgcheck.ScopedSender) int {
	if s.round != 1 || pid != s.current || s.ph != phaseDraw {
		reply.WriteString("[错误] 当前无法宣告九种九牌")
		return int(stage.Failed)
	}
	p := s.players[pid]
	if len(p.River) != 0 || len(p.Furu) != 0 {
		reply.WriteString("[错误] 只能在本局尚未出牌或鸣牌时宣告")
		return int(stage.Failed)
	}
	if !p.HasNineTerminalKinds() {
		reply.WriteString("[错误] 幺九牌种类不足九种")
		return int(stage.Failed)
	}
	p.transition(actNineTerminals)
	s.finishChutoNagashi("九种九牌")
	return int(stage.OK)
}

func (s *MainStage) handlePass(pid int, reply msgcheck.ScopedSender) int {
	switch s.ph {
	case phaseReact:
		if pid == s.discarder {
			reply.WriteString("[错误] 当前无需操作")
			return int(stage.Failed)
		}
		s.reacted[pid] = true
		if s.allReacted() {
			s.closeReactionWindow()
		}
		return int(stage.OK)
	case phaseRon:
		p := s.players[pid]
		if p.State != StateNotifiedRon {
			reply.WriteString("[错误] 当前无需操作")
			return int(stage.Failed)
		}
		// declining a ron the barrier already confirmed is legal for this
		// seat sets furiten for the rest of the hand.
		p.Furiten = true
		p.transition(actOver)
		if s.ronMask.Set(pid) {
			s.onRonMaskReady()
		}
		return int(stage.OK)
	default:
		reply.WriteString("[错误] 当前无需操作")
		return int(stage.Failed)
	}
}

func (s *MainStage) markDiscardClaimed(seat int, tile Tile) {
	for i := len(s.discards) - 1; i >= 0; i-- {
		if s.discards[i].seat == seat && s.discards[i].tile == tile && !s.discards[i].claimed {
			s.discards[i].claimed = true
			return
		}
	}
}

func (s *MainStage) waitingTileFor(pid int, t Tile) bool {
	for _, cand := range s.players[pid].WaitingTiles() {
		if cand.Suit == t.Suit && cand.Num == t.Num {
			return true
		}
	}
	return false
}

func (s *MainStage) allReacted() bool {
	for seat := 0; seat < numSeats; seat++ {
		if seat != s.discarder && !s.reacted[seat] {
			return false
		}
	}
	return true
}

// anyCallPossible reports whether any seat still has a chi/pon/kan
// available on lastDiscard; ron is no longer considered here, since ron
// only ever resolves through the synchronized ron-stage barrier.
func (s *MainStage) anyCallPossible() bool {
	for seat := 0; seat < numSeats; seat++ {
		if seat == s.discarder {
			continue
		}
		p := s.players[seat]
		if countOf(p.Hand, s.lastDiscard) >= 2 {
			return true
		}
		if canChiFrom(p.FromChi, s.discarder) {
			for _, t1 := range p.Hand {
				for _, t2 := range p.Hand {
					if formsRun([]Tile{s.lastDiscard, t1, t2}) {
						return true
					}
				}
			}
		}
	}
	return false
}

// closeReactionWindow ends a discard's call window once every seat has
// passed or no call was ever possible, advancing to the next seat's turn
// or, on a full lap, to the go-around's ron stage.
func (s *MainStage) closeReactionWindow() {
	s.players[s.discarder].transition(actOver)
	s.advanceTurn()
}

func (s *MainStage) advanceTurn() {
	next := (s.discarder + 1) % numSeats
	if next == s.roundStartSeat {
		s.endNormalStage()
		return
	}
	s.current = next
	s.turnBegin()
}

// endNormalStage closes out a go-around once every seat has had its turn:
// any wins already held in s.wins are resolved first, otherwise the engine
// opens the synchronized ron stage. A chankan does not pass through here;
// handleAddedKan pays it at once through applyWins.
func (s *MainStage) endNormalStage() {
	if s.finishIfTripleRon() {
		return
	}
	if len(s.wins) > 0 {
		s.applyWins(s.wins)
		return
	}
	s.startRonStage()
}

// startRonStage opens the synchronous ron-stage barrier (sync_mahjong.h's
// StartRonStage_): every seat with a legal ron on an unclaimed discard
// this lap is notified at once and must declare or decline before the
// go-around can close, which is what lets two different seats each ron
// the same or different discards simultaneously.
func (s *MainStage) startRonStage() {
	s.ph = phaseRon
	s.ronMask = masker.New(numSeats)
	for seat := 0; seat < numSeats; seat++ {
		p := s.players[seat]
		if !s.canRon(seat) {
			s.ronMask.Pin(seat)
			continue
		}
		p.State = StateNotifiedRon
	}
	for seat := 0; seat < numSeats; seat++ {
		p := s.players[seat]
		if p.State == StateNotifiedRon && p.GetAutoOption(AutoFu) {
			s.declareRon(seat)
		}
	}
	if s.ronMask.IsReady() {
		s.onRonMaskReady()
	}
}

// onRonMaskReady runs once every notified seat has declared or declined:
// a triple ron chuto-nagashi aborts the hand outright; one or two ronners
// are scored and paid together; otherwise the go-around closes with no
// win and the hand moves on to its end-of-lap checks.
func (s *MainStage) onRonMaskReady() {
	if s.finishIfTripleRon() {
		return
	}
	if len(s.wins) > 0 {
		s.applyWins(s.wins)
		return
	}
	s.afterRonStageNoWin()
}

// afterRonStageNoWin runs sync_mahjong.h's RoundOver tail once a
// go-around closes with no winner: riichi sticks are collected into the
// pot, the first-round special abortive draws are checked, the wall's
// exhaustion ends the hand, and otherwise the next go-around begins.
func (s *MainStage) afterRonStageNoWin() {
	s.collectRiichiSticks()
	if s.round == 1 && s.fourWindDiscard() {
		s.finishChutoNagashi("四风连打")
		return
	}
	if s.yama.RemainingLive() == 0 {
		s.resolveRyuukyoku()
		return
	}
	s.round++
	if s.fourRiichi() {
		s.finishChutoNagashi("四家立直")
		return
	}
	s.current = (s.roundStartSeat + 1) % numSeats
	s.startNormalStage()
}

func (s *MainStage) finishIfTripleRon() bool {
	if len(s.wins) >= 3 {
		s.finishChutoNagashi("三家和了")
		return true
	}
	return false
}

// canRon reports whether seat has a legal ron waiting among this
// go-around's unclaimed discards.
func (s *MainStage) canRon(seat int) bool {
	_, _, ok := s.findRon(seat)
	return ok
}

// findRon scans this go-around's discard pool for the first unclaimed
// tile (other than seat's own) that completes seat's hand with a yaku,
// returning its index in s.discards alongside the scored result. A seat
// that is Furiten, or whose own river holds one of its waiting tiles,
// finds none.
func (s *MainStage) findRon(seat int) (int, yaku.Result, bool) {
	p := s.players[seat]
	if p.Furiten {
		return 0, yaku.Result{}, false
	}
	for _, t := range p.River {
		if s.waitingTileFor(seat, t) {
			return 0, yaku.Result{}, false
		}
	}
	for i, d := range s.discards {
		if d.claimed || d.seat == seat {
			continue
		}
		trial := append(append([]Tile(nil), p.Hand...), d.tile)
		if !IsWinningHand(trial, p.Furu) {
			continue
		}
		win := s.buildWin(seat, trial, d.tile, false)
		win.Houtei = s.houtei && i == len(s.discards)-1
		result := yaku.Score(win, seat == s.dealer)
		if result.Han == 0 && !result.IsYakuman {
			continue
		}
		return i, result, true
	}
	return 0, yaku.Result{}, false
}

// declareRon commits seat's ron against the first discard findRon locates,
// appending it to s.wins and marking the ron-stage barrier. It returns
// false if seat in fact has no legal ron (guards against a stale
// StateNotifiedRon left over from a race with the barrier closing).
func (s *MainStage) declareRon(seat int) bool {
	idx, result, ok := s.findRon(seat)
	if !ok {
		return false
	}
	d := s.discards[idx]
	s.wins = append(s.wins, winClaim{seat: seat, from: d.seat, result: result, tsumo: false})
	s.players[seat].transition(actRon)
	s.ronMask.Set(seat)
	return true
}

func (s *MainStage) fourWindDiscard() bool {
	first := -1
	for seat := 0; seat < numSeats; seat++ {
		p := s.players[seat]
		if len(p.River) != 1 || len(p.Furu) != 0 {
			return false
		}
		t := p.River[0]
		if t.Suit != Honor || t.Num > North {
			return false
		}
		if first == -1 {
			first = t.Num
		} else if t.Num != first {
			return false
		}
	}
	return true
}

func (s *MainStage) fourRiichi() bool {
	for _, p := range s.players {
		if !p.Riichi {
			return false
		}
	}
	return true
}

// collectRiichiSticks forfeits one stick into the pot for every seat that
// declared riichi this go-around, ported from sync_mahjong.h's RoundOver
// richii_points_ bookkeeping (done once per go-around, not at declare
// time, so the stick goes on the table when the go-around in which riichi
// was declared closes without a win).
func (s *MainStage) collectRiichiSticks() {
	for _, p := range s.players {
		if p.RichiRound == s.round {
			s.riichiPot += riichiStick
			s.deltas[p.Seat] -= riichiStick
		}
	}
}

// buildWin assembles the scoring context for pid's win. concealedFull is
// the complete concealed hand at the moment of winning, including winTile
// (the tsumo draw or the ronned discard).
func (s *MainStage) buildWin(pid int, concealedFull []Tile, winTile Tile, tsumo bool) yaku.Win {
	p := s.players[pid]
	return yaku.Win{
		Tiles:        append([]Tile(nil), concealedFull...),
		Furu:         p.Furu,
		WinTile:      winTile,
		Tsumo:        tsumo,
		Riichi:       p.Riichi,
		DoubleRiichi: p.DoubleRiichi,
		Ippatsu:      p.IppatsuActive,
		SeatWind:     East + (pid-s.dealer+numSeats)%numSeats,
		RoundWind:    East,
		DoraTiles:    s.yama.DoraTiles(),
	}
}

// applyWins scores and pays out 1-3 simultaneous winners (ported from
// sync_mahjong.h's HandleFuResults_/GetFuResultsForRon_ score-splitting),
// each also drawing an equal share of the accumulated riichi-stick pot.
func (s *MainStage) applyWins(wins []winClaim) {
	s.wins = wins
	s.ph = phaseOver
	potShare := s.riichiPot / int64(len(wins))
	var sb strings.Builder
	for _, w := range wins {
		kind := "荣和"
		if w.tsumo {
			kind = "自摸"
			share := w.result.Points / 3
			s.deltas[w.seat] += w.result.Points
			for seat := 0; seat < numSeats; seat++ {
				if seat != w.seat {
					s.deltas[seat] -= share
				}
			}
		} else {
			s.deltas[w.seat] += w.result.Points
			s.deltas[w.from] -= w.result.Points
		}
		s.deltas[w.seat] += potShare
		fmt.Fprintf(&sb, "玩家%d%s！役：", w.seat, kind)
		for _, y := range w.result.Yaku {
			sb.WriteString(y.Name)
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "\n番数%d 符%d 点数%d\n", w.result.Han, w.result.Fu, w.result.Points)
	}
	s.riichiPot = 0
	s.Broadcast().WriteString(sb.String())
}

func (s *MainStage) finishChutoNagashi(reason string) {
	s.ph = phaseOver
	s.ryuukyoku = true
	s.ryuukyokuReason = reason
	s.Broadcast().WriteString(reason + "，本局流局")
}

// resolveRyuukyoku handles wall exhaustion (荒牌流局): nagashi mangan is
// routed through the same win/riichi-pot pipeline a tsumo uses, exactly
// as sync_mahjong.h's TryFillNagashiManganResult_ appends straight into
// fu_results_ rather than scoring separately; three simultaneous nagashi
// manguan winners abort as chuto-nagashi the same as three ronners would.
// Failing that, it falls back to an ordinary tenpai/noten point split.
func (s *MainStage) resolveRyuukyoku() {
	var wins []winClaim
	for seat, p := range s.players {
		if p.Nagashi {
			result := yaku.Score(yaku.Win{Nagashi: true}, seat == s.dealer)
			wins = append(wins, winClaim{seat: seat, from: -1, result: result, tsumo: true})
		}
	}
	if len(wins) >= 3 {
		s.finishChutoNagashi("三家和了")
		return
	}
	if len(wins) > 0 {
		s.applyWins(wins)
		return
	}
	s.finishTenpaiSplit()
}

func (s *MainStage) finishTenpaiSplit() {
	s.ph = phaseOver
	s.ryuukyoku = true
	s.ryuukyokuReason = "荒牌流局"
	var tenpai []int
	for seat, p := range s.players {
		if len(p.WaitingTiles()) > 0 {
			tenpai = append(tenpai, seat)
		}
	}
	payouts := map[int]int64{0: 0, 1: 3000, 2: 1500, 3: 1000, 4: 0}
	if len(tenpai) > 0 && len(tenpai) < numSeats {
		gain := payouts[len(tenpai)]
		noten := numSeats - len(tenpai)
		cost := (gain * int64(len(tenpai))) / int64(noten)
		tenpaiSet := map[int]bool{}
		for _, seat := range tenpai {
			tenpaiSet[seat] = true
			s.deltas[seat] += gain
		}
		for seat := 0; seat < numSeats; seat++ {
			if !tenpaiSet[seat] {
				s.deltas[seat] -= cost
			}
		}
	}
	s.Broadcast().WriteString(fmt.Sprintf("流局，听牌玩家：%v", tenpai))
}

func formsRun(tiles []Tile) bool {
	if len(tiles) != 3 {
		return false
	}
	suit := tiles[0].Suit
	if suit == Honor {
		return false
	}
	nums := []int{tiles[0].Num, tiles[1].Num, tiles[2].Num}
	for _, t := range tiles[1:] {
		if t.Suit != suit {
			return false
		}
	}
	for i := 1; i < 3; i++ {
		for j := 0; j < 3-i; j++ {
			if nums[j] > nums[j+1] {
				nums[j], nums[j+1] = nums[j+1], nums[j]
			}
		}
	}
	return nums[1] == nums[0]+1 && nums[2] == nums[1]+1
}

// Build adapts New into a match.GameFactory.
func Build(shuffle func(n int, swap func(i, j int))) match.GameFactory {
	return func(m *match.Match) stage.MainStage {
		return New(m, shuffle)
	}
}
