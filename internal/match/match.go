// Package match implements the Match object: one instance of this type
// represents exactly one in-flight game, its participant roster, its stage
// tree, its countdown timer, and the bookkeeping needed to report scores to
// the results store once it finishes.
package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"boardkeeper/internal/msgcheck"
	"boardkeeper/internal/msgsink"
	"boardkeeper/internal/stage"
	"boardkeeper/internal/store"
	"boardkeeper/internal/timer"
)

// State is the match lifecycle's three phases.
type State int

const (
	NotStarted State = iota
	IsStarted
	IsOver
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NOT_STARTED"
	case IsStarted:
		return "IS_STARTED"
	case IsOver:
		return "IS_OVER"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrAlreadyStarted  = errors.New("match: already started")
	ErrNotStarted      = errors.New("match: not started")
	ErrAlreadyOver     = errors.New("match: already over")
	ErrTooFewPlayers   = errors.New("match: not enough players to start")
	ErrNotParticipant  = errors.New("match: user is not a participant")
	ErrNotHost         = errors.New("match: only the host may do this")
	ErrAlreadyJoined   = errors.New("match: user already joined")
	ErrMatchFull       = errors.New("match: seat count fixed at start, match full")
)

// Participant is one seat's bookkeeping, independent of any particular
// game's rules.
type Participant struct {
	UserID       uint64
	IsComputer   bool
	Left         bool
	KickOnConfig bool
	joinOrder    int
}

// GameFactory builds a fresh stage tree over m once the match has enough
// participants to start; it is supplied by the game module a match is
// created for (internal/games/*).
type GameFactory func(m *Match) stage.MainStage

// Match is one in-flight game. All mutation goes through its mutex; callers
// must never hold a registry lock while acquiring it (internal/registry
// never calls back into a Match, so this rule is about callers, not about
// this package).
type Match struct {
	mu sync.Mutex

	id       uint64
	gameName string
	groupID  uint64 // 0 for an all-private match
	hostUID  uint64
	multiple int

	participants []*Participant
	benchTo      int // 0 means "no bench limit beyond len(participants)"

	state State
	main  stage.MainStage
	build GameFactory

	sink  *msgsink.Sink
	timer *timer.Timer

	results    store.ResultsStore
	log        *zap.Logger
	onTerminate func(*Match)

	computerDelay time.Duration
}

// Config supplies the dependencies and initial host a new Match needs.
type Config struct {
	ID            uint64
	GameName      string
	GroupID       uint64
	HostUID       uint64
	Multiple      int
	Build         GameFactory
	Tell          msgsink.TellFunc
	Broadcast     msgsink.BroadcastFunc
	AtMention     msgsink.AtMentionFunc
	Results       store.ResultsStore
	Log           *zap.Logger
	OnTerminate   func(*Match)
	ComputerDelay time.Duration
}

// New constructs a match with its host already joined as participant 0.
func New(cfg Config) *Match {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	m := &Match{
		id:            cfg.ID,
		gameName:      cfg.GameName,
		groupID:       cfg.GroupID,
		hostUID:       cfg.HostUID,
		multiple:      cfg.Multiple,
		build:         cfg.Build,
		results:       cfg.Results,
		log:           log,
		onTerminate:   cfg.OnTerminate,
		computerDelay: cfg.ComputerDelay,
		timer:         timer.New(),
	}
	m.sink = msgsink.New(cfg.GroupID, m.userIDs, cfg.Tell, cfg.Broadcast, cfg.AtMention)
	m.participants = append(m.participants, &Participant{UserID: cfg.HostUID})
	return m
}

func (m *Match) userIDs() []uint64 {
	ids := make([]uint64, 0, len(m.participants))
	for _, p := range m.participants {
		if !p.Left {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}

// ID reports the match's registry ID.
func (m *Match) ID() uint64 { return m.id }

// Tell satisfies stage.Match: it translates a stage-local seat index into
// the participant's user ID and opens a private sender for it.
func (m *Match) Tell(pid int) msgsink.ScopedSender {
	m.mu.Lock()
	uid := m.participants[pid].UserID
	m.mu.Unlock()
	return m.sink.Tell(uid)
}

// Broadcast satisfies stage.Match.
func (m *Match) Broadcast() msgsink.ScopedSender { return m.sink.Broadcast() }

// StartTimer satisfies stage.Match by (re)arming the match's countdown.
// onAlert/onTimeout close over the match mutex, re-checking the current
// stage hasn't already been checked out from under the timer (a timer
// callback that fires just as a request is about to check the stage out
// loses the race harmlessly: HandleTimeout on an already-over stage is a
// no-op by construction).
func (m *Match) StartTimer(seconds int) {
	onAlert := func(remaining time.Duration) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.state != IsStarted {
			return
		}
		sender := m.sink.Broadcast()
		defer sender.Close()
		sender.WriteString(fmt.Sprintf("[alert] %d seconds remaining", int(remaining.Seconds())))
	}
	onTimeout := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.state != IsStarted || m.main == nil {
			return
		}
		m.dispatchTimeout()
	}
	m.timer.Start(time.Duration(seconds)*time.Second, onAlert, onTimeout)
}

// StopTimer satisfies stage.Match.
func (m *Match) StopTimer() { m.timer.Stop() }

// Join adds uid as a new participant, pre-start only.
func (m *Match) Join(uid uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != NotStarted {
		return ErrAlreadyStarted
	}
	for _, p := range m.participants {
		if p.UserID == uid && !p.Left {
			return ErrAlreadyJoined
		}
	}
	if m.benchTo > 0 && len(m.participants) >= m.benchTo {
		return ErrMatchFull
	}
	m.participants = append(m.participants, &Participant{UserID: uid, joinOrder: len(m.participants)})
	return nil
}

// Leave removes uid from the match. Pre-start it simply drops the seat,
// reassigning the host if uid was the host (SwitchHost). Once started, the
// seat is marked Left and pinned out of the stage's readiness masker via
// HandleLeave; if every participant has left the match force-terminates.
func (m *Match) Leave(uid uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.indexOf(uid)
	if idx < 0 {
		return ErrNotParticipant
	}
	if m.state == NotStarted {
		m.participants = append(m.participants[:idx], m.participants[idx+1:]...)
		if uid == m.hostUID && len(m.participants) > 0 {
			m.switchHostLocked()
		}
		if len(m.participants) == 0 {
			m.terminateLocked()
		}
		return nil
	}
	if m.state == IsOver {
		return ErrAlreadyOver
	}
	m.participants[idx].Left = true
	if m.allLeftLocked() {
		m.terminateLocked()
		return nil
	}
	if m.main != nil {
		code := m.main.HandleLeave(idx)
		m.afterHandle(code)
	}
	return nil
}

func (m *Match) allLeftLocked() bool {
	for _, p := range m.participants {
		if !p.Left {
			return false
		}
	}
	return true
}

func (m *Match) indexOf(uid uint64) int {
	for i, p := range m.participants {
		if p.UserID == uid {
			return i
		}
	}
	return -1
}

// SwitchHost reselects the earliest-joined remaining participant as host.
// Pre-start it always succeeds as long as a participant remains; once
// started or over it is a no-op that reports whether any participant is
// still present (original_source/bot_core/match.cc:SwitchHost, preserved
// rather than redesigned per spec.md's open question).
func (m *Match) SwitchHost() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != NotStarted {
		return len(m.participants) > 0
	}
	return m.switchHostLocked()
}

func (m *Match) switchHostLocked() bool {
	if len(m.participants) == 0 {
		return false
	}
	earliest := m.participants[0]
	for _, p := range m.participants[1:] {
		if p.joinOrder < earliest.joinOrder {
			earliest = p
		}
	}
	m.hostUID = earliest.UserID
	sender := m.sink.Broadcast()
	defer sender.Close()
	sender.WriteString(fmt.Sprintf("%s is now the host", m.sink.AtMention(m.hostUID)))
	return true
}

// SetMultiple changes the match's stake multiplier, pre-start only, and
// kicks any participant who opted into leave-on-config-change.
func (m *Match) SetMultiple(uid uint64, multiple int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if uid != m.hostUID {
		return ErrNotHost
	}
	if m.state != NotStarted {
		return ErrAlreadyStarted
	}
	m.multiple = multiple
	m.kickForConfigChangeLocked()
	return nil
}

// SetBenchTo sets the maximum participant count, pre-start only, and kicks
// any participant who opted into leave-on-config-change.
func (m *Match) SetBenchTo(uid uint64, benchTo int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if uid != m.hostUID {
		return ErrNotHost
	}
	if m.state != NotStarted {
		return ErrAlreadyStarted
	}
	m.benchTo = benchTo
	m.kickForConfigChangeLocked()
	return nil
}

// kickForConfigChangeLocked drops every participant who opted into
// leave-on-config-change, announcing them in one buffered broadcast that is
// released (not sent) if nobody was kicked.
func (m *Match) kickForConfigChangeLocked() {
	sender := m.sink.Broadcast()
	kicked := 0
	remaining := m.participants[:0]
	for _, p := range m.participants {
		if p.KickOnConfig && p.UserID != m.hostUID {
			if kicked == 0 {
				sender.WriteString("kicked for a configuration change: ")
			} else {
				sender.WriteString(", ")
			}
			sender.WriteString(m.sink.AtMention(p.UserID))
			kicked++
			continue
		}
		remaining = append(remaining, p)
	}
	m.participants = remaining
	if kicked == 0 {
		sender.Release()
	}
	sender.Close()
}

// GameStart begins the match: it requires at least two participants (the
// common minimum across the example games; a game needing more enforces it
// itself via its Build factory returning an error-signaling stage, which is
// out of scope for this generic check) and builds the stage tree.
func (m *Match) GameStart(uid uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if uid != m.hostUID {
		return ErrNotHost
	}
	if m.state != NotStarted {
		return ErrAlreadyStarted
	}
	if len(m.participants) < 2 {
		return ErrTooFewPlayers
	}
	m.state = IsStarted
	m.main = m.build(m)
	m.main.HandleStageBegin()
	if m.main.IsOver() {
		m.onGameOverLocked()
	}
	return nil
}

// Request routes one chat message from uid to the current stage, recovering
// from any panic a stage handler raises and converting it into forced
// match termination without a results-store write.
func (m *Match) Request(uid uint64, raw string, isPublic bool) (code stage.Code, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.indexOf(uid)
	if idx < 0 || m.participants[idx].Left {
		return stage.NotFound, ErrNotParticipant
	}
	if m.state != IsStarted {
		return stage.NotFound, ErrNotStarted
	}

	defer func() {
		if r := recover(); r != nil {
			m.log.Error("stage handler panicked; terminating match",
				zap.Uint64("match_id", m.id), zap.Any("panic", r))
			m.forceTerminateLocked()
			err = fmt.Errorf("match: internal error, match terminated")
		}
	}()

	reader := msgcheck.NewReader(raw)
	reply := m.sink.Tell(uid)
	defer reply.Close()
	code = m.main.HandleRequest(reader, idx, isPublic, reply)
	m.afterHandle(code)
	return code, nil
}

// afterHandle checks the main stage for completion after any handler call
// that may have checked it out, running end-of-game bookkeeping once.
func (m *Match) afterHandle(code stage.Code) {
	if m.main != nil && m.main.IsOver() {
		m.onGameOverLocked()
	}
}

func (m *Match) dispatchTimeout() {
	code := m.main.HandleTimeout()
	m.afterHandle(code)
}

// ShowInfo renders the match's roster and current stage state.
func (m *Match) ShowInfo() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := fmt.Sprintf("match #%d - %s - %s - %d participant(s)\n", m.id, m.gameName, m.state, len(m.participants))
	if m.main != nil {
		s += m.main.StageInfo()
	}
	return s
}

// onGameOverLocked computes final scores, records them, and transitions to
// IS_OVER. Called with mu held.
func (m *Match) onGameOverLocked() {
	if m.state == IsOver {
		return
	}
	m.state = IsOver
	m.timer.Stop()

	scores := make([]scorePair, 0, len(m.participants))
	for i, p := range m.participants {
		scores = append(scores, scorePair{userID: p.UserID, score: m.main.PlayerScore(i)})
	}
	infos := calScores(scores, uint64(m.multiple))

	sender := m.sink.Broadcast()
	defer sender.Close()
	sender.WriteString(fmt.Sprintf("game over\n%s\n", m.main.StageInfo()))
	switch {
	case m.results == nil:
		sender.WriteString("\nresult not recorded: no results store configured")
	case m.multiple == 0:
		sender.WriteString("\nresult not recorded: practice match")
	default:
		result := store.MatchResult{GameName: m.gameName, GroupID: m.groupID, Multiple: m.multiple, FinishedAt: time.Now()}
		ranks := competitionRanks(infos)
		for i, info := range infos {
			result.Participants = append(result.Participants, store.ParticipantResult{
				UserID: info.userID, Score: info.gameScore, Rank: ranks[i],
			})
			sender.WriteString(fmt.Sprintf("\n%s: zero-sum %d, top %d", m.sink.AtMention(info.userID), info.zeroSum, info.top))
		}
		if err := m.results.RecordMatch(context.Background(), result); err != nil {
			m.log.Error("record match failed", zap.Uint64("match_id", m.id), zap.Error(err))
			sender.WriteString("\n[error] failed to record result")
		}
	}

	if m.onTerminate != nil {
		m.onTerminate(m)
	}
}

// forceTerminateLocked ends the match immediately without recording a
// result, used when a stage handler panics.
func (m *Match) forceTerminateLocked() {
	m.state = IsOver
	m.timer.Stop()
	if m.onTerminate != nil {
		m.onTerminate(m)
	}
}

func (m *Match) terminateLocked() {
	if m.state == IsOver {
		return
	}
	m.state = IsOver
	m.timer.Stop()
	if m.onTerminate != nil {
		m.onTerminate(m)
	}
}

// RunComputerDriver drives every computer-controlled seat's turn in
// round-robin seat order, stopping after the first full pass in which every
// bot seat's act returns OK, or once the match is no longer started
// (original_source/bot_core/match.cc:Routine_).
func (m *Match) RunComputerDriver(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		m.mu.Lock()
		if m.state != IsStarted || m.main == nil {
			m.mu.Unlock()
			return
		}
		acted := false
		for i, p := range m.participants {
			if !p.IsComputer || p.Left {
				continue
			}
			code := m.main.HandleComputerAct(i)
			m.afterHandle(code)
			if code != stage.OK {
				acted = true
			}
			if m.state != IsStarted {
				break
			}
		}
		m.mu.Unlock()
		if !acted || m.state != IsStarted {
			return
		}
		if m.computerDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.computerDelay):
			}
		}
	}
}
