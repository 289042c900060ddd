package stage

import (
	"boardkeeper/internal/masker"
	"boardkeeper/internal/msgcheck"
	"boardkeeper/internal/msgsink"
)

// GameOptions is the minimal surface a stage needs from a game's option
// blob: how many seats are in play. Concrete games implement it over their
// own option struct (internal/gameopt).
type GameOptions interface {
	PlayerNum() int
}

// AtomicHooks are the game-specific callbacks an AtomicStage invokes around
// its own bookkeeping. Every hook has a no-op-friendly zero value: a nil
// OnTimeout/OnPlayerLeave/OnComputerAct/OnStageBegin is simply skipped.
type AtomicHooks struct {
	OnStageBegin   func()
	OnTimeout      func() Code
	OnPlayerLeave  func(pid PlayerID) Code
	OnComputerAct  func(pid PlayerID) Code
	// TimeoutSec is the duration HandleStageBegin arms the match timer for;
	// zero means the stage never times out on its own.
	TimeoutSec int
}

// AtomicStage is a leaf stage: it has no substages of its own and resolves
// player requests directly against its command table, tracking per-seat
// readiness with a private Masker that transparently drives a READY
// command's semantics ("mark ready, and check out once everyone is").
type AtomicStage[O GameOptions] struct {
	Base
	opts   O
	ready  *masker.Masker
	hooks  AtomicHooks
}

// NewAtomic builds an atomic stage over opts, dispatching name's commands
// and invoking hooks around its lifecycle events.
func NewAtomic[O GameOptions](name string, match Match, opts O, hooks AtomicHooks, commands ...msgcheck.Command) *AtomicStage[O] {
	return &AtomicStage[O]{
		Base:  NewBase(name, match, commands...),
		opts:  opts,
		ready: masker.New(opts.PlayerNum()),
		hooks: hooks,
	}
}

// StageInfo reports the stage's name plus its command help; concrete games
// may shadow this by wrapping NewAtomic in a type with a richer StageInfo.
func (s *AtomicStage[O]) StageInfo() string { return s.Name() + s.CommandInfo(true) }

// HandleStageBegin clears readiness and arms the timer if configured.
func (s *AtomicStage[O]) HandleStageBegin() {
	s.ready.Clear()
	if s.hooks.OnStageBegin != nil {
		s.hooks.OnStageBegin()
	}
	if s.hooks.TimeoutSec > 0 {
		s.Base.Match().StartTimer(s.hooks.TimeoutSec)
	}
}

// HandleTimeout delegates to OnTimeout, defaulting to Checkout (a stage
// with no timeout hook configured should never have its timer armed, but a
// misconfigured one still ends the stage rather than hanging).
func (s *AtomicStage[O]) HandleTimeout() Code {
	if s.hooks.OnTimeout != nil {
		code := s.hooks.OnTimeout()
		if code == Checkout {
			s.markOver()
		}
		return code
	}
	s.markOver()
	return Checkout
}

// HandleRequest dispatches to the command table. A command handler that
// returns Ready marks the caller's seat ready in the stage's masker and, if
// that makes every seat ready, checks the stage out.
func (s *AtomicStage[O]) HandleRequest(reader *msgcheck.Reader, pid PlayerID, isPublic bool, reply msgsink.ScopedSender) Code {
	code, matched := s.Base.dispatch(reader, pid, isPublic, reply)
	if !matched {
		return NotFound
	}
	if code == Ready {
		if s.ready.Set(pid) {
			s.markOver()
			return Checkout
		}
		return OK
	}
	if code == Checkout {
		s.markOver()
	}
	return code
}

// HandleLeave pins the leaving seat out of the readiness denominator (it
// can never become ready or un-ready again) and runs OnPlayerLeave.
func (s *AtomicStage[O]) HandleLeave(pid PlayerID) Code {
	becameReady := s.ready.Pin(pid)
	var code Code = OK
	if s.hooks.OnPlayerLeave != nil {
		code = s.hooks.OnPlayerLeave(pid)
	}
	if code == Checkout || (becameReady && code != Failed) {
		s.markOver()
		return Checkout
	}
	return code
}

// HandleComputerAct lets a bot seat act in place of a HandleRequest call.
func (s *AtomicStage[O]) HandleComputerAct(pid PlayerID) Code {
	if s.hooks.OnComputerAct == nil {
		return OK
	}
	code := s.hooks.OnComputerAct(pid)
	if code == Checkout {
		s.markOver()
	}
	return code
}

// Options exposes the stage's game options to hook closures that need them
// (they close over *AtomicStage[O] rather than taking it as an argument, so
// this is mostly useful to generic helper code operating on the stage).
func (s *AtomicStage[O]) Options() O { return s.opts }

func (s *AtomicStage[O]) markOver() { s.Base.setOver() }
