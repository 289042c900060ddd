// Package stage implements the composable hierarchical stage machine that
// encodes one game's control flow as a tree of atomic (reply-driven) and
// composite (substage-driven) stages.
package stage

import (
	"strconv"
	"strings"

	"boardkeeper/internal/msgcheck"
	"boardkeeper/internal/msgsink"
)

// Code is the small return-code lattice every handler communicates through.
// Not every handler may return every code; see the Atomic/Composite
// contracts below for the allowed subsets.
type Code int

const (
	// OK means the request/act/leave was handled with no stage transition.
	OK Code = iota
	// Ready means the request was handled and the caller's seat should be
	// marked ready in the owning main stage's masker.
	Ready
	// Checkout means the stage is over and its parent should transition.
	Checkout
	// Failed means the request was rejected; no state changed.
	Failed
	// NotFound means no command in the stage matched the request.
	NotFound
	// Continue is kept for parity with the lattice named in the spec; no
	// stage in this package returns it.
	Continue
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case Ready:
		return "READY"
	case Checkout:
		return "CHECKOUT"
	case Failed:
		return "FAILED"
	case NotFound:
		return "NOT_FOUND"
	case Continue:
		return "CONTINUE"
	default:
		return "UNKNOWN"
	}
}

// PlayerID is a 0-based dense seat index, local to one match.
type PlayerID = int

// Match is the subset of match behavior a stage needs: sending to a seat,
// broadcasting, and (re)starting the match's single countdown timer.
type Match interface {
	Tell(pid PlayerID) msgsink.ScopedSender
	Broadcast() msgsink.ScopedSender
	StartTimer(seconds int)
	StopTimer()
}

// Stage is the common surface every node in the tree exposes. MainStage and
// SubStage narrow it with the operations their position in the tree allows.
type Stage interface {
	Name() string
	StageInfo() string
	CommandInfo(textMode bool) string
	IsOver() bool
	HandleStageBegin()
	HandleTimeout() Code
	HandleRequest(reader *msgcheck.Reader, pid PlayerID, isPublic bool, reply msgsink.ScopedSender) Code
	HandleLeave(pid PlayerID) Code
	HandleComputerAct(pid PlayerID) Code
}

// MainStage is the root of a match's stage tree: it additionally reports
// each seat's final score.
type MainStage interface {
	Stage
	PlayerScore(pid PlayerID) int64
}

// Base carries the fields every stage, atomic or composite, needs: its
// name, the command table it dispatches against, and a handle back to the
// owning match for sending messages and managing the timer.
type Base struct {
	name     string
	match    Match
	commands []msgcheck.Command
	over     bool
}

// NewBase constructs the shared fields of a stage.
func NewBase(name string, match Match, commands ...msgcheck.Command) Base {
	return Base{name: name, match: match, commands: commands}
}

func (b *Base) Name() string   { return b.name }
func (b *Base) IsOver() bool   { return b.over }
func (b *Base) setOver()       { b.over = true }
func (b *Base) Match() Match   { return b.match }
func (b *Base) Tell(pid PlayerID) msgsink.ScopedSender { return b.match.Tell(pid) }
func (b *Base) Broadcast() msgsink.ScopedSender        { return b.match.Broadcast() }

// CommandInfo renders the help text for every command registered on this
// stage, in registration order.
func (b *Base) CommandInfo(textMode bool) string {
	if len(b.commands) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\n### commands - ")
	sb.WriteString(b.name)
	for i, cmd := range b.commands {
		sb.WriteString("\n")
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(cmd.Info())
	}
	return sb.String()
}

// dispatch tries every registered command in order, returning the result of
// the first whose checker chain consumes the whole request. It returns
// (code, true) on a match, or (_, false) if nothing matched.
func (b *Base) dispatch(reader *msgcheck.Reader, pid PlayerID, isPublic bool, reply msgsink.ScopedSender) (Code, bool) {
	for _, cmd := range b.commands {
		if code, ok := cmd.CallIfValid(reader, pid, isPublic, reply); ok {
			return Code(code), true
		}
	}
	return NotFound, false
}

// CheckoutReason tells a composite stage's transition function why its
// current substage became over.
type CheckoutReason int

const (
	// ByRequest: the substage checked out while handling a player request.
	ByRequest CheckoutReason = iota
	// ByTimeout: the substage checked out from its own timeout.
	ByTimeout
	// ByLeave: the substage checked out because a player left.
	ByLeave
	// Skip: the substage began already-over (e.g. zero-duration stage);
	// the composite must immediately ask for the next one.
	Skip
)

