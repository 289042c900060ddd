package stage

import (
	"boardkeeper/internal/msgcheck"
	"boardkeeper/internal/msgsink"
)

// StageKind is the small comparable tag a game uses to name its substages
// (typically a defined int type with its own String method).
type StageKind interface {
	comparable
}

// Transition decides which substage kind follows the one that just checked
// out, given why it checked out. Returning ok=false ends the composite
// stage (its parent, if any, checks it out in turn).
type Transition[Sub StageKind] func(prev Sub, reason CheckoutReason) (next Sub, ok bool)

// Builder constructs the concrete Stage for one substage kind.
type Builder[O GameOptions, Sub StageKind] func(opts O, kind Sub) Stage

// CompositeStage is an interior node: it owns no commands of its own and
// instead delegates every handler to whichever substage is current,
// advancing through Transition whenever the current substage checks out.
// This mirrors the original CheckoutSubStage loop: a substage may check out
// immediately on HandleStageBegin (Skip), so advancing can chain through
// several substages before yielding control back to a caller.
type CompositeStage[O GameOptions, Sub StageKind] struct {
	Base
	opts       O
	first      Sub
	build      Builder[O, Sub]
	transition Transition[Sub]

	current     Stage
	currentKind Sub
}

// NewComposite builds a composite stage over opts, starting at first and
// advancing substages per transition/build.
func NewComposite[O GameOptions, Sub StageKind](name string, match Match, opts O, first Sub, build Builder[O, Sub], transition Transition[Sub]) *CompositeStage[O, Sub] {
	return &CompositeStage[O, Sub]{
		Base:       NewBase(name, match),
		opts:       opts,
		first:      first,
		build:      build,
		transition: transition,
	}
}

// StageInfo delegates to the current substage, falling back to the
// composite's own name if nothing has begun yet.
func (c *CompositeStage[O, Sub]) StageInfo() string {
	if c.current == nil {
		return c.Name()
	}
	return c.current.StageInfo()
}

// CommandInfo delegates to the current substage's command table.
func (c *CompositeStage[O, Sub]) CommandInfo(textMode bool) string {
	if c.current == nil {
		return ""
	}
	return c.current.CommandInfo(textMode)
}

// HandleStageBegin enters the first substage, checking out through any
// substages that begin already over.
func (c *CompositeStage[O, Sub]) HandleStageBegin() {
	c.enter(c.first)
}

// HandleTimeout forwards to the current substage and advances on Checkout.
func (c *CompositeStage[O, Sub]) HandleTimeout() Code {
	if c.current == nil {
		return OK
	}
	code := c.current.HandleTimeout()
	if code == Checkout {
		return c.checkoutCurrent(ByTimeout)
	}
	return code
}

// HandleRequest forwards to the current substage and advances on Checkout.
func (c *CompositeStage[O, Sub]) HandleRequest(reader *msgcheck.Reader, pid PlayerID, isPublic bool, reply msgsink.ScopedSender) Code {
	if c.current == nil {
		return NotFound
	}
	code := c.current.HandleRequest(reader, pid, isPublic, reply)
	if code == Checkout {
		return c.checkoutCurrent(ByRequest)
	}
	return code
}

// HandleLeave forwards to the current substage and advances on Checkout.
func (c *CompositeStage[O, Sub]) HandleLeave(pid PlayerID) Code {
	if c.current == nil {
		return OK
	}
	code := c.current.HandleLeave(pid)
	if code == Checkout {
		return c.checkoutCurrent(ByLeave)
	}
	return code
}

// HandleComputerAct forwards to the current substage and advances on
// Checkout.
func (c *CompositeStage[O, Sub]) HandleComputerAct(pid PlayerID) Code {
	if c.current == nil {
		return OK
	}
	code := c.current.HandleComputerAct(pid)
	if code == Checkout {
		return c.checkoutCurrent(ByRequest)
	}
	return code
}

// enter builds and begins kind, looping through Skip transitions for any
// substage that begins already over (e.g. a zero-player vote stage).
func (c *CompositeStage[O, Sub]) enter(kind Sub) {
	for {
		sub := c.build(c.opts, kind)
		c.current = sub
		c.currentKind = kind
		sub.HandleStageBegin()
		if !sub.IsOver() {
			return
		}
		next, ok := c.transition(kind, Skip)
		if !ok {
			c.current = nil
			c.Base.setOver()
			return
		}
		kind = next
	}
}

// checkoutCurrent retires the current substage and enters whatever the
// transition table names next, or ends the composite stage if it names
// none.
func (c *CompositeStage[O, Sub]) checkoutCurrent(reason CheckoutReason) Code {
	next, ok := c.transition(c.currentKind, reason)
	if !ok {
		c.current = nil
		c.Base.setOver()
		return Checkout
	}
	c.enter(next)
	if c.Base.IsOver() {
		return Checkout
	}
	return OK
}
