// Package msgcheck implements the command parser and checker chain stages
// use to validate and extract arguments from a player's text request.
package msgcheck

import (
	"fmt"
	"strconv"
	"strings"
)

// Reader walks a whitespace-delimited token stream left to right. Checkers
// never mutate a Reader directly; Command snapshots the cursor before a
// checker chain runs and restores it on failure so unrelated commands can
// retry the same request.
type Reader struct {
	tokens []string
	pos    int
}

// NewReader splits raw into whitespace-delimited tokens.
func NewReader(raw string) *Reader {
	return &Reader{tokens: strings.Fields(raw)}
}

func (r *Reader) mark() int { return r.pos }

func (r *Reader) reset(mark int) { r.pos = mark }

func (r *Reader) next() (string, bool) {
	if r.pos >= len(r.tokens) {
		return "", false
	}
	tok := r.tokens[r.pos]
	r.pos++
	return tok, true
}

// Done reports whether every token has been consumed.
func (r *Reader) Done() bool { return r.pos >= len(r.tokens) }

// Checker consumes zero or more tokens from a Reader and produces a value,
// or reports that the tokens at the cursor don't match its shape.
type Checker interface {
	// Check consumes from r and returns the parsed value. ok is false if
	// the checker's shape isn't satisfied; the Command restores the
	// Reader's cursor in that case, so Check may advance r freely before
	// failing.
	Check(r *Reader) (value any, ok bool)
	// Usage renders the checker's argument placeholder for help text.
	Usage() string
}

// VoidChecker matches and discards one fixed keyword, case-sensitively.
type VoidChecker struct{ Keyword string }

func (c VoidChecker) Check(r *Reader) (any, bool) {
	tok, ok := r.next()
	if !ok || tok != c.Keyword {
		return nil, false
	}
	return c.Keyword, true
}

func (c VoidChecker) Usage() string { return c.Keyword }

// BoolChecker maps two literal alternatives onto true/false.
type BoolChecker struct {
	TrueWord, FalseWord string
}

func (c BoolChecker) Check(r *Reader) (any, bool) {
	tok, ok := r.next()
	if !ok {
		return nil, false
	}
	switch tok {
	case c.TrueWord:
		return true, true
	case c.FalseWord:
		return false, true
	default:
		return nil, false
	}
}

func (c BoolChecker) Usage() string {
	return fmt.Sprintf("%s|%s", c.TrueWord, c.FalseWord)
}

// Number is the set of numeric kinds ArithChecker accepts.
type Number interface {
	~int | ~int32 | ~int64 | ~float64
}

// ArithChecker parses one token as a number of type T and range-checks it
// against [Min, Max] when Min <= Max; a zero-value range (Min > Max, the
// default) means unbounded.
type ArithChecker[T Number] struct {
	Name     string
	Min, Max T
}

func (c ArithChecker[T]) Check(r *Reader) (any, bool) {
	tok, ok := r.next()
	if !ok {
		return nil, false
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, false
	}
	v := T(f)
	if c.Min <= c.Max && (v < c.Min || v > c.Max) {
		return nil, false
	}
	return v, true
}

func (c ArithChecker[T]) Usage() string {
	if c.Name != "" {
		return "<" + c.Name + ">"
	}
	return "<num>"
}

// AnyArg consumes exactly one token verbatim, unvalidated.
type AnyArg struct{ Name string }

func (c AnyArg) Check(r *Reader) (any, bool) {
	tok, ok := r.next()
	if !ok {
		return nil, false
	}
	return tok, true
}

func (c AnyArg) Usage() string {
	if c.Name != "" {
		return "<" + c.Name + ">"
	}
	return "<arg>"
}

// RepeatableChecker greedily consumes every remaining token, joined by a
// single space, and never fails (an empty remainder yields "").
type RepeatableChecker struct{ Name string }

func (c RepeatableChecker) Check(r *Reader) (any, bool) {
	rest := r.tokens[r.pos:]
	r.pos = len(r.tokens)
	return strings.Join(rest, " "), true
}

func (c RepeatableChecker) Usage() string {
	if c.Name != "" {
		return "<" + c.Name + "...>"
	}
	return "<rest...>"
}

// OptionalChecker runs Inner; if Inner fails without having consumed
// anything irrecoverable, OptionalChecker instead succeeds with Default.
type OptionalChecker struct {
	Inner   Checker
	Default any
}

func (c OptionalChecker) Check(r *Reader) (any, bool) {
	mark := r.mark()
	if v, ok := c.Inner.Check(r); ok {
		return v, true
	}
	r.reset(mark)
	return c.Default, true
}

func (c OptionalChecker) Usage() string { return "[" + c.Inner.Usage() + "]" }

// Handler is the business logic behind one command, invoked once its
// checker chain has matched. args holds one entry per checker, in order.
// The returned int is a stage.Code value; msgcheck doesn't import stage to
// avoid a cycle, so callers convert it back at the boundary.
type Handler func(args []any, pid int, isPublic bool, reply ScopedSender) int

// ScopedSender is the narrow write surface a Handler needs; it mirrors
// msgsink.ScopedSender without importing that package, again to avoid a
// cycle (msgsink is a leaf package msgcheck doesn't need otherwise).
type ScopedSender interface {
	WriteString(s string) (int, error)
}

// Command pairs a checker chain with a Handler and the metadata Help needs.
type Command struct {
	Name        string
	Description string
	Public      bool
	Private     bool
	Checkers    []Checker
	Handle      Handler
}

// CallIfValid attempts to parse reader against the command's checker chain
// starting at the current cursor. A leading token equal to the command's
// Name is consumed first when present; the checker chain then runs on what
// follows. If every checker matches and the reader is fully consumed, it
// invokes Handle and returns (code, true). Otherwise it restores the cursor
// and returns (0, false).
func (c Command) CallIfValid(reader *Reader, pid int, isPublic bool, reply ScopedSender) (int, bool) {
	if isPublic && !c.Public {
		return 0, false
	}
	if !isPublic && !c.Private {
		return 0, false
	}
	mark := reader.mark()
	if c.Name != "" {
		if tok, ok := reader.next(); !ok || tok != c.Name {
			reader.reset(mark)
		}
	}
	args := make([]any, 0, len(c.Checkers))
	for _, checker := range c.Checkers {
		v, ok := checker.Check(reader)
		if !ok {
			reader.reset(mark)
			return 0, false
		}
		args = append(args, v)
	}
	if !reader.Done() {
		reader.reset(mark)
		return 0, false
	}
	return c.Handle(args, pid, isPublic, reply), true
}

// Info renders one help line: "<name> <usage...> - description".
func (c Command) Info() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	for _, checker := range c.Checkers {
		sb.WriteString(" ")
		sb.WriteString(checker.Usage())
	}
	if c.Description != "" {
		sb.WriteString(" - ")
		sb.WriteString(c.Description)
	}
	return sb.String()
}
