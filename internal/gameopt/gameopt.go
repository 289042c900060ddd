// Package gameopt defines the plain-struct option blob every game module
// carries through its stage tree, replacing the original C++ engine's
// X-macro-generated option class with an ordinary Go struct plus a small
// validating setter surface.
package gameopt

import "fmt"

// Base is embedded by every game's concrete options struct. It carries the
// fields every game needs regardless of its own rules: how many seats are
// in play and whether a timeout was explicitly disabled.
type Base struct {
	Players    int
	NoTimeout  bool
}

// PlayerNum satisfies stage.GameOptions.
func (b Base) PlayerNum() int { return b.Players }

// Spec describes one settable option: its chat-command name, a setter that
// validates and applies a raw token, and the current value's rendering for
// Info().
type Spec struct {
	Name   string
	Set    func(raw string) error
	String func() string
}

// Table is an ordered list of a game's settable options, used both to
// dispatch "%set <name> <value>"-style meta commands and to render Info().
type Table []Spec

// SetOption finds name in the table and applies raw to it.
func (t Table) SetOption(name, raw string) error {
	for _, spec := range t {
		if spec.Name == name {
			return spec.Set(raw)
		}
	}
	return fmt.Errorf("unknown option %q", name)
}

// Info renders "name=value" for every option, one per line.
func (t Table) Info() string {
	s := ""
	for _, spec := range t {
		s += spec.Name + "=" + spec.String() + "\n"
	}
	return s
}
