// Package msgsink buffers and dispatches outbound text to chat-platform
// seats and groups without ever talking to the chat platform itself; it
// composes text and hands it to injected tell/broadcast/at-mention
// callbacks supplied at container construction time (see internal/container).
package msgsink

import "strings"

// TellFunc delivers text privately to one user.
type TellFunc func(userID uint64, text string)

// BroadcastFunc delivers text publicly to one group.
type BroadcastFunc func(groupID uint64, text string)

// AtMentionFunc renders the platform-specific at-mention markup for a user,
// e.g. "@user" or a platform-specific tag; callers prepend its result to
// text destined for that user.
type AtMentionFunc func(userID uint64) string

// ScopedSender is a buffered write target: callers accumulate text with
// WriteString and the buffer is flushed exactly once, either explicitly via
// Close or by a deferred Close at the call site that opened it. Release
// discards the buffer instead of flushing it.
type ScopedSender interface {
	WriteString(s string) (int, error)
	Close()
	Release()
}

// scopedSender is the shared buffered-sender implementation; flush does the
// actual delivery and differs between a group sender and a batched one.
type scopedSender struct {
	buf      strings.Builder
	flush    func(text string)
	released bool
	closed   bool
}

func (s *scopedSender) WriteString(text string) (int, error) {
	return s.buf.WriteString(text)
}

// Close flushes the buffered text exactly once, unless Release was called
// first. Calling Close more than once is a no-op.
func (s *scopedSender) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.released {
		return
	}
	if s.buf.Len() == 0 {
		return
	}
	s.flush(s.buf.String())
}

// Release marks the buffer for silent discard; a subsequent Close will not
// deliver anything.
func (s *scopedSender) Release() {
	s.released = true
}

// Sink is the egress surface a match uses to reach one group and its
// participants. A Sink is stateless between calls; each Tell/Broadcast
// opens a fresh ScopedSender.
type Sink struct {
	groupID   uint64
	userIDs   func() []uint64
	tell      TellFunc
	broadcast BroadcastFunc
	atMention AtMentionFunc
}

// New builds a Sink bound to one group. userIDs returns the current set of
// participant user IDs at call time, used by Broadcast's batched fallback
// when the platform has no native group-post primitive for this group
// (groupID == 0, i.e. an all-private match).
func New(groupID uint64, userIDs func() []uint64, tell TellFunc, broadcast BroadcastFunc, atMention AtMentionFunc) *Sink {
	return &Sink{groupID: groupID, userIDs: userIDs, tell: tell, broadcast: broadcast, atMention: atMention}
}

// Tell opens a ScopedSender that, on flush, privately messages one user.
func (s *Sink) Tell(userID uint64) ScopedSender {
	return &scopedSender{flush: func(text string) { s.tell(userID, text) }}
}

// Broadcast opens a ScopedSender that, on flush, posts once to the group if
// the match has a real group to post to, or falls back to telling every
// participant individually for an all-private match.
func (s *Sink) Broadcast() ScopedSender {
	return &scopedSender{flush: func(text string) {
		if s.groupID != 0 {
			s.broadcast(s.groupID, text)
			return
		}
		for _, uid := range s.userIDs() {
			s.tell(uid, text)
		}
	}}
}

// AtMention renders at-mention markup for userID, or "" if no callback was
// configured (e.g. in tests).
func (s *Sink) AtMention(userID uint64) string {
	if s.atMention == nil {
		return ""
	}
	return s.atMention(userID)
}
