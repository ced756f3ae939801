// Package protocol decides how tool calls are put on the wire for a task:
// backend-structured function calling, or tool calls serialized as plain text
// with a fixed tag convention for backends (or configurations) without
// structured support. The decision must stay stable for the life of a task;
// flipping it mid-conversation desynchronizes tool-call encoding.
package protocol

import "github.com/aperrin/chatwire/internal/transcript"

// Protocol selects the tool-call wire encoding for a task.
type Protocol string

const (
	// Native emits backend-structured function-call and tool-result objects.
	Native Protocol = "native"
	// TextEmulated serializes tool calls and results as tagged plain text.
	TextEmulated Protocol = "text"
)

// Valid reports whether p is a known protocol value.
func (p Protocol) Valid() bool {
	return p == Native || p == TextEmulated
}

// ResolveInput carries the precedence chain inputs for one task.
type ResolveInput struct {
	// Locked is the protocol a resumed task previously committed to, empty
	// if the task has not emitted a tool call yet.
	Locked Protocol
	// Preference is the explicit per-profile user preference, empty if unset.
	Preference Protocol
	// ModelDefault is the backend/model default, empty if the backend
	// declares none.
	ModelDefault Protocol
	// SupportsNativeTools is the active model's capability flag.
	SupportsNativeTools bool
}

// Resolve applies the precedence chain: task lock, user preference, model
// default, capability-gated fallback. A model without native tool support
// forces TextEmulated regardless of preference; this is resolved silently,
// never surfaced as an error.
func Resolve(in ResolveInput) Protocol {
	if in.Locked.Valid() {
		return in.Locked
	}
	if !in.SupportsNativeTools {
		return TextEmulated
	}
	if in.Preference.Valid() {
		return in.Preference
	}
	if in.ModelDefault.Valid() {
		return in.ModelDefault
	}
	return Native
}

// Detect re-derives the protocol a transcript was recorded under, for resuming
// a task whose lock was lost. The two encodings are distinguishable exactly by
// presence of a call identifier: text-emulated calls are parsed out of plain
// text and never assigned one. Scans backward for the most recent assistant
// turn with a tool invocation and inspects that turn's last invocation.
// Returns false if no tool invocation exists anywhere in history.
func Detect(turns []transcript.Turn) (Protocol, bool) {
	idx := transcript.LastIndex(turns, func(t transcript.Turn) bool {
		return t.Role == transcript.RoleAssistant && t.HasToolUse()
	})
	if idx < 0 {
		return "", false
	}
	uses := turns[idx].ToolUses()
	last := uses[len(uses)-1]
	if last.ID == "" {
		return TextEmulated, true
	}
	return Native, true
}
