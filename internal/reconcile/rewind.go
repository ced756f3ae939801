package reconcile

import "github.com/aperrin/chatwire/internal/transcript"

// Turn ordering is append order. Timestamps recorded during asynchronous tool
// execution are not a reliable total order: an assistant turn can be persisted
// slightly later than a logically-earlier user turn, so a timestamp cutoff
// would discard it. Truncation therefore works on slice indices and snaps the
// cut forward to a user-turn boundary.

// BoundaryAt returns the index of the first user turn at or after cut, which
// is the true truncation boundary. Returns len(turns) if no user turn follows,
// and clamps negative cuts to zero.
func BoundaryAt(turns []transcript.Turn, cut int) int {
	if cut < 0 {
		cut = 0
	}
	for i := cut; i < len(turns); i++ {
		if turns[i].Role == transcript.RoleUser {
			return i
		}
	}
	return len(turns)
}

// Truncate returns the prefix of turns ending at the user-turn boundary at or
// after cut. The input slice is not modified; the result shares its backing
// array, so callers treating turns as immutable values may use it directly.
func Truncate(turns []transcript.Turn, cut int) []transcript.Turn {
	return turns[:BoundaryAt(turns, cut)]
}
