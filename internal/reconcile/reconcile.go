// Package reconcile repairs tool-call identity drift between an assistant
// turn's tool invocations and the user turn carrying their results. Tool
// outcomes can be recorded out of band when execution is asynchronous, so the
// latest user turn sometimes references stale or missing invocation ids; every
// repair is best-effort and reported, never fatal.
package reconcile

import (
	"context"

	"github.com/aperrin/chatwire/internal/transcript"
)

// InterruptedResultText is the content of a synthesized placeholder result for
// an invocation that never received one.
const InterruptedResultText = "Tool execution was interrupted before completion."

// Reporter receives identity anomalies for observability. Reconciliation
// proceeds regardless of what the reporter does.
type Reporter interface {
	ToolCallAnomaly(ctx context.Context, ev Anomaly)
}

// Anomaly describes one detected mismatch or missing-result event.
type Anomaly struct {
	Kind          string // "missing_result" or "mismatched_id"
	InvocationIDs []string
	ResultIDs     []string
	MissingIDs    []string
	RepairedID    string
	ReboundTo     string
}

// NopReporter discards anomalies.
type NopReporter struct{}

func (NopReporter) ToolCallAnomaly(context.Context, Anomaly) {}

// Reconcile returns latest with its tool results rebound to the invocation ids
// of the most recent assistant turn in history, and with placeholder results
// synthesized for invocations that got none. If latest is not a list-content
// user turn, or the preceding assistant turn carries no invocations, or
// nothing is wrong, latest is returned unchanged (no copies).
func Reconcile(ctx context.Context, latest transcript.Turn, history []transcript.Turn, rep Reporter) transcript.Turn {
	if rep == nil {
		rep = NopReporter{}
	}
	if latest.Role != transcript.RoleUser || len(latest.Segments) == 0 {
		return latest
	}

	idx := transcript.LastIndex(history, func(t transcript.Turn) bool {
		return t.Role == transcript.RoleAssistant
	})
	if idx < 0 {
		return latest
	}
	var invocationIDs []string
	for _, use := range history[idx].ToolUses() {
		invocationIDs = append(invocationIDs, use.ID)
	}
	if len(invocationIDs) == 0 {
		return latest
	}
	known := make(map[string]bool, len(invocationIDs))
	for _, id := range invocationIDs {
		known[id] = true
	}

	var resultIDs []string
	answered := make(map[string]bool)
	for _, r := range latest.ToolResults() {
		resultIDs = append(resultIDs, r.ToolUseID)
		answered[r.ToolUseID] = true
	}

	// Mismatched ids are corrected by position: the n-th result segment is
	// rebound to the n-th invocation id. Counting segments (not distinct
	// ids) keeps duplicate stale ids from collapsing onto one slot.
	// Results beyond the invocation count are not auto-repairable and stay
	// as they are.
	repaired := false
	segments := latest.Segments
	ordinal := 0
	for i, seg := range segments {
		if seg.Type != transcript.SegmentToolResult {
			continue
		}
		if !known[seg.ToolUseID] && ordinal < len(invocationIDs) {
			if !repaired {
				segments = append([]transcript.Segment(nil), latest.Segments...)
				repaired = true
			}
			rep.ToolCallAnomaly(ctx, Anomaly{
				Kind:          "mismatched_id",
				InvocationIDs: invocationIDs,
				ResultIDs:     resultIDs,
				RepairedID:    seg.ToolUseID,
				ReboundTo:     invocationIDs[ordinal],
			})
			seg.ToolUseID = invocationIDs[ordinal]
			segments[i] = seg
			answered[seg.ToolUseID] = true
		}
		ordinal++
	}

	// Placeholders for invocations with no result go ahead of the real
	// content so a trailing summary text segment still follows all results.
	var missing []string
	for _, id := range invocationIDs {
		if !answered[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		rep.ToolCallAnomaly(ctx, Anomaly{
			Kind:          "missing_result",
			InvocationIDs: invocationIDs,
			ResultIDs:     resultIDs,
			MissingIDs:    missing,
		})
		placeholders := make([]transcript.Segment, 0, len(missing)+len(segments))
		for _, id := range missing {
			placeholders = append(placeholders, transcript.ToolResultSegment(id, InterruptedResultText, false))
		}
		segments = append(placeholders, segments...)
		repaired = true
	}

	if !repaired {
		return latest
	}
	return transcript.Turn{Role: latest.Role, Segments: segments}
}
