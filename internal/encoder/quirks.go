package encoder

// Backend quirk tables. Every entry here was learned from an observed API
// rejection; keep the triggers explicit and reviewable instead of inferring
// them from naming patterns. New backends get new rows, not new heuristics.

// statelessReasoningFormats marks reasoning-detail format tags whose backend
// does not persist reasoning state server-side: the caller manages
// conversation state entirely client-side, so echoing the detail's id back
// triggers a not-found error. Ids under these formats are stripped on encode;
// all other formats keep their id unchanged.
var statelessReasoningFormats = map[string]bool{
	"openai-responses": true,
}

// StripReasoningID reports whether a reasoning detail with the given format
// tag must lose its id before re-submission.
func StripReasoningID(format string) bool {
	return statelessReasoningFormats[format]
}

// MistralToolIDLength is the exact tool-call identifier length the Mistral
// API enforces; ids must also be purely alphanumeric. Violations are a hard
// rejection, not a degradation.
const MistralToolIDLength = 9

// MistralIDPad fills short ids up to MistralToolIDLength.
const MistralIDPad = '0'
