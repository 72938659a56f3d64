package pipeline

// State identifies where a coverage run is in its lifecycle.
type State string

const (
	// StateNotStarted is the initial state before any stage runs.
	StateNotStarted State = "not_started"

	// StateExecutingBinary covers running the instrumented test binary
	// or, for the statistical backend, the whole collection command.
	StateExecutingBinary State = "executing_binary"

	// StateMergingProfile covers indexing the raw profile.
	StateMergingProfile State = "merging_profile"

	// StateRenderingText covers producing the text report.
	StateRenderingText State = "rendering_text"

	// StateRenderingHtml covers producing the HTML report.
	StateRenderingHtml State = "rendering_html"

	// StateCompleted means every stage finished and left its artifacts.
	StateCompleted State = "completed"

	// StateAborted means a stage failed; no later stage ran.
	StateAborted State = "aborted"
)

// ValidTransitions defines the allowed state transitions. The merge and
// HTML states are skippable because the statistical backend collects
// and merges in one step and renders HTML only on request.
var ValidTransitions = map[State][]State{
	StateNotStarted:      {StateExecutingBinary, StateAborted},
	StateExecutingBinary: {StateMergingProfile, StateRenderingText, StateAborted},
	StateMergingProfile:  {StateRenderingText, StateAborted},
	StateRenderingText:   {StateRenderingHtml, StateCompleted, StateAborted},
	StateRenderingHtml:   {StateCompleted, StateAborted},
	StateCompleted:       {},
	StateAborted:         {},
}

// CanTransition reports whether moving from one state to another is
// allowed.
func CanTransition(from, to State) bool {
	for _, next := range ValidTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a state has no outgoing transitions.
func IsTerminal(s State) bool {
	return len(ValidTransitions[s]) == 0
}
