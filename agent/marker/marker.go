// Package marker extracts the control directive the language model appends to
// its natural-language replies. Parsing is pure and never fails: anything that
// does not match the exact grammar is treated as absent and the text is
// returned verbatim.
package marker

import (
	"regexp"
	"strings"

	statex "github.com/nattavee/homecall/agent/state"
)

var (
	intakeRe = regexp.MustCompile(
		`(?i)\[STATE:\s*(needs_clarification|ready_to_search)\s*,\s*missing:\s*(issue|location|urgency|none)\s*\]`)
	dispatchRe = regexp.MustCompile(
		`(?i)\[DISPATCH_STATE:\s*(searching|recommending|multiple_options|dispatched|no_providers)\s*\]`)
)

// IntakeDirective is Grammar A: intake/clarification progress.
type IntakeDirective struct {
	State   statex.AgentState
	Missing statex.Missing
}

// DispatchDirective is Grammar B: dispatch progress.
type DispatchDirective struct {
	State statex.DispatchState
}

// Result carries at most one recognized directive.
type Result struct {
	Intake   *IntakeDirective
	Dispatch *DispatchDirective
}

// Found reports whether any directive was recognized.
func (r Result) Found() bool {
	return r.Intake != nil || r.Dispatch != nil
}

// Parse scans text for the first marker in either grammar and returns the
// parsed directive plus the text with that marker removed. Only the leftmost
// match is recognized; later markers stay in the text untouched.
func Parse(text string) (Result, string) {
	intakeLoc := intakeRe.FindStringSubmatchIndex(text)
	dispatchLoc := dispatchRe.FindStringSubmatchIndex(text)

	switch {
	case intakeLoc == nil && dispatchLoc == nil:
		return Result{}, text
	case dispatchLoc == nil, intakeLoc != nil && intakeLoc[0] <= dispatchLoc[0]:
		dir := &IntakeDirective{
			State:   statex.AgentState(strings.ToLower(text[intakeLoc[2]:intakeLoc[3]])),
			Missing: statex.Missing(strings.ToLower(text[intakeLoc[4]:intakeLoc[5]])),
		}
		return Result{Intake: dir}, strip(text, intakeLoc[0], intakeLoc[1])
	default:
		dir := &DispatchDirective{
			State: statex.DispatchState(strings.ToLower(text[dispatchLoc[2]:dispatchLoc[3]])),
		}
		return Result{Dispatch: dir}, strip(text, dispatchLoc[0], dispatchLoc[1])
	}
}

func strip(text string, start, end int) string {
	before := strings.TrimRight(text[:start], " \t\r\n")
	after := strings.TrimLeft(text[end:], " \t\r\n")
	if before != "" && after != "" {
		return before + " " + after
	}
	return before + after
}
