// Package state defines the transient control states the orchestrator moves a
// request through. Nothing here is persisted directly; durable writes go through
// the memory store.
package state

type AgentState string

const (
	AgentNeedsClarification AgentState = "needs_clarification"
	AgentReadyToSearch      AgentState = "ready_to_search"
)

// Missing names the intake field the agent still needs from the user.
type Missing string

const (
	MissingIssue    Missing = "issue"
	MissingLocation Missing = "location"
	MissingUrgency  Missing = "urgency"
	MissingNone     Missing = "none"
)

type DispatchState string

const (
	DispatchSearching       DispatchState = "searching"
	DispatchRecommending    DispatchState = "recommending"
	DispatchMultipleOptions DispatchState = "multiple_options"
	DispatchDispatched      DispatchState = "dispatched"
	DispatchNoProviders     DispatchState = "no_providers"
)

var dispatchTransitions = map[DispatchState][]DispatchState{
	DispatchSearching:       {DispatchRecommending, DispatchMultipleOptions, DispatchNoProviders},
	DispatchRecommending:    {DispatchDispatched},
	DispatchMultipleOptions: {DispatchDispatched},
}

// CanTransition reports whether from -> to is a legal dispatch transition.
// dispatched and no_providers are terminal; dispatched is only ever reached
// through an explicit booking confirmation.
func CanTransition(from, to DispatchState) bool {
	for _, next := range dispatchTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
