package nodes

import (
	"fmt"

	contractx "github.com/nattavee/homecall/agent/contract"
	markerx "github.com/nattavee/homecall/agent/marker"
	statex "github.com/nattavee/homecall/agent/state"
)

// ParseMarker extracts the model's control directive. A missing or malformed
// marker is not an error: the conversation falls back to the conservative
// default of still needing clarification.
func ParseMarker(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	res, clean := markerx.Parse(in.ModelReply)
	in.ModelMarker = res
	in.CleanReply = clean

	switch {
	case res.Intake != nil:
		in.AgentState = res.Intake.State
		in.Missing = res.Intake.Missing
	case res.Dispatch != nil:
		in.AgentState = statex.AgentReadyToSearch
		in.Missing = statex.MissingNone
		in.DispatchState = res.Dispatch.State
	default:
		in.AgentState = statex.AgentNeedsClarification
		in.Missing = statex.MissingNone
	}
	return in, nil
}
