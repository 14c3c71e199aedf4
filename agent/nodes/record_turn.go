package nodes

import (
	"context"
	"fmt"

	contractx "github.com/nattavee/homecall/agent/contract"
	statex "github.com/nattavee/homecall/agent/state"
)

// RecordTurn persists the exchange. The request itself is only recorded once
// intake completed, so request_count tracks real search attempts.
func RecordTurn(
	ctx context.Context,
	in *GraphState,
	memory contractx.MemoryStore,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if err := memory.AppendMessage(ctx, in.UserID, contractx.Message{
		Role:    contractx.RoleUser,
		Content: in.Text,
	}); err != nil {
		return nil, err
	}
	if err := memory.AppendMessage(ctx, in.UserID, contractx.Message{
		Role:    contractx.RoleAssistant,
		Content: in.CleanReply,
	}); err != nil {
		return nil, err
	}

	if in.AgentState == statex.AgentReadyToSearch && in.Dispatch != nil {
		if err := memory.RecordRequest(ctx, in.UserID, in.Text, in.Dispatch.Category); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	return GraphOutput{
		Reply:         in.CleanReply,
		AgentState:    in.AgentState,
		Missing:       in.Missing,
		DispatchState: in.DispatchState,
		Dispatch:      in.Dispatch,
		Selection:     in.Selection,
	}, nil
}
