package nodes

import (
	"context"
	"fmt"

	contractx "github.com/nattavee/homecall/agent/contract"
	tracex "github.com/nattavee/homecall/pkg/trace"
)

func LoadContext(
	ctx context.Context,
	in *GraphState,
	memory contractx.MemoryStore,
	rec tracex.Recorder,
	historyWindow int,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	uc, err := tracex.Do(ctx, rec, "memory.get_context",
		map[string]any{"user_id": in.UserID},
		func(ctx context.Context) (*contractx.UserContext, error) {
			return memory.GetContext(ctx, in.UserID)
		})
	if err != nil {
		return nil, err
	}
	in.Context = uc

	history, err := memory.RecentMessages(ctx, in.UserID, historyWindow)
	if err != nil {
		return nil, err
	}
	in.History = history

	// location can come from the request or from a stored preference
	if in.Location == "" {
		in.Location = uc.Preferences["location"]
	}
	if in.Category == "" {
		in.Category = uc.Preferences["default_category"]
	}
	return in, nil
}
