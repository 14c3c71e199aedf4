package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/nattavee/homecall/agent/contract"
	markerx "github.com/nattavee/homecall/agent/marker"
	tracex "github.com/nattavee/homecall/pkg/trace"
)

// NarrateDispatch asks the model to present the selection outcome to the
// user. The selection state stays authoritative: a missing or drifted dispatch
// marker in the narration never changes what the engine decided.
func NarrateDispatch(
	ctx context.Context,
	in *GraphState,
	model contractx.ChatModel,
	systemPrompt string,
	rec tracex.Recorder,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Selection == nil {
		return in, nil
	}

	payload, err := json.Marshal(map[string]any{
		"state":        in.Selection.State,
		"best":         in.Selection.Best,
		"alternatives": len(in.Selection.Alternatives),
		"category":     in.Category,
		"location":     in.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal selection summary: %v", contractx.ErrValidation, err)
	}

	reply, err := tracex.Do(ctx, rec, "model.narrate_dispatch",
		map[string]any{"user_id": in.UserID, "state": string(in.Selection.State)},
		func(ctx context.Context) (string, error) {
			return model.Complete(ctx, []contractx.Message{
				{Role: contractx.RoleSystem, Content: systemPrompt},
				{Role: contractx.RoleUser, Content: string(payload)},
			})
		})
	if err != nil {
		return nil, err
	}

	_, clean := markerx.Parse(reply)
	if strings.TrimSpace(clean) == "" {
		clean = fallbackNarration(in)
	}
	in.CleanReply = clean
	return in, nil
}

func fallbackNarration(in *GraphState) string {
	sel := in.Selection
	if sel.Best == nil {
		return "No providers are available for that request right now."
	}
	p := sel.Best.Provider
	return fmt.Sprintf(
		"%s (%.1f stars, %d reviews) is about %d minutes away. Estimated cost $%.0f-$%.0f.",
		p.Name, p.Rating, p.ReviewCount, sel.Best.ETAMins, sel.Best.CostLow, sel.Best.CostHigh,
	)
}
