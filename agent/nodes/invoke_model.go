package nodes

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/nattavee/homecall/agent/contract"
	tracex "github.com/nattavee/homecall/pkg/trace"
)

func InvokeModel(
	ctx context.Context,
	in *GraphState,
	model contractx.ChatModel,
	systemPrompt string,
	rec tracex.Recorder,
) (*GraphState, error) {
	if in == nil || in.Context == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	messages := make([]contractx.Message, 0, len(in.History)+2)
	messages = append(messages, contractx.Message{
		Role:    contractx.RoleSystem,
		Content: systemPrompt + contextSection(in.Context),
	})
	messages = append(messages, in.History...)
	messages = append(messages, contractx.Message{
		Role:    contractx.RoleUser,
		Content: in.Text,
	})

	reply, err := tracex.Do(ctx, rec, "model.complete",
		map[string]any{"user_id": in.UserID, "turns": len(messages)},
		func(ctx context.Context) (string, error) {
			return model.Complete(ctx, messages)
		})
	if err != nil {
		return nil, err
	}

	in.ModelReply = reply
	return in, nil
}

func contextSection(uc *contractx.UserContext) string {
	var b strings.Builder
	if len(uc.Preferences) > 0 {
		b.WriteString("\n\nStored preferences:")
		for k, v := range uc.Preferences {
			fmt.Fprintf(&b, "\n- %s: %s", k, v)
		}
	}
	if len(uc.RecentIssues) > 0 {
		b.WriteString("\n\nRecent issues (newest first):")
		for _, issue := range uc.RecentIssues {
			fmt.Fprintf(&b, "\n- %s", issue)
		}
	}
	return b.String()
}
