// Package llm binds the contract.ChatModel capability to the openrouter
// client.
package llm

import (
	"context"
	"fmt"

	contractx "github.com/nattavee/homecall/agent/contract"
	openrouterx "github.com/nattavee/homecall/pkg/openrouter"
)

type Model struct {
	client *openrouterx.Client
}

func New(client *openrouterx.Client) (*Model, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: openrouter client is required", contractx.ErrValidation)
	}
	return &Model{client: client}, nil
}

func (m *Model) Complete(ctx context.Context, messages []contractx.Message) (string, error) {
	wire := make([]openrouterx.Message, 0, len(messages))
	for _, msg := range messages {
		wire = append(wire, openrouterx.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	out, err := m.client.Complete(ctx, wire)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return out, nil
}

var _ contractx.ChatModel = (*Model)(nil)
