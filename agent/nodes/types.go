// Package nodes holds the per-message pipeline steps the orchestrator graph
// is compiled from. Each node takes the running GraphState and returns it
// advanced; durable writes only ever go through the injected stores.
package nodes

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/nattavee/homecall/agent/contract"
	markerx "github.com/nattavee/homecall/agent/marker"
	"github.com/nattavee/homecall/agent/selection"
	statex "github.com/nattavee/homecall/agent/state"
)

var (
	ErrInvalidUser    = errors.New("user id is empty")
	ErrInvalidMessage = errors.New("message is empty")
)

type GraphInput struct {
	UserID   string
	Text     string
	Category string
	Location string
}

type GraphOutput struct {
	Reply         string
	AgentState    statex.AgentState
	Missing       statex.Missing
	DispatchState statex.DispatchState
	Dispatch      *contractx.Dispatch
	Selection     *selection.Selection
}

type GraphState struct {
	UserID   string
	Text     string
	Category string
	Location string
	Now      time.Time

	Context *contractx.UserContext
	History []contractx.Message

	ModelReply string
	CleanReply string

	AgentState    statex.AgentState
	Missing       statex.Missing
	DispatchState statex.DispatchState
	ModelMarker   markerx.Result

	Selection *selection.Selection
	Dispatch  *contractx.Dispatch
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, ErrInvalidUser
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		UserID:   userID,
		Text:     text,
		Category: strings.TrimSpace(in.Category),
		Location: strings.TrimSpace(in.Location),
		Now:      nowFn().UTC(),
	}, nil
}
