package nodes

import (
	"context"
	"fmt"

	contractx "github.com/nattavee/homecall/agent/contract"
	"github.com/nattavee/homecall/agent/selection"
	statex "github.com/nattavee/homecall/agent/state"
	tracex "github.com/nattavee/homecall/pkg/trace"
)

const fallbackCategory = "general"

// SearchAndSelect runs only once the intake directive says ready_to_search.
// It queries the external search collaborator, ranks the candidates, and
// persists a dispatch record in the state the selection produced.
func SearchAndSelect(
	ctx context.Context,
	in *GraphState,
	searcher contractx.ProviderSearch,
	dispatches contractx.DispatchStore,
	rec tracex.Recorder,
	newID func() string,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.AgentState != statex.AgentReadyToSearch || in.DispatchState != "" {
		return in, nil
	}

	category := in.Category
	if category == "" {
		category = fallbackCategory
	}

	options, err := tracex.Do(ctx, rec, "provider.search",
		map[string]any{"category": category, "location": in.Location},
		func(ctx context.Context) ([]contractx.ProviderOption, error) {
			return searcher.Search(ctx, category, in.Location)
		})
	if err != nil {
		return nil, err
	}

	sel := selection.Select(options)
	in.Selection = &sel
	in.DispatchState = sel.State

	dispatch := &contractx.Dispatch{
		ID:        newID(),
		UserID:    in.UserID,
		Category:  category,
		Location:  in.Location,
		Status:    sel.State,
		CreatedAt: in.Now,
		UpdatedAt: in.Now,
	}
	if sel.Best != nil {
		dispatch.ProviderID = sel.Best.Provider.ID
	}
	if err := dispatches.CreateDispatch(ctx, dispatch); err != nil {
		return nil, err
	}
	in.Dispatch = dispatch
	return in, nil
}
