package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/nattavee/homecall/agent/nodes"
)

func (o *Orchestrator) compileHandleMessageGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_context",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadContext(ctx, in, o.memory, o.rec, o.historyWindow)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_context: %w", err)
	}

	if err := graph.AddLambdaNode("invoke_model",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.InvokeModel(ctx, in, o.model, o.prompts.Intake, o.rec)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node invoke_model: %w", err)
	}

	if err := graph.AddLambdaNode("parse_marker",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ParseMarker(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node parse_marker: %w", err)
	}

	if err := graph.AddLambdaNode("search_and_select",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SearchAndSelect(ctx, in, o.searcher, o.dispatches, o.rec, o.newID)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node search_and_select: %w", err)
	}

	if err := graph.AddLambdaNode("narrate_dispatch",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.NarrateDispatch(ctx, in, o.model, o.prompts.Dispatch, o.rec)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node narrate_dispatch: %w", err)
	}

	if err := graph.AddLambdaNode("record_turn",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecordTurn(ctx, in, o.memory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node record_turn: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_context"},
		{"load_context", "invoke_model"},
		{"invoke_model", "parse_marker"},
		{"parse_marker", "search_and_select"},
		{"search_and_select", "narrate_dispatch"},
		{"narrate_dispatch", "record_turn"},
		{"record_turn", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_message"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
