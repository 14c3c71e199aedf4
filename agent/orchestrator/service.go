// Package orchestrator drives one conversation turn end to end: model call,
// marker extraction, memory continuity, provider selection, and the booking
// confirmation that hands off to the payment machine. It holds only transient
// per-request state; everything durable lives behind the injected stores.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	contractx "github.com/nattavee/homecall/agent/contract"
	nodex "github.com/nattavee/homecall/agent/nodes"
	"github.com/nattavee/homecall/agent/payment"
	promptx "github.com/nattavee/homecall/agent/prompt"
	statex "github.com/nattavee/homecall/agent/state"
	tracex "github.com/nattavee/homecall/pkg/trace"
)

var (
	ErrInvalidUser    = nodex.ErrInvalidUser
	ErrInvalidMessage = nodex.ErrInvalidMessage
)

const defaultHistoryWindow = 12

type Config struct {
	HistoryWindow int
}

type Orchestrator struct {
	memory     contractx.MemoryStore
	dispatches contractx.DispatchStore
	model      contractx.ChatModel
	searcher   contractx.ProviderSearch
	payments   *payment.Processor
	rec        tracex.Recorder
	prompts    promptx.PromptSet

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	historyWindow int
	now           func() time.Time
	newID         func() string
}

func New(
	memory contractx.MemoryStore,
	dispatches contractx.DispatchStore,
	model contractx.ChatModel,
	searcher contractx.ProviderSearch,
	payments *payment.Processor,
	rec tracex.Recorder,
	cfg Config,
) (*Orchestrator, error) {
	if memory == nil {
		return nil, errors.New("memory store is required")
	}
	if dispatches == nil {
		return nil, errors.New("dispatch store is required")
	}
	if model == nil {
		return nil, errors.New("chat model is required")
	}
	if searcher == nil {
		return nil, errors.New("provider search is required")
	}
	if payments == nil {
		return nil, errors.New("payment processor is required")
	}
	if rec == nil {
		rec = tracex.NopRecorder{}
	}

	historyWindow := cfg.HistoryWindow
	if historyWindow <= 0 {
		historyWindow = defaultHistoryWindow
	}

	o := &Orchestrator{
		memory:        memory,
		dispatches:    dispatches,
		model:         model,
		searcher:      searcher,
		payments:      payments,
		rec:           rec,
		prompts:       promptx.LoadPromptSet(),
		historyWindow: historyWindow,
		now:           time.Now,
		newID:         uuid.NewString,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage processes one user turn and returns the reply plus the
// control state the model reported.
func (o *Orchestrator) HandleMessage(ctx context.Context, in nodex.GraphInput) (nodex.GraphOutput, error) {
	return o.graphRunner.Invoke(ctx, in)
}

// ConfirmBooking is the explicit confirmation step of the booking flow: it
// runs the payment and, only on success, moves the dispatch to dispatched.
// The dispatch never reaches that state any other way.
func (o *Orchestrator) ConfirmBooking(
	ctx context.Context,
	dispatchID string,
	amount float64,
	method string,
	simulateFailure bool,
) (contractx.PaymentResult, error) {
	dispatch, err := o.dispatches.GetDispatch(ctx, dispatchID)
	if err != nil {
		return contractx.PaymentResult{}, err
	}
	if !statex.CanTransition(dispatch.Status, statex.DispatchDispatched) {
		return contractx.PaymentResult{}, fmt.Errorf(
			"%w: cannot confirm dispatch in state %s", contractx.ErrInvalidTransition, dispatch.Status)
	}

	result, err := tracex.Do(ctx, o.rec, "payment.process",
		map[string]any{"dispatch_id": dispatchID, "amount": amount},
		func(ctx context.Context) (contractx.PaymentResult, error) {
			return o.payments.Process(ctx, dispatchID, amount, method, simulateFailure)
		})
	if err != nil {
		return contractx.PaymentResult{}, err
	}
	if !result.Success {
		return result, nil
	}

	if err := o.dispatches.UpdateDispatchStatus(ctx, dispatchID, statex.DispatchDispatched); err != nil {
		return contractx.PaymentResult{}, err
	}
	return result, nil
}
