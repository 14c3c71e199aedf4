package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	contractx "github.com/nattavee/homecall/agent/contract"
	"github.com/nattavee/homecall/agent/memory"
	nodex "github.com/nattavee/homecall/agent/nodes"
	"github.com/nattavee/homecall/agent/payment"
	statex "github.com/nattavee/homecall/agent/state"
)

type fakeModel struct {
	replies []string
	err     error
	calls   int
	history [][]contractx.Message
}

func (f *fakeModel) Complete(ctx context.Context, messages []contractx.Message) (string, error) {
	f.calls++
	f.history = append(f.history, append([]contractx.Message(nil), messages...))
	if f.err != nil {
		return "", f.err
	}
	idx := f.calls - 1
	if idx >= len(f.replies) {
		return "", fmt.Errorf("no scripted reply left at call=%d", f.calls)
	}
	return f.replies[idx], nil
}

type searchCall struct {
	category string
	location string
}

type fakeSearcher struct {
	providers []contractx.ProviderOption
	err       error
	calls     []searchCall
}

func (f *fakeSearcher) Search(ctx context.Context, category, location string) ([]contractx.ProviderOption, error) {
	f.calls = append(f.calls, searchCall{category: category, location: location})
	if f.err != nil {
		return nil, f.err
	}
	return append([]contractx.ProviderOption(nil), f.providers...), nil
}

func neverFail() bool { return false }

func newTestOrchestrator(
	t *testing.T,
	store *memory.InMem,
	model contractx.ChatModel,
	searcher contractx.ProviderSearch,
) *Orchestrator {
	t.Helper()

	o, err := New(
		store,
		store,
		model,
		searcher,
		payment.New(store, payment.WithFailureDecider(neverFail)),
		nil,
		Config{},
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func availableProvider(id string, rating float64) contractx.ProviderOption {
	return contractx.ProviderOption{
		ID:            id,
		Name:          "Provider " + id,
		Rating:        rating,
		ReviewCount:   40,
		DistanceMiles: 2,
		Available:     true,
		HourlyRate:    75,
		CallOutFee:    20,
	}
}

func TestHandleMessageInvalidInput(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, memory.NewInMem(), &fakeModel{}, &fakeSearcher{})

	_, err := o.HandleMessage(context.Background(), nodex.GraphInput{UserID: "  ", Text: "hi"})
	if !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}

	_, err = o.HandleMessage(context.Background(), nodex.GraphInput{UserID: "u1", Text: "   "})
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestHandleMessageClarificationPath(t *testing.T) {
	t.Parallel()

	store := memory.NewInMem()
	model := &fakeModel{replies: []string{
		"Where are you located? [STATE: needs_clarification, missing: location]",
	}}
	searcher := &fakeSearcher{}

	o := newTestOrchestrator(t, store, model, searcher)

	out, err := o.HandleMessage(context.Background(), nodex.GraphInput{
		UserID: "u1",
		Text:   "my sink is leaking",
	})
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if out.Reply != "Where are you located?" {
		t.Fatalf("unexpected reply: %q", out.Reply)
	}
	if out.AgentState != statex.AgentNeedsClarification || out.Missing != statex.MissingLocation {
		t.Fatalf("unexpected state: %s/%s", out.AgentState, out.Missing)
	}
	if len(searcher.calls) != 0 {
		t.Fatalf("search must not run during clarification, got %d calls", len(searcher.calls))
	}
	if out.Dispatch != nil {
		t.Fatalf("unexpected dispatch record: %+v", out.Dispatch)
	}

	msgs, err := store.RecentMessages(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("RecentMessages() error = %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != contractx.RoleUser || msgs[1].Role != contractx.RoleAssistant {
		t.Fatalf("unexpected recorded turn: %+v", msgs)
	}

	uc, err := store.GetContext(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetContext() error = %v", err)
	}
	if uc.RequestCount != 0 {
		t.Fatalf("clarification must not record a request, got count %d", uc.RequestCount)
	}
}

func TestHandleMessageReadyPath(t *testing.T) {
	t.Parallel()

	store := memory.NewInMem()
	model := &fakeModel{replies: []string{
		"On it, searching now. [STATE: ready_to_search, missing: none]",
		"Ace Plumbing can be there in 5 minutes. [DISPATCH_STATE: multiple_options]",
	}}
	searcher := &fakeSearcher{providers: []contractx.ProviderOption{
		availableProvider("p1", 4.8),
		availableProvider("p2", 4.2),
	}}

	o := newTestOrchestrator(t, store, model, searcher)

	out, err := o.HandleMessage(context.Background(), nodex.GraphInput{
		UserID:   "u1",
		Text:     "burst pipe, need someone now",
		Category: "plumbing",
		Location: "brooklyn",
	})
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if out.Reply != "Ace Plumbing can be there in 5 minutes." {
		t.Fatalf("unexpected reply: %q", out.Reply)
	}
	if out.DispatchState != statex.DispatchMultipleOptions {
		t.Fatalf("unexpected dispatch state: %s", out.DispatchState)
	}
	if out.Selection == nil || out.Selection.Best == nil || out.Selection.Best.Provider.ID != "p1" {
		t.Fatalf("unexpected selection: %+v", out.Selection)
	}
	if out.Dispatch == nil || out.Dispatch.ProviderID != "p1" {
		t.Fatalf("unexpected dispatch: %+v", out.Dispatch)
	}
	if model.calls != 2 {
		t.Fatalf("expected intake + narration model calls, got %d", model.calls)
	}
	if len(searcher.calls) != 1 || searcher.calls[0].category != "plumbing" || searcher.calls[0].location != "brooklyn" {
		t.Fatalf("unexpected search calls: %+v", searcher.calls)
	}

	persisted, err := store.GetDispatch(context.Background(), out.Dispatch.ID)
	if err != nil {
		t.Fatalf("GetDispatch() error = %v", err)
	}
	if persisted.Status != statex.DispatchMultipleOptions {
		t.Fatalf("unexpected persisted status: %s", persisted.Status)
	}

	uc, err := store.GetContext(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetContext() error = %v", err)
	}
	if uc.RequestCount != 1 || len(uc.RecentIssues) != 1 {
		t.Fatalf("expected recorded request, got %+v", uc)
	}
}

func TestHandleMessageNoMarkerFallsBack(t *testing.T) {
	t.Parallel()

	store := memory.NewInMem()
	model := &fakeModel{replies: []string{"Sure, tell me more about the problem."}}
	searcher := &fakeSearcher{}

	o := newTestOrchestrator(t, store, model, searcher)

	out, err := o.HandleMessage(context.Background(), nodex.GraphInput{UserID: "u1", Text: "help"})
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if out.AgentState != statex.AgentNeedsClarification {
		t.Fatalf("expected fallback to needs_clarification, got %s", out.AgentState)
	}
	if out.Reply != "Sure, tell me more about the problem." {
		t.Fatalf("unexpected reply: %q", out.Reply)
	}
	if len(searcher.calls) != 0 {
		t.Fatalf("search must not run without a ready directive")
	}
}

func TestHandleMessageNoProviders(t *testing.T) {
	t.Parallel()

	store := memory.NewInMem()
	model := &fakeModel{replies: []string{
		"Searching. [STATE: ready_to_search, missing: none]",
		"Sorry, nobody is available right now. [DISPATCH_STATE: no_providers]",
	}}
	unavailable := availableProvider("p1", 4.9)
	unavailable.Available = false
	searcher := &fakeSearcher{providers: []contractx.ProviderOption{unavailable}}

	o := newTestOrchestrator(t, store, model, searcher)

	out, err := o.HandleMessage(context.Background(), nodex.GraphInput{
		UserID:   "u1",
		Text:     "leak",
		Category: "plumbing",
	})
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if out.DispatchState != statex.DispatchNoProviders {
		t.Fatalf("expected no_providers, got %s", out.DispatchState)
	}
	if out.Dispatch == nil || out.Dispatch.ProviderID != "" {
		t.Fatalf("no_providers dispatch must have no provider, got %+v", out.Dispatch)
	}
}

func TestHandleMessageSearchErrorPropagates(t *testing.T) {
	t.Parallel()

	store := memory.NewInMem()
	model := &fakeModel{replies: []string{
		"Searching. [STATE: ready_to_search, missing: none]",
	}}
	searchErr := errors.New("search collaborator down")
	searcher := &fakeSearcher{err: searchErr}

	o := newTestOrchestrator(t, store, model, searcher)

	_, err := o.HandleMessage(context.Background(), nodex.GraphInput{
		UserID:   "u1",
		Text:     "leak",
		Category: "plumbing",
	})
	if !errors.Is(err, searchErr) {
		t.Fatalf("expected search error to propagate unchanged, got %v", err)
	}
}

func TestHandleMessageLocationFromPreference(t *testing.T) {
	t.Parallel()

	store := memory.NewInMem()
	if err := store.SetPreference(context.Background(), "u1", "location", "queens"); err != nil {
		t.Fatalf("SetPreference() error = %v", err)
	}
	model := &fakeModel{replies: []string{
		"Searching. [STATE: ready_to_search, missing: none]",
		"Found someone. [DISPATCH_STATE: recommending]",
	}}
	searcher := &fakeSearcher{providers: []contractx.ProviderOption{availableProvider("p1", 4.5)}}

	o := newTestOrchestrator(t, store, model, searcher)

	out, err := o.HandleMessage(context.Background(), nodex.GraphInput{
		UserID:   "u1",
		Text:     "leak",
		Category: "plumbing",
	})
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if len(searcher.calls) != 1 || searcher.calls[0].location != "queens" {
		t.Fatalf("expected stored location preference used, got %+v", searcher.calls)
	}
	if out.DispatchState != statex.DispatchRecommending {
		t.Fatalf("unexpected dispatch state: %s", out.DispatchState)
	}
}

func TestConfirmBookingSuccess(t *testing.T) {
	t.Parallel()

	store := memory.NewInMem()
	o := newTestOrchestrator(t, store, &fakeModel{}, &fakeSearcher{})

	d := &contractx.Dispatch{ID: "d1", UserID: "u1", Category: "plumbing", Status: statex.DispatchRecommending}
	if err := store.CreateDispatch(context.Background(), d); err != nil {
		t.Fatalf("CreateDispatch() error = %v", err)
	}

	res, err := o.ConfirmBooking(context.Background(), "d1", 85.50, "card", false)
	if err != nil {
		t.Fatalf("ConfirmBooking() error = %v", err)
	}
	if !res.Success || res.Data == nil || res.Data.Status != contractx.PaymentCompleted {
		t.Fatalf("unexpected payment result: %+v", res)
	}

	confirmed, err := store.GetDispatch(context.Background(), "d1")
	if err != nil {
		t.Fatalf("GetDispatch() error = %v", err)
	}
	if confirmed.Status != statex.DispatchDispatched {
		t.Fatalf("expected dispatched, got %s", confirmed.Status)
	}
}

func TestConfirmBookingPaymentFailureKeepsState(t *testing.T) {
	t.Parallel()

	store := memory.NewInMem()
	o := newTestOrchestrator(t, store, &fakeModel{}, &fakeSearcher{})

	d := &contractx.Dispatch{ID: "d1", UserID: "u1", Category: "plumbing", Status: statex.DispatchRecommending}
	if err := store.CreateDispatch(context.Background(), d); err != nil {
		t.Fatalf("CreateDispatch() error = %v", err)
	}

	res, err := o.ConfirmBooking(context.Background(), "d1", 85.50, "card", true)
	if err != nil {
		t.Fatalf("ConfirmBooking() error = %v", err)
	}
	if res.Success || res.Error == nil || res.Error.Code != contractx.CodePaymentFailed {
		t.Fatalf("expected payment failure, got %+v", res)
	}

	kept, err := store.GetDispatch(context.Background(), "d1")
	if err != nil {
		t.Fatalf("GetDispatch() error = %v", err)
	}
	if kept.Status != statex.DispatchRecommending {
		t.Fatalf("failed payment must not dispatch, got %s", kept.Status)
	}
}

func TestConfirmBookingInvalidState(t *testing.T) {
	t.Parallel()

	store := memory.NewInMem()
	o := newTestOrchestrator(t, store, &fakeModel{}, &fakeSearcher{})

	d := &contractx.Dispatch{ID: "d1", UserID: "u1", Category: "plumbing", Status: statex.DispatchNoProviders}
	if err := store.CreateDispatch(context.Background(), d); err != nil {
		t.Fatalf("CreateDispatch() error = %v", err)
	}

	_, err := o.ConfirmBooking(context.Background(), "d1", 85.50, "card", false)
	if !errors.Is(err, contractx.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	_, err = o.ConfirmBooking(context.Background(), "missing", 85.50, "card", false)
	if !errors.Is(err, contractx.ErrDispatchNotFound) {
		t.Fatalf("expected ErrDispatchNotFound, got %v", err)
	}
}
