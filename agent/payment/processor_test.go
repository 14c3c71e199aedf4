package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	contractx "github.com/nattavee/homecall/agent/contract"
)

type fakePaymentStore struct {
	created     []*contractx.Payment
	transitions []contractx.PaymentStatus
	createErr   error
	updateErr   error
}

func (f *fakePaymentStore) CreatePayment(ctx context.Context, p *contractx.Payment) error {
	if f.createErr != nil {
		return f.createErr
	}
	clone := *p
	f.created = append(f.created, &clone)
	return nil
}

func (f *fakePaymentStore) UpdatePaymentStatus(ctx context.Context, paymentID string, status contractx.PaymentStatus) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.transitions = append(f.transitions, status)
	return nil
}

func neverFail() bool { return false }

func TestProcessInvalidInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		dispatchID string
		amount     float64
		method     string
	}{
		{"empty dispatch id", "", 50, "card"},
		{"whitespace dispatch id", "   ", 50, "card"},
		{"empty method", "d1", 50, ""},
		{"whitespace method", "d1", 50, "  "},
		{"zero amount", "d1", 0, "card"},
		{"negative amount", "d1", -10, "card"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := &fakePaymentStore{}
			p := New(store, WithFailureDecider(neverFail))

			res, err := p.Process(context.Background(), tc.dispatchID, tc.amount, tc.method, false)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if res.Success {
				t.Fatalf("expected failure envelope, got %+v", res)
			}
			if res.Error == nil || res.Error.Code != contractx.CodeInvalidInput {
				t.Fatalf("expected INVALID_INPUT, got %+v", res.Error)
			}
			if len(store.created) != 0 {
				t.Fatalf("validation failure must not create records, got %d", len(store.created))
			}
		})
	}
}

func TestProcessSimulatedFailure(t *testing.T) {
	t.Parallel()

	store := &fakePaymentStore{}
	p := New(store, WithFailureDecider(neverFail))

	res, err := p.Process(context.Background(), "d1", 85.50, "card", true)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Success {
		t.Fatalf("expected success=false, got %+v", res)
	}
	if res.Error == nil || res.Error.Code != contractx.CodePaymentFailed {
		t.Fatalf("expected PAYMENT_FAILED, got %+v", res.Error)
	}
	if res.Data == nil || res.Data.Status != contractx.PaymentFailed {
		t.Fatalf("expected failed record as data, got %+v", res.Data)
	}
	if len(store.created) != 1 || store.created[0].Status != contractx.PaymentFailed {
		t.Fatalf("failed attempt must be recorded, got %+v", store.created)
	}
	if len(store.transitions) != 0 {
		t.Fatalf("failed payment must be created failed directly, got transitions %v", store.transitions)
	}
}

func TestProcessRolledFailure(t *testing.T) {
	t.Parallel()

	store := &fakePaymentStore{}
	p := New(store, WithFailureDecider(func() bool { return true }))

	res, err := p.Process(context.Background(), "d1", 40, "cash", false)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Success || res.Error == nil || res.Error.Code != contractx.CodePaymentFailed {
		t.Fatalf("expected rolled failure, got %+v", res)
	}
}

func TestProcessSuccessPath(t *testing.T) {
	t.Parallel()

	store := &fakePaymentStore{}
	p := New(store,
		WithFailureDecider(neverFail),
		WithIDGenerator(func() string { return "pay-1" }),
	)

	res, err := p.Process(context.Background(), "d1", 85.50, "card", false)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Data == nil || res.Data.Status != contractx.PaymentCompleted {
		t.Fatalf("expected completed record, got %+v", res.Data)
	}
	if res.Data.Amount != 85.50 || res.Data.Method != "card" || res.Data.DispatchID != "d1" {
		t.Fatalf("record fields wrong: %+v", res.Data)
	}
	if len(store.created) != 1 || store.created[0].Status != contractx.PaymentPending {
		t.Fatalf("expected record created pending, got %+v", store.created)
	}
	want := []contractx.PaymentStatus{contractx.PaymentProcessing, contractx.PaymentCompleted}
	if fmt.Sprint(store.transitions) != fmt.Sprint(want) {
		t.Fatalf("expected transitions %v, got %v", want, store.transitions)
	}
}

func TestProcessStoreErrorPropagates(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("store unavailable")
	store := &fakePaymentStore{createErr: storeErr}
	p := New(store, WithFailureDecider(neverFail))

	_, err := p.Process(context.Background(), "d1", 10, "card", false)
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to propagate unchanged, got %v", err)
	}
}
