// Package payment implements the simulated payment lifecycle behind the
// booking flow's tool surface. Validation failures never create state; a
// failed payment attempt is a recorded fact.
package payment

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/nattavee/homecall/agent/contract"
)

const defaultFailureRate = 0.1

type Option func(*Processor)

// WithFailureDecider replaces the random failure roll, e.g. with a
// deterministic decision in tests.
func WithFailureDecider(fn func() bool) Option {
	return func(p *Processor) {
		if fn != nil {
			p.decideFailure = fn
		}
	}
}

func WithNow(fn func() time.Time) Option {
	return func(p *Processor) {
		if fn != nil {
			p.now = fn
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

type Processor struct {
	store         contractx.PaymentStore
	decideFailure func() bool
	now           func() time.Time
	newID         func() string
}

func New(store contractx.PaymentStore, opts ...Option) *Processor {
	p := &Processor{
		store: store,
		decideFailure: func() bool {
			return rand.Float64() < defaultFailureRate
		},
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one payment attempt. The PaymentResult envelope carries
// validation and domain outcomes; the error return is reserved for store
// failures, which propagate unchanged.
func (p *Processor) Process(
	ctx context.Context,
	dispatchID string,
	amount float64,
	method string,
	simulateFailure bool,
) (contractx.PaymentResult, error) {
	if result, ok := validate(dispatchID, amount, method); !ok {
		return result, nil
	}

	now := p.now().UTC()
	record := &contractx.Payment{
		ID:         p.newID(),
		DispatchID: strings.TrimSpace(dispatchID),
		Amount:     amount,
		Method:     strings.TrimSpace(method),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if simulateFailure || p.decideFailure() {
		record.Status = contractx.PaymentFailed
		if err := p.store.CreatePayment(ctx, record); err != nil {
			return contractx.PaymentResult{}, err
		}
		log.Info().
			Str("payment_id", record.ID).
			Str("dispatch_id", record.DispatchID).
			Msg("payment failed")
		return contractx.PaymentResult{
			Success: false,
			Data:    record,
			Error: &contractx.ToolError{
				Code:    contractx.CodePaymentFailed,
				Message: "payment could not be processed",
			},
		}, nil
	}

	record.Status = contractx.PaymentPending
	if err := p.store.CreatePayment(ctx, record); err != nil {
		return contractx.PaymentResult{}, err
	}
	for _, status := range []contractx.PaymentStatus{contractx.PaymentProcessing, contractx.PaymentCompleted} {
		if err := p.store.UpdatePaymentStatus(ctx, record.ID, status); err != nil {
			return contractx.PaymentResult{}, err
		}
		record.Status = status
		record.UpdatedAt = p.now().UTC()
	}

	log.Info().
		Str("payment_id", record.ID).
		Str("dispatch_id", record.DispatchID).
		Float64("amount", record.Amount).
		Msg("payment completed")
	return contractx.PaymentResult{
		Success: true,
		Data:    record,
	}, nil
}

func validate(dispatchID string, amount float64, method string) (contractx.PaymentResult, bool) {
	invalid := func(msg string) (contractx.PaymentResult, bool) {
		return contractx.PaymentResult{
			Success: false,
			Error: &contractx.ToolError{
				Code:    contractx.CodeInvalidInput,
				Message: msg,
			},
		}, false
	}

	if strings.TrimSpace(dispatchID) == "" {
		return invalid("dispatch_id is required")
	}
	if strings.TrimSpace(method) == "" {
		return invalid("method is required")
	}
	if amount <= 0 {
		return invalid("amount must be greater than zero")
	}
	return contractx.PaymentResult{}, true
}
