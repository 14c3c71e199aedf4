package contract

import (
	"context"

	statex "github.com/nattavee/homecall/agent/state"
)

// ChatModel is the capability boundary to the language model: an ordered
// message history in, response text out. Anything behind it is a black box.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// ProviderSearch is the external local-business search collaborator.
type ProviderSearch interface {
	Search(ctx context.Context, category, location string) ([]ProviderOption, error)
}

// MemoryStore owns all durable user state. Mutations are committed before
// returning.
type MemoryStore interface {
	SetPreference(ctx context.Context, userID, key, value string) error
	GetPreference(ctx context.Context, userID, key string) (string, error)
	GetAllPreferences(ctx context.Context, userID string) (map[string]string, error)

	AddFavoriteProvider(ctx context.Context, userID, providerID string) error
	RemoveFavoriteProvider(ctx context.Context, userID, providerID string) error
	GetFavoriteProviders(ctx context.Context, userID string) ([]string, error)

	GetContext(ctx context.Context, userID string) (*UserContext, error)

	RecordRequest(ctx context.Context, userID, issue, category string) error
	AppendMessage(ctx context.Context, userID string, msg Message) error
	RecentMessages(ctx context.Context, userID string, limit int) ([]Message, error)
}

type DispatchStore interface {
	CreateDispatch(ctx context.Context, d *Dispatch) error
	GetDispatch(ctx context.Context, dispatchID string) (*Dispatch, error)
	UpdateDispatchStatus(ctx context.Context, dispatchID string, status statex.DispatchState) error
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, p *Payment) error
	UpdatePaymentStatus(ctx context.Context, paymentID string, status PaymentStatus) error
}
