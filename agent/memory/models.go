package memory

import (
	"time"

	"github.com/uptrace/bun"
)

// favoritesKey is the reserved preference key holding the serialized favorites
// list. It is filtered out of the preference map exposed to callers.
const favoritesKey = "favorite_providers"

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string    `bun:"id,pk"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type preferenceRow struct {
	bun.BaseModel `bun:"table:preferences,alias:p"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    string    `bun:"user_id,notnull"`
	Key       string    `bun:"key,notnull"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type serviceRequestRow struct {
	bun.BaseModel `bun:"table:service_requests,alias:sr"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    string    `bun:"user_id,notnull"`
	Issue     string    `bun:"issue,notnull"`
	Category  string    `bun:"category"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type messageRow struct {
	bun.BaseModel `bun:"table:messages,alias:m"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    string    `bun:"user_id,notnull"`
	Role      string    `bun:"role,notnull"`
	Content   string    `bun:"content,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type dispatchRow struct {
	bun.BaseModel `bun:"table:dispatches,alias:d"`

	ID         string    `bun:"id,pk"`
	UserID     string    `bun:"user_id,notnull"`
	ProviderID string    `bun:"provider_id"`
	Category   string    `bun:"category,notnull"`
	Location   string    `bun:"location"`
	Status     string    `bun:"status,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

type paymentRow struct {
	bun.BaseModel `bun:"table:payments,alias:pay"`

	ID         string    `bun:"id,pk"`
	DispatchID string    `bun:"dispatch_id,notnull"`
	Amount     float64   `bun:"amount,notnull"`
	Method     string    `bun:"method,notnull"`
	Status     string    `bun:"status,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}
