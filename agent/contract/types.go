package contract

import (
	"time"

	statex "github.com/nattavee/homecall/agent/state"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn of a conversation. Immutable once created.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ProviderOption is a candidate returned by the external search collaborator.
// Read-only to this core.
type ProviderOption struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Rating        float64  `json:"rating"`
	ReviewCount   int      `json:"review_count"`
	DistanceMiles float64  `json:"distance_miles"`
	Available     bool     `json:"available"`
	ETAMinutes    int      `json:"eta_minutes,omitempty"`
	HourlyRate    float64  `json:"hourly_rate"`
	CallOutFee    float64  `json:"call_out_fee"`
	Specialties   []string `json:"specialties,omitempty"`
}

// UserContext is aggregated on read, never stored as a single blob.
type UserContext struct {
	UserID            string            `json:"user_id"`
	Preferences       map[string]string `json:"preferences"`
	FavoriteProviders []string          `json:"favorite_providers"`
	RecentIssues      []string          `json:"recent_issues"`
	RequestCount      int               `json:"request_count"`
}

// Dispatch records a provider assignment for one service request.
type Dispatch struct {
	ID         string               `json:"id"`
	UserID     string               `json:"user_id"`
	ProviderID string               `json:"provider_id,omitempty"`
	Category   string               `json:"category"`
	Location   string               `json:"location"`
	Status     statex.DispatchState `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
)

var paymentStatusRank = map[PaymentStatus]int{
	PaymentPending:    0,
	PaymentProcessing: 1,
	PaymentCompleted:  2,
	PaymentFailed:     2,
}

// CanAdvanceTo reports whether moving from s to next is a forward transition.
// completed and failed are terminal; status never regresses.
func (s PaymentStatus) CanAdvanceTo(next PaymentStatus) bool {
	from, ok := paymentStatusRank[s]
	if !ok {
		return false
	}
	to, ok := paymentStatusRank[next]
	if !ok {
		return false
	}
	if s == PaymentCompleted || s == PaymentFailed {
		return false
	}
	return to > from
}

// Payment is created once per payment attempt, including failed ones.
type Payment struct {
	ID         string        `json:"id"`
	DispatchID string        `json:"dispatch_id"`
	Amount     float64       `json:"amount"`
	Method     string        `json:"method"`
	Status     PaymentStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodePaymentFailed = "PAYMENT_FAILED"
)

type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PaymentResult is the structured envelope returned by the payment tool surface.
type PaymentResult struct {
	Success bool       `json:"success"`
	Data    *Payment   `json:"data,omitempty"`
	Error   *ToolError `json:"error,omitempty"`
}
