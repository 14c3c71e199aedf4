package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	contractx "github.com/nattavee/homecall/agent/contract"
	statex "github.com/nattavee/homecall/agent/state"
)

// InMem mirrors the postgres store semantics without a database. Favorites are
// kept in the same serialized form under the reserved preference key so the
// corruption-downgrade path behaves identically.
type InMem struct {
	mu          sync.Mutex
	preferences map[string]map[string]string // user_id -> key -> value
	requests    map[string][]serviceRequestRow
	messages    map[string][]contractx.Message
	dispatches  map[string]*contractx.Dispatch
	payments    map[string]*contractx.Payment
}

func NewInMem() *InMem {
	return &InMem{
		preferences: make(map[string]map[string]string),
		requests:    make(map[string][]serviceRequestRow),
		messages:    make(map[string][]contractx.Message),
		dispatches:  make(map[string]*contractx.Dispatch),
		payments:    make(map[string]*contractx.Payment),
	}
}

func (s *InMem) userPrefs(userID string) map[string]string {
	prefs, ok := s.preferences[userID]
	if !ok {
		prefs = make(map[string]string)
		s.preferences[userID] = prefs
	}
	return prefs
}

func (s *InMem) SetPreference(ctx context.Context, userID, key, value string) error {
	if userID == "" || key == "" {
		return fmt.Errorf("%w: user id and key are required", contractx.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userPrefs(userID)[key] = value
	return nil
}

func (s *InMem) GetPreference(ctx context.Context, userID, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.preferences[userID][key]
	if !ok {
		return "", contractx.ErrPreferenceNotFound
	}
	return value, nil
}

func (s *InMem) GetAllPreferences(ctx context.Context, userID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefs := make(map[string]string, len(s.preferences[userID]))
	for k, v := range s.preferences[userID] {
		if k == favoritesKey {
			continue
		}
		prefs[k] = v
	}
	return prefs, nil
}

func (s *InMem) GetFavoriteProviders(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favoritesLocked(userID), nil
}

func (s *InMem) favoritesLocked(userID string) []string {
	raw, ok := s.preferences[userID][favoritesKey]
	if !ok {
		return []string{}
	}
	return decodeFavorites(userID, raw)
}

func (s *InMem) AddFavoriteProvider(ctx context.Context, userID, providerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	favorites, changed := appendFavorite(s.favoritesLocked(userID), providerID)
	if !changed {
		return nil
	}
	return s.saveFavoritesLocked(userID, favorites)
}

func (s *InMem) RemoveFavoriteProvider(ctx context.Context, userID, providerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	favorites, changed := removeFavorite(s.favoritesLocked(userID), providerID)
	if !changed {
		return nil
	}
	return s.saveFavoritesLocked(userID, favorites)
}

func (s *InMem) saveFavoritesLocked(userID string, favorites []string) error {
	payload, err := json.Marshal(favorites)
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}
	s.userPrefs(userID)[favoritesKey] = string(payload)
	return nil
}

func (s *InMem) RecordRequest(ctx context.Context, userID, issue, category string) error {
	if userID == "" || issue == "" {
		return fmt.Errorf("%w: user id and issue are required", contractx.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[userID] = append(s.requests[userID], serviceRequestRow{
		UserID:    userID,
		Issue:     issue,
		Category:  category,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *InMem) AppendMessage(ctx context.Context, userID string, msg contractx.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[userID] = append(s.messages[userID], msg)
	return nil
}

func (s *InMem) RecentMessages(ctx context.Context, userID string, limit int) ([]contractx.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[userID]
	if limit <= 0 || len(msgs) == 0 {
		return []contractx.Message{}, nil
	}
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]contractx.Message(nil), msgs...), nil
}

func (s *InMem) GetContext(ctx context.Context, userID string) (*contractx.UserContext, error) {
	prefs, err := s.GetAllPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	favorites, err := s.GetFavoriteProviders(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	requests := s.requests[userID]
	issues := make([]string, 0, defaultRecentIssues)
	for i := len(requests) - 1; i >= 0 && len(issues) < defaultRecentIssues; i-- {
		issues = append(issues, requests[i].Issue)
	}

	return &contractx.UserContext{
		UserID:            userID,
		Preferences:       prefs,
		FavoriteProviders: favorites,
		RecentIssues:      issues,
		RequestCount:      len(requests),
	}, nil
}

func (s *InMem) CreateDispatch(ctx context.Context, d *contractx.Dispatch) error {
	if d == nil || d.ID == "" {
		return fmt.Errorf("%w: dispatch id is required", contractx.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *d
	s.dispatches[d.ID] = &clone
	return nil
}

func (s *InMem) GetDispatch(ctx context.Context, dispatchID string) (*contractx.Dispatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dispatches[dispatchID]
	if !ok {
		return nil, contractx.ErrDispatchNotFound
	}
	clone := *d
	return &clone, nil
}

func (s *InMem) UpdateDispatchStatus(ctx context.Context, dispatchID string, status statex.DispatchState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dispatches[dispatchID]
	if !ok {
		return contractx.ErrDispatchNotFound
	}
	if !statex.CanTransition(d.Status, status) {
		return fmt.Errorf("%w: dispatch %s -> %s", contractx.ErrInvalidTransition, d.Status, status)
	}
	d.Status = status
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMem) CreatePayment(ctx context.Context, p *contractx.Payment) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("%w: payment id is required", contractx.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *p
	s.payments[p.ID] = &clone
	return nil
}

func (s *InMem) UpdatePaymentStatus(ctx context.Context, paymentID string, status contractx.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return contractx.ErrPaymentNotFound
	}
	if !p.Status.CanAdvanceTo(status) {
		return fmt.Errorf("%w: payment %s -> %s", contractx.ErrInvalidTransition, p.Status, status)
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	return nil
}

var (
	_ contractx.MemoryStore   = (*InMem)(nil)
	_ contractx.DispatchStore = (*InMem)(nil)
	_ contractx.PaymentStore  = (*InMem)(nil)
)
