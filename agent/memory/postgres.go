// Package memory is the durable side of the dispatch core: user preferences,
// favorites, request history, conversation turns, dispatches, and payments.
// The postgres store is the production binding; an in-memory twin with the
// same semantics backs tests and dev mode.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/nattavee/homecall/agent/contract"
	statex "github.com/nattavee/homecall/agent/state"
)

const defaultRecentIssues = 10

type Config struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Postgres persists all durable state through bun.
type Postgres struct {
	db *bun.DB
}

func NewPostgres(cfg Config) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithTimeout(cfg.Timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &Postgres{db: db}, nil
}

// Migrate creates the schema. Safe to call on every startup.
func (s *Postgres) Migrate(ctx context.Context) error {
	models := []any{
		(*userRow)(nil),
		(*preferenceRow)(nil),
		(*serviceRequestRow)(nil),
		(*messageRow)(nil),
		(*dispatchRow)(nil),
		(*paymentRow)(nil),
	}
	for _, m := range models {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}
	if _, err := s.db.NewCreateIndex().
		Model((*preferenceRow)(nil)).
		Index("preferences_user_id_key_idx").
		Unique().
		Column("user_id", "key").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create preference index: %w", err)
	}
	return nil
}

func (s *Postgres) Close() error {
	return s.db.Close()
}

func (s *Postgres) ensureUser(ctx context.Context, userID string) error {
	_, err := s.db.NewInsert().
		Model(&userRow{ID: userID, CreatedAt: time.Now().UTC()}).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	return err
}

/* ------------------------------ preferences ------------------------------ */

func (s *Postgres) SetPreference(ctx context.Context, userID, key, value string) error {
	if userID == "" || key == "" {
		return fmt.Errorf("%w: user id and key are required", contractx.ErrValidation)
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	row := &preferenceRow{
		UserID:    userID,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id, key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Postgres) GetPreference(ctx context.Context, userID, key string) (string, error) {
	var row preferenceRow
	err := s.db.NewSelect().
		Model(&row).
		Where("user_id = ?", userID).
		Where("key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", contractx.ErrPreferenceNotFound
		}
		return "", err
	}
	return row.Value, nil
}

func (s *Postgres) GetAllPreferences(ctx context.Context, userID string) (map[string]string, error) {
	var rows []preferenceRow
	if err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Scan(ctx); err != nil {
		return nil, err
	}
	prefs := make(map[string]string, len(rows))
	for _, row := range rows {
		if row.Key == favoritesKey {
			continue
		}
		prefs[row.Key] = row.Value
	}
	return prefs, nil
}

/* ------------------------------- favorites ------------------------------- */

func (s *Postgres) GetFavoriteProviders(ctx context.Context, userID string) ([]string, error) {
	raw, err := s.GetPreference(ctx, userID, favoritesKey)
	if err != nil {
		if errors.Is(err, contractx.ErrPreferenceNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	return decodeFavorites(userID, raw), nil
}

func (s *Postgres) AddFavoriteProvider(ctx context.Context, userID, providerID string) error {
	favorites, err := s.GetFavoriteProviders(ctx, userID)
	if err != nil {
		return err
	}
	next, changed := appendFavorite(favorites, providerID)
	if !changed {
		return nil
	}
	return s.saveFavorites(ctx, userID, next)
}

func (s *Postgres) RemoveFavoriteProvider(ctx context.Context, userID, providerID string) error {
	favorites, err := s.GetFavoriteProviders(ctx, userID)
	if err != nil {
		return err
	}
	next, changed := removeFavorite(favorites, providerID)
	if !changed {
		return nil
	}
	return s.saveFavorites(ctx, userID, next)
}

func (s *Postgres) saveFavorites(ctx context.Context, userID string, favorites []string) error {
	payload, err := json.Marshal(favorites)
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}
	return s.SetPreference(ctx, userID, favoritesKey, string(payload))
}

// decodeFavorites downgrades a corrupt payload to an empty list. The caller
// never sees a parse error from stored favorites.
func decodeFavorites(userID, raw string) []string {
	var favorites []string
	if err := json.Unmarshal([]byte(raw), &favorites); err != nil {
		log.Warn().
			Err(err).
			Str("user_id", userID).
			Msg("corrupt favorites payload, returning empty list")
		return []string{}
	}
	if favorites == nil {
		return []string{}
	}
	return favorites
}

func appendFavorite(favorites []string, providerID string) ([]string, bool) {
	for _, id := range favorites {
		if id == providerID {
			return favorites, false
		}
	}
	return append(favorites, providerID), true
}

func removeFavorite(favorites []string, providerID string) ([]string, bool) {
	next := favorites[:0]
	changed := false
	for _, id := range favorites {
		if id == providerID {
			changed = true
			continue
		}
		next = append(next, id)
	}
	return next, changed
}

/* -------------------------- history and context -------------------------- */

func (s *Postgres) RecordRequest(ctx context.Context, userID, issue, category string) error {
	if userID == "" || issue == "" {
		return fmt.Errorf("%w: user id and issue are required", contractx.ErrValidation)
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	_, err := s.db.NewInsert().Model(&serviceRequestRow{
		UserID:    userID,
		Issue:     issue,
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}).Exec(ctx)
	return err
}

func (s *Postgres) AppendMessage(ctx context.Context, userID string, msg contractx.Message) error {
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	_, err := s.db.NewInsert().Model(&messageRow{
		UserID:    userID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: time.Now().UTC(),
	}).Exec(ctx)
	return err
}

func (s *Postgres) RecentMessages(ctx context.Context, userID string, limit int) ([]contractx.Message, error) {
	if limit <= 0 {
		return []contractx.Message{}, nil
	}
	var rows []messageRow
	if err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("id DESC").
		Limit(limit).
		Scan(ctx); err != nil {
		return nil, err
	}
	// rows are newest-first; conversation order is oldest-first
	msgs := make([]contractx.Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		msgs = append(msgs, contractx.Message{
			Role:    contractx.Role(rows[i].Role),
			Content: rows[i].Content,
		})
	}
	return msgs, nil
}

func (s *Postgres) GetContext(ctx context.Context, userID string) (*contractx.UserContext, error) {
	prefs, err := s.GetAllPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	favorites, err := s.GetFavoriteProviders(ctx, userID)
	if err != nil {
		return nil, err
	}

	var requests []serviceRequestRow
	if err := s.db.NewSelect().
		Model(&requests).
		Where("user_id = ?", userID).
		OrderExpr("id DESC").
		Limit(defaultRecentIssues).
		Scan(ctx); err != nil {
		return nil, err
	}
	issues := make([]string, 0, len(requests))
	for _, r := range requests {
		issues = append(issues, r.Issue)
	}

	count, err := s.db.NewSelect().
		Model((*serviceRequestRow)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return nil, err
	}

	return &contractx.UserContext{
		UserID:            userID,
		Preferences:       prefs,
		FavoriteProviders: favorites,
		RecentIssues:      issues,
		RequestCount:      count,
	}, nil
}

/* ------------------------------- dispatches ------------------------------ */

func (s *Postgres) CreateDispatch(ctx context.Context, d *contractx.Dispatch) error {
	if d == nil || d.ID == "" {
		return fmt.Errorf("%w: dispatch id is required", contractx.ErrValidation)
	}
	_, err := s.db.NewInsert().Model(&dispatchRow{
		ID:         d.ID,
		UserID:     d.UserID,
		ProviderID: d.ProviderID,
		Category:   d.Category,
		Location:   d.Location,
		Status:     string(d.Status),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}).Exec(ctx)
	return err
}

func (s *Postgres) GetDispatch(ctx context.Context, dispatchID string) (*contractx.Dispatch, error) {
	var row dispatchRow
	err := s.db.NewSelect().
		Model(&row).
		Where("id = ?", dispatchID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contractx.ErrDispatchNotFound
		}
		return nil, err
	}
	return &contractx.Dispatch{
		ID:         row.ID,
		UserID:     row.UserID,
		ProviderID: row.ProviderID,
		Category:   row.Category,
		Location:   row.Location,
		Status:     statex.DispatchState(row.Status),
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

func (s *Postgres) UpdateDispatchStatus(ctx context.Context, dispatchID string, status statex.DispatchState) error {
	current, err := s.GetDispatch(ctx, dispatchID)
	if err != nil {
		return err
	}
	if !statex.CanTransition(current.Status, status) {
		return fmt.Errorf("%w: dispatch %s -> %s", contractx.ErrInvalidTransition, current.Status, status)
	}
	_, err = s.db.NewUpdate().
		Model((*dispatchRow)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", dispatchID).
		Exec(ctx)
	return err
}

/* -------------------------------- payments ------------------------------- */

func (s *Postgres) CreatePayment(ctx context.Context, p *contractx.Payment) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("%w: payment id is required", contractx.ErrValidation)
	}
	_, err := s.db.NewInsert().Model(&paymentRow{
		ID:         p.ID,
		DispatchID: p.DispatchID,
		Amount:     p.Amount,
		Method:     p.Method,
		Status:     string(p.Status),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}).Exec(ctx)
	return err
}

func (s *Postgres) UpdatePaymentStatus(ctx context.Context, paymentID string, status contractx.PaymentStatus) error {
	var row paymentRow
	err := s.db.NewSelect().
		Model(&row).
		Where("id = ?", paymentID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contractx.ErrPaymentNotFound
		}
		return err
	}
	if !contractx.PaymentStatus(row.Status).CanAdvanceTo(status) {
		return fmt.Errorf("%w: payment %s -> %s", contractx.ErrInvalidTransition, row.Status, status)
	}
	_, err = s.db.NewUpdate().
		Model((*paymentRow)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", paymentID).
		Exec(ctx)
	return err
}

var (
	_ contractx.MemoryStore   = (*Postgres)(nil)
	_ contractx.DispatchStore = (*Postgres)(nil)
	_ contractx.PaymentStore  = (*Postgres)(nil)
)
