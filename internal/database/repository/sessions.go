package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransition signals a wizard step regression: an advance to a step
// lower than the persisted current step. This indicates a client or session
// bug, never normal operation.
var ErrInvalidTransition = errors.New("invalid wizard transition")

// SessionRepo persists wizard sessions. At most one live session exists per
// (owner, operation type) pair; expiry is checked lazily on access.
type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create starts a session for (ownerID, operationType). If a live session for
// the pair already exists it is returned as-is; create is idempotent.
func (r *SessionRepo) Create(ctx context.Context, ownerID, operationType string, ttl time.Duration) (WizardSession, error) {
	if existing, err := r.GetLive(ctx, ownerID, operationType); err != nil {
		return WizardSession{}, err
	} else if existing != nil {
		return *existing, nil
	}

	now := time.Now().UTC().Truncate(time.Second)
	s := WizardSession{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		OperationType: operationType,
		CurrentStep:   1,
		CollectedData: map[string]string{},
		CreatedAt:     now,
		UpdatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO wizard_sessions(id, owner_id, operation_type, current_step, collected_data, completed, created_at, updated_at, expires_at)
	VALUES (?, ?, ?, ?, '{}', 0, ?, ?, ?);
	`, s.ID, s.OwnerID, s.OperationType, s.CurrentStep, s.CreatedAt, s.UpdatedAt, s.ExpiresAt)
	if err != nil {
		return WizardSession{}, err
	}
	return s, nil
}

// Get returns a session by id, or nil when missing or expired. Expired rows
// are deleted on the way out.
func (r *SessionRepo) Get(ctx context.Context, id string) (*WizardSession, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, owner_id, operation_type, current_step, collected_data, completed, created_at, updated_at, expires_at FROM wizard_sessions WHERE id = ?`, id)
	return r.scanLive(ctx, row)
}

// GetLive returns the live session for (ownerID, operationType), or nil.
func (r *SessionRepo) GetLive(ctx context.Context, ownerID, operationType string) (*WizardSession, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, owner_id, operation_type, current_step, collected_data, completed, created_at, updated_at, expires_at FROM wizard_sessions WHERE owner_id = ? AND operation_type = ?`, ownerID, operationType)
	return r.scanLive(ctx, row)
}

// GetLiveForOwner returns the most recently touched live session for an owner,
// regardless of operation type, or nil.
func (r *SessionRepo) GetLiveForOwner(ctx context.Context, ownerID string) (*WizardSession, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, owner_id, operation_type, current_step, collected_data, completed, created_at, updated_at, expires_at FROM wizard_sessions WHERE owner_id = ? ORDER BY updated_at DESC LIMIT 1`, ownerID)
	return r.scanLive(ctx, row)
}

// Advance persists a new step and the merged data for the session. Advancing
// to a step lower than the current one returns ErrInvalidTransition. Each
// accepted turn extends the expiry window.
func (r *SessionRepo) Advance(ctx context.Context, id string, step int, data map[string]string, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal collected data: %w", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	// The current_step guard makes a concurrent regression surface as a no-op
	// instead of silently racing.
	res, err := r.db.ExecContext(ctx, `
	UPDATE wizard_sessions SET current_step = ?, collected_data = ?, updated_at = ?, expires_at = ?
	WHERE id = ? AND current_step <= ?;
	`, step, string(raw), now, now.Add(ttl), id, step)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		s, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("session %s: %w", id, sql.ErrNoRows)
		}
		return fmt.Errorf("step %d behind current %d: %w", step, s.CurrentStep, ErrInvalidTransition)
	}
	return nil
}

// Complete marks the session's terminal step as reached. A completed session
// is no longer live: the next access purges the row, freeing the
// (owner, operation type) slot for a fresh wizard.
func (r *SessionRepo) Complete(ctx context.Context, id string) error {
	now := time.Now().UTC().Truncate(time.Second)
	_, err := r.db.ExecContext(ctx, `UPDATE wizard_sessions SET completed = 1, updated_at = ? WHERE id = ?`, now, id)
	return err
}

// Delete removes a session outright, used for cancellations and resets.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM wizard_sessions WHERE id = ?`, id)
	return err
}

func (r *SessionRepo) scanLive(ctx context.Context, row *sql.Row) (*WizardSession, error) {
	var s WizardSession
	var raw string
	var completed int
	if err := row.Scan(&s.ID, &s.OwnerID, &s.OperationType, &s.CurrentStep, &raw, &completed, &s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	s.Completed = completed != 0
	if err := json.Unmarshal([]byte(raw), &s.CollectedData); err != nil {
		return nil, fmt.Errorf("unmarshal collected data: %w", err)
	}
	if s.CollectedData == nil {
		s.CollectedData = map[string]string{}
	}
	if s.Completed || !s.ExpiresAt.After(time.Now().UTC()) {
		_ = r.Delete(ctx, s.ID)
		return nil, nil
	}
	return &s, nil
}
