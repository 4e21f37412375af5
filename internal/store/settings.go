package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inkwell-ai/ghostwriter/internal/trigger"
	"github.com/jackc/pgx/v5"
)

// LoadPolicy reads the persisted trigger policy. ok is false when none has
// been saved yet.
func (s *Store) LoadPolicy(ctx context.Context) (trigger.Policy, bool, error) {
	var raw []byte
	err := s.db.QueryRow(ctx,
		`SELECT policy FROM trigger_policy WHERE id = 1`).Scan(&raw)
	if err == pgx.ErrNoRows {
		return trigger.Policy{}, false, nil
	}
	if err != nil {
		return trigger.Policy{}, false, fmt.Errorf("load policy: %w", err)
	}

	var p trigger.Policy
	if err := json.Unmarshal(raw, &p); err != nil {
		return trigger.Policy{}, false, fmt.Errorf("decode policy: %w", err)
	}
	return p, true, nil
}

// SavePolicy persists the trigger policy.
func (s *Store) SavePolicy(ctx context.Context, p trigger.Policy) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode policy: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO trigger_policy (id, policy, updated_at)
		 VALUES (1, $1, now())
		 ON CONFLICT (id) DO UPDATE SET policy = $1, updated_at = now()`,
		raw)
	if err != nil {
		return fmt.Errorf("save policy: %w", err)
	}
	return nil
}
