package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SiteEnabled reports whether completions are enabled for a site. Unknown
// sites default to enabled.
func (s *Store) SiteEnabled(ctx context.Context, site string) (bool, error) {
	var enabled bool
	err := s.db.QueryRow(ctx,
		`SELECT enabled FROM site_prefs WHERE site = $1`, site).Scan(&enabled)
	if err == pgx.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("read site pref %s: %w", site, err)
	}
	return enabled, nil
}

// SetSiteEnabled upserts the preference for a site.
func (s *Store) SetSiteEnabled(ctx context.Context, site string, enabled bool) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO site_prefs (site, enabled, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (site) DO UPDATE SET enabled = $2, updated_at = now()`,
		site, enabled)
	if err != nil {
		return fmt.Errorf("set site pref %s: %w", site, err)
	}
	return nil
}

// SiteGate adapts the store to the trigger controller's gate interface.
// Lookup errors fail open: the site stays enabled.
type SiteGate struct {
	store  *Store
	logger *zap.Logger
}

// Gate returns a trigger gate backed by this store.
func (s *Store) Gate(logger *zap.Logger) *SiteGate {
	return &SiteGate{store: s, logger: logger}
}

func (g *SiteGate) Enabled(site string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	enabled, err := g.store.SiteEnabled(ctx, site)
	if err != nil {
		g.logger.Warn("site pref lookup failed, allowing", zap.String("site", site), zap.Error(err))
		return true
	}
	return enabled
}
