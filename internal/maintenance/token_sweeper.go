package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ExpiredTokenDeleter removes session tokens that expired before now.
type ExpiredTokenDeleter interface {
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// TokenSweeper periodically deletes expired session tokens.
type TokenSweeper struct {
	users   ExpiredTokenDeleter
	cron    *cron.Cron
	timeout time.Duration
	now     func() time.Time
}

// NewTokenSweeper creates a sweeper that runs on the given cron spec
// (standard five-field syntax or descriptors such as "@every 1h").
func NewTokenSweeper(users ExpiredTokenDeleter, spec string) (*TokenSweeper, error) {
	s := &TokenSweeper{
		users:   users,
		cron:    cron.New(),
		timeout: 30 * time.Second,
		now:     time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running sweeps in the background.
func (s *TokenSweeper) Start() {
	log.Info().Msg("Starting expired token sweeper...")
	s.cron.Start()
}

// Stop halts the sweeper and waits for a running sweep to finish.
func (s *TokenSweeper) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped expired token sweeper.")
}

// Sweep deletes expired tokens once and reports how many were removed.
func (s *TokenSweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.users.DeleteExpiredTokens(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return n, nil
}

func (s *TokenSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.Sweep(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Token sweeper run failed")
		return
	}
	if n > 0 {
		log.Info().Int64("removed", n).Msg("Swept expired tokens")
	}
}
