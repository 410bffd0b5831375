package capture

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often the sweeper removes expired tokens.
const DefaultSweepInterval = 30 * time.Second

// Sweeper periodically evicts expired tokens so the store's memory stays
// bounded even when nobody peeks at a token again.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	logger   *slog.Logger
	started  bool
}

// NewSweeper creates a sweeper over the given token service.
func NewSweeper(svc *Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		svc:      svc,
		interval: interval,
		logger:   logger.With("component", "capture.sweeper"),
	}
}

// Run starts the sweep loop. Blocks until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.started {
		return errors.New("sweeper already started")
	}
	s.started = true

	s.logger.Info("capture token sweeper started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("capture token sweeper stopping")
			return ctx.Err()
		case <-ticker.C:
			removed, err := s.svc.CleanupExpired(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				s.logger.Error("sweep error", "error", err)
				continue
			}
			if removed > 0 {
				s.logger.Debug("swept expired capture tokens", "removed", removed)
			}
		}
	}
}
