package signaling

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper reclaims rooms nobody will come back for: rooms still waiting
// for a second player long past creation, and empty rooms left behind by a
// disconnect whose cleanup never ran. Reclamation is silent to clients,
// since no one is left to notify, but every sweep is logged.
type Sweeper struct {
	registry *Registry
	log      *slog.Logger

	interval   time.Duration
	waitingTTL time.Duration
	emptyGrace time.Duration

	now func() time.Time
}

// NewSweeper builds a sweeper over the registry. interval is the tick
// period; waitingTTL and emptyGrace are the reclamation thresholds.
func NewSweeper(registry *Registry, log *slog.Logger, interval, waitingTTL, emptyGrace time.Duration) *Sweeper {
	return &Sweeper{
		registry:   registry,
		log:        log,
		interval:   interval,
		waitingTTL: waitingTTL,
		emptyGrace: emptyGrace,
		now:        time.Now,
	}
}

// Run ticks until ctx is cancelled. Each tick is one sweep; a tick never
// overlaps another because sweeps run inline.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one reclamation pass and returns how many rooms were removed.
func (s *Sweeper) Sweep() int {
	reclaimed := s.registry.Expire(s.now(), s.waitingTTL, s.emptyGrace)
	if len(reclaimed) > 0 {
		s.log.Info("swept idle rooms", "count", len(reclaimed), "rooms", reclaimed)
	}
	return len(reclaimed)
}
