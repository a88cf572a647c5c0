package history

import (
	"context"
	"time"
)

// pruneInterval is how often the retention pass runs. Hourly keeps the
// table from drifting far past the window without hammering the disk.
const pruneInterval = time.Hour

// pruneTimeout bounds a single retention pass.
const pruneTimeout = 30 * time.Second

// Pruner periodically deletes history rows older than the retention
// window.
type Pruner struct {
	repo      Repository
	retention time.Duration
	logger    Logger
}

// NewPruner creates a pruner; retention must be positive.
func NewPruner(repo Repository, retention time.Duration) *Pruner {
	return &Pruner{
		repo:      repo,
		retention: retention,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the pruner.
func (p *Pruner) SetLogger(logger Logger) {
	p.logger = logger
}

// Run prunes immediately, then once per interval until ctx is cancelled.
func (p *Pruner) Run(ctx context.Context) {
	p.pruneOnce(ctx)

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pruneOnce(ctx)
		}
	}
}

// pruneOnce runs a single retention pass. Failures are logged only; the
// next pass retries.
func (p *Pruner) pruneOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pruneTimeout)
	defer cancel()

	if _, err := p.repo.Prune(ctx, p.retention); err != nil {
		p.logger.Warn("history prune failed", "error", err)
	}
}
