package worker

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
)

type BoostExpirer interface {
	ExpireBoosts(ctx context.Context) (domain.SweepResult, error)
}

// BoostSweeper runs the boost expiry sweep on a fixed interval. Runs never
// overlap: the next tick is only read after the current sweep returns.
type BoostSweeper struct {
	expirer  BoostExpirer
	interval time.Duration
	timeout  time.Duration
	logger   *logger.Logger
}

func NewBoostSweeper(expirer BoostExpirer, interval, timeout time.Duration, log *logger.Logger) *BoostSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if timeout <= 0 || timeout > interval {
		timeout = interval
	}
	return &BoostSweeper{
		expirer:  expirer,
		interval: interval,
		timeout:  timeout,
		logger:   log.Named("BoostSweeper"),
	}
}

// Run sweeps once at start, then every interval until ctx is done.
func (s *BoostSweeper) Run(ctx context.Context) {
	s.logger.Info("Boost sweeper started", zap.Duration("interval", s.interval))
	defer s.logger.Info("Boost sweeper stopped")

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *BoostSweeper) RunOnce(ctx context.Context) domain.SweepResult {
	if ctx.Err() != nil {
		return domain.SweepResult{}
	}
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.expirer.ExpireBoosts(runCtx)
	if err != nil {
		s.logger.Error("Boost sweep failed", zap.Error(err), zap.Int("expired", res.Expired))
	}
	return res
}
