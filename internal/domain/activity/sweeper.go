package activity

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"leadcompass/internal/pkg/logger"
)

const sweepTimeout = time.Minute

// Sweeper periodically dismisses activities older than the feed window.
type Sweeper struct {
	cron    *cron.Cron
	service *Service
	log     logger.Logger
}

func NewSweeper(service *Service, log logger.Logger) *Sweeper {
	if log == nil {
		log = logger.Default()
	}
	return &Sweeper{
		cron:    cron.New(),
		service: service,
		log:     log,
	}
}

// Schedule registers the sweep under spec, a cron expression or descriptor like "@every 10m".
func (s *Sweeper) Schedule(spec string) error {
	_, err := s.cron.AddFunc(spec, s.run)
	return err
}

func (s *Sweeper) Start() {
	s.cron.Start()
	s.log.Info("activity sweeper started")
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.service.SweepExpired(ctx)
	if err != nil {
		s.log.Error("activity sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("expired activities dismissed", "count", n)
	}
}
