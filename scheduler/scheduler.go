package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"casa_monitor/config"
	"casa_monitor/services"
)

// Scheduler starts scraping runs for the agency on a cron expression
// or fixed interval. Each firing goes through the poller, so the
// single-active-timer invariant holds for scheduled runs too.
type Scheduler struct {
	cfg      *config.Config
	poller   *services.Poller
	agencyID uuid.UUID
	cron     *cron.Cron
	ticker   *time.Ticker
	stopCh   chan struct{}
}

func New(cfg *config.Config, poller *services.Poller, agencyID uuid.UUID) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		poller:   poller,
		agencyID: agencyID,
		cron:     cron.New(),
		stopCh:   make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	// Surface poller errors in the daemon log; they are non-fatal.
	go s.drainErrors(ctx)

	if s.cfg.Scheduler.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Scheduler.Cron)
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
			s.fire(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Scheduler.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.fire(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		log.Println("No schedule configured, daemon will only poll on demand")
	}

	return nil
}

func (s *Scheduler) fire(ctx context.Context) {
	if s.poller.Loading() {
		log.Println("Scheduled run skipped: previous run still pending")
		return
	}
	log.Printf("Scheduled run for agency %s", s.agencyID)
	s.poller.StartRun(ctx, s.agencyID)
}

func (s *Scheduler) drainErrors(ctx context.Context) {
	for {
		select {
		case err := <-s.poller.Errs():
			log.Printf("Poller error: %v", err)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.poller.StopPolling()
	close(s.stopCh)
}
