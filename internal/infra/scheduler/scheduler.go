package scheduler

import (
	"context"
	"time"

	"github.com/qorlgns1/binbang-sub004/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CheckScheduler drives the check service: each cron tick invokes one
// check cycle. The cycle itself fans out through the limiter; this wrapper
// stays single-threaded.
type CheckScheduler struct {
	cronEngine *cron.Cron
	checkSvc   *app.CheckService
	logger     *logrus.Logger
	cronSpec   string
}

func NewCheckScheduler(checkSvc *app.CheckService, logger *logrus.Logger, cronSpec string) *CheckScheduler {
	return &CheckScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		checkSvc:   checkSvc,
		logger:     logger,
		cronSpec:   cronSpec,
	}
}

func (s *CheckScheduler) Start() {
	s.logger.Info("Starting check scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Debug("Cron tick: starting check cycle.")
		// The tick only covers selection and enqueue; the checks themselves
		// run on the limiter long past this deadline.
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := s.checkSvc.RunCycle(ctx); err != nil {
			s.logger.Errorf("Check cycle failed to start: %v", err)
		}
	})
	if err != nil {
		s.logger.Fatalf("Could not add check cycle cron job: %v", err)
	}

	s.cronEngine.Start()
	s.logger.Infof("Check scheduler started (spec %q).", s.cronSpec)
}

func (s *CheckScheduler) Stop() {
	s.logger.Info("Stopping check scheduler...")
	ctx := s.cronEngine.Stop() // Stops new ticks, waits for a running one.
	<-ctx.Done()
	s.logger.Info("Check scheduler gracefully stopped.")
}
