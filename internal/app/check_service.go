// internal/app/check_service.go
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/qorlgns1/binbang-sub004/internal/domain/check"
	"github.com/qorlgns1/binbang-sub004/internal/domain/heartbeat"
	"github.com/qorlgns1/binbang-sub004/internal/domain/listing"
	"github.com/qorlgns1/binbang-sub004/internal/domain/messenger"
	"github.com/qorlgns1/binbang-sub004/internal/domain/probe"
	"github.com/qorlgns1/binbang-sub004/internal/limiter"

	"github.com/sirupsen/logrus"
)

// CheckService owns one check cycle end to end: it selects eligible
// listings on each scheduler tick, fans the checks out through the limiter,
// and accounts each completion back onto the cycle row.
type CheckService struct {
	listingRepo listing.Repository
	checkRepo   check.Repository
	hbRepo      heartbeat.Repository
	prober      probe.Client
	msgr        messenger.Client
	lim         *limiter.Limiter
	logger      *logrus.Logger

	concurrency int
	poolSize    int

	now func() time.Time // injectable for tests
}

func NewCheckService(
	lr listing.Repository,
	cr check.Repository,
	hr heartbeat.Repository,
	pc probe.Client,
	mc messenger.Client,
	lim *limiter.Limiter,
	logger *logrus.Logger,
	concurrency int,
	poolSize int,
) *CheckService {
	return &CheckService{
		listingRepo: lr,
		checkRepo:   cr,
		hbRepo:      hr,
		prober:      pc,
		msgr:        mc,
		lim:         lim,
		logger:      logger,
		concurrency: concurrency,
		poolSize:    poolSize,
		now:         time.Now,
	}
}

// EffectiveConcurrency is the worker bound actually used: the configured
// concurrency capped by the checker's browser pool size.
func (s *CheckService) EffectiveConcurrency() int {
	if s.poolSize < s.concurrency {
		return s.poolSize
	}
	return s.concurrency
}

// RunCycle is the scheduler tick entry point. It creates at most one Cycle
// per call; an empty selection never persists a cycle row but still pulses
// the heartbeat so the monitor sees a live worker.
func (s *CheckService) RunCycle(ctx context.Context) error {
	listings, err := s.listingRepo.ListDueForCheck(ctx, s.now())
	if err != nil {
		s.logger.Errorf("Failed to list listings due for check: %v", err)
		return fmt.Errorf("failed to list listings due for check: %w", err)
	}

	if len(listings) == 0 {
		s.logger.Info("No active listings due for check. Skipping cycle creation.")
		if err := s.hbRepo.Pulse(ctx, false); err != nil {
			s.logger.Warnf("Failed to pulse heartbeat on empty tick: %v", err)
		}
		return nil
	}

	cycle := &check.Cycle{
		TotalCount:  len(listings),
		Concurrency: s.EffectiveConcurrency(),
		PoolSize:    s.poolSize,
	}
	if err := s.checkRepo.CreateCycle(ctx, cycle); err != nil {
		s.logger.Errorf("Failed to create check cycle: %v", err)
		return fmt.Errorf("failed to create check cycle: %w", err)
	}
	s.logger.Infof("Check cycle %d started: %d listings, concurrency %d.", cycle.ID, cycle.TotalCount, cycle.Concurrency)

	// Snapshot every listing now; jobs never re-read the listing row.
	tasks := make([]limiter.Task, 0, len(listings))
	for _, l := range listings {
		job := check.Job{
			CycleID:      cycle.ID,
			ListingID:    l.ID,
			ListingName:  l.Name,
			URL:          l.URL,
			CheckIn:      l.CheckIn,
			CheckOut:     l.CheckOut,
			Adults:       l.Adults,
			Platform:     string(l.Platform),
			PrevStatus:   check.Status(l.LastStatus.String),
			NotifyChatID: l.NotifyChatID,
		}
		tasks = append(tasks, func() error {
			// Jobs outlive the tick's context; the probe guards its own
			// round-trip time.
			s.runJob(context.Background(), job)
			return nil
		})
	}

	// The batch is admitted atomically. If it cannot be, the cycle must not
	// linger looking in-progress, so the row is taken back out.
	if _, err := s.lim.GoAll(tasks); err != nil {
		s.logger.Errorf("Failed to enqueue check batch for cycle %d: %v", cycle.ID, err)
		if delErr := s.checkRepo.DeleteCycle(ctx, cycle.ID); delErr != nil {
			s.logger.Errorf("Failed to abandon cycle %d after enqueue failure: %v", cycle.ID, delErr)
		}
		return fmt.Errorf("failed to enqueue check batch: %w", err)
	}
	return nil
}

// runJob executes one check. Whatever happens inside, including a panic,
// completion always reaches the finalizer; a job that vanished would leave
// its cycle stuck below total_count forever.
func (s *CheckService) runJob(ctx context.Context, job check.Job) {
	success := false
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Check for listing %d panicked: %v", job.ListingID, r)
		}
		s.finalize(ctx, job.CycleID, success)
	}()

	if err := s.hbRepo.Pulse(ctx, true); err != nil {
		s.logger.Warnf("Failed to pulse heartbeat before check of listing %d: %v", job.ListingID, err)
	}

	started := s.now()
	result, err := s.prober.Check(ctx, job)
	elapsed := s.now().Sub(started)
	if err != nil {
		// Transport failures and probe-reported failures resolve the same
		// way: an ERROR status on this listing, never a thrown error.
		result = &probe.Result{Error: err.Error()}
	}

	status := check.DetermineStatus(result.Error, result.Available)

	notified := false
	if check.ShouldNotify(status, job.PrevStatus, job.NotifyChatID.Valid) {
		notified = s.notifyOwner(ctx, job, result)
	}

	logEntry := &check.Log{
		CycleID:          job.CycleID,
		ListingID:        job.ListingID,
		Status:           status,
		Price:            nullString(result.Price),
		ErrorMessage:     nullString(result.Error),
		Metadata:         encodeMetadata(result.Metadata),
		NotificationSent: notified,
		DurationMs:       elapsed.Milliseconds(),
		RetryCount:       result.RetryCount,
		PrevStatus:       job.PrevStatus,
		CheckedAt:        started,
	}
	if err := s.checkRepo.CreateLog(ctx, logEntry); err != nil {
		s.logger.Errorf("Failed to persist check log for listing %d: %v", job.ListingID, err)
	}

	// The listing is updated even on ERROR so owners can see staleness.
	if err := s.listingRepo.UpdateCheckResult(ctx, job.ListingID, string(status), nullString(result.Price), started); err != nil {
		s.logger.Errorf("Failed to update listing %d after check: %v", job.ListingID, err)
	}

	if status == check.StatusError {
		s.logger.Warnf("Check of listing %d finished with ERROR in %dms: %s", job.ListingID, elapsed.Milliseconds(), result.Error)
	} else {
		s.logger.Infof("Check of listing %d finished: %s in %dms.", job.ListingID, status, elapsed.Milliseconds())
	}
	success = status != check.StatusError
}

// finalize advances the cycle counters for one completed job and closes the
// cycle when the last job reports in. Errors here are logged and swallowed:
// a bookkeeping failure must never crash the worker and strand the
// remaining jobs, so a stuck cycle is accepted as a visible anomaly.
func (s *CheckService) finalize(ctx context.Context, cycleID int64, success bool) {
	counters, err := s.checkRepo.IncrementCycleCounters(ctx, cycleID, success)
	if err != nil {
		s.logger.Errorf("Failed to finalize check for cycle %d: %v", cycleID, err)
		return
	}
	if counters.CompletedCount == counters.TotalCount {
		if err := s.checkRepo.CloseCycle(ctx, cycleID); err != nil {
			s.logger.Errorf("Failed to close check cycle %d: %v", cycleID, err)
			return
		}
		// The last job left the heartbeat marked processing; clear it so the
		// monitor sees an idle worker between cycles instead of a stuck one.
		if err := s.hbRepo.Pulse(ctx, false); err != nil {
			s.logger.Warnf("Failed to pulse heartbeat after cycle %d: %v", cycleID, err)
		}
		s.logger.Infof("Check cycle %d finished: %d ok, %d errored.", cycleID, counters.SuccessCount, counters.ErrorCount)
	}
}

// notifyOwner sends the availability message and reports whether delivery
// succeeded. Failures are logged only; they never affect the check outcome.
func (s *CheckService) notifyOwner(ctx context.Context, job check.Job, result *probe.Result) bool {
	nights := check.NightsBetween(job.CheckIn, job.CheckOut)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", job.ListingName)
	fmt.Fprintf(&b, "%s ~ %s · %d박 · 성인 %d명",
		job.CheckIn.Format("2006-01-02"), job.CheckOut.Format("2006-01-02"), nights, job.Adults)
	if result.Price != "" {
		fmt.Fprintf(&b, "\n가격: %s", result.Price)
		if total, ok := parsePrice(result.Price); ok {
			fmt.Fprintf(&b, " (1박 평균 %s원)", strconv.FormatInt(total/int64(nights), 10))
		}
	}

	link := result.CheckURL
	if link == "" {
		link = job.URL
	}

	if err := s.msgr.Send(ctx, job.NotifyChatID.Int64, "🎉 빈방이 나왔어요!", b.String(), link); err != nil {
		s.logger.Errorf("Failed to notify owner of listing %d (chat %d): %v", job.ListingID, job.NotifyChatID.Int64, err)
		return false
	}
	s.logger.Infof("Availability notification sent for listing %d (chat %d).", job.ListingID, job.NotifyChatID.Int64)
	return true
}

// parsePrice extracts the numeric amount from a formatted price string such
// as "₩1,250,000" or "125,000원".
func parsePrice(raw string) (int64, bool) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func encodeMetadata(meta map[string]any) sql.NullString {
	if len(meta) == 0 {
		return sql.NullString{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}
