// internal/app/monitor_service.go
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/qorlgns1/binbang-sub004/internal/domain/account"
	"github.com/qorlgns1/binbang-sub004/internal/domain/heartbeat"
	"github.com/qorlgns1/binbang-sub004/internal/domain/messenger"

	"github.com/sirupsen/logrus"
)

// Alert keys. Cooldown suppression is tracked per key.
const (
	AlertKeyWorkerDown  = "worker_down"
	AlertKeyWorkerStuck = "worker_stuck"
)

// MonitorConfig tunes the heartbeat monitor.
type MonitorConfig struct {
	// HeartbeatInterval is how often the worker is expected to pulse.
	HeartbeatInterval time.Duration
	// MissedThreshold is how many missed pulses count as a dead worker.
	MissedThreshold int
	// MaxProcessingTime bounds how long is_processing may stay raised.
	MaxProcessingTime time.Duration
	// CheckInterval is this monitor's own tick, independent of cycles.
	CheckInterval time.Duration
	// AlertCooldown is the minimum gap between two alerts of the same key.
	AlertCooldown time.Duration
}

// MonitorService watches the worker heartbeat on its own clock and alerts
// operators when the worker looks dead or stuck. It never kills jobs
// itself; it gets a human to look.
type MonitorService struct {
	hbRepo      heartbeat.Repository
	accountRepo account.Repository
	msgr        messenger.Client
	logger      *logrus.Logger
	cfg         MonitorConfig

	now func() time.Time // injectable for tests

	mu        sync.Mutex
	lastAlert map[string]time.Time
	stopCh    chan struct{}
	doneCh    chan struct{}
}

func NewMonitorService(
	hr heartbeat.Repository,
	ar account.Repository,
	mc messenger.Client,
	logger *logrus.Logger,
	cfg MonitorConfig,
) *MonitorService {
	return &MonitorService{
		hbRepo:      hr,
		accountRepo: ar,
		msgr:        mc,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
		lastAlert:   make(map[string]time.Time),
	}
}

// Start launches the monitor loop. The first check runs immediately rather
// than after the first interval. Calling Start on a running monitor is a
// no-op.
func (s *MonitorService) Start() {
	s.mu.Lock()
	if s.stopCh != nil {
		s.mu.Unlock()
		return
	}
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	s.stopCh, s.doneCh = stopCh, doneCh
	s.mu.Unlock()

	s.logger.Infof("Heartbeat monitor started (interval %s, missed threshold %d).",
		s.cfg.CheckInterval, s.cfg.MissedThreshold)

	go func() {
		defer close(doneCh)
		s.CheckOnce(context.Background())
		ticker := time.NewTicker(s.cfg.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				s.CheckOnce(context.Background())
			}
		}
	}()
}

// Stop cancels the monitor loop; no tick fires after it returns. Safe to
// call on a stopped monitor.
func (s *MonitorService) Stop() {
	s.mu.Lock()
	stopCh, doneCh := s.stopCh, s.doneCh
	s.stopCh, s.doneCh = nil, nil
	s.mu.Unlock()
	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
	s.logger.Info("Heartbeat monitor stopped.")
}

// CheckOnce runs one liveness evaluation. Errors are contained here so one
// bad tick never stops future ticks.
func (s *MonitorService) CheckOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Heartbeat monitor tick panicked: %v", r)
		}
	}()

	hb, err := s.hbRepo.Get(ctx)
	if err != nil {
		// Missing and unreadable both mean nobody is pulsing.
		s.logger.Errorf("Heartbeat row unreadable: %v", err)
		s.raiseAlert(ctx, AlertKeyWorkerDown,
			fmt.Sprintf("체커 워커의 하트비트를 찾을 수 없습니다. (%v)", err))
		return
	}

	now := s.now()
	missedBeats := int(now.Sub(hb.LastHeartbeatAt) / s.cfg.HeartbeatInterval)
	if missedBeats >= s.cfg.MissedThreshold {
		s.logger.Warnf("Worker down: %d heartbeats missed (last at %s).", missedBeats, hb.LastHeartbeatAt.Format(time.RFC3339))
		s.raiseAlert(ctx, AlertKeyWorkerDown,
			fmt.Sprintf("체커 워커가 응답하지 않습니다. 하트비트 %d회 누락 (마지막: %s)",
				missedBeats, hb.LastHeartbeatAt.Format("2006-01-02 15:04:05")))
		return
	}

	if hb.IsProcessing && now.Sub(hb.UpdatedAt) > s.cfg.MaxProcessingTime {
		s.logger.Warnf("Worker stuck: processing for %s (max %s).", now.Sub(hb.UpdatedAt), s.cfg.MaxProcessingTime)
		s.raiseAlert(ctx, AlertKeyWorkerStuck,
			fmt.Sprintf("체커 워커가 %s 동안 같은 작업에 머물러 있습니다.", now.Sub(hb.UpdatedAt).Round(time.Second)))
		return
	}

	s.logger.Debugf("Heartbeat healthy (last pulse %s ago).", now.Sub(hb.LastHeartbeatAt).Round(time.Second))
}

// raiseAlert fans an alert out to every admin with a registered chat,
// rate-limited per alert key. The cooldown timestamp is stamped before
// delivery so a slow or failing send cannot cause a duplicate burst.
func (s *MonitorService) raiseAlert(ctx context.Context, key, message string) {
	now := s.now()

	s.mu.Lock()
	if last, ok := s.lastAlert[key]; ok && now.Sub(last) < s.cfg.AlertCooldown {
		s.mu.Unlock()
		s.logger.Debugf("Alert '%s' suppressed by cooldown.", key)
		return
	}
	s.lastAlert[key] = now
	s.mu.Unlock()

	recipients, err := s.accountRepo.ListAlertRecipients(ctx)
	if err != nil {
		s.logger.Errorf("Alert '%s': failed to resolve recipients: %v", key, err)
		return
	}
	if len(recipients) == 0 {
		s.logger.Warnf("Alert '%s' raised but no admin has a registered chat.", key)
		return
	}

	title := alertTitle(key)
	for _, admin := range recipients {
		// One recipient failing must not block the rest.
		if err := s.msgr.Send(ctx, admin.TelegramChatID.Int64, title, message, ""); err != nil {
			s.logger.Errorf("Alert '%s': delivery to admin %d failed: %v", key, admin.ID, err)
			continue
		}
		s.logger.Infof("Alert '%s' delivered to admin %d.", key, admin.ID)
	}
}

func alertTitle(key string) string {
	switch key {
	case AlertKeyWorkerDown:
		return "🚨 빈방 체커 다운"
	case AlertKeyWorkerStuck:
		return "⚠️ 빈방 체커 지연"
	default:
		return "⚠️ 빈방 체커 알림"
	}
}
