package app

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/qorlgns1/binbang-sub004/internal/domain/account"
	"github.com/qorlgns1/binbang-sub004/internal/domain/heartbeat"
)

type fakeAccountRepo struct {
	mu      sync.Mutex
	admins  []*account.User
	listErr error
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id int64) (*account.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.admins {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.New("user not found")
}

func (f *fakeAccountRepo) ListAlertRecipients(_ context.Context) ([]*account.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*account.User, 0, len(f.admins))
	for _, u := range f.admins {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func admin(id, chatID int64) *account.User {
	return &account.User{
		ID:             id,
		Role:           account.RoleAdmin,
		IsActive:       true,
		TelegramChatID: sql.NullInt64{Int64: chatID, Valid: true},
	}
}

func defaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		HeartbeatInterval: time.Minute,
		MissedThreshold:   1,
		MaxProcessingTime: 10 * time.Minute,
		CheckInterval:     time.Hour, // irrelevant when CheckOnce is driven directly
		AlertCooldown:     30 * time.Minute,
	}
}

func newTestMonitor(hb *fakeHeartbeatRepo, acc *fakeAccountRepo, msgr *fakeMessenger, cfg MonitorConfig) (*MonitorService, *time.Time) {
	svc := NewMonitorService(hb, acc, msgr, testLogger(), cfg)
	current := time.Now()
	svc.now = func() time.Time { return current }
	return svc, &current
}

func TestMonitorAlertsOnStaleHeartbeatOnce(t *testing.T) {
	hbRepo := &fakeHeartbeatRepo{}
	accRepo := &fakeAccountRepo{admins: []*account.User{admin(1, 100)}}
	msgr := &fakeMessenger{}
	svc, current := newTestMonitor(hbRepo, accRepo, msgr, defaultMonitorConfig())

	// Three intervals without a pulse, threshold one.
	hbRepo.hb = &heartbeat.Heartbeat{
		StartedAt:       current.Add(-time.Hour),
		LastHeartbeatAt: current.Add(-3 * time.Minute),
		UpdatedAt:       current.Add(-3 * time.Minute),
	}

	svc.CheckOnce(context.Background())
	if sends := msgr.sent(); len(sends) != 1 {
		t.Fatalf("got %d alerts, want 1", len(sends))
	}

	// Second tick inside the cooldown window: suppressed.
	*current = current.Add(time.Minute)
	svc.CheckOnce(context.Background())
	if sends := msgr.sent(); len(sends) != 1 {
		t.Fatalf("duplicate alert within cooldown: got %d sends", len(sends))
	}

	// Past the cooldown the alert fires again.
	*current = current.Add(31 * time.Minute)
	svc.CheckOnce(context.Background())
	if sends := msgr.sent(); len(sends) != 2 {
		t.Fatalf("after cooldown expiry: got %d sends, want 2", len(sends))
	}
}

func TestMonitorMissingHeartbeatIsDown(t *testing.T) {
	hbRepo := &fakeHeartbeatRepo{} // no row ever written
	accRepo := &fakeAccountRepo{admins: []*account.User{admin(1, 100)}}
	msgr := &fakeMessenger{}
	svc, _ := newTestMonitor(hbRepo, accRepo, msgr, defaultMonitorConfig())

	svc.CheckOnce(context.Background())
	if sends := msgr.sent(); len(sends) != 1 {
		t.Fatalf("missing heartbeat: got %d alerts, want 1", len(sends))
	}
}

func TestMonitorReadFailureIsDown(t *testing.T) {
	hbRepo := &fakeHeartbeatRepo{getErr: errors.New("connection refused")}
	accRepo := &fakeAccountRepo{admins: []*account.User{admin(1, 100)}}
	msgr := &fakeMessenger{}
	svc, _ := newTestMonitor(hbRepo, accRepo, msgr, defaultMonitorConfig())

	svc.CheckOnce(context.Background())
	if sends := msgr.sent(); len(sends) != 1 {
		t.Fatalf("unreadable heartbeat: got %d alerts, want 1", len(sends))
	}
}

func TestMonitorDetectsStuckProcessing(t *testing.T) {
	hbRepo := &fakeHeartbeatRepo{}
	accRepo := &fakeAccountRepo{admins: []*account.User{admin(1, 100)}}
	msgr := &fakeMessenger{}
	svc, current := newTestMonitor(hbRepo, accRepo, msgr, defaultMonitorConfig())

	// Recent pulse (not down), but processing for longer than allowed.
	hbRepo.hb = &heartbeat.Heartbeat{
		StartedAt:       current.Add(-time.Hour),
		LastHeartbeatAt: *current,
		IsProcessing:    true,
		UpdatedAt:       current.Add(-11 * time.Minute),
	}

	svc.CheckOnce(context.Background())
	sends := msgr.sent()
	if len(sends) != 1 {
		t.Fatalf("stuck worker: got %d alerts, want 1", len(sends))
	}
}

func TestMonitorHealthyRaisesNothing(t *testing.T) {
	hbRepo := &fakeHeartbeatRepo{}
	accRepo := &fakeAccountRepo{admins: []*account.User{admin(1, 100)}}
	msgr := &fakeMessenger{}
	svc, current := newTestMonitor(hbRepo, accRepo, msgr, defaultMonitorConfig())

	hbRepo.hb = &heartbeat.Heartbeat{
		StartedAt:       current.Add(-time.Hour),
		LastHeartbeatAt: current.Add(-10 * time.Second),
		UpdatedAt:       current.Add(-10 * time.Second),
	}

	svc.CheckOnce(context.Background())
	if sends := msgr.sent(); len(sends) != 0 {
		t.Fatalf("healthy worker: got %d alerts, want none", len(sends))
	}
}

func TestMonitorFanOutSurvivesOneFailure(t *testing.T) {
	hbRepo := &fakeHeartbeatRepo{}
	accRepo := &fakeAccountRepo{admins: []*account.User{admin(1, 100), admin(2, 200), admin(3, 300)}}
	msgr := &fakeMessenger{failFor: map[int64]error{200: errors.New("chat deleted")}}
	svc, _ := newTestMonitor(hbRepo, accRepo, msgr, defaultMonitorConfig())

	svc.CheckOnce(context.Background()) // missing heartbeat -> down alert

	sends := msgr.sent()
	if len(sends) != 2 {
		t.Fatalf("got %d deliveries, want 2 (one recipient failed)", len(sends))
	}
	got := map[int64]bool{}
	for _, m := range sends {
		got[m.ChatID] = true
	}
	if !got[100] || !got[300] {
		t.Errorf("deliveries reached %v, want chats 100 and 300", got)
	}
}

func TestMonitorDistinctKeysCooldownIndependently(t *testing.T) {
	hbRepo := &fakeHeartbeatRepo{}
	accRepo := &fakeAccountRepo{admins: []*account.User{admin(1, 100)}}
	msgr := &fakeMessenger{}
	svc, current := newTestMonitor(hbRepo, accRepo, msgr, defaultMonitorConfig())

	// First tick: worker down.
	hbRepo.hb = &heartbeat.Heartbeat{
		LastHeartbeatAt: current.Add(-5 * time.Minute),
		UpdatedAt:       current.Add(-5 * time.Minute),
	}
	svc.CheckOnce(context.Background())

	// Worker comes back but is stuck: different key, no shared cooldown.
	hbRepo.hb = &heartbeat.Heartbeat{
		LastHeartbeatAt: *current,
		IsProcessing:    true,
		UpdatedAt:       current.Add(-time.Hour),
	}
	svc.CheckOnce(context.Background())

	if sends := msgr.sent(); len(sends) != 2 {
		t.Fatalf("got %d alerts, want 2 (down then stuck)", len(sends))
	}
}

func TestMonitorStartRunsImmediatelyAndStops(t *testing.T) {
	hbRepo := &fakeHeartbeatRepo{} // missing row -> down on first check
	accRepo := &fakeAccountRepo{admins: []*account.User{admin(1, 100)}}
	msgr := &fakeMessenger{}
	cfg := defaultMonitorConfig()
	cfg.CheckInterval = time.Hour
	svc := NewMonitorService(hbRepo, accRepo, msgr, testLogger(), cfg)

	svc.Start()
	waitFor(t, 2*time.Second, "immediate first check", func() bool {
		return len(msgr.sent()) == 1
	})
	svc.Stop()
	svc.Stop() // idempotent

	if sends := msgr.sent(); len(sends) != 1 {
		t.Fatalf("after stop: got %d sends, want 1", len(sends))
	}
}
