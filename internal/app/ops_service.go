// internal/app/ops_service.go
package app

import (
	"context"
	"fmt"

	"github.com/qorlgns1/binbang-sub004/internal/domain/account"
	"github.com/qorlgns1/binbang-sub004/internal/domain/check"
	"github.com/qorlgns1/binbang-sub004/internal/domain/heartbeat"
	idb "github.com/qorlgns1/binbang-sub004/internal/infra/database"
)

// StatusSummary is the operator view of the checker: the most recent cycle
// (nil when none has run yet) and the current heartbeat (nil when the
// worker has never pulsed).
type StatusSummary struct {
	Cycle     *check.Cycle
	Heartbeat *heartbeat.Heartbeat
}

// OpsService backs the operator bot commands.
type OpsService struct {
	checkRepo   check.Repository
	hbRepo      heartbeat.Repository
	accountRepo account.Repository
}

func NewOpsService(cr check.Repository, hr heartbeat.Repository, ar account.Repository) *OpsService {
	return &OpsService{checkRepo: cr, hbRepo: hr, accountRepo: ar}
}

// AuthorizeChat reports whether the chat belongs to a registered admin.
func (s *OpsService) AuthorizeChat(ctx context.Context, chatID int64) (bool, error) {
	admins, err := s.accountRepo.ListAlertRecipients(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list admins: %w", err)
	}
	for _, admin := range admins {
		if admin.TelegramChatID.Valid && admin.TelegramChatID.Int64 == chatID {
			return true, nil
		}
	}
	return false, nil
}

// Status collects the latest cycle and heartbeat. Either piece may be nil
// on a fresh deployment; that is not an error.
func (s *OpsService) Status(ctx context.Context) (*StatusSummary, error) {
	summary := &StatusSummary{}

	cycle, err := s.checkRepo.GetLatestCycle(ctx)
	switch {
	case err == nil:
		summary.Cycle = cycle
	case isNotFound(err):
		// no cycle yet
	default:
		return nil, fmt.Errorf("failed to load latest cycle: %w", err)
	}

	hb, err := s.hbRepo.Get(ctx)
	switch {
	case err == nil:
		summary.Heartbeat = hb
	case isNotFound(err):
		// worker has never pulsed
	default:
		return nil, fmt.Errorf("failed to load heartbeat: %w", err)
	}

	return summary, nil
}

func isNotFound(err error) bool {
	return err == idb.ErrCycleNotFound || err == idb.ErrHeartbeatNotFound
}
