// internal/infra/telegram/ops_handlers.go
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/qorlgns1/binbang-sub004/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterOpsHandlers registers the operator bot commands. Only chats of
// registered admins get an answer beyond the refusal message.
func RegisterOpsHandlers(ctx context.Context, b *telebot.Bot, opsService *app.OpsService, baseLogger *logrus.Entry) {
	b.Handle("/status", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/status",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		authorized, err := opsService.AuthorizeChat(ctx, c.Sender().ID)
		if err != nil {
			handlerLogger.WithError(err).Error("Authorization check failed")
			return c.Send("상태를 불러오지 못했습니다. 잠시 후 다시 시도해 주세요.")
		}
		if !authorized {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("이 명령을 사용할 권한이 없습니다.")
		}

		summary, err := opsService.Status(ctx)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to collect status")
			return c.Send("상태를 불러오지 못했습니다. 잠시 후 다시 시도해 주세요.")
		}

		return c.Send(formatStatus(summary))
	})
}

func formatStatus(s *app.StatusSummary) string {
	var b strings.Builder
	b.WriteString("📋 빈방 체커 상태\n")

	if s.Cycle == nil {
		b.WriteString("\n아직 실행된 체크 사이클이 없습니다.\n")
	} else {
		c := s.Cycle
		fmt.Fprintf(&b, "\n최근 사이클 #%d\n", c.ID)
		fmt.Fprintf(&b, "시작: %s\n", c.StartedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "진행: %d/%d (성공 %d · 실패 %d)\n", c.CompletedCount, c.TotalCount, c.SuccessCount, c.ErrorCount)
		if c.Finished() {
			fmt.Fprintf(&b, "완료: %s (%dms)\n", c.FinishedAt.Time.Format("2006-01-02 15:04:05"), c.DurationMs.Int64)
		} else {
			b.WriteString("완료: 진행 중\n")
		}
	}

	if s.Heartbeat == nil {
		b.WriteString("\n워커 하트비트가 아직 없습니다.")
	} else {
		hb := s.Heartbeat
		fmt.Fprintf(&b, "\n마지막 하트비트: %s", hb.LastHeartbeatAt.Format("2006-01-02 15:04:05"))
		if hb.IsProcessing {
			fmt.Fprintf(&b, "\n상태: 작업 중 (%s부터)", hb.UpdatedAt.Format(time.Kitchen))
		} else {
			b.WriteString("\n상태: 대기 중")
		}
	}

	return b.String()
}
