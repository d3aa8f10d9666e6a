package notifier

import (
	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/internal/config"
	"github.com/guyueqh/sentinel/internal/telegram"
)

// Notifier 统一通知出口，邮件为主通道，Telegram为辅
type Notifier struct {
	logger *zap.Logger
	mailer *Mailer
	tg     *telegram.Telegram
	chatID string
}

func New(logger *zap.Logger, conf *config.Config, tg *telegram.Telegram) *Notifier {
	return &Notifier{
		logger: logger,
		mailer: NewMailer(logger, conf.Email),
		tg:     tg,
		chatID: conf.Telegram.ChatID,
	}
}

// SendReport 发送分析报告，任一通道失败只记录日志不中断
func (n *Notifier) SendReport(subject, plain, html string, attachments []Attachment) {
	if n.mailer.Enabled() {
		if err := n.mailer.Send(subject, plain, html, attachments); err != nil {
			n.logger.Error("报告邮件发送失败", zap.Error(err))
		}
	}
	if n.tg != nil && n.chatID != "" {
		if err := n.tg.Notify(n.chatID, plain); err != nil {
			n.logger.Error("Telegram报告发送失败", zap.Error(err))
		}
	}
}

// SendAlert 发送系统告警（阶段失败、数据源异常等）
func (n *Notifier) SendAlert(subject, body string) {
	if n.mailer.Enabled() {
		if err := n.mailer.Send(subject, body, "", nil); err != nil {
			n.logger.Error("告警邮件发送失败", zap.Error(err))
		}
	}
	if n.tg != nil && n.chatID != "" {
		if err := n.tg.NotifyPlain(n.chatID, subject+"\n"+body); err != nil {
			n.logger.Error("Telegram告警发送失败", zap.Error(err))
		}
	}
}
