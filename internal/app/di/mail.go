package di

import (
	"log/slog"

	"microblog/internal/feature/account/usecase"
	"microblog/internal/platform/config"
	"microblog/internal/platform/mail"
)

// NewMailer returns an SMTP mailer when MAIL_SERVER is set and a logging mailer otherwise.
func NewMailer(cfg *config.Config) usecase.Mailer {
	if !cfg.MailEnabled() {
		slog.Warn("MAIL_SERVER is not set; emails will be logged instead of sent")
		return mail.LogMailer{}
	}
	return mail.NewSMTPMailer(cfg.MailServer, cfg.MailPort, cfg.MailUsername, cfg.MailPassword, cfg.MailSender)
}
