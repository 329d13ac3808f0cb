// Package notify delivers payment reminders.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
	"github.com/incari/credit-tractor-app-sub000/internal/log"
	"github.com/incari/credit-tractor-app-sub000/internal/ports"
)

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// EmailSender sends reminders over SMTP.
type EmailSender struct {
	cfg    SMTPConfig
	logger *log.Logger
	send   sendFunc
}

var _ ports.Notifier = (*EmailSender)(nil)

func NewEmailSender(cfg SMTPConfig, logger *log.Logger) *EmailSender {
	if logger == nil {
		logger = log.Discard()
	}
	return &EmailSender{
		cfg:    cfg,
		logger: logger.WithComponent(log.ComponentNotify),
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendReminder mails r to its recipient.
func (s *EmailSender) SendReminder(ctx context.Context, r ports.Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Empty() {
		return nil
	}

	e := s.compose(r)
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := s.send(e, addr, auth); err != nil {
		return fmt.Errorf("send reminder to %s: %w", r.To, err)
	}

	s.logger.InfoContext(ctx, "Reminder sent",
		log.FieldUserID, r.UserID,
		"upcoming", len(r.Upcoming),
		"overdue", len(r.Overdue))
	return nil
}

func (s *EmailSender) compose(r ports.Reminder) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{r.To}
	e.Subject = Subject(r)
	e.Text = []byte(Body(r))
	return e
}

// Subject summarizes the reminder in one line.
func Subject(r ports.Reminder) string {
	if len(r.Overdue) > 0 {
		return fmt.Sprintf("%d overdue installment(s) need attention", len(r.Overdue))
	}
	return fmt.Sprintf("%d installment(s) due soon", len(r.Upcoming))
}

// Body renders the plain-text reminder. Amounts are shown in each
// installment's own currency.
func Body(r ports.Reminder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Payment reminder for %s\n", r.Today.String())

	section := func(title string, installments []core.Installment) {
		if len(installments) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, inst := range installments {
			fmt.Fprintf(&b, "  %s  %-24s #%d  %s",
				inst.DueDate.String(), inst.PaymentName, inst.Index+1,
				core.FormatAmount(inst.Amount, inst.Currency))
			if inst.CreditCard != "" {
				fmt.Fprintf(&b, "  (card •••• %s)", inst.CreditCard)
			}
			b.WriteString("\n")
		}
	}
	section("Overdue", r.Overdue)
	section("Due soon", r.Upcoming)

	return b.String()
}
