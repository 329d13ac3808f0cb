package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/jordan-wright/email"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
	"github.com/incari/credit-tractor-app-sub000/internal/ports"
)

func sampleReminder() ports.Reminder {
	return ports.Reminder{
		UserID:   "u1",
		To:       "user@example.com",
		Currency: "EUR",
		Today:    core.NewDate(2024, 2, 27),
		Overdue: []core.Installment{
			{PaymentName: "sofa", Amount: 100, DueDate: core.NewDate(2024, 2, 1), Currency: "EUR", Index: 0, CreditCard: "4242"},
		},
		Upcoming: []core.Installment{
			{PaymentName: "sofa", Amount: 100, DueDate: core.NewDate(2024, 3, 1), Currency: "EUR", Index: 1},
		},
	}
}

func TestEmailSender_SendReminder(t *testing.T) {
	var (
		gotAddr  string
		gotEmail *email.Email
	)
	sender := NewEmailSender(SMTPConfig{Host: "smtp.example.com", Port: "587", Username: "bot", Password: "secret", From: "bot@example.com"}, nil)
	sender.send = func(e *email.Email, addr string, auth smtp.Auth) error {
		gotAddr, gotEmail = addr, e
		if auth == nil {
			t.Error("expected PLAIN auth when a username is configured")
		}
		return nil
	}

	if err := sender.SendReminder(context.Background(), sampleReminder()); err != nil {
		t.Fatalf("SendReminder() error = %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotEmail.From != "bot@example.com" || len(gotEmail.To) != 1 || gotEmail.To[0] != "user@example.com" {
		t.Errorf("envelope = %q -> %v", gotEmail.From, gotEmail.To)
	}
	if gotEmail.Subject != "1 overdue installment(s) need attention" {
		t.Errorf("subject = %q", gotEmail.Subject)
	}

	body := string(gotEmail.Text)
	for _, want := range []string{"2024-02-01", "2024-03-01", "€100.00", "#1", "#2", "•••• 4242", "Overdue:", "Due soon:"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestEmailSender_SkipsEmptyAndWrapsErrors(t *testing.T) {
	calls := 0
	sender := NewEmailSender(SMTPConfig{Host: "localhost", Port: "25", From: "bot@example.com"}, nil)
	sender.send = func(*email.Email, string, smtp.Auth) error {
		calls++
		return errors.New("connection refused")
	}

	if err := sender.SendReminder(context.Background(), ports.Reminder{To: "x@example.com"}); err != nil || calls != 0 {
		t.Fatalf("empty reminder: err=%v calls=%d", err, calls)
	}

	err := sender.SendReminder(context.Background(), sampleReminder())
	if err == nil || !strings.Contains(err.Error(), "user@example.com") {
		t.Errorf("SendReminder() error = %v, want wrapped send failure", err)
	}
}

func TestSubject_UpcomingOnly(t *testing.T) {
	r := sampleReminder()
	r.Overdue = nil
	if got := Subject(r); got != "1 installment(s) due soon" {
		t.Errorf("Subject() = %q", got)
	}
}

func TestLogNotifier(t *testing.T) {
	if err := NewLogNotifier(nil).SendReminder(context.Background(), sampleReminder()); err != nil {
		t.Errorf("SendReminder() error = %v", err)
	}
}
