package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
	"github.com/incari/credit-tractor-app-sub000/internal/memory"
	"github.com/incari/credit-tractor-app-sub000/internal/ports"
)

type fakeNotifier struct {
	sent []ports.Reminder
	fail map[string]bool
}

func (n *fakeNotifier) SendReminder(_ context.Context, r ports.Reminder) error {
	if n.fail[r.UserID] {
		return errors.New("smtp unavailable")
	}
	n.sent = append(n.sent, r)
	return nil
}

func seedReminderStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	// Due on the 1st of each month from February 2024.
	plan := core.Payment{
		Name:             "sofa",
		Price:            300,
		Installments:     3,
		FirstPaymentDate: core.NewDate(2024, 1, 10),
		Type:             core.Beginning,
		Currency:         "EUR",
	}
	for _, user := range []string{"alice", "bob", "carol"} {
		p := plan
		p.UserID = user
		if _, err := store.CreatePayment(ctx, p); err != nil {
			t.Fatalf("CreatePayment() error = %v", err)
		}
	}

	for user, email := range map[string]string{"alice": "alice@example.com", "carol": "carol@example.com"} {
		s := core.DefaultSettings("EUR")
		s.UserID = user
		s.ReminderEmail = email
		if _, err := store.SaveSettings(ctx, s); err != nil {
			t.Fatalf("SaveSettings() error = %v", err)
		}
	}
	return store
}

func TestReminderProcessor_Process(t *testing.T) {
	store := seedReminderStore(t)
	notifier := &fakeNotifier{}
	proc := NewReminderProcessor(store, notifier, 3, nil)

	// 2024-02-27: March 1st is within 3 days, February 1st is overdue.
	sent, err := proc.Process(context.Background(), time.Date(2024, 2, 27, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if sent != 2 {
		t.Fatalf("Process() sent = %d, want 2 (bob has no address)", sent)
	}

	r := notifier.sent[0]
	if r.UserID != "alice" || r.To != "alice@example.com" || r.Currency != "EUR" {
		t.Errorf("reminder header = %+v", r)
	}
	if len(r.Upcoming) != 1 || !r.Upcoming[0].DueDate.Equal(core.NewDate(2024, 3, 1)) {
		t.Errorf("upcoming = %+v", r.Upcoming)
	}
	if len(r.Overdue) != 1 || !r.Overdue[0].DueDate.Equal(core.NewDate(2024, 2, 1)) {
		t.Errorf("overdue = %+v", r.Overdue)
	}
}

func TestReminderProcessor_NothingDue(t *testing.T) {
	store := seedReminderStore(t)
	notifier := &fakeNotifier{}
	proc := NewReminderProcessor(store, notifier, 3, nil)

	sent, err := proc.Process(context.Background(), time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC))
	if err != nil || sent != 0 {
		t.Fatalf("Process() = %d, %v; want nothing sent", sent, err)
	}
}

func TestReminderProcessor_PartialFailure(t *testing.T) {
	store := seedReminderStore(t)
	notifier := &fakeNotifier{fail: map[string]bool{"alice": true}}
	proc := NewReminderProcessor(store, notifier, 3, nil)

	sent, err := proc.Process(context.Background(), time.Date(2024, 2, 27, 8, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("Process() error = nil, want the alice failure reported")
	}
	if sent != 1 || notifier.sent[0].UserID != "carol" {
		t.Errorf("Process() sent = %d %+v; carol should still be reminded", sent, notifier.sent)
	}
}

func TestReminderProcessor_NotInitialized(t *testing.T) {
	proc := NewReminderProcessor(nil, nil, 3, nil)
	if _, err := proc.Process(context.Background(), time.Now()); err == nil {
		t.Error("Process() should fail without store and notifier")
	}
}
