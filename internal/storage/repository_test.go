package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
	"github.com/incari/credit-tractor-app-sub000/internal/ports"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "tracker.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func samplePayment() core.Payment {
	return core.Payment{
		UserID:           "u1",
		Name:             "washing machine",
		Price:            900,
		Installments:     4,
		FirstPaymentDate: core.NewDate(2024, 1, 31),
		CreditCard:       "4242",
		InitialPayment:   100,
		InterestRate:     10,
		Type:             core.Ending,
		Currency:         "EUR",
		PaidInstallments: core.NewIndexSet(0, 2),
	}
}

func TestSQLiteRepository_PaymentRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.CreatePayment(ctx, samplePayment())
	if err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}

	got, err := repo.GetPayment(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("GetPayment() error = %v", err)
	}
	if got.Name != "washing machine" || got.Type != core.Ending || got.InterestRate != 10 {
		t.Errorf("GetPayment() = %+v", got)
	}
	if !got.FirstPaymentDate.Equal(core.NewDate(2024, 1, 31)) {
		t.Errorf("first payment date = %v", got.FirstPaymentDate)
	}
	if !got.IsPaid(0) || got.IsPaid(1) || !got.IsPaid(2) {
		t.Errorf("paid installments = %v", got.PaidInstallments.Sorted())
	}

	// Schedules derived from the stored record match the original.
	want := core.GenerateSchedule(created)
	have := core.GenerateSchedule(got)
	if len(want) != len(have) {
		t.Fatalf("schedule length %d != %d", len(have), len(want))
	}
	for i := range want {
		if !want[i].DueDate.Equal(have[i].DueDate) || want[i].Amount != have[i].Amount || want[i].IsPaid != have[i].IsPaid {
			t.Errorf("installment %d differs: %+v vs %+v", i, have[i], want[i])
		}
	}
}

func TestSQLiteRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p, err := repo.CreatePayment(ctx, samplePayment())
	if err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}

	p.Name = "dryer"
	p.PaidInstallments = core.NewIndexSet()
	if _, err := repo.UpdatePayment(ctx, p); err != nil {
		t.Fatalf("UpdatePayment() error = %v", err)
	}
	got, _ := repo.GetPayment(ctx, "u1", p.ID)
	if got.Name != "dryer" || len(got.PaidInstallments.Sorted()) != 0 {
		t.Errorf("update not persisted: %+v", got)
	}

	other := p
	other.UserID = "u2"
	if _, err := repo.UpdatePayment(ctx, other); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("cross-user update error = %v, want ErrNotFound", err)
	}

	if err := repo.DeletePayment(ctx, "u1", p.ID); err != nil {
		t.Fatalf("DeletePayment() error = %v", err)
	}
	if err := repo.DeletePayment(ctx, "u1", p.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_ListAndUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, user := range []string{"u2", "u1", "u1"} {
		p := samplePayment()
		p.UserID = user
		if _, err := repo.CreatePayment(ctx, p); err != nil {
			t.Fatalf("CreatePayment() error = %v", err)
		}
	}

	list, err := repo.ListPayments(ctx, "u1")
	if err != nil || len(list) != 2 {
		t.Fatalf("ListPayments(u1) = %d items, %v", len(list), err)
	}
	empty, err := repo.ListPayments(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("ListPayments(nobody) = %v, %v; want empty non-nil slice", empty, err)
	}

	users, err := repo.ListUsers(ctx)
	if err != nil || len(users) != 2 || users[0] != "u1" {
		t.Errorf("ListUsers() = %v, %v", users, err)
	}
}

func TestSQLiteRepository_Cards(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	limit := 2500.0
	withLimit, err := repo.CreateCard(ctx, core.CreditCard{UserID: "u1", Name: "Visa", LastFour: "4242", Limit: &limit})
	if err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}
	noLimit, err := repo.CreateCard(ctx, core.CreditCard{UserID: "u1", Name: "Amex", LastFour: "0005"})
	if err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}

	got, err := repo.GetCard(ctx, "u1", withLimit.ID)
	if err != nil || got.Limit == nil || *got.Limit != 2500 {
		t.Errorf("GetCard() = %+v, %v", got, err)
	}
	got, _ = repo.GetCard(ctx, "u1", noLimit.ID)
	if got.Limit != nil || got.YearlyFee != nil {
		t.Errorf("absent limit must stay nil, got %+v", got)
	}

	if _, err := repo.CreateCard(ctx, core.CreditCard{UserID: "u1", Name: "Bad", LastFour: "12"}); !errors.Is(err, core.ErrInvalidLastFour) {
		t.Errorf("CreateCard() error = %v, want ErrInvalidLastFour", err)
	}

	cards, _ := repo.ListCards(ctx, "u1")
	if len(cards) != 2 {
		t.Errorf("ListCards() = %d cards, want 2", len(cards))
	}
	if err := repo.DeleteCard(ctx, "u1", withLimit.ID); err != nil {
		t.Fatalf("DeleteCard() error = %v", err)
	}
	if _, err := repo.GetCard(ctx, "u1", withLimit.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("GetCard() after delete error = %v", err)
	}
}

func TestSQLiteRepository_Settings(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.GetSettings(ctx, "u1"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("GetSettings() error = %v, want ErrNotFound", err)
	}

	s := core.DefaultSettings("EUR")
	s.UserID = "u1"
	if _, err := repo.SaveSettings(ctx, s); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	s.MonthsToShow = 12
	s.ReminderEmail = "me@example.com"
	if _, err := repo.SaveSettings(ctx, s); err != nil {
		t.Fatalf("SaveSettings() upsert error = %v", err)
	}

	got, err := repo.GetSettings(ctx, "u1")
	if err != nil || got.MonthsToShow != 12 || got.ReminderEmail != "me@example.com" {
		t.Errorf("GetSettings() = %+v, %v", got, err)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first RunMigrations() error = %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}
}
