package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/incari/credit-tractor-app-sub000/internal/cache"
	"github.com/incari/credit-tractor-app-sub000/internal/core"
	"github.com/incari/credit-tractor-app-sub000/internal/log"
	"github.com/incari/credit-tractor-app-sub000/internal/ports"
)

// Clock returns the current instant. Services never call time.Now directly.
type Clock func() time.Time

// Dashboard is the per-user overview computed from all payments and cards.
type Dashboard struct {
	Today       core.Date          `json:"today"`
	Currency    string             `json:"currency"`
	Summary     core.Summary       `json:"summary"`
	Overdue     []core.Installment `json:"overdue"`
	Upcoming    []core.Installment `json:"upcoming"`
	PaidCount   int                `json:"paid_count"`
	Months      []core.MonthTotal  `json:"months"`
	Utilization []core.Utilization `json:"utilization"`
}

// PlanService orchestrates payment plans across storage, the dashboard cache
// and the event bus.
type PlanService struct {
	payments  ports.PaymentStore
	cards     ports.CardStore
	settings  ports.SettingsStore
	publisher ports.EventPublisher
	dashboard cache.Cache[Dashboard]
	now       Clock
	currency  string
	logger    *log.Logger
}

type Option func(*PlanService)

// WithPublisher announces every payment mutation. Publishing is best effort.
func WithPublisher(p ports.EventPublisher) Option {
	return func(s *PlanService) { s.publisher = p }
}

// WithDashboardCache memoizes Dashboard per user and day.
func WithDashboardCache(c cache.Cache[Dashboard]) Option {
	return func(s *PlanService) { s.dashboard = c }
}

func WithClock(now Clock) Option {
	return func(s *PlanService) { s.now = now }
}

// WithDefaultCurrency sets the currency used before a user saves settings.
func WithDefaultCurrency(code string) Option {
	return func(s *PlanService) { s.currency = code }
}

func WithLogger(l *log.Logger) Option {
	return func(s *PlanService) { s.logger = l }
}

func NewPlanService(payments ports.PaymentStore, cards ports.CardStore, settings ports.SettingsStore, opts ...Option) *PlanService {
	s := &PlanService{
		payments: payments,
		cards:    cards,
		settings: settings,
		now:      time.Now,
		currency: "USD",
		logger:   log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentPayment)
	return s
}

func (s *PlanService) today() core.Date {
	return core.DateOf(s.now())
}

// ListPayments returns the caller's payments in creation order.
func (s *PlanService) ListPayments(ctx context.Context, userID string) ([]core.Payment, error) {
	payments, err := s.payments.ListPayments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (s *PlanService) GetPayment(ctx context.Context, userID, id string) (core.Payment, error) {
	return s.payments.GetPayment(ctx, userID, id)
}

// normalize fills defaults a client may omit and validates the result.
func (s *PlanService) normalize(ctx context.Context, userID string, p core.Payment) (core.Payment, error) {
	p.UserID = userID
	p.Name = strings.TrimSpace(p.Name)

	t, err := core.ParsePaymentType(string(p.Type))
	if err != nil {
		return p, &core.ValidationError{Field: "payment_type", Err: core.ErrInvalidPaymentType}
	}
	p.Type = t
	if p.Type != core.Custom {
		p.CustomDayOfMonth = 0
	}

	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	if p.Currency == "" {
		settings, err := s.GetSettings(ctx, userID)
		if err != nil {
			return p, err
		}
		p.Currency = settings.Currency
	}

	// Indices beyond a shortened plan no longer exist.
	if p.PaidInstallments != nil {
		paid := core.NewIndexSet()
		for _, i := range p.PaidInstallments.Sorted() {
			if i >= 0 && i < p.Installments {
				paid[i] = true
			}
		}
		p.PaidInstallments = paid
	} else {
		p.PaidInstallments = core.NewIndexSet()
	}

	return p, p.Validate()
}

// CreatePayment validates and stores a new payment owned by userID.
func (s *PlanService) CreatePayment(ctx context.Context, userID string, p core.Payment) (core.Payment, error) {
	p, err := s.normalize(ctx, userID, p)
	if err != nil {
		return core.Payment{}, err
	}

	created, err := s.payments.CreatePayment(ctx, p)
	if err != nil {
		return core.Payment{}, fmt.Errorf("save payment: %w", err)
	}

	s.logger.DebugContext(ctx, "Payment created", log.NewFields().
		WithUser(userID).
		WithPayment(created.ID, created.Name, created.Price, created.Installments, created.Currency).
		ToSlice()...)
	s.afterChange(ctx, userID, created.ID, ports.ActionCreated)
	return created, nil
}

// UpdatePayment replaces the definition of an existing payment. Paid marks
// are kept from the stored record when the update omits them.
func (s *PlanService) UpdatePayment(ctx context.Context, userID, id string, p core.Payment) (core.Payment, error) {
	existing, err := s.payments.GetPayment(ctx, userID, id)
	if err != nil {
		return core.Payment{}, err
	}

	p.ID = existing.ID
	if p.PaidInstallments == nil {
		p.PaidInstallments = existing.PaidInstallments
	}
	p, err = s.normalize(ctx, userID, p)
	if err != nil {
		return core.Payment{}, err
	}

	updated, err := s.payments.UpdatePayment(ctx, p)
	if err != nil {
		return core.Payment{}, fmt.Errorf("update payment: %w", err)
	}

	s.afterChange(ctx, userID, id, ports.ActionUpdated)
	return updated, nil
}

func (s *PlanService) DeletePayment(ctx context.Context, userID, id string) error {
	if err := s.payments.DeletePayment(ctx, userID, id); err != nil {
		return err
	}
	s.afterChange(ctx, userID, id, ports.ActionDeleted)
	return nil
}

// TogglePaid flips installment index between paid and unpaid.
func (s *PlanService) TogglePaid(ctx context.Context, userID, id string, index int) (core.Payment, error) {
	p, err := s.payments.GetPayment(ctx, userID, id)
	if err != nil {
		return core.Payment{}, err
	}

	toggled, err := p.WithPaidToggled(index)
	if err != nil {
		return core.Payment{}, err
	}

	saved, err := s.payments.UpdatePayment(ctx, toggled)
	if err != nil {
		return core.Payment{}, fmt.Errorf("save paid installments: %w", err)
	}

	s.afterChange(ctx, userID, id, ports.ActionPaidToggled)
	return saved, nil
}

// Schedule derives the installment list of one payment.
func (s *PlanService) Schedule(ctx context.Context, userID, id string) ([]core.Installment, error) {
	p, err := s.payments.GetPayment(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return core.GenerateSchedule(p), nil
}

// Summary aggregates every payment of the caller.
func (s *PlanService) Summary(ctx context.Context, userID string) (core.Summary, error) {
	payments, err := s.ListPayments(ctx, userID)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(payments), nil
}

func (s *PlanService) ListCards(ctx context.Context, userID string) ([]core.CreditCard, error) {
	cards, err := s.cards.ListCards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

func (s *PlanService) CreateCard(ctx context.Context, userID string, c core.CreditCard) (core.CreditCard, error) {
	c.UserID = userID
	c.Name = strings.TrimSpace(c.Name)
	c.LastFour = strings.TrimSpace(c.LastFour)
	if err := c.Validate(); err != nil {
		return core.CreditCard{}, err
	}

	created, err := s.cards.CreateCard(ctx, c)
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("save card: %w", err)
	}
	s.invalidate(userID)
	return created, nil
}

func (s *PlanService) DeleteCard(ctx context.Context, userID, id string) error {
	if err := s.cards.DeleteCard(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

// Utilization reports how much of one card's limit is taken by unpaid installments.
func (s *PlanService) Utilization(ctx context.Context, userID, cardID string) (core.Utilization, error) {
	card, err := s.cards.GetCard(ctx, userID, cardID)
	if err != nil {
		return core.Utilization{}, err
	}
	payments, err := s.ListPayments(ctx, userID)
	if err != nil {
		return core.Utilization{}, err
	}
	settings, err := s.GetSettings(ctx, userID)
	if err != nil {
		return core.Utilization{}, err
	}
	return core.CardUtilization(payments, card, settings.Currency), nil
}

// GetSettings returns the stored preferences or defaults when none were saved.
func (s *PlanService) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	settings, err := s.settings.GetSettings(ctx, userID)
	if errors.Is(err, ports.ErrNotFound) {
		settings = core.DefaultSettings(s.currency)
		settings.UserID = userID
		return settings, nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

func (s *PlanService) SaveSettings(ctx context.Context, userID string, settings core.Settings) (core.Settings, error) {
	settings.UserID = userID
	settings.Currency = strings.ToUpper(strings.TrimSpace(settings.Currency))
	if settings.Language == "" {
		settings.Language = "en"
	}
	if err := settings.Validate(); err != nil {
		return core.Settings{}, err
	}

	saved, err := s.settings.SaveSettings(ctx, settings)
	if err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.invalidate(userID)
	return saved, nil
}

// Dashboard builds the caller's overview for today.
func (s *PlanService) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	today := s.today()
	key := cacheKey(userID, today)
	if s.dashboard != nil {
		if d, ok := s.dashboard.Get(key); ok {
			return d, nil
		}
	}

	payments, err := s.ListPayments(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	cards, err := s.ListCards(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	settings, err := s.GetSettings(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}

	installments := core.ScheduleFor(payments)
	buckets := core.Bucket(installments, today)

	d := Dashboard{
		Today:       today,
		Currency:    settings.Currency,
		Summary:     core.Summarize(payments),
		Overdue:     nonNil(buckets.Overdue),
		Upcoming:    nonNil(buckets.Upcoming),
		PaidCount:   len(buckets.Paid),
		Months:      core.MonthlyTotals(installments, today, settings.MonthsToShow),
		Utilization: make([]core.Utilization, 0, len(cards)),
	}
	for _, card := range cards {
		d.Utilization = append(d.Utilization, core.CardUtilization(payments, card, settings.Currency))
	}

	if s.dashboard != nil {
		s.dashboard.Set(key, d)
	}
	return d, nil
}

func nonNil(in []core.Installment) []core.Installment {
	if in == nil {
		return []core.Installment{}
	}
	return in
}

func cacheKey(userID string, day core.Date) string {
	return userID + "|" + day.String()
}

func (s *PlanService) invalidate(userID string) {
	if s.dashboard != nil {
		s.dashboard.DeletePrefix(userID + "|")
	}
}

// afterChange drops cached views and announces the mutation. Failures to
// publish are logged and never surface to the caller.
func (s *PlanService) afterChange(ctx context.Context, userID, paymentID string, action ports.EventAction) {
	s.invalidate(userID)

	log.NewStructuredLogger(s.logger).LogPaymentChanged(ctx, string(action), userID, paymentID)

	if s.publisher == nil {
		return
	}
	event := ports.PaymentEvent{
		UserID:    userID,
		PaymentID: paymentID,
		Action:    action,
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.PublishPaymentEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish payment event",
			log.FieldError, err,
			log.FieldUserID, userID,
			log.FieldPaymentID, paymentID,
			log.FieldEventAction, string(action))
	}
}
