package http

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
)

// amount accepts either a JSON number or a user-typed decimal string such
// as "12,50".
type amount float64

func (a *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := core.ParseAmount(s)
		if err != nil {
			return fmt.Errorf("%w: %q", err, s)
		}
		*a = amount(v)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*a = amount(f)
	return nil
}

func (a *amount) ptr() *float64 {
	if a == nil {
		return nil
	}
	v := float64(*a)
	return &v
}

type paymentRequest struct {
	Name             string        `json:"name"`
	Price            amount        `json:"price"`
	Installments     int           `json:"installments"`
	FirstPaymentDate core.Date     `json:"first_payment_date"`
	CreditCard       string        `json:"credit_card"`
	InitialPayment   amount        `json:"initial_payment"`
	InterestRate     float64       `json:"interest_rate"`
	PaymentType      string        `json:"payment_type"`
	CustomDayOfMonth int           `json:"custom_day_of_month"`
	Currency         string        `json:"currency"`
	PaidInstallments core.IndexSet `json:"paid_installments"`
}

func (p paymentRequest) toPayment() core.Payment {
	return core.Payment{
		Name:             sanitizeInput(p.Name),
		Price:            float64(p.Price),
		Installments:     p.Installments,
		FirstPaymentDate: p.FirstPaymentDate,
		CreditCard:       sanitizeInput(p.CreditCard),
		InitialPayment:   float64(p.InitialPayment),
		InterestRate:     p.InterestRate,
		Type:             core.PaymentType(p.PaymentType),
		CustomDayOfMonth: p.CustomDayOfMonth,
		Currency:         p.Currency,
		PaidInstallments: p.PaidInstallments,
	}
}

type cardRequest struct {
	LastFour  string  `json:"last_four"`
	Name      string  `json:"name"`
	Limit     *amount `json:"limit"`
	YearlyFee *amount `json:"yearly_fee"`
}

func (c cardRequest) toCard() core.CreditCard {
	return core.CreditCard{
		LastFour:  sanitizeInput(c.LastFour),
		Name:      sanitizeInput(c.Name),
		Limit:     c.Limit.ptr(),
		YearlyFee: c.YearlyFee.ptr(),
	}
}

type settingsRequest struct {
	Language      string `json:"language"`
	Currency      string `json:"currency"`
	MonthsToShow  int    `json:"months_to_show"`
	ReminderEmail string `json:"reminder_email"`
}

func (s settingsRequest) toSettings() core.Settings {
	return core.Settings{
		Language:      sanitizeInput(s.Language),
		Currency:      s.Currency,
		MonthsToShow:  s.MonthsToShow,
		ReminderEmail: sanitizeInput(s.ReminderEmail),
	}
}
