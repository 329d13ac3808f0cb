package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	Monthly   PaymentType = "monthly"
	Beginning PaymentType = "beginning"
	Ending    PaymentType = "ending"
	Custom    PaymentType = "custom"
)

const dateLayout = "2006-01-02"

type (
	// PaymentType selects the due-date placement policy of a schedule.
	PaymentType string

	// Date is a calendar date without a time component, always in UTC.
	Date struct {
		time.Time
	}

	// IndexSet is a set of installment indices. It serializes as a sorted array.
	IndexSet map[int]bool

	// Payment is an installment agreement as supplied by the persistence layer.
	Payment struct {
		ID               string      `json:"id"`
		UserID           string      `json:"user_id,omitempty"`
		Name             string      `json:"name"`
		Price            float64     `json:"price"`
		Installments     int         `json:"installments"`
		FirstPaymentDate Date        `json:"first_payment_date"`
		CreditCard       string      `json:"credit_card"`
		InitialPayment   float64     `json:"initial_payment"`
		InterestRate     float64     `json:"interest_rate"`
		Type             PaymentType `json:"payment_type"`
		CustomDayOfMonth int         `json:"custom_day_of_month,omitempty"`
		Currency         string      `json:"currency"`
		PaidInstallments IndexSet    `json:"paid_installments"`
	}

	// Installment is one derived occurrence of a Payment schedule. It is never stored.
	Installment struct {
		PaymentID   string  `json:"payment_id"`
		PaymentName string  `json:"payment_name"`
		Amount      float64 `json:"amount"`
		DueDate     Date    `json:"due_date"`
		IsPaid      bool    `json:"is_paid"`
		CreditCard  string  `json:"credit_card"`
		Currency    string  `json:"currency"`
		Index       int     `json:"installment_index"`
	}

	// CreditCard is referenced by payments through LastFour.
	CreditCard struct {
		ID        string   `json:"id"`
		UserID    string   `json:"user_id,omitempty"`
		LastFour  string   `json:"last_four"`
		Name      string   `json:"name"`
		Limit     *float64 `json:"limit,omitempty"`
		YearlyFee *float64 `json:"yearly_fee,omitempty"`
	}

	// Settings holds per-user display preferences.
	Settings struct {
		UserID        string `json:"user_id,omitempty"`
		Language      string `json:"language"`
		Currency      string `json:"currency"`
		MonthsToShow  int    `json:"months_to_show"`
		ReminderEmail string `json:"reminder_email,omitempty"`
	}
)

var (
	ErrEmptyName              = errors.New("empty name")
	ErrNegativePrice          = errors.New("price must not be negative")
	ErrInvalidInstallments    = errors.New("installments must be at least 1")
	ErrNegativeInitialPayment = errors.New("initial payment must not be negative")
	ErrNegativeInterestRate   = errors.New("interest rate must not be negative")
	ErrInvalidDate            = errors.New("invalid date")
	ErrInvalidPaymentType     = errors.New("invalid payment type")
	ErrInvalidCustomDay       = errors.New("custom day of month must be between 1 and 31")
	ErrEmptyCurrency          = errors.New("empty currency")
	ErrInvalidLastFour        = errors.New("last four must be exactly 4 digits")
	ErrNegativeLimit          = errors.New("limit must not be negative")
	ErrNegativeYearlyFee      = errors.New("yearly fee must not be negative")
	ErrInvalidMonthsToShow    = errors.New("months to show must be between 1 and 36")
	ErrInvalidInstallmentIdx  = errors.New("installment index out of range")
	ErrInvalidReminderEmail   = errors.New("reminder email is not a valid address")
)

// ValidationError reports which field of a record broke its contract.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Before reports whether d falls on an earlier calendar day than o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// Equal reports whether d and o are the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NewIndexSet builds a set from the given indices.
func NewIndexSet(indices ...int) IndexSet {
	s := make(IndexSet, len(indices))
	for _, i := range indices {
		s[i] = true
	}
	return s
}

// Sorted returns the members in ascending order.
func (s IndexSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for i, ok := range s {
		if ok {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

func (s IndexSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *IndexSet) UnmarshalJSON(b []byte) error {
	var indices []int
	if err := json.Unmarshal(b, &indices); err != nil {
		return err
	}
	*s = NewIndexSet(indices...)
	return nil
}

// ParsePaymentType maps a stored or user supplied value onto the closed set of
// schedule types. An empty value means monthly.
func ParsePaymentType(s string) (PaymentType, error) {
	switch t := PaymentType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return Monthly, nil
	case Monthly, Beginning, Ending, Custom:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentType, s)
	}
}

// IsValid reports whether t is one of the known schedule types.
func (t PaymentType) IsValid() bool {
	switch t {
	case Monthly, Beginning, Ending, Custom:
		return true
	default:
		return false
	}
}

// TotalWithInterest is the price with simple interest applied once.
func (p Payment) TotalWithInterest() float64 {
	return p.Price * (1 + p.InterestRate/100)
}

// IsPaid reports whether installment index i has been marked paid.
func (p Payment) IsPaid(i int) bool {
	return p.PaidInstallments[i]
}

// WithPaidToggled returns a copy of p with installment i flipped between paid
// and unpaid. p itself is left untouched.
func (p Payment) WithPaidToggled(i int) (Payment, error) {
	if i < 0 || i >= p.Installments {
		return p, invalid("installment_index", ErrInvalidInstallmentIdx)
	}
	paid := make(IndexSet, len(p.PaidInstallments)+1)
	for k, v := range p.PaidInstallments {
		if v {
			paid[k] = true
		}
	}
	if paid[i] {
		delete(paid, i)
	} else {
		paid[i] = true
	}
	p.PaidInstallments = paid
	return p, nil
}

// Validate checks the caller contract of a Payment before it reaches the
// schedule generator.
func (p Payment) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if p.Price < 0 {
		return invalid("price", ErrNegativePrice)
	}
	if p.Installments < 1 {
		return invalid("installments", ErrInvalidInstallments)
	}
	if p.InitialPayment < 0 {
		return invalid("initial_payment", ErrNegativeInitialPayment)
	}
	if p.InterestRate < 0 {
		return invalid("interest_rate", ErrNegativeInterestRate)
	}
	if p.FirstPaymentDate.IsZero() {
		return invalid("first_payment_date", ErrInvalidDate)
	}
	if !p.Type.IsValid() {
		return invalid("payment_type", ErrInvalidPaymentType)
	}
	if p.Type == Custom && (p.CustomDayOfMonth < 1 || p.CustomDayOfMonth > 31) {
		return invalid("custom_day_of_month", ErrInvalidCustomDay)
	}
	if strings.TrimSpace(p.Currency) == "" {
		return invalid("currency", ErrEmptyCurrency)
	}
	return nil
}

var lastFourPattern = regexp.MustCompile(`^[0-9]{4}$`)

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if !lastFourPattern.MatchString(c.LastFour) {
		return invalid("last_four", ErrInvalidLastFour)
	}
	if c.Limit != nil && *c.Limit < 0 {
		return invalid("limit", ErrNegativeLimit)
	}
	if c.YearlyFee != nil && *c.YearlyFee < 0 {
		return invalid("yearly_fee", ErrNegativeYearlyFee)
	}
	return nil
}

// DefaultSettings returns the preferences used before a user saves their own.
func DefaultSettings(currency string) Settings {
	return Settings{
		Language:     "en",
		Currency:     currency,
		MonthsToShow: 6,
	}
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.Currency) == "" {
		return invalid("currency", ErrEmptyCurrency)
	}
	if s.MonthsToShow < 1 || s.MonthsToShow > 36 {
		return invalid("months_to_show", ErrInvalidMonthsToShow)
	}
	if s.ReminderEmail != "" {
		if _, err := mail.ParseAddress(s.ReminderEmail); err != nil {
			return invalid("reminder_email", ErrInvalidReminderEmail)
		}
	}
	return nil
}
