package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
	"github.com/incari/credit-tractor-app-sub000/internal/ports"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const paymentColumns = `id, user_id, name, price, installments, first_payment_date, credit_card,
	initial_payment, interest_rate, payment_type, custom_day_of_month, currency, paid_installments`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (core.Payment, error) {
	var (
		p        core.Payment
		first    string
		pType    string
		paidJSON string
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Price, &p.Installments, &first, &p.CreditCard,
		&p.InitialPayment, &p.InterestRate, &pType, &p.CustomDayOfMonth, &p.Currency, &paidJSON)
	if err != nil {
		return core.Payment{}, err
	}

	if p.FirstPaymentDate, err = core.ParseDate(first); err != nil {
		return core.Payment{}, fmt.Errorf("payment %s: %w", p.ID, err)
	}
	p.Type = core.PaymentType(pType)
	if err := json.Unmarshal([]byte(paidJSON), &p.PaidInstallments); err != nil {
		return core.Payment{}, fmt.Errorf("payment %s: decode paid installments: %w", p.ID, err)
	}
	return p, nil
}

func encodePaid(set core.IndexSet) (string, error) {
	b, err := json.Marshal(set)
	if err != nil {
		return "", fmt.Errorf("encode paid installments: %w", err)
	}
	return string(b), nil
}

func (r *SQLiteRepository) ListPayments(ctx context.Context, userID string) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = ? ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	out := []core.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetPayment(ctx context.Context, userID, id string) (core.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = ? AND id = ?`, userID, id)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, fmt.Errorf("payment %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment %s: %w", id, err)
	}
	return p, nil
}

func (r *SQLiteRepository) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	paid, err := encodePaid(p.PaidInstallments)
	if err != nil {
		return core.Payment{}, err
	}

	p.ID = uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.Price, p.Installments, p.FirstPaymentDate.String(), p.CreditCard,
		p.InitialPayment, p.InterestRate, string(p.Type), p.CustomDayOfMonth, p.Currency, paid)
	if err != nil {
		return core.Payment{}, fmt.Errorf("create payment: %w", err)
	}

	slog.DebugContext(ctx, "Payment saved to SQLite",
		"id", p.ID,
		"user_id", p.UserID,
		"installments", p.Installments)

	return p, nil
}

func (r *SQLiteRepository) UpdatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	paid, err := encodePaid(p.PaidInstallments)
	if err != nil {
		return core.Payment{}, err
	}

	res, err := r.db.ExecContext(ctx, `UPDATE payments SET
		name = ?, price = ?, installments = ?, first_payment_date = ?, credit_card = ?,
		initial_payment = ?, interest_rate = ?, payment_type = ?, custom_day_of_month = ?,
		currency = ?, paid_installments = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`,
		p.Name, p.Price, p.Installments, p.FirstPaymentDate.String(), p.CreditCard,
		p.InitialPayment, p.InterestRate, string(p.Type), p.CustomDayOfMonth,
		p.Currency, paid, p.ID, p.UserID)
	if err != nil {
		return core.Payment{}, fmt.Errorf("update payment %s: %w", p.ID, err)
	}
	if err := requireAffected(res, "payment", p.ID); err != nil {
		return core.Payment{}, err
	}
	return p, nil
}

func (r *SQLiteRepository) DeletePayment(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete payment %s: %w", id, err)
	}
	return requireAffected(res, "payment", id)
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: rows affected: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ports.ErrNotFound)
	}
	return nil
}

const cardColumns = `id, user_id, last_four, name, credit_limit, yearly_fee`

func scanCard(row rowScanner) (core.CreditCard, error) {
	var (
		c         core.CreditCard
		limit     sql.NullFloat64
		yearlyFee sql.NullFloat64
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.LastFour, &c.Name, &limit, &yearlyFee); err != nil {
		return core.CreditCard{}, err
	}
	if limit.Valid {
		c.Limit = &limit.Float64
	}
	if yearlyFee.Valid {
		c.YearlyFee = &yearlyFee.Float64
	}
	return c, nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (r *SQLiteRepository) ListCards(ctx context.Context, userID string) ([]core.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM credit_cards WHERE user_id = ? ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	out := []core.CreditCard{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetCard(ctx context.Context, userID, id string) (core.CreditCard, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM credit_cards WHERE user_id = ? AND id = ?`, userID, id)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CreditCard{}, fmt.Errorf("card %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("get card %s: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error) {
	if err := c.Validate(); err != nil {
		return core.CreditCard{}, err
	}
	c.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_cards (`+cardColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.LastFour, c.Name, nullable(c.Limit), nullable(c.YearlyFee))
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("create card: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) DeleteCard(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credit_cards WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete card %s: %w", id, err)
	}
	return requireAffected(res, "card", id)
}

func (r *SQLiteRepository) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	s := core.Settings{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		`SELECT language, currency, months_to_show, reminder_email FROM user_settings WHERE user_id = ?`, userID).
		Scan(&s.Language, &s.Currency, &s.MonthsToShow, &s.ReminderEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, fmt.Errorf("settings for %s: %w", userID, ports.ErrNotFound)
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings for %s: %w", userID, err)
	}
	return s, nil
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.Settings) (core.Settings, error) {
	if err := s.Validate(); err != nil {
		return core.Settings{}, err
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO user_settings (user_id, language, currency, months_to_show, reminder_email)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			language = excluded.language,
			currency = excluded.currency,
			months_to_show = excluded.months_to_show,
			reminder_email = excluded.reminder_email,
			updated_at = CURRENT_TIMESTAMP`,
		s.UserID, s.Language, s.Currency, s.MonthsToShow, s.ReminderEmail)
	if err != nil {
		return core.Settings{}, fmt.Errorf("save settings for %s: %w", s.UserID, err)
	}
	return s, nil
}

// ListUsers returns the distinct owners of stored payments.
func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM payments ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
