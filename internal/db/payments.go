package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const paymentColumns = `id, user_id, amount, currency, status, phone_number, merchant_request_id, receipt_number,
	checkout_request_id, transaction_type, account_reference, transaction_desc, failure_reason, temp_email,
	temp_username, temp_user_type, temp_password_hash, transaction_date, payment_date, expires_at, updated_at`

func scanPayment(sc rowScanner) (*Payment, error) {
	p := &Payment{}
	err := sc.Scan(&p.ID, &p.UserID, &p.Amount, &p.Currency, &p.Status, &p.PhoneNumber, &p.MerchantRequestID, &p.ReceiptNumber,
		&p.CheckoutRequestID, &p.TransactionType, &p.AccountReference, &p.TransactionDesc, &p.FailureReason, &p.TempEmail,
		&p.TempUsername, &p.TempUserType, &p.TempPasswordHash, &p.TransactionDate, &p.PaymentDate, &p.ExpiresAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanPayments(rows *sql.Rows) ([]*Payment, error) {
	defer rows.Close()
	var out []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreatePayment(ctx context.Context, p *Payment) error {
	now := utcNow()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Currency == "" {
		p.Currency = "KES"
	}
	if p.Status == "" {
		p.Status = PaymentPending
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = now
	}
	p.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Amount, p.Currency, string(p.Status), p.PhoneNumber, p.MerchantRequestID, p.ReceiptNumber,
		p.CheckoutRequestID, string(p.TransactionType), p.AccountReference, p.TransactionDesc, p.FailureReason, p.TempEmail,
		p.TempUsername, string(p.TempUserType), p.TempPasswordHash, p.TransactionDate, p.PaymentDate, p.ExpiresAt, p.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) getPayment(ctx context.Context, cond string, arg any) (*Payment, error) {
	p, err := scanPayment(s.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE `+cond, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStore) GetPayment(ctx context.Context, id string) (*Payment, error) {
	return s.getPayment(ctx, "id = ?", id)
}

func (s *SQLiteStore) GetPaymentByCheckoutID(ctx context.Context, checkoutID string) (*Payment, error) {
	return s.getPayment(ctx, "checkout_request_id = ?", checkoutID)
}

func (s *SQLiteStore) UpdatePayment(ctx context.Context, p *Payment) error {
	p.UpdatedAt = utcNow()
	_, err := s.db.ExecContext(ctx,
		`UPDATE payments SET user_id = ?, amount = ?, currency = ?, status = ?, phone_number = ?, merchant_request_id = ?,
			receipt_number = ?, checkout_request_id = ?, transaction_type = ?, account_reference = ?, transaction_desc = ?,
			failure_reason = ?, temp_email = ?, temp_username = ?, temp_user_type = ?, temp_password_hash = ?,
			transaction_date = ?, expires_at = ?, updated_at = ?
		 WHERE id = ?`,
		p.UserID, p.Amount, p.Currency, string(p.Status), p.PhoneNumber, p.MerchantRequestID,
		p.ReceiptNumber, p.CheckoutRequestID, string(p.TransactionType), p.AccountReference, p.TransactionDesc,
		p.FailureReason, p.TempEmail, p.TempUsername, string(p.TempUserType), p.TempPasswordHash,
		p.TransactionDate, p.ExpiresAt, p.UpdatedAt, p.ID,
	)
	return err
}

// TransitionPayment moves a payment from one status to another. It reports
// false, writing nothing, when the payment is no longer in from.
func (s *SQLiteStore) TransitionPayment(ctx context.Context, id string, from, to PaymentStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), utcNow(), id, string(from),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLiteStore) ListPayments(ctx context.Context, f PaymentFilter, page PageRequest) ([]*Payment, Pagination, error) {
	w := f.build()
	pg, err := s.paginate(ctx, `SELECT COUNT(*) FROM payments`+w.String(), w.args, page)
	if err != nil {
		return nil, Pagination{}, err
	}
	args := append(append([]any{}, w.args...), pg.PerPage, pg.Offset())
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments`+w.String()+` ORDER BY payment_date DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, Pagination{}, err
	}
	payments, err := scanPayments(rows)
	return payments, pg, err
}

func (s *SQLiteStore) CountPayments(ctx context.Context, f PaymentFilter) (int, error) {
	w := f.build()
	return s.count(ctx, `SELECT COUNT(*) FROM payments`+w.String(), w.args...)
}

// PendingPayments returns pending payments initiated before the cutoff that
// have a real checkout request id.
func (s *SQLiteStore) PendingPayments(ctx context.Context, before time.Time) ([]*Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE status = 'pending' AND checkout_request_id != '' AND checkout_request_id NOT LIKE 'temp_%' AND payment_date < ?
		 ORDER BY payment_date`,
		before.UTC())
	if err != nil {
		return nil, err
	}
	return scanPayments(rows)
}

func (s *SQLiteStore) PaymentAmounts(ctx context.Context) ([]PaymentAmount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, transaction_type, amount, payment_date FROM payments`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PaymentAmount
	for rows.Next() {
		var pa PaymentAmount
		if err := rows.Scan(&pa.Status, &pa.TransactionType, &pa.Amount, &pa.PaymentDate); err != nil {
			return nil, err
		}
		out = append(out, pa)
	}
	return out, rows.Err()
}

const settingsSelect = `SELECT ps.id, ps.registration_fee, ps.subscription_fee, ps.updated_by, COALESCE(u.username, ''), ps.updated_at
	FROM platform_settings ps
	LEFT JOIN users u ON u.id = ps.updated_by`

func scanSettings(sc rowScanner) (*PlatformSettings, error) {
	ps := &PlatformSettings{}
	if err := sc.Scan(&ps.ID, &ps.RegistrationFee, &ps.SubscriptionFee, &ps.UpdatedBy, &ps.UpdatedByName, &ps.UpdatedAt); err != nil {
		return nil, err
	}
	return ps, nil
}

func (s *SQLiteStore) LatestPlatformSettings(ctx context.Context) (*PlatformSettings, error) {
	ps, err := scanSettings(s.db.QueryRowContext(ctx, settingsSelect+` ORDER BY ps.updated_at DESC, ps.id DESC LIMIT 1`))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ps, nil
}

func (s *SQLiteStore) InsertPlatformSettings(ctx context.Context, ps *PlatformSettings) (int64, error) {
	if ps.UpdatedAt.IsZero() {
		ps.UpdatedAt = utcNow()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO platform_settings (registration_fee, subscription_fee, updated_by, updated_at) VALUES (?, ?, ?, ?)`,
		ps.RegistrationFee, ps.SubscriptionFee, ps.UpdatedBy, ps.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	ps.ID = id
	return id, nil
}

func (s *SQLiteStore) ListPlatformSettings(ctx context.Context, page PageRequest) ([]*PlatformSettings, Pagination, error) {
	pg, err := s.paginate(ctx, `SELECT COUNT(*) FROM platform_settings`, nil, page)
	if err != nil {
		return nil, Pagination{}, err
	}
	rows, err := s.db.QueryContext(ctx, settingsSelect+` ORDER BY ps.updated_at DESC, ps.id DESC LIMIT ? OFFSET ?`,
		pg.PerPage, pg.Offset())
	if err != nil {
		return nil, Pagination{}, err
	}
	defer rows.Close()

	var out []*PlatformSettings
	for rows.Next() {
		ps, err := scanSettings(rows)
		if err != nil {
			return nil, Pagination{}, err
		}
		out = append(out, ps)
	}
	return out, pg, rows.Err()
}
