package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazuu/investorconnect/internal/config"
	"github.com/bazuu/investorconnect/internal/db"
)

// ErrPaymentFailed is returned when the gateway refuses or cannot be reached.
var ErrPaymentFailed = errors.New("payment request failed")

const (
	registrationDesc = "InvestorConnect Registration Fee"
	defaultPageSize  = 20
)

var minFee = decimal.NewFromInt(1)

// AccountCreator turns a completed registration payment into an account.
type AccountCreator interface {
	CompleteRegistration(ctx context.Context, p *db.Payment) error
}

// Registration is a signup waiting for its registration fee.
type Registration struct {
	Username     string
	Email        string
	PasswordHash string
	UserType     db.UserType
	Phone        string
}

// Service manages the payment lifecycle and platform fees.
type Service struct {
	store    db.Store
	gateway  Gateway
	accounts AccountCreator
	sandbox  bool
	debug    bool
	seed     config.FeesConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new payment Service.
func NewService(store db.Store, gateway Gateway, cfg *config.Config, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		gateway: gateway,
		sandbox: cfg.Mpesa.IsSandbox(),
		debug:   cfg.Debug,
		seed:    cfg.Fees,
		logger:  logger,
		now:     time.Now,
	}
}

// SetAccountCreator wires account creation for completed registrations.
func (s *Service) SetAccountCreator(a AccountCreator) {
	s.accounts = a
}

func shortHex() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// InitiateRegistration records a pending REGISTRATION payment and sends the
// STK prompt. A refused prompt marks the payment failed.
func (s *Service) InitiateRegistration(ctx context.Context, reg Registration, fee decimal.Decimal) (*db.Payment, error) {
	userType := reg.UserType
	if userType == "" {
		userType = db.UserTypeRegular
	}
	p := &db.Payment{
		Amount:            fee,
		Status:            db.PaymentPending,
		PhoneNumber:       FormatPhone(reg.Phone),
		TransactionType:   db.TransactionRegistration,
		AccountReference:  "REG-" + shortHex(),
		TransactionDesc:   registrationDesc,
		CheckoutRequestID: "temp_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		TempEmail:         reg.Email,
		TempUsername:      reg.Username,
		TempUserType:      userType,
		TempPasswordHash:  reg.PasswordHash,
		PaymentDate:       s.now().UTC(),
	}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("creating payment: %w", err)
	}

	res, err := s.gateway.STKPush(ctx, p.PhoneNumber, fee, p.AccountReference, p.TransactionDesc)
	if err != nil {
		p.Status = db.PaymentFailed
		p.FailureReason = err.Error()
		if uerr := s.store.UpdatePayment(ctx, p); uerr != nil {
			s.logger.Error("marking payment failed", "payment_id", p.ID, "error", uerr)
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	p.CheckoutRequestID = res.CheckoutRequestID
	p.MerchantRequestID = res.MerchantRequestID
	if err := s.store.UpdatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("updating payment: %w", err)
	}
	s.logger.Info("registration payment initiated", "payment_id", p.ID, "reference", p.AccountReference)
	return p, nil
}

// Subscribe sends a subscription prompt for an existing user.
func (s *Service) Subscribe(ctx context.Context, user *db.User, phone string) (*db.Payment, error) {
	if user.SubscriptionPaid {
		return nil, db.Errorf(db.ErrConflict, "You already have an active subscription.")
	}
	if strings.TrimSpace(phone) == "" {
		return nil, db.Errorf(db.ErrInvalid, "Please provide your M-Pesa phone number.")
	}
	fees, err := s.CurrentFees(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ref := fmt.Sprintf("SUB_%s_%s", user.Username, now.In(eat).Format(timestampLayout))
	res, err := s.gateway.STKPush(ctx, phone, fees.SubscriptionFee, ref, "InvestorConnect Subscription - "+user.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	uid := user.ID
	p := &db.Payment{
		UserID:            &uid,
		Amount:            fees.SubscriptionFee,
		Status:            db.PaymentPending,
		PhoneNumber:       res.Phone,
		CheckoutRequestID: res.CheckoutRequestID,
		MerchantRequestID: res.MerchantRequestID,
		TransactionType:   db.TransactionSubscription,
		AccountReference:  ref,
		PaymentDate:       now.UTC(),
	}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("creating payment: %w", err)
	}
	return p, nil
}

type callbackItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

type callbackEnvelope struct {
	Body struct {
		STKCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        *int   `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []callbackItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// HandleCallback applies an STK callback. Unknown checkout ids and payments
// that already reached a final state are ignored.
func (s *Service) HandleCallback(ctx context.Context, body []byte) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var env callbackEnvelope
	if err := dec.Decode(&env); err != nil {
		return fmt.Errorf("parsing callback: %w", err)
	}
	cb := env.Body.STKCallback
	if cb.CheckoutRequestID == "" {
		return errors.New("callback without checkout request id")
	}

	p, err := s.store.GetPaymentByCheckoutID(ctx, cb.CheckoutRequestID)
	if err != nil {
		return fmt.Errorf("loading payment: %w", err)
	}
	if p == nil {
		s.logger.Warn("callback for unknown payment", "checkout_request_id", cb.CheckoutRequestID)
		return nil
	}
	if p.Status != db.PaymentPending {
		s.logger.Info("ignoring callback for final payment", "payment_id", p.ID, "status", p.Status)
		return nil
	}

	if cb.ResultCode == nil || *cb.ResultCode != 0 {
		_, err := s.fail(ctx, p, cb.ResultDesc)
		return err
	}

	var receipt string
	txDate := s.now().UTC()
	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "MpesaReceiptNumber":
			receipt = fmt.Sprint(item.Value)
		case "TransactionDate":
			if t, err := time.ParseInLocation(timestampLayout, fmt.Sprint(item.Value), eat); err == nil {
				txDate = t.UTC()
			}
		}
	}
	_, err = s.complete(ctx, p, receipt, txDate)
	return err
}

// settle moves a pending payment to its final status. When several
// settlers race only one wins; the rest get false and leave p alone.
func (s *Service) settle(ctx context.Context, p *db.Payment, to db.PaymentStatus) (bool, error) {
	won, err := s.store.TransitionPayment(ctx, p.ID, db.PaymentPending, to)
	if err != nil {
		return false, fmt.Errorf("updating payment status: %w", err)
	}
	if !won {
		s.logger.Info("payment already settled", "payment_id", p.ID, "wanted", to)
		return false, nil
	}
	p.Status = to
	return true, nil
}

func (s *Service) fail(ctx context.Context, p *db.Payment, reason string) (bool, error) {
	won, err := s.settle(ctx, p, db.PaymentFailed)
	if err != nil || !won {
		return false, err
	}
	p.FailureReason = reason
	if err := s.store.UpdatePayment(ctx, p); err != nil {
		return true, fmt.Errorf("updating payment: %w", err)
	}
	s.logger.Warn("payment failed", "payment_id", p.ID, "reason", reason)
	return true, nil
}

// complete settles p as completed and, for the winner only, creates the
// account or activates the subscription it paid for.
func (s *Service) complete(ctx context.Context, p *db.Payment, receipt string, txDate time.Time) (bool, error) {
	won, err := s.settle(ctx, p, db.PaymentCompleted)
	if err != nil || !won {
		return false, err
	}
	p.ReceiptNumber = receipt
	p.TransactionDate = &txDate
	if err := s.store.UpdatePayment(ctx, p); err != nil {
		return true, fmt.Errorf("updating payment: %w", err)
	}
	s.logger.Info("payment completed", "payment_id", p.ID, "type", p.TransactionType, "receipt", receipt)

	switch p.TransactionType {
	case db.TransactionRegistration:
		if s.accounts == nil {
			return true, errors.New("no account creator configured")
		}
		return true, s.accounts.CompleteRegistration(ctx, p)
	case db.TransactionSubscription:
		return true, s.activateSubscription(ctx, p)
	}
	return true, nil
}

func (s *Service) activateSubscription(ctx context.Context, p *db.Payment) error {
	if p.UserID == nil {
		s.logger.Warn("subscription payment has no user", "payment_id", p.ID)
		return nil
	}
	u, err := s.store.GetUser(ctx, *p.UserID)
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}
	if u == nil {
		s.logger.Warn("subscription payment user not found", "payment_id", p.ID, "user_id", *p.UserID)
		return nil
	}
	u.SubscriptionPaid = true
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

// StatusView is the payment state shown while a user waits for the prompt.
type StatusView struct {
	Status         db.PaymentStatus `json:"status"`
	TransactionID  string           `json:"transaction_id"`
	Amount         decimal.Decimal  `json:"amount"`
	PhoneNumber    string           `json:"phone_number"`
	ReceiptNumber  string           `json:"receipt_number,omitempty"`
	Message        string           `json:"message"`
	Success        bool             `json:"success"`
	UserSubscribed *bool            `json:"user_subscribed,omitempty"`
	Environment    string           `json:"environment"`
}

func (s *Service) environment() string {
	if s.sandbox {
		return "sandbox"
	}
	return "production"
}

// ownedBy reports whether a subscription payment belongs to viewer.
func ownedBy(p *db.Payment, viewer *db.User) bool {
	return viewer != nil && p.UserID != nil && *p.UserID == viewer.ID
}

// Status reports the state of a payment. Subscription payments are only
// visible to their owner.
func (s *Service) Status(ctx context.Context, paymentID string, viewer *db.User) (*StatusView, error) {
	if paymentID == "" {
		return nil, db.Errorf(db.ErrInvalid, "Transaction ID is required")
	}
	p, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("loading payment: %w", err)
	}
	if p == nil || (p.TransactionType == db.TransactionSubscription && !ownedBy(p, viewer)) {
		return nil, db.Errorf(db.ErrNotFound, "Transaction not found")
	}

	v := &StatusView{
		Status:        p.Status,
		TransactionID: p.ID,
		Amount:        p.Amount,
		PhoneNumber:   p.PhoneNumber,
		ReceiptNumber: p.ReceiptNumber,
		Environment:   s.environment(),
	}
	switch p.Status {
	case db.PaymentCompleted:
		v.Success = true
		if p.TransactionType == db.TransactionRegistration {
			v.Message = "Payment completed successfully! Your account has been created."
		} else {
			v.Message = "Payment completed successfully! Your subscription is active."
		}
	case db.PaymentFailed:
		v.Message = "Payment failed: " + p.FailureReason
	case db.PaymentPending:
		v.Message = "Payment pending. Please check your phone for M-Pesa prompt."
	default:
		v.Message = "Payment " + string(p.Status) + "."
	}
	if p.TransactionType == db.TransactionSubscription {
		subscribed := viewer.SubscriptionPaid
		v.UserSubscribed = &subscribed
	}
	return v, nil
}

// SimulateSuccess completes a pending payment without the gateway. It is only
// available in the sandbox with debug enabled.
func (s *Service) SimulateSuccess(ctx context.Context, paymentID string, viewer *db.User) (*db.Payment, error) {
	if !s.sandbox || !s.debug {
		return nil, db.Errorf(db.ErrForbidden, "Payment simulation only available in sandbox mode.")
	}
	p, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("loading payment: %w", err)
	}
	if p == nil || (p.TransactionType == db.TransactionSubscription && !ownedBy(p, viewer)) {
		return nil, db.Errorf(db.ErrNotFound, "Payment not found.")
	}
	if p.Status != db.PaymentPending {
		return nil, db.Errorf(db.ErrConflict, "Payment is already %s.", p.Status)
	}

	now := s.now()
	receipt := "TEST" + shortHex()
	if p.TransactionType == db.TransactionSubscription {
		receipt = "SANDBOX" + now.In(eat).Format(timestampLayout)
	}
	won, err := s.complete(ctx, p, receipt, now.UTC())
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, db.Errorf(db.ErrConflict, "Payment is no longer pending.")
	}
	if p.TransactionType == db.TransactionSubscription && viewer != nil {
		viewer.SubscriptionPaid = true
	}
	return p, nil
}

// ReconcileResult summarises one reconciliation pass.
type ReconcileResult struct {
	Checked   int
	Completed int
	Failed    int
}

// ReconcilePending queries the gateway for pending payments older than
// olderThan whose callback never arrived.
func (s *Service) ReconcilePending(ctx context.Context, olderThan time.Duration) (ReconcileResult, error) {
	var res ReconcileResult
	pending, err := s.store.PendingPayments(ctx, s.now().Add(-olderThan))
	if err != nil {
		return res, fmt.Errorf("listing pending payments: %w", err)
	}
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++
		q, err := s.gateway.QuerySTK(ctx, p.CheckoutRequestID)
		if err != nil {
			s.logger.Warn("querying payment", "payment_id", p.ID, "error", err)
			continue
		}
		switch q.ResultCode {
		case "":
			continue
		case "0":
			won, err := s.complete(ctx, p, p.ReceiptNumber, s.now().UTC())
			if err != nil {
				s.logger.Error("completing reconciled payment", "payment_id", p.ID, "error", err)
				continue
			}
			if won {
				res.Completed++
			}
		default:
			won, err := s.fail(ctx, p, q.ResultDesc)
			if err != nil {
				s.logger.Error("failing reconciled payment", "payment_id", p.ID, "error", err)
				continue
			}
			if won {
				res.Failed++
			}
		}
	}
	return res, nil
}

// CurrentFees returns the effective platform fees, seeding them from the
// configuration on first use.
func (s *Service) CurrentFees(ctx context.Context) (*db.PlatformSettings, error) {
	ps, err := s.store.LatestPlatformSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading platform settings: %w", err)
	}
	if ps != nil {
		return ps, nil
	}
	ps = &db.PlatformSettings{
		RegistrationFee: s.seed.Registration,
		SubscriptionFee: s.seed.Subscription,
		UpdatedAt:       s.now().UTC(),
	}
	if _, err := s.store.InsertPlatformSettings(ctx, ps); err != nil {
		return nil, fmt.Errorf("seeding platform settings: %w", err)
	}
	return ps, nil
}

func wholeShillings(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(0))
}

// UpdateFees appends a new fee revision. Fees are whole shillings since
// M-Pesa only charges whole amounts.
func (s *Service) UpdateFees(ctx context.Context, registration, subscription decimal.Decimal, by *db.User) (*db.PlatformSettings, error) {
	switch {
	case registration.LessThan(minFee):
		return nil, db.Errorf(db.ErrInvalid, "Registration fee must be at least KES 1.00")
	case subscription.LessThan(minFee):
		return nil, db.Errorf(db.ErrInvalid, "Subscription fee must be at least KES 1.00")
	case !wholeShillings(registration):
		return nil, db.Errorf(db.ErrInvalid, "Registration fee must be a whole number of shillings.")
	case !wholeShillings(subscription):
		return nil, db.Errorf(db.ErrInvalid, "Subscription fee must be a whole number of shillings.")
	}
	ps := &db.PlatformSettings{
		RegistrationFee: registration,
		SubscriptionFee: subscription,
		UpdatedAt:       s.now().UTC(),
	}
	if by != nil {
		id := by.ID
		ps.UpdatedBy = &id
		ps.UpdatedByName = by.Username
	}
	if _, err := s.store.InsertPlatformSettings(ctx, ps); err != nil {
		return nil, fmt.Errorf("saving platform settings: %w", err)
	}
	return ps, nil
}

// FeeHistory lists fee revisions, newest first.
func (s *Service) FeeHistory(ctx context.Context, page int) ([]*db.PlatformSettings, db.Pagination, error) {
	return s.store.ListPlatformSettings(ctx, db.PageRequest{Number: page, Size: defaultPageSize})
}
