package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/shopspring/decimal"

	"github.com/bazuu/investorconnect/internal/config"
)

// HTTPClient is the subset of http.Client the M-Pesa client needs.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

var _ HTTPClient = http.DefaultClient

// Gateway initiates and queries STK push payments.
type Gateway interface {
	STKPush(ctx context.Context, phone string, amount decimal.Decimal, reference, desc string) (*STKPushResult, error)
	QuerySTK(ctx context.Context, checkoutRequestID string) (*STKQueryResult, error)
}

// Daraja timestamps are in East Africa Time.
var eat = time.FixedZone("EAT", 3*60*60)

const (
	timestampLayout = "20060102150405"
	tokenMargin     = time.Minute
)

// APIError is a non-2xx response from the Daraja API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("mpesa api %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("mpesa api %d", e.StatusCode)
}

// STKPushResult is the accepted response of a push request.
type STKPushResult struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	// Phone is the normalised number the prompt was sent to.
	Phone string `json:"-"`
}

// STKQueryResult is the response of a push status query.
type STKQueryResult struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
}

// MpesaClient talks to the Safaricom Daraja API.
type MpesaClient struct {
	cfg      config.MpesaConfig
	baseURL  string
	http     HTTPClient
	now      func() time.Time
	attempts uint
	delay    time.Duration

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Option configures an MpesaClient.
type Option func(*MpesaClient)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c HTTPClient) Option {
	return func(m *MpesaClient) { m.http = c }
}

// WithBaseURL points the client at another API host.
func WithBaseURL(u string) Option {
	return func(m *MpesaClient) { m.baseURL = strings.TrimSuffix(u, "/") }
}

// WithRetry sets the attempt count and initial backoff for network failures.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(m *MpesaClient) {
		m.attempts = attempts
		m.delay = delay
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *MpesaClient) { m.now = now }
}

// NewMpesaClient creates a client for the configured environment.
func NewMpesaClient(cfg config.MpesaConfig, opts ...Option) *MpesaClient {
	m := &MpesaClient{
		cfg:      cfg,
		baseURL:  cfg.BaseURL(),
		http:     &http.Client{Timeout: cfg.Timeout},
		now:      time.Now,
		attempts: 3,
		delay:    500 * time.Millisecond,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)

// FormatPhone normalises a Kenyan phone number to 2547XXXXXXXX form.
func FormatPhone(raw string) string {
	p := nonPhoneChars.ReplaceAllString(strings.TrimSpace(raw), "")
	switch {
	case strings.HasPrefix(p, "0"):
		return "254" + p[1:]
	case strings.HasPrefix(p, "+254"):
		return p[1:]
	case strings.HasPrefix(p, "254"):
		return p
	default:
		return "254" + strings.TrimPrefix(p, "+")
	}
}

// Password returns the STK password and the timestamp it was derived from.
func (m *MpesaClient) Password(now time.Time) (string, string) {
	ts := now.In(eat).Format(timestampLayout)
	return base64.StdEncoding.EncodeToString([]byte(m.cfg.Shortcode + m.cfg.Passkey + ts)), ts
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// AccessToken returns a cached OAuth token, fetching a new one when the
// cached token is missing or about to expire.
func (m *MpesaClient) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.token != "" && now.Before(m.tokenExpiry) {
		return m.token, nil
	}

	req := func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
		if err != nil {
			return nil, err
		}
		r.SetBasicAuth(m.cfg.ConsumerKey, m.cfg.ConsumerSecret)
		return r, nil
	}
	var tr tokenResponse
	if err := m.do(ctx, req, &tr, true); err != nil {
		return "", fmt.Errorf("getting access token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("getting access token: empty token in response")
	}

	ttl := 3599 * time.Second
	if secs, err := strconv.Atoi(tr.ExpiresIn); err == nil && secs > 0 {
		ttl = time.Duration(secs) * time.Second
	}
	m.token = tr.AccessToken
	m.tokenExpiry = now.Add(ttl - tokenMargin)
	return m.token, nil
}

// TestConnection verifies the credentials by fetching a token.
func (m *MpesaClient) TestConnection(ctx context.Context) error {
	_, err := m.AccessToken(ctx)
	return err
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPush sends a payment prompt to phone. The amount is rounded up to whole
// shillings. The request is sent once: a retried push can prompt and charge
// the payer twice.
func (m *MpesaClient) STKPush(ctx context.Context, phone string, amount decimal.Decimal, reference, desc string) (*STKPushResult, error) {
	token, err := m.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	formatted := FormatPhone(phone)
	password, ts := m.Password(m.now())
	till := m.cfg.TillNumber
	if till == "" {
		till = m.cfg.Shortcode
	}
	body := stkPushRequest{
		BusinessShortCode: m.cfg.Shortcode,
		Password:          password,
		Timestamp:         ts,
		TransactionType:   m.cfg.TransactionType,
		Amount:            amount.Ceil().IntPart(),
		PartyA:            formatted,
		PartyB:            till,
		PhoneNumber:       formatted,
		CallBackURL:       m.cfg.CallbackURL,
		AccountReference:  reference,
		TransactionDesc:   desc,
	}

	var res struct {
		STKPushResult
		ErrorMessage string `json:"errorMessage"`
	}
	if err := m.postJSON(ctx, "/mpesa/stkpush/v1/processrequest", token, body, &res, false); err != nil {
		return nil, fmt.Errorf("stk push: %w", err)
	}
	if res.ResponseCode != "0" {
		msg := firstNonEmpty(res.ErrorMessage, res.ResponseDescription, res.CustomerMessage, "STK push failed")
		return nil, fmt.Errorf("stk push: %s", msg)
	}
	res.Phone = formatted
	return &res.STKPushResult, nil
}

// QuerySTK asks for the final state of a push request.
func (m *MpesaClient) QuerySTK(ctx context.Context, checkoutRequestID string) (*STKQueryResult, error) {
	token, err := m.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	password, ts := m.Password(m.now())
	body := map[string]string{
		"BusinessShortCode": m.cfg.Shortcode,
		"Password":          password,
		"Timestamp":         ts,
		"CheckoutRequestID": checkoutRequestID,
	}
	var res STKQueryResult
	if err := m.postJSON(ctx, "/mpesa/stkpushquery/v1/query", token, body, &res, true); err != nil {
		return nil, fmt.Errorf("stk query: %w", err)
	}
	return &res, nil
}

func (m *MpesaClient) postJSON(ctx context.Context, path, token string, body, out any, retryable bool) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req := func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Authorization", "Bearer "+token)
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	}
	return m.do(ctx, req, out, retryable)
}

// do sends the request built by newReq. When retryable is set, transport
// failures and 5xx responses are retried; 4xx responses always fail
// immediately.
func (m *MpesaClient) do(ctx context.Context, newReq func() (*http.Request, error), out any, retryable bool) error {
	attempts := m.attempts
	if !retryable {
		attempts = 1
	}
	return retry.Do(func() error {
		req, err := newReq()
		if err != nil {
			return retry.Unrecoverable(err)
		}
		resp, err := m.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode >= 300 {
			apiErr := &APIError{StatusCode: resp.StatusCode}
			var eb struct {
				ErrorCode    string `json:"errorCode"`
				ErrorMessage string `json:"errorMessage"`
			}
			if json.Unmarshal(data, &eb) == nil {
				apiErr.Code, apiErr.Message = eb.ErrorCode, eb.ErrorMessage
			}
			if resp.StatusCode < 500 {
				return retry.Unrecoverable(apiErr)
			}
			return apiErr
		}
		if err := json.Unmarshal(data, out); err != nil {
			return retry.Unrecoverable(fmt.Errorf("decoding response: %w", err))
		}
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(m.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
