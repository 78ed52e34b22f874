package payments

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/bazuu/investorconnect/internal/config"
)

type MpesaSuite struct {
	suite.Suite
	ctx        context.Context
	now        time.Time
	mux        *http.ServeMux
	srv        *httptest.Server
	tokenHits  atomic.Int32
	pushHits   atomic.Int32
	client     *MpesaClient
	lastPush   stkPushRequest
	lastAuth   string
	pushStatus int
	pushBody   string
}

func TestMpesaSuite(t *testing.T) {
	suite.Run(t, new(MpesaSuite))
}

func (s *MpesaSuite) cfg() config.MpesaConfig {
	return config.MpesaConfig{
		Environment:     "sandbox",
		ConsumerKey:     "key",
		ConsumerSecret:  "secret",
		Shortcode:       "174379",
		Passkey:         "pass",
		CallbackURL:     "https://example.com/api/payments/callback",
		TransactionType: "CustomerPayBillOnline",
	}
}

func (s *MpesaSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 6, 1, 9, 30, 15, 0, time.UTC)
	s.tokenHits.Store(0)
	s.pushHits.Store(0)
	s.pushStatus = http.StatusOK
	s.pushBody = `{"MerchantRequestID":"m-1","CheckoutRequestID":"ws_CO_1","ResponseCode":"0","ResponseDescription":"Success","CustomerMessage":"ok"}`

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("GET /oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		s.tokenHits.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":"3599"}`))
	})
	s.mux.HandleFunc("POST /mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		s.pushHits.Add(1)
		s.lastAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&s.lastPush)
		w.WriteHeader(s.pushStatus)
		_, _ = w.Write([]byte(s.pushBody))
	})
	s.mux.HandleFunc("POST /mpesa/stkpushquery/v1/query", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.Equal("ws_CO_1", body["CheckoutRequestID"])
		_, _ = w.Write([]byte(`{"ResponseCode":"0","ResultCode":"1032","ResultDesc":"Request cancelled by user"}`))
	})
	s.srv = httptest.NewServer(s.mux)

	s.client = NewMpesaClient(s.cfg(),
		WithBaseURL(s.srv.URL),
		WithHTTPClient(s.srv.Client()),
		WithRetry(3, time.Millisecond),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *MpesaSuite) TearDownTest() {
	s.srv.Close()
}

func (s *MpesaSuite) TestFormatPhone() {
	tests := []struct{ in, want string }{
		{"0712345678", "254712345678"},
		{"+254712345678", "254712345678"},
		{"254712345678", "254712345678"},
		{"712345678", "254712345678"},
		{" 0712-345 678 ", "254712345678"},
		{"(0712) 345678", "254712345678"},
		{"11", "25411"},
	}
	for _, tc := range tests {
		require.Equal(s.T(), tc.want, FormatPhone(tc.in), tc.in)
	}
}

func (s *MpesaSuite) TestPasswordUsesEATTimestamp() {
	pw, ts := s.client.Password(s.now)
	require.Equal(s.T(), "20240601123015", ts)
	raw, err := base64.StdEncoding.DecodeString(pw)
	require.NoError(s.T(), err)
	require.Equal(s.T(), "174379pass20240601123015", string(raw))
}

func (s *MpesaSuite) TestNewMpesaClientDefaults() {
	c := NewMpesaClient(config.MpesaConfig{Environment: "production", Timeout: 5 * time.Second})
	require.Equal(s.T(), config.MpesaProductionURL, c.baseURL)
	require.Equal(s.T(), uint(3), c.attempts)
	require.Equal(s.T(), 5*time.Second, c.http.(*http.Client).Timeout)
}

func (s *MpesaSuite) TestAccessTokenCached() {
	tok, err := s.client.AccessToken(s.ctx)
	require.NoError(s.T(), err)
	require.Equal(s.T(), "tok-1", tok)

	_, err = s.client.AccessToken(s.ctx)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(1), s.tokenHits.Load())

	s.now = s.now.Add(59 * time.Minute)
	_, err = s.client.AccessToken(s.ctx)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(2), s.tokenHits.Load())
}

func (s *MpesaSuite) TestAccessTokenBadCredentialsNotRetried() {
	cfg := s.cfg()
	cfg.ConsumerSecret = "wrong"
	c := NewMpesaClient(cfg, WithBaseURL(s.srv.URL), WithRetry(3, time.Millisecond))

	err := c.TestConnection(s.ctx)
	require.ErrorContains(s.T(), err, "getting access token")
	var apiErr *APIError
	require.ErrorAs(s.T(), err, &apiErr)
	require.Equal(s.T(), http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(s.T(), int32(1), s.tokenHits.Load())
}

func (s *MpesaSuite) TestAccessTokenEmpty() {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /oauth/v1/generate", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewMpesaClient(s.cfg(), WithBaseURL(srv.URL))
	_, err := c.AccessToken(s.ctx)
	require.ErrorContains(s.T(), err, "empty token")
}

func (s *MpesaSuite) TestSTKPushSuccess() {
	res, err := s.client.STKPush(s.ctx, "0712345678", decimal.RequireFromString("1000.75"), "REG-ABCD1234", "InvestorConnect Registration Fee")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "ws_CO_1", res.CheckoutRequestID)
	require.Equal(s.T(), "m-1", res.MerchantRequestID)
	require.Equal(s.T(), "254712345678", res.Phone)

	require.Equal(s.T(), "Bearer tok-1", s.lastAuth)
	require.Equal(s.T(), stkPushRequest{
		BusinessShortCode: "174379",
		Password:          base64.StdEncoding.EncodeToString([]byte("174379pass20240601123015")),
		Timestamp:         "20240601123015",
		TransactionType:   "CustomerPayBillOnline",
		Amount:            1001,
		PartyA:            "254712345678",
		PartyB:            "174379",
		PhoneNumber:       "254712345678",
		CallBackURL:       "https://example.com/api/payments/callback",
		AccountReference:  "REG-ABCD1234",
		TransactionDesc:   "InvestorConnect Registration Fee",
	}, s.lastPush)
}

func (s *MpesaSuite) TestSTKPushUsesTillNumber() {
	cfg := s.cfg()
	cfg.TillNumber = "5555"
	c := NewMpesaClient(cfg, WithBaseURL(s.srv.URL), WithClock(func() time.Time { return s.now }))
	_, err := c.STKPush(s.ctx, "0712345678", decimal.NewFromInt(1), "r", "d")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "5555", s.lastPush.PartyB)
}

func (s *MpesaSuite) TestSTKPushRejected() {
	s.pushBody = `{"ResponseCode":"1","ResponseDescription":"Insufficient balance"}`
	_, err := s.client.STKPush(s.ctx, "0712345678", decimal.NewFromInt(10), "r", "d")
	require.EqualError(s.T(), err, "stk push: Insufficient balance")
}

func (s *MpesaSuite) TestSTKPushClientErrorNotRetried() {
	s.pushStatus = http.StatusBadRequest
	s.pushBody = `{"requestId":"x","errorCode":"400.002.02","errorMessage":"Bad Request - Invalid PhoneNumber"}`

	_, err := s.client.STKPush(s.ctx, "12", decimal.NewFromInt(10), "r", "d")
	require.ErrorContains(s.T(), err, "Invalid PhoneNumber")
	var apiErr *APIError
	require.ErrorAs(s.T(), err, &apiErr)
	require.Equal(s.T(), "400.002.02", apiErr.Code)
	require.Equal(s.T(), int32(1), s.pushHits.Load())
}

func (s *MpesaSuite) TestSTKPushServerErrorNotRetried() {
	s.pushStatus = http.StatusServiceUnavailable
	s.pushBody = `oops`

	_, err := s.client.STKPush(s.ctx, "0712345678", decimal.NewFromInt(10), "r", "d")
	require.ErrorContains(s.T(), err, "mpesa api 503")
	require.Equal(s.T(), int32(1), s.pushHits.Load())
}

func (s *MpesaSuite) TestSTKPushNetworkErrorNotRetried() {
	ft := &failingTransport{}
	c := NewMpesaClient(s.cfg(), WithHTTPClient(ft), WithRetry(3, time.Millisecond))
	c.token, c.tokenExpiry = "tok-1", time.Now().Add(time.Hour)

	_, err := c.STKPush(s.ctx, "0712345678", decimal.NewFromInt(10), "r", "d")
	require.ErrorContains(s.T(), err, "connection reset")
	require.Equal(s.T(), int32(1), ft.calls.Load())
}

func (s *MpesaSuite) TestSTKPushRoundsAmountUp() {
	_, err := s.client.STKPush(s.ctx, "0712345678", decimal.RequireFromString("99.01"), "r", "d")
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(100), s.lastPush.Amount)
}

func (s *MpesaSuite) TestQuerySTKServerErrorRetried() {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /oauth/v1/generate", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":"3599"}`))
	})
	mux.HandleFunc("POST /mpesa/stkpushquery/v1/query", func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ResponseCode":"0","ResultCode":"0","ResultDesc":"ok"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewMpesaClient(s.cfg(), WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
	res, err := c.QuerySTK(s.ctx, "ws_CO_1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "0", res.ResultCode)
	require.Equal(s.T(), int32(3), hits.Load())
}

func (s *MpesaSuite) TestSTKPushBadJSON() {
	s.pushBody = `not json`
	_, err := s.client.STKPush(s.ctx, "0712345678", decimal.NewFromInt(10), "r", "d")
	require.ErrorContains(s.T(), err, "decoding response")
	require.Equal(s.T(), int32(1), s.pushHits.Load())
}

type failingTransport struct{ calls atomic.Int32 }

func (f *failingTransport) Do(*http.Request) (*http.Response, error) {
	f.calls.Add(1)
	return nil, errors.New("connection reset")
}

func (s *MpesaSuite) TestNetworkErrorRetried() {
	ft := &failingTransport{}
	c := NewMpesaClient(s.cfg(), WithHTTPClient(ft), WithRetry(3, time.Millisecond))
	_, err := c.AccessToken(s.ctx)
	require.ErrorContains(s.T(), err, "connection reset")
	require.Equal(s.T(), int32(3), ft.calls.Load())
}

func (s *MpesaSuite) TestQuerySTK() {
	res, err := s.client.QuerySTK(s.ctx, "ws_CO_1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "1032", res.ResultCode)
	require.Equal(s.T(), "Request cancelled by user", res.ResultDesc)
}

func (s *MpesaSuite) TestAPIErrorMessage() {
	require.Equal(s.T(), "mpesa api 500", (&APIError{StatusCode: 500}).Error())
	require.Equal(s.T(), "mpesa api 400: bad", (&APIError{StatusCode: 400, Message: "bad"}).Error())
}
