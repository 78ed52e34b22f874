package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
	origHomeDir  func() (string, error)
	origReadFile func(string) ([]byte, error)
	origGetenv   func(string) string
	env          map[string]string
	readPath     string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) SetupTest() {
	s.origHomeDir = userHomeDir
	s.origReadFile = readFile
	s.origGetenv = getenv
	s.env = map[string]string{}
	s.readPath = ""
	userHomeDir = func() (string, error) {
		return "/home/testuser", nil
	}
	getenv = func(key string) string {
		return s.env[key]
	}
}

func (s *ConfigSuite) TearDownTest() {
	userHomeDir = s.origHomeDir
	readFile = s.origReadFile
	getenv = s.origGetenv
}

func (s *ConfigSuite) serve(data string) {
	readFile = func(path string) ([]byte, error) {
		s.readPath = path
		return []byte(data), nil
	}
}

func (s *ConfigSuite) minimalJSON() string {
	return `{"jwt_secret":"test-secret"}`
}

func (s *ConfigSuite) TestLoadDefaults() {
	s.serve(s.minimalJSON())

	cfg, err := Load("")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "/home/testuser/.investorconnect/config.json", s.readPath)
	require.Equal(s.T(), "test-secret", cfg.JWTSecret)
	require.Equal(s.T(), ":8080", cfg.APIAddr)
	require.Equal(s.T(), "/home/testuser/.investorconnect/investorconnect.db", cfg.DBPath)
	require.Equal(s.T(), "info", cfg.LogLevel)
	require.Equal(s.T(), "text", cfg.LogFormat)
	require.Equal(s.T(), 72*time.Hour, cfg.TokenTTL)
	require.Equal(s.T(), "/home/testuser/.investorconnect/media", cfg.MediaDir)
	require.False(s.T(), cfg.Debug)
	require.Equal(s.T(), 3, cfg.Workers)
	require.Equal(s.T(), 30*time.Second, cfg.PollInterval)
	require.Equal(s.T(), "http://localhost:8080", cfg.SiteURL)
	require.Equal(s.T(), "/home/testuser/.investorconnect", cfg.HomeDir)

	require.Equal(s.T(), "sandbox", cfg.Mpesa.Environment)
	require.True(s.T(), cfg.Mpesa.IsSandbox())
	require.Equal(s.T(), MpesaSandboxURL, cfg.Mpesa.BaseURL())
	require.Equal(s.T(), "http://localhost:8080/api/payments/callback", cfg.Mpesa.CallbackURL)
	require.Equal(s.T(), "CustomerPayBillOnline", cfg.Mpesa.TransactionType)
	require.Equal(s.T(), 30*time.Second, cfg.Mpesa.Timeout)

	require.Empty(s.T(), cfg.SMTP.Host)
	require.Equal(s.T(), 587, cfg.SMTP.Port)

	require.True(s.T(), decimal.RequireFromString("1000").Equal(cfg.Fees.Registration))
	require.True(s.T(), decimal.RequireFromString("500").Equal(cfg.Fees.Subscription))

	require.Equal(s.T(), "*/15 * * * *", cfg.Schedules.ExpireSuspensions)
	require.Equal(s.T(), "0 7 * * *", cfg.Schedules.JobAlertsDaily)
	require.Equal(s.T(), "0 7 * * 1", cfg.Schedules.JobAlertsWeekly)
	require.Equal(s.T(), "*/5 * * * *", cfg.Schedules.ReconcilePayments)
}

func (s *ConfigSuite) TestLoadCustomValues() {
	s.serve(`{
		"api_addr": ":9999",
		"db_path": "/tmp/test.db",
		"log_level": "debug",
		"log_format": "json",
		"jwt_secret": "custom",
		"token_ttl_hours": 12,
		"media_dir": "/srv/media",
		"debug": true,
		"workers": 8,
		"poll_interval_sec": 60,
		"site_url": "https://invest.example.co.ke",
		"mpesa": {
			"environment": "production",
			"consumer_key": "ck",
			"consumer_secret": "cs",
			"shortcode": "600000",
			"till_number": "5555",
			"passkey": "pk",
			"callback_url": "https://hooks.example.co.ke/mpesa",
			"transaction_type": "CustomerBuyGoodsOnline",
			"timeout_sec": 10
		},
		"smtp": {
			"host": "smtp.example.co.ke",
			"port": 465,
			"username": "mailer",
			"password": "pw",
			"from": "hello@example.co.ke"
		},
		"fees": {"registration": "250.50", "subscription": "99"},
		"schedules": {
			"expire_suspensions": "@hourly",
			"job_alerts_daily": "0 6 * * *",
			"job_alerts_weekly": "0 6 * * 0",
			"reconcile_payments": "*/2 * * * *"
		}
	}`)

	cfg, err := Load("/etc/investorconnect.json")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "/etc/investorconnect.json", s.readPath)
	require.Equal(s.T(), ":9999", cfg.APIAddr)
	require.Equal(s.T(), "/tmp/test.db", cfg.DBPath)
	require.Equal(s.T(), "debug", cfg.LogLevel)
	require.Equal(s.T(), "json", cfg.LogFormat)
	require.Equal(s.T(), 12*time.Hour, cfg.TokenTTL)
	require.Equal(s.T(), "/srv/media", cfg.MediaDir)
	require.True(s.T(), cfg.Debug)
	require.Equal(s.T(), 8, cfg.Workers)
	require.Equal(s.T(), 60*time.Second, cfg.PollInterval)

	require.False(s.T(), cfg.Mpesa.IsSandbox())
	require.Equal(s.T(), MpesaProductionURL, cfg.Mpesa.BaseURL())
	require.Equal(s.T(), "5555", cfg.Mpesa.TillNumber)
	require.Equal(s.T(), "https://hooks.example.co.ke/mpesa", cfg.Mpesa.CallbackURL)
	require.Equal(s.T(), "CustomerBuyGoodsOnline", cfg.Mpesa.TransactionType)
	require.Equal(s.T(), 10*time.Second, cfg.Mpesa.Timeout)

	require.Equal(s.T(), SMTPConfig{
		Host: "smtp.example.co.ke", Port: 465, Username: "mailer", Password: "pw", From: "hello@example.co.ke",
	}, cfg.SMTP)

	require.Equal(s.T(), "250.5", cfg.Fees.Registration.String())
	require.Equal(s.T(), "99", cfg.Fees.Subscription.String())
	require.Equal(s.T(), "@hourly", cfg.Schedules.ExpireSuspensions)
	require.Equal(s.T(), "*/2 * * * *", cfg.Schedules.ReconcilePayments)
}

func (s *ConfigSuite) TestSandboxTillDefaultsToShortcode() {
	s.serve(`{"jwt_secret":"x","mpesa":{"shortcode":"174379"}}`)

	cfg, err := Load("")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "174379", cfg.Mpesa.TillNumber)
}

func (s *ConfigSuite) TestProductionTillNotDefaulted() {
	s.serve(`{"jwt_secret":"x","mpesa":{"environment":"production","shortcode":"600000"}}`)

	cfg, err := Load("")
	require.NoError(s.T(), err)
	require.Empty(s.T(), cfg.Mpesa.TillNumber)
}

func (s *ConfigSuite) TestCallbackFollowsSiteURL() {
	s.serve(`{"jwt_secret":"x","site_url":"https://ic.example"}`)

	cfg, err := Load("")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "https://ic.example/api/payments/callback", cfg.Mpesa.CallbackURL)
}

func (s *ConfigSuite) TestEnvOverrides() {
	s.serve(`{
		"jwt_secret": "from-file",
		"mpesa": {"consumer_key": "file-ck", "consumer_secret": "file-cs", "passkey": "file-pk"},
		"smtp": {"password": "file-pw"}
	}`)
	s.env = map[string]string{
		"INVESTORCONNECT_JWT_SECRET": "env-secret",
		"MPESA_CONSUMER_KEY":         "env-ck",
		"MPESA_CONSUMER_SECRET":      "env-cs",
		"MPESA_PASSKEY":              "env-pk",
		"SMTP_PASSWORD":              "env-pw",
	}

	cfg, err := Load("")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "env-secret", cfg.JWTSecret)
	require.Equal(s.T(), "env-ck", cfg.Mpesa.ConsumerKey)
	require.Equal(s.T(), "env-cs", cfg.Mpesa.ConsumerSecret)
	require.Equal(s.T(), "env-pk", cfg.Mpesa.Passkey)
	require.Equal(s.T(), "env-pw", cfg.SMTP.Password)
}

func (s *ConfigSuite) TestSecretFromEnvOnly() {
	s.serve(`{}`)
	s.env["INVESTORCONNECT_JWT_SECRET"] = "env-secret"

	cfg, err := Load("")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "env-secret", cfg.JWTSecret)
}

func (s *ConfigSuite) TestMissingRequired() {
	tests := []struct {
		name    string
		json    string
		missing string
	}{
		{
			name:    "empty object",
			json:    `{}`,
			missing: "jwt_secret",
		},
		{
			name:    "blank secret",
			json:    `{"jwt_secret":""}`,
			missing: "jwt_secret",
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.serve(tc.json)
			_, err := Load("")
			require.Error(s.T(), err)
			require.Contains(s.T(), err.Error(), "missing required config fields")
			require.Contains(s.T(), err.Error(), tc.missing)
		})
	}
}

func (s *ConfigSuite) TestInvalidMpesaEnvironment() {
	s.serve(`{"jwt_secret":"x","mpesa":{"environment":"staging"}}`)
	_, err := Load("")
	require.Error(s.T(), err)
	require.Contains(s.T(), err.Error(), "invalid mpesa environment")
}

func (s *ConfigSuite) TestInvalidFees() {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"registration", `{"jwt_secret":"x","fees":{"registration":"lots"}}`, "fees.registration"},
		{"subscription", `{"jwt_secret":"x","fees":{"subscription":"1,000"}}`, "fees.subscription"},
	}
	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.serve(tc.json)
			_, err := Load("")
			require.Error(s.T(), err)
			require.Contains(s.T(), err.Error(), tc.want)
		})
	}
}

func (s *ConfigSuite) TestFileNotFound() {
	readFile = func(_ string) ([]byte, error) {
		return nil, os.ErrNotExist
	}
	_, err := Load("")
	require.Error(s.T(), err)
	require.Contains(s.T(), err.Error(), "reading config file")
	require.ErrorIs(s.T(), err, os.ErrNotExist)
}

func (s *ConfigSuite) TestReadError() {
	readFile = func(_ string) ([]byte, error) {
		return nil, errors.New("permission denied")
	}
	_, err := Load("")
	require.Error(s.T(), err)
	require.Contains(s.T(), err.Error(), "reading config file")
}

func (s *ConfigSuite) TestInvalidJSON() {
	s.serve(`{not valid json`)
	_, err := Load("")
	require.Error(s.T(), err)
	require.Contains(s.T(), err.Error(), "parsing config file")
}

func (s *ConfigSuite) TestInvalidJSONTypes() {
	s.serve(`{"jwt_secret": 123}`)
	_, err := Load("")
	require.Error(s.T(), err)
	require.Contains(s.T(), err.Error(), "parsing config file")
}

func (s *ConfigSuite) TestHomeDirError() {
	userHomeDir = func() (string, error) {
		return "", os.ErrNotExist
	}
	_, err := Load("")
	require.Error(s.T(), err)
	require.Contains(s.T(), err.Error(), "getting home directory")
}

func (s *ConfigSuite) TestDefaultPath() {
	path, err := DefaultPath()
	require.NoError(s.T(), err)
	require.Equal(s.T(), "/home/testuser/.investorconnect/config.json", path)

	userHomeDir = func() (string, error) {
		return "", errors.New("no home")
	}
	_, err = DefaultPath()
	require.ErrorContains(s.T(), err, "getting home directory")
}

func (s *ConfigSuite) TestZeroNumericValues() {
	s.serve(`{
		"jwt_secret": "x",
		"token_ttl_hours": 0,
		"workers": 0,
		"poll_interval_sec": 0,
		"mpesa": {"timeout_sec": 0},
		"smtp": {"port": 0}
	}`)

	cfg, err := Load("")
	require.NoError(s.T(), err)
	require.Equal(s.T(), time.Duration(0), cfg.TokenTTL)
	require.Equal(s.T(), 0, cfg.Workers)
	require.Equal(s.T(), time.Duration(0), cfg.PollInterval)
	require.Equal(s.T(), time.Duration(0), cfg.Mpesa.Timeout)
	require.Equal(s.T(), 0, cfg.SMTP.Port)
}

func (s *ConfigSuite) TestJSONWithComments() {
	s.serve(`{
		// Required
		"jwt_secret": "tok",
		/* Optional settings */
		"log_level": "debug",
		// Trailing comma support
		"api_addr": ":9999",
	}`)

	cfg, err := Load("")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "tok", cfg.JWTSecret)
	require.Equal(s.T(), "debug", cfg.LogLevel)
	require.Equal(s.T(), ":9999", cfg.APIAddr)
}

func (s *ConfigSuite) TestDefaultHelpers() {
	require.Equal(s.T(), "val", stringDefault("val", "def"))
	require.Equal(s.T(), "def", stringDefault("", "def"))

	intVal := 42
	require.Equal(s.T(), 42, intPtrDefault(&intVal, 10))
	require.Equal(s.T(), 10, intPtrDefault(nil, 10))

	d, err := decimalDefault("", "12.50")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "12.5", d.String())
	_, err = decimalDefault("abc", "1")
	require.Error(s.T(), err)
}

func (s *ConfigSuite) TestDefaultReadFile() {
	_, err := s.origReadFile("/nonexistent/path/config.json")
	require.Error(s.T(), err)
}

func (s *ConfigSuite) TestExampleConfigEmbedded() {
	require.NotEmpty(s.T(), ExampleConfig)
	s.serve(string(ExampleConfig))

	cfg, err := Load("")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "174379", cfg.Mpesa.TillNumber)
	require.Equal(s.T(), 3, cfg.Workers)
}
