package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tailscale/hujson"
)

// M-Pesa API hosts per environment.
const (
	MpesaSandboxURL    = "https://sandbox.safaricom.co.ke"
	MpesaProductionURL = "https://api.safaricom.co.ke"
)

// MpesaConfig holds the Daraja API credentials.
type MpesaConfig struct {
	Environment     string
	ConsumerKey     string
	ConsumerSecret  string
	Shortcode       string
	TillNumber      string
	Passkey         string
	CallbackURL     string
	TransactionType string
	Timeout         time.Duration
}

// IsSandbox reports whether payments go to the Daraja sandbox.
func (m MpesaConfig) IsSandbox() bool { return m.Environment != "production" }

// BaseURL returns the API host for the configured environment.
func (m MpesaConfig) BaseURL() string {
	if m.IsSandbox() {
		return MpesaSandboxURL
	}
	return MpesaProductionURL
}

// SMTPConfig configures outgoing mail. An empty Host disables delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// FeesConfig seeds the platform settings table on first use.
type FeesConfig struct {
	Registration decimal.Decimal
	Subscription decimal.Decimal
}

// SchedulesConfig holds the cron expressions of the maintenance jobs.
type SchedulesConfig struct {
	ExpireSuspensions string
	JobAlertsDaily    string
	JobAlertsWeekly   string
	ReconcilePayments string
}

// Config holds all application configuration loaded from config.json.
type Config struct {
	APIAddr      string
	DBPath       string
	LogLevel     string
	LogFormat    string
	JWTSecret    string
	TokenTTL     time.Duration
	MediaDir     string
	Debug        bool
	Workers      int
	PollInterval time.Duration
	SiteURL      string
	HomeDir      string
	Mpesa        MpesaConfig
	SMTP         SMTPConfig
	Fees         FeesConfig
	Schedules    SchedulesConfig
}

// jsonConfig is an intermediate struct for JSON unmarshalling.
// Pointer types for numerics distinguish "missing" (nil) from "zero".
type jsonConfig struct {
	APIAddr         string             `json:"api_addr"`
	DBPath          string             `json:"db_path"`
	LogLevel        string             `json:"log_level"`
	LogFormat       string             `json:"log_format"`
	JWTSecret       string             `json:"jwt_secret"`
	TokenTTLHours   *int               `json:"token_ttl_hours"`
	MediaDir        string             `json:"media_dir"`
	Debug           bool               `json:"debug"`
	Workers         *int               `json:"workers"`
	PollIntervalSec *int               `json:"poll_interval_sec"`
	SiteURL         string             `json:"site_url"`
	Mpesa           *jsonMpesaConfig   `json:"mpesa"`
	SMTP            *jsonSMTPConfig    `json:"smtp"`
	Fees            *jsonFeesConfig    `json:"fees"`
	Schedules       *jsonSchedulesConf `json:"schedules"`
}

type jsonMpesaConfig struct {
	Environment     string `json:"environment"`
	ConsumerKey     string `json:"consumer_key"`
	ConsumerSecret  string `json:"consumer_secret"`
	Shortcode       string `json:"shortcode"`
	TillNumber      string `json:"till_number"`
	Passkey         string `json:"passkey"`
	CallbackURL     string `json:"callback_url"`
	TransactionType string `json:"transaction_type"`
	TimeoutSec      *int   `json:"timeout_sec"`
}

type jsonSMTPConfig struct {
	Host     string `json:"host"`
	Port     *int   `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

type jsonFeesConfig struct {
	Registration string `json:"registration"`
	Subscription string `json:"subscription"`
}

type jsonSchedulesConf struct {
	ExpireSuspensions string `json:"expire_suspensions"`
	JobAlertsDaily    string `json:"job_alerts_daily"`
	JobAlertsWeekly   string `json:"job_alerts_weekly"`
	ReconcilePayments string `json:"reconcile_payments"`
}

// userHomeDir is a package-level variable to allow overriding in tests.
var userHomeDir = os.UserHomeDir

// readFile is a package-level variable to allow overriding in tests.
var readFile = os.ReadFile

// getenv is a package-level variable to allow overriding in tests.
var getenv = os.Getenv

// DefaultPath returns ~/.investorconnect/config.json.
func DefaultPath() (string, error) {
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".investorconnect", "config.json"), nil
}

// Load reads configuration from path, or from ~/.investorconnect/config.json
// when path is empty, and returns a Config.
func Load(path string) (*Config, error) {
	home, err := userHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	appDir := filepath.Join(home, ".investorconnect")
	if path == "" {
		path = filepath.Join(appDir, "config.json")
	}

	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	standardJSON, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(standardJSON, &jc); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	siteURL := stringDefault(jc.SiteURL, "http://localhost:8080")
	cfg := &Config{
		APIAddr:      stringDefault(jc.APIAddr, ":8080"),
		DBPath:       stringDefault(jc.DBPath, filepath.Join(appDir, "investorconnect.db")),
		LogLevel:     stringDefault(jc.LogLevel, "info"),
		LogFormat:    stringDefault(jc.LogFormat, "text"),
		JWTSecret:    stringDefault(getenv("INVESTORCONNECT_JWT_SECRET"), jc.JWTSecret),
		TokenTTL:     time.Duration(intPtrDefault(jc.TokenTTLHours, 72)) * time.Hour,
		MediaDir:     stringDefault(jc.MediaDir, filepath.Join(appDir, "media")),
		Debug:        jc.Debug,
		Workers:      intPtrDefault(jc.Workers, 3),
		PollInterval: time.Duration(intPtrDefault(jc.PollIntervalSec, 30)) * time.Second,
		SiteURL:      siteURL,
		HomeDir:      appDir,
	}

	mc := jc.Mpesa
	if mc == nil {
		mc = &jsonMpesaConfig{}
	}
	cfg.Mpesa = MpesaConfig{
		Environment:     stringDefault(mc.Environment, "sandbox"),
		ConsumerKey:     stringDefault(getenv("MPESA_CONSUMER_KEY"), mc.ConsumerKey),
		ConsumerSecret:  stringDefault(getenv("MPESA_CONSUMER_SECRET"), mc.ConsumerSecret),
		Shortcode:       mc.Shortcode,
		TillNumber:      mc.TillNumber,
		Passkey:         stringDefault(getenv("MPESA_PASSKEY"), mc.Passkey),
		CallbackURL:     stringDefault(mc.CallbackURL, siteURL+"/api/payments/callback"),
		TransactionType: stringDefault(mc.TransactionType, "CustomerPayBillOnline"),
		Timeout:         time.Duration(intPtrDefault(mc.TimeoutSec, 30)) * time.Second,
	}
	if cfg.Mpesa.Environment != "sandbox" && cfg.Mpesa.Environment != "production" {
		return nil, fmt.Errorf("invalid mpesa environment %q: must be sandbox or production", cfg.Mpesa.Environment)
	}
	if cfg.Mpesa.IsSandbox() && cfg.Mpesa.TillNumber == "" {
		cfg.Mpesa.TillNumber = cfg.Mpesa.Shortcode
	}

	sc := jc.SMTP
	if sc == nil {
		sc = &jsonSMTPConfig{}
	}
	cfg.SMTP = SMTPConfig{
		Host:     sc.Host,
		Port:     intPtrDefault(sc.Port, 587),
		Username: sc.Username,
		Password: stringDefault(getenv("SMTP_PASSWORD"), sc.Password),
		From:     stringDefault(sc.From, "noreply@investorconnect.local"),
	}

	fc := jc.Fees
	if fc == nil {
		fc = &jsonFeesConfig{}
	}
	if cfg.Fees.Registration, err = decimalDefault(fc.Registration, "1000.00"); err != nil {
		return nil, fmt.Errorf("parsing fees.registration: %w", err)
	}
	if cfg.Fees.Subscription, err = decimalDefault(fc.Subscription, "500.00"); err != nil {
		return nil, fmt.Errorf("parsing fees.subscription: %w", err)
	}

	sch := jc.Schedules
	if sch == nil {
		sch = &jsonSchedulesConf{}
	}
	cfg.Schedules = SchedulesConfig{
		ExpireSuspensions: stringDefault(sch.ExpireSuspensions, "*/15 * * * *"),
		JobAlertsDaily:    stringDefault(sch.JobAlertsDaily, "0 7 * * *"),
		JobAlertsWeekly:   stringDefault(sch.JobAlertsWeekly, "0 7 * * 1"),
		ReconcilePayments: stringDefault(sch.ReconcilePayments, "*/5 * * * *"),
	}

	var missing []string
	if cfg.JWTSecret == "" {
		missing = append(missing, "jwt_secret")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required config fields: %v", missing)
	}

	return cfg, nil
}

func stringDefault(val, def string) string {
	if val != "" {
		return val
	}
	return def
}

func intPtrDefault(val *int, def int) int {
	if val != nil {
		return *val
	}
	return def
}

func decimalDefault(val, def string) (decimal.Decimal, error) {
	return decimal.NewFromString(stringDefault(val, def))
}
