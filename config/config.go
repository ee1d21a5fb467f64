package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// Mode determines which set of Razorpay checkout credentials are in use
type Mode string

const (
	ModeTest Mode = "test"
	ModeLive Mode = "live"
)

// Config carries all process configuration. It is constructed once at
// startup and injected into managers, so nothing reads os.Getenv at
// request time.
type Config struct {
	Mode Mode

	RazorpayKeyID         string
	RazorpayTestKeySecret string
	RazorpayLiveKeySecret string
	RazorpayWebhookSecret string

	HygraphAPI   string
	HygraphToken string

	ClerkSecretKey string

	PostgresURI string
	RedisURI    string
	RedisPW     string

	SMTPUsername string
	SMTPPassword string
	SMTPHost     string
	SMTPPort     string
	FromEmail    string
	AdminEmail   string

	ListenAddr string
}

// Load builds a Config from the current environment. godotenv is expected
// to have populated the environment already.
func Load() (*Config, error) {
	mode := ModeLive
	if os.Getenv("RAZORPAY_MODE") == string(ModeTest) {
		mode = ModeTest
	}

	cfg := &Config{
		Mode:                  mode,
		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayTestKeySecret: os.Getenv("RAZORPAY_TEST_KEY_SECRET"),
		RazorpayLiveKeySecret: os.Getenv("RAZORPAY_LIVE_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		HygraphAPI:            os.Getenv("HYGRAPH_API"),
		HygraphToken:          os.Getenv("HYGRAPH_TOKEN"),
		ClerkSecretKey:        os.Getenv("CLERK_SECRET_KEY"),
		PostgresURI:           os.Getenv("POSTGRES_URI"),
		RedisURI:              os.Getenv("REDIS_URI"),
		RedisPW:               os.Getenv("REDIS_PW"),
		SMTPUsername:          os.Getenv("SMTP_USERNAME"),
		SMTPPassword:          os.Getenv("SMTP_PASSWORD"),
		SMTPHost:              os.Getenv("SMTP_HOST"),
		SMTPPort:              os.Getenv("SMTP_PORT"),
		FromEmail:             os.Getenv("FROM_EMAIL"),
		AdminEmail:            os.Getenv("ADMIN_EMAIL"),
		ListenAddr:            os.Getenv("LISTEN_ADDR"),
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":5000"
	}

	for key, val := range map[string]string{
		"RAZORPAY_KEY_ID": cfg.RazorpayKeyID,
		"HYGRAPH_API":     cfg.HygraphAPI,
		"HYGRAPH_TOKEN":   cfg.HygraphToken,
		"POSTGRES_URI":    cfg.PostgresURI,
	} {
		if val == "" {
			return nil, errors.Wrap(fmt.Errorf("%s is not set", key), "Cannot load configuration")
		}
	}

	return cfg, nil
}

// CheckoutSecret returns the Razorpay key secret matching the configured
// mode. An empty return means the process is misconfigured and no
// verification may proceed.
func (c *Config) CheckoutSecret() string {
	if c.Mode == ModeTest {
		return c.RazorpayTestKeySecret
	}
	return c.RazorpayLiveKeySecret
}
