package config

import (
	"os"
	"strconv"
)

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	// WebhookSecret signs webhook bodies; it is distinct from KeySecret,
	// which signs the checkout order|payment pair.
	WebhookSecret string
	APIBaseURL    string
}

type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	// TLSMode: "tls" (implicit), "starttls" or "" (plaintext, dev only).
	TLSMode       string
	SkipVerifyTLS bool
}

type Config struct {
	HTTPAddr  string
	DBDSN     string
	RedisAddr string
	BaseURL   string

	Razorpay RazorpayConfig
	SMTP     SMTPConfig

	EmailFrom     string
	EmailFromName string

	// When both are set, delivery goes through the HTTP email API
	// instead of SMTP.
	EmailAPIURL string
	EmailAPIKey string

	FreeShippingThresholdPaise int
	ShippingFlatPaise          int
}

func Load() Config {
	return Config{
		HTTPAddr:  getenv("HTTP_ADDR", ":8080"),
		DBDSN:     os.Getenv("DB_DSN"),
		RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),
		BaseURL:   getenv("BASE_URL", "http://localhost:8080"),
		Razorpay: RazorpayConfig{
			KeyID:         os.Getenv("RAZORPAY_KEY_ID"),
			KeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
			WebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
			APIBaseURL:    getenv("RAZORPAY_API_BASE_URL", "https://api.razorpay.com/v1"),
		},
		SMTP: SMTPConfig{
			Host:          getenv("SMTP_HOST", "localhost"),
			Port:          getenv("SMTP_PORT", "1025"),
			User:          os.Getenv("SMTP_USER"),
			Pass:          os.Getenv("SMTP_PASS"),
			TLSMode:       os.Getenv("SMTP_TLS_MODE"),
			SkipVerifyTLS: getenvBool("SMTP_SKIP_VERIFY_TLS", false),
		},
		EmailFrom:                  getenv("EMAIL_FROM", "orders@nyra.shop"),
		EmailFromName:              getenv("EMAIL_FROM_NAME", "Nyra"),
		EmailAPIURL:                os.Getenv("EMAIL_API_URL"),
		EmailAPIKey:                os.Getenv("EMAIL_API_TOKEN"),
		FreeShippingThresholdPaise: getenvInt("FREE_SHIPPING_THRESHOLD_PAISE", 99900),
		ShippingFlatPaise:          getenvInt("SHIPPING_FLAT_PAISE", 9900),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
