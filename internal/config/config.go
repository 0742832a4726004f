package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"

	devJWTSecret = "dev-only-secret-change-me"
)

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string
	LogFile     string

	StoreBackend      string
	MongoURI          string
	MongoDatabase     string
	MongoTransactions bool

	JWTSecret string
	JWTTTL    time.Duration

	// AdminAPIKey guards the admin routes; empty leaves them open.
	AdminAPIKey string

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayAPIURL    string
	Currency          string

	NtfyTopic        string
	AdminPanelURL    string
	NotifyRatePerSec float64
	NotifyBurst      int
}

// Load reads the given .env files (default ".env") when present and then the
// process environment. Variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	cfg := &Config{
		ServiceName:   getenvDefault("SERVICE_NAME", "storefront"),
		Env:           getenvDefault("ENV", "dev"),
		HTTPAddr:      getenvDefault("HTTP_ADDR", ":8080"),
		LogFile:       os.Getenv("LOG_FILE"),
		StoreBackend:  strings.ToLower(getenvDefault("STORE_BACKEND", BackendMemory)),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getenvDefault("MONGO_DATABASE", "storefront"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminAPIKey:   os.Getenv("ADMIN_API_KEY"),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayAPIURL:    getenvDefault("RAZORPAY_API_URL", "https://api.razorpay.com/v1"),
		Currency:          strings.ToUpper(getenvDefault("CURRENCY", "INR")),

		NtfyTopic:     os.Getenv("NTFY_TOPIC"),
		AdminPanelURL: os.Getenv("ADMIN_PANEL_URL"),
	}

	var err error
	if cfg.MongoTransactions, err = parseBool("MONGO_TRANSACTIONS", false); err != nil {
		return nil, err
	}
	if cfg.JWTTTL, err = parseDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.NotifyRatePerSec, err = parseFloat("NOTIFY_RATE_PER_SEC", 1); err != nil {
		return nil, err
	}
	if cfg.NotifyBurst, err = parseInt("NOTIFY_BURST", 5); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendMongo:
		if c.MongoURI == "" {
			return errors.New("config: MONGO_URI is required when STORE_BACKEND=mongo")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.JWTSecret == "" {
		if !c.IsDev() {
			return errors.New("config: JWT_SECRET is required outside dev")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.JWTTTL <= 0 {
		return errors.New("config: JWT_TTL must be positive")
	}
	return nil
}

func (c *Config) IsDev() bool { return c.Env == "dev" }

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseBool(key string, def bool) (bool, error) {
	v := getenvDefault(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	v := getenvDefault(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func parseFloat(key string, def float64) (float64, error) {
	v := getenvDefault(key, "")
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func parseInt(key string, def int) (int, error) {
	v := getenvDefault(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
