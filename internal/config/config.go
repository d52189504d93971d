package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string
	AppPort string

	// Client side
	APIBaseURL        string
	StateDir          string
	InactivityTimeout time.Duration

	// Wompi hosted checkout
	WompiCheckoutURL string

	// Dev backend stub
	JWTSecret            string
	WompiPublicKey       string
	WompiIntegritySecret string
	WompiRedirectURL     string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:               os.Getenv("APP_ENV"),
		AppPort:              getEnv("APP_PORT", "8000"),
		APIBaseURL:           getEnv("API_BASE_URL", "http://localhost:8000"),
		StateDir:             getEnv("STATE_DIR", defaultStateDir()),
		InactivityTimeout:    minutesEnv("INACTIVITY_TIMEOUT_MINUTES", 30),
		WompiCheckoutURL:     getEnv("WOMPI_CHECKOUT_URL", "https://checkout.wompi.co/p/"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		WompiPublicKey:       os.Getenv("WOMPI_PUBLIC_KEY"),
		WompiIntegritySecret: os.Getenv("WOMPI_INTEGRITY_SECRET"),
		WompiRedirectURL:     getEnv("WOMPI_REDIRECT_URL", "http://localhost:5173/client/gracias"),
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func minutesEnv(key string, fallback int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
	}
	return time.Duration(fallback) * time.Minute
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".venezia"
	}
	return home + string(os.PathSeparator) + ".venezia"
}
