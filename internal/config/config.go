package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is read once at startup from the environment. A .env file in the
// working directory is loaded first when present.
type Config struct {
	Addr          string
	DatabaseURL   string
	PayoutURL     string
	BetWindow     time.Duration
	TurnTimeout   time.Duration
	PayoutTimeout time.Duration
	RoomCap       int
}

func Load() (Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		Addr:          getenv("ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		PayoutURL:     os.Getenv("PAYOUT_URL"),
		BetWindow:     60 * time.Second,
		TurnTimeout:   60 * time.Second,
		PayoutTimeout: 10 * time.Second,
		RoomCap:       7,
	}

	var err error
	if cfg.BetWindow, err = getDuration("BET_WINDOW", cfg.BetWindow); err != nil {
		return Config{}, err
	}
	if cfg.TurnTimeout, err = getDuration("TURN_TIMEOUT", cfg.TurnTimeout); err != nil {
		return Config{}, err
	}
	if cfg.PayoutTimeout, err = getDuration("PAYOUT_TIMEOUT", cfg.PayoutTimeout); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("ROOM_CAP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid ROOM_CAP %q", v)
		}
		cfg.RoomCap = n
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
