// Package timeouts provides centralized timeout values for I/O.
//
// Handlers, the address book loader and the migrate CLI derive their
// context deadlines from here so that all waits can be tuned in one place.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads, single REST calls to MultiBaas
//   - Medium: ledger scans, index reconciliation
//   - Mined: waiting for one transaction to be mined
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultMined  = 5 * time.Minute
)

var mu sync.RWMutex

var (
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	mined  = DefaultMined
)

// Ping returns the timeout for health checks and connectivity verification.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the timeout for simple operations like single-document reads.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Medium returns the timeout for scans and schema work.
func Medium() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return medium
}

// Mined returns how long to wait for a submitted transaction to be mined.
func Mined() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return mined
}

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Mined  time.Duration
}

// Configure sets custom timeout values. Zero values in the config are ignored.
// Call during startup before handlers are registered.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.Medium > 0 {
		medium = cfg.Medium
	}
	if cfg.Mined > 0 {
		mined = cfg.Mined
	}
}

// Reset restores all timeouts to their default values.
// Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	short = DefaultShort
	medium = DefaultMedium
	mined = DefaultMined
}

// ConfigureFromEnv reads NFTJR_TIMEOUT_PING, NFTJR_TIMEOUT_SHORT,
// NFTJR_TIMEOUT_MEDIUM and NFTJR_TIMEOUT_MINED (Go durations, e.g. "5s").
// Unset or invalid values keep the current setting.
//
// Returns the number of timeouts successfully configured from environment.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	configured := 0

	for name, dst := range map[string]*time.Duration{
		"NFTJR_TIMEOUT_PING":   &ping,
		"NFTJR_TIMEOUT_SHORT":  &short,
		"NFTJR_TIMEOUT_MEDIUM": &medium,
		"NFTJR_TIMEOUT_MINED":  &mined,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
			configured++
		}
	}

	return configured
}

// Current returns the current timeout configuration as a Config struct.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{
		Ping:   ping,
		Short:  short,
		Medium: medium,
		Mined:  mined,
	}
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context was canceled due to deadline exceeded.
//
// Example:
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Mined(), log, "deploy market")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
