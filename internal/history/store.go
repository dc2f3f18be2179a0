// Package history persists broadcast session summaries so operators can
// audit what was sent, when, and how it ended.
package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"botcast/internal/dispatch"
	logx "botcast/pkg/logx"
)

var ErrDisabled = errors.New("history storage disabled")

// Config configures the store.
//
// Driver values: "sqlite" (database file) or ""/"none" (disabled).
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// Record is one persisted session summary. Kept compact and schema-stable.
type Record struct {
	ID             string
	Mode           string
	StartedAt      time.Time
	ElapsedMS      int64
	Attempts       int
	Delivered      int
	Failed         int
	RateLimitWaits int
	LastError      string
	StopReason     string
}

// FromSummary converts a dispatch summary into its stored form.
func FromSummary(s dispatch.Summary) Record {
	return Record{
		ID:             s.ID,
		Mode:           string(s.Mode),
		StartedAt:      s.StartedAt,
		ElapsedMS:      s.Elapsed.Milliseconds(),
		Attempts:       s.Attempts,
		Delivered:      s.Delivered,
		Failed:         s.Failed,
		RateLimitWaits: s.RateLimitWaits,
		LastError:      s.LastError,
		StopReason:     string(s.StopReason),
	}
}

// Store is the minimal persistence API the CLI uses.
type Store interface {
	Append(ctx context.Context, r Record) error
	Recent(ctx context.Context, n int) ([]Record, error)
	Close() error
}

// Open initializes the configured store. It returns (nil, nil) when storage
// is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
}
