// Package collector appends observed bot traffic to the received-data log.
//
// Every line it writes uses the reference grammar recipient discovery
// parses, so collecting updates is what populates the broadcast target set.
package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"botcast/internal/dispatch"
	"botcast/internal/transport"
	"botcast/internal/transport/telegram"
	logx "botcast/pkg/logx"
)

const timestampFormat = "2006-01-02 15:04:05"

// UpdateSource is the slice of the Telegram adapter the collector needs.
type UpdateSource interface {
	FetchUpdates(ctx context.Context, limit int, timeout time.Duration) ([]telegram.Update, error)
}

type Service struct {
	source UpdateSource
	path   string
	log    logx.Logger
}

func New(source UpdateSource, path string, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{source: source, path: path, log: log}
}

// Collect fetches pending updates once and appends one log line per update.
// It returns the number of updates logged and a short echo line for each,
// for operator display.
func (s *Service) Collect(ctx context.Context, limit int, timeout time.Duration) (int, []string, error) {
	updates, err := s.source.FetchUpdates(ctx, limit, timeout)
	if err != nil {
		return 0, nil, err
	}
	if len(updates) == 0 {
		return 0, nil, nil
	}

	var echoes []string
	n := 0
	for _, u := range updates {
		line, echo, ok := FormatUpdate(u)
		if !ok {
			continue
		}
		if err := s.appendLine(line); err != nil {
			return n, echoes, fmt.Errorf("append to %s: %w", s.path, err)
		}
		n++
		echoes = append(echoes, echo)
	}
	s.log.Info("updates logged", logx.Int("count", n), logx.String("path", s.path))
	return n, echoes, nil
}

// LogOutgoing records a one-off (non-broadcast) send so discovery later
// picks the chat up. Broadcast loops do not call this: logging every sweep
// send would bloat the log without adding any new recipient.
func (s *Service) LogOutgoing(to transport.Recipient, text string) error {
	line := fmt.Sprintf("OUTGOING; Chat: %s; Content: Text: '%s'", to, dispatch.Preview(text))
	return s.appendLine(line)
}

func (s *Service) appendLine(line string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s - %s\n", time.Now().Format(timestampFormat), line)
	return err
}
