package dispatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Mode string

const (
	ModeSingle Mode = "single-target"
	ModeCyclic Mode = "cyclic"
)

type StopReason string

const (
	StopCompleted       StopReason = "completed"
	StopDeadlineExpired StopReason = "deadline-expired"
	StopFatalCredential StopReason = "fatal-credential"
	StopAborted         StopReason = "aborted"
)

// Input-validation failures. These reject a session before any attempt is
// made; they are caller errors, never transport errors.
var (
	ErrEmptyRecipient = errors.New("recipient is empty")
	ErrEmptyMessage   = errors.New("message text is empty")
	ErrBadCount       = errors.New("count must be greater than zero")
	ErrNegativeDelay  = errors.New("delay must not be negative")
	ErrBadDelay       = errors.New("delay must be greater than zero")
	ErrBadDuration    = errors.New("duration must be greater than zero")
	ErrNoRecipients   = errors.New("no recipients discovered; run the collector first")
	ErrSessionActive  = errors.New("another broadcast session is already running")
)

// session is the transient state for one run of either loop. It is created
// at session start, mutated only by the owning loop, and discarded at the
// end; the Summary is all that survives.
type session struct {
	id        string
	mode      Mode
	startedAt time.Time
	deadline  time.Time // cyclic only

	attempts       int
	delivered      int
	failed         int
	rateLimitWaits int
	lastError      string
	stopReason     StopReason
}

func newSession(mode Mode) *session {
	return &session{
		id:        uuid.NewString(),
		mode:      mode,
		startedAt: time.Now(),
	}
}

func (s *session) summary() Summary {
	reason := s.stopReason
	if reason == "" {
		reason = StopCompleted
	}
	return Summary{
		ID:             s.id,
		Mode:           s.mode,
		StartedAt:      s.startedAt,
		Elapsed:        time.Since(s.startedAt),
		Attempts:       s.attempts,
		Delivered:      s.delivered,
		Failed:         s.failed,
		RateLimitWaits: s.rateLimitWaits,
		LastError:      s.lastError,
		StopReason:     reason,
	}
}

// Summary is the session's return value; nothing else persists it.
type Summary struct {
	ID             string
	Mode           Mode
	StartedAt      time.Time
	Elapsed        time.Duration
	Attempts       int
	Delivered      int
	Failed         int
	RateLimitWaits int
	LastError      string
	StopReason     StopReason
}

// Succeeded reports whether at least one delivery landed anywhere in the
// session.
func (s Summary) Succeeded() bool { return s.Delivered > 0 }

func (s Summary) String() string {
	line := fmt.Sprintf("finished (%s) in %.2fs: attempts %d, delivered %d, failed %d, rate-limit waits %d",
		s.StopReason, s.Elapsed.Seconds(), s.Attempts, s.Delivered, s.Failed, s.RateLimitWaits)
	if s.LastError != "" {
		line += fmt.Sprintf(". last error: %s", s.LastError)
	}
	return line
}
