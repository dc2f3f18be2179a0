package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"botcast/internal/transport"
	logx "botcast/pkg/logx"
)

// SingleRequest asks for Count copies of Text to one recipient, Delay apart.
type SingleRequest struct {
	To    transport.Recipient
	Text  string
	Count int
	Delay time.Duration
}

func (r SingleRequest) validate() error {
	if r.To.IsZero() {
		return ErrEmptyRecipient
	}
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyMessage
	}
	if r.Count <= 0 {
		return ErrBadCount
	}
	if r.Delay < 0 {
		return ErrNegativeDelay
	}
	return nil
}

// SendRepeated runs the single-target dispatch loop. It always runs to
// completion or to a fatal credential failure; the only external interrupt
// is context cancellation. The returned error is non-nil only for rejected
// inputs or a busy gate — a started session always yields a Summary.
func (d *Dispatcher) SendRepeated(ctx context.Context, req SingleRequest) (sum Summary, err error) {
	if err := req.validate(); err != nil {
		return Summary{}, err
	}
	if !d.gate.TryAcquire() {
		return Summary{}, ErrSessionActive
	}
	defer d.gate.Release()

	s := newSession(ModeSingle)
	log := d.log.With(logx.String("session", s.id), logx.String("mode", string(s.mode)))

	defer func() {
		if r := recover(); r != nil {
			log.Error("dispatch loop panic", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
			s.lastError = fmt.Sprintf("internal error: %v", r)
			s.stopReason = StopAborted
			sum = d.finish(s, log)
			err = nil
		}
	}()

	d.report(fmt.Sprintf("starting dispatch to %s: %d message(s), %.1fs delay, text: %s",
		req.To, req.Count, req.Delay.Seconds(), Preview(req.Text)), SeverityInfo)
	log.Info("single-target session started",
		logx.String("to", req.To.String()), logx.Int("count", req.Count), logx.Duration("delay", req.Delay))

	for i := 0; i < req.Count; i++ {
		if ctx.Err() != nil {
			s.stopReason = StopAborted
			break
		}

		label := fmt.Sprintf("send %d/%d", i+1, req.Count)
		res := d.attempt(ctx, s, req.To, req.Text, label, time.Time{})
		if res.fatal {
			s.stopReason = StopFatalCredential
			break
		}
		if res.interrupted == waitCancelled {
			s.stopReason = StopAborted
			break
		}

		if i < req.Count-1 && !res.skipDelay && req.Delay > 0 {
			if d.wait(ctx, req.Delay, time.Time{}) == waitCancelled {
				s.stopReason = StopAborted
				break
			}
		}
	}

	return d.finish(s, log), nil
}

// finish seals the session and emits the summary line exactly once.
func (d *Dispatcher) finish(s *session, log logx.Logger) Summary {
	sum := s.summary()
	sev := SeverityError
	if sum.Succeeded() {
		sev = SeveritySuccess
	}
	d.report(sum.String(), sev)
	log.Info("session finished",
		logx.String("stop_reason", string(sum.StopReason)),
		logx.Int("attempts", sum.Attempts),
		logx.Int("delivered", sum.Delivered),
		logx.Int("failed", sum.Failed),
		logx.Int("rate_limit_waits", sum.RateLimitWaits),
		logx.Duration("elapsed", sum.Elapsed))
	return sum
}
