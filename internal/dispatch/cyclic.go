package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"botcast/internal/transport"
	logx "botcast/pkg/logx"
)

// BroadcastRequest asks for repeated sweeps over Recipients until Duration
// of wall-clock time has elapsed, one message per recipient per sweep.
type BroadcastRequest struct {
	Recipients []transport.Recipient
	Text       string
	Delay      time.Duration
	Duration   time.Duration
}

func (r BroadcastRequest) validate() error {
	if len(r.Recipients) == 0 {
		return ErrNoRecipients
	}
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyMessage
	}
	if r.Delay <= 0 {
		return ErrBadDelay
	}
	if r.Duration <= 0 {
		return ErrBadDuration
	}
	return nil
}

// Broadcast runs the cyclic loop: sweep the captured recipient set, pause to
// the cycle floor, sweep again, until the deadline trips. The deadline is
// checked before every attempt and inside every wait, so no new send starts
// past it; a send already in flight is allowed to finish.
func (d *Dispatcher) Broadcast(ctx context.Context, req BroadcastRequest) (sum Summary, err error) {
	if err := req.validate(); err != nil {
		return Summary{}, err
	}
	if !d.gate.TryAcquire() {
		return Summary{}, ErrSessionActive
	}
	defer d.gate.Release()

	// Capture the recipient set once, in stable order; discovery is not
	// re-run mid-session.
	recipients := make([]transport.Recipient, len(req.Recipients))
	copy(recipients, req.Recipients)
	sort.Slice(recipients, func(i, j int) bool { return recipients[i].String() < recipients[j].String() })

	s := newSession(ModeCyclic)
	s.deadline = s.startedAt.Add(req.Duration)
	log := d.log.With(logx.String("session", s.id), logx.String("mode", string(s.mode)))

	defer func() {
		if r := recover(); r != nil {
			log.Error("broadcast loop panic", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
			s.lastError = fmt.Sprintf("internal error: %v", r)
			s.stopReason = StopAborted
			sum = d.finish(s, log)
			err = nil
		}
	}()

	d.report(fmt.Sprintf("starting cyclic broadcast to %d recipient(s) for %.1f min, %.1fs delay, text: %s",
		len(recipients), req.Duration.Minutes(), req.Delay.Seconds(), Preview(req.Text)), SeverityWarning)
	log.Info("cyclic session started",
		logx.Int("recipients", len(recipients)),
		logx.Duration("delay", req.Delay),
		logx.Duration("duration", req.Duration))

	sweep := 0
sweeps:
	for {
		if ctx.Err() != nil {
			s.stopReason = StopAborted
			break
		}
		if expired(s.deadline) {
			s.stopReason = StopDeadlineExpired
			break
		}

		sweep++
		d.report(fmt.Sprintf("starting sweep %d (%.1f min left)", sweep, time.Until(s.deadline).Minutes()), SeverityInfo)
		sweepStart := time.Now()

		for i, to := range recipients {
			if ctx.Err() != nil {
				s.stopReason = StopAborted
				break sweeps
			}
			if expired(s.deadline) {
				s.stopReason = StopDeadlineExpired
				d.report("broadcast time is up, stopping the current sweep", SeverityWarning)
				break sweeps
			}

			label := fmt.Sprintf("sweep %d", sweep)
			res := d.attempt(ctx, s, to, req.Text, label, s.deadline)
			switch {
			case res.fatal:
				s.stopReason = StopFatalCredential
				break sweeps
			case res.interrupted == waitDeadline:
				s.stopReason = StopDeadlineExpired
				d.report("broadcast time expired during a rate-limit wait", SeverityWarning)
				break sweeps
			case res.interrupted == waitCancelled:
				s.stopReason = StopAborted
				break sweeps
			}

			if i < len(recipients)-1 && !res.skipDelay {
				switch d.wait(ctx, req.Delay, s.deadline) {
				case waitDeadline:
					s.stopReason = StopDeadlineExpired
					d.report("broadcast time expired during the inter-recipient delay", SeverityWarning)
					break sweeps
				case waitCancelled:
					s.stopReason = StopAborted
					break sweeps
				}
			}
		}

		// Pad pathologically fast sweeps so a tiny recipient set doesn't
		// hammer the API in a tight loop.
		if took := time.Since(sweepStart); took < d.cycleFloor {
			switch d.wait(ctx, d.cycleFloor-took, s.deadline) {
			case waitDeadline:
				s.stopReason = StopDeadlineExpired
				break sweeps
			case waitCancelled:
				s.stopReason = StopAborted
				break sweeps
			}
		}
	}

	return d.finish(s, log), nil
}
