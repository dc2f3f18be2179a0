package dispatch

import (
	"context"
	"fmt"
	"time"

	"botcast/internal/transport"
	logx "botcast/pkg/logx"
)

const (
	// defaultPoll is the granularity at which waits re-check the deadline
	// and the context, so expiry is detected within ~100ms instead of only
	// at the next full-length wait boundary.
	defaultPoll = 100 * time.Millisecond

	// defaultCycleFloor is the minimum duration of one cyclic sweep. Tiny
	// recipient sets with near-zero delays would otherwise spin-loop
	// against the API.
	defaultCycleFloor = time.Second
)

type Dispatcher struct {
	transport transport.Transporter
	reporter  Reporter
	gate      *Gate
	log       logx.Logger
	sendOpt   *transport.SendOptions

	poll       time.Duration
	cycleFloor time.Duration
}

type Option func(*Dispatcher)

// WithSendOptions sets the formatting mode used for every outbound message.
func WithSendOptions(opt *transport.SendOptions) Option {
	return func(d *Dispatcher) { d.sendOpt = opt }
}

// WithGate shares a session gate with other dispatchers (or with code that
// needs to observe whether a broadcast is running).
func WithGate(g *Gate) Option {
	return func(d *Dispatcher) {
		if g != nil {
			d.gate = g
		}
	}
}

// WithPollInterval overrides the deadline-check granularity. Tests use this
// to keep wall-clock runs short.
func WithPollInterval(poll time.Duration) Option {
	return func(d *Dispatcher) {
		if poll > 0 {
			d.poll = poll
		}
	}
}

// WithCycleFloor overrides the minimum sweep duration.
func WithCycleFloor(floor time.Duration) Option {
	return func(d *Dispatcher) {
		if floor >= 0 {
			d.cycleFloor = floor
		}
	}
}

func New(t transport.Transporter, r Reporter, log logx.Logger, opts ...Option) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	d := &Dispatcher{
		transport:  t,
		reporter:   r,
		gate:       &Gate{},
		log:        log,
		poll:       defaultPoll,
		cycleFloor: defaultCycleFloor,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Gate exposes the session gate for entry points that must be disabled while
// a broadcast is active.
func (d *Dispatcher) Gate() *Gate { return d.gate }

// report forwards a progress line and never lets the reporter hurt the loop.
func (d *Dispatcher) report(line string, sev Severity) {
	if d.reporter == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.log.Warn("progress reporter panicked", logx.Any("panic", r))
		}
	}()
	d.reporter.Report(line, sev)
}

type waitResult int

const (
	waitDone waitResult = iota
	waitDeadline
	waitCancelled
)

// wait suspends for w, polling deadline and ctx at the configured
// granularity. A zero deadline means "no deadline". It returns waitDeadline
// or waitCancelled as soon as either trips, without finishing the wait.
func (d *Dispatcher) wait(ctx context.Context, w time.Duration, deadline time.Time) waitResult {
	until := time.Now().Add(w)
	for {
		if ctx.Err() != nil {
			return waitCancelled
		}
		if expired(deadline) {
			return waitDeadline
		}
		remain := time.Until(until)
		if remain <= 0 {
			return waitDone
		}
		step := d.poll
		if remain < step {
			step = remain
		}
		timer := time.NewTimer(step)
		select {
		case <-ctx.Done():
			timer.Stop()
			return waitCancelled
		case <-timer.C:
		}
	}
}

// expired reports whether the deadline has passed. Zero means no deadline.
func expired(deadline time.Time) bool {
	return !deadline.IsZero() && !time.Now().Before(deadline)
}

type attemptResult struct {
	// skipDelay is set after a rate-limit wait: the wait already paced the
	// loop, so the inter-message delay for this iteration is forced to 0.
	skipDelay bool
	// fatal is set when the credential died; the whole session must stop.
	fatal bool
	// interrupted is non-waitDone when a rate-limit wait was cut short by
	// deadline expiry or cancellation; the pending retry is not made.
	interrupted waitResult
}

// attempt delivers once to a recipient and resolves the session counters for
// exactly one accounted attempt. A rate-limited first try is counted failed
// speculatively; the single permitted retry converts it back on success. The
// retry's own rate-limit (or any other retry failure) stays a plain failure,
// with no further automatic retries.
func (d *Dispatcher) attempt(ctx context.Context, s *session, to transport.Recipient, text, label string, deadline time.Time) attemptResult {
	out := d.transport.Deliver(ctx, to, text, d.sendOpt)
	s.attempts++

	switch out.Status {
	case transport.StatusDelivered:
		s.delivered++
		d.report(fmt.Sprintf("%s: delivered to %s", label, to), SeveritySuccess)
		return attemptResult{}

	case transport.StatusInvalidCredential:
		s.failed++
		s.lastError = out.Reason
		d.report(fmt.Sprintf("%s: token is no longer valid, stopping", label), SeverityError)
		return attemptResult{fatal: true}

	case transport.StatusRateLimited:
		// Speculative failure; a successful retry converts it so that
		// delivered+failed == attempts holds across the retry branch.
		s.failed++
		s.lastError = fmt.Sprintf("%s: rate limited", to)
		s.rateLimitWaits++
		d.report(fmt.Sprintf("%s: rate limited for %s, waiting %.1fs", label, to, out.RetryAfter.Seconds()), SeverityWarning)

		if res := d.wait(ctx, out.RetryAfter, deadline); res != waitDone {
			return attemptResult{interrupted: res}
		}

		retry := d.transport.Deliver(ctx, to, text, d.sendOpt)
		switch retry.Status {
		case transport.StatusDelivered:
			s.failed--
			s.delivered++
			s.lastError = ""
			d.report(fmt.Sprintf("%s: delivered to %s after rate-limit wait", label, to), SeveritySuccess)
		case transport.StatusInvalidCredential:
			s.lastError = retry.Reason
			d.report(fmt.Sprintf("%s: token is no longer valid, stopping", label), SeverityError)
			return attemptResult{fatal: true, skipDelay: true}
		case transport.StatusRateLimited:
			s.lastError = fmt.Sprintf("%s: rate limited again after wait", to)
			d.report(fmt.Sprintf("%s: retry for %s rate limited again, giving up on this attempt", label, to), SeverityError)
		default:
			s.lastError = fmt.Sprintf("%s: %s (after rate-limit wait)", to, retry.Reason)
			d.report(fmt.Sprintf("%s: retry for %s failed: %s", label, to, retry.Reason), SeverityError)
		}
		return attemptResult{skipDelay: true}

	default: // Rejected, TransportFailure
		s.failed++
		s.lastError = fmt.Sprintf("%s: %s", to, out.Reason)
		d.report(fmt.Sprintf("%s: send to %s failed: %s", label, to, out.Reason), SeverityError)
		return attemptResult{}
	}
}
