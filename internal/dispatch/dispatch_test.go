package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"botcast/internal/transport"
	logx "botcast/pkg/logx"
)

// scriptedTransport replays a fixed sequence of outcomes, then falls back to
// a default. It never touches the network.
type scriptedTransport struct {
	mu       sync.Mutex
	script   []transport.Outcome
	fallback transport.Outcome
	calls    int
	entered  chan struct{} // closed on first Deliver, when set
	release  chan struct{} // Deliver blocks on this, when set
}

func (s *scriptedTransport) Deliver(ctx context.Context, to transport.Recipient, text string, opt *transport.SendOptions) transport.Outcome {
	s.mu.Lock()
	s.calls++
	if s.calls == 1 && s.entered != nil {
		close(s.entered)
	}
	var out transport.Outcome
	if len(s.script) > 0 {
		out = s.script[0]
		s.script = s.script[1:]
	} else {
		out = s.fallback
	}
	release := s.release
	s.mu.Unlock()

	if release != nil {
		<-release
	}
	return out
}

func (s *scriptedTransport) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testDispatcher(tr transport.Transporter, opts ...Option) *Dispatcher {
	base := []Option{WithPollInterval(time.Millisecond), WithCycleFloor(0)}
	return New(tr, nil, logx.Nop(), append(base, opts...)...)
}

func checkAccounting(t *testing.T, sum Summary) {
	t.Helper()
	if sum.Delivered+sum.Failed != sum.Attempts {
		t.Fatalf("accounting broken: delivered %d + failed %d != attempts %d",
			sum.Delivered, sum.Failed, sum.Attempts)
	}
}

func TestSendRepeatedAllDelivered(t *testing.T) {
	tr := &scriptedTransport{fallback: transport.Delivered()}
	d := testDispatcher(tr)

	sum, err := d.SendRepeated(context.Background(), SingleRequest{
		To:    transport.RecipientID(42),
		Text:  "hello",
		Count: 5,
	})
	if err != nil {
		t.Fatalf("SendRepeated: %v", err)
	}
	if sum.Attempts != 5 || sum.Delivered != 5 || sum.Failed != 0 {
		t.Fatalf("unexpected counters: %+v", sum)
	}
	if sum.StopReason != StopCompleted {
		t.Fatalf("expected %s, got %s", StopCompleted, sum.StopReason)
	}
	if !sum.Succeeded() {
		t.Fatalf("session with deliveries must report success")
	}
	checkAccounting(t, sum)
}

func TestSendRepeatedMixedOutcomes(t *testing.T) {
	tr := &scriptedTransport{
		script: []transport.Outcome{
			transport.Delivered(),
			transport.Rejected("chat not found"),
			transport.Failure("request timed out"),
			transport.Delivered(),
		},
	}
	d := testDispatcher(tr)

	sum, err := d.SendRepeated(context.Background(), SingleRequest{
		To:    transport.RecipientID(42),
		Text:  "hello",
		Count: 4,
	})
	if err != nil {
		t.Fatalf("SendRepeated: %v", err)
	}
	if sum.Attempts != 4 || sum.Delivered != 2 || sum.Failed != 2 {
		t.Fatalf("unexpected counters: %+v", sum)
	}
	if !strings.Contains(sum.LastError, "request timed out") {
		t.Fatalf("expected last transport error to survive, got %q", sum.LastError)
	}
	checkAccounting(t, sum)
}

func TestRateLimitedRetryConverts(t *testing.T) {
	tr := &scriptedTransport{
		script: []transport.Outcome{
			transport.RateLimited(2 * time.Millisecond),
			transport.Delivered(),
		},
	}
	d := testDispatcher(tr)

	sum, err := d.SendRepeated(context.Background(), SingleRequest{
		To:    transport.RecipientID(42),
		Text:  "hello",
		Count: 1,
	})
	if err != nil {
		t.Fatalf("SendRepeated: %v", err)
	}
	// The retry is not a new attempt; its success converts the speculative
	// failure back.
	if sum.Attempts != 1 || sum.Delivered != 1 || sum.Failed != 0 {
		t.Fatalf("unexpected counters: %+v", sum)
	}
	if sum.RateLimitWaits != 1 {
		t.Fatalf("expected 1 rate-limit wait, got %d", sum.RateLimitWaits)
	}
	if sum.LastError != "" {
		t.Fatalf("converted attempt must clear the error, got %q", sum.LastError)
	}
	if tr.callCount() != 2 {
		t.Fatalf("expected 2 transport calls, got %d", tr.callCount())
	}
	checkAccounting(t, sum)
}

func TestRateLimitedRetryRateLimitedAgain(t *testing.T) {
	tr := &scriptedTransport{
		script: []transport.Outcome{
			transport.RateLimited(time.Millisecond),
			transport.RateLimited(time.Millisecond),
		},
		fallback: transport.Delivered(),
	}
	d := testDispatcher(tr)

	sum, err := d.SendRepeated(context.Background(), SingleRequest{
		To:    transport.RecipientID(42),
		Text:  "hello",
		Count: 1,
	})
	if err != nil {
		t.Fatalf("SendRepeated: %v", err)
	}
	// Only one retry per attempt: the second rate limit stays a failure.
	if sum.Attempts != 1 || sum.Delivered != 0 || sum.Failed != 1 {
		t.Fatalf("unexpected counters: %+v", sum)
	}
	if sum.RateLimitWaits != 1 {
		t.Fatalf("only the first rate limit waits, got %d", sum.RateLimitWaits)
	}
	if tr.callCount() != 2 {
		t.Fatalf("no second retry allowed, got %d transport calls", tr.callCount())
	}
	checkAccounting(t, sum)
}

func TestInvalidCredentialStopsSession(t *testing.T) {
	tr := &scriptedTransport{
		script: []transport.Outcome{
			transport.Delivered(),
			transport.InvalidCredential(),
		},
		fallback: transport.Delivered(),
	}
	d := testDispatcher(tr)

	sum, err := d.SendRepeated(context.Background(), SingleRequest{
		To:    transport.RecipientID(42),
		Text:  "hello",
		Count: 10,
	})
	if err != nil {
		t.Fatalf("SendRepeated: %v", err)
	}
	if sum.StopReason != StopFatalCredential {
		t.Fatalf("expected %s, got %s", StopFatalCredential, sum.StopReason)
	}
	if sum.Attempts != 2 || sum.Delivered != 1 || sum.Failed != 1 {
		t.Fatalf("unexpected counters: %+v", sum)
	}
	if tr.callCount() != 2 {
		t.Fatalf("session must stop immediately, got %d transport calls", tr.callCount())
	}
	checkAccounting(t, sum)
}

func TestSingleRequestValidation(t *testing.T) {
	d := testDispatcher(&scriptedTransport{fallback: transport.Delivered()})
	to := transport.RecipientID(42)

	cases := []struct {
		name string
		req  SingleRequest
		want error
	}{
		{"empty recipient", SingleRequest{Text: "x", Count: 1}, ErrEmptyRecipient},
		{"empty text", SingleRequest{To: to, Text: "  ", Count: 1}, ErrEmptyMessage},
		{"zero count", SingleRequest{To: to, Text: "x", Count: 0}, ErrBadCount},
		{"negative delay", SingleRequest{To: to, Text: "x", Count: 1, Delay: -time.Second}, ErrNegativeDelay},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := d.SendRepeated(context.Background(), tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestBroadcastRequestValidation(t *testing.T) {
	d := testDispatcher(&scriptedTransport{fallback: transport.Delivered()})
	recipients := []transport.Recipient{transport.RecipientID(1)}

	cases := []struct {
		name string
		req  BroadcastRequest
		want error
	}{
		{"no recipients", BroadcastRequest{Text: "x", Delay: time.Millisecond, Duration: time.Millisecond}, ErrNoRecipients},
		{"empty text", BroadcastRequest{Recipients: recipients, Text: " ", Delay: time.Millisecond, Duration: time.Millisecond}, ErrEmptyMessage},
		{"zero delay", BroadcastRequest{Recipients: recipients, Text: "x", Duration: time.Millisecond}, ErrBadDelay},
		{"zero duration", BroadcastRequest{Recipients: recipients, Text: "x", Delay: time.Millisecond}, ErrBadDuration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := d.Broadcast(context.Background(), tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestGateRejectsConcurrentSession(t *testing.T) {
	tr := &scriptedTransport{
		fallback: transport.Delivered(),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	d := testDispatcher(tr)

	done := make(chan Summary, 1)
	go func() {
		sum, _ := d.SendRepeated(context.Background(), SingleRequest{
			To: transport.RecipientID(42), Text: "hello", Count: 1,
		})
		done <- sum
	}()

	<-tr.entered
	if _, err := d.SendRepeated(context.Background(), SingleRequest{
		To: transport.RecipientID(43), Text: "hi", Count: 1,
	}); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected %v while a session is running, got %v", ErrSessionActive, err)
	}
	if _, err := d.Broadcast(context.Background(), BroadcastRequest{
		Recipients: []transport.Recipient{transport.RecipientID(1)},
		Text:       "hi", Delay: time.Millisecond, Duration: time.Millisecond,
	}); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected %v for broadcast too, got %v", ErrSessionActive, err)
	}

	close(tr.release)
	sum := <-done
	if sum.Delivered != 1 {
		t.Fatalf("first session should finish normally: %+v", sum)
	}

	// Gate must be free again.
	if _, err := d.SendRepeated(context.Background(), SingleRequest{
		To: transport.RecipientID(42), Text: "hello", Count: 1,
	}); err != nil {
		t.Fatalf("gate not released: %v", err)
	}
}

func TestBroadcastSweepsUntilDeadline(t *testing.T) {
	tr := &scriptedTransport{fallback: transport.Delivered()}
	d := testDispatcher(tr)

	recipients := []transport.Recipient{
		transport.RecipientID(1),
		transport.RecipientID(2),
		transport.RecipientHandle("charlie"),
	}
	sum, err := d.Broadcast(context.Background(), BroadcastRequest{
		Recipients: recipients,
		Text:       "sweep",
		Delay:      time.Millisecond,
		Duration:   60 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if sum.StopReason != StopDeadlineExpired {
		t.Fatalf("expected %s, got %s", StopDeadlineExpired, sum.StopReason)
	}
	if sum.Mode != ModeCyclic {
		t.Fatalf("expected cyclic mode, got %s", sum.Mode)
	}
	// At least one full sweep fits into the window.
	if sum.Attempts < len(recipients) {
		t.Fatalf("expected at least one full sweep (%d attempts), got %d", len(recipients), sum.Attempts)
	}
	if sum.Delivered != sum.Attempts {
		t.Fatalf("all deliveries succeed here: %+v", sum)
	}
	checkAccounting(t, sum)
}

func TestBroadcastDeadlineCancelsPendingRetry(t *testing.T) {
	tr := &scriptedTransport{
		script:   []transport.Outcome{transport.RateLimited(time.Second)},
		fallback: transport.Delivered(),
	}
	d := testDispatcher(tr)

	sum, err := d.Broadcast(context.Background(), BroadcastRequest{
		Recipients: []transport.Recipient{transport.RecipientID(1)},
		Text:       "sweep",
		Delay:      time.Millisecond,
		Duration:   20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if sum.StopReason != StopDeadlineExpired {
		t.Fatalf("expected %s, got %s", StopDeadlineExpired, sum.StopReason)
	}
	// The deadline tripped inside the rate-limit wait: the attempt stays a
	// failure and the retry is never made.
	if sum.Attempts != 1 || sum.Failed != 1 || sum.Delivered != 0 {
		t.Fatalf("unexpected counters: %+v", sum)
	}
	if tr.callCount() != 1 {
		t.Fatalf("retry must be cancelled by the deadline, got %d transport calls", tr.callCount())
	}
	checkAccounting(t, sum)
}

func TestBroadcastCancelledContextAborts(t *testing.T) {
	tr := &scriptedTransport{fallback: transport.Delivered()}
	d := testDispatcher(tr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := d.Broadcast(ctx, BroadcastRequest{
		Recipients: []transport.Recipient{transport.RecipientID(1)},
		Text:       "sweep",
		Delay:      time.Millisecond,
		Duration:   time.Minute,
	})
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if sum.StopReason != StopAborted {
		t.Fatalf("expected %s, got %s", StopAborted, sum.StopReason)
	}
	if sum.Attempts != 0 {
		t.Fatalf("no attempt starts after cancellation, got %d", sum.Attempts)
	}
}

func TestAttemptSkipDelayFlag(t *testing.T) {
	tr := &scriptedTransport{
		script: []transport.Outcome{
			transport.Delivered(),
			transport.RateLimited(time.Millisecond),
			transport.Delivered(),
		},
	}
	d := testDispatcher(tr)
	s := newSession(ModeSingle)
	to := transport.RecipientID(42)

	if res := d.attempt(context.Background(), s, to, "x", "send 1/2", time.Time{}); res.skipDelay {
		t.Fatalf("plain delivery must not skip the delay")
	}
	if res := d.attempt(context.Background(), s, to, "x", "send 2/2", time.Time{}); !res.skipDelay {
		t.Fatalf("rate-limit wait already paced the loop; delay must be skipped")
	}
}

func TestPanickingReporterDoesNotKillSession(t *testing.T) {
	tr := &scriptedTransport{fallback: transport.Delivered()}
	boom := ReporterFunc(func(line string, sev Severity) { panic("reporter bug") })
	d := New(tr, boom, logx.Nop(), WithPollInterval(time.Millisecond), WithCycleFloor(0))

	sum, err := d.SendRepeated(context.Background(), SingleRequest{
		To: transport.RecipientID(42), Text: "hello", Count: 3,
	})
	if err != nil {
		t.Fatalf("SendRepeated: %v", err)
	}
	if sum.Delivered != 3 || sum.StopReason != StopCompleted {
		t.Fatalf("reporter panics must not affect dispatch: %+v", sum)
	}
}

func TestSummaryString(t *testing.T) {
	sum := Summary{
		StopReason:     StopDeadlineExpired,
		Elapsed:        1500 * time.Millisecond,
		Attempts:       7,
		Delivered:      5,
		Failed:         2,
		RateLimitWaits: 1,
		LastError:      "42: rate limited",
	}
	got := sum.String()
	want := "finished (deadline-expired) in 1.50s: attempts 7, delivered 5, failed 2, rate-limit waits 1. last error: 42: rate limited"
	if got != want {
		t.Fatalf("summary line mismatch:\n got %q\nwant %q", got, want)
	}
}
