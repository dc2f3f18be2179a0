package transport

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Recipient identifies one delivery target: a numeric chat id (negative for
// group/channel chats) or a username handle. Two recipients are equal iff
// their canonical string forms are equal.
type Recipient struct {
	id     int64
	handle string
	isID   bool
}

var ErrEmptyRecipient = errors.New("recipient is empty")

// ParseRecipient normalizes a raw target string: decimal integers (optionally
// signed) become id recipients, everything else becomes a handle with a
// leading "@" enforced.
func ParseRecipient(s string) (Recipient, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Recipient{}, ErrEmptyRecipient
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return RecipientID(id), nil
	}
	return RecipientHandle(s), nil
}

func RecipientID(id int64) Recipient {
	return Recipient{id: id, isID: true}
}

func RecipientHandle(h string) Recipient {
	h = strings.TrimSpace(h)
	if h != "" && !strings.HasPrefix(h, "@") {
		h = "@" + h
	}
	return Recipient{handle: h}
}

func (r Recipient) IsZero() bool {
	return !r.isID && r.handle == ""
}

// ChatID returns the numeric id and whether the recipient is id-addressed.
func (r Recipient) ChatID() (int64, bool) {
	return r.id, r.isID
}

// String returns the canonical form: the decimal id or the "@handle".
func (r Recipient) String() string {
	if r.isID {
		return strconv.FormatInt(r.id, 10)
	}
	return r.handle
}

// Status classifies one delivery attempt. Every transport error maps onto
// exactly one variant.
type Status int

const (
	StatusDelivered Status = iota
	StatusRateLimited
	StatusInvalidCredential
	StatusRejected
	StatusTransportFailure
)

func (s Status) String() string {
	switch s {
	case StatusDelivered:
		return "delivered"
	case StatusRateLimited:
		return "rate-limited"
	case StatusInvalidCredential:
		return "invalid-credential"
	case StatusRejected:
		return "rejected"
	case StatusTransportFailure:
		return "transport-failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of one delivery attempt.
//
// RetryAfter is set only for StatusRateLimited and carries the backoff the
// transport mandated. Reason is set for rejected/failed attempts.
type Outcome struct {
	Status     Status
	RetryAfter time.Duration
	Reason     string
}

func Delivered() Outcome { return Outcome{Status: StatusDelivered} }

func RateLimited(wait time.Duration) Outcome {
	return Outcome{Status: StatusRateLimited, RetryAfter: wait}
}

func InvalidCredential() Outcome {
	return Outcome{Status: StatusInvalidCredential, Reason: "credential is no longer valid"}
}

func Rejected(reason string) Outcome {
	return Outcome{Status: StatusRejected, Reason: reason}
}

func Failure(reason string) Outcome {
	return Outcome{Status: StatusTransportFailure, Reason: reason}
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Transporter is the outbound port both dispatch loops send through.
// Implementations must classify every underlying error into an Outcome and
// never panic.
type Transporter interface {
	Deliver(ctx context.Context, to Recipient, text string, opt *SendOptions) Outcome
}
