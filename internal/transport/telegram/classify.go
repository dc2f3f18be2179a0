package telegram

import (
	"errors"
	"net/http"
	"time"

	tele "gopkg.in/telebot.v4"

	"botcast/internal/transport"
)

// classify maps telebot's error taxonomy onto the outcome variants.
//
//   - 429 + retry_after  -> RateLimited, surfacing the mandated backoff verbatim
//   - 401               -> InvalidCredential (fatal to the session)
//   - other API errors  -> Rejected (bad recipient, permissions, content)
//   - everything else   -> TransportFailure (network, timeouts)
func classify(err error) transport.Outcome {
	if err == nil {
		return transport.Delivered()
	}

	// telebot returns FloodError by value in some paths and wrapped in others.
	var floodVal tele.FloodError
	if errors.As(err, &floodVal) {
		return transport.RateLimited(time.Duration(floodVal.RetryAfter) * time.Second)
	}
	var floodPtr *tele.FloodError
	if errors.As(err, &floodPtr) && floodPtr != nil {
		return transport.RateLimited(time.Duration(floodPtr.RetryAfter) * time.Second)
	}

	var apiErr *tele.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		if apiErr.Code == http.StatusUnauthorized {
			return transport.InvalidCredential()
		}
		return transport.Rejected(apiErr.Error())
	}

	return transport.Failure(err.Error())
}
