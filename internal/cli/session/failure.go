package session

import (
	"errors"

	"github.com/rechargex-dev/rechargex/internal/cli/client"
)

// Kind classifies a failed session operation
type Kind int

const (
	KindAuthentication Kind = iota + 1
	KindNetwork
	KindInvalidResponse
	KindNotLoggedIn
	KindStorage
)

const networkMessage = "Network error. Please try again."

// Failure is the result of an unsuccessful session operation. Message is
// meant to be shown to the user as is.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// fail converts a backend call error into a Failure. fallback is used when the
// backend answered without a usable message.
func fail(err error, fallback string) *Failure {
	if errors.Is(err, client.ErrNetwork) {
		return &Failure{Kind: KindNetwork, Message: networkMessage, Err: err}
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = fallback
		}
		return &Failure{Kind: KindAuthentication, Message: msg, Err: err}
	}
	return &Failure{Kind: KindInvalidResponse, Message: fallback, Err: err}
}
