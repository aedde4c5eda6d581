package extraction

import (
	"errors"
	"fmt"
)

// User-visible messages for failures without a server-provided message.
const (
	MsgProcessingFailed = "Erro ao processar PDF"
	MsgNetworkFailed    = "Erro de conexão com o servidor"
)

// Failure kinds. Match them with errors.Is against an *Error.
var (
	ErrServerRejected          = errors.New("extraction rejected by server")
	ErrServerRejectedNoMessage = errors.New("extraction rejected by server without message")
	ErrNetwork                 = errors.New("extraction request failed")
	ErrInvalidResponse         = errors.New("invalid extraction response")
)

// Error is a failed extraction. Message is what the user sees; Err holds
// the underlying cause for logs.
type Error struct {
	Kind       error
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// UserMessage returns the message to surface for err: the Message of an
// *Error anywhere in the chain, otherwise err's own text.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
