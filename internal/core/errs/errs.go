// Package errs defines the error kinds surfaced by label verification.
package errs

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is a client-correctable input problem (missing image or application data).
	KindValidation
	// KindOracleTransport is a network or HTTP failure talking to the extraction oracle.
	KindOracleTransport
	// KindOracleTimeout is an oracle call that exceeded its deadline.
	KindOracleTimeout
	// KindOracleContract is oracle output that does not match the expected shape.
	KindOracleContract
	// KindConfiguration is a misconfigured schema or service setting.
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindOracleTransport:
		return "oracle_transport"
	case KindOracleTimeout:
		return "oracle_timeout"
	case KindOracleContract:
		return "oracle_contract"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind      Kind
	Op        string
	Msg       string
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

func Configuration(op string, format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Contract(op string, format string, args ...any) error {
	return &Error{Kind: KindOracleContract, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Transport wraps err as an oracle transport failure.
func Transport(op string, err error, retryable bool) error {
	return &Error{Kind: KindOracleTransport, Op: op, Err: err, Retryable: retryable}
}

func Timeout(op string, err error) error {
	return &Error{Kind: KindOracleTimeout, Op: op, Err: err, Retryable: true}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable reports whether err is a transient oracle failure.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// Messages shown to callers. Internal detail stays in the log.
const (
	FailureMessage = "Verification failed. Please try again."
	TimeoutMessage = "Verification timed out. Please try again."
)

// Message returns the caller-facing text for err: the message of a
// validation error, otherwise a fixed phrase.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindValidation:
			return e.Msg
		case KindOracleTimeout:
			return TimeoutMessage
		}
	}
	return FailureMessage
}
