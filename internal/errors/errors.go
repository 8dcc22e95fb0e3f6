// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package errors

import (
	"errors"
	"fmt"
)

// Kind categorizes the error taxonomy of the controller's packet-in
// dispatcher and supporting components.
type Kind int

const (
	KindUnknown Kind = iota
	KindInternal
	KindValidation

	// KindUnknownProtocol: packet is neither TCP nor ARP.
	KindUnknownProtocol
	// KindUnmatchedReturn: server-to-client packet has no flow-memory entry.
	KindUnmatchedReturn
	// KindNoBackends: service-IP packet arrived with an empty live-set.
	KindNoBackends
	// KindNoEligibleBackend: live-set non-empty but disjoint from the required partition.
	KindNoEligibleBackend
	// KindUnknownSwitch: a second datapath tried to attach.
	KindUnknownSwitch
	// KindUnknownUpdateTarget: mark_updated named an IP outside the backend set.
	KindUnknownUpdateTarget
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindValidation:
		return "validation"
	case KindUnknownProtocol:
		return "unknown_protocol"
	case KindUnmatchedReturn:
		return "unmatched_return"
	case KindNoBackends:
		return "no_backends"
	case KindNoEligibleBackend:
		return "no_eligible_backend"
	case KindUnknownSwitch:
		return "unknown_switch"
	case KindUnknownUpdateTarget:
		return "unknown_update_target"
	default:
		return "unknown"
	}
}

// Error is a structured, kind-tagged error.
type Error struct {
	Kind       Kind
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// New creates a new Error of the specified kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Errorf creates a new Error of the specified kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error as a new Error of the specified kind.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, Underlying: err}
}

// KindOf returns the Kind of err, or KindUnknown if it isn't one of ours.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
