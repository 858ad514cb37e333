package proxy

import (
	"errors"

	"github.com/zurustar/confsync/internal/address"
	"github.com/zurustar/confsync/internal/transport"
)

var (
	ErrNoServer             = errors.New("account has no server address")
	ErrNoIdentity           = errors.New("account has no identity")
	ErrUnresolvedDependency = errors.New("account depends on an unknown idkey")
	ErrSelfDependency       = errors.New("account cannot depend on itself")
	ErrChainedDependency    = errors.New("account cannot depend on a dependent account")
	ErrNotInList            = errors.New("account is not in the list")
)

// RegistrationState is the state of an account registration
type RegistrationState int

const (
	RegistrationNone RegistrationState = iota
	RegistrationProgress
	RegistrationOk
	RegistrationCleared
	RegistrationFailed
)

// String returns the string representation of the registration state
func (s RegistrationState) String() string {
	switch s {
	case RegistrationNone:
		return "none"
	case RegistrationProgress:
		return "progress"
	case RegistrationOk:
		return "ok"
	case RegistrationCleared:
		return "cleared"
	case RegistrationFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StateFromOutcome maps a transport outcome onto a registration state
func StateFromOutcome(s transport.OutcomeState) RegistrationState {
	switch s {
	case transport.OutcomeProgress:
		return RegistrationProgress
	case transport.OutcomeOk:
		return RegistrationOk
	case transport.OutcomeCleared:
		return RegistrationCleared
	default:
		return RegistrationFailed
	}
}

// Registrar is the part of the transport the registration state machine drives
type Registrar interface {
	SendRegister(req transport.RegisterRequest, user any) (*transport.Operation, error)
	RefreshRegister(op *transport.Operation, expires int) error
	Unregister(op *transport.Operation) error
	SendPublish(identity *address.Address, expires int) error
}

// StateListener is told about every reported registration state
type StateListener func(acc *Account, state RegistrationState, reason string)
