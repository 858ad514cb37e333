package transport

import (
	"errors"
	"sync"

	"github.com/zurustar/confsync/internal/address"
	"github.com/zurustar/confsync/internal/auth"
)

var (
	// ErrNotRunning is returned when sending before Start or after Close
	ErrNotRunning = errors.New("transport not running")
	// ErrUnknownOperation is returned for an operation the transport does not track
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrNoDialog is returned when notifying a peer that never subscribed
	ErrNoDialog = errors.New("no subscription dialog")
)

// OutcomeState is the registration result reported by the transport
type OutcomeState int

const (
	OutcomeProgress OutcomeState = iota
	OutcomeOk
	OutcomeCleared
	OutcomeFailed
)

// String returns the string representation of the outcome
func (s OutcomeState) String() string {
	switch s {
	case OutcomeProgress:
		return "progress"
	case OutcomeOk:
		return "ok"
	case OutcomeCleared:
		return "cleared"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is delivered when a REGISTER transaction completes
type Outcome struct {
	State   OutcomeState
	Contact *address.Address
	Code    int
	Reason  string
}

// RegisterRequest describes a REGISTER to send
type RegisterRequest struct {
	Server   *address.Address
	Identity *address.Address
	Routes   []*address.Address
	Expires  int
	// Privacy values sent in a Privacy header, empty for none
	Privacy []string
	// Contact overrides the locally computed contact when set
	Contact *address.Address
	// Credentials answer digest challenges of the registrar
	Credentials auth.Credentials
}

// Operation is the handle of a registration. The user binding is
// cleared when the owner abandons the operation so late completions can
// be recognized.
type Operation struct {
	id      string
	request RegisterRequest

	mu   sync.Mutex
	user any
}

// NewOperation creates an operation handle bound to user
func NewOperation(id string, req RegisterRequest, user any) *Operation {
	return &Operation{id: id, request: req, user: user}
}

// ID returns the operation identifier
func (o *Operation) ID() string {
	return o.id
}

// Request returns the REGISTER parameters the operation was created with
func (o *Operation) Request() RegisterRequest {
	return o.request
}

// User returns the bound owner, or nil once released
func (o *Operation) User() any {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.user
}

// SetUser rebinds the operation. Passing nil releases it.
func (o *Operation) SetUser(user any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.user = user
}

// Subscription is the handle of an outgoing conference event subscription
type Subscription struct {
	ID         string
	Peer       *address.Address
	LastNotify uint
}

// Callbacks receives asynchronous transport events
type Callbacks interface {
	RegistrationStateChanged(op *Operation, outcome Outcome)
	// NotifyReceived delivers a conference-info body. subscriptionID is
	// empty when the NOTIFY does not belong to a known subscription.
	NotifyReceived(from *address.Address, subscriptionID string, body []byte)
	SubscribeReceived(conference, subscriber *address.Address, lastNotify uint)
	UnsubscribeReceived(conference, subscriber *address.Address)
	// SubscriptionTerminated reports a subscription opened by Subscribe
	// that the far end rejected, timed out or terminated.
	SubscriptionTerminated(subscriptionID string)
}

// Transport sends SIP requests on behalf of the state machines. No
// method blocks on the network; results come back through Callbacks.
type Transport interface {
	SendRegister(req RegisterRequest, user any) (*Operation, error)
	RefreshRegister(op *Operation, expires int) error
	Unregister(op *Operation) error
	SendPublish(identity *address.Address, expires int) error
	SendNotify(conference, peer *address.Address, body []byte) error
	Subscribe(peer *address.Address, lastNotify uint) (*Subscription, error)
	Unsubscribe(sub *Subscription) error
	SetCallbacks(cb Callbacks)
}
