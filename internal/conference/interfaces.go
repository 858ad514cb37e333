package conference

import (
	"errors"

	"github.com/zurustar/confsync/internal/address"
	"github.com/zurustar/confsync/internal/transport"
)

var (
	// ErrEntityMismatch is returned when a document addresses another conference
	ErrEntityMismatch = errors.New("conference entity mismatch")
	// ErrVersionGap is returned when a partial document does not follow lastNotify
	ErrVersionGap = errors.New("notify version gap")
	// ErrTerminated is returned by a handler that has been torn down
	ErrTerminated = errors.New("conference terminated")
	// ErrStaleNotify is returned for a notify of a superseded subscription
	// or a full document older than lastNotify
	ErrStaleNotify = errors.New("stale notify")
	// ErrParticipantExists is returned when adding an address-equal participant twice
	ErrParticipantExists = errors.New("participant already exists")
	// ErrUnknownParticipant is returned when the participant is not a member
	ErrUnknownParticipant = errors.New("unknown participant")
	// ErrDeviceExists is returned when adding a device twice to a participant
	ErrDeviceExists = errors.New("device already exists")
	// ErrUnknownDevice is returned when the device does not belong to the participant
	ErrUnknownDevice = errors.New("unknown device")
	// ErrInvalidDeviceState is returned for a device state name that does not exist
	ErrInvalidDeviceState = errors.New("invalid device state")
)

// Identity binds a handler to one conference
type Identity struct {
	// Peer is the conference address (the focus entity)
	Peer *address.Address
	// Local is the address of the observing account
	Local *address.Address
}

// Listener receives conference events
type Listener interface {
	HandleEvent(ev Event)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(ev Event)

// HandleEvent calls f(ev)
func (f ListenerFunc) HandleEvent(ev Event) {
	f(ev)
}

// Subscriber opens and closes conference event subscriptions
type Subscriber interface {
	Subscribe(peer *address.Address, lastNotify uint) (*transport.Subscription, error)
	Unsubscribe(sub *transport.Subscription) error
}

// Notifier delivers a serialized document to one subscriber
type Notifier interface {
	SendNotify(peer *address.Address, body []byte) error
}
