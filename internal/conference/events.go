package conference

import (
	"time"

	"github.com/samber/lo"

	"github.com/zurustar/confsync/internal/address"
)

// EventKind identifies an event variant
type EventKind int

const (
	KindParticipantAdded EventKind = iota
	KindParticipantRemoved
	KindParticipantSetAdmin
	KindParticipantDeviceAdded
	KindParticipantDeviceRemoved
	KindParticipantDeviceStateChanged
	KindSubjectChanged
	KindStateChanged
	KindFullStateReceived
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case KindParticipantAdded:
		return "participant-added"
	case KindParticipantRemoved:
		return "participant-removed"
	case KindParticipantSetAdmin:
		return "participant-set-admin"
	case KindParticipantDeviceAdded:
		return "participant-device-added"
	case KindParticipantDeviceRemoved:
		return "participant-device-removed"
	case KindParticipantDeviceStateChanged:
		return "participant-device-state-changed"
	case KindSubjectChanged:
		return "subject-changed"
	case KindStateChanged:
		return "state-changed"
	case KindFullStateReceived:
		return "full-state-received"
	default:
		return "unknown"
	}
}

// EventInfo is common to every event
type EventInfo struct {
	Time      time.Time
	FullState bool
	NotifyID  uint
}

// Info returns the common event fields
func (i EventInfo) Info() EventInfo {
	return i
}

// Event is one conference state delta. The set of variants is closed.
type Event interface {
	Info() EventInfo
	Kind() EventKind
	isEvent()
}

type ParticipantAdded struct {
	EventInfo
	Participant *address.Address
}

type ParticipantRemoved struct {
	EventInfo
	Participant *address.Address
}

type ParticipantSetAdmin struct {
	EventInfo
	Participant *address.Address
	Admin       bool
}

type ParticipantDeviceAdded struct {
	EventInfo
	Participant *address.Address
	Device      *address.Address
}

type ParticipantDeviceRemoved struct {
	EventInfo
	Participant *address.Address
	Device      *address.Address
}

type ParticipantDeviceStateChanged struct {
	EventInfo
	Participant *address.Address
	Device      *address.Address
	State       DeviceState
}

type SubjectChanged struct {
	EventInfo
	Subject string
}

// StateChanged reports a lifecycle change of a remote handler
type StateChanged struct {
	EventInfo
	State RemoteState
}

// FullStateReceived follows the deltas of an applied full document
type FullStateReceived struct {
	EventInfo
}

func (ParticipantAdded) Kind() EventKind              { return KindParticipantAdded }
func (ParticipantRemoved) Kind() EventKind            { return KindParticipantRemoved }
func (ParticipantSetAdmin) Kind() EventKind           { return KindParticipantSetAdmin }
func (ParticipantDeviceAdded) Kind() EventKind        { return KindParticipantDeviceAdded }
func (ParticipantDeviceRemoved) Kind() EventKind      { return KindParticipantDeviceRemoved }
func (ParticipantDeviceStateChanged) Kind() EventKind { return KindParticipantDeviceStateChanged }
func (SubjectChanged) Kind() EventKind                { return KindSubjectChanged }
func (StateChanged) Kind() EventKind                  { return KindStateChanged }
func (FullStateReceived) Kind() EventKind             { return KindFullStateReceived }

func (ParticipantAdded) isEvent()              {}
func (ParticipantRemoved) isEvent()            {}
func (ParticipantSetAdmin) isEvent()           {}
func (ParticipantDeviceAdded) isEvent()        {}
func (ParticipantDeviceRemoved) isEvent()      {}
func (ParticipantDeviceStateChanged) isEvent() {}
func (SubjectChanged) isEvent()                {}
func (StateChanged) isEvent()                  {}
func (FullStateReceived) isEvent()             {}

type listenerEntry struct {
	id       int
	listener Listener
}

// Dispatcher fans events out to listeners in registration order
type Dispatcher struct {
	listeners []listenerEntry
	nextID    int
}

// AddListener registers l and returns an id for RemoveListener
func (d *Dispatcher) AddListener(l Listener) int {
	d.nextID++
	d.listeners = append(d.listeners, listenerEntry{id: d.nextID, listener: l})
	return d.nextID
}

// RemoveListener unregisters a listener
func (d *Dispatcher) RemoveListener(id int) bool {
	before := len(d.listeners)
	d.listeners = lo.Reject(d.listeners, func(e listenerEntry, _ int) bool {
		return e.id == id
	})
	return len(d.listeners) != before
}

// Dispatch delivers events in order to every listener
func (d *Dispatcher) Dispatch(events ...Event) {
	deliver(d.snapshot(), events...)
}

// snapshot copies the listeners, which may unregister while being called
func (d *Dispatcher) snapshot() []listenerEntry {
	return append([]listenerEntry(nil), d.listeners...)
}

func deliver(listeners []listenerEntry, events ...Event) {
	for _, ev := range events {
		for _, e := range listeners {
			e.listener.HandleEvent(ev)
		}
	}
}
