package conference

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/zurustar/confsync/internal/address"
	"github.com/zurustar/confsync/internal/confinfo"
	"github.com/zurustar/confsync/internal/logging"
	"github.com/zurustar/confsync/internal/transport"
)

// RemoteState is the lifecycle of a remote handler
type RemoteState int

const (
	RemoteUninitialized RemoteState = iota
	RemoteSynchronized
	RemoteTerminated
)

// String returns the string representation of the state
func (s RemoteState) String() string {
	switch s {
	case RemoteUninitialized:
		return "uninitialized"
	case RemoteSynchronized:
		return "synchronized"
	case RemoteTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// RemoteHandler follows a conference hosted elsewhere by applying the
// notify documents of its focus to a local Model. It is not safe for
// concurrent use; the host serializes calls.
type RemoteHandler struct {
	identity   Identity
	model      *Model
	me         *Participant
	dispatcher Dispatcher
	state      RemoteState

	subscriber   Subscriber
	subscription *transport.Subscription
	generation   uint64

	logger logging.Logger
	now    func() time.Time
}

// NewRemoteHandler creates a handler bound to identity. subscriber may be
// nil when documents are fed directly.
func NewRemoteHandler(identity Identity, subscriber Subscriber, logger logging.Logger) *RemoteHandler {
	h := &RemoteHandler{
		identity:   identity,
		model:      NewModel(),
		subscriber: subscriber,
		logger:     logger.With(logging.ConferenceField(identity.Peer.String())),
		now:        time.Now,
	}
	if identity.Local != nil {
		h.me = newParticipant(identity.Local)
	}
	return h
}

// Identity returns the conference binding
func (h *RemoteHandler) Identity() Identity {
	return h.identity
}

// Model returns the observed conference state
func (h *RemoteHandler) Model() *Model {
	return h.model
}

// Me returns the local participant, or nil when no local address is bound
func (h *RemoteHandler) Me() *Participant {
	return h.me
}

// State returns the handler lifecycle state
func (h *RemoteHandler) State() RemoteState {
	return h.state
}

// LastNotify returns the version of the last applied document
func (h *RemoteHandler) LastNotify() uint {
	return h.model.LastNotify()
}

// Generation changes on every subscribe and on teardown
func (h *RemoteHandler) Generation() uint64 {
	return h.generation
}

// Subscription returns the current subscription, or nil
func (h *RemoteHandler) Subscription() *transport.Subscription {
	return h.subscription
}

// AddListener registers a listener and returns its id
func (h *RemoteHandler) AddListener(l Listener) int {
	return h.dispatcher.AddListener(l)
}

// RemoveListener unregisters a listener
func (h *RemoteHandler) RemoveListener(id int) bool {
	return h.dispatcher.RemoveListener(id)
}

// Subscribe opens the event subscription, carrying lastNotify so the
// focus can replay what was missed. An existing subscription is replaced.
func (h *RemoteHandler) Subscribe() error {
	if h.state == RemoteTerminated {
		return ErrTerminated
	}
	if h.subscriber == nil {
		return fmt.Errorf("no subscriber for %s", h.identity.Peer)
	}
	h.dropSubscription()

	sub, err := h.subscriber.Subscribe(h.identity.Peer, h.model.LastNotify())
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", h.identity.Peer, err)
	}
	h.generation++
	h.subscription = sub
	h.logger.Debug("Subscribed to conference", logging.VersionField(h.model.LastNotify()))
	return nil
}

// Unsubscribe closes the event subscription if any
func (h *RemoteHandler) Unsubscribe() {
	h.dropSubscription()
}

func (h *RemoteHandler) dropSubscription() {
	if h.subscription == nil {
		return
	}
	sub := h.subscription
	h.subscription = nil
	h.generation++
	if h.subscriber == nil {
		return
	}
	if err := h.subscriber.Unsubscribe(sub); err != nil {
		h.logger.Warn("Failed to unsubscribe", logging.ErrorField(err))
	}
}

// SubscriptionTerminated forgets the subscription with id after the far
// end ended it. It reports whether id was the current subscription.
func (h *RemoteHandler) SubscriptionTerminated(id string) bool {
	if h.subscription == nil || h.subscription.ID != id {
		return false
	}
	h.subscription = nil
	h.generation++
	h.logger.Info("Subscription terminated by the focus", logging.StringField("subscription", id))
	return true
}

// Teardown unsubscribes and terminates the handler. Documents arriving
// afterwards are ignored.
func (h *RemoteHandler) Teardown() {
	if h.state == RemoteTerminated {
		return
	}
	h.dropSubscription()
	h.generation++
	h.setState(RemoteTerminated, EventInfo{Time: h.now(), NotifyID: h.model.LastNotify()})
}

// NotifyReceived parses and applies a conference-info body.
// subscriptionID identifies the subscription the NOTIFY was received on;
// an empty id skips the check. Protocol anomalies are absorbed: a
// mismatched entity is dropped and a version gap triggers a resubscribe.
// The returned error is diagnostic only.
func (h *RemoteHandler) NotifyReceived(subscriptionID string, body []byte) error {
	if h.state == RemoteTerminated {
		return ErrTerminated
	}
	if subscriptionID != "" && (h.subscription == nil || h.subscription.ID != subscriptionID) {
		h.logger.Debug("Ignoring notify of a superseded subscription", logging.StringField("subscription", subscriptionID))
		return ErrStaleNotify
	}

	doc, err := confinfo.Parse(body)
	if err != nil {
		h.logger.Error("Error while parsing conference-info notify", logging.ErrorField(err))
		return err
	}
	return h.Apply(doc)
}

// Apply applies a parsed document
func (h *RemoteHandler) Apply(doc *confinfo.Document) error {
	if h.state == RemoteTerminated {
		return ErrTerminated
	}

	entity, err := address.Parse(doc.Entity)
	if err != nil || !address.Same(entity, h.identity.Peer) {
		h.logger.Debug("Rejecting notify for another conference", logging.AddressField("entity", doc.Entity))
		return fmt.Errorf("%w: %s", ErrEntityMismatch, doc.Entity)
	}

	info := EventInfo{Time: h.eventTime(doc), NotifyID: doc.Version}

	switch doc.State.Effective() {
	case confinfo.StateDeleted:
		h.model.setLastNotify(max(h.model.LastNotify(), doc.Version))
		h.dropSubscription()
		h.setState(RemoteTerminated, info)
		return nil
	case confinfo.StatePartial:
		if h.state != RemoteSynchronized || doc.Version != h.model.LastNotify()+1 {
			h.logger.Warn("Notify version gap, requesting resync",
				logging.VersionField(doc.Version),
				logging.IntField("last_notify", int(h.model.LastNotify())))
			h.requestResync()
			return fmt.Errorf("%w: got %d after %d", ErrVersionGap, doc.Version, h.model.LastNotify())
		}
		events := h.applyDocument(doc, info)
		h.model.setLastNotify(doc.Version)
		h.dispatcher.Dispatch(events...)
		return nil
	default:
		if doc.Version < h.model.LastNotify() {
			h.logger.Debug("Ignoring outdated full state",
				logging.VersionField(doc.Version),
				logging.IntField("last_notify", int(h.model.LastNotify())))
			return fmt.Errorf("%w: full state %d older than %d", ErrStaleNotify, doc.Version, h.model.LastNotify())
		}
		info.FullState = true
		first := h.state == RemoteUninitialized
		events := h.applyDocument(doc, info)
		h.model.setLastNotify(doc.Version)
		if first || len(events) > 0 {
			events = append(events, FullStateReceived{EventInfo: info})
		}
		if first {
			h.state = RemoteSynchronized
			events = append([]Event{StateChanged{EventInfo: info, State: RemoteSynchronized}}, events...)
		}
		h.logger.Debug("Applied full state",
			logging.VersionField(doc.Version),
			logging.IntField("participants", h.model.ParticipantCount()))
		h.dispatcher.Dispatch(events...)
		return nil
	}
}

func (h *RemoteHandler) setState(state RemoteState, info EventInfo) {
	if h.state == state {
		return
	}
	h.state = state
	h.logger.Info("Conference handler state changed", logging.StateField(state))
	h.dispatcher.Dispatch(StateChanged{EventInfo: info, State: state})
}

func (h *RemoteHandler) requestResync() {
	if h.subscriber == nil {
		return
	}
	if err := h.Subscribe(); err != nil {
		h.logger.Warn("Resync failed", logging.ErrorField(err))
	}
}

// eventTime reads the unix timestamp the focus puts in free-text
func (h *RemoteHandler) eventTime(doc *confinfo.Document) time.Time {
	if doc.Description != nil {
		if secs, err := strconv.ParseInt(strings.TrimSpace(doc.Description.FreeText), 10, 64); err == nil {
			return time.Unix(secs, 0)
		}
	}
	return h.now()
}

// applyDocument mutates the model and returns the resulting deltas in
// document order.
func (h *RemoteHandler) applyDocument(doc *confinfo.Document, info EventInfo) []Event {
	var events []Event

	if desc := doc.Description; desc != nil {
		if subject, ok := doc.Subject(); ok && h.model.SetSubject(subject) {
			events = append(events, SubjectChanged{EventInfo: info, Subject: subject})
		}
		if desc.AvailableMedia != nil {
			h.model.SetAvailableMedia(lo.Map(desc.AvailableMedia.Entries, func(e confinfo.MediaEntry, _ int) AvailableMedia {
				return AvailableMedia{Label: e.Label, Type: e.Type, Status: e.Status, Display: e.DisplayText}
			}))
		}
	}
	if cs := doc.ConferenceState; cs != nil {
		count, active, locked := h.model.Counters()
		if cs.UserCount != nil {
			count = *cs.UserCount
		}
		if cs.Active != nil {
			active = *cs.Active
		}
		if cs.Locked != nil {
			locked = *cs.Locked
		}
		h.model.SetCounters(count, active, locked)
	}

	replaceAll := info.FullState
	if doc.Users != nil {
		switch doc.Users.State {
		case confinfo.StateFull:
			replaceAll = true
		case confinfo.StateDeleted:
			for _, p := range h.model.Participants() {
				h.model.RemoveParticipant(p)
				events = append(events, ParticipantRemoved{EventInfo: info, Participant: p.Address()})
			}
			return events
		}
	}

	seen := make(map[string]struct{})
	for _, u := range doc.UserList() {
		addr, err := address.Parse(u.Entity)
		if err != nil {
			h.logger.Warn("Skipping user with invalid entity", logging.AddressField("entity", u.Entity))
			continue
		}
		if u.State.Effective() != confinfo.StateDeleted {
			seen[addr.Key()] = struct{}{}
		}
		events = h.applyUser(addr, &u, info, events)
	}

	if replaceAll {
		for _, p := range h.model.Participants() {
			if _, ok := seen[p.Address().Key()]; ok {
				continue
			}
			h.model.RemoveParticipant(p)
			events = append(events, ParticipantRemoved{EventInfo: info, Participant: p.Address()})
		}
	}
	return events
}

func (h *RemoteHandler) isMe(addr *address.Address) bool {
	return h.me != nil && address.Same(h.me.Address(), addr)
}

func (h *RemoteHandler) applyUser(addr *address.Address, u *confinfo.User, info EventInfo, events []Event) []Event {
	state := u.State.Effective()
	isMe := h.isMe(addr)

	var p *Participant
	if isMe {
		p = h.me
	} else {
		p = h.model.FindParticipant(addr)
	}

	added := false
	switch state {
	case confinfo.StateDeleted:
		if isMe {
			h.logger.Info("Ignoring deletion of the local participant")
			return events
		}
		if p == nil {
			h.logger.Warn("Removed participant is not in the list", logging.ParticipantField(addr.String()))
			return events
		}
		h.model.RemoveParticipant(p)
		return append(events, ParticipantRemoved{EventInfo: info, Participant: p.Address()})
	case confinfo.StateFull:
		if p == nil {
			p, _ = h.model.AddParticipant(addr)
			added = true
			events = append(events, ParticipantAdded{EventInfo: info, Participant: addr})
		}
	default:
		if p == nil {
			h.logger.Warn("Participant is not in the list but changes devices or roles", logging.ParticipantField(addr.String()))
			return events
		}
	}

	if u.DisplayText != nil {
		p.DisplayName = *u.DisplayText
	}

	var roles []string
	if u.Roles != nil {
		roles = u.Roles.Entries
	}
	if u.Roles != nil || state == confinfo.StateFull {
		if h.model.SetRoles(p, roles) {
			events = append(events, ParticipantSetAdmin{EventInfo: info, Participant: p.Address(), Admin: p.IsAdmin()})
		}
	}

	seen := make(map[*ParticipantDevice]struct{})
	for _, ep := range u.Endpoints {
		var d *ParticipantDevice
		d, events = h.applyEndpoint(p, &ep, info, events)
		if d != nil {
			seen[d] = struct{}{}
		}
	}

	// a full user lists every device it has
	if state == confinfo.StateFull && !added {
		for _, d := range p.Devices() {
			if _, ok := seen[d]; ok {
				continue
			}
			h.model.RemoveDevice(p, d.Address())
			events = append(events, ParticipantDeviceRemoved{EventInfo: info, Participant: p.Address(), Device: d.Address()})
		}
	}
	return events
}

func (h *RemoteHandler) applyEndpoint(p *Participant, ep *confinfo.Endpoint, info EventInfo, events []Event) (*ParticipantDevice, []Event) {
	if ep.Entity == "" {
		return nil, events
	}
	addr, err := address.Parse(ep.Entity)
	if err != nil {
		h.logger.Warn("Skipping endpoint with invalid entity", logging.AddressField("entity", ep.Entity))
		return nil, events
	}

	d := p.FindDevice(addr)
	added := false
	switch ep.State.Effective() {
	case confinfo.StateDeleted:
		if d != nil {
			h.model.RemoveDevice(p, addr)
			events = append(events, ParticipantDeviceRemoved{EventInfo: info, Participant: p.Address(), Device: d.Address()})
		}
		return nil, events
	case confinfo.StateFull:
		if d == nil {
			d, _ = h.model.AddDevice(p, addr)
			added = true
			events = append(events, ParticipantDeviceAdded{EventInfo: info, Participant: p.Address(), Device: addr})
		}
	default:
		if d == nil {
			h.logger.Warn("Partial endpoint for unknown device", logging.DeviceField(addr.String()))
			return nil, events
		}
	}

	if ep.DisplayText != nil {
		d.Name = *ep.DisplayText
	}
	if ep.JoiningMethod != nil {
		d.JoiningMethod = *ep.JoiningMethod
	}
	if ji := ep.JoiningInfo; ji != nil {
		d.JoiningWhen, d.JoiningBy = ji.When, ji.By
	}
	if ep.DisconnectionMethod != nil {
		d.DisconnectionMethod = *ep.DisconnectionMethod
	}
	if di := ep.DisconnectionInfo; di != nil {
		d.DisconnectionWhen, d.DisconnectionReason, d.DisconnectionBy = di.When, di.Reason, di.By
	}
	if len(ep.Media) > 0 {
		d.Media = lo.Map(ep.Media, func(m confinfo.Media, _ int) Media {
			return Media{ID: m.ID, Type: m.Type, Label: m.Label, SrcID: m.SrcID, Status: m.Status, Display: m.DisplayText}
		})
	}
	if ep.Status != nil {
		status, ok := ParseDeviceState(strings.TrimSpace(*ep.Status))
		if !ok {
			h.logger.Warn("Unknown endpoint status", logging.DeviceField(addr.String()), logging.StringField("status", *ep.Status))
		} else if status != d.State {
			d.State = status
			if !added {
				events = append(events, ParticipantDeviceStateChanged{EventInfo: info, Participant: p.Address(), Device: d.Address(), State: status})
			}
		}
	}
	return d, events
}
