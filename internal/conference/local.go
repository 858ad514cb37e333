package conference

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/zurustar/confsync/internal/address"
	"github.com/zurustar/confsync/internal/confinfo"
	"github.com/zurustar/confsync/internal/database"
	"github.com/zurustar/confsync/internal/logging"
)

// DefaultReplayWindow is the number of partial notifies kept per conference
const DefaultReplayWindow = 256

// DefaultAvailableMedia is offered by a newly created focus
var DefaultAvailableMedia = []AvailableMedia{
	{Label: "1", Type: "audio", Status: "sendrecv"},
	{Label: "2", Type: "video", Status: "inactive"},
	{Label: "3", Type: "text", Status: "inactive"},
}

func defaultDeviceMedia() []Media {
	return []Media{
		{ID: "1", Type: "audio", Status: "sendrecv", Display: "audio"},
		{ID: "2", Type: "video", Status: "inactive", Display: "video"},
		{ID: "3", Type: "text", Status: "inactive", Display: "text"},
	}
}

// LocalHandler is the focus side of a conference. It owns the
// authoritative model and sends one partial notify per mutation to every
// subscriber. Mutations are serialized so versions are assigned and
// delivered in order.
type LocalHandler struct {
	mu sync.Mutex

	conference  *address.Address
	model       *Model
	dispatcher  Dispatcher
	subscribers []*address.Address

	notifier     Notifier
	store        database.NotifyStore
	replayWindow int
	// resumed is the first version of this run, zero when nothing
	// preceded it
	resumed uint

	pending     []Event
	dispatching bool

	logger    logging.Logger
	now       func() time.Time
	serialize func(*confinfo.Document) ([]byte, error)
}

// NewLocalHandler creates a focus for the conference address. store may
// be nil, in which case late subscribers always get the full state.
func NewLocalHandler(conference *address.Address, notifier Notifier, store database.NotifyStore, logger logging.Logger) *LocalHandler {
	h := &LocalHandler{
		conference:   conference,
		model:        NewModel(),
		notifier:     notifier,
		store:        store,
		replayWindow: DefaultReplayWindow,
		logger:       logger.With(logging.ConferenceField(conference.String())),
		now:          time.Now,
		serialize:    confinfo.Serialize,
	}
	h.model.SetAvailableMedia(DefaultAvailableMedia)
	h.model.SetCounters(0, true, false)
	return h
}

// Resume continues the version sequence of a focus that was restarted.
// The restarted state gets a version of its own, so subscribers that
// knew the previous run are sent the full state instead of replays.
func (h *LocalHandler) Resume(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	last, err := h.store.LastVersion(ctx, h.conference.String())
	if err != nil {
		return fmt.Errorf("failed to resume %s: %w", h.conference, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if last == 0 || h.model.LastNotify() >= last {
		return nil
	}
	h.restartSequence(ctx, last)
	return nil
}

// restartSequence moves lastNotify past from and logs the full state at
// the new version. Versions up to from describe another state.
func (h *LocalHandler) restartSequence(ctx context.Context, from uint) {
	h.model.setLastNotify(from + 1)
	h.resumed = from + 1
	h.logger.Info("Version sequence restarted", logging.VersionField(h.resumed))

	body, err := h.serialize(h.fullStateDocument())
	if err != nil {
		h.logger.Error("Failed to serialize full state", logging.ErrorField(err))
		return
	}
	h.record(ctx, h.resumed, body)
}

// SetReplayWindow changes how many partial notifies are kept for replay
func (h *LocalHandler) SetReplayWindow(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.replayWindow = n
}

// Conference returns the conference address
func (h *LocalHandler) Conference() *address.Address {
	return h.conference
}

// LastNotify returns the version of the last emitted notify
func (h *LocalHandler) LastNotify() uint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.model.LastNotify()
}

// Snapshot returns a copy of the conference state
func (h *LocalHandler) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.model.Snapshot()
}

// Subscribers returns the subscriber addresses in subscription order
func (h *LocalHandler) Subscribers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return lo.Map(h.subscribers, func(a *address.Address, _ int) string { return a.String() })
}

// AddListener registers a listener for the deltas produced by mutations
func (h *LocalHandler) AddListener(l Listener) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dispatcher.AddListener(l)
}

// RemoveListener unregisters a listener
func (h *LocalHandler) RemoveListener(id int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dispatcher.RemoveListener(id)
}

// AddParticipant adds a participant and notifies every other subscriber
func (h *LocalHandler) AddParticipant(ctx context.Context, addr *address.Address) error {
	defer h.flushEvents()
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.model.AddParticipant(addr)
	if !ok {
		return fmt.Errorf("%w: %s", ErrParticipantExists, addr)
	}
	h.model.SetRoles(p, []string{"participant"})

	doc := h.nextDocument()
	doc.Users = &confinfo.Users{Users: []confinfo.User{userElement(p, confinfo.StateFull)}}
	h.publish(ctx, doc, addr, ParticipantAdded{EventInfo: h.info(doc), Participant: p.Address()})
	return nil
}

// RemoveParticipant removes a participant and its devices
func (h *LocalHandler) RemoveParticipant(ctx context.Context, addr *address.Address) error {
	defer h.flushEvents()
	h.mu.Lock()
	defer h.mu.Unlock()

	p := h.model.FindParticipant(addr)
	if p == nil || !h.model.RemoveParticipant(p) {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, addr)
	}

	doc := h.nextDocument()
	doc.Users = &confinfo.Users{Users: []confinfo.User{{
		Entity: p.Address().AsStringUriOnly(),
		State:  confinfo.StateDeleted,
	}}}
	h.publish(ctx, doc, nil, ParticipantRemoved{EventInfo: h.info(doc), Participant: p.Address()})
	return nil
}

// SetParticipantAdmin changes the admin flag. Setting the current value
// sends nothing.
func (h *LocalHandler) SetParticipantAdmin(ctx context.Context, addr *address.Address, admin bool) error {
	defer h.flushEvents()
	h.mu.Lock()
	defer h.mu.Unlock()

	p := h.model.FindParticipant(addr)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, addr)
	}
	if p.IsAdmin() == admin {
		return nil
	}
	h.model.SetParticipantAdmin(p, admin)

	doc := h.nextDocument()
	doc.Users = &confinfo.Users{Users: []confinfo.User{{
		Entity: p.Address().AsStringUriOnly(),
		State:  confinfo.StatePartial,
		Roles:  &confinfo.Roles{Entries: []string{roleOf(p)}},
	}}}
	h.publish(ctx, doc, nil, ParticipantSetAdmin{EventInfo: h.info(doc), Participant: p.Address(), Admin: admin})
	return nil
}

// AddDevice adds a device to a participant
func (h *LocalHandler) AddDevice(ctx context.Context, participant, device *address.Address) error {
	defer h.flushEvents()
	h.mu.Lock()
	defer h.mu.Unlock()

	p := h.model.FindParticipant(participant)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, participant)
	}
	d, ok := h.model.AddDevice(p, device)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceExists, device)
	}
	d.Media = defaultDeviceMedia()

	doc := h.nextDocument()
	doc.Users = &confinfo.Users{Users: []confinfo.User{{
		Entity:    p.Address().AsStringUriOnly(),
		State:     confinfo.StatePartial,
		Endpoints: []confinfo.Endpoint{endpointElement(d, confinfo.StateFull)},
	}}}
	h.publish(ctx, doc, nil, ParticipantDeviceAdded{EventInfo: h.info(doc), Participant: p.Address(), Device: d.Address()})
	return nil
}

// RemoveDevice removes a device of a participant
func (h *LocalHandler) RemoveDevice(ctx context.Context, participant, device *address.Address) error {
	defer h.flushEvents()
	h.mu.Lock()
	defer h.mu.Unlock()

	p := h.model.FindParticipant(participant)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, participant)
	}
	d := p.FindDevice(device)
	if d == nil || !h.model.RemoveDevice(p, device) {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, device)
	}

	doc := h.nextDocument()
	doc.Users = &confinfo.Users{Users: []confinfo.User{{
		Entity: p.Address().AsStringUriOnly(),
		State:  confinfo.StatePartial,
		Endpoints: []confinfo.Endpoint{{
			Entity: d.Address().String(),
			State:  confinfo.StateDeleted,
		}},
	}}}
	h.publish(ctx, doc, nil, ParticipantDeviceRemoved{EventInfo: h.info(doc), Participant: p.Address(), Device: d.Address()})
	return nil
}

// SetDeviceState changes the connection status of a device
func (h *LocalHandler) SetDeviceState(ctx context.Context, participant, device *address.Address, state DeviceState) error {
	defer h.flushEvents()
	h.mu.Lock()
	defer h.mu.Unlock()

	p := h.model.FindParticipant(participant)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, participant)
	}
	d := p.FindDevice(device)
	if d == nil {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, device)
	}
	if d.State == state {
		return nil
	}
	d.State = state

	doc := h.nextDocument()
	doc.Users = &confinfo.Users{Users: []confinfo.User{{
		Entity: p.Address().AsStringUriOnly(),
		State:  confinfo.StatePartial,
		Endpoints: []confinfo.Endpoint{{
			Entity: d.Address().String(),
			State:  confinfo.StatePartial,
			Status: confinfo.StringPtr(state.String()),
		}},
	}}}
	h.publish(ctx, doc, nil, ParticipantDeviceStateChanged{EventInfo: h.info(doc), Participant: p.Address(), Device: d.Address(), State: state})
	return nil
}

// SetSubject changes the conference subject. An unchanged subject sends nothing.
func (h *LocalHandler) SetSubject(ctx context.Context, subject string) error {
	defer h.flushEvents()
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.model.SetSubject(subject) {
		return nil
	}
	doc := h.nextDocument()
	doc.Description.Subject = confinfo.StringPtr(subject)
	h.publish(ctx, doc, nil, SubjectChanged{EventInfo: h.info(doc), Subject: subject})
	return nil
}

// CreateNotifyFullState serializes the whole conference stamped with the
// current version.
func (h *LocalHandler) CreateNotifyFullState() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.serialize(h.fullStateDocument())
}

// FullStateDocument returns the whole conference as a document
func (h *LocalHandler) FullStateDocument() *confinfo.Document {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fullStateDocument()
}

func (h *LocalHandler) fullStateDocument() *confinfo.Document {
	doc := h.newDocument(confinfo.StateFull)
	if subject := h.model.Subject(); subject != "" {
		doc.Description.Subject = confinfo.StringPtr(subject)
	}
	doc.Description.AvailableMedia = &confinfo.AvailableMedia{
		Entries: lo.Map(h.model.AvailableMedia(), func(m AvailableMedia, _ int) confinfo.MediaEntry {
			return confinfo.MediaEntry{Label: m.Label, Type: m.Type, Status: m.Status, DisplayText: m.Display}
		}),
	}
	count := uint(h.model.ParticipantCount())
	_, active, locked := h.model.Counters()
	doc.ConferenceState = &confinfo.ConferenceState{UserCount: &count, Active: &active, Locked: &locked}
	doc.Users = &confinfo.Users{
		Users: lo.Map(h.model.Participants(), func(p *Participant, _ int) confinfo.User {
			return userElement(p, confinfo.StateFull)
		}),
	}
	return doc
}

// SubscribeReceived registers a subscriber and brings it up to date.
// A subscriber that already knows a version gets the partial notifies it
// missed when they are still logged, otherwise the full state.
func (h *LocalHandler) SubscribeReceived(ctx context.Context, subscriber *address.Address, lastKnown uint) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !lo.ContainsBy(h.subscribers, func(a *address.Address) bool { return address.Same(a, subscriber) }) {
		h.subscribers = append(h.subscribers, subscriber)
	}

	log := h.logger.With(logging.AddressField("subscriber", subscriber.String()))
	last := h.model.LastNotify()
	switch {
	case lastKnown != 0 && lastKnown < h.resumed:
		log.Info("Subscriber predates the focus restart, sending full state",
			logging.VersionField(lastKnown), logging.IntField("resumed", int(h.resumed)))
	case lastKnown == last && lastKnown != 0:
		log.Debug("Subscriber already in sync", logging.VersionField(last))
		return nil
	case lastKnown != 0 && lastKnown < last:
		if bodies, ok := h.missedNotifies(ctx, lastKnown, last); ok {
			log.Info("Replaying missed notifies",
				logging.VersionField(lastKnown), logging.IntField("count", len(bodies)))
			for _, body := range bodies {
				if err := h.notifier.SendNotify(subscriber, body); err != nil {
					return fmt.Errorf("failed to replay notify to %s: %w", subscriber, err)
				}
			}
			return nil
		}
	case lastKnown > last:
		log.Warn("Subscriber is ahead of the focus, sending full state",
			logging.VersionField(lastKnown), logging.IntField("last_notify", int(last)))
		h.restartSequence(ctx, lastKnown)
	}

	body, err := h.serialize(h.fullStateDocument())
	if err != nil {
		return fmt.Errorf("failed to serialize full state: %w", err)
	}
	if err := h.notifier.SendNotify(subscriber, body); err != nil {
		return fmt.Errorf("failed to send full state to %s: %w", subscriber, err)
	}
	return nil
}

// missedNotifies returns the logged bodies after lastKnown when they
// cover every version up to last without holes.
func (h *LocalHandler) missedNotifies(ctx context.Context, lastKnown, last uint) ([][]byte, bool) {
	if h.store == nil {
		return nil, false
	}
	records, err := h.store.Since(ctx, h.conference.String(), lastKnown)
	if err != nil {
		h.logger.Error("Failed to read notify log", logging.ErrorField(err))
		return nil, false
	}
	if uint(len(records)) != last-lastKnown {
		return nil, false
	}
	bodies := make([][]byte, 0, len(records))
	for i, rec := range records {
		if rec.Version != lastKnown+uint(i)+1 {
			return nil, false
		}
		bodies = append(bodies, rec.Body)
	}
	return bodies, true
}

// UnsubscribeReceived removes a subscriber
func (h *LocalHandler) UnsubscribeReceived(subscriber *address.Address) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	before := len(h.subscribers)
	h.subscribers = lo.Reject(h.subscribers, func(a *address.Address, _ int) bool {
		return address.Same(a, subscriber)
	})
	return len(h.subscribers) != before
}

// nextDocument starts a partial document stamped with the next version.
// lastNotify moves when the document is published.
func (h *LocalHandler) nextDocument() *confinfo.Document {
	doc := h.newDocument(confinfo.StatePartial)
	doc.Version = h.model.LastNotify() + 1
	return doc
}

func (h *LocalHandler) newDocument(state confinfo.State) *confinfo.Document {
	return &confinfo.Document{
		Entity:  h.conference.String(),
		State:   state,
		Version: h.model.LastNotify(),
		Description: &confinfo.ConferenceDescription{
			FreeText: strconv.FormatInt(h.now().Unix(), 10),
		},
	}
}

func (h *LocalHandler) info(doc *confinfo.Document) EventInfo {
	return EventInfo{Time: h.now(), FullState: doc.State == confinfo.StateFull, NotifyID: doc.Version}
}

// publish serializes, logs and sends doc to every subscriber but exclude,
// assigns its version and queues ev for the listeners. A document that
// cannot be serialized is replaced by the full state at the same version.
// Delivery failures are logged; the subscriber catches up on its next
// subscription refresh.
func (h *LocalHandler) publish(ctx context.Context, doc *confinfo.Document, exclude *address.Address, ev Event) {
	body, err := h.serialize(doc)
	if err != nil {
		h.logger.Error("Failed to serialize notify, sending full state",
			logging.VersionField(doc.Version), logging.ErrorField(err))
		full := h.fullStateDocument()
		full.Version = doc.Version
		if body, err = h.serialize(full); err != nil {
			h.logger.Error("Conference change not sent", logging.VersionField(doc.Version), logging.ErrorField(err))
			h.pending = append(h.pending, ev)
			return
		}
		exclude = nil
	}
	h.model.setLastNotify(doc.Version)
	h.record(ctx, doc.Version, body)

	for _, sub := range h.subscribers {
		if exclude != nil && address.Same(sub, exclude) {
			continue
		}
		if err := h.notifier.SendNotify(sub, body); err != nil {
			h.logger.Warn("Failed to send notify",
				logging.AddressField("subscriber", sub.String()),
				logging.VersionField(doc.Version),
				logging.ErrorField(err))
		}
	}
	h.logger.Debug("Notify sent", logging.VersionField(doc.Version), logging.IntField("subscribers", len(h.subscribers)))
	h.pending = append(h.pending, ev)
}

// record appends body to the notify log and prunes it to the replay window
func (h *LocalHandler) record(ctx context.Context, version uint, body []byte) {
	if h.store == nil {
		return
	}
	rec := database.NotifyRecord{Conference: h.conference.String(), Version: version, Body: body, CreatedAt: h.now()}
	if err := h.store.Append(ctx, rec); err != nil {
		h.logger.Error("Failed to log notify", logging.VersionField(version), logging.ErrorField(err))
		return
	}
	if h.replayWindow > 0 {
		if err := h.store.Prune(ctx, rec.Conference, h.replayWindow); err != nil {
			h.logger.Warn("Failed to prune notify log", logging.ErrorField(err))
		}
	}
}

// flushEvents delivers queued events with the handler unlocked, so
// listeners may read or mutate the handler. Events keep version order;
// a nested flush leaves delivery to the outer one.
func (h *LocalHandler) flushEvents() {
	h.mu.Lock()
	if h.dispatching {
		h.mu.Unlock()
		return
	}
	h.dispatching = true
	for len(h.pending) > 0 {
		ev := h.pending[0]
		h.pending = h.pending[1:]
		listeners := h.dispatcher.snapshot()
		h.mu.Unlock()
		deliver(listeners, ev)
		h.mu.Lock()
	}
	h.dispatching = false
	h.mu.Unlock()
}

func roleOf(p *Participant) string {
	if p.IsAdmin() {
		return "admin"
	}
	return "participant"
}

func userElement(p *Participant, state confinfo.State) confinfo.User {
	u := confinfo.User{
		Entity: p.Address().AsStringUriOnly(),
		State:  state,
		Roles:  &confinfo.Roles{Entries: []string{roleOf(p)}},
	}
	if p.DisplayName != "" {
		u.DisplayText = confinfo.StringPtr(p.DisplayName)
	}
	u.Endpoints = lo.Map(p.Devices(), func(d *ParticipantDevice, _ int) confinfo.Endpoint {
		return endpointElement(d, confinfo.StateFull)
	})
	return u
}

func endpointElement(d *ParticipantDevice, state confinfo.State) confinfo.Endpoint {
	ep := confinfo.Endpoint{
		Entity: d.Address().String(),
		State:  state,
		Status: confinfo.StringPtr(d.State.String()),
		Media: lo.Map(d.Media, func(m Media, _ int) confinfo.Media {
			return confinfo.Media{ID: m.ID, DisplayText: m.Display, Type: m.Type, Label: m.Label, SrcID: m.SrcID, Status: m.Status}
		}),
	}
	if d.Name != "" {
		ep.DisplayText = confinfo.StringPtr(d.Name)
	}
	return ep
}
