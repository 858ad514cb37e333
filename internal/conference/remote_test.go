package conference

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zurustar/confsync/internal/address"
	"github.com/zurustar/confsync/internal/confinfo"
	"github.com/zurustar/confsync/internal/logging"
)

var rootVersion = regexp.MustCompile(`version="\d+"`)

// withVersion rewrites the version attribute of the root element
func withVersion(body []byte, version int) []byte {
	loc := rootVersion.FindIndex(body)
	if loc == nil {
		return body
	}
	out := append([]byte{}, body[:loc[0]]...)
	out = append(out, fmt.Sprintf(`version="%d"`, version)...)
	return append(out, body[loc[1]:]...)
}

func applyFirst(t *testing.T) (*RemoteHandler, *recorder) {
	t.Helper()
	h, rec := newRemote(t, confAddress)
	require.NoError(t, h.NotifyReceived("", fixture(t, "first.xml", confAddress)))
	return h, rec
}

func TestRemote_FirstNotify(t *testing.T) {
	h, rec := applyFirst(t)
	m := h.Model()

	assert.Equal(t, RemoteSynchronized, h.State())
	assert.Equal(t, uint(1), h.LastNotify())
	assert.Equal(t, "Agenda: This month's goals", m.Subject())
	assert.Equal(t, 2, m.ParticipantCount())

	bob := participant(t, m, "sip:bob@example.com")
	alice := participant(t, m, "sip:alice@example.com")
	assert.False(t, bob.IsAdmin())
	assert.True(t, alice.IsAdmin())
	assert.Equal(t, 1, bob.DeviceCount())
	assert.Equal(t, 2, alice.DeviceCount())

	laptop := bob.Devices()[0]
	assert.Equal(t, "Bob's Laptop", laptop.Name)
	assert.Equal(t, DeviceDisconnected, laptop.State)
	assert.Equal(t, "departed", laptop.DisconnectionMethod)
	assert.Equal(t, "bad voice quality", laptop.DisconnectionReason)
	require.Len(t, laptop.Media, 1)
	assert.Equal(t, "audio", laptop.Media[0].Type)
	assert.Equal(t, "432424", laptop.Media[0].SrcID)

	count, _, _ := m.Counters()
	assert.Equal(t, uint(33), count)

	assert.Equal(t, []EventKind{
		KindStateChanged,
		KindSubjectChanged,
		KindParticipantAdded,
		KindParticipantDeviceAdded,
		KindParticipantAdded,
		KindParticipantSetAdmin,
		KindParticipantDeviceAdded,
		KindParticipantDeviceAdded,
		KindFullStateReceived,
	}, rec.kinds())
	for _, ev := range rec.events[1:] {
		assert.True(t, ev.Info().FullState)
		assert.Equal(t, uint(1), ev.Info().NotifyID)
	}
}

func TestRemote_EntityMismatch(t *testing.T) {
	h, rec := newRemote(t, otherAddress)

	err := h.NotifyReceived("", fixture(t, "first.xml", confAddress))
	assert.ErrorIs(t, err, ErrEntityMismatch)
	assert.Zero(t, h.Model().ParticipantCount())
	assert.Equal(t, RemoteUninitialized, h.State())
	assert.Zero(t, h.LastNotify())
	assert.Empty(t, rec.events)
}

func TestRemote_ParticipantAdded(t *testing.T) {
	h, rec := applyFirst(t)
	rec.reset()

	require.NoError(t, h.NotifyReceived("", fixture(t, "participant_added.xml", confAddress)))

	m := h.Model()
	assert.Equal(t, 3, m.ParticipantCount())
	frank := participant(t, m, "sip:frank@example.com")
	assert.False(t, frank.IsAdmin())
	assert.Equal(t, uint(2), h.LastNotify())

	require.NotEmpty(t, rec.events)
	added, ok := rec.events[0].(ParticipantAdded)
	require.True(t, ok)
	assert.Equal(t, "sip:frank@example.com", added.Participant.String())
	assert.False(t, added.FullState)
	assert.Equal(t, uint(2), added.NotifyID)
}

func TestRemote_PartialForUnknownParticipantIsIgnored(t *testing.T) {
	h, rec := applyFirst(t)
	rec.reset()

	require.NoError(t, h.NotifyReceived("", fixture(t, "participant_not_added.xml", confAddress)))

	assert.Equal(t, 2, h.Model().ParticipantCount())
	assert.Nil(t, h.Model().FindParticipant(address.MustParse("sip:frank@example.com")))
	assert.Equal(t, uint(2), h.LastNotify())
	assert.Empty(t, rec.events)
}

func TestRemote_ParticipantDeleted(t *testing.T) {
	h, rec := applyFirst(t)
	rec.reset()

	require.NoError(t, h.NotifyReceived("", fixture(t, "participant_deleted.xml", confAddress)))

	m := h.Model()
	assert.Equal(t, 1, m.ParticipantCount())
	assert.Nil(t, m.FindParticipant(address.MustParse("sip:bob@example.com")))
	assert.NotNil(t, m.FindParticipant(address.MustParse("sip:alice@example.com")))
	assert.Equal(t, []EventKind{KindParticipantRemoved}, rec.kinds())
}

func TestRemote_AdminChanges(t *testing.T) {
	h, rec := applyFirst(t)
	rec.reset()

	require.NoError(t, h.NotifyReceived("", fixture(t, "participant_admined.xml", confAddress)))
	bob := participant(t, h.Model(), "sip:bob@example.com")
	assert.True(t, bob.IsAdmin())
	assert.Contains(t, rec.kinds(), KindParticipantSetAdmin)

	h2, rec2 := applyFirst(t)
	rec2.reset()
	require.NoError(t, h2.NotifyReceived("", fixture(t, "participant_unadmined.xml", confAddress)))

	alice := participant(t, h2.Model(), "sip:alice@example.com")
	assert.False(t, alice.IsAdmin())
	assert.Equal(t, []string{"participant"}, alice.Roles())
	assert.Equal(t, "Alice Hoskins", alice.DisplayName)
	// a partial user keeps the devices it does not mention
	assert.Equal(t, 3, alice.DeviceCount())

	var admin *ParticipantSetAdmin
	for _, ev := range rec2.events {
		if e, ok := ev.(ParticipantSetAdmin); ok {
			admin = &e
		}
	}
	require.NotNil(t, admin)
	assert.False(t, admin.Admin)
	assert.Contains(t, rec2.kinds(), KindParticipantDeviceAdded)
}

func TestRemote_FullStateIdempotent(t *testing.T) {
	h, rec := applyFirst(t)
	before := h.Model().Snapshot()
	rec.reset()

	require.NoError(t, h.NotifyReceived("", fixture(t, "first.xml", confAddress)))

	assert.Equal(t, before, h.Model().Snapshot())
	assert.Empty(t, rec.events)
	assert.Equal(t, RemoteSynchronized, h.State())
}

func TestRemote_FullResyncEmitsDeltas(t *testing.T) {
	h, rec := applyFirst(t)
	require.NoError(t, h.NotifyReceived("", fixture(t, "participant_added.xml", confAddress)))
	require.NoError(t, h.NotifyReceived("", withVersion(fixture(t, "participant_admined.xml", confAddress), 3)))
	assert.Equal(t, uint(3), h.LastNotify())
	rec.reset()

	// the focus answers a resubscribe with its current full state
	require.NoError(t, h.NotifyReceived("", withVersion(fixture(t, "first.xml", confAddress), 5)))

	m := h.Model()
	assert.Equal(t, uint(5), h.LastNotify())
	assert.Equal(t, 2, m.ParticipantCount())
	assert.Nil(t, m.FindParticipant(address.MustParse("sip:frank@example.com")))
	assert.False(t, participant(t, m, "sip:bob@example.com").IsAdmin())

	assert.Equal(t, []EventKind{
		KindParticipantSetAdmin,
		KindParticipantRemoved,
		KindFullStateReceived,
	}, rec.kinds())
}

func TestRemote_OutdatedFullStateIgnored(t *testing.T) {
	h, rec := applyFirst(t)
	require.NoError(t, h.NotifyReceived("", fixture(t, "participant_added.xml", confAddress)))
	before := h.Model().Snapshot()
	rec.reset()

	// a full state at version 1 delayed behind the partial at version 2
	err := h.NotifyReceived("", fixture(t, "first.xml", confAddress))

	assert.ErrorIs(t, err, ErrStaleNotify)
	assert.Equal(t, uint(2), h.LastNotify())
	assert.Equal(t, 3, h.Model().ParticipantCount())
	assert.Equal(t, before, h.Model().Snapshot())
	assert.Empty(t, rec.events)
	assert.Equal(t, RemoteSynchronized, h.State())
}

func TestRemote_FullStateAtSameVersion(t *testing.T) {
	h, rec := applyFirst(t)
	require.NoError(t, h.NotifyReceived("", fixture(t, "participant_added.xml", confAddress)))
	rec.reset()

	require.NoError(t, h.NotifyReceived("", withVersion(fixture(t, "first.xml", confAddress), 2)))
	assert.Equal(t, uint(2), h.LastNotify())
	assert.Equal(t, 2, h.Model().ParticipantCount())
	assert.Equal(t, []EventKind{KindParticipantRemoved, KindFullStateReceived}, rec.kinds())
}

func TestRemote_VersionGapRequestsResync(t *testing.T) {
	sub := &fakeSubscriber{}
	h := NewRemoteHandler(Identity{Peer: address.MustParse(confAddress)}, sub, logging.NewNopLogger())
	require.NoError(t, h.Subscribe())
	require.NoError(t, h.NotifyReceived("sub-1", fixture(t, "first.xml", confAddress)))

	gap := withVersion(fixture(t, "participant_added.xml", confAddress), 4)
	err := h.NotifyReceived("sub-1", gap)

	assert.ErrorIs(t, err, ErrVersionGap)
	assert.Equal(t, 2, h.Model().ParticipantCount())
	assert.Equal(t, uint(1), h.LastNotify())
	assert.Equal(t, []uint{0, 1}, sub.subscribes)
	assert.Equal(t, 1, sub.unsubscribes)

	// the old subscription is superseded
	err = h.NotifyReceived("sub-1", fixture(t, "participant_added.xml", confAddress))
	assert.ErrorIs(t, err, ErrStaleNotify)
	require.NoError(t, h.NotifyReceived("sub-2", fixture(t, "participant_added.xml", confAddress)))
	assert.Equal(t, uint(2), h.LastNotify())
}

func TestRemote_DuplicatePartialRejected(t *testing.T) {
	h, _ := applyFirst(t)
	require.NoError(t, h.NotifyReceived("", fixture(t, "participant_added.xml", confAddress)))

	err := h.NotifyReceived("", fixture(t, "participant_added.xml", confAddress))
	assert.ErrorIs(t, err, ErrVersionGap)
	assert.Equal(t, uint(2), h.LastNotify())
	assert.Equal(t, 3, h.Model().ParticipantCount())
}

func TestRemote_PartialBeforeFullRejected(t *testing.T) {
	h, rec := newRemote(t, confAddress)

	err := h.NotifyReceived("", fixture(t, "participant_added.xml", confAddress))
	assert.ErrorIs(t, err, ErrVersionGap)
	assert.Equal(t, RemoteUninitialized, h.State())
	assert.Zero(t, h.Model().ParticipantCount())
	assert.Empty(t, rec.events)
}

func TestRemote_MalformedBody(t *testing.T) {
	h, rec := newRemote(t, confAddress)

	err := h.NotifyReceived("", []byte("<conference-info"))
	assert.ErrorIs(t, err, confinfo.ErrMalformed)
	assert.Equal(t, RemoteUninitialized, h.State())
	assert.Empty(t, rec.events)
}

func TestRemote_LastNotifyMonotonic(t *testing.T) {
	h, _ := applyFirst(t)
	versions := []uint{h.LastNotify()}
	for _, name := range []string{"participant_added.xml", "participant_deleted.xml", "participant_admined.xml"} {
		_ = h.NotifyReceived("", fixture(t, name, confAddress))
		versions = append(versions, h.LastNotify())
	}
	assert.Equal(t, []uint{1, 2, 2, 2}, versions)
}

func TestRemote_Teardown(t *testing.T) {
	sub := &fakeSubscriber{}
	h := NewRemoteHandler(Identity{Peer: address.MustParse(confAddress)}, sub, logging.NewNopLogger())
	rec := &recorder{}
	h.AddListener(rec)
	require.NoError(t, h.Subscribe())
	gen := h.Generation()

	h.Teardown()
	h.Teardown()

	assert.Equal(t, RemoteTerminated, h.State())
	assert.Greater(t, h.Generation(), gen)
	assert.Nil(t, h.Subscription())
	assert.Equal(t, 1, sub.unsubscribes)
	assert.Equal(t, []EventKind{KindStateChanged}, rec.kinds())

	err := h.NotifyReceived("sub-1", fixture(t, "first.xml", confAddress))
	assert.ErrorIs(t, err, ErrTerminated)
	assert.ErrorIs(t, h.Subscribe(), ErrTerminated)
	assert.Zero(t, h.Model().ParticipantCount())
}

func TestRemote_SubscriptionTerminated(t *testing.T) {
	sub := &fakeSubscriber{}
	h := NewRemoteHandler(Identity{Peer: address.MustParse(confAddress)}, sub, logging.NewNopLogger())
	require.NoError(t, h.Subscribe())
	require.NoError(t, h.NotifyReceived("sub-1", fixture(t, "first.xml", confAddress)))
	gen := h.Generation()

	assert.False(t, h.SubscriptionTerminated("sub-7"))
	assert.NotNil(t, h.Subscription())

	assert.True(t, h.SubscriptionTerminated("sub-1"))
	assert.Nil(t, h.Subscription())
	assert.Greater(t, h.Generation(), gen)
	assert.Zero(t, sub.unsubscribes, "the focus already ended the dialog")
	assert.False(t, h.SubscriptionTerminated("sub-1"))

	err := h.NotifyReceived("sub-1", fixture(t, "participant_added.xml", confAddress))
	assert.ErrorIs(t, err, ErrStaleNotify)
	assert.Equal(t, 2, h.Model().ParticipantCount())

	require.NoError(t, h.Subscribe())
	assert.Equal(t, []uint{0, 1}, sub.subscribes)
	require.NoError(t, h.NotifyReceived("sub-2", fixture(t, "participant_added.xml", confAddress)))
	assert.Equal(t, uint(2), h.LastNotify())
}

func TestRemote_DeletedConference(t *testing.T) {
	h, rec := applyFirst(t)
	rec.reset()

	doc := &confinfo.Document{Entity: confAddress, State: confinfo.StateDeleted, Version: 2}
	require.NoError(t, h.Apply(doc))

	assert.Equal(t, RemoteTerminated, h.State())
	require.Len(t, rec.events, 1)
	assert.Equal(t, RemoteTerminated, rec.events[0].(StateChanged).State)
}

func TestRemote_DeviceStateAndRemoval(t *testing.T) {
	h, rec := applyFirst(t)
	rec.reset()

	doc := &confinfo.Document{
		Entity:  confAddress,
		State:   confinfo.StatePartial,
		Version: 2,
		Description: &confinfo.ConferenceDescription{
			FreeText: "1700000000",
		},
		Users: &confinfo.Users{Users: []confinfo.User{
			{
				Entity: "sip:bob@example.com",
				State:  confinfo.StatePartial,
				Endpoints: []confinfo.Endpoint{{
					Entity: "sip:bob@pc33.example.com",
					State:  confinfo.StatePartial,
					Status: confinfo.StringPtr("connected"),
				}},
			},
			{
				Entity: "sip:alice@example.com",
				State:  confinfo.StatePartial,
				Endpoints: []confinfo.Endpoint{{
					Entity: "sip:aliced48ed45@example.com;grid=54def54e8",
					State:  confinfo.StateDeleted,
				}},
			},
		}},
	}
	require.NoError(t, h.Apply(doc))

	assert.Equal(t, DeviceConnected, participant(t, h.Model(), "sip:bob@example.com").Devices()[0].State)
	assert.Equal(t, 1, participant(t, h.Model(), "sip:alice@example.com").DeviceCount())
	assert.Equal(t, []EventKind{KindParticipantDeviceStateChanged, KindParticipantDeviceRemoved}, rec.kinds())
	assert.Equal(t, time.Unix(1700000000, 0), rec.events[0].Info().Time)
}

func TestRemote_SubscribeFailure(t *testing.T) {
	sub := &fakeSubscriber{err: errors.New("no route")}
	h := NewRemoteHandler(Identity{Peer: address.MustParse(confAddress)}, sub, logging.NewNopLogger())

	assert.Error(t, h.Subscribe())
	assert.Nil(t, h.Subscription())

	h2 := NewRemoteHandler(Identity{Peer: address.MustParse(confAddress)}, nil, logging.NewNopLogger())
	assert.Error(t, h2.Subscribe())
}

func TestRemote_MeIsTrackedSeparately(t *testing.T) {
	h := NewRemoteHandler(Identity{
		Peer:  address.MustParse(confAddress),
		Local: address.MustParse("sip:alice@example.com"),
	}, nil, logging.NewNopLogger())

	require.NoError(t, h.NotifyReceived("", fixture(t, "first.xml", confAddress)))

	assert.Equal(t, 1, h.Model().ParticipantCount())
	require.NotNil(t, h.Me())
	assert.True(t, h.Me().IsAdmin())
	assert.Equal(t, 2, h.Me().DeviceCount())
}
