package conference

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zurustar/confsync/internal/address"
	"github.com/zurustar/confsync/internal/logging"
	"github.com/zurustar/confsync/internal/transport"
)

const (
	confAddress  = "sips:conf233@example.com"
	otherAddress = "sips:conf322@example.com"
)

// fixture loads a testdata document addressed to entity
func fixture(t *testing.T, name, entity string) []byte {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return []byte(fmt.Sprintf(string(raw), entity))
}

type recorder struct {
	events []Event
}

func (r *recorder) HandleEvent(ev Event) {
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []EventKind {
	kinds := make([]EventKind, 0, len(r.events))
	for _, ev := range r.events {
		kinds = append(kinds, ev.Kind())
	}
	return kinds
}

func (r *recorder) reset() {
	r.events = nil
}

type fakeSubscriber struct {
	subscribes   []uint
	unsubscribes int
	err          error
}

func (f *fakeSubscriber) Subscribe(peer *address.Address, lastNotify uint) (*transport.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.subscribes = append(f.subscribes, lastNotify)
	return &transport.Subscription{ID: fmt.Sprintf("sub-%d", len(f.subscribes)), Peer: peer, LastNotify: lastNotify}, nil
}

func (f *fakeSubscriber) Unsubscribe(*transport.Subscription) error {
	f.unsubscribes++
	return nil
}

type sentNotify struct {
	peer string
	body []byte
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotify
	err  error
}

func (f *fakeNotifier) SendNotify(peer *address.Address, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentNotify{peer: peer.String(), body: body})
	return nil
}

func (f *fakeNotifier) to(peer string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]byte
	for _, s := range f.sent {
		if s.peer == peer {
			out = append(out, s.body)
		}
	}
	return out
}

func newRemote(t *testing.T, peer string) (*RemoteHandler, *recorder) {
	t.Helper()
	h := NewRemoteHandler(Identity{
		Peer:  address.MustParse(peer),
		Local: address.MustParse("sip:me@example.com"),
	}, nil, logging.NewNopLogger())
	rec := &recorder{}
	h.AddListener(rec)
	return h, rec
}

func participant(t *testing.T, m *Model, addr string) *Participant {
	t.Helper()
	p := m.FindParticipant(address.MustParse(addr))
	require.NotNil(t, p, "participant %s", addr)
	return p
}
