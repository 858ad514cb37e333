package server

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zurustar/confsync/internal/address"
	"github.com/zurustar/confsync/internal/conference"
	"github.com/zurustar/confsync/internal/config"
	"github.com/zurustar/confsync/internal/confinfo"
	"github.com/zurustar/confsync/internal/database"
	"github.com/zurustar/confsync/internal/logging"
	"github.com/zurustar/confsync/internal/metrics"
	"github.com/zurustar/confsync/internal/transport"
	"github.com/zurustar/confsync/internal/webadmin"
)

const (
	hostedConf   = "sip:standup@example.com"
	followedConf = "sip:allhands@focus.example.net"
)

type sentNotify struct {
	conference string
	peer       string
	body       []byte
}

// fakeTransport records requests and never touches the network
type fakeTransport struct {
	mu sync.Mutex

	cb           transport.Callbacks
	registers    []*transport.Operation
	refreshes    int
	unregisters  int
	publishes    int
	notifies     []sentNotify
	subscribes   []*transport.Subscription
	unsubscribes int

	startErr error
	started  bool
	stopped  bool
}

func (f *fakeTransport) SendRegister(req transport.RegisterRequest, user any) (*transport.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op := transport.NewOperation(fmt.Sprintf("reg-%d", len(f.registers)+1), req, user)
	f.registers = append(f.registers, op)
	return op, nil
}

func (f *fakeTransport) RefreshRegister(*transport.Operation, int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil
}

func (f *fakeTransport) Unregister(*transport.Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unregisters++
	return nil
}

func (f *fakeTransport) SendPublish(*address.Address, int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishes++
	return nil
}

func (f *fakeTransport) SendNotify(conf, peer *address.Address, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifies = append(f.notifies, sentNotify{conference: conf.String(), peer: peer.String(), body: body})
	return nil
}

func (f *fakeTransport) Subscribe(peer *address.Address, lastNotify uint) (*transport.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &transport.Subscription{ID: fmt.Sprintf("sub-%d", len(f.subscribes)+1), Peer: peer, LastNotify: lastNotify}
	f.subscribes = append(f.subscribes, sub)
	return sub, nil
}

func (f *fakeTransport) Unsubscribe(*transport.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribes++
	return nil
}

func (f *fakeTransport) SetCallbacks(cb transport.Callbacks) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cb = cb
}

func (f *fakeTransport) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeTransport) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

// lastRegister returns the most recent operation for identity
func (f *fakeTransport) lastRegister(t *testing.T, identity string) *transport.Operation {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.registers) - 1; i >= 0; i-- {
		if f.registers[i].Request().Identity.String() == identity {
			return f.registers[i]
		}
	}
	t.Fatalf("no register sent for %s", identity)
	return nil
}

type testCore struct {
	core      *Core
	transport *fakeTransport
	store     *database.MemoryStore
	metrics   *metrics.Metrics
}

func newTestCore(t *testing.T) *testCore {
	t.Helper()
	tr := &fakeTransport{}
	store := database.NewMemoryStore()
	m := metrics.New()
	c := NewCore(tr, store, m, logging.NewNopLogger())
	require.Same(t, c, tr.cb, "core installs itself as transport callbacks")
	t.Cleanup(c.StopTicker)
	return &testCore{core: c, transport: tr, store: store, metrics: m}
}

func (tc *testCore) complete(t *testing.T, identity string, state transport.OutcomeState) {
	t.Helper()
	op := tc.transport.lastRegister(t, identity)
	tc.core.RegistrationStateChanged(op, transport.Outcome{State: state, Contact: address.MustParse("sip:alice@192.0.2.10:5060")})
}

func (tc *testCore) account(t *testing.T, idkey string) webadmin.AccountStatus {
	t.Helper()
	for _, st := range tc.core.Accounts() {
		if st.Idkey == idkey {
			return st
		}
	}
	t.Fatalf("account %s not found", idkey)
	return webadmin.AccountStatus{}
}

// metricValue reads one series from the registry, zero when absent
func metricValue(t *testing.T, m *metrics.Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			got := make(map[string]string)
			for _, lp := range metric.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			if !maps.Equal(got, labels) {
				continue
			}
			if c := metric.GetCounter(); c != nil {
				return c.GetValue()
			}
			return metric.GetGauge().GetValue()
		}
	}
	return 0
}

func baseConfig() *config.Config {
	cfg := config.GetDefaultConfig()
	cfg.Server.LocalURI = "sip:me@example.com"
	return cfg
}

func confInfo(entity string, state confinfo.State, version uint, users ...string) []byte {
	body := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<conference-info xmlns="urn:ietf:params:xml:ns:conference-info" entity="%s" state="%s" version="%d"><users>`, entity, state, version)
	for _, u := range users {
		body += fmt.Sprintf(`<user entity="%s" state="full"><endpoint entity="%s;gr=1" state="full"><status>connected</status></endpoint></user>`, u, u)
	}
	return []byte(body + `</users></conference-info>`)
}

func TestCore_ApplyAccounts(t *testing.T) {
	tc := newTestCore(t)
	cfg := baseConfig()
	cfg.Accounts = []config.AccountConfig{
		// dependent listed first, masters are applied before dependents
		{Idkey: "conf", Proxy: "sip:conf.example.com", Identity: "sip:alice@conf.example.com", DependsOn: "main"},
		{Idkey: "main", Proxy: "sip:proxy.example.com", Identity: "sip:alice@example.com"},
	}
	require.NoError(t, tc.core.Apply(context.Background(), cfg))

	require.Len(t, tc.transport.registers, 1, "only the master registers")
	assert.Equal(t, "progress", tc.account(t, "main").State)
	assert.Equal(t, "main", tc.account(t, "conf").DependsOn)
	assert.Equal(t, 1.0, metricValue(t, tc.metrics, "confsync_accounts", map[string]string{"state": "progress"}))

	tc.complete(t, "sip:alice@example.com", transport.OutcomeOk)

	require.Len(t, tc.transport.registers, 2, "master Ok lets the dependent register")
	dep := tc.transport.lastRegister(t, "sip:alice@conf.example.com")
	require.NotNil(t, dep.Request().Contact)
	assert.Equal(t, "sip:alice@192.0.2.10:5060", dep.Request().Contact.String())

	main := tc.account(t, "main")
	assert.Equal(t, "ok", main.State)
	assert.Equal(t, "sip:alice@192.0.2.10:5060", main.Contact)
	assert.NotNil(t, main.NextRefresh)
	assert.Equal(t, 1.0, metricValue(t, tc.metrics, "confsync_registration_state_changes_total", map[string]string{"state": "ok"}))
}

func TestCore_ApplyAccountsReload(t *testing.T) {
	tc := newTestCore(t)
	cfg := baseConfig()
	cfg.Accounts = []config.AccountConfig{
		{Idkey: "main", Proxy: "sip:proxy.example.com", Identity: "sip:alice@example.com"},
		{Idkey: "conf", Proxy: "sip:conf.example.com", Identity: "sip:alice@conf.example.com", DependsOn: "main"},
	}
	require.NoError(t, tc.core.Apply(context.Background(), cfg))
	tc.complete(t, "sip:alice@example.com", transport.OutcomeOk)
	tc.complete(t, "sip:alice@conf.example.com", transport.OutcomeOk)

	t.Run("disable dependent", func(t *testing.T) {
		cfg.Accounts[1].DependentDisabled = true
		require.NoError(t, tc.core.Apply(context.Background(), cfg))
		st := tc.account(t, "conf")
		assert.False(t, st.RegisterEnabled)
		assert.True(t, st.DependentDisabled)
	})

	t.Run("remove master", func(t *testing.T) {
		cfg.Accounts = cfg.Accounts[1:]
		cfg.Accounts[0].DependsOn = ""
		cfg.Accounts[0].DependentDisabled = false
		require.NoError(t, tc.core.Apply(context.Background(), cfg))

		statuses := tc.core.Accounts()
		require.Len(t, statuses, 1)
		assert.Equal(t, "conf", statuses[0].Idkey)
		assert.Empty(t, statuses[0].DependsOn)
		assert.False(t, statuses[0].DependentDisabled)
		assert.True(t, statuses[0].RegisterEnabled)
		assert.Equal(t, 2, tc.transport.unregisters, "the master and the disabled dependent unregister")
	})
}

func TestCore_ApplyInvalidAccount(t *testing.T) {
	tc := newTestCore(t)
	cfg := baseConfig()
	cfg.Accounts = []config.AccountConfig{
		{Idkey: "bad", Proxy: "sip:proxy.example.com", Identity: "sip:alice@example.com", Routes: []string{"http://relay.example.com"}},
		{Idkey: "good", Proxy: "sip:proxy.example.com", Identity: "sip:bob@example.com"},
	}

	err := tc.core.Apply(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sip:alice@example.com")
	assert.Len(t, tc.core.Accounts(), 1, "valid accounts are still applied")
}

func TestCore_SubscriptionFollowsAccount(t *testing.T) {
	tc := newTestCore(t)
	cfg := baseConfig()
	cfg.Accounts = []config.AccountConfig{
		{Idkey: "main", Proxy: "sip:proxy.example.com", Identity: "sip:alice@example.com"},
	}
	cfg.Conferences.Remote = []config.RemoteConferenceConfig{{Address: followedConf, Account: "main"}}
	require.NoError(t, tc.core.Apply(context.Background(), cfg))
	assert.Empty(t, tc.transport.subscribes, "no subscription before the account is registered")

	tc.complete(t, "sip:alice@example.com", transport.OutcomeOk)
	require.Len(t, tc.transport.subscribes, 1)
	assert.Equal(t, followedConf, tc.transport.subscribes[0].Peer.String())

	// a refresh passes through progress without dropping the subscription
	tc.complete(t, "sip:alice@example.com", transport.OutcomeProgress)
	assert.Zero(t, tc.transport.unsubscribes)
	tc.complete(t, "sip:alice@example.com", transport.OutcomeOk)
	assert.Len(t, tc.transport.subscribes, 1, "Ok again keeps the subscription")

	tc.complete(t, "sip:alice@example.com", transport.OutcomeFailed)
	assert.Equal(t, 1, tc.transport.unsubscribes)

	confs := tc.core.Conferences()
	require.Len(t, confs, 1)
	assert.Equal(t, "remote", confs[0].Side)
	assert.Equal(t, "main", confs[0].Account)
}

func TestCore_NotifyReceived(t *testing.T) {
	tc := newTestCore(t)
	cfg := baseConfig()
	cfg.Conferences.Remote = []config.RemoteConferenceConfig{{Address: followedConf}}
	require.NoError(t, tc.core.Apply(context.Background(), cfg))
	require.Len(t, tc.transport.subscribes, 1, "no gating account subscribes right away")

	from := address.MustParse(followedConf)
	received := func(result string) float64 {
		return metricValue(t, tc.metrics, "confsync_notifies_received_total",
			map[string]string{"conference": followedConf, "result": result})
	}

	tc.core.NotifyReceived(from, "sub-1", confInfo(followedConf, confinfo.StateFull, 1,
		"sip:bob@example.com", "sip:carol@example.com"))
	assert.Equal(t, 1.0, received("applied"))
	assert.Equal(t, 2.0, metricValue(t, tc.metrics, "confsync_conference_participants",
		map[string]string{"conference": followedConf, "side": "remote"}))

	confs := tc.core.Conferences()
	require.Len(t, confs, 1)
	assert.Equal(t, "synchronized", confs[0].State)
	assert.Equal(t, uint(1), confs[0].Conference.LastNotify)

	// version 3 after 1 is a gap and resubscribes
	tc.core.NotifyReceived(from, "sub-1", confInfo(followedConf, confinfo.StatePartial, 3))
	assert.Equal(t, 1.0, received("resync"))
	assert.Equal(t, 1.0, metricValue(t, tc.metrics, "confsync_resyncs_total", map[string]string{"conference": followedConf}))
	require.Len(t, tc.transport.subscribes, 2)
	assert.Equal(t, uint(1), tc.transport.subscribes[1].LastNotify)

	// the old subscription is superseded
	tc.core.NotifyReceived(from, "sub-1", confInfo(followedConf, confinfo.StateFull, 4))
	assert.Equal(t, 1.0, received("stale"))

	tc.core.NotifyReceived(from, "sub-2", []byte("<not-xml"))
	assert.Equal(t, 1.0, received("rejected"))

	// unknown senders are dropped without a series
	tc.core.NotifyReceived(address.MustParse("sip:other@example.com"), "", confInfo("sip:other@example.com", confinfo.StateFull, 1))
	assert.Zero(t, metricValue(t, tc.metrics, "confsync_notifies_received_total",
		map[string]string{"conference": "sip:other@example.com", "result": "applied"}))
}

func TestCore_SubscriptionTerminated(t *testing.T) {
	tc := newTestCore(t)
	now := time.Unix(1700000000, 0)
	tc.core.now = func() time.Time { return now }
	cfg := baseConfig()
	cfg.Conferences.Remote = []config.RemoteConferenceConfig{{Address: followedConf}}
	require.NoError(t, tc.core.Apply(context.Background(), cfg))
	require.Len(t, tc.transport.subscribes, 1)

	from := address.MustParse(followedConf)
	received := func(result string) float64 {
		return metricValue(t, tc.metrics, "confsync_notifies_received_total",
			map[string]string{"conference": followedConf, "result": result})
	}
	tc.core.NotifyReceived(from, "sub-1", confInfo(followedConf, confinfo.StateFull, 4, "sip:bob@example.com"))
	require.Equal(t, 1.0, received("applied"))

	// unknown subscriptions are ignored
	tc.core.SubscriptionTerminated("sub-9")
	tc.core.Tick()
	require.Len(t, tc.transport.subscribes, 1)

	tc.core.SubscriptionTerminated("sub-1")
	assert.Zero(t, tc.transport.unsubscribes, "the focus already ended it")
	tc.core.Tick()
	require.Len(t, tc.transport.subscribes, 1, "waits for the resubscribe delay")

	// a late notify of the ended subscription changes nothing
	tc.core.NotifyReceived(from, "sub-1", confInfo(followedConf, confinfo.StatePartial, 5))
	assert.Equal(t, 1.0, received("stale"))

	now = now.Add(DefaultResubscribeDelay)
	tc.core.Tick()
	require.Len(t, tc.transport.subscribes, 2)
	assert.Equal(t, uint(4), tc.transport.subscribes[1].LastNotify)

	tc.core.Tick()
	assert.Len(t, tc.transport.subscribes, 2, "a live subscription is left alone")

	tc.core.NotifyReceived(from, "sub-2", confInfo(followedConf, confinfo.StatePartial, 5))
	assert.Equal(t, 2.0, received("applied"))
	confs := tc.core.Conferences()
	require.Len(t, confs, 1)
	assert.Equal(t, uint(5), confs[0].Conference.LastNotify)
}

func TestCore_SubscribeReceived(t *testing.T) {
	tc := newTestCore(t)
	cfg := baseConfig()
	cfg.Conferences.Local = []config.LocalConferenceConfig{{Address: hostedConf, Subject: "Daily standup"}}
	require.NoError(t, tc.core.Apply(context.Background(), cfg))

	conf := address.MustParse(hostedConf)
	bob := address.MustParse("sip:bob@example.com")
	sent := func(kind string) float64 {
		return metricValue(t, tc.metrics, "confsync_notifies_sent_total",
			map[string]string{"conference": hostedConf, "kind": kind})
	}

	tc.core.SubscribeReceived(conf, bob, 0)
	require.Len(t, tc.transport.notifies, 1)
	first := tc.transport.notifies[0]
	assert.Equal(t, hostedConf, first.conference)
	assert.Equal(t, "sip:bob@example.com", first.peer)
	h, err := confinfo.PeekHeader(first.body)
	require.NoError(t, err)
	assert.Equal(t, confinfo.StateFull, h.State)
	assert.Equal(t, 1.0, sent("full"))
	assert.Equal(t, 1.0, metricValue(t, tc.metrics, "confsync_conference_subscribers", map[string]string{"conference": hostedConf}))

	ctx := context.Background()
	require.NoError(t, tc.core.AddParticipant(ctx, hostedConf, "sip:carol@example.com"))
	require.Len(t, tc.transport.notifies, 2)
	assert.Equal(t, 1.0, sent("partial"))
	assert.Equal(t, 1.0, metricValue(t, tc.metrics, "confsync_conference_participants",
		map[string]string{"conference": hostedConf, "side": "local"}))

	records, err := tc.store.Since(ctx, hostedConf, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, records, "partial notifies are logged for replay")

	tc.core.UnsubscribeReceived(conf, bob)
	assert.Zero(t, metricValue(t, tc.metrics, "confsync_conference_subscribers", map[string]string{"conference": hostedConf}))

	// subscriptions to conferences not hosted here are ignored
	tc.core.SubscribeReceived(address.MustParse("sip:nobody@example.com"), bob, 0)
	assert.Len(t, tc.transport.notifies, 2)
}

func TestCore_ConferenceMutations(t *testing.T) {
	tc := newTestCore(t)
	cfg := baseConfig()
	cfg.Conferences.Local = []config.LocalConferenceConfig{{Address: hostedConf}}
	require.NoError(t, tc.core.Apply(context.Background(), cfg))
	ctx := context.Background()

	carol := "sip:carol@example.com"
	phone := "sip:carol@192.0.2.20"
	require.NoError(t, tc.core.AddParticipant(ctx, hostedConf, carol))
	require.NoError(t, tc.core.SetParticipantAdmin(ctx, hostedConf, carol, true))
	require.NoError(t, tc.core.AddDevice(ctx, hostedConf, carol, phone))
	require.NoError(t, tc.core.SetDeviceState(ctx, hostedConf, carol, phone, "on-hold"))
	require.NoError(t, tc.core.SetSubject(ctx, hostedConf, "Retro"))

	confs := tc.core.Conferences()
	require.Len(t, confs, 1)
	snap := confs[0].Conference
	assert.Equal(t, "local", confs[0].Side)
	assert.Equal(t, "Retro", snap.Subject)
	require.Len(t, snap.Participants, 1)
	assert.True(t, snap.Participants[0].Admin)
	require.Len(t, snap.Participants[0].Devices, 1)
	assert.Equal(t, "on-hold", snap.Participants[0].Devices[0].State)

	require.NoError(t, tc.core.RemoveDevice(ctx, hostedConf, carol, phone))
	require.NoError(t, tc.core.RemoveParticipant(ctx, hostedConf, carol))
	assert.Empty(t, tc.core.Conferences()[0].Conference.Participants)

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"unknown conference", func() error { return tc.core.AddParticipant(ctx, "sip:nope@example.com", carol) }, webadmin.ErrNotFound},
		{"invalid conference", func() error { return tc.core.AddParticipant(ctx, "::", carol) }, address.ErrInvalidAddress},
		{"invalid participant", func() error { return tc.core.AddParticipant(ctx, hostedConf, "") }, address.ErrInvalidAddress},
		{"unknown participant", func() error { return tc.core.RemoveParticipant(ctx, hostedConf, carol) }, conference.ErrUnknownParticipant},
		{"invalid device state", func() error { return tc.core.SetDeviceState(ctx, hostedConf, carol, phone, "dancing") }, conference.ErrInvalidDeviceState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), tt.want)
		})
	}

	require.NoError(t, tc.core.AddParticipant(ctx, hostedConf, carol))
	assert.ErrorIs(t, tc.core.AddParticipant(ctx, hostedConf, carol), conference.ErrParticipantExists)
}

func TestCore_ApplyRemovesConferences(t *testing.T) {
	tc := newTestCore(t)
	cfg := baseConfig()
	cfg.Conferences.Local = []config.LocalConferenceConfig{{Address: hostedConf}}
	cfg.Conferences.Remote = []config.RemoteConferenceConfig{{Address: followedConf}}
	require.NoError(t, tc.core.Apply(context.Background(), cfg))
	require.Len(t, tc.core.Conferences(), 2)
	assert.Equal(t, "local", tc.core.Conferences()[0].Side)

	cfg.Conferences = config.ConferencesConfig{}
	require.NoError(t, tc.core.Apply(context.Background(), cfg))
	assert.Empty(t, tc.core.Conferences())
	assert.Equal(t, 1, tc.transport.unsubscribes)
}

func TestCore_HostedConferenceResumesVersion(t *testing.T) {
	tc := newTestCore(t)
	ctx := context.Background()
	require.NoError(t, tc.store.Append(ctx, database.NotifyRecord{Conference: hostedConf, Version: 7, Body: []byte("<x/>")}))

	cfg := baseConfig()
	cfg.Conferences.Local = []config.LocalConferenceConfig{{Address: hostedConf}}
	require.NoError(t, tc.core.Apply(ctx, cfg))

	assert.Equal(t, uint(8), tc.core.Conferences()[0].Conference.LastNotify, "restarted state gets its own version")

	require.NoError(t, tc.core.AddParticipant(ctx, hostedConf, "sip:carol@example.com"))
	assert.Equal(t, uint(9), tc.core.Conferences()[0].Conference.LastNotify)
}

func TestCore_Shutdown(t *testing.T) {
	tc := newTestCore(t)
	cfg := baseConfig()
	cfg.Accounts = []config.AccountConfig{
		{Idkey: "main", Proxy: "sip:proxy.example.com", Identity: "sip:alice@example.com"},
	}
	cfg.Conferences.Remote = []config.RemoteConferenceConfig{{Address: followedConf, Account: "main"}}
	require.NoError(t, tc.core.Apply(context.Background(), cfg))
	tc.complete(t, "sip:alice@example.com", transport.OutcomeOk)
	require.Len(t, tc.transport.subscribes, 1)

	tc.core.Shutdown()

	assert.Empty(t, tc.core.Accounts())
	assert.Empty(t, tc.core.Conferences())
	assert.Equal(t, 1, tc.transport.unsubscribes)
	assert.Equal(t, 1, tc.transport.unregisters)
}

func TestCore_NetworkReachable(t *testing.T) {
	tc := newTestCore(t)
	cfg := baseConfig()
	cfg.Server.RegisterOnlyWhenNetworkUp = true
	cfg.Server.NetworkReachable = false
	cfg.Accounts = []config.AccountConfig{
		{Idkey: "main", Proxy: "sip:proxy.example.com", Identity: "sip:alice@example.com"},
	}
	require.NoError(t, tc.core.Apply(context.Background(), cfg))
	assert.False(t, tc.core.NetworkReachable())
	assert.Empty(t, tc.transport.registers)

	tc.core.SetNetworkReachable(true)
	assert.True(t, tc.core.NetworkReachable())
	assert.Len(t, tc.transport.registers, 1)
}

func TestCore_Ticker(t *testing.T) {
	tc := newTestCore(t)
	assert.Error(t, tc.core.StartTicker("every now and then"))

	require.NoError(t, tc.core.StartTicker("@every 1s"))
	assert.Error(t, tc.core.StartTicker("@every 1s"), "ticker already running")

	cfg := baseConfig()
	cfg.Server.RegisterOnlyWhenNetworkUp = true
	cfg.Server.NetworkReachable = false
	cfg.Accounts = []config.AccountConfig{
		{Idkey: "main", Proxy: "sip:proxy.example.com", Identity: "sip:alice@example.com"},
	}
	require.NoError(t, tc.core.Apply(context.Background(), cfg))

	// flip reachability behind the core's back, the next tick commits
	tc.core.mu.Lock()
	tc.core.accounts.SetNetworkReachable(true)
	tc.core.mu.Unlock()

	assert.Eventually(t, func() bool {
		tc.transport.mu.Lock()
		defer tc.transport.mu.Unlock()
		return len(tc.transport.registers) == 1
	}, 5*time.Second, 50*time.Millisecond)

	tc.core.StopTicker()
	tc.core.StopTicker()
}

func TestNotifyResult(t *testing.T) {
	tests := map[string]error{
		"applied":    nil,
		"resync":     fmt.Errorf("%w: got 3 after 1", conference.ErrVersionGap),
		"stale":      conference.ErrStaleNotify,
		"terminated": conference.ErrTerminated,
		"rejected":   errors.New("invalid XML"),
	}
	for want, err := range tests {
		t.Run(want, func(t *testing.T) {
			assert.Equal(t, want, notifyResult(err))
		})
	}
}
