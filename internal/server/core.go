package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zurustar/confsync/internal/address"
	"github.com/zurustar/confsync/internal/conference"
	"github.com/zurustar/confsync/internal/config"
	"github.com/zurustar/confsync/internal/database"
	"github.com/zurustar/confsync/internal/logging"
	"github.com/zurustar/confsync/internal/metrics"
	"github.com/zurustar/confsync/internal/proxy"
	"github.com/zurustar/confsync/internal/transport"
)

// Core owns the proxy accounts and the conferences. Every entry point
// (transport callbacks, ticks, admin calls, reloads) runs under one lock
// so the state machines never see concurrent calls.
type Core struct {
	mu sync.Mutex

	logger    logging.Logger
	transport transport.Transport
	store     database.NotifyStore
	metrics   *metrics.Metrics

	accounts    *proxy.AccountList
	accountKeys map[string]*proxy.Account

	local        map[string]*conference.LocalHandler
	remote       map[string]*remoteConference
	localURI     *address.Address
	replayWindow int

	cron *cron.Cron

	resubscribeDelay time.Duration
	now              func() time.Time
}

// DefaultResubscribeDelay is the wait before a followed conference whose
// subscription failed or was terminated subscribes again
const DefaultResubscribeDelay = 30 * time.Second

// remoteConference is a followed conference and the account gating its
// subscription
type remoteConference struct {
	handler *conference.RemoteHandler
	account string
	// retryAt holds back a new subscription after a failure
	retryAt time.Time
}

// NewCore wires a core to tr and installs itself as its callbacks. store
// may be nil to disable notify replay.
func NewCore(tr transport.Transport, store database.NotifyStore, m *metrics.Metrics, logger logging.Logger) *Core {
	c := &Core{
		logger:       logger,
		transport:    tr,
		store:        store,
		metrics:      m,
		accountKeys:  make(map[string]*proxy.Account),
		local:        make(map[string]*conference.LocalHandler),
		remote:       make(map[string]*remoteConference),
		replayWindow: conference.DefaultReplayWindow,

		resubscribeDelay: DefaultResubscribeDelay,
		now:              time.Now,
	}
	c.accounts = proxy.NewAccountList(tr, logger)
	c.accounts.SetStateListener(c.accountStateChanged)
	tr.SetCallbacks(c)
	return c
}

// Apply brings accounts and conferences in line with cfg. It is used for
// the initial configuration and for every reload. Errors of individual
// accounts or conferences are joined; the others are still applied.
func (c *Core) Apply(ctx context.Context, cfg *config.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.replayWindow = cfg.Database.ReplayWindow
	c.localURI = nil
	if cfg.Server.LocalURI != "" {
		uri, err := address.Parse(cfg.Server.LocalURI)
		if err != nil {
			return fmt.Errorf("local uri: %w", err)
		}
		c.localURI = uri
	}

	c.accounts.SetRegisterOnlyWhenNetworkUp(cfg.Server.RegisterOnlyWhenNetworkUp)
	c.accounts.SetNetworkReachable(cfg.Server.NetworkReachable)

	err := errors.Join(
		c.applyAccounts(cfg.Accounts),
		c.applyConferences(ctx, cfg.Conferences),
	)

	c.accounts.Iterate()
	c.updateAccountMetrics()
	return err
}

// StartTicker runs Tick on the cron schedule spec
func (c *Core) StartTicker(spec string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron != nil {
		return fmt.Errorf("ticker already running")
	}
	cr := cron.New()
	if _, err := cr.AddFunc(spec, c.Tick); err != nil {
		return fmt.Errorf("invalid tick schedule %q: %w", spec, err)
	}
	cr.Start()
	c.cron = cr
	return nil
}

// StopTicker stops the schedule and waits for a running tick
func (c *Core) StopTicker() {
	c.mu.Lock()
	cr := c.cron
	c.cron = nil
	c.mu.Unlock()

	if cr != nil {
		<-cr.Stop().Done()
	}
}

// Tick runs the registration timers, sends pending registrations and
// resubscribes followed conferences whose subscription ended
func (c *Core) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accounts.Iterate()
	c.updateAccountMetrics()

	now := c.now()
	for _, rc := range c.remote {
		if rc.handler.Subscription() == nil && rc.handler.State() != conference.RemoteTerminated && !now.Before(rc.retryAt) {
			c.syncSubscription(rc)
		}
	}
}

// Shutdown unsubscribes from remote conferences and drops every account.
// Registered accounts send a final unregister.
func (c *Core) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, rc := range c.remote {
		rc.handler.Teardown()
		delete(c.remote, key)
	}
	c.accounts.Clear()
	clear(c.accountKeys)
	c.updateAccountMetrics()
}

// RegistrationStateChanged implements transport.Callbacks
func (c *Core) RegistrationStateChanged(op *transport.Operation, outcome transport.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accounts.HandleOutcome(op, outcome)
	c.updateAccountMetrics()
}

// NotifyReceived implements transport.Callbacks
func (c *Core) NotifyReceived(from *address.Address, subscriptionID string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rc := c.findRemote(from, subscriptionID)
	if rc == nil {
		c.logger.Warn("Notify for a conference that is not followed",
			logging.ConferenceField(from.String()),
			logging.StringField("subscription", subscriptionID))
		return
	}

	conf := rc.handler.Identity().Peer.String()
	err := rc.handler.NotifyReceived(subscriptionID, body)
	c.metrics.NotifyReceived(conf, notifyResult(err))
	if errors.Is(err, conference.ErrVersionGap) {
		c.metrics.Resync(conf)
	}
	c.metrics.SetParticipants(conf, "remote", rc.handler.Model().ParticipantCount())
}

// SubscribeReceived implements transport.Callbacks
func (c *Core) SubscribeReceived(conf, subscriber *address.Address, lastNotify uint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.local[conf.Key()]
	if !ok {
		c.logger.Warn("Subscription to a conference that is not hosted",
			logging.ConferenceField(conf.String()),
			logging.AddressField("subscriber", subscriber.String()))
		return
	}
	if err := h.SubscribeReceived(context.Background(), subscriber, lastNotify); err != nil {
		c.logger.Warn("Failed to bring subscriber up to date",
			logging.ConferenceField(conf.String()),
			logging.ErrorField(err))
	}
	c.metrics.SetSubscribers(h.Conference().String(), len(h.Subscribers()))
}

// UnsubscribeReceived implements transport.Callbacks
func (c *Core) UnsubscribeReceived(conf, subscriber *address.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.local[conf.Key()]
	if !ok {
		return
	}
	if h.UnsubscribeReceived(subscriber) {
		c.logger.Info("Subscriber left",
			logging.ConferenceField(conf.String()),
			logging.AddressField("subscriber", subscriber.String()))
	}
	c.metrics.SetSubscribers(h.Conference().String(), len(h.Subscribers()))
}

// SubscriptionTerminated implements transport.Callbacks. The conference
// subscribes again on a tick after the resubscribe delay.
func (c *Core) SubscriptionTerminated(subscriptionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, rc := range c.remote {
		if rc.handler.SubscriptionTerminated(subscriptionID) {
			rc.retryAt = c.now().Add(c.resubscribeDelay)
			c.logger.Warn("Conference subscription ended",
				logging.ConferenceField(rc.handler.Identity().Peer.String()),
				logging.StringField("subscription", subscriptionID))
			return
		}
	}
}

func notifyResult(err error) string {
	switch {
	case err == nil:
		return "applied"
	case errors.Is(err, conference.ErrVersionGap):
		return "resync"
	case errors.Is(err, conference.ErrStaleNotify):
		return "stale"
	case errors.Is(err, conference.ErrTerminated):
		return "terminated"
	default:
		return "rejected"
	}
}
