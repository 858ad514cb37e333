package server

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/zurustar/confsync/internal/address"
	"github.com/zurustar/confsync/internal/conference"
	"github.com/zurustar/confsync/internal/config"
	"github.com/zurustar/confsync/internal/confinfo"
	"github.com/zurustar/confsync/internal/logging"
	"github.com/zurustar/confsync/internal/metrics"
	"github.com/zurustar/confsync/internal/proxy"
	"github.com/zurustar/confsync/internal/transport"
	"github.com/zurustar/confsync/internal/webadmin"
)

// conferenceNotifier sends the documents of one hosted conference
type conferenceNotifier struct {
	transport  transport.Transport
	conference *address.Address
	metrics    *metrics.Metrics
}

// SendNotify implements conference.Notifier
func (n *conferenceNotifier) SendNotify(peer *address.Address, body []byte) error {
	if err := n.transport.SendNotify(n.conference, peer, body); err != nil {
		return err
	}
	kind := "partial"
	if h, err := confinfo.PeekHeader(body); err == nil && h.State == confinfo.StateFull {
		kind = "full"
	}
	n.metrics.NotifySent(n.conference.String(), kind)
	return nil
}

// applyConferences creates hosted and followed conferences that are new
// in cc and tears down those that are gone
func (c *Core) applyConferences(ctx context.Context, cc config.ConferencesConfig) error {
	var errs []error

	localWanted := make(map[string]bool)
	for _, lc := range cc.Local {
		addr, err := address.Parse(lc.Address)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		localWanted[addr.Key()] = true
		if err := c.hostConference(ctx, addr, lc.Subject); err != nil {
			errs = append(errs, err)
		}
	}
	for key, h := range c.local {
		if !localWanted[key] {
			c.logger.Info("Conference no longer hosted", logging.ConferenceField(h.Conference().String()))
			c.metrics.ForgetConference(h.Conference().String())
			delete(c.local, key)
		}
	}

	remoteWanted := make(map[string]bool)
	for _, rcfg := range cc.Remote {
		addr, err := address.Parse(rcfg.Address)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		remoteWanted[addr.Key()] = true
		c.followConference(addr, rcfg.Account)
	}
	for key, rc := range c.remote {
		if !remoteWanted[key] {
			peer := rc.handler.Identity().Peer.String()
			c.logger.Info("Conference no longer followed", logging.ConferenceField(peer))
			rc.handler.Teardown()
			c.metrics.ForgetConference(peer)
			delete(c.remote, key)
		}
	}

	return errors.Join(errs...)
}

// hostConference creates the focus for addr, resuming its version
// sequence from the notify log
func (c *Core) hostConference(ctx context.Context, addr *address.Address, subject string) error {
	h, ok := c.local[addr.Key()]
	if !ok {
		notifier := &conferenceNotifier{transport: c.transport, conference: addr, metrics: c.metrics}
		h = conference.NewLocalHandler(addr, notifier, c.store, c.logger)
		if err := h.Resume(ctx); err != nil {
			return err
		}
		c.local[addr.Key()] = h
		c.logger.Info("Hosting conference",
			logging.ConferenceField(addr.String()),
			logging.VersionField(h.LastNotify()))
	}
	h.SetReplayWindow(c.replayWindow)
	if subject != "" {
		if err := h.SetSubject(ctx, subject); err != nil {
			return err
		}
	}
	return nil
}

// followConference creates the remote handler for addr, or rebinds the
// gating account of an existing one
func (c *Core) followConference(addr *address.Address, account string) {
	rc, ok := c.remote[addr.Key()]
	if !ok {
		identity := conference.Identity{Peer: addr, Local: c.localIdentity(account)}
		rc = &remoteConference{handler: conference.NewRemoteHandler(identity, c.transport, c.logger)}
		rc.handler.AddListener(conference.ListenerFunc(func(ev conference.Event) {
			c.logger.Debug("Conference event",
				logging.ConferenceField(addr.String()),
				logging.StringField("event", ev.Kind().String()),
				logging.VersionField(ev.Info().NotifyID))
		}))
		c.remote[addr.Key()] = rc
		c.logger.Info("Following conference", logging.ConferenceField(addr.String()))
	}
	rc.account = account
	c.syncSubscription(rc)
}

// localIdentity is the address a followed conference knows us by
func (c *Core) localIdentity(account string) *address.Address {
	if acc := c.accounts.FindByIdkey(account); account != "" && acc != nil {
		return acc.Identity()
	}
	return c.localURI
}

// syncSubscription subscribes once the gating account is registered
// and drops the subscription when the account fails or unregisters. A
// conference without a gating account is subscribed right away.
func (c *Core) syncSubscription(rc *remoteConference) {
	want := true
	if rc.account != "" {
		acc := c.accounts.FindByIdkey(rc.account)
		if acc == nil {
			want = false
		} else {
			switch acc.State() {
			case proxy.RegistrationOk:
			case proxy.RegistrationProgress:
				// a refresh keeps the current subscription
				want = rc.handler.Subscription() != nil
			default:
				want = false
			}
		}
	}

	switch {
	case want && rc.handler.Subscription() == nil:
		if err := rc.handler.Subscribe(); err != nil {
			rc.retryAt = c.now().Add(c.resubscribeDelay)
			c.logger.Warn("Failed to subscribe", logging.ErrorField(err))
		}
	case !want && rc.handler.Subscription() != nil:
		rc.handler.Unsubscribe()
	}
}

// findRemote returns the followed conference a notify belongs to, by
// subscription first and by sender otherwise
func (c *Core) findRemote(from *address.Address, subscriptionID string) *remoteConference {
	if subscriptionID != "" {
		for _, rc := range c.remote {
			if sub := rc.handler.Subscription(); sub != nil && sub.ID == subscriptionID {
				return rc
			}
		}
	}
	return c.remote[from.Key()]
}

// Conferences implements webadmin.StatusProvider
func (c *Core) Conferences() []webadmin.ConferenceStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	statuses := make([]webadmin.ConferenceStatus, 0, len(c.local)+len(c.remote))
	for _, h := range c.local {
		statuses = append(statuses, webadmin.ConferenceStatus{
			Address:     h.Conference().String(),
			Side:        "local",
			Subscribers: h.Subscribers(),
			Conference:  h.Snapshot(),
		})
	}
	for _, rc := range c.remote {
		statuses = append(statuses, webadmin.ConferenceStatus{
			Address:    rc.handler.Identity().Peer.String(),
			Side:       "remote",
			State:      rc.handler.State().String(),
			Account:    rc.account,
			Conference: rc.handler.Model().Snapshot(),
		})
	}
	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].Side != statuses[j].Side {
			return statuses[i].Side < statuses[j].Side
		}
		return statuses[i].Address < statuses[j].Address
	})
	return statuses
}

// hosted resolves a hosted conference by address
func (c *Core) hosted(conf string) (*conference.LocalHandler, error) {
	addr, err := address.Parse(conf)
	if err != nil {
		return nil, err
	}
	h, ok := c.local[addr.Key()]
	if !ok {
		return nil, fmt.Errorf("conference %s: %w", conf, webadmin.ErrNotFound)
	}
	return h, nil
}

// mutate runs fn on a hosted conference and refreshes its gauge
func (c *Core) mutate(conf string, fn func(h *conference.LocalHandler) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, err := c.hosted(conf)
	if err != nil {
		return err
	}
	if err := fn(h); err != nil {
		return err
	}
	c.metrics.SetParticipants(h.Conference().String(), "local", len(h.Snapshot().Participants))
	return nil
}

func parseAll(values ...string) ([]*address.Address, error) {
	addrs := make([]*address.Address, 0, len(values))
	for _, v := range values {
		addr, err := address.Parse(v)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// AddParticipant implements webadmin.ConferenceController
func (c *Core) AddParticipant(ctx context.Context, conf, participant string) error {
	return c.mutate(conf, func(h *conference.LocalHandler) error {
		addrs, err := parseAll(participant)
		if err != nil {
			return err
		}
		return h.AddParticipant(ctx, addrs[0])
	})
}

// RemoveParticipant implements webadmin.ConferenceController
func (c *Core) RemoveParticipant(ctx context.Context, conf, participant string) error {
	return c.mutate(conf, func(h *conference.LocalHandler) error {
		addrs, err := parseAll(participant)
		if err != nil {
			return err
		}
		return h.RemoveParticipant(ctx, addrs[0])
	})
}

// SetParticipantAdmin implements webadmin.ConferenceController
func (c *Core) SetParticipantAdmin(ctx context.Context, conf, participant string, admin bool) error {
	return c.mutate(conf, func(h *conference.LocalHandler) error {
		addrs, err := parseAll(participant)
		if err != nil {
			return err
		}
		return h.SetParticipantAdmin(ctx, addrs[0], admin)
	})
}

// AddDevice implements webadmin.ConferenceController
func (c *Core) AddDevice(ctx context.Context, conf, participant, device string) error {
	return c.mutate(conf, func(h *conference.LocalHandler) error {
		addrs, err := parseAll(participant, device)
		if err != nil {
			return err
		}
		return h.AddDevice(ctx, addrs[0], addrs[1])
	})
}

// RemoveDevice implements webadmin.ConferenceController
func (c *Core) RemoveDevice(ctx context.Context, conf, participant, device string) error {
	return c.mutate(conf, func(h *conference.LocalHandler) error {
		addrs, err := parseAll(participant, device)
		if err != nil {
			return err
		}
		return h.RemoveDevice(ctx, addrs[0], addrs[1])
	})
}

// SetDeviceState implements webadmin.ConferenceController
func (c *Core) SetDeviceState(ctx context.Context, conf, participant, device, state string) error {
	ds, ok := conference.ParseDeviceState(state)
	if !ok {
		return fmt.Errorf("%w: %q", conference.ErrInvalidDeviceState, state)
	}
	return c.mutate(conf, func(h *conference.LocalHandler) error {
		addrs, err := parseAll(participant, device)
		if err != nil {
			return err
		}
		return h.SetDeviceState(ctx, addrs[0], addrs[1], ds)
	})
}

// SetSubject implements webadmin.ConferenceController
func (c *Core) SetSubject(ctx context.Context, conf, subject string) error {
	return c.mutate(conf, func(h *conference.LocalHandler) error {
		return h.SetSubject(ctx, subject)
	})
}
