package server

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/zurustar/confsync/internal/auth"
	"github.com/zurustar/confsync/internal/config"
	"github.com/zurustar/confsync/internal/logging"
	"github.com/zurustar/confsync/internal/proxy"
	"github.com/zurustar/confsync/internal/webadmin"
)

// accountKey identifies a configured account across reloads
func accountKey(ac config.AccountConfig) string {
	if ac.Idkey != "" {
		return ac.Idkey
	}
	return "identity:" + ac.Identity
}

// applyAccounts adds, edits and removes accounts to match cfgs. Masters
// are applied before dependents so depends_on resolves.
func (c *Core) applyAccounts(cfgs []config.AccountConfig) error {
	wanted := lo.KeyBy(cfgs, accountKey)

	stale := lo.PickBy(c.accountKeys, func(key string, _ *proxy.Account) bool {
		_, ok := wanted[key]
		return !ok
	})
	deps, masters := lo.FilterReject(lo.Entries(stale), func(e lo.Entry[string, *proxy.Account], _ int) bool {
		return e.Value.Dependency() != nil
	})
	for _, e := range append(deps, masters...) {
		if err := c.accounts.Remove(e.Value); err != nil {
			c.logger.Warn("Failed to remove account", logging.AccountField(e.Value.Idkey()), logging.ErrorField(err))
		}
		delete(c.accountKeys, e.Key)
	}

	independent, dependent := lo.FilterReject(cfgs, func(ac config.AccountConfig, _ int) bool {
		return ac.DependsOn == ""
	})

	var errs []error
	for _, ac := range append(independent, dependent...) {
		if err := c.applyAccount(ac); err != nil {
			errs = append(errs, fmt.Errorf("account %s: %w", ac.Identity, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Core) applyAccount(ac config.AccountConfig) error {
	key := accountKey(ac)
	acc, exists := c.accountKeys[key]
	if exists {
		acc.Edit()
	} else {
		acc = c.accounts.NewAccount()
		acc.SetIdkey(ac.Idkey)
	}

	if err := configureAccount(acc, ac); err != nil {
		return err
	}

	if exists {
		return acc.Done()
	}
	if err := c.accounts.Add(acc); err != nil {
		return err
	}
	c.accountKeys[key] = acc
	return nil
}

// configureAccount copies the persisted keys onto acc
func configureAccount(acc *proxy.Account, ac config.AccountConfig) error {
	if err := acc.SetServer(ac.Proxy); err != nil {
		return err
	}
	if err := acc.SetIdentityString(ac.Identity); err != nil {
		return err
	}
	if err := acc.SetRoutes(ac.Routes); err != nil {
		return err
	}
	acc.SetCredentials(auth.Credentials{Username: ac.Username, Password: ac.Password, Realm: ac.Realm})
	acc.SetExpires(ac.RegisterExpires())
	acc.SetPrivacy(ac.Privacy)
	acc.SetDialPrefix(ac.DialPrefix)
	acc.SetDialEscapePlus(ac.DialEscapePlus)
	acc.EnablePublish(ac.Publish)
	acc.SetPublishExpires(ac.PublishLifetime())

	acc.SetDependsOn(ac.DependsOn)
	switch {
	case ac.DependsOn == "":
		acc.SetDependentDisabled(false)
		acc.EnableRegister(ac.RegisterEnabled())
	case ac.DependentDisabled:
		acc.EnableRegister(false)
	default:
		acc.EnableRegister(ac.RegisterEnabled())
	}
	return nil
}

func (c *Core) accountStateChanged(acc *proxy.Account, state proxy.RegistrationState, reason string) {
	c.metrics.RegistrationState(state.String())
	for _, rc := range c.remote {
		if rc.account == acc.Idkey() {
			c.syncSubscription(rc)
		}
	}
}

func (c *Core) updateAccountMetrics() {
	c.metrics.SetAccounts(lo.CountValuesBy(c.accounts.Accounts(), func(acc *proxy.Account) string {
		return acc.State().String()
	}))
}

// Accounts implements webadmin.StatusProvider
func (c *Core) Accounts() []webadmin.AccountStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	return lo.Map(c.accounts.Accounts(), func(acc *proxy.Account, _ int) webadmin.AccountStatus {
		st := webadmin.AccountStatus{
			Idkey:             acc.Idkey(),
			State:             acc.State().String(),
			Reason:            acc.Reason(),
			DependsOn:         acc.DependsOn(),
			RegisterEnabled:   acc.RegisterEnabled(),
			DependentDisabled: acc.DependentDisabled(),
		}
		if id := acc.Identity(); id != nil {
			st.Identity = id.String()
		}
		if srv := acc.Server(); srv != nil {
			st.Server = srv.String()
		}
		if contact := acc.Contact(); contact != nil {
			st.Contact = contact.String()
		}
		if next := acc.NextRefresh(); !next.IsZero() {
			st.NextRefresh = &next
		}
		return st
	})
}

// NetworkReachable implements webadmin.StatusProvider
func (c *Core) NetworkReachable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accounts.NetworkReachable()
}

// SetNetworkReachable implements webadmin.StatusProvider. Registrations
// committed by a network coming back are sent right away.
func (c *Core) SetNetworkReachable(reachable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accounts.SetNetworkReachable(reachable)
	c.accounts.Iterate()
	c.updateAccountMetrics()
}
