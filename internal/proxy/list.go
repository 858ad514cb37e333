package proxy

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/zurustar/confsync/internal/logging"
	"github.com/zurustar/confsync/internal/transport"
)

// DefaultRetryDelay is how long a failed account waits before retrying
const DefaultRetryDelay = 60 * time.Second

// AccountList owns the active accounts and the environment they
// register in. It is not safe for concurrent use.
type AccountList struct {
	registrar Registrar
	logger    logging.Logger
	accounts  []*Account
	listener  StateListener

	networkReachable          bool
	registerOnlyWhenNetworkUp bool
	retryDelay                time.Duration
	now                       func() time.Time
}

// NewAccountList creates an empty list registering through registrar
func NewAccountList(registrar Registrar, logger logging.Logger) *AccountList {
	return &AccountList{
		registrar:        registrar,
		logger:           logger,
		networkReachable: true,
		retryDelay:       DefaultRetryDelay,
		now:              time.Now,
	}
}

// NewAccount creates an account bound to this list's environment. It
// takes part in registration once passed to Add.
func (l *AccountList) NewAccount() *Account {
	return newAccount(l)
}

// SetStateListener installs the callback told about state changes
func (l *AccountList) SetStateListener(listener StateListener) {
	l.listener = listener
}

// SetRetryDelay changes the delay before a failed account retries
func (l *AccountList) SetRetryDelay(d time.Duration) {
	l.retryDelay = d
}

// SetClock replaces the time source of the refresh timers
func (l *AccountList) SetClock(now func() time.Time) {
	l.now = now
}

// SetRegisterOnlyWhenNetworkUp makes CanRegister depend on reachability
func (l *AccountList) SetRegisterOnlyWhenNetworkUp(only bool) {
	l.registerOnlyWhenNetworkUp = only
}

// NetworkReachable reports the last reachability given to the list
func (l *AccountList) NetworkReachable() bool {
	return l.networkReachable
}

// SetNetworkReachable records a reachability change. Going down drops
// every registration. Coming back commits a fresh REGISTER for each
// account; the next Iterate sends them.
func (l *AccountList) SetNetworkReachable(reachable bool) {
	if reachable == l.networkReachable {
		return
	}
	l.networkReachable = reachable
	l.logger.Info("Network reachability changed", logging.StringField("reachable", fmt.Sprint(reachable)))

	for _, acc := range l.accounts {
		if reachable {
			if acc.sendRegister {
				acc.commit = true
			}
			continue
		}
		acc.stopRefreshing()
		acc.SetState(RegistrationNone, "Registration impossible (network down)")
	}
}

// Accounts returns the accounts in insertion order
func (l *AccountList) Accounts() []*Account {
	return append([]*Account(nil), l.accounts...)
}

// Len returns the number of accounts
func (l *AccountList) Len() int {
	return len(l.accounts)
}

// FindByIdkey returns the account with idkey, or nil
func (l *AccountList) FindByIdkey(idkey string) *Account {
	acc, _ := lo.Find(l.accounts, func(a *Account) bool { return a.idkey == idkey })
	return acc
}

// Contains reports whether acc is in the list
func (l *AccountList) Contains(acc *Account) bool {
	return lo.Contains(l.accounts, acc)
}

// Add validates acc and appends it. Adding an account twice is ignored.
func (l *AccountList) Add(acc *Account) error {
	if err := acc.Check(); err != nil {
		return fmt.Errorf("add account %s: %w", acc.idkey, err)
	}
	if l.Contains(acc) {
		acc.logger().Warn("Account already entered, ignored")
		return nil
	}
	l.accounts = append(l.accounts, acc)
	return acc.apply()
}

// Remove takes acc out of the list. Its dependents become independent
// and register on their own unless they were explicitly disabled. A
// registered account unregisters.
func (l *AccountList) Remove(acc *Account) error {
	if !l.Contains(acc) {
		l.logger.Error("Account is not known, cannot remove", logging.AccountField(acc.idkey))
		return ErrNotInList
	}
	l.accounts = lo.Without(l.accounts, acc)

	for _, dep := range l.dependentsOf(acc) {
		dep.logger().Info("Master account removed, registering independently")
		_ = dep.SetDependency(nil)
		dep.commit = true
		if !dep.dependentDisabled {
			dep.enableRegister(true)
			dep.registerChanged = false
		}
		dep.Update()
	}

	if acc.state == RegistrationOk {
		acc.Edit()
		acc.enableRegister(false)
		if err := acc.Done(); err != nil {
			acc.logger().Warn("Failed to commit removal", logging.ErrorField(err))
		}
		acc.Update()
	} else if acc.state != RegistrationNone {
		acc.SetState(RegistrationNone, "Registration disabled")
	}
	return nil
}

// Clear removes every account, dependents first
func (l *AccountList) Clear() {
	deps, masters := lo.FilterReject(l.accounts, func(a *Account, _ int) bool { return a.dependency != nil })
	for _, acc := range append(deps, masters...) {
		_ = l.Remove(acc)
	}
}

func (l *AccountList) dependentsOf(master *Account) []*Account {
	return lo.Filter(l.accounts, func(a *Account, _ int) bool {
		return a != master && a.dependency == master
	})
}

// resolve binds acc.dependency to the listed account named by depends_on
func (l *AccountList) resolve(acc *Account) error {
	if acc.dependsOn == "" {
		acc.dependency = nil
		return nil
	}
	master := l.FindByIdkey(acc.dependsOn)
	if master == nil {
		if acc.dependency != nil {
			acc.logger().Warn("Master account is not in the list",
				logging.StringField("depends_on", acc.dependsOn))
		}
		return fmt.Errorf("%w: %s", ErrUnresolvedDependency, acc.dependsOn)
	}
	if master == acc {
		return ErrSelfDependency
	}
	if master.dependsOn != "" {
		return ErrChainedDependency
	}
	if acc.dependency != nil && acc.dependency != master {
		acc.logger().Error("Dependency idkey mismatch, relinking",
			logging.StringField("depends_on", acc.dependsOn),
			logging.StringField("linked", acc.dependency.idkey))
	}
	acc.dependency = master
	return nil
}

// ResolveDependencies revalidates every dependency link by idkey
func (l *AccountList) ResolveDependencies() {
	for _, acc := range l.accounts {
		if err := l.resolve(acc); err != nil {
			acc.logger().Warn("Cannot resolve dependency", logging.ErrorField(err))
		}
	}
}

// updateDependents forwards a master state to its dependents. Ok forces
// them to register again with the master contact. Failed and Cleared
// are mirrored.
func (l *AccountList) updateDependents(master *Account, state RegistrationState, reason string) {
	for _, dep := range l.dependentsOf(master) {
		if !dep.sendRegister || dep.dependentDisabled {
			dep.logger().Debug("Dependent account has registration disabled, skipped")
			continue
		}
		dep.Edit()
		switch state {
		case RegistrationOk:
			dep.sendRegister = false
			dep.enableRegister(true)
			if master.contact != nil {
				dep.contact = master.contact
			}
		case RegistrationCleared, RegistrationFailed:
			dep.pauseRegister()
			dep.SetState(state, reason)
		}
		if err := dep.Done(); err != nil {
			dep.logger().Warn("Failed to commit dependent", logging.ErrorField(err))
			continue
		}
		dep.Update()
	}
}

func (l *AccountList) notify(acc *Account, state RegistrationState, reason string) {
	if l.listener != nil {
		l.listener(acc, state, reason)
	}
}

// HandleOutcome applies a REGISTER completion. Outcomes of operations
// that were superseded or released are dropped.
func (l *AccountList) HandleOutcome(op *transport.Operation, outcome transport.Outcome) {
	acc, ok := op.User().(*Account)
	if !ok || acc == nil || acc.op != op {
		l.logger.Debug("Dropping outcome of a released registration",
			logging.StringField("operation", op.ID()),
			logging.StringField("outcome", outcome.State.String()))
		return
	}
	state := StateFromOutcome(outcome.State)
	if state == RegistrationOk && outcome.Contact != nil {
		acc.contact = outcome.Contact
	}
	reason := outcome.Reason
	if reason == "" {
		reason = fmt.Sprintf("Registration %s", state)
	}
	acc.SetState(state, reason)
}

// Iterate is the periodic tick: commits pending changes and runs the
// refresh and retry timers.
func (l *AccountList) Iterate() {
	now := l.now()
	for _, acc := range l.Accounts() {
		acc.refreshDue(now)
		acc.Update()
	}
}
