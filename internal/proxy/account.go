package proxy

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zurustar/confsync/internal/address"
	"github.com/zurustar/confsync/internal/auth"
	"github.com/zurustar/confsync/internal/dialplan"
	"github.com/zurustar/confsync/internal/logging"
	"github.com/zurustar/confsync/internal/transport"
)

const (
	// DefaultExpires is the registration lifetime of a new account
	DefaultExpires = 3600
	// NegativeExpires replaces a negative value given to SetExpires
	NegativeExpires = 600

	idkeyPrefix = "proxy_config_"
)

// Account is a proxy account configuration together with its
// registration state machine. Accounts are not safe for concurrent use;
// the owner serializes every entry point.
type Account struct {
	list *AccountList

	idkey    string
	identity *address.Address
	server   *address.Address
	routes   []*address.Address
	expires  int
	privacy  []string

	credentials auth.Credentials

	sendRegister      bool
	dependentDisabled bool
	registerChanged   bool
	commit            bool

	dependsOn  string
	dependency *Account

	savedIdentity *address.Address
	savedServer   *address.Address

	state   RegistrationState
	reason  string
	op      *transport.Operation
	contact *address.Address

	publish        bool
	publishExpires int
	publishChanged bool
	sendPublish    bool

	dialPrefix     string
	dialEscapePlus bool

	nextRefresh time.Time
}

func newAccount(list *AccountList) *Account {
	return &Account{
		list:           list,
		idkey:          newIdkey(),
		expires:        DefaultExpires,
		sendRegister:   true,
		publishExpires: -1,
	}
}

func newIdkey() string {
	return idkeyPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (a *Account) logger() logging.Logger {
	return a.list.logger.With(logging.AccountField(a.idkey))
}

// Idkey returns the stable key other accounts reference in depends_on
func (a *Account) Idkey() string {
	return a.idkey
}

// SetIdkey replaces the generated idkey. Empty keeps the current one.
func (a *Account) SetIdkey(idkey string) {
	if idkey != "" {
		a.idkey = idkey
	}
}

func (a *Account) Identity() *address.Address {
	return a.identity
}

func (a *Account) SetIdentity(identity *address.Address) {
	a.identity = identity
}

// SetIdentityString parses and sets the identity
func (a *Account) SetIdentityString(s string) error {
	identity, err := address.Parse(s)
	if err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	a.identity = identity
	return nil
}

func (a *Account) Server() *address.Address {
	return a.server
}

// SetServer parses and sets the registrar address. A bare host is
// accepted and prefixed with "sip:".
func (a *Account) SetServer(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		a.server = nil
		return nil
	}
	if !strings.Contains(s, ":") || !strings.HasPrefix(strings.ToLower(s), "sip") {
		s = "sip:" + s
	}
	server, err := address.Parse(s)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	a.server = server
	return nil
}

func (a *Account) Routes() []*address.Address {
	return a.routes
}

// SetRoutes parses the outbound route set
func (a *Account) SetRoutes(routes []string) error {
	parsed := make([]*address.Address, 0, len(routes))
	for _, r := range routes {
		route, err := address.Parse(r)
		if err != nil {
			return fmt.Errorf("route: %w", err)
		}
		parsed = append(parsed, route)
	}
	a.routes = parsed
	return nil
}

func (a *Account) Expires() int {
	return a.expires
}

// SetExpires sets the registration lifetime. A negative value becomes
// NegativeExpires.
func (a *Account) SetExpires(expires int) {
	if expires < 0 {
		expires = NegativeExpires
	}
	if expires != a.expires {
		a.registerChanged = true
	}
	a.expires = expires
}

func (a *Account) Credentials() auth.Credentials {
	return a.credentials
}

// SetCredentials sets what answers registrar challenges. A change is
// sent with the next registration.
func (a *Account) SetCredentials(creds auth.Credentials) {
	if creds != a.credentials {
		a.registerChanged = true
	}
	a.credentials = creds
}

// RegisterEnabled reports whether the account sends REGISTER
func (a *Account) RegisterEnabled() bool {
	return a.sendRegister
}

// EnableRegister is the user facing switch. Disabling a dependent
// account marks it as explicitly disabled so a master reaching Ok does
// not turn it back on. Enabling clears that mark.
func (a *Account) EnableRegister(enable bool) {
	if a.dependsOn != "" || a.dependency != nil {
		a.dependentDisabled = !enable
	}
	a.enableRegister(enable)
}

func (a *Account) enableRegister(enable bool) {
	if enable != a.sendRegister {
		a.registerChanged = true
	}
	a.sendRegister = enable
}

// DependentDisabled reports whether registration was explicitly turned
// off on a dependent account
func (a *Account) DependentDisabled() bool {
	return a.dependentDisabled
}

func (a *Account) SetDependentDisabled(disabled bool) {
	a.dependentDisabled = disabled
}

func (a *Account) Privacy() []string {
	return a.privacy
}

func (a *Account) SetPrivacy(privacy []string) {
	a.privacy = privacy
}

func (a *Account) PublishEnabled() bool {
	return a.publish
}

func (a *Account) EnablePublish(enable bool) {
	if enable != a.publish {
		a.publishChanged = true
	}
	a.publish = enable
}

func (a *Account) PublishExpires() int {
	return a.publishExpires
}

func (a *Account) SetPublishExpires(expires int) {
	if expires != a.publishExpires {
		a.publishChanged = true
	}
	a.publishExpires = expires
}

func (a *Account) DialPrefix() string {
	return a.dialPrefix
}

func (a *Account) SetDialPrefix(prefix string) {
	a.dialPrefix = prefix
}

func (a *Account) DialEscapePlus() bool {
	return a.dialEscapePlus
}

func (a *Account) SetDialEscapePlus(escape bool) {
	a.dialEscapePlus = escape
}

// DependsOn returns the idkey of the master account, if any
func (a *Account) DependsOn() string {
	return a.dependsOn
}

// SetDependsOn records the master idkey. The pointer is resolved by the
// list on the next Check.
func (a *Account) SetDependsOn(idkey string) {
	if idkey == a.dependsOn {
		return
	}
	a.dependsOn = idkey
	a.dependency = nil
}

// Dependency returns the resolved master account
func (a *Account) Dependency() *Account {
	return a.dependency
}

// SetDependency links the account to a master. Nil removes the link.
func (a *Account) SetDependency(master *Account) error {
	if master == nil {
		a.dependency = nil
		a.dependsOn = ""
		return nil
	}
	if master == a {
		return ErrSelfDependency
	}
	if master.dependency != nil || master.dependsOn != "" {
		return ErrChainedDependency
	}
	a.dependency = master
	a.dependsOn = master.idkey
	return nil
}

func (a *Account) State() RegistrationState {
	return a.state
}

// Reason returns the message attached to the last reported state
func (a *Account) Reason() string {
	return a.reason
}

// Contact returns the contact recorded by the last successful registration
func (a *Account) Contact() *address.Address {
	return a.contact
}

// Operation returns the in-flight registration, if any
func (a *Account) Operation() *transport.Operation {
	return a.op
}

// NextRefresh returns when the periodic tick will refresh the account.
// The zero time means no refresh is scheduled.
func (a *Account) NextRefresh() time.Time {
	return a.nextRefresh
}

// NormalizePhoneNumber applies the account dial plan to a phone number
func (a *Account) NormalizePhoneNumber(s string) (string, bool) {
	return dialplan.Normalize(&dialplan.Context{
		DialPrefix: a.dialPrefix,
		EscapePlus: a.dialEscapePlus,
	}, s)
}

// NormalizeSipURI turns user input into an address. A phone number is
// normalized first. Bare usernames take the identity domain.
func (a *Account) NormalizeSipURI(s string) (*address.Address, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "sip:") || strings.HasPrefix(lower, "sips:") || strings.Contains(s, "<") {
		return address.Parse(s)
	}
	if a.identity == nil {
		return nil, ErrNoIdentity
	}
	user := s
	if n, ok := a.NormalizePhoneNumber(s); ok {
		user = n
	}
	uri := fmt.Sprintf("%s:%s@%s", a.identity.Scheme(), user, a.identity.Host())
	if port := a.identity.Port(); port != 0 {
		uri = fmt.Sprintf("%s:%d", uri, port)
	}
	return address.Parse(uri)
}

// Check validates the account and resolves its dependency against the list
func (a *Account) Check() error {
	if a.server == nil {
		return ErrNoServer
	}
	if a.identity == nil {
		return ErrNoIdentity
	}
	return a.list.resolve(a)
}

// Edit starts a modification. Done compares the server location against
// what Edit saw.
func (a *Account) Edit() {
	a.savedIdentity = a.identity
	a.savedServer = a.server
	a.publishChanged = false
}

// Done commits a modification started with Edit
func (a *Account) Done() error {
	if err := a.Check(); err != nil {
		return err
	}

	res := address.ServerConfigChanged(a.savedIdentity, a.identity, a.savedServer, a.server)
	if res != address.Equal {
		if a.op != nil {
			if res == address.Different {
				a.unregister()
			}
			a.op.SetUser(nil)
			a.op = nil
		}
		a.commit = true
	}
	if a.registerChanged {
		a.commit = true
		a.registerChanged = false
	}
	if a.commit {
		a.pauseRegister()
	}
	if a.publishChanged {
		if a.publish {
			a.sendPublish = true
		}
		a.publishChanged = false
	}
	return nil
}

// apply runs when the account joins a list. A dependent whose master is
// not registered yet waits for it instead of registering on its own.
func (a *Account) apply() error {
	if a.dependency != nil && a.dependency.state != RegistrationOk && a.sendRegister {
		a.registerChanged = true
	}
	return a.Done()
}

// CanRegister reports whether a pending commit may be sent now
func (a *Account) CanRegister() bool {
	if a.list.registerOnlyWhenNetworkUp && !a.list.networkReachable {
		return false
	}
	if a.dependency != nil {
		if a.dependentDisabled {
			return false
		}
		return a.dependency.state == RegistrationOk
	}
	return true
}

// Update sends what Done committed once the account may register, and
// a pending PUBLISH once registration settled.
func (a *Account) Update() {
	if a.commit && a.CanRegister() {
		a.register()
		a.commit = false
	}
	if a.sendPublish && (a.state == RegistrationOk || a.state == RegistrationCleared) {
		if err := a.list.registrar.SendPublish(a.identity, a.publishExpires); err != nil {
			a.logger().Warn("Failed to send publish", logging.ErrorField(err))
		}
		a.sendPublish = false
	}
}

// Committed reports whether a registration change is waiting for Update
func (a *Account) Committed() bool {
	return a.commit
}

func (a *Account) register() {
	if !a.sendRegister {
		a.unregister()
		if a.state == RegistrationProgress {
			a.SetState(RegistrationCleared, "Registration cleared")
		}
		return
	}

	var contact *address.Address
	if a.dependency != nil {
		contact = a.dependency.contact
	}
	if a.op != nil {
		a.op.SetUser(nil)
		a.op = nil
	}

	a.logger().Info("About to register",
		logging.AddressField("identity", a.identity.String()),
		logging.AddressField("server", a.server.AsStringUriOnly()))

	op, err := a.list.registrar.SendRegister(transport.RegisterRequest{
		Server:   a.server,
		Identity: a.identity,
		Routes:   a.routes,
		Expires:  a.expires,
		Privacy:  a.privacy,
		Contact:  contact,

		Credentials: a.credentials,
	}, a)
	if err != nil {
		a.logger().Warn("Failed to send register", logging.ErrorField(err))
		a.SetState(RegistrationFailed, "Registration failed")
		return
	}
	a.op = op
	a.SetState(RegistrationProgress, "Registration in progress")
}

func (a *Account) unregister() {
	if a.op == nil {
		return
	}
	if a.state == RegistrationOk || (a.state == RegistrationProgress && a.expires != 0) {
		if err := a.list.registrar.Unregister(a.op); err != nil {
			a.logger().Warn("Failed to unregister", logging.ErrorField(err))
		}
	}
}

func (a *Account) pauseRegister() {
	a.nextRefresh = time.Time{}
}

// RefreshRegister sends a refreshing REGISTER on the current operation
func (a *Account) RefreshRegister() {
	if !a.sendRegister || a.op == nil || a.state == RegistrationProgress {
		return
	}
	if err := a.list.registrar.RefreshRegister(a.op, a.expires); err != nil {
		a.logger().Warn("Failed to refresh register", logging.ErrorField(err))
		return
	}
	a.SetState(RegistrationProgress, "Refresh registration")
}

// stopRefreshing drops the current operation without unregistering
func (a *Account) stopRefreshing() {
	if a.op != nil {
		a.op.SetUser(nil)
		a.op = nil
	}
	a.pauseRegister()
}

// SetState reports a new registration state. Ok is reported again on
// every refresh. A master account forwards the state to its dependents.
func (a *Account) SetState(state RegistrationState, reason string) {
	if a.state == state && state != RegistrationOk {
		return
	}

	a.logger().Info("Registration state changed",
		logging.StringField("from", a.state.String()),
		logging.StringField("to", state.String()),
		logging.StringField("reason", reason))

	a.state = state
	a.reason = reason
	a.scheduleRefresh()

	if a.dependency == nil {
		a.list.updateDependents(a, state, reason)
	}
	a.list.notify(a, state, reason)
}

func (a *Account) scheduleRefresh() {
	now := a.list.now()
	switch a.state {
	case RegistrationOk:
		if a.expires == 0 {
			a.nextRefresh = time.Time{}
			return
		}
		a.nextRefresh = now.Add(time.Duration(a.expires) * time.Second * 9 / 10)
	case RegistrationFailed:
		if a.sendRegister {
			a.nextRefresh = now.Add(a.list.retryDelay)
		}
	default:
		a.nextRefresh = time.Time{}
	}
}

// refreshDue retries a failed account or renews an Ok one when its
// timer expired
func (a *Account) refreshDue(now time.Time) {
	if a.nextRefresh.IsZero() || now.Before(a.nextRefresh) || !a.CanRegister() {
		return
	}
	a.nextRefresh = time.Time{}
	if a.op == nil {
		a.commit = true
		return
	}
	a.RefreshRegister()
}
