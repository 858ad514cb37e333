package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/emiago/sipgo"
	"github.com/emiago/sipgo/sip"
	"github.com/google/uuid"

	"github.com/zurustar/confsync/internal/address"
	"github.com/zurustar/confsync/internal/logging"
)

const (
	// DefaultSubscribeExpires is the lifetime requested for outgoing subscriptions
	DefaultSubscribeExpires = 3600
	// DefaultUserAgent is sent in the User-Agent header
	DefaultUserAgent = "confsync"
)

// Options configures the SIP transport
type Options struct {
	// Network is "udp" or "tcp"
	Network string
	Host    string
	Port    int
	// PublicHost is put in Contact headers. Defaults to Host.
	PublicHost string
	UserAgent  string
	// LocalURI is the From of outgoing subscriptions
	LocalURI         *address.Address
	SubscribeExpires int
}

func (o Options) contactHost() string {
	if o.PublicHost != "" {
		return o.PublicHost
	}
	if o.Host == "" || o.Host == "0.0.0.0" || o.Host == "::" {
		return "127.0.0.1"
	}
	return o.Host
}

// Manager implements Transport on top of sipgo. Requests are sent from
// the calling goroutine; responses are awaited in the background and
// reported through Callbacks.
type Manager struct {
	opts   Options
	logger logging.Logger

	mu        sync.RWMutex
	running   bool
	ua        *sipgo.UserAgent
	server    *sipgo.Server
	client    *sipgo.Client
	cancel    context.CancelFunc
	callbacks Callbacks

	registrations map[string]*registration
	outgoing      map[string]*outgoingSubscription
	incoming      map[string]*incomingDialog
}

// NewManager creates a transport that is inert until Start
func NewManager(opts Options, logger logging.Logger) *Manager {
	if opts.Network == "" {
		opts.Network = "udp"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.SubscribeExpires <= 0 {
		opts.SubscribeExpires = DefaultSubscribeExpires
	}
	return &Manager{
		opts:          opts,
		logger:        logger,
		registrations: make(map[string]*registration),
		outgoing:      make(map[string]*outgoingSubscription),
		incoming:      make(map[string]*incomingDialog),
	}
}

// SetCallbacks installs the receiver of asynchronous events
func (m *Manager) SetCallbacks(cb Callbacks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = cb
}

func (m *Manager) cb() Callbacks {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.callbacks == nil {
		return nopCallbacks{}
	}
	return m.callbacks
}

// Start creates the user agent and listens on the configured address
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	ua, err := sipgo.NewUA(sipgo.WithUserAgent(m.opts.UserAgent))
	if err != nil {
		return fmt.Errorf("failed to create SIP user agent: %w", err)
	}
	server, err := sipgo.NewServer(ua)
	if err != nil {
		ua.Close()
		return fmt.Errorf("failed to create SIP server: %w", err)
	}
	client, err := sipgo.NewClient(ua, sipgo.WithClientHostname(m.opts.contactHost()))
	if err != nil {
		ua.Close()
		return fmt.Errorf("failed to create SIP client: %w", err)
	}

	server.OnSubscribe(m.handleSubscribe)
	server.OnNotify(m.handleNotify)

	ctx, cancel := context.WithCancel(ctx)
	addr := net.JoinHostPort(m.opts.Host, strconv.Itoa(m.opts.Port))
	go func() {
		if err := server.ListenAndServe(ctx, m.opts.Network, addr); err != nil && ctx.Err() == nil {
			m.logger.Error("SIP listener stopped", logging.ErrorField(err))
		}
	}()

	m.ua = ua
	m.server = server
	m.client = client
	m.cancel = cancel
	m.running = true
	m.logger.Info("SIP transport started",
		logging.StringField("network", m.opts.Network),
		logging.StringField("address", addr))
	return nil
}

// Stop closes the listener and forgets every dialog
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	for _, out := range m.outgoing {
		out.stopRefresh()
	}
	m.outgoing = make(map[string]*outgoingSubscription)
	m.incoming = make(map[string]*incomingDialog)
	m.registrations = make(map[string]*registration)

	m.cancel()
	m.running = false
	if err := m.ua.Close(); err != nil {
		return fmt.Errorf("failed to close SIP user agent: %w", err)
	}
	return nil
}

// IsRunning reports whether Start succeeded and Stop was not called
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// send starts a client transaction and hands its final response, or nil
// on timeout, to onFinal from a background goroutine.
func (m *Manager) send(req *sip.Request, onFinal func(res *sip.Response)) error {
	m.mu.RLock()
	client, running := m.client, m.running
	m.mu.RUnlock()
	if !running {
		return ErrNotRunning
	}

	tx, err := client.TransactionRequest(context.Background(), req)
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", req.Method, err)
	}
	go func() {
		defer tx.Terminate()
		for {
			select {
			case res, ok := <-tx.Responses():
				if !ok {
					onFinal(nil)
					return
				}
				if res.IsProvisional() {
					continue
				}
				onFinal(res)
				return
			case <-tx.Done():
				if err := tx.Err(); err != nil {
					m.logger.Debug("Client transaction ended",
						logging.StringField("method", string(req.Method)),
						logging.ErrorField(err))
				}
				onFinal(nil)
				return
			}
		}
	}()
	return nil
}

func (m *Manager) contactURI(user string) sip.Uri {
	return sip.Uri{
		Scheme: "sip",
		User:   user,
		Host:   m.opts.contactHost(),
		Port:   m.opts.Port,
	}
}

func newTag() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// newRequest builds a request with the dialog identifying headers set
func newRequest(method sip.RequestMethod, recipient, from sip.Uri, fromTag string, to sip.Uri, toTag, callID string, cseq uint32) *sip.Request {
	req := sip.NewRequest(method, recipient)

	fromHdr := &sip.FromHeader{Address: from, Params: sip.NewParams()}
	fromHdr.Params.Add("tag", fromTag)
	req.AppendHeader(fromHdr)

	toHdr := &sip.ToHeader{Address: to, Params: sip.NewParams()}
	if toTag != "" {
		toHdr.Params.Add("tag", toTag)
	}
	req.AppendHeader(toHdr)

	callid := sip.CallIDHeader(callID)
	req.AppendHeader(&callid)
	req.AppendHeader(&sip.CSeqHeader{SeqNo: cseq, MethodName: method})
	maxFwd := sip.MaxForwardsHeader(70)
	req.AppendHeader(&maxFwd)
	return req
}

type headerAppender interface {
	AppendHeader(h sip.Header)
}

func appendExpires(msg headerAppender, expires int) {
	exp := sip.ExpiresHeader(uint32(expires))
	msg.AppendHeader(&exp)
}

func setBody(req *sip.Request, contentType string, body []byte) {
	ct := sip.ContentTypeHeader(contentType)
	req.AppendHeader(&ct)
	req.SetBody(body)
}

func headerValue(req *sip.Request, name string) string {
	h := req.GetHeader(name)
	if h == nil {
		return ""
	}
	return strings.TrimSpace(h.Value())
}

func fromTagOf(req *sip.Request) string {
	from := req.From()
	if from == nil || from.Params == nil {
		return ""
	}
	tag, _ := from.Params.Get("tag")
	return tag
}

func toAddress(uri sip.Uri) (*address.Address, error) {
	return address.Parse(uri.String())
}

type nopCallbacks struct{}

func (nopCallbacks) RegistrationStateChanged(*Operation, Outcome)               {}
func (nopCallbacks) NotifyReceived(*address.Address, string, []byte)            {}
func (nopCallbacks) SubscribeReceived(*address.Address, *address.Address, uint) {}
func (nopCallbacks) UnsubscribeReceived(*address.Address, *address.Address)     {}
func (nopCallbacks) SubscriptionTerminated(string)                              {}
