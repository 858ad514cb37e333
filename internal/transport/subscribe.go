package transport

import (
	"strconv"
	"strings"
	"time"

	"github.com/emiago/sipgo/sip"
	"github.com/google/uuid"

	"github.com/zurustar/confsync/internal/address"
	"github.com/zurustar/confsync/internal/logging"
)

const (
	// EventConference is the event package of conference state
	EventConference = "conference"
	// ContentTypeConferenceInfo is the MIME type of conference-info documents
	ContentTypeConferenceInfo = "application/conference-info+xml"
	// HeaderLastNotifyVersion carries the last version a subscriber applied
	HeaderLastNotifyVersion = "Last-Notify-Version"
)

// outgoingSubscription is a SUBSCRIBE dialog this side initiated
type outgoingSubscription struct {
	sub     *Subscription
	fromTag string
	toTag   string
	cseq    uint32
	timer   *time.Timer
}

func (o *outgoingSubscription) stopRefresh() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}

// incomingDialog is a subscription to one of our conferences
type incomingDialog struct {
	conference *address.Address
	subscriber *address.Address
	callID     string
	localTag   string
	remoteTag  string
	target     sip.Uri
	source     string
	cseq       uint32
	expiresAt  time.Time
}

func dialogKey(conference, subscriber *address.Address) string {
	return conference.Key() + "|" + subscriber.Key()
}

// Subscribe opens a conference event subscription to peer. lastNotify is
// sent so the focus can replay what was missed.
func (m *Manager) Subscribe(peer *address.Address, lastNotify uint) (*Subscription, error) {
	out := &outgoingSubscription{
		sub:     &Subscription{ID: uuid.NewString(), Peer: peer, LastNotify: lastNotify},
		fromTag: newTag(),
	}
	m.mu.Lock()
	m.outgoing[out.sub.ID] = out
	m.mu.Unlock()

	if err := m.sendSubscribe(out, m.opts.SubscribeExpires, true); err != nil {
		m.forgetSubscription(out.sub.ID)
		return nil, err
	}
	return out.sub, nil
}

// Unsubscribe ends a subscription opened by Subscribe
func (m *Manager) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return nil
	}
	out := m.forgetSubscription(sub.ID)
	if out == nil {
		return nil
	}
	return m.sendSubscribe(out, 0, false)
}

func (m *Manager) forgetSubscription(id string) *outgoingSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	out, ok := m.outgoing[id]
	if !ok {
		return nil
	}
	out.stopRefresh()
	delete(m.outgoing, id)
	return out
}

// sendSubscribe sends an initial, refreshing or terminating SUBSCRIBE.
// Only the initial one carries the last notify version; a refresh keeps
// the dialog alive without asking for a resync.
func (m *Manager) sendSubscribe(out *outgoingSubscription, expires int, initial bool) error {
	m.mu.Lock()
	out.cseq++
	cseq, toTag := out.cseq, out.toTag
	m.mu.Unlock()

	peer := out.sub.Peer.URI()
	from := m.contactURI("")
	if m.opts.LocalURI != nil {
		from = m.opts.LocalURI.URI()
	}

	req := newRequest(sip.SUBSCRIBE, peer, from, out.fromTag, peer, toTag, out.sub.ID, cseq)
	req.AppendHeader(&sip.ContactHeader{Address: m.contactURI(from.User)})
	req.AppendHeader(sip.NewHeader("Event", EventConference))
	req.AppendHeader(sip.NewHeader("Accept", ContentTypeConferenceInfo))
	if initial {
		req.AppendHeader(sip.NewHeader(HeaderLastNotifyVersion, strconv.FormatUint(uint64(out.sub.LastNotify), 10)))
	}
	appendExpires(req, expires)

	logger := m.logger.With(
		logging.ConferenceField(out.sub.Peer.String()),
		logging.StringField("subscription", out.sub.ID))

	return m.send(req, func(res *sip.Response) {
		if expires == 0 {
			return
		}
		if res == nil || !res.IsSuccess() {
			code := 408
			if res != nil {
				code = res.StatusCode
			}
			logger.Warn("SUBSCRIBE rejected", logging.IntField("code", code))
			m.terminateSubscription(out.sub.ID)
			return
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.outgoing[out.sub.ID]; !ok {
			return
		}
		if to := res.To(); to != nil && to.Params != nil {
			if tag, ok := to.Params.Get("tag"); ok {
				out.toTag = tag
			}
		}
		out.stopRefresh()
		out.timer = time.AfterFunc(refreshDelay(expires), func() {
			if err := m.sendSubscribe(out, expires, false); err != nil {
				logger.Warn("Failed to refresh subscription", logging.ErrorField(err))
				m.terminateSubscription(out.sub.ID)
			}
		})
	})
}

// terminateSubscription forgets a subscription that ended without an
// Unsubscribe and reports it
func (m *Manager) terminateSubscription(id string) {
	if m.forgetSubscription(id) != nil {
		m.cb().SubscriptionTerminated(id)
	}
}

func refreshDelay(expires int) time.Duration {
	return time.Duration(expires) * time.Second * 9 / 10
}

// handleNotify delivers conference-info bodies to the callbacks
func (m *Manager) handleNotify(req *sip.Request, tx sip.ServerTransaction) {
	if !strings.EqualFold(eventPackage(headerValue(req, "Event")), EventConference) {
		m.respond(req, tx, 489, "Bad Event")
		return
	}
	from := req.From()
	if from == nil {
		m.respond(req, tx, 400, "Missing From")
		return
	}
	peer, err := toAddress(from.Address)
	if err != nil {
		m.respond(req, tx, 400, "Bad From")
		return
	}

	var subscriptionID string
	if callID := req.CallID(); callID != nil {
		m.mu.RLock()
		if _, ok := m.outgoing[callID.Value()]; ok {
			subscriptionID = callID.Value()
		}
		m.mu.RUnlock()
	}
	m.respond(req, tx, 200, "OK")

	if body := req.Body(); len(body) > 0 {
		m.cb().NotifyReceived(peer, subscriptionID, body)
	}
	if strings.HasPrefix(strings.ToLower(headerValue(req, "Subscription-State")), "terminated") && subscriptionID != "" {
		m.terminateSubscription(subscriptionID)
	}
}

// handleSubscribe tracks subscriptions to local conferences
func (m *Manager) handleSubscribe(req *sip.Request, tx sip.ServerTransaction) {
	if !strings.EqualFold(eventPackage(headerValue(req, "Event")), EventConference) {
		m.respond(req, tx, 489, "Bad Event")
		return
	}
	conference, err := toAddress(req.Recipient)
	if err != nil {
		m.respond(req, tx, 400, "Bad Request-URI")
		return
	}
	from := req.From()
	if from == nil {
		m.respond(req, tx, 400, "Missing From")
		return
	}
	subscriber, err := toAddress(from.Address)
	if err != nil {
		m.respond(req, tx, 400, "Bad From")
		return
	}

	expires := m.opts.SubscribeExpires
	if v := headerValue(req, "Expires"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			expires = n
		}
	}
	lastNotify := parseLastNotify(headerValue(req, HeaderLastNotifyVersion))

	callID := ""
	if c := req.CallID(); c != nil {
		callID = c.Value()
	}
	key := dialogKey(conference, subscriber)

	res := sip.NewResponseFromRequest(req, 200, "OK", nil)
	localTag := ""
	if to := res.To(); to != nil {
		if to.Params == nil {
			to.Params = sip.NewParams()
		}
		if tag, ok := to.Params.Get("tag"); ok {
			localTag = tag
		} else {
			localTag = newTag()
			to.Params.Add("tag", localTag)
		}
	}
	appendExpires(res, expires)

	m.mu.Lock()
	existing, found := m.incoming[key]
	current := found && existing.callID == callID
	refresh := current && expires > 0
	if expires == 0 {
		// an unsubscribe of a replaced dialog leaves the live one alone
		if current {
			delete(m.incoming, key)
		}
	} else {
		target := from.Address
		if contact := req.Contact(); contact != nil {
			target = contact.Address
		}
		m.incoming[key] = &incomingDialog{
			conference: conference,
			subscriber: subscriber,
			callID:     callID,
			localTag:   localTag,
			remoteTag:  fromTagOf(req),
			target:     target,
			source:     req.Source(),
			cseq:       dialogCSeq(existing, refresh),
			expiresAt:  time.Now().Add(time.Duration(expires) * time.Second),
		}
	}
	m.mu.Unlock()

	if err := tx.Respond(res); err != nil {
		m.logger.Warn("Failed to answer SUBSCRIBE", logging.ErrorField(err))
	}

	switch {
	case expires == 0 && current:
		m.cb().UnsubscribeReceived(conference, subscriber)
	case expires == 0:
		m.logger.Debug("Ignoring unsubscribe of a replaced dialog",
			logging.ConferenceField(conference.String()),
			logging.AddressField("subscriber", subscriber.String()),
			logging.StringField("call_id", callID))
	case refresh:
		m.logger.Debug("Subscription refreshed",
			logging.ConferenceField(conference.String()),
			logging.AddressField("subscriber", subscriber.String()))
	default:
		m.cb().SubscribeReceived(conference, subscriber, lastNotify)
	}
}

func dialogCSeq(existing *incomingDialog, refresh bool) uint32 {
	if refresh && existing != nil {
		return existing.cseq
	}
	return 0
}

// SendNotify sends a conference-info body in the subscription dialog of
// peer to conference
func (m *Manager) SendNotify(conference, peer *address.Address, body []byte) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrNotRunning
	}
	key := dialogKey(conference, peer)
	d, ok := m.incoming[key]
	if !ok {
		m.mu.Unlock()
		return ErrNoDialog
	}
	d.cseq++
	cseq := d.cseq
	remaining := int(time.Until(d.expiresAt).Seconds())
	m.mu.Unlock()

	state := "terminated;reason=timeout"
	if remaining > 0 {
		state = "active;expires=" + strconv.Itoa(remaining)
	}

	req := newRequest(sip.NOTIFY, d.target, d.conference.URI(), d.localTag, d.subscriber.URI(), d.remoteTag, d.callID, cseq)
	req.AppendHeader(&sip.ContactHeader{Address: m.contactURI(d.conference.User())})
	req.AppendHeader(sip.NewHeader("Event", EventConference))
	req.AppendHeader(sip.NewHeader("Subscription-State", state))
	setBody(req, ContentTypeConferenceInfo, body)
	if d.source != "" {
		req.SetDestination(d.source)
	}

	return m.send(req, func(res *sip.Response) {
		if res == nil || res.IsSuccess() {
			return
		}
		if res.StatusCode == 481 {
			m.mu.Lock()
			if cur, ok := m.incoming[key]; ok && cur == d {
				delete(m.incoming, key)
			}
			m.mu.Unlock()
			m.cb().UnsubscribeReceived(d.conference, d.subscriber)
			return
		}
		m.logger.Warn("NOTIFY rejected",
			logging.ConferenceField(d.conference.String()),
			logging.AddressField("subscriber", d.subscriber.String()),
			logging.IntField("code", res.StatusCode))
	})
}

func (m *Manager) respond(req *sip.Request, tx sip.ServerTransaction, code int, reason string) {
	if err := tx.Respond(sip.NewResponseFromRequest(req, code, reason, nil)); err != nil {
		m.logger.Warn("Failed to send response",
			logging.IntField("code", code),
			logging.ErrorField(err))
	}
}

// eventPackage strips parameters from an Event header value
func eventPackage(v string) string {
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

func parseLastNotify(v string) uint {
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0
	}
	return uint(n)
}
