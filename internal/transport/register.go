package transport

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/emiago/sipgo/sip"
	"github.com/google/uuid"

	"github.com/zurustar/confsync/internal/address"
	"github.com/zurustar/confsync/internal/auth"
	"github.com/zurustar/confsync/internal/logging"
)

// registration is the dialog state behind an Operation
type registration struct {
	op      *Operation
	callID  string
	fromTag string
	cseq    uint32

	// last digest challenge, answered pre-emptively on refreshes
	challenge *auth.Challenge
	proxyAuth bool
}

// SendRegister starts a registration bound to user
func (m *Manager) SendRegister(req RegisterRequest, user any) (*Operation, error) {
	if req.Server == nil || req.Identity == nil {
		return nil, fmt.Errorf("register needs a server and an identity")
	}
	reg := &registration{
		op:      NewOperation(uuid.NewString(), req, user),
		callID:  uuid.NewString(),
		fromTag: newTag(),
	}

	m.mu.Lock()
	m.registrations[reg.op.ID()] = reg
	m.mu.Unlock()

	if err := m.sendRegister(reg, req.Expires); err != nil {
		m.forgetRegistration(reg)
		return nil, err
	}
	return reg.op, nil
}

// RefreshRegister sends a new REGISTER in the operation's dialog
func (m *Manager) RefreshRegister(op *Operation, expires int) error {
	reg, err := m.registration(op)
	if err != nil {
		return err
	}
	return m.sendRegister(reg, expires)
}

// Unregister sends a REGISTER with a zero lifetime. The outcome is
// reported as Cleared.
func (m *Manager) Unregister(op *Operation) error {
	reg, err := m.registration(op)
	if err != nil {
		return err
	}
	return m.sendRegister(reg, 0)
}

func (m *Manager) registration(op *Operation) (*registration, error) {
	if op == nil {
		return nil, ErrUnknownOperation
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	reg, ok := m.registrations[op.ID()]
	if !ok {
		return nil, ErrUnknownOperation
	}
	return reg, nil
}

func (m *Manager) forgetRegistration(reg *registration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.registrations, reg.op.ID())
}

func (m *Manager) sendRegister(reg *registration, expires int) error {
	return m.sendRegisterAttempt(reg, expires, false)
}

// sendRegisterAttempt sends one REGISTER. A 401 or 407 answering a first
// attempt is retried once with credentials.
func (m *Manager) sendRegisterAttempt(reg *registration, expires int, retry bool) error {
	m.mu.Lock()
	reg.cseq++
	cseq := reg.cseq
	challenge, proxyAuth := reg.challenge, reg.proxyAuth
	m.mu.Unlock()

	req := m.buildRegister(reg, cseq, expires)
	logger := m.logger.With(logging.StringField("operation", reg.op.ID()))
	if challenge != nil {
		if err := authorize(req, reg.op.Request().Credentials, challenge, proxyAuth); err != nil {
			logger.Warn("Cannot answer digest challenge", logging.ErrorField(err))
		}
	}
	logger.Debug("Sending REGISTER", logging.IntField("expires", expires), logging.BoolField("authorized", challenge != nil))

	return m.send(req, func(res *sip.Response) {
		if !retry && m.challenged(reg, res) {
			err := m.sendRegisterAttempt(reg, expires, true)
			if err == nil {
				return
			}
			logger.Warn("Failed to send authorized REGISTER", logging.ErrorField(err))
		}
		outcome := registerOutcome(res, expires)
		if expires == 0 && res != nil {
			m.forgetRegistration(reg)
		}
		logger.Debug("REGISTER completed",
			logging.IntField("code", outcome.Code),
			logging.StringField("outcome", outcome.State.String()))
		m.cb().RegistrationStateChanged(reg.op, outcome)
	})
}

// challenged records the digest challenge of a 401 or 407 response and
// reports whether the request can be retried with credentials
func (m *Manager) challenged(reg *registration, res *sip.Response) bool {
	if res == nil || reg.op.Request().Credentials.Empty() {
		return false
	}
	var header string
	switch res.StatusCode {
	case 401:
		header = "WWW-Authenticate"
	case 407:
		header = "Proxy-Authenticate"
	default:
		return false
	}
	h := res.GetHeader(header)
	if h == nil {
		return false
	}
	ch, err := auth.ParseChallenge(h.Value())
	if err != nil {
		m.logger.Warn("Ignoring digest challenge",
			logging.StringField("operation", reg.op.ID()),
			logging.ErrorField(err))
		return false
	}

	m.mu.Lock()
	reg.challenge = ch
	reg.proxyAuth = res.StatusCode == 407
	m.mu.Unlock()
	return true
}

// authorize adds the header answering ch to req
func authorize(req *sip.Request, creds auth.Credentials, ch *auth.Challenge, proxy bool) error {
	value, err := ch.Authorize(creds, string(req.Method), req.Recipient.String())
	if err != nil {
		return err
	}
	name := "Authorization"
	if proxy {
		name = "Proxy-Authorization"
	}
	req.AppendHeader(sip.NewHeader(name, value))
	return nil
}

func (m *Manager) buildRegister(reg *registration, cseq uint32, expires int) *sip.Request {
	params := reg.op.Request()
	identity := params.Identity.URI()

	req := newRequest(sip.REGISTER, params.Server.URI(), identity, reg.fromTag, identity, "", reg.callID, cseq)

	contact := m.contactURI(identity.User)
	if params.Contact != nil {
		contact = params.Contact.URI()
	}
	req.AppendHeader(&sip.ContactHeader{Address: contact})
	for _, route := range params.Routes {
		req.AppendHeader(&sip.RouteHeader{Address: route.URI()})
	}
	if len(params.Privacy) > 0 {
		req.AppendHeader(sip.NewHeader("Privacy", strings.Join(params.Privacy, ";")))
	}
	appendExpires(req, expires)
	return req
}

// registerOutcome maps the final REGISTER response. A nil response
// means the transaction timed out.
func registerOutcome(res *sip.Response, expires int) Outcome {
	if res == nil {
		return Outcome{State: OutcomeFailed, Code: 408, Reason: "Request Timeout"}
	}
	if !res.IsSuccess() {
		return Outcome{State: OutcomeFailed, Code: res.StatusCode, Reason: res.Reason}
	}
	if expires == 0 {
		return Outcome{State: OutcomeCleared, Code: res.StatusCode, Reason: "Unregistration done"}
	}
	out := Outcome{State: OutcomeOk, Code: res.StatusCode, Reason: "Registration successful"}
	if c := res.Contact(); c != nil {
		if contact, err := toAddress(c.Address); err == nil {
			out.Contact = contact
		}
	}
	return out
}

// SendPublish publishes an open presence status for identity. A negative
// expires leaves the lifetime to the server.
func (m *Manager) SendPublish(identity *address.Address, expires int) error {
	if identity == nil {
		return fmt.Errorf("publish needs an identity")
	}
	uri := identity.URI()
	req := newRequest(sip.PUBLISH, uri, uri, newTag(), uri, "", uuid.NewString(), 1)
	req.AppendHeader(sip.NewHeader("Event", "presence"))
	if expires >= 0 {
		appendExpires(req, expires)
	}
	body, err := presenceDocument(identity.AsStringUriOnly())
	if err != nil {
		return err
	}
	setBody(req, "application/pidf+xml", body)

	return m.send(req, func(res *sip.Response) {
		if res == nil || !res.IsSuccess() {
			code := 408
			if res != nil {
				code = res.StatusCode
			}
			m.logger.Warn("PUBLISH failed",
				logging.AddressField("identity", identity.String()),
				logging.IntField("code", code))
		}
	})
}

type pidfStatus struct {
	Basic string `xml:"basic"`
}

type pidfTuple struct {
	ID     string     `xml:"id,attr"`
	Status pidfStatus `xml:"status"`
}

type pidfPresence struct {
	XMLName xml.Name  `xml:"urn:ietf:params:xml:ns:pidf presence"`
	Entity  string    `xml:"entity,attr"`
	Tuple   pidfTuple `xml:"tuple"`
}

func presenceDocument(entity string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	doc := pidfPresence{
		Entity: entity,
		Tuple:  pidfTuple{ID: newTag(), Status: pidfStatus{Basic: "open"}},
	}
	if err := xml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode presence: %w", err)
	}
	return buf.Bytes(), nil
}
