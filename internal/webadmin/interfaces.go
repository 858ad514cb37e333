package webadmin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/zurustar/confsync/internal/conference"
)

// ErrNotFound is wrapped by backends for an unknown conference
var ErrNotFound = errors.New("not found")

// WebAdminServer defines the interface for the web administration interface
type WebAdminServer interface {
	Start(port int) error
	Stop() error
	Handler() http.Handler
}

// AccountStatus is the reported state of one proxy account
type AccountStatus struct {
	Idkey             string     `json:"idkey"`
	Identity          string     `json:"identity"`
	Server            string     `json:"server"`
	State             string     `json:"state"`
	Reason            string     `json:"reason,omitempty"`
	DependsOn         string     `json:"depends_on,omitempty"`
	RegisterEnabled   bool       `json:"register_enabled"`
	DependentDisabled bool       `json:"dependent_disabled,omitempty"`
	Contact           string     `json:"contact,omitempty"`
	NextRefresh       *time.Time `json:"next_refresh,omitempty"`
}

// ConferenceStatus is the reported state of a hosted or followed conference
type ConferenceStatus struct {
	Address string `json:"address"`
	// Side is "local" for a hosted focus and "remote" for a followed one
	Side        string              `json:"side"`
	State       string              `json:"state,omitempty"`
	Account     string              `json:"account,omitempty"`
	Subscribers []string            `json:"subscribers,omitempty"`
	Conference  conference.Snapshot `json:"conference"`
}

// StatusProvider reports the daemon state
type StatusProvider interface {
	Accounts() []AccountStatus
	Conferences() []ConferenceStatus
	NetworkReachable() bool
	SetNetworkReachable(reachable bool)
}

// ConferenceController mutates hosted conferences. Addresses are SIP
// URIs in string form.
type ConferenceController interface {
	AddParticipant(ctx context.Context, conf, participant string) error
	RemoveParticipant(ctx context.Context, conf, participant string) error
	SetParticipantAdmin(ctx context.Context, conf, participant string, admin bool) error
	AddDevice(ctx context.Context, conf, participant, device string) error
	RemoveDevice(ctx context.Context, conf, participant, device string) error
	SetDeviceState(ctx context.Context, conf, participant, device, state string) error
	SetSubject(ctx context.Context, conf, subject string) error
}

// Backend is everything the admin interface needs from the daemon
type Backend interface {
	StatusProvider
	ConferenceController
}

// HTTP endpoints:
// GET /healthz - Liveness
// GET /metrics - Prometheus metrics
// GET /api/accounts - Proxy accounts and their registration state
// GET /api/conferences - Hosted and followed conferences
// GET, PUT /api/network - Network reachability
// POST, PUT, DELETE /api/conferences/participants - Add, set admin, remove
// POST, PUT, DELETE /api/conferences/devices - Add, set state, remove
// PUT /api/conferences/subject - Change the subject
