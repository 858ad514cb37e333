package conference

import (
	"sort"

	"github.com/samber/lo"

	"github.com/zurustar/confsync/internal/address"
)

// DeviceState is the connection status of a participant device
type DeviceState int

const (
	DevicePending DeviceState = iota
	DeviceDialingOut
	DeviceDialingIn
	DeviceAlerting
	DeviceOnHold
	DeviceConnected
	DeviceMutedViaFocus
	DeviceDisconnecting
	DeviceDisconnected
)

var deviceStateNames = []string{
	"pending",
	"dialing-out",
	"dialing-in",
	"alerting",
	"on-hold",
	"connected",
	"muted-via-focus",
	"disconnecting",
	"disconnected",
}

// String returns the conference-info status value
func (s DeviceState) String() string {
	if s < 0 || int(s) >= len(deviceStateNames) {
		return "unknown"
	}
	return deviceStateNames[s]
}

// ParseDeviceState parses a conference-info endpoint status
func ParseDeviceState(s string) (DeviceState, bool) {
	i := lo.IndexOf(deviceStateNames, s)
	if i < 0 {
		return DevicePending, false
	}
	return DeviceState(i), true
}

// Media is one stream of a device
type Media struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Label   string `json:"label,omitempty"`
	SrcID   string `json:"src_id,omitempty"`
	Status  string `json:"status,omitempty"`
	Display string `json:"display,omitempty"`
}

// AvailableMedia is a conference-level media stream
type AvailableMedia struct {
	Label   string `json:"label"`
	Type    string `json:"type"`
	Status  string `json:"status,omitempty"`
	Display string `json:"display,omitempty"`
}

// ParticipantDevice is one endpoint of a participant
type ParticipantDevice struct {
	address     *address.Address
	participant string

	Name                string
	State               DeviceState
	Media               []Media
	JoiningMethod       string
	JoiningWhen         string
	JoiningBy           string
	DisconnectionMethod string
	DisconnectionReason string
	DisconnectionWhen   string
	DisconnectionBy     string
}

// Address returns the device address
func (d *ParticipantDevice) Address() *address.Address {
	return d.address
}

// ParticipantKey returns the lookup key of the owning participant
func (d *ParticipantDevice) ParticipantKey() string {
	return d.participant
}

// Participant is a conference member
type Participant struct {
	address *address.Address
	admin   bool
	roles   map[string]struct{}
	devices []*ParticipantDevice

	DisplayName string
}

func newParticipant(addr *address.Address) *Participant {
	return &Participant{address: addr, roles: make(map[string]struct{})}
}

// Address returns the participant address
func (p *Participant) Address() *address.Address {
	return p.address
}

// IsAdmin reports whether the participant has the admin role
func (p *Participant) IsAdmin() bool {
	return p.admin
}

// Roles returns the role names in sorted order
func (p *Participant) Roles() []string {
	roles := lo.Keys(p.roles)
	sort.Strings(roles)
	return roles
}

// HasRole reports whether role is held
func (p *Participant) HasRole(role string) bool {
	_, ok := p.roles[role]
	return ok
}

// Devices returns the devices in insertion order
func (p *Participant) Devices() []*ParticipantDevice {
	return append([]*ParticipantDevice(nil), p.devices...)
}

// DeviceCount returns the number of devices
func (p *Participant) DeviceCount() int {
	return len(p.devices)
}

// FindDevice returns the device with an Equal address. URI parameters
// count here since a GRUU carries the device instance in a parameter.
func (p *Participant) FindDevice(addr *address.Address) *ParticipantDevice {
	if addr == nil {
		return nil
	}
	d, _ := lo.Find(p.devices, func(d *ParticipantDevice) bool {
		return address.Compare(d.address, addr) == address.Equal
	})
	return d
}

// Model is the participant, device and subject state of one conference.
// It is not safe for concurrent use.
type Model struct {
	participants []*Participant
	index        map[string]*Participant

	subject        string
	availableMedia []AvailableMedia
	userCount      uint
	active         bool
	locked         bool
	lastNotify     uint
}

// NewModel creates an empty model
func NewModel() *Model {
	return &Model{index: make(map[string]*Participant)}
}

// AddParticipant adds a participant with admin false and no devices. It
// fails without mutating when an address-equal participant exists.
func (m *Model) AddParticipant(addr *address.Address) (*Participant, bool) {
	if addr == nil || m.FindParticipant(addr) != nil {
		return nil, false
	}
	p := newParticipant(addr)
	m.participants = append(m.participants, p)
	m.index[addr.Key()] = p
	return p, true
}

// RemoveParticipant clears the devices of p and removes it
func (m *Model) RemoveParticipant(p *Participant) bool {
	if p == nil || m.index[p.address.Key()] != p {
		return false
	}
	p.devices = nil
	delete(m.index, p.address.Key())
	m.participants = lo.Without(m.participants, p)
	return true
}

// FindParticipant returns the member whose address has the same key,
// which covers the Equal and WeakEqual cases.
func (m *Model) FindParticipant(addr *address.Address) *Participant {
	if addr == nil {
		return nil
	}
	return m.index[addr.Key()]
}

// Participants returns the members in insertion order
func (m *Model) Participants() []*Participant {
	return append([]*Participant(nil), m.participants...)
}

// ParticipantCount returns the number of members
func (m *Model) ParticipantCount() int {
	return len(m.participants)
}

// SetParticipantAdmin sets the admin flag and keeps the admin role in line
func (m *Model) SetParticipantAdmin(p *Participant, admin bool) {
	p.admin = admin
	if admin {
		p.roles["admin"] = struct{}{}
	} else {
		delete(p.roles, "admin")
	}
}

// SetRoles replaces the role set and derives the admin flag from it. It
// reports whether the admin flag changed.
func (m *Model) SetRoles(p *Participant, roles []string) bool {
	p.roles = make(map[string]struct{}, len(roles))
	for _, r := range roles {
		p.roles[r] = struct{}{}
	}
	admin := p.HasRole("admin")
	changed := admin != p.admin
	p.admin = admin
	return changed
}

// AddDevice adds a device to p. Device addresses are unique per participant.
func (m *Model) AddDevice(p *Participant, addr *address.Address) (*ParticipantDevice, bool) {
	if p == nil || addr == nil || p.FindDevice(addr) != nil {
		return nil, false
	}
	d := &ParticipantDevice{address: addr, participant: p.address.Key()}
	p.devices = append(p.devices, d)
	return d, true
}

// RemoveDevice removes the device of p with an Equal address
func (m *Model) RemoveDevice(p *Participant, addr *address.Address) bool {
	if p == nil {
		return false
	}
	d := p.FindDevice(addr)
	if d == nil {
		return false
	}
	p.devices = lo.Without(p.devices, d)
	return true
}

// Subject returns the conference subject
func (m *Model) Subject() string {
	return m.subject
}

// SetSubject replaces the subject and reports whether it changed
func (m *Model) SetSubject(subject string) bool {
	if m.subject == subject {
		return false
	}
	m.subject = subject
	return true
}

// AvailableMedia returns the conference media streams
func (m *Model) AvailableMedia() []AvailableMedia {
	return append([]AvailableMedia(nil), m.availableMedia...)
}

// SetAvailableMedia replaces the conference media streams
func (m *Model) SetAvailableMedia(media []AvailableMedia) {
	m.availableMedia = append([]AvailableMedia(nil), media...)
}

// Counters returns user-count, active and locked
func (m *Model) Counters() (userCount uint, active, locked bool) {
	return m.userCount, m.active, m.locked
}

// SetCounters replaces the conference-state counters
func (m *Model) SetCounters(userCount uint, active, locked bool) {
	m.userCount, m.active, m.locked = userCount, active, locked
}

// LastNotify returns the version of the last applied or emitted notify
func (m *Model) LastNotify() uint {
	return m.lastNotify
}

func (m *Model) setLastNotify(v uint) {
	m.lastNotify = v
}

// Clear removes every participant
func (m *Model) Clear() {
	for _, p := range m.participants {
		p.devices = nil
	}
	m.participants = nil
	m.index = make(map[string]*Participant)
}

// Snapshot is a detached copy of a model for reporting
type Snapshot struct {
	Subject        string                `json:"subject"`
	LastNotify     uint                  `json:"last_notify"`
	UserCount      uint                  `json:"user_count"`
	Active         bool                  `json:"active"`
	Locked         bool                  `json:"locked"`
	AvailableMedia []AvailableMedia      `json:"available_media,omitempty"`
	Participants   []ParticipantSnapshot `json:"participants"`
}

// ParticipantSnapshot is a detached copy of a participant
type ParticipantSnapshot struct {
	Address     string           `json:"address"`
	DisplayName string           `json:"display_name,omitempty"`
	Admin       bool             `json:"admin"`
	Roles       []string         `json:"roles,omitempty"`
	Devices     []DeviceSnapshot `json:"devices"`
}

// DeviceSnapshot is a detached copy of a device
type DeviceSnapshot struct {
	Address string  `json:"address"`
	Name    string  `json:"name,omitempty"`
	State   string  `json:"state"`
	Media   []Media `json:"media,omitempty"`
}

// Snapshot returns a deep copy of the model
func (m *Model) Snapshot() Snapshot {
	return Snapshot{
		Subject:        m.subject,
		LastNotify:     m.lastNotify,
		UserCount:      m.userCount,
		Active:         m.active,
		Locked:         m.locked,
		AvailableMedia: m.AvailableMedia(),
		Participants: lo.Map(m.participants, func(p *Participant, _ int) ParticipantSnapshot {
			return ParticipantSnapshot{
				Address:     p.address.String(),
				DisplayName: p.DisplayName,
				Admin:       p.admin,
				Roles:       p.Roles(),
				Devices: lo.Map(p.devices, func(d *ParticipantDevice, _ int) DeviceSnapshot {
					return DeviceSnapshot{
						Address: d.address.String(),
						Name:    d.Name,
						State:   d.State.String(),
						Media:   append([]Media(nil), d.Media...),
					}
				}),
			}
		}),
	}
}
