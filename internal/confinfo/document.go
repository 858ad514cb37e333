package confinfo

import "encoding/xml"

// Namespace is the conference-info XML namespace
const Namespace = "urn:ietf:params:xml:ns:conference-info"

// State is the full/partial/deleted attribute carried by several elements
type State string

const (
	StateFull    State = "full"
	StatePartial State = "partial"
	StateDeleted State = "deleted"
)

// Effective returns the state, defaulting to full when the attribute is absent
func (s State) Effective() State {
	if s == "" {
		return StateFull
	}
	return s
}

// Valid reports whether s is empty or one of the three known states
func (s State) Valid() bool {
	switch s {
	case "", StateFull, StatePartial, StateDeleted:
		return true
	}
	return false
}

// Document is the conference-info root element
type Document struct {
	XMLName         xml.Name               `xml:"urn:ietf:params:xml:ns:conference-info conference-info"`
	Entity          string                 `xml:"entity,attr"`
	State           State                  `xml:"state,attr,omitempty"`
	Version         uint                   `xml:"version,attr"`
	Description     *ConferenceDescription `xml:"conference-description"`
	ConferenceState *ConferenceState       `xml:"conference-state"`
	Users           *Users                 `xml:"users"`
}

// ConferenceDescription carries the subject and the media offered by the focus
type ConferenceDescription struct {
	DisplayText    *string         `xml:"display-text"`
	Subject        *string         `xml:"subject"`
	FreeText       string          `xml:"free-text,omitempty"`
	Keywords       string          `xml:"keywords,omitempty"`
	AvailableMedia *AvailableMedia `xml:"available-media"`
}

// AvailableMedia lists the media streams of the conference
type AvailableMedia struct {
	Entries []MediaEntry `xml:"entry"`
}

// MediaEntry describes one conference-level media stream
type MediaEntry struct {
	Label       string `xml:"label,attr"`
	DisplayText string `xml:"display-text,omitempty"`
	Type        string `xml:"type"`
	Status      string `xml:"status,omitempty"`
}

// ConferenceState holds the conference counters
type ConferenceState struct {
	UserCount *uint `xml:"user-count"`
	Active    *bool `xml:"active"`
	Locked    *bool `xml:"locked"`
}

// Users is the users container
type Users struct {
	State State  `xml:"state,attr,omitempty"`
	Users []User `xml:"user"`
}

// User is one conference participant
type User struct {
	Entity      string     `xml:"entity,attr"`
	State       State      `xml:"state,attr,omitempty"`
	DisplayText *string    `xml:"display-text"`
	Roles       *Roles     `xml:"roles"`
	Endpoints   []Endpoint `xml:"endpoint"`
}

// Roles is a user's role list
type Roles struct {
	Entries []string `xml:"entry"`
}

// Has reports whether role is in the list
func (r *Roles) Has(role string) bool {
	if r == nil {
		return false
	}
	for _, e := range r.Entries {
		if e == role {
			return true
		}
	}
	return false
}

// Endpoint is one device of a user
type Endpoint struct {
	Entity              string     `xml:"entity,attr"`
	State               State      `xml:"state,attr,omitempty"`
	DisplayText         *string    `xml:"display-text"`
	Status              *string    `xml:"status"`
	JoiningMethod       *string    `xml:"joining-method"`
	JoiningInfo         *Execution `xml:"joining-info"`
	DisconnectionMethod *string    `xml:"disconnection-method"`
	DisconnectionInfo   *Execution `xml:"disconnection-info"`
	Media               []Media    `xml:"media"`
}

// Execution records when, why and by whom something happened
type Execution struct {
	When   string `xml:"when,omitempty"`
	Reason string `xml:"reason,omitempty"`
	By     string `xml:"by,omitempty"`
}

// Media is one stream of an endpoint
type Media struct {
	ID          string `xml:"id,attr"`
	DisplayText string `xml:"display-text,omitempty"`
	Type        string `xml:"type,omitempty"`
	Label       string `xml:"label,omitempty"`
	SrcID       string `xml:"src-id,omitempty"`
	Status      string `xml:"status,omitempty"`
}

// Subject returns the conference subject and whether it is present
func (d *Document) Subject() (string, bool) {
	if d.Description == nil || d.Description.Subject == nil {
		return "", false
	}
	return *d.Description.Subject, true
}

// UserList returns the users of the document, or nil
func (d *Document) UserList() []User {
	if d.Users == nil {
		return nil
	}
	return d.Users.Users
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
