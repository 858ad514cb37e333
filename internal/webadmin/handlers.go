package webadmin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zurustar/confsync/internal/address"
	"github.com/zurustar/confsync/internal/conference"
)

// StatusHandler serves the read side of the admin API
type StatusHandler struct {
	status StatusProvider
}

// HandleHealth reports liveness
func (h *StatusHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleAccounts lists the proxy accounts
func (h *StatusHandler) HandleAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.status.Accounts())
}

// HandleConferences lists the hosted and followed conferences
func (h *StatusHandler) HandleConferences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.status.Conferences())
}

type networkBody struct {
	Reachable *bool `json:"reachable"`
}

// HandleNetwork reads or changes the network reachability
func (h *StatusHandler) HandleNetwork(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var body networkBody
		if err := decodeJSON(r, &body); err != nil || body.Reachable == nil {
			http.Error(w, "Expected {\"reachable\": bool}", http.StatusBadRequest)
			return
		}
		h.status.SetNetworkReachable(*body.Reachable)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	reachable := h.status.NetworkReachable()
	writeJSON(w, http.StatusOK, networkBody{Reachable: &reachable})
}

// ConferenceHandler serves mutations of hosted conferences
type ConferenceHandler struct {
	controller ConferenceController
}

type participantBody struct {
	Conference  string `json:"conference"`
	Participant string `json:"participant"`
	Admin       bool   `json:"admin"`
}

// HandleParticipants adds (POST), updates the admin flag of (PUT) or
// removes (DELETE) a participant
func (h *ConferenceHandler) HandleParticipants(w http.ResponseWriter, r *http.Request) {
	var body participantBody
	if err := decodeJSON(r, &body); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	var err error
	switch r.Method {
	case http.MethodPost:
		err = h.controller.AddParticipant(r.Context(), body.Conference, body.Participant)
	case http.MethodPut:
		err = h.controller.SetParticipantAdmin(r.Context(), body.Conference, body.Participant, body.Admin)
	case http.MethodDelete:
		err = h.controller.RemoveParticipant(r.Context(), body.Conference, body.Participant)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	respond(w, r, err)
}

type deviceBody struct {
	Conference  string `json:"conference"`
	Participant string `json:"participant"`
	Device      string `json:"device"`
	State       string `json:"state"`
}

// HandleDevices adds (POST), changes the state of (PUT) or removes
// (DELETE) a participant device
func (h *ConferenceHandler) HandleDevices(w http.ResponseWriter, r *http.Request) {
	var body deviceBody
	if err := decodeJSON(r, &body); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	var err error
	switch r.Method {
	case http.MethodPost:
		err = h.controller.AddDevice(r.Context(), body.Conference, body.Participant, body.Device)
	case http.MethodPut:
		err = h.controller.SetDeviceState(r.Context(), body.Conference, body.Participant, body.Device, body.State)
	case http.MethodDelete:
		err = h.controller.RemoveDevice(r.Context(), body.Conference, body.Participant, body.Device)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	respond(w, r, err)
}

type subjectBody struct {
	Conference string `json:"conference"`
	Subject    string `json:"subject"`
}

// HandleSubject changes the subject of a hosted conference
func (h *ConferenceHandler) HandleSubject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body subjectBody
	if err := decodeJSON(r, &body); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	respond(w, r, h.controller.SetSubject(r.Context(), body.Conference, body.Subject))
}

// respond maps a controller error to a status code
func respond(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, address.ErrInvalidAddress), errors.Is(err, conference.ErrInvalidDeviceState):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound),
		errors.Is(err, conference.ErrUnknownParticipant),
		errors.Is(err, conference.ErrUnknownDevice):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, conference.ErrParticipantExists), errors.Is(err, conference.ErrDeviceExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
