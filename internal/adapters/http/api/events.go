package api

import (
	"net/http"

	"github.com/okian/register/internal/domain/model"
)

// EventsHandler handles service event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandleList handles GET /service-events.
func (h *EventsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	events, err := h.deps.ListEvents(r.Context())
	if err != nil {
		writeError(w, Wrap("api.list_events", err))
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleGet handles GET /service-events/{id}.
func (h *EventsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	e, err := h.deps.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, Wrap("api.get_event", err))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleCreate handles POST /service-events. An unknown type is a 400.
func (h *EventsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_event"
	var in model.ServiceEvent
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	in.ID = ""
	e, err := h.deps.CreateEvent(r.Context(), in)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, e)
}
