package api

import (
	"errors"
	"net/http"
)

// AttendanceHandler handles attendance requests.
type AttendanceHandler struct {
	deps AttendanceDependencies
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(deps AttendanceDependencies) *AttendanceHandler {
	return &AttendanceHandler{deps: deps}
}

// HandleList handles GET /attendance/{eventId}. An event without rows
// yields an empty list.
func (h *AttendanceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.deps.ListAttendance(r.Context(), r.PathValue("eventId"))
	if err != nil {
		writeError(w, Wrap("api.list_attendance", err))
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleMark handles POST /attendance?user_id=&event_id=.
func (h *AttendanceHandler) HandleMark(w http.ResponseWriter, r *http.Request) {
	const op = "api.mark_attendance"
	q := r.URL.Query()
	memberID, eventID := q.Get("user_id"), q.Get("event_id")
	switch {
	case memberID == "":
		writeError(w, WrapKind(op, ErrBadRequest, errors.New("missing user_id")))
		return
	case eventID == "":
		writeError(w, WrapKind(op, ErrBadRequest, errors.New("missing event_id")))
		return
	}
	rec, err := h.deps.MarkAttendance(r.Context(), memberID, eventID)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}
