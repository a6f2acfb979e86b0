package api

import (
	"errors"
	"net/http"

	"github.com/okian/register/internal/domain/model"
)

// ReportsHandler handles report requests.
type ReportsHandler struct {
	deps ReportDependencies
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps ReportDependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// HandleLapsedAttendees handles
// GET /reports/lapsed-attendees?present_event_id=&absent_event_id=.
func (h *ReportsHandler) HandleLapsedAttendees(w http.ResponseWriter, r *http.Request) {
	const op = "api.lapsed_attendees"
	q := r.URL.Query()
	present, absent := q.Get("present_event_id"), q.Get("absent_event_id")
	if present == "" || absent == "" {
		writeError(w, WrapKind(op, ErrBadRequest, errors.New("present_event_id and absent_event_id are required")))
		return
	}
	members, err := h.deps.LapsedAttendees(r.Context(), present, absent)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// HandleFilteredMembers handles GET /reports/filtered-members.
func (h *ReportsHandler) HandleFilteredMembers(w http.ResponseWriter, r *http.Request) {
	const op = "api.filtered_members"
	c := model.MemberCriteria{Department: r.URL.Query().Get("department")}
	for name, dst := range map[string]**bool{
		"is_baptised":                  &c.IsBaptised,
		"completed_membership":         &c.CompletedMembership,
		"completed_new_believers":      &c.CompletedNewBelievers,
		"completed_spiritual_maturity": &c.CompletedSpiritualMaturity,
	} {
		v, err := queryBool(r, name)
		if err != nil {
			writeError(w, WrapKind(op, ErrBadRequest, err))
			return
		}
		*dst = v
	}
	members, err := h.deps.FilteredMembers(r.Context(), c)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, members)
}
