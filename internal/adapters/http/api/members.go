package api

import (
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/register/internal/app"
	"github.com/okian/register/internal/domain/model"
)

// MembersHandler handles member requests.
type MembersHandler struct {
	deps MemberDependencies
}

// NewMembersHandler creates a new members handler.
func NewMembersHandler(deps MemberDependencies) *MembersHandler {
	return &MembersHandler{deps: deps}
}

// HandleList handles GET /members?page=&pageSize=&searchTerm=&eventId=.
func (h *MembersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_members"
	q := r.URL.Query()
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	size, err := queryInt(r, "pageSize")
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.ListMembers(r.Context(), service.MemberListQuery{
		Page:       page,
		PageSize:   size,
		SearchTerm: q.Get("searchTerm"),
		EventID:    q.Get("eventId"),
	})
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /members/{id}.
func (h *MembersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_member"
	m, err := h.deps.GetMember(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleCreate handles POST /members.
func (h *MembersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_member"
	var in model.Member
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	in.ID = ""
	m, err := h.deps.CreateMember(r.Context(), in)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// HandleUpdate handles PUT /members/{id}. Only the fields present in the
// body are changed.
func (h *MembersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_member"
	var in model.MemberUpdate
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	m, err := h.deps.UpdateMember(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// queryInt parses an optional integer query parameter. Absent is zero.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

// queryBool parses an optional boolean query parameter. Absent is nil.
func queryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", name)
	}
	return &b, nil
}
