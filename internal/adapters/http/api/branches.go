package api

import (
	"net/http"

	"github.com/okian/register/internal/domain/model"
)

// BranchesHandler handles branch requests.
type BranchesHandler struct {
	deps BranchDependencies
}

// NewBranchesHandler creates a new branches handler.
func NewBranchesHandler(deps BranchDependencies) *BranchesHandler {
	return &BranchesHandler{deps: deps}
}

// HandleList handles GET /branches.
func (h *BranchesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.ListBranches(r.Context())
	if err != nil {
		writeError(w, Wrap("api.list_branches", err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /branches/{id}.
func (h *BranchesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	b, err := h.deps.GetBranch(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, Wrap("api.get_branch", err))
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// HandleCreate handles POST /branches.
func (h *BranchesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_branch"
	var in model.Branch
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	in.ID = ""
	b, err := h.deps.CreateBranch(r.Context(), in)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// HandleUpdate handles PUT /branches/{id}.
func (h *BranchesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_branch"
	var in model.BranchUpdate
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	b, err := h.deps.UpdateBranch(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, b)
}
