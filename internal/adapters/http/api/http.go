// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	service "github.com/okian/register/internal/app"
	"github.com/okian/register/internal/domain/model"
	"github.com/okian/register/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	MemberDependencies
	EventDependencies
	AttendanceDependencies
	ReportDependencies
	BranchDependencies
}

// MemberDependencies defines the member operations.
type MemberDependencies interface {
	ListMembers(ctx context.Context, q service.MemberListQuery) (model.MemberPage, error)
	GetMember(ctx context.Context, id string) (model.Member, error)
	CreateMember(ctx context.Context, m model.Member) (model.Member, error)
	UpdateMember(ctx context.Context, id string, u model.MemberUpdate) (model.Member, error)
}

// EventDependencies defines the service event operations.
type EventDependencies interface {
	ListEvents(ctx context.Context) ([]model.ServiceEvent, error)
	GetEvent(ctx context.Context, id string) (model.ServiceEvent, error)
	CreateEvent(ctx context.Context, e model.ServiceEvent) (model.ServiceEvent, error)
}

// AttendanceDependencies defines the attendance operations.
type AttendanceDependencies interface {
	ListAttendance(ctx context.Context, eventID string) ([]model.AttendanceRecord, error)
	MarkAttendance(ctx context.Context, memberID, eventID string) (model.AttendanceRecord, error)
}

// ReportDependencies defines the report operations.
type ReportDependencies interface {
	LapsedAttendees(ctx context.Context, presentEventID, absentEventID string) ([]model.Member, error)
	FilteredMembers(ctx context.Context, c model.MemberCriteria) ([]model.Member, error)
}

// BranchDependencies defines the branch operations.
type BranchDependencies interface {
	ListBranches(ctx context.Context) ([]model.Branch, error)
	GetBranch(ctx context.Context, id string) (model.Branch, error)
	CreateBranch(ctx context.Context, b model.Branch) (model.Branch, error)
	UpdateBranch(ctx context.Context, id string, u model.BranchUpdate) (model.Branch, error)
}

// APIPrefix is the versioned mount point. Every business route is served
// both at the root and under this prefix.
const APIPrefix = "/api/v1"

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	membersHandler    *MembersHandler
	eventsHandler     *EventsHandler
	attendanceHandler *AttendanceHandler
	reportsHandler    *ReportsHandler
	branchesHandler   *BranchesHandler
	log               logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		membersHandler:    NewMembersHandler(deps),
		eventsHandler:     NewEventsHandler(deps),
		attendanceHandler: NewAttendanceHandler(deps),
		reportsHandler:    NewReportsHandler(deps),
		branchesHandler:   NewBranchesHandler(deps),
		log:               log.Named("api"),
	}
}

type route struct {
	pattern  string
	endpoint string
	handler  http.HandlerFunc
}

func (s *Server) routes() []route {
	return []route{
		{"GET /members", "members", s.membersHandler.HandleList},
		{"GET /members/{id}", "member", s.membersHandler.HandleGet},
		{"POST /members", "members", s.membersHandler.HandleCreate},
		{"PUT /members/{id}", "member", s.membersHandler.HandleUpdate},

		{"GET /service-events", "service_events", s.eventsHandler.HandleList},
		{"GET /service-events/{id}", "service_event", s.eventsHandler.HandleGet},
		{"POST /service-events", "service_events", s.eventsHandler.HandleCreate},

		{"GET /attendance/{eventId}", "attendance_list", s.attendanceHandler.HandleList},
		{"POST /attendance", "attendance", s.attendanceHandler.HandleMark},

		{"GET /reports/lapsed-attendees", "lapsed_attendees", s.reportsHandler.HandleLapsedAttendees},
		{"GET /reports/filtered-members", "filtered_members", s.reportsHandler.HandleFilteredMembers},

		{"GET /branches", "branches", s.branchesHandler.HandleList},
		{"GET /branches/{id}", "branch", s.branchesHandler.HandleGet},
		{"POST /branches", "branches", s.branchesHandler.HandleCreate},
		{"PUT /branches/{id}", "branch", s.branchesHandler.HandleUpdate},
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /metrics", MetricsHandler())
	for _, rt := range []route{
		{"GET /healthz", "healthz", s.healthHandler.HandleHealth},
		{"GET /stats", "stats", s.statsHandler.HandleStats},
	} {
		h := MetricsMiddleware(rt.handler, rt.endpoint)
		mux.HandleFunc(rt.pattern, h)
		mux.HandleFunc(versioned(rt.pattern), h)
	}

	for _, rt := range s.routes() {
		h := MetricsMiddleware(s.logErrors(rt.handler), rt.endpoint)
		mux.HandleFunc(rt.pattern, h)
		mux.HandleFunc(versioned(rt.pattern), h)
	}
}

// versioned inserts APIPrefix after the method of a "METHOD /path" pattern.
func versioned(pattern string) string {
	method, path, ok := strings.Cut(pattern, " ")
	if !ok {
		return APIPrefix + pattern
	}
	return method + " " + APIPrefix + path
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// decodeBody reads one JSON value of at most MaxBodyBytes into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	if ew, ok := w.(*responseWriter); ok {
		ew.err = err
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// logErrors logs failed requests at a level matching their status.
func (s *Server) logErrors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw, ok := w.(*responseWriter)
		if !ok {
			rw = &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		}
		next(rw, r)
		if rw.err == nil {
			return
		}
		fields := []logger.Field{
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rw.statusCode),
			logger.Error(rw.err),
		}
		if rw.statusCode >= http.StatusInternalServerError {
			s.log.Error(r.Context(), "request failed", fields...)
			return
		}
		s.log.Debug(r.Context(), "request rejected", fields...)
	}
}
