// Package stub is an in-memory stand-in for the school backend: the same
// routes, JWT access tokens, opaque refresh tokens and the attendance
// websocket. Used by the end-to-end tests and cmd/eduhere-stub.
package stub

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/models"
)

const DefaultAccessTTL = 5 * time.Minute

type Options struct {
	Secret    string
	AccessTTL time.Duration
	Logger    *zap.Logger
}

type Server struct {
	secret []byte
	ttl    time.Duration
	log    *zap.Logger

	epoch         atomic.Int64
	rejectRefresh atomic.Bool

	mu        sync.Mutex
	users     map[int64]*user
	refresh   map[string]int64
	subjects  map[int64]string
	levels    map[int64]string
	classes   map[int64]string
	grades    map[int64]*grade
	schedules map[int64]*schedule
	att       map[int64]map[string]models.AttendanceStatus
	nextID    int64

	hitsMu sync.Mutex
	hits   map[string]int

	ws *wsHub
}

func New(opts Options) *Server {
	if opts.Secret == "" {
		opts.Secret = "eduhere-stub-secret"
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = DefaultAccessTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Server{
		secret:  []byte(opts.Secret),
		ttl:     opts.AccessTTL,
		log:     opts.Logger,
		users:   make(map[int64]*user),
		refresh: make(map[string]int64),
		att:     make(map[int64]map[string]models.AttendanceStatus),
		hits:    make(map[string]int),
	}
	s.ws = newWSHub(s.log)
	seed(s)
	return s
}

// ExpireAll invalidates every access token issued so far; refresh tokens survive.
func (s *Server) ExpireAll() { s.epoch.Add(1) }

// RejectRefresh makes /auth/refresh/ answer 401 while on.
func (s *Server) RejectRefresh(on bool) { s.rejectRefresh.Store(on) }

// Hits is how many requests reached path, whatever their outcome.
func (s *Server) Hits(path string) int {
	s.hitsMu.Lock()
	defer s.hitsMu.Unlock()
	return s.hits[path]
}

// DropConnections closes every open websocket.
func (s *Server) DropConnections() { s.ws.dropAll() }

// Listeners is the number of open websockets.
func (s *Server) Listeners() int { return s.ws.count() }

// Close closes the websockets; the caller owns the http.Server.
func (s *Server) Close() { s.ws.dropAll() }

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.countHits)
	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/auth/login/", s.handleLogin)
	r.Post("/auth/refresh/", s.handleRefresh)
	r.Post("/auth/token/refresh/", s.handleRefresh)
	r.With(s.authMiddleware).Post("/auth/logout/", s.handleLogout)
	r.Get("/ws/attendance/", s.handleWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.With(s.requireRole(models.Student)).Get("/student/profile/", s.handleStudentProfile)
		r.With(s.requireRole(models.Teacher)).Get("/teacher/profile/", s.handleTeacherProfile)
		r.With(s.requireRole(models.Parent)).Get("/parent/profile/", s.handleParentProfile)

		r.With(s.requireRole(models.Student)).Get("/student/grades/", s.handleMyGrades)
		r.With(s.requireRole(models.Parent)).Get("/parent/children/grades/", s.handleChildrenGrades)
		r.With(s.requireRole(models.Teacher, models.Admin)).Get("/grades/list/", s.handleListGrades)
		r.With(s.requireRole(models.Teacher, models.Admin)).Post("/grades/add/", s.handleAddGrade)
		r.With(s.requireRole(models.Teacher, models.Admin)).Put("/grades/edit/{id}/", s.handleEditGrade)
		r.With(s.requireRole(models.Teacher, models.Admin)).Delete("/grades/delete/{id}/", s.handleDeleteGrade)

		r.With(s.requireRole(models.Student)).Get("/student/schedule/", s.handleMySchedule)
		r.With(s.requireRole(models.Parent)).Get("/parent/children/schedules/", s.handleChildrenSchedules)
		r.Get("/schedules/teacher/{id}/", s.handleTeacherSchedule)
		r.Get("/schedules/list/", s.handleListSchedules)
		r.Get("/schedules/level/{id}/", s.handleLevelSchedule)
		r.With(s.requireRole(models.Admin)).Post("/schedules/create/", s.handleCreateSchedule)
		r.With(s.requireRole(models.Admin)).Put("/schedules/{id}/update/", s.handleUpdateSchedule)
		r.With(s.requireRole(models.Admin)).Delete("/schedules/{id}/delete/", s.handleDeleteSchedule)

		r.With(s.requireRole(models.Student)).Get("/student/attendance/", s.handleMyAttendance)
		r.With(s.requireRole(models.Parent)).Get("/parent/children/attendance/", s.handleChildrenAttendance)
		r.With(s.requireRole(models.Teacher, models.Admin)).Get("/attendance/{studentID}/", s.handleStudentAttendance)
		r.With(s.requireRole(models.Teacher, models.Admin)).Get("/attendance-t/list/", s.handleTeacherAttendance)
		r.With(s.requireRole(models.Teacher, models.Admin)).Post("/attendance/add/", s.handleMarkAttendance)
		r.With(s.requireRole(models.Teacher, models.Admin)).Delete("/attendance/delete/{student}/{schedule}/{date}/", s.handleDeleteAttendance)

		r.With(s.requireRole(models.Admin)).Get("/students/list/", s.handleListStudents)
		r.With(s.requireRole(models.Admin)).Post("/students/add/", s.handleAddStudent)
		r.With(s.requireRole(models.Admin)).Put("/students/edit/{id}/", s.handleEditStudent)
		r.With(s.requireRole(models.Admin)).Delete("/students/delete/{id}/", s.handleDeleteStudent)
		r.With(s.requireRole(models.Admin)).Get("/students/{id}/", s.handleStudentDetail)

		r.With(s.requireRole(models.Admin)).Get("/teachers/list/", s.handleListTeachers)
		r.With(s.requireRole(models.Admin)).Post("/teachers/add/", s.handleAddTeacher)
		r.With(s.requireRole(models.Admin)).Put("/teachers/edit/{id}/", s.handleEditTeacher)
		r.With(s.requireRole(models.Admin)).Delete("/teachers/delete/{id}/", s.handleDeleteTeacher)
		r.With(s.requireRole(models.Admin)).Get("/teachers/{id}/", s.handleTeacherDetail)
		r.With(s.requireRole(models.Teacher, models.Admin)).Get("/teachers/{id}/students/", s.handleTeacherStudents)
	})
	return r
}

func (s *Server) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hitsMu.Lock()
		s.hits[r.URL.Path]++
		s.hitsMu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("stub request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)))
	})
}

type claimsKey struct{}

func claimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey{}).(*Claims)
	return c
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		claims, err := parseToken(s.secret, token, s.epoch.Load())
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func (s *Server) requireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := claimsFromContext(r.Context())
			for _, role := range roles {
				if c != nil && c.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		})
	}
}

func bearerToken(h string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
