package stub

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/models"
	"github.com/Spok95/eduhere-client/internal/validate"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	s.mu.Lock()
	var u *user
	for _, cand := range s.users {
		if cand.Username == req.Username && cand.Password == req.Password {
			u = cand
			break
		}
	}
	if u != nil && req.Role != "" && string(u.Role) != strings.ToLower(req.Role) {
		u = nil
	}
	if u == nil {
		s.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	rt := uuid.NewString()
	s.refresh[rt] = u.ID
	s.mu.Unlock()

	access, err := newAccessToken(s.secret, s.ttl, u, s.epoch.Load())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}
	s.log.Info("stub login", zap.String("username", u.Username), zap.String("role", string(u.Role)))
	writeJSON(w, http.StatusOK, map[string]string{
		"access":   access,
		"refresh":  rt,
		"role":     string(u.Role),
		"username": u.Username,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		writeDetail(w, http.StatusBadRequest, "refresh: This field is required.")
		return
	}
	s.mu.Lock()
	uid, ok := s.refresh[req.Refresh]
	u := s.users[uid]
	s.mu.Unlock()
	if !ok || u == nil || s.rejectRefresh.Load() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}
	access, err := newAccessToken(s.secret, s.ttl, u, s.epoch.Load())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	delete(s.refresh, req.Refresh)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) me(r *http.Request) *user {
	c := claimsFromContext(r.Context())
	if c == nil {
		return nil
	}
	return s.users[c.UserID]
}

func pathID(r *http.Request, name string) (int64, bool) {
	n, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return n, err == nil
}

func (s *Server) handleStudentProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.me(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"studentId": u.ID,
		"name":      u.Prenom + " " + u.Nom,
		"email":     u.Email,
		"prenom":    u.Prenom,
		"nom":       u.Nom,
		"level":     u.LevelID,
		"photo":     nil,
	})
}

func (s *Server) handleTeacherProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.me(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"teacher": u.ID,
		"name":    u.Prenom + " " + u.Nom,
		"subject": named{ID: u.Subject, Nom: s.subjects[u.Subject]},
		"photo":   nil,
	})
}

func (s *Server) handleParentProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.me(r)
	kids := make([]map[string]any, 0, len(u.Children))
	for _, id := range u.Children {
		kids = append(kids, s.person(id))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           u.ID,
		"name":         u.Prenom + " " + u.Nom,
		"email":        u.Email,
		"relationship": "father",
		"students":     kids,
	})
}

func (s *Server) gradesWhere(keep func(*grade) bool) []map[string]any {
	ids := make([]int64, 0, len(s.grades))
	for id, g := range s.grades {
		if keep(g) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.gradeJSON(s.grades[id]))
	}
	return out
}

func (s *Server) handleMyGrades(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	me := s.me(r)
	writeJSON(w, http.StatusOK, s.gradesWhere(func(g *grade) bool { return g.Student == me.ID }))
}

func (s *Server) handleChildrenGrades(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	me := s.me(r)
	if len(me.Children) == 0 {
		writeError(w, http.StatusNotFound, "No students linked to your account.")
		return
	}
	writeJSON(w, http.StatusOK, s.gradesWhere(func(g *grade) bool { return contains(me.Children, g.Student) }))
}

func (s *Server) handleListGrades(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.gradesWhere(func(*grade) bool { return true }))
}

func decodeGrade(r *http.Request) (models.GradeInput, error) {
	var in models.GradeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, err
	}
	return in, validate.GradeInput(in)
}

func (s *Server) handleAddGrade(w http.ResponseWriter, r *http.Request) {
	in, err := decodeGrade(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users[int64(in.Student)] == nil {
		writeError(w, http.StatusBadRequest, "Unknown student.")
		return
	}
	s.nextID++
	g := &grade{
		ID: s.nextID, Student: int64(in.Student), Subject: int64(in.Subject), Level: int64(in.Level),
		Value: in.Grade, GradeType: in.GradeType, Date: time.Now().UTC().Format(time.RFC3339),
	}
	s.grades[g.ID] = g
	writeJSON(w, http.StatusCreated, s.gradeJSON(g))
}

func (s *Server) handleEditGrade(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	in, err := decodeGrade(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.grades[id]
	if g == nil {
		writeError(w, http.StatusNotFound, "Grade not found.")
		return
	}
	g.Student, g.Subject, g.Level = int64(in.Student), int64(in.Subject), int64(in.Level)
	g.Value, g.GradeType = in.Grade, in.GradeType
	writeJSON(w, http.StatusOK, s.gradeJSON(g))
}

func (s *Server) handleDeleteGrade(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok || s.grades[id] == nil {
		writeError(w, http.StatusNotFound, "Grade not found.")
		return
	}
	delete(s.grades, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) schedulesWhere(keep func(*schedule) bool) []*schedule {
	out := make([]*schedule, 0, len(s.schedules))
	for _, e := range s.schedules {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) writeSchedules(w http.ResponseWriter, entries []*schedule) {
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, s.scheduleJSON(e, ""))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMySchedule(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	me := s.me(r)
	s.writeSchedules(w, s.schedulesWhere(func(e *schedule) bool { return e.Level == me.LevelID }))
}

func (s *Server) handleChildrenSchedules(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	me := s.me(r)
	out := []map[string]any{}
	for _, cid := range me.Children {
		child := s.users[cid]
		if child == nil {
			continue
		}
		for _, e := range s.schedulesWhere(func(e *schedule) bool { return e.Level == child.LevelID }) {
			out = append(out, s.scheduleJSON(e, child.Prenom))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTeacherSchedule(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeSchedules(w, s.schedulesWhere(func(e *schedule) bool { return e.Teacher == id }))
}

func (s *Server) handleListSchedules(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeSchedules(w, s.schedulesWhere(func(*schedule) bool { return true }))
}

func (s *Server) handleLevelSchedule(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeSchedules(w, s.schedulesWhere(func(e *schedule) bool { return e.Level == id }))
}

func decodeSchedule(r *http.Request) (models.ScheduleInput, error) {
	var in models.ScheduleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, err
	}
	return in, validate.ScheduleInput(in)
}

func fillSchedule(e *schedule, in models.ScheduleInput) {
	e.Day, e.Teacher, e.Level, e.Classe, e.Subject = in.Day, int64(in.Teacher), int64(in.Level), int64(in.Classe), int64(in.Subject)
	e.StartTime, e.EndTime, e.Notes = in.StartTime, in.EndTime, in.Notes
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	in, err := decodeSchedule(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e := &schedule{ID: s.nextID}
	fillSchedule(e, in)
	s.schedules[e.ID] = e
	writeJSON(w, http.StatusCreated, s.scheduleJSON(e, ""))
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	in, err := decodeSchedule(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.schedules[id]
	if e == nil {
		writeError(w, http.StatusNotFound, "Schedule not found.")
		return
	}
	fillSchedule(e, in)
	writeJSON(w, http.StatusOK, s.scheduleJSON(e, ""))
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedules[id] == nil {
		writeError(w, http.StatusNotFound, "Schedule not found.")
		return
	}
	delete(s.schedules, id)
	w.WriteHeader(http.StatusNoContent)
}

// monthOf keeps entries of the month date falls in; empty date keeps all.
func monthOf(m map[string]models.AttendanceStatus, date string) map[string]string {
	out := make(map[string]string, len(m))
	for k, st := range m {
		if len(date) >= 7 && !strings.HasPrefix(k, date[:7]) {
			continue
		}
		out[k] = string(st)
	}
	return out
}

func (s *Server) handleMyAttendance(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, monthOf(s.att[s.me(r).ID], r.URL.Query().Get("date")))
}

func (s *Server) handleStudentAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "studentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, monthOf(s.att[id], r.URL.Query().Get("date")))
}

// handleChildrenAttendance answers with a record list for one day and with
// the nested {studentId: {key: status}} map otherwise, as the backend does.
func (s *Server) handleChildrenAttendance(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	me := s.me(r)
	date := r.URL.Query().Get("date")
	if date == "" {
		out := make(map[string]map[string]string, len(me.Children))
		for _, cid := range me.Children {
			out[strconv.FormatInt(cid, 10)] = monthOf(s.att[cid], "")
		}
		writeJSON(w, http.StatusOK, out)
		return
	}
	out := []map[string]any{}
	for _, cid := range me.Children {
		child := s.users[cid]
		if child == nil {
			continue
		}
		for key, st := range s.att[cid] {
			if !strings.HasPrefix(key, date) {
				continue
			}
			out = append(out, s.recordJSON(cid, key, st, child.Prenom))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i]["schedule"].(int64) < out[j]["schedule"].(int64) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) recordJSON(student int64, key string, st models.AttendanceStatus, childNames string) map[string]any {
	date := key[:10]
	sid := attSchedule(key)
	rec := map[string]any{
		"student":  student,
		"schedule": sid,
		"date":     date,
		"status":   string(st),
	}
	if e := s.schedules[sid]; e != nil {
		rec["subject"] = named{ID: e.Subject, Nom: s.subjects[e.Subject]}
		rec["start_time"] = e.StartTime
		rec["end_time"] = e.EndTime
	}
	if childNames != "" {
		rec["child_names"] = childNames
	}
	return rec
}

func (s *Server) handleTeacherAttendance(w http.ResponseWriter, r *http.Request) {
	tid, _ := strconv.ParseInt(r.URL.Query().Get("teacher"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for student, entries := range s.att {
		for key, st := range entries {
			if e := s.schedules[attSchedule(key)]; e == nil || e.Teacher != tid {
				continue
			}
			out = append(out, s.recordJSON(student, key, st, ""))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a["date"] != b["date"] {
			return a["date"].(string) < b["date"].(string)
		}
		return a["student"].(int64) < b["student"].(int64)
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	var in models.AttendanceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if err := validate.AttendanceInput(in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	e := s.schedules[int64(in.Schedule)]
	if e == nil || s.users[int64(in.Student)] == nil {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Unknown student or schedule.")
		return
	}
	m := s.att[int64(in.Student)]
	if m == nil {
		m = make(map[string]models.AttendanceStatus)
		s.att[int64(in.Student)] = m
	}
	m[attKey(in.Date, e.ID)] = in.Status
	u := s.update(int64(in.Student), e, in.Date, string(in.Status))
	s.mu.Unlock()

	s.ws.broadcast(u, s.audience(u))
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Attendance recorded"})
}

func (s *Server) handleDeleteAttendance(w http.ResponseWriter, r *http.Request) {
	student, ok1 := pathID(r, "student")
	sid, ok2 := pathID(r, "schedule")
	date := chi.URLParam(r, "date")
	if !ok1 || !ok2 || !validate.Date(date) {
		writeError(w, http.StatusBadRequest, "invalid_path")
		return
	}
	s.mu.Lock()
	key := attKey(date, sid)
	e := s.schedules[sid]
	if _, found := s.att[student][key]; !found || e == nil {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Attendance not found.")
		return
	}
	delete(s.att[student], key)
	u := s.update(student, e, date, string(models.NotSet))
	s.mu.Unlock()

	s.ws.broadcast(u, s.audience(u))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) update(student int64, e *schedule, date, status string) models.AttendanceUpdate {
	return models.AttendanceUpdate{
		Type:       "attendance_update",
		StudentID:  models.ID(student),
		TeacherID:  models.ID(e.Teacher),
		ScheduleID: models.ID(e.ID),
		SubjectID:  models.ID(e.Subject),
		Date:       date,
		Status:     status,
	}
}

// audience is the set of user ids entitled to see u.
func (s *Server) audience(u models.AttendanceUpdate) map[int64]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int64]bool{int64(u.StudentID): true, int64(u.TeacherID): true}
	for _, p := range s.users {
		if p.Role == models.Admin || (p.Role == models.Parent && contains(p.Children, int64(u.StudentID))) {
			out[p.ID] = true
		}
	}
	return out
}

func contains(ids []int64, id int64) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
