package stub

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/Spok95/eduhere-client/internal/models"
	"github.com/Spok95/eduhere-client/internal/validate"
)

func (s *Server) usersWhere(keep func(*user) bool) []*user {
	out := make([]*user, 0, len(s.users))
	for _, u := range s.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) mailTaken(mail string, except int64) bool {
	for _, u := range s.users {
		if u.ID != except && strings.EqualFold(u.Email, mail) {
			return true
		}
	}
	return false
}

func (s *Server) studentJSON(u *user) map[string]any {
	return map[string]any{
		"id":             u.ID,
		"nom":            u.Nom,
		"prenom":         u.Prenom,
		"date_naissance": u.Birth,
		"level":          u.LevelID,
		"level_name":     s.levels[u.LevelID],
		"adresse":        u.Adresse,
		"mail":           u.Email,
		"numero":         u.Numero,
		"admission_s":    u.Admission,
	}
}

func (s *Server) teacherJSON(u *user) map[string]any {
	levels := u.Levels
	if levels == nil {
		levels = []int64{}
	}
	return map[string]any{
		"id":             u.ID,
		"nom":            u.Nom,
		"prenom":         u.Prenom,
		"date_naissance": u.Birth,
		"adresse":        u.Adresse,
		"subject":        named{ID: u.Subject, Nom: s.subjects[u.Subject]},
		"mail":           u.Email,
		"numero":         u.Numero,
		"levels":         levels,
		"username":       u.Username,
		"status":         u.Status,
	}
}

func (s *Server) lookup(r *http.Request, role models.Role) *user {
	id, ok := pathID(r, "id")
	if !ok {
		return nil
	}
	if u := s.users[id]; u != nil && u.Role == role {
		return u
	}
	return nil
}

func (s *Server) handleListStudents(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, u := range s.usersWhere(func(u *user) bool { return u.Role == models.Student }) {
		out = append(out, s.studentJSON(u))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleStudentDetail serves the admin card: grades out of 20, their mean
// and the share of present or late entries.
func (s *Server) handleStudentDetail(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.lookup(r, models.Student)
	if u == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	grades := []map[string]any{}
	var sum float64
	for _, g := range s.grades {
		if g.Student != u.ID {
			continue
		}
		sum += g.Value
		grades = append(grades, map[string]any{
			"course": s.subjects[g.Subject], "assignment": g.GradeType, "score": g.Value, "max_score": 20,
		})
	}
	sort.Slice(grades, func(i, j int) bool {
		return fmt.Sprint(grades[i]["course"], grades[i]["assignment"]) < fmt.Sprint(grades[j]["course"], grades[j]["assignment"])
	})
	records := []map[string]any{}
	attended := 0
	for key, st := range s.att[u.ID] {
		if st == models.Present || st == models.Late {
			attended++
		}
		records = append(records, map[string]any{"date": key[:10], "status": string(st)})
	}
	sort.Slice(records, func(i, j int) bool { return records[i]["date"].(string) < records[j]["date"].(string) })
	gpa, rate := 0.0, 0.0
	if len(grades) > 0 {
		gpa = math.Round(sum/float64(len(grades))*100) / 100
	}
	if len(records) > 0 {
		rate = math.Round(float64(attended) / float64(len(records)) * 100)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":                 fmt.Sprint(u.ID),
		"nom":                u.Nom,
		"prenom":             u.Prenom,
		"level":              s.levels[u.LevelID],
		"email":              u.Email,
		"phone":              u.Numero,
		"birthdate":          u.Birth,
		"address":            u.Adresse,
		"gpa":                gpa,
		"attendance":         fmt.Sprintf("%.0f%%", rate),
		"attendance_records": records,
		"grades":             grades,
	})
}

func decodeStudent(r *http.Request) (models.StudentInput, error) {
	var in models.StudentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, err
	}
	return in, validate.StudentInput(in)
}

func (s *Server) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	in, err := decodeStudent(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.levels[int64(in.Level)]; !ok {
		writeError(w, http.StatusBadRequest, "Unknown level.")
		return
	}
	if s.mailTaken(in.Mail, 0) {
		writeError(w, http.StatusBadRequest, "A student with this email already exists.")
		return
	}
	if in.Admission == "" {
		in.Admission = models.AdmissionPending
	}
	s.nextID++
	u := &user{ID: s.nextID, Role: models.Student}
	fillStudent(u, in)
	s.users[u.ID] = u
	if p := s.users[int64(in.ParentID)]; p != nil && p.Role == models.Parent {
		p.Children = append(p.Children, u.ID)
	}
	writeJSON(w, http.StatusCreated, s.studentJSON(u))
}

func fillStudent(u *user, in models.StudentInput) {
	u.Nom, u.Prenom, u.Birth, u.LevelID = in.Nom, in.Prenom, in.DateNaissance, int64(in.Level)
	u.Adresse, u.Email, u.Numero = in.Adresse, strings.TrimSpace(in.Mail), in.Numero
	if in.Admission != "" {
		u.Admission = in.Admission
	}
}

func (s *Server) handleEditStudent(w http.ResponseWriter, r *http.Request) {
	in, err := decodeStudent(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.lookup(r, models.Student)
	if u == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if s.mailTaken(in.Mail, u.ID) {
		writeError(w, http.StatusBadRequest, "A student with this email already exists.")
		return
	}
	fillStudent(u, in)
	writeJSON(w, http.StatusOK, s.studentJSON(u))
}

// handleDeleteStudent also drops the student's grades, attendance and
// parent links.
func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.lookup(r, models.Student)
	if u == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	for id, g := range s.grades {
		if g.Student == u.ID {
			delete(s.grades, id)
		}
	}
	delete(s.att, u.ID)
	for _, p := range s.users {
		kept := p.Children[:0]
		for _, c := range p.Children {
			if c != u.ID {
				kept = append(kept, c)
			}
		}
		p.Children = kept
	}
	delete(s.users, u.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTeachers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, u := range s.usersWhere(func(u *user) bool { return u.Role == models.Teacher }) {
		out = append(out, s.teacherJSON(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) teacherStudents(t *user) []map[string]any {
	out := []map[string]any{}
	for _, u := range s.usersWhere(func(u *user) bool { return u.Role == models.Student && contains(t.Levels, u.LevelID) }) {
		out = append(out, s.studentJSON(u))
	}
	return out
}

func (s *Server) handleTeacherDetail(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.lookup(r, models.Teacher)
	if t == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	schedules := []map[string]any{}
	for _, e := range s.schedulesWhere(func(e *schedule) bool { return e.Teacher == t.ID }) {
		schedules = append(schedules, s.scheduleJSON(e, ""))
	}
	attendances := []map[string]any{}
	for student, entries := range s.att {
		for key, st := range entries {
			if e := s.schedules[attSchedule(key)]; e != nil && e.Teacher == t.ID {
				attendances = append(attendances, s.recordJSON(student, key, st, ""))
			}
		}
	}
	sort.Slice(attendances, func(i, j int) bool {
		a, b := attendances[i], attendances[j]
		if a["date"] != b["date"] {
			return a["date"].(string) < b["date"].(string)
		}
		return a["student"].(int64) < b["student"].(int64)
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"teacher":     s.teacherJSON(t),
		"schedules":   schedules,
		"attendances": attendances,
		"students":    s.teacherStudents(t),
		"grades":      s.gradesWhere(func(g *grade) bool { return g.Subject == t.Subject }),
	})
}

func (s *Server) handleTeacherStudents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.lookup(r, models.Teacher)
	if t == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if me := s.me(r); me.Role == models.Teacher && me.ID != t.ID {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}
	writeJSON(w, http.StatusOK, s.teacherStudents(t))
}

func decodeTeacher(r *http.Request) (models.TeacherInput, error) {
	var in models.TeacherInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, err
	}
	return in, validate.TeacherInput(in)
}

func fillTeacher(u *user, in models.TeacherInput) {
	u.Nom, u.Prenom, u.Birth, u.Adresse = in.Nom, in.Prenom, in.DateNaissance, in.Adresse
	u.Subject, u.Email, u.Numero = int64(in.Subject), strings.TrimSpace(in.Mail), in.Numero
	if in.Levels != nil {
		u.Levels = u.Levels[:0]
		for _, l := range in.Levels {
			u.Levels = append(u.Levels, int64(l))
		}
	}
	if in.Status != "" {
		u.Status = in.Status
	}
}

func (s *Server) handleAddTeacher(w http.ResponseWriter, r *http.Request) {
	in, err := decodeTeacher(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[int64(in.Subject)]; !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if s.mailTaken(in.Mail, 0) {
		writeError(w, http.StatusBadRequest, "Email already in use")
		return
	}
	s.nextID++
	u := &user{ID: s.nextID, Role: models.Teacher, Status: "Active"}
	fillTeacher(u, in)
	s.users[u.ID] = u
	writeJSON(w, http.StatusCreated, s.teacherJSON(u))
}

func (s *Server) handleEditTeacher(w http.ResponseWriter, r *http.Request) {
	in, err := decodeTeacher(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.lookup(r, models.Teacher)
	if u == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if s.mailTaken(in.Mail, u.ID) {
		writeError(w, http.StatusBadRequest, "New email already in use")
		return
	}
	fillTeacher(u, in)
	writeJSON(w, http.StatusOK, s.teacherJSON(u))
}

// handleDeleteTeacher cascades to the schedules the teacher gives.
func (s *Server) handleDeleteTeacher(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.lookup(r, models.Teacher)
	if u == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	for id, e := range s.schedules {
		if e.Teacher == u.ID {
			delete(s.schedules, id)
		}
	}
	delete(s.users, u.ID)
	w.WriteHeader(http.StatusNoContent)
}
