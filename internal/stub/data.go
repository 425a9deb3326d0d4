package stub

import (
	"fmt"
	"strconv"

	"github.com/Spok95/eduhere-client/internal/models"
)

type user struct {
	ID       int64
	Username string
	Password string
	Role     models.Role
	Nom      string
	Prenom   string
	Email    string
	LevelID  int64
	Children []int64
	Subject  int64
	// roster fields managed through /api/students and /api/teachers
	Numero    string
	Birth     string
	Adresse   string
	Admission string
	Levels    []int64
	Status    string
}

type named struct {
	ID  int64  `json:"id"`
	Nom string `json:"nom"`
}

type grade struct {
	ID        int64
	Student   int64
	Subject   int64
	Level     int64
	Value     float64
	GradeType models.GradeType
	Date      string
}

type schedule struct {
	ID        int64
	Day       models.Day
	Teacher   int64
	Level     int64
	Classe    int64
	Subject   int64
	StartTime string
	EndTime   string
	Notes     string
}

// seed is a small school: one student with three grades, a teacher, a parent.
func seed(s *Server) {
	s.subjects = map[int64]string{3: "Math", 4: "Physique", 5: "Anglais"}
	s.levels = map[int64]string{1: "2AC", 2: "3AC"}
	s.classes = map[int64]string{1: "A", 2: "B"}
	for _, u := range []*user{
		{ID: 1, Username: "sara", Password: "secret", Role: models.Student, Nom: "Alaoui", Prenom: "Sara", Email: "sara@eduhere.test", LevelID: 1},
		{ID: 2, Username: "omar", Password: "secret", Role: models.Student, Nom: "Bennani", Prenom: "Omar", Email: "omar@eduhere.test", LevelID: 1},
		{ID: 10, Username: "amine", Password: "secret", Role: models.Teacher, Nom: "Tazi", Prenom: "Amine", Email: "amine@eduhere.test", Subject: 3, Levels: []int64{1}, Status: "Active"},
		{ID: 20, Username: "karim", Password: "secret", Role: models.Parent, Nom: "Alaoui", Prenom: "Karim", Email: "karim@eduhere.test", Children: []int64{1}},
		{ID: 30, Username: "admin", Password: "secret", Role: models.Admin, Nom: "Admin", Prenom: "Root"},
	} {
		s.users[u.ID] = u
	}
	s.grades = map[int64]*grade{
		1: {ID: 1, Student: 1, Subject: 3, Level: 1, Value: 12, GradeType: models.Test1, Date: "2025-03-10T09:00:00Z"},
		2: {ID: 2, Student: 1, Subject: 3, Level: 1, Value: 16, GradeType: models.Test2, Date: "2025-03-17T09:00:00Z"},
		3: {ID: 3, Student: 1, Subject: 4, Level: 1, Value: 9, GradeType: models.Test1, Date: "2025-03-12T09:00:00Z"},
	}
	s.schedules = map[int64]*schedule{
		7: {ID: 7, Day: models.Monday, Teacher: 10, Level: 1, Classe: 1, Subject: 3, StartTime: "08:00", EndTime: "10:00"},
		8: {ID: 8, Day: models.Tuesday, Teacher: 10, Level: 1, Classe: 1, Subject: 4, StartTime: "10:00", EndTime: "12:00"},
		9: {ID: 9, Day: models.Thursday, Teacher: 10, Level: 2, Classe: 2, Subject: 3, StartTime: "14:00", EndTime: "16:00"},
	}
	s.nextID = 100
}

func (s *Server) person(id int64) map[string]any {
	u := s.users[id]
	if u == nil {
		return map[string]any{"id": id}
	}
	return map[string]any{"id": u.ID, "nom": u.Nom, "prenom": u.Prenom, "level": s.levels[u.LevelID]}
}

func (s *Server) gradeJSON(g *grade) map[string]any {
	return map[string]any{
		"id":         g.ID,
		"student":    s.person(g.Student),
		"subject":    named{ID: g.Subject, Nom: s.subjects[g.Subject]},
		"grade":      fmt.Sprintf("%.2f", g.Value),
		"grade_type": g.GradeType,
		"date_g":     g.Date,
		"level":      named{ID: g.Level, Nom: s.levels[g.Level]},
	}
}

func (s *Server) scheduleJSON(e *schedule, childNames string) map[string]any {
	out := map[string]any{
		"id":         e.ID,
		"day":        e.Day,
		"start_time": e.StartTime,
		"end_time":   e.EndTime,
		"subject":    named{ID: e.Subject, Nom: s.subjects[e.Subject]},
		"teacher":    s.teacherLabel(e.Teacher),
		"classe":     named{ID: e.Classe, Nom: s.classes[e.Classe]},
		"level":      named{ID: e.Level, Nom: s.levels[e.Level]},
		"notes":      e.Notes,
	}
	if childNames != "" {
		out["child_names"] = childNames
	}
	return out
}

func (s *Server) teacherLabel(id int64) map[string]any {
	u := s.users[id]
	if u == nil {
		return map[string]any{"id": id}
	}
	return map[string]any{"id": u.ID, "nom": u.Nom, "prenom": u.Prenom}
}

func attKey(date string, schedule int64) string {
	return fmt.Sprintf("%s-%d", date, schedule)
}

// attSchedule is the schedule id of an attKey.
func attSchedule(key string) int64 {
	if len(key) < 12 {
		return 0
	}
	n, _ := strconv.ParseInt(key[11:], 10, 64)
	return n
}
