package models

import "strings"

// Admission states of a student file.
const (
	AdmissionPending  = "att"
	AdmissionAccepted = "acc"
	AdmissionRefused  = "ref"
)

// StudentRecord is a row of /api/students/list/.
type StudentRecord struct {
	ID            ID     `json:"id"`
	Nom           string `json:"nom"`
	Prenom        string `json:"prenom"`
	DateNaissance string `json:"date_naissance,omitempty"`
	Level         ID     `json:"level"`
	LevelName     string `json:"level_name,omitempty"`
	Adresse       string `json:"adresse,omitempty"`
	Mail          string `json:"mail"`
	Numero        string `json:"numero"`
	Admission     string `json:"admission_s,omitempty"`
}

func (s StudentRecord) FullName() string {
	return strings.TrimSpace(s.Prenom + " " + s.Nom)
}

// StudentInput is the body of /api/students/add/ and /api/students/edit/<id>/.
// ParentID links an existing parent account.
type StudentInput struct {
	Nom           string `json:"nom" validate:"required,max=100"`
	Prenom        string `json:"prenom" validate:"required,max=100"`
	DateNaissance string `json:"date_naissance,omitempty" validate:"omitempty,schooldate"`
	Level         ID     `json:"level" validate:"required"`
	Adresse       string `json:"adresse,omitempty" validate:"max=255"`
	Mail          string `json:"mail" validate:"required,email"`
	Numero        string `json:"numero" validate:"required,max=15"`
	Admission     string `json:"admission_s,omitempty" validate:"omitempty,oneof=att acc ref"`
	ParentID      ID     `json:"parent_id,omitempty"`
}

// StudentDetail is the admin's full view of one student.
type StudentDetail struct {
	ID         ID     `json:"id"`
	Nom        string `json:"nom"`
	Prenom     string `json:"prenom"`
	Level      string `json:"level"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Birthdate  string `json:"birthdate"`
	Address    string `json:"address"`
	GPA        Score  `json:"gpa"`
	Attendance string `json:"attendance"`
	Records    []struct {
		Date   string           `json:"date"`
		Status AttendanceStatus `json:"status"`
	} `json:"attendance_records"`
	Grades []struct {
		Course     string `json:"course"`
		Assignment string `json:"assignment"`
		Score      Score  `json:"score"`
		MaxScore   Score  `json:"max_score"`
	} `json:"grades"`
}

// TeacherRecord is a row of /api/teachers/list/.
type TeacherRecord struct {
	ID            ID     `json:"id"`
	Nom           string `json:"nom"`
	Prenom        string `json:"prenom"`
	DateNaissance string `json:"date_naissance,omitempty"`
	Adresse       string `json:"adresse,omitempty"`
	Subject       Label  `json:"subject"`
	Mail          string `json:"mail"`
	Numero        string `json:"numero"`
	Levels        []ID   `json:"levels"`
	Username      string `json:"username,omitempty"`
	Status        string `json:"status,omitempty"`
}

func (t TeacherRecord) FullName() string {
	return strings.TrimSpace(t.Prenom + " " + t.Nom)
}

// TeacherInput is the body of /api/teachers/add/ and /api/teachers/edit/<id>/.
type TeacherInput struct {
	Nom           string `json:"nom" validate:"required,max=100"`
	Prenom        string `json:"prenom" validate:"required,max=100"`
	DateNaissance string `json:"date_naissance,omitempty" validate:"omitempty,schooldate"`
	Adresse       string `json:"adresse,omitempty" validate:"max=255"`
	Subject       ID     `json:"subject" validate:"required"`
	Mail          string `json:"mail" validate:"required,email"`
	Numero        string `json:"numero" validate:"required,max=15"`
	Levels        []ID   `json:"levels,omitempty"`
	Status        string `json:"status,omitempty" validate:"omitempty,oneof=Active Inactive"`
}

// TeacherDetail is /api/teachers/<id>/: the teacher and everything they touch.
type TeacherDetail struct {
	Teacher     TeacherRecord      `json:"teacher"`
	Schedules   []ScheduleEntry    `json:"schedules"`
	Attendances []AttendanceRecord `json:"attendances"`
	Students    []StudentRecord    `json:"students"`
	Grades      []Grade            `json:"grades"`
}
