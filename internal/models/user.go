package models

import "strings"

type Role string

const (
	Student Role = "student"
	Teacher Role = "teacher"
	Parent  Role = "parent"
	Admin   Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case Student, Teacher, Parent, Admin:
		return r, true
	}
	return "", false
}

// Session is the only entity persisted on the device.
type Session struct {
	AccessToken  string
	RefreshToken string
	Role         Role
}

func (s Session) Empty() bool {
	return s.AccessToken == "" && s.RefreshToken == ""
}

type Subject struct {
	ID  ID     `json:"id"`
	Nom string `json:"nom"`
}

type StudentProfile struct {
	StudentID ID      `json:"studentId"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Prenom    string  `json:"prenom"`
	Nom       string  `json:"nom"`
	Level     *ID     `json:"level"`
	Photo     *string `json:"photo"`
}

type TeacherProfile struct {
	TeacherID ID      `json:"teacher"`
	Name      string  `json:"name"`
	Subject   Subject `json:"subject"`
	Photo     *string `json:"photo"`
}

type ParentProfile struct {
	ID           ID       `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Relationship string   `json:"relationship"`
	Children     []Person `json:"students"`
}

// Person is the nested {nom, prenom, level} shape the backend embeds in
// grades and parent payloads.
type Person struct {
	ID     ID     `json:"id"`
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
	Level  Label  `json:"level"`
}

func (p Person) FullName() string {
	return strings.TrimSpace(p.Nom + " " + p.Prenom)
}
