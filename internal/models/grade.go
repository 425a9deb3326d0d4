package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	MinGrade = 0.0
	MaxGrade = 20.0
)

type GradeType string

const (
	Test1 GradeType = "Test1"
	Test2 GradeType = "Test2"
	Test3 GradeType = "Test3"
)

func (t GradeType) Valid() bool {
	switch t {
	case Test1, Test2, Test3:
		return true
	}
	return false
}

// Score is a grade value on the 0–20 scale. DRF serializes decimals as
// strings ("12.50"), so both encodings are accepted. Valid is false when the
// payload held something that is not a number.
type Score struct {
	Value float64
	Valid bool
}

func NewScore(v float64) Score { return Score{Value: v, Valid: true} }

func (s *Score) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*s = Score{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*s = NewScore(v)
	return nil
}

func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

func (s Score) String() string {
	if !s.Valid {
		return "-"
	}
	return strconv.FormatFloat(s.Value, 'f', 2, 64)
}

type Grade struct {
	ID        ID        `json:"id"`
	Student   Person    `json:"student"`
	Subject   Label     `json:"subject"`
	Grade     Score     `json:"grade"`
	GradeType GradeType `json:"grade_type"`
	DateG     string    `json:"date_g"`
	Level     Label     `json:"level"`
}

// UnmarshalJSON lets Student be either a bare id or the nested person.
func (g *Grade) UnmarshalJSON(b []byte) error {
	type alias Grade
	var raw struct {
		alias
		Student json.RawMessage `json:"student"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*g = Grade(raw.alias)
	g.Student = Person{}
	st := bytes.TrimSpace(raw.Student)
	if len(st) == 0 || bytes.Equal(st, []byte("null")) {
		return nil
	}
	if st[0] == '{' {
		return json.Unmarshal(st, &g.Student)
	}
	if err := g.Student.ID.UnmarshalJSON(st); err != nil {
		return fmt.Errorf("grade student: %w", err)
	}
	return nil
}

// Date is the assessment date; zero when the backend sent something unparsable.
func (g Grade) Date() time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, g.DateG); err == nil {
			return t
		}
	}
	return time.Time{}
}

// GradeInput is the body of /api/grades/add/ and /api/grades/edit/<id>/.
type GradeInput struct {
	Student   ID        `json:"student" validate:"required"`
	Subject   ID        `json:"subject" validate:"required"`
	Level     ID        `json:"level" validate:"required"`
	Grade     float64   `json:"grade" validate:"gte=0,lte=20"`
	GradeType GradeType `json:"grade_type" validate:"required,oneof=Test1 Test2 Test3"`
}
