package school

import (
	"math"

	"github.com/Spok95/eduhere-client/internal/models"
)

type Stats struct {
	Count   int
	Average float64
	Highest float64
	Lowest  float64
}

// GradeStats skips grades that did not parse; no grades gives zeros.
func GradeStats(grades []models.Grade) Stats {
	var st Stats
	var sum float64
	for _, g := range grades {
		if !g.Grade.Valid {
			continue
		}
		v := g.Grade.Value
		if st.Count == 0 || v > st.Highest {
			st.Highest = v
		}
		if st.Count == 0 || v < st.Lowest {
			st.Lowest = v
		}
		sum += v
		st.Count++
	}
	if st.Count > 0 {
		st.Average = math.Round(sum/float64(st.Count)*100) / 100
	}
	return st
}

// StatsBySubject groups by subject label.
func StatsBySubject(grades []models.Grade) map[string]Stats {
	groups := make(map[string][]models.Grade)
	for _, g := range grades {
		k := g.Subject.String()
		groups[k] = append(groups[k], g)
	}
	out := make(map[string]Stats, len(groups))
	for k, gs := range groups {
		out[k] = GradeStats(gs)
	}
	return out
}

type AttendanceSummary struct {
	Total    int
	ByStatus map[models.AttendanceStatus]int
}

func SummarizeAttendance(recs []models.AttendanceRecord) AttendanceSummary {
	s := AttendanceSummary{ByStatus: make(map[models.AttendanceStatus]int)}
	for _, r := range recs {
		st := r.Status
		if st == "" {
			st = models.NotSet
		}
		s.ByStatus[st]++
		s.Total++
	}
	return s
}

// SummarizeStatuses counts a StatusMap the same way.
func SummarizeStatuses(m StatusMap) AttendanceSummary {
	s := AttendanceSummary{ByStatus: make(map[models.AttendanceStatus]int)}
	for _, st := range m {
		s.ByStatus[st]++
		s.Total++
	}
	return s
}
