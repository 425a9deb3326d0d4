package models

import "strings"

type Day string

const (
	Monday    Day = "MON"
	Tuesday   Day = "TUE"
	Wednesday Day = "WED"
	Thursday  Day = "THU"
	Friday    Day = "FRI"
	Saturday  Day = "SAT"
	Sunday    Day = "SUN"
)

var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

func (d Day) Valid() bool {
	for _, x := range Days {
		if d == x {
			return true
		}
	}
	return false
}

// Index orders days Monday first; -1 for unknown values.
func (d Day) Index() int {
	for i, x := range Days {
		if strings.EqualFold(string(d), string(x)) {
			return i
		}
	}
	return -1
}

type ScheduleEntry struct {
	ID         ID     `json:"id"`
	Day        Day    `json:"day"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Subject    Label  `json:"subject"`
	Teacher    Label  `json:"teacher"`
	Classe     Label  `json:"classe"`
	Level      Label  `json:"level"`
	Notes      string `json:"notes"`
	ChildNames string `json:"child_names,omitempty"`
}

// ScheduleInput is the body of /api/schedules/create/ and .../update/.
type ScheduleInput struct {
	Day       Day    `json:"day" validate:"required,oneof=MON TUE WED THU FRI SAT SUN"`
	Teacher   ID     `json:"Teacher" validate:"required"`
	Level     ID     `json:"level" validate:"required"`
	Classe    ID     `json:"classe" validate:"required"`
	Subject   ID     `json:"subject" validate:"required"`
	StartTime string `json:"start_time" validate:"required,clocktime"`
	EndTime   string `json:"end_time" validate:"required,clocktime"`
	Notes     string `json:"notes,omitempty"`
}
