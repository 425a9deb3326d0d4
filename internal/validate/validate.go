package validate

import (
	"errors"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Spok95/eduhere-client/internal/apierr"
	"github.com/Spok95/eduhere-client/internal/models"
)

var (
	dateRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockRegex = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)

	once     sync.Once
	instance *validator.Validate
)

// Grade is true iff v parses as a number in [0, 20].
func Grade(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return f >= models.MinGrade && f <= models.MaxGrade
}

// Date is true iff v is YYYY-MM-DD and names a real calendar day.
// 2025-02-30 is rejected: time.Parse does not roll over into March.
func Date(v string) bool {
	if !dateRegex.MatchString(v) {
		return false
	}
	_, err := time.Parse("2006-01-02", v)
	return err == nil
}

// ClockTime accepts HH:MM and HH:MM:SS.
func ClockTime(v string) (time.Duration, bool) {
	if !clockRegex.MatchString(v) {
		return 0, false
	}
	layout := "15:04"
	if len(v) == 8 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, v)
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, true
}

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Use JSON tag names for errors instead of Go struct names.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("schooldate", func(fl validator.FieldLevel) bool {
			return Date(fl.Field().String())
		})
		_ = v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
			_, ok := ClockTime(fl.Field().String())
			return ok
		})
		instance = v
	})
	return instance
}

// Struct runs the tag rules and converts failures into *apierr.ValidationError.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]apierr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apierr.FieldError{Field: fe.Field(), Error: message(fe)})
	}
	return apierr.NewValidationError(fields...)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "gte", "lte":
		return "must be between 0 and 20"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "schooldate":
		return "invalid date, use YYYY-MM-DD"
	case "clocktime":
		return "invalid time, use HH:MM"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "invalid value"
	}
}

func GradeInput(in models.GradeInput) error {
	return Struct(in)
}

func AttendanceInput(in models.AttendanceInput) error {
	return Struct(in)
}

func StudentInput(in models.StudentInput) error {
	in.Mail = strings.TrimSpace(in.Mail)
	return Struct(in)
}

func TeacherInput(in models.TeacherInput) error {
	in.Mail = strings.TrimSpace(in.Mail)
	return Struct(in)
}

// ScheduleInput also enforces start_time < end_time.
func ScheduleInput(in models.ScheduleInput) error {
	if err := Struct(in); err != nil {
		return err
	}
	start, _ := ClockTime(in.StartTime)
	end, _ := ClockTime(in.EndTime)
	if start >= end {
		return apierr.NewValidationError(apierr.FieldError{Field: "end_time", Error: "must be after start_time"})
	}
	return nil
}
