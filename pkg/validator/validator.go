package validator

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TimeOfDayLayout is the 24-hour HH:MM layout used for dosing times.
const TimeOfDayLayout = "15:04"

// DateLayout is the calendar-date layout used for refill dates and log dates.
const DateLayout = "2006-01-02"

// New returns a validator with the custom rules registered and field names
// reported by their json tag.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	Register(v)
	return v
}

// Register installs the custom rules on an existing validator, e.g. gin's
// binding engine.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return IsTimeOfDay(fl.Field().String())
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsDate(s)
	})
}

// IsTimeOfDay reports whether s is a valid 24-hour HH:MM time.
func IsTimeOfDay(s string) bool {
	if len(s) != len(TimeOfDayLayout) {
		return false
	}
	_, err := time.Parse(TimeOfDayLayout, s)
	return err == nil
}

// IsDate reports whether s is a YYYY-MM-DD calendar date.
func IsDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// FirstFailure returns the json field name and rule tag of the first failed
// constraint in err, or ok=false when err is not a validation failure.
func FirstFailure(err error) (field, tag string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "", "", false
	}
	return verrs[0].Field(), verrs[0].Tag(), true
}
