package handler

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Barangays of Noveleta.
var Barangays = []string{
	"Magdiwang",
	"Poblacion",
	"Salcedo I",
	"Salcedo II",
	"San Antonio I",
	"San Antonio II",
	"San Jose I",
	"San Jose II",
	"San Juan I",
	"San Juan II",
	"San Rafael I",
	"San Rafael II",
	"San Rafael III",
	"San Rafael IV",
	"Santa Rosa I",
	"Santa Rosa II",
}

var streetNames = []string{
	"Main Street",
	"2nd Avenue",
	"3rd Boulevard",
	"4th Road",
	"5th Lane",
	"6th Drive",
	"7th Place",
	"8th Crescent",
	"9th Terrace",
	"10th Way",
}

const (
	minRegistrantAge = 16
	dateLayout       = "2006-01-02"
)

var (
	phMobile        = regexp.MustCompile(`^(09|\+639)\d{9}$`)
	passwordSpecial = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	v.RegisterValidation("phmobile", func(fl validator.FieldLevel) bool {
		return phMobile.MatchString(fl.Field().String())
	})
	v.RegisterValidation("barangay", func(fl validator.FieldLevel) bool {
		return slices.Contains(Barangays, fl.Field().String())
	})
	v.RegisterValidation("streetname", func(fl validator.FieldLevel) bool {
		return slices.Contains(streetNames, fl.Field().String())
	})
	v.RegisterValidation("adult16", func(fl validator.FieldLevel) bool {
		born, err := time.Parse(dateLayout, fl.Field().String())
		if err != nil {
			return false
		}
		return ageOn(born, time.Now()) >= minRegistrantAge
	})
	v.RegisterValidation("strongpw", func(fl validator.FieldLevel) bool {
		pw := fl.Field().String()
		return len(pw) >= 8 && passwordSpecial.MatchString(pw)
	})
	return v
}

// ageOn returns the age in whole years of someone born on born, at day.
func ageOn(born, day time.Time) int {
	age := day.Year() - born.Year()
	if day.Month() < born.Month() || (day.Month() == born.Month() && day.Day() < born.Day()) {
		age--
	}
	return age
}

var fieldMessages = map[string]string{
	"required":   "This field is required.",
	"email":      "Enter a valid email address.",
	"phmobile":   "The contact number should start with +639 or 09 and contain 11 digits.",
	"barangay":   "Choose a barangay from the list.",
	"streetname": "Choose a street from the list.",
	"adult16":    "You must be at least 16 years old to register.",
	"strongpw":   "Password must be at least 8 characters long and include special characters.",
	"eqfield":    "Password and confirm password do not match.",
	"len":        "OTP must be 6 digits.",
	"numeric":    "OTP must be numeric.",
	"max":        "This value is too long.",
	"datetime":   "Enter a valid date.",
	"url":        "Enter a full link starting with http:// or https://.",
	"oneof":      "Choose one of the listed options.",
	"latitude":   "Pick a point on the map.",
	"longitude":  "Pick a point on the map.",
}

// fieldErrors maps a validation error to a message per form field.
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": "Please check the form and try again."}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Tag()]
		if !ok {
			msg = "This value is not valid."
		}
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = msg
		}
	}
	return out
}

// firstError returns one message out of errs, preferring the order of fields.
func firstError(errs map[string]string, fields ...string) string {
	for _, f := range fields {
		if msg, ok := errs[f]; ok {
			return msg
		}
	}
	for _, msg := range errs {
		return msg
	}
	return ""
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}
