package validation

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-contactform/pkg/mask"
	"github.com/goliatone/go-contactform/pkg/model"
)

// emailPattern accepts the local@domain.tld shape without whitespace.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const emailShapeTag = "emailshape"

// fieldValidate is shared by every engine; validator.Validate is safe for
// concurrent use once tags are registered.
var fieldValidate = newFieldValidator()

func newFieldValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation(emailShapeTag, func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// requiredEntryFields carries the submit-time rules of a required contact.
// Only the first failing tag of each field is reported.
type requiredEntryFields struct {
	Email           string   `validate:"required,emailshape"`
	Phone           string   `validate:"required"`
	PhoneDigits     int      `validate:"gtefield=MinPhoneDigits"`
	Department      string   `validate:"required_if=PerChannel false"`
	EmailDepartment string   `validate:"required_if=PerChannel true"`
	PhoneDepartment string   `validate:"required_if=PerChannel true"`
	Preferences     []string `validate:"min=1"`

	MinPhoneDigits int
	PerChannel     bool
}

func newRequiredEntryFields(entry model.ContactEntry, rules Rules) requiredEntryFields {
	phone := strings.TrimSpace(entry.Phone)
	return requiredEntryFields{
		Email:           strings.TrimSpace(entry.Email),
		Phone:           phone,
		PhoneDigits:     mask.PhoneDigitCount(phone),
		Department:      strings.TrimSpace(entry.Department),
		EmailDepartment: strings.TrimSpace(entry.EmailDepartment),
		PhoneDepartment: strings.TrimSpace(entry.PhoneDepartment),
		Preferences:     entry.Preferences,
		MinPhoneDigits:  rules.MinPhoneDigits,
		PerChannel:      rules.DepartmentMode == model.DepartmentPerChannel,
	}
}

// failures maps struct field names to the tag that rejected them.
func (f requiredEntryFields) failures() map[string]string {
	err := fieldValidate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		panic(err)
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.StructField()] = fe.Tag()
	}
	return out
}

// IsEmail reports whether value has the local@domain.tld shape.
func IsEmail(value string) bool {
	return fieldValidate.Var(value, "required,"+emailShapeTag) == nil
}

// parseCount parses a non-negative whole number. ok is false when the text
// is not an integer; negative is true for integers below zero.
func parseCount(raw string) (n int, ok bool, negative bool) {
	trimmed := strings.TrimSpace(raw)
	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false, false
	}
	if fieldValidate.Var(value, "gte=0") != nil {
		return value, true, true
	}
	return value, true, false
}
