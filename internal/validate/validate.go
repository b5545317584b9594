// Package validate runs the declarative field rules of incoming payloads and
// translates failures into the structured error body of the API.
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one failed field rule.
type FieldError struct {
	Attr   string `json:"attr"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// ErrorBody is the response body of a rejected payload.
type ErrorBody struct {
	Type   string       `json:"type"`
	Errors []FieldError `json:"errors"`
}

// engine is the shared validator instance with the custom field rules and
// json-tag field naming registered.
var engine = newEngine()

// formats is a bare validator used by the blank-tolerant rules to run the
// built-in format checks on single values.
var formats = validator.New()

func newEngine() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("email_or_blank", emailRule); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("phone_or_blank", phoneRule); err != nil {
		panic(err)
	}
	// Report field names as they appear on the wire.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct checks every field rule of the given payload. It returns nil if the
// payload is valid, otherwise an ErrorBody listing one entry per failed field.
func Struct(payload any) *ErrorBody {
	err := engine.Struct(payload)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ErrorBody{
			Type:   "validation_error",
			Errors: []FieldError{{Attr: "non_field_errors", Code: "invalid", Detail: err.Error()}},
		}
	}
	body := &ErrorBody{Type: "validation_error"}
	for _, fe := range fieldErrs {
		body.Errors = append(body.Errors, toFieldError(fe))
	}
	return body
}

// toFieldError maps a failed rule to the wire-level error code and message.
func toFieldError(fe validator.FieldError) FieldError {
	switch fe.Tag() {
	case "email_or_blank":
		return FieldError{Attr: fe.Field(), Code: "invalid", Detail: "Enter a valid email address."}
	case "phone_or_blank":
		return FieldError{Attr: fe.Field(), Code: "invalid", Detail: "The phone number entered is not valid."}
	case "oneof":
		detail := fmt.Sprintf("%q is not a valid choice.", fmt.Sprintf("%v", fe.Value()))
		return FieldError{Attr: fe.Field(), Code: "invalid_choice", Detail: detail}
	case "required":
		return FieldError{Attr: fe.Field(), Code: "required", Detail: "This field is required."}
	case "min":
		return FieldError{Attr: fe.Field(), Code: "blank", Detail: "This field may not be blank."}
	default:
		return FieldError{Attr: fe.Field(), Code: "invalid", Detail: "Invalid value."}
	}
}

// phoneSeparators are the characters commonly used to group digits.
var phoneSeparators = regexp.MustCompile(`[\s\-().]`)

// emailRule and phoneRule accept the empty string: both fields may be
// submitted blank, and a blank identity is stored as NULL rather than
// rejected.
func emailRule(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || formats.Var(s, "email") == nil
}

func phoneRule(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || PhoneNumber(s)
}

// PhoneNumber reports whether s is a dialable phone number. Ten-digit numbers
// (with an optional leading 1 or +1) must satisfy the North American
// numbering plan: neither the area code nor the exchange code may start with
// 0 or 1. Other numbers must be in international form, a + followed by 8 to
// 15 digits.
func PhoneNumber(s string) bool {
	s = phoneSeparators.ReplaceAllString(s, "")
	international := strings.HasPrefix(s, "+")
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	if len(s) == 11 && s[0] == '1' {
		return nanp(s[1:])
	}
	if international {
		return len(s) >= 8 && len(s) <= 15
	}
	return nanp(s)
}

// nanp checks the ten-digit North American numbering plan rules.
func nanp(s string) bool {
	return len(s) == 10 && s[0] >= '2' && s[3] >= '2'
}
