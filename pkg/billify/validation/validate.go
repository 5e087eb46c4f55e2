// Package validation decodes strict JSON request bodies and validates them with
// go-playground/validator, reporting every failure as an issue list that the error
// pipeline turns into a 422 response.
package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

//nolint:gochecknoglobals // validator caches struct metadata, one instance per process
var (
	instance *validator.Validate
	once     sync.Once
)

// Get returns the shared validator with the billify rules registered.
func Get() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(jsonName)

		_ = v.RegisterValidation("username", validUsername)
		_ = v.RegisterValidation("strongpassword", validStrongPassword)

		instance = v
	})

	return instance
}

// Sanitizer is implemented by request types that normalize their fields (trimming,
// lower-casing) before validation.
type Sanitizer interface {
	Sanitize()
}

// Messenger is implemented by request types that override issue messages. Keys are
// "<json field>.<tag>" or "<json field>" for every tag of the field.
type Messenger interface {
	ValidationMessages() map[string]string
}

// Struct sanitizes and validates v, which must be a pointer to a struct.
func Struct(v any) error {
	return validateStruct(v, nil)
}

func validateStruct(v any, present map[string]bool) error {
	if s, ok := v.(Sanitizer); ok {
		s.Sanitize()
	}

	err := Get().Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var messages map[string]string
	if m, ok := v.(Messenger); ok {
		messages = m.ValidationMessages()
	}

	issues := make([]Issue, 0, len(verrs))

	for _, fe := range verrs {
		issues = append(issues, issueFor(fe, messages, present))
	}

	return &Error{issues: issues}
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")

	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	default:
		return name
	}
}
