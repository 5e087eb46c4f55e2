package validation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"billify.site/pkg/billify/apperror"
)

// Decode parses body as a strict JSON object into v (a pointer to a struct), then
// sanitizes and validates it. Keys that v does not declare are reported as an
// unrecognized_keys issue alongside any field issues. A body that is not a JSON object
// yields a BadRequestError.
func Decode(body []byte, v any) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return apperror.NewBadRequest("Malformed JSON body", nil, apperror.WithCause(errors.WithStack(err)))
	}

	var issues []Issue

	known := knownKeys(v)
	present := make(map[string]bool, len(raw))

	var unknown []string

	for k := range raw {
		present[k] = true

		if !known[k] {
			unknown = append(unknown, k)
		}
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)

		issues = append(issues, Issue{
			Code:    CodeUnrecognizedKeys,
			Message: fmt.Sprintf("Unrecognized key(s) in object: '%s'", strings.Join(unknown, "', '")),
		})
	}

	if err := json.Unmarshal(body, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return apperror.NewBadRequest("Malformed JSON body", nil, apperror.WithCause(errors.WithStack(err)))
		}

		issues = append(issues, Issue{
			Code:    CodeInvalidType,
			Path:    typeErr.Field,
			Message: fmt.Sprintf("Invalid input: expected %s, received %s", typeErr.Type, typeErr.Value),
		})

		return &Error{issues: issues, cause: err}
	}

	err := validateStruct(v, present)
	if err == nil && len(issues) == 0 {
		return nil
	}

	var verr *Error
	if err != nil && !errors.As(err, &verr) {
		return err
	}

	if verr != nil {
		issues = append(issues, verr.issues...)
	}

	return &Error{issues: issues}
}

func knownKeys(v any) map[string]bool {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	known := make(map[string]bool)

	if t == nil || t.Kind() != reflect.Struct {
		return known
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		if name := jsonName(f); name != "" {
			known[name] = true
		}
	}

	return known
}
