package logging

import (
	"encoding/json"
	"strings"
)

// Redacted replaces the value of every sensitive key in production records.
const Redacted = "[REDACTED]"

//nolint:gochecknoglobals // fixed redaction policy
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"apikey":        {},
	"secret":        {},
	"accesstoken":   {},
	"refreshtoken":  {},
	"privatekey":    {},
	"authorization": {},
	"cookie":        {},
	"set-cookie":    {},
	"x-api-key":     {},
}

// any key containing one of these is sensitive too, e.g. passwordConfirm or x-auth-token
//
//nolint:gochecknoglobals // fixed redaction policy
var sensitiveFragments = []string{"password", "token", "secret"}

func encode(e *entry, redact bool) ([]byte, error) {
	record := make(map[string]any, len(e.Fields)+3)

	for k, v := range e.Fields {
		record[k] = v
	}

	record["level"] = e.Level
	record["time"] = e.Time
	record["message"] = e.Message

	b, err := json.Marshal(record)
	if err != nil || !redact {
		return b, err
	}

	var generic any
	if err = json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}

	return json.Marshal(Redact(generic))
}

// Redact masks sensitive keys at any depth of a decoded JSON value. Key matching is
// case-insensitive. An object under a sensitive key is walked instead of masked, so
// nested structures such as validation trees keep their shape. Maps and slices are
// modified in place.
func Redact(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, inner := range t {
			if _, nested := inner.(map[string]any); nested || !isSensitive(k) {
				t[k] = Redact(inner)

				continue
			}

			t[k] = Redacted
		}
	case []any:
		for i := range t {
			t[i] = Redact(t[i])
		}
	}

	return v
}

func isSensitive(key string) bool {
	key = strings.ToLower(key)

	if _, ok := sensitiveKeys[key]; ok {
		return true
	}

	for _, fragment := range sensitiveFragments {
		if strings.Contains(key, fragment) {
			return true
		}
	}

	return false
}
