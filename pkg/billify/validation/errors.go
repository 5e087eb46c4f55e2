package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"billify.site/pkg/billify/apperror"
)

type Issue = apperror.Issue

// Issue codes.
const (
	CodeInvalidType      = "invalid_type"
	CodeTooSmall         = "too_small"
	CodeTooBig           = "too_big"
	CodeInvalidFormat    = "invalid_format"
	CodeCustom           = "custom"
	CodeUnrecognizedKeys = "unrecognized_keys"
)

// Error is a failed validation. It carries every issue found, not only the first.
type Error struct {
	issues []Issue
	cause  error
}

func NewError(issues ...Issue) *Error {
	return &Error{issues: issues}
}

func (e *Error) Error() string {
	return e.Summary()
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Issues() []Issue {
	out := make([]Issue, len(e.issues))
	copy(out, e.issues)

	return out
}

// Summary renders one "✖ message" line per issue, followed by "→ at path" when the
// issue belongs to a field.
func (e *Error) Summary() string {
	lines := make([]string, 0, len(e.issues))

	for _, is := range e.issues {
		line := "✖ " + is.Message
		if is.Path != "" {
			line += "\n  → at " + is.Path
		}

		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// Tree nests issue messages by path:
//
//	{"errors": [...], "properties": {"email": {"errors": ["Invalid email address"]}}}
func (e *Error) Tree() any {
	root := newNode()

	for _, is := range e.issues {
		n := root

		if is.Path != "" {
			for _, segment := range strings.Split(is.Path, ".") {
				n = n.child(segment)
			}
		}

		n.Errors = append(n.Errors, is.Message)
	}

	return root
}

type node struct {
	Errors     []string         `json:"errors"`
	Properties map[string]*node `json:"properties,omitempty"`
}

func newNode() *node {
	return &node{Errors: []string{}}
}

func (n *node) child(name string) *node {
	if n.Properties == nil {
		n.Properties = make(map[string]*node)
	}

	c, ok := n.Properties[name]
	if !ok {
		c = newNode()
		n.Properties[name] = c
	}

	return c
}

func issueFor(fe validator.FieldError, messages map[string]string, present map[string]bool) Issue {
	path := fe.Namespace()
	if _, rest, ok := strings.Cut(path, "."); ok {
		path = rest
	}

	is := Issue{Path: path, Code: codeFor(fe, present), Message: defaultMessage(fe)}

	if msg, ok := messages[path+"."+fe.Tag()]; ok {
		is.Message = msg
	} else if msg, ok := messages[path]; ok {
		is.Message = msg
	}

	return is
}

func codeFor(fe validator.FieldError, present map[string]bool) string {
	switch fe.Tag() {
	case "required":
		if present != nil && !present[fe.Field()] {
			return CodeInvalidType
		}

		return CodeTooSmall
	case "min", "gte", "gt", "len":
		return CodeTooSmall
	case "max", "lte", "lt":
		return CodeTooBig
	case "eqfield", "nefield":
		return CodeCustom
	default:
		return CodeInvalidFormat
	}
}

func defaultMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Invalid email address"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("Invalid %s", fe.Field())
	}
}
