package apperror

import "errors"

// MaxCauseDepth bounds the number of causal links serialized for a single error.
const MaxCauseDepth = 20

// CauseTruncated replaces the links of a causal chain past MaxCauseDepth.
const CauseTruncated = "[cause chain truncated]"

// SerializeCause flattens a causal chain into JSON-safe maps. Values that are not errors
// are returned unchanged.
func SerializeCause(cause any) any {
	return serializeCause(cause, 1)
}

func serializeCause(cause any, depth int) any {
	err, ok := cause.(error)
	if !ok {
		return cause
	}

	if depth > MaxCauseDepth {
		return CauseTruncated
	}

	serialized := map[string]any{
		"type":    errorName(err),
		"message": err.Error(),
		"stack":   stackOf(err),
	}

	var next any

	if opErr, ok := err.(*Error); ok {
		serialized["type"] = opErr.Name()
		serialized["errorCode"] = opErr.ErrorCode()
		serialized["statusCode"] = opErr.StatusCode()
		serialized["status"] = opErr.Status()
		serialized["timestamp"] = opErr.Timestamp()
		serialized["isOperational"] = opErr.IsOperational()

		if opErr.Details() != nil {
			serialized["details"] = opErr.Details()
		}

		next = opErr.Cause()
	} else if unwrapped := errors.Unwrap(err); unwrapped != nil {
		next = unwrapped
	}

	if next != nil {
		serialized["cause"] = serializeCause(next, depth+1)
	}

	return serialized
}
