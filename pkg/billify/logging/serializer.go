package logging

import "billify.site/pkg/billify/apperror"

// ErrorSerializer renders a failure value placed in a log record.
type ErrorSerializer func(v any) map[string]any

// DevErrorSerializer keeps every detail of the normalized failure.
func DevErrorSerializer(v any) map[string]any {
	info := apperror.Normalize(v)

	out := map[string]any{
		"type":          info.Name,
		"message":       info.Message,
		"statusCode":    info.StatusCode,
		"status":        info.Status,
		"errorCode":     info.ErrorCode,
		"isOperational": info.IsOperational,
		"timestamp":     info.Timestamp,
	}

	if info.Details != nil {
		out["details"] = info.Details
	}

	if info.Stack != "" {
		out["stack"] = info.Stack
	}

	if info.Cause != nil {
		out["cause"] = info.Cause
	}

	return out
}

// ProdErrorSerializer omits internals: details only for operational errors, stack and
// cause only for server errors.
func ProdErrorSerializer(v any) map[string]any {
	info := apperror.Normalize(v)

	out := map[string]any{
		"type":          info.Name,
		"message":       info.Message,
		"statusCode":    info.StatusCode,
		"errorCode":     info.ErrorCode,
		"isOperational": info.IsOperational,
	}

	if info.IsOperational && info.Details != nil {
		out["details"] = info.Details
	}

	if info.StatusCode >= 500 {
		if info.Stack != "" {
			out["stack"] = info.Stack
		}

		if info.Cause != nil {
			out["cause"] = info.Cause
		}
	}

	return out
}
