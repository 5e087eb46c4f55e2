package logging

import "billify.site/pkg/billify/apperror"

// LogPanic logs a value returned by recover together with the stack of the panicking
// goroutine. It must be called directly from the deferred function.
func LogPanic(re any, logger Logger) {
	if re == nil {
		return
	}

	logger.Error("panic recovered", Fields{"err": apperror.Recovered(re)})
}
