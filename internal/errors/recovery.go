package errors

import (
	"go.uber.org/zap"
)

// Recover converts a panic in the calling function into an *Error stored in
// *errp. It must be deferred directly:
//
//	defer errors.Recover(logger, &err)
func Recover(logger *zap.Logger, errp *error) {
	rec := recover()
	if rec == nil {
		return
	}

	e := Errorf("panic: %v", rec)
	if cause, ok := rec.(error); ok {
		e.Err = cause
		e.Message = "panic"
	}

	if logger != nil {
		logger.Error("Recovered from panic",
			zap.Any("panic", rec),
			zap.Strings("stack", e.StackTrace()),
		)
	}

	if errp != nil {
		*errp = e
	}
}
