package wrap

import (
	"context"
	"errors"
)

// Error wraps an error with the current LogCtx from the context.
// When err already carries a LogCtx the innermost one is kept, so the
// failure site stays visible in the final log line.
func Error(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var e *errorWithLogCtx
	if errors.As(err, &e) {
		if err == error(e) {
			return err
		}
		return &errorWithLogCtx{err: err, logCtx: e.logCtx}
	}

	c, _ := ctx.Value(LogCtxKey).(LogCtx)
	return &errorWithLogCtx{
		err:    err,
		logCtx: c,
	}
}
