package logging

import (
	"context"
	"time"
)

// Timed wraps fn so that every call reports its duration and outcome through
// the logger, tagged with the operation name. It replaces ad hoc timing calls
// scattered through handlers: wrap once, call the returned function as usual.
//
//	summarize := logging.Timed(log, "ledger.summary", svc.Summary)
//	summary, err := summarize(ctx, userID)
func Timed[In, Out any](log Logger, op string, fn func(context.Context, In) (Out, error)) func(context.Context, In) (Out, error) {
	return func(ctx context.Context, in In) (Out, error) {
		start := time.Now()
		out, err := fn(ctx, in)
		elapsed := time.Since(start)
		if err != nil {
			log.Warn(ctx, "operation failed", "op", op, "duration_ms", elapsed.Milliseconds(), "error", err)
		} else {
			log.Debug(ctx, "operation completed", "op", op, "duration_ms", elapsed.Milliseconds())
		}
		return out, err
	}
}
