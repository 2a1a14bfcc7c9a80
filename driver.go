package extract

import (
	"context"

	"go.uber.org/zap"
)

// Run extracts every position of c from v, in the order the
// extractors were appended, and returns the aggregate.  Every
// extractor sees the same View.
//
// The first failure stops the run: no later extractor is called and
// the zero aggregate is returned with an *Error naming the failed
// position and its Kind.  If ctx ends, the position that would have
// run next fails with Kind Canceled.
func Run[A Aggregate](ctx context.Context, c Chain[A], v *View, opts ...Option) (A, error) {
	cfg := newConfig(opts...)
	return run(ctx, c, v, cfg)
}

func run[A Aggregate](ctx context.Context, c Chain[A], v *View, cfg *config) (A, error) {
	out, err := c.extract(ctx, v.Metadata(), v.Body())
	if err != nil {
		if e, ok := err.(*Error); ok {
			cfg.logger.Debug("extraction failed",
				zap.Int("position", e.Position),
				zap.Stringer("kind", e.Kind),
				zap.Stringer("type", e.Type),
				zap.Int("length", c.Len()),
				zap.Error(e.Err))
		}
		var zero A
		return zero, err
	}
	return out, nil
}
