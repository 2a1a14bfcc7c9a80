package extract

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// StatusClientClosedRequest is reported when the client went away
// before extraction finished.  It is not sent in practice because
// nobody is left to read it, but it shows up in logs and in custom
// ErrorWriters.
const StatusClientClosedRequest = 499

// HandlerFunc receives the extracted aggregate for one request.  A
// returned error is written with the configured ErrorWriter.
type HandlerFunc[A Aggregate] func(ctx context.Context, w http.ResponseWriter, r *http.Request, args A) error

// FastHandlerFunc is the fasthttp counterpart of HandlerFunc.
type FastHandlerFunc[A Aggregate] func(ctx *fasthttp.RequestCtx, args A) error

// StatusFor maps an error to the status code the handler adapters
// respond with:
//
//	decode failure         400
//	metadata failure       404
//	body over the limit    413
//	canceled               499
//	anything else          500
func StatusFor(err error) int {
	if errors.Is(err, ErrBodyTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	kind, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case DecodeFailure:
		return http.StatusBadRequest
	case MetadataFailure:
		return http.StatusNotFound
	case Canceled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// Handler turns a chain and a function that consumes its aggregate
// into an http.HandlerFunc.  The body is buffered, the chain is run,
// and fn is only called when every position succeeded.
//
// When the handler is bound to a gorilla/mux router, route variables
// are available to RouteVar.
func Handler[A Aggregate](c Chain[A], fn HandlerFunc[A], opts ...Option) http.HandlerFunc {
	if c == nil || fn == nil {
		panic("extract: Handler needs a chain and a function")
	}
	cfg := newConfig(opts...)
	return func(w http.ResponseWriter, r *http.Request) {
		fail := func(err error) {
			status := StatusFor(err)
			cfg.logger.Info("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Error(err))
			cfg.errorWriter(w, r, status, err)
		}
		v, err := readRequest(r, cfg)
		if err != nil {
			fail(err)
			return
		}
		ctx := r.Context()
		args, err := run(ctx, c, v, cfg)
		if err != nil {
			fail(err)
			return
		}
		if err := fn(ctx, w, r, args); err != nil {
			fail(err)
		}
	}
}

// FastHandler turns a chain and a function that consumes its
// aggregate into a fasthttp.RequestHandler.  Route parameters stored
// with SetUserValue are available to RouteVar.  WithErrorWriter does
// not apply; failures are written with RequestCtx.Error.
func FastHandler[A Aggregate](c Chain[A], fn FastHandlerFunc[A], opts ...Option) fasthttp.RequestHandler {
	if c == nil || fn == nil {
		panic("extract: FastHandler needs a chain and a function")
	}
	cfg := newConfig(opts...)
	return func(ctx *fasthttp.RequestCtx) {
		fail := func(err error) {
			status := StatusFor(err)
			cfg.logger.Info("request failed",
				zap.ByteString("method", ctx.Method()),
				zap.ByteString("path", ctx.Path()),
				zap.Int("status", status),
				zap.Error(err))
			ctx.Error(err.Error(), status)
		}
		if n := int64(len(ctx.PostBody())); n > cfg.maxBodyBytes {
			fail(errors.Wrapf(ErrBodyTooLarge, "%d bytes allowed", cfg.maxBodyBytes))
			return
		}
		args, err := run(ctx, c, ReadFastRequest(ctx), cfg)
		if err != nil {
			fail(err)
			return
		}
		if err := fn(ctx, args); err != nil {
			fail(err)
		}
	}
}
