package extract_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BlueOwlOpenSource/extract"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type contactArgs = extract.Cons[Contact, extract.Cons[uint64, extract.Cons[string, extract.Nil]]]

func greet(_ context.Context, w http.ResponseWriter, _ *http.Request, args contactArgs) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{
		"greeting": args.Tail.Tail.Head,
		"id":       args.Tail.Head,
		"name":     args.Head.Name,
	})
}

func TestHandler(t *testing.T) {
	t.Parallel()
	h := extract.Handler(contactChain(), greet)

	cases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"ok", "/hello/1337", `{"name":"John Doe","email":"foo@john.com","age":42}`, http.StatusOK},
		{"malformed body", "/hello/1337", `{"name":`, http.StatusBadRequest},
		{"missing field", "/hello/1337", `{"name":"John Doe","age":42}`, http.StatusBadRequest},
		{"empty body", "/hello/1337", ``, http.StatusBadRequest},
		{"missing segment", "/hello", `{"name":"John Doe","email":"foo@john.com","age":42}`, http.StatusNotFound},
		{"bad number", "/hello/abc", `{"name":"John Doe","email":"foo@john.com","age":42}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body)))
		assert.Equal(t, tc.status, w.Code, tc.name)
		if tc.status == http.StatusOK {
			var got map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, map[string]any{"greeting": "hello", "id": float64(1337), "name": "John Doe"}, got)
		}
	}
}

func TestHandlerErrors(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.InfoLevel)
	var written []int
	h := extract.Handler(
		extract.Append(extract.Empty(), extract.RouteVar("id")),
		func(_ context.Context, _ http.ResponseWriter, _ *http.Request, args extract.Cons[string, extract.Nil]) error {
			if args.Head == "fail" {
				return errors.New("handler failed")
			}
			return nil
		},
		extract.WithLogger(zap.New(core)),
		extract.WithMaxBodyBytes(4),
		extract.WithErrorWriter(func(w http.ResponseWriter, _ *http.Request, status int, err error) {
			written = append(written, status)
			w.WriteHeader(status)
			fmt.Fprintf(w, "custom: %v", err)
		}))
	router := mux.NewRouter()
	router.Handle("/items/{id}", h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "custom: handler failed")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/items/ok", strings.NewReader("too long")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// called outside the router there is no {id} variable
	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/items/ok", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, []int{500, 413, 404}, written)
	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 3)
	assert.Equal(t, "/items/fail", entries[0].ContextMap()["path"])
	assert.Equal(t, int64(500), entries[0].ContextMap()["status"])
}

func TestRunLogsFailures(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.DebugLevel)
	_, err := extract.Run(context.Background(), contactChain(), contactView(t, "/hello", nil), extract.WithLogger(zap.New(core)))
	require.Error(t, err)
	entries := logs.FilterMessage("extraction failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(1), fields["position"])
	assert.Equal(t, "metadata failure", fields["kind"])
	assert.Equal(t, "uint64", fields["type"])
	assert.Equal(t, int64(3), fields["length"])
}

func TestStatusFor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, http.StatusInternalServerError, extract.StatusFor(errors.New("x")))
	assert.Equal(t, http.StatusBadRequest, extract.StatusFor(&extract.Error{Kind: extract.DecodeFailure}))
	assert.Equal(t, http.StatusNotFound, extract.StatusFor(&extract.Error{Kind: extract.MetadataFailure}))
	assert.Equal(t, extract.StatusClientClosedRequest, extract.StatusFor(&extract.Error{Kind: extract.Canceled}))
	assert.Equal(t, http.StatusBadRequest, extract.StatusFor(errors.Wrap(&extract.Error{Kind: extract.DecodeFailure}, "wrapped")))
}

func fastRequest(method, uri, body string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	req.SetBodyString(body)
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

func TestFastHandler(t *testing.T) {
	t.Parallel()
	h := extract.FastHandler(contactChain(), func(ctx *fasthttp.RequestCtx, args contactArgs) error {
		ctx.SetStatusCode(fasthttp.StatusCreated)
		fmt.Fprintf(ctx, "%s/%d/%s", args.Tail.Tail.Head, args.Tail.Head, args.Head.Email)
		return nil
	}, extract.WithMaxBodyBytes(1024))

	ctx := fastRequest(fasthttp.MethodPost, "/hello/1337", `{"name":"John Doe","email":"foo@john.com","age":42}`)
	h(ctx)
	assert.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
	assert.Equal(t, "hello/1337/foo@john.com", string(ctx.Response.Body()))

	ctx = fastRequest(fasthttp.MethodPost, "/hello/1337", `not json`)
	h(ctx)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctx = fastRequest(fasthttp.MethodPost, "/hello", `{"name":"John Doe","email":"foo@john.com","age":42}`)
	h(ctx)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	ctx = fastRequest(fasthttp.MethodPost, "/hello/1337", strings.Repeat("x", 1025))
	h(ctx)
	assert.Equal(t, fasthttp.StatusRequestEntityTooLarge, ctx.Response.StatusCode())
}

func TestFastHandlerRouteVars(t *testing.T) {
	t.Parallel()
	h := extract.FastHandler(extract.Append(extract.Empty(), extract.RouteVarUint("id", 32)),
		func(ctx *fasthttp.RequestCtx, args extract.Cons[uint64, extract.Nil]) error {
			if args.Head == 0 {
				return errors.New("zero id")
			}
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return nil
		})

	ctx := fastRequest(fasthttp.MethodGet, "/things/9", "")
	ctx.SetUserValue("id", "9")
	h(ctx)
	assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())

	ctx = fastRequest(fasthttp.MethodGet, "/things/0", "")
	ctx.SetUserValue("id", "0")
	h(ctx)
	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
}
