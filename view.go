package extract

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
)

// DefaultMaxBodyBytes is the body limit used by ReadRequest when
// WithMaxBodyBytes is not given.
const DefaultMaxBodyBytes int64 = 4 << 20

// Metadata is the routing side of a request: method, path, headers,
// and the variables the router matched.  It is read-only once built
// and may be shared by any number of extractors.
type Metadata struct {
	method   string
	path     string
	segments []string
	header   http.Header
	vars     map[string]string
}

// Method returns the request method.
func (m *Metadata) Method() string { return m.method }

// Path returns the request path.
func (m *Metadata) Path() string { return m.path }

// Segment returns the i-th element of the path split on "/".  The
// leading slash produces an empty element 0, so for "/hello/1337"
// Segment(1) is "hello" and Segment(2) is "1337".
func (m *Metadata) Segment(i int) (string, bool) {
	if i < 0 || i >= len(m.segments) {
		return "", false
	}
	return m.segments[i], true
}

// Segments returns a copy of the split path.
func (m *Metadata) Segments() []string {
	out := make([]string, len(m.segments))
	copy(out, m.segments)
	return out
}

// Header returns the first value for key, or "" if there is none.
func (m *Metadata) Header(key string) string { return m.header.Get(key) }

// Headers returns a copy of all headers.
func (m *Metadata) Headers() http.Header { return m.header.Clone() }

// Var returns a route variable matched by the router.
func (m *Metadata) Var(name string) (string, bool) {
	v, ok := m.vars[name]
	return v, ok
}

// View is the immutable snapshot of one request that every extractor
// in a chain reads from.  The body is fully buffered before any
// extraction starts.
type View struct {
	meta *Metadata
	body []byte
}

// Metadata returns the request metadata.
func (v *View) Metadata() *Metadata { return v.meta }

// Body returns the buffered body.  The slice is shared between
// extractors and must not be modified.
func (v *View) Body() []byte { return v.body }

// NewView builds a View from already-available parts.  header, vars,
// and body are copied.
func NewView(method, path string, header http.Header, vars map[string]string, body []byte) *View {
	if header == nil {
		header = http.Header{}
	}
	copiedVars := make(map[string]string, len(vars))
	for k, val := range vars {
		copiedVars[k] = val
	}
	return &View{
		meta: &Metadata{
			method:   method,
			path:     path,
			segments: strings.Split(path, "/"),
			header:   header.Clone(),
			vars:     copiedVars,
		},
		body: bytes.Clone(body),
	}
}

// ReadRequest buffers the body of r and captures its metadata.  Route
// variables are taken from gorilla/mux when r was routed by a
// mux.Router.  The body is read up to the limit set by
// WithMaxBodyBytes; a larger body returns ErrBodyTooLarge.
func ReadRequest(r *http.Request, opts ...Option) (*View, error) {
	return readRequest(r, newConfig(opts...))
}

func readRequest(r *http.Request, cfg *config) (*View, error) {
	var body []byte
	if r.Body != nil && r.Body != http.NoBody {
		limited := io.LimitReader(r.Body, cfg.maxBodyBytes+1)
		buf, err := io.ReadAll(limited)
		if err != nil {
			return nil, errors.Wrapf(err, "read body of %s %s", r.Method, r.URL.Path)
		}
		if int64(len(buf)) > cfg.maxBodyBytes {
			return nil, errors.Wrapf(ErrBodyTooLarge, "%d bytes allowed", cfg.maxBodyBytes)
		}
		body = buf
	}
	return &View{
		meta: &Metadata{
			method:   r.Method,
			path:     r.URL.Path,
			segments: strings.Split(r.URL.Path, "/"),
			header:   r.Header.Clone(),
			vars:     mux.Vars(r),
		},
		body: body,
	}, nil
}

// ReadFastRequest captures a fasthttp request.  Values stored on the
// context with SetUserValue become route variables when they are
// strings.  Everything is copied because fasthttp reuses its buffers
// once the handler returns.
func ReadFastRequest(ctx *fasthttp.RequestCtx) *View {
	header := http.Header{}
	ctx.Request.Header.VisitAll(func(key, value []byte) {
		header.Add(string(key), string(value))
	})
	vars := make(map[string]string)
	ctx.VisitUserValues(func(key []byte, value interface{}) {
		if s, ok := value.(string); ok {
			vars[string(key)] = s
		}
	})
	path := string(ctx.Path())
	return &View{
		meta: &Metadata{
			method:   string(ctx.Method()),
			path:     path,
			segments: strings.Split(path, "/"),
			header:   header,
			vars:     vars,
		},
		body: bytes.Clone(ctx.PostBody()),
	}
}
