package extract

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
)

// Extractor produces one typed value from a request.  Implementations
// must not keep or modify md or body after Extract returns, and must
// be safe to call from many requests at once.
//
// Returned errors should be marked with MetadataError or DecodeError;
// unmarked errors are reported as decode failures.
type Extractor[T any] interface {
	Extract(ctx context.Context, md *Metadata, body []byte) (T, error)
}

// MetadataExtractor reads a value from request metadata only.
type MetadataExtractor[T any] struct {
	fn func(*Metadata) (T, error)
}

var _ Extractor[string] = MetadataExtractor[string]{}

// FromMetadata makes an extractor from a function of the request
// metadata.  Any error fn returns is a metadata failure.
func FromMetadata[T any](fn func(*Metadata) (T, error)) MetadataExtractor[T] {
	if fn == nil {
		panic("extract: nil metadata function")
	}
	return MetadataExtractor[T]{fn: fn}
}

func (e MetadataExtractor[T]) Extract(_ context.Context, md *Metadata, _ []byte) (T, error) {
	v, err := e.fn(md)
	if err != nil {
		var zero T
		return zero, MetadataError(err)
	}
	return v, nil
}

// BodyExtractor decodes the request body and ignores metadata.
type BodyExtractor[T any] struct {
	decode DecodeFunc[T]
}

var _ Extractor[struct{}] = BodyExtractor[struct{}]{}

// FromBody makes an extractor that decodes the body into a T with
// decode.  Any error decode returns is a decode failure.  Whether an
// empty body is acceptable is up to decode; the JSON and YAML decoders
// reject it with ErrEmptyBody.
func FromBody[T any](decode DecodeFunc[T]) BodyExtractor[T] {
	if decode == nil {
		panic("extract: nil decode function")
	}
	return BodyExtractor[T]{decode: decode}
}

func (e BodyExtractor[T]) Extract(ctx context.Context, _ *Metadata, body []byte) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	v, err := e.decode(body)
	if err != nil {
		return zero, DecodeError(errors.Wrapf(err, "decode %s", typeOf[T]()))
	}
	return v, nil
}

// PathSegment extracts segment i of the path as text.  See
// Metadata.Segment for the numbering.
func PathSegment(i int) MetadataExtractor[string] {
	return FromMetadata(func(md *Metadata) (string, error) {
		return segment(md, i)
	})
}

// PathSegmentUint extracts segment i of the path as an unsigned
// integer that fits in bitSize bits.
func PathSegmentUint(i int, bitSize int) MetadataExtractor[uint64] {
	return FromMetadata(func(md *Metadata) (uint64, error) {
		s, err := segment(md, i)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseUint(s, 10, bitSize)
		return n, errors.Wrapf(err, "path segment %d", i)
	})
}

// PathSegmentInt extracts segment i of the path as a signed integer
// that fits in bitSize bits.
func PathSegmentInt(i int, bitSize int) MetadataExtractor[int64] {
	return FromMetadata(func(md *Metadata) (int64, error) {
		s, err := segment(md, i)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(s, 10, bitSize)
		return n, errors.Wrapf(err, "path segment %d", i)
	})
}

// RouteVar extracts a variable matched by the router, such as
// "{id}" in a gorilla/mux template.
func RouteVar(name string) MetadataExtractor[string] {
	return FromMetadata(func(md *Metadata) (string, error) {
		return routeVar(md, name)
	})
}

// RouteVarUint extracts a route variable as an unsigned integer.
func RouteVarUint(name string, bitSize int) MetadataExtractor[uint64] {
	return FromMetadata(func(md *Metadata) (uint64, error) {
		s, err := routeVar(md, name)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseUint(s, 10, bitSize)
		return n, errors.Wrapf(err, "route variable %q", name)
	})
}

// HeaderValue extracts the first value of a header.  A missing header
// fails; an explicitly empty one does not.
func HeaderValue(name string) MetadataExtractor[string] {
	return FromMetadata(func(md *Metadata) (string, error) {
		values, ok := md.header[http.CanonicalHeaderKey(name)]
		if !ok || len(values) == 0 {
			return "", errors.Wrapf(ErrMissingHeader, "%s", name)
		}
		return values[0], nil
	})
}

// Method extracts the request method.
func Method() MetadataExtractor[string] {
	return FromMetadata(func(md *Metadata) (string, error) {
		return md.Method(), nil
	})
}

func segment(md *Metadata, i int) (string, error) {
	s, ok := md.Segment(i)
	if !ok {
		return "", errors.Wrapf(ErrMissingSegment, "segment %d of %q", i, md.Path())
	}
	return s, nil
}

func routeVar(md *Metadata, name string) (string, error) {
	s, ok := md.Var(name)
	if !ok {
		return "", errors.Wrapf(ErrMissingVar, "%s", name)
	}
	return s, nil
}
