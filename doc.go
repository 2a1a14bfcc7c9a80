/*
Package extract builds typed request extractors out of small,
independent pieces and runs them against one buffered request.

Why?

Typed results: a chain records the output type of every extractor in
its own type.  The handler that consumes the result gets a struct
whose fields have the exact types the extractors produce.  There is
no interface{} to cast and no type check left for request time.

Reuse: extractors and chains hold no per-request state.  Build them
once at startup and share them between endpoints and goroutines.

One read of the body: the body is buffered once into a View and every
extractor reads the same bytes.

Basics

An Extractor pulls one value out of a request.  FromMetadata makes one
from the path, headers, and route variables; FromBody makes one that
decodes the body.  PathSegment, RouteVar, HeaderValue, JSON, YAML,
and Proto cover the common cases.

Empty and Append build a Chain.  Each Append returns a new chain that
is one position longer; the chain it was given is not changed.

	type Contact struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Age   uint8  `json:"age"`
	}

	var contactChain = extract.Append(
		extract.Append(
			extract.Append(extract.Empty(), extract.PathSegment(1)),
			extract.PathSegmentUint(2, 64)),
		extract.JSON[Contact]())

Run executes a chain against a View:

	r, err := extract.Run(ctx, contactChain, view)
	// r.Head is the Contact
	// r.Tail.Head is the uint64 from segment 2
	// r.Tail.Tail.Head is the string from segment 1

Ordering

Extractors run in the order they were appended.  The most recently
appended extractor is the Head of the result type; Values lists the
results in append order.  Positions in errors are counted the same
way, starting at zero.

Errors

The first extractor that fails stops the run.  Run returns an *Error
with the failed Position and a Kind: DecodeFailure for bodies that do
not decode, MetadataFailure for missing or unparsable path segments,
route variables, and headers, and Canceled when the context ends.
No partial result is returned.

HTTP

Handler and FastHandler adapt a chain and a typed function into a
net/http or fasthttp handler.  StatusFor picks the response code for a
failure.  Service groups endpoints that are bound to a gorilla
mux.Router together.
*/
package extract
