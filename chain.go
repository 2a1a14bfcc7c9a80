package extract

import (
	"context"
)

// Chain is an ordered list of extractors whose type records the output
// type of every position.  A Chain is itself an Extractor of its
// aggregate, so chains can be nested.
//
// Chains are built with Empty and Append ahead of request handling and
// are safe to share between concurrent requests.
type Chain[A Aggregate] interface {
	Extractor[A]

	// Len is the number of extractors in the chain.
	Len() int

	// Schema is the output type of each position in construction
	// order.
	Schema() Schema

	// extract runs the chain and reports failures that already carry
	// their position.
	extract(ctx context.Context, md *Metadata, body []byte) (A, error)
}

type emptyChain struct{}

var _ Chain[Nil] = emptyChain{}

// Empty returns the chain of length zero.  Extracting from it always
// succeeds with Nil.
func Empty() Chain[Nil] { return emptyChain{} }

func (emptyChain) Len() int { return 0 }

func (emptyChain) Schema() Schema { return Schema{} }

func (emptyChain) Extract(ctx context.Context, md *Metadata, body []byte) (Nil, error) {
	return Nil{}, nil
}

func (emptyChain) extract(context.Context, *Metadata, []byte) (Nil, error) {
	return Nil{}, nil
}

type link[H any, T Aggregate] struct {
	head     Extractor[H]
	tail     Chain[T]
	position int
	schema   Schema
}

// Append returns a new chain one position longer than c whose last
// position runs e.  c is not modified and stays usable on its own.
//
// The new extractor becomes the Head of the result type:
//
//	c := Append(Append(Empty(), PathSegment(1)), PathSegmentUint(2, 64))
//	// c is a Chain[Cons[uint64, Cons[string, Nil]]]
//
// Extractors run in the order they were appended, so the tail of the
// chain is extracted before its head.
func Append[H any, T Aggregate](c Chain[T], e Extractor[H]) Chain[Cons[H, T]] {
	if c == nil {
		panic("extract: Append to a nil chain")
	}
	if e == nil {
		panic("extract: Append of a nil extractor")
	}
	prior := c.Schema()
	schema := make(Schema, len(prior), len(prior)+1)
	copy(schema, prior)
	schema = append(schema, typeOf[H]())
	return &link[H, T]{
		head:     e,
		tail:     c,
		position: len(prior),
		schema:   schema,
	}
}

func (l *link[H, T]) Len() int { return l.position + 1 }

func (l *link[H, T]) Schema() Schema {
	out := make(Schema, len(l.schema))
	copy(out, l.schema)
	return out
}

func (l *link[H, T]) Extract(ctx context.Context, md *Metadata, body []byte) (Cons[H, T], error) {
	return l.extract(ctx, md, body)
}

func (l *link[H, T]) extract(ctx context.Context, md *Metadata, body []byte) (Cons[H, T], error) {
	tail, err := l.tail.extract(ctx, md, body)
	if err != nil {
		return Cons[H, T]{}, err
	}
	if err := ctx.Err(); err != nil {
		return Cons[H, T]{}, newError(l.position, l.schema[l.position], err)
	}
	head, err := l.head.Extract(ctx, md, body)
	if err != nil {
		return Cons[H, T]{}, newError(l.position, l.schema[l.position], err)
	}
	return Cons[H, T]{Head: head, Tail: tail}, nil
}
