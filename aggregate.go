package extract

import (
	"fmt"
	"strings"
)

// Aggregate is implemented by the result types of a Chain: Nil
// and Cons.  The shape of an aggregate mirrors the shape of the
// chain that produced it.
type Aggregate interface {
	// Len is the number of extracted values.
	Len() int

	// Values returns the extracted values in construction order:
	// the value of the first extractor appended to the chain comes
	// first.
	Values() []any
}

// Nil is the empty aggregate.  It is the result of extracting from
// the empty chain.
type Nil struct{}

// Cons is an aggregate one element longer than Tail.  Head holds the
// value produced by the most recently appended extractor, so for
//
//	c := Append(Append(Empty(), first), second)
//
// the result type is Cons[Second, Cons[First, Nil]] and the first
// extractor's value is found at r.Tail.Head.
type Cons[H any, T Aggregate] struct {
	Head H
	Tail T
}

var _ Aggregate = Nil{}
var _ Aggregate = Cons[int, Nil]{}

func (Nil) Len() int { return 0 }

func (Nil) Values() []any { return []any{} }

func (Nil) String() string { return "[]" }

func (c Cons[H, T]) Len() int { return 1 + c.Tail.Len() }

func (c Cons[H, T]) Values() []any {
	return append(c.Tail.Values(), c.Head)
}

func (c Cons[H, T]) String() string {
	values := c.Values()
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
