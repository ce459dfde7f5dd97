package ast

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Arena assigns stable node identities while the JSON loader
// (decode.go, used by `cmd/typecheck`) constructs a tree. The evaluator itself
// never calls into this file — per the ownership note in the data
// model, it only ever reads the NodeID/Span a node already carries.
type Arena struct {
	path string
}

// NewArena starts an id allocator scoped to one source path, so two
// fixtures built from the same path and the same node shape collide
// deterministically instead of silently aliasing by accident.
func NewArena(path string) *Arena {
	return &Arena{path: path}
}

// NewID derives a stable node id from (path, span, kind), so rebuilding
// an identical fixture twice yields identical ids.
func (a *Arena) NewID(span Span, kind string) uint64 {
	input := fmt.Sprintf("%s|%d|%d|%d|%d|%s", a.path, span.Start.Line, span.Start.Column, span.End.Line, span.End.Column, kind)
	sum := sha256.Sum256([]byte(input))
	return binary.BigEndian.Uint64(sum[:8])
}

// Base builds the embeddable base value for a new node of the given
// kind at the given span, usable as `base: arena.Base(span, "Call")`
// when constructing node literals.
func (a *Arena) Base(span Span, kind string) base {
	return base{NodeID: a.NewID(span, kind), Span: span}
}
