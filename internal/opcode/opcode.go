// Package opcode declares the boundary between the evaluator and the
// built-in implementations it dispatches to. It depends only on ast, so
// that both the evaluator (which consumes a Registry) and independent
// registry implementations (in-process, or remote over gRPC) can sit on
// either side without an import cycle.
package opcode

import "github.com/pombredanne/elfe/internal/ast"

// Frame is handed to an Opcode's Run method: the ordered, already-bound
// arguments, the rule body tree the opcode was resolved from (useful for
// position info in diagnostics), and the scope the rule matched in. The
// opcode writes its answer into Result.
//
// This is a deliberately idiomatic stand-in for the calling convention
// described in spec.md §4.4 (reverse the argument list, append the body
// and a scope handle, hand the callee a slice starting at the first real
// argument): that description is an artifact of the original C++
// implementation's single-stack calling convention, not a semantic
// requirement — the observable contract (ordered args in, one result
// out, access to the body and scope) is what Run actually needs.
type Frame struct {
	Args   []ast.Node
	Body   ast.Node
	Scope  any
	Result ast.Node
}

// Opcode is a named built-in callable, resolved once per call site and
// cached on the body node (§4.4).
type Opcode interface {
	OpID() string
	Run(f *Frame)
	Clone() Opcode
}

// TypeCheckOpcode additionally implements the primitive half of the type
// checker (§4.5 mechanism 1). Check returns the (possibly coerced) value
// and true on a match, or (nil, false) when value does not have the type.
type TypeCheckOpcode interface {
	Opcode
	Check(scope any, value ast.Node) (ast.Node, bool)
}

// Registry resolves opcode names to implementations. The evaluator never
// assumes anything about how a Registry is populated or where it lives.
type Registry interface {
	Find(name string) (Opcode, bool)
}
