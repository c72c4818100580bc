// Package builtin is the default, in-process opcode.Registry: the
// handful of opcodes and primitive TypeCheckOpcodes the scenarios in
// spec.md §8 exercise (Add/Sub/Mul/Div, Double, MkPair, comparisons,
// Print, and the integer/real/text/name/block/value primitive checks).
//
// It deliberately cannot import internal/evaluator (that would cycle
// back through internal/opcode); every opcode here is a self-contained
// function over ast.Node and the Frame it is handed.
package builtin

import "github.com/pombredanne/elfe/internal/opcode"

// StaticRegistry is a process-wide, read-only, initialised-once map from
// opcode name to implementation (§5 "Global mutable state" strategy:
// initialise once before any evaluator runs).
type StaticRegistry struct {
	ops map[string]opcode.Opcode
}

// NewStaticRegistry builds the default registry.
func NewStaticRegistry() *StaticRegistry {
	r := &StaticRegistry{ops: make(map[string]opcode.Opcode)}
	for _, op := range []opcode.Opcode{
		&arith{id: "Add", apply: func(a, b float64) float64 { return a + b }},
		&arith{id: "Sub", apply: func(a, b float64) float64 { return a - b }},
		&arith{id: "Mul", apply: func(a, b float64) float64 { return a * b }},
		&divide{},
		&double{},
		&mkPair{},
		&compare{id: "Lt", accept: func(c int) bool { return c < 0 }},
		&compare{id: "Gt", accept: func(c int) bool { return c > 0 }},
		&compare{id: "LtEq", accept: func(c int) bool { return c <= 0 }},
		&compare{id: "GtEq", accept: func(c int) bool { return c >= 0 }},
		&compare{id: "Eq", accept: func(c int) bool { return c == 0 }},
		&compare{id: "NotEq", accept: func(c int) bool { return c != 0 }},
		&printOp{},
		integerType{},
		realType{},
		textType{},
		nameType{},
		blockType{},
		valueType{},
	} {
		r.ops[op.OpID()] = op
	}
	return r
}

// Find implements opcode.Registry.
func (r *StaticRegistry) Find(name string) (opcode.Opcode, bool) {
	op, ok := r.ops[name]
	return op, ok
}

// Register adds or replaces an opcode by its OpID. Exposed for embedders
// (and tests) that extend the default set rather than building a Registry
// from scratch.
func (r *StaticRegistry) Register(op opcode.Opcode) {
	r.ops[op.OpID()] = op
}
