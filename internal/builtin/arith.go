package builtin

import (
	"github.com/pombredanne/elfe/internal/ast"
	"github.com/pombredanne/elfe/internal/opcode"
)

// numeric extracts a float64 view of an Integer or Real literal, and
// reports whether the original was an Integer (so results can preserve
// integer-ness when both operands are integers).
func numeric(n ast.Node) (value float64, isInt bool, ok bool) {
	switch v := n.(type) {
	case *ast.Integer:
		return float64(v.Value), true, true
	case *ast.Real:
		return v.Value, false, true
	default:
		return 0, false, false
	}
}

func numericResult(value float64, bothInt bool, pos ast.Pos) ast.Node {
	if bothInt {
		return ast.NewInteger(int64(value), pos)
	}
	return ast.NewReal(value, pos)
}

// arith backs Add/Sub/Mul: two numeric operands, integer-preserving.
type arith struct {
	id    string
	apply func(a, b float64) float64
}

func (a *arith) OpID() string      { return a.id }
func (a *arith) Clone() opcode.Opcode { c := *a; return &c }

func (a *arith) Run(f *opcode.Frame) {
	if len(f.Args) != 2 {
		f.Result = ast.NewEvaluationError(a.id + ": expected 2 arguments")
		return
	}
	x, xInt, ok1 := numeric(f.Args[0])
	y, yInt, ok2 := numeric(f.Args[1])
	if !ok1 || !ok2 {
		f.Result = ast.NewEvaluationError(a.id + ": non-numeric operand")
		return
	}
	f.Result = numericResult(a.apply(x, y), xInt && yInt, f.Body.Pos())
}

// divide backs Div separately: division by zero is a distinguished
// failure rather than a silent Inf/NaN.
type divide struct{}

func (divide) OpID() string         { return "Div" }
func (divide) Clone() opcode.Opcode { return divide{} }

func (divide) Run(f *opcode.Frame) {
	if len(f.Args) != 2 {
		f.Result = ast.NewEvaluationError("Div: expected 2 arguments")
		return
	}
	x, xInt, ok1 := numeric(f.Args[0])
	y, yInt, ok2 := numeric(f.Args[1])
	if !ok1 || !ok2 {
		f.Result = ast.NewEvaluationError("Div: non-numeric operand")
		return
	}
	if y == 0 {
		f.Result = ast.NewEvaluationError("Div: division by zero")
		return
	}
	f.Result = numericResult(x/y, xInt && yInt, f.Body.Pos())
}

// double backs the non-linear-pattern scenario's "2 * X -> opcode Double".
type double struct{}

func (double) OpID() string         { return "Double" }
func (double) Clone() opcode.Opcode { return double{} }

func (double) Run(f *opcode.Frame) {
	if len(f.Args) != 1 {
		f.Result = ast.NewEvaluationError("Double: expected 1 argument")
		return
	}
	x, xInt, ok := numeric(f.Args[0])
	if !ok {
		f.Result = ast.NewEvaluationError("Double: non-numeric operand")
		return
	}
	f.Result = numericResult(x*2, xInt, f.Body.Pos())
}

// compare backs Lt/Gt/LtEq/GtEq/Eq/NotEq, returning a canonical boolean.
type compare struct {
	id     string
	accept func(cmp int) bool
}

func (c *compare) OpID() string         { return c.id }
func (c *compare) Clone() opcode.Opcode { d := *c; return &d }

func (c *compare) Run(f *opcode.Frame) {
	if len(f.Args) != 2 {
		f.Result = ast.NewEvaluationError(c.id + ": expected 2 arguments")
		return
	}
	x, _, ok1 := numeric(f.Args[0])
	y, _, ok2 := numeric(f.Args[1])
	if !ok1 || !ok2 {
		f.Result = ast.NewEvaluationError(c.id + ": non-numeric operand")
		return
	}
	cmp := 0
	switch {
	case x < y:
		cmp = -1
	case x > y:
		cmp = 1
	}
	if c.accept(cmp) {
		f.Result = ast.True
	} else {
		f.Result = ast.False
	}
}

// mkPair backs "pair X Y -> opcode MkPair", reconstructing the same
// Prefix(Prefix(Name("pair"), X), Y) shape the type-shape expander would
// build from a matching `type (pair ...)` annotation, so a bare `pair 1 2`
// reduces to the same representation whether or not it is type-checked.
type mkPair struct{}

func (mkPair) OpID() string         { return "MkPair" }
func (mkPair) Clone() opcode.Opcode { return mkPair{} }

func (mkPair) Run(f *opcode.Frame) {
	if len(f.Args) != 2 {
		f.Result = ast.NewEvaluationError("MkPair: expected 2 arguments")
		return
	}
	pos := f.Body.Pos()
	head := ast.NewPrefix(ast.NewName("pair", pos), f.Args[0], pos)
	f.Result = ast.NewPrefix(head, f.Args[1], pos)
}
