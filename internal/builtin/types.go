package builtin

import (
	"github.com/pombredanne/elfe/internal/ast"
	"github.com/pombredanne/elfe/internal/opcode"
)

// The primitive TypeCheckOpcodes below back a bare primitive type name
// used in a ":" pattern annotation or an "as" expression (§4.5 mechanism
// 1). Each is stateless, so Clone just returns the same zero-size value;
// Run treats the opcode as a one-argument predicate so `opcode integer`
// would be a sensible (if unusual) rule body too.

func runAsPredicate(check func(any, ast.Node) (ast.Node, bool)) func(f *opcode.Frame) {
	return func(f *opcode.Frame) {
		if len(f.Args) != 1 {
			f.Result = ast.NewEvaluationError("type check: expected 1 argument")
			return
		}
		if _, ok := check(f.Scope, f.Args[0]); ok {
			f.Result = ast.True
		} else {
			f.Result = ast.False
		}
	}
}

type integerType struct{}

func (integerType) OpID() string         { return "integer" }
func (integerType) Clone() opcode.Opcode { return integerType{} }
func (t integerType) Run(f *opcode.Frame) { runAsPredicate(t.Check)(f) }
func (integerType) Check(scope any, value ast.Node) (ast.Node, bool) {
	if _, ok := value.(*ast.Integer); ok {
		return value, true
	}
	return nil, false
}

type realType struct{}

func (realType) OpID() string         { return "real" }
func (realType) Clone() opcode.Opcode { return realType{} }
func (t realType) Run(f *opcode.Frame) { runAsPredicate(t.Check)(f) }
func (realType) Check(scope any, value ast.Node) (ast.Node, bool) {
	switch v := value.(type) {
	case *ast.Real:
		return value, true
	case *ast.Integer:
		// integer-to-real coercion, the one direction §4.5 calls out
		// explicitly ("a real value coerced from an integer").
		return ast.NewReal(float64(v.Value), v.Pos()), true
	default:
		return nil, false
	}
}

type textType struct{}

func (textType) OpID() string         { return "text" }
func (textType) Clone() opcode.Opcode { return textType{} }
func (t textType) Run(f *opcode.Frame) { runAsPredicate(t.Check)(f) }
func (textType) Check(scope any, value ast.Node) (ast.Node, bool) {
	if _, ok := value.(*ast.Text); ok {
		return value, true
	}
	return nil, false
}

type nameType struct{}

func (nameType) OpID() string         { return "name" }
func (nameType) Clone() opcode.Opcode { return nameType{} }
func (t nameType) Run(f *opcode.Frame) { runAsPredicate(t.Check)(f) }
func (nameType) Check(scope any, value ast.Node) (ast.Node, bool) {
	if _, ok := value.(*ast.Name); ok {
		return value, true
	}
	return nil, false
}

type blockType struct{}

func (blockType) OpID() string         { return "block" }
func (blockType) Clone() opcode.Opcode { return blockType{} }
func (t blockType) Run(f *opcode.Frame) { runAsPredicate(t.Check)(f) }
func (blockType) Check(scope any, value ast.Node) (ast.Node, bool) {
	if _, ok := value.(*ast.Block); ok {
		return value, true
	}
	return nil, false
}

// valueType is the universal type: by the time Check runs, the core has
// already force-evaluated its argument (see evaluator.checkType), so it
// accepts anything.
type valueType struct{}

func (valueType) OpID() string         { return "value" }
func (valueType) Clone() opcode.Opcode { return valueType{} }
func (t valueType) Run(f *opcode.Frame) { runAsPredicate(t.Check)(f) }
func (valueType) Check(scope any, value ast.Node) (ast.Node, bool) {
	return value, true
}
