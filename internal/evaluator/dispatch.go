package evaluator

import (
	"github.com/pombredanne/elfe/internal/ast"
	"github.com/pombredanne/elfe/internal/opcode"
)

// resolveOpcode recognizes a rule body shaped Prefix("opcode", Name(opid))
// and resolves it against the registry, caching the clone in the body's
// Opcode attachment so every later match at this site skips the registry
// lookup (§4.4 Resolution).
func (ev *Evaluator) resolveOpcode(body ast.Node) (opcode.Opcode, bool) {
	prefix, ok := body.(*ast.Prefix)
	if !ok {
		return nil, false
	}
	head, ok := prefix.Left.(*ast.Name)
	if !ok || head.Value != "opcode" {
		return nil, false
	}
	opName, ok := prefix.Right.(*ast.Name)
	if !ok {
		return nil, false
	}

	if cached, ok := ast.OpcodeAttachment(body); ok {
		op, ok := cached.(opcode.Opcode)
		return op, ok
	}
	if ev.Registry == nil {
		return nil, false
	}
	found, ok := ev.Registry.Find(opName.Value)
	if !ok {
		return nil, false
	}
	installed := ast.SetOpcodeAttachment(body, found.Clone())
	op, ok := installed.(opcode.Opcode)
	return op, ok
}

// resolveTypeCheckOpcode recognizes typeExpr as a bare primitive type name
// (e.g. Name("integer")) and resolves it against the registry, caching
// the clone in the node's TypeCheckOpcode attachment (§4.5 mechanism 1).
func (ev *Evaluator) resolveTypeCheckOpcode(typeExpr ast.Node) (opcode.TypeCheckOpcode, bool) {
	name, ok := typeExpr.(*ast.Name)
	if !ok {
		return nil, false
	}

	if cached, ok := ast.TypeCheckOpcodeAttachment(typeExpr); ok {
		tco, ok := cached.(opcode.TypeCheckOpcode)
		return tco, ok
	}
	if ev.Registry == nil {
		return nil, false
	}
	found, ok := ev.Registry.Find(name.Value)
	if !ok {
		return nil, false
	}
	tco, ok := found.(opcode.TypeCheckOpcode)
	if !ok {
		return nil, false
	}
	installed := ast.SetTypeCheckOpcodeAttachment(typeExpr, tco.Clone())
	result, ok := installed.(opcode.TypeCheckOpcode)
	return result, ok
}
