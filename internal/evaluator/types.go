package evaluator

import "github.com/pombredanne/elfe/internal/ast"

// checkType implements the two mechanisms of §4.5, tried in order. It
// returns the accepted (possibly coerced) value and true on success, or
// (nil, false) if value does not have the type described by typeExpr.
// Diagnostics are the caller's responsibility: the same check backs both
// a pattern's ":" annotation (a Mismatch on failure) and an expression's
// "as" operator (a TypeFailure on failure), and those are different error
// kinds for the same underlying predicate.
func (ev *Evaluator) checkType(scope *Scope, typeExpr, value ast.Node, cache *Cache) (ast.Node, bool) {
	if _, ok := typeExpr.(*ast.Name); ok {
		if tco, ok := ev.resolveTypeCheckOpcode(typeExpr); ok {
			// Primitive TypeCheckOpcodes are plain predicates (package
			// builtin cannot call back into this package without an
			// import cycle), so they need a reduced value to inspect.
			// Forcing here once, uniformly, subsumes the spec's "value
			// type forces and checks again" special case: every
			// primitive check — including the universal value type —
			// always sees an already-reduced value.
			forced := cache.Force(value, scope, ev.Evaluate)
			return tco.Check(scope, forced)
		}
	}

	if prefix, ok := typeExpr.(*ast.Prefix); ok {
		if head, ok := prefix.Left.(*ast.Name); ok && head.Value == "type" {
			shape := prefix.Right
			if block, ok := shape.(*ast.Block); ok {
				shape = block.Child
			}
			expansionScope := scope.Push()
			var bindings BindingResult
			if !ev.bind(shape, value, scope, expansionScope, cache, &bindings) {
				return nil, false
			}
			expanded := ev.expand(shape, &bindings)
			return MakeClosure(expansionScope, expanded), true
		}
	}

	return nil, false
}

// expand implements the §4.5 "expansion" pass: rebuild shape substituting
// each name bound during the preceding pattern match with its captured
// value, unwrapped from any closure. A bare name that matched as a
// type-name constraint (bindings.typeChecked, keyed by the exact pattern
// node so that e.g. two "integer" occurrences expand independently to
// their own respective values) takes priority over an ordinary capture
// of the same spelling. Unbound names and literals pass through;
// structural nodes are only reallocated if a child actually changed.
func (ev *Evaluator) expand(shape ast.Node, bindings *BindingResult) ast.Node {
	switch n := shape.(type) {
	case *ast.Integer, *ast.Real, *ast.Text:
		return shape

	case *ast.Name:
		if v, ok := bindings.typeChecked[n]; ok {
			return v
		}
		v, ok := bindings.bound[n.Value]
		if !ok {
			return shape
		}
		if _, inner, isClosure := UnwrapClosure(v); isClosure {
			return inner
		}
		return v

	case *ast.Block:
		child := ev.expand(n.Child, bindings)
		if child == n.Child {
			return shape
		}
		return ast.NewBlock(child, n.Opening, n.Closing, n.Pos())

	case *ast.Prefix:
		left := ev.expand(n.Left, bindings)
		right := ev.expand(n.Right, bindings)
		if left == n.Left && right == n.Right {
			return shape
		}
		return ast.NewPrefix(left, right, n.Pos())

	case *ast.Postfix:
		left := ev.expand(n.Left, bindings)
		right := ev.expand(n.Right, bindings)
		if left == n.Left && right == n.Right {
			return shape
		}
		return ast.NewPostfix(left, right, n.Pos())

	case *ast.Infix:
		switch n.Op {
		case ast.OpTyped, ast.OpAs, ast.OpWhen:
			return ev.expand(n.Left, bindings)
		default:
			left := ev.expand(n.Left, bindings)
			right := ev.expand(n.Right, bindings)
			if left == n.Left && right == n.Right {
				return shape
			}
			return ast.NewInfix(n.Op, left, right, n.Pos())
		}

	default:
		return shape
	}
}
