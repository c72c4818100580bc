package evaluator

import "github.com/pombredanne/elfe/internal/ast"

// MakeClosure encloses value with the scope it should be evaluated in,
// encoded as the distinguished Prefix(ScopeSentinel, value) shape (§3
// Closure representation). It is a no-op for literals and for a value
// that is already a closure over the very same scope — re-enclosing
// either would be observationally pointless and would defeat the
// "closure unwrapping is transparent" property (§8).
func MakeClosure(scope *Scope, value ast.Node) ast.Node {
	if ast.IsLiteral(value) {
		return value
	}
	if existingScope, inner, ok := UnwrapClosure(value); ok && existingScope == scope {
		_ = inner
		return value
	}
	return ast.NewPrefix(ast.NewScopeSentinel(scope), value, value.Pos())
}

// UnwrapClosure reports whether n is closure-encoded, returning the
// captured scope and the enclosed value.
func UnwrapClosure(n ast.Node) (*Scope, ast.Node, bool) {
	prefix, ok := n.(*ast.Prefix)
	if !ok {
		return nil, nil, false
	}
	sentinel, ok := prefix.Left.(*ast.ScopeSentinel)
	if !ok {
		return nil, nil, false
	}
	scope, _ := sentinel.Scope.(*Scope)
	return scope, prefix.Right, true
}

// Deref strips any closure wrapping from n, repeatedly, exposing the
// enclosed tree for display or host inspection. §6 notes evaluate()
// "returns the reduced tree (possibly wrapped in a closure)": the
// captured scope only matters to further evaluation (a pattern binder
// forcing the value, or the trampoline resuming inside it), never to
// the value's own shape, so a caller that only wants to look at or print
// a result should Deref it first — ast.String itself renders a
// ScopeSentinel opaquely (`<scope>`) rather than guessing at intent.
func Deref(n ast.Node) ast.Node {
	for {
		_, inner, ok := UnwrapClosure(n)
		if !ok {
			return n
		}
		n = inner
	}
}
