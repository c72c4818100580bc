package evaluator

import (
	"github.com/pombredanne/elfe/internal/ast"
	"github.com/pombredanne/elfe/internal/diag"
)

// BindingResult accumulates what one pattern-match attempt produces: the
// bound values in the order their names were first encountered (used for
// positional opcode argument passing, §4.4) and any declared result type
// from an "as" annotation.
//
// bound tracks the same name bindings keyed by name, scoped to exactly
// this match attempt — deliberately not Scope.Bound, which would also see
// unrelated bindings from enclosing scopes and break the non-linear-
// pattern check and type-shape expansion (both of which care only about
// names this match itself introduced).
type BindingResult struct {
	Values     []ast.Node
	ResultType ast.Node
	bound      map[string]ast.Node

	// typeChecked records the forced value seen at a bare type-name
	// pattern position (e.g. "integer" inside a type shape such as
	// `pair integer integer`), keyed by the pattern *ast.Name node itself
	// rather than by its string value. A reserved type name is a
	// predicate, not a capture: the same name can legitimately appear
	// more than once in one shape, each time constraining an unrelated
	// value, so it must never feed the non-linear-pattern equality check
	// that `bound` exists for. Keying by node identity instead of string
	// lets expand substitute the right value back at each position.
	typeChecked map[*ast.Name]ast.Node
}

func (br *BindingResult) bindName(name string, value ast.Node) {
	if br.bound == nil {
		br.bound = make(map[string]ast.Node)
	}
	br.bound[name] = value
	br.Values = append(br.Values, value)
}

func (br *BindingResult) bindTypeChecked(pattern *ast.Name, value ast.Node) {
	if br.typeChecked == nil {
		br.typeChecked = make(map[*ast.Name]ast.Node)
	}
	br.typeChecked[pattern] = value
}

// bind is the pattern binder of §4.1: it walks pattern against test,
// recording bindings into local (so the rule body can later resolve bare
// names) and into out.bound (so this match's own non-linearity checks and
// any enclosing type-shape expansion can see exactly what it captured).
// evalScope is the scope in which unbound argument sub-expressions are
// (lazily) captured; cache is this match attempt's evaluation cache.
func (ev *Evaluator) bind(pattern, test ast.Node, evalScope, local *Scope, cache *Cache, out *BindingResult) bool {
	switch p := pattern.(type) {
	case *ast.Integer, *ast.Real, *ast.Text:
		reduced := cache.Force(test, evalScope, ev.Evaluate)
		if !ast.Equal(p, reduced) {
			ev.Sink.Report(diag.Record{Kind: diag.Mismatch, Template: "literal pattern does not match", Pos: p.Pos(), Args: []ast.Node{p, reduced}})
			return false
		}
		return true

	case *ast.Name:
		if existing, ok := out.bound[p.Value]; ok {
			existingVal := cache.Force(existing, evalScope, ev.Evaluate)
			testVal := cache.Force(test, evalScope, ev.Evaluate)
			if !ast.Equal(existingVal, testVal) {
				ev.Sink.Report(diag.Record{Kind: diag.Mismatch, Template: "non-linear pattern variable bound to conflicting values", Pos: p.Pos(), Args: []ast.Node{p, existingVal, testVal}})
				return false
			}
			return true
		}
		// A bare name that resolves to a registered primitive type (e.g.
		// "integer" inside a type shape) is a type constraint, not a
		// capture: it never occupies a pattern variable slot, and two
		// occurrences of the same type name are independent checks, not
		// a non-linear equality requirement between them.
		if tco, ok := ev.resolveTypeCheckOpcode(p); ok {
			forced := cache.Force(test, evalScope, ev.Evaluate)
			checked, ok := tco.Check(evalScope, forced)
			if !ok {
				ev.Sink.Report(diag.Record{Kind: diag.Mismatch, Template: "value does not match type name in pattern", Pos: p.Pos(), Args: []ast.Node{p, forced}})
				return false
			}
			out.bindTypeChecked(p, checked)
			return true
		}
		bound := MakeClosure(evalScope, test)
		out.bindName(p.Value, bound)
		local.DefineMemo(p, bound)
		return true

	case *ast.Block:
		if tb, ok := test.(*ast.Block); ok && tb.Opening == p.Opening && tb.Closing == p.Closing {
			return ev.bind(p.Child, tb.Child, evalScope, local, cache, out)
		}
		return ev.bind(p.Child, test, evalScope, local, cache, out)

	case *ast.Prefix:
		tp, ok := test.(*ast.Prefix)
		if !ok {
			ev.Sink.Report(diag.Record{Kind: diag.Mismatch, Template: "prefix pattern does not match", Pos: p.Pos(), Args: []ast.Node{p, test}})
			return false
		}
		if headName, ok := p.Left.(*ast.Name); ok {
			testHead, ok := tp.Left.(*ast.Name)
			if !ok || testHead.Value != headName.Value {
				ev.Sink.Report(diag.Record{Kind: diag.Mismatch, Template: "prefix head name does not match", Pos: p.Pos(), Args: []ast.Node{p, test}})
				return false
			}
			return ev.bind(p.Right, tp.Right, evalScope, local, cache, out)
		}
		if !ev.bind(p.Left, tp.Left, evalScope, local, cache, out) {
			return false
		}
		return ev.bind(p.Right, tp.Right, evalScope, local, cache, out)

	case *ast.Postfix:
		tp, ok := test.(*ast.Postfix)
		if !ok {
			ev.Sink.Report(diag.Record{Kind: diag.Mismatch, Template: "postfix pattern does not match", Pos: p.Pos(), Args: []ast.Node{p, test}})
			return false
		}
		if tailName, ok := p.Right.(*ast.Name); ok {
			testTail, ok := tp.Right.(*ast.Name)
			if !ok || testTail.Value != tailName.Value {
				ev.Sink.Report(diag.Record{Kind: diag.Mismatch, Template: "postfix tail name does not match", Pos: p.Pos(), Args: []ast.Node{p, test}})
				return false
			}
			return ev.bind(p.Left, tp.Left, evalScope, local, cache, out)
		}
		if !ev.bind(p.Left, tp.Left, evalScope, local, cache, out) {
			return false
		}
		return ev.bind(p.Right, tp.Right, evalScope, local, cache, out)

	case *ast.Infix:
		switch p.Op {
		case ast.OpTyped:
			name, ok := p.Left.(*ast.Name)
			if !ok {
				ev.Sink.Report(diag.Record{Kind: diag.InvalidDeclaration, Template: "typed pattern left side must be a name", Pos: p.Pos(), Args: []ast.Node{p.Left}})
				return false
			}
			checked, ok := ev.checkType(evalScope, p.Right, test, cache)
			if !ok {
				ev.Sink.Report(diag.Record{Kind: diag.Mismatch, Template: "value does not match declared type", Pos: p.Pos(), Args: []ast.Node{test, p.Right}})
				return false
			}
			bound := MakeClosure(evalScope, checked)
			out.bindName(name.Value, bound)
			local.DefineMemo(name, bound)
			return true

		case ast.OpAs:
			if out.ResultType != nil {
				ev.Sink.Report(diag.Record{Kind: diag.InvalidDeclaration, Template: "duplicate result type annotation", Pos: p.Pos(), Args: []ast.Node{p.Right}})
				return false
			}
			out.ResultType = p.Right
			return ev.bind(p.Left, test, evalScope, local, cache, out)

		case ast.OpWhen:
			if !ev.bind(p.Left, test, evalScope, local, cache, out) {
				return false
			}
			guard := ev.Evaluate(local, p.Right)
			if ast.IsTrue(guard) {
				return true
			}
			if ast.IsFalse(guard) {
				ev.Sink.Report(diag.Record{Kind: diag.Mismatch, Template: "guard evaluated to false", Pos: p.Pos(), Args: []ast.Node{p.Right}})
				return false
			}
			ev.Sink.Report(diag.Record{Kind: diag.GuardFailure, Template: "guard did not evaluate to a boolean", Pos: p.Pos(), Args: []ast.Node{guard}})
			return false

		default:
			ti, ok := test.(*ast.Infix)
			if !ok {
				forced := cache.Force(test, evalScope, ev.Evaluate)
				ti, ok = forced.(*ast.Infix)
				if !ok {
					ev.Sink.Report(diag.Record{Kind: diag.Mismatch, Template: "infix pattern does not match", Pos: p.Pos(), Args: []ast.Node{p, test}})
					return false
				}
			}
			if ti.Op != p.Op {
				ev.Sink.Report(diag.Record{Kind: diag.Mismatch, Template: "infix operator does not match", Pos: p.Pos(), Args: []ast.Node{p, ti}})
				return false
			}
			if !ev.bind(p.Left, ti.Left, evalScope, local, cache, out) {
				return false
			}
			return ev.bind(p.Right, ti.Right, evalScope, local, cache, out)
		}

	default:
		ev.Sink.Report(diag.Record{Kind: diag.Mismatch, Template: "unrecognized pattern shape", Pos: pattern.Pos(), Args: []ast.Node{pattern}})
		return false
	}
}
