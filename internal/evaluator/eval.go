package evaluator

import (
	"fmt"

	"github.com/petermattis/goid"

	"github.com/pombredanne/elfe/internal/ast"
	"github.com/pombredanne/elfe/internal/diag"
	"github.com/pombredanne/elfe/internal/opcode"
	"github.com/pombredanne/elfe/internal/safepoint"
)

// DefaultDepthLimit bounds recursive rule application when no host
// configuration overrides it.
const DefaultDepthLimit = 10000

// Evaluator holds everything the instruction loop needs across one
// evaluator lifetime: the opcode registry, the diagnostic sink, the
// safe-point hook, the depth bound, and the per-evaluator recursion state
// (§4.3, §9 "thread the error state through the evaluator's per-call
// record rather than as a global").
//
// An Evaluator is single-threaded (§5): it records the goroutine that
// created it and panics if entered from any other goroutine. An embedder
// that wants concurrency calls Fork to get an independent Evaluator per
// thread, sharing only the read-only opcode registry.
type Evaluator struct {
	Registry   opcode.Registry
	Sink       diag.Sink
	SafePoint  safepoint.Hook
	DepthLimit int

	depth   int
	fatal   ast.Node
	owner   int64
	testing map[testAttempt]bool
}

// testAttempt identifies one in-flight "try rule against expr" match
// attempt, keyed by the pointer identity of both: the same rule tried
// against a different expr (e.g. the same Add rule matching "X+X" once X
// has been forced to a literal, nested inside matching some unrelated
// outer expression against Add) is a different attempt and must not be
// blocked by it.
type testAttempt struct {
	rule *Rule
	expr ast.Node
}

// New builds an Evaluator. A nil sink/hook gets a sensible default; a
// non-positive depthLimit gets DefaultDepthLimit.
func New(registry opcode.Registry, sink diag.Sink, hook safepoint.Hook, depthLimit int) *Evaluator {
	if sink == nil {
		sink = diag.NewMemory()
	}
	if hook == nil {
		hook = safepoint.NoOp{}
	}
	if depthLimit <= 0 {
		depthLimit = DefaultDepthLimit
	}
	return &Evaluator{
		Registry:   registry,
		Sink:       sink,
		SafePoint:  hook,
		DepthLimit: depthLimit,
		owner:      goid.Get(),
	}
}

// Fork returns an independent Evaluator for use on another goroutine,
// sharing the (read-only, process-wide) opcode registry and safe-point
// hook but owning its own sink and recursion state.
func (ev *Evaluator) Fork() *Evaluator {
	return New(ev.Registry, diag.NewMemory(), ev.SafePoint, ev.DepthLimit)
}

func (ev *Evaluator) checkOwner() {
	if g := goid.Get(); g != ev.owner {
		panic(fmt.Sprintf("evaluator: used from goroutine %d but owned by goroutine %d — each embedder thread must Fork its own Evaluator", g, ev.owner))
	}
}

// Evaluate is the main entry point (§6 "evaluate(scope, tree) -> tree"):
// it preprocesses declarations from tree into scope, runs the trampolined
// instruction loop, and — only for the outermost call in a (possibly
// recursive) chain of Evaluate calls — resets the error sink / fatal
// sentinel on entry and invokes the safe-point hook on return.
func (ev *Evaluator) Evaluate(scope *Scope, tree ast.Node) ast.Node {
	ev.checkOwner()
	topLevel := ev.depth == 0
	if topLevel {
		ev.Sink.Clear()
		ev.fatal = nil
	}

	ev.depth++
	defer func() { ev.depth-- }()

	if ev.depth > ev.DepthLimit {
		sentinel := ast.NewEvaluationError("maximum evaluation depth exceeded")
		ev.fatal = sentinel
		ev.Sink.Report(diag.Record{Kind: diag.DepthExceeded, Template: "maximum evaluation depth exceeded", Pos: tree.Pos()})
		if topLevel {
			ev.SafePoint.AfterTopLevel(ev)
		}
		return sentinel
	}
	if ev.fatal != nil {
		return ev.fatal
	}

	remainder, hasInstructions := PreprocessDeclarations(scope, tree)
	// A tree that was declarations all the way down is its own fixed
	// point, there being nothing left to run.
	result := tree
	if hasInstructions {
		result = ev.runLoop(scope, remainder)
	}
	if topLevel {
		ev.SafePoint.AfterTopLevel(ev)
	}
	return result
}

// enclose implements §4.3's "Result enclosure": if the scope in force at
// return time differs from the scope in force when runLoop was entered,
// the result is wrapped in a closure capturing the current scope, so that
// an inner scope can survive past its syntactic lifetime.
func (ev *Evaluator) enclose(entryScope, currentScope *Scope, result ast.Node) ast.Node {
	if currentScope != entryScope {
		return MakeClosure(currentScope, result)
	}
	return result
}

// runLoop is the trampolined instruction loop of §4.3. It never recurses
// through the Go call stack for sequences, blocks, "."-scoped references,
// or lambda application — each of those mutates (scope, what) and loops.
// Genuine rule application (a rule's body containing a call back into the
// evaluator) does recurse, which is exactly what the depth bound in
// Evaluate is there to catch.
func (ev *Evaluator) runLoop(scope *Scope, what ast.Node) ast.Node {
	entryScope := scope
	var result ast.Node = ast.Self

	for {
		if ev.fatal != nil {
			return ev.fatal
		}

		if matched, ok := ev.matchRule(scope, what); ok {
			if capturedScope, inner, isClosure := UnwrapClosure(matched); isClosure {
				if capturedScope != scope {
					scope = capturedScope
					what = inner
					continue
				}
				return ev.enclose(entryScope, scope, inner)
			}
			return ev.enclose(entryScope, scope, matched)
		}

		switch n := what.(type) {
		case *ast.Integer, *ast.Real, *ast.Text:
			return ev.enclose(entryScope, scope, what)

		case *ast.Name:
			// matchRule already tried every reachable rule above, including
			// one whose own pattern is this same bare name (Scope.Lookup's
			// exception for a Name pattern against an identically-spelled
			// Name expr) — an opcode-bodied or value-bodied binding for n
			// would have matched there. Reaching here means no binding
			// exists at all.
			ev.Sink.Report(diag.Record{Kind: diag.UndefinedLookup, Template: "no matching name", Pos: n.Pos(), Args: []ast.Node{n}})
			return ev.enclose(entryScope, scope, what)

		case *ast.Block:
			child := scope.Push()
			remainder, hasInstructions := PreprocessDeclarations(child, n.Child)
			if !hasInstructions {
				return ev.enclose(entryScope, child, n)
			}
			if len(child.Rules()) == 0 {
				// no declarations landed in child: no need to keep it.
				what = remainder
				continue
			}
			scope = child
			what = remainder
			continue

		case *ast.Prefix:
			if capturedScope, inner, isClosure := UnwrapClosure(n); isClosure {
				scope = capturedScope
				what = inner
				continue
			}
			if head, ok := n.Left.(*ast.Name); ok && isDeclarativeHead(head.Value) {
				return ev.enclose(entryScope, scope, what)
			}
			head := n.Left
			if block, ok := head.(*ast.Block); ok {
				// a lambda literal is normally parenthesised: (X -> X + 1) 41
				head = block.Child
			}
			if lambda, ok := head.(*ast.Infix); ok && lambda.Op == ast.OpArrow {
				child := scope.Push()
				var br BindingResult
				if ev.bind(lambda.Left, n.Right, scope, child, NewCache(), &br) {
					scope = child
					what = lambda.Right
					continue
				}
				ev.Sink.Report(diag.Record{Kind: diag.UndefinedLookup, Template: "no prefix matches", Pos: n.Pos(), Args: []ast.Node{n}})
				return ev.enclose(entryScope, scope, what)
			}
			leftScope := scope.Push()
			newLeft := ev.Evaluate(leftScope, n.Left)
			if !ast.Equal(newLeft, n.Left) {
				newRight := ev.Evaluate(scope, n.Right)
				what = ast.NewPrefix(newLeft, newRight, n.Pos())
				continue
			}
			ev.Sink.Report(diag.Record{Kind: diag.UndefinedLookup, Template: "no prefix matches", Pos: n.Pos(), Args: []ast.Node{n}})
			return ev.enclose(entryScope, scope, what)

		case *ast.Postfix:
			ev.Sink.Report(diag.Record{Kind: diag.UndefinedLookup, Template: "no postfix matches", Pos: n.Pos(), Args: []ast.Node{n}})
			return ev.enclose(entryScope, scope, what)

		case *ast.Infix:
			switch {
			case ast.IsSequence(n.Op):
				left := ev.Evaluate(scope, n.Left)
				result = left
				what = n.Right
				continue

			case n.Op == ast.OpArrow:
				return ev.enclose(entryScope, scope, result)

			case n.Op == ast.OpAs:
				if checked, ok := ev.checkType(scope, n.Right, n.Left, NewCache()); ok {
					return ev.enclose(entryScope, scope, checked)
				}
				ev.Sink.Report(diag.Record{Kind: diag.TypeFailure, Template: "value does not match type", Pos: n.Pos(), Args: []ast.Node{n.Left, n.Right}})
				return ev.enclose(entryScope, scope, n.Left)

			case n.Op == ast.OpScope:
				left := ev.Evaluate(scope, n.Left)
				if capturedScope, _, isClosure := UnwrapClosure(left); isClosure {
					scope = capturedScope
					what = n.Right
					continue
				}
				ev.Sink.Report(diag.Record{Kind: diag.UndefinedLookup, Template: "left of . is not a scope", Pos: n.Pos(), Args: []ast.Node{n.Left}})
				return ev.enclose(entryScope, scope, what)

			default:
				ev.Sink.Report(diag.Record{Kind: diag.UndefinedLookup, Template: "no infix matches", Pos: n.Pos(), Args: []ast.Node{n}})
				return ev.enclose(entryScope, scope, what)
			}

		default:
			return ev.enclose(entryScope, scope, what)
		}
	}
}

func isDeclarativeHead(name string) bool {
	return name == "type" || name == "extern" || name == "data"
}

// matchRule asks the scope chain for a rule matching what, returning the
// rule's result (already evaluated — recursively, through the Go call
// stack, which is where the depth bound bites) and whether any rule
// matched at all.
func (ev *Evaluator) matchRule(scope *Scope, what ast.Node) (ast.Node, bool) {
	if ev.fatal != nil {
		return ev.fatal, true
	}
	cache := NewCache()
	return scope.Lookup(what, func(evalScope, declScope *Scope, expr ast.Node, rule *Rule) (ast.Node, bool) {
		if ev.fatal != nil {
			return ev.fatal, true
		}
		if rule.memo && rule.hasForced {
			return rule.forced, true
		}
		// A pattern can only turn out "not directly an infix/prefix yet"
		// by forcing its test through a full nested Evaluate (the §4.1
		// "not directly an infix: force-evaluate it once and retry" rule),
		// and that nested Evaluate tries every reachable rule again from
		// scratch. Without this guard, a rule already being matched
		// further up the very same forcing chain would be retried against
		// the identical, still-unresolved (rule, expr) pair forever — this
		// marks that pair off-limits for the duration of its own bind
		// attempt, so Lookup falls through to whichever other rule
		// actually resolves the test. Keyed on expr too, not just rule:
		// the same rule legitimately matching a different expression
		// nested inside this attempt (e.g. Add matching "X+X" once X
		// forces to a literal, while some unrelated outer expression is
		// still being tried against Add) must not be blocked by it.
		attempt := testAttempt{rule, expr}
		if ev.testing[attempt] {
			return nil, false
		}
		if ev.testing == nil {
			ev.testing = make(map[testAttempt]bool)
		}
		ev.testing[attempt] = true
		local := declScope.Push()
		var bindings BindingResult
		var matched bool
		if _, isBareName := rule.Pattern.(*ast.Name); isBareName {
			// Scope.Lookup only ever calls us for a bare-Name pattern when
			// expr is itself a Name with the identical spelling: the whole
			// pattern IS the dispatch key (a constant or opcode-bodied
			// declaration looked up by name), not a parameter to capture.
			// Running it through bind would capture expr itself as a
			// spurious "argument" -- for a rule that resolves to an opcode
			// body this is worse than useless, since force() (in applyRule)
			// would then have to re-evaluate that same lookup to produce
			// the argument, recursing forever before the opcode ever runs.
			matched = true
		} else {
			matched = ev.bind(rule.Pattern, expr, evalScope, local, cache, &bindings)
		}
		delete(ev.testing, attempt)
		if !matched {
			return nil, false
		}
		// A rule matched: trial-match diagnostics accumulated while
		// trying this and any earlier rule were never real errors.
		ev.Sink.Clear()

		result := ev.applyRule(local, rule, expr, bindings)
		if rule.memo {
			rule.hasForced = true
			rule.forced = result
		}
		return result, true
	})
}

// applyRule produces a matched rule's result: the input unchanged for the
// self sentinel, an opcode's Frame.Result for an opcode body, or the
// evaluated body otherwise.
func (ev *Evaluator) applyRule(local *Scope, rule *Rule, expr ast.Node, bindings BindingResult) ast.Node {
	if ast.IsSelf(rule.Body) {
		return expr
	}
	if op, ok := ev.resolveOpcode(rule.Body); ok {
		args := make([]ast.Node, len(bindings.Values))
		for i, v := range bindings.Values {
			args[i] = ev.force(v)
		}
		frame := &opcode.Frame{Args: args, Body: rule.Body, Scope: local}
		op.Run(frame)
		return frame.Result
	}
	return ev.Evaluate(local, rule.Body)
}

// force resolves a pattern-bound value to something an opcode (package
// builtin, which cannot call back into this package) can actually
// inspect. An untyped bare-Name binding is captured lazily as a closure
// (§4.1 "bind the name... wrapped in a closure" — call-by-need, no forced
// evaluation at bind time); a ":"-typed binding is already a forced,
// literal value by the time it reaches here (checkType forces it). An
// opcode only ever sees concrete ast.Node arguments, never a closure.
func (ev *Evaluator) force(v ast.Node) ast.Node {
	if capturedScope, inner, ok := UnwrapClosure(v); ok {
		return ev.Evaluate(capturedScope, inner)
	}
	return v
}
