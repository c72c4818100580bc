// Package evaluator implements the core of elfe: the pattern binder, the
// recursive rewrite loop, closure capture across scopes, opcode dispatch,
// and the type checker (spec.md §4). It is the only package that
// understands how the eight ast.Node variants rewrite into one another.
package evaluator

import (
	"github.com/google/uuid"

	"github.com/pombredanne/elfe/internal/ast"
)

// Rule is an Infix("->", pattern, body) installed in a scope. Pattern and
// Body are owned by the declaring scope (spec invariant 6); nothing ever
// mutates them after Define returns.
//
// memo marks a rule created by the pattern binder to hold one argument
// binding (DefineMemo): such a rule is private to the one match that
// created it and is never reused across different call sites, so caching
// its first forced value is exactly the "argument evaluated at most
// once" guarantee of §8's `twice X -> X + X` / `counter` scenario — a
// user-declared rule (installed via Define) is matched against a fresh
// expr on every lookup and must never be cached this way.
type Rule struct {
	Pattern ast.Node
	Body    ast.Node

	memo      bool
	hasForced bool
	forced    ast.Node
}

// Scope is an ordered rule table plus a parent link (spec.md §3). Once
// set, Parent never changes (invariant 3). Scopes are shared: several
// Contexts may reference the same Scope node. A Scope's ID is a stable
// random identity; nothing in this package reads it.
type Scope struct {
	ID     uuid.UUID
	parent *Scope
	rules  []*Rule
	names  map[string]ast.Node
}

// NewScope creates an empty child scope of parent (parent may be nil for
// a root scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{ID: uuid.New(), parent: parent, names: make(map[string]ast.Node)}
}

// Parent returns s's parent scope, or nil at the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Define installs a rule at the end of s's rule table (insertion order is
// preserved; matching tries earlier rules first — §4.2 Ordering). When
// pattern is a bare Name, the binding is additionally recorded in a
// direct-lookup index so that Bound stays cheap.
func (s *Scope) Define(pattern, body ast.Node) *Rule {
	r := &Rule{Pattern: pattern, Body: body}
	s.rules = append(s.rules, r)
	if name, ok := pattern.(*ast.Name); ok {
		s.names[name.Value] = body
	}
	return r
}

// DefineMemo installs a rule exactly like Define, additionally marking it
// as an argument binding whose forced value should be cached after its
// first evaluation (see Rule.memo). Used only by the pattern binder.
func (s *Scope) DefineMemo(pattern, body ast.Node) *Rule {
	r := s.Define(pattern, body)
	r.memo = true
	return r
}

// Rules returns s's own rule table (not the parent chain), in
// declaration order.
func (s *Scope) Rules() []*Rule { return s.rules }

// Bound performs the cheap direct lookup of a name binding described in
// §4.2, walking up the parent chain. It only sees bindings installed
// through the bare-Name fast path of Define. The pattern binder does not
// use it: its non-linear-pattern check reads only the bindings of the
// current match (BindingResult).
func (s *Scope) Bound(name string) (ast.Node, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.names[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// LookupCallback is handed each candidate rule, innermost scope first, in
// declaration order. evalScope is the scope the expression under
// consideration should itself be evaluated in (the call site); declScope
// is the scope that owns the candidate rule (where its body should be
// evaluated, enriched with the match's bindings). A (nil, false) return
// means "this rule mismatched, try the next one."
type LookupCallback func(evalScope, declScope *Scope, expr ast.Node, rule *Rule) (ast.Node, bool)

// Lookup walks the scope chain rooted at s, innermost first, trying every
// rule in declaration order and handing each to cb. The first non-(nil,
// false) result wins.
//
// A rule whose own Pattern is a bare Name is skipped unless expr is
// itself a Name with the same spelling. Such a rule exists only to bind
// one argument or constant (installed by Define/DefineMemo with a bare
// Name pattern): its pattern imposes no shape constraint at all, so
// without this guard it would "match" — and capture — any expression
// whatsoever that is looked up while it is in scope, silently hijacking
// unrelated lookups (an Infix body, a guard expression, a sibling
// parameter) instead of merely answering "what does this name mean".
func (s *Scope) Lookup(expr ast.Node, cb LookupCallback) (ast.Node, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		for _, r := range cur.rules {
			if name, ok := r.Pattern.(*ast.Name); ok {
				exprName, ok := expr.(*ast.Name)
				if !ok || exprName.Value != name.Value {
					continue
				}
			}
			if result, ok := cb(s, cur, expr, r); ok {
				return result, true
			}
		}
	}
	return nil, false
}

// Push creates a new child scope of s. Named to mirror the Context
// operations of §4.2; a Context in this implementation is simply the
// current *Scope, since push/pop are just reassignments of that pointer.
func (s *Scope) Push() *Scope { return NewScope(s) }

// PreprocessDeclarations walks the top-level structure of tree — through
// any chain of ";"/"\n" sequence nodes — moving every Infix("->", p, b)
// it finds into scope's rule table (§4.2 "Declaration preprocessing").
// It returns the remaining, non-declaration expression (nil if tree was
// declarations all the way down) and whether any such remainder exists.
func PreprocessDeclarations(scope *Scope, tree ast.Node) (remainder ast.Node, hasInstructions bool) {
	infix, ok := tree.(*ast.Infix)
	if !ok {
		return tree, true
	}
	if ast.IsSequence(infix.Op) {
		left, leftHas := PreprocessDeclarations(scope, infix.Left)
		right, rightHas := PreprocessDeclarations(scope, infix.Right)
		switch {
		case left == nil && right == nil:
			return nil, false
		case left == nil:
			return right, rightHas
		case right == nil:
			return left, leftHas
		default:
			return ast.NewInfix(infix.Op, left, right, infix.Pos()), leftHas || rightHas
		}
	}
	if infix.Op == ast.OpArrow {
		scope.Define(infix.Left, infix.Right)
		return nil, false
	}
	return tree, true
}
