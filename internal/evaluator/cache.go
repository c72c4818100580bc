package evaluator

import "github.com/pombredanne/elfe/internal/ast"

// Cache is the per-rule-match-attempt evaluation cache of §4.1: a map
// keyed by tree identity (pointer equality over the canonical node),
// enforcing that a given sub-expression is evaluated at most once within
// one outer rule-match attempt. It is created fresh for every new
// top-level lookup and discarded afterward — never shared across
// lookups.
type Cache struct {
	values map[ast.Node]ast.Node
}

func NewCache() *Cache {
	return &Cache{values: make(map[ast.Node]ast.Node)}
}

// Force returns the reduced form of t in scope, computing and memoizing
// it on a cache miss via eval.
func (c *Cache) Force(t ast.Node, scope *Scope, eval func(*Scope, ast.Node) ast.Node) ast.Node {
	if cached, ok := c.values[t]; ok {
		return cached
	}
	reduced := eval(scope, t)
	c.values[t] = reduced
	return reduced
}
