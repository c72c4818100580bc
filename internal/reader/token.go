// Package reader is the external "parsing" collaborator spec.md §1 names
// as out of scope for the core: a small textual syntax is turned into the
// eight-variant ast.Node tree the evaluator consumes. It is deliberately
// minimal — just enough surface syntax to write the scenarios in spec.md
// §8 and drive the CLI — and never imports internal/evaluator.
package reader

import "github.com/pombredanne/elfe/internal/ast"

// Kind tags a lexical token.
type Kind int

const (
	EOF Kind = iota
	Integer
	Real
	Text
	Name
	Op
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
)

// Token is one lexeme plus its source position.
type Token struct {
	Kind Kind
	Text string
	Pos  ast.Pos
}
