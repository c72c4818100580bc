package reader

import (
	"fmt"

	"github.com/pombredanne/elfe/internal/ast"
)

// Precedence levels for the handful of operators the reader recognizes
// structurally. Anything else lexed as an Op token gets a default
// infix precedence (parseable, but the evaluator will report "no infix
// matches" unless a rule exists for it) — new operators never require a
// grammar change, per internal/ast/nodes.go's own comment on Infix.Op.
const (
	precLowest     = 0
	precSequence   = 10
	precArrow      = 20
	precAnnotation = 30 // "as", "when" (":" after an operand is read by parseOperand)
	precCompare    = 40
	precAdd        = 50
	precMul        = 60
	precScope      = 80 // "."
	precDefault    = 45
)

var precedence = map[string]int{
	"\n": precSequence, ";": precSequence,
	"->":   precArrow,
	":":    precAnnotation,
	"as":   precAnnotation,
	"when": precAnnotation,
	"<":    precCompare, ">": precCompare, "<=": precCompare, ">=": precCompare,
	"==": precCompare, "!=": precCompare,
	"+": precAdd, "-": precAdd,
	"*": precMul, "/": precMul,
	".": precScope,
}

// rightAssoc reports whether op should right-associate when chained
// (sequences and declarations read naturally as "this, then the rest").
func rightAssoc(op string) bool {
	return op == "\n" || op == ";" || op == "->"
}

func opPrecedence(text string) int {
	if p, ok := precedence[text]; ok {
		return p
	}
	return precDefault
}

// Error reports a parse failure with its source position.
type Error struct {
	Pos     ast.Pos
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

type parser struct {
	lex *lexer
	cur Token
	err error
}

// Read parses source into a single ast.Node tree (a chain of ";"/"\n"
// Infix nodes at the top level, exactly as a Block's child would be).
func Read(source string) (ast.Node, error) {
	p := &parser{lex: newLexer(source)}
	p.advance()
	tree := p.parseExpr(precLowest)
	if p.err != nil {
		return nil, p.err
	}
	if p.cur.Kind != EOF {
		return nil, &Error{Pos: p.cur.Pos, Message: "unexpected trailing input"}
	}
	return tree, nil
}

func (p *parser) advance() { p.cur = p.lex.next() }

func (p *parser) fail(pos ast.Pos, format string, args ...any) {
	if p.err == nil {
		p.err = &Error{Pos: pos, Message: fmt.Sprintf(format, args...)}
	}
}

func (p *parser) isClosing() bool {
	switch p.cur.Kind {
	case EOF, RParen, RBrace, RBracket:
		return true
	default:
		return false
	}
}

// isInfixOperator reports whether the current token can act as an infix
// operator at this point (reserved keywords "as"/"when" are lexed as
// ordinary Name tokens, so this checks text, not kind).
func (p *parser) isInfixOperator() bool {
	if p.isClosing() {
		return false
	}
	if p.cur.Kind != Op && p.cur.Kind != Name {
		return false
	}
	_, reserved := precedence[p.cur.Text]
	return p.cur.Kind == Op || reserved
}

func (p *parser) canStartPrimary() bool {
	if p.isClosing() {
		return false
	}
	switch p.cur.Kind {
	case Integer, Real, Text, LParen, LBrace, LBracket:
		return true
	case Name:
		_, reserved := precedence[p.cur.Text]
		return !reserved
	default:
		return false
	}
}

func (p *parser) parseExpr(minPrec int) ast.Node {
	left := p.parseApplication()
	for p.err == nil && p.isInfixOperator() {
		prec := opPrecedence(p.cur.Text)
		if prec < minPrec {
			break
		}
		op := p.cur.Text
		pos := p.cur.Pos
		p.advance()
		nextMin := prec + 1
		if rightAssoc(op) {
			nextMin = prec
		}
		right := p.parseExpr(nextMin)
		if p.err != nil {
			return left
		}
		left = ast.NewInfix(op, left, right, pos)
	}
	return left
}

func (p *parser) parseApplication() ast.Node {
	left := p.parseOperand()
	for p.err == nil && p.canStartPrimary() {
		right := p.parseOperand()
		left = ast.NewPrefix(left, right, left.Pos())
	}
	return left
}

// parseOperand parses one primary plus any ":" annotation right after it.
// ":" binds tighter than application and every other operator, so
// `fact N:integer` reads as fact (N:integer) and `X:integer + Y:integer`
// as (X:integer) + (Y:integer).
func (p *parser) parseOperand() ast.Node {
	operand := p.parsePrimary()
	for p.err == nil && p.cur.Kind == Op && p.cur.Text == ast.OpTyped {
		pos := p.cur.Pos
		p.advance()
		operand = ast.NewInfix(ast.OpTyped, operand, p.parsePrimary(), pos)
	}
	return operand
}

func (p *parser) parsePrimary() ast.Node {
	tok := p.cur
	switch tok.Kind {
	case Integer:
		p.advance()
		var v int64
		fmt.Sscanf(tok.Text, "%d", &v)
		return ast.NewInteger(v, tok.Pos)
	case Real:
		p.advance()
		var v float64
		fmt.Sscanf(tok.Text, "%g", &v)
		return ast.NewReal(v, tok.Pos)
	case Text:
		p.advance()
		return ast.NewText(tok.Text, "\"", "\"", tok.Pos)
	case Name:
		p.advance()
		return ast.NewName(tok.Text, tok.Pos)
	case Op:
		// A symbol in primary position is a prefix operator applied to
		// the next primary, e.g. unary "-x".
		p.advance()
		operand := p.parsePrimary()
		return ast.NewPrefix(ast.NewName(tok.Text, tok.Pos), operand, tok.Pos)
	case LParen:
		p.advance()
		child := p.parseGroupBody()
		p.expect(RParen, ")")
		return ast.NewBlock(child, "(", ")", tok.Pos)
	case LBrace:
		p.advance()
		child := p.parseGroupBody()
		p.expect(RBrace, "}")
		return ast.NewBlock(child, "{", "}", tok.Pos)
	case LBracket:
		p.advance()
		child := p.parseGroupBody()
		p.expect(RBracket, "]")
		return ast.NewBlock(child, "[", "]", tok.Pos)
	default:
		p.fail(tok.Pos, "unexpected token %q", tok.Text)
		return ast.Self
	}
}

// parseGroupBody parses the contents of a (), {} or [] group, skipping
// any leading/trailing newlines so blank lines inside a block are inert.
func (p *parser) parseGroupBody() ast.Node {
	for p.cur.Kind == Op && p.cur.Text == "\n" {
		p.advance()
	}
	if p.isClosing() {
		return ast.Self
	}
	child := p.parseExpr(precLowest)
	for p.cur.Kind == Op && p.cur.Text == "\n" {
		p.advance()
	}
	return child
}

func (p *parser) expect(kind Kind, text string) {
	if p.cur.Kind != kind {
		p.fail(p.cur.Pos, "expected %q, found %q", text, p.cur.Text)
		return
	}
	p.advance()
}
