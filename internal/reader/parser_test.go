package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pombredanne/elfe/internal/ast"
)

func TestReadLiterals(t *testing.T) {
	tree, err := Read(`42`)
	require.NoError(t, err)
	i, ok := tree.(*ast.Integer)
	require.True(t, ok, "expected *ast.Integer, got %T", tree)
	assert.Equal(t, int64(42), i.Value)

	tree, err = Read(`3.5`)
	require.NoError(t, err)
	r, ok := tree.(*ast.Real)
	require.True(t, ok, "expected *ast.Real, got %T", tree)
	assert.InDelta(t, 3.5, r.Value, 0.0001)

	tree, err = Read(`"hello\nworld"`)
	require.NoError(t, err)
	s, ok := tree.(*ast.Text)
	require.True(t, ok, "expected *ast.Text, got %T", tree)
	assert.Equal(t, "hello\nworld", s.Value)
}

func TestReadName(t *testing.T) {
	tree, err := Read(`x`)
	require.NoError(t, err)
	n, ok := tree.(*ast.Name)
	require.True(t, ok)
	assert.Equal(t, "x", n.Value)
}

func TestReadArithmeticPrecedence(t *testing.T) {
	// "1 + 2 * 3" should parse as "1 + (2 * 3)".
	tree, err := Read(`1 + 2 * 3`)
	require.NoError(t, err)
	infix, ok := tree.(*ast.Infix)
	require.True(t, ok)
	assert.Equal(t, "+", infix.Op)

	right, ok := infix.Right.(*ast.Infix)
	require.True(t, ok, "expected right side to be nested Infix, got %T", infix.Right)
	assert.Equal(t, "*", right.Op)
}

func TestReadArrowRightAssociative(t *testing.T) {
	// "x -> y -> x + y" should parse as "x -> (y -> (x + y))".
	tree, err := Read(`x -> y -> x + y`)
	require.NoError(t, err)
	outer, ok := tree.(*ast.Infix)
	require.True(t, ok)
	assert.Equal(t, ast.OpArrow, outer.Op)

	inner, ok := outer.Right.(*ast.Infix)
	require.True(t, ok, "expected right side to be nested arrow, got %T", outer.Right)
	assert.Equal(t, ast.OpArrow, inner.Op)
}

func TestReadApplication(t *testing.T) {
	// "double 21" is a Prefix application.
	tree, err := Read(`double 21`)
	require.NoError(t, err)
	p, ok := tree.(*ast.Prefix)
	require.True(t, ok, "expected *ast.Prefix, got %T", tree)
	head, ok := p.Left.(*ast.Name)
	require.True(t, ok)
	assert.Equal(t, "double", head.Value)
	arg, ok := p.Right.(*ast.Integer)
	require.True(t, ok)
	assert.Equal(t, int64(21), arg.Value)
}

func TestReadEmptyBlock(t *testing.T) {
	for _, src := range []string{"()", "{}", "[]"} {
		tree, err := Read(src)
		require.NoError(t, err, src)
		block, ok := tree.(*ast.Block)
		require.True(t, ok, "%s: expected *ast.Block, got %T", src, tree)
		assert.True(t, ast.IsSelf(block.Child), "%s: expected empty block's child to be the self sentinel", src)
	}
}

func TestReadBlockSequence(t *testing.T) {
	tree, err := Read("{ x -> 10; y -> 20 }")
	require.NoError(t, err)
	block, ok := tree.(*ast.Block)
	require.True(t, ok)
	assert.Equal(t, "{", block.Opening)
	_, ok = block.Child.(*ast.Infix)
	require.True(t, ok, "expected block child to be a ';'-joined Infix chain")
}

func TestReadScopeReference(t *testing.T) {
	tree, err := Read(`M.x`)
	require.NoError(t, err)
	infix, ok := tree.(*ast.Infix)
	require.True(t, ok)
	assert.Equal(t, ast.OpScope, infix.Op)
}

func TestReadRejectsTrailingGarbage(t *testing.T) {
	_, err := Read(`1 2 )`)
	require.Error(t, err)
}
