package evaluator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pombredanne/elfe/internal/ast"
	"github.com/pombredanne/elfe/internal/builtin"
	"github.com/pombredanne/elfe/internal/diag"
	"github.com/pombredanne/elfe/internal/evaluator"
	"github.com/pombredanne/elfe/internal/opcode"
	"github.com/pombredanne/elfe/internal/reader"
)

// countingOpcode is a test-only witness opcode: it returns 1 every time
// and increments *calls, so a test can assert an argument was only
// evaluated once (spec.md §8's "argument-evaluation-at-most-once"
// invariant).
type countingOpcode struct {
	id    string
	calls *int
}

func (c *countingOpcode) OpID() string         { return c.id }
func (c *countingOpcode) Clone() opcode.Opcode { d := *c; return &d }
func (c *countingOpcode) Run(f *opcode.Frame) {
	*c.calls++
	f.Result = ast.NewInteger(1, f.Body.Pos())
}

func newEvaluator(t *testing.T) (*evaluator.Evaluator, *evaluator.Scope) {
	t.Helper()
	ev := evaluator.New(builtin.NewStaticRegistry(), diag.NewMemory(), nil, 0)
	return ev, evaluator.NewScope(nil)
}

func declare(t *testing.T, scope *evaluator.Scope, source string) {
	t.Helper()
	tree, err := reader.Read(source)
	require.NoError(t, err, source)
	infix, ok := tree.(*ast.Infix)
	require.True(t, ok, "expected a rule declaration, got %T", tree)
	require.Equal(t, ast.OpArrow, infix.Op)
	scope.Define(infix.Left, infix.Right)
}

func evalString(t *testing.T, ev *evaluator.Evaluator, scope *evaluator.Scope, source string) string {
	t.Helper()
	tree, err := reader.Read(source)
	require.NoError(t, err, source)
	return ast.String(evaluator.Deref(ev.Evaluate(scope, tree)))
}

// Scenario 1: arithmetic dispatched through an opcode.
func TestScenarioArithmeticViaOpcode(t *testing.T) {
	ev, scope := newEvaluator(t)
	declare(t, scope, `X:integer + Y:integer -> opcode Add`)
	assert.Equal(t, "5", evalString(t, ev, scope, `2 + 3`))
}

// Scenario 2: recursion guarded by "when".
func TestScenarioRecursionWithGuard(t *testing.T) {
	ev, scope := newEvaluator(t)
	declare(t, scope, `X:integer + Y:integer -> opcode Add`)
	declare(t, scope, `X:integer * Y:integer -> opcode Mul`)
	declare(t, scope, `X:integer - Y:integer -> opcode Sub`)
	declare(t, scope, `fact 0 -> 1`)
	declare(t, scope, `fact N:integer when N > 0 -> N * fact (N - 1)`)
	declare(t, scope, `X:integer > Y:integer -> opcode Gt`)
	assert.Equal(t, "120", evalString(t, ev, scope, `fact 5`))
}

// Scenario 3: lambda application; the only rule is the addition opcode
// the lambda body needs.
func TestScenarioLambdaApplication(t *testing.T) {
	ev, scope := newEvaluator(t)
	declare(t, scope, `X:integer + Y:integer -> opcode Add`)
	assert.Equal(t, "42", evalString(t, ev, scope, `(X -> X + 1) 41`))
}

// Scenario 4: non-linear pattern.
func TestScenarioNonLinearPattern(t *testing.T) {
	ev, scope := newEvaluator(t)
	declare(t, scope, `X + X -> 2 * X`)
	declare(t, scope, `2 * X -> opcode Double`)
	assert.Equal(t, "14", evalString(t, ev, scope, `7 + 7`))

	// No match: the binder requires the two occurrences of X to agree, so
	// "7 + 8" falls through to the literal tree unchanged.
	assert.Equal(t, "7 + 8", evalString(t, ev, scope, `7 + 8`))
}

// Scenario 5: type-shape check via a structural pattern used as a type.
func TestScenarioTypeShapeCheck(t *testing.T) {
	ev, scope := newEvaluator(t)
	declare(t, scope, `pair X:integer Y:integer -> opcode MkPair`)

	ok := evalString(t, ev, scope, `pair 1 2 as type (pair integer integer)`)
	assert.Equal(t, "pair 1 2", ok)

	failed := evalString(t, ev, scope, `pair 1 "x" as type (pair integer integer)`)
	assert.Equal(t, `pair 1 "x"`, failed)
}

// Scenario 6: scoped reference into a block's own rule table.
func TestScenarioScopedReference(t *testing.T) {
	ev, scope := newEvaluator(t)
	declare(t, scope, `M -> { x -> 10; y -> 20 }`)
	assert.Equal(t, "10", evalString(t, ev, scope, `M.x`))
	assert.Equal(t, "20", evalString(t, ev, scope, `M.y`))
}

// A literal with no overriding rule is a fixed point of evaluation.
func TestLiteralIsFixedPoint(t *testing.T) {
	ev, scope := newEvaluator(t)
	assert.Equal(t, "7", evalString(t, ev, scope, `7`))
	assert.Equal(t, `"hi"`, evalString(t, ev, scope, `"hi"`))
}

// Argument-evaluation-at-most-once, using a stateful opcode as the witness.
func TestArgumentEvaluatedAtMostOnce(t *testing.T) {
	calls := 0
	registry := builtin.NewStaticRegistry()
	registry.Register(&countingOpcode{id: "Counter", calls: &calls})

	ev := evaluator.New(registry, diag.NewMemory(), nil, 0)
	scope := evaluator.NewScope(nil)
	declare(t, scope, `X:integer + Y:integer -> opcode Add`)
	declare(t, scope, `twice X -> X + X`)
	declare(t, scope, `counter -> opcode Counter`)

	assert.Equal(t, "2", evalString(t, ev, scope, `twice counter`))
	assert.Equal(t, 1, calls, "counter opcode should run exactly once")
}
