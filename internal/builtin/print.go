package builtin

import (
	"fmt"
	"io"
	"os"

	"github.com/pombredanne/elfe/internal/ast"
	"github.com/pombredanne/elfe/internal/opcode"
)

// printOp writes its single argument's debug form to Out (os.Stdout by
// default) and returns the argument unchanged, so `print X` can be used
// inline in a sequence without disturbing the value flowing through it.
type printOp struct {
	Out io.Writer
}

func (p *printOp) OpID() string { return "Print" }

func (p *printOp) Clone() opcode.Opcode {
	c := *p
	if c.Out == nil {
		c.Out = os.Stdout
	}
	return &c
}

func (p *printOp) Run(f *opcode.Frame) {
	if len(f.Args) != 1 {
		f.Result = ast.NewEvaluationError("Print: expected 1 argument")
		return
	}
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintln(out, ast.String(f.Args[0]))
	f.Result = f.Args[0]
}
