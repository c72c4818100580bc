package ast

import (
	"fmt"
	"strings"
)

// String renders n in a minimal, unambiguous surface form. It exists for
// diagnostics and test failure messages, not as a round-trippable printer
// — that job belongs to the (external) renderer.
func String(n Node) string {
	var b strings.Builder
	write(&b, n)
	return b.String()
}

func write(b *strings.Builder, n Node) {
	switch x := n.(type) {
	case nil:
		b.WriteString("<nil>")
	case *Integer:
		fmt.Fprintf(b, "%d", x.Value)
	case *Real:
		fmt.Fprintf(b, "%g", x.Value)
	case *Text:
		fmt.Fprintf(b, "%s%s%s", x.OpenQuote, x.Value, x.CloseQuote)
	case *Name:
		b.WriteString(x.Value)
	case *Block:
		b.WriteString(x.Opening)
		write(b, x.Child)
		b.WriteString(x.Closing)
	case *Prefix:
		write(b, x.Left)
		b.WriteString(" ")
		write(b, x.Right)
	case *Postfix:
		write(b, x.Left)
		write(b, x.Right)
	case *Infix:
		write(b, x.Left)
		b.WriteString(" ")
		b.WriteString(x.Op)
		b.WriteString(" ")
		write(b, x.Right)
	case *ScopeSentinel:
		b.WriteString("<scope>")
	case *selfSentinel:
		b.WriteString("self")
	case *EvaluationError:
		fmt.Fprintf(b, "<evaluation-error: %s>", x.Message)
	default:
		fmt.Fprintf(b, "<?%T>", n)
	}
}
