// Package diag implements the error taxonomy of spec.md §7 as a sink the
// core reports through. The core never decides how (or whether) to render
// a diagnostic — that is the embedder's job (§6 "Error sink").
package diag

import "github.com/pombredanne/elfe/internal/ast"

// Kind enumerates the non-fatal/fatal error taxonomy from §7.
type Kind int

const (
	Mismatch Kind = iota
	UndefinedLookup
	TypeFailure
	GuardFailure
	InvalidDeclaration
	DepthExceeded
)

func (k Kind) String() string {
	switch k {
	case Mismatch:
		return "mismatch"
	case UndefinedLookup:
		return "undefined lookup"
	case TypeFailure:
		return "type failure"
	case GuardFailure:
		return "guard failure"
	case InvalidDeclaration:
		return "invalid declaration"
	case DepthExceeded:
		return "depth exceeded"
	default:
		return "unknown"
	}
}

// Record is one entry in the sink: a message template, the position it
// occurred at, and the argument trees that filled the template — left
// unformatted, since formatting is the renderer's job, not the core's.
type Record struct {
	Kind     Kind
	Template string
	Pos      ast.Pos
	Args     []ast.Node
}

// Sink is the narrow interface the evaluator reports through. Mismatches
// recorded during failed trial matches are non-fatal and are retracted
// (via Clear) the moment any rule matches at that lookup level; hard
// failures persist until the outer driver's next top-level call.
type Sink interface {
	Report(r Record)
	Clear()
	Records() []Record
}

// Memory is the default in-process Sink: an append-only slice cleared in
// bulk, matching the "accumulate, then retract on success" lifecycle
// described in §7.
type Memory struct {
	records []Record
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Report(r Record)   { m.records = append(m.records, r) }
func (m *Memory) Clear()            { m.records = m.records[:0] }
func (m *Memory) Records() []Record { return m.records }
