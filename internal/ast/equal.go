package ast

// Equal reports structural equality between two trees: string equality for
// names, text and infix operators, and delimiter pairs compared as pairs
// on blocks. It is defined recursively over the eight variants, never
// bit-exact — attachments and positions never participate.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *Integer:
		y, ok := b.(*Integer)
		return ok && x.Value == y.Value
	case *Real:
		y, ok := b.(*Real)
		return ok && x.Value == y.Value
	case *Text:
		y, ok := b.(*Text)
		return ok && x.Value == y.Value
	case *Name:
		y, ok := b.(*Name)
		return ok && x.Value == y.Value
	case *Block:
		y, ok := b.(*Block)
		return ok && x.Opening == y.Opening && x.Closing == y.Closing && Equal(x.Child, y.Child)
	case *Prefix:
		y, ok := b.(*Prefix)
		return ok && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Postfix:
		y, ok := b.(*Postfix)
		return ok && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Infix:
		y, ok := b.(*Infix)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	default:
		return false
	}
}
