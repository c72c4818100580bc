package ast

// attacher is implemented by every concrete node via the embedded base.
// It is unexported: callers go through the Opcode/TypeCheckOpcode
// accessors below rather than touching attachment slots directly.
type attacher interface {
	attachment(key attachmentKey) (any, bool)
	setAttachmentOnce(key attachmentKey, val any) any
}

// OpcodeAttachment returns the value cached under the Opcode attachment
// key on n (installed by the evaluator's opcode-dispatch path on first
// use of a rule body shaped `Prefix("opcode", Name(opid))`).
func OpcodeAttachment(n Node) (any, bool) {
	a, ok := n.(attacher)
	if !ok {
		return nil, false
	}
	return a.attachment(keyOpcode)
}

// SetOpcodeAttachment installs val as n's Opcode attachment if none is
// set yet, and returns the value now in effect.
func SetOpcodeAttachment(n Node, val any) any {
	a := n.(attacher)
	return a.setAttachmentOnce(keyOpcode, val)
}

// TypeCheckOpcodeAttachment returns the value cached under the
// TypeCheckOpcode attachment key on n (installed on a primitive type
// name the first time it is used as a typed-parameter annotation).
func TypeCheckOpcodeAttachment(n Node) (any, bool) {
	a, ok := n.(attacher)
	if !ok {
		return nil, false
	}
	return a.attachment(keyTypeCheckOpcode)
}

// SetTypeCheckOpcodeAttachment installs val as n's TypeCheckOpcode
// attachment if none is set yet, and returns the value now in effect.
func SetTypeCheckOpcodeAttachment(n Node, val any) any {
	a := n.(attacher)
	return a.setAttachmentOnce(keyTypeCheckOpcode, val)
}
