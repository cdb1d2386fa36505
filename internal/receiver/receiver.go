// Package receiver classifies how a method takes self.
//
// The classification decides which capability bound the expander injects
// on Self and how the first parameter of the generated inner function is
// typed.
package receiver

import (
	"github.com/roach88/traitasync/internal/ir"
)

// Classify returns the receiver shape of a method. A nil receiver is
// ReceiverNone. The typed form self: T is classified by T: a reference
// type is a by-reference receiver (mutable or not), anything else is by
// value. Classify never fails.
func Classify(r *ir.Receiver) ir.ReceiverKind {
	switch {
	case r == nil:
		return ir.ReceiverNone
	case r.Ref && r.Mut:
		return ir.ReceiverByMutableReference
	case r.Ref:
		return ir.ReceiverByReference
	case r.Type != nil:
		return classifyType(r.Type)
	}
	return ir.ReceiverByValue
}

func classifyType(t ir.Type) ir.ReceiverKind {
	for {
		p, ok := t.(*ir.Paren)
		if !ok {
			break
		}
		t = p.Elem
	}
	if ref, ok := t.(*ir.Reference); ok {
		if ref.Mut {
			return ir.ReceiverByMutableReference
		}
		return ir.ReceiverByReference
	}
	return ir.ReceiverByValue
}

// Type returns the explicit type of the receiver with every Self replaced
// by concrete. This is the type of the first parameter of the inner
// function.
//
//	self          -> concrete
//	&'a mut self  -> &'a mut concrete
//	self: Box<Self> -> Box<concrete>
//
// It returns nil for a nil receiver.
func Type(r *ir.Receiver, concrete ir.Type) ir.Type {
	switch {
	case r == nil:
		return nil
	case r.Type != nil:
		return ir.ReplaceSelf(r.Type, concrete)
	case r.Ref:
		var lt *ir.Lifetime
		if r.Lifetime != nil {
			lt = ir.NewLifetime(r.Lifetime.Name)
		}
		return &ir.Reference{Lifetime: lt, Mut: r.Mut, Elem: ir.CloneType(concrete)}
	}
	return ir.CloneType(concrete)
}

// IsPlainSelf reports whether the receiver takes Self itself by value,
// either as self, mut self or self: Self. Such a receiver requires the
// receiver type to be sized.
func IsPlainSelf(r *ir.Receiver) bool {
	if r == nil || r.Ref {
		return false
	}
	return r.Type == nil || ir.IsSelfType(r.Type)
}
