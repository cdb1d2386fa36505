package expand

import (
	"github.com/roach88/traitasync/internal/config"
	"github.com/roach88/traitasync/internal/ir"
	"github.com/roach88/traitasync/internal/lifetime"
	"github.com/roach88/traitasync/internal/syntax"
)

// Context is the per-item expansion state. A fresh Context is built for
// every annotated item and passed down explicitly.
type Context struct {
	// Attribute is the driving attribute name. Its occurrence on the item
	// is removed from the output.
	Attribute string
	// Local drops Send from the handle and disables bound injection.
	Local bool
	// CallScope is the base name of the generated call scope.
	CallScope string
	// Hidden lists the types that hide a reference.
	Hidden lifetime.Registry
}

// NewContext builds the context for an item whose driving attribute is
// attr. It fails with INVALID_CONFIGURATION when the attribute argument
// is not recognized.
func NewContext(attr ir.Attribute, cfg config.Config, hidden lifetime.Registry) (Context, error) {
	mode, err := config.ParseArgs(attr)
	if err != nil {
		return Context{}, err
	}
	return Context{
		Attribute: cfg.Attribute,
		Local:     mode == config.ModeLocal || cfg.ForceLocal,
		CallScope: cfg.CallScope,
		Hidden:    hidden,
	}, nil
}

func (c Context) attribute() string {
	if c.Attribute == "" {
		return syntax.DefaultAttribute
	}
	return c.Attribute
}

// Bound is the capability bound injected on Self for one method.
type Bound int

const (
	BoundNone Bound = iota
	BoundSync
	BoundSend
)

func (b Bound) String() string {
	switch b {
	case BoundSync:
		return "sync"
	case BoundSend:
		return "send"
	}
	return "none"
}

// marker returns the path of the capability trait, or nil for BoundNone.
func (b Bound) marker() *ir.Path {
	switch b {
	case BoundSync:
		return ir.SimplePath(false, "core", "marker", "Sync")
	case BoundSend:
		return ir.SimplePath(false, "core", "marker", "Send")
	}
	return nil
}

// SelectBound picks the bound injected on Self.
//
//	local                         none
//	&self with a body             Self: Sync
//	&mut self with a body         Self: Send
//	self, no receiver, no body    none
//
// A shared borrow is sent to another thread only if Self is Sync; an
// exclusive borrow only if Self is Send.
func SelectBound(kind ir.ReceiverKind, hasBody, local bool) Bound {
	if local || !hasBody {
		return BoundNone
	}
	switch kind {
	case ir.ReceiverByReference:
		return BoundSync
	case ir.ReceiverByMutableReference:
		return BoundSend
	}
	return BoundNone
}
