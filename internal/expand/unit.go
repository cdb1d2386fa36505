package expand

import (
	"go.uber.org/zap"

	"github.com/roach88/traitasync/internal/config"
	"github.com/roach88/traitasync/internal/diag"
	"github.com/roach88/traitasync/internal/ir"
	"github.com/roach88/traitasync/internal/syntax"
)

// UnitResult is the expansion of a whole compilation unit.
type UnitResult struct {
	// Output is the unit with every successfully expanded item replaced.
	// Items that failed keep their original text.
	Output string
	// Items reports the expanded items in source order.
	Items []ItemReport
	// Diagnostics collects the errors of failed items.
	Diagnostics diag.List
}

// Failed reports whether any item failed to expand.
func (r *UnitResult) Failed() bool {
	return len(r.Diagnostics) > 0
}

// ExpandUnit expands every annotated item of src. Failures are local to
// an item: they are collected in Diagnostics and expansion continues with
// the next item. The returned error is non-nil only when the unit itself
// cannot be scanned.
func ExpandUnit(src string, cfg config.Config) (*UnitResult, error) {
	unit, err := syntax.Scan(src, cfg.Attribute)
	if err != nil {
		return nil, err
	}
	hidden := cfg.Registry(unit.HiddenRefs)

	res := &UnitResult{}
	var edits []edit
	for _, a := range unit.Items {
		out, err := expandAnnotated(a, src, cfg, hidden)
		if err != nil {
			Logger().Debug("item not expanded",
				zap.Stringer("pos", a.Span),
				zap.Error(err))
			res.Diagnostics = append(res.Diagnostics, diagnostics(err)...)
			continue
		}
		span := a.Span
		edits = append(edits, edit{start: span.Start.Offset, end: span.End.Offset, text: out.Text})
		res.Items = append(res.Items, out.Report)
	}
	res.Output = splice(src, 0, len(src), edits)

	Logger().Debug("unit expanded",
		zap.Int("items", len(res.Items)),
		zap.Int("diagnostics", len(res.Diagnostics)))
	return res, nil
}

func expandAnnotated(a syntax.Annotated, src string, cfg config.Config, hidden map[string]int) (*Result, error) {
	ctx, err := NewContext(a.Attr, cfg, hidden)
	if err != nil {
		return nil, err
	}
	item, err := a.Parse(src)
	if err != nil {
		return nil, err
	}
	return Expand(item, src, ctx)
}

// diagnostics flattens err into a diagnostic list. Errors that are not
// diagnostics become expand-phase INTERNAL_ERROR entries.
func diagnostics(err error) diag.List {
	if list, ok := diag.AsList(err); ok {
		return list
	}
	return diag.List{diag.Internal(diag.PhaseExpand, err)}
}

// ToValue converts the unit result to a canonical report value.
func (r *UnitResult) ToValue() ir.Value {
	items := make(ir.List, len(r.Items))
	for i, item := range r.Items {
		items[i] = item.ToValue()
	}
	diags := make(ir.List, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		diags[i] = d.ToValue()
	}
	return ir.Object{
		"version":     ir.Str(ir.ReportVersion),
		"items":       items,
		"diagnostics": diags,
	}
}
