// Package expand rewrites the async methods of an annotated trait or impl
// into methods returning a boxed future.
//
// Each async method is replaced in place:
//
//	async fn get(&self, key: &str) -> u8 { .. }
//
// becomes
//
//	fn get<'async_trait>(&'async_trait self, key: &'async_trait str)
//	    -> core::pin::Pin<Box<dyn core::future::Future<Output = u8> + core::marker::Send + 'async_trait>>
//	where
//	    Self: core::marker::Sync + 'async_trait,
//	{
//	    async fn get(_self: &Cache, key: &str) -> u8 { .. }
//	    core::pin::Pin::from(Box::new(get(self, key)))
//	}
//
// Everything else in the item, including synchronous methods, associated
// types and attributes other than the driving one, is copied from the
// source unchanged.
package expand

import (
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/traitasync/internal/config"
	"github.com/roach88/traitasync/internal/diag"
	"github.com/roach88/traitasync/internal/emit"
	"github.com/roach88/traitasync/internal/ir"
	"github.com/roach88/traitasync/internal/syntax"
)

// Result is the expansion of one item.
type Result struct {
	// Text replaces the source covered by the item's span.
	Text   string
	Report ItemReport
}

// Expand rewrites item, whose spans point into src, under ctx.
// A non-nil error is a *diag.Diagnostic or a diag.List.
func Expand(item ir.Item, src string, ctx Context) (*Result, error) {
	var c container
	switch v := item.(type) {
	case *ir.Trait:
		c.trait = v
	case *ir.Impl:
		c.impl = v
	}

	report, err := newItemReport(item, src, ctx)
	if err != nil {
		return nil, err
	}
	Logger().Debug("expanding item",
		zap.String("kind", report.Kind),
		zap.String("name", report.Name),
		zap.Bool("local", ctx.Local))

	var edits []edit
	for _, attr := range item.Attributes() {
		if syntax.IsDriver(attr, ctx.attribute()) {
			edits = append(edits, removeAttribute(src, attr.Span))
		}
	}

	var errs diag.List
	for _, member := range item.Members() {
		m, ok := member.(*ir.Method)
		if !ok || !m.IsAsync() {
			continue
		}
		g, err := newMethodGen(c, m, ctx, lineIndent(src, m.Span.Start.Offset))
		if err != nil {
			var list diag.List
			if !errors.As(err, &list) {
				return nil, err
			}
			errs = append(errs, list...)
			continue
		}
		text, err := g.generate()
		if err != nil {
			return nil, err
		}
		edits = append(edits, edit{
			start: m.Sig.Span.Start.Offset,
			end:   m.Span.End.Offset,
			text:  text,
		})
		report.Methods = append(report.Methods, newMethodReport(report.ID, g))
	}
	if len(errs) > 0 {
		return nil, errs
	}

	span := item.ItemSpan()
	return &Result{
		Text:   splice(src, span.Start.Offset, span.End.Offset, edits),
		Report: report,
	}, nil
}

// ExpandItem parses and expands the source text of a single item. The
// mode comes from the item's driving attribute when it has one.
func ExpandItem(src string, cfg config.Config) (*Result, error) {
	item, err := syntax.ParseItem(src)
	if err != nil {
		return nil, err
	}
	name := cfg.Attribute
	if name == "" {
		name = syntax.DefaultAttribute
	}
	var attr ir.Attribute
	for _, a := range item.Attributes() {
		if syntax.IsDriver(a, name) {
			attr = a
			break
		}
	}
	ctx, err := NewContext(attr, cfg, cfg.Registry(nil))
	if err != nil {
		return nil, err
	}
	return Expand(item, src, ctx)
}

type edit struct {
	start, end int
	text       string
}

// splice returns src[start:end] with the edits applied. Edits must not
// overlap.
func splice(src string, start, end int, edits []edit) string {
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })
	var b strings.Builder
	pos := start
	for _, e := range edits {
		b.WriteString(src[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.WriteString(src[pos:end])
	return b.String()
}

// removeAttribute deletes an attribute and the whitespace after it, so the
// next token takes over the attribute's position and indentation.
func removeAttribute(src string, span ir.Span) edit {
	end := span.End.Offset
	for end < len(src) && strings.IndexByte(" \t\r\n", src[end]) >= 0 {
		end++
	}
	return edit{start: span.Start.Offset, end: end}
}

// lineIndent returns the leading whitespace of the line containing off.
func lineIndent(src string, off int) string {
	start := strings.LastIndexByte(src[:off], '\n') + 1
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return src[start:end]
}

// ItemReport describes one expanded item.
type ItemReport struct {
	ID      string
	Kind    string // "trait" or "impl"
	Name    string
	Local   bool
	Methods []MethodReport
}

// MethodReport describes one rewritten method.
type MethodReport struct {
	ID        string
	Name      string
	Receiver  ir.ReceiverKind
	HasBody   bool
	Bound     Bound
	CallScope string
}

func newItemReport(item ir.Item, src string, ctx Context) (ItemReport, error) {
	kind, name := Describe(item)
	id, err := ir.ItemID(kind, name, item.ItemSpan().Text(src))
	if err != nil {
		return ItemReport{}, err
	}
	return ItemReport{ID: id, Kind: kind, Name: name, Local: ctx.Local}, nil
}

func newMethodReport(itemID string, g *methodGen) MethodReport {
	// MethodID only fails when canonical marshaling does, which it cannot
	// for two strings.
	id, _ := ir.MethodID(itemID, g.m.Sig.Name)
	return MethodReport{
		ID:        id,
		Name:      g.m.Sig.Name,
		Receiver:  g.kind,
		HasBody:   g.m.Body != nil,
		Bound:     g.bound,
		CallScope: g.el.CallScope.Name,
	}
}

// Describe returns the kind and display name of an item: the trait name,
// "Trait for Type" or the self type of an inherent impl.
func Describe(item ir.Item) (kind, name string) {
	switch v := item.(type) {
	case *ir.Trait:
		return "trait", v.Name
	case *ir.Impl:
		if v.Trait != nil {
			return "impl", emit.Path(v.Trait) + " for " + emit.Type(v.SelfTy)
		}
		return "impl", emit.Type(v.SelfTy)
	}
	return "", ""
}

// ToValue converts the report to a canonical value.
func (r ItemReport) ToValue() ir.Value {
	methods := make(ir.List, len(r.Methods))
	for i, m := range r.Methods {
		methods[i] = m.ToValue()
	}
	return ir.Object{
		"id":      ir.Str(r.ID),
		"kind":    ir.Str(r.Kind),
		"name":    ir.Str(r.Name),
		"local":   ir.Bool(r.Local),
		"methods": methods,
	}
}

// ToValue converts the report to a canonical value.
func (m MethodReport) ToValue() ir.Value {
	return ir.Object{
		"id":         ir.Str(m.ID),
		"name":       ir.Str(m.Name),
		"receiver":   ir.Str(m.Receiver.String()),
		"has_body":   ir.Bool(m.HasBody),
		"bound":      ir.Str(m.Bound.String()),
		"call_scope": ir.Str(m.CallScope),
	}
}
