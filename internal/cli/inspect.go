package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/traitasync/internal/config"
	"github.com/roach88/traitasync/internal/diag"
	"github.com/roach88/traitasync/internal/expand"
	"github.com/roach88/traitasync/internal/ir"
	"github.com/roach88/traitasync/internal/receiver"
	"github.com/roach88/traitasync/internal/syntax"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print parsed declarations as canonical JSON",
		Long: `Parse every annotated item in a source file and print the declarations
with their content-addressed IDs as canonical JSON.

IDs are stable across runs for unchanged items, so inspection output can
be diffed between revisions.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runInspect(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeRead, fmt.Sprintf("failed to read %s", path), nil)
		return WrapExitError(ExitCommandError, "failed to read source", err)
	}

	value, err := Inspect(string(src), cfg)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to inspect "+path, err)
	}

	data, err := ir.MarshalCanonical(value)
	if err != nil {
		return fmt.Errorf("failed to marshal declarations: %w", err)
	}

	if opts.Format == "json" {
		return formatter.Success(json.RawMessage(data))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// Inspect parses the annotated items of a unit and describes them. Items
// that fail to parse are listed under "diagnostics".
func Inspect(src string, cfg config.Config) (ir.Value, error) {
	unit, err := syntax.Scan(src, cfg.Attribute)
	if err != nil {
		return nil, err
	}

	items := ir.List{}
	diags := ir.List{}
	for _, a := range unit.Items {
		item, err := a.Parse(src)
		if err != nil {
			list, ok := diag.AsList(err)
			if !ok {
				return nil, err
			}
			for _, d := range list {
				diags = append(diags, d.ToValue())
			}
			continue
		}
		v, err := describeItem(item, a.Attr, src)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}

	return ir.Object{
		"version":     ir.Str(ir.ReportVersion),
		"items":       items,
		"diagnostics": diags,
	}, nil
}

func describeItem(item ir.Item, attr ir.Attribute, src string) (ir.Value, error) {
	kind, name := expand.Describe(item)
	id, err := ir.ItemID(kind, name, item.ItemSpan().Text(src))
	if err != nil {
		return nil, err
	}

	members := make(ir.List, 0, len(item.Members()))
	for _, m := range item.Members() {
		method, ok := m.(*ir.Method)
		if !ok {
			members = append(members, ir.Object{
				"kind": ir.Str("opaque"),
				"line": ir.Int(m.MemberSpan().Start.Line),
			})
			continue
		}
		methodID, err := ir.MethodID(id, method.Sig.Name)
		if err != nil {
			return nil, err
		}
		members = append(members, ir.Object{
			"kind":     ir.Str("method"),
			"id":       ir.Str(methodID),
			"name":     ir.Str(method.Sig.Name),
			"async":    ir.Bool(method.IsAsync()),
			"receiver": ir.Str(receiver.Classify(method.Sig.Receiver).String()),
			"has_body": ir.Bool(method.Body != nil),
			"line":     ir.Int(method.Span.Start.Line),
		})
	}

	obj := ir.Object{
		"id":      ir.Str(id),
		"kind":    ir.Str(kind),
		"name":    ir.Str(name),
		"line":    ir.Int(item.ItemSpan().Start.Line),
		"members": members,
	}
	if attr.HasArgs {
		obj["args"] = ir.Str(attr.Args)
	}
	return obj, nil
}
