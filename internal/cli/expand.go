package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/traitasync/internal/expand"
	"github.com/roach88/traitasync/internal/ir"
)

// ExpandOptions holds flags for the expand command.
type ExpandOptions struct {
	*RootOptions
	Output string // output file, stdout when empty
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpandOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "expand <file>",
		Short: "Expand annotated items in a source file",
		Long: `Expand every annotated trait and impl block in a source file and
print the rewritten unit.

Items that fail to expand keep their original text and are reported on
stderr. With --format json the expansion report is printed instead of
the source; -o still writes the source.

Exit codes:
  0 - All annotated items expanded
  1 - One or more items were left unexpanded
  2 - Command error (unreadable file, bad config, unbalanced delimiters)

Examples:
  traitasync expand src/video.rs
  traitasync expand src/video.rs -o out/video.rs
  traitasync expand src/video.rs --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the expanded unit to a file")

	return cmd
}

func runExpand(opts *ExpandOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Diagnostics go to stderr to keep the source clean
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeRead, fmt.Sprintf("failed to read %s", path), nil)
		return WrapExitError(ExitCommandError, "failed to read source", err)
	}

	res, err := expand.ExpandUnit(string(src), cfg)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to expand "+path, err)
	}
	for _, d := range res.Diagnostics {
		d.File = path
	}
	formatter.VerboseLog("Expanded %d item(s) in %s", len(res.Items), path)

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(res.Output), 0644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
	}

	if opts.Format == "json" {
		report, err := ir.MarshalCanonical(res.ToValue())
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		if err := formatter.Success(json.RawMessage(report)); err != nil {
			return err
		}
	} else {
		formatter.Diagnostics(res.Diagnostics)
		if opts.Output == "" {
			fmt.Fprint(cmd.OutOrStdout(), res.Output)
		}
	}

	if res.Failed() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d item(s) left unexpanded", len(res.Diagnostics)))
	}
	return nil
}
