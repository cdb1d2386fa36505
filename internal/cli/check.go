package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/traitasync/internal/config"
	"github.com/roach88/traitasync/internal/diag"
	"github.com/roach88/traitasync/internal/expand"
)

// CheckResult holds the diagnostics of a check run.
type CheckResult struct {
	Files       int       `json:"files"`
	Items       int       `json:"items"`
	Diagnostics diag.List `json:"-"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Report diagnostics without writing output",
		Long: `Expand annotated items in memory and report diagnostics.

No output is written. Faster feedback than expand for editors and CI.

Exit codes:
  0 - No diagnostics
  2 - One or more diagnostics, or a command error`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, paths []string, cmd *cobra.Command) error {
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

	result := CheckResult{}
	for _, path := range paths {
		formatter.VerboseLog("Checking %s", path)
		list, items, err := checkFile(path, cfg)
		if err != nil {
			_ = formatter.Error(ErrCodeRead, err.Error(), map[string]string{"file": path})
			return WrapExitError(ExitCommandError, "check failed", err)
		}
		result.Files++
		result.Items += items
		result.Diagnostics = append(result.Diagnostics, list...)
	}

	if len(result.Diagnostics) > 0 {
		if opts.Format == "json" {
			details := make([]any, len(result.Diagnostics))
			for i, d := range result.Diagnostics {
				details[i] = d.ToValue()
			}
			_ = formatter.Error(ErrCodeDiagnostics,
				fmt.Sprintf("%d diagnostic(s)", len(result.Diagnostics)), details)
		} else {
			formatter.Diagnostics(result.Diagnostics)
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("%d diagnostic(s)", len(result.Diagnostics)))
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %d file(s), %d item(s), no diagnostics\n", result.Files, result.Items)
	return nil
}

// checkFile expands one file and returns its diagnostics and the number of
// expanded items. A unit that cannot be scanned is one diagnostic.
func checkFile(path string, cfg config.Config) (diag.List, int, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	res, err := expand.ExpandUnit(string(src), cfg)
	if err != nil {
		var d *diag.Diagnostic
		if !errors.As(err, &d) {
			return nil, 0, err
		}
		d.File = path
		return diag.List{d}, 0, nil
	}
	for _, d := range res.Diagnostics {
		d.File = path
	}
	return res.Diagnostics, len(res.Items), nil
}
