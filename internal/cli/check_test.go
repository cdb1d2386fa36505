package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCheckCommand(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewCheckCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCheckCommand_Clean(t *testing.T) {
	path := writeSource(t, t.TempDir(), videoSource)

	out, _, err := runCheckCommand(t, &RootOptions{Format: "text"}, path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 file(s), 1 item(s), no diagnostics")
}

func TestCheckCommand_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeSource(t, dir, videoSource)
	bad := filepath.Join(dir, "bad.rs")
	require.NoError(t, os.WriteFile(bad, []byte(hiddenSource), 0644))
	broken := filepath.Join(dir, "broken.rs")
	require.NoError(t, os.WriteFile(broken, []byte("trait A {"), 0644))

	out, errOut, err := runCheckCommand(t, &RootOptions{Format: "text"}, good, bad, broken)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 diagnostic(s)")
	assert.Empty(t, out)
	assert.Contains(t, errOut, bad+":5:")
	assert.Contains(t, errOut, "AMBIGUOUS_BORROW_SCOPE")
	assert.Contains(t, errOut, broken+":")
	assert.Contains(t, errOut, "PARSE_ERROR")
}

func TestCheckCommand_JSON(t *testing.T) {
	path := writeSource(t, t.TempDir(), hiddenSource)

	out, _, err := runCheckCommand(t, &RootOptions{Format: "json"}, path)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDiagnostics, resp.Error.Code)

	details, ok := resp.Error.Details.([]any)
	require.True(t, ok)
	require.Len(t, details, 1)
	first := details[0].(map[string]any)
	assert.Equal(t, "AMBIGUOUS_BORROW_SCOPE", first["code"])
	assert.Equal(t, path, first["file"])
	assert.Equal(t, float64(5), first["line"])
}

func TestCheckCommand_JSONClean(t *testing.T) {
	path := writeSource(t, t.TempDir(), videoSource)

	out, _, err := runCheckCommand(t, &RootOptions{Format: "json"}, path)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"files": float64(1), "items": float64(1)}, resp.Data)
}

func TestCheckCommand_MissingFile(t *testing.T) {
	_, _, err := runCheckCommand(t, &RootOptions{Format: "text"}, "/nonexistent/src.rs")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "check failed")
}

func TestCheckCommand_NoArgs(t *testing.T) {
	_, _, err := runCheckCommand(t, &RootOptions{Format: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}
