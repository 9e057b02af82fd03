package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate_MissingConfigUsesDefaults(t *testing.T) {
	out, err := runCommand(t, "validate", "--config", filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Contains(t, out, "valid")
}

func TestValidate_BadConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("transactions:\n  tax-percent: 150\n"), 0o644))

	_, err := runCommand(t, "validate", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidate_ShopsFileWithBadRecord(t *testing.T) {
	dir := t.TempDir()
	shops := filepath.Join(dir, "shops.yml")
	data := `shops:
  - owner-uuid: "not-a-uuid"
    owner-name: Broken
    sign-world: main
    sign-x: 1
    sign-y: 64
    sign-z: 1
    chest-world: main
    chest-x: 1
    chest-y: 63
    chest-z: 1
    item: DIAMOND
    amount: 1
    buy-price: 10
`
	require.NoError(t, os.WriteFile(shops, []byte(data), 0o644))

	_, err := runCommand(t, "validate",
		"--config", filepath.Join(dir, "absent.yml"),
		"--shops", shops)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidate_ShopsFileNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := runCommand(t, "validate",
		"--config", filepath.Join(dir, "absent.yml"),
		"--shops", filepath.Join(dir, "missing-shops.yml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
