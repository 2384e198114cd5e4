package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamba-ml/mamba/internal/config"
	"github.com/mamba-ml/mamba/internal/driver"
	"github.com/mamba-ml/mamba/internal/sparse"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	libDir = ""
	for _, c := range rootCmd.Commands() {
		resetFlags(c)
		for _, sub := range c.Commands() {
			resetFlags(sub)
		}
	}
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags clears values left by an earlier Execute; cobra commands are
// package globals.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}

func TestScratchCmd(t *testing.T) {
	out, err := run(t, "scratch", "10")
	require.NoError(t, err)
	assert.Equal(t, "306", strings.TrimSpace(out))

	_, err = run(t, "scratch", "0")
	assert.ErrorIs(t, err, driver.ErrInvalidSize)

	_, err = run(t, "scratch", "ten")
	assert.Error(t, err)
}

func TestTypesCmd(t *testing.T) {
	out, err := run(t, "types")
	require.NoError(t, err)
	assert.Contains(t, out, "float      float64  8 bytes float")
	assert.Contains(t, out, "int        int32    4 bytes signed")
}

func TestLocateCmd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "libmkl_rt.so"), nil, 0o644))

	out, err := run(t, "locate", "--lib-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "libmkl_rt.so"), strings.TrimSpace(out))

	_, err = run(t, "locate", "--lib-dir", t.TempDir())
	assert.ErrorIs(t, err, driver.ErrLibraryNotFound)
}

func TestInspectCmd(t *testing.T) {
	diag := []string{"--values", "1,2,3", "--indices", "1,2,3", "--indptr", "1,2,3,4"}

	out, err := run(t, append([]string{"inspect"}, diag...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "order   3\n")
	assert.Contains(t, out, "offset  1\n")
	assert.Contains(t, out, "indptr  int32 [1 2 3 4] native [0 1 2 3]\n")
	assert.Contains(t, out, "indices int32 [1 2 3] native [0 1 2]\n")

	out, err = run(t, "inspect", "--values", "4,1,3", "--indices", "3,2,3", "--indptr", "2,4,5", "--offset", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "offset  2\n")
	assert.Contains(t, out, "values  [1 4 3]\n")
	assert.Contains(t, out, "indptr  int32 [2 4 5] native [0 2 3]\n")
	assert.Contains(t, out, "indices int32 [2 3 3] native [0 1 1]\n")

	_, err = run(t, "inspect", "--values", "1", "--indices", "0", "--indptr", "1,2")
	assert.ErrorIs(t, err, sparse.ErrIndexOutOfRange)
}

func TestILUCmd_NoLibrary(t *testing.T) {
	_, err := run(t, "ilu", "--values", "1", "--indices", "1", "--indptr", "1,2", "--lib-dir", t.TempDir())
	assert.ErrorIs(t, err, driver.ErrLibraryNotFound)
}

func TestConfigInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "mamba.yaml")

	out, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Equal(t, path, strings.TrimSpace(out))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), loaded)

	_, err = run(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "config", "init", "--force", path)
	assert.NoError(t, err)
}
