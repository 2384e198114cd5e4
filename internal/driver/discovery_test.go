package driver

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
}

func TestPlatformExt(t *testing.T) {
	assert.Equal(t, ".so", PlatformExt("linux"))
	assert.Equal(t, ".so", PlatformExt("freebsd"))
	assert.Equal(t, ".so", PlatformExt("aix"))
	assert.Equal(t, ".dll", PlatformExt("windows"))
	assert.Equal(t, ".dylib", PlatformExt("darwin"))
}

func TestFindLibrary_NoDir(t *testing.T) {
	path, err := FindLibrary("libmkl_rt", "")
	require.NoError(t, err)
	assert.Equal(t, "libmkl_rt"+PlatformExt(runtime.GOOS), path)
}

func TestFindLibrary_SingleCandidate(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "libmkl_rt.so", "libmkl_rt.txt", "libother.so", "libmkl_rt.so.2")

	path, err := FindLibrary("libmkl_rt", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "libmkl_rt.so"), path)
}

func TestFindLibrary_ExtensionCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "libmkl_rt.DLL")

	path, err := FindLibrary("libmkl_rt", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "libmkl_rt.DLL"), path)
}

func TestFindLibrary_NotFound(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "libmkl_rt.a")

	_, err := FindLibrary("libmkl_rt", dir)
	assert.ErrorIs(t, err, ErrLibraryNotFound)
}

func TestFindLibrary_Ambiguous(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "libmkl_rt.so", "libmkl_rt.dylib")

	_, err := FindLibrary("libmkl_rt", dir)
	require.ErrorIs(t, err, ErrAmbiguousLibrary)
	assert.Contains(t, err.Error(), "libmkl_rt.dylib")
	assert.Contains(t, err.Error(), "libmkl_rt.so")
}

func TestOpen_PropagatesDiscoveryErrors(t *testing.T) {
	_, err := Open("libmkl_rt", t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrLibraryNotFound)

	_, err = OpenMKL(t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrLibraryNotFound)
}

func TestForeignCallError(t *testing.T) {
	e := &ForeignCallError{Routine: "dcsrilu0", Code: -106}
	assert.Equal(t, "foreign call dcsrilu0: returned status -106", e.Error())
	assert.ErrorIs(t, e, ErrForeignCall)
	assert.Nil(t, e.Unwrap())
}
