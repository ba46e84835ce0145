package main

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkSize(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/a/b/c/d", 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/a/one", make([]byte, 10), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/a/b/two", make([]byte, 20), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/a/b/c/d/three", make([]byte, 30), 0o644))

	assert.Equal(t, uint64(60), walkSize(fsys, "/a"))
	assert.Equal(t, uint64(0), walkSize(fsys, "/missing"))
}

func TestWalkSize_SkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	outside := filepath.Join(dir, "outside")
	inside := filepath.Join(dir, "inside")
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, os.MkdirAll(inside, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "big"), make([]byte, 4096), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inside, "small"), make([]byte, 5), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(inside, "dirlink")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "big"), filepath.Join(inside, "filelink")))

	assert.Equal(t, uint64(5), walkSize(afero.NewOsFs(), inside))
}

func TestPopulator_FillsSizeAndAge(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/p/target", 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/p/target/out.bin", make([]byte, 128), 0o644))
	modified := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, fsys.Chtimes("/p/target", modified, modified))

	p := NewPopulator(fsys, 2, nil)
	p.now = func() time.Time { return modified.Add(90 * time.Second) }

	e := NewFolderEntry("/p/target", p)
	require.Eventually(t, func() bool {
		_, sizeOK := e.Size()
		_, ageOK := e.Age()
		return sizeOK && ageOK
	}, 2*time.Second, 5*time.Millisecond)

	size, _ := e.Size()
	age, _ := e.Age()
	assert.Equal(t, uint64(128), size)
	assert.Equal(t, uint64(90), age)
}

func TestPopulator_FailuresAreNotErrors(t *testing.T) {
	p := NewPopulator(afero.NewMemMapFs(), 2, nil)
	e := NewFolderEntry("/does/not/exist", p)

	require.Eventually(t, func() bool {
		_, ok := e.Size()
		return ok && e.AgeSettled()
	}, 2*time.Second, 5*time.Millisecond)

	size, _ := e.Size()
	assert.Zero(t, size)
	_, ageOK := e.Age()
	assert.False(t, ageOK, "age stays unknown when the path cannot be read")
}

func TestPopulator_FutureMtimeClampsToZero(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/p/target", 0o755))
	now := time.Now()
	require.NoError(t, fsys.Chtimes("/p/target", now, now.Add(time.Hour)))

	p := NewPopulator(fsys, 1, nil)
	p.now = func() time.Time { return now }
	secs, err := p.lastModified("/p/target")
	require.NoError(t, err)
	assert.Zero(t, secs)
}

func TestDuSize(t *testing.T) {
	if !duAvailable(afero.NewOsFs()) {
		t.Skip("du not available")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob"), make([]byte, 64*1024), 0o644))

	size, err := duSize(dir)
	require.NoError(t, err)
	assert.Positive(t, size)
	assert.Zero(t, size%1024)
}
