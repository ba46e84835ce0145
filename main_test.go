package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_ListTargets(t *testing.T) {
	isolateConfig(t)
	out, err := executeRoot(t, t.TempDir(), "--list-targets")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	defaults, err := defaultTargets()
	require.NoError(t, err)
	require.Len(t, lines, len(defaults))
	assert.True(t, strings.HasPrefix(lines[0], defaults[0].Name))
	assert.Contains(t, out, "Cargo.toml")
}

func TestRootCmd_ListTargetsFiltered(t *testing.T) {
	isolateConfig(t)
	out, err := executeRoot(t, t.TempDir(), "--list-targets", "--targets", "node, rust")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, out, "node_modules")
	assert.Contains(t, out, "target")
}

func TestRootCmd_ConfigFileTargetsComeFirst(t *testing.T) {
	isolateConfig(t)
	path := writeConfig(t, `
[[targets]]
name = "bazel"
markers = ["MODULE.bazel"]
artifacts = ["bazel-out"]
`)
	out, err := executeRoot(t, t.TempDir(), "--list-targets", "--config", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "bazel"))
}

func TestRootCmd_Errors(t *testing.T) {
	isolateConfig(t)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing root", args: []string{filepath.Join(t.TempDir(), "nope")}, wantErr: "open root"},
		{name: "root is a file", args: []string{file}, wantErr: "not a directory"},
		{name: "unknown target", args: []string{t.TempDir(), "--targets", "cobol", "--list-targets"}, wantErr: "no targets match"},
		{name: "bad log level", args: []string{t.TempDir(), "--log-level", "loud"}, wantErr: "invalid log level"},
		{name: "too many args", args: []string{"a", "b"}, wantErr: "accepts at most 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeRoot(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolveRootArg_FollowsSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	realDir := filepath.Join(dir, "real")
	require.NoError(t, os.Mkdir(realDir, 0o755))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(realDir, link))

	got, err := resolveRootArg(link)
	require.NoError(t, err)
	assert.Equal(t, realDir, got)
}

func TestResolveConfig_FlagOverrides(t *testing.T) {
	isolateConfig(t)
	cfg, targets, err := resolveConfig(cliOptions{dryRun: true, logLevel: "debug", targets: "python"})
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, targets, 1)
	assert.Equal(t, "python", targets[0].Name)
}
