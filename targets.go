package main

import (
	_ "embed"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

//go:embed targets.toml
var defaultTargetsTOML []byte

const extMarkerPrefix = "ext:"

// TargetSpec describes how to recognize one kind of project and which of its
// subdirectories are build artifacts.
type TargetSpec struct {
	Name      string   `toml:"name" mapstructure:"name"`
	Markers   []string `toml:"markers" mapstructure:"markers"`
	Artifacts []string `toml:"artifacts" mapstructure:"artifacts"`
}

type targetFile struct {
	Targets []TargetSpec `toml:"targets"`
}

func defaultTargets() ([]TargetSpec, error) {
	var file targetFile
	if err := toml.Unmarshal(defaultTargetsTOML, &file); err != nil {
		return nil, errors.Wrap(err, "parse built-in targets")
	}
	return file.Targets, nil
}

// IsProjectRoot reports whether any marker of the target matches dir. Read
// errors count as "no match".
func (t TargetSpec) IsProjectRoot(fsys afero.Fs, dir string) bool {
	for _, marker := range t.Markers {
		if ext, ok := strings.CutPrefix(marker, extMarkerPrefix); ok {
			if hasFileWithExt(fsys, dir, ext) {
				return true
			}
			continue
		}
		if _, err := fsys.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

func (t TargetSpec) IsArtifact(name string) bool {
	return slices.Contains(t.Artifacts, name)
}

func hasFileWithExt(fsys afero.Fs, dir, ext string) bool {
	if ext == "" {
		return false
	}
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return false
	}
	suffix := "." + ext
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		// ".tf" alone is a dotfile, not a file with the tf extension.
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return true
		}
	}
	return false
}

// matchTarget returns the first target that recognizes dir as a project root.
func matchTarget(fsys afero.Fs, targets []TargetSpec, dir string) (TargetSpec, bool) {
	for _, target := range targets {
		if target.IsProjectRoot(fsys, dir) {
			return target, true
		}
	}
	return TargetSpec{}, false
}

// mergeTargets puts the user's specs first and drops defaults they redefine.
func mergeTargets(defaults, user []TargetSpec) []TargetSpec {
	if len(user) == 0 {
		return defaults
	}
	merged := make([]TargetSpec, 0, len(defaults)+len(user))
	seen := map[string]struct{}{}
	for _, target := range user {
		merged = append(merged, target)
		seen[target.Name] = struct{}{}
	}
	for _, target := range defaults {
		if _, ok := seen[target.Name]; ok {
			continue
		}
		merged = append(merged, target)
	}
	return merged
}

// filterTargets keeps only the named specs, preserving their priority order.
func filterTargets(targets []TargetSpec, names []string) []TargetSpec {
	if len(names) == 0 {
		return targets
	}
	filtered := make([]TargetSpec, 0, len(names))
	for _, target := range targets {
		if slices.Contains(names, target.Name) {
			filtered = append(filtered, target)
		}
	}
	return filtered
}

func validateTargets(targets []TargetSpec) error {
	for i, target := range targets {
		if target.Name == "" {
			return errors.Newf("targets[%d]: name is required", i)
		}
		if len(target.Markers) == 0 {
			return errors.Newf("target %q: at least one marker is required", target.Name)
		}
		if len(target.Artifacts) == 0 {
			return errors.Newf("target %q: at least one artifact is required", target.Name)
		}
	}
	return nil
}

func parseTargetList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
