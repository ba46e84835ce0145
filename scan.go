package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const maxRootLinks = 40

// Scanner finds artifact directories below a root. It first looks for
// project roots, then searches each project for the artifacts its target
// names.
type Scanner struct {
	fs        afero.Fs
	targets   []TargetSpec
	populator *Populator
	logger    *slog.Logger
}

type ScanStats struct {
	Visited int
	Found   int
	Elapsed time.Duration
}

func NewScanner(fsys afero.Fs, targets []TargetSpec, populator *Populator, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{fs: fsys, targets: targets, populator: populator, logger: logger}
}

// Scan walks root and calls emit for every artifact directory the moment it
// is found. It runs to completion; errors on individual entries are skipped.
func (s *Scanner) Scan(root string, emit func(*FolderEntry)) ScanStats {
	start := time.Now()
	stats := ScanStats{}
	root = resolveRoot(s.fs, root)

	_ = afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			s.logger.Debug("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if !info.IsDir() || info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		stats.Visited++
		if path != root && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}

		target, ok := matchTarget(s.fs, s.targets, path)
		if !ok {
			return nil
		}
		s.logger.Debug("project root", "path", path, "target", target.Name)
		stats.Found += s.scanProject(path, target, emit)
		return filepath.SkipDir
	})

	stats.Elapsed = time.Since(start)
	return stats
}

// resolveRoot follows symlinks at root itself. Links further down the tree
// are never followed.
func resolveRoot(fsys afero.Fs, root string) string {
	lstater, ok := fsys.(afero.Lstater)
	if !ok {
		return root
	}
	reader, ok := fsys.(afero.LinkReader)
	if !ok {
		return root
	}
	for range maxRootLinks {
		info, _, err := lstater.LstatIfPossible(root)
		if err != nil || info.Mode()&os.ModeSymlink == 0 {
			return root
		}
		target, err := reader.ReadlinkIfPossible(root)
		if err != nil {
			return root
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(root), target)
		}
		root = filepath.Clean(target)
	}
	return root
}

// scanProject reports the artifact directories below a project root without
// descending into them.
func (s *Scanner) scanProject(projectRoot string, target TargetSpec, emit func(*FolderEntry)) int {
	found := 0
	_ = afero.Walk(s.fs, projectRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if path == projectRoot || !info.IsDir() || info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		if !target.IsArtifact(info.Name()) {
			return nil
		}
		found++
		emit(NewFolderEntry(path, s.populator))
		return filepath.SkipDir
	})
	return found
}
