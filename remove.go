package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Remover drives a row from Pending to InProgress synchronously and queues
// the deletion on the worker pool. The final status comes back to the engine
// as an updateStatusAction.
type Remover struct {
	fs     afero.Fs
	pool   *workerPool
	rows   *RowStore
	report func(Action)
	root   string
	dryRun bool
	logger *slog.Logger
}

// Request removes entry if it is still pending. Rows in any other state are
// left alone.
func (r *Remover) Request(entry *FolderEntry) error {
	changed, err := r.rows.UpdateStatus(entry.ID, StatusInProgress)
	if err != nil {
		return errors.Wrap(err, "mark in progress")
	}
	if !changed {
		return nil
	}

	id, path := entry.ID, entry.Path
	r.pool.Queue(
		func() { r.remove(id, path) },
		func(err error) { r.finish(id, path, err) },
	)
	return nil
}

func (r *Remover) remove(id uuid.UUID, path string) {
	cleaned, err := validateRemovePath(r.root, path)
	if err == nil {
		if r.dryRun {
			r.logger.Info("dry run, not removing", "path", cleaned)
		} else {
			err = r.fs.RemoveAll(cleaned)
		}
	}
	r.finish(id, path, err)
}

func (r *Remover) finish(id uuid.UUID, path string, err error) {
	if err == nil {
		r.logger.Info("removed", "path", path)
		r.report(updateStatusAction{id: id, status: StatusCompleted})
		return
	}
	removalErr := &RemovalError{Path: path, Cause: err}
	r.logger.Warn("removal failed", "path", path, "error", err)
	r.report(updateStatusAction{id: id, status: StatusFailed})
	r.report(errorAction{message: removalErr.Error()})
}

// validateRemovePath refuses anything that is not an absolute path strictly
// inside the scan root.
func validateRemovePath(root, path string) (string, error) {
	if path == "" {
		return "", errEmptyPath
	}
	cleaned := filepath.Clean(path)
	if !filepath.IsAbs(cleaned) {
		return "", errRelativePath
	}
	if cleaned == filepath.VolumeName(cleaned)+string(os.PathSeparator) {
		return "", errRefuseRoot
	}
	if root == "" {
		return cleaned, nil
	}
	rel, err := filepath.Rel(filepath.Clean(root), cleaned)
	if err != nil {
		return "", errors.Wrapf(err, "remove: %s", cleaned)
	}
	if rel == "." {
		return "", errRefuseRoot
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", errors.Newf("remove: %s is outside %s", cleaned, root)
	}
	return cleaned, nil
}
