package main

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRemovePath(t *testing.T) {
	tests := []struct {
		name    string
		root    string
		path    string
		want    string
		wantErr error
	}{
		{name: "inside root", root: "/w", path: "/w/p/target", want: "/w/p/target"},
		{name: "cleaned", root: "/w", path: "/w/p/../q/target/", want: "/w/q/target"},
		{name: "no root", path: "/anywhere/target", want: "/anywhere/target"},
		{name: "empty", root: "/w", path: "", wantErr: errEmptyPath},
		{name: "relative", root: "/w", path: "p/target", wantErr: errRelativePath},
		{name: "filesystem root", root: "/w", path: "/", wantErr: errRefuseRoot},
		{name: "scan root", root: "/w", path: "/w/", wantErr: errRefuseRoot},
		{name: "outside root", root: "/w", path: "/etc/target"},
		{name: "sibling prefix", root: "/w", path: "/work/target"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateRemovePath(tt.root, tt.path)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.want == "":
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRemover_GuardFailureIsReported(t *testing.T) {
	fsys := afero.NewMemMapFs()
	mkdirs(t, fsys, "/w")
	e, rec := newTestEngine(t, fsys)

	e.Dispatch(insertRowAction{entry: NewFolderEntry("/w", nil)})
	e.Dispatch(selectNextAction{})
	e.Dispatch(removeSelectedAction{})
	drainUntil(t, e, func() bool { return rec.last().Err != "" })

	assert.Equal(t, StatusFailed, rec.last().Rows[0].Status)
	assert.Contains(t, rec.last().Err, "refusing to delete root")
	exists, err := afero.DirExists(fsys, "/w")
	require.NoError(t, err)
	assert.True(t, exists)
}

// gatedRemoveFs holds every RemoveAll until gate is closed.
type gatedRemoveFs struct {
	afero.Fs
	gate chan struct{}
}

func (f gatedRemoveFs) RemoveAll(path string) error {
	<-f.gate
	return f.Fs.RemoveAll(path)
}

func TestRemover_SaturatedPoolQueuesRemovals(t *testing.T) {
	mem := afero.NewMemMapFs()
	fsys := gatedRemoveFs{Fs: mem, gate: make(chan struct{})}
	e, rec := newTestEngine(t, fsys)

	// One more removal than the engine has workers.
	var ids []uuid.UUID
	for i := range 5 {
		path := fmt.Sprintf("/w/p%d/target", i)
		mkdirs(t, mem, path)
		entry := NewFolderEntry(path, nil)
		ids = append(ids, entry.ID)
		e.Dispatch(insertRowAction{entry: entry})
	}
	for range ids {
		e.Dispatch(selectNextAction{})
		e.Dispatch(removeSelectedAction{})
	}
	for _, row := range rec.last().Rows {
		assert.Equal(t, StatusInProgress, row.Status, row.Path)
	}

	close(fsys.gate)
	drainUntil(t, e, func() bool {
		for _, row := range rec.last().Rows {
			if !row.Status.Terminal() {
				return false
			}
		}
		return true
	})

	for _, id := range ids {
		assert.Equal(t, []RemovalStatus{StatusPending, StatusInProgress, StatusCompleted}, rec.statuses(id))
	}
	for i := range 5 {
		exists, err := afero.DirExists(mem, fmt.Sprintf("/w/p%d/target", i))
		require.NoError(t, err)
		assert.False(t, exists)
	}
	assert.Empty(t, rec.last().Err)
}

func TestRemover_ReleasedPoolFails(t *testing.T) {
	pool, err := newWorkerPool(1, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	pool.Release()

	rows := NewRowStore()
	entry := NewFolderEntry("/w/p/target", nil)
	require.NoError(t, rows.Append(entry))

	reported := make(chan Action, 2)
	r := &Remover{
		fs:     afero.NewMemMapFs(),
		pool:   pool,
		rows:   rows,
		report: func(a Action) { reported <- a },
		root:   "/w",
		logger: slog.New(slog.DiscardHandler),
	}
	require.NoError(t, r.Request(entry))

	var got []Action
	for range 2 {
		select {
		case a := <-reported:
			got = append(got, a)
		case <-time.After(time.Second):
			t.Fatal("removal was never reported")
		}
	}
	assert.Equal(t, updateStatusAction{id: entry.ID, status: StatusFailed}, got[0])
	require.IsType(t, errorAction{}, got[1])
	assert.Contains(t, got[1].(errorAction).message, "/w/p/target")
}
