package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
)

// Renderer receives a fresh snapshot every time the engine finishes
// handling an action.
type Renderer interface {
	Render(Snapshot)
}

// RendererFunc adapts a plain function to Renderer.
type RendererFunc func(Snapshot)

func (f RendererFunc) Render(s Snapshot) { f(s) }

// Snapshot is an immutable copy of everything the UI draws.
type Snapshot struct {
	Root     string
	DryRun   bool
	Rows     []RowView
	Selected int // -1 when nothing is selected

	SortColumn     sortColumn
	SortDescending bool
	Sorted         bool

	Scanning    bool
	Found       int
	ScanElapsed time.Duration

	Releasable uint64
	Saved      uint64

	Err string
}

// SelectedRow returns the selected row, if any.
func (s Snapshot) SelectedRow() (RowView, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Rows) {
		return RowView{}, false
	}
	return s.Rows[s.Selected], true
}

type EngineOptions struct {
	Root      string
	Targets   []TargetSpec
	Fs        afero.Fs
	Pool      *workerPool
	Populator *Populator
	Renderer  Renderer
	Logger    *slog.Logger
	DryRun    bool
}

// Engine owns the application state. All of its methods except the
// constructor must be called from one goroutine; background work reports
// back through the internal queue.
type Engine struct {
	root     string
	dryRun   bool
	rows     *RowStore
	internal *actionQueue
	pool     *workerPool
	scanner  *Scanner
	remover  *Remover
	renderer Renderer
	logger   *slog.Logger

	selected   int
	descending map[sortColumn]bool
	sortColumn sortColumn
	sorted     bool

	scanning    bool
	found       int
	scanElapsed time.Duration

	lastError string
	quitting  bool
}

func NewEngine(opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = RendererFunc(func(Snapshot) {})
	}

	root := resolveRoot(opts.Fs, opts.Root)
	e := &Engine{
		root:       root,
		dryRun:     opts.DryRun,
		rows:       NewRowStore(),
		internal:   newActionQueue(),
		pool:       opts.Pool,
		scanner:    NewScanner(opts.Fs, opts.Targets, opts.Populator, logger.With("component", "scan")),
		renderer:   renderer,
		logger:     logger,
		selected:   -1,
		descending: make(map[sortColumn]bool),
	}
	e.remover = &Remover{
		fs:     opts.Fs,
		pool:   opts.Pool,
		rows:   e.rows,
		report: e.internal.Push,
		root:   root,
		dryRun: opts.DryRun,
		logger: logger.With("component", "remove"),
	}
	return e
}

// StartScan walks the root on the worker pool. Entries arrive as
// insertRowAction values followed by one scanFinishedAction.
func (e *Engine) StartScan() {
	e.scanning = true
	e.pool.Queue(func() {
		stats := e.scanner.Scan(e.root, func(entry *FolderEntry) {
			e.internal.Push(insertRowAction{entry: entry})
		})
		e.logger.Info("scan finished", "root", e.root, "visited", stats.Visited, "found", stats.Found, "elapsed", stats.Elapsed)
		e.internal.Push(scanFinishedAction{found: stats.Found, elapsed: stats.Elapsed})
	}, func(err error) {
		e.internal.Push(errorAction{message: errors.Wrap(err, "start scan").Error()})
		e.internal.Push(scanFinishedAction{})
	})
}

// Run starts the scan and then handles actions from input and from
// background work until a quitAction arrives or ctx is done.
func (e *Engine) Run(ctx context.Context, input <-chan Action) error {
	e.StartScan()
	e.Dispatch(renderAction{})

	for !e.quitting {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a, ok := <-input:
			if !ok {
				input = nil
				continue
			}
			e.Dispatch(a)
		case a := <-e.internal.Out():
			e.Dispatch(a)
		}
	}
	return nil
}

// Dispatch applies a and every follow-up it produces until the chain ends.
// A failing step is replaced by an errorAction carrying its message.
func (e *Engine) Dispatch(a Action) {
	for a != nil {
		if _, ok := a.(renderAction); ok {
			e.render()
			return
		}
		next, err := e.perform(a)
		if err != nil {
			e.logger.Error("action failed", "action", fmt.Sprintf("%T", a), "error", err)
			next = errorAction{message: err.Error()}
		}
		a = next
	}
}

func (e *Engine) perform(a Action) (Action, error) {
	switch a := a.(type) {
	case quitAction:
		e.quitting = true
		return nil, nil

	case tickAction:
		return renderAction{}, nil

	case insertRowAction:
		if err := e.rows.Append(a.entry); err != nil {
			return nil, err
		}
		return renderAction{}, nil

	case updateStatusAction:
		if _, err := e.rows.UpdateStatus(a.id, a.status); err != nil {
			return nil, err
		}
		return renderAction{}, nil

	case sortAction:
		desc := !e.descending[a.column]
		if err := e.rows.Sort(a.column, desc); err != nil {
			return nil, err
		}
		e.descending[a.column] = desc
		e.sortColumn, e.sorted = a.column, true
		return renderAction{}, nil

	case selectNextAction:
		n, err := e.rows.Len()
		if err != nil {
			return nil, err
		}
		if n > 0 {
			e.selected = min(e.selected+1, n-1)
		}
		return renderAction{}, nil

	case selectPreviousAction:
		n, err := e.rows.Len()
		if err != nil {
			return nil, err
		}
		if n > 0 {
			e.selected = max(min(e.selected, n)-1, 0)
		}
		return renderAction{}, nil

	case removeSelectedAction:
		entry, _, ok, err := e.rows.At(e.selected)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := e.remover.Request(entry); err != nil {
				return nil, err
			}
		}
		return renderAction{}, nil

	case errorAction:
		e.lastError = a.message
		return renderAction{}, nil

	case scanFinishedAction:
		e.scanning = false
		e.found, e.scanElapsed = a.found, a.elapsed
		return renderAction{}, nil

	default:
		return nil, errors.Newf("unknown action %T", a)
	}
}

func (e *Engine) render() {
	snap := e.snapshot()
	e.renderer.Render(snap)
}

func (e *Engine) snapshot() Snapshot {
	snap := Snapshot{
		Root:           e.root,
		DryRun:         e.dryRun,
		Selected:       -1,
		SortColumn:     e.sortColumn,
		SortDescending: e.descending[e.sortColumn],
		Sorted:         e.sorted,
		Scanning:       e.scanning,
		Found:          e.found,
		ScanElapsed:    e.scanElapsed,
		Err:            e.lastError,
	}

	rows, err := e.rows.Views()
	if err != nil {
		snap.Err = err.Error()
		return snap
	}
	snap.Rows = rows
	if len(rows) > 0 && e.selected >= 0 {
		snap.Selected = min(e.selected, len(rows)-1)
	}
	for _, row := range rows {
		if !row.SizeKnown {
			continue
		}
		if row.Status == StatusCompleted {
			snap.Saved += row.Size
		} else {
			snap.Releasable += row.Size
		}
	}
	return snap
}
