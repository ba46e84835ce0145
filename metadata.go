package main

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	minMeasureWorkers = 4
	cpuMultiplier     = 2
	walkFanout        = 16
)

// Populator measures folder entries in the background. Measurements queue on
// a semaphore instead of blocking whoever created the entry.
type Populator struct {
	fs     afero.Fs
	sem    *semaphore.Weighted
	logger *slog.Logger
	now    func() time.Time
	useDu  bool
}

func defaultMeasureConcurrency() int {
	return max(runtime.NumCPU()*cpuMultiplier, minMeasureWorkers)
}

func NewPopulator(fsys afero.Fs, concurrency int, logger *slog.Logger) *Populator {
	if concurrency <= 0 {
		concurrency = defaultMeasureConcurrency()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Populator{
		fs:     fsys,
		sem:    semaphore.NewWeighted(int64(concurrency)),
		logger: logger,
		now:    time.Now,
		useDu:  duAvailable(fsys),
	}
}

// Populate starts the two independent measurements for path. Each result is
// written to its cell exactly once.
func (p *Populator) Populate(path string, size, age *onceCell[uint64]) {
	go p.measure(func() {
		size.Set(p.dirSize(path))
	})
	go p.measure(func() {
		secs, err := p.lastModified(path)
		if err != nil {
			p.logger.Debug("age unavailable", "path", path, "error", err)
			age.Abandon()
			return
		}
		age.Set(secs)
	})
}

func (p *Populator) measure(task func()) {
	// Acquire with a background context never fails.
	_ = p.sem.Acquire(context.Background(), 1)
	defer p.sem.Release(1)
	task()
}

// dirSize never fails: anything that goes wrong counts as zero bytes.
func (p *Populator) dirSize(path string) uint64 {
	if p.useDu {
		size, err := duSize(path)
		if err == nil {
			return size
		}
		p.logger.Debug("du failed, walking instead", "path", path, "error", err)
	}
	return walkSize(p.fs, path)
}

func (p *Populator) lastModified(path string) (uint64, error) {
	info, err := p.fs.Stat(path)
	if err != nil {
		return 0, errors.Wrapf(err, "stat %s", path)
	}
	elapsed := p.now().Sub(info.ModTime())
	if elapsed < 0 {
		return 0, nil
	}
	return uint64(elapsed / time.Second), nil
}

func duAvailable(fsys afero.Fs) bool {
	if _, ok := fsys.(*afero.OsFs); !ok || runtime.GOOS == "windows" {
		return false
	}
	_, err := exec.LookPath("du")
	return err == nil
}

func duSize(path string) (uint64, error) {
	out, err := exec.Command("du", "-sk", path).Output()
	if err != nil {
		return 0, errors.Wrap(err, "du")
	}
	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return 0, errors.New("du: empty output")
	}
	kb, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "du: parse output")
	}
	return kb * 1024, nil
}

// walkSize sums regular file sizes below root, fanning subdirectories out
// across goroutines. Symlinks are neither counted nor followed.
func walkSize(fsys afero.Fs, root string) uint64 {
	var total atomic.Uint64
	var g errgroup.Group
	g.SetLimit(walkFanout)

	var visit func(dir string)
	visit = func(dir string) {
		entries, err := afero.ReadDir(fsys, dir)
		if err != nil {
			return
		}
		for _, entry := range entries {
			switch {
			case entry.Mode()&os.ModeSymlink != 0:
				continue
			case entry.IsDir():
				sub := filepath.Join(dir, entry.Name())
				if !g.TryGo(func() error {
					visit(sub)
					return nil
				}) {
					visit(sub)
				}
			case entry.Mode().IsRegular():
				total.Add(uint64(entry.Size()))
			}
		}
	}

	visit(root)
	_ = g.Wait()
	return total.Load()
}
