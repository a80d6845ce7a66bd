package monitor

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jmgilman/go/filecache/logging"
)

// errScanAborted stops the directory walk once Clear has been called.
var errScanAborted = errors.New("scan aborted")

// run is the body of the reclamation goroutine.
func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	m.scan(ctx)

	for {
		m.reclaim(ctx)

		select {
		case <-m.stop:
			return
		case <-m.wake:
		}
	}
}

// scan tracks every cache file already present in the owner's directory and
// adds each file's size to the owner as it is indexed. The abort flag is
// checked before each file so that Clear stops a long scan promptly. It
// returns the number of files visited.
func (m *Monitor) scan(ctx context.Context) int {
	start := time.Now()
	dir := m.owner.CacheDirectory()

	var visited int
	var total int64
	err := m.fs.Walk(dir, func(path string, d fs.DirEntry, err error) error {
		if m.aborted.Load() || m.stopped() {
			return errScanAborted
		}
		if err != nil {
			// Unreadable subtrees are skipped rather than failing the scan.
			m.logger.Warn(ctx, "failed to read cache directory entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || (m.filter != nil && !m.filter(filepath.Base(path))) {
			return nil
		}

		visited++
		e, err := m.buildEntry(path)
		if err != nil {
			m.logger.Debug(ctx, "skipping unreadable cache file", "path", path, "error", err)
			return nil
		}
		// The size is counted before the entry becomes visible, so whoever
		// removes it from the index always has a size to release.
		m.owner.AddToCacheSize(e.Size)
		if !m.idx.insertIfAbsent(e) {
			// A concurrent writer tracked the file and counted it itself.
			m.owner.AddToCacheSize(-e.Size)
			return nil
		}
		total += e.Size

		if m.aborted.Load() {
			// Clear ran while this file was being read.
			if _, ok := m.idx.remove(path); ok {
				m.owner.AddToCacheSize(-e.Size)
				total -= e.Size
			}
			return errScanAborted
		}
		return nil
	})

	aborted := errors.Is(err, errScanAborted)
	if err != nil && !aborted {
		m.logger.Error(ctx, "cache directory scan failed", "error", err)
	}

	logging.LogScan(ctx, m.logger, dir, visited, total, aborted, time.Since(start))
	return visited
}

// reclaim deletes victims until the owner is back within capacity, the index
// runs dry or the Monitor is disposed.
func (m *Monitor) reclaim(ctx context.Context) {
	for !m.stopped() && m.owner.Size() > m.owner.Capacity() {
		victim, ok := m.nextVictim(ctx)
		if !ok {
			m.logger.Warn(ctx, "cache exceeds capacity but no files are tracked",
				"size", m.owner.Size(), "capacity", m.owner.Capacity())
			return
		}

		if err := victim.Delete(m.fs); err != nil && !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn(ctx, "failed to delete cache file", "path", victim.Path, "error", err)
			if m.observer != nil {
				m.observer.ObserveDeleteError(victim.Path, err)
			}
		} else {
			logging.LogEviction(ctx, m.logger, victim.Path, victim.Size, "capacity")
			if m.observer != nil {
				m.observer.ObserveEviction(victim.Path, victim.Size)
			}
		}
		m.owner.AddToCacheSize(-victim.Size)

		runtime.Gosched()
	}
}

// nextVictim returns the least recently accessed file that has not been
// accessed since it was indexed. The returned entry has already been removed
// from the index.
//
// Candidates whose access time changed on disk are re-indexed with the new
// time and skipped. Candidates that no longer exist have their size released
// and are skipped. Whoever removes an entry from the index owns the release
// of its size, which keeps the owner's counter consistent with concurrent
// RemoveFile calls.
func (m *Monitor) nextVictim(ctx context.Context) (*Entry, bool) {
	for {
		candidate, ok := m.idx.popOldest()
		if !ok {
			return nil, false
		}

		current, err := m.times.AccessTime(candidate.Path)
		if err != nil {
			m.logger.Debug(ctx, "cache file vanished before eviction", "path", candidate.Path, "error", err)
			m.owner.AddToCacheSize(-candidate.Size)
			_ = candidate.Delete(m.fs)
			continue
		}

		if current == candidate.AccessTime {
			return candidate, true
		}

		refreshed := NewEntry(candidate.Path, current, candidate.Size)
		if !m.idx.insertIfAbsent(refreshed) {
			// The file was rewritten and re-added while we held its old
			// record; the old record's bytes are no longer on disk.
			m.owner.AddToCacheSize(-candidate.Size)
		}
		if m.observer != nil {
			m.observer.ObserveStale(candidate.Path)
		}
	}
}
