// Package monitor keeps an on-disk cache directory within its capacity.
//
// A Monitor indexes the files of its Owner's cache directory by path and by
// last access time. When the owner reports a size above its capacity, a
// background goroutine deletes the least recently accessed files until the
// cache fits again.
//
// # Victim selection
//
// Files can be read between the moment they are indexed and the moment they
// become the oldest entry. Before deleting a candidate the Monitor re-reads
// its access time: if it changed, the candidate is re-indexed with the new
// time and the next oldest file is considered instead. Evicting the indexed
// oldest file without this check would delete files that have become warm
// again.
//
// # Lifecycle
//
//	m := monitor.New(owner, monitor.WithLogger(logger))
//	m.Start()         // scan the directory, then reclaim on demand
//	defer m.Dispose() // stop the goroutine
//
//	// after writing a file and adding its size to the owner:
//	_, err := m.AddFile(path)
//
// Owners call Wake whenever their size or capacity changes outside AddFile.
//
// # Persisted state
//
// There is no index file. The directory listing and the operating system's
// access times are the only persisted metadata, so eviction order is only as
// accurate as the filesystem's access time updates.
package monitor
