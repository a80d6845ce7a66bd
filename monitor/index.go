package monitor

import (
	"sync"

	rbt "github.com/emirpasic/gods/trees/redblacktree"
)

// index keeps two views of the same set of entries: one keyed by path for
// existence checks and one ordered by recency for picking eviction victims.
// Both views are only ever changed together under mu, so no caller can
// observe them disagreeing.
type index struct {
	mu     sync.Mutex
	byPath map[string]*Entry
	byTime *rbt.Tree
}

func newIndex() *index {
	return &index{
		byPath: make(map[string]*Entry),
		byTime: rbt.NewWith(func(a, b interface{}) int {
			return Compare(a.(*Entry), b.(*Entry))
		}),
	}
}

// upsert stores e, replacing any entry for the same path. It returns the
// replaced entry, if any.
func (idx *index) upsert(e *Entry) *Entry {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	old, ok := idx.byPath[e.Path]
	if ok {
		idx.byTime.Remove(old)
	}
	idx.byPath[e.Path] = e
	idx.byTime.Put(e, nil)
	return old
}

// upsertIfChanged stores e unless an entry with the same path and access time
// already exists. It reports whether e was stored.
func (idx *index) upsertIfChanged(e *Entry) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	old, ok := idx.byPath[e.Path]
	if ok {
		if old.AccessTime == e.AccessTime {
			return false
		}
		idx.byTime.Remove(old)
	}
	idx.byPath[e.Path] = e
	idx.byTime.Put(e, nil)
	return true
}

// replaceIfPresent swaps in e for an existing entry with the same path and a
// different access time. Untracked paths are left alone.
func (idx *index) replaceIfPresent(e *Entry) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	old, ok := idx.byPath[e.Path]
	if !ok || old.AccessTime == e.AccessTime {
		return false
	}
	idx.byTime.Remove(old)
	idx.byPath[e.Path] = e
	idx.byTime.Put(e, nil)
	return true
}

// insertIfAbsent stores e only when nothing is tracked for its path.
func (idx *index) insertIfAbsent(e *Entry) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.byPath[e.Path]; ok {
		return false
	}
	idx.byPath[e.Path] = e
	idx.byTime.Put(e, nil)
	return true
}

// remove drops the entry for path from both views.
func (idx *index) remove(path string) (*Entry, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	e, ok := idx.byPath[path]
	if !ok {
		return nil, false
	}
	delete(idx.byPath, path)
	idx.byTime.Remove(e)
	return e, true
}

// popOldest removes and returns the entry with the oldest access time.
func (idx *index) popOldest() (*Entry, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	node := idx.byTime.Left()
	if node == nil {
		return nil, false
	}
	e := node.Key.(*Entry)
	idx.byTime.Remove(e)
	delete(idx.byPath, e.Path)
	return e, true
}

func (idx *index) get(path string) (*Entry, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	e, ok := idx.byPath[path]
	return e, ok
}

func (idx *index) contains(path string) bool {
	_, ok := idx.get(path)
	return ok
}

func (idx *index) len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.byPath)
}

func (idx *index) clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.byPath = make(map[string]*Entry)
	idx.byTime.Clear()
}

// entries returns a snapshot of all entries, oldest first.
func (idx *index) entries() []*Entry {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	keys := idx.byTime.Keys()
	out := make([]*Entry, len(keys))
	for i, k := range keys {
		out[i] = k.(*Entry)
	}
	return out
}
