package filecache

import (
	"sync"
	"time"

	"github.com/jmgilman/go/filecache/monitor"
)

var _ monitor.Observer = (*Metrics)(nil)

// Metrics collects statistics about cache operations. It also receives the
// monitor's reclamation events. All methods are safe for concurrent use.
type Metrics struct {
	mu sync.RWMutex

	// Core hit/miss statistics
	hits   int64
	misses int64

	// Writes and removals
	puts         int64
	bytesWritten int64
	removals     int64

	// Reclamation
	evictions      int64
	bytesEvicted   int64
	staleRefreshes int64
	deleteErrors   int64

	errors int64

	// Computations through GetOrCompute
	computations       int64
	sharedComputations int64

	// Time-based metrics
	startTime        time.Time
	lastHitTime      time.Time
	lastMissTime     time.Time
	lastEvictionTime time.Time
	lastErrorTime    time.Time

	peakHitRate float64
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.resetTimes(time.Now())
	return m
}

func (m *Metrics) resetTimes(now time.Time) {
	m.startTime = now
	m.lastHitTime = now
	m.lastMissTime = now
	m.lastEvictionTime = now
	m.lastErrorTime = now
}

// RecordHit records a cache hit.
func (m *Metrics) RecordHit() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hits++
	m.lastHitTime = time.Now()

	if rate := m.calculateHitRate(); rate > m.peakHitRate {
		m.peakHitRate = rate
	}
}

// RecordMiss records a cache miss.
func (m *Metrics) RecordMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.misses++
	m.lastMissTime = time.Now()
}

// RecordPut records a committed write of n bytes.
func (m *Metrics) RecordPut(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts++
	m.bytesWritten += n
}

// RecordRemoval records an explicit removal.
func (m *Metrics) RecordRemoval() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removals++
}

// RecordError records a failed operation.
func (m *Metrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errors++
	m.lastErrorTime = time.Now()
}

// RecordComputation records a GetOrCompute call that missed. shared is true
// when the caller received the result of another caller's computation.
func (m *Metrics) RecordComputation(shared bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.computations++
	if shared {
		m.sharedComputations++
	}
}

// ObserveEviction implements monitor.Observer.
func (m *Metrics) ObserveEviction(_ string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictions++
	m.bytesEvicted += size
	m.lastEvictionTime = time.Now()
}

// ObserveStale implements monitor.Observer.
func (m *Metrics) ObserveStale(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staleRefreshes++
}

// ObserveDeleteError implements monitor.Observer.
func (m *Metrics) ObserveDeleteError(string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleteErrors++
	m.errors++
	m.lastErrorTime = time.Now()
}

func (m *Metrics) calculateHitRate() float64 {
	total := m.hits + m.misses
	if total == 0 {
		return 0.0
	}
	return float64(m.hits) / float64(total)
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		Hits:    m.hits,
		Misses:  m.misses,
		HitRate: m.calculateHitRate(),

		Puts:         m.puts,
		BytesWritten: m.bytesWritten,
		Removals:     m.removals,

		Evictions:      m.evictions,
		BytesEvicted:   m.bytesEvicted,
		StaleRefreshes: m.staleRefreshes,
		DeleteErrors:   m.deleteErrors,
		Errors:         m.errors,

		Computations:       m.computations,
		SharedComputations: m.sharedComputations,

		Uptime:                time.Since(m.startTime),
		TimeSinceLastHit:      time.Since(m.lastHitTime),
		TimeSinceLastMiss:     time.Since(m.lastMissTime),
		TimeSinceLastEviction: time.Since(m.lastEvictionTime),
		TimeSinceLastError:    time.Since(m.lastErrorTime),

		PeakHitRate: m.peakHitRate,
	}
}

// MetricsSnapshot is a point-in-time view of cache metrics.
type MetricsSnapshot struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`

	Puts         int64 `json:"puts"`
	BytesWritten int64 `json:"bytes_written"`
	Removals     int64 `json:"removals"`

	Evictions      int64 `json:"evictions"`
	BytesEvicted   int64 `json:"bytes_evicted"`
	StaleRefreshes int64 `json:"stale_refreshes"`
	DeleteErrors   int64 `json:"delete_errors"`
	Errors         int64 `json:"errors"`

	Computations       int64 `json:"computations"`
	SharedComputations int64 `json:"shared_computations"`

	Uptime                time.Duration `json:"uptime"`
	TimeSinceLastHit      time.Duration `json:"time_since_last_hit"`
	TimeSinceLastMiss     time.Duration `json:"time_since_last_miss"`
	TimeSinceLastEviction time.Duration `json:"time_since_last_eviction"`
	TimeSinceLastError    time.Duration `json:"time_since_last_error"`

	PeakHitRate float64 `json:"peak_hit_rate"`
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hits = 0
	m.misses = 0
	m.puts = 0
	m.bytesWritten = 0
	m.removals = 0
	m.evictions = 0
	m.bytesEvicted = 0
	m.staleRefreshes = 0
	m.deleteErrors = 0
	m.errors = 0
	m.computations = 0
	m.sharedComputations = 0
	m.peakHitRate = 0.0
	m.resetTimes(time.Now())
}
