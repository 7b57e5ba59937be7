package fallback

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats contains invocation counters for a chain.
type Stats struct {
	// Invocations is the number of Invoke calls.
	Invocations int64

	// Successes is the number of invocations served by some candidate.
	Successes int64

	// Failures is the number of invocations where every candidate failed.
	Failures int64

	// Degraded is the number of invocations that tried more than one candidate.
	Degraded int64

	// ServedBy counts successful invocations per candidate.
	ServedBy map[string]int64

	// CandidateFailures counts final (post-retry) failures per candidate.
	CandidateFailures map[string]int64

	// LastResetTime is when statistics were last reset.
	LastResetTime time.Time
}

// atomicStats implements thread-safe chain statistics using atomic operations.
type atomicStats struct {
	invocations atomic.Int64
	successes   atomic.Int64
	failures    atomic.Int64
	degraded    atomic.Int64

	// servedBy and candidateFailures map candidate name to *atomic.Int64
	servedBy          sync.Map
	candidateFailures sync.Map

	lastResetTime time.Time

	// mu protects lastResetTime
	mu sync.RWMutex
}

func newAtomicStats() *atomicStats {
	return &atomicStats{lastResetTime: time.Now()}
}

// record books a finished invocation.
func (s *atomicStats) record(attempts []Attempt, success bool) {
	s.invocations.Add(1)
	if success {
		s.successes.Add(1)
	} else {
		s.failures.Add(1)
	}
	if len(attempts) > 1 {
		s.degraded.Add(1)
	}

	for _, a := range attempts {
		if a.Success {
			increment(&s.servedBy, a.Name)
		} else {
			increment(&s.candidateFailures, a.Name)
		}
	}
}

func increment(m *sync.Map, name string) {
	val, _ := m.LoadOrStore(name, &atomic.Int64{})
	val.(*atomic.Int64).Add(1)
}

func load(m *sync.Map) map[string]int64 {
	out := make(map[string]int64)
	m.Range(func(key, value any) bool {
		out[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})
	return out
}

// snapshot returns a point-in-time copy of the statistics.
func (s *atomicStats) snapshot() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Invocations:       s.invocations.Load(),
		Successes:         s.successes.Load(),
		Failures:          s.failures.Load(),
		Degraded:          s.degraded.Load(),
		ServedBy:          load(&s.servedBy),
		CandidateFailures: load(&s.candidateFailures),
		LastResetTime:     s.lastResetTime,
	}
}

// reset resets all statistics to zero.
func (s *atomicStats) reset() {
	s.invocations.Store(0)
	s.successes.Store(0)
	s.failures.Store(0)
	s.degraded.Store(0)
	s.servedBy.Clear()
	s.candidateFailures.Clear()

	s.mu.Lock()
	s.lastResetTime = time.Now()
	s.mu.Unlock()
}
