package queue

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks queue performance metrics.
type Statistics struct {
	// Atomic counters for thread-safe updates
	puts       int64
	takes      int64
	putBlocks  int64
	takeBlocks int64
	rejects    int64
	timeouts   int64

	// Protected by mutex
	mu           sync.RWMutex
	startTime    time.Time
	currentDepth int64
	maxDepth     int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Put records a successful enqueue.
func (s *Statistics) Put() {
	atomic.AddInt64(&s.puts, 1)
}

// Take records a successful dequeue.
func (s *Statistics) Take() {
	atomic.AddInt64(&s.takes, 1)
}

// PutBlocked records a producer blocking on a full queue.
func (s *Statistics) PutBlocked() {
	atomic.AddInt64(&s.putBlocks, 1)
}

// TakeBlocked records a consumer blocking on an empty queue.
func (s *Statistics) TakeBlocked() {
	atomic.AddInt64(&s.takeBlocks, 1)
}

// Reject records a non-blocking put refused at capacity.
func (s *Statistics) Reject() {
	atomic.AddInt64(&s.rejects, 1)
}

// Timeout records a timed put that expired before space opened up.
func (s *Statistics) Timeout() {
	atomic.AddInt64(&s.timeouts, 1)
}

// UpdateDepth updates the current queue depth.
func (s *Statistics) UpdateDepth(depth int64) {
	s.mu.Lock()
	s.currentDepth = depth
	if depth > s.maxDepth {
		s.maxDepth = depth
	}
	s.mu.Unlock()
}

// Puts returns the total number of successful enqueues.
func (s *Statistics) Puts() int64 {
	return atomic.LoadInt64(&s.puts)
}

// Takes returns the total number of successful dequeues.
func (s *Statistics) Takes() int64 {
	return atomic.LoadInt64(&s.takes)
}

// PutBlocks returns the total number of producer blocking events.
func (s *Statistics) PutBlocks() int64 {
	return atomic.LoadInt64(&s.putBlocks)
}

// TakeBlocks returns the total number of consumer blocking events.
func (s *Statistics) TakeBlocks() int64 {
	return atomic.LoadInt64(&s.takeBlocks)
}

// Rejects returns the total number of rejected non-blocking puts.
func (s *Statistics) Rejects() int64 {
	return atomic.LoadInt64(&s.rejects)
}

// Timeouts returns the total number of expired timed puts.
func (s *Statistics) Timeouts() int64 {
	return atomic.LoadInt64(&s.timeouts)
}

// CurrentDepth returns the current number of queued items.
func (s *Statistics) CurrentDepth() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentDepth
}

// MaxDepth returns the deepest the queue has been.
func (s *Statistics) MaxDepth() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxDepth
}

// PutThroughput returns the average number of enqueues per second.
func (s *Statistics) PutThroughput() float64 {
	s.mu.RLock()
	elapsed := time.Since(s.startTime)
	s.mu.RUnlock()

	if elapsed == 0 {
		return 0.0
	}

	return float64(s.Puts()) / elapsed.Seconds()
}

// TakeThroughput returns the average number of dequeues per second.
func (s *Statistics) TakeThroughput() float64 {
	s.mu.RLock()
	elapsed := time.Since(s.startTime)
	s.mu.RUnlock()

	if elapsed == 0 {
		return 0.0
	}

	return float64(s.Takes()) / elapsed.Seconds()
}

// RejectRate returns the fraction of put attempts refused at capacity
// (0.0 to 1.0). Timed-out puts count as refusals.
func (s *Statistics) RejectRate() float64 {
	puts := s.Puts()
	refused := s.Rejects() + s.Timeouts()

	attempts := puts + refused
	if attempts == 0 {
		return 0.0
	}

	return float64(refused) / float64(attempts)
}

// Utilization returns the current depth as a fraction of capacity (0.0 to 1.0).
func (s *Statistics) Utilization(capacity int64) float64 {
	if capacity == 0 {
		return 0.0
	}

	return float64(s.CurrentDepth()) / float64(capacity)
}

// Uptime returns how long the queue has been running.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset resets all statistics to zero.
func (s *Statistics) Reset() {
	atomic.StoreInt64(&s.puts, 0)
	atomic.StoreInt64(&s.takes, 0)
	atomic.StoreInt64(&s.putBlocks, 0)
	atomic.StoreInt64(&s.takeBlocks, 0)
	atomic.StoreInt64(&s.rejects, 0)
	atomic.StoreInt64(&s.timeouts, 0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.currentDepth = 0
	s.maxDepth = 0
	s.mu.Unlock()
}

// StatsSummary is a point-in-time snapshot of all statistics.
type StatsSummary struct {
	Puts           int64         `json:"puts"`
	Takes          int64         `json:"takes"`
	PutBlocks      int64         `json:"put_blocks"`
	TakeBlocks     int64         `json:"take_blocks"`
	Rejects        int64         `json:"rejects"`
	Timeouts       int64         `json:"timeouts"`
	CurrentDepth   int64         `json:"current_depth"`
	MaxDepth       int64         `json:"max_depth"`
	PutThroughput  float64       `json:"put_throughput"`
	TakeThroughput float64       `json:"take_throughput"`
	RejectRate     float64       `json:"reject_rate"`
	Uptime         time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Puts:           s.Puts(),
		Takes:          s.Takes(),
		PutBlocks:      s.PutBlocks(),
		TakeBlocks:     s.TakeBlocks(),
		Rejects:        s.Rejects(),
		Timeouts:       s.Timeouts(),
		CurrentDepth:   s.CurrentDepth(),
		MaxDepth:       s.MaxDepth(),
		PutThroughput:  s.PutThroughput(),
		TakeThroughput: s.TakeThroughput(),
		RejectRate:     s.RejectRate(),
		Uptime:         s.Uptime(),
	}
}
