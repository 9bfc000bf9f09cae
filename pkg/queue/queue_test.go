package queue

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	cerrors "github.com/c360/orderflow/errors"
	"github.com/c360/orderflow/metric"
	"github.com/stretchr/testify/require"
)

// TestQueueInterface verifies both implementations satisfy the interface.
func TestQueueInterface(t *testing.T) {
	testCases := []struct {
		name  string
		build func() (Queue[int], error)
	}{
		{"Bounded", func() (Queue[int], error) {
			return NewBounded[int](5)
		}},
		{"Priority", func() (Queue[int], error) {
			return NewPriority[int](5, func(a, b int) bool { return a < b })
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := tc.build()
			require.NoError(t, err, "Failed to create queue")
			defer q.Close()

			if q.Len() != 0 {
				t.Errorf("Expected initial length 0, got %d", q.Len())
			}
			if q.Cap() != 5 {
				t.Errorf("Expected capacity 5, got %d", q.Cap())
			}
			if q.Closed() {
				t.Error("Expected queue not to be closed initially")
			}
		})
	}
}

func TestBoundedBasicOperations(t *testing.T) {
	q, err := NewBounded[string](3)
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	ctx := context.Background()

	// Test Put operations
	if err := q.Put(ctx, "first"); err != nil {
		t.Fatalf("Failed to put: %v", err)
	}
	if q.Len() != 1 {
		t.Errorf("Expected length 1, got %d", q.Len())
	}

	if err := q.Put(ctx, "second"); err != nil {
		t.Fatalf("Failed to put: %v", err)
	}
	if err := q.Put(ctx, "third"); err != nil {
		t.Fatalf("Failed to put: %v", err)
	}

	if q.Len() != q.Cap() {
		t.Errorf("Expected queue to be full, length %d of %d", q.Len(), q.Cap())
	}

	// Test Take preserves FIFO order
	for _, want := range []string{"first", "second", "third"} {
		value, err := q.Take(ctx)
		if err != nil {
			t.Fatalf("Failed to take: %v", err)
		}
		if value != want {
			t.Errorf("Expected %q, got %q", want, value)
		}
	}

	if q.Len() != 0 {
		t.Errorf("Expected length 0 after draining, got %d", q.Len())
	}
}

func TestBoundedFIFOOrder(t *testing.T) {
	q, err := NewBounded[int](100)
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	ctx := context.Background()

	for i := 0; i < 100; i++ {
		if err := q.Put(ctx, i); err != nil {
			t.Fatalf("Failed to put %d: %v", i, err)
		}
	}

	for i := 0; i < 100; i++ {
		value, err := q.Take(ctx)
		if err != nil {
			t.Fatalf("Failed to take: %v", err)
		}
		if value != i {
			t.Fatalf("FIFO violation: expected %d, got %d", i, value)
		}
	}
}

func TestTryPutFullQueue(t *testing.T) {
	q, err := NewBounded[int](2)
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	require.NoError(t, q.TryPut(1))
	require.NoError(t, q.TryPut(2))

	err = q.TryPut(3)
	if err == nil {
		t.Fatal("Expected error when queue is full")
	}
	if !errors.Is(err, cerrors.ErrQueueFull) {
		t.Errorf("Expected error to wrap ErrQueueFull, got %v", err)
	}
	if !cerrors.IsTransient(err) {
		t.Error("Full-queue rejection should classify as transient")
	}

	// The rejected item must not displace queued ones
	if q.Len() != 2 {
		t.Errorf("Expected length 2 after rejection, got %d", q.Len())
	}
}

func TestTryTakeEmptyQueue(t *testing.T) {
	q, err := NewBounded[int](2)
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	value, ok := q.TryTake()
	if ok {
		t.Errorf("TryTake on empty queue should return false, got %d", value)
	}

	require.NoError(t, q.TryPut(7))
	value, ok = q.TryTake()
	if !ok || value != 7 {
		t.Errorf("Expected (7, true), got (%d, %v)", value, ok)
	}
}

func TestPutBlocksUntilTake(t *testing.T) {
	q, err := NewBounded[int](2)
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	ctx := context.Background()
	require.NoError(t, q.Put(ctx, 1))
	require.NoError(t, q.Put(ctx, 2))

	var wg sync.WaitGroup
	var putErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		putErr = q.Put(ctx, 3)
	}()

	// Let the put block, then take to open a slot
	time.Sleep(50 * time.Millisecond)

	value, err := q.Take(ctx)
	if err != nil || value != 1 {
		t.Errorf("Expected to take 1, got %d (err=%v)", value, err)
	}

	wg.Wait()

	if putErr != nil {
		t.Errorf("Put should have succeeded after take, got error: %v", putErr)
	}
	if q.Len() != 2 {
		t.Errorf("Expected length 2 after unblocked put, got %d", q.Len())
	}
}

func TestTakeBlocksUntilPut(t *testing.T) {
	q, err := NewBounded[int](2)
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	ctx := context.Background()

	var wg sync.WaitGroup
	var got int
	var takeErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		got, takeErr = q.Take(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, q.Put(ctx, 42))

	wg.Wait()

	if takeErr != nil {
		t.Errorf("Take should have succeeded after put, got error: %v", takeErr)
	}
	if got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
}

func TestPutContextCancellation(t *testing.T) {
	q, err := NewBounded[int](1)
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	require.NoError(t, q.Put(context.Background(), 1))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err = q.Put(ctx, 2)
	elapsed := time.Since(start)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if elapsed < 40*time.Millisecond || elapsed > 200*time.Millisecond {
		t.Errorf("Expected ~50ms cancellation, got %v", elapsed)
	}

	// The cancelled item must not have been enqueued
	if q.Len() != 1 {
		t.Errorf("Expected length 1 after cancelled put, got %d", q.Len())
	}
}

func TestTakeContextCancellation(t *testing.T) {
	q, err := NewBounded[int](1)
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err = q.Take(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if !cerrors.IsCancelled(err) {
		t.Error("Cancelled take should classify as cancellation")
	}
}

func TestPutTimeoutCapacityExpiry(t *testing.T) {
	q, err := NewBounded[int](1)
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	require.NoError(t, q.Put(context.Background(), 1))

	start := time.Now()
	err = q.PutTimeout(2, 100*time.Millisecond)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Expected timeout error when queue stays full")
	}
	if !errors.Is(err, cerrors.ErrCapacityTimeout) {
		t.Errorf("Expected error to wrap ErrCapacityTimeout, got %v", err)
	}
	if !cerrors.IsTransient(err) {
		t.Error("Capacity timeout should classify as transient")
	}
	if elapsed < 90*time.Millisecond || elapsed > 300*time.Millisecond {
		t.Errorf("Expected ~100ms timeout, got %v", elapsed)
	}

	if q.Stats().Timeouts() != 1 {
		t.Errorf("Expected 1 recorded timeout, got %d", q.Stats().Timeouts())
	}
}

func TestPutTimeoutSucceedsWithSpace(t *testing.T) {
	q, err := NewBounded[int](2)
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	if err := q.PutTimeout(1, 100*time.Millisecond); err != nil {
		t.Errorf("PutTimeout with space should succeed, got %v", err)
	}
	if q.Len() != 1 {
		t.Errorf("Expected length 1, got %d", q.Len())
	}
}

func TestCloseIdempotent(t *testing.T) {
	q, err := NewBounded[int](4)
	require.NoError(t, err, "Failed to create queue")

	// Concurrent closes must all succeed and leave one closed queue
	var wg sync.WaitGroup
	closeErrs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			closeErrs[idx] = q.Close()
		}(i)
	}
	wg.Wait()

	for i, err := range closeErrs {
		if err != nil {
			t.Errorf("Close %d returned error: %v", i, err)
		}
	}
	if !q.Closed() {
		t.Error("Expected queue to be closed")
	}
}

func TestDrainAfterClose(t *testing.T) {
	q, err := NewBounded[int](5)
	require.NoError(t, err, "Failed to create queue")

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		require.NoError(t, q.Put(ctx, i))
	}

	require.NoError(t, q.Close())

	// Queued items are still delivered in order after close
	for i := 1; i <= 3; i++ {
		value, err := q.Take(ctx)
		if err != nil {
			t.Fatalf("Expected to drain item %d, got error: %v", i, err)
		}
		if value != i {
			t.Errorf("Expected %d, got %d", i, value)
		}
	}

	// Drained and closed: end of stream
	_, err = q.Take(ctx)
	if err == nil {
		t.Fatal("Expected end-of-stream error after drain")
	}
	if !errors.Is(err, cerrors.ErrClosed) {
		t.Errorf("Expected error to wrap ErrClosed, got %v", err)
	}
}

func TestPutAfterClose(t *testing.T) {
	q, err := NewBounded[int](2)
	require.NoError(t, err, "Failed to create queue")
	require.NoError(t, q.Close())

	err = q.Put(context.Background(), 1)
	if err == nil {
		t.Fatal("Expected error when putting to closed queue")
	}

	var classifiedErr *cerrors.ClassifiedError
	if !errors.As(err, &classifiedErr) {
		t.Error("Expected error to be classified")
	} else {
		if classifiedErr.Class != cerrors.ErrorInvalid {
			t.Errorf("Expected ErrorInvalid class, got %v", classifiedErr.Class)
		}
		if classifiedErr.Component != "Queue" {
			t.Errorf("Expected component 'Queue', got %s", classifiedErr.Component)
		}
	}
	if !errors.Is(err, cerrors.ErrClosed) {
		t.Error("Expected error to wrap ErrClosed")
	}

	if err := q.TryPut(1); !errors.Is(err, cerrors.ErrClosed) {
		t.Errorf("Expected TryPut on closed queue to wrap ErrClosed, got %v", err)
	}
}

func TestCloseUnblocksWaiters(t *testing.T) {
	q, err := NewBounded[int](1)
	require.NoError(t, err, "Failed to create queue")

	require.NoError(t, q.Put(context.Background(), 1))

	var wg sync.WaitGroup
	var putErr, takeErr error

	// Blocked putter: full queue
	wg.Add(1)
	go func() {
		defer wg.Done()
		putErr = q.Put(context.Background(), 2)
	}()

	// Blocked taker on a second queue: empty queue
	empty, err := NewBounded[int](1)
	require.NoError(t, err, "Failed to create queue")

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, takeErr = empty.Take(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, q.Close())
	require.NoError(t, empty.Close())

	wg.Wait()

	if !errors.Is(putErr, cerrors.ErrClosed) {
		t.Errorf("Blocked put should fail with ErrClosed on close, got %v", putErr)
	}
	if !errors.Is(takeErr, cerrors.ErrClosed) {
		t.Errorf("Blocked take should fail with ErrClosed on close, got %v", takeErr)
	}
}

func TestCapacityNeverExceeded(t *testing.T) {
	const capacity = 5
	q, err := NewBounded[int](capacity)
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// Many producers hammering a small queue
	for w := 0; w < 20; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if err := q.Put(ctx, worker*50+i); err != nil {
					return
				}
			}
		}(w)
	}

	// One slow consumer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if _, err := q.Take(ctx); err != nil {
				return
			}
		}
	}()

	// Sample the length while the system churns
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if n := q.Len(); n > capacity {
			t.Fatalf("Capacity bound violated: length %d > capacity %d", n, capacity)
		}
		runtime.Gosched()
	}

	cancel()
	wg.Wait()

	if depth := q.Stats().MaxDepth(); depth > capacity {
		t.Errorf("Recorded max depth %d exceeds capacity %d", depth, capacity)
	}
}

func TestConcurrentProducersConsumers(t *testing.T) {
	q, err := NewBounded[int](10)
	require.NoError(t, err, "Failed to create queue")

	const numProducers = 8
	const itemsPerProducer = 100

	ctx := context.Background()
	var produced, consumed atomic.Int64
	var wg, consumerWg sync.WaitGroup

	for w := 0; w < numProducers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < itemsPerProducer; i++ {
				if err := q.Put(ctx, worker*itemsPerProducer+i); err != nil {
					t.Errorf("Put failed: %v", err)
					return
				}
				produced.Add(1)
			}
		}(w)
	}

	for w := 0; w < 4; w++ {
		consumerWg.Add(1)
		go func() {
			defer consumerWg.Done()
			for {
				if _, err := q.Take(ctx); err != nil {
					return // closed and drained
				}
				consumed.Add(1)
			}
		}()
	}

	wg.Wait()
	require.NoError(t, q.Close())
	consumerWg.Wait()

	// Every produced item must be consumed exactly once
	if produced.Load() != int64(numProducers*itemsPerProducer) {
		t.Errorf("Expected %d produced, got %d", numProducers*itemsPerProducer, produced.Load())
	}
	if consumed.Load() != produced.Load() {
		t.Errorf("Conservation violated: produced=%d consumed=%d remaining=%d",
			produced.Load(), consumed.Load(), q.Len())
	}

	stats := q.Stats()
	if stats.Puts() != produced.Load() || stats.Takes() != consumed.Load() {
		t.Errorf("Stats mismatch: puts=%d takes=%d", stats.Puts(), stats.Takes())
	}
}

func TestPriorityOrdering(t *testing.T) {
	q, err := NewPriority[int](10, func(a, b int) bool { return a < b })
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	ctx := context.Background()
	for _, v := range []int{5, 3, 8, 1, 9, 2} {
		require.NoError(t, q.Put(ctx, v))
	}

	want := []int{1, 2, 3, 5, 8, 9}
	for _, expected := range want {
		value, err := q.Take(ctx)
		if err != nil {
			t.Fatalf("Failed to take: %v", err)
		}
		if value != expected {
			t.Errorf("Expected %d, got %d", expected, value)
		}
	}
}

func TestPriorityFIFOWithinEqual(t *testing.T) {
	type job struct {
		priority int
		id       string
	}

	q, err := NewPriority[job](10, func(a, b job) bool { return a.priority < b.priority })
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	ctx := context.Background()
	jobs := []job{
		{1, "a"},
		{1, "b"},
		{0, "urgent"},
		{1, "c"},
	}
	for _, j := range jobs {
		require.NoError(t, q.Put(ctx, j))
	}

	want := []string{"urgent", "a", "b", "c"}
	for _, expected := range want {
		j, err := q.Take(ctx)
		if err != nil {
			t.Fatalf("Failed to take: %v", err)
		}
		if j.id != expected {
			t.Errorf("Expected %q, got %q", expected, j.id)
		}
	}
}

func TestPriorityNilLess(t *testing.T) {
	_, err := NewPriority[int](5, nil)
	if err == nil {
		t.Fatal("Expected error for nil less function")
	}
	if !errors.Is(err, cerrors.ErrInvalidConfig) {
		t.Errorf("Expected error to wrap ErrInvalidConfig, got %v", err)
	}
}

func TestPriorityBlockingContract(t *testing.T) {
	// Priority queues share the bounded blocking contract
	q, err := NewPriority[int](1, func(a, b int) bool { return a < b })
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	ctx := context.Background()
	require.NoError(t, q.Put(ctx, 1))

	err = q.PutTimeout(2, 50*time.Millisecond)
	if !errors.Is(err, cerrors.ErrCapacityTimeout) {
		t.Errorf("Expected ErrCapacityTimeout, got %v", err)
	}
}

func TestMinimumCapacity(t *testing.T) {
	q, err := NewBounded[int](0)
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	if q.Cap() != 1 {
		t.Errorf("Expected capacity raised to 1, got %d", q.Cap())
	}
}

func TestStatisticsTracking(t *testing.T) {
	q, err := NewBounded[int](2)
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	ctx := context.Background()
	require.NoError(t, q.Put(ctx, 1))
	require.NoError(t, q.Put(ctx, 2))

	_ = q.TryPut(3) // rejected at capacity

	if _, err := q.Take(ctx); err != nil {
		t.Fatalf("Failed to take: %v", err)
	}

	stats := q.Stats()
	if stats.Puts() != 2 {
		t.Errorf("Expected 2 puts, got %d", stats.Puts())
	}
	if stats.Takes() != 1 {
		t.Errorf("Expected 1 take, got %d", stats.Takes())
	}
	if stats.Rejects() != 1 {
		t.Errorf("Expected 1 reject, got %d", stats.Rejects())
	}
	if stats.MaxDepth() != 2 {
		t.Errorf("Expected max depth 2, got %d", stats.MaxDepth())
	}
	if stats.CurrentDepth() != 1 {
		t.Errorf("Expected current depth 1, got %d", stats.CurrentDepth())
	}

	summary := stats.Summary()
	if summary.Puts != 2 || summary.Rejects != 1 {
		t.Errorf("Summary mismatch: %+v", summary)
	}
}

func TestQueueWithMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()

	q, err := NewBounded[int](4, WithMetrics[int](registry, "intake"))
	require.NoError(t, err, "Failed to create queue with metrics")
	defer q.Close()

	ctx := context.Background()
	require.NoError(t, q.Put(ctx, 1))

	// A second queue with the same name must collide in the registry
	_, err = NewBounded[int](4, WithMetrics[int](registry, "intake"))
	if err == nil {
		t.Error("Expected duplicate metrics registration to fail")
	}

	// A differently named queue registers cleanly
	_, err = NewBounded[int](4, WithMetrics[int](registry, "dispatch"))
	if err != nil {
		t.Errorf("Differently named queue should register: %v", err)
	}
}

func TestNoGoroutineLeaks(t *testing.T) {
	initialGoroutines := runtime.NumGoroutine()

	q, err := NewBounded[int](1)
	require.NoError(t, err, "Failed to create queue")
	defer q.Close()

	require.NoError(t, q.Put(context.Background(), 1))

	// Repeated expired waits must not leave watcher goroutines behind
	for i := 0; i < 10; i++ {
		_ = q.PutTimeout(i, 10*time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	finalGoroutines := runtime.NumGoroutine()
	if finalGoroutines > initialGoroutines+2 {
		t.Errorf("Potential goroutine leak: started with %d, ended with %d",
			initialGoroutines, finalGoroutines)
	}
}

func BenchmarkBoundedPutTake(b *testing.B) {
	q, err := NewBounded[int](1024)
	if err != nil {
		b.Fatalf("Failed to create queue: %v", err)
	}
	defer q.Close()

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = q.Put(ctx, i)
		_, _ = q.Take(ctx)
	}
}

func BenchmarkBoundedTryPutTryTake(b *testing.B) {
	q, err := NewBounded[int](1024)
	if err != nil {
		b.Fatalf("Failed to create queue: %v", err)
	}
	defer q.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = q.TryPut(i)
		_, _ = q.TryTake()
	}
}

func BenchmarkPriorityPutTake(b *testing.B) {
	q, err := NewPriority[int](1024, func(a, b int) bool { return a < b })
	if err != nil {
		b.Fatalf("Failed to create queue: %v", err)
	}
	defer q.Close()

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = q.Put(ctx, i)
		_, _ = q.Take(ctx)
	}
}

func BenchmarkBoundedConcurrent(b *testing.B) {
	q, err := NewBounded[int](1024)
	if err != nil {
		b.Fatalf("Failed to create queue: %v", err)
	}
	defer q.Close()

	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = q.Put(ctx, 1)
			_, _ = q.Take(ctx)
		}
	})
}
