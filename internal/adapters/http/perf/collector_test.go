package perf

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// TestCollector_RecordAndSnapshot verifies basic aggregation.
func TestCollector_RecordAndSnapshot(t *testing.T) {
	c := NewCollector(16)
	now := time.Now()

	c.Record(Entry{Kind: KindRequest, Path: "GET /api", StatusCode: 200, DurationMs: 10, Timestamp: now})
	c.Record(Entry{Kind: KindRequest, Path: "GET /api", StatusCode: 200, DurationMs: 30, Timestamp: now})
	c.Record(Entry{Kind: KindQuery, Path: "QueryContext", DurationMs: 2, Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Minute))
	if snap.TotalRecorded != 3 {
		t.Errorf("TotalRecorded = %d, want 3", snap.TotalRecorded)
	}
	if len(snap.Requests) != 1 {
		t.Fatalf("Requests = %v, want one path", snap.Requests)
	}
	if got := snap.Requests[0]; got.Count != 2 || got.AvgMs != 20 || got.MaxMs != 30 {
		t.Errorf("request stat = %+v, want count=2 avg=20 max=30", got)
	}
	if len(snap.Queries) != 1 || snap.Queries[0].Count != 1 {
		t.Errorf("Queries = %v, want one query entry", snap.Queries)
	}
}

// TestCollector_RingOverwrite verifies old entries are overwritten, not grown.
func TestCollector_RingOverwrite(t *testing.T) {
	c := NewCollector(4)
	now := time.Now()
	for i := 0; i < 10; i++ {
		c.Record(Entry{Kind: KindRequest, Path: fmt.Sprintf("GET /p%d", i), DurationMs: 1, Timestamp: now})
	}

	snap := c.Snapshot(now.Add(-time.Minute))
	if snap.TotalRecorded != 10 {
		t.Errorf("TotalRecorded = %d, want 10", snap.TotalRecorded)
	}
	if len(snap.Requests) != 4 {
		t.Errorf("retained paths = %d, want ring size 4", len(snap.Requests))
	}
}

// TestCollector_SinceFilter verifies entries before the cutoff are excluded.
func TestCollector_SinceFilter(t *testing.T) {
	c := NewCollector(8)
	old := time.Now().Add(-time.Hour)
	c.Record(Entry{Kind: KindRequest, Path: "GET /old", DurationMs: 5, Timestamp: old})
	c.Record(Entry{Kind: KindRequest, Path: "GET /new", DurationMs: 5, Timestamp: time.Now()})

	snap := c.Snapshot(time.Now().Add(-time.Minute))
	if len(snap.Requests) != 1 || snap.Requests[0].Path != "GET /new" {
		t.Errorf("Requests = %v, want only GET /new", snap.Requests)
	}
}

// TestCollector_ConcurrentRecord verifies Record is safe under concurrency.
func TestCollector_ConcurrentRecord(t *testing.T) {
	c := NewCollector(128)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Record(Entry{Kind: KindQuery, Path: "ExecContext", DurationMs: 1, Timestamp: time.Now()})
			}
		}()
	}
	wg.Wait()

	if got := c.TotalRecorded(); got != 800 {
		t.Errorf("TotalRecorded = %d, want 800", got)
	}
}
