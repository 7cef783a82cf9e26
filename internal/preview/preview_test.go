package preview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// newTestQueue returns a queue whose render function is replaced, so tests
// exercise the scheduling machinery without touching image files.
func newTestQueue(t *testing.T, workers int, render func(Request) ([]byte, error)) *Queue {
	t.Helper()
	q := NewQueue(workers, time.Millisecond)
	q.render = render
	t.Cleanup(q.Close)
	return q
}

func req(n int) Request {
	return Request{Path: fmt.Sprintf("/media/photo-%d.jpg", n), Size: int64(n * 1000), MimeType: "image/jpeg"}
}

func TestGetRendersAndCaches(t *testing.T) {
	t.Parallel()

	var renders atomic.Int64
	q := newTestQueue(t, 3, func(r Request) ([]byte, error) {
		renders.Add(1)
		return []byte(r.Path), nil
	})

	h1, err := q.Get(context.Background(), req(1))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer h1.Release()
	if string(h1.Bytes()) != "/media/photo-1.jpg" {
		t.Errorf("unexpected bytes: %q", h1.Bytes())
	}

	// Second request hits the cache
	h2, err := q.Get(context.Background(), req(1))
	if err != nil {
		t.Fatal(err)
	}
	defer h2.Release()

	if renders.Load() != 1 {
		t.Errorf("renders = %d, want 1", renders.Load())
	}
	if h1 != h2 {
		t.Error("cache hit should return the same handle")
	}
}

// TestConcurrencyBound floods the queue and verifies no more than
// `workers` renders ever run at once.
func TestConcurrencyBound(t *testing.T) {
	t.Parallel()

	const workers = 3
	const jobs = 10

	var current, peak atomic.Int64
	q := newTestQueue(t, workers, func(r Request) ([]byte, error) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		current.Add(-1)
		return []byte("x"), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := q.Get(context.Background(), req(i))
			if err != nil {
				t.Errorf("Get(%d): %v", i, err)
				return
			}
			h.Release()
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > workers {
		t.Errorf("peak concurrent renders = %d, want <= %d", p, workers)
	}
}

// TestCoalescing issues concurrent requests for one fingerprint and
// expects a single render.
func TestCoalescing(t *testing.T) {
	t.Parallel()

	var renders atomic.Int64
	release := make(chan struct{})
	q := newTestQueue(t, 3, func(r Request) ([]byte, error) {
		renders.Add(1)
		<-release
		return []byte("y"), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := q.Get(context.Background(), req(42))
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			h.Release()
		}()
	}

	// Give the waiters time to pile onto the same job, then let it finish
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if renders.Load() != 1 {
		t.Errorf("renders = %d, want 1", renders.Load())
	}
}

func TestRenderFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("decode failed")
	q := newTestQueue(t, 3, func(r Request) ([]byte, error) {
		if r.Path == "/media/photo-1.jpg" {
			return nil, boom
		}
		return []byte("ok"), nil
	})

	if _, err := q.Get(context.Background(), req(1)); !errors.Is(err, boom) {
		t.Errorf("expected render error, got %v", err)
	}

	// A failed job must not poison its batch-mates
	h, err := q.Get(context.Background(), req(2))
	if err != nil {
		t.Fatalf("Get(2): %v", err)
	}
	h.Release()
}

// TestAbandonedResultStaysCached cancels the waiting context and then
// verifies a later request finds the result without re-rendering.
func TestAbandonedResultStaysCached(t *testing.T) {
	t.Parallel()

	var renders atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})
	q := newTestQueue(t, 1, func(r Request) ([]byte, error) {
		renders.Add(1)
		close(started)
		<-release
		return []byte("slow"), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	if _, err := q.Get(ctx, req(7)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(release)

	// Poll until the in-flight render lands in the cache
	deadline := time.After(2 * time.Second)
	for {
		h, err := q.Get(context.Background(), req(7))
		if err == nil {
			h.Release()
			break
		}
		select {
		case <-deadline:
			t.Fatal("abandoned result never became available")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if renders.Load() != 1 {
		t.Errorf("renders = %d, want 1 (abandoned result should be reused)", renders.Load())
	}
}

func TestHandleRelease(t *testing.T) {
	t.Parallel()

	h := newHandle([]byte("data"))
	h.retain() // simulate a consumer reference on top of the cache's

	if h.Bytes() == nil {
		t.Fatal("live handle lost its data")
	}

	h.Release()
	if h.Bytes() == nil {
		t.Fatal("data discarded while a reference remains")
	}

	h.Release()
	if h.Bytes() != nil {
		t.Error("data retained after last release")
	}

	// Extra releases must be harmless
	h.Release()
}

func TestCacheReplacementReleasesOldHandle(t *testing.T) {
	t.Parallel()

	q := newTestQueue(t, 1, func(r Request) ([]byte, error) {
		return []byte(r.Path), nil
	})

	h1, err := q.Get(context.Background(), req(3))
	if err != nil {
		t.Fatal(err)
	}
	h1.Release() // drop the consumer ref; cache ref keeps data alive
	if h1.Bytes() == nil {
		t.Fatal("cache reference should keep handle alive")
	}

	q.Evict(req(3))
	if h1.Bytes() != nil {
		t.Error("evicted handle should discard its data once unreferenced")
	}
}

func TestCloseFailsNewRequests(t *testing.T) {
	t.Parallel()

	q := NewQueue(2, time.Millisecond)
	q.render = func(r Request) ([]byte, error) { return []byte("z"), nil }
	q.Close()

	if _, err := q.Get(context.Background(), req(1)); err == nil {
		t.Error("expected error after Close")
	}
}

func TestFingerprintDistinguishesRequests(t *testing.T) {
	t.Parallel()

	base := Request{Path: "/a.jpg", Size: 100, MimeType: "image/jpeg"}
	variants := []Request{
		{Path: "/b.jpg", Size: 100, MimeType: "image/jpeg"},
		{Path: "/a.jpg", Size: 101, MimeType: "image/jpeg"},
		{Path: "/a.jpg", Size: 100, MimeType: "image/png"},
	}

	for _, v := range variants {
		if v.fingerprint() == base.fingerprint() {
			t.Errorf("fingerprint collision: %+v vs %+v", base, v)
		}
	}

	same := Request{Path: "/a.jpg", Size: 100, MimeType: "image/jpeg"}
	if same.fingerprint() != base.fingerprint() {
		t.Error("identical requests must share a fingerprint")
	}
}
