package preview

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"media-gallery/internal/exifdata"
	"media-gallery/internal/logging"
	"media-gallery/internal/metrics"
	"media-gallery/internal/raster"
)

const (
	// defaultWorkers bounds how many preview jobs run concurrently.
	defaultWorkers = 3
	// defaultPause is the yield between batches.
	defaultPause = 50 * time.Millisecond

	previewMaxEdge = 160
	previewQuality = 70
)

// Request identifies one preview job. Path, size, and declared type
// together form the cache fingerprint.
type Request struct {
	Path     string
	Size     int64
	MimeType string
}

func (r Request) fingerprint() string {
	return fmt.Sprintf("%s|%d|%s", r.Path, r.Size, r.MimeType)
}

// Handle is a refcounted, releasable in-memory preview image. Consumers
// must call Release when the preview is no longer displayed; after the
// last reference is released the pixel data is discarded.
type Handle struct {
	mu   sync.Mutex
	data []byte
	refs int
}

func newHandle(data []byte) *Handle {
	return &Handle{data: data, refs: 1}
}

// Bytes returns the encoded preview, or nil after the handle has been
// fully released.
func (h *Handle) Bytes() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.data
}

// Release drops one reference. The data is freed when the last reference
// goes away. Releasing more times than retained is a no-op.
func (h *Handle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.refs == 0 {
		return
	}
	h.refs--
	if h.refs == 0 {
		h.data = nil
	}
}

func (h *Handle) retain() {
	h.mu.Lock()
	h.refs++
	h.mu.Unlock()
}

type job struct {
	req    Request
	key    string
	done   chan struct{}
	handle *Handle
	err    error
}

// Queue is a constructed scheduler owning its own cache and concurrency
// state, so independent instances never interfere.
type Queue struct {
	workers int
	pause   time.Duration

	mu      sync.Mutex
	cache   map[string]*Handle
	pending []*job
	byKey   map[string]*job
	closed  bool

	notify chan struct{}
	quit   chan struct{}
	done   chan struct{}

	inFlight atomic.Int64

	// render is swappable for tests.
	render func(Request) ([]byte, error)
}

// NewQueue creates and starts a preview queue. workers <= 0 selects the
// default bound of 3; pause <= 0 selects the default inter-batch pause.
func NewQueue(workers int, pause time.Duration) *Queue {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if pause <= 0 {
		pause = defaultPause
	}

	q := &Queue{
		workers: workers,
		pause:   pause,
		cache:   make(map[string]*Handle),
		byKey:   make(map[string]*job),
		notify:  make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	q.render = q.renderPreview

	go q.run()
	return q
}

// Close stops the dispatcher and releases every cached handle. Pending
// jobs fail with a closed-queue error.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for _, h := range q.cache {
		h.Release()
	}
	q.cache = make(map[string]*Handle)
	q.mu.Unlock()

	close(q.quit)
	<-q.done
}

// Get returns a preview handle for the request, rendering through the
// bounded queue on a cache miss. The caller owns one reference on the
// returned handle and must Release it. If ctx expires first, the eventual
// result is simply left in the cache for later requests.
func (q *Queue) Get(ctx context.Context, req Request) (*Handle, error) {
	key := req.fingerprint()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, fmt.Errorf("preview queue closed")
	}
	if h, ok := q.cache[key]; ok {
		h.retain()
		q.mu.Unlock()
		metrics.PreviewCacheHits.Inc()
		return h, nil
	}
	metrics.PreviewCacheMisses.Inc()

	// Coalesce concurrent requests for the same fingerprint onto one job.
	j, ok := q.byKey[key]
	if !ok {
		j = &job{req: req, key: key, done: make(chan struct{})}
		q.pending = append(q.pending, j)
		q.byKey[key] = j
		metrics.PreviewQueueDepth.Set(float64(len(q.pending)))
	}
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}

	select {
	case <-j.done:
		if j.err != nil {
			return nil, j.err
		}
		j.handle.retain()
		return j.handle, nil
	case <-ctx.Done():
		// Implicit cancellation: the in-flight work completes and its
		// result lands in the cache, but this caller no longer waits.
		return nil, ctx.Err()
	}
}

// InFlight reports how many jobs are currently executing.
func (q *Queue) InFlight() int64 {
	return q.inFlight.Load()
}

// run is the dispatcher loop: pull up to `workers` jobs, execute the batch
// concurrently, wait it out, pause, repeat.
func (q *Queue) run() {
	defer close(q.done)

	for {
		batch := q.takeBatch()
		if batch == nil {
			select {
			case <-q.notify:
				continue
			case <-q.quit:
				q.failPending()
				return
			}
		}

		var wg sync.WaitGroup
		for _, j := range batch {
			wg.Add(1)
			go func(j *job) {
				defer wg.Done()
				q.execute(j)
			}(j)
		}
		wg.Wait()

		select {
		case <-time.After(q.pause):
		case <-q.quit:
			q.failPending()
			return
		}
	}
}

func (q *Queue) takeBatch() []*job {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}

	n := q.workers
	if n > len(q.pending) {
		n = len(q.pending)
	}
	batch := q.pending[:n]
	q.pending = append([]*job(nil), q.pending[n:]...)
	metrics.PreviewQueueDepth.Set(float64(len(q.pending)))
	return batch
}

func (q *Queue) failPending() {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.byKey = make(map[string]*job)
	metrics.PreviewQueueDepth.Set(0)
	q.mu.Unlock()

	for _, j := range pending {
		j.err = fmt.Errorf("preview queue closed")
		close(j.done)
	}
}

// execute renders one job. A failure is recorded on the job alone;
// batch-mates proceed unaffected.
func (q *Queue) execute(j *job) {
	q.inFlight.Add(1)
	metrics.PreviewJobsInFlight.Inc()
	defer func() {
		q.inFlight.Add(-1)
		metrics.PreviewJobsInFlight.Dec()
	}()

	data, err := q.render(j.req)

	q.mu.Lock()
	delete(q.byKey, j.key)
	if err == nil {
		h := newHandle(data)
		// The cache owns the handle's initial reference; a displaced
		// entry is released so memory cannot grow without bound.
		if old, ok := q.cache[j.key]; ok {
			old.Release()
		}
		q.cache[j.key] = h
		j.handle = h
	} else {
		j.err = err
		logging.Debug("preview render failed for %s: %v", j.req.Path, err)
	}
	q.mu.Unlock()

	close(j.done)
}

// Evict removes and releases one cached preview, for consumers that know
// the underlying file changed.
func (q *Queue) Evict(req Request) {
	key := req.fingerprint()
	q.mu.Lock()
	if h, ok := q.cache[key]; ok {
		delete(q.cache, key)
		h.Release()
	}
	q.mu.Unlock()
}

// renderPreview is the default job body: same orientation correction as
// the persistent thumbnail pipeline, lower fidelity output.
func (q *Queue) renderPreview(req Request) ([]byte, error) {
	orientation := raster.NormalizeOrientation(exifdata.Orientation(req.Path))

	src, err := raster.Decode(req.Path)
	if err != nil {
		return nil, fmt.Errorf("preview decode: %w", err)
	}

	small := raster.Sharpen(raster.Fit(raster.Orient(src, orientation), previewMaxEdge))

	var buf bytes.Buffer
	if err := raster.EncodeJPEG(&buf, small, previewQuality); err != nil {
		return nil, fmt.Errorf("preview encode: %w", err)
	}
	return buf.Bytes(), nil
}
