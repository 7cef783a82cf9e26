package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"media-gallery/internal/logging"
	"media-gallery/internal/mediatypes"
	"media-gallery/internal/metrics"
	"media-gallery/internal/pipeline"
	"media-gallery/internal/workers"
)

// Config configures a library scan.
type Config struct {
	// NumWorkers is the number of parallel ingest workers (0 = auto).
	NumWorkers int
	// ChannelBuffer is the size of the work channel buffer.
	ChannelBuffer int
	// SkipHidden skips files and directories starting with ".".
	SkipHidden bool
}

// DefaultConfig returns sensible defaults based on available resources.
func DefaultConfig() Config {
	return Config{
		NumWorkers:    workers.ForIO(8),
		ChannelBuffer: 256,
		SkipHidden:    true,
	}
}

// Stats summarizes one scan run.
type Stats struct {
	Ingested int64
	Skipped  int64
	Errors   int64
	Duration time.Duration
}

// Scanner walks a media directory and feeds image files to the pipeline.
type Scanner struct {
	pipe     *pipeline.Pipeline
	mediaDir string
	config   Config

	ingested atomic.Int64
	skipped  atomic.Int64
	errors   atomic.Int64
}

// New creates a Scanner over mediaDir.
func New(pipe *pipeline.Pipeline, mediaDir string, config Config) *Scanner {
	if config.NumWorkers <= 0 {
		config.NumWorkers = workers.ForIO(8)
	}
	if config.ChannelBuffer <= 0 {
		config.ChannelBuffer = 256
	}
	return &Scanner{
		pipe:     pipe,
		mediaDir: mediaDir,
		config:   config,
	}
}

// Scan walks the media directory once, ingesting every supported image
// file. Per-file failures are counted and logged but never abort the walk.
func (s *Scanner) Scan(ctx context.Context) (Stats, error) {
	logging.Info("Starting library scan of %s with %d workers", s.mediaDir, s.config.NumWorkers)
	start := time.Now()
	metrics.ScanRunsTotal.Inc()

	s.ingested.Store(0)
	s.skipped.Store(0)
	s.errors.Store(0)

	jobs := make(chan string, s.config.ChannelBuffer)

	var wg sync.WaitGroup
	for i := 0; i < s.config.NumWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.worker(ctx, id, jobs)
		}(i)
	}

	err := filepath.WalkDir(s.mediaDir, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return fs.SkipAll
		default:
		}

		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			s.errors.Add(1)
			return nil // continue walking
		}

		if s.config.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if mediatypes.GetFileType(ext) != mediatypes.FileTypeImage {
			s.skipped.Add(1)
			return nil
		}

		select {
		case jobs <- path:
		case <-ctx.Done():
			return fs.SkipAll
		}
		return nil
	})

	close(jobs)
	wg.Wait()

	stats := Stats{
		Ingested: s.ingested.Load(),
		Skipped:  s.skipped.Load(),
		Errors:   s.errors.Load(),
		Duration: time.Since(start),
	}
	logging.Info("Scan complete: %d ingested, %d skipped, %d errors in %v",
		stats.Ingested, stats.Skipped, stats.Errors, stats.Duration)
	return stats, err
}

func (s *Scanner) worker(ctx context.Context, id int, jobs <-chan string) {
	logging.Debug("Scan worker %d started", id)

	for path := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if _, err := s.pipe.Ingest(ctx, path); err != nil {
			// One bad file must not stop the scan.
			logging.Warn("Scan: failed to ingest %s: %v", path, err)
			s.errors.Add(1)
			metrics.ScanErrors.Inc()
			continue
		}
		s.ingested.Add(1)
		metrics.ScanFilesProcessed.Inc()
	}

	logging.Debug("Scan worker %d finished", id)
}
