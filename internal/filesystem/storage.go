package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"media-gallery/internal/logging"
)

// Storage abstracts file access so the pipeline and its tests can run
// against any backing store.
type Storage interface {
	Read(path string) ([]byte, error)
	Write(path string, data []byte) error
	Exists(path string) bool
	Delete(path string) error
}

// RetryConfig configures retry behavior for filesystem operations.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// DiskStorage is the local-filesystem Storage implementation.
type DiskStorage struct {
	retry RetryConfig
}

// NewDiskStorage creates a DiskStorage with the given retry policy.
func NewDiskStorage(retry RetryConfig) *DiskStorage {
	return &DiskStorage{retry: retry}
}

// Read reads the file at path, retrying stale-handle errors.
func (s *DiskStorage) Read(path string) ([]byte, error) {
	var data []byte
	err := s.withRetry("read", path, func() error {
		var err error
		data, err = os.ReadFile(path)
		return err
	})
	return data, err
}

// Write writes data to path, retrying stale-handle errors.
func (s *DiskStorage) Write(path string, data []byte) error {
	return s.withRetry("write", path, func() error {
		return os.WriteFile(path, data, 0o644)
	})
}

// Exists reports whether path exists.
func (s *DiskStorage) Exists(path string) bool {
	var exists bool
	_ = s.withRetry("stat", path, func() error {
		_, err := os.Stat(path)
		if err == nil {
			exists = true
			return nil
		}
		if os.IsNotExist(err) {
			exists = false
			return nil
		}
		return err
	})
	return exists
}

// Delete removes path. A missing file is not an error.
func (s *DiskStorage) Delete(path string) error {
	return s.withRetry("delete", path, func() error {
		err := os.Remove(path)
		if os.IsNotExist(err) {
			return nil
		}
		return err
	})
}

func (s *DiskStorage) withRetry(op, path string, fn func() error) error {
	var lastErr error
	backoff := s.retry.InitialBackoff

	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", op, attempt, path)
			}
			return nil
		}

		lastErr = err

		// Only stale file handles are worth retrying; everything else
		// fails immediately.
		if !isNFSStaleError(err) {
			return err
		}

		if attempt < s.retry.MaxRetries {
			logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
				op, path, backoff, attempt+1, s.retry.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > s.retry.MaxBackoff {
				backoff = s.retry.MaxBackoff
			}
		}
	}

	logging.Warn("NFS %s failed after %d retries for %s: %v", op, s.retry.MaxRetries, path, lastErr)
	return lastErr
}

// isNFSStaleError checks if an error is an NFS stale file handle error
// (ESTALE, errno 116 on Linux).
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}

	return false
}
