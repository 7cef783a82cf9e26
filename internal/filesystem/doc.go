// Package filesystem is the file-storage capability consumed by the
// derived-asset pipeline: read, write, exists, delete. Operations retry
// with exponential backoff on NFS stale-handle errors, which show up when
// the media library lives on network storage.
package filesystem
