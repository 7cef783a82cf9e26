// Package workers determines worker pool sizes that respect container CPU
// limits. Go 1.19+ sets GOMAXPROCS from cgroup constraints, so sizing pools
// from GOMAXPROCS (rather than runtime.NumCPU, which reports the host's
// cores) keeps concurrency proportional to what the container actually has.
//
// Pools for CPU-bound work (image decode/encode) should use ForCPU, pools
// for I/O-bound work (directory scans) ForIO. Both can be overridden with
// the GALLERY_WORKERS environment variable.
package workers
