// Package preview schedules quick, low-fidelity preview thumbnails with
// bounded concurrency so gallery browsing gets instant feedback without
// saturating the process.
//
// Jobs run in FIFO batches of at most K (default 3): a batch executes
// concurrently with best-effort semantics (one job failing does not cancel
// its batch-mates), and the queue pauses briefly between batches. Results
// are refcounted in-memory handles cached by a content fingerprint
// (path + size + declared type); cache hits bypass the queue entirely, and
// replacing a cache entry releases the handle it displaces.
//
// Enqueueing is lazy by design: callers request a preview only once its
// consumer is actually visible, and a caller that loses interest simply
// abandons the wait; the rendered handle stays cached for the next
// request.
package preview
