// Package core runs column type inference as asynchronous jobs.
//
// This package holds the job lifecycle independent of any transport. It is
// used by the HTTP server and can be driven directly from tests.
//
// # Lifecycle
//
// A client hands [Service.Submit] the absolute path of a file already on
// disk and gets a job id back at once. A worker later picks the job up:
//
//	PENDING -> PROCESSING -> SUCCESS | FAILURE
//
// Each edge is applied by [Store.Transition] as a compare-and-set on the
// prior state, so a poller calling [Service.Status] never sees the states
// out of order. The source file is removed exactly once per job, after the
// engine has produced its outcome and before that outcome is published.
//
// Jobs are never retried. A job that fails carries a message built by
// [FormatUserError]; the technical error goes to the log tagged with the
// job id.
//
// # Storage
//
// [MemoryStore] keeps jobs in process. [PostgresStore] keeps them in the
// inference_jobs table so several server processes can share one view.
// Finished jobs are deleted after a retention window by
// [Service.StartRetentionSweeper].
//
// # Backpressure
//
// A [Limiter] bounds jobs that are queued or running. Submit fails fast with
// [ErrQueueFull] instead of blocking the request that called it.
//
// # Error Codes
//
//   - FILE001-FILE007: File errors (size, format, encoding, missing)
//   - JOB001-JOB004: Job errors (unknown id, queue full, shutdown, timeout)
//   - INF001: Inference failed for another reason
//   - UPL002-UPL005: Upload errors (busy, cancelled, timeout)
//   - RATE001: Rate limiting
//   - ERR000: Unknown error (check logs)
package core
