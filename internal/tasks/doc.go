// Package tasks runs preview pipelines with bounded concurrency and real-time progress reporting.
//
// # Core Operations
//
//  1. [Scheduler.Run] : one pipeline per playable track
//     - Pending: waits for a slot in the concurrency budget (a weighted semaphore of size N)
//     - Fetching: downloads the preview through a [services.Fetcher] (retries live there)
//     - Playing: plays the payload on a fresh sink from the [SinkFactory]
//     - Returns exactly one [models.FetchResult] per playable track, in completion order
//
//  2. [RecommendationService.Recommend] : search, then [Scheduler.Run]
//     - A failed search returns [*QueryError] and nothing is fetched
//     - Per-track failures are counted, never returned as errors
//
// A failing pipeline never cancels its siblings, and there is no global timeout; cancel the
// context to stop a run.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates are sent with select/default so a slow or absent reader never blocks a pipeline.
package tasks
