// Package models defines the data passed through the preview pipeline.
//
//   - [TrackDescriptor] : a search result, optionally carrying a preview URL
//   - [FetchResult] : the single outcome recorded for every playable descriptor
//   - [PipelineState] : per-track progress through fetch and playback
//
// Descriptors are immutable once decoded; results are produced by the scheduler in completion order.
package models
