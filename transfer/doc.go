// Package transfer runs bulk file transfers for collections of resources.
// It fans a batch of items out over a bounded worker pool and gathers the
// per-item outcomes into a report instead of aborting on the first failure,
// so a large download keeps every file that could be fetched and names the
// items that could not.
//
// Key features:
//   - Bounded concurrency, defaulting to the host's available parallelism
//   - Per-item failure isolation, including panic recovery at the worker
//     boundary
//   - Destination templating with "{attr}" placeholders, fanning out over
//     slice-valued attributes
//   - Aggregate reporting: failure count, failure rate and failed ids
//
// Example usage:
//
//	report := transfer.Run(ctx, items, download, transfer.WithWorkers(8))
//	if err := report.Err(); err != nil {
//		log.Printf("%d items failed: %v", report.FailureCount(), report.FailedIDs())
//	}
package transfer
