// Package pipeline enriches business records with website contact data.
//
// A record passes through a sequence of steps: distance from the reference
// point, the website presence check, the site-builder check and finally the
// crawl. Each step is a Step that receives the record and can modify it; a
// step that settles the record on its own returns ErrSkipRemaining.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context between steps
//
// BatchProcessor runs the pipeline over a list of records; the primary pass
// is sequential by default. RetryCoordinator re-crawls the sites that failed
// concurrently with bounded parallelism, and MergeRecovered folds what it
// finds back into the records.
package pipeline
