// Package workflow drives requests through the staged processing pipeline.
//
// Each request runs on its own goroutine through a fixed stage sequence:
// validation, preprocessing, processing, postprocessing, storage, and
// notification. After every stage a decision function inspects the shared
// state record; an error diverts the run to the terminal error handler, which
// logs the failure and produces a failed result. Notification is best-effort
// and demotes its own failures to warnings.
//
// The engine shares three process-wide structures across in-flight runs: the
// active-request registry, the metrics aggregator, and the result ledger.
// All three tolerate concurrent updates; everything else in a run is private
// to its state record.
package workflow
