// Package services defines shared utilities consumed by the download workflow
// and the engine adapters.
//
// Key responsibilities:
//   - Context helpers that stamp queue item IDs, attempt numbers, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that let the retry policy
//     tell transient failures from terminal ones without string matching.
//
// Use these helpers when wiring new engine code so failures classify the same
// way across the pipeline.
package services
