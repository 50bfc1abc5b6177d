// Package services defines shared utilities consumed by the download pipeline
// and the manifest tooling.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, task keys, and component names for
//     logging and the run ledger.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent dead-letter classifications (content vs network vs
//     storage).
//
// Use these helpers when wiring new pipeline steps so operational behaviour
// (error handling, observability, retries) stays uniform across the tool.
package services
