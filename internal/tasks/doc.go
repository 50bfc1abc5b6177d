// Package tasks expands scraped agent records into download tasks.
//
// An agent contributes one head task per icon variant and one spine-group
// task per (skin, model) pair. Spine groups bundle the texture, skeleton and
// atlas files that share a remote base URL; they are fetched and normalized
// as a unit by the download orchestrator.
package tasks
