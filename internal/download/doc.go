// Package download runs a task list through a bounded pool of fetch workers.
//
// Head tasks are a single download. Spine groups download their three files
// and are then normalized, which renames them after the identity declared in
// the atlas. Workers never touch the manifest: each settled task is sent to a
// single aggregator goroutine that owns the tree, records dead letters and
// reports progress. Tasks that fail after the fetch worker's retries, or
// whose content is malformed, end up in Result.Failures and in the run ledger.
package download
