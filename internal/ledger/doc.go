// Package ledger records download runs and their dead-lettered tasks in
// SQLite.
//
// The ledger is an audit trail: each run stores its task totals and each task
// that exhausted its retries, failed normalization or could not be written
// gets a failure row with its classification. Runs never resume from it.
package ledger
