// Package fetch downloads single files over HTTP with bounded retries.
//
// Every network or HTTP failure is retried with exponential backoff until the
// attempt budget runs out; the final error carries services.ErrExhausted so
// the caller can dead-letter the task instead of dropping it. Local write
// failures and context cancellation are returned immediately.
package fetch
