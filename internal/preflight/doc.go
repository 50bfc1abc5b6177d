// Package preflight provides readiness checks for the filesystem paths and
// asset host a download run depends on.
//
// The fetch command calls RunAll before enumerating tasks and aborts on any
// failed directory check. CheckAssetHost results are advisory and only logged.
package preflight
