// Package main hosts the spinefetch CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the asset pipeline end to end: fetch
// downloads and normalizes assets from a scraper export and writes the vendor
// manifest, manifest inspects the merged views and saves user overrides,
// runs reads the run ledger, and config scaffolds the TOML configuration.
// Configuration and logger setup live in commandContext so subcommands only
// wire internal packages together.
package main
