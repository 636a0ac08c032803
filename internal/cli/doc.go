// Package cli wires together the Cobra command tree for the revlens binary.
//
// It defines the root command and all subcommands (review, context, batches,
// graph, retrieve, check, config, models, cache, version), binds flags, reads
// configuration, invokes the review engine, and returns deterministic exit
// codes for CI gating.
package cli
