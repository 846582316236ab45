// Package main hosts the LinguaFlow CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon: pulling approved snapshots, pushing local edits,
// running the pull/merge/push sync cycle, browser login, and queue
// inspection. It centralizes client configuration resolution and token
// handling so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
