// Package main hosts the tubeq CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration once, then hands the
// queue, workflow manager, history store, and notifier to each subcommand.
// Downloads run in the foreground: the command builds a queue from its
// arguments, starts the workflow manager, and renders progress until the
// queue drains or the process is interrupted.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through dedicated commands or flags here.
package main
