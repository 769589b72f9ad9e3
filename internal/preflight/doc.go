// Package preflight provides readiness checks for the binaries, paths, and
// services tubeq depends on.
//
// These checks run in two contexts:
//   - The download command calls RunAll before starting the workflow and
//     refuses to start when a required check fails.
//   - The CLI "tubeq doctor" command prints every check, including the
//     external binaries from CheckSystemDeps.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
