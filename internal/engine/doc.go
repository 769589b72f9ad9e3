// Package engine defines the seam between the download workflow and the
// tool that actually fetches media.
//
// An Engine resolves metadata for a URL and fetches it to a target described
// by Options, streaming ProgressEvent values to a sink while it runs. The
// workflow never inspects engine output beyond those events and the returned
// error. Implementations tag failures with the services sentinel errors so the
// retry policy can tell permanent failures from transient ones.
//
// OptionsBuilder turns configuration and queue items into Options, including
// the quality-to-format mapping and the per-group output layout.
package engine
