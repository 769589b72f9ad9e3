// Package partials finds and removes the intermediate files yt-dlp leaves
// behind when a download is interrupted.
//
// Fragments (*.part, *.part-FragN, *.ytdl, *.temp.*) accumulate in the
// download tree when a run is stopped or a fetch fails mid-stream. A resumed
// download reuses fresh partials, so only files older than a cutoff are
// removed.
package partials
