// Package language normalizes subtitle language selectors before they reach
// yt-dlp.
//
// Users write languages the way they think of them ("English", "eng", "pt-br");
// yt-dlp matches subtitle tracks by their ISO 639-1 or BCP 47 code. Common
// names and ISO 639-2 codes are resolved from a small table and everything
// else is parsed as a BCP 47 tag. Regex selectors and "all" pass through.
package language
