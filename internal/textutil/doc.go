// Package textutil sanitizes titles and group names into filesystem-safe
// path segments.
//
// Input is NFC-normalized before unsafe characters are replaced so that
// visually identical titles map to the same directory on every platform.
// Results never exceed MaxFileNameLength runes and keep their extension when
// truncated.
package textutil
