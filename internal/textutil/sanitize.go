package textutil

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxFileNameLength bounds a sanitized segment, measured in runes.
const MaxFileNameLength = 200

// Untitled replaces names that sanitize to nothing.
const Untitled = "untitled"

// fileNameReplacer replaces characters that are unsafe on at least one
// supported filesystem.
var fileNameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	"\x00", "",
)

var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SanitizeFileName converts name into a single safe path segment capped at
// MaxFileNameLength runes.
func SanitizeFileName(name string) string {
	return SanitizeFileNameLimit(name, MaxFileNameLength)
}

// SanitizeFileNameLimit is SanitizeFileName with an explicit rune limit.
// Control characters and reserved punctuation become underscores, runs of
// underscores collapse, and leading or trailing dots and spaces are trimmed.
// Reserved device names gain a leading underscore.
func SanitizeFileNameLimit(name string, limit int) string {
	name = norm.NFC.String(name)
	name = fileNameReplacer.Replace(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return '_'
		}
		return r
	}, name)
	name = strings.Trim(name, " .")
	if name == "" {
		return Untitled
	}

	base := strings.ToUpper(strings.SplitN(name, ".", 2)[0])
	if _, reserved := reservedNames[base]; reserved {
		name = "_" + name
	}

	if limit > 0 && utf8.RuneCountInString(name) > limit {
		name = truncate(name, limit)
	}
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	name = strings.Trim(name, " .")
	if name == "" {
		return Untitled
	}
	return name
}

func truncate(name string, limit int) string {
	ext := filepath.Ext(name)
	extLen := utf8.RuneCountInString(ext)
	if ext == "" || extLen >= limit {
		return string([]rune(name)[:limit])
	}
	stem := []rune(strings.TrimSuffix(name, ext))
	return string(stem[:limit-extLen]) + ext
}
