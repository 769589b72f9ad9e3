package language

import (
	"strings"

	textlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// All selects every subtitle track yt-dlp can find.
const All = "all"

type entry struct {
	code2   string   // ISO 639-1
	code3   string   // ISO 639-2/T
	alt3    string   // ISO 639-2/B where it differs ("fre" vs "fra")
	display string   // English name
	words   []string // lowercase word forms
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish", "espanol", "español"}},
	{"fr", "fra", "fre", "French", []string{"french", "francais", "français"}},
	{"de", "deu", "ger", "German", []string{"german", "deutsch"}},
	{"it", "ita", "", "Italian", []string{"italian", "italiano"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese", "portugues", "português"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese", "mandarin"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch", "nederlands"}},
	{"pl", "pol", "", "Polish", []string{"polish", "polski"}},
	{"sv", "swe", "", "Swedish", []string{"swedish", "svenska"}},
	{"da", "dan", "", "Danish", []string{"danish", "dansk"}},
	{"no", "nor", "", "Norwegian", []string{"norwegian", "norsk"}},
	{"fi", "fin", "", "Finnish", []string{"finnish", "suomi"}},
	{"tr", "tur", "", "Turkish", []string{"turkish"}},
	{"uk", "ukr", "", "Ukrainian", []string{"ukrainian"}},
}

var byKey = func() map[string]*entry {
	index := make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		index[e.code2] = e
		index[e.code3] = e
		if e.alt3 != "" {
			index[e.alt3] = e
		}
		for _, w := range e.words {
			index[w] = e
		}
	}
	return index
}()

// Canonical returns the code yt-dlp should receive for a user-supplied
// language. Names and ISO 639-2 codes map to ISO 639-1; region and script
// variants are returned as canonical BCP 47 tags ("pt-br" becomes "pt-BR").
// Regex selectors and "all" are returned unchanged. Unrecognised input
// yields "".
func Canonical(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	if lower == All {
		return All
	}
	if isPattern(trimmed) {
		return trimmed
	}
	if e, ok := byKey[lower]; ok {
		return e.code2
	}
	tag, err := textlang.Parse(trimmed)
	if err != nil {
		return ""
	}
	return tag.String()
}

// NormalizeList canonicalizes and deduplicates codes in order. Entries that
// cannot be resolved are returned separately.
func NormalizeList(codes []string) (normalized []string, invalid []string) {
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if strings.TrimSpace(code) == "" {
			continue
		}
		canonical := Canonical(code)
		if canonical == "" {
			invalid = append(invalid, strings.TrimSpace(code))
			continue
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		normalized = append(normalized, canonical)
	}
	return normalized, invalid
}

// DisplayName returns an English name for a canonical code.
func DisplayName(code string) string {
	canonical := Canonical(code)
	switch {
	case canonical == "":
		return strings.ToUpper(strings.TrimSpace(code))
	case canonical == All:
		return "All languages"
	case isPattern(canonical):
		return canonical
	}
	if e, ok := byKey[strings.ToLower(canonical)]; ok {
		return e.display
	}
	tag, err := textlang.Parse(canonical)
	if err != nil {
		return canonical
	}
	if name := display.Tags(textlang.English).Name(tag); name != "" {
		return name
	}
	return canonical
}

// isPattern reports whether code is a yt-dlp regex selector such as "en.*".
func isPattern(code string) bool {
	return strings.ContainsAny(code, ".*^$[]|()")
}
