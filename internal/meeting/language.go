package meeting

import "strings"

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"nl": "Dutch",
	"ru": "Russian",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"ar": "Arabic",
	"hi": "Hindi",
	"tr": "Turkish",
	"pl": "Polish",
	"sv": "Swedish",
	"da": "Danish",
	"no": "Norwegian",
	"fi": "Finnish",
	"uk": "Ukrainian",
}

// LanguageName returns a display name for a language code. Unknown codes are
// returned upper-cased; the unknown sentinel maps to "Unknown".
func LanguageName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == UnknownLanguage {
		return "Unknown"
	}
	if name, ok := languageNames[code]; ok {
		return name
	}
	return strings.ToUpper(code)
}

// NormalizeLanguage maps a detector result to a language code. It accepts
// codes ("en", "EN", "en-US") and English names ("english"); anything else
// that is non-empty is kept lower-cased. Empty input yields UnknownLanguage.
func NormalizeLanguage(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return UnknownLanguage
	}
	if base, _, ok := strings.Cut(s, "-"); ok && len(base) == 2 {
		s = base
	}
	if _, ok := languageNames[s]; ok {
		return s
	}
	for code, name := range languageNames {
		if strings.EqualFold(name, s) {
			return code
		}
	}
	return s
}
