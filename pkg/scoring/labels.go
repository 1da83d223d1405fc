package scoring

import (
	"golang.org/x/text/language"
)

var supported = []language.Tag{language.English, language.Portuguese}

var matcher = language.NewMatcher(supported)

var labels = map[language.Tag][NumClasses + 1]string{
	language.English:    {"low", "medium", "high", "unknown"},
	language.Portuguese: {"baixo", "médio", "alto", "desconhecido"},
}

// ParseLang resolves a language name such as "en", "pt-BR" or
// "Portuguese" to a supported tag. Anything unrecognised yields English.
func ParseLang(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		switch s {
		case "Portuguese", "portuguese", "português":
			return language.Portuguese
		}
		return language.English
	}
	_, idx, _ := matcher.Match(tag)
	return supported[idx]
}

// Label returns the display name of a class index in lang. Indexes
// outside 0..2 yield the language's word for "unknown".
func Label(class int, lang language.Tag) string {
	_, idx, _ := matcher.Match(lang)
	names := labels[supported[idx]]
	if class < 0 || class >= NumClasses {
		return names[NumClasses]
	}
	return names[class]
}
