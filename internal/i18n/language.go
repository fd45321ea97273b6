// Package i18n resolves the session display language.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Display languages the itinerary sheet ships translations for. English
// first: it is both the default and the matcher fallback.
var supported = []language.Tag{
	language.English,
	language.Hebrew,
	language.Russian,
	language.Spanish,
}

var matcher = language.NewMatcher(supported)

// Resolve canonicalizes a raw lang parameter ("he", "en-US", "iw") to a
// supported display language code and reports right-to-left layout.
func Resolve(raw string) (lang string, rtl bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "en", false
	}

	tag, err := language.Parse(raw)
	if err != nil {
		return "en", false
	}

	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return "en", false
	}

	base, _ := supported[idx].Base()
	return base.String(), isRTL(base.String())
}

func isRTL(code string) bool {
	switch code {
	case "he", "iw", "ar", "fa", "ur":
		return true
	}
	return false
}
