package address

import (
	"regexp"
	"strings"
)

var postalCodePattern = regexp.MustCompile(`\b\d{4,6}\b`)

var countryNames = map[string]struct{}{
	"senegal": {},
	"sénégal": {},
	"france":  {},
}

// ParseCityPostal extracts a city and postal code from comma separated free text.
// It is a heuristic: either value is empty when nothing plausible is found, and it never fails.
// Structured address input should be preferred wherever the UI can offer it.
func ParseCityPostal(text string) (city, postalCode string) {
	var parts []string
	for _, part := range strings.Split(text, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return "", ""
	}

	// The street line often starts with a house number, so it is only searched when it is the sole part.
	searchFrom := 1
	if len(parts) == 1 {
		searchFrom = 0
	}
	postalIdx := -1
	for i := searchFrom; i < len(parts); i++ {
		if m := postalCodePattern.FindString(parts[i]); m != "" {
			postalCode = m
			postalIdx = i
			break
		}
	}

	if len(parts) < 2 {
		return "", postalCode
	}

	if postalIdx > 0 {
		rest := strings.TrimSpace(strings.Replace(parts[postalIdx], postalCode, "", 1))
		if isPlaceName(rest) {
			return rest, postalCode
		}
	}
	for i := len(parts) - 1; i >= 1; i-- {
		if isPlaceName(parts[i]) {
			return parts[i], postalCode
		}
	}
	return "", postalCode
}

func isPlaceName(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if _, ok := countryNames[strings.ToLower(s)]; ok {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) >= 0 && !postalCodePattern.MatchString(s)
}
