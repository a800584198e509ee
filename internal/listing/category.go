package listing

import "strings"

// categoryRule maps a genre-code substring to a category.
type categoryRule struct {
	substr   string
	category Category
}

// categoryRules are checked in order. Festival has no detectable code and
// is only ever assigned by the request.
var categoryRules = []categoryRule{
	{"ART", CategoryMusical},
	{"CLA", CategoryClassical},
	{"SPO", CategorySports},
	{"CON", CategoryConcert},
}

// TypeCodeFields lists where upstream records keep their genre code.
var TypeCodeFields = []string{"perfTypeCode", "perfGenreCode", "genreCode"}

// DetectCategory maps a vendor type code to a category, defaulting to concert.
// Matching is case-sensitive; vendor codes are upper case.
func DetectCategory(typeCode string) Category {
	if typeCode == "" {
		return CategoryConcert
	}
	for _, rule := range categoryRules {
		if strings.Contains(typeCode, rule.substr) {
			return rule.category
		}
	}
	return CategoryConcert
}

// ResolveCategory returns requested when set, otherwise the category detected
// from typeCode.
func ResolveCategory(requested Category, typeCode string) Category {
	if requested != "" {
		return requested
	}
	return DetectCategory(typeCode)
}
