package formula

import "regexp"

var (
	vlookupPattern  = regexp.MustCompile(`(?i)\bVLOOKUP\s*\(`)
	ifCallPattern   = regexp.MustCompile(`(?i)\bIF\s*\(`)
)

// SuggestAlternatives returns style suggestions for a formula. These are
// advisory only and never affect validity.
func SuggestAlternatives(formula string) []string {
	var suggestions []string

	if vlookupPattern.MatchString(formula) {
		suggestions = append(suggestions, "Consider XLOOKUP instead of VLOOKUP: it looks up in any direction and defaults to exact match")
	}

	if n := len(ifCallPattern.FindAllString(formula, -1)); n >= 3 {
		suggestions = append(suggestions, "Deeply nested IF calls are hard to read; consider IFS or SWITCH")
	}

	return suggestions
}
