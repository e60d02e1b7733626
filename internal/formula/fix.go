package formula

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	sumifMultPattern = regexp.MustCompile(`(?i)^=SUMIF\s*\(\s*([^,]+),\s*([^,]+),\s*([^)]+\*[^)]+)\s*\)`)

	// Full column reference: 'Sheet Name'!A:A or A:A. Letter equality is
	// checked in code since RE2 has no backreferences.
	fullColPattern = regexp.MustCompile(`('[\w\s]+'!)?\b([A-Z]):([A-Z])\b`)

	// Open-ended range missing its end row: A2:A. The trailing \b rejects
	// a following digit or letter, so bounded ranges are left alone.
	partialColPattern = regexp.MustCompile(`('[\w\s]+'!)?\b([A-Z])(\d+):([A-Z])\b`)

	autoSpillPattern = regexp.MustCompile(`(?i)^=\s*(UNIQUE|FILTER|SORT|SORTN|SEQUENCE|ARRAYFORMULA)\s*\(`)
)

// criticalKeywords mark validation errors that indicate a structurally
// broken formula rather than an advisory issue.
var criticalKeywords = []string{"parenthesis", "unknown function", "empty formula", "must start"}

// AutoFix rewrites common formula mistakes and returns the fixed formula
// with warnings describing every change and any remaining syntax issue.
// Fixes, in order: SUMIF with an arithmetic sum_range becomes SUMPRODUCT,
// full column references are bounded to lastRow, open-ended ranges get
// their missing end row, then the result is revalidated and style
// suggestions are appended.
func AutoFix(formula string, lastRow int) (string, []string) {
	var warnings []string
	fixed := formula

	if m := sumifMultPattern.FindStringSubmatch(formula); m != nil {
		criteriaRange, criteria, multExpr := m[1], m[2], m[3]
		fixed = fmt.Sprintf("=SUMPRODUCT((%s=%s)*(%s))", criteriaRange, criteria, multExpr)
		warnings = append(warnings, fmt.Sprintf("CONVERTED: SUMIF with multiplication is invalid. Changed to SUMPRODUCT: %s", fixed))
	}

	fixed = fullColPattern.ReplaceAllStringFunc(fixed, func(ref string) string {
		m := fullColPattern.FindStringSubmatch(ref)
		prefix, col, col2 := m[1], m[2], m[3]
		if col != col2 {
			return ref
		}
		warnings = append(warnings, fmt.Sprintf("Fixed full column %s:%s to %s2:%s%d", col, col, col, col, lastRow))
		return fmt.Sprintf("%s%s2:%s%d", prefix, col, col, lastRow)
	})

	fixed = partialColPattern.ReplaceAllStringFunc(fixed, func(ref string) string {
		m := partialColPattern.FindStringSubmatch(ref)
		prefix, col, startRow, col2 := m[1], m[2], m[3], m[4]
		if col != col2 {
			return ref
		}
		warnings = append(warnings, fmt.Sprintf("Fixed open-ended range %s%s:%s to %s%s:%s%d", col, startRow, col, col, startRow, col, lastRow))
		return fmt.Sprintf("%s%s%s:%s%d", prefix, col, startRow, col, lastRow)
	})

	result := Validate(fixed)
	if !result.Valid {
		for _, err := range result.Errors {
			if isCritical(err) {
				warnings = append(warnings, fmt.Sprintf("CRITICAL SYNTAX ERROR: %s", err))
			} else {
				warnings = append(warnings, fmt.Sprintf("SYNTAX: %s", err))
			}
		}
	}

	for _, s := range SuggestAlternatives(fixed) {
		warnings = append(warnings, fmt.Sprintf("Suggestion: %s", s))
	}

	return fixed, warnings
}

func isCritical(err string) bool {
	lower := strings.ToLower(err)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// AutoSpillFunction returns the leading auto-spill function name
// (UNIQUE, FILTER, SORT, SORTN, SEQUENCE, ARRAYFORMULA) if the formula
// starts with one, and whether it did. Such formulas expand on their own;
// filling them down would overwrite the spilled cells.
func AutoSpillFunction(formula string) (string, bool) {
	m := autoSpillPattern.FindStringSubmatch(formula)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}
