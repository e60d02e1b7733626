package formula

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationResult holds the outcome of validating one formula.
// Valid is true iff Errors is empty; style suggestions never appear here.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

var funcCallPattern = regexp.MustCompile(`(?i)([A-Z_][A-Z_0-9]*)\s*\(`)

// Validate checks a formula for structural correctness: leading '=',
// balanced parentheses and quotes, known function names, and argument
// counts for every top-level call of a known function.
func Validate(formula string) *ValidationResult {
	var errors []string

	if formula == "" {
		return &ValidationResult{Valid: false, Errors: []string{"Empty formula"}}
	}

	if !strings.HasPrefix(formula, "=") {
		return &ValidationResult{Valid: false, Errors: []string{"Formula must start with '='"}}
	}

	body := formula[1:]
	if strings.TrimSpace(body) == "" {
		return &ValidationResult{Valid: false, Errors: []string{"Formula is empty after '='"}}
	}

	errors = append(errors, checkParens(body)...)
	errors = append(errors, checkQuotes(body)...)
	errors = append(errors, checkFunctionNames(body)...)
	errors = append(errors, checkArgCounts(body)...)

	return &ValidationResult{Valid: len(errors) == 0, Errors: errors}
}

// checkParens verifies parenthesis balance. Single quotes that open a
// sheet reference ('Sheet Name'!) are skipped so a literal quote inside
// a sheet name is not treated as a string delimiter; only double quotes
// delimit strings.
func checkParens(body string) []string {
	var errors []string
	depth := 0
	inString := false

	for i := 0; i < len(body); i++ {
		ch := body[i]
		if inString {
			if ch == '"' {
				inString = false
			}
			continue
		}
		if ch == '\'' {
			// A quoted sheet name ends with '! — skip the opening quote.
			if closing := strings.IndexByte(body[i+1:], '\''); closing != -1 {
				end := i + 1 + closing
				if end+1 < len(body) && body[end+1] == '!' {
					continue
				}
			}
			continue
		}
		if ch == '"' {
			inString = true
			continue
		}
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				errors = append(errors, fmt.Sprintf("Unexpected closing parenthesis at position %d", i+2))
			}
		}
	}

	if depth > 0 {
		errors = append(errors, fmt.Sprintf("Missing %d closing parenthesis(es)", depth))
	} else if depth < 0 {
		errors = append(errors, fmt.Sprintf("%d extra closing parenthesis(es)", -depth))
	}

	return errors
}

func checkQuotes(body string) []string {
	count := strings.Count(body, `"`)
	if count%2 != 0 {
		return []string{"Unmatched double quote"}
	}
	return nil
}

func checkFunctionNames(body string) []string {
	var errors []string
	for _, m := range funcCallPattern.FindAllStringSubmatch(body, -1) {
		name := strings.ToUpper(m[1])
		if !IsKnownFunction(name) {
			errors = append(errors, fmt.Sprintf("Unknown function: %s", name))
		}
	}
	return errors
}

// checkArgCounts counts top-level arguments for each known function call
// and flags arity violations. Unbalanced calls are skipped here; the
// paren check already reports those.
func checkArgCounts(body string) []string {
	var errors []string

	for _, loc := range funcCallPattern.FindAllStringSubmatchIndex(body, -1) {
		name := strings.ToUpper(body[loc[2]:loc[3]])
		bounds, ok := knownFunctions[name]
		if !ok {
			continue
		}

		// loc[1] is the position right after the opening paren.
		start := loc[1]
		depth := 1
		pos := start
		inStr := false
		for pos < len(body) && depth > 0 {
			ch := body[pos]
			if inStr {
				if ch == '"' {
					inStr = false
				}
			} else if ch == '"' {
				inStr = true
			} else if ch == '(' {
				depth++
			} else if ch == ')' {
				depth--
			}
			pos++
		}
		if depth != 0 {
			continue
		}

		argCount := countTopLevelArgs(body[start : pos-1])
		if argCount < bounds.Min {
			errors = append(errors, fmt.Sprintf("%s requires at least %d argument(s), got %d", name, bounds.Min, argCount))
		}
		if bounds.Max >= 0 && argCount > bounds.Max {
			errors = append(errors, fmt.Sprintf("%s accepts at most %d argument(s), got %d", name, bounds.Max, argCount))
		}
	}

	return errors
}

// countTopLevelArgs counts comma-separated arguments, ignoring commas
// inside nested parentheses or quoted strings.
func countTopLevelArgs(args string) int {
	if strings.TrimSpace(args) == "" {
		return 0
	}

	count := 1
	depth := 0
	inString := false

	for i := 0; i < len(args); i++ {
		ch := args[i]
		if inString {
			if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				count++
			}
		}
	}

	return count
}
