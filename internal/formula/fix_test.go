package formula

import (
	"strings"
	"testing"
)

func TestAutoFix_FullColumnRanges(t *testing.T) {
	fixed, warnings := AutoFix("=SUMIF(A:A,B2,C:C)", 50)

	if fixed != "=SUMIF(A2:A50,B2,C2:C50)" {
		t.Errorf("fixed = %q, want %q", fixed, "=SUMIF(A2:A50,B2,C2:C50)")
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", warnings)
	}
	if !strings.Contains(warnings[0], "Fixed full column A:A to A2:A50") {
		t.Errorf("warnings[0] = %q", warnings[0])
	}
	if !strings.Contains(warnings[1], "Fixed full column C:C to C2:C50") {
		t.Errorf("warnings[1] = %q", warnings[1])
	}
}

func TestAutoFix_SumifWithMultiplication(t *testing.T) {
	fixed, warnings := AutoFix("=SUMIF(E2:E31,A2,C2:C31*G2:G31)", 31)

	want := "=SUMPRODUCT((E2:E31=A2)*(C2:C31*G2:G31))"
	if fixed != want {
		t.Errorf("fixed = %q, want %q", fixed, want)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "CONVERTED") {
		t.Errorf("warnings = %v, want one CONVERTED warning", warnings)
	}
}

func TestAutoFix_OpenEndedRange(t *testing.T) {
	fixed, warnings := AutoFix("=SUM(A2:A)", 30)

	if fixed != "=SUM(A2:A30)" {
		t.Errorf("fixed = %q, want %q", fixed, "=SUM(A2:A30)")
	}
	if !containsSubstring(warnings, "Fixed open-ended range A2:A to A2:A30") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestAutoFix_SheetQualifiedRanges(t *testing.T) {
	fixed, _ := AutoFix("=SUMIF('My Sheet'!A:A, B2, 'My Sheet'!C2:C)", 99)

	want := "=SUMIF('My Sheet'!A2:A99, B2, 'My Sheet'!C2:C99)"
	if fixed != want {
		t.Errorf("fixed = %q, want %q", fixed, want)
	}
}

func TestAutoFix_BoundedRangeUntouched(t *testing.T) {
	fixed, warnings := AutoFix("=SUMIF(A2:A50,B2,C2:C50)", 50)

	if fixed != "=SUMIF(A2:A50,B2,C2:C50)" {
		t.Errorf("fixed = %q, want input unchanged", fixed)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}

func TestAutoFix_ValidityPreserved(t *testing.T) {
	// Fixing a valid formula must never make it invalid.
	inputs := []string{
		"=SUMIF(A2:A50,B2,C2:C50)",
		"=SUMIF(A:A,B2,C:C)",
		"=COUNTIF(A2:A,B2)",
	}
	for _, f := range inputs {
		fixed, _ := AutoFix(f, 50)
		if result := Validate(fixed); !result.Valid {
			t.Errorf("AutoFix(%q) = %q is invalid: %v", f, fixed, result.Errors)
		}
	}
}

func TestAutoFix_CriticalSyntaxWarnings(t *testing.T) {
	_, warnings := AutoFix("=NOSUCHFUNC(A1:A10", 10)

	if !containsSubstring(warnings, "CRITICAL SYNTAX ERROR: Unknown function: NOSUCHFUNC") {
		t.Errorf("warnings = %v, want unknown-function critical", warnings)
	}
	if !containsSubstring(warnings, "CRITICAL SYNTAX ERROR: Missing 1 closing parenthesis") {
		t.Errorf("warnings = %v, want paren critical", warnings)
	}
}

func TestAutoFix_AdvisorySyntaxWarnings(t *testing.T) {
	_, warnings := AutoFix("=VLOOKUP(A2,B2:B50)", 50)

	found := false
	for _, w := range warnings {
		if strings.HasPrefix(w, "SYNTAX: VLOOKUP requires at least 3") {
			found = true
		}
		if strings.HasPrefix(w, "CRITICAL") {
			t.Errorf("arity error should be advisory, got %q", w)
		}
	}
	if !found {
		t.Errorf("warnings = %v, want advisory arity warning", warnings)
	}
}

func TestAutoFix_StyleSuggestions(t *testing.T) {
	_, warnings := AutoFix("=VLOOKUP(A2,B2:D50,3,FALSE)", 50)

	if !containsSubstring(warnings, "Suggestion: Consider XLOOKUP") {
		t.Errorf("warnings = %v, want XLOOKUP suggestion", warnings)
	}
}

func TestAutoSpillFunction(t *testing.T) {
	tests := []struct {
		formula string
		name    string
		spill   bool
	}{
		{"=UNIQUE(A2:A50)", "UNIQUE", true},
		{"= filter(A2:A50, B2:B50>0)", "FILTER", true},
		{"=SORTN(A2:A50, 5)", "SORTN", true},
		{"=ARRAYFORMULA(A2:A50*2)", "ARRAYFORMULA", true},
		{"=SUM(UNIQUE(A2:A50))", "", false}, // nested, not leading
		{"=SUMIF(A:A,B2,C:C)", "", false},
	}
	for _, tt := range tests {
		name, ok := AutoSpillFunction(tt.formula)
		if ok != tt.spill || name != tt.name {
			t.Errorf("AutoSpillFunction(%q) = %q,%v, want %q,%v", tt.formula, name, ok, tt.name, tt.spill)
		}
	}
}

func TestSuggestAlternatives(t *testing.T) {
	if s := SuggestAlternatives("=SUM(A1:A10)"); len(s) != 0 {
		t.Errorf("suggestions = %v, want none", s)
	}
	if s := SuggestAlternatives("=VLOOKUP(A2,B2:D50,3,FALSE)"); len(s) != 1 {
		t.Errorf("suggestions = %v, want one", s)
	}
	nested := "=IF(A1>10, IF(A1>20, IF(A1>30, \"c\", \"b\"), \"a\"), \"none\")"
	if s := SuggestAlternatives(nested); !containsSubstring(s, "IFS") {
		t.Errorf("suggestions = %v, want nested-IF suggestion", s)
	}
	// SUMIF must not trigger the nested-IF suggestion.
	if s := SuggestAlternatives("=SUMIF(A:A,B2,C:C)"); len(s) != 0 {
		t.Errorf("suggestions = %v, want none for SUMIF", s)
	}
}
