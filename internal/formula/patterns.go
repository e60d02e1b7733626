package formula

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Mistake documents a wrong usage of a formula and its correction.
type Mistake struct {
	Wrong    string `json:"wrong"`
	WhyWrong string `json:"whyWrong"`
	Correct  string `json:"correct"`
}

// Variant is an additional worked case for a pattern.
type Variant struct {
	Case    string `json:"case"`
	Formula string `json:"formula"`
}

// Pattern is one entry of the formula knowledge base: an intent-matched
// recipe with a template, a filled example, and usage guidance.
type Pattern struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Intent         []string  `json:"intent"`
	Description    string    `json:"description"`
	Template       string    `json:"template"`
	Example        string    `json:"example"`
	Explanation    string    `json:"explanation"`
	UseWhen        []string  `json:"useWhen,omitempty"`
	DoNotUseWhen   []string  `json:"doNotUseWhen,omitempty"`
	Warning        string    `json:"warning,omitempty"`
	CommonMistakes []Mistake `json:"commonMistakes,omitempty"`
	Variants       []Variant `json:"variants,omitempty"`
}

// patterns is the knowledge base. Examples use {sheet} and {lastRow}
// placeholders filled in by ForIntent.
var patterns = []Pattern{
	{
		ID:          "sumif_basic",
		Name:        "SUMIF",
		Intent:      []string{"sum by category", "sum where", "total by group", "sum if matches", "sum values for each"},
		Description: "Sum values in one column where another column matches a criteria",
		Template:    "=SUMIF(criteria_range, criteria, sum_range)",
		Example:     "=SUMIF('{sheet}'!E2:E{lastRow}, A2, '{sheet}'!G2:G{lastRow})",
		Explanation: "Sums column G where column E matches the value in A2",
		UseWhen: []string{
			"Summing a single column based on a condition",
			"Creating grouped totals (sum by category, region, etc.)",
			"The sum_range is a simple column reference",
		},
		DoNotUseWhen: []string{
			"You need to multiply columns before summing - use SUMPRODUCT instead",
			"You have multiple conditions - use SUMIFS instead",
			"The sum_range contains any arithmetic like A:A*B:B",
		},
		Warning: "SUMIF sum_range must be a simple range. It CANNOT contain arithmetic operations like A2:A*B2:B",
		CommonMistakes: []Mistake{{
			Wrong:    "=SUMIF(E2:E, A2, C2:C*G2:G)",
			WhyWrong: "sum_range cannot contain multiplication",
			Correct:  "Use SUMPRODUCT instead: =SUMPRODUCT((E2:E31=A2)*(C2:C31*G2:G31))",
		}},
	},
	{
		ID:   "sumproduct_multiply_sum",
		Name: "SUMPRODUCT",
		Intent: []string{"sum of multiplication", "sum product by category", "multiply columns and sum",
			"sum of A times B", "total of price times quantity", "sum where with calculation",
			"weighted sum", "sum of calculated values by group"},
		Description: "Multiply columns together and sum the results, optionally with conditions",
		Template:    "=SUMPRODUCT((condition_range=criteria)*(value1_range*value2_range))",
		Example:     "=SUMPRODUCT(('{sheet}'!E2:E{lastRow}=A2)*('{sheet}'!C2:C{lastRow}*'{sheet}'!G2:G{lastRow}))",
		Explanation: "Multiplies column C by column G, then sums only where column E matches A2",
		UseWhen: []string{
			"Need to multiply two columns before summing (e.g., price * quantity)",
			"Need sum with arithmetic operations on columns",
			"SUMIF would require multiplication in sum_range (which is invalid)",
			"Multiple conditions with calculations",
		},
		DoNotUseWhen: []string{
			"Simple sum of one column with one condition - use SUMIF (simpler)",
		},
		Variants: []Variant{
			{Case: "Sum of A*B where C equals criteria", Formula: "=SUMPRODUCT((C2:C{lastRow}=criteria)*(A2:A{lastRow}*B2:B{lastRow}))"},
			{Case: "Sum of A*B where C equals X AND D equals Y", Formula: `=SUMPRODUCT((C2:C{lastRow}="X")*(D2:D{lastRow}="Y")*(A2:A{lastRow}*B2:B{lastRow}))`},
			{Case: "Sum of A*B (no condition)", Formula: "=SUMPRODUCT(A2:A{lastRow}*B2:B{lastRow})"},
		},
	},
	{
		ID:   "sumifs_multi",
		Name: "SUMIFS",
		Intent: []string{"sum with multiple conditions", "sum where A and B", "sum if both match",
			"sum with two criteria", "sum where and where"},
		Description: "Sum values with multiple conditions (AND logic)",
		Template:    "=SUMIFS(sum_range, criteria_range1, criteria1, criteria_range2, criteria2)",
		Example:     "=SUMIFS('{sheet}'!G2:G{lastRow}, '{sheet}'!E2:E{lastRow}, A2, '{sheet}'!F2:F{lastRow}, B2)",
		Explanation: "Sums column G where column E matches A2 AND column F matches B2",
		UseWhen: []string{
			"Multiple conditions that must ALL be true",
			"Filtering on two or more columns before summing",
		},
		DoNotUseWhen: []string{
			"Only one condition - use SUMIF instead",
			"Need to multiply columns - use SUMPRODUCT",
		},
		Warning: "Like SUMIF, sum_range cannot contain arithmetic",
	},
	{
		ID:   "countif_basic",
		Name: "COUNTIF",
		Intent: []string{"count by category", "count where", "how many", "count if matches",
			"number of items per group", "count occurrences"},
		Description: "Count cells that match a criteria",
		Template:    "=COUNTIF(range, criteria)",
		Example:     "=COUNTIF('{sheet}'!E2:E{lastRow}, A2)",
		Explanation: "Counts how many times the value in A2 appears in column E",
		UseWhen: []string{
			"Counting occurrences of a value",
			"Getting count per category",
		},
		DoNotUseWhen: []string{"Multiple conditions - use COUNTIFS"},
	},
	{
		ID:          "countifs_multi",
		Name:        "COUNTIFS",
		Intent:      []string{"count with multiple conditions", "count where A and B", "count if both"},
		Description: "Count cells that match multiple conditions",
		Template:    "=COUNTIFS(range1, criteria1, range2, criteria2)",
		Example:     `=COUNTIFS('{sheet}'!E2:E{lastRow}, A2, '{sheet}'!F2:F{lastRow}, ">10")`,
		Explanation: "Counts rows where column E matches A2 AND column F is greater than 10",
		UseWhen:     []string{"Counting with multiple conditions"},
		DoNotUseWhen: []string{
			"Single condition - use COUNTIF",
		},
	},
	{
		ID:          "averageif_basic",
		Name:        "AVERAGEIF",
		Intent:      []string{"average by category", "average where", "mean by group", "avg if matches"},
		Description: "Calculate average of values where condition matches",
		Template:    "=AVERAGEIF(criteria_range, criteria, average_range)",
		Example:     "=AVERAGEIF('{sheet}'!E2:E{lastRow}, A2, '{sheet}'!G2:G{lastRow})",
		Explanation: "Averages column G where column E matches A2",
		UseWhen: []string{
			"Average of one column based on a condition",
			"Mean by category",
		},
		DoNotUseWhen: []string{"Need weighted average - use SUMPRODUCT divided by SUMPRODUCT"},
		Warning:      "Like SUMIF, average_range cannot contain arithmetic",
	},
	{
		ID:   "unique_basic",
		Name: "UNIQUE",
		Intent: []string{"get unique values", "distinct values", "list of categories", "unique list",
			"deduplicate", "remove duplicates from column"},
		Description: "Returns unique values from a range (auto-spills to multiple cells)",
		Template:    "=UNIQUE(range)",
		Example:     "=UNIQUE('{sheet}'!E2:E{lastRow})",
		Explanation: "Returns all unique values from column E, automatically filling down",
		UseWhen: []string{
			"Getting list of unique categories for grouping",
			"Creating a distinct list from a column",
		},
		Warning: "UNIQUE auto-spills! Never use fillDown=true with UNIQUE formulas",
		CommonMistakes: []Mistake{{
			Wrong:    "Using fillDown=true with UNIQUE",
			WhyWrong: "UNIQUE automatically fills multiple cells (spill). fillDown overwrites the spilled values causing #REF! error",
			Correct:  "Set UNIQUE formula once, it will auto-expand",
		}},
	},
	{
		ID:          "filter_basic",
		Name:        "FILTER",
		Intent:      []string{"filter rows", "get rows where", "filter data", "extract matching rows"},
		Description: "Returns rows that match a condition (auto-spills)",
		Template:    "=FILTER(range, condition)",
		Example:     `=FILTER('{sheet}'!A2:G{lastRow}, '{sheet}'!E2:E{lastRow}="North")`,
		Explanation: "Returns all rows where column E equals 'North'",
		UseWhen: []string{
			"Extracting subset of data",
			"Getting all rows matching a criteria",
		},
		Warning: "FILTER auto-spills! Never use fillDown with FILTER",
	},
	{
		ID:   "vlookup_basic",
		Name: "VLOOKUP",
		Intent: []string{"lookup value", "find value", "get value from another table", "vlookup",
			"match and return"},
		Description: "Look up a value in the first column and return value from another column",
		Template:    "=VLOOKUP(search_key, range, index, [is_sorted])",
		Example:     "=VLOOKUP(A2, '{sheet}'!A2:G{lastRow}, 3, FALSE)",
		Explanation: "Finds A2 in column A and returns the value from column 3 (C)",
		UseWhen: []string{
			"Looking up a value from a reference table",
			"Getting related data based on a key",
		},
		DoNotUseWhen: []string{"Need to look up based on multiple columns - use INDEX/MATCH or XLOOKUP"},
		Warning:      "Always use FALSE for exact match unless data is sorted",
	},
	{
		ID:          "maxifs_basic",
		Name:        "MAXIFS",
		Intent:      []string{"max by category", "maximum where", "highest value per group"},
		Description: "Returns maximum value with conditions",
		Template:    "=MAXIFS(max_range, criteria_range, criteria)",
		Example:     "=MAXIFS('{sheet}'!G2:G{lastRow}, '{sheet}'!E2:E{lastRow}, A2)",
		Explanation: "Returns maximum of column G where column E matches A2",
		UseWhen:     []string{"Finding maximum value within a category"},
	},
	{
		ID:          "minifs_basic",
		Name:        "MINIFS",
		Intent:      []string{"min by category", "minimum where", "lowest value per group"},
		Description: "Returns minimum value with conditions",
		Template:    "=MINIFS(min_range, criteria_range, criteria)",
		Example:     "=MINIFS('{sheet}'!G2:G{lastRow}, '{sheet}'!E2:E{lastRow}, A2)",
		Explanation: "Returns minimum of column G where column E matches A2",
		UseWhen:     []string{"Finding minimum value within a category"},
	},
}

// FindPatterns scores the knowledge base against a free-text intent and
// returns the top three matches, best first.
func FindPatterns(query string) []Pattern {
	queryLower := strings.ToLower(query)

	type scored struct {
		pattern Pattern
		score   int
	}
	var results []scored

	for _, p := range patterns {
		score := 0

		for _, intent := range p.Intent {
			intentLower := strings.ToLower(intent)
			if strings.Contains(queryLower, intentLower) {
				score += 10
			}
			for _, w := range strings.Fields(intentLower) {
				if strings.Contains(queryLower, w) {
					score += 2
				}
			}
		}

		if strings.Contains(queryLower, strings.ToLower(p.Name)) {
			score += 5
		}

		for _, w := range strings.Fields(strings.ToLower(p.Description)) {
			if strings.Contains(queryLower, w) {
				score++
			}
		}

		// Multiplication intent strongly indicates SUMPRODUCT.
		if strings.Contains(queryLower, "multiply") || strings.Contains(queryLower, "product") || strings.Contains(queryLower, "*") {
			if p.Name == "SUMPRODUCT" {
				score += 15
			}
		}

		if strings.Contains(queryLower, "by") || strings.Contains(queryLower, "group") || strings.Contains(queryLower, "category") {
			switch p.Name {
			case "SUMIF", "COUNTIF", "AVERAGEIF", "SUMPRODUCT":
				score += 5
			}
		}

		if score > 0 {
			results = append(results, scored{p, score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })

	out := make([]Pattern, 0, 3)
	for i, r := range results {
		if i == 3 {
			break
		}
		out = append(out, r.pattern)
	}
	return out
}

// Recommendation is the filled-in result of an intent lookup.
type Recommendation struct {
	Found          bool      `json:"found"`
	Message        string    `json:"message,omitempty"`
	FormulaName    string    `json:"formulaName,omitempty"`
	Description    string    `json:"description,omitempty"`
	Template       string    `json:"template,omitempty"`
	Example        string    `json:"example,omitempty"`
	UseWhen        []string  `json:"useWhen,omitempty"`
	DoNotUseWhen   []string  `json:"doNotUseWhen,omitempty"`
	Warning        string    `json:"warning,omitempty"`
	CommonMistakes []Mistake `json:"commonMistakes,omitempty"`
	Variants       []Variant `json:"additionalPatterns,omitempty"`
	Alternatives   []string  `json:"alternatives,omitempty"`
	Guide          string    `json:"formattedGuide,omitempty"`
}

// ForIntent returns the best pattern for an intent with {sheet} and
// {lastRow} placeholders filled in from the current sheet.
func ForIntent(intent, sheetName string, lastRow int) Recommendation {
	matches := FindPatterns(intent)
	if len(matches) == 0 {
		return Recommendation{
			Found:   false,
			Message: "No matching formula pattern found. Please describe what you want to calculate.",
		}
	}

	best := matches[0]
	example := best.Example
	if example == "" {
		example = best.Template
	}
	example = strings.ReplaceAll(example, "{sheet}", sheetName)
	example = strings.ReplaceAll(example, "{lastRow}", strconv.Itoa(lastRow))

	rec := Recommendation{
		Found:          true,
		FormulaName:    best.Name,
		Description:    best.Description,
		Template:       best.Template,
		Example:        example,
		UseWhen:        best.UseWhen,
		DoNotUseWhen:   best.DoNotUseWhen,
		Warning:        best.Warning,
		CommonMistakes: best.CommonMistakes,
		Variants:       best.Variants,
		Guide:          FormatPatternForPrompt(best),
	}

	for _, alt := range matches[1:] {
		rec.Alternatives = append(rec.Alternatives, alt.Name)
	}

	return rec
}

// FormatPatternForPrompt renders a pattern as prompt text.
func FormatPatternForPrompt(p Pattern) string {
	lines := []string{
		fmt.Sprintf("**%s**", p.Name),
		fmt.Sprintf("Description: %s", p.Description),
		fmt.Sprintf("Template: %s", p.Template),
		fmt.Sprintf("Example: %s", p.Example),
	}

	if len(p.UseWhen) > 0 {
		lines = append(lines, "Use when: "+strings.Join(firstN(p.UseWhen, 2), "; "))
	}
	if len(p.DoNotUseWhen) > 0 {
		lines = append(lines, "Do NOT use when: "+strings.Join(firstN(p.DoNotUseWhen, 2), "; "))
	}
	if p.Warning != "" {
		lines = append(lines, fmt.Sprintf("WARNING: %s", p.Warning))
	}

	return strings.Join(lines, "\n")
}

// PatternsSummary lists every pattern with its leading intents, one per line.
func PatternsSummary() string {
	lines := make([]string, 0, len(patterns))
	for _, p := range patterns {
		lines = append(lines, fmt.Sprintf("- %s: %s", p.Name, strings.Join(firstN(p.Intent, 3), ", ")))
	}
	return strings.Join(lines, "\n")
}

func firstN(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}
