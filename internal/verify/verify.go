// Package verify runs post-hoc checks over a queued action sequence before
// it is handed to the frontend executor. It catches the mistakes the model
// still makes after per-action fixing: open-ended ranges, charts pointing at
// sheets that will not exist, delete actions missing their target, and
// conditional formats with no visible effect.
package verify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sheetpilot/sheetpilot/internal/action"
	"github.com/sheetpilot/sheetpilot/internal/formula"
	"github.com/sheetpilot/sheetpilot/internal/sheet"
)

// Verdict values for a verification pass.
const (
	Passed          = "PASSED"
	PassedWithFixes = "PASSED_WITH_FIXES"
	NeedsReview     = "NEEDS_REVIEW"
)

// Report summarizes one verification pass.
type Report struct {
	TotalActions int      `json:"total_actions"`
	IssuesFound  int      `json:"issues_found"`
	Issues       []string `json:"issues"`
	FixesApplied []string `json:"fixes_applied"`
	Verification string   `json:"verification"`
}

var (
	openEndedPattern = regexp.MustCompile(`([A-Z])(\d+):([A-Z])\b`)
	sumifMultHint    = regexp.MustCompile(`(?i)SUMIF.*\*`)
)

// Verify checks every queued action against the sheet metadata and applies
// in-place fixes where the correction is unambiguous. Actions are mutated
// through their pointers; the queue order is never changed.
func Verify(actions []action.Action, meta *sheet.SheetMetadata) *Report {
	lastRow := 100
	sheetName := ""
	if meta != nil {
		if meta.LastRow > 0 {
			lastRow = meta.LastRow
		}
		sheetName = meta.SheetName
	}

	var issues, fixes []string
	unresolved := 0
	issue := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
		unresolved++
	}
	resolvedIssue := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	createdSheets := map[string]bool{}

	for i, a := range actions {
		n := i + 1

		switch act := a.(type) {
		case *action.CreateSheet:
			createdSheets[act.Name] = true

		case *action.SetFormula:
			if openEndedPattern.MatchString(act.Formula) {
				resolvedIssue("Action %d: Formula has open-ended range", n)
				act.Formula = boundOpenRanges(act.Formula, lastRow)
				fixes = append(fixes, fmt.Sprintf("Fixed range to use lastRow=%d", lastRow))
			}
			if sumifMultHint.MatchString(act.Formula) {
				issue("Action %d: SUMIF with multiplication detected", n)
			}
			if result := formula.Validate(act.Formula); !result.Valid {
				for _, err := range result.Errors {
					issue("Action %d: %s", n, err)
				}
			}

		case *action.CreateChart:
			if !createdSheets[act.DataSheet] && act.DataSheet != sheetName {
				issue("Action %d: Chart references unknown sheet '%s'", n, act.DataSheet)
			}
			if act.EndRow > 0 && act.EndRow > lastRow+10 {
				issue("Action %d: Chart endRow=%d seems too large", n, act.EndRow)
			}

		case *action.DeleteRows:
			if len(act.Rows) == 0 && act.Condition == nil {
				issue("Action %d: deleteRows requires 'rows' or 'condition'", n)
			}

		case *action.DeleteColumns:
			if len(act.Columns) == 0 {
				issue("Action %d: deleteColumns requires 'columns'", n)
			}

		case *action.DeleteSheet:
			if act.Name == "" {
				issue("Action %d: deleteSheet requires 'name'", n)
			}

		case *action.ConditionalFormat:
			if act.Type == "comparison" && act.Operator == "" {
				issue("Action %d: conditionalFormat comparison requires 'operator'", n)
			}
			if act.Type == "comparison" && act.Value == nil {
				issue("Action %d: conditionalFormat comparison requires 'value'", n)
			}
			if act.Type == "text" && act.TextContains == "" {
				issue("Action %d: conditionalFormat text requires 'textContains'", n)
			}
			if act.Type != "colorScale" && act.Background == "" && act.FontColor == "" && !act.Bold {
				issue("Action %d: conditionalFormat has no visible effect; add 'background', 'fontColor', or 'bold'", n)
			}
			if act.Sheet == "Sheet1" && sheetName != "" && sheetName != "Sheet1" {
				act.Sheet = sheetName
				fixes = append(fixes, fmt.Sprintf("Action %d: Fixed conditionalFormat sheet from 'Sheet1' to '%s'", n, sheetName))
			}

		case *action.DataValidation:
			if act.Type == "list" && len(act.Values) == 0 {
				issue("Action %d: dataValidation list requires 'values'", n)
			}

		case *action.FindReplace:
			if act.Find == "" {
				issue("Action %d: findReplace requires 'find'", n)
			}
		}
	}

	verdict := NeedsReview
	switch {
	case len(issues) == 0:
		verdict = Passed
	case unresolved == 0:
		verdict = PassedWithFixes
	}

	return &Report{
		TotalActions: len(actions),
		IssuesFound:  len(issues),
		Issues:       issues,
		FixesApplied: fixes,
		Verification: verdict,
	}
}

// boundOpenRanges rewrites same-column open-ended references (A2:A) to end
// at lastRow. Mismatched letters are left alone; the auto-fixer handles the
// general case before actions reach this point.
func boundOpenRanges(f string, lastRow int) string {
	return openEndedPattern.ReplaceAllStringFunc(f, func(m string) string {
		sub := openEndedPattern.FindStringSubmatch(m)
		if sub[1] != sub[3] {
			return m
		}
		return fmt.Sprintf("%s%s:%s%d", sub[1], sub[2], sub[3], lastRow)
	})
}

// Summary renders a report as a short human-readable block for tool output.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Verification: %s (%d actions, %d issues)\n", r.Verification, r.TotalActions, r.IssuesFound)
	for _, iss := range r.Issues {
		fmt.Fprintf(&b, "- %s\n", iss)
	}
	for _, fix := range r.FixesApplied {
		fmt.Fprintf(&b, "+ %s\n", fix)
	}
	return b.String()
}
