package classify

import (
	"fmt"

	"github.com/sheetpilot/sheetpilot/internal/sheet"
)

const promptTemplate = `You are a request classifier for a spreadsheet AI assistant.

Given the user's request and sheet metadata, classify it and extract parameters.

SHEET METADATA:
%s

USER REQUEST: "%s"

Classify into ONE of these types:
1. simple_question - User just wants information, no sheet modifications needed
2. grouped_summary - Sum/count/avg by category (e.g., "sum of sales by region")
3. grouped_summary_chart - Same as above but with chart (e.g., "chart of sales by region")
4. top_n - Find top/bottom N values (e.g., "top 5 products by sales")
5. find_duplicates - Find duplicate rows. Include "duplicate_columns" (list of column letters to check, or null for all columns)
6. filter_highlight - Filter and highlight rows
7. comparison - Compare one group against another
8. complex - Anything else that needs custom handling

RESPOND IN EXACT JSON FORMAT:
{
  "request_type": "grouped_summary_chart",
  "group_by_column": "D",
  "group_by_header": "Region",
  "value_columns": [["F", "Sales"], ["G", "Profit"]],
  "aggregation": "sum",
  "chart_type": "bar",
  "explanation": "User wants sales and profits grouped by region with a chart"
}

For simple_question, include "answer" field with the response.
For complex, include "plan" field with step-by-step actions.

IMPORTANT:
- Use actual column letters from metadata (A, B, C, etc.)
- Use actual header names from metadata
- For chart_type, use: bar, line, pie, doughnut, scatter
- For aggregation, use: sum, count, avg, max, min

JSON RESPONSE:`

// BuildPrompt renders the one-shot classification prompt.
func BuildPrompt(userRequest string, meta *sheet.SheetMetadata) string {
	metadata := "No metadata available"
	if meta != nil {
		metadata = sheet.FormatForPrompt(meta)
	}
	return fmt.Sprintf(promptTemplate, metadata, userRequest)
}
