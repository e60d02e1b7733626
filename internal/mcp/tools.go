package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions. Descriptions are written for the model that calls them:
// they spell out argument shapes and the order tools are meant to be used in,
// because the caller cannot read this source.

var sessionOpenToolDef = mcp.NewTool("session_open",
	mcp.WithDescription("Open a session for a sheet snapshot. Call this first; every other tool needs the returned session_id. Returns the session ID and the analyzed sheet metadata."),
	mcp.WithString("sheet_name", mcp.Description("Name of the sheet (default Sheet1)")),
	mcp.WithObject("cells", mcp.Required(), mcp.Description("Cell map, e.g. {\"A1\": \"Name\", \"B2\": \"42\"}")),
)

var sessionUpdateToolDef = mcp.NewTool("session_update",
	mcp.WithDescription("Replace a session's cells with a fresh snapshot and re-analyze. Returns the new metadata."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithObject("cells", mcp.Required(), mcp.Description("Replacement cell map")),
)

var sessionCloseToolDef = mcp.NewTool("session_close",
	mcp.WithDescription("Close a session and drop its queued actions."),
	mcp.WithString("session_id", mcp.Required()),
)

var getHeadersToolDef = mcp.NewTool("get_headers",
	mcp.WithDescription("Get the column headers of the sheet. Use this FIRST to understand the data structure. Returns a map of column letters to header names."),
	mcp.WithString("session_id", mcp.Required()),
)

var getColumnValuesToolDef = mcp.NewTool("get_column_values",
	mcp.WithDescription("Get sample values from a column, skipping the header row. Returns an array of {row, value} objects sorted by row."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("column", mcp.Required(), mcp.Description("Column letter, e.g. \"A\"")),
	mcp.WithNumber("limit", mcp.Description("Maximum values to return (default 20)")),
)

var getColumnStatsToolDef = mcp.NewTool("get_column_stats",
	mcp.WithDescription("Get statistics for a column: header, inferred type, unique count, sample values, and numeric min/max/avg/sum when applicable. Use uniqueCount to size chart ranges: endRow = 2 + uniqueCount - 1."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("column", mcp.Required(), mcp.Description("Column letter")),
)

var getChartRangeToolDef = mcp.NewTool("get_chart_range",
	mcp.WithDescription("Get the startRow, endRow, and autoFillDown lastRow for charting a grouped summary of the given column. Call this BEFORE create_chart."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("column", mcp.Required(), mcp.Description("Column letter used for grouping/labels")),
)

var getRowToolDef = mcp.NewTool("get_row",
	mcp.WithDescription("Get all values from one row as a map of column letters to values."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithNumber("row_number", mcp.Required(), mcp.Description("1-indexed row number")),
)

var getCellToolDef = mcp.NewTool("get_cell",
	mcp.WithDescription("Get the value of a single cell."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("cell", mcp.Required(), mcp.Description("Cell reference like \"B5\"")),
)

var getDataRangeToolDef = mcp.NewTool("get_data_range",
	mcp.WithDescription("Get the sheet's extent: row count, column count, last row, and the column letters present."),
	mcp.WithString("session_id", mcp.Required()),
)

var countRowsToolDef = mcp.NewTool("count_rows",
	mcp.WithDescription("Count the data rows in the sheet, excluding the header row."),
	mcp.WithString("session_id", mcp.Required()),
)

var lookupFormulaToolDef = mcp.NewTool("lookup_formula",
	mcp.WithDescription("Search the formula knowledge base for the right pattern before writing a formula. Returns the recommended formula, a template, a ready example for this sheet, warnings, and common mistakes. ALWAYS call this before set_formula when aggregating."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("intent", mcp.Required(), mcp.Description("What you want to calculate, e.g. \"sum by category\" or \"count unique values\"")),
)

var createSheetToolDef = mcp.NewTool("create_sheet",
	mcp.WithDescription("Queue creation of a new sheet. Duplicate names already queued are acknowledged, not queued twice."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("name", mcp.Required(), mcp.Description("Name for the new sheet")),
)

var setFormulaToolDef = mcp.NewTool("set_formula",
	mcp.WithDescription("Queue a formula write. The formula is validated and common mistakes are fixed automatically (open-ended ranges bounded, SUMIF with arithmetic rewritten). fillDown is blocked for auto-spill formulas like UNIQUE and FILTER."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("sheet", mcp.Description("Target sheet (default the session sheet)")),
	mcp.WithString("cell", mcp.Required(), mcp.Description("Target cell, e.g. \"B2\"")),
	mcp.WithString("formula", mcp.Required(), mcp.Description("Formula starting with =")),
	mcp.WithBoolean("fill_down", mcp.Description("Copy the formula down when the range fills")),
)

var setValuesToolDef = mcp.NewTool("set_values",
	mcp.WithDescription("Queue writing a 2D block of values into a range."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("sheet", mcp.Description("Target sheet (default the session sheet)")),
	mcp.WithString("range", mcp.Required(), mcp.Description("Target range, e.g. \"A1:B1\"")),
	mcp.WithArray("values", mcp.Required(), mcp.Description("Row-major values, e.g. [[\"Region\", \"Total\"]]")),
)

var setCellValueToolDef = mcp.NewTool("set_cell_value",
	mcp.WithDescription("Queue writing a single cell value."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("cell", mcp.Required()),
	mcp.WithString("value", mcp.Required()),
)

var formatHeadersToolDef = mcp.NewTool("format_headers",
	mcp.WithDescription("Queue header styling for a range: bold, blue background, white text."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("sheet", mcp.Description("Target sheet (default the session sheet)")),
	mcp.WithString("range", mcp.Required(), mcp.Description("Header range, e.g. \"A1:B1\"")),
)

var formatRangeToolDef = mcp.NewTool("format_range",
	mcp.WithDescription("Queue arbitrary formatting for a range."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("sheet", mcp.Description("Target sheet (default the session sheet)")),
	mcp.WithString("range", mcp.Required()),
	mcp.WithBoolean("bold"),
	mcp.WithBoolean("italic"),
	mcp.WithNumber("font_size"),
	mcp.WithString("font_color", mcp.Description("Hex color like \"#FFFFFF\"")),
	mcp.WithString("background", mcp.Description("Hex color like \"#4472C4\"")),
	mcp.WithString("horizontal_alignment", mcp.Description("left, center, or right")),
)

var autoFillDownToolDef = mcp.NewTool("auto_fill_down",
	mcp.WithDescription("Queue copying a formula from a source cell down to the given last row. Use get_chart_range to compute the last row for grouped summaries."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("sheet", mcp.Description("Target sheet (default the session sheet)")),
	mcp.WithString("source_cell", mcp.Required(), mcp.Description("Cell holding the formula, e.g. \"B2\"")),
	mcp.WithNumber("last_row", mcp.Required()),
)

var createChartToolDef = mcp.NewTool("create_chart",
	mcp.WithDescription("Queue chart creation from a label column and a value column. Call get_chart_range first to size start_row/end_row."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("chart_type", mcp.Description("bar, pie, line, column, or doughnut (default bar)")),
	mcp.WithString("title", mcp.Required()),
	mcp.WithString("data_sheet", mcp.Required(), mcp.Description("Sheet holding the chart data")),
	mcp.WithString("label_column", mcp.Required()),
	mcp.WithString("value_column", mcp.Required()),
	mcp.WithNumber("start_row", mcp.Description("First data row (default 2)")),
	mcp.WithNumber("end_row", mcp.Required()),
)

var insertColumnToolDef = mcp.NewTool("insert_column",
	mcp.WithDescription("Queue inserting a new column after an existing one."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("after", mcp.Required(), mcp.Description("Column letter to insert after")),
	mcp.WithString("header", mcp.Description("Header for the new column")),
)

var setNumberFormatToolDef = mcp.NewTool("set_number_format",
	mcp.WithDescription("Queue a number format for a range: currency, percent, date, number, or custom."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("sheet", mcp.Description("Target sheet (default the session sheet)")),
	mcp.WithString("range", mcp.Required()),
	mcp.WithString("format", mcp.Required(), mcp.Description("currency, percent, date, number, or custom")),
	mcp.WithNumber("decimals"),
	mcp.WithString("currency_symbol"),
	mcp.WithString("custom_pattern", mcp.Description("Pattern for format \"custom\", e.g. \"#,##0.00\"")),
)

var setBordersToolDef = mcp.NewTool("set_borders",
	mcp.WithDescription("Queue borders around or inside a range."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("sheet", mcp.Description("Target sheet (default the session sheet)")),
	mcp.WithString("range", mcp.Required()),
	mcp.WithString("style", mcp.Description("all, outer, inner, top, bottom, left, or right (default all)")),
	mcp.WithString("weight", mcp.Description("thin, medium, or thick (default thin)")),
	mcp.WithString("color", mcp.Description("Hex color (default #000000)")),
)

var freezePanesToolDef = mcp.NewTool("freeze_panes",
	mcp.WithDescription("Queue freezing header rows and/or columns."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("sheet", mcp.Description("Target sheet (default the session sheet)")),
	mcp.WithNumber("rows", mcp.Description("Rows to freeze from the top")),
	mcp.WithNumber("columns", mcp.Description("Columns to freeze from the left")),
)

var autoResizeColumnsToolDef = mcp.NewTool("auto_resize_columns",
	mcp.WithDescription("Queue resizing columns to fit their content. Omit columns to resize all."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("sheet", mcp.Description("Target sheet (default the session sheet)")),
	mcp.WithArray("columns", mcp.Description("Column letters, e.g. [\"A\", \"B\"]; omit for all")),
)

var deleteRowsToolDef = mcp.NewTool("delete_rows",
	mcp.WithDescription("Queue deleting rows, either by explicit row numbers or by a condition on a column."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("sheet", mcp.Description("Target sheet (default the session sheet)")),
	mcp.WithArray("rows", mcp.Description("Row numbers to delete")),
	mcp.WithString("condition_column", mcp.Description("Column for conditional deletion")),
	mcp.WithString("condition_value", mcp.Description("Delete rows where the column equals this value")),
	mcp.WithBoolean("condition_empty", mcp.Description("Delete rows where the column is empty")),
)

var deleteColumnsToolDef = mcp.NewTool("delete_columns",
	mcp.WithDescription("Queue deleting columns by letter."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("sheet", mcp.Description("Target sheet (default the session sheet)")),
	mcp.WithArray("columns", mcp.Required(), mcp.Description("Column letters to delete")),
)

var mergeCellsToolDef = mcp.NewTool("merge_cells",
	mcp.WithDescription("Queue merging cells in a range."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("sheet", mcp.Description("Target sheet (default the session sheet)")),
	mcp.WithString("range", mcp.Required()),
	mcp.WithString("type", mcp.Description("all, horizontal, or vertical (default all)")),
)

var clearRangeToolDef = mcp.NewTool("clear_range",
	mcp.WithDescription("Queue clearing a range's contents, formatting, or both."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("sheet", mcp.Description("Target sheet (default the session sheet)")),
	mcp.WithString("range", mcp.Required()),
	mcp.WithString("type", mcp.Description("contents, format, or all (default contents)")),
)

var copyRangeToolDef = mcp.NewTool("copy_range",
	mcp.WithDescription("Queue copying a range to a destination cell, optionally values only."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("source_sheet", mcp.Description("Source sheet (default the session sheet)")),
	mcp.WithString("source_range", mcp.Required()),
	mcp.WithString("dest_sheet", mcp.Description("Destination sheet (default the source sheet)")),
	mcp.WithString("dest_cell", mcp.Required()),
	mcp.WithBoolean("values_only"),
)

var conditionalFormatToolDef = mcp.NewTool("conditional_format",
	mcp.WithDescription("Queue a conditional format rule. Type cellValue needs operator and value; type textContains needs text_contains; type colorScale uses the scale colors. Give the rule a background or font color so it has a visible effect."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("sheet", mcp.Description("Target sheet (default the session sheet)")),
	mcp.WithString("range", mcp.Required()),
	mcp.WithString("type", mcp.Required(), mcp.Description("cellValue, textContains, or colorScale")),
	mcp.WithString("operator", mcp.Description("greaterThan, lessThan, equal, between, ... for cellValue rules")),
	mcp.WithString("value", mcp.Description("Comparison value for cellValue rules")),
	mcp.WithString("value_to", mcp.Description("Upper bound for between rules")),
	mcp.WithString("text_contains", mcp.Description("Substring for textContains rules")),
	mcp.WithString("background", mcp.Description("Hex fill color")),
	mcp.WithString("font_color", mcp.Description("Hex font color")),
	mcp.WithBoolean("bold"),
	mcp.WithString("color_scale_min", mcp.Description("Hex color for the low end of a colorScale")),
	mcp.WithString("color_scale_mid"),
	mcp.WithString("color_scale_max"),
)

var setDataValidationToolDef = mcp.NewTool("set_data_validation",
	mcp.WithDescription("Queue a data validation rule. Type list needs values; type number can carry min/max."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("sheet", mcp.Description("Target sheet (default the session sheet)")),
	mcp.WithString("range", mcp.Required()),
	mcp.WithString("type", mcp.Required(), mcp.Description("list, number, date, checkbox, or custom")),
	mcp.WithArray("values", mcp.Description("Allowed values for list rules")),
	mcp.WithNumber("min"),
	mcp.WithNumber("max"),
	mcp.WithBoolean("allow_invalid", mcp.Description("Warn instead of rejecting invalid input")),
	mcp.WithString("custom_formula", mcp.Description("Formula for custom rules")),
)

var renameSheetToolDef = mcp.NewTool("rename_sheet",
	mcp.WithDescription("Queue renaming a sheet."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("old_name", mcp.Required()),
	mcp.WithString("new_name", mcp.Required()),
)

var copySheetToolDef = mcp.NewTool("copy_sheet",
	mcp.WithDescription("Queue duplicating a sheet under a new name."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("source", mcp.Required()),
	mcp.WithString("new_name", mcp.Required()),
)

var deleteSheetToolDef = mcp.NewTool("delete_sheet",
	mcp.WithDescription("Queue deleting a sheet by name."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("name", mcp.Required()),
)

var findReplaceToolDef = mcp.NewTool("find_replace",
	mcp.WithDescription("Queue a find-and-replace over the sheet or a range."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("sheet", mcp.Description("Target sheet (default the session sheet)")),
	mcp.WithString("find", mcp.Required()),
	mcp.WithString("replace", mcp.Required()),
	mcp.WithString("range", mcp.Description("Restrict the replacement to this range")),
	mcp.WithBoolean("match_case"),
)

var highlightRangeToolDef = mcp.NewTool("highlight_range",
	mcp.WithDescription("Queue highlighting cells with a background color."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("range", mcp.Required(), mcp.Description("Range to highlight, e.g. \"A2:A10\"")),
	mcp.WithString("color", mcp.Description("Hex color (default yellow #FFFF00)")),
)

var filterDataToolDef = mcp.NewTool("filter_data",
	mcp.WithDescription("Queue filtering rows by a column criteria."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("column", mcp.Required()),
	mcp.WithString("criteria", mcp.Required(), mcp.Description("Criteria like \">100\" or \"=East\"")),
)

var sortDataToolDef = mcp.NewTool("sort_data",
	mcp.WithDescription("Queue sorting rows by a column."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("column", mcp.Required()),
	mcp.WithBoolean("ascending", mcp.Description("Sort ascending (default true)")),
)

var clearFiltersToolDef = mcp.NewTool("clear_filters",
	mcp.WithDescription("Queue removing all active filters."),
	mcp.WithString("session_id", mcp.Required()),
)

var actionsVerifyToolDef = mcp.NewTool("actions_verify",
	mcp.WithDescription("Verify the session's queued actions against the sheet metadata. Fixable problems are corrected in place; the report says PASSED, PASSED_WITH_FIXES, or NEEDS_REVIEW. Call this before actions_flush."),
	mcp.WithString("session_id", mcp.Required()),
)

var actionsFlushToolDef = mcp.NewTool("actions_flush",
	mcp.WithDescription("Return the session's queued actions in wire form and empty the queue."),
	mcp.WithString("session_id", mcp.Required()),
)

var ragIndexToolDef = mcp.NewTool("rag_index",
	mcp.WithDescription("Build (or reuse) the semantic index for the session's sheet. Safe to call repeatedly; unchanged content is a no-op."),
	mcp.WithString("session_id", mcp.Required()),
)

var ragSearchToolDef = mcp.NewTool("rag_search",
	mcp.WithDescription("Semantic search over the session's rows. Indexes the sheet first if needed. Results are sorted best match first (lower score is closer)."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("query", mcp.Required()),
	mcp.WithNumber("k", mcp.Description("Number of rows to return (default from config)")),
)

var ragSearchMultiToolDef = mcp.NewTool("rag_search_multi",
	mcp.WithDescription("Semantic search across the sheets of every open session at once. Per-sheet results are merged and sorted best match first."),
	mcp.WithString("query", mcp.Required()),
	mcp.WithNumber("k", mcp.Description("Total number of rows to return (default from config)")),
)

var ragSimilarRowsToolDef = mcp.NewTool("rag_similar_rows",
	mcp.WithDescription("Find rows semantically similar to one row. The source row is excluded from the results."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithNumber("row", mcp.Required(), mcp.Description("1-indexed row number to compare against")),
	mcp.WithNumber("k", mcp.Description("Number of rows to return (default 5)")),
)

var ragContextToolDef = mcp.NewTool("rag_context",
	mcp.WithDescription("Build the data context block for a query: the full sheet when it is small, or the most relevant rows via retrieval when it is large."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("query", mcp.Required()),
)

var ragClearToolDef = mcp.NewTool("rag_clear",
	mcp.WithDescription("Delete stored semantic indexes. Pass a sheet name to clear one sheet, or omit it to clear everything."),
	mcp.WithString("sheet_name", mcp.Description("Sheet to clear; omit for all")),
)

var requestPlanToolDef = mcp.NewTool("request_plan",
	mcp.WithDescription("Run the full pipeline for a natural-language request: classify it, expand a matching template into actions, and queue them on the session. Returns the response text, the request type, the queued actions, and an inline chart series when one applies."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("request", mcp.Required(), mcp.Description("The user's request, e.g. \"summarize sales by region with a pie chart\"")),
)
