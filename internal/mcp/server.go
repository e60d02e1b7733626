package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sheetpilot/sheetpilot/internal/config"
	"github.com/sheetpilot/sheetpilot/internal/plan"
	"github.com/sheetpilot/sheetpilot/internal/rag"
	"github.com/sheetpilot/sheetpilot/internal/session"
)

// KnownGroups lists the tool-name prefixes that can be disabled as a unit.
var KnownGroups = []string{"session", "get", "count", "lookup", "actions", "rag", "request"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"session_open": {
		def:     sessionOpenToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionOpen },
	},
	"session_update": {
		def:     sessionUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionUpdate },
	},
	"session_close": {
		def:     sessionCloseToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionClose },
	},
	"get_headers": {
		def:     getHeadersToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetHeaders },
	},
	"get_column_values": {
		def:     getColumnValuesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetColumnValues },
	},
	"get_column_stats": {
		def:     getColumnStatsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetColumnStats },
	},
	"get_chart_range": {
		def:     getChartRangeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetChartRange },
	},
	"get_row": {
		def:     getRowToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetRow },
	},
	"get_cell": {
		def:     getCellToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetCell },
	},
	"get_data_range": {
		def:     getDataRangeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetDataRange },
	},
	"count_rows": {
		def:     countRowsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCountRows },
	},
	"lookup_formula": {
		def:     lookupFormulaToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLookupFormula },
	},
	"create_sheet": {
		def:     createSheetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreateSheet },
	},
	"set_formula": {
		def:     setFormulaToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetFormula },
	},
	"set_values": {
		def:     setValuesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetValues },
	},
	"set_cell_value": {
		def:     setCellValueToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetCellValue },
	},
	"format_headers": {
		def:     formatHeadersToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFormatHeaders },
	},
	"format_range": {
		def:     formatRangeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFormatRange },
	},
	"auto_fill_down": {
		def:     autoFillDownToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAutoFillDown },
	},
	"create_chart": {
		def:     createChartToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreateChart },
	},
	"insert_column": {
		def:     insertColumnToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleInsertColumn },
	},
	"set_number_format": {
		def:     setNumberFormatToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetNumberFormat },
	},
	"set_borders": {
		def:     setBordersToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetBorders },
	},
	"freeze_panes": {
		def:     freezePanesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFreezePanes },
	},
	"auto_resize_columns": {
		def:     autoResizeColumnsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAutoResizeColumns },
	},
	"delete_rows": {
		def:     deleteRowsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeleteRows },
	},
	"delete_columns": {
		def:     deleteColumnsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeleteColumns },
	},
	"merge_cells": {
		def:     mergeCellsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMergeCells },
	},
	"clear_range": {
		def:     clearRangeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClearRange },
	},
	"copy_range": {
		def:     copyRangeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCopyRange },
	},
	"conditional_format": {
		def:     conditionalFormatToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleConditionalFormat },
	},
	"set_data_validation": {
		def:     setDataValidationToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetDataValidation },
	},
	"rename_sheet": {
		def:     renameSheetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRenameSheet },
	},
	"copy_sheet": {
		def:     copySheetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCopySheet },
	},
	"delete_sheet": {
		def:     deleteSheetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeleteSheet },
	},
	"find_replace": {
		def:     findReplaceToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFindReplace },
	},
	"highlight_range": {
		def:     highlightRangeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHighlightRange },
	},
	"filter_data": {
		def:     filterDataToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFilterData },
	},
	"sort_data": {
		def:     sortDataToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSortData },
	},
	"clear_filters": {
		def:     clearFiltersToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClearFilters },
	},
	"actions_verify": {
		def:     actionsVerifyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleActionsVerify },
	},
	"actions_flush": {
		def:     actionsFlushToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleActionsFlush },
	},
	"rag_index": {
		def:     ragIndexToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRAGIndex },
	},
	"rag_search": {
		def:     ragSearchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRAGSearch },
	},
	"rag_search_multi": {
		def:     ragSearchMultiToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRAGSearchMulti },
	},
	"rag_similar_rows": {
		def:     ragSimilarRowsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRAGSimilarRows },
	},
	"rag_context": {
		def:     ragContextToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRAGContext },
	},
	"rag_clear": {
		def:     ragClearToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRAGClear },
	},
	"request_plan": {
		def:     requestPlanToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRequestPlan },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GroupForTool extracts the group prefix from a tool name.
// Tool names follow the pattern "group_action" (e.g., "rag_search" → "rag").
func GroupForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandGroupsToTools returns all tool names belonging to the given groups.
func ExpandGroupsToTools(groups []string) []string {
	if len(groups) == 0 {
		return nil
	}

	groupSet := make(map[string]bool, len(groups))
	for _, g := range groups {
		groupSet[g] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if groupSet[GroupForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with sheetpilot tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration; a group
// prefix in that list (e.g. "rag") disables every tool in the group.
func NewServer(sessions *session.Manager, store *rag.Store, executor *plan.Executor, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"sheetpilot",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(sessions, store, executor, cfg)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		if _, ok := toolRegistry[name]; ok {
			disabled[name] = true
			continue
		}
		for _, tool := range ExpandGroupsToTools([]string{name}) {
			disabled[tool] = true
		}
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(sessions *session.Manager, store *rag.Store, executor *plan.Executor, cfg *config.Config, version string) error {
	s := NewServer(sessions, store, executor, cfg, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
