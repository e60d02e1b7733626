package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/sheetpilot/sheetpilot/internal/config"
	"github.com/sheetpilot/sheetpilot/internal/session"
	"github.com/sheetpilot/sheetpilot/internal/verify"
)

// Handlers holds dependencies for web UI handlers.
type Handlers struct {
	sessions *session.Manager
	cfg      *config.Config
	renderer *Renderer
}

// HandleList renders the session list page, newest first.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	live := h.sessions.List()
	sort.Slice(live, func(i, j int) bool { return live[i].CreatedAt.After(live[j].CreatedAt) })

	summaries := make([]SessionSummary, 0, len(live))
	for _, s := range live {
		summaries = append(summaries, summarize(s))
	}

	h.renderer.renderPage(w, r, "sessions", ListPageData{
		PageData: PageData{
			Title:   "Sessions",
			Version: h.renderer.version,
			Nav:     "sessions",
		},
		Sessions: summaries,
	})
}

// HandleDetail renders one session: its analysis, queued actions, and,
// when requested with ?verify=1, a verification report. Verification can
// rewrite queued actions in place, so it only runs when asked for.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s, err := h.sessions.Get(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data := DetailPageData{
		PageData: PageData{
			Title:   s.SheetName,
			Version: h.renderer.version,
			Nav:     "sessions",
		},
		Session: summarize(s),
	}

	if s.Metadata != nil {
		for _, col := range s.Metadata.Columns {
			data.ColumnRows = append(data.ColumnRows, ColumnRow{
				Letter:      col.Letter,
				Header:      col.Header,
				Type:        string(col.Type),
				UniqueCount: col.UniqueCount,
				Samples:     strings.Join(col.Samples, ", "),
			})
		}
	}

	if s.Queue.Len() > 0 {
		if raw, err := s.Queue.MarshalJSON(); err == nil {
			data.ActionsJSON = prettyJSON(raw)
		}
	}

	if r.URL.Query().Get("verify") == "1" {
		report := verify.Verify(s.Queue.Actions(), s.Metadata)
		data.Report = report
		data.ReportHTML = renderMarkdown(report.Summary())
	}

	h.renderer.renderPage(w, r, "session", data)
}

// HandleSessionJSON returns a session's metadata and queued actions as JSON.
func (h *Handlers) HandleSessionJSON(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s, err := h.sessions.Get(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{
		"sessionId": s.ID,
		"sheetName": s.SheetName,
		"metadata":  s.Metadata,
		"actions":   s.Queue,
	})
}

func summarize(s *session.Session) SessionSummary {
	summary := SessionSummary{
		ID:        s.ID,
		SheetName: s.SheetName,
		Queued:    s.Queue.Len(),
		CreatedAt: s.CreatedAt,
	}
	if s.Metadata != nil {
		summary.DataRows = s.Metadata.DataRows
		summary.Columns = s.Metadata.TotalColumns
	}
	return summary
}

// prettyJSON indents a compact JSON document for display.
func prettyJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
