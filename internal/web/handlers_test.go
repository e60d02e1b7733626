package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sheetpilot/sheetpilot/internal/action"
	"github.com/sheetpilot/sheetpilot/internal/config"
	"github.com/sheetpilot/sheetpilot/internal/session"
	"github.com/sheetpilot/sheetpilot/internal/sheet"
)

func testServer(t *testing.T) (*session.Manager, http.Handler) {
	t.Helper()
	sessions := session.NewManager()
	srv := NewServer(sessions, config.DefaultConfig(), "test", "127.0.0.1", 0)
	return sessions, srv.Handler
}

func testCells() sheet.CellMap {
	return sheet.CellMap{
		"A1": "Region", "B1": "Sales",
		"A2": "East", "B2": "100",
		"A3": "West", "B3": "150",
	}
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleList_Empty(t *testing.T) {
	_, handler := testServer(t)

	rec := get(t, handler, "/sessions")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No open sessions") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandleList_ShowsSessions(t *testing.T) {
	sessions, handler := testServer(t)
	s, _ := sessions.Open("Q1 Data", testCells(), nil)

	rec := get(t, handler, "/sessions")
	body := rec.Body.String()
	if !strings.Contains(body, s.ID) || !strings.Contains(body, "Q1 Data") {
		t.Errorf("body missing session row: %q", body)
	}
}

func TestHandleDetail(t *testing.T) {
	sessions, handler := testServer(t)
	s, _ := sessions.Open("Q1 Data", testCells(), nil)
	s.Queue.Enqueue(&action.CreateSheet{Name: "Summary"})

	rec := get(t, handler, "/sessions/"+s.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Region") || !strings.Contains(body, "Sales") {
		t.Errorf("body missing analyzed columns: %q", body)
	}
	if !strings.Contains(body, "createSheet") {
		t.Errorf("body missing queued action: %q", body)
	}
	// Verification only runs when asked for.
	if strings.Contains(body, "Verification") {
		t.Errorf("unexpected verification section: %q", body)
	}
}

func TestHandleDetail_Verify(t *testing.T) {
	sessions, handler := testServer(t)
	s, _ := sessions.Open("Q1 Data", testCells(), nil)
	s.Queue.Enqueue(&action.SetFormula{Sheet: "Q1 Data", Cell: "C2", Formula: "=SUM(B2:B)"})

	rec := get(t, handler, "/sessions/"+s.ID+"?verify=1")
	body := rec.Body.String()
	if !strings.Contains(body, "PASSED_WITH_FIXES") {
		t.Errorf("body missing verdict: %q", body)
	}
}

func TestHandleDetail_NotFound(t *testing.T) {
	_, handler := testServer(t)

	rec := get(t, handler, "/sessions/01UNKNOWNUNKNOWNUNKNOWNUNK")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleSessionJSON(t *testing.T) {
	sessions, handler := testServer(t)
	s, _ := sessions.Open("Q1 Data", testCells(), nil)
	s.Queue.Enqueue(&action.CreateSheet{Name: "Summary"})

	rec := get(t, handler, "/sessions/"+s.ID+"/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload["sheetName"] != "Q1 Data" {
		t.Errorf("payload = %v", payload)
	}
	actions := payload["actions"].([]any)
	if len(actions) != 1 || actions[0].(map[string]any)["action"] != "createSheet" {
		t.Errorf("actions = %v", actions)
	}
}

func TestRootRedirects(t *testing.T) {
	_, handler := testServer(t)

	rec := get(t, handler, "/")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/sessions" {
		t.Errorf("status = %d, location = %q", rec.Code, rec.Header().Get("Location"))
	}
}
