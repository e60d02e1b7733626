package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.NumericThreshold != DefaultConfig().NumericThreshold {
		t.Fatalf("NumericThreshold = %v, want %v", cfg.NumericThreshold, DefaultConfig().NumericThreshold)
	}
	if cfg.RAGMaxCached != 10 {
		t.Fatalf("RAGMaxCached = %d, want 10", cfg.RAGMaxCached)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"rag_threshold_rows": 200, "highlight_color": "#FFF59D"}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RAGThresholdRows != 200 {
		t.Fatalf("RAGThresholdRows = %d, want 200", cfg.RAGThresholdRows)
	}
	if cfg.HighlightColor != "#FFF59D" {
		t.Fatalf("HighlightColor = %q, want %q", cfg.HighlightColor, "#FFF59D")
	}
	// Untouched fields keep defaults
	if cfg.NumericThreshold != 0.8 {
		t.Fatalf("NumericThreshold = %v, want 0.8", cfg.NumericThreshold)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"disabled_tools": ["actions_flush", "sheet_index"]}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if cfg.DisabledTools[0] != "actions_flush" {
		t.Errorf("DisabledTools[0] = %q, want %q", cfg.DisabledTools[0], "actions_flush")
	}
	if cfg.DisabledTools[1] != "sheet_index" {
		t.Errorf("DisabledTools[1] = %q, want %q", cfg.DisabledTools[1], "sheet_index")
	}
}

func TestLoadWithLocal_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	projectRoot := t.TempDir()

	globalConfig := `{"rag_results_count": 50, "disabled_tools": ["actions_flush"]}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	localDir := filepath.Join(projectRoot, ".sheetpilot")
	if err := os.MkdirAll(localDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	localConfig := `{"rag_results_count": 15, "disabled_tools": ["sheet_index"]}`
	if err := os.WriteFile(filepath.Join(localDir, "config.json"), []byte(localConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadWithLocal(globalDir, projectRoot)
	if err != nil {
		t.Fatalf("LoadWithLocal() error = %v", err)
	}

	// Project-local overrides scalar
	if cfg.RAGResultsCount != 15 {
		t.Errorf("RAGResultsCount = %d, want 15 (local override)", cfg.RAGResultsCount)
	}

	// Arrays merged
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
}

func TestLoadWithLocal_NeitherPresent(t *testing.T) {
	globalDir := t.TempDir()
	projectDir := t.TempDir()

	cfg, err := LoadWithLocal(globalDir, projectDir)
	if err != nil {
		t.Fatalf("LoadWithLocal() error = %v", err)
	}

	// All defaults
	if cfg.CategoricalMaxUnique != 20 {
		t.Errorf("CategoricalMaxUnique = %d, want 20", cfg.CategoricalMaxUnique)
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{DuplicateMinCount: 2, DBMaxOpenConns: 5}
	overlay := &Config{DuplicateMinCount: 3} // DBMaxOpenConns is 0 (zero value)

	result := Merge(base, overlay)

	if result.DuplicateMinCount != 3 {
		t.Errorf("DuplicateMinCount = %d, want 3 (overlay)", result.DuplicateMinCount)
	}
	if result.DBMaxOpenConns != 5 {
		t.Errorf("DBMaxOpenConns = %d, want 5 (base, overlay is zero)", result.DBMaxOpenConns)
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTools: []string{"actions_flush", "sheet_index"}}
	overlay := &Config{DisabledTools: []string{"sheet_index", "rag_search"}}

	result := Merge(base, overlay)

	if len(result.DisabledTools) != 3 {
		t.Errorf("DisabledTools length = %d, want 3 (merged, deduped)", len(result.DisabledTools))
	}

	has := make(map[string]bool)
	for _, s := range result.DisabledTools {
		has[s] = true
	}
	for _, want := range []string{"actions_flush", "sheet_index", "rag_search"} {
		if !has[want] {
			t.Errorf("DisabledTools missing %q", want)
		}
	}
}

func TestFindLocalConfig_InParentDir(t *testing.T) {
	tmpDir := t.TempDir()
	localDir := filepath.Join(tmpDir, ".sheetpilot")
	if err := os.MkdirAll(localDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	configPath := filepath.Join(localDir, "config.json")
	if err := os.WriteFile(configPath, []byte(`{}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	subdir := filepath.Join(tmpDir, "subdir", "deeper")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	found := FindLocalConfig(subdir)
	if found != configPath {
		t.Errorf("FindLocalConfig() = %q, want %q", found, configPath)
	}
}

func TestFindLocalConfig_NotFound(t *testing.T) {
	tmpDir := t.TempDir()

	found := FindLocalConfig(tmpDir)
	if found != "" {
		t.Errorf("FindLocalConfig() = %q, want empty string", found)
	}
}
