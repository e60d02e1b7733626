package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
//
// The analysis heuristics (type-inference thresholds, categorical limits,
// the duplicate threshold, retrieval sizing) are configuration rather than
// constants so deployments can tune them without rebuilding.
type Config struct {
	// NumericThreshold is the fraction of non-empty values that must parse
	// as numbers for a column to be classified numeric.
	NumericThreshold float64 `json:"numeric_threshold,omitempty"`

	// DateThreshold is the fraction of non-empty values that must match a
	// date shape for a column to be classified as a date column.
	DateThreshold float64 `json:"date_threshold,omitempty"`

	// CategoricalUniqueRatio is the maximum unique/total ratio for a text
	// column to be classified categorical.
	CategoricalUniqueRatio float64 `json:"categorical_unique_ratio,omitempty"`

	// CategoricalMaxUnique is the maximum distinct-value count for a
	// categorical column.
	CategoricalMaxUnique int `json:"categorical_max_unique,omitempty"`

	// DuplicateMinCount is the minimum occurrence count for a value to be
	// reported as a duplicate.
	DuplicateMinCount int `json:"duplicate_min_count,omitempty"`

	// HighlightColor is the background color applied to duplicate rows by
	// the find-duplicates plan.
	HighlightColor string `json:"highlight_color,omitempty"`

	// RAGThresholdRows is the row count above which retrieval is used
	// instead of full sheet context.
	RAGThresholdRows int `json:"rag_threshold_rows,omitempty"`

	// RAGResultsCount is the default number of rows returned by retrieval.
	RAGResultsCount int `json:"rag_results_count,omitempty"`

	// RAGMaxCached is the maximum number of vector indexes kept in memory.
	// The oldest index is evicted beyond this.
	RAGMaxCached int `json:"rag_max_cached,omitempty"`

	// EmbeddingsURL is the base URL of a local embeddings service, used as
	// the fallback provider when no OpenAI key is configured.
	EmbeddingsURL string `json:"embeddings_url,omitempty"`

	// ChatModel is the model name used for classification calls.
	ChatModel string `json:"chat_model,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// All tools are enabled by default. Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		NumericThreshold:       0.8,
		DateThreshold:          0.5,
		CategoricalUniqueRatio: 0.3,
		CategoricalMaxUnique:   20,
		DuplicateMinCount:      2,
		HighlightColor:         "#FFCDD2",
		RAGThresholdRows:       500,
		RAGResultsCount:        30,
		RAGMaxCached:           10,
		ChatModel:              "gpt-4o-mini",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.sheetpilot.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithLocal loads configuration from both global (~/.sheetpilot) and
// project (.sheetpilot) directories. Project config is found by walking
// upward from startDir to the nearest .sheetpilot/config.json.
// Project config takes precedence for scalar values; arrays are merged
// (deduplicated). Either or both configs may be missing.
func LoadWithLocal(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	localConfigPath := FindLocalConfig(startDir)
	local, err := loadFileRaw(localConfigPath)
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then project-local
	return Merge(Merge(DefaultConfig(), global), local), nil
}

// FindLocalConfig walks upward from startDir to find the nearest
// .sheetpilot/config.json. Returns the path if found, or empty string.
func FindLocalConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".sheetpilot", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, not found
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// File doesn't exist, return zero config
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.NumericThreshold = overlay.NumericThreshold
	if result.NumericThreshold == 0 {
		result.NumericThreshold = base.NumericThreshold
	}

	result.DateThreshold = overlay.DateThreshold
	if result.DateThreshold == 0 {
		result.DateThreshold = base.DateThreshold
	}

	result.CategoricalUniqueRatio = overlay.CategoricalUniqueRatio
	if result.CategoricalUniqueRatio == 0 {
		result.CategoricalUniqueRatio = base.CategoricalUniqueRatio
	}

	result.CategoricalMaxUnique = overlay.CategoricalMaxUnique
	if result.CategoricalMaxUnique == 0 {
		result.CategoricalMaxUnique = base.CategoricalMaxUnique
	}

	result.DuplicateMinCount = overlay.DuplicateMinCount
	if result.DuplicateMinCount == 0 {
		result.DuplicateMinCount = base.DuplicateMinCount
	}

	result.HighlightColor = overlay.HighlightColor
	if result.HighlightColor == "" {
		result.HighlightColor = base.HighlightColor
	}

	result.RAGThresholdRows = overlay.RAGThresholdRows
	if result.RAGThresholdRows == 0 {
		result.RAGThresholdRows = base.RAGThresholdRows
	}

	result.RAGResultsCount = overlay.RAGResultsCount
	if result.RAGResultsCount == 0 {
		result.RAGResultsCount = base.RAGResultsCount
	}

	result.RAGMaxCached = overlay.RAGMaxCached
	if result.RAGMaxCached == 0 {
		result.RAGMaxCached = base.RAGMaxCached
	}

	result.EmbeddingsURL = overlay.EmbeddingsURL
	if result.EmbeddingsURL == "" {
		result.EmbeddingsURL = base.EmbeddingsURL
	}

	result.ChatModel = overlay.ChatModel
	if result.ChatModel == "" {
		result.ChatModel = base.ChatModel
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
