package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// Config represents the revlens configuration.
type Config struct {
	Provider    string          `json:"provider"`
	Model       string          `json:"model"`
	Format      string          `json:"format"`
	FailOn      string          `json:"failOn"`
	MaxFindings int             `json:"maxFindings"`
	RulesFile   string          `json:"rulesFile,omitempty"`
	Engine      EngineConfig    `json:"engine"`
	Retrieval   RetrievalConfig `json:"retrieval"`
	Cache       CacheConfig     `json:"cache"`
	Privacy     PrivacyConfig   `json:"privacy"`
}

// EngineConfig tunes context assembly: chunk geometry, declaration windows
// and packing budgets.
type EngineConfig struct {
	ContextBudget    int `json:"contextBudget"`
	BatchBudget      int `json:"batchBudget"`
	MaxBatches       int `json:"maxBatches"`
	FileChunkSize    int `json:"fileChunkSize"`
	FileChunkOverlap int `json:"fileChunkOverlap"`
	UnitChunkSize    int `json:"unitChunkSize"`
	UnitChunkOverlap int `json:"unitChunkOverlap"`
	ClassWindow      int `json:"classWindow"`
	FuncWindow       int `json:"funcWindow"`
	SummaryNodes     int `json:"summaryNodes"`
	SummaryEdges     int `json:"summaryEdges"`
}

// RetrievalConfig tunes the per-rule hybrid retriever.
type RetrievalConfig struct {
	TopK             int    `json:"topK"`
	ChunkLines       int    `json:"chunkLines"`
	OverlapLines     int    `json:"overlapLines"`
	MaxFileBytes     int    `json:"maxFileBytes"`
	EmbeddingModel   string `json:"embeddingModel,omitempty"`
	EmbeddingBaseURL string `json:"embeddingBaseUrl,omitempty"`
}

// CacheConfig controls response caching.
type CacheConfig struct {
	Enabled    bool   `json:"enabled"`
	Dir        string `json:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds"`
}

// PrivacyConfig controls secret redaction of packed context.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:    "anthropic",
		Model:       "claude-sonnet-4-20250514",
		Format:      "text",
		FailOn:      "none",
		MaxFindings: 50,
		Engine: EngineConfig{
			ContextBudget:    6000,
			BatchBudget:      3500,
			MaxBatches:       4,
			FileChunkSize:    900,
			FileChunkOverlap: 150,
			UnitChunkSize:    700,
			UnitChunkOverlap: 120,
			ClassWindow:      2000,
			FuncWindow:       1200,
			SummaryNodes:     10,
			SummaryEdges:     6,
		},
		Retrieval: RetrievalConfig{
			TopK:         8,
			ChunkLines:   400,
			OverlapLines: 50,
			MaxFileBytes: 200000,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

// Validate rejects configurations the engine cannot honor. Negative budgets
// and batch counts below one fail fast here instead of surfacing mid-pack.
func (c Config) Validate() error {
	if c.Engine.ContextBudget < 0 {
		return fmt.Errorf("engine.contextBudget is negative: %d", c.Engine.ContextBudget)
	}
	if c.Engine.BatchBudget < 0 {
		return fmt.Errorf("engine.batchBudget is negative: %d", c.Engine.BatchBudget)
	}
	if c.Engine.MaxBatches < 1 {
		return fmt.Errorf("engine.maxBatches must be at least 1, got %d", c.Engine.MaxBatches)
	}
	if c.Engine.ClassWindow < 0 || c.Engine.FuncWindow < 0 {
		return fmt.Errorf("declaration windows cannot be negative")
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval.topK must be at least 1, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.OverlapLines >= c.Retrieval.ChunkLines {
		return fmt.Errorf("retrieval.overlapLines (%d) must be smaller than retrieval.chunkLines (%d)",
			c.Retrieval.OverlapLines, c.Retrieval.ChunkLines)
	}
	if c.MaxFindings < 0 {
		return fmt.Errorf("maxFindings is negative: %d", c.MaxFindings)
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory for revlens.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "revlens"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "revlens"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "revlens"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "revlens"), nil
	default:
		return filepath.Join(home, ".config", "revlens"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil
// error if the file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
// The merged result is validated before it is returned.
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	mergeEnv(&cfg)
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.FailOn != "" {
		dst.FailOn = src.FailOn
	}
	if src.MaxFindings > 0 {
		dst.MaxFindings = src.MaxFindings
	}
	if src.RulesFile != "" {
		dst.RulesFile = src.RulesFile
	}
	mergeEngine(&dst.Engine, src.Engine)
	mergeRetrieval(&dst.Retrieval, src.Retrieval)
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
	if src.Cache.TTLSeconds > 0 {
		dst.Cache.TTLSeconds = src.Cache.TTLSeconds
	}
	// Bool fields from file: only override if the file explicitly set them.
	// Since JSON zero value for bool is false, we can't distinguish unset
	// from false in a simple merge.
	dst.Cache.Enabled = src.Cache.Enabled || dst.Cache.Enabled
	if len(src.Privacy.RedactPaths) > 0 {
		dst.Privacy.RedactPaths = src.Privacy.RedactPaths
	}
}

func mergeEngine(dst *EngineConfig, src EngineConfig) {
	if src.ContextBudget > 0 {
		dst.ContextBudget = src.ContextBudget
	}
	if src.BatchBudget > 0 {
		dst.BatchBudget = src.BatchBudget
	}
	if src.MaxBatches > 0 {
		dst.MaxBatches = src.MaxBatches
	}
	if src.FileChunkSize > 0 {
		dst.FileChunkSize = src.FileChunkSize
	}
	if src.FileChunkOverlap > 0 {
		dst.FileChunkOverlap = src.FileChunkOverlap
	}
	if src.UnitChunkSize > 0 {
		dst.UnitChunkSize = src.UnitChunkSize
	}
	if src.UnitChunkOverlap > 0 {
		dst.UnitChunkOverlap = src.UnitChunkOverlap
	}
	if src.ClassWindow > 0 {
		dst.ClassWindow = src.ClassWindow
	}
	if src.FuncWindow > 0 {
		dst.FuncWindow = src.FuncWindow
	}
	if src.SummaryNodes > 0 {
		dst.SummaryNodes = src.SummaryNodes
	}
	if src.SummaryEdges > 0 {
		dst.SummaryEdges = src.SummaryEdges
	}
}

func mergeRetrieval(dst *RetrievalConfig, src RetrievalConfig) {
	if src.TopK > 0 {
		dst.TopK = src.TopK
	}
	if src.ChunkLines > 0 {
		dst.ChunkLines = src.ChunkLines
	}
	if src.OverlapLines > 0 {
		dst.OverlapLines = src.OverlapLines
	}
	if src.MaxFileBytes > 0 {
		dst.MaxFileBytes = src.MaxFileBytes
	}
	if src.EmbeddingModel != "" {
		dst.EmbeddingModel = src.EmbeddingModel
	}
	if src.EmbeddingBaseURL != "" {
		dst.EmbeddingBaseURL = src.EmbeddingBaseURL
	}
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("REVLENS_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("REVLENS_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("REVLENS_FAIL_ON"); v != "" {
		cfg.FailOn = v
	}
	if v := os.Getenv("REVLENS_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("REVLENS_MAX_FINDINGS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxFindings = n
		}
	}
	if v := os.Getenv("REVLENS_CONTEXT_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.ContextBudget = n
		}
	}
	if v := os.Getenv("REVLENS_BATCH_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.BatchBudget = n
		}
	}
	if v := os.Getenv("REVLENS_MAX_BATCHES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxBatches = n
		}
	}
	if v := os.Getenv("REVLENS_EMBEDDING_MODEL"); v != "" {
		cfg.Retrieval.EmbeddingModel = v
	}
	if v := os.Getenv("REVLENS_EMBEDDING_BASE_URL"); v != "" {
		cfg.Retrieval.EmbeddingBaseURL = v
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	if overrides == nil {
		return nil
	}
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return err
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns an error if the
// key is unknown or the value does not parse.
func SetField(cfg *Config, key, value string) error {
	setInt := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		*dst = n
		return nil
	}
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = value
	case "rulesFile":
		cfg.RulesFile = value
	case "maxFindings":
		return setInt(&cfg.MaxFindings)
	case "contextBudget":
		return setInt(&cfg.Engine.ContextBudget)
	case "batchBudget":
		return setInt(&cfg.Engine.BatchBudget)
	case "maxBatches":
		return setInt(&cfg.Engine.MaxBatches)
	case "classWindow":
		return setInt(&cfg.Engine.ClassWindow)
	case "funcWindow":
		return setInt(&cfg.Engine.FuncWindow)
	case "summaryNodes":
		return setInt(&cfg.Engine.SummaryNodes)
	case "summaryEdges":
		return setInt(&cfg.Engine.SummaryEdges)
	case "topK":
		return setInt(&cfg.Retrieval.TopK)
	case "embeddingModel":
		cfg.Retrieval.EmbeddingModel = value
	case "embeddingBaseUrl":
		cfg.Retrieval.EmbeddingBaseURL = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
