package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
)

// Environment variables that override config-file API keys. Keys supplied
// this way never get written back to disk.
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// SettingsStore persists AppSettings in a TOML file within the corpusqa
// config directory.
type SettingsStore struct {
	mu        sync.RWMutex
	configDir string
	filePath  string
	settings  domain.AppSettings
}

// NewSettingsStore creates a new TOML-based settings store.
// If configDir is empty, defaults to ~/.corpusqa/config.toml.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".corpusqa")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &SettingsStore{
		configDir: configDir,
		filePath:  filepath.Join(configDir, "config.toml"),
		settings:  domain.DefaultAppSettings(),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Settings returns the current settings with environment API keys applied.
func (s *SettingsStore) Settings() domain.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := s.settings
	applyEnvKeys(&settings)
	if settings.Index.Path == "" {
		settings.Index.Path = s.defaultIndexPath(settings.Index.Backend)
	}
	return settings
}

// Save persists the given settings to disk. API keys supplied via
// environment are blanked before writing so they never land in the file.
func (s *SettingsStore) Save(settings domain.AppSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	persisted := settings
	if os.Getenv(EnvGeminiAPIKey) != "" && persisted.Embedding.Provider == domain.AIProviderGemini {
		persisted.Embedding.APIKey = ""
	}
	if os.Getenv(EnvGeminiAPIKey) != "" && persisted.LLM.Provider == domain.AIProviderGemini {
		persisted.LLM.APIKey = ""
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" && persisted.Embedding.Provider == domain.AIProviderOpenAI {
		persisted.Embedding.APIKey = ""
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" && persisted.LLM.Provider == domain.AIProviderOpenAI {
		persisted.LLM.APIKey = ""
	}

	data, err := toml.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Write with restricted permissions
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return err
	}

	s.settings = persisted
	return nil
}

// Load reads settings from the TOML file. A missing file is not an error;
// defaults apply.
func (s *SettingsStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file yet - that's fine, keep defaults
			s.settings = domain.DefaultAppSettings()
			return nil
		}
		return err
	}

	settings := domain.DefaultAppSettings()
	if err := toml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidConfiguration, s.filePath, err)
	}

	s.settings = settings
	return nil
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

// DataDir returns the directory holding index data.
func (s *SettingsStore) DataDir() string {
	return s.configDir
}

// defaultIndexPath picks the index location for a backend under the config
// directory.
func (s *SettingsStore) defaultIndexPath(backend domain.IndexBackend) string {
	if backend == domain.IndexBackendSQLite {
		return filepath.Join(s.configDir, "index.db")
	}
	return filepath.Join(s.configDir, "index.bin")
}

// applyEnvKeys overlays API keys from the environment onto settings.
// Environment keys take precedence over file-stored keys.
func applyEnvKeys(settings *domain.AppSettings) {
	if key := os.Getenv(EnvGeminiAPIKey); key != "" {
		if settings.Embedding.Provider == domain.AIProviderGemini {
			settings.Embedding.APIKey = key
		}
		if settings.LLM.Provider == domain.AIProviderGemini {
			settings.LLM.APIKey = key
		}
	}
	if key := os.Getenv(EnvOpenAIAPIKey); key != "" {
		if settings.Embedding.Provider == domain.AIProviderOpenAI {
			settings.Embedding.APIKey = key
		}
		if settings.LLM.Provider == domain.AIProviderOpenAI {
			settings.LLM.APIKey = key
		}
	}
}
