package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or completion.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is the Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOpenAI, AIProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderGemini || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Gemini (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// IndexBackend identifies a vector index storage backend.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendFile persists the index to a single flat file.
	IndexBackendFile IndexBackend = "file"

	// IndexBackendSQLite persists the index in a SQLite database.
	IndexBackendSQLite IndexBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendFile || b == IndexBackendSQLite
}

// String returns the string representation.
func (b IndexBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `toml:"provider"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string `toml:"base_url"`

	// APIKey is the API key (for Gemini/OpenAI). Usually supplied via
	// environment rather than the config file.
	APIKey string `toml:"api_key"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds completion provider configuration.
type LLMSettings struct {
	// Provider is the completion service provider.
	Provider AIProvider `toml:"provider"`

	// Model is the completion model name.
	Model string `toml:"model"`

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string `toml:"base_url"`

	// APIKey is the API key (for Gemini/OpenAI).
	APIKey string `toml:"api_key"`
}

// IsConfigured returns true if the completion provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings holds document chunking configuration.
type ChunkingSettings struct {
	// MaxSize is the maximum chunk length in bytes.
	MaxSize int `toml:"max_size"`

	// Overlap is the number of trailing bytes each chunk shares with its
	// successor.
	Overlap int `toml:"overlap"`
}

// Validate checks the chunking invariants: MaxSize > 0 and
// 0 <= Overlap < MaxSize.
func (c ChunkingSettings) Validate() error {
	if c.MaxSize <= 0 {
		return ErrInvalidConfiguration
	}
	if c.Overlap < 0 || c.Overlap >= c.MaxSize {
		return ErrInvalidConfiguration
	}
	return nil
}

// RetrievalSettings holds query-time retrieval configuration.
type RetrievalSettings struct {
	// TopK is the maximum number of passages retrieved per query.
	TopK int `toml:"top_k"`

	// MinScore is the similarity threshold; passages scoring below it are
	// excluded even when among the top K.
	MinScore float64 `toml:"min_score"`

	// MaxSources caps the number of sources attached to an answer.
	MaxSources int `toml:"max_sources"`
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Backend selects the storage backend.
	Backend IndexBackend `toml:"backend"`

	// Path is the index file or database location. Empty means the
	// default under the data directory.
	Path string `toml:"path"`

	// Dimensions is the embedding vector size. It is fixed per deployment
	// and must match across ingestion and query time.
	Dimensions int `toml:"dimensions"`
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings `toml:"embedding"`

	// LLM holds completion provider settings.
	LLM LLMSettings `toml:"llm"`

	// Chunking holds document chunking settings.
	Chunking ChunkingSettings `toml:"chunking"`

	// Retrieval holds query-time retrieval settings.
	Retrieval RetrievalSettings `toml:"retrieval"`

	// Index holds vector index settings.
	Index IndexSettings `toml:"index"`
}

// DefaultAppSettings returns settings with sensible defaults.
// The chunking and dimension defaults follow the Gemini
// text-embedding-004 deployment the tool was built around.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderGemini,
			Model:    "text-embedding-004",
		},
		LLM: LLMSettings{
			Provider: AIProviderGemini,
			Model:    "gemini-2.5-flash",
		},
		Chunking: ChunkingSettings{
			MaxSize: 1000,
			Overlap: 200,
		},
		Retrieval: RetrievalSettings{
			TopK:       5,
			MinScore:   0.5,
			MaxSources: 3,
		},
		Index: IndexSettings{
			Backend:    IndexBackendFile,
			Dimensions: 768,
		},
	}
}

// Validate checks settings that are fatal when wrong. It is called once at
// startup; violations surface immediately and are never retried.
func (s AppSettings) Validate() error {
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	if s.Index.Dimensions <= 0 {
		return ErrInvalidConfiguration
	}
	if !s.Index.Backend.IsValid() {
		return ErrInvalidConfiguration
	}
	if s.Retrieval.TopK <= 0 {
		return ErrInvalidConfiguration
	}
	return nil
}
