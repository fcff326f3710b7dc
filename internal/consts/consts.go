package consts

import "time"

const (
	AppName    = "curator"
	AppVersion = "1.0.0"
	// AppDir is created under the user's home directory for local state.
	AppDir = ".curator"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderGroq      = "groq"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultOllamaHost  = "http://localhost:11434"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMilvus   = "milvus"
)

// Retrieval defaults.
const (
	ContentSimilarityThreshold = 0.50
	MemorySimilarityThreshold  = 0.70

	DefaultReviewHistoryLimit = 50
	DefaultRecentReviewLimit  = 5
	DefaultCandidateLimit     = 10
	DefaultContextMemoryLimit = 3
)

// Generation defaults.
const (
	DefaultTemperature           = 0.7
	ClassifierTemperature        = 0.0
	ConfidenceWithHistory        = 0.8
	ConfidenceWithoutHistory     = 0.2
	MatchConfidenceMultiplier    = 1.2
	DefaultMatchConfidence       = 0.5
	DefaultSearchFloor           = 5.0
	SearchFloorHistoryCutoff     = 6.0
	DefaultPosterBaseURL         = "https://image.tmdb.org/t/p/w500"
	DefaultTMDBBaseURL           = "https://api.themoviedb.org/3"
	DefaultContentSource         = "supabase_rag"
	ParseFailureMessage          = "Failed to parse AI response"
	GenerationFailureMessage     = "Failed to generate recommendation"
	RetrySuggestion              = "Please try again with a different query"
	DefaultEmptyExplanation      = "Nothing in the catalog matched this request closely enough to recommend."
	DefaultReviewText            = "No review text provided."
	NotRatedLabel                = "Not rated"
	DefaultActivitySubject       = "user_activity_queue"
	DefaultWriterQueueSize       = 256
	DefaultWriterMaxRetries      = 5
	DefaultWriterRetryBaseDelay  = 2 * time.Second
	DefaultBrokerConnectAttempts = 5
)
