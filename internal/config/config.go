package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage"  validate:"required"`
	Web      WebConfig      `mapstructure:"web"      validate:"required"`
	Tasks    TaskConfig     `mapstructure:"tasks"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// The same database hosts both the relational tables and the pgvector
// knowledge collection.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`

	// ModelName is the model used for long-form generation (brand documents,
	// article bodies). StructuredModelName handles schema-constrained calls
	// (chunking, metadata analysis) and may be a smaller model.
	ModelName           string `mapstructure:"model_name"            validate:"required"`
	StructuredModelName string `mapstructure:"structured_model_name" validate:"required"`
	EmbeddingModelName  string `mapstructure:"embedding_model_name"  validate:"required"`

	MaxRetries        int `mapstructure:"max_retries"         validate:"gte=0,lte=10"`
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" validate:"gte=0,lte=60"`
}

// StorageConfig contains object storage (S3-compatible) settings.
// Brand knowledge chunks are persisted here as markdown objects; the object
// store is the source of truth for chunk bytes.
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"   validate:"required"`
	AccessKey string `mapstructure:"access_key" validate:"required"`
	SecretKey string `mapstructure:"secret_key" validate:"required"`
	Bucket    string `mapstructure:"bucket"     validate:"required"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// WebConfig contains settings for the external crawl/search provider.
type WebConfig struct {
	CrawlBaseURL  string `mapstructure:"crawl_base_url"  validate:"required,url"`
	SearchBaseURL string `mapstructure:"search_base_url" validate:"required,url"`
	APIKey        string `mapstructure:"api_key"         validate:"required"`

	// CrawlMaxDepth and CrawlPageLimit bound how much of a brand website the
	// crawl stage retrieves.
	CrawlMaxDepth  int `mapstructure:"crawl_max_depth"  validate:"gte=1,lte=10"`
	CrawlPageLimit int `mapstructure:"crawl_page_limit" validate:"gte=1,lte=500"`
}

// TaskConfig contains settings for the background task runner.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gte=0,lte=64"`
	QueueSize   int `mapstructure:"queue_size"   validate:"gte=0,lte=10000"`
	MaxRetries  int `mapstructure:"max_retries"  validate:"gte=0,lte=10"`

	// StuckTaskAgeMinutes is how long a task may sit in processing before the
	// runner resets it. Zero uses the default.
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"gte=0"`
}
