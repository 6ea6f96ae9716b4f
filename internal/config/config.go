package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"       validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database"     validate:"required"`
	Cache        CacheConfig        `mapstructure:"cache"`
	LLM          LLMConfig          `mapstructure:"llm"          validate:"required"`
	Media        MediaConfig        `mapstructure:"media"`
	Blob         BlobConfig         `mapstructure:"blob"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// CacheConfig configures the local read-through artifact cache. When
// Dir is empty the cache is disabled and every artifact read goes to
// the primary store.
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// LLMConfig contains settings for the Gemini-backed text generation service.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName         string `mapstructure:"model_name"     validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds"`
}

// MediaConfig contains settings for the OpenAI-backed narration and
// cover image generation service.
type MediaConfig struct {
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	SpeechModel  string `mapstructure:"speech_model"`
	SpeechVoice  string `mapstructure:"speech_voice"`
	ImageModel   string `mapstructure:"image_model"`
	ImageSize    string `mapstructure:"image_size"`
}

// BlobConfig contains settings for the S3-compatible media blob store.
type BlobConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// OrchestratorConfig tunes the generation orchestration core.
type OrchestratorConfig struct {
	// Concurrency caps how many generation tasks may be dispatched at once.
	Concurrency int `mapstructure:"concurrency" validate:"required,gt=0"`

	// PollIntervalSeconds is the delay between status reads for
	// asynchronous jobs.
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" validate:"required,gt=0"`

	// StallWindowSeconds is how long a polling job may show no progress
	// before it is surfaced as stalled.
	StallWindowSeconds int `mapstructure:"stall_window_seconds" validate:"required,gt=0"`

	// MaxPolls caps total status reads per job; exceeding it fails the task.
	MaxPolls int `mapstructure:"max_polls" validate:"required,gt=0"`
}
