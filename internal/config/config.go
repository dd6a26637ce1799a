package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Store     StoreConfig
	Storage   StorageConfig
	S3        S3Config
	GCS       GCSConfig
	Log       LogConfig
	CORS      CORSConfig
	Analyzer  AnalyzerConfig
	Extractor ExtractorConfig
	Pipeline  PipelineConfig
	Upload    UploadConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// StoreConfig selects where analysis records are kept.
type StoreConfig struct {
	Driver              string `mapstructure:"driver"` // postgres | firestore
	FirestoreProject    string `mapstructure:"firestore_project"`
	FirestoreCollection string `mapstructure:"firestore_collection"`
}

// StorageConfig selects the cloud drive used for original files.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"` // s3 | gcs | none
	KeyPrefix string `mapstructure:"key_prefix"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// GCSConfig holds Google Cloud Storage settings.
type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"`
	CredentialsFile string `mapstructure:"credentials_file"`
	SignerEmail     string `mapstructure:"signer_email"`
	PresignExpiry   int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AnalyzerConfig holds the OCR / Document AI backend settings.
type AnalyzerConfig struct {
	Backend         string `mapstructure:"backend"` // docai | pdftext
	ProjectID       string `mapstructure:"project_id"`
	Location        string `mapstructure:"location"`
	ProcessorID     string `mapstructure:"processor_id"`
	Endpoint        string `mapstructure:"endpoint"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TimeoutSecs     int    `mapstructure:"timeout_secs"`
}

// ProviderConfig holds settings for a single generative AI provider.
type ProviderConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	AltAPIKey   string `mapstructure:"alt_api_key"`
	UseAltKey   bool   `mapstructure:"use_alt_key"`
	Model       string `mapstructure:"model"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
	Endpoint    string `mapstructure:"endpoint"`

	// Vertex AI only.
	ProjectID string `mapstructure:"project_id"`
	Location  string `mapstructure:"location"`
}

// Key returns the API key selected by UseAltKey.
func (p *ProviderConfig) Key() string {
	if p.UseAltKey && p.AltAPIKey != "" {
		return p.AltAPIKey
	}
	return p.APIKey
}

// Timeout returns the request timeout, defaulting to two minutes.
func (p *ProviderConfig) Timeout() time.Duration {
	if p.TimeoutSecs <= 0 {
		return 120 * time.Second
	}
	return time.Duration(p.TimeoutSecs) * time.Second
}

// ExtractorConfig holds generative AI settings with primary/secondary support.
type ExtractorConfig struct {
	Primary   ProviderConfig `mapstructure:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary"`
}

// PrimaryConfig returns the primary provider config, or nil if not configured.
func (e *ExtractorConfig) PrimaryConfig() *ProviderConfig {
	if e.Primary.Provider != "" {
		return &e.Primary
	}
	return nil
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (e *ExtractorConfig) SecondaryConfig() *ProviderConfig {
	if e.Secondary.Provider != "" {
		return &e.Secondary
	}
	return nil
}

// PipelineConfig holds chunked analysis settings.
type PipelineConfig struct {
	SplitThreshold  int           `mapstructure:"split_threshold"`
	ChunkSize       int           `mapstructure:"chunk_size"`
	MaxChunks       int           `mapstructure:"max_chunks"`
	MaxFileSizeMB   int64         `mapstructure:"max_file_size_mb"`
	Mode            string        `mapstructure:"mode"` // sequential | concurrent
	Stagger         time.Duration `mapstructure:"stagger"`
	ExtractPerChunk bool          `mapstructure:"extract_per_chunk"`
	MergePolicy     string        `mapstructure:"merge_policy"`
}

// UploadConfig holds deferred upload worker settings.
type UploadConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	Buffer      int `mapstructure:"buffer"`
	MaxAttempts int `mapstructure:"max_attempts"`
	TimeoutSecs int `mapstructure:"timeout_secs"`
}

// Load reads configuration from environment variables with the FLEETDOCS_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FLEETDOCS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "fleetdocs")
	v.SetDefault("db.password", "fleetdocs_secret")
	v.SetDefault("db.name", "fleetdocs_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Record store defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.firestore_project", "")
	v.SetDefault("store.firestore_collection", "analysis_records")

	// Object storage defaults
	v.SetDefault("storage.provider", "none")
	v.SetDefault("storage.key_prefix", "ships")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "fleetdocs-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// GCS defaults
	v.SetDefault("gcs.bucket", "fleetdocs-uploads")
	v.SetDefault("gcs.credentials_file", "")
	v.SetDefault("gcs.signer_email", "")
	v.SetDefault("gcs.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Analyzer defaults
	v.SetDefault("analyzer.backend", "docai")
	v.SetDefault("analyzer.project_id", "")
	v.SetDefault("analyzer.location", "us")
	v.SetDefault("analyzer.processor_id", "")
	v.SetDefault("analyzer.endpoint", "")
	v.SetDefault("analyzer.credentials_file", "")
	v.SetDefault("analyzer.timeout_secs", 120)

	// Extractor primary/secondary defaults
	v.SetDefault("extractor.primary.provider", "")
	v.SetDefault("extractor.primary.api_key", "")
	v.SetDefault("extractor.primary.alt_api_key", "")
	v.SetDefault("extractor.primary.use_alt_key", false)
	v.SetDefault("extractor.primary.model", "")
	v.SetDefault("extractor.primary.timeout_secs", 120)
	v.SetDefault("extractor.primary.endpoint", "")
	v.SetDefault("extractor.primary.project_id", "")
	v.SetDefault("extractor.primary.location", "us-central1")
	v.SetDefault("extractor.secondary.provider", "")
	v.SetDefault("extractor.secondary.api_key", "")
	v.SetDefault("extractor.secondary.alt_api_key", "")
	v.SetDefault("extractor.secondary.use_alt_key", false)
	v.SetDefault("extractor.secondary.model", "")
	v.SetDefault("extractor.secondary.timeout_secs", 120)
	v.SetDefault("extractor.secondary.endpoint", "")
	v.SetDefault("extractor.secondary.project_id", "")
	v.SetDefault("extractor.secondary.location", "us-central1")

	// Pipeline defaults
	v.SetDefault("pipeline.split_threshold", 15)
	v.SetDefault("pipeline.chunk_size", 12)
	v.SetDefault("pipeline.max_chunks", 5)
	v.SetDefault("pipeline.max_file_size_mb", 50)
	v.SetDefault("pipeline.mode", "sequential")
	v.SetDefault("pipeline.stagger", "2s")
	v.SetDefault("pipeline.extract_per_chunk", true)
	v.SetDefault("pipeline.merge_policy", "first-non-empty")

	// Upload queue defaults
	v.SetDefault("upload.concurrency", 3)
	v.SetDefault("upload.buffer", 64)
	v.SetDefault("upload.max_attempts", 3)
	v.SetDefault("upload.timeout_secs", 120)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                      "FLEETDOCS_SERVER_PORT",
		"server.read_timeout":              "FLEETDOCS_SERVER_READ_TIMEOUT",
		"server.write_timeout":             "FLEETDOCS_SERVER_WRITE_TIMEOUT",
		"server.environment":               "FLEETDOCS_SERVER_ENVIRONMENT",
		"db.host":                          "FLEETDOCS_DB_HOST",
		"db.port":                          "FLEETDOCS_DB_PORT",
		"db.user":                          "FLEETDOCS_DB_USER",
		"db.password":                      "FLEETDOCS_DB_PASSWORD",
		"db.name":                          "FLEETDOCS_DB_NAME",
		"db.sslmode":                       "FLEETDOCS_DB_SSLMODE",
		"db.max_open":                      "FLEETDOCS_DB_MAX_OPEN",
		"db.max_idle":                      "FLEETDOCS_DB_MAX_IDLE",
		"store.driver":                     "FLEETDOCS_STORE_DRIVER",
		"store.firestore_project":          "FLEETDOCS_STORE_FIRESTORE_PROJECT",
		"store.firestore_collection":       "FLEETDOCS_STORE_FIRESTORE_COLLECTION",
		"storage.provider":                 "FLEETDOCS_STORAGE_PROVIDER",
		"storage.key_prefix":               "FLEETDOCS_STORAGE_KEY_PREFIX",
		"s3.region":                        "FLEETDOCS_S3_REGION",
		"s3.bucket":                        "FLEETDOCS_S3_BUCKET",
		"s3.endpoint":                      "FLEETDOCS_S3_ENDPOINT",
		"s3.access_key":                    "FLEETDOCS_S3_ACCESS_KEY",
		"s3.secret_key":                    "FLEETDOCS_S3_SECRET_KEY",
		"s3.presign_expiry":                "FLEETDOCS_S3_PRESIGN_EXPIRY",
		"gcs.bucket":                       "FLEETDOCS_GCS_BUCKET",
		"gcs.credentials_file":             "FLEETDOCS_GCS_CREDENTIALS_FILE",
		"gcs.signer_email":                 "FLEETDOCS_GCS_SIGNER_EMAIL",
		"gcs.presign_expiry":               "FLEETDOCS_GCS_PRESIGN_EXPIRY",
		"log.level":                        "FLEETDOCS_LOG_LEVEL",
		"log.format":                       "FLEETDOCS_LOG_FORMAT",
		"cors.allowed_origins":             "FLEETDOCS_CORS_ALLOWED_ORIGINS",
		"analyzer.backend":                 "FLEETDOCS_ANALYZER_BACKEND",
		"analyzer.project_id":              "FLEETDOCS_ANALYZER_PROJECT_ID",
		"analyzer.location":                "FLEETDOCS_ANALYZER_LOCATION",
		"analyzer.processor_id":            "FLEETDOCS_ANALYZER_PROCESSOR_ID",
		"analyzer.endpoint":                "FLEETDOCS_ANALYZER_ENDPOINT",
		"analyzer.credentials_file":        "FLEETDOCS_ANALYZER_CREDENTIALS_FILE",
		"analyzer.timeout_secs":            "FLEETDOCS_ANALYZER_TIMEOUT_SECS",
		"extractor.primary.provider":       "FLEETDOCS_EXTRACTOR_PRIMARY_PROVIDER",
		"extractor.primary.api_key":        "FLEETDOCS_EXTRACTOR_PRIMARY_API_KEY",
		"extractor.primary.alt_api_key":    "FLEETDOCS_EXTRACTOR_PRIMARY_ALT_API_KEY",
		"extractor.primary.use_alt_key":    "FLEETDOCS_EXTRACTOR_PRIMARY_USE_ALT_KEY",
		"extractor.primary.model":          "FLEETDOCS_EXTRACTOR_PRIMARY_MODEL",
		"extractor.primary.timeout_secs":   "FLEETDOCS_EXTRACTOR_PRIMARY_TIMEOUT_SECS",
		"extractor.primary.endpoint":       "FLEETDOCS_EXTRACTOR_PRIMARY_ENDPOINT",
		"extractor.primary.project_id":     "FLEETDOCS_EXTRACTOR_PRIMARY_PROJECT_ID",
		"extractor.primary.location":       "FLEETDOCS_EXTRACTOR_PRIMARY_LOCATION",
		"extractor.secondary.provider":     "FLEETDOCS_EXTRACTOR_SECONDARY_PROVIDER",
		"extractor.secondary.api_key":      "FLEETDOCS_EXTRACTOR_SECONDARY_API_KEY",
		"extractor.secondary.alt_api_key":  "FLEETDOCS_EXTRACTOR_SECONDARY_ALT_API_KEY",
		"extractor.secondary.use_alt_key":  "FLEETDOCS_EXTRACTOR_SECONDARY_USE_ALT_KEY",
		"extractor.secondary.model":        "FLEETDOCS_EXTRACTOR_SECONDARY_MODEL",
		"extractor.secondary.timeout_secs": "FLEETDOCS_EXTRACTOR_SECONDARY_TIMEOUT_SECS",
		"extractor.secondary.endpoint":     "FLEETDOCS_EXTRACTOR_SECONDARY_ENDPOINT",
		"extractor.secondary.project_id":   "FLEETDOCS_EXTRACTOR_SECONDARY_PROJECT_ID",
		"extractor.secondary.location":     "FLEETDOCS_EXTRACTOR_SECONDARY_LOCATION",
		"pipeline.split_threshold":         "FLEETDOCS_PIPELINE_SPLIT_THRESHOLD",
		"pipeline.chunk_size":              "FLEETDOCS_PIPELINE_CHUNK_SIZE",
		"pipeline.max_chunks":              "FLEETDOCS_PIPELINE_MAX_CHUNKS",
		"pipeline.max_file_size_mb":        "FLEETDOCS_PIPELINE_MAX_FILE_SIZE_MB",
		"pipeline.mode":                    "FLEETDOCS_PIPELINE_MODE",
		"pipeline.stagger":                 "FLEETDOCS_PIPELINE_STAGGER",
		"pipeline.extract_per_chunk":       "FLEETDOCS_PIPELINE_EXTRACT_PER_CHUNK",
		"pipeline.merge_policy":            "FLEETDOCS_PIPELINE_MERGE_POLICY",
		"upload.concurrency":               "FLEETDOCS_UPLOAD_CONCURRENCY",
		"upload.buffer":                    "FLEETDOCS_UPLOAD_BUFFER",
		"upload.max_attempts":              "FLEETDOCS_UPLOAD_MAX_ATTEMPTS",
		"upload.timeout_secs":              "FLEETDOCS_UPLOAD_TIMEOUT_SECS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Cloud Run and Railway set PORT. Use it if FLEETDOCS_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("FLEETDOCS_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Store = StoreConfig{
		Driver:              v.GetString("store.driver"),
		FirestoreProject:    v.GetString("store.firestore_project"),
		FirestoreCollection: v.GetString("store.firestore_collection"),
	}
	cfg.Storage = StorageConfig{
		Provider:  v.GetString("storage.provider"),
		KeyPrefix: v.GetString("storage.key_prefix"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.GCS = GCSConfig{
		Bucket:          v.GetString("gcs.bucket"),
		CredentialsFile: v.GetString("gcs.credentials_file"),
		SignerEmail:     v.GetString("gcs.signer_email"),
		PresignExpiry:   v.GetInt64("gcs.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Analyzer = AnalyzerConfig{
		Backend:         v.GetString("analyzer.backend"),
		ProjectID:       v.GetString("analyzer.project_id"),
		Location:        v.GetString("analyzer.location"),
		ProcessorID:     v.GetString("analyzer.processor_id"),
		Endpoint:        v.GetString("analyzer.endpoint"),
		CredentialsFile: v.GetString("analyzer.credentials_file"),
		TimeoutSecs:     v.GetInt("analyzer.timeout_secs"),
	}
	cfg.Extractor = ExtractorConfig{
		Primary:   providerConfig(v, "extractor.primary"),
		Secondary: providerConfig(v, "extractor.secondary"),
	}
	cfg.Pipeline = PipelineConfig{
		SplitThreshold:  v.GetInt("pipeline.split_threshold"),
		ChunkSize:       v.GetInt("pipeline.chunk_size"),
		MaxChunks:       v.GetInt("pipeline.max_chunks"),
		MaxFileSizeMB:   v.GetInt64("pipeline.max_file_size_mb"),
		Mode:            v.GetString("pipeline.mode"),
		Stagger:         v.GetDuration("pipeline.stagger"),
		ExtractPerChunk: v.GetBool("pipeline.extract_per_chunk"),
		MergePolicy:     v.GetString("pipeline.merge_policy"),
	}
	cfg.Upload = UploadConfig{
		Concurrency: v.GetInt("upload.concurrency"),
		Buffer:      v.GetInt("upload.buffer"),
		MaxAttempts: v.GetInt("upload.max_attempts"),
		TimeoutSecs: v.GetInt("upload.timeout_secs"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func providerConfig(v *viper.Viper, prefix string) ProviderConfig {
	return ProviderConfig{
		Provider:    v.GetString(prefix + ".provider"),
		APIKey:      v.GetString(prefix + ".api_key"),
		AltAPIKey:   v.GetString(prefix + ".alt_api_key"),
		UseAltKey:   v.GetBool(prefix + ".use_alt_key"),
		Model:       v.GetString(prefix + ".model"),
		TimeoutSecs: v.GetInt(prefix + ".timeout_secs"),
		Endpoint:    v.GetString(prefix + ".endpoint"),
		ProjectID:   v.GetString(prefix + ".project_id"),
		Location:    v.GetString(prefix + ".location"),
	}
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "postgres", "firestore":
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	switch c.Storage.Provider {
	case "s3", "gcs", "none":
	default:
		return fmt.Errorf("config: unknown storage provider %q", c.Storage.Provider)
	}
	switch c.Pipeline.Mode {
	case "sequential", "concurrent":
	default:
		return fmt.Errorf("config: unknown pipeline mode %q", c.Pipeline.Mode)
	}
	if c.Pipeline.ChunkSize <= 0 || c.Pipeline.MaxChunks <= 0 || c.Pipeline.SplitThreshold <= 0 {
		return fmt.Errorf("config: pipeline chunk size, max chunks and split threshold must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
