// Package config reads the run configuration from BLOBETL_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	Store      StoreConfig
	Layout     LayoutConfig
	Quarantine QuarantineConfig
	Lock       LockConfig
	Metrics    MetricsConfig
	Parquet    ParquetConfig
}

// Load processes the environment, resolves file-backed secrets and validates
// the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.resolveConnectionString(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	LogLevel     string `envconfig:"BLOBETL_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"BLOBETL_LOG_FORMAT" default:"json" validate:"oneof=json console"`
	RunDate      string `envconfig:"BLOBETL_RUN_DATE" validate:"omitempty,datetime=2006-01-02"`
	ContractPath string `envconfig:"BLOBETL_CONTRACT_PATH" default:"contracts.json" validate:"required"`
}

type StoreConfig struct {
	Backend              string        `envconfig:"BLOBETL_STORE_BACKEND" default:"fs" validate:"oneof=memory fs s3 gcs azure"`
	Container            string        `envconfig:"BLOBETL_STORE_CONTAINER" validate:"required_unless=Backend memory"`
	ConnectionString     string        `envconfig:"BLOBETL_STORE_CONNECTION_STRING"`
	ConnectionStringFile string        `envconfig:"BLOBETL_STORE_CONNECTION_STRING_FILE"`
	Region               string        `envconfig:"BLOBETL_STORE_REGION"`
	Endpoint             string        `envconfig:"BLOBETL_STORE_ENDPOINT" validate:"omitempty,url"`
	PathStyle            bool          `envconfig:"BLOBETL_STORE_PATH_STYLE" default:"false"`
	OpTimeout            time.Duration `envconfig:"BLOBETL_STORE_OP_TIMEOUT" default:"30s" validate:"gte=0"`
	RetryInitial         time.Duration `envconfig:"BLOBETL_STORE_RETRY_INITIAL" default:"200ms" validate:"gt=0"`
	RetryMax             time.Duration `envconfig:"BLOBETL_STORE_RETRY_MAX" default:"5s" validate:"gtefield=RetryInitial"`
	RetryAttempts        uint64        `envconfig:"BLOBETL_STORE_RETRY_ATTEMPTS" default:"5"`
	RetryTimeout         time.Duration `envconfig:"BLOBETL_STORE_RETRY_TIMEOUT" default:"1m" validate:"gte=0"`
}

func (s *StoreConfig) resolveConnectionString() error {
	if s.ConnectionString != "" || s.ConnectionStringFile == "" {
		return nil
	}
	b, err := os.ReadFile(s.ConnectionStringFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", EnvStoreConnectionStringFile, err)
	}
	s.ConnectionString = strings.TrimSpace(string(b))
	return nil
}

// LayoutConfig names the objects and columns the pipeline works with.
type LayoutConfig struct {
	Clients            string `envconfig:"BLOBETL_LAYOUT_CLIENTS" default:"clients.csv" validate:"required"`
	Stores             string `envconfig:"BLOBETL_LAYOUT_STORES" default:"stores.csv" validate:"required"`
	Products           string `envconfig:"BLOBETL_LAYOUT_PRODUCTS" default:"products.csv" validate:"required"`
	TransactionsPrefix string `envconfig:"BLOBETL_LAYOUT_TRANSACTIONS_PREFIX" default:"transactions" validate:"required"`
	OutputPrefix       string `envconfig:"BLOBETL_LAYOUT_OUTPUT_PREFIX" default:"formatted" validate:"required"`
	ErrorsPrefix       string `envconfig:"BLOBETL_LAYOUT_ERRORS_PREFIX" default:"errors" validate:"required,nefield=OutputPrefix"`
	Delimiter          string `envconfig:"BLOBETL_LAYOUT_DELIMITER" default:";" validate:"len=1"`

	ClientKey string `envconfig:"BLOBETL_COLUMN_CLIENT_KEY" default:"id" validate:"required"`
	Account   string `envconfig:"BLOBETL_COLUMN_ACCOUNT" default:"account_id" validate:"required"`
	ClientRef string `envconfig:"BLOBETL_COLUMN_CLIENT_REF" default:"client_id" validate:"required"`
	Date      string `envconfig:"BLOBETL_COLUMN_DATE" default:"date" validate:"required"`
	Hour      string `envconfig:"BLOBETL_COLUMN_HOUR" default:"hour" validate:"required"`
	Minute    string `envconfig:"BLOBETL_COLUMN_MINUTE" default:"minute" validate:"required"`
	LatLng    string `envconfig:"BLOBETL_COLUMN_LATLNG" default:"latlng" validate:"required"`
	Latitude  string `envconfig:"BLOBETL_COLUMN_LATITUDE" default:"latitude" validate:"required"`
	Longitude string `envconfig:"BLOBETL_COLUMN_LONGITUDE" default:"longitude" validate:"required"`
	Datetime  string `envconfig:"BLOBETL_COLUMN_DATETIME" default:"datetime" validate:"required"`
}

// DelimiterRune returns the configured delimiter as a rune.
func (l LayoutConfig) DelimiterRune() rune {
	for _, r := range l.Delimiter {
		return r
	}
	return ';'
}

type QuarantineConfig struct {
	DeleteSource bool          `envconfig:"BLOBETL_QUARANTINE_DELETE_SOURCE" default:"false"`
	PollInitial  time.Duration `envconfig:"BLOBETL_QUARANTINE_POLL_INITIAL" default:"500ms" validate:"gt=0"`
	PollMax      time.Duration `envconfig:"BLOBETL_QUARANTINE_POLL_MAX" default:"10s" validate:"gtefield=PollInitial"`
	PollAttempts uint64        `envconfig:"BLOBETL_QUARANTINE_POLL_ATTEMPTS" default:"20" validate:"gt=0"`
	PollTimeout  time.Duration `envconfig:"BLOBETL_QUARANTINE_POLL_TIMEOUT" default:"5m" validate:"gt=0"`
}

type LockConfig struct {
	RedisURL string        `envconfig:"BLOBETL_LOCK_REDIS_URL" validate:"omitempty,url"`
	TTL      time.Duration `envconfig:"BLOBETL_LOCK_TTL" default:"2h" validate:"gt=0"`
}

type MetricsConfig struct {
	PushURL string `envconfig:"BLOBETL_METRICS_PUSH_URL" validate:"omitempty,url"`
	Job     string `envconfig:"BLOBETL_METRICS_JOB" default:"blobetl" validate:"required"`
}

type ParquetConfig struct {
	TempDir     string `envconfig:"BLOBETL_PARQUET_TEMP_DIR"`
	Parallelism int64  `envconfig:"BLOBETL_PARQUET_PARALLELISM" default:"4" validate:"gt=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the cross-field rules of the store
// section. It is exported so CLI flag overrides can be re-checked.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationErrors(err)
	}
	return c.Store.validateBackend()
}

func (s StoreConfig) validateBackend() error {
	if s.Backend == "azure" && s.ConnectionString == "" {
		return fmt.Errorf("invalid config: azure backend needs %s or %s", EnvStoreConnectionString, EnvStoreConnectionStringFile)
	}
	if s.PathStyle && s.Backend != "s3" {
		return fmt.Errorf("invalid config: path style addressing only applies to s3")
	}
	return nil
}

func formatValidationErrors(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), validationMessage(fe)))
	}
	sort.Strings(msgs)
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_unless":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "len":
		return fmt.Sprintf("must be %s character(s)", fe.Param())
	case "url":
		return "must be a URL"
	case "datetime":
		return fmt.Sprintf("must match %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s %s", fe.Tag(), fe.Param())
	}
}
