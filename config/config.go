package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"quantify/internal/model"
)

// Config holds process-wide settings loaded from the environment.
type Config struct {
	// YAML source description used when -source is not given.
	SourceFile string

	// Infrastructure
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	MetricsAddr   string

	ChartDir     string
	LogLevel     string
	YahooBaseURL string
}

// Load reads .env files (if present) and then environment variables with
// sensible defaults.
func Load() *Config {
	env := getEnv("ENV", "development")
	loadEnv(".env."+env+".local", ".env."+env, ".env.local", ".env")

	return &Config{
		SourceFile: getEnv("QUANTIFY_SOURCE_FILE", "source.yaml"),

		SQLitePath:    getEnv("SQLITE_PATH", "data/bars.db"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),

		ChartDir:     getEnv("CHART_DIR", os.TempDir()),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		YahooBaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
	}
}

// loadEnv loads each existing file; earlier files win because godotenv
// never overrides variables that are already set.
func loadEnv(filenames ...string) {
	for _, filename := range filenames {
		if s, err := os.Stat(filename); err == nil && !s.IsDir() {
			_ = godotenv.Load(filename)
		}
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

// Source kinds.
const (
	KindCSV    = "csv"
	KindSQLite = "sqlite"
	KindRedis  = "redis"
	KindYahoo  = "yahoo"
)

// Source describes where the price history comes from and what to compute
// on it.
type Source struct {
	Kind string `yaml:"kind" validate:"required,oneof=csv sqlite redis yahoo"`

	// Path is the CSV file or the SQLite database.
	Path   string `yaml:"path" validate:"required_if=Kind csv"`
	Symbol string `yaml:"symbol" validate:"required_if=Kind sqlite,required_if=Kind yahoo"`
	Stream string `yaml:"stream" validate:"required_if=Kind redis"`

	// yahoo only
	Range    string `yaml:"range"`
	Interval string `yaml:"interval"`

	// csv only
	TimeColumn string `yaml:"time_column"`
	TimeLayout string `yaml:"time_layout"`

	Columns *model.Selectors `yaml:"columns"`

	Indicators []string `yaml:"indicators" validate:"dive,required"`
	FillNA     string   `yaml:"fillna"`

	Volume  bool           `yaml:"volume"`
	Subplot map[string]any `yaml:"subplot"`
}

// Selectors returns the configured column selectors, or the canonical ones
// when none were given.
func (s *Source) Selectors() model.Selectors {
	if s.Columns == nil {
		return model.DefaultSelectors()
	}
	return *s.Columns
}

var validate = validator.New()

// LoadSource reads and validates a YAML source description.
func LoadSource(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source config: %w", err)
	}
	src, err := ParseSource(data)
	if err != nil {
		return nil, fmt.Errorf("source config %s: %w", path, err)
	}
	return src, nil
}

// ParseSource decodes and validates a YAML source description.
func ParseSource(data []byte) (*Source, error) {
	src := &Source{}
	if err := yaml.Unmarshal(data, src); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	src.Kind = strings.ToLower(strings.TrimSpace(src.Kind))
	if err := validate.Struct(src); err != nil {
		return nil, validationError(err)
	}
	return src, nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required", "required_if":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed validation: %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
