package shared

import (
	"embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"bank_reviews/internal/domain"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	DataDir     string

	SourceBase  string
	SourceRPS   int
	ReviewCount int
	Lang        string
	Country     string
	BankDelay   time.Duration

	SentimentURL   string
	SentimentToken string
	NLPURL         string
	EnrichWorkers  int

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	DB DBConfig

	Pipeline PipelineFile
}

// DBConfig holds the relational store connection parameters.
type DBConfig struct {
	Driver     string // postgres|mysql|sqlite
	User       string
	Password   string
	Host       string
	Port       int
	Name       string
	SQLitePath string
}

// PipelineFile is the YAML part of the configuration: plain data for the
// bank descriptors and the theme taxonomy.
type PipelineFile struct {
	Banks  []domain.Bank   `yaml:"banks"`
	Themes domain.Taxonomy `yaml:"themes"`
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		DataDir:     env("DATA_DIR", "data"),

		SourceBase:  env("REVIEW_SOURCE_URL", "http://localhost:8090/v1"),
		SourceRPS:   atoi("REVIEW_SOURCE_RPS", 2),
		ReviewCount: atoi("REVIEW_COUNT", 400),
		Lang:        env("REVIEW_LANG", "en"),
		Country:     env("REVIEW_COUNTRY", "et"),
		BankDelay:   time.Duration(atoi("BANK_DELAY_SECONDS", 5)) * time.Second,

		SentimentURL:   env("SENTIMENT_URL", "http://localhost:8091/models/distilbert-base-uncased-finetuned-sst-2-english"),
		SentimentToken: env("SENTIMENT_TOKEN", ""),
		NLPURL:         env("NLP_URL", "http://localhost:8092"),
		EnrichWorkers:  atoi("ENRICH_WORKERS", 1),

		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		DB: DBConfig{
			Driver:     env("DB_DRIVER", "postgres"),
			User:       env("DB_USER", "postgres"),
			Password:   env("DB_PASSWORD", "postgres"),
			Host:       env("DB_HOST", "localhost"),
			Port:       atoi("DB_PORT", 5432),
			Name:       env("DB_NAME", "bank_reviews"),
			SQLitePath: env("SQLITE_PATH", "data/bank_reviews.db"),
		},
	}

	pf, err := LoadPipelineFile(os.Getenv("PIPELINE_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("load pipeline config")
	}
	c.Pipeline = pf

	if c.EnrichWorkers < 1 {
		c.EnrichWorkers = 1
	}
	return c
}

// LoadPipelineFile reads banks and themes from path, or from the embedded
// defaults when path is empty.
func LoadPipelineFile(path string) (PipelineFile, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = defaultConfigFS.ReadFile("default_config.yaml")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return PipelineFile{}, fmt.Errorf("reading pipeline config: %w", err)
	}

	var pf PipelineFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return PipelineFile{}, fmt.Errorf("parsing pipeline config: %w", err)
	}
	if len(pf.Banks) == 0 {
		return PipelineFile{}, fmt.Errorf("pipeline config: no banks configured")
	}
	for _, b := range pf.Banks {
		if b.Name == "" || b.AppID == "" {
			return PipelineFile{}, fmt.Errorf("pipeline config: bank %q needs name and app_id", b.Name)
		}
	}
	return pf, nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
