package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/resume-screener/internal/ai/gemini"
	"github.com/spigell/resume-screener/internal/ai/ollama"
	"github.com/spigell/resume-screener/internal/tracing"
)

const (
	app       = "resume-screener"
	envPrefix = "SCREENER"
)

type Config struct {
	ResumeDir          string             `mapstructure:"resume-dir" validate:"required"`
	JobDescription     string             `mapstructure:"job-description"`
	JobDescriptionFile string             `mapstructure:"job-description-file"`
	Limit              int                `mapstructure:"limit" validate:"gte=0"`
	ExcludeFile        string             `mapstructure:"exclude-file"`
	Parallelism        int                `mapstructure:"parallelism" validate:"gte=1,lte=64"`
	Weights            map[string]float64 `mapstructure:"weights" validate:"required"`
	LLM                *LLMConfig         `mapstructure:"llm" validate:"required"`
	Output             *OutputConfig      `mapstructure:"output"`
	Tracing            *TracingConfig     `mapstructure:"tracing"`
}

type LLMConfig struct {
	Provider     string        `mapstructure:"provider" validate:"oneof=ollama gemini"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Temperature  float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens    int           `mapstructure:"max-tokens" validate:"gt=0"`
	MaxRetries   int           `mapstructure:"max-retries" validate:"gte=1,lte=10"`
	JSONRetries  int           `mapstructure:"json-retries" validate:"gte=1,lte=10"`
	MaxLogLength int           `mapstructure:"max-log-length" validate:"gte=0"`
	Ollama       *OllamaConfig `mapstructure:"ollama"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
}

type OllamaConfig struct {
	BaseURL string `mapstructure:"base-url" validate:"omitempty,url"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key" json:"-"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Backend    string `mapstructure:"backend" validate:"omitempty,oneof=gemini-api vertex-ai"`
	Project    string `mapstructure:"project"`
	Location   string `mapstructure:"location"`
}

type OutputConfig struct {
	XLSX        string `mapstructure:"xlsx"`
	JSON        string `mapstructure:"json"`
	MetricsFile string `mapstructure:"metrics-file"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp-endpoint"`
	ServiceName  string  `mapstructure:"service-name"`
	SampleRatio  float64 `mapstructure:"sample-ratio" validate:"gte=0,lte=1"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-screener ranks parsed resumes against a job description",
	}

	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("resume-dir", "data/parsed_resumes")
	v.SetDefault("job-description", "")
	v.SetDefault("job-description-file", "")
	v.SetDefault("limit", 0)
	v.SetDefault("exclude-file", "")
	v.SetDefault("parallelism", 1)

	v.SetDefault("weights.technical", 0.40)
	v.SetDefault("weights.career", 0.35)
	v.SetDefault("weights.fit", 0.25)

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.timeout", ollama.DefaultTimeout)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max-tokens", 2000)
	v.SetDefault("llm.max-retries", 3)
	v.SetDefault("llm.json-retries", 1)
	v.SetDefault("llm.max-log-length", 200)
	v.SetDefault("llm.ollama.base-url", ollama.DefaultBaseURL)
	v.SetDefault("llm.gemini.api-key", "")
	v.SetDefault("llm.gemini.api-key-file", "")
	v.SetDefault("llm.gemini.backend", gemini.BackendGeminiAPI)
	v.SetDefault("llm.gemini.project", "")
	v.SetDefault("llm.gemini.location", "")

	v.SetDefault("output.xlsx", "")
	v.SetDefault("output.json", "")
	v.SetDefault("output.metrics-file", "")

	v.SetDefault("tracing.otlp-endpoint", "")
	v.SetDefault("tracing.service-name", tracing.DefaultServiceName)
	v.SetDefault("tracing.sample-ratio", 1.0)
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every key has a default, so a missing config file is fine unless one was asked for.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if config == nil {
		return nil, errors.New("config is required")
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// jobDescription returns the configured description text. A file wins over
// the inline value.
func (c *Config) jobDescription() (string, error) {
	if path := strings.TrimSpace(c.JobDescriptionFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read job description: %w", err)
		}
		return string(data), nil
	}
	return c.JobDescription, nil
}
