package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/job-matcher/internal/enrich"
	"github.com/spigell/job-matcher/internal/geo"
	"github.com/spigell/job-matcher/internal/matching"
)

const (
	app       = "job-matcher"
	envPrefix = "JOB_MATCHER"
)

type Config struct {
	Profile     string          `mapstructure:"profile"`
	Jobs        string          `mapstructure:"jobs"`
	Location    string          `mapstructure:"location"`
	Workers     int             `mapstructure:"workers"`
	ExcludeFile string          `mapstructure:"exclude-file"`
	Scoring     *ScoringConfig  `mapstructure:"scoring"`
	Geocoder    *GeocoderConfig `mapstructure:"geocoder"`
	Enrich      *EnrichConfig   `mapstructure:"enrich"`
	Filters     *FiltersConfig  `mapstructure:"filters"`
}

type ScoringConfig struct {
	InferTools bool `mapstructure:"infer-tools"`
}

type GeocoderConfig struct {
	// Provider is one of locationiq, gazetteer or none.
	Provider   string        `mapstructure:"provider"`
	APIKey     string        `mapstructure:"api-key"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	URL        string        `mapstructure:"url"`
	UserAgent  string        `mapstructure:"user-agent"`
	Language   string        `mapstructure:"language"`
	PlacesFile string        `mapstructure:"places-file"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MinDelay   time.Duration `mapstructure:"min-delay"`
	CacheTTL   time.Duration `mapstructure:"cache-ttl"`
	MissTTL    time.Duration `mapstructure:"miss-ttl"`
	RedisURL   string        `mapstructure:"redis-url"`
}

type EnrichConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type FiltersConfig struct {
	MinScore    int     `mapstructure:"min-score"`
	MaxDistance float64 `mapstructure:"max-distance"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-matcher scores job postings against a candidate profile",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("geocoder.api-key-file", envPrefix+"_GEOCODER_KEY_FILE"); err != nil {
		log.Fatalf("binding %s_GEOCODER_KEY_FILE environment variable: %v", envPrefix, err)
	}

	viper.SetDefault("workers", matching.DefaultWorkers)
	viper.SetDefault("geocoder.provider", "none")
	viper.SetDefault("geocoder.timeout", geo.DefaultTimeout)
	viper.SetDefault("geocoder.min-delay", geo.DefaultMinDelay)
	viper.SetDefault("enrich.debounce", enrich.DefaultDebounce)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
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

	// Every setting can come from flags, so the default config file is optional.
	// An explicit --config or a file that fails to parse is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Scoring == nil {
		config.Scoring = &ScoringConfig{}
	}
	if config.Geocoder == nil {
		config.Geocoder = &GeocoderConfig{}
	}
	if config.Enrich == nil {
		config.Enrich = &EnrichConfig{}
	}
	if config.Filters == nil {
		config.Filters = &FiltersConfig{}
	}

	return config, nil
}
