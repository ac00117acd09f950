package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/andriarta/payrecon/internal/logger"
	"github.com/andriarta/payrecon/internal/service/expiry"
	"github.com/andriarta/payrecon/internal/service/matching"
	"github.com/andriarta/payrecon/internal/service/settlement"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the payrecon service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Environment
	Environment string

	// Matching engine knobs
	DateToleranceHours    float64
	AutoMatchThreshold    int
	ManualReviewThreshold int

	// How long a pending top-up waits for its payment
	TopupTTL time.Duration

	// How often pending transactions are checked for expiry
	SweepInterval time.Duration
}

func NewConfig() *Config {
	engine := matching.DefaultConfig

	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		Environment: defaultEnvironment,

		DateToleranceHours:    engine.DateToleranceHours,
		AutoMatchThreshold:    engine.AutoMatchThreshold,
		ManualReviewThreshold: engine.ManualReviewThreshold,

		TopupTTL:      settlement.DefaultTopupTTL,
		SweepInterval: expiry.DefaultInterval,
	}
}

func (c *Config) MatchingConfig() matching.Config {
	return matching.Config{
		DateToleranceHours:    c.DateToleranceHours,
		AutoMatchThreshold:    c.AutoMatchThreshold,
		ManualReviewThreshold: c.ManualReviewThreshold,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setInt := func(o *int) func(value string) {
		return func(value string) {
			if parsed, err := strconv.Atoi(value); err == nil {
				*o = parsed
			}
		}
	}
	setFloat := func(o *float64) func(value string) {
		return func(value string) {
			if parsed, err := strconv.ParseFloat(value, 64); err == nil {
				*o = parsed
			}
		}
	}
	setDuration := func(o *time.Duration) func(value string) {
		return func(value string) {
			if parsed, err := time.ParseDuration(value); err == nil {
				*o = parsed
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":             setString(&c.ListenAddr),
		"DATABASE_URI":            setString(&c.DatabaseDSN),
		"LOG_LEVEL":               setString(&c.LogLevel),
		"ENVIRONMENT":             setString(&c.Environment),
		"DATE_TOLERANCE_HOURS":    setFloat(&c.DateToleranceHours),
		"AUTO_MATCH_THRESHOLD":    setInt(&c.AutoMatchThreshold),
		"MANUAL_REVIEW_THRESHOLD": setInt(&c.ManualReviewThreshold),
		"TOPUP_TTL":               setDuration(&c.TopupTTL),
		"SWEEP_INTERVAL":          setDuration(&c.SweepInterval),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("payrecon", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.Float64Var(&c.DateToleranceHours, "date-tolerance", c.DateToleranceHours, "Date proximity tolerance in hours")
	fs.IntVar(&c.AutoMatchThreshold, "auto-threshold", c.AutoMatchThreshold, "Score at or above which a match is classified auto_matched")
	fs.IntVar(&c.ManualReviewThreshold, "review-threshold", c.ManualReviewThreshold, "Score at or above which a match is queued for review")
	fs.DurationVar(&c.TopupTTL, "topup-ttl", c.TopupTTL, "Pending top-up payment deadline")
	fs.DurationVar(&c.SweepInterval, "sweep-interval", c.SweepInterval, "Expired transaction sweep period")

	return fs.Parse(args)
}
