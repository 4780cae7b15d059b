// Package config loads application configuration and bootstraps logging.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/apflow/resolve/internal/similarity"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Matching MatchingConfig `yaml:"matching" mapstructure:"matching"`
	Ingest   IngestConfig   `yaml:"ingest" mapstructure:"ingest"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// MatchingConfig holds every externally tunable knob of the duplicate
// classifiers and the supplier matcher: classification thresholds, scoring
// weights, tolerance windows and the candidate query bounds.
type MatchingConfig struct {
	// Duplicate classification thresholds, strictly descending.
	CertainThreshold  float64 `yaml:"certain_threshold" mapstructure:"certain_threshold"`
	LikelyThreshold   float64 `yaml:"likely_threshold" mapstructure:"likely_threshold"`
	PossibleThreshold float64 `yaml:"possible_threshold" mapstructure:"possible_threshold"`

	// Scoring weights.
	VendorNameWeight    float64 `yaml:"vendor_name_weight" mapstructure:"vendor_name_weight"`
	InvoiceNumberWeight float64 `yaml:"invoice_number_weight" mapstructure:"invoice_number_weight"`
	InvoiceDateWeight   float64 `yaml:"invoice_date_weight" mapstructure:"invoice_date_weight"`
	TotalAmountWeight   float64 `yaml:"total_amount_weight" mapstructure:"total_amount_weight"`

	// Factor tolerances.
	DateToleranceDays int     `yaml:"date_tolerance_days" mapstructure:"date_tolerance_days"`
	AmountTolerance   float64 `yaml:"amount_tolerance" mapstructure:"amount_tolerance"`

	// Supplier matching.
	SupplierFloor             float64 `yaml:"supplier_floor" mapstructure:"supplier_floor"`
	SupplierMatchedConfidence float64 `yaml:"supplier_matched_confidence" mapstructure:"supplier_matched_confidence"`
	AmbiguityMargin           float64 `yaml:"ambiguity_margin" mapstructure:"ambiguity_margin"`

	// Candidate window for invoice dedup scoring.
	CandidateWindowDays int     `yaml:"candidate_window_days" mapstructure:"candidate_window_days"`
	CandidateAmountBand float64 `yaml:"candidate_amount_band" mapstructure:"candidate_amount_band"`
	CandidateLimit      int     `yaml:"candidate_limit" mapstructure:"candidate_limit"`
}

// Weights returns the scoring weights keyed by similarity factor.
func (m MatchingConfig) Weights() map[string]float64 {
	return map[string]float64{
		similarity.FactorVendorName:    m.VendorNameWeight,
		similarity.FactorInvoiceNumber: m.InvoiceNumberWeight,
		similarity.FactorInvoiceDate:   m.InvoiceDateWeight,
		similarity.FactorTotalAmount:   m.TotalAmountWeight,
	}
}

// Validate checks that the matching config is internally consistent.
func (m MatchingConfig) Validate() error {
	var errs []string

	for name, w := range map[string]float64{
		"vendor_name_weight":    m.VendorNameWeight,
		"invoice_number_weight": m.InvoiceNumberWeight,
		"invoice_date_weight":   m.InvoiceDateWeight,
		"total_amount_weight":   m.TotalAmountWeight,
	} {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}
	if m.VendorNameWeight+m.InvoiceNumberWeight+m.InvoiceDateWeight+m.TotalAmountWeight <= 0 {
		errs = append(errs, "weights must sum to a positive number")
	}

	for name, v := range map[string]float64{
		"certain_threshold":  m.CertainThreshold,
		"likely_threshold":   m.LikelyThreshold,
		"possible_threshold": m.PossibleThreshold,
		"supplier_floor":     m.SupplierFloor,
	} {
		if v <= 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("%s must be in (0,1]", name))
		}
	}
	if !(m.CertainThreshold > m.LikelyThreshold && m.LikelyThreshold > m.PossibleThreshold) {
		errs = append(errs, "thresholds must be strictly descending: certain > likely > possible")
	}

	if len(errs) > 0 {
		// Sort for stable error messages across map iteration order.
		sort.Strings(errs)
		return eris.New("config: invalid matching config: " + strings.Join(errs, "; "))
	}
	return nil
}

// IngestConfig configures batch ingestion.
type IngestConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RESOLVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Matching.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("ingest.max_concurrent", 5)
	v.SetDefault("matching.certain_threshold", 0.95)
	v.SetDefault("matching.likely_threshold", 0.80)
	v.SetDefault("matching.possible_threshold", 0.60)
	v.SetDefault("matching.vendor_name_weight", 0.3)
	v.SetDefault("matching.invoice_number_weight", 0.3)
	v.SetDefault("matching.invoice_date_weight", 0.2)
	v.SetDefault("matching.total_amount_weight", 0.2)
	v.SetDefault("matching.date_tolerance_days", 1)
	v.SetDefault("matching.amount_tolerance", 0.01)
	v.SetDefault("matching.supplier_floor", 0.75)
	v.SetDefault("matching.supplier_matched_confidence", 0.9)
	v.SetDefault("matching.ambiguity_margin", 0.02)
	v.SetDefault("matching.candidate_window_days", 365)
	v.SetDefault("matching.candidate_amount_band", 0.5)
	v.SetDefault("matching.candidate_limit", 50)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
