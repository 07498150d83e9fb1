package audit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the detection thresholds. The defaults were tuned against
// real vendor invoices; contracts with unusual billing patterns can override
// them from a YAML file.
type Config struct {
	// RoundingTolerance is the absolute shortfall (in currency units) below
	// which a rate difference is treated as rounding noise.
	RoundingTolerance float64 `yaml:"rounding_tolerance"`

	// ObviousMissTolerancePP accepts a shortfall as a definite missed
	// escalation when its percentage matches the contract's escalation rate
	// within this many percentage points. No oracle call is made.
	ObviousMissTolerancePP float64 `yaml:"obvious_miss_tolerance_pp"`

	// ProRataBuckets are the charged/expected ratios that indicate partial
	// period billing; ProRataBucketTolerance is the accepted distance from a
	// bucket.
	ProRataBuckets         []float64 `yaml:"pro_rata_buckets"`
	ProRataBucketTolerance float64   `yaml:"pro_rata_bucket_tolerance"`

	// OracleMinConfidence is the confidence an oracle validation must reach
	// before a flagged item is accepted as a real error.
	OracleMinConfidence float64 `yaml:"oracle_min_confidence"`

	// Evidence caps bound report size.
	MaxEvidenceItems int `yaml:"max_evidence_items"`
	MaxClauseRefs    int `yaml:"max_clause_refs"`

	// OracleConcurrency bounds in-flight oracle calls during batch
	// classification.
	OracleConcurrency int `yaml:"oracle_concurrency"`

	// SLAImpactFraction estimates missing SLA credits as this fraction of
	// total billed amount.
	SLAImpactFraction float64 `yaml:"sla_impact_fraction"`
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		RoundingTolerance:      2.0,
		ObviousMissTolerancePP: 1.0,
		ProRataBuckets:         []float64{0.25, 0.33, 0.50, 0.66, 0.75},
		ProRataBucketTolerance: 0.05,
		OracleMinConfidence:    0.7,
		MaxEvidenceItems:       5,
		MaxClauseRefs:          2,
		OracleConcurrency:      8,
		SLAImpactFraction:      0.01,
	}
}

// LoadConfig overlays YAML overrides onto the defaults. Zero-valued fields
// in the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read audit config: %w", err)
	}

	var overrides Config
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return cfg, fmt.Errorf("parse audit config: %w", err)
	}

	if overrides.RoundingTolerance > 0 {
		cfg.RoundingTolerance = overrides.RoundingTolerance
	}
	if overrides.ObviousMissTolerancePP > 0 {
		cfg.ObviousMissTolerancePP = overrides.ObviousMissTolerancePP
	}
	if len(overrides.ProRataBuckets) > 0 {
		cfg.ProRataBuckets = overrides.ProRataBuckets
	}
	if overrides.ProRataBucketTolerance > 0 {
		cfg.ProRataBucketTolerance = overrides.ProRataBucketTolerance
	}
	if overrides.OracleMinConfidence > 0 {
		cfg.OracleMinConfidence = overrides.OracleMinConfidence
	}
	if overrides.MaxEvidenceItems > 0 {
		cfg.MaxEvidenceItems = overrides.MaxEvidenceItems
	}
	if overrides.MaxClauseRefs > 0 {
		cfg.MaxClauseRefs = overrides.MaxClauseRefs
	}
	if overrides.OracleConcurrency > 0 {
		cfg.OracleConcurrency = overrides.OracleConcurrency
	}
	if overrides.SLAImpactFraction > 0 {
		cfg.SLAImpactFraction = overrides.SLAImpactFraction
	}

	return cfg, nil
}
