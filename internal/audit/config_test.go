package audit

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.yaml")
	content := "rounding_tolerance: 5.0\nmax_evidence_items: 10\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RoundingTolerance != 5.0 {
		t.Errorf("rounding tolerance = %v, want 5.0", cfg.RoundingTolerance)
	}
	if cfg.MaxEvidenceItems != 10 {
		t.Errorf("max evidence items = %d, want 10", cfg.MaxEvidenceItems)
	}
	// Fields absent from the file keep their defaults.
	if cfg.ObviousMissTolerancePP != DefaultConfig().ObviousMissTolerancePP {
		t.Errorf("obvious miss tolerance lost its default: %v", cfg.ObviousMissTolerancePP)
	}
	if len(cfg.ProRataBuckets) != len(DefaultConfig().ProRataBuckets) {
		t.Errorf("pro-rata buckets lost their defaults: %v", cfg.ProRataBuckets)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
