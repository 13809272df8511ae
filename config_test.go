package gaitstat

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()
	if th.MaxAngleRad != math.Pi {
		t.Fatalf("MaxAngleRad = %v", th.MaxAngleRad)
	}
	if th.MaxAngleJumpRad != 0.524 {
		t.Fatalf("MaxAngleJumpRad = %v", th.MaxAngleJumpRad)
	}
	if th.MaxVelocityRadS != 17.45 {
		t.Fatalf("MaxVelocityRadS = %v", th.MaxVelocityRadS)
	}
	if th.MaxMomentNm != 300 {
		t.Fatalf("MaxMomentNm = %v", th.MaxMomentNm)
	}
}

func TestLoadThresholdsPartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "limits.yaml")
	content := "max_moment_nm: 450\nmax_velocity_rad_s: 20\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	th, err := LoadThresholds(path)
	if err != nil {
		t.Fatalf("LoadThresholds: %v", err)
	}
	if th.MaxMomentNm != 450 || th.MaxVelocityRadS != 20 {
		t.Fatalf("overrides not applied: %+v", th)
	}
	if th.MaxAngleRad != math.Pi {
		t.Fatalf("unset key lost its default: %+v", th)
	}
}

func TestLoadThresholdsMissingFile(t *testing.T) {
	if _, err := LoadThresholds(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for a missing thresholds file")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.SubjectColumn != "subject" || cfg.TaskColumn != "task" || cfg.PhaseColumn != "phase" {
		t.Fatalf("column defaults: %+v", cfg)
	}
	if cfg.PointsPerCycle != DefaultPointsPerCycle {
		t.Fatalf("PointsPerCycle = %d", cfg.PointsPerCycle)
	}
	if cfg.Logger == nil {
		t.Fatal("logger default missing")
	}
	if cfg.Thresholds != DefaultThresholds() {
		t.Fatalf("threshold defaults: %+v", cfg.Thresholds)
	}
}
