package gaitstat

import (
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Column and cycle defaults shared by the standardized export format.
const (
	DefaultSubjectColumn  = "subject"
	DefaultTaskColumn     = "task"
	DefaultPhaseColumn    = "phase"
	DefaultPointsPerCycle = 150
)

// Thresholds holds the biomechanical plausibility limits used by cycle
// validation. The values are inherited reference constants; population or
// protocol specific limits can be supplied instead, either directly or via
// LoadThresholds.
type Thresholds struct {
	MaxAngleRad     float64 `yaml:"max_angle_rad"`
	MaxAngleJumpRad float64 `yaml:"max_angle_jump_rad"`
	MaxVelocityRadS float64 `yaml:"max_velocity_rad_s"`
	MaxMomentNm     float64 `yaml:"max_moment_nm"`
}

// DefaultThresholds returns the reference validation limits: |angle| <= pi,
// point-to-point angle change <= 0.524 rad (30 deg), |velocity| <= 17.45
// rad/s, |moment| <= 300 Nm.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxAngleRad:     math.Pi,
		MaxAngleJumpRad: 0.524,
		MaxVelocityRadS: 17.45,
		MaxMomentNm:     300,
	}
}

// LoadThresholds reads a YAML thresholds file. Omitted keys keep their
// default values.
func LoadThresholds(path string) (Thresholds, error) {
	th := DefaultThresholds()
	data, err := os.ReadFile(path)
	if err != nil {
		return th, fmt.Errorf("read thresholds: %w", err)
	}
	if err := yaml.Unmarshal(data, &th); err != nil {
		return th, fmt.Errorf("parse thresholds: %w", err)
	}
	return th, nil
}

// Config controls dataset construction. The zero value selects the
// standardized column names, 150 points per cycle, the reference validation
// thresholds, and a no-op logger.
type Config struct {
	SubjectColumn  string
	TaskColumn     string
	PhaseColumn    string
	PointsPerCycle int
	Thresholds     Thresholds
	Logger         *zap.Logger
}

func (c Config) withDefaults() Config {
	if c.SubjectColumn == "" {
		c.SubjectColumn = DefaultSubjectColumn
	}
	if c.TaskColumn == "" {
		c.TaskColumn = DefaultTaskColumn
	}
	if c.PhaseColumn == "" {
		c.PhaseColumn = DefaultPhaseColumn
	}
	if c.PointsPerCycle <= 0 {
		c.PointsPerCycle = DefaultPointsPerCycle
	}
	if c.Thresholds == (Thresholds{}) {
		c.Thresholds = DefaultThresholds()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}
