package gaitstat

import (
	"sort"
	"strings"
)

// Canonical feature names follow <segment>_<motion>_<quantity>_<side>_<unit>,
// for example knee_flexion_angle_ipsi_rad or hip_adduction_moment_contra_Nm.
// The unit suffix selects the plausible-range family used by validation.
const (
	UnitRad  = "rad"   // joint angles
	UnitRadS = "rad_s" // angular velocities
	UnitNm   = "Nm"    // joint moments
	UnitN    = "N"     // forces
)

const (
	SideIpsi   = "ipsi"
	SideContra = "contra"
)

// Unit suffixes ordered longest-first so rad_s is matched before rad.
var unitSuffixes = []string{UnitRadS, UnitRad, UnitNm, UnitN}

var canonicalSegments = map[string]struct{}{
	"pelvis": {}, "trunk": {}, "hip": {}, "knee": {}, "ankle": {}, "foot": {},
	"thigh": {}, "shank": {}, "ground": {},
}

var quantityByUnit = map[string]string{
	UnitRad:  "angle",
	UnitRadS: "velocity",
	UnitNm:   "moment",
	UnitN:    "force",
}

// legacyAliases maps pre-standard column names still seen in older exports to
// their canonical equivalents.
var legacyAliases = map[string]string{
	"knee_angle_ipsi":      "knee_flexion_angle_ipsi_rad",
	"knee_angle_contra":    "knee_flexion_angle_contra_rad",
	"hip_angle_ipsi":       "hip_flexion_angle_ipsi_rad",
	"hip_angle_contra":     "hip_flexion_angle_contra_rad",
	"ankle_angle_ipsi":     "ankle_dorsiflexion_angle_ipsi_rad",
	"ankle_angle_contra":   "ankle_dorsiflexion_angle_contra_rad",
	"knee_velocity_ipsi":   "knee_flexion_velocity_ipsi_rad_s",
	"knee_velocity_contra": "knee_flexion_velocity_contra_rad_s",
	"knee_moment_ipsi":     "knee_flexion_moment_ipsi_Nm",
	"knee_moment_contra":   "knee_flexion_moment_contra_Nm",
	"grf_vertical_ipsi":    "ground_vertical_force_ipsi_N",
	"grf_vertical_contra":  "ground_vertical_force_contra_N",
}

// Feature describes one resolved feature column.
type Feature struct {
	// Name is the canonical feature identifier.
	Name string
	// Column is the actual table column the feature maps to; it differs
	// from Name only for legacy aliases.
	Column   string
	Segment  string
	Motion   string
	Quantity string
	Side     string
	Unit     string
	// Standard reports whether the column conforms to the naming
	// convention (directly or via a known alias).
	Standard bool
}

// ComplianceReport classifies the feature columns found at construction.
// Non-standard columns are kept and queryable but carry no unit family, so
// validation only applies the non-finite rule to them.
type ComplianceReport struct {
	TotalColumns   int               `json:"total_columns"`
	Standard       []string          `json:"standard"`
	NonStandard    []string          `json:"non_standard"`
	AliasedColumns map[string]string `json:"aliased_columns,omitempty"`
}

// Schema is the immutable name resolution result shared by every dataset
// component. Canonical names never change for the dataset's lifetime.
type Schema struct {
	features []Feature
	byName   map[string]int
	report   ComplianceReport
}

// resolveSchema classifies feature columns against the canonical vocabulary.
// It never drops a column: non-conforming names become non-standard features
// resolved verbatim.
func resolveSchema(columns []string) *Schema {
	s := &Schema{byName: make(map[string]int, len(columns))}
	s.report.TotalColumns = len(columns)

	for _, col := range columns {
		name := col
		aliased := false
		if canonical, ok := legacyAliases[col]; ok {
			name = canonical
			aliased = true
		}

		feat, ok := parseCanonicalName(name)
		feat.Column = col
		if ok {
			feat.Standard = true
			s.report.Standard = append(s.report.Standard, name)
			if aliased {
				if s.report.AliasedColumns == nil {
					s.report.AliasedColumns = make(map[string]string)
				}
				s.report.AliasedColumns[col] = name
			}
		} else {
			feat.Name = col
			s.report.NonStandard = append(s.report.NonStandard, col)
		}

		if _, dup := s.byName[feat.Name]; dup {
			continue
		}
		s.byName[feat.Name] = len(s.features)
		s.features = append(s.features, feat)
	}

	sort.Strings(s.report.Standard)
	sort.Strings(s.report.NonStandard)
	return s
}

// parseCanonicalName splits a candidate canonical name into its parts. ok is
// false when the name does not follow the convention.
func parseCanonicalName(name string) (Feature, bool) {
	feat := Feature{Name: name}

	unit := ""
	rest := ""
	for _, u := range unitSuffixes {
		if strings.HasSuffix(name, "_"+u) {
			unit = u
			rest = strings.TrimSuffix(name, "_"+u)
			break
		}
	}
	if unit == "" {
		return feat, false
	}

	side := ""
	for _, s := range []string{SideIpsi, SideContra} {
		if strings.HasSuffix(rest, "_"+s) {
			side = s
			rest = strings.TrimSuffix(rest, "_"+s)
			break
		}
	}
	if side == "" {
		return feat, false
	}

	parts := strings.Split(rest, "_")
	if len(parts) < 3 {
		return feat, false
	}
	segment := parts[0]
	if _, ok := canonicalSegments[segment]; !ok {
		return feat, false
	}
	quantity := parts[len(parts)-1]
	if quantity != quantityByUnit[unit] {
		return feat, false
	}

	feat.Segment = segment
	feat.Motion = strings.Join(parts[1:len(parts)-1], "_")
	feat.Quantity = quantity
	feat.Side = side
	feat.Unit = unit
	return feat, true
}

// FeatureNames returns every resolved canonical name in column order.
func (s *Schema) FeatureNames() []string {
	out := make([]string, len(s.features))
	for i, f := range s.features {
		out[i] = f.Name
	}
	return out
}

// Lookup resolves a canonical feature name.
func (s *Schema) Lookup(name string) (Feature, bool) {
	idx, ok := s.byName[name]
	if !ok {
		return Feature{}, false
	}
	return s.features[idx], true
}

// Report returns the construction-time compliance report.
func (s *Schema) Report() ComplianceReport { return s.report }

// ContralateralName returns the opposite-side counterpart of a canonical
// name, used to pair features for bilateral symmetry.
func ContralateralName(name string) (string, bool) {
	if strings.Contains(name, "_"+SideIpsi+"_") {
		return strings.Replace(name, "_"+SideIpsi+"_", "_"+SideContra+"_", 1), true
	}
	if strings.Contains(name, "_"+SideContra+"_") {
		return strings.Replace(name, "_"+SideContra+"_", "_"+SideIpsi+"_", 1), true
	}
	return "", false
}
