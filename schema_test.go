package gaitstat

import "testing"

func TestParseCanonicalName(t *testing.T) {
	cases := []struct {
		name     string
		ok       bool
		segment  string
		motion   string
		quantity string
		side     string
		unit     string
	}{
		{"knee_flexion_angle_ipsi_rad", true, "knee", "flexion", "angle", "ipsi", "rad"},
		{"hip_adduction_moment_contra_Nm", true, "hip", "adduction", "moment", "contra", "Nm"},
		{"knee_flexion_velocity_ipsi_rad_s", true, "knee", "flexion", "velocity", "ipsi", "rad_s"},
		{"ground_vertical_force_contra_N", true, "ground", "vertical", "force", "contra", "N"},
		{"ankle_dorsiflexion_angle_contra_rad", true, "ankle", "dorsiflexion", "angle", "contra", "rad"},
		{"emg_tibialis_anterior", false, "", "", "", "", ""},
		{"knee_flexion_angle_left_rad", false, "", "", "", "", ""},
		{"elbow_flexion_angle_ipsi_rad", false, "", "", "", "", ""},
		{"knee_flexion_moment_ipsi_rad", false, "", "", "", "", ""},
		{"knee_angle_ipsi_rad", false, "", "", "", "", ""},
	}

	for _, tc := range cases {
		feat, ok := parseCanonicalName(tc.name)
		if ok != tc.ok {
			t.Fatalf("%s: ok=%v, want %v", tc.name, ok, tc.ok)
		}
		if !ok {
			continue
		}
		if feat.Segment != tc.segment || feat.Motion != tc.motion || feat.Quantity != tc.quantity ||
			feat.Side != tc.side || feat.Unit != tc.unit {
			t.Fatalf("%s parsed as %+v", tc.name, feat)
		}
	}
}

func TestResolveSchemaClassification(t *testing.T) {
	s := resolveSchema([]string{
		"knee_flexion_angle_ipsi_rad",
		"knee_angle_contra", // legacy alias
		"marker_quality",    // non-standard, kept
	})

	report := s.Report()
	if report.TotalColumns != 3 {
		t.Fatalf("total columns = %d", report.TotalColumns)
	}
	if len(report.Standard) != 2 {
		t.Fatalf("standard = %v", report.Standard)
	}
	if len(report.NonStandard) != 1 || report.NonStandard[0] != "marker_quality" {
		t.Fatalf("non-standard = %v", report.NonStandard)
	}
	if got := report.AliasedColumns["knee_angle_contra"]; got != "knee_flexion_angle_contra_rad" {
		t.Fatalf("alias resolution = %q", got)
	}

	// The aliased column resolves under its canonical name but still maps
	// to the original table column.
	feat, ok := s.Lookup("knee_flexion_angle_contra_rad")
	if !ok {
		t.Fatal("aliased feature not resolvable by canonical name")
	}
	if feat.Column != "knee_angle_contra" {
		t.Fatalf("alias column mapping = %q", feat.Column)
	}

	// Non-standard columns resolve verbatim with no unit family.
	feat, ok = s.Lookup("marker_quality")
	if !ok {
		t.Fatal("non-standard column was dropped")
	}
	if feat.Standard || feat.Unit != "" {
		t.Fatalf("non-standard column misclassified: %+v", feat)
	}
}

func TestContralateralName(t *testing.T) {
	got, ok := ContralateralName("knee_flexion_angle_ipsi_rad")
	if !ok || got != "knee_flexion_angle_contra_rad" {
		t.Fatalf("ipsi counterpart = %q, ok=%v", got, ok)
	}
	got, ok = ContralateralName("knee_flexion_angle_contra_rad")
	if !ok || got != "knee_flexion_angle_ipsi_rad" {
		t.Fatalf("contra counterpart = %q, ok=%v", got, ok)
	}
	if _, ok := ContralateralName("marker_quality"); ok {
		t.Fatal("sideless name must have no counterpart")
	}
}
