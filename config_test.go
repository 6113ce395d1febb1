package mtdesign

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gonum/floats"
)

func TestCanonicalUnits(t *testing.T) {
	cst := DefaultConstants()
	// One day is the Gaussian gravitational constant in canonical units.
	if !floats.EqualWithinAbs(cst.DayTU(), 0.01720209895, 1e-6) {
		t.Fatalf("incorrect canonical day: %f", cst.DayTU())
	}
	// 1 m/s^2 in canonical units, cross-checked from TU^2/AU.
	tu := cst.TU()
	if !floats.EqualWithinAbs(cst.AccelToCanonical(1), tu*tu/(cst.AU*1e3), 1e-12) {
		t.Fatalf("incorrect acceleration conversion: %f", cst.AccelToCanonical(1))
	}
	if cst.AccelToCanonical(1) < 160 || cst.AccelToCanonical(1) > 175 {
		t.Fatalf("acceleration conversion out of range: %f", cst.AccelToCanonical(1))
	}
}

func TestMissionValidation(t *testing.T) {
	m := testMission()
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
	bad := m
	bad.Initial = State{}
	if err := bad.Validate(); !errors.Is(err, ErrNonPositiveDistance) {
		t.Fatalf("zero initial state must fail validation, got %v", err)
	}
	bad = m
	bad.DryMass = 0
	if err := bad.Validate(); !errors.Is(err, ErrNonPositiveMass) {
		t.Fatalf("zero dry mass must fail validation, got %v", err)
	}
	bad = m
	bad.PreEventFuel = m.FuelBudget + 1
	if err := bad.Validate(); !errors.Is(err, ErrFuelBudgetExceeded) {
		t.Fatalf("over-budget pre-event fuel must fail validation, got %v", err)
	}
	bad = m
	bad.Deadline = m.MissedThrust.AddDate(0, 0, -1)
	if err := bad.Validate(); err == nil {
		t.Fatal("deadline before the missed-thrust epoch must fail validation")
	}
}

func TestDeadlineDays(t *testing.T) {
	m := testMission()
	if !floats.EqualWithinAbs(m.DeadlineDays(), 183, 1e-9) {
		t.Fatalf("expected a 183 day budget, got %f", m.DeadlineDays())
	}
}

func TestLoadScenario(t *testing.T) {
	scenario := `
[constants]
panel_area = 60.0
soi_threshold = 0.02

[mission]
dry_mass = 1000.0
fuel_budget = 400.0
pre_event_fuel = 50.0
fuel_rate = 1.5
missed_thrust = "2026-01-15 00:00:00"
deadline = 2461238.5

[mission.initial]
r = ["1.99", "0.0", "0.0"]
v = ["0.0", "0.70888", "0.0"]

[mission.target]
r = ["-0.7", "1.35", "0.0"]
v = ["-0.71989", "-0.37328", "0.0"]

[sweep]
coast_durations = ["5", "15", "30"]
engine_counts = ["1", "2"]
workers = 2
`
	path := filepath.Join(t.TempDir(), "scenario.toml")
	if err := os.WriteFile(path, []byte(scenario), 0644); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Constants.PanelArea != 60 {
		t.Fatalf("panel area override lost: %f", loaded.Constants.PanelArea)
	}
	if loaded.Constants.SOIThreshold != 0.02 {
		t.Fatalf("SOI override lost: %f", loaded.Constants.SOIThreshold)
	}
	// Untouched constants keep their defaults.
	if loaded.Constants.PanelEff != DefaultConstants().PanelEff {
		t.Fatalf("panel efficiency default lost: %f", loaded.Constants.PanelEff)
	}
	if !floats.EqualWithinAbs(loaded.Mission.Initial.R.X, 1.99, 1e-12) {
		t.Fatalf("initial state misread: %+v", loaded.Mission.Initial)
	}
	// The deadline was given as a Julian date: 183 days past the epoch.
	if !floats.EqualWithinAbs(loaded.Mission.DeadlineDays(), 183, 1e-6) {
		t.Fatalf("JD deadline misread: %f days", loaded.Mission.DeadlineDays())
	}
	if len(loaded.Sweep.CoastDurations) != 3 || len(loaded.Sweep.EngineCounts) != 2 {
		t.Fatalf("sweep grid misread: %+v", loaded.Sweep)
	}
	if loaded.Mission.Perturbing != nil {
		t.Fatal("no perturbing body was configured")
	}
}

func TestLoadScenarioNumericArrays(t *testing.T) {
	// Unquoted TOML number arrays must load exactly like quoted ones.
	scenario := `
[mission]
dry_mass = 1000.0
fuel_budget = 400.0
pre_event_fuel = 50.0
fuel_rate = 1.5
missed_thrust = "2026-01-15 00:00:00"
deadline = 2461238.5

[mission.initial]
r = [1.99, 0.0, 0.0]
v = [0.0, 0.70888, 0.0]

[mission.target]
r = [-0.7, 1.35]
v = [-0.71989, -0.37328]

[sweep]
coast_durations = [5, 15, 30]
engine_counts = [1, 2]
`
	path := filepath.Join(t.TempDir(), "scenario.toml")
	if err := os.WriteFile(path, []byte(scenario), 0644); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualWithinAbs(loaded.Mission.Initial.R.X, 1.99, 1e-12) {
		t.Fatalf("initial state misread: %+v", loaded.Mission.Initial)
	}
	if !floats.EqualWithinAbs(loaded.Mission.Target.R.Y, 1.35, 1e-12) || loaded.Mission.Target.R.Z != 0 {
		t.Fatalf("planar target state misread: %+v", loaded.Mission.Target)
	}
	if len(loaded.Sweep.CoastDurations) != 3 || loaded.Sweep.EngineCounts[1] != 2 {
		t.Fatalf("sweep grid misread: %+v", loaded.Sweep)
	}
}

func TestLoadScenarioBadState(t *testing.T) {
	base := `
[mission]
dry_mass = 1000.0
fuel_budget = 400.0
pre_event_fuel = 50.0
fuel_rate = 1.5
missed_thrust = "2026-01-15 00:00:00"
deadline = 2461238.5

[mission.target]
r = [-0.7, 1.35, 0.0]
v = [-0.71989, -0.37328, 0.0]

[sweep]
coast_durations = [5]
engine_counts = [1]
`
	cases := []struct{ name, initial string }{
		{"malformed component", "[mission.initial]\nr = [\"one\", \"0.0\", \"0.0\"]\nv = [0.0, 0.7, 0.0]\n"},
		{"single component", "[mission.initial]\nr = [1.99]\nv = [0.0, 0.7, 0.0]\n"},
		{"missing state", ""},
	}
	for _, tc := range cases {
		path := filepath.Join(t.TempDir(), "scenario.toml")
		if err := os.WriteFile(path, []byte(base+tc.initial), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadScenario(path); err == nil {
			t.Fatalf("%s must fail to load", tc.name)
		}
	}
}

func TestLoadScenarioMissing(t *testing.T) {
	if _, err := LoadScenario(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("missing scenario file must error")
	}
}
