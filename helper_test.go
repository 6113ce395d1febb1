package mtdesign

import (
	"testing"
	"time"

	"github.com/gonum/floats"
)

func assertPanic(t *testing.T, f func()) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a panic")
		}
	}()
	f()
}

func vec3Equal(a, b Vec3, tol float64) bool {
	return floats.EqualWithinAbs(a.X, b.X, tol) &&
		floats.EqualWithinAbs(a.Y, b.Y, tol) &&
		floats.EqualWithinAbs(a.Z, b.Z, tol)
}

func stateEqual(a, b State, tol float64) bool {
	return vec3Equal(a.R, b.R, tol) && vec3Equal(a.V, b.V, tol)
}

// testMission is the 1.99 AU missed-thrust scenario: circular heliocentric
// speed at the event, target in the inner system, six months to rendezvous.
func testMission() MissionConfig {
	return MissionConfig{
		Initial:      State{R: Vec3{X: 1.99}, V: Vec3{Y: 0.70888}},
		Target:       State{R: Vec3{X: -0.7, Y: 1.35}, V: Vec3{X: -0.71989, Y: -0.37328}},
		DryMass:      1000,
		FuelBudget:   400,
		PreEventFuel: 50,
		FuelRate:     1.5,
		MissedThrust: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Deadline:     time.Date(2026, 7, 17, 0, 0, 0, 0, time.UTC),
	}
}

// shortMission is the same scenario with a 40 day budget, for tests which
// only exercise the loop mechanics.
func shortMission() MissionConfig {
	m := testMission()
	m.Deadline = time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC)
	return m
}
