package mtdesign

// ThrustModel converts heliocentric distance, fuel state, elapsed mission
// time and active engine count into the maximum achievable control
// acceleration. Thrust is assumed isotropic: the same magnitude is available
// on every axis.
type ThrustModel struct {
	cst          Constants
	dryMass      float64 // kg
	fuelBudget   float64 // kg
	preEventFuel float64 // kg, consumed before the missed-thrust epoch
	fuelRate     float64 // kg/day per engine
}

// NewThrustModel returns a thrust capability model for the given mission.
func NewThrustModel(cst Constants, m MissionConfig) ThrustModel {
	return ThrustModel{
		cst:          cst,
		dryMass:      m.DryMass,
		fuelBudget:   m.FuelBudget,
		preEventFuel: m.PreEventFuel,
		fuelRate:     m.FuelRate,
	}
}

// Umax returns the maximum control acceleration in canonical units for a
// spacecraft at heliocentric distance r (DU), elapsedDays after the
// missed-thrust epoch, with engines thrusters active.
func (tm ThrustModel) Umax(r, elapsedDays float64, engines int) (float64, error) {
	if r <= 0 {
		return 0, newModelingError(ErrNonPositiveDistance, "r", r)
	}
	consumed := tm.preEventFuel + tm.fuelRate*float64(engines)*elapsedDays
	if consumed > tm.fuelBudget {
		return 0, newModelingError(ErrFuelBudgetExceeded, "fuel(kg)", consumed)
	}
	mass := tm.dryMass + tm.fuelBudget - consumed
	if mass <= 0 {
		return 0, newModelingError(ErrNonPositiveMass, "mass(kg)", mass)
	}
	// Inverse-square irradiance from the 1 AU reference, through panels,
	// then thrust at fixed effective exhaust velocity.
	irradiance := tm.cst.SolarFlux / (r * r)
	power := irradiance * tm.cst.PanelArea * tm.cst.PanelEff * float64(engines)
	thrust := power / tm.cst.ExhaustVel // N
	return tm.cst.AccelToCanonical(thrust / mass), nil
}

// FuelLedger tracks cumulative fuel consumption and thrust-on time after the
// missed-thrust epoch. Both quantities are monotonically non-decreasing.
type FuelLedger struct {
	consumed   float64 // kg since the missed-thrust epoch
	thrustDays float64
}

// Burn records days of thrusting at the given engine count and per-engine
// daily rate.
func (l *FuelLedger) Burn(rate float64, engines int, days float64) {
	if days < 0 || rate < 0 {
		panic("fuel ledger burns must be non-negative")
	}
	l.consumed += rate * float64(engines) * days
	l.thrustDays += days
}

// Consumed returns the fuel consumed since the missed-thrust epoch in kg.
func (l FuelLedger) Consumed() float64 {
	return l.consumed
}

// ThrustDays returns the cumulative thrust-on time in days.
func (l FuelLedger) ThrustDays() float64 {
	return l.thrustDays
}
