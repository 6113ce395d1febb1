package mtdesign

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/soniakeys/meeus/julian"
	"github.com/spf13/viper"
)

const dateTimeFormat = "2006-01-02 15:04:05"

// Constants gathers the physical constants and solver thresholds. It is an
// explicit value handed to every constructor; there is no ambient
// configuration state.
type Constants struct {
	SunGM      float64 // gravitational parameter of the Sun (km^3/s^2)
	AU         float64 // one astronomical unit (km)
	SolarFlux  float64 // solar irradiance at 1 AU (W/m^2)
	PanelArea  float64 // solar panel area (m^2)
	PanelEff   float64 // panel conversion efficiency
	ExhaustVel float64 // effective exhaust velocity (m/s)

	SOIThreshold   float64 // rendezvous miss-distance threshold (DU)
	DriftThreshold float64 // heliocentric drift triggering relinearization (DU)
	StepsPerDay    int     // RK4 substeps per day-step
	PhaseIterMax   int     // iteration budget of the coupled phase solve
	PhaseTolerance float64 // residual norm declaring the coupled solve converged (DU)
	ConeAngle      float64 // third-body alignment cone half-angle (rad)
}

// DefaultConstants returns the reference constant set. Thresholds are in
// canonical units with the distance unit set to 1 AU.
func DefaultConstants() Constants {
	return Constants{
		SunGM:          1.32712440018e11,
		AU:             1.49597870700e8,
		SolarFlux:      1361.0,
		PanelArea:      75.0,
		PanelEff:       0.29,
		ExhaustVel:     30000.0,
		SOIThreshold:   0.01,
		DriftThreshold: 0.01,
		StepsPerDay:    96,
		PhaseIterMax:   25,
		PhaseTolerance: 1e-3,
		ConeAngle:      18.19 * math.Pi / 180,
	}
}

// TU returns the canonical time unit in seconds, i.e. the time unit for
// which the Sun's gravitational parameter is one with distances in AU.
func (c Constants) TU() float64 {
	return math.Sqrt(math.Pow(c.AU, 3) / c.SunGM)
}

// DayTU returns one day expressed in canonical time units.
func (c Constants) DayTU() float64 {
	return 86400 / c.TU()
}

// AccelToCanonical converts an acceleration in m/s^2 to canonical units.
func (c Constants) AccelToCanonical(aSI float64) float64 {
	tu := c.TU()
	return aSI * tu * tu / (c.AU * 1e3)
}

// PerturbingBody is the secondary gravitating body of the spatial variant,
// advanced in lockstep with the spacecraft.
type PerturbingBody struct {
	State State   // heliocentric state at the missed-thrust epoch
	GM    float64 // gravitational parameter in canonical units
}

// MissionConfig holds the mission parameters of a single missed-thrust
// scenario. The states are canonical-unit vectors obtained externally from
// the trajectory-kernel service.
type MissionConfig struct {
	Initial State // spacecraft state at the missed-thrust epoch
	Target  State // planned rendezvous state, never mutated

	Perturbing *PerturbingBody // nil for the planar two-body variant

	DryMass      float64 // kg
	FuelBudget   float64 // total onboard fuel (kg)
	PreEventFuel float64 // fuel consumed before the missed-thrust epoch (kg)
	FuelRate     float64 // per-engine consumption (kg/day)

	MissedThrust time.Time
	Deadline     time.Time
}

// DeadlineDays returns the mission time budget in days from the
// missed-thrust epoch.
func (m MissionConfig) DeadlineDays() float64 {
	return julian.TimeToJD(m.Deadline) - julian.TimeToJD(m.MissedThrust)
}

// Validate checks the mission parameters for modeling errors.
func (m MissionConfig) Validate() error {
	if r := m.Initial.RNorm(); r <= 0 {
		return newModelingError(ErrNonPositiveDistance, "initial r", r)
	}
	if r := m.Target.RNorm(); r <= 0 {
		return newModelingError(ErrNonPositiveDistance, "target r", r)
	}
	if m.DryMass <= 0 {
		return newModelingError(ErrNonPositiveMass, "dry mass", m.DryMass)
	}
	if m.PreEventFuel > m.FuelBudget {
		return newModelingError(ErrFuelBudgetExceeded, "pre-event fuel", m.PreEventFuel)
	}
	if m.Deadline.Before(m.MissedThrust) {
		return fmt.Errorf("mission deadline %s precedes missed-thrust epoch %s", m.Deadline, m.MissedThrust)
	}
	return nil
}

// SweepConfig defines the search-space grid.
type SweepConfig struct {
	CoastDurations []float64 // days of ballistic coast before thrust resumes
	EngineCounts   []int     // active engine counts
	Workers        int       // parallel workers; <=0 means one per CPU
}

// Scenario bundles everything needed to run a sweep.
type Scenario struct {
	Constants Constants
	Mission   MissionConfig
	Sweep     SweepConfig
}

// LoadScenario reads a TOML scenario file. Dates may be given either as a
// Julian date or as a civil "YYYY-MM-DD HH:MM:SS" timestamp.
func LoadScenario(path string) (Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Scenario{}, fmt.Errorf("could not read scenario: %s", err)
	}

	cst := DefaultConstants()
	if v.IsSet("constants.panel_area") {
		cst.PanelArea = v.GetFloat64("constants.panel_area")
	}
	if v.IsSet("constants.panel_efficiency") {
		cst.PanelEff = v.GetFloat64("constants.panel_efficiency")
	}
	if v.IsSet("constants.exhaust_velocity") {
		cst.ExhaustVel = v.GetFloat64("constants.exhaust_velocity")
	}
	if v.IsSet("constants.soi_threshold") {
		cst.SOIThreshold = v.GetFloat64("constants.soi_threshold")
	}
	if v.IsSet("constants.drift_threshold") {
		cst.DriftThreshold = v.GetFloat64("constants.drift_threshold")
	}

	mission := MissionConfig{
		DryMass:      v.GetFloat64("mission.dry_mass"),
		FuelBudget:   v.GetFloat64("mission.fuel_budget"),
		PreEventFuel: v.GetFloat64("mission.pre_event_fuel"),
		FuelRate:     v.GetFloat64("mission.fuel_rate"),
	}
	var err error
	if mission.Initial, err = readState(v, "mission.initial"); err != nil {
		return Scenario{}, err
	}
	if mission.Target, err = readState(v, "mission.target"); err != nil {
		return Scenario{}, err
	}
	if mission.MissedThrust, err = readDate(v, "mission.missed_thrust"); err != nil {
		return Scenario{}, err
	}
	if mission.Deadline, err = readDate(v, "mission.deadline"); err != nil {
		return Scenario{}, err
	}
	if v.IsSet("perturbing.gm") {
		var pState State
		if pState, err = readState(v, "perturbing.state"); err != nil {
			return Scenario{}, err
		}
		mission.Perturbing = &PerturbingBody{State: pState, GM: v.GetFloat64("perturbing.gm")}
	}
	if err = mission.Validate(); err != nil {
		return Scenario{}, err
	}

	sweep := SweepConfig{Workers: v.GetInt("sweep.workers")}
	if sweep.CoastDurations, err = readFloats(v, "sweep.coast_durations"); err != nil {
		return Scenario{}, err
	}
	var engines []float64
	if engines, err = readFloats(v, "sweep.engine_counts"); err != nil {
		return Scenario{}, err
	}
	sweep.EngineCounts = make([]int, len(engines))
	for i, e := range engines {
		sweep.EngineCounts[i] = int(e)
	}
	if len(sweep.CoastDurations) == 0 || len(sweep.EngineCounts) == 0 {
		return Scenario{}, fmt.Errorf("scenario defines an empty sweep grid")
	}

	return Scenario{Constants: cst, Mission: mission, Sweep: sweep}, nil
}

func readState(v *viper.Viper, key string) (State, error) {
	r, err := readVec(v, key+".r")
	if err != nil {
		return State{}, err
	}
	vel, err := readVec(v, key+".v")
	if err != nil {
		return State{}, err
	}
	return State{R: r, V: vel}, nil
}

func readVec(v *viper.Viper, key string) (Vec3, error) {
	comps, err := readFloats(v, key)
	if err != nil {
		return Vec3{}, err
	}
	// Two components for a planar state, three for a spatial one.
	if len(comps) < 2 || len(comps) > 3 {
		return Vec3{}, fmt.Errorf("%s must hold 2 or 3 components, found %d", key, len(comps))
	}
	vec := Vec3{X: comps[0], Y: comps[1]}
	if len(comps) == 3 {
		vec.Z = comps[2]
	}
	return vec, nil
}

// readFloats reads a TOML array as floats, accepting numeric literals as
// well as quoted numbers.
func readFloats(v *viper.Viper, key string) ([]float64, error) {
	raw, ok := v.Get(key).([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s is not an array", key)
	}
	vals := make([]float64, len(raw))
	for i, c := range raw {
		switch val := c.(type) {
		case float64:
			vals[i] = val
		case int64:
			vals[i] = float64(val)
		case int:
			vals[i] = float64(val)
		case string:
			fl, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("could not parse `%s` in %s: %s", val, key, err)
			}
			vals[i] = fl
		default:
			return nil, fmt.Errorf("could not parse component %d of %s", i, key)
		}
	}
	return vals, nil
}

func readDate(v *viper.Viper, key string) (time.Time, error) {
	if jde := v.GetFloat64(key); jde > 0 {
		return julian.JDToTime(jde), nil
	}
	dt, err := time.Parse(dateTimeFormat, v.GetString(key))
	if err != nil {
		return time.Time{}, fmt.Errorf("could not understand `%s`: %s", key, err)
	}
	return dt.UTC(), nil
}
