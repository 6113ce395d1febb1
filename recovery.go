package mtdesign

import (
	"math"

	"github.com/go-kit/kit/log"
)

// Status is the terminal outcome of a recovery solve.
type Status uint8

// Terminal outcomes. Time exhaustion is an expected outcome, not an error:
// the partial result is still reported.
const (
	StatusRendezvous Status = iota + 1
	StatusTimeExhausted
)

func (s Status) String() string {
	switch s {
	case StatusRendezvous:
		return "rendezvous"
	case StatusTimeExhausted:
		return "time-exhausted"
	}
	panic("cannot stringify unknown status")
}

// Result is the outcome of a single recovery solve.
type Result struct {
	Status       Status
	MissDistance float64 // best achieved miss distance (DU)
	CoastMiss    float64 // ballistic miss at the end of the coast (DU)
	FuelUsed     float64 // fuel consumed since the missed-thrust epoch (kg)
	ElapsedDays  float64 // coast plus controlled days at termination
	Converged    bool    // false if any phase solve exhausted its budget
	Final        State   // spacecraft state at termination
}

// Rendezvous returns whether the solve reached the target within the
// sphere-of-influence threshold.
func (r Result) Rendezvous() bool {
	return r.Status == StatusRendezvous
}

// RecoverySolver runs the relinearize/controlled-step loop from the moment
// thrust resumes until rendezvous or time exhaustion.
type RecoverySolver struct {
	cst     Constants
	mission MissionConfig
	grav    GravityModel
	thrust  ThrustModel
	prop    *Propagator
	phases  *PhaseSolver
	spatial bool
	logger  log.Logger
}

// NewRecoverySolver returns a solver for the given mission. The solver is
// synchronous and deterministic; concurrent sweeps must construct one solver
// per worker.
func NewRecoverySolver(cst Constants, m MissionConfig, logger log.Logger) *RecoverySolver {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	grav := NewGravityModel(cst)
	if m.Perturbing != nil {
		grav = NewPerturbedGravityModel(cst, m.Perturbing)
	}
	return &RecoverySolver{
		cst:     cst,
		mission: m,
		grav:    grav,
		thrust:  NewThrustModel(cst, m),
		prop:    NewPropagator(cst),
		phases:  NewPhaseSolver(cst, logger),
		spatial: m.Perturbing != nil,
		logger:  logger,
	}
}

// Solve coasts ballistically for coastDays, then flies the bang-bang
// recovery with the given engine count until rendezvous or the mission
// deadline. A ModelingError aborts the solve; time exhaustion does not.
func (rs *RecoverySolver) Solve(coastDays float64, engines int) (Result, error) {
	if engines < 0 {
		panic("engine count may not be negative")
	}
	deadline := rs.mission.DeadlineDays()
	state := rs.mission.Initial
	target := rs.mission.Target
	var body State
	if rs.spatial {
		body = rs.mission.Perturbing.State
	}
	var ledger FuelLedger
	elapsed := 0.0
	converged := true

	rs.logger.Log("level", "info", "subsys", "recovery", "status", "coasting",
		"coast(days)", coastDays, "engines", engines, "deadline(days)", deadline)

	// COASTING: ballistic flight until thrust resumes or time runs out.
	for elapsed+1 <= math.Min(coastDays, deadline) {
		var err error
		if state, body, err = rs.ballisticStep(state, body); err != nil {
			return Result{}, err
		}
		elapsed++
	}

	coastMiss := state.DistanceTo(target)
	best := coastMiss
	if best < rs.cst.SOIThreshold {
		rs.logger.Log("level", "notice", "subsys", "recovery", "status", "rendezvous", "controlled(days)", 0)
		return Result{Status: StatusRendezvous, MissDistance: best, CoastMiss: coastMiss,
			ElapsedDays: elapsed, Converged: true, Final: state}, nil
	}

	axTol := rs.cst.SOIThreshold / math.Sqrt2
	relinCount := 0

	for elapsed+1 <= deadline {
		// RELINEARIZE: freeze the acceleration field and re-solve phases.
		g, err := rs.grav.Coeff(state.RNorm())
		if err != nil {
			return Result{}, err
		}
		umax, err := rs.thrust.Umax(state.RNorm(), elapsed, engines)
		if err != nil {
			return Result{}, err
		}
		remaining := deadline - elapsed
		var sol PhaseSolution
		if rs.spatial {
			sol = rs.phases.SolveSpatial(state, target, g, umax, remaining)
		} else {
			sol = rs.phases.SolvePlanar(state, target, g, umax, remaining)
		}
		converged = converged && sol.Converged
		relinCount++
		rRef := state.RNorm()
		tau := 0.0

		// CONTROLLED_STEP loop within this linearization interval.
		for elapsed+1 <= deadline {
			var u Vec3
			thrustOn := false
			for _, ax := range rs.controlledAxes() {
				// A satisfied axis holds its solved phase but commands no
				// acceleration. Control resumes as soon as the axis drifts
				// back out of tolerance, mid-interval, without waiting for
				// the next relinearization.
				if math.Abs(state.R.Axis(ax)-target.R.Axis(ax)) <= axTol {
					continue
				}
				uax := sol.Control(ax, tau, g, umax)
				u = u.SetAxis(ax, uax)
				thrustOn = thrustOn || uax != 0
			}
			ext := u
			if rs.spatial {
				ext = ext.Add(rs.grav.Perturb(state.R, body.R))
				gBody, berr := rs.grav.Coeff(body.RNorm())
				if berr != nil {
					return Result{}, berr
				}
				body = rs.prop.Step(body, gBody, Vec3{})
			}
			state = rs.prop.Step(state, g, ext)
			tau += rs.cst.DayTU()
			elapsed++
			if thrustOn {
				ledger.Burn(rs.mission.FuelRate, engines, 1)
				if total := rs.mission.PreEventFuel + ledger.Consumed(); total > rs.mission.FuelBudget {
					return Result{}, newModelingError(ErrFuelBudgetExceeded, "fuel(kg)", total)
				}
			}

			miss := state.DistanceTo(target)
			if miss < best {
				best = miss
			}
			if miss < rs.cst.SOIThreshold {
				rs.logger.Log("level", "notice", "subsys", "recovery", "status", "rendezvous",
					"elapsed(days)", elapsed, "fuel(kg)", ledger.Consumed(), "relinearizations", relinCount)
				return Result{Status: StatusRendezvous, MissDistance: miss, CoastMiss: coastMiss,
					FuelUsed: ledger.Consumed(), ElapsedDays: elapsed, Converged: converged, Final: state}, nil
			}
			if math.Abs(state.RNorm()-rRef) > rs.cst.DriftThreshold {
				break // positional drift makes the frozen field stale
			}
		}
	}

	rs.logger.Log("level", "notice", "subsys", "recovery", "status", "time-exhausted",
		"miss(DU)", best, "fuel(kg)", ledger.Consumed(), "relinearizations", relinCount)
	return Result{Status: StatusTimeExhausted, MissDistance: best, CoastMiss: coastMiss,
		FuelUsed: ledger.Consumed(), ElapsedDays: elapsed, Converged: converged, Final: state}, nil
}

// ballisticStep advances the spacecraft (and perturbing body, if any) one
// day without control.
func (rs *RecoverySolver) ballisticStep(state, body State) (State, State, error) {
	g, err := rs.grav.Coeff(state.RNorm())
	if err != nil {
		return state, body, err
	}
	var pert Vec3
	if rs.spatial {
		pert = rs.grav.Perturb(state.R, body.R)
		gBody, berr := rs.grav.Coeff(body.RNorm())
		if berr != nil {
			return state, body, berr
		}
		body = rs.prop.Step(body, gBody, Vec3{})
	}
	return rs.prop.Step(state, g, pert), body, nil
}

func (rs *RecoverySolver) controlledAxes() []Axis {
	if rs.spatial {
		return []Axis{AxisX, AxisY, AxisZ}
	}
	return []Axis{AxisX, AxisY}
}
