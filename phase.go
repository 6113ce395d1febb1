package mtdesign

import (
	"math"

	"github.com/go-kit/kit/log"
	"github.com/gonum/matrix/mat64"
)

const (
	// phaseScanStep is the grid spacing of the companion-axis phase scan.
	phaseScanStep = math.Pi / 36
	// phaseScanCount is the number of scanned candidate phases.
	phaseScanCount = 20
	// spatialScanCount covers a full control period at the scan spacing.
	spatialScanCount = 72
	// jacobianStep is the finite-difference step seeding the Broyden
	// Jacobian. It matches the scan spacing so that the secant slope is
	// taken across a control switch rather than within a constant-sign arc.
	jacobianStep = phaseScanStep
)

// PhaseSolution holds the bang-bang phase angles of one relinearization
// interval. The control on an axis is umax * sign(cos(w*tau + phase)) with
// tau counted from the start of the interval.
type PhaseSolution struct {
	Phases    [3]float64
	Dominant  Axis    // driving axis of the planar scheme
	FinalDays float64 // estimated days to the terminal boundary
	Converged bool    // false when the coupled solve exhausted its budget
}

// Control returns the commanded acceleration on the given axis at elapsed
// interval time tau (TU), under gravity coefficient g and maximum
// acceleration umax.
func (sol PhaseSolution) Control(ax Axis, tau, g, umax float64) float64 {
	w := math.Sqrt(-g)
	return umax * signOrZero(math.Cos(w*tau+sol.Phases[ax]))
}

// PhaseSolver solves the linearized two-point boundary value problem for the
// bang-bang switching phases.
type PhaseSolver struct {
	cst    Constants
	logger log.Logger
}

// NewPhaseSolver returns a phase solver. The logger may be a nop logger.
func NewPhaseSolver(cst Constants, logger log.Logger) *PhaseSolver {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &PhaseSolver{cst: cst, logger: logger}
}

// SolvePlanar determines the X and Y phases via the decoupled dominant-axis
// scheme: the driving axis gets a structural half-pi phase guess and fixes
// the time-to-boundary by forward simulation, then the companion phase is
// picked by a coarse grid scan on the terminal-velocity residual.
func (ps *PhaseSolver) SolvePlanar(cur, target State, g, umax, remainingDays float64) PhaseSolution {
	qx := ps.drivingQuantity(cur.R.X, cur.V.X, target.R.X, target.V.X, g)
	qy := ps.drivingQuantity(cur.R.Y, cur.V.Y, target.R.Y, target.V.Y, g)

	// Larger derived quantity drives; exact ties prefer the X axis.
	dominant, companion := AxisX, AxisY
	qDom := qx
	if math.Abs(qy) > math.Abs(qx) {
		dominant, companion = AxisY, AxisX
		qDom = qy
	}

	sol := PhaseSolution{Dominant: dominant, Converged: true}
	if qDom >= 0 {
		sol.Phases[dominant] = math.Pi / 2
	} else {
		sol.Phases[dominant] = -math.Pi / 2
	}

	// Two axes must each independently satisfy the miss threshold.
	axTol := ps.cst.SOIThreshold / math.Sqrt2
	sol.FinalDays = ps.timeToBoundary(cur, target, dominant, sol.Phases[dominant], g, umax, remainingDays, axTol)
	sol.Phases[companion] = ps.scanCompanion(cur, target, companion, g, umax, sol.FinalDays)
	return sol
}

// SolveSpatial determines all three phases jointly with a derivative-free
// Broyden iteration on the terminal position residual, seeded by a per-axis
// grid scan over a full control period. The residual is evaluated with
// exact switch times so that it varies continuously with the phases, which
// the finite-difference seed and the secant updates require.
// Non-convergence within the iteration budget is recoverable: the
// best-residual phases found are returned with Converged unset.
func (ps *PhaseSolver) SolveSpatial(cur, target State, g, umax, remainingDays float64) PhaseSolution {
	sol := PhaseSolution{FinalDays: remainingDays}
	horizon := remainingDays * ps.cst.DayTU()

	residual := func(phases [3]float64) *mat64.Vector {
		res := mat64.NewVector(3, nil)
		for _, ax := range []Axis{AxisX, AxisY, AxisZ} {
			x, _ := terminalAxis(cur.R.Axis(ax), cur.V.Axis(ax), g, umax, phases[ax], horizon)
			res.SetVec(int(ax), x-target.R.Axis(ax))
		}
		return res
	}

	phases := ps.spatialSeed(cur, target, g, umax, horizon)
	F := residual(phases)
	best, bestNorm := phases, mat64.Norm(F, 2)
	J := ps.seedJacobian(residual, phases, F)

	for iter := 0; iter < ps.cst.PhaseIterMax; iter++ {
		if bestNorm < ps.cst.PhaseTolerance {
			sol.Converged = true
			break
		}
		var Jinv mat64.Dense
		if err := Jinv.Inverse(J); err != nil {
			// Singular secant estimate, reseed from finite differences.
			J = ps.seedJacobian(residual, phases, F)
			if err = Jinv.Inverse(J); err != nil {
				break
			}
		}
		step := mat64.NewVector(3, nil)
		step.MulVec(&Jinv, F)
		var next [3]float64
		for i := 0; i < 3; i++ {
			next[i] = phases[i] - step.At(i, 0)
		}
		Fnext := residual(next)

		// Broyden rank-one secant update of the Jacobian estimate.
		dF := mat64.NewVector(3, nil)
		dF.SubVec(Fnext, F)
		Js := mat64.NewVector(3, nil)
		s := mat64.NewVector(3, nil)
		for i := 0; i < 3; i++ {
			s.SetVec(i, next[i]-phases[i])
		}
		if ss := mat64.Dot(s, s); ss > 0 {
			Js.MulVec(J, s)
			num := mat64.NewVector(3, nil)
			num.SubVec(dF, Js)
			var upd mat64.Dense
			upd.Outer(1/ss, num, s)
			J.Add(J, &upd)
		}

		phases, F = next, Fnext
		if n := mat64.Norm(F, 2); n < bestNorm {
			best, bestNorm = phases, n
		}
	}
	if bestNorm < ps.cst.PhaseTolerance {
		sol.Converged = true
	}

	if !sol.Converged {
		ps.logger.Log("level", "warning", "subsys", "phase", "status", "unconverged", "residual(DU)", bestNorm)
	}
	sol.Phases = best
	return sol
}

// drivingQuantity derives the per-axis quantity ranking which axis drives
// the planar solve: squared velocity difference over twice the position
// difference, offset by the gravity term.
func (ps *PhaseSolver) drivingQuantity(x, v, xT, vT, g float64) float64 {
	dx := xT - x
	if math.Abs(dx) < ps.cst.SOIThreshold/math.Sqrt2 {
		// Axis already at its boundary, it cannot drive.
		return 0
	}
	return (vT*vT-v*v)/(2*dx) - g*x
}

// timeToBoundary forward-simulates the driving axis day-by-day under the
// candidate control law until its position is within axTol of the target
// coordinate, capped at the remaining mission time.
func (ps *PhaseSolver) timeToBoundary(cur, target State, ax Axis, phase, g, umax, remainingDays, axTol float64) float64 {
	x, v := cur.R.Axis(ax), cur.V.Axis(ax)
	xT := target.R.Axis(ax)
	w := math.Sqrt(-g)
	dayTU := ps.cst.DayTU()
	for day := 1.0; day <= remainingDays; day++ {
		tau := (day - 1) * dayTU
		u := umax * signOrZero(math.Cos(w*tau+phase))
		x, v = axisStep(x, v, g, u, dayTU)
		if math.Abs(x-xT) <= axTol {
			return day
		}
	}
	return remainingDays
}

// scanCompanion grid-scans candidate phases for the companion axis and
// returns the one minimizing the terminal-velocity matching residual at the
// estimated final time. The scan is a coarse root approximation, not a true
// root-finder; ties deterministically resolve to the lowest index.
func (ps *PhaseSolver) scanCompanion(cur, target State, ax Axis, g, umax, finalDays float64) float64 {
	vT := target.V.Axis(ax)
	bestPhase, bestResid := 0.0, math.Inf(1)
	for k := 0; k < phaseScanCount; k++ {
		phase := float64(k-phaseScanCount/2) * phaseScanStep
		_, v := ps.simulateAxis(cur.R.Axis(ax), cur.V.Axis(ax), g, umax, phase, finalDays)
		if resid := math.Abs(v - vT); resid < bestResid {
			bestPhase, bestResid = phase, resid
		}
	}
	return bestPhase
}

// simulateAxis integrates one linearized axis day-by-day under the bang-bang
// law to the requested horizon and returns the terminal position and
// velocity.
func (ps *PhaseSolver) simulateAxis(x, v, g, umax, phase, days float64) (float64, float64) {
	w := math.Sqrt(-g)
	dayTU := ps.cst.DayTU()
	for day := 1.0; day <= days; day++ {
		tau := (day - 1) * dayTU
		u := umax * signOrZero(math.Cos(w*tau+phase))
		x, v = axisStep(x, v, g, u, dayTU)
	}
	return x, v
}

// seedJacobian estimates the residual Jacobian by forward finite
// differences.
func (ps *PhaseSolver) seedJacobian(residual func([3]float64) *mat64.Vector, phases [3]float64, F *mat64.Vector) *mat64.Dense {
	J := mat64.NewDense(3, 3, nil)
	for j := 0; j < 3; j++ {
		pert := phases
		pert[j] += jacobianStep
		Fp := residual(pert)
		for i := 0; i < 3; i++ {
			J.Set(i, j, (Fp.At(i, 0)-F.At(i, 0))/jacobianStep)
		}
	}
	return J
}

// spatialSeed grid-scans each axis over a full control period for the phase
// minimizing that axis' terminal position residual. The linearized axes are
// decoupled, so the scans are independent; ties resolve to the lowest index.
func (ps *PhaseSolver) spatialSeed(cur, target State, g, umax, horizon float64) [3]float64 {
	var seed [3]float64
	for _, ax := range []Axis{AxisX, AxisY, AxisZ} {
		xT := target.R.Axis(ax)
		bestResid := math.Inf(1)
		for k := 0; k < spatialScanCount; k++ {
			phase := float64(k-spatialScanCount/2) * phaseScanStep
			x, _ := terminalAxis(cur.R.Axis(ax), cur.V.Axis(ax), g, umax, phase, horizon)
			if resid := math.Abs(x - xT); resid < bestResid {
				seed[ax], bestResid = phase, resid
			}
		}
	}
	return seed
}

// terminalAxis flies one linearized axis under the bang-bang law to the
// horizon (TU), splitting the interval at the exact zeros of the switching
// function. The terminal state therefore varies continuously with the
// phase.
func terminalAxis(x, v, g, umax, phase, horizon float64) (float64, float64) {
	w := math.Sqrt(-g)
	tau := 0.0
	for tau < horizon {
		// Next zero of cos(w*t + phase) strictly after tau.
		k := math.Floor((w*tau+phase-math.Pi/2)/math.Pi) + 1
		next := (math.Pi/2 + k*math.Pi - phase) / w
		if next <= tau {
			next = (math.Pi/2 + (k+1)*math.Pi - phase) / w
		}
		if next > horizon {
			next = horizon
		}
		u := umax * signOrZero(math.Cos(w*(tau+next)/2+phase))
		x, v = axisStep(x, v, g, u, next-tau)
		tau = next
	}
	return x, v
}

// axisStep advances one linearized axis with acceleration g*x + u by h
// canonical time units, u held constant. Exact for the harmonic dynamics of
// a constant negative g.
func axisStep(x, v, g, u, h float64) (float64, float64) {
	w := math.Sqrt(-g)
	xe := -u / g
	s, c := math.Sincos(w * h)
	x1 := xe + (x-xe)*c + (v/w)*s
	v1 := -w*(x-xe)*s + v*c
	return x1, v1
}
