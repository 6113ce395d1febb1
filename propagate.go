package mtdesign

import (
	"github.com/ChristopherRabotin/ode"
)

// Propagator advances a State by exactly one day-step under a constant
// gravity coefficient and a constant external control acceleration. Both
// stay frozen across the step: the phase solver linearizes about a frozen
// acceleration field, and a refresh only happens at relinearization.
type Propagator struct {
	stepTU   float64 // one day in canonical time units
	substeps int
}

// NewPropagator returns a day-step propagator. The day is subdivided into
// cst.StepsPerDay RK4 substeps, which keeps the relative error of the
// two-body cases below 1e-7 per step.
func NewPropagator(cst Constants) *Propagator {
	if cst.StepsPerDay <= 0 {
		panic("config StepsPerDay must be positive")
	}
	return &Propagator{stepTU: cst.DayTU(), substeps: cst.StepsPerDay}
}

// Step advances s by one day under gravity coefficient g and the external
// acceleration ext (control plus any perturbation). Pass a zero ext for
// ballistic propagation.
func (p *Propagator) Step(s State, g float64, ext Vec3) State {
	integ := &dayIntegrable{
		s:        []float64{s.R.X, s.R.Y, s.R.Z, s.V.X, s.V.Y, s.V.Z},
		g:        g,
		ext:      ext,
		maxSteps: p.substeps,
	}
	ode.NewRK4(0, p.stepTU/float64(p.substeps), integ).Solve()
	return State{
		R: Vec3{integ.s[0], integ.s[1], integ.s[2]},
		V: Vec3{integ.s[3], integ.s[4], integ.s[5]},
	}
}

// dayIntegrable integrates the frozen-field equations of motion over one day.
type dayIntegrable struct {
	s        []float64
	g        float64
	ext      Vec3
	steps    int
	maxSteps int
}

// GetState implements the ode.Integrable interface.
func (d *dayIntegrable) GetState() []float64 {
	return d.s
}

// SetState implements the ode.Integrable interface.
func (d *dayIntegrable) SetState(t float64, s []float64) {
	d.s = s
	d.steps++
}

// Stop implements the ode.Integrable interface.
func (d *dayIntegrable) Stop(t float64) bool {
	return d.steps >= d.maxSteps
}

// Func implements the ode.Integrable interface.
func (d *dayIntegrable) Func(t float64, f []float64) []float64 {
	return []float64{
		f[3],
		f[4],
		f[5],
		d.g*f[0] + d.ext.X,
		d.g*f[1] + d.ext.Y,
		d.g*f[2] + d.ext.Z,
	}
}
