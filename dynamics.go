package mtdesign

import (
	"math"
)

// GravityModel computes the gravity coefficient g such that the
// gravitational acceleration is g * R, plus an optional third-body
// perturbation for the spatial variant.
type GravityModel struct {
	μ          float64         // gravitational parameter of the primary (canonical)
	perturbing *PerturbingBody // nil disables the third-body term
	coneAngle  float64         // alignment cone half-angle (rad)
}

// NewGravityModel returns a two-body gravity model about the primary.
func NewGravityModel(cst Constants) GravityModel {
	// Canonical units put the primary's GM at exactly one.
	return GravityModel{μ: 1, coneAngle: cst.ConeAngle}
}

// NewPerturbedGravityModel returns a gravity model which adds the
// third-body term of the provided perturbing body.
func NewPerturbedGravityModel(cst Constants, body *PerturbingBody) GravityModel {
	g := NewGravityModel(cst)
	g.perturbing = body
	return g
}

// Coeff returns the gravity coefficient at the given heliocentric distance.
// The distance must be strictly positive.
func (gm GravityModel) Coeff(r float64) (float64, error) {
	if r <= 0 {
		return 0, newModelingError(ErrNonPositiveDistance, "r", r)
	}
	return -gm.μ / math.Pow(r, 3), nil
}

// Perturb returns the third-body perturbing acceleration on a spacecraft at
// scR given the perturbing body at bodyR. The perturbation is only computed
// when the two position vectors are aligned within the cone angle; outside
// that cone near-conjunction geometry does not hold and the term is zero.
func (gm GravityModel) Perturb(scR, bodyR Vec3) Vec3 {
	if gm.perturbing == nil {
		return Vec3{}
	}
	cosSep := scR.Dot(bodyR) / (scR.Norm() * bodyR.Norm())
	if math.Acos(math.Min(1, math.Max(-1, cosSep))) > gm.coneAngle {
		return Vec3{}
	}
	diff := bodyR.Sub(scR)
	diff3 := math.Pow(diff.Norm(), 3)
	body3 := math.Pow(bodyR.Norm(), 3)
	// Standard encounter-relative formulation: direct term minus the
	// indirect term on the primary.
	return diff.Scale(gm.perturbing.GM / diff3).Sub(bodyR.Scale(gm.perturbing.GM / body3))
}

// HasPerturbation returns whether a third body is configured.
func (gm GravityModel) HasPerturbation() bool {
	return gm.perturbing != nil
}
