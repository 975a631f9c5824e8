package hydro

import (
	"math"

	"github.com/gohydro/gohydro/utils"
)

// QuadratureData holds the per (element, quadrature point) physical
// quantities the hydro operator derives from the current state. The
// reference-weighted density Rho0DetJ0W is fixed at setup: pointwise
// Lagrangian mass conservation means rho(t)*detJ(t) = rho0*detJ0, so it
// is only ever read. The stress and time-step entries are recomputed on
// every evaluation and snapshotted for rollback of rejected steps.
type QuadratureData struct {
	NE, NQ int
	Dim    int

	Rho0DetJ0W []float64 // rho0 * detJ0 * w, immutable after setup
	DetJ0      []float64 // initial Jacobian determinants, immutable

	// StressJinvT[d] is (NE*NQ x dim): row eq holds the d-th row of
	// stress * Jinv^T * detJ * w.
	StressJinvT [2]utils.Matrix

	DtEst     float64   // global minimum, accumulated across evaluations
	DtEstElem []float64 // per-element local minima from the last update

	H0 float64 // initial characteristic length

	snapStress [2]utils.Matrix
	snapDtEst  float64
	snapDtElem []float64
	hasSnap    bool
}

func NewQuadratureData(NE, NQ int) (qd *QuadratureData) {
	qd = &QuadratureData{
		NE:         NE,
		NQ:         NQ,
		Dim:        2,
		Rho0DetJ0W: make([]float64, NE*NQ),
		DetJ0:      make([]float64, NE*NQ),
		DtEstElem:  make([]float64, NE),
		DtEst:      math.Inf(1),
	}
	for d := 0; d < qd.Dim; d++ {
		qd.StressJinvT[d] = utils.NewMatrix(NE*NQ, qd.Dim)
		qd.snapStress[d] = utils.NewMatrix(NE*NQ, qd.Dim)
	}
	qd.snapDtElem = make([]float64, NE)
	return
}

// Snapshot saves the mutable quadrature state so a rejected step can be
// rolled back together with the state vector.
func (qd *QuadratureData) Snapshot() {
	for d := 0; d < qd.Dim; d++ {
		copy(qd.snapStress[d].Data(), qd.StressJinvT[d].Data())
	}
	copy(qd.snapDtElem, qd.DtEstElem)
	qd.snapDtEst = qd.DtEst
	qd.hasSnap = true
}

// Restore rolls the mutable quadrature state back to the last snapshot.
func (qd *QuadratureData) Restore() {
	if !qd.hasSnap {
		return
	}
	for d := 0; d < qd.Dim; d++ {
		copy(qd.StressJinvT[d].Data(), qd.snapStress[d].Data())
	}
	copy(qd.DtEstElem, qd.snapDtElem)
	qd.DtEst = qd.snapDtEst
}
