package hydro

import (
	"github.com/gohydro/gohydro/utils"
)

// GradSpace extends Space with reference-gradient tables at quadrature
// points, needed by the force contraction.
type GradSpace interface {
	Space
	QuadGradR() utils.Matrix
	QuadGradS() utils.Matrix
}

// ForceOperator is the matrix-free rectangular force operator F mapping
// the kinematic space into the thermodynamic space. Its action against a
// velocity field yields the energy right-hand side, and its transpose
// against a thermodynamic one-vector yields the (negated) momentum
// right-hand side. The per-point stress data lives in QuadratureData and
// is contracted with the kinematic test-function gradients on the fly.
type ForceOperator struct {
	H1 GradSpace
	L2 Space
	QD *QuadratureData
	PM *utils.PartitionMap

	workE [][]float64 // per-worker L2-sized accumulators
	workV [][]float64 // per-worker H1-vector-sized accumulators
}

func NewForceOperator(h1 GradSpace, l2 Space, qd *QuadratureData, pm *utils.PartitionMap) (fo *ForceOperator) {
	fo = &ForceOperator{
		H1: h1,
		L2: l2,
		QD: qd,
		PM: pm,
	}
	np := pm.ParallelDegree
	fo.workE = make([][]float64, np)
	fo.workV = make([][]float64, np)
	for bn := 0; bn < np; bn++ {
		fo.workE[bn] = make([]float64, l2.NumScalarDofs())
		fo.workV[bn] = make([]float64, h1.Components()*h1.NumScalarDofs())
	}
	return
}

// Mult computes y = F*v: for each thermodynamic dof i,
//
//	y_i = sum_{q,vd,gd} phi_i(q) * StressJinvT[vd](eq, gd) * dv_vd/dr_gd(q)
//
// which is the rate of internal-energy production from the stress working
// against the velocity gradient.
func (fo *ForceOperator) Mult(v, y utils.Vector) {
	var (
		NQ      = fo.QD.NQ
		NpV     = fo.H1.DofsPerElement()
		NpE     = fo.L2.DofsPerElement()
		nscalar = fo.H1.NumScalarDofs()
		Be      = fo.L2.QuadShape()
		DqR     = fo.H1.QuadGradR()
		DqS     = fo.H1.QuadGradS()
		vD      = v.Data()
		yD      = y.Data()
	)
	for bn := range fo.workE {
		buf := fo.workE[bn]
		for i := range buf {
			buf[i] = 0
		}
	}
	fo.PM.RunParallel(func(bn, kMin, kMax int) {
		var (
			buf  = fo.workE[bn]
			vloc = make([]float64, 2*NpV)
			eq   = make([]float64, NQ)
		)
		for e := kMin; e < kMax; e++ {
			dofsV := fo.H1.ElementDofs(e)
			for l, g := range dofsV {
				vloc[l] = vD[g]
				vloc[NpV+l] = vD[nscalar+g]
			}
			for q := 0; q < NQ; q++ {
				row := e*NQ + q
				var sum float64
				for vd := 0; vd < 2; vd++ {
					var dvdr, dvds float64
					off := vd * NpV
					for l := 0; l < NpV; l++ {
						dvdr += DqR.At(q, l) * vloc[off+l]
						dvds += DqS.At(q, l) * vloc[off+l]
					}
					sum += fo.QD.StressJinvT[vd].At(row, 0)*dvdr +
						fo.QD.StressJinvT[vd].At(row, 1)*dvds
				}
				eq[q] = sum
			}
			dofsE := fo.L2.ElementDofs(e)
			for i := 0; i < NpE; i++ {
				var sum float64
				for q := 0; q < NQ; q++ {
					sum += Be.At(q, i) * eq[q]
				}
				buf[dofsE[i]] += sum
			}
		}
	})
	y.Set(0)
	for bn := range fo.workE {
		for i, val := range fo.workE[bn] {
			if val != 0 {
				yD[i] += val
			}
		}
	}
}

// MultTranspose computes y = F^T * w for a thermodynamic field w. Applied
// to the one-vector it yields the nodal force whose negation drives the
// momentum equation.
func (fo *ForceOperator) MultTranspose(w, y utils.Vector) {
	var (
		NQ      = fo.QD.NQ
		NpE     = fo.L2.DofsPerElement()
		nscalar = fo.H1.NumScalarDofs()
		Be      = fo.L2.QuadShape()
		DqR     = fo.H1.QuadGradR()
		DqS     = fo.H1.QuadGradS()
		wD      = w.Data()
		yD      = y.Data()
	)
	for bn := range fo.workV {
		buf := fo.workV[bn]
		for i := range buf {
			buf[i] = 0
		}
	}
	fo.PM.RunParallel(func(bn, kMin, kMax int) {
		var (
			buf = fo.workV[bn]
			wq  = make([]float64, NQ)
		)
		for e := kMin; e < kMax; e++ {
			dofsE := fo.L2.ElementDofs(e)
			for q := 0; q < NQ; q++ {
				var sum float64
				for i := 0; i < NpE; i++ {
					sum += Be.At(q, i) * wD[dofsE[i]]
				}
				wq[q] = sum
			}
			dofsV := fo.H1.ElementDofs(e)
			for l, g := range dofsV {
				var fx, fy float64
				for q := 0; q < NQ; q++ {
					row := e*NQ + q
					gr := DqR.At(q, l) * wq[q]
					gs := DqS.At(q, l) * wq[q]
					fx += fo.QD.StressJinvT[0].At(row, 0)*gr + fo.QD.StressJinvT[0].At(row, 1)*gs
					fy += fo.QD.StressJinvT[1].At(row, 0)*gr + fo.QD.StressJinvT[1].At(row, 1)*gs
				}
				buf[g] += fx
				buf[nscalar+g] += fy
			}
		}
	})
	y.Set(0)
	for bn := range fo.workV {
		for i, val := range fo.workV[bn] {
			if val != 0 {
				yD[i] += val
			}
		}
	}
}
