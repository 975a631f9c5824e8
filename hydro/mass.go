package hydro

import (
	"fmt"

	"github.com/gohydro/gohydro/utils"
)

// Space is the narrow view of a finite-element space the mass and force
// operators consume: dof counts, local-to-global maps and basis values at
// quadrature points.
type Space interface {
	NumElements() int
	DofsPerElement() int
	ElementDofs(e int) utils.Index
	NumScalarDofs() int
	Components() int
	QuadShape() utils.Matrix
}

// MassOperator is the matrix-free action of a field's mass matrix. The
// per-element blocks are assembled once from the reference density
// weights: the mass matrix never changes during the run because of
// pointwise mass conservation. Constrained (essential) dofs are zeroed on
// both input and output so the operator is well posed on the
// unconstrained subspace.
type MassOperator struct {
	Sp     Space
	QD     *QuadratureData
	Blocks []utils.Matrix
	Ess    utils.Index

	scratch utils.Vector
	isSetup bool
}

func NewMassOperator(sp Space, qd *QuadratureData) (mo *MassOperator) {
	mo = &MassOperator{
		Sp: sp,
		QD: qd,
	}
	return
}

func (mo *MassOperator) Size() int {
	return mo.Sp.Components() * mo.Sp.NumScalarDofs()
}

// Setup assembles the per-element mass blocks. Idempotent; must be called
// before the first Mult.
func (mo *MassOperator) Setup() {
	if mo.isSetup {
		return
	}
	var (
		NE = mo.Sp.NumElements()
		Np = mo.Sp.DofsPerElement()
		NQ = mo.QD.NQ
		Bq = mo.Sp.QuadShape()
	)
	mo.Blocks = make([]utils.Matrix, NE)
	for e := 0; e < NE; e++ {
		Me := utils.NewMatrix(Np, Np)
		for q := 0; q < NQ; q++ {
			w := mo.QD.Rho0DetJ0W[e*NQ+q]
			for i := 0; i < Np; i++ {
				bi := Bq.At(q, i)
				if bi == 0 {
					continue
				}
				for j := 0; j < Np; j++ {
					Me.Set(i, j, Me.At(i, j)+w*bi*Bq.At(q, j))
				}
			}
		}
		mo.Blocks[e] = Me
	}
	mo.isSetup = true
}

// SetEssentialTrueDofs records the constrained-dof set. The count is
// validated through a global sum: a velocity mass system with no
// constrained dof anywhere is singular in the intended configurations.
func (mo *MassOperator) SetEssentialTrueDofs(dofs utils.Index) {
	partials := []float64{float64(len(dofs))}
	if utils.GlobalSum(partials) == 0 {
		panic(fmt.Errorf("no essential dofs on any rank for %d-component mass operator", mo.Sp.Components()))
	}
	mo.Ess = dofs
}

// Mult computes y = M*x with essential elimination on both sides.
func (mo *MassOperator) Mult(x, y utils.Vector) {
	if !mo.isSetup {
		panic("MassOperator.Mult called before Setup")
	}
	if mo.scratch.V == nil || mo.scratch.Len() != x.Len() {
		mo.scratch = utils.NewVector(x.Len())
	}
	mo.scratch.SetFrom(x)
	if len(mo.Ess) > 0 {
		mo.scratch.AssignScalar(mo.Ess, 0)
	}
	mo.multBlocks(mo.scratch, y)
	if len(mo.Ess) > 0 {
		y.AssignScalar(mo.Ess, 0)
	}
}

func (mo *MassOperator) multBlocks(x, y utils.Vector) {
	var (
		NE      = mo.Sp.NumElements()
		Np      = mo.Sp.DofsPerElement()
		ncomp   = mo.Sp.Components()
		nscalar = mo.Sp.NumScalarDofs()
		xD      = x.Data()
		yD      = y.Data()
		xloc    = make([]float64, Np)
	)
	y.Set(0)
	for e := 0; e < NE; e++ {
		dofs := mo.Sp.ElementDofs(e)
		Me := mo.Blocks[e]
		for d := 0; d < ncomp; d++ {
			off := d * nscalar
			for l, g := range dofs {
				xloc[l] = xD[off+g]
			}
			for i := 0; i < Np; i++ {
				var sum float64
				for j := 0; j < Np; j++ {
					sum += Me.At(i, j) * xloc[j]
				}
				yD[off+dofs[i]] += sum
			}
		}
	}
}

// EliminateRHS zeroes the constrained entries of a right-hand side in
// place, mirroring the elimination applied inside Mult.
func (mo *MassOperator) EliminateRHS(b utils.Vector) {
	if len(mo.Ess) > 0 {
		b.AssignScalar(mo.Ess, 0)
	}
}
