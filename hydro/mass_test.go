package hydro

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gohydro/gohydro/utils"
)

func TestMassOperator(t *testing.T) {
	var (
		op, _ = buildOperator(t, "uniform", 3, 3, 2, 1)
		mv    = op.Mv
		n     = mv.Size()
		x     = utils.NewVector(n)
		y     = utils.NewVector(n)
		z     = utils.NewVector(n)
	)
	for i := 0; i < n; i++ {
		x.Data()[i] = math.Sin(float64(i))
	}
	// Constrained entries of the output are zero and the input is not
	// modified
	xSaved := x.Copy()
	mv.Mult(x, y)
	for _, ind := range mv.Ess {
		assert.Equalf(t, 0.0, y.AtVec(ind), "constrained dof %d", ind)
	}
	assert.Equal(t, xSaved.Data(), x.Data())
	// Symmetry on the unconstrained subspace
	w := utils.NewVector(n)
	for i := 0; i < n; i++ {
		w.Data()[i] = math.Cos(float64(3 * i))
	}
	mv.Mult(w, z)
	assert.InDelta(t, w.Dot(y), x.Dot(z), 1.e-10*math.Abs(w.Dot(y))+1.e-12)
	// The mass of the unit field is the domain mass: 1^T M 1 = 1 per
	// component for unit density on the unit square, computed without
	// constraints
	ones := utils.NewVector(n).Set(1)
	mv.multBlocks(ones, y)
	assert.InDelta(t, 2.0, ones.Dot(y), 1.e-12)
	// EliminateRHS zeroes exactly the constrained entries
	b := utils.NewVector(n).Set(5)
	mv.EliminateRHS(b)
	for i := 0; i < n; i++ {
		if mv.Ess.Contains(i) {
			assert.Equal(t, 0.0, b.AtVec(i))
		} else {
			assert.Equal(t, 5.0, b.AtVec(i))
		}
	}
	// A velocity mass system with no constrained dofs anywhere is
	// rejected
	assert.Panics(t, func() {
		mv.SetEssentialTrueDofs(utils.Index{})
	})
	// The energy mass operator carries no constraints and accepts any
	// right-hand side unchanged
	me := op.Me
	be := utils.NewVector(me.Size()).Set(2)
	me.EliminateRHS(be)
	assert.Equal(t, 2.0, be.Min())
}

func TestMassSetupIdempotent(t *testing.T) {
	var (
		op, _ = buildOperator(t, "uniform", 2, 2, 2, 1)
		mv    = op.Mv
	)
	blocks := mv.Blocks
	mv.Setup()
	assert.Equal(t, len(blocks), len(mv.Blocks))
	for e := range blocks {
		assert.Equal(t, blocks[e].Data(), mv.Blocks[e].Data())
	}
}
