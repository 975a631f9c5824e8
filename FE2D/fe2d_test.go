package FE2D

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gohydro/gohydro/utils"
)

func TestQuadratureRules(t *testing.T) {
	// Gauss rule with n points integrates monomials up to degree 2n-1
	{
		R, W := JacobiGQ(0, 0, 3) // 4 points
		for deg := 0; deg <= 7; deg++ {
			var sum float64
			for i := 0; i < R.Len(); i++ {
				sum += W.AtVec(i) * math.Pow(R.AtVec(i), float64(deg))
			}
			exact := 0.0
			if deg%2 == 0 {
				exact = 2.0 / float64(deg+1)
			}
			assert.InDeltaf(t, exact, sum, 1.e-12, "degree %d", deg)
		}
	}
	// Gauss-Lobatto points include the endpoints and are symmetric
	{
		R := JacobiGL(0, 0, 4)
		assert.InDelta(t, -1.0, R.AtVec(0), 1.e-14)
		assert.InDelta(t, 1.0, R.AtVec(4), 1.e-14)
		for i := 0; i < R.Len(); i++ {
			assert.InDelta(t, R.AtVec(i), -R.AtVec(R.Len()-1-i), 1.e-12)
		}
	}
	// Tensor-product weights sum to the reference area
	{
		qr := NewQuadRule2D(3)
		var sum float64
		for _, w := range qr.Wq {
			sum += w
		}
		assert.InDelta(t, 4.0, sum, 1.e-12)
	}
}

func TestLineBasis(t *testing.T) {
	var (
		P     = 3
		nodes = JacobiGL(0, 0, P)
		lb    = NewLineBasis(P, nodes)
	)
	// Interpolation at the nodes themselves is the identity
	{
		eye := utils.NewMatrix(P+1, P+1)
		for i := 0; i <= P; i++ {
			eye.Set(i, i, 1)
		}
		assert.Less(t, eye.Subtract(lb.InterpMatrix(nodes)).Apply(math.Abs).Max(), 1.e-12)
	}
	// Partition of unity and zero gradient sum at arbitrary points
	{
		pts, _ := JacobiGQ(0, 0, P+2)
		I := lb.InterpMatrix(pts)
		D := lb.DerivMatrix(pts)
		for q := 0; q < pts.Len(); q++ {
			var sumI, sumD float64
			for j := 0; j <= P; j++ {
				sumI += I.At(q, j)
				sumD += D.At(q, j)
			}
			assert.InDeltaf(t, 1.0, sumI, 1.e-12, "interp row %d", q)
			assert.InDeltaf(t, 0.0, sumD, 1.e-11, "deriv row %d", q)
		}
	}
	// The derivative table differentiates polynomials exactly
	{
		pts, _ := JacobiGQ(0, 0, P+2)
		D := lb.DerivMatrix(pts)
		for q := 0; q < pts.Len(); q++ {
			var dq float64
			for j := 0; j <= P; j++ {
				rj := nodes.AtVec(j)
				dq += D.At(q, j) * (rj * rj * rj)
			}
			rq := pts.AtVec(q)
			assert.InDeltaf(t, 3*rq*rq, dq, 1.e-11, "cubic at point %d", q)
		}
	}
}

func TestMeshConnectivity(t *testing.T) {
	var (
		msh = NewCartesianMesh(4, 3, 2.0, 1.5)
	)
	assert.Equal(t, 12, msh.K)
	// Interior neighbors are symmetric
	for e := 0; e < msh.K; e++ {
		for f := 0; f < 4; f++ {
			e2 := msh.EToE[e][f]
			if e2 == -1 {
				continue
			}
			f2 := msh.EToF[e][f]
			assert.Equalf(t, e, msh.EToE[e2][f2], "element %d face %d", e, f)
			assert.Equalf(t, f, msh.EToF[e2][f2], "element %d face %d", e, f)
		}
	}
	// Exactly the perimeter faces are boundary faces
	assert.Equal(t, 2*(4+3), len(msh.BFaces))
	for _, bf := range msh.BFaces {
		d := msh.FaceNormalDir(bf[0], bf[1])
		assert.Contains(t, []int{0, 1}, d)
	}
	// Element size is the shortest edge
	assert.InDelta(t, 0.5, msh.ElementSize(0), 1.e-14)
}

func TestSpaces(t *testing.T) {
	var (
		msh = NewCartesianMesh(3, 2, 1.0, 1.0)
		qr  = NewQuadRule2D(4)
		h1  = NewH1Space(msh, 2, qr)
		l2  = NewL2Space(msh, 1, qr)
	)
	// Continuous space shares nodes between neighboring elements
	{
		assert.Equal(t, 7*5, h1.Nnodes)
		right := h1.ElementDofs(0)
		left := h1.ElementDofs(1)
		for n := 0; n < h1.Np1; n++ {
			assert.Equal(t, right[h1.Np1-1+h1.Np1*n], left[h1.Np1*n])
		}
	}
	// Basis rows form a partition of unity, gradients sum to zero
	{
		for q := 0; q < qr.NQ; q++ {
			var sumB, sumR, sumS float64
			for l := 0; l < h1.Np; l++ {
				sumB += h1.Bq.At(q, l)
				sumR += h1.DqR.At(q, l)
				sumS += h1.DqS.At(q, l)
			}
			assert.InDeltaf(t, 1.0, sumB, 1.e-12, "basis row %d", q)
			assert.InDeltaf(t, 0.0, sumR, 1.e-11, "r-gradient row %d", q)
			assert.InDeltaf(t, 0.0, sumS, 1.e-11, "s-gradient row %d", q)
		}
	}
	// Discontinuous dofs are element-contiguous and never shared
	{
		assert.Equal(t, msh.K*4, l2.Ndofs)
		seen := make(map[int]bool)
		for e := 0; e < msh.K; e++ {
			for _, g := range l2.ElementDofs(e) {
				assert.False(t, seen[g])
				seen[g] = true
			}
		}
	}
	// Essential set constrains the normal component on each straight side
	{
		ess := h1.EssentialVDofs()
		assert.Equal(t, 2*h1.NnodesY+2*h1.NnodesX, len(ess))
		for i := 1; i < len(ess); i++ {
			assert.Less(t, ess[i-1], ess[i])
		}
	}
	// The quadrature tables are frozen after construction
	{
		assert.Panics(t, func() {
			h1.Bq.Set(0, 0, 0)
		})
		assert.Panics(t, func() {
			l2.Bq.Set(0, 0, 0)
		})
	}
	// Initial node coordinates reproduce the Cartesian geometry
	{
		x := h1.NodeCoords()
		xD := x.Data()
		assert.InDelta(t, 0.0, x.Min(), 1.e-14)
		assert.InDelta(t, 1.0, x.Max(), 1.e-14)
		// Corner node of element 0 sits at the origin
		g := h1.ElementDofs(0)[0]
		assert.InDelta(t, 0.0, xD[g], 1.e-14)
		assert.InDelta(t, 0.0, xD[h1.Nnodes+g], 1.e-14)
	}
}
