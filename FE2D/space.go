package FE2D

import (
	"fmt"
	"sort"

	"github.com/gohydro/gohydro/utils"
)

// QuadRule2D is a tensor-product Gauss-Legendre rule on [-1,1]^2.
type QuadRule2D struct {
	NQ1 int          // Points per direction
	NQ  int          // Total points, NQ1^2
	R1  utils.Vector // 1D point locations
	W1  utils.Vector // 1D weights
	Wq  []float64    // Tensor-product weights, q = a + NQ1*b
}

func NewQuadRule2D(NQ1 int) (qr *QuadRule2D) {
	var (
		R1, W1 = JacobiGQ(0, 0, NQ1-1)
		NQ     = NQ1 * NQ1
		wq     = make([]float64, NQ)
	)
	for b := 0; b < NQ1; b++ {
		for a := 0; a < NQ1; a++ {
			wq[a+NQ1*b] = W1.AtVec(a) * W1.AtVec(b)
		}
	}
	qr = &QuadRule2D{
		NQ1: NQ1,
		NQ:  NQ,
		R1:  R1,
		W1:  W1,
		Wq:  wq,
	}
	return
}

// H1Space is a continuous tensor-product Lagrange space of degree P on
// Gauss-Lobatto nodes over a Cartesian quad mesh, used for the kinematic
// fields (positions and velocity, two components per node).
type H1Space struct {
	P        int
	Msh      *Mesh2D
	QR       *QuadRule2D
	Np1      int // Nodes per direction per element, P+1
	Np       int // Nodes per element, Np1^2
	NnodesX  int // Global node grid dimensions
	NnodesY  int
	Nnodes   int // Global scalar dofs
	NodesR   utils.Vector // 1D Gauss-Lobatto node locations
	Bq       utils.Matrix // (NQ x Np) basis values at quadrature points
	DqR, DqS utils.Matrix // (NQ x Np) reference gradients at quadrature points
	edofs    []utils.Index
}

func NewH1Space(msh *Mesh2D, P int, qr *QuadRule2D) (sp *H1Space) {
	if P < 1 {
		panic(fmt.Errorf("kinematic order must be at least 1, got %d", P))
	}
	var (
		Np1     = P + 1
		Np      = Np1 * Np1
		NnodesX = msh.Nx*P + 1
		NnodesY = msh.Ny*P + 1
		nodesR  = JacobiGL(0, 0, P)
		lb      = NewLineBasis(P, nodesR)
		I1      = lb.InterpMatrix(qr.R1)
		D1      = lb.DerivMatrix(qr.R1)
	)
	sp = &H1Space{
		P:       P,
		Msh:     msh,
		QR:      qr,
		Np1:     Np1,
		Np:      Np,
		NnodesX: NnodesX,
		NnodesY: NnodesY,
		Nnodes:  NnodesX * NnodesY,
		NodesR:  nodesR,
		Bq:      tensorTable(I1, I1, qr.NQ1, Np1),
		DqR:     tensorTable(D1, I1, qr.NQ1, Np1),
		DqS:     tensorTable(I1, D1, qr.NQ1, Np1),
	}
	sp.Bq.SetReadOnly("Bq")
	sp.DqR.SetReadOnly("DqR")
	sp.DqS.SetReadOnly("DqS")
	sp.edofs = make([]utils.Index, msh.K)
	for e := 0; e < msh.K; e++ {
		sp.edofs[e] = sp.buildElementDofs(e)
	}
	return
}

// tensorTable assembles the 2D table T(q,l) = A(a,m)*B(b,n) with
// q = a + NQ1*b and l = m + Np1*n.
func tensorTable(A, B utils.Matrix, NQ1, Np1 int) (T utils.Matrix) {
	T = utils.NewMatrix(NQ1*NQ1, Np1*Np1)
	for b := 0; b < NQ1; b++ {
		for a := 0; a < NQ1; a++ {
			q := a + NQ1*b
			for n := 0; n < Np1; n++ {
				for m := 0; m < Np1; m++ {
					l := m + Np1*n
					T.Set(q, l, A.At(a, m)*B.At(b, n))
				}
			}
		}
	}
	return
}

func (sp *H1Space) buildElementDofs(e int) (dofs utils.Index) {
	var (
		ei = e % sp.Msh.Nx
		ej = e / sp.Msh.Nx
	)
	dofs = utils.NewIndex(sp.Np)
	for n := 0; n < sp.Np1; n++ {
		for m := 0; m < sp.Np1; m++ {
			gi := ei*sp.P + m
			gj := ej*sp.P + n
			dofs[m+sp.Np1*n] = gi + sp.NnodesX*gj
		}
	}
	return
}

func (sp *H1Space) NumElements() int             { return sp.Msh.K }
func (sp *H1Space) DofsPerElement() int          { return sp.Np }
func (sp *H1Space) ElementDofs(e int) utils.Index { return sp.edofs[e] }
func (sp *H1Space) NumScalarDofs() int           { return sp.Nnodes }
func (sp *H1Space) Components() int              { return 2 }
func (sp *H1Space) QuadShape() utils.Matrix      { return sp.Bq }
func (sp *H1Space) QuadGradR() utils.Matrix      { return sp.DqR }
func (sp *H1Space) QuadGradS() utils.Matrix      { return sp.DqS }

// NumVDofs is the length of a kinematic field vector: component-major,
// all x values then all y values.
func (sp *H1Space) NumVDofs() int { return 2 * sp.Nnodes }

// VDof maps (component, scalar node) to an index into a kinematic vector.
func (sp *H1Space) VDof(d, node int) int { return d*sp.Nnodes + node }

// NodeCoords returns the initial mesh node positions as a kinematic
// vector (the isoparametric geometry of the undeformed Cartesian mesh).
func (sp *H1Space) NodeCoords() (x utils.Vector) {
	var (
		msh  = sp.Msh
		dx   = msh.Lx / float64(msh.Nx)
		dy   = msh.Ly / float64(msh.Ny)
		data = make([]float64, 2*sp.Nnodes)
	)
	for e := 0; e < msh.K; e++ {
		ei := e % msh.Nx
		ej := e / msh.Nx
		dofs := sp.edofs[e]
		for n := 0; n < sp.Np1; n++ {
			for m := 0; m < sp.Np1; m++ {
				g := dofs[m+sp.Np1*n]
				data[g] = (float64(ei) + 0.5*(sp.NodesR.AtVec(m)+1)) * dx
				data[sp.Nnodes+g] = (float64(ej) + 0.5*(sp.NodesR.AtVec(n)+1)) * dy
			}
		}
	}
	x = utils.NewVector(2*sp.Nnodes, data)
	return
}

// EssentialVDofs collects the velocity dofs constrained by v.n = 0 on the
// straight domain boundary: the x component on x-normal boundaries, the y
// component on y-normal boundaries. The returned set is sorted.
func (sp *H1Space) EssentialVDofs() (ess utils.Index) {
	var xNodes, yNodes utils.Index
	for gj := 0; gj < sp.NnodesY; gj++ {
		for gi := 0; gi < sp.NnodesX; gi++ {
			g := gi + sp.NnodesX*gj
			if gi == 0 || gi == sp.NnodesX-1 {
				xNodes = append(xNodes, g)
			}
			if gj == 0 || gj == sp.NnodesY-1 {
				yNodes = append(yNodes, g)
			}
		}
	}
	// The x component of node g lives at g, the y component at g+Nnodes.
	ess = append(xNodes, yNodes.Add(sp.Nnodes)...)
	sort.Ints(ess)
	return
}

// L2Space is a discontinuous tensor-product Lagrange space of degree P on
// Gauss nodes, used for the thermodynamic field (specific internal energy).
type L2Space struct {
	P      int
	Msh    *Mesh2D
	QR     *QuadRule2D
	Np1    int
	Np     int
	Ndofs  int
	NodesR utils.Vector
	Bq     utils.Matrix // (NQ x Np) basis values at quadrature points
}

func NewL2Space(msh *Mesh2D, P int, qr *QuadRule2D) (sp *L2Space) {
	if P < 0 {
		panic(fmt.Errorf("thermodynamic order must be non-negative, got %d", P))
	}
	var (
		Np1       = P + 1
		Np        = Np1 * Np1
		nodesR, _ = JacobiGQ(0, 0, P)
		lb        = NewLineBasis(P, nodesR)
		I1        = lb.InterpMatrix(qr.R1)
	)
	sp = &L2Space{
		P:      P,
		Msh:    msh,
		QR:     qr,
		Np1:    Np1,
		Np:     Np,
		Ndofs:  msh.K * Np,
		NodesR: nodesR,
		Bq:     tensorTable(I1, I1, qr.NQ1, Np1),
	}
	sp.Bq.SetReadOnly("Bq")
	return
}

func (sp *L2Space) NumElements() int    { return sp.Msh.K }
func (sp *L2Space) DofsPerElement() int { return sp.Np }
func (sp *L2Space) ElementDofs(e int) (dofs utils.Index) {
	dofs = utils.NewRange(e*sp.Np, (e+1)*sp.Np-1)
	return
}
func (sp *L2Space) NumScalarDofs() int      { return sp.Ndofs }
func (sp *L2Space) Components() int         { return 1 }
func (sp *L2Space) QuadShape() utils.Matrix { return sp.Bq }

// NodeCoordsRef returns the reference coordinates (r,s) of the nodal
// points of element-local dof l.
func (sp *L2Space) NodeCoordsRef(l int) (r, s float64) {
	m := l % sp.Np1
	n := l / sp.Np1
	return sp.NodesR.AtVec(m), sp.NodesR.AtVec(n)
}
