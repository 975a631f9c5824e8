package hydro

import (
	"fmt"
	"math"

	"github.com/gohydro/gohydro/FE2D"
	"github.com/gohydro/gohydro/utils"
)

// Options collects the tunable scalar parameters of the hydro operator.
type Options struct {
	CFL            float64
	Q1, Q2         float64 // Linear and quadratic artificial-viscosity scales
	StabilityScale float64 // Multiplies the viscous term of the dt bound
	CGTol          float64
	CGMaxIter      int
}

func DefaultOptions() Options {
	return Options{
		CFL:            0.5,
		Q1:             0.5,
		Q2:             2.0,
		StabilityScale: 1.0,
		CGTol:          1.e-8,
		CGMaxIter:      300,
	}
}

// LagrangianHydroOperator evaluates the semi-discrete right-hand side of
// the Lagrangian conservation laws on the moving mesh. The state vector S
// is laid out [x | v | e]: kinematic positions and velocity
// (component-major over the continuous space) followed by the
// discontinuous specific internal energy.
type LagrangianHydroOperator struct {
	H1   *FE2D.H1Space
	L2   *FE2D.L2Space
	Msh  *FE2D.Mesh2D
	QD   *QuadratureData
	Frc  *ForceOperator
	Mv   *MassOperator
	Me   *MassOperator
	PM   *utils.PartitionMap
	Prob *Problem
	Opt  Options

	GammaE []float64 // per-element material gamma

	time           float64
	qdataIsCurrent bool

	// Views into the last synced state
	x, v, e utils.Vector

	onesE      utils.Vector
	rhsV, rhsE utils.Vector
	keScratch  utils.Vector
}

func NewLagrangianHydroOperator(prob *Problem, h1 *FE2D.H1Space, l2 *FE2D.L2Space,
	pm *utils.PartitionMap, opt Options) (op *LagrangianHydroOperator) {
	var (
		msh = h1.Msh
		NQ  = h1.QR.NQ
		qd  = NewQuadratureData(msh.K, NQ)
	)
	op = &LagrangianHydroOperator{
		H1:     h1,
		L2:     l2,
		Msh:    msh,
		QD:     qd,
		PM:     pm,
		Prob:   prob,
		Opt:    opt,
		GammaE: make([]float64, msh.K),
		onesE:  utils.NewVector(l2.Ndofs).Set(1),
		rhsV:   utils.NewVector(h1.NumVDofs()),
		rhsE:   utils.NewVector(l2.Ndofs),
	}
	op.initReferenceData()
	op.Frc = NewForceOperator(h1, l2, qd, pm)
	op.Mv = NewMassOperator(h1, qd)
	op.Mv.Setup()
	op.Mv.SetEssentialTrueDofs(h1.EssentialVDofs())
	op.Me = NewMassOperator(l2, qd)
	op.Me.Setup()
	return
}

// initReferenceData fixes the immutable reference quantities: the
// mass-conserving weights rho0*detJ0*w, the initial Jacobian
// determinants, the characteristic length and the per-element gamma.
func (op *LagrangianHydroOperator) initReferenceData() {
	var (
		h1   = op.H1
		msh  = op.Msh
		NQ   = h1.QR.NQ
		NpV  = h1.Np
		x0   = h1.NodeCoords()
		x0D  = x0.Data()
		hMin = math.Inf(1)
	)
	for e := 0; e < msh.K; e++ {
		dofs := h1.ElementDofs(e)
		for q := 0; q < NQ; q++ {
			var J [2][2]float64
			var xq, yq float64
			for l := 0; l < NpV; l++ {
				g := dofs[l]
				px, py := x0D[g], x0D[h1.Nnodes+g]
				dr := h1.DqR.At(q, l)
				ds := h1.DqS.At(q, l)
				J[0][0] += dr * px
				J[0][1] += ds * px
				J[1][0] += dr * py
				J[1][1] += ds * py
				b := h1.Bq.At(q, l)
				xq += b * px
				yq += b * py
			}
			detJ0 := J[0][0]*J[1][1] - J[0][1]*J[1][0]
			if detJ0 <= 0 {
				panic(fmt.Errorf("non-positive initial Jacobian in element %d", e))
			}
			eq := e*NQ + q
			op.QD.DetJ0[eq] = detJ0
			op.QD.Rho0DetJ0W[eq] = op.Prob.Rho0([2]float64{xq, yq}) * detJ0 * h1.QR.Wq[q]
		}
		if h := msh.ElementSize(e); h < hMin {
			hMin = h
		}
		// Per-element gamma sampled at the element centroid
		var cx, cy float64
		for _, vtx := range msh.EToV[e] {
			cx += msh.VX.AtVec(vtx)
			cy += msh.VY.AtVec(vtx)
		}
		op.GammaE[e] = op.Prob.Gamma([2]float64{cx / 4, cy / 4})
	}
	op.QD.H0 = hMin / float64(op.H1.P)
}

// StateSize is the length of the packed state vector [x | v | e].
func (op *LagrangianHydroOperator) StateSize() int {
	return 2*op.H1.NumVDofs() + op.L2.Ndofs
}

// SplitState returns shared-storage views of the position, velocity and
// energy blocks of a packed state vector.
func (op *LagrangianHydroOperator) SplitState(S utils.Vector) (x, v, e utils.Vector) {
	nv := op.H1.NumVDofs()
	x = S.Slice(0, nv)
	v = S.Slice(nv, 2*nv)
	e = S.Slice(2*nv, 2*nv+op.L2.Ndofs)
	return
}

// InitialState samples the problem's initial conditions into a fresh
// packed state vector.
func (op *LagrangianHydroOperator) InitialState() (S utils.Vector) {
	S = utils.NewVector(op.StateSize())
	x, v, e := op.SplitState(S)
	x.SetFrom(op.H1.NodeCoords())
	var (
		xD = x.Data()
		vD = v.Data()
		eD = e.Data()
		N  = op.H1.Nnodes
	)
	for g := 0; g < N; g++ {
		vel := op.Prob.V0([2]float64{xD[g], xD[N+g]})
		vD[g] = vel[0]
		vD[N+g] = vel[1]
	}
	var (
		msh = op.Msh
		dx  = msh.Lx / float64(msh.Nx)
		dy  = msh.Ly / float64(msh.Ny)
	)
	for el := 0; el < msh.K; el++ {
		ei := el % msh.Nx
		ej := el / msh.Nx
		dofs := op.L2.ElementDofs(el)
		for l, g := range dofs {
			r, s := op.L2.NodeCoordsRef(l)
			px := (float64(ei) + 0.5*(r+1)) * dx
			py := (float64(ej) + 0.5*(s+1)) * dy
			eD[g] = op.Prob.E0([2]float64{px, py})
		}
	}
	return
}

// SetTime fixes the time at which the energy source term is sampled.
func (op *LagrangianHydroOperator) SetTime(t float64) { op.time = t }

func (op *LagrangianHydroOperator) sync(S utils.Vector) {
	op.x, op.v, op.e = op.SplitState(S)
	op.qdataIsCurrent = false
}

// Mult evaluates dS/dt for the current state: dx/dt = v, then the
// velocity and energy mass systems are solved against the matrix-free
// force right-hand sides.
func (op *LagrangianHydroOperator) Mult(S, dSdt utils.Vector) {
	op.sync(S)
	op.UpdateQuadratureData()
	dx, dv, de := op.SplitState(dSdt)
	dx.SetFrom(op.v)
	op.solveVelocity(dv)
	op.solveEnergy(de)
}

func (op *LagrangianHydroOperator) solveVelocity(dv utils.Vector) {
	op.Frc.MultTranspose(op.onesE, op.rhsV)
	op.rhsV.Scale(-1)
	op.Mv.EliminateRHS(op.rhsV)
	dv.Set(0)
	utils.ConjugateGradient(op.Mv, op.rhsV, dv, op.Opt.CGTol, op.Opt.CGMaxIter)
}

func (op *LagrangianHydroOperator) solveEnergy(de utils.Vector) {
	op.Frc.Mult(op.v, op.rhsE)
	if op.Prob.Source != nil {
		op.addEnergySource(op.rhsE)
	}
	de.Set(0)
	utils.ConjugateGradient(op.Me, op.rhsE, de, op.Opt.CGTol, op.Opt.CGMaxIter)
}

// addEnergySource integrates the problem's energy source rate against the
// thermodynamic test functions with the reference density weighting.
func (op *LagrangianHydroOperator) addEnergySource(rhs utils.Vector) {
	var (
		h1   = op.H1
		l2   = op.L2
		NQ   = h1.QR.NQ
		xD   = op.x.Data()
		rhsD = rhs.Data()
	)
	for el := 0; el < op.Msh.K; el++ {
		dofsV := h1.ElementDofs(el)
		dofsE := l2.ElementDofs(el)
		for q := 0; q < NQ; q++ {
			var xq, yq float64
			for l, g := range dofsV {
				b := h1.Bq.At(q, l)
				xq += b * xD[g]
				yq += b * xD[h1.Nnodes+g]
			}
			sq := op.Prob.Source([2]float64{xq, yq}, op.time) * op.QD.Rho0DetJ0W[el*NQ+q]
			for i, g := range dofsE {
				rhsD[g] += l2.Bq.At(q, i) * sq
			}
		}
	}
}

// UpdateQuadratureData recomputes the pointwise stress and time-step
// bounds from the synced state. Elements are processed in parallel over
// the partition map; each worker writes only its own elements' rows and
// contributes a partial minimum to the global reduction.
func (op *LagrangianHydroOperator) UpdateQuadratureData() {
	if op.qdataIsCurrent {
		return
	}
	var (
		h1       = op.H1
		l2       = op.L2
		qd       = op.QD
		NQ       = qd.NQ
		xD       = op.x.Data()
		vD       = op.v.Data()
		eD       = op.e.Data()
		N        = h1.Nnodes
		partials = make([]float64, op.PM.ParallelDegree)
	)
	op.PM.RunParallel(func(bn, kMin, kMax int) {
		dtMin := math.Inf(1)
		for el := kMin; el < kMax; el++ {
			dofsV := h1.ElementDofs(el)
			dofsE := l2.ElementDofs(el)
			elMin := math.Inf(1)
			for q := 0; q < NQ; q++ {
				eq := el*NQ + q
				var J, G [2][2]float64 // position and velocity reference gradients
				for l, g := range dofsV {
					dr := h1.DqR.At(q, l)
					ds := h1.DqS.At(q, l)
					px, py := xD[g], xD[N+g]
					vx, vy := vD[g], vD[N+g]
					J[0][0] += dr * px
					J[0][1] += ds * px
					J[1][0] += dr * py
					J[1][1] += ds * py
					G[0][0] += dr * vx
					G[0][1] += ds * vx
					G[1][0] += dr * vy
					G[1][1] += ds * vy
				}
				detJ := J[0][0]*J[1][1] - J[0][1]*J[1][0]
				if detJ <= 0 {
					panic(fmt.Errorf("mesh inversion: detJ = %v in element %d", detJ, el))
				}
				// Jinv = adj(J)/detJ
				inv := 1.0 / detJ
				Ji := [2][2]float64{
					{J[1][1] * inv, -J[0][1] * inv},
					{-J[1][0] * inv, J[0][0] * inv},
				}
				// Physical velocity gradient dv_i/dx_j = G * Jinv
				var gv [2][2]float64
				for i := 0; i < 2; i++ {
					for j := 0; j < 2; j++ {
						gv[i][j] = G[i][0]*Ji[0][j] + G[i][1]*Ji[1][j]
					}
				}
				w := h1.QR.Wq[q]
				rho := qd.Rho0DetJ0W[eq] / (detJ * w)
				var eVal float64
				for i, g := range dofsE {
					eVal += l2.Bq.At(q, i) * eD[g]
				}
				if eVal < 0 {
					eVal = 0
				}
				gamma := op.GammaE[el]
				p := (gamma - 1) * rho * eVal
				c := math.Sqrt(gamma * p / rho)
				utils.IsFinitePanic("pressure/sound speed", rho, p, c)

				stress := [2][2]float64{{-p, 0}, {0, -p}}
				h := qd.H0 * math.Sqrt(detJ/qd.DetJ0[eq])
				mu := gv[0][0] + gv[1][1]
				var visc float64
				if op.Prob.UseViscosity && mu < 0 {
					visc = op.Opt.Q2*rho*h*h*math.Abs(mu) + op.Opt.Q1*rho*c*h
					// Symmetrized velocity gradient scaled by the
					// viscosity coefficient
					sym01 := 0.5 * (gv[0][1] + gv[1][0])
					stress[0][0] += visc * gv[0][0]
					stress[0][1] += visc * sym01
					stress[1][0] += visc * sym01
					stress[1][1] += visc * gv[1][1]
				}
				// StressJinvT rows hold stress * Jinv^T * detJ * w;
				// Jinv^T * detJ is the transposed adjugate of J.
				adjT := [2][2]float64{
					{J[1][1], -J[1][0]},
					{-J[0][1], J[0][0]},
				}
				for vd := 0; vd < 2; vd++ {
					qd.StressJinvT[vd].Set(eq, 0, (stress[vd][0]*adjT[0][0]+stress[vd][1]*adjT[1][0])*w)
					qd.StressJinvT[vd].Set(eq, 1, (stress[vd][0]*adjT[0][1]+stress[vd][1]*adjT[1][1])*w)
				}
				den := c/h + 2.5*op.Opt.StabilityScale*visc/(rho*h*h)
				if den > 0 {
					if dtLoc := op.Opt.CFL / den; dtLoc < elMin {
						elMin = dtLoc
					}
				}
			}
			qd.DtEstElem[el] = elMin
			if elMin < dtMin {
				dtMin = elMin
			}
		}
		partials[bn] = dtMin
	})
	if est := utils.GlobalMin(partials); est < qd.DtEst {
		qd.DtEst = est
	}
	op.qdataIsCurrent = true
}

// GetTimeStepEstimate syncs to the given state, refreshes the quadrature
// data if stale and returns the accumulated stable time-step estimate.
func (op *LagrangianHydroOperator) GetTimeStepEstimate(S utils.Vector) float64 {
	op.sync(S)
	op.UpdateQuadratureData()
	return op.QD.DtEst
}

// ResetTimeStepEstimate clears the accumulated estimate before a new step.
func (op *LagrangianHydroOperator) ResetTimeStepEstimate() {
	op.QD.DtEst = math.Inf(1)
}

// SnapshotQuadratureData saves the mutable quadrature state so a rejected
// step can be rolled back.
func (op *LagrangianHydroOperator) SnapshotQuadratureData() {
	op.QD.Snapshot()
}

// ResetQuadratureData restores the last quadrature snapshot and marks the
// derived data stale, so the next evaluation recomputes from the restored
// state.
func (op *LagrangianHydroOperator) ResetQuadratureData() {
	op.QD.Restore()
	op.qdataIsCurrent = false
}

// ComputeDensity projects the pointwise conserved density onto the
// thermodynamic space: per-element mass matrices assembled with the
// current geometry are solved against the reference-density moments.
func (op *LagrangianHydroOperator) ComputeDensity(S utils.Vector, rho utils.Vector) {
	var (
		h1   = op.H1
		l2   = op.L2
		NQ   = h1.QR.NQ
		NpE  = l2.Np
		BqT  = l2.Bq.Transpose()
		rhoD = rho.Data()
		detJ = make([]float64, NQ)
	)
	x, _, _ := op.SplitState(S)
	xD := x.Data()
	for el := 0; el < op.Msh.K; el++ {
		dofsV := h1.ElementDofs(el)
		for q := 0; q < NQ; q++ {
			var J [2][2]float64
			for l, g := range dofsV {
				dr := h1.DqR.At(q, l)
				ds := h1.DqS.At(q, l)
				J[0][0] += dr * xD[g]
				J[0][1] += ds * xD[g]
				J[1][0] += dr * xD[h1.Nnodes+g]
				J[1][1] += ds * xD[h1.Nnodes+g]
			}
			detJ[q] = J[0][0]*J[1][1] - J[0][1]*J[1][0]
		}
		Mloc := utils.NewMatrix(NpE, NpE)
		for q := 0; q < NQ; q++ {
			w := detJ[q] * h1.QR.Wq[q]
			for i := 0; i < NpE; i++ {
				bi := l2.Bq.At(q, i)
				for j := 0; j < NpE; j++ {
					Mloc.Set(i, j, Mloc.At(i, j)+w*bi*l2.Bq.At(q, j))
				}
			}
		}
		// Moments of the conserved reference mass against the test basis.
		b := BqT.MulVec(utils.NewVector(NQ, op.QD.Rho0DetJ0W[el*NQ:(el+1)*NQ]))
		rhoLoc, err := Mloc.LUSolve(b)
		if err != nil {
			panic(err)
		}
		dofsE := l2.ElementDofs(el)
		for i, g := range dofsE {
			rhoD[g] = rhoLoc.AtVec(i)
		}
	}
}

// InternalEnergy integrates rho*e over the domain using the reference
// mass weights (exact under pointwise mass conservation).
func (op *LagrangianHydroOperator) InternalEnergy(e utils.Vector) float64 {
	var (
		l2       = op.L2
		NQ       = op.QD.NQ
		eD       = e.Data()
		partials = make([]float64, op.PM.ParallelDegree)
	)
	op.PM.RunParallel(func(bn, kMin, kMax int) {
		var sum float64
		for el := kMin; el < kMax; el++ {
			dofs := l2.ElementDofs(el)
			for q := 0; q < NQ; q++ {
				var eq float64
				for i, g := range dofs {
					eq += l2.Bq.At(q, i) * eD[g]
				}
				sum += eq * op.QD.Rho0DetJ0W[el*NQ+q]
			}
		}
		partials[bn] = sum
	})
	return utils.GlobalSum(partials)
}

// KineticEnergy computes 0.5 * v^T M v with the unconstrained velocity
// mass action.
func (op *LagrangianHydroOperator) KineticEnergy(v utils.Vector) float64 {
	if op.keScratch.V == nil {
		op.keScratch = utils.NewVector(v.Len())
	}
	op.Mv.multBlocks(v, op.keScratch)
	return 0.5 * v.Dot(op.keScratch)
}

// GetPressure evaluates the EOS pointwise at the thermodynamic nodes of
// the given state.
func (op *LagrangianHydroOperator) GetPressure(S utils.Vector, p utils.Vector) {
	var (
		rho = utils.NewVector(op.L2.Ndofs)
	)
	op.ComputeDensity(S, rho)
	_, _, e := op.SplitState(S)
	var (
		eD   = e.Data()
		rhoD = rho.Data()
		pD   = p.Data()
	)
	for el := 0; el < op.Msh.K; el++ {
		gamma := op.GammaE[el]
		for _, g := range op.L2.ElementDofs(el) {
			eVal := eD[g]
			if eVal < 0 {
				eVal = 0
			}
			pD[g] = (gamma - 1) * rhoD[g] * eVal
		}
	}
}
