package hydro

import (
	"fmt"
	"math"

	"github.com/gohydro/gohydro/utils"
)

// ODEOperator evaluates the right-hand side of dS/dt = F(S, t).
type ODEOperator interface {
	Mult(S, dSdt utils.Vector)
	SetTime(t float64)
}

// ODESolver advances a state vector by one explicit step.
type ODESolver interface {
	Init(op ODEOperator, size int)
	Step(S utils.Vector, t, dt float64) (tNew float64)
}

// NewODESolver resolves a solver by name.
func NewODESolver(name string) (s ODESolver, err error) {
	switch name {
	case "euler":
		s = &ForwardEuler{}
	case "rk2":
		s = &RK2SSP{}
	case "rk4":
		s = &RK4{}
	default:
		err = fmt.Errorf("unknown ODE solver: %q", name)
	}
	return
}

type ForwardEuler struct {
	op ODEOperator
	k  utils.Vector
}

func (fe *ForwardEuler) Init(op ODEOperator, size int) {
	fe.op = op
	fe.k = utils.NewVector(size)
}

func (fe *ForwardEuler) Step(S utils.Vector, t, dt float64) float64 {
	fe.op.SetTime(t)
	fe.op.Mult(S, fe.k)
	S.AddScaled(dt, fe.k)
	return t + dt
}

// RK2SSP is the two-stage strong-stability-preserving Runge-Kutta scheme
// (Heun's method in SSP form).
type RK2SSP struct {
	op     ODEOperator
	k, tmp utils.Vector
}

func (rk *RK2SSP) Init(op ODEOperator, size int) {
	rk.op = op
	rk.k = utils.NewVector(size)
	rk.tmp = utils.NewVector(size)
}

func (rk *RK2SSP) Step(S utils.Vector, t, dt float64) float64 {
	rk.op.SetTime(t)
	rk.op.Mult(S, rk.k)
	rk.tmp.SetFrom(S).AddScaled(dt, rk.k)
	rk.op.SetTime(t + dt)
	rk.op.Mult(rk.tmp, rk.k)
	rk.tmp.AddScaled(dt, rk.k)
	// S = (S + tmp) / 2
	S.Add(rk.tmp).Scale(0.5)
	return t + dt
}

// RK4 is the classical fourth-order scheme.
type RK4 struct {
	op             ODEOperator
	k1, k2, k3, k4 utils.Vector
	tmp            utils.Vector
}

func (rk *RK4) Init(op ODEOperator, size int) {
	rk.op = op
	rk.k1 = utils.NewVector(size)
	rk.k2 = utils.NewVector(size)
	rk.k3 = utils.NewVector(size)
	rk.k4 = utils.NewVector(size)
	rk.tmp = utils.NewVector(size)
}

func (rk *RK4) Step(S utils.Vector, t, dt float64) float64 {
	rk.op.SetTime(t)
	rk.op.Mult(S, rk.k1)
	rk.tmp.SetFrom(S).AddScaled(0.5*dt, rk.k1)
	rk.op.SetTime(t + 0.5*dt)
	rk.op.Mult(rk.tmp, rk.k2)
	rk.tmp.SetFrom(S).AddScaled(0.5*dt, rk.k2)
	rk.op.Mult(rk.tmp, rk.k3)
	rk.tmp.SetFrom(S).AddScaled(dt, rk.k3)
	rk.op.SetTime(t + dt)
	rk.op.Mult(rk.tmp, rk.k4)
	S.AddScaled(dt/6, rk.k1)
	S.AddScaled(dt/3, rk.k2)
	S.AddScaled(dt/3, rk.k3)
	S.AddScaled(dt/6, rk.k4)
	return t + dt
}

// HydroModel is the contract the adaptive controller needs from the hydro
// operator: right-hand side evaluation plus the time-step estimate and
// rollback hooks.
type HydroModel interface {
	ODEOperator
	GetTimeStepEstimate(S utils.Vector) float64
	ResetTimeStepEstimate()
	SnapshotQuadratureData()
	ResetQuadratureData()
}

const (
	dtShrink   = 0.85
	dtGrowGate = 1.25
	dtGrow     = 1.02
)

var machEps = math.Nextafter(1, 2) - 1

// TimeStepController runs the adaptive explicit loop: every step is
// speculative, checked against the post-step stable estimate and rolled
// back (state and quadrature data together) when the estimate says the
// step was too large.
type TimeStepController struct {
	Model      HydroModel
	Solver     ODESolver
	FinalTime  float64
	MaxSteps   int
	MaxRetries int
	VisSteps   int

	Steps      int // accepted steps
	Rejections int // total rejected steps
}

func NewTimeStepController(model HydroModel, solver ODESolver, finalTime float64) (tc *TimeStepController) {
	tc = &TimeStepController{
		Model:      model,
		Solver:     solver,
		FinalTime:  finalTime,
		MaxSteps:   -1,
		MaxRetries: 50,
		VisSteps:   10,
	}
	return
}

// Run advances S from t=0 to FinalTime with initial step dt0 and returns
// the reached time.
func (tc *TimeStepController) Run(S utils.Vector, dt0 float64) (t float64) {
	var (
		dt      = dt0
		sOld    = S.Copy()
		retries int
	)
	tc.Solver.Init(tc.Model, S.Len())
	for {
		if t >= tc.FinalTime-1.e-12*tc.FinalTime {
			break
		}
		if tc.MaxSteps >= 0 && tc.Steps >= tc.MaxSteps {
			fmt.Printf("step cap of %d reached at t = %8.5f\n", tc.MaxSteps, t)
			break
		}
		if t+dt >= tc.FinalTime {
			dt = tc.FinalTime - t
		}
		tOld := t
		sOld.SetFrom(S)
		tc.Model.SnapshotQuadratureData()
		tc.Model.ResetTimeStepEstimate()

		t = tc.Solver.Step(S, t, dt)
		utils.IsNanPanic(S)
		dtEst := tc.Model.GetTimeStepEstimate(S)

		if dtEst < dt {
			// Reject: the step exceeded the stable bound it produced.
			dt *= dtShrink
			if dt < machEps {
				panic(fmt.Errorf("time step crashed below machine epsilon at t = %v", tOld))
			}
			retries++
			if retries > tc.MaxRetries {
				panic(fmt.Errorf("step rejected %d times in a row at t = %v", retries, tOld))
			}
			t = tOld
			S.SetFrom(sOld)
			tc.Model.ResetQuadratureData()
			tc.Rejections++
			continue
		}
		retries = 0
		if dtEst > dtGrowGate*dt {
			dt *= dtGrow
		}
		tc.Steps++
		if tc.VisSteps > 0 && (tc.Steps%tc.VisSteps == 0 || t >= tc.FinalTime) {
			fmt.Printf("step %6d, t = %8.5f, dt = %8.3e\n", tc.Steps, t, dt)
		}
	}
	return
}
