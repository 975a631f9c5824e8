package FE2D

import (
	"github.com/gohydro/gohydro/utils"
)

// LineBasis is a 1D nodal Lagrange basis of degree P on a given node set,
// represented through the modal Jacobi Vandermonde matrix. Interpolation
// and differentiation matrices to arbitrary point sets follow the nodal DG
// construction: I = V(pts)*Vinv, D = Vr(pts)*Vinv.
type LineBasis struct {
	P    int          // Polynomial degree
	R    utils.Vector // Node locations on [-1,1]
	Vinv utils.Matrix
}

func NewLineBasis(P int, R utils.Vector) (lb *LineBasis) {
	var (
		err  error
		V    = Vandermonde1D(P, R)
		Vinv utils.Matrix
	)
	if Vinv, err = V.Inverse(); err != nil {
		panic(err)
	}
	lb = &LineBasis{
		P:    P,
		R:    R,
		Vinv: Vinv,
	}
	return
}

// InterpMatrix returns the (len(pts) x P+1) matrix evaluating the nodal
// basis functions at pts.
func (lb *LineBasis) InterpMatrix(pts utils.Vector) (I utils.Matrix) {
	I = Vandermonde1D(lb.P, pts).Mul(lb.Vinv)
	return
}

// DerivMatrix returns the (len(pts) x P+1) matrix evaluating the nodal
// basis derivatives at pts.
func (lb *LineBasis) DerivMatrix(pts utils.Vector) (D utils.Matrix) {
	D = GradVandermonde1D(pts, lb.P).Mul(lb.Vinv)
	return
}
