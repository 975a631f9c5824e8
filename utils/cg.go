package utils

// LinearOperator is the matrix-free action y = A*x consumed by the
// iterative solver. Implementations must treat x as read-only.
type LinearOperator interface {
	Mult(x, y Vector)
	Size() int
}

// ConjugateGradient solves A*x = b for a symmetric positive definite
// operator A, starting from the contents of x. It stops when the
// residual norm falls below tol relative to the initial residual, or
// after maxIter iterations. Non-convergence is reported through the
// returned residual, not an error: callers decide what to do with it.
func ConjugateGradient(A LinearOperator, b, x Vector, tol float64, maxIter int) (iter int, residual float64) {
	var (
		n  = A.Size()
		r  = NewVector(n)
		p  = NewVector(n)
		ap = NewVector(n)
	)
	A.Mult(x, r)
	r.Scale(-1).Add(b) // r = b - A*x
	p.SetFrom(r)
	rsOld := r.Dot(r)
	rs0 := rsOld
	if rs0 == 0 {
		return 0, 0
	}
	tol2 := tol * tol * rs0
	for iter = 0; iter < maxIter; iter++ {
		if rsOld <= tol2 {
			break
		}
		A.Mult(p, ap)
		pAp := p.Dot(ap)
		if pAp == 0 {
			break
		}
		alpha := rsOld / pAp
		x.AddScaled(alpha, p)
		r.AddScaled(-alpha, ap)
		rsNew := r.Dot(r)
		beta := rsNew / rsOld
		p.Scale(beta).Add(r)
		rsOld = rsNew
	}
	residual = r.Norm()
	return
}
