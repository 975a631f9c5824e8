package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type Vector struct {
	V *mat.VecDense
}

func NewVector(n int, dataO ...[]float64) (v Vector) {
	var d *mat.VecDense
	if len(dataO) != 0 {
		if len(dataO[0]) != n {
			err := fmt.Errorf("mismatch in allocation: NewVector n = %v, len(data[0]) = %v\n", n, len(dataO[0]))
			panic(err)
		}
		d = mat.NewVecDense(n, dataO[0])
	} else {
		d = mat.NewVecDense(n, make([]float64, n))
	}
	return Vector{d}
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (v Vector) Dims() (r, c int)         { return v.V.Dims() }
func (v Vector) At(i, j int) float64      { return v.V.At(i, j) }
func (v Vector) T() mat.Matrix            { return v.V.T() }
func (v Vector) AtVec(i int) float64      { return v.V.AtVec(i) }
func (v Vector) RawVector() blas64.Vector { return v.V.RawVector() }
func (v Vector) Len() int                 { return v.V.Len() }
func (v Vector) Data() []float64          { return v.V.RawVector().Data }

// Chainable (extended) methods
func (v Vector) Copy() (R Vector) {
	var (
		n    = v.Len()
		data = make([]float64, n)
	)
	copy(data, v.Data())
	R = NewVector(n, data)
	return
}

func (v Vector) Set(val float64) Vector {
	var (
		data = v.Data()
	)
	for i := range data {
		data[i] = val
	}
	return v
}

func (v Vector) SetFrom(a Vector) Vector {
	copy(v.Data(), a.Data())
	return v
}

func (v Vector) Add(a Vector) Vector {
	var (
		data  = v.Data()
		dataA = a.Data()
	)
	for i := range data {
		data[i] += dataA[i]
	}
	return v
}

func (v Vector) Subtract(a Vector) Vector {
	var (
		data  = v.Data()
		dataA = a.Data()
	)
	for i := range data {
		data[i] -= dataA[i]
	}
	return v
}

// AddScaled computes v += c*a.
func (v Vector) AddScaled(c float64, a Vector) Vector {
	floats.AddScaled(v.Data(), c, a.Data())
	return v
}

func (v Vector) Scale(a float64) Vector {
	var (
		data = v.Data()
	)
	for i := range data {
		data[i] *= a
	}
	return v
}

func (v Vector) Apply(f func(float64) float64) Vector {
	var (
		data = v.Data()
	)
	for i, val := range data {
		data[i] = f(val)
	}
	return v
}

// AssignScalar sets v[ind] = val for each ind in I.
func (v Vector) AssignScalar(I Index, val float64) Vector {
	var (
		data = v.Data()
	)
	for _, ind := range I {
		data[ind] = val
	}
	return v
}

// Subset extracts the entries of v indexed by I into a new vector.
func (v Vector) Subset(I Index) (R Vector) {
	var (
		data = make([]float64, len(I))
		vD   = v.Data()
	)
	for i, ind := range I {
		data[i] = vD[ind]
	}
	R = NewVector(len(I), data)
	return
}

// Slice returns a view (shared storage) of v[i:j].
func (v Vector) Slice(i, j int) (R Vector) {
	R = Vector{v.V.SliceVec(i, j).(*mat.VecDense)}
	return
}

func (v Vector) Dot(a Vector) float64 {
	return floats.Dot(v.Data(), a.Data())
}

func (v Vector) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

func (v Vector) Min() (min float64) {
	var (
		data = v.Data()
	)
	min = data[0]
	for _, val := range data {
		if val < min {
			min = val
		}
	}
	return
}

func (v Vector) Max() (max float64) {
	var (
		data = v.Data()
	)
	max = data[0]
	for _, val := range data {
		if val > max {
			max = val
		}
	}
	return
}
