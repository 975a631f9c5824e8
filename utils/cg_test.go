package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type denseOperator struct {
	A Matrix
}

func (d denseOperator) Mult(x, y Vector) {
	y.SetFrom(d.A.MulVec(x))
}

func (d denseOperator) Size() int {
	r, _ := d.A.Dims()
	return r
}

func TestConjugateGradient(t *testing.T) {
	// SPD system with known solution
	{
		A := NewMatrix(3, 3, []float64{
			4, 1, 0,
			1, 3, 1,
			0, 1, 2,
		})
		xExact := NewVector(3, []float64{1, -2, 3})
		b := A.MulVec(xExact)
		x := NewVector(3)
		iter, res := ConjugateGradient(denseOperator{A}, b, x, 1.e-12, 50)
		assert.LessOrEqual(t, iter, 3)
		assert.Less(t, res, 1.e-10)
		assert.Less(t, x.Copy().Subtract(xExact).Apply(math.Abs).Max(), 1.e-9)
	}
	// Zero right-hand side drives the solution to zero
	{
		A := NewMatrix(2, 2, []float64{2, 0, 0, 2})
		b := NewVector(2)
		x := NewVector(2).Set(1)
		ConjugateGradient(denseOperator{A}, b, x, 1.e-12, 50)
		assert.Less(t, x.Norm(), 1.e-13)
	}
	// Non-convergence is reported through the residual, not a panic
	{
		A := NewMatrix(2, 2, []float64{1, 0, 0, 1.e8})
		b := NewVector(2, []float64{1, 1})
		x := NewVector(2)
		assert.NotPanics(t, func() {
			ConjugateGradient(denseOperator{A}, b, x, 1.e-30, 1)
		})
	}
}

func TestPartitionMapReductions(t *testing.T) {
	// Every index is covered exactly once with imbalance of at most one
	{
		pm := NewPartitionMap(4, 10)
		covered := make([]int, 10)
		total := 0
		for bn := 0; bn < pm.ParallelDegree; bn++ {
			kMin, kMax := pm.GetBucketRange(bn)
			assert.Equal(t, kMax-kMin, pm.GetBucketDimension(bn))
			assert.LessOrEqual(t, kMax-kMin, 3)
			assert.GreaterOrEqual(t, kMax-kMin, 2)
			total += pm.GetBucketDimension(bn)
			for k := kMin; k < kMax; k++ {
				covered[k]++
			}
		}
		assert.Equal(t, 10, total)
		for k, c := range covered {
			assert.Equalf(t, 1, c, "index %d", k)
		}
	}
	// Degree is clamped to the index count
	{
		pm := NewPartitionMap(16, 3)
		assert.Equal(t, 3, pm.ParallelDegree)
	}
	// RunParallel visits all partitions and blocks until done
	{
		pm := NewPartitionMap(4, 100)
		partials := make([]float64, pm.ParallelDegree)
		pm.RunParallel(func(bn, kMin, kMax int) {
			var sum float64
			for k := kMin; k < kMax; k++ {
				sum += float64(k)
			}
			partials[bn] = sum
		})
		assert.Equal(t, float64(99*100/2), GlobalSum(partials))
	}
	// Reduction primitives
	{
		assert.Equal(t, -3.0, GlobalMin([]float64{2, -3, 0.5}))
		assert.Equal(t, 6.0, GlobalSum([]float64{1, 2, 3}))
	}
}
