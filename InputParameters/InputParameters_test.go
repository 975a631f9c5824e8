package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	// Full input
	{
		data := []byte(`
Title: "Sedov Blast"
Problem: sedov
Nx: 16
Ny: 16
Lx: 1.2
Ly: 1.2
OrderV: 3
OrderE: 2
CFL: 0.7
FinalTime: 0.8
ODESolver: rk4
Q1: 0.25
Q2: 1.5
MaxSteps: 500
`)
		rp := &RunParameters{}
		assert.NoError(t, rp.Parse(data))
		assert.Equal(t, "Sedov Blast", rp.Title)
		assert.Equal(t, "sedov", rp.Problem)
		assert.Equal(t, 16, rp.Nx)
		assert.Equal(t, 1.2, rp.Lx)
		assert.Equal(t, 3, rp.OrderV)
		assert.Equal(t, 2, rp.OrderE)
		assert.Equal(t, 0.7, rp.CFL)
		assert.Equal(t, "rk4", rp.ODESolver)
		assert.Equal(t, 0.25, rp.Q1)
		assert.Equal(t, 1.5, rp.Q2)
		assert.Equal(t, 500, rp.MaxSteps)
	}
	// Minimal input gets the documented defaults
	{
		data := []byte(`
Problem: taylor-green
FinalTime: 0.5
`)
		rp := &RunParameters{}
		assert.NoError(t, rp.Parse(data))
		assert.Equal(t, 8, rp.Nx)
		assert.Equal(t, 2, rp.OrderV)
		assert.Equal(t, 1, rp.OrderE)
		assert.Equal(t, 4, rp.OrderQ)
		assert.Equal(t, 0.5, rp.CFL)
		assert.Equal(t, "rk2", rp.ODESolver)
		assert.Equal(t, 50, rp.MaxRetries)
		assert.Equal(t, -1, rp.MaxSteps)
		assert.Equal(t, 2.0, rp.Q2)
	}
	// Missing problem or final time is rejected
	{
		rp := &RunParameters{}
		assert.Error(t, rp.Parse([]byte(`FinalTime: 1.0`)))
		rp = &RunParameters{}
		assert.Error(t, rp.Parse([]byte(`Problem: sedov`)))
	}
	// Malformed YAML is rejected
	{
		rp := &RunParameters{}
		assert.Error(t, rp.Parse([]byte(`Problem: [unclosed`)))
	}
}
