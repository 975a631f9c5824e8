package hydro

import (
	"fmt"
	"math"

	"github.com/gohydro/gohydro/utils"
)

// SourceFunc is an optional specific-internal-energy source rate sampled
// at physical quadrature-point positions.
type SourceFunc func(x [2]float64, t float64) float64

// Problem bundles the initial-condition and material description of a run.
// It is resolved once at setup and injected into the operator; nothing in
// the core consults a global problem id.
type Problem struct {
	Name         string
	Rho0         func(x [2]float64) float64
	E0           func(x [2]float64) float64
	Gamma        func(x [2]float64) float64
	V0           func(x [2]float64) [2]float64
	UseViscosity bool
	Source       SourceFunc
}

func zeroV(x [2]float64) [2]float64 { return [2]float64{} }

// GetProblem resolves a problem setup by name.
func GetProblem(name string) (p *Problem, err error) {
	switch name {
	case "uniform":
		p = &Problem{
			Name:  name,
			Rho0:  func(x [2]float64) float64 { return 1.0 },
			E0:    func(x [2]float64) float64 { return 1.0 },
			Gamma: func(x [2]float64) float64 { return 5.0 / 3.0 },
			V0:    zeroV,
		}
	case "taylor-green":
		gamma := 5.0 / 3.0
		p = &Problem{
			Name: name,
			Rho0: func(x [2]float64) float64 { return 1.0 },
			E0: func(x [2]float64) float64 {
				val := 1.0 + (math.Cos(2*math.Pi*x[0])+math.Cos(2*math.Pi*x[1]))/4.0
				return val / (gamma - 1.0)
			},
			Gamma: func(x [2]float64) float64 { return gamma },
			V0: func(x [2]float64) [2]float64 {
				return [2]float64{
					math.Sin(math.Pi*x[0]) * math.Cos(math.Pi*x[1]),
					-math.Cos(math.Pi*x[0]) * math.Sin(math.Pi*x[1]),
				}
			},
			Source: func(x [2]float64, t float64) float64 {
				return 3.0 / 8.0 * math.Pi *
					(math.Cos(3*math.Pi*x[0])*math.Cos(math.Pi*x[1]) -
						math.Cos(math.Pi*x[0])*math.Cos(3*math.Pi*x[1]))
			},
		}
	case "sedov":
		// The point blast is represented by a narrow Gaussian energy
		// deposit centered at the origin.
		const (
			blastEnergy = 0.25
			sigma       = 0.04
		)
		p = &Problem{
			Name: name,
			Rho0: func(x [2]float64) float64 { return 1.0 },
			E0: func(x [2]float64) float64 {
				r2 := utils.POW(x[0], 2) + utils.POW(x[1], 2)
				return blastEnergy * math.Exp(-r2/(2*sigma*sigma)) / (2 * math.Pi * sigma * sigma)
			},
			Gamma:        func(x [2]float64) float64 { return 1.4 },
			V0:           zeroV,
			UseViscosity: true,
		}
	case "gresho":
		gamma := 5.0 / 3.0
		p = &Problem{
			Name: name,
			Rho0: func(x [2]float64) float64 { return 1.0 },
			E0: func(x [2]float64) float64 {
				r := math.Sqrt(utils.POW(x[0], 2) + utils.POW(x[1], 2))
				rsq := utils.POW(r, 2)
				switch {
				case r < 0.2:
					return (5.0 + 25.0/2.0*rsq) / (gamma - 1.0)
				case r < 0.4:
					t1 := 9.0 - 4.0*math.Log(0.2) + 25.0/2.0*rsq
					t2 := 20.0*r - 4.0*math.Log(r)
					return (t1 - t2) / (gamma - 1.0)
				default:
					return (3.0 + 4.0*math.Log(2.0)) / (gamma - 1.0)
				}
			},
			Gamma: func(x [2]float64) float64 { return gamma },
			V0: func(x [2]float64) [2]float64 {
				r := math.Sqrt(utils.POW(x[0], 2) + utils.POW(x[1], 2))
				switch {
				case r < 0.2:
					return [2]float64{5.0 * x[1], -5.0 * x[0]}
				case r < 0.4:
					return [2]float64{
						2.0*x[1]/r - 5.0*x[1],
						-2.0*x[0]/r + 5.0*x[0],
					}
				default:
					return [2]float64{}
				}
			},
		}
	case "triple-point":
		gammaF := func(x [2]float64) float64 {
			if x[0] > 1.0 && x[1] <= 1.5 {
				return 1.4
			}
			return 1.5
		}
		rhoF := func(x [2]float64) float64 {
			if x[0] > 1.0 && x[1] > 1.5 {
				return 0.125
			}
			return 1.0
		}
		p = &Problem{
			Name:  name,
			Rho0:  rhoF,
			Gamma: gammaF,
			E0: func(x [2]float64) float64 {
				if x[0] > 1.0 {
					return 0.1 / rhoF(x) / (gammaF(x) - 1.0)
				}
				return 1.0 / rhoF(x) / (gammaF(x) - 1.0)
			},
			V0:           zeroV,
			UseViscosity: true,
		}
	default:
		err = fmt.Errorf("unknown problem: %q", name)
	}
	return
}
