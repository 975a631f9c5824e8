package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type RunParameters struct {
	Title          string  `yaml:"Title"`
	Problem        string  `yaml:"Problem"`
	Nx             int     `yaml:"Nx"`
	Ny             int     `yaml:"Ny"`
	Lx             float64 `yaml:"Lx"`
	Ly             float64 `yaml:"Ly"`
	OrderV         int     `yaml:"OrderV"` // Kinematic polynomial order
	OrderE         int     `yaml:"OrderE"` // Thermodynamic polynomial order
	OrderQ         int     `yaml:"OrderQ"` // Quadrature points per direction, 0 = derive
	CFL            float64 `yaml:"CFL"`
	FinalTime      float64 `yaml:"FinalTime"`
	InitialDt      float64 `yaml:"InitialDt"`
	ODESolver      string  `yaml:"ODESolver"`
	CGTol          float64 `yaml:"CGTol"`
	CGMaxIter      int     `yaml:"CGMaxIter"`
	MaxSteps       int     `yaml:"MaxSteps"`
	MaxRetries     int     `yaml:"MaxRetries"`
	VisSteps       int     `yaml:"VisSteps"`
	Q1             float64 `yaml:"Q1"`
	Q2             float64 `yaml:"Q2"`
	StabilityScale float64 `yaml:"StabilityScale"`
	ParallelDegree int     `yaml:"ParallelDegree"`
}

func (rp *RunParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, rp); err != nil {
		return err
	}
	rp.applyDefaults()
	return rp.validate()
}

func (rp *RunParameters) applyDefaults() {
	if rp.Nx == 0 {
		rp.Nx = 8
	}
	if rp.Ny == 0 {
		rp.Ny = 8
	}
	if rp.Lx == 0 {
		rp.Lx = 1
	}
	if rp.Ly == 0 {
		rp.Ly = 1
	}
	if rp.OrderV == 0 {
		rp.OrderV = 2
	}
	if rp.OrderE == 0 {
		rp.OrderE = rp.OrderV - 1
	}
	if rp.OrderQ == 0 {
		rp.OrderQ = rp.OrderV + 2
	}
	if rp.CFL == 0 {
		rp.CFL = 0.5
	}
	if rp.InitialDt == 0 {
		rp.InitialDt = 1.e-3
	}
	if rp.ODESolver == "" {
		rp.ODESolver = "rk2"
	}
	if rp.CGTol == 0 {
		rp.CGTol = 1.e-8
	}
	if rp.CGMaxIter == 0 {
		rp.CGMaxIter = 300
	}
	if rp.MaxSteps == 0 {
		rp.MaxSteps = -1
	}
	if rp.MaxRetries == 0 {
		rp.MaxRetries = 50
	}
	if rp.VisSteps == 0 {
		rp.VisSteps = 10
	}
	if rp.Q1 == 0 {
		rp.Q1 = 0.5
	}
	if rp.Q2 == 0 {
		rp.Q2 = 2.0
	}
	if rp.StabilityScale == 0 {
		rp.StabilityScale = 1.0
	}
}

func (rp *RunParameters) validate() error {
	if rp.Problem == "" {
		return fmt.Errorf("input file must name a Problem")
	}
	if rp.FinalTime <= 0 {
		return fmt.Errorf("FinalTime must be positive, got %v", rp.FinalTime)
	}
	if rp.OrderV < 1 {
		return fmt.Errorf("OrderV must be at least 1, got %d", rp.OrderV)
	}
	return nil
}

func (rp *RunParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", rp.Title)
	fmt.Printf("[%s]\t\t= Problem\n", rp.Problem)
	fmt.Printf("%d x %d\t\t= Mesh zones\n", rp.Nx, rp.Ny)
	fmt.Printf("%8.5f x %8.5f\t= Domain\n", rp.Lx, rp.Ly)
	fmt.Printf("[%d/%d]\t\t= Kinematic/Thermodynamic Order\n", rp.OrderV, rp.OrderE)
	fmt.Printf("%8.5f\t\t= CFL\n", rp.CFL)
	fmt.Printf("%8.5f\t\t= FinalTime\n", rp.FinalTime)
	fmt.Printf("[%s]\t\t= ODE Solver\n", rp.ODESolver)
}
