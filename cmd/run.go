/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/gohydro/gohydro/FE2D"
	"github.com/gohydro/gohydro/InputParameters"
	"github.com/gohydro/gohydro/hydro"
	"github.com/gohydro/gohydro/utils"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a Lagrangian hydrodynamics simulation from a YAML input file",
	Long: `
Runs the moving-mesh solver for the problem described in the input
file, advancing to FinalTime with adaptive explicit time stepping,

gohydro run -I input.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		inputFile, _ := cmd.Flags().GetString("inputFile")
		profileIt, _ := cmd.Flags().GetBool("profile")
		ip := processRunInput(inputFile)
		RunSimulation(ip, profileIt)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("inputFile", "I", "", "YAML file with run parameters like:\n\t- Problem\n\t- CFL\n\t- FinalTime")
	runCmd.Flags().BoolP("profile", "p", false, "generate a runtime profile of the solver")
}

func processRunInput(inputFile string) (ip *InputParameters.RunParameters) {
	var (
		err error
	)
	if len(inputFile) == 0 {
		err := fmt.Errorf("must supply an input parameters file (-I, --inputFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Sedov Blast"
Problem: sedov
Nx: 16
Ny: 16
Lx: 1.
Ly: 1.
OrderV: 2
OrderE: 1
CFL: 0.5
FinalTime: 0.8
ODESolver: rk4
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	var data []byte
	if data, err = ioutil.ReadFile(inputFile); err != nil {
		panic(err)
	}
	ip = &InputParameters.RunParameters{}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	return
}

// RunSimulation builds the discretization described by ip and advances it
// to FinalTime.
func RunSimulation(ip *InputParameters.RunParameters, profileIt bool) {
	if profileIt {
		defer profile.Start().Stop()
	}
	ip.Print()
	prob, err := hydro.GetProblem(ip.Problem)
	if err != nil {
		panic(err)
	}
	var (
		msh = FE2D.NewCartesianMesh(ip.Nx, ip.Ny, ip.Lx, ip.Ly)
		qr  = FE2D.NewQuadRule2D(ip.OrderQ)
		h1  = FE2D.NewH1Space(msh, ip.OrderV, qr)
		l2  = FE2D.NewL2Space(msh, ip.OrderE, qr)
		np  = ip.ParallelDegree
	)
	if np == 0 {
		np = runtime.NumCPU()
	}
	pm := utils.NewPartitionMap(np, msh.K)
	op := hydro.NewLagrangianHydroOperator(prob, h1, l2, pm, hydro.Options{
		CFL:            ip.CFL,
		Q1:             ip.Q1,
		Q2:             ip.Q2,
		StabilityScale: ip.StabilityScale,
		CGTol:          ip.CGTol,
		CGMaxIter:      ip.CGMaxIter,
	})
	solver, err := hydro.NewODESolver(ip.ODESolver)
	if err != nil {
		panic(err)
	}
	tc := hydro.NewTimeStepController(op, solver, ip.FinalTime)
	tc.MaxSteps = ip.MaxSteps
	tc.MaxRetries = ip.MaxRetries
	tc.VisSteps = ip.VisSteps

	S := op.InitialState()
	_, v, e := op.SplitState(S)
	energy0 := op.InternalEnergy(e) + op.KineticEnergy(v)
	fmt.Printf("solving %s on %d zones, %d kinematic dofs, %d thermodynamic dofs\n",
		prob.Name, msh.K, h1.NumVDofs(), l2.Ndofs)

	start := time.Now()
	t := tc.Run(S, ip.InitialDt)
	elapsed := time.Since(start)

	energyT := op.InternalEnergy(e) + op.KineticEnergy(v)
	fmt.Printf("\nfinished at t = %8.5f after %d steps (%d rejected), elapsed = %v\n",
		t, tc.Steps, tc.Rejections, elapsed)
	fmt.Printf("total energy drift: %.3e (from %.8f to %.8f)\n",
		math.Abs(energyT-energy0), energy0, energyT)
	fmt.Printf("%s\n", utils.GetMemUsage())
}
