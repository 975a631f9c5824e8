package FE2D

import (
	"fmt"
	"math"

	"github.com/gohydro/gohydro/utils"
	"github.com/james-bowman/sparse"
)

// Face ordering within a quad: 0 bottom, 1 right, 2 top, 3 left,
// counterclockwise vertex ordering v0..v3.
var faceVertices = [4][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}

type Mesh2D struct {
	K          int // Number of elements
	Nx, Ny     int // Cartesian zone counts
	Lx, Ly     float64
	VX, VY     utils.Vector // Vertex coordinates
	EToV       [][4]int
	EToE, EToF [][4]int // -1 at domain boundary faces
	BFaces     [][2]int // (element, face) pairs on the boundary
}

// NewCartesianMesh builds an Nx x Ny quadrilateral mesh of [0,Lx]x[0,Ly].
func NewCartesianMesh(Nx, Ny int, Lx, Ly float64) (msh *Mesh2D) {
	var (
		K   = Nx * Ny
		Nv  = (Nx + 1) * (Ny + 1)
		vx  = make([]float64, Nv)
		vy  = make([]float64, Nv)
		dx  = Lx / float64(Nx)
		dy  = Ly / float64(Ny)
		eTv = make([][4]int, K)
	)
	if Nx < 1 || Ny < 1 {
		panic(fmt.Errorf("invalid mesh dimensions: %d x %d", Nx, Ny))
	}
	for j := 0; j <= Ny; j++ {
		for i := 0; i <= Nx; i++ {
			v := i + (Nx+1)*j
			vx[v] = float64(i) * dx
			vy[v] = float64(j) * dy
		}
	}
	for j := 0; j < Ny; j++ {
		for i := 0; i < Nx; i++ {
			e := i + Nx*j
			v00 := i + (Nx+1)*j
			eTv[e] = [4]int{v00, v00 + 1, v00 + Nx + 2, v00 + Nx + 1}
		}
	}
	msh = &Mesh2D{
		K:    K,
		Nx:   Nx,
		Ny:   Ny,
		Lx:   Lx,
		Ly:   Ly,
		VX:   utils.NewVector(Nv, vx),
		VY:   utils.NewVector(Nv, vy),
		EToV: eTv,
	}
	msh.Connect2D()
	return
}

// Connect2D derives element-to-element and element-to-face connectivity
// from EToV through the sparse face-to-vertex product: two faces match
// when they share both vertices.
func (msh *Mesh2D) Connect2D() {
	var (
		NFaces     = 4
		K          = msh.K
		Nv         = msh.VX.Len()
		TotalFaces = NFaces * K
	)
	SpFToVTmp := sparse.NewDOK(TotalFaces, Nv)
	var sk int
	for k := 0; k < K; k++ {
		for face := 0; face < NFaces; face++ {
			for _, fv := range faceVertices[face] {
				SpFToVTmp.Set(sk, msh.EToV[k][fv], 1)
			}
			sk++
		}
	}
	SpFToV := SpFToVTmp.ToCSR()
	SpFToF := sparse.NewCSR(TotalFaces, TotalFaces, nil, nil, nil)
	SpFToF.Mul(SpFToV, SpFToV.T())

	msh.EToE = make([][4]int, K)
	msh.EToF = make([][4]int, K)
	for k := 0; k < K; k++ {
		msh.EToE[k] = [4]int{-1, -1, -1, -1}
		msh.EToF[k] = [4]int{-1, -1, -1, -1}
	}
	SpFToF.DoNonZero(func(i, j int, v float64) {
		// A shared interior face connects two distinct face ids through
		// both of its vertices.
		if i == j || v != 2 {
			return
		}
		e1, f1 := i/NFaces, i%NFaces
		e2, f2 := j/NFaces, j%NFaces
		msh.EToE[e1][f1] = e2
		msh.EToF[e1][f1] = f2
	})
	msh.BFaces = msh.BFaces[:0]
	for k := 0; k < K; k++ {
		for face := 0; face < NFaces; face++ {
			if msh.EToE[k][face] == -1 {
				msh.BFaces = append(msh.BFaces, [2]int{k, face})
			}
		}
	}
}

// FaceNormalDir reports the constrained velocity component for a straight
// boundary face: 0 for a face with an x-aligned normal, 1 for y.
func (msh *Mesh2D) FaceNormalDir(e, face int) (d int) {
	var (
		fv = faceVertices[face]
		v1 = msh.EToV[e][fv[0]]
		v2 = msh.EToV[e][fv[1]]
	)
	if math.Abs(msh.VX.AtVec(v1)-msh.VX.AtVec(v2)) < utils.NODETOL {
		return 0
	}
	return 1
}

// ElementSize returns the minimum edge length of element e.
func (msh *Mesh2D) ElementSize(e int) (h float64) {
	h = math.Inf(1)
	for face := 0; face < 4; face++ {
		fv := faceVertices[face]
		v1, v2 := msh.EToV[e][fv[0]], msh.EToV[e][fv[1]]
		dx := msh.VX.AtVec(v1) - msh.VX.AtVec(v2)
		dy := msh.VY.AtVec(v1) - msh.VY.AtVec(v2)
		if l := math.Sqrt(dx*dx + dy*dy); l < h {
			h = l
		}
	}
	return
}
