package render

/*
#include <stdlib.h>
*/
import "C"

import (
	"math"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

const ringSegments = 48

// meshData acumula triângulos no lado Go antes da cópia para a memória C.
type meshData struct {
	Vertices []float32
	Normals  []float32
	UVs      []float32
}

func (d *meshData) add(p, n mgl32.Vec3, u, v float32) {
	d.Vertices = append(d.Vertices, p[0], p[1], p[2])
	d.Normals = append(d.Normals, n[0], n[1], n[2])
	d.UVs = append(d.UVs, u, v)
}

type vertex struct {
	p    mgl32.Vec3
	n    mgl32.Vec3
	u, v float32
}

// quad emite (a, b, c) e (a, c, d). A ordem deve ser anti-horária vista de fora.
func (d *meshData) quad(a, b, c, e vertex) {
	for _, vx := range []vertex{a, b, c, a, c, e} {
		d.add(vx.p, vx.n, vx.u, vx.v)
	}
}

// planeData é um quadrado de lado 1 no plano XZ com as coordenadas de textura
// multiplicadas por repeat.
func planeData(repeat mgl32.Vec2) meshData {
	var d meshData
	up := mgl32.Vec3{0, 1, 0}
	ru, rv := max(repeat[0], 1), max(repeat[1], 1)
	d.quad(
		vertex{mgl32.Vec3{-0.5, 0, -0.5}, up, 0, 0},
		vertex{mgl32.Vec3{-0.5, 0, 0.5}, up, 0, rv},
		vertex{mgl32.Vec3{0.5, 0, 0.5}, up, ru, rv},
		vertex{mgl32.Vec3{0.5, 0, -0.5}, up, ru, 0},
	)
	return d
}

// ringData é uma coroa circular de raio externo 1, raio interno inner (0..1) e altura 1
// com base em y=0. U percorre a circunferência repeatU vezes.
func ringData(inner, repeatU float32) meshData {
	var d meshData
	inner = min(max(inner, 0), 0.999)
	repeatU = max(repeatU, 1)
	up, down := mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, -1, 0}
	span := 1 - inner

	for i := 0; i < ringSegments; i++ {
		t0 := float32(i) / ringSegments
		t1 := float32(i+1) / ringSegments
		a0 := float64(t0) * 2 * math.Pi
		a1 := float64(t1) * 2 * math.Pi
		c0, s0 := float32(math.Cos(a0)), float32(math.Sin(a0))
		c1, s1 := float32(math.Cos(a1)), float32(math.Sin(a1))
		u0, u1 := t0*repeatU, t1*repeatU

		in0 := mgl32.Vec3{inner * c0, 0, inner * s0}
		in1 := mgl32.Vec3{inner * c1, 0, inner * s1}
		out0 := mgl32.Vec3{c0, 0, s0}
		out1 := mgl32.Vec3{c1, 0, s1}
		top := mgl32.Vec3{0, 1, 0}

		d.quad(
			vertex{in0.Add(top), up, u0, 0},
			vertex{in1.Add(top), up, u1, 0},
			vertex{out1.Add(top), up, u1, span},
			vertex{out0.Add(top), up, u0, span},
		)
		d.quad(
			vertex{in0, down, u0, 0},
			vertex{out0, down, u0, span},
			vertex{out1, down, u1, span},
			vertex{in1, down, u1, 0},
		)
		d.quad(
			vertex{out0, out0, u0, 0},
			vertex{out0.Add(top), out0, u0, 1},
			vertex{out1.Add(top), out1, u1, 1},
			vertex{out1, out1, u1, 0},
		)
		d.quad(
			vertex{in0, out0.Mul(-1), u0, 0},
			vertex{in1, out1.Mul(-1), u1, 0},
			vertex{in1.Add(top), out1.Mul(-1), u1, 1},
			vertex{in0.Add(top), out0.Mul(-1), u0, 1},
		)
	}
	return d
}

// toMesh copia os dados para a memória C e envia para a GPU. UnloadMesh libera as duas.
func toMesh(data meshData) rl.Mesh {
	var mesh rl.Mesh
	vCount := int32(len(data.Vertices) / 3)
	mesh.VertexCount = vCount
	mesh.TriangleCount = vCount / 3

	if len(data.Vertices) > 0 {
		mesh.Vertices = (*float32)(copyToC(unsafe.Pointer(&data.Vertices[0]), len(data.Vertices)*4))
	}
	if len(data.Normals) > 0 {
		mesh.Normals = (*float32)(copyToC(unsafe.Pointer(&data.Normals[0]), len(data.Normals)*4))
	}
	if len(data.UVs) > 0 {
		mesh.Texcoords = (*float32)(copyToC(unsafe.Pointer(&data.UVs[0]), len(data.UVs)*4))
	}
	rl.UploadMesh(&mesh, false)
	return mesh
}

func copyToC(data unsafe.Pointer, size int) unsafe.Pointer {
	if size <= 0 || data == nil {
		return nil
	}
	ptr := C.malloc(C.size_t(size))
	if ptr == nil {
		return nil
	}
	cSlice := unsafe.Slice((*byte)(ptr), size)
	goSlice := unsafe.Slice((*byte)(data), size)
	copy(cSlice, goSlice)
	return ptr
}
