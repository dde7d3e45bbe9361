// Package render é o backend raylib: desenha o grafo de cena, o fantasma, o destaque e as
// sobreposições 2D. Todo recurso de GPU criado aqui é registrado em scene.Resources.
package render

import (
	"fmt"
	"sync"

	"YardVision/cliente/internal/camera"
	"YardVision/cliente/internal/props"
	"YardVision/cliente/internal/scene"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// Stats resume o último frame.
type Stats struct {
	Opaque      int
	Transparent int
	DrawCalls   int
	Meshes      int
	Textures    int
}

type Renderer struct {
	mu  sync.Mutex
	gpu *scene.Resources
	log zerolog.Logger

	shader   rl.Shader
	material rl.Material
	whiteTex rl.Texture2D

	sunLoc        int32
	camPosLoc     int32
	fogColorLoc   int32
	fogDensityLoc int32

	// Texturas carregadas sob demanda de TextureDir/<nome>.png
	Textures   map[string]rl.Texture2D
	TextureDir string
	missing    map[string]bool

	meshes  map[string]rl.Mesh
	batches *BatchSet
	list    scene.DrawList

	SunDir     mgl32.Vec3
	Fog        props.Color
	FogDensity float32
	ShowGrid   bool

	stats Stats
}

// NewRenderer cria o renderizador. Precisa da janela aberta.
func NewRenderer(gpu *scene.Resources, log zerolog.Logger) *Renderer {
	r := &Renderer{
		gpu:        gpu,
		log:        log,
		Textures:   make(map[string]rl.Texture2D),
		TextureDir: "assets/textures",
		missing:    make(map[string]bool),
		meshes:     make(map[string]rl.Mesh),
		batches:    NewBatchSet(),
		SunDir:     mgl32.Vec3{-0.4, -1, -0.3},
		Fog:        props.Color{R: 206, G: 224, B: 240, A: 255},
		FogDensity: 0.0035,
	}

	r.material = rl.LoadMaterialDefault()
	r.whiteTex = r.material.Maps.Texture

	if rl.IsWindowReady() {
		r.shader = rl.LoadShaderFromMemory(litVertexShader, litFragmentShader)
		if rl.IsShaderValid(r.shader) {
			r.material.Shader = r.shader
			r.sunLoc = rl.GetShaderLocation(r.shader, "sunDir")
			r.camPosLoc = rl.GetShaderLocation(r.shader, "camPos")
			r.fogColorLoc = rl.GetShaderLocation(r.shader, "fogColor")
			r.fogDensityLoc = rl.GetShaderLocation(r.shader, "fogDensity")
			shader := r.shader
			_ = gpu.Track("shader:lit", func() { rl.UnloadShader(shader) })
		} else {
			r.log.Warn().Msg("Shader de iluminação inválido, usando o padrão do raylib")
		}
	}

	r.log.Info().Str("textures", r.TextureDir).Msg("Renderer iniciado")
	return r
}

// CameraFor converte o controlador de câmera para a câmera do raylib.
func CameraFor(c *camera.CameraController) rl.Camera3D {
	return rl.Camera3D{
		Position:   vec3(c.Position()),
		Target:     vec3(c.Target()),
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       c.FOV,
		Projection: rl.CameraPerspective,
	}
}

// DrawSky pinta o gradiente do céu. Chamado antes do passo 3D.
func (r *Renderer) DrawSky(sky scene.SkyColors) {
	rl.DrawRectangleGradientV(0, 0, int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight()),
		color(sky.Top), color(sky.Horizon))
}

// drawTransparent desenha a fila transparente já ordenada. Devolve as chamadas de desenho.
func (r *Renderer) drawTransparent() int {
	rl.BeginBlendMode(rl.BlendAlpha)
	defer rl.EndBlendMode()

	calls := 0
	for _, it := range r.list.Transparent {
		_, mesh := r.meshFor(it.Part)
		r.bindTexture(it.Part.Texture)
		r.material.Maps.Color = color(it.Color)
		if it.DepthWrite {
			rl.DrawMesh(mesh, r.material, matrix(it.Transform))
		} else {
			r.drawNoDepth(mesh, matrix(it.Transform))
		}
		calls++
	}
	return calls
}

func (r *Renderer) drawNoDepth(mesh rl.Mesh, m rl.Matrix) {
	rl.DisableDepthMask()
	defer rl.EnableDepthMask()
	rl.DrawMesh(mesh, r.material, m)
}

// Draw desenha a árvore a partir de root: opacas em lotes, depois transparentes de trás
// para frente. Materiais sem escrita de profundidade (fantasma) não gravam o depth buffer.
func (r *Renderer) Draw(root *scene.Node, cam rl.Camera3D) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	eye := mgl32.Vec3{cam.Position.X, cam.Position.Y, cam.Position.Z}
	r.list.Build(root, eye)
	r.setUniforms(eye)

	rl.BeginMode3D(cam)
	defer rl.EndMode3D()

	r.batches.Clear()
	for _, it := range r.list.Opaque {
		key, mesh := r.meshFor(it.Part)
		r.batches.Add(key, it.Part.Texture, mesh, matrix(it.Transform), color(it.Color))
	}
	calls := r.batches.DrawAll(r)
	calls += r.drawTransparent()

	if r.ShowGrid {
		rl.DrawGrid(100, 1)
	}

	r.stats = Stats{
		Opaque:      len(r.list.Opaque),
		Transparent: len(r.list.Transparent),
		DrawCalls:   calls,
		Meshes:      len(r.meshes),
		Textures:    len(r.Textures),
	}
	return r.stats
}

// LastStats devolve as contagens do último Draw.
func (r *Renderer) LastStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Renderer) setUniforms(eye mgl32.Vec3) {
	if !rl.IsShaderValid(r.shader) {
		return
	}
	sun := r.SunDir.Normalize()
	fog := []float32{float32(r.Fog.R) / 255, float32(r.Fog.G) / 255, float32(r.Fog.B) / 255, 1}
	rl.SetShaderValue(r.shader, r.sunLoc, []float32{sun[0], sun[1], sun[2]}, rl.ShaderUniformVec3)
	rl.SetShaderValue(r.shader, r.camPosLoc, []float32{eye[0], eye[1], eye[2]}, rl.ShaderUniformVec3)
	rl.SetShaderValue(r.shader, r.fogColorLoc, fog, rl.ShaderUniformVec4)
	rl.SetShaderValue(r.shader, r.fogDensityLoc, []float32{r.FogDensity}, rl.ShaderUniformFloat)
}

// meshFor devolve a malha unitária da parte, criando e registrando na primeira vez.
// Planos e anéis com textura têm as coordenadas de textura repetidas na própria malha.
func (r *Renderer) meshFor(p props.Part) (string, rl.Mesh) {
	var key string
	switch p.Kind {
	case props.KindBox, props.KindMarker:
		key = "box"
	case props.KindSphere:
		key = "sphere"
	case props.KindCylinder, props.KindDisc:
		key = "cylinder"
	case props.KindCone:
		key = "cone"
	case props.KindPlane:
		key = fmt.Sprintf("plane:%.2f:%.2f", p.TextureRepeat[0], p.TextureRepeat[1])
	case props.KindRing:
		ratio := float32(0)
		if p.Size[0] > 0 {
			ratio = p.Inner / p.Size[0]
		}
		key = fmt.Sprintf("ring:%.3f:%.1f", ratio, p.TextureRepeat[0])
	default:
		key = "box"
	}
	if m, ok := r.meshes[key]; ok {
		return key, m
	}

	var mesh rl.Mesh
	switch key {
	case "box":
		mesh = rl.GenMeshCube(1, 1, 1)
	case "sphere":
		mesh = rl.GenMeshSphere(1, 12, 16)
	case "cylinder":
		mesh = rl.GenMeshCylinder(1, 1, 24)
	case "cone":
		mesh = rl.GenMeshCone(1, 1, 24)
	default:
		if p.Kind == props.KindPlane {
			mesh = toMesh(planeData(p.TextureRepeat))
		} else {
			mesh = toMesh(ringData(p.Inner/max(p.Size[0], 1e-6), p.TextureRepeat[0]))
		}
	}
	r.meshes[key] = mesh
	m := mesh
	_ = r.gpu.Track("mesh:"+key, func() { rl.UnloadMesh(&m) })
	return key, mesh
}

func vec3(v mgl32.Vec3) rl.Vector3 {
	return rl.Vector3{X: v[0], Y: v[1], Z: v[2]}
}

func color(c props.Color) rl.Color {
	return rl.NewColor(c.R, c.G, c.B, c.A)
}

// matrix converte mgl32 (coluna maior) para rl.Matrix (também coluna maior).
func matrix(m mgl32.Mat4) rl.Matrix {
	return rl.Matrix{
		M0: m[0], M1: m[1], M2: m[2], M3: m[3],
		M4: m[4], M5: m[5], M6: m[6], M7: m[7],
		M8: m[8], M9: m[9], M10: m[10], M11: m[11],
		M12: m[12], M13: m[13], M14: m[14], M15: m[15],
	}
}
