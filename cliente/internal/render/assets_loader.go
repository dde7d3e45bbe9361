package render

import (
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// texture devolve a textura name, carregando de TextureDir na primeira vez.
// Falhas são lembradas para não tentar de novo a cada frame.
func (r *Renderer) texture(name string) (rl.Texture2D, bool) {
	if name == "" {
		return rl.Texture2D{}, false
	}
	if tex, ok := r.Textures[name]; ok {
		return tex, true
	}
	if r.missing[name] {
		return rl.Texture2D{}, false
	}
	return r.loadSingleTexture(name, filepath.Join(r.TextureDir, name+".png"))
}

func (r *Renderer) loadSingleTexture(name, path string) (rl.Texture2D, bool) {
	tex := rl.LoadTexture(path)
	if tex.ID == 0 {
		r.missing[name] = true
		r.log.Warn().Str("path", path).Msg("FALHA ao carregar textura, usando só a cor")
		return tex, false
	}
	rl.GenTextureMipmaps(&tex)
	rl.SetTextureFilter(tex, rl.FilterTrilinear)
	rl.SetTextureWrap(tex, rl.WrapRepeat)
	r.Textures[name] = tex
	_ = r.gpu.Track("texture:"+name, func() { rl.UnloadTexture(tex) })
	r.log.Debug().Str("path", path).Msg("Textura carregada")
	return tex, true
}

// bindTexture prende a textura da parte no material, ou a textura branca padrão.
func (r *Renderer) bindTexture(name string) {
	tex, ok := r.texture(name)
	if !ok {
		tex = r.whiteTex
	}
	if r.material.Maps.Texture.ID != tex.ID {
		rl.SetMaterialTexture(&r.material, rl.MapDiffuse, tex)
	}
}
