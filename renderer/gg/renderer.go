package ggrenderer

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"github.com/ByLCY/linecard/fonts"
	"github.com/ByLCY/linecard/layout"
	"github.com/ByLCY/linecard/renderer"
)

// Renderer 使用 gg.Context 直接在 RGBA 图像上绘制，字体与排版共用同一个字体库。
type Renderer struct {
	*fonts.Library
}

var (
	_ renderer.Renderer   = (*Renderer)(nil)
	_ layout.FontProvider = (*Renderer)(nil)
)

// NewRenderer 创建基于 gg 的渲染器；lib 为 nil 时使用系统字体目录。
func NewRenderer(lib *fonts.Library) *Renderer {
	if lib == nil {
		lib = fonts.NewLibrary(fonts.Options{})
	}
	return &Renderer{Library: lib}
}

// Render 将布局结果渲染为 PNG 字节。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	img, err := r.Image(result)
	if err != nil {
		return nil, err
	}
	return renderer.EncodePNG(img)
}

// Image 光栅化布局结果。
func (r *Renderer) Image(result *layout.Result) (*image.RGBA, error) {
	s := &sink{faces: map[*fonts.Face]font.Face{}}
	defer s.close()
	if err := renderer.Draw(result, s); err != nil {
		return nil, err
	}
	return s.img, nil
}

// sink 直接在 RGBA 图像上绘制；opentype 字体面不支持并发，只在一次 Image 调用内复用。
type sink struct {
	img   *image.RGBA
	dc    *gg.Context
	faces map[*fonts.Face]font.Face
}

func (s *sink) Begin(width, height int, background *layout.Color, base image.Image) error {
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	switch {
	case base != nil:
		draw.Draw(s.img, s.img.Bounds(), base, base.Bounds().Min, draw.Src)
	case background != nil:
		draw.Draw(s.img, s.img.Bounds(), image.NewUniform(*background), image.Point{}, draw.Src)
	}
	s.dc = gg.NewContextForRGBA(s.img)
	return nil
}

func (s *sink) FillRect(x0, y0, x1, y1 float64, col layout.Color) {
	s.dc.SetColor(col)
	s.dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	s.dc.Fill()
}

func (s *sink) HLine(y, x0, x1, thickness float64, col layout.Color) {
	s.dc.SetColor(col)
	s.dc.SetLineWidth(thickness)
	s.dc.DrawLine(x0, y, x1, y)
	s.dc.Stroke()
}

func (s *sink) Glyph(x, top float64, char string, face layout.Face, col layout.Color) error {
	f, ok := face.(*fonts.Face)
	if !ok {
		return fmt.Errorf("gg 渲染器无法使用字体 %T", face)
	}
	ff, err := s.face(f)
	if err != nil {
		return err
	}
	s.dc.SetFontFace(ff)
	s.dc.SetColor(col)
	ascent := float64(ff.Metrics().Ascent) / 64
	s.dc.DrawString(char, x, top+ascent)
	return nil
}

func (s *sink) face(f *fonts.Face) (font.Face, error) {
	if ff, ok := s.faces[f]; ok {
		return ff, nil
	}
	ff, err := opentype.NewFace(f.Font().SFNT(), &opentype.FaceOptions{
		Size:    f.Size(),
		DPI:     72, // 72 DPI 下字号即像素
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("创建字体 %s 失败: %w", f.Name(), err)
	}
	s.faces[f] = ff
	return ff, nil
}

func (s *sink) close() {
	for _, ff := range s.faces {
		ff.Close()
	}
}
