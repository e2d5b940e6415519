package canvasrenderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/linecard/fonts"
	"github.com/ByLCY/linecard/layout"
	"github.com/ByLCY/linecard/renderer"
)

// Renderer 通过 tdewolff/canvas 绘制布局结果。
// 它同时作为排版阶段的字体提供者，保证测量与绘制使用同一份字体。
type Renderer struct {
	*fonts.Library
}

var (
	_ renderer.Renderer   = (*Renderer)(nil)
	_ layout.FontProvider = (*Renderer)(nil)
)

// NewRenderer 创建基于 canvas 的渲染器；lib 为 nil 时使用系统字体目录。
func NewRenderer(lib *fonts.Library) *Renderer {
	if lib == nil {
		lib = fonts.NewLibrary(fonts.Options{})
	}
	return &Renderer{Library: lib}
}

// RenderText 串联排版与渲染，返回 PNG 字节。未指定字体提供者时使用本渲染器的字体库。
func (r *Renderer) RenderText(text string, opts layout.Options) ([]byte, error) {
	if opts.Provider == nil {
		opts.Provider = r
	}
	result, err := layout.Build(text, opts)
	if err != nil {
		return nil, fmt.Errorf("布局计算失败: %w", err)
	}
	return r.Render(result)
}

// Render 将布局结果渲染为 PNG 字节。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	img, err := r.Image(result)
	if err != nil {
		return nil, err
	}
	return renderer.EncodePNG(img)
}

// Image 光栅化布局结果。字形与图形先绘制到透明画布，再叠加到背景色或底图上。
func (r *Renderer) Image(result *layout.Result) (*image.RGBA, error) {
	s := &sink{}
	if err := renderer.Draw(result, s); err != nil {
		return nil, err
	}
	drawn := rasterizer.Draw(s.c, canvas.DPMM(1.0), canvas.DefaultColorSpace)

	bounds := image.Rect(0, 0, s.width, s.height)
	out := image.NewRGBA(bounds)
	switch {
	case s.base != nil:
		draw.Draw(out, bounds, s.base, s.base.Bounds().Min, draw.Src)
	case s.background != nil:
		draw.Draw(out, bounds, image.NewUniform(*s.background), image.Point{}, draw.Src)
	}
	draw.Draw(out, bounds, drawn, drawn.Bounds().Min, draw.Over)
	return out, nil
}

// sink 将绘制命令转换为 canvas 路径与文本。
type sink struct {
	c   *canvas.Canvas
	ctx *canvas.Context

	width, height int
	background    *layout.Color
	base          image.Image
}

func (s *sink) Begin(width, height int, background *layout.Color, base image.Image) error {
	s.width, s.height = width, height
	s.background, s.base = background, base
	s.c = canvas.New(float64(width), float64(height))
	s.ctx = canvas.NewContext(s.c)
	s.ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	return nil
}

func (s *sink) FillRect(x0, y0, x1, y1 float64, col layout.Color) {
	s.ctx.SetFillColor(colorFromLayout(col))
	s.ctx.SetStrokeColor(color.RGBA{})
	s.ctx.DrawPath(x0, y0, canvas.Rectangle(x1-x0, y1-y0))
}

func (s *sink) HLine(y, x0, x1, thickness float64, col layout.Color) {
	s.ctx.SetStrokeColor(colorFromLayout(col))
	s.ctx.SetStrokeWidth(thickness)
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(x1-x0, 0)
	s.ctx.DrawPath(x0, y, p)
}

func (s *sink) Glyph(x, top float64, char string, face layout.Face, col layout.Color) error {
	f, ok := face.(*fonts.Face)
	if !ok {
		return fmt.Errorf("canvas 渲染器无法使用字体 %T", face)
	}
	ff := f.CanvasFace(colorFromLayout(col))
	// 基线位置：字形框顶部加上字体上升部
	baseline := top + ff.Metrics().Ascent
	s.ctx.DrawText(x, baseline, canvas.NewTextLine(ff, char, canvas.Left))
	return nil
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, float64(c.A)/255.0)
}
