package layout

import (
	"image"
	"log"
	"math"
)

const (
	defaultFontSize = 30
	defaultSpacing  = 1.2
)

// DefaultPadding 是未指定留白时两个方向使用的像素值。
const DefaultPadding = 20

// Padding 是画布四周的留白（像素）。
type Padding struct {
	X, Y float64
}

// Options 配置一次渲染调用。零值字段使用默认值。
type Options struct {
	Provider  FontProvider
	Font      string   // 基础字体名
	Fallbacks []string // 回退字体，按优先级排列
	FontSize  float64  // 基础字号（像素）

	// Width/Height 为 0 时按内容自动计算画布尺寸。
	Width  int
	Height int
	// Padding 为 nil 时使用 DefaultPadding；负数视为 0，因此可以显式指定零留白。
	Padding *Padding
	Spacing  float64 // 行距倍数，默认 1.2

	Color      string // 基础文字颜色，默认 black
	Background string // 背景色，为空时背景透明
	Canvas     image.Image
	AutoWrap   bool

	// Logger 非空时记录被忽略的标签属性与无法加载的字体。
	Logger *log.Logger
}

// FontProvider 按名称与像素尺寸提供字体，并可返回字体文件路径。
// 实现需要支持多个 Build 并发读取。
type FontProvider interface {
	Face(name string, size float64) (Face, error)
	Locate(name string) (string, error)
}

// Face 是已确定尺寸的字体句柄。
type Face interface {
	Name() string
	// Size 返回像素高度。
	Size() float64
	Advance(r rune) float64
	Covers(r rune) bool
}

func (o Options) withDefaults() Options {
	if o.FontSize <= 0 {
		o.FontSize = defaultFontSize
	}
	pad := Padding{X: DefaultPadding, Y: DefaultPadding}
	if o.Padding != nil {
		pad = Padding{X: math.Max(o.Padding.X, 0), Y: math.Max(o.Padding.Y, 0)}
	}
	o.Padding = &pad
	if o.Spacing <= 0 {
		o.Spacing = defaultSpacing
	}
	if o.Color == "" {
		o.Color = "black"
	}
	if o.Canvas != nil {
		b := o.Canvas.Bounds()
		if o.Width <= 0 {
			o.Width = b.Dx()
		}
		if o.Height <= 0 {
			o.Height = b.Dy()
		}
	}
	return o
}

func (o Options) logf(format string, args ...any) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}
