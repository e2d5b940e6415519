package layout

import (
	"image"
	"image/color"
)

// 该文件定义布局结果与记录类型，供布局计算、渲染与调试 JSON 共用。

// Result 保存一次渲染调用的全部排版记录与画布尺寸（单位：像素）。
type Result struct {
	Records    []Record `json:"records"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	PaddingX   float64  `json:"paddingX"`
	PaddingY   float64  `json:"paddingY"`
	MaxX       float64  `json:"maxX"`
	FinalY     float64  `json:"finalY"`
	Background *Color   `json:"background,omitempty"`
	// Canvas 非空时渲染器在该图像上绘制，而不是新建画布。
	Canvas image.Image `json:"-"`
}

// RecordKind 区分字形记录与横线记录。
type RecordKind int

const (
	KindGlyph RecordKind = iota
	KindRule
)

func (k RecordKind) String() string {
	if k == KindRule {
		return "rule"
	}
	return "glyph"
}

// MarshalText lets debug JSON show "glyph"/"rule".
func (k RecordKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Record 是一条排版记录，生成后不再修改，由渲染器消费一次。
// 字形记录使用 Char/X/EndX/Face/Highlight/Align，横线记录使用 Height。
type Record struct {
	Kind      RecordKind `json:"kind"`
	Char      string     `json:"char,omitempty"`
	X         float64    `json:"x"`
	EndX      float64    `json:"endX"`
	Y         float64    `json:"y"`
	Height    float64    `json:"height,omitempty"`
	Face      Face       `json:"-"`
	FontName  string     `json:"font,omitempty"`
	FontSize  float64    `json:"fontSize,omitempty"`
	Color     Color      `json:"color"`
	Highlight *Color     `json:"highlight,omitempty"`
	Align     Align      `json:"align"`
}

// AlignMode 为水平对齐方式。
type AlignMode int

const (
	AlignLeft AlignMode = iota
	AlignRight
	AlignCenter
	AlignPixel
)

// Align 记录对齐方式；Pixel 仅在 AlignPixel 下有效。
type Align struct {
	Mode  AlignMode `json:"mode"`
	Pixel float64   `json:"pixel,omitempty"`
}

func (a Align) String() string {
	switch a.Mode {
	case AlignRight:
		return "right"
	case AlignCenter:
		return "center"
	case AlignPixel:
		return "pixel"
	default:
		return "left"
	}
}

// MarshalText is used by the debug JSON output.
func (m AlignMode) MarshalText() ([]byte, error) {
	return []byte(Align{Mode: m}.String()), nil
}

// Color 采用 0-255 的 RGBA 数值。
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}.RGBA()
}

// LineState 是逐行维护的可变格式状态。
type LineState struct {
	WrapWidth  float64
	LineHeight float64
	Align      Align
	Face       Face
	Color      Color
	Highlight  *Color
	NoWrap     bool
	AutoWrap   bool
	Passport   bool
}

// Cursor 是排版过程中的游标，仅在一次 Build 内有效。
type Cursor struct {
	X          float64
	Y          float64
	LineHeight float64
	MaxX       float64
}
