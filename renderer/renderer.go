package renderer

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/ByLCY/linecard/layout"
)

// RuleThickness 是 ---- 横线的线宽（像素）。
const RuleThickness = 4

// Renderer 将布局结果输出为图像或编码后的 PNG 字节。
type Renderer interface {
	Image(result *layout.Result) (*image.RGBA, error)
	Render(result *layout.Result) ([]byte, error)
}

// Sink 接收按顺序发出的绘制命令，由具体后端完成光栅化。坐标单位为像素，原点在左上角。
type Sink interface {
	// Begin 创建 width×height 画布；base 非空时以其为底图，否则以 background 填充（nil 为透明）。
	Begin(width, height int, background *layout.Color, base image.Image) error
	FillRect(x0, y0, x1, y1 float64, col layout.Color)
	HLine(y, x0, x1, thickness float64, col layout.Color)
	// Glyph 以 (x, top) 为字形框左上角绘制单个字符。
	Glyph(x, top float64, char string, face layout.Face, col layout.Color) error
}

// Draw 顺序扫描排版记录并向 sink 发出绘制命令。
// 左对齐与像素对齐的字形立即绘制；右对齐/居中的字形先收集同一行、同一对齐方式的连续记录，
// 以最后一条记录的 EndX 统一计算起点后再绘制。
func Draw(result *layout.Result, sink Sink) error {
	if result == nil {
		return fmt.Errorf("渲染结果为空")
	}
	if result.Width <= 0 || result.Height <= 0 {
		return fmt.Errorf("画布尺寸非法: %dx%d", result.Width, result.Height)
	}
	if err := sink.Begin(result.Width, result.Height, result.Background, result.Canvas); err != nil {
		return err
	}

	width := float64(result.Width)
	recs := result.Records
	for i := 0; i < len(recs); {
		rec := recs[i]
		if rec.Kind == layout.KindRule {
			sink.HLine(rec.Y+result.PaddingY+rec.Height/2, 0, width, RuleThickness, rec.Color)
			i++
			continue
		}

		switch rec.Align.Mode {
		case layout.AlignPixel:
			if err := drawGlyph(sink, rec, rec.Align.Pixel, result.PaddingY); err != nil {
				return err
			}
			i++
		case layout.AlignLeft:
			if err := drawGlyph(sink, rec, result.PaddingX, result.PaddingY); err != nil {
				return err
			}
			i++
		default:
			end := RunEnd(recs, i)
			anchor := RunAnchor(recs[end-1], width, result.PaddingX)
			for _, member := range recs[i:end] {
				if err := drawGlyph(sink, member, anchor, result.PaddingY); err != nil {
					return err
				}
			}
			i = end
		}
	}
	return nil
}

// RunEnd 返回从 start 开始的对齐组的结束下标（不含）：组在行（Y）或对齐方式变化处结束。
func RunEnd(recs []layout.Record, start int) int {
	first := recs[start]
	end := start + 1
	for end < len(recs) {
		next := recs[end]
		if next.Kind != layout.KindGlyph || next.Y != first.Y || next.Align != first.Align {
			break
		}
		end++
	}
	return end
}

// RunAnchor 计算对齐组的起点 x。
func RunAnchor(last layout.Record, width, paddingX float64) float64 {
	switch last.Align.Mode {
	case layout.AlignRight:
		return width - paddingX - last.EndX
	case layout.AlignCenter:
		return (width - last.EndX) / 2
	case layout.AlignPixel:
		return last.Align.Pixel
	default:
		return paddingX
	}
}

func drawGlyph(sink Sink, rec layout.Record, anchor, paddingY float64) error {
	top := rec.Y + paddingY
	if rec.Highlight != nil {
		sink.FillRect(anchor+rec.X, top, anchor+rec.EndX, top+rec.FontSize, *rec.Highlight)
	}
	return sink.Glyph(anchor+rec.X, top, rec.Char, rec.Face, rec.Color)
}

// EncodePNG 将图像编码为 PNG 字节。
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}
