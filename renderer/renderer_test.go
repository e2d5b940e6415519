package renderer_test

import (
	"image"
	"math"
	"strings"
	"testing"

	"github.com/ByLCY/linecard/fonts"
	"github.com/ByLCY/linecard/layout"
	"github.com/ByLCY/linecard/renderer"
)

type command struct {
	op     string
	x0, x1 float64
	y      float64
	char   string
	face   layout.Face
}

// recordingSink 记录绘制命令，便于断言顺序与坐标。
type recordingSink struct {
	width, height int
	cmds          []command
}

func (s *recordingSink) Begin(width, height int, background *layout.Color, base image.Image) error {
	s.width, s.height = width, height
	return nil
}

func (s *recordingSink) FillRect(x0, y0, x1, y1 float64, col layout.Color) {
	s.cmds = append(s.cmds, command{op: "rect", x0: x0, x1: x1, y: y0})
}

func (s *recordingSink) HLine(y, x0, x1, thickness float64, col layout.Color) {
	s.cmds = append(s.cmds, command{op: "line", x0: x0, x1: x1, y: y})
}

func (s *recordingSink) Glyph(x, top float64, char string, face layout.Face, col layout.Color) error {
	s.cmds = append(s.cmds, command{op: "glyph", x0: x, y: top, char: char, face: face})
	return nil
}

func row(text string, y, advance float64, align layout.Align) []layout.Record {
	var recs []layout.Record
	x := 0.0
	for _, r := range text {
		recs = append(recs, layout.Record{
			Kind:     layout.KindGlyph,
			Char:     string(r),
			X:        x,
			EndX:     x + advance,
			Y:        y,
			FontSize: 20,
			Align:    align,
		})
		x += advance
	}
	return recs
}

func draw(t *testing.T, res *layout.Result) *recordingSink {
	t.Helper()
	sink := &recordingSink{}
	if err := renderer.Draw(res, sink); err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	return sink
}

func TestDrawAlignments(t *testing.T) {
	right := layout.Align{Mode: layout.AlignRight}
	center := layout.Align{Mode: layout.AlignCenter}
	var recs []layout.Record
	recs = append(recs, row("ab", 0, 10, layout.Align{})...)
	recs = append(recs, row("cde", 0, 10, right)...)
	recs = append(recs, row("fg", 30, 10, right)...)
	recs = append(recs, row("hi", 30, 10, center)...)
	recs = append(recs, row("j", 60, 10, layout.Align{Mode: layout.AlignPixel, Pixel: 123})...)

	res := &layout.Result{Records: recs, Width: 200, Height: 120, PaddingX: 20, PaddingY: 5}
	sink := draw(t, res)
	if sink.width != 200 || sink.height != 120 {
		t.Fatalf("unexpected canvas %dx%d", sink.width, sink.height)
	}

	xs := map[string]float64{}
	ys := map[string]float64{}
	for _, c := range sink.cmds {
		xs[c.char] = c.x0
		ys[c.char] = c.y
	}
	want := map[string]float64{
		"a": 20, "b": 30, // 左对齐：留白
		"c": 150, "e": 170, // 右对齐：200-20-30
		"f": 160, "g": 170, // 新的一行单独成组：200-20-20
		"h": 90, "i": 100, // 居中：(200-20)/2
		"j": 123, // 像素对齐
	}
	for ch, x := range want {
		if xs[ch] != x {
			t.Fatalf("glyph %s: expected x=%g, got %g", ch, x, xs[ch])
		}
	}
	if ys["a"] != 5 || ys["f"] != 35 {
		t.Fatalf("vertical padding not applied: %v", ys)
	}
}

func TestRunBoundaries(t *testing.T) {
	right := layout.Align{Mode: layout.AlignRight}
	recs := append(row("abc", 0, 10, right), row("de", 24, 10, right)...)
	if end := renderer.RunEnd(recs, 0); end != 3 {
		t.Fatalf("run must stop at row change, got %d", end)
	}
	recs = append(row("ab", 0, 10, right), row("cd", 0, 10, layout.Align{Mode: layout.AlignCenter})...)
	if end := renderer.RunEnd(recs, 0); end != 2 {
		t.Fatalf("run must stop at alignment change, got %d", end)
	}
}

func TestHighlightBeforeGlyph(t *testing.T) {
	yellow := layout.Color{R: 255, G: 255, A: 255}
	recs := row("a", 0, 12, layout.Align{})
	recs[0].Highlight = &yellow
	sink := draw(t, &layout.Result{Records: recs, Width: 50, Height: 50, PaddingX: 10, PaddingY: 10})
	if len(sink.cmds) != 2 || sink.cmds[0].op != "rect" || sink.cmds[1].op != "glyph" {
		t.Fatalf("expected rect then glyph, got %+v", sink.cmds)
	}
	if sink.cmds[0].x0 != 10 || sink.cmds[0].x1 != 22 || sink.cmds[0].y != 10 {
		t.Fatalf("unexpected highlight rect %+v", sink.cmds[0])
	}
}

func TestRuleSpansCanvas(t *testing.T) {
	recs := []layout.Record{{Kind: layout.KindRule, Y: 24, Height: 20}}
	sink := draw(t, &layout.Result{Records: recs, Width: 300, Height: 80, PaddingX: 20, PaddingY: 20})
	c := sink.cmds[0]
	if c.op != "line" || c.x0 != 0 || c.x1 != 300 || c.y != 24+20+10 {
		t.Fatalf("unexpected rule command %+v", c)
	}
}

func TestDrawRejectsEmptyResult(t *testing.T) {
	if err := renderer.Draw(nil, &recordingSink{}); err == nil {
		t.Fatalf("expected error for nil result")
	}
	if err := renderer.Draw(&layout.Result{}, &recordingSink{}); err == nil {
		t.Fatalf("expected error for zero-sized canvas")
	}
}

// 右对齐的最后一个字形应恰好结束于 画布宽度-留白。
func TestRightAlignedRowEndsAtPadding(t *testing.T) {
	lib := fonts.NewLibrary(fonts.Options{Dirs: []string{t.TempDir()}})
	res, err := layout.Build("[right]Right aligned text\n[center]centered", layout.Options{
		Provider: lib,
		FontSize: 24,
		Width:    600,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	sink := draw(t, res)

	var last command
	for _, c := range sink.cmds {
		if c.op == "glyph" && c.y == res.PaddingY {
			last = c
		}
	}
	if last.char != "t" {
		t.Fatalf("expected last glyph t, got %q", last.char)
	}
	end := last.x0 + last.face.Advance('t')
	if math.Abs(end-(600-res.PaddingX)) > 1e-6 {
		t.Fatalf("right run should end at %g, got %g", 600-res.PaddingX, end)
	}
	if n := strings.Count("Right aligned text", "") - 1; countGlyphs(sink, res.PaddingY) != n {
		t.Fatalf("expected %d glyphs in first row", n)
	}
}

func countGlyphs(sink *recordingSink, y float64) int {
	n := 0
	for _, c := range sink.cmds {
		if c.op == "glyph" && c.y == y {
			n++
		}
	}
	return n
}

// 自动换行后的右对齐行按行分组，每一行都贴齐右侧留白。
func TestWrappedRightRowsAlignIndependently(t *testing.T) {
	lib := fonts.NewLibrary(fonts.Options{Dirs: []string{t.TempDir()}})
	res, err := layout.Build("[right][autowrap]"+strings.Repeat("m", 40), layout.Options{
		Provider: lib,
		Font:     "Go-Mono",
		FontSize: 20,
		Width:    300,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	sink := draw(t, res)

	last := map[float64]command{}
	for _, c := range sink.cmds {
		if c.op == "glyph" {
			last[c.y] = c
		}
	}
	if len(last) < 2 {
		t.Fatalf("expected the line to wrap into several rows, got %d", len(last))
	}
	for y, c := range last {
		end := c.x0 + c.face.Advance('m')
		if math.Abs(end-(300-res.PaddingX)) > 1e-6 {
			t.Fatalf("row y=%g should end at %g, got %g", y, 300-res.PaddingX, end)
		}
	}
}
