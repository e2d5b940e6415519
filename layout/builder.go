package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/ByLCY/linecard/markup"
)

// MissingGlyph 用于替换所有字体都无法显示的字符。
const MissingGlyph = '□'

const ruleLine = "----"

// Build 解析带标签的文本并计算每个字形的位置，返回可直接交给渲染器的记录列表。
// 除基础字体无法加载、颜色配置非法外，标签错误都只会被忽略，不会中断排版。
func Build(text string, opts Options) (*Result, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("layout: 缺少字体提供者 FontProvider")
	}
	opts = opts.withDefaults()

	base, err := opts.Provider.Face(opts.Font, opts.FontSize)
	if err != nil {
		return nil, fmt.Errorf("layout: 无法加载基础字体 %q: %w", opts.Font, err)
	}
	baseColor, err := ParseColor(opts.Color)
	if err != nil {
		return nil, fmt.Errorf("layout: 基础文字颜色非法: %w", err)
	}
	var background *Color
	if opts.Background != "" {
		bg, err := ParseColor(opts.Background)
		if err != nil {
			return nil, fmt.Errorf("layout: 背景颜色非法: %w", err)
		}
		background = &bg
	}

	b := &builder{
		opts:      opts,
		base:      base,
		baseColor: baseColor,
		gap:       math.Floor(opts.FontSize*(opts.Spacing-1) + 0.5),
		ex:        markup.Extract(text),
		fallbacks: map[float64][]Face{},
	}
	if opts.Width > 0 {
		b.wrapWidth = math.Max(float64(opts.Width)-2*opts.Padding.X, 0)
	}
	b.run()

	res := &Result{
		Records:    b.records,
		Width:      opts.Width,
		Height:     opts.Height,
		PaddingX:   opts.Padding.X,
		PaddingY:   opts.Padding.Y,
		MaxX:       b.cur.MaxX,
		FinalY:     b.cur.Y,
		Background: background,
		Canvas:     opts.Canvas,
	}
	if res.Width <= 0 {
		res.Width = int(math.Ceil(b.cur.MaxX + 2*opts.Padding.X))
	}
	if res.Height <= 0 {
		res.Height = int(math.Ceil(b.cur.Y + 2*opts.Padding.Y))
	}
	return res, nil
}

type builder struct {
	opts      Options
	base      Face
	baseColor Color
	wrapWidth float64
	gap       float64

	ex      markup.Extracted
	state   LineState
	cur     Cursor
	records []Record

	// rowOffset 为当前逻辑行内自动换行产生的纵向偏移。
	rowOffset float64
	fallbacks map[float64][]Face
}

func (b *builder) run() {
	for _, line := range strings.Split(b.ex.Text, "\n") {
		// 检查继承格式
		if b.state.Passport {
			b.state.Passport = false
		} else {
			b.reset()
		}

		line, ruleColor := b.applyLineTags(line)
		if line == ruleLine {
			b.appendRule(ruleColor)
		} else {
			b.layoutLine(line)
		}
		b.endLine()
	}
}

// reset 恢复文档级默认格式；上一行为 [nowrap] 时保留其对齐方式。
func (b *builder) reset() {
	align := Align{}
	if b.state.NoWrap {
		align = b.state.Align
	}
	b.state = LineState{
		WrapWidth:  b.wrapWidth,
		LineHeight: b.opts.FontSize,
		Align:      align,
		Face:       b.base,
		Color:      b.baseColor,
		AutoWrap:   b.opts.AutoWrap,
	}
	b.cur.LineHeight = 0
}

// applyLineTags 依次去除 style、nowrap、noautowrap、autowrap、passport 行级标签。
func (b *builder) applyLineTags(line string) (string, Color) {
	st := &b.state
	ruleColor := gray

	if rest, body, ok := markup.StripLineTag(line, "style"); ok {
		line = rest
		sa := markup.ParseStyle(body)
		if sa.Height > 0 {
			st.LineHeight = sa.Height
		}
		if sa.Width > 0 {
			st.WrapWidth = sa.Width
		}
		if sa.Color != "" {
			if c, err := ParseColor(sa.Color); err == nil {
				st.Color = c
				ruleColor = c
			} else {
				b.opts.logf("忽略 style 颜色: %v", err)
			}
		}
	}
	if rest, _, ok := markup.StripLineTag(line, "nowrap"); ok {
		line = rest
		st.NoWrap = true
	}
	if rest, _, ok := markup.StripLineTag(line, "noautowrap"); ok {
		line = rest
		st.AutoWrap = false
	}
	if rest, _, ok := markup.StripLineTag(line, "autowrap"); ok {
		line = rest
		st.AutoWrap = true
	}
	if rest, _, ok := markup.StripLineTag(line, "passport"); ok {
		line = rest
		st.Passport = true
	}
	return line, ruleColor
}

func (b *builder) appendRule(col Color) {
	height := b.state.LineHeight
	if height <= 0 {
		height = b.opts.FontSize
	}
	b.records = append(b.records, Record{
		Kind:   KindRule,
		Y:      b.cur.Y,
		Height: height,
		Color:  col,
	})
	b.cur.X = 0
}

// layoutLine 按占位符切分一行：原文段插回原始文本，字体/对齐占位符各消费一项标签流。
func (b *builder) layoutLine(line string) {
	b.rowOffset = 0
	var seg strings.Builder
	flush := func() {
		if seg.Len() > 0 {
			b.layoutSegment(seg.String())
			seg.Reset()
		}
	}

	for _, r := range line {
		switch r {
		case markup.RawPlaceholder:
			flush()
			if raw, ok := b.ex.Raw.Pop(); ok {
				seg.WriteString(raw)
			}
		case markup.FontPlaceholder:
			flush()
			if body, ok := b.ex.Font.Pop(); ok {
				b.applyFont(body)
			}
		case markup.AlignPlaceholder:
			flush()
			if tag, ok := b.ex.Align.Pop(); ok {
				b.applyAlign(tag)
			}
		default:
			seg.WriteRune(r)
		}
	}
	flush()
}

func (b *builder) applyFont(body string) {
	st := &b.state
	fa := markup.ParseFont(body)

	if fa.Size > 0 || fa.Name != "" {
		name, size := st.Face.Name(), st.Face.Size()
		if fa.Name != "" {
			if _, err := b.opts.Provider.Locate(fa.Name); err == nil {
				name = fa.Name
			} else {
				b.opts.logf("找不到字体 %s，保留当前字体: %v", fa.Name, err)
			}
		}
		if fa.Size > 0 {
			size = fa.Size
		}
		if face, err := b.opts.Provider.Face(name, size); err == nil {
			st.Face = face
		} else {
			b.opts.logf("加载字体 %s(%g) 失败，保留当前字体: %v", name, size, err)
		}
	}

	if fa.Color != "" {
		if c, err := ParseColor(fa.Color); err == nil {
			st.Color = c
		} else {
			b.opts.logf("忽略 font 颜色: %v", err)
		}
	}

	// 每个字体标签都会重新设置高亮，未指定时清除。
	st.Highlight = nil
	if fa.Highlight != "" {
		if c, err := ParseColor(fa.Highlight); err == nil {
			st.Highlight = &c
		} else {
			b.opts.logf("忽略 highlight 颜色: %v", err)
		}
	}
}

func (b *builder) applyAlign(tag string) {
	at, ok := markup.ParseAlign(tag)
	if !ok {
		b.opts.logf("忽略对齐标签 %s", tag)
		return
	}
	next := Align{}
	switch at.Name {
	case "right":
		next.Mode = AlignRight
	case "center":
		next.Mode = AlignCenter
	case "pixel":
		next = Align{Mode: AlignPixel, Pixel: at.Pixel}
	}
	if next != b.state.Align {
		b.cur.X = 0
	}
	b.state.Align = next
}

func (b *builder) endLine() {
	height := math.Max(b.state.LineHeight, b.cur.LineHeight)
	if !b.state.NoWrap {
		b.cur.X = 0
		b.cur.Y += b.gap + height
	}
	b.cur.LineHeight = 0
	b.rowOffset = 0
}
