package layout

import (
	"math"
	"strings"
)

// layoutSegment 排版一段格式一致的文本。原文段可能带有换行符，
// 换行处与自动换行一样另起一行，纵向偏移增加 gap + 字号。
func (b *builder) layoutSegment(text string) {
	size := b.state.Face.Size()
	for i, piece := range strings.Split(text, "\n") {
		if i > 0 {
			b.breakRow(size)
		}
		b.layoutPiece(piece, size)
	}
	b.cur.LineHeight = math.Max(b.cur.LineHeight, b.rowOffset+size)
}

// layoutPiece 排版不含换行符的文本，必要时先做逐字符自动换行。
func (b *builder) layoutPiece(text string, size float64) {
	st := &b.state
	rows := []string{text}
	if st.WrapWidth > 0 && st.AutoWrap {
		offset := 0.0
		if st.Align.Mode == AlignPixel {
			offset = st.Align.Pixel
		}
		// 预算小于一个字宽时不换行，避免死循环。
		if budget := st.WrapWidth - offset; b.measure(text) > budget-b.cur.X && budget > size {
			rows = b.wrap(text, budget, b.cur.X)
		}
	}

	for i, row := range rows {
		if i > 0 {
			b.breakRow(size)
		}
		for _, r := range row {
			b.place(r)
		}
		b.cur.MaxX = math.Max(b.cur.MaxX, b.cur.X)
	}
}

func (b *builder) breakRow(size float64) {
	b.cur.X = 0
	b.rowOffset += b.gap + size
}

// wrap 贪心地按字符拆行：下一个字符会超出 budget 时另起一行。
// start 为首行已占用的宽度。
func (b *builder) wrap(text string, budget, start float64) []string {
	var rows []string
	var row strings.Builder
	x := start
	for _, r := range text {
		glyph, face := b.resolve(r)
		w := face.Advance(glyph)
		if x+w > budget && (row.Len() > 0 || x > 0) {
			rows = append(rows, row.String())
			row.Reset()
			x = 0
		}
		row.WriteRune(r)
		x += w
	}
	return append(rows, row.String())
}

func (b *builder) measure(text string) float64 {
	total := 0.0
	for _, r := range text {
		glyph, face := b.resolve(r)
		total += face.Advance(glyph)
	}
	return total
}

func (b *builder) place(r rune) {
	st := &b.state
	glyph, face := b.resolve(r)
	x := b.cur.X
	b.cur.X += face.Advance(glyph)
	b.records = append(b.records, Record{
		Kind:      KindGlyph,
		Char:      string(glyph),
		X:         x,
		EndX:      b.cur.X,
		Y:         b.cur.Y + b.rowOffset,
		Face:      face,
		FontName:  face.Name(),
		FontSize:  face.Size(),
		Color:     st.Color,
		Highlight: st.Highlight,
		Align:     st.Align,
	})
}

// resolve 选出能显示 r 的字体：当前字体、回退字体链，都不行时用当前字体画 MissingGlyph。
func (b *builder) resolve(r rune) (rune, Face) {
	active := b.state.Face
	if active.Covers(r) {
		return r, active
	}
	for _, face := range b.fallbackFaces(active.Size()) {
		if face.Covers(r) {
			return r, face
		}
	}
	return MissingGlyph, active
}

// fallbackFaces 返回按当前像素高度加载的回退字体，加载失败的字体被跳过。
func (b *builder) fallbackFaces(size float64) []Face {
	if faces, ok := b.fallbacks[size]; ok {
		return faces
	}
	faces := make([]Face, 0, len(b.opts.Fallbacks))
	for _, name := range b.opts.Fallbacks {
		face, err := b.opts.Provider.Face(name, size)
		if err != nil {
			b.opts.logf("回退字体 %s 加载失败: %v", name, err)
			continue
		}
		faces = append(faces, face)
	}
	b.fallbacks[size] = faces
	return faces
}
