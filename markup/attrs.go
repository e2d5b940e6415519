package markup

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	attrLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t]+`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Eq", Pattern: `=`},
		{Name: "Word", Pattern: `[^\s="]+`},
	})

	attrParser = participle.MustBuild[Attr](
		participle.Lexer(attrLexer),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
	)
)

// Attr 是标签体中的一个 key=value 项。
type Attr struct {
	Key   string `parser:"@Word '='"`
	Value string `parser:"@(Word | String)?"`
}

// ParseAttrs 解析 "k=v,k=v" 形式的标签体。
// 按逗号逐项解析，无法解析的项被丢弃，不影响其余项。
func ParseAttrs(body string) []Attr {
	var attrs []Attr
	for _, entry := range strings.Split(body, ",") {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		attr, err := attrParser.ParseString("", entry)
		if err != nil {
			continue
		}
		attrs = append(attrs, *attr)
	}
	return attrs
}

// FontAttrs 对应 [font size=S,name=NAME,color=C,highlight=H]。
// 未出现或无法解析的字段保持零值。
type FontAttrs struct {
	Size      float64
	Name      string
	Color     string
	Highlight string
}

// StyleAttrs 对应 [style height=H,width=W,color=C]。
type StyleAttrs struct {
	Height float64
	Width  float64
	Color  string
}

// ParseFont 解析字体标签体。
func ParseFont(body string) FontAttrs {
	var fa FontAttrs
	for _, attr := range ParseAttrs(body) {
		switch attr.Key {
		case "size":
			fa.Size = parsePositive(attr.Value)
		case "name":
			fa.Name = attr.Value
		case "color":
			fa.Color = attr.Value
		case "highlight":
			fa.Highlight = attr.Value
		}
	}
	return fa
}

// ParseStyle 解析行样式标签体。
func ParseStyle(body string) StyleAttrs {
	var sa StyleAttrs
	for _, attr := range ParseAttrs(body) {
		switch attr.Key {
		case "height":
			sa.Height = parsePositive(attr.Value)
		case "width":
			sa.Width = parsePositive(attr.Value)
		case "color":
			sa.Color = attr.Value
		}
	}
	return sa
}

// AlignTag 是对齐标签解析结果；Name 为 left/right/center/pixel。
type AlignTag struct {
	Name  string
	Pixel float64
}

// ParseAlign 解析 Extract 捕获的完整对齐标签，例如 "[pixel 400]"。
// [pixel] 的偏移量无法解析时返回 false。
func ParseAlign(tag string) (AlignTag, bool) {
	switch tag {
	case "[left]", "[right]", "[center]":
		return AlignTag{Name: tag[1 : len(tag)-1]}, true
	}
	if !strings.HasPrefix(tag, "[pixel") || !strings.HasSuffix(tag, "]") {
		return AlignTag{}, false
	}
	num := strings.TrimSpace(tag[len("[pixel") : len(tag)-1])
	px, err := parseFinite(num)
	if err != nil || px < 0 {
		return AlignTag{}, false
	}
	return AlignTag{Name: "pixel", Pixel: px}, true
}

func parsePositive(value string) float64 {
	f, err := parseFinite(strings.TrimSpace(value))
	if err != nil || f <= 0 {
		return 0
	}
	return f
}

// parseFinite 只接受有限数值；ParseFloat 认可的 inf、NaN 视为非法。
func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("非有限数值: %s", s)
	}
	return f, nil
}
