package layout

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

var (
	black = Color{A: 255}
	gray  = Color{R: 128, G: 128, B: 128, A: 255}
)

// ParseColor 支持 #rgb、#rrggbb、#rrggbbaa 以及 SVG 颜色名（red、gray、yellow 等）。
func ParseColor(value string) (Color, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Color{}, fmt.Errorf("颜色值为空")
	}
	if c, ok := colornames.Map[strings.ToLower(value)]; ok {
		return Color{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	if !strings.HasPrefix(value, "#") {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	hex := value[1:]
	switch len(hex) {
	case 3:
		hex = strings.Repeat(hex[0:1], 2) + strings.Repeat(hex[1:2], 2) + strings.Repeat(hex[2:3], 2) + "ff"
	case 6:
		hex += "ff"
	case 8:
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
