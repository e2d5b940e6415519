package fonts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
)

// DefaultFont 是未指定字体名时使用的内置字体。
const DefaultFont = "Go-Regular"

const embedPrefix = "embed:"

var builtin = map[string][]byte{
	"go-regular":   goregular.TTF,
	"go-bold":      gobold.TTF,
	"go-italic":    goitalic.TTF,
	"go-medium":    gomedium.TTF,
	"go-mono":      gomono.TTF,
	"go-mono-bold": gomonobold.TTF,
	"go-smallcaps": gosmallcaps.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:Go-Mono" 或直接 "Go-Mono"（不区分大小写）。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimPrefix(name, embedPrefix))
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 不存在", name)
	}
	return data, nil
}

// Builtin 返回全部内置字体名。
func Builtin() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isBuiltin(name string) bool {
	_, ok := builtin[strings.ToLower(strings.TrimPrefix(name, embedPrefix))]
	return ok
}
