package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/linecard/binding"
	"github.com/ByLCY/linecard/fonts"
	"github.com/ByLCY/linecard/layout"
	"github.com/ByLCY/linecard/renderer"
	canvasrenderer "github.com/ByLCY/linecard/renderer/canvas"
	ggrenderer "github.com/ByLCY/linecard/renderer/gg"
)

// config 汇总命令行参数与 TOML 配置文件；显式给出的命令行参数覆盖配置文件。
type config struct {
	Input    string `toml:"in"`
	Output   string `toml:"out"`
	Debug    string `toml:"debug"`
	Data     string `toml:"data"`
	Base     string `toml:"base"`
	Renderer string `toml:"renderer"`

	Font       string   `toml:"font"`
	Fallbacks  []string `toml:"fallbacks"`
	FontDirs   []string `toml:"font_dirs"`
	FontSize   float64  `toml:"font_size"`
	Width      int      `toml:"width"`
	Height     int      `toml:"height"`
	PaddingX   *float64 `toml:"padding_x"`
	PaddingY   *float64 `toml:"padding_y"`
	Spacing    float64  `toml:"spacing"`
	Color      string   `toml:"color"`
	Background string   `toml:"background"`
	AutoWrap   bool     `toml:"autowrap"`
	Verbose    bool     `toml:"verbose"`
}

func defaultConfig() config {
	return config{
		Input:    "-",
		Output:   "output/linecard.png",
		Renderer: "canvas",
	}
}

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		log.Fatalf("参数错误: %v", err)
	}
	if err := run(cfg, os.Stdin); err != nil {
		log.Fatalf("生成图片失败: %v", err)
	}
	fmt.Printf("已生成图片：%s\n", cfg.Output)
}

// parseArgs 解析命令行；-config 指定的 TOML 文件先于显式参数生效。
func parseArgs(args []string) (config, error) {
	fs := flag.NewFlagSet("linecard", flag.ContinueOnError)
	flags := defaultConfig()
	var configPath, fallbacks, fontDirs string
	var padX, padY float64

	fs.StringVar(&configPath, "config", "", "TOML 配置文件路径")
	fs.StringVar(&flags.Input, "in", flags.Input, "标记文本路径，- 表示标准输入")
	fs.StringVar(&flags.Output, "out", flags.Output, "PNG 输出路径")
	fs.StringVar(&flags.Debug, "debug", "", "排版调试 JSON 输出路径")
	fs.StringVar(&flags.Data, "data", "", "绑定到 ${path} 占位符的 JSON 数据")
	fs.StringVar(&flags.Base, "base", "", "作为底图的图片路径（png/jpeg/bmp/webp）")
	fs.StringVar(&flags.Renderer, "renderer", flags.Renderer, "光栅化后端：canvas 或 gg")
	fs.StringVar(&flags.Font, "font", "", "基础字体名或字体文件路径")
	fs.StringVar(&fallbacks, "fallbacks", "", "逗号分隔的回退字体")
	fs.StringVar(&fontDirs, "fonts", "", "逗号分隔的字体搜索目录，默认系统字体目录")
	fs.Float64Var(&flags.FontSize, "size", 0, "基础字号（像素），默认 30")
	fs.IntVar(&flags.Width, "width", 0, "画布宽度，0 为自动")
	fs.IntVar(&flags.Height, "height", 0, "画布高度，0 为自动")
	fs.Float64Var(&padX, "padx", layout.DefaultPadding, "水平留白")
	fs.Float64Var(&padY, "pady", layout.DefaultPadding, "垂直留白")
	fs.Float64Var(&flags.Spacing, "spacing", 0, "行距倍数，默认 1.2")
	fs.StringVar(&flags.Color, "color", "", "基础文字颜色")
	fs.StringVar(&flags.Background, "bg", "", "背景色，为空时透明")
	fs.BoolVar(&flags.AutoWrap, "autowrap", false, "按画布宽度自动换行")
	fs.BoolVar(&flags.Verbose, "v", false, "输出被忽略的标签属性")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	flags.Fallbacks = splitList(fallbacks)
	flags.FontDirs = splitList(fontDirs)
	flags.PaddingX, flags.PaddingY = &padX, &padY

	cfg := defaultConfig()
	if configPath != "" {
		if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
			return config{}, fmt.Errorf("读取配置文件 %s 失败: %w", configPath, err)
		}
	}
	fs.Visit(func(f *flag.Flag) {
		override(&cfg, &flags, f.Name)
	})
	if fs.NArg() > 0 && cfg.Input == "-" {
		cfg.Input = fs.Arg(0)
	}
	return cfg, nil
}

func override(dst, src *config, name string) {
	switch name {
	case "in":
		dst.Input = src.Input
	case "out":
		dst.Output = src.Output
	case "debug":
		dst.Debug = src.Debug
	case "data":
		dst.Data = src.Data
	case "base":
		dst.Base = src.Base
	case "renderer":
		dst.Renderer = src.Renderer
	case "font":
		dst.Font = src.Font
	case "fallbacks":
		dst.Fallbacks = src.Fallbacks
	case "fonts":
		dst.FontDirs = src.FontDirs
	case "size":
		dst.FontSize = src.FontSize
	case "width":
		dst.Width = src.Width
	case "height":
		dst.Height = src.Height
	case "padx":
		dst.PaddingX = src.PaddingX
	case "pady":
		dst.PaddingY = src.PaddingY
	case "spacing":
		dst.Spacing = src.Spacing
	case "color":
		dst.Color = src.Color
	case "bg":
		dst.Background = src.Background
	case "autowrap":
		dst.AutoWrap = src.AutoWrap
	case "v":
		dst.Verbose = src.Verbose
	}
}

// padding 只在配置或参数给出留白时返回非空值，未给出的方向使用默认值。
func (c config) padding() *layout.Padding {
	if c.PaddingX == nil && c.PaddingY == nil {
		return nil
	}
	pad := layout.Padding{X: layout.DefaultPadding, Y: layout.DefaultPadding}
	if c.PaddingX != nil {
		pad.X = *c.PaddingX
	}
	if c.PaddingY != nil {
		pad.Y = *c.PaddingY
	}
	return &pad
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// run 串联数据绑定、排版与渲染。
func run(cfg config, stdin io.Reader) error {
	text, err := readInput(cfg.Input, stdin)
	if err != nil {
		return err
	}
	if cfg.Data != "" {
		var data any
		if err := json.Unmarshal([]byte(cfg.Data), &data); err != nil {
			return fmt.Errorf("解析 data JSON 失败: %w", err)
		}
		text = binding.Interpolate(text, data)
	}

	lib := fonts.NewLibrary(fonts.Options{Dirs: cfg.FontDirs})
	r, err := newRenderer(cfg.Renderer, lib)
	if err != nil {
		return err
	}

	opts := layout.Options{
		Provider:   lib,
		Font:       cfg.Font,
		Fallbacks:  cfg.Fallbacks,
		FontSize:   cfg.FontSize,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Padding:    cfg.padding(),
		Spacing:    cfg.Spacing,
		Color:      cfg.Color,
		Background: cfg.Background,
		AutoWrap:   cfg.AutoWrap,
	}
	if cfg.Verbose {
		opts.Logger = log.New(os.Stderr, "linecard: ", 0)
	}
	if cfg.Base != "" {
		if opts.Canvas, err = loadImage(cfg.Base); err != nil {
			return err
		}
	}

	result, err := layout.Build(text, opts)
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}

	if cfg.Debug != "" {
		if err := writeDebug(result, cfg.Debug); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Output), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	pngBytes, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染 PNG 失败: %w", err)
	}
	if err := os.WriteFile(cfg.Output, pngBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PNG 文件失败: %w", err)
	}
	return nil
}

func newRenderer(name string, lib *fonts.Library) (renderer.Renderer, error) {
	switch strings.ToLower(name) {
	case "", "canvas":
		return canvasrenderer.NewRenderer(lib), nil
	case "gg":
		return ggrenderer.NewRenderer(lib), nil
	default:
		return nil, fmt.Errorf("未知的渲染后端 %q", name)
	}
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("读取标准输入失败: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("无法打开标记文件 %s: %w", path, err)
	}
	return string(data), nil
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开底图 %s: %w", path, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("解码底图 %s 失败: %w", path, err)
	}
	return img, nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
