package fonts

import (
	"bytes"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"golang.org/x/image/font/sfnt"

	"github.com/ByLCY/linecard/layout"
)

// mmToPt 与 canvas 的单位换算保持一致：字号以 pt 传入，内部以 mm 计量。
// 将像素字号按 mm 传入后，canvas 的宽度与度量值即为像素。
const mmToPt = 1.0 / 0.352777

var fontExts = []string{".ttf", ".otf", ".ttc"}

// Library 是线程安全的字体提供者：字体文件与按尺寸生成的字体面在首次使用时加载，之后只读。
type Library struct {
	dirs        []string
	defaultFont string

	mu      sync.Mutex
	paths   map[string]string
	fonts   map[string]*Font
	faces   map[faceKey]*Face
	scanned map[string]string // 小写文件名(不含扩展名) -> 路径
}

type faceKey struct {
	name string
	size float64
}

// Options 配置字体库。
type Options struct {
	// Dirs 为字体搜索目录，为空时使用系统字体目录。
	Dirs []string
	// Default 为空字体名对应的字体，默认 DefaultFont。
	Default string
}

var (
	_ layout.FontProvider = (*Library)(nil)
	_ layout.Face         = (*Face)(nil)
)

// NewLibrary 创建字体库。
func NewLibrary(opts Options) *Library {
	dirs := opts.Dirs
	if len(dirs) == 0 {
		dirs = SystemDirs()
	}
	def := opts.Default
	if def == "" {
		def = DefaultFont
	}
	return &Library{
		dirs:        dirs,
		defaultFont: def,
		paths:       map[string]string{},
		fonts:       map[string]*Font{},
		faces:       map[faceKey]*Face{},
	}
}

// SystemDirs 返回当前平台的常见字体目录。
func SystemDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		return []string{`C:\Windows\Fonts`}
	case "darwin":
		dirs := []string{"/Library/Fonts", "/System/Library/Fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
		return dirs
	default:
		dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".local", "share", "fonts"), filepath.Join(home, ".fonts"))
		}
		return dirs
	}
}

// Locate 将字体名解析为可用路径：内置字体返回 "embed:<name>"，
// 已存在的文件路径原样返回绝对路径，否则按文件名（不含扩展名、不区分大小写）在字体目录中查找。
func (l *Library) Locate(name string) (string, error) {
	if name == "" {
		name = l.defaultFont
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locateLocked(name)
}

func (l *Library) locateLocked(name string) (string, error) {
	if path, ok := l.paths[name]; ok {
		return path, nil
	}
	path, err := l.find(name)
	if err != nil {
		return "", err
	}
	l.paths[name] = path
	return path, nil
}

func (l *Library) find(name string) (string, error) {
	if isBuiltin(name) {
		return embedPrefix + strings.TrimPrefix(name, embedPrefix), nil
	}
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return filepath.Abs(name)
	}
	if l.scanned == nil {
		l.scanned = scanDirs(l.dirs)
	}
	if path, ok := l.scanned[strings.ToLower(name)]; ok {
		return path, nil
	}
	return "", fmt.Errorf("字体 %s 未找到", name)
}

// scanDirs 递归收集字体目录中的字体文件，同名时先找到的优先。
func scanDirs(dirs []string) map[string]string {
	found := map[string]string{}
	for _, dir := range dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			for _, want := range fontExts {
				if ext == want {
					stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
					if _, ok := found[stem]; !ok {
						found[stem] = path
					}
					break
				}
			}
			return nil
		})
	}
	return found
}

// Font 是已加载的字体文件；字形覆盖查询结果缓存在 coverage 中。
type Font struct {
	name     string
	path     string
	data     []byte
	sfnt     *sfnt.Font
	family   *canvas.FontFamily
	coverage sync.Map // rune -> bool

	// canvas 的排版与字体面构造不保证并发安全，经由 mu 串行化。
	mu sync.Mutex
}

// Name 返回请求时使用的字体名。
func (f *Font) Name() string { return f.name }

// Path 返回解析后的路径，内置字体为 "embed:..."。
func (f *Font) Path() string { return f.path }

// Data 返回字体文件原始字节。
func (f *Font) Data() []byte { return f.data }

// SFNT 返回解析后的字体，字体集合取第一个。
func (f *Font) SFNT() *sfnt.Font { return f.sfnt }

// Covers 查询 cmap 中是否存在该字符的字形。
func (f *Font) Covers(r rune) bool {
	if v, ok := f.coverage.Load(r); ok {
		return v.(bool)
	}
	idx, err := f.sfnt.GlyphIndex(nil, r)
	covered := err == nil && idx != 0
	f.coverage.Store(r, covered)
	return covered
}

// Font 返回已加载的字体文件。
func (l *Library) Font(name string) (*Font, error) {
	if name == "" {
		name = l.defaultFont
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fontLocked(name)
}

func (l *Library) fontLocked(name string) (*Font, error) {
	if f, ok := l.fonts[name]; ok {
		return f, nil
	}
	path, err := l.locateLocked(name)
	if err != nil {
		return nil, err
	}
	var data []byte
	if strings.HasPrefix(path, embedPrefix) {
		data, err = Load(path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", path, err)
	}

	parsed, err := parseSFNT(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", path, err)
	}
	family := canvas.NewFontFamily(name)
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("加载字体 %s 失败: %w", path, err)
	}

	f := &Font{name: name, path: path, data: data, sfnt: parsed, family: family}
	l.fonts[name] = f
	return f, nil
}

// parseSFNT 解析 TTF/OTF；字体集合（.ttc）取第一个字体。
func parseSFNT(data []byte) (*sfnt.Font, error) {
	if bytes.HasPrefix(data, []byte("ttcf")) {
		coll, err := sfnt.ParseCollection(data)
		if err != nil {
			return nil, err
		}
		return coll.Font(0)
	}
	return sfnt.Parse(data)
}

// Face 实现 layout.FontProvider。
func (l *Library) Face(name string, size float64) (layout.Face, error) {
	return l.SizedFace(name, size)
}

// SizedFace 与 Face 相同，但返回具体类型，供渲染器取用底层字体。
func (l *Library) SizedFace(name string, size float64) (*Face, error) {
	if name == "" {
		name = l.defaultFont
	}
	if size <= 0 {
		return nil, fmt.Errorf("字号必须为正数: %g", size)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	key := faceKey{name: name, size: size}
	if face, ok := l.faces[key]; ok {
		return face, nil
	}
	f, err := l.fontLocked(name)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	measure := f.family.Face(size*mmToPt, color.Black, canvas.FontRegular, canvas.FontNormal)
	f.mu.Unlock()
	face := &Face{font: f, size: size, measure: measure}
	l.faces[key] = face
	return face, nil
}

// Face 是指定像素尺寸的字体面。
type Face struct {
	font     *Font
	size     float64
	measure  *canvas.FontFace
	advances sync.Map // rune -> float64
}

func (f *Face) Name() string       { return f.font.name }
func (f *Face) Size() float64      { return f.size }
func (f *Face) Font() *Font        { return f.font }
func (f *Face) Covers(r rune) bool { return f.font.Covers(r) }

// Advance 返回字符的水平步进宽度（像素）。
func (f *Face) Advance(r rune) float64 {
	if v, ok := f.advances.Load(r); ok {
		return v.(float64)
	}
	f.font.mu.Lock()
	w := f.measure.TextWidth(string(r))
	f.font.mu.Unlock()
	f.advances.Store(r, w)
	return w
}

// Ascent 返回基线以上的高度（像素）。
func (f *Face) Ascent() float64 {
	f.font.mu.Lock()
	defer f.font.mu.Unlock()
	return f.measure.Metrics().Ascent
}

// CanvasFace 返回用于绘制的 canvas 字体面。
func (f *Face) CanvasFace(col color.Color) *canvas.FontFace {
	f.font.mu.Lock()
	defer f.font.mu.Unlock()
	return f.font.family.Face(f.size*mmToPt, col, canvas.FontRegular, canvas.FontNormal)
}
