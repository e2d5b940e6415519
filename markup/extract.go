package markup

import (
	"regexp"
	"strings"
)

// 占位符使用私有区字符，正文中几乎不会出现。
const (
	RawPlaceholder   = '\uE000'
	FontPlaceholder  = '\uE001'
	AlignPlaceholder = '\uE002'
)

var (
	rawPattern   = regexp.MustCompile(`\{([^}]*)\}`)
	fontPattern  = regexp.MustCompile(`\[font\s*([^\]]*)\]`)
	alignPattern = regexp.MustCompile(`\[left\]|\[right\]|\[center\]|\[pixel[^\]]*\]`)
)

// Stream 是按文档顺序记录的一类标签内容，只能从前往后消费。
type Stream struct {
	items []string
	next  int
}

// NewStream 按给定顺序创建标签流。
func NewStream(items ...string) *Stream {
	return &Stream{items: items}
}

// Pop 取出下一项；耗尽时返回 false，调用方按无操作处理。
func (s *Stream) Pop() (string, bool) {
	if s == nil || s.next >= len(s.items) {
		return "", false
	}
	item := s.items[s.next]
	s.next++
	return item, true
}

// Len 返回捕获的标签总数。
func (s *Stream) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Remaining 返回尚未消费的标签数。
func (s *Stream) Remaining() int {
	if s == nil {
		return 0
	}
	return len(s.items) - s.next
}

// Extracted 保存替换占位符后的文本与三类标签流。
type Extracted struct {
	Text  string
	Raw   *Stream
	Font  *Stream
	Align *Stream
}

// Extract 在整篇文本上依次提取原文 {...}、字体标签与对齐标签，
// 每处匹配替换为对应类别的单个占位符。
// 原文段最先处理，因此其中看似标签的内容不会被解释。
func Extract(text string) Extracted {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var raw, fonts, aligns []string
	text = rawPattern.ReplaceAllStringFunc(text, func(match string) string {
		raw = append(raw, match[1:len(match)-1])
		return string(RawPlaceholder)
	})
	text = fontPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := fontPattern.FindStringSubmatch(match)
		fonts = append(fonts, groups[1])
		return string(FontPlaceholder)
	})
	text = alignPattern.ReplaceAllStringFunc(text, func(match string) string {
		aligns = append(aligns, match)
		return string(AlignPlaceholder)
	})

	return Extracted{
		Text:  text,
		Raw:   NewStream(raw...),
		Font:  NewStream(fonts...),
		Align: NewStream(aligns...),
	}
}

// IsPlaceholder 判断 r 是否为保留的占位符。
func IsPlaceholder(r rune) bool {
	return r == RawPlaceholder || r == FontPlaceholder || r == AlignPlaceholder
}

// StripLineTag 删除 line 中第一次出现的 [name ...] 行级标签，返回剩余文本与标签体。
// 标签名必须完整匹配：[nowrap] 不会命中 [nowrapx]，[autowrap] 不会命中 [noautowrap]。
func StripLineTag(line, name string) (rest, body string, ok bool) {
	open := "[" + name
	offset := 0
	for offset < len(line) {
		i := strings.Index(line[offset:], open)
		if i < 0 {
			return line, "", false
		}
		start := offset + i
		after := start + len(open)
		end := strings.IndexByte(line[after:], ']')
		if end < 0 {
			return line, "", false
		}
		end += after
		inner := line[after:end]
		if inner == "" || inner[0] == ' ' || inner[0] == '\t' {
			return line[:start] + line[end+1:], strings.TrimSpace(inner), true
		}
		offset = after
	}
	return line, "", false
}
