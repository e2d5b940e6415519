package binding

import (
	"encoding/json"
	"testing"

	"github.com/ByLCY/linecard/markup"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return data
}

func TestInterpolatePaths(t *testing.T) {
	data := decode(t, `{"user":{"name":"Ada","tags":["x","y"]},"score":12.5,"count":3,"ok":true,"none":null}`)
	cases := map[string]string{
		"${user.name}":       "{Ada}",
		"${ user.tags[1] }":  "{y}",
		"${score}/${count}":  "{12.5}/{3}",
		"${ok}":              "{true}",
		"[${none}]":          "[]",
		"${missing}":         "${missing}",
		"${user.tags[9]}":    "${user.tags[9]}",
		"${user.name[0]}":    "${user.name[0]}",
		"${user.tags[x]}":    "${user.tags[x]}",
		"plain [right] text": "plain [right] text",
	}
	for in, want := range cases {
		if got := Interpolate(in, data); got != want {
			t.Fatalf("Interpolate(%q) = %q, want %q", in, got, want)
		}
	}
	if got := Interpolate("${a}", nil); got != "${a}" {
		t.Fatalf("nil data should keep placeholders, got %q", got)
	}
}

func TestEscapeSplitsBracesAndLines(t *testing.T) {
	cases := map[string]string{
		"":         "",
		"a}b":      "{a}}{b}",
		"}":        "}",
		"one\ntwo": "{one}\n{two}",
		"x{y":      "{x{y}",
	}
	for in, want := range cases {
		if got := Escape(in); got != want {
			t.Fatalf("Escape(%q) = %q, want %q", in, got, want)
		}
	}
}

// 数据中的标记只能以原样片段出现，不能产生字体或对齐标签。
func TestInterpolatedMarkupIsLiteral(t *testing.T) {
	data := decode(t, `{"evil":"[font size=99][right]{boom}"}`)
	ex := markup.Extract(Interpolate("Hi ${evil}", data))
	if ex.Font.Len() != 0 || ex.Align.Len() != 0 {
		t.Fatalf("interpolated value produced tags: font=%d align=%d", ex.Font.Len(), ex.Align.Len())
	}
	var literal string
	for {
		tok, ok := ex.Raw.Pop()
		if !ok {
			break
		}
		literal += tok
	}
	if literal != "[font size=99][right]{boom" {
		t.Fatalf("unexpected literal text %q", literal)
	}
}
