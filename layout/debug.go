package layout

import (
	"encoding/json"
	"io"
	"os"
)

// EncodeDebug 将排版记录以缩进 JSON 写入 w，便于调试对齐与换行。
func EncodeDebug(w io.Writer, res *Result) error {
	if res == nil {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteDebugJSON 将布局结果输出为 JSON 文件。
func WriteDebugJSON(res *Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeDebug(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
