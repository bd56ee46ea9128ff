package utils

import (
	"path/filepath"
	"strings"
)

// SanitizeFileName 把客户端提供的文件名清洗为可以安全落盘的名称。
// 丢弃所有目录部分和遍历序列，过滤控制字符和路径分隔符，
// 防止文件逃逸出上传目录。清洗后为空则返回空字符串，由调用方拒绝。
func SanitizeFileName(name string) string {
	// 统一两种路径分隔符后只保留最后一段
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean(name))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f: // 控制字符
			continue
		case r == '/' || r == '\\' || r == ':' || r == '\x00':
			continue
		case r == ' ':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	// "." 和 ".." 以及纯点组成的名称一律视为非法
	if strings.Trim(cleaned, ".") == "" {
		return ""
	}
	return cleaned
}

// SplitExt 把文件名拆成主干和扩展名，用于生成 name_1.ext 形式的去重名称
func SplitExt(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	return name[:len(name)-len(ext)], ext
}
