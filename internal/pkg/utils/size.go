package utils

import "fmt"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatFileSize 把字节数转换为人类可读格式（1024进制，保留一位小数）
// 例如 1536 -> "1.5 KB"，0 -> "0 B"
func FormatFileSize(sizeBytes uint64) string {
	if sizeBytes == 0 {
		return "0 B"
	}
	size := float64(sizeBytes)
	i := 0
	for size >= 1024.0 && i < len(sizeUnits)-1 {
		size /= 1024.0
		i++
	}
	return fmt.Sprintf("%.1f %s", size, sizeUnits[i])
}
