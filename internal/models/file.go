package models

import "time"

// FileInfo 上传目录中单个文件的元数据
type FileInfo struct {
	Name          string    `json:"name"`
	Size          int64     `json:"size"`
	SizeFormatted string    `json:"size_formatted"`
	Modified      time.Time `json:"modified"`
	MimeType      string    `json:"type"`
}

// StorageInfo 上传目录所在磁盘的使用情况
type StorageInfo struct {
	UsedSpace            int64   `json:"used_space"` // 上传目录内所有文件占用的字节数
	UsedSpaceFormatted   string  `json:"used_space_formatted"`
	TotalSpace           uint64  `json:"total_space"` // 磁盘总容量
	TotalSpaceFormatted  string  `json:"total_space_formatted"`
	FreeSpace            uint64  `json:"free_space"` // 磁盘剩余空间
	FreeSpaceFormatted   string  `json:"free_space_formatted"`
	FileCount            int     `json:"file_count"`
	MaxFileSize          int64   `json:"max_file_size"`
	MaxFileSizeFormatted string  `json:"max_file_size_formatted"`
	AvailableMemoryMB    float64 `json:"available_memory_mb,omitempty"` // 内存探测失败时省略
}
