package storage

import (
	"fmt"

	"github.com/3Eeeecho/go-filebox/internal/config"
	"github.com/3Eeeecho/go-filebox/internal/pkg/logger"
	"github.com/3Eeeecho/go-filebox/internal/pkg/utils"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

// DiskUsage 磁盘使用情况探测结果
type DiskUsage struct {
	Total uint64
	Free  uint64
}

// AdmissionChecker 在提交写入之前做存储和内存准入判断。
// 探测函数可注入，便于测试边界条件。
type AdmissionChecker struct {
	uploadDir      string
	minFreeSpace   uint64
	memoryFraction float64

	diskUsage  func(path string) (*DiskUsage, error)
	memoryStat func() (uint64, error) // 返回可用内存字节数
}

// NewAdmissionChecker 创建准入检查器，默认使用 gopsutil 探测磁盘和内存
func NewAdmissionChecker(cfg *config.StorageConfig) *AdmissionChecker {
	return &AdmissionChecker{
		uploadDir:      cfg.UploadDir,
		minFreeSpace:   cfg.MinFreeSpace,
		memoryFraction: cfg.MemoryFraction,
		diskUsage: func(path string) (*DiskUsage, error) {
			usage, err := disk.Usage(path)
			if err != nil {
				return nil, err
			}
			return &DiskUsage{Total: usage.Total, Free: usage.Free}, nil
		},
		memoryStat: func() (uint64, error) {
			vm, err := mem.VirtualMemory()
			if err != nil {
				return 0, err
			}
			return vm.Available, nil
		},
	}
}

// NewAdmissionCheckerWithProbes 创建使用自定义探测函数的准入检查器，
// 供测试和无法依赖系统探测的环境使用
func NewAdmissionCheckerWithProbes(
	cfg *config.StorageConfig,
	diskUsage func(path string) (*DiskUsage, error),
	memoryStat func() (uint64, error),
) *AdmissionChecker {
	c := NewAdmissionChecker(cfg)
	if diskUsage != nil {
		c.diskUsage = diskUsage
	}
	if memoryStat != nil {
		c.memoryStat = memoryStat
	}
	return c
}

// CheckStorageSpace 判断写入 size 字节后磁盘剩余空间是否仍高于安全水位。
// 探测失败按拒绝处理（fail closed）。
func (c *AdmissionChecker) CheckStorageSpace(size int64) (bool, string) {
	usage, err := c.diskUsage(c.uploadDir)
	if err != nil {
		logger.Error("磁盘空间探测失败", zap.String("dir", c.uploadDir), zap.Error(err))
		return false, fmt.Sprintf("无法检查磁盘空间: %v", err)
	}

	if size < 0 {
		return false, "无效的文件大小"
	}
	if uint64(size) > usage.Free || usage.Free-uint64(size) < c.minFreeSpace {
		reason := fmt.Sprintf("磁盘空间不足，上传后需保留至少 %s 空闲空间",
			utils.FormatFileSize(c.minFreeSpace))
		logger.Warn("存储准入检查拒绝",
			zap.Int64("candidateSize", size),
			zap.Uint64("freeSpace", usage.Free),
			zap.Uint64("minFreeSpace", c.minFreeSpace))
		return false, reason
	}
	return true, ""
}

// CheckMemoryForUpload 判断是否允许缓冲式写入。
// 这是一个建议性的启发式判断：候选大小超过可用内存的固定比例时建议流式写入；
// 内存探测失败时放行缓冲写入（fail open），因为内存信息只是尽力而为。
func (c *AdmissionChecker) CheckMemoryForUpload(size int64) (useBuffered bool, reason string) {
	available, err := c.memoryStat()
	if err != nil {
		logger.Warn("可用内存探测失败，默认允许缓冲上传", zap.Error(err))
		return true, ""
	}

	threshold := uint64(float64(available) * c.memoryFraction)
	if size >= 0 && uint64(size) > threshold {
		return false, fmt.Sprintf("文件大小 %s 超过可用内存的 %.0f%%，改用流式写入",
			utils.FormatFileSize(uint64(size)), c.memoryFraction*100)
	}
	return true, ""
}

// AvailableMemoryMB 返回当前可用内存（MB），探测失败时 ok 为 false
func (c *AdmissionChecker) AvailableMemoryMB() (float64, bool) {
	available, err := c.memoryStat()
	if err != nil {
		return 0, false
	}
	return float64(available) / 1024 / 1024, true
}

// Usage 返回上传目录所在磁盘的使用情况
func (c *AdmissionChecker) Usage() (*DiskUsage, error) {
	return c.diskUsage(c.uploadDir)
}
