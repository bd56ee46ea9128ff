package storage

import (
	"errors"
	"testing"

	"github.com/3Eeeecho/go-filebox/internal/config"
	"github.com/stretchr/testify/assert"
)

func newTestChecker(free, available uint64) *AdmissionChecker {
	cfg := &config.StorageConfig{
		UploadDir:      "/uploads",
		MinFreeSpace:   1000,
		MemoryFraction: 0.5,
	}
	return NewAdmissionCheckerWithProbes(cfg,
		func(path string) (*DiskUsage, error) {
			return &DiskUsage{Total: 1 << 40, Free: free}, nil
		},
		func() (uint64, error) {
			return available, nil
		},
	)
}

func TestCheckStorageSpace(t *testing.T) {
	cases := []struct {
		name string
		free uint64
		size int64
		ok   bool
	}{
		{"空间充裕", 10000, 500, true},
		{"刚好落在水位上", 10000, 9000, true},
		{"超过水位一个字节", 10000, 9001, false},
		{"候选大小超过全部空闲空间", 10000, 20000, false},
		{"空闲空间已低于水位且候选为零", 999, 0, false},
		{"负数大小", 10000, -1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := newTestChecker(tc.free, 1<<30).CheckStorageSpace(tc.size)
			assert.Equal(t, tc.ok, ok)
			if !tc.ok {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestCheckStorageSpaceFailsClosed(t *testing.T) {
	cfg := &config.StorageConfig{UploadDir: "/uploads", MinFreeSpace: 1000, MemoryFraction: 0.5}
	c := NewAdmissionCheckerWithProbes(cfg,
		func(path string) (*DiskUsage, error) {
			return nil, errors.New("statfs failed")
		},
		nil,
	)
	ok, reason := c.CheckStorageSpace(100)
	assert.False(t, ok, "磁盘探测失败时必须拒绝上传")
	assert.NotEmpty(t, reason)
}

func TestCheckMemoryForUpload(t *testing.T) {
	// available=1000, fraction=0.5 => 阈值 500
	c := newTestChecker(1<<40, 1000)

	useBuffered, _ := c.CheckMemoryForUpload(500)
	assert.True(t, useBuffered, "等于阈值时允许缓冲")

	useBuffered, reason := c.CheckMemoryForUpload(501)
	assert.False(t, useBuffered, "超过阈值时建议流式")
	assert.NotEmpty(t, reason)
}

func TestCheckMemoryForUploadFailsOpen(t *testing.T) {
	cfg := &config.StorageConfig{UploadDir: "/uploads", MinFreeSpace: 1000, MemoryFraction: 0.5}
	c := NewAdmissionCheckerWithProbes(cfg,
		func(path string) (*DiskUsage, error) {
			return &DiskUsage{Total: 1 << 40, Free: 1 << 39}, nil
		},
		func() (uint64, error) {
			return 0, errors.New("meminfo unavailable")
		},
	)
	useBuffered, _ := c.CheckMemoryForUpload(100)
	assert.True(t, useBuffered, "内存探测失败时放行缓冲写入")

	_, ok := c.AvailableMemoryMB()
	assert.False(t, ok)
}

func TestAvailableMemoryMB(t *testing.T) {
	c := newTestChecker(1<<40, 512*1024*1024)
	mb, ok := c.AvailableMemoryMB()
	assert.True(t, ok)
	assert.InDelta(t, 512.0, mb, 0.01)
}
