package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/3Eeeecho/go-filebox/internal/models"
	"github.com/3Eeeecho/go-filebox/internal/pkg/logger"
	"github.com/3Eeeecho/go-filebox/internal/pkg/utils"
	"go.uber.org/zap"
)

const (
	// 进度日志的触发条件：写满一个字节配额或超过一个时间间隔，先到先触发
	progressByteQuantum = 256 * 1024 * 1024 // 256MB
	progressInterval    = 10 * time.Second

	// 解析出的文件名在创建时仍可能和并发请求撞车，最多重试这么多次
	maxCreateAttempts = 100
)

var ErrObjectNotFound = errors.New("文件在上传目录中不存在")

// LocalStorage 管理上传目录内的所有磁盘操作：
// 分块流式写入、文件名去重、元数据读取、删除。
type LocalStorage struct {
	baseDir   string
	chunkSize int

	// 序列化"解析文件名+独占创建"这一步，配合 O_EXCL 消除并发上传同名文件时的竞态
	mu sync.Mutex
}

// NewLocalStorage 创建本地存储引擎，上传目录不存在时自动创建
func NewLocalStorage(baseDir string, chunkSize int) (*LocalStorage, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("invalid chunk size: %d", chunkSize)
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败 %s: %w", baseDir, err)
	}
	return &LocalStorage{baseDir: baseDir, chunkSize: chunkSize}, nil
}

// BaseDir 返回上传目录路径
func (s *LocalStorage) BaseDir() string {
	return s.baseDir
}

func (s *LocalStorage) fullPath(name string) string {
	return filepath.Join(s.baseDir, name)
}

// resolveFileNameConflict 在上传目录内为 name 找到一个不冲突的落盘名称。
// 存在同名文件时依次尝试 name_1.ext, name_2.ext, ...
func (s *LocalStorage) resolveFileNameConflict(name string) string {
	if _, err := os.Stat(s.fullPath(name)); os.IsNotExist(err) {
		return name
	}
	stem, ext := utils.SplitExt(name)
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, counter, ext)
		if _, err := os.Stat(s.fullPath(candidate)); os.IsNotExist(err) {
			if candidate != name {
				logger.Info("文件名冲突已解决",
					zap.String("requested", name),
					zap.String("final", candidate))
			}
			return candidate
		}
	}
}

// createExclusive 解析冲突并以 O_EXCL 方式独占创建目标文件。
// 整个过程持有锁，两个并发请求不可能拿到同一个落盘名称。
func (s *LocalStorage) createExclusive(name string) (*os.File, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		finalName := s.resolveFileNameConflict(name)
		f, err := os.OpenFile(s.fullPath(finalName), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, finalName, nil
		}
		if os.IsExist(err) {
			// 被其他路径（如外部进程）抢先创建，重新解析
			continue
		}
		return nil, "", fmt.Errorf("创建目标文件失败 %s: %w", finalName, err)
	}
	return nil, "", fmt.Errorf("解析文件名 %s 时重试次数耗尽", name)
}

// StreamToDisk 以固定大小的分块把 r 写入上传目录，返回最终文件名和写入的字节总数。
// 内存中最多只保留一个分块。任何读写失败都会删除写了一半的文件后返回原始错误。
func (s *LocalStorage) StreamToDisk(ctx context.Context, r io.Reader, name string) (string, int64, error) {
	f, finalName, err := s.createExclusive(name)
	if err != nil {
		return "", 0, err
	}
	destPath := s.fullPath(finalName)

	var written int64
	start := time.Now()
	lastLogBytes := int64(0)
	lastLogTime := start

	buf := make([]byte, s.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			s.abortWrite(f, destPath)
			return "", 0, fmt.Errorf("上传已取消: %w", err)
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			if _, writeErr := f.Write(buf[:n]); writeErr != nil {
				s.abortWrite(f, destPath)
				return "", 0, fmt.Errorf("写入文件失败 %s: %w", finalName, writeErr)
			}
			written += int64(n)

			// 进度观测，只记日志，不影响写入路径
			if written-lastLogBytes >= progressByteQuantum || time.Since(lastLogTime) >= progressInterval {
				elapsed := time.Since(start)
				logger.Info("流式写入进度",
					zap.String("file", finalName),
					zap.Int64("bytesWritten", written),
					zap.Duration("elapsed", elapsed),
					zap.Float64("throughputMBps", float64(written)/elapsed.Seconds()/1024/1024))
				lastLogBytes = written
				lastLogTime = time.Now()
			}
		}
		if readErr == io.EOF {
			break // 零长度读取表示流结束
		}
		if readErr != nil {
			// 客户端断开等读取失败和写入失败走同一条清理路径
			s.abortWrite(f, destPath)
			return "", 0, fmt.Errorf("读取上传流失败: %w", readErr)
		}
	}

	if err := f.Close(); err != nil {
		s.removePartial(destPath)
		return "", 0, fmt.Errorf("关闭目标文件失败 %s: %w", finalName, err)
	}

	logger.Info("流式写入完成",
		zap.String("file", finalName),
		zap.Int64("bytesWritten", written),
		zap.Duration("elapsed", time.Since(start)))
	return finalName, written, nil
}

// SaveBuffered 把已在内存中的完整内容一次性写入，和 StreamToDisk 在结果上完全等价。
// 只在准入检查判定内存充足时由上层选择。
func (s *LocalStorage) SaveBuffered(data []byte, name string) (string, int64, error) {
	f, finalName, err := s.createExclusive(name)
	if err != nil {
		return "", 0, err
	}
	destPath := s.fullPath(finalName)

	n, err := f.Write(data)
	if err != nil {
		s.abortWrite(f, destPath)
		return "", 0, fmt.Errorf("写入文件失败 %s: %w", finalName, err)
	}
	if err := f.Close(); err != nil {
		s.removePartial(destPath)
		return "", 0, fmt.Errorf("关闭目标文件失败 %s: %w", finalName, err)
	}
	return finalName, int64(n), nil
}

// abortWrite 关闭并删除写失败的目标文件
func (s *LocalStorage) abortWrite(f *os.File, path string) {
	_ = f.Close()
	s.removePartial(path)
}

// removePartial 尽力删除残留的半成品文件，删除失败只记日志，不改变上报的错误
func (s *LocalStorage) removePartial(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Error("清理部分写入的文件失败", zap.String("path", path), zap.Error(err))
	}
}

// Stat 读取单个文件的元数据
func (s *LocalStorage) Stat(name string) (*models.FileInfo, error) {
	info, err := os.Stat(s.fullPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("读取文件元数据失败 %s: %w", name, err)
	}
	if info.IsDir() {
		return nil, ErrObjectNotFound
	}
	return &models.FileInfo{
		Name:          name,
		Size:          info.Size(),
		SizeFormatted: utils.FormatFileSize(uint64(info.Size())),
		Modified:      info.ModTime(),
		MimeType:      guessMimeType(name),
	}, nil
}

// Exists 判断文件是否存在
func (s *LocalStorage) Exists(name string) bool {
	info, err := os.Stat(s.fullPath(name))
	return err == nil && !info.IsDir()
}

// Open 打开文件用于下载
func (s *LocalStorage) Open(name string) (*os.File, error) {
	f, err := os.Open(s.fullPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("打开文件失败 %s: %w", name, err)
	}
	return f, nil
}

// Remove 删除文件，文件不存在时返回 ErrObjectNotFound
func (s *LocalStorage) Remove(name string) error {
	err := os.Remove(s.fullPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("删除文件失败 %s: %w", name, err)
	}
	return nil
}

// List 返回上传目录内所有文件的元数据（不保证顺序，排序由调用方决定）
func (s *LocalStorage) List() ([]models.FileInfo, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("读取上传目录失败 %s: %w", s.baseDir, err)
	}
	files := make([]models.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logger.Warn("读取目录项元数据失败", zap.String("name", entry.Name()), zap.Error(err))
			continue
		}
		files = append(files, models.FileInfo{
			Name:          entry.Name(),
			Size:          info.Size(),
			SizeFormatted: utils.FormatFileSize(uint64(info.Size())),
			Modified:      info.ModTime(),
			MimeType:      guessMimeType(entry.Name()),
		})
	}
	return files, nil
}

// UsedSpace 统计上传目录内文件占用的总字节数和文件数量
func (s *LocalStorage) UsedSpace() (int64, int, error) {
	files, err := s.List()
	if err != nil {
		return 0, 0, err
	}
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total, len(files), nil
}

// guessMimeType 根据扩展名猜测内容类型，猜不出时回退到二进制流
func guessMimeType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
