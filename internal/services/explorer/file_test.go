package explorer

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/3Eeeecho/go-filebox/internal/config"
	"github.com/3Eeeecho/go-filebox/internal/pkg/storage"
	"github.com/3Eeeecho/go-filebox/internal/pkg/xerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probes struct {
	free      uint64
	available uint64
}

func newTestService(t *testing.T, p probes) (FileService, *storage.LocalStorage) {
	t.Helper()

	cfg := &config.Config{
		Storage: config.StorageConfig{
			UploadDir:      t.TempDir(),
			MaxFileSize:    10 * 1024 * 1024,
			ChunkSize:      64 * 1024,
			MinFreeSpace:   1024,
			MemoryFraction: 0.5,
		},
	}
	engine, err := storage.NewLocalStorage(cfg.Storage.UploadDir, cfg.Storage.ChunkSize)
	require.NoError(t, err)

	checker := storage.NewAdmissionCheckerWithProbes(&cfg.Storage,
		func(path string) (*storage.DiskUsage, error) {
			return &storage.DiskUsage{Total: 1 << 40, Free: p.free}, nil
		},
		func() (uint64, error) {
			return p.available, nil
		},
	)
	return NewFileService(engine, checker, nil, cfg), engine
}

func plentiful() probes {
	return probes{free: 1 << 39, available: 1 << 32}
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	data := make([]byte, n)
	_, err := rand.Read(data)
	require.NoError(t, err)
	return data
}

func TestUploadKnownSize(t *testing.T) {
	svc, engine := newTestService(t, plentiful())
	data := randomBytes(t, 2048)

	info, err := svc.Upload(context.Background(), "file.bin", int64(len(data)), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "file.bin", info.Name)
	assert.Equal(t, int64(2048), info.Size)

	onDisk, err := os.ReadFile(filepath.Join(engine.BaseDir(), "file.bin"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, onDisk))
}

func TestUploadUnknownSizeStreams(t *testing.T) {
	// available=0 时任何已知大小都会走流式，未知大小同样必须成功
	svc, engine := newTestService(t, probes{free: 1 << 39, available: 0})
	data := randomBytes(t, 200*1024)

	info, err := svc.Upload(context.Background(), "stream.bin", -1, bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), info.Size)

	onDisk, err := os.ReadFile(filepath.Join(engine.BaseDir(), "stream.bin"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, onDisk))
}

func TestUploadBufferedAndStreamedEquivalent(t *testing.T) {
	data := randomBytes(t, 100*1024)

	// 内存充裕，走缓冲路径
	bufferedSvc, bufferedEngine := newTestService(t, plentiful())
	_, err := bufferedSvc.Upload(context.Background(), "same.bin", int64(len(data)), bytes.NewReader(data))
	require.NoError(t, err)

	// 可用内存为零，同样的输入被迫走流式路径
	streamedSvc, streamedEngine := newTestService(t, probes{free: 1 << 39, available: 0})
	_, err = streamedSvc.Upload(context.Background(), "same.bin", int64(len(data)), bytes.NewReader(data))
	require.NoError(t, err)

	buffered, err := os.ReadFile(filepath.Join(bufferedEngine.BaseDir(), "same.bin"))
	require.NoError(t, err)
	streamed, err := os.ReadFile(filepath.Join(streamedEngine.BaseDir(), "same.bin"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(buffered, streamed), "两条写入路径必须产生相同的结果")
}

func TestUploadRejectsTooLargeDeclared(t *testing.T) {
	svc, _ := newTestService(t, plentiful())

	_, err := svc.Upload(context.Background(), "big.bin", 11*1024*1024, bytes.NewReader(nil))
	assert.ErrorIs(t, err, xerr.ErrFileTooLarge)
}

func TestUploadRejectsOversizedStream(t *testing.T) {
	// 声明未知大小但实际内容超过上限，必须在落盘后被发现并清理
	svc, engine := newTestService(t, plentiful())
	data := randomBytes(t, 10*1024*1024+1)

	_, err := svc.Upload(context.Background(), "sneaky.bin", -1, bytes.NewReader(data))
	assert.ErrorIs(t, err, xerr.ErrFileTooLarge)

	files, err := engine.List()
	require.NoError(t, err)
	assert.Empty(t, files, "超限的上传不能留下文件")
}

func TestUploadRejectsWhenDiskFull(t *testing.T) {
	svc, engine := newTestService(t, probes{free: 512, available: 1 << 32})

	_, err := svc.Upload(context.Background(), "a.bin", 100, bytes.NewReader(randomBytes(t, 100)))
	assert.ErrorIs(t, err, xerr.ErrInsufficientStorage)

	files, err := engine.List()
	require.NoError(t, err)
	assert.Empty(t, files, "被拒绝的上传不能产生任何副作用")
}

func TestUploadRejectsTruncatedStream(t *testing.T) {
	svc, engine := newTestService(t, probes{free: 1 << 39, available: 0})

	// 声明 1000 字节但只给 600
	_, err := svc.Upload(context.Background(), "cut.bin", 1000, bytes.NewReader(randomBytes(t, 600)))
	assert.ErrorIs(t, err, xerr.ErrStorageError)

	files, err := engine.List()
	require.NoError(t, err)
	assert.Empty(t, files, "被截断的上传不能留下文件")
}

func TestUploadSanitizesName(t *testing.T) {
	svc, engine := newTestService(t, plentiful())

	info, err := svc.Upload(context.Background(), "../../etc/my file.txt", 4, bytes.NewReader([]byte("data")))
	require.NoError(t, err)
	assert.Equal(t, "my_file.txt", info.Name)

	_, err = svc.Upload(context.Background(), "..", 4, bytes.NewReader([]byte("data")))
	assert.ErrorIs(t, err, xerr.ErrFileNameInvalid)

	files, err := engine.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestUploadConflictGetsSuffix(t *testing.T) {
	svc, _ := newTestService(t, plentiful())

	info1, err := svc.Upload(context.Background(), "report.pdf", 3, bytes.NewReader([]byte("one")))
	require.NoError(t, err)
	info2, err := svc.Upload(context.Background(), "report.pdf", 3, bytes.NewReader([]byte("two")))
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", info1.Name)
	assert.Equal(t, "report_1.pdf", info2.Name)
}

func TestListFilesNewestFirst(t *testing.T) {
	svc, engine := newTestService(t, plentiful())

	for _, name := range []string{"first.txt", "second.txt", "third.txt"} {
		_, _, err := engine.SaveBuffered([]byte(name), name)
		require.NoError(t, err)
	}
	// 目录扫描区分不了同一秒内的写入顺序，直接改修改时间
	now := time.Now()
	for i, name := range []string{"first.txt", "second.txt", "third.txt"} {
		ts := now.Add(time.Duration(i-3) * time.Minute)
		require.NoError(t, os.Chtimes(filepath.Join(engine.BaseDir(), name), ts, ts))
	}

	files, err := svc.ListFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "third.txt", files[0].Name)
	assert.Equal(t, "first.txt", files[2].Name)
}

func TestDownload(t *testing.T) {
	svc, engine := newTestService(t, plentiful())
	_, _, err := engine.SaveBuffered([]byte("content"), "a.txt")
	require.NoError(t, err)

	info, reader, err := svc.Download(context.Background(), "a.txt")
	require.NoError(t, err)
	defer reader.Close()
	assert.Equal(t, int64(7), info.Size)

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	_, _, err = svc.Download(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, xerr.ErrFileNotFound)
}

func TestDelete(t *testing.T) {
	svc, engine := newTestService(t, plentiful())
	_, _, err := engine.SaveBuffered([]byte("x"), "a.txt")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "a.txt"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "a.txt"), xerr.ErrFileNotFound)
}

func TestStorageInfo(t *testing.T) {
	svc, engine := newTestService(t, probes{free: 1 << 30, available: 256 * 1024 * 1024})
	_, _, err := engine.SaveBuffered(randomBytes(t, 1024), "a.bin")
	require.NoError(t, err)

	info, err := svc.StorageInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1024), info.UsedSpace)
	assert.Equal(t, 1, info.FileCount)
	assert.Equal(t, uint64(1<<30), info.FreeSpace)
	assert.Equal(t, int64(10*1024*1024), info.MaxFileSize)
	assert.InDelta(t, 256.0, info.AvailableMemoryMB, 0.01)
}
